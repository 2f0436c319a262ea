// Package money wraps shopspring/decimal with the rounding and formatting
// rules of the clearance domain: SAR amounts, cent precision, fixed 15% VAT.
package money

import (
	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

// VATRatePercent is the single VAT rate applied by the authority.
const VATRatePercent = 15

// FromString parses a decimal from its canonical string form
func FromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// MustFromString parses a decimal from string, panics on error
func MustFromString(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Mul multiplies two decimals, rounds to cent precision
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b).Round(2)
}

// CalculateVAT computes the VAT amount at the fixed 15% rate, rounded to
// cent precision.
func CalculateVAT(taxable decimal.Decimal) decimal.Decimal {
	rate := decimal.NewFromInt(VATRatePercent)
	hundred := decimal.NewFromInt(100)
	return taxable.Mul(rate).Div(hundred).Round(2)
}

// Sum sums a slice of decimals
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// Format renders an amount in the canonical two-decimal fixed-point form
// used by the wire document.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ValidVATNumber reports whether s matches the authority's numeric VAT
// registration format: exactly 15 digits.
func ValidVATNumber(s string) bool {
	if len(s) != 15 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
