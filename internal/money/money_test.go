package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-clearance/internal/money"
)

func TestMul_RoundsToCents(t *testing.T) {
	tests := []struct {
		a, b, want string
	}{
		{"2", "500.00", "1000.00"},
		{"3", "10.555", "31.67"},  // 31.665 rounds half-up
		{"0.1", "0.1", "0.01"},
		{"7", "0.333", "2.33"},
	}

	for _, tt := range tests {
		got := money.Mul(money.MustFromString(tt.a), money.MustFromString(tt.b))
		assert.Equal(t, tt.want, money.Format(got), "%s * %s", tt.a, tt.b)
	}
}

func TestCalculateVAT(t *testing.T) {
	tests := []struct {
		taxable, want string
	}{
		{"1000.00", "150.00"},
		{"100", "15.00"},
		{"0.10", "0.02"}, // 0.015 rounds half-up
		{"0", "0.00"},
		{"33.33", "5.00"}, // 4.9995
	}

	for _, tt := range tests {
		got := money.CalculateVAT(money.MustFromString(tt.taxable))
		assert.Equal(t, tt.want, money.Format(got), "VAT of %s", tt.taxable)
	}
}

func TestSum(t *testing.T) {
	values := []decimal.Decimal{
		money.MustFromString("31.50"),
		money.MustFromString("0.25"),
		money.MustFromString("100"),
	}
	assert.Equal(t, "131.75", money.Format(money.Sum(values)))
	assert.True(t, money.Sum(nil).Equal(money.Zero))
}

func TestFromString(t *testing.T) {
	d, err := money.FromString("1150.00")
	require.NoError(t, err)
	assert.Equal(t, "1150.00", money.Format(d))

	_, err = money.FromString("not-a-number")
	require.Error(t, err)
}

func TestValidVATNumber(t *testing.T) {
	assert.True(t, money.ValidVATNumber("399999999900003"))
	assert.False(t, money.ValidVATNumber(""))
	assert.False(t, money.ValidVATNumber("39999999990000"))   // 14 digits
	assert.False(t, money.ValidVATNumber("3999999999000031")) // 16 digits
	assert.False(t, money.ValidVATNumber("39999999990000x"))
	assert.False(t, money.ValidVATNumber("3999999999 0003"))
}
