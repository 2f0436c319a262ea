// Package model defines the invoice aggregate, its lifecycle states and the
// artifacts frozen at each transition.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rezonia/einvoice-clearance/internal/money"
)

// InvoiceType selects the clearance path: Standard invoices (B2B) go through
// real-time clearance, Simplified invoices (B2C) through after-the-fact
// reporting.
type InvoiceType string

// Invoice types
const (
	TypeStandard   InvoiceType = "standard"
	TypeSimplified InvoiceType = "simplified"
)

// InvoiceTypeCode is the UBL type code for a tax invoice.
const InvoiceTypeCode = "388"

// SubtypeCode returns the transaction subtype carried in the type code's
// name attribute: the leading "01"/"02" selects the clearance path.
func (t InvoiceType) SubtypeCode() string {
	if t == TypeStandard {
		return "0100000"
	}
	return "0200000"
}

// State is an invoice's position in the clearance lifecycle. Transitions are
// one-directional; there is no way back from a later state.
type State int

// Lifecycle states, in transition order.
const (
	StateDraft State = iota
	StateSigned
	StateValidated
	StateSubmitted
	StateCleared
)

func (s State) String() string {
	switch s {
	case StateDraft:
		return "draft"
	case StateSigned:
		return "signed"
	case StateValidated:
		return "validated"
	case StateSubmitted:
		return "submitted"
	case StateCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Party is a seller or buyer identified by its VAT registration.
type Party struct {
	Name        string `json:"name"`
	VATNumber   string `json:"vat_number"`
	CRN         string `json:"crn,omitempty"`
	Street      string `json:"street,omitempty"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// LineItem is one priced invoice line. LineTotal is derived at construction
// time, never taken from input.
type LineItem struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Envelope freezes the artifacts derived from a signed document: the exact
// raw bytes, their Base64 form, the SHA-256 digest binding them and the QR
// payload the signer embedded. Once set it is never recomputed.
type Envelope struct {
	Raw    []byte `json:"-"`
	Base64 string `json:"base64"`
	Hash   string `json:"hash"`
	QR     []byte `json:"-"`
}

// SubmissionRequest is the wire payload sent to the authority. Field names
// follow the authority's API contract.
type SubmissionRequest struct {
	UUID        string `json:"uuid"`
	InvoiceHash string `json:"invoiceHash"`
	Invoice     string `json:"invoice"`
}

// ClearanceResult is the authority's answer to a submission. The reporting
// path returns no document, only a status.
type ClearanceResult struct {
	Status         string `json:"status"`
	ClearedInvoice string `json:"clearedInvoice,omitempty"`
}

// Invoice is the aggregate driven through the lifecycle. Monetary fields are
// derived from the line items at construction time and checked again on
// every parse.
type Invoice struct {
	ID       string      `json:"id"`
	UUID     string      `json:"uuid"`
	Type     InvoiceType `json:"type"`
	State    State       `json:"state"`
	Currency string      `json:"currency"`

	IssueDate time.Time `json:"issue_date"`

	Seller Party  `json:"seller"`
	Buyer  *Party `json:"buyer,omitempty"`

	Items []LineItem `json:"items"`

	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`

	// PreviousInvoiceHash chains this invoice to its predecessor's digest.
	PreviousInvoiceHash string `json:"previous_invoice_hash,omitempty"`

	Envelope *Envelope `json:"envelope,omitempty"`
}

// LineItemSpec is the construction input for one invoice line.
type LineItemSpec struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// InvoiceSpec is the construction record for a new draft invoice. Totals are
// never taken from input; they are always derived.
type InvoiceSpec struct {
	ID        string         `json:"id"`
	Type      InvoiceType    `json:"type"`
	Currency  string         `json:"currency,omitempty"`
	Seller    Party          `json:"seller"`
	Buyer     *Party         `json:"buyer,omitempty"`
	Items     []LineItemSpec `json:"items"`
	IssueDate time.Time      `json:"issue_date,omitempty"`

	PreviousInvoiceHash string `json:"previous_invoice_hash,omitempty"`
}

// New builds a draft invoice from its construction record: a fresh UUID,
// derived line and document totals, defaults filled in, and a full
// validation pass before anything is returned.
func New(spec InvoiceSpec) (*Invoice, error) {
	inv := &Invoice{
		ID:                  spec.ID,
		UUID:                uuid.NewString(),
		Type:                spec.Type,
		State:               StateDraft,
		Currency:            spec.Currency,
		IssueDate:           spec.IssueDate,
		Seller:              spec.Seller,
		Buyer:               spec.Buyer,
		PreviousInvoiceHash: spec.PreviousInvoiceHash,
	}

	if inv.Type == "" {
		inv.Type = TypeSimplified
	}
	if inv.Currency == "" {
		inv.Currency = "SAR"
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = time.Now().UTC()
	}

	lineTotals := make([]decimal.Decimal, 0, len(spec.Items))
	for _, item := range spec.Items {
		line := LineItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: money.Mul(item.Quantity, item.UnitPrice),
		}
		inv.Items = append(inv.Items, line)
		lineTotals = append(lineTotals, line.LineTotal)
	}

	inv.TaxableAmount = money.Sum(lineTotals)
	inv.VATAmount = money.CalculateVAT(inv.TaxableAmount)
	inv.TotalAmount = inv.TaxableAmount.Add(inv.VATAmount)

	if err := inv.Validate(); err != nil {
		return nil, err
	}
	return inv, nil
}

// Validate checks the field rules for the invoice's type. It does not touch
// the state; lifecycle preconditions live in the orchestrator.
func (inv *Invoice) Validate() error {
	if inv.ID == "" {
		return NewValidationError("id", nil, "required", "invoice id is required")
	}
	if inv.UUID == "" {
		return NewValidationError("uuid", nil, "required", "invoice uuid is required")
	}
	if inv.Seller.Name == "" {
		return NewValidationError("seller.name", nil, "required", "seller name is required")
	}
	if !money.ValidVATNumber(inv.Seller.VATNumber) {
		return NewValidationError("seller.vat_number", inv.Seller.VATNumber, "format", "seller VAT number must be exactly 15 digits")
	}

	if inv.Type == TypeStandard {
		if inv.Buyer == nil || inv.Buyer.Name == "" {
			return NewValidationError("buyer", nil, "required", "standard invoices require a buyer")
		}
		if !money.ValidVATNumber(inv.Buyer.VATNumber) {
			return NewValidationError("buyer.vat_number", inv.Buyer.VATNumber, "format", "buyer VAT number must be exactly 15 digits")
		}
	}

	if len(inv.Items) == 0 {
		return NewValidationError("items", nil, "required", "at least one line item is required")
	}
	for i, item := range inv.Items {
		if item.Name == "" {
			return NewValidationError("items.name", i, "required", "line item name is required")
		}
	}

	return inv.CheckTotals()
}

// CheckTotals enforces the monetary invariants: VAT is the fixed rate of the
// taxable amount and the total is their sum.
func (inv *Invoice) CheckTotals() error {
	expectedVAT := money.CalculateVAT(inv.TaxableAmount)
	if !inv.VATAmount.Equal(expectedVAT) {
		return NewValidationError("vat_amount", money.Format(inv.VATAmount), "vat_rate",
			"VAT amount must be "+money.Format(expectedVAT))
	}

	expectedTotal := inv.TaxableAmount.Add(inv.VATAmount)
	if !inv.TotalAmount.Equal(expectedTotal) {
		return NewValidationError("total_amount", money.Format(inv.TotalAmount), "sum",
			"total must be "+money.Format(expectedTotal))
	}
	return nil
}

// IssueDateString renders the issue date in the wire format.
func (inv *Invoice) IssueDateString() string {
	return inv.IssueDate.UTC().Format("2006-01-02")
}

// IssueTimeString renders the issue time in the wire format.
func (inv *Invoice) IssueTimeString() string {
	return inv.IssueDate.UTC().Format("15:04:05")
}
