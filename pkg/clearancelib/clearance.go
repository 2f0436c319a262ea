// Package clearancelib provides a public API for the e-invoice clearance
// engine.
//
// This package exposes the core types for building, encoding, and
// reconciling clearance invoice documents.
//
// Example usage:
//
//	inv, err := clearancelib.New(clearancelib.InvoiceSpec{
//	    ID:     "INV-0001",
//	    Type:   clearancelib.TypeSimplified,
//	    Seller: clearancelib.Party{Name: "ACME LTD", VATNumber: "300000000000003"},
//	    Items:  []clearancelib.LineItemSpec{{Name: "Widget", Quantity: one, UnitPrice: price}},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	doc, err := clearancelib.BuildDocument(inv)
package clearancelib

import (
	"github.com/rezonia/einvoice-clearance/internal/codec"
	"github.com/rezonia/einvoice-clearance/internal/model"
	"github.com/rezonia/einvoice-clearance/internal/ubl"
)

// Re-export core types for public API
type (
	Invoice           = model.Invoice
	InvoiceSpec       = model.InvoiceSpec
	LineItem          = model.LineItem
	LineItemSpec      = model.LineItemSpec
	Party             = model.Party
	Envelope          = model.Envelope
	SubmissionRequest = model.SubmissionRequest
	InvoiceType       = model.InvoiceType
	State             = model.State
)

// Re-export invoice types
const (
	TypeStandard   = model.TypeStandard
	TypeSimplified = model.TypeSimplified
)

// Re-export lifecycle states
const (
	StateDraft     = model.StateDraft
	StateSigned    = model.StateSigned
	StateValidated = model.StateValidated
	StateSubmitted = model.StateSubmitted
	StateCleared   = model.StateCleared
)

// Re-export error types
type (
	ValidationError   = model.ValidationError
	ParseError        = model.ParseError
	EncodingError     = model.EncodingError
	HashMismatchError = model.HashMismatchError
)

// New builds a Draft invoice from a construction record.
func New(spec InvoiceSpec) (*Invoice, error) {
	return model.New(spec)
}

// BuildDocument serializes an invoice to canonical UBL bytes.
func BuildDocument(inv *Invoice) ([]byte, error) {
	return ubl.Build(inv)
}

// ParseDocument decodes UBL bytes back into an invoice.
func ParseDocument(data []byte) (*Invoice, error) {
	return ubl.Parse(data)
}

// ComputeHash returns the Base64-encoded SHA-256 digest of document bytes.
func ComputeHash(b []byte) string {
	return codec.ComputeHash(b)
}

// VerifyHash reports whether a claimed digest matches the document bytes.
func VerifyHash(b []byte, claimed string) bool {
	return codec.VerifyHash(b, claimed)
}

// EncodeEnvelope wraps document bytes in a Base64 envelope.
func EncodeEnvelope(b []byte) string {
	return codec.EncodeEnvelope(b)
}

// DecodeEnvelope unwraps a Base64 envelope to document bytes.
func DecodeEnvelope(s string) ([]byte, error) {
	return codec.DecodeEnvelope(s)
}

// ExtractQR returns the QR payload embedded in a document, if present.
func ExtractQR(data []byte) ([]byte, bool, error) {
	return ubl.ExtractQR(data)
}
