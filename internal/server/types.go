package server

import "github.com/rezonia/einvoice-clearance/internal/model"

// BuildResponse carries a freshly built invoice and its wire document
type BuildResponse struct {
	Invoice  *model.Invoice `json:"invoice"`
	Document string         `json:"document"`
}

// QRResponse carries the outcome of a QR extraction
type QRResponse struct {
	Found   bool   `json:"found"`
	Payload string `json:"payload,omitempty"`
}

// ValidateResponse carries the external validator's verdict
type ValidateResponse struct {
	Passed      bool   `json:"passed"`
	Diagnostics string `json:"diagnostics,omitempty"`
}

// EnvelopeRequest is a base64 envelope with an optional claimed hash
type EnvelopeRequest struct {
	Invoice     string `json:"invoice" binding:"required"`
	InvoiceHash string `json:"invoiceHash,omitempty"`
}

// EnvelopeResponse carries an encoded envelope and its digest
type EnvelopeResponse struct {
	Invoice     string `json:"invoice"`
	InvoiceHash string `json:"invoiceHash"`
}

// VerifyHashResponse reports a hash reconciliation outcome
type VerifyHashResponse struct {
	Match    bool   `json:"match"`
	Computed string `json:"computed"`
	Claimed  string `json:"claimed"`
}
