// Package lifecycle drives an invoice through its clearance states:
// Draft -> Signed -> Validated -> Submitted -> Cleared. Every transition is
// all-or-nothing; a precondition failure leaves the invoice exactly where it
// was.
package lifecycle

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rezonia/einvoice-clearance/internal/codec"
	"github.com/rezonia/einvoice-clearance/internal/model"
	"github.com/rezonia/einvoice-clearance/internal/sdk"
	"github.com/rezonia/einvoice-clearance/internal/ubl"
)

// Gateway is the orchestrator's view of the external signer/validator.
type Gateway interface {
	Sign(ctx context.Context, doc []byte) (*sdk.SignedResult, error)
	Validate(ctx context.Context, doc []byte) (*sdk.ValidationOutcome, error)
	ComputeAuthorityHash(ctx context.Context, doc []byte) (string, error)
	BuildSubmissionRequest(ctx context.Context, doc []byte) (*model.SubmissionRequest, error)
}

// Submitter delivers a packaged request to the remote authority.
type Submitter interface {
	SubmitClearance(ctx context.Context, req *model.SubmissionRequest) (*model.ClearanceResult, error)
	SubmitReport(ctx context.Context, req *model.SubmissionRequest) (*model.ClearanceResult, error)
}

// ClearedRecord is the outcome of a completed lifecycle: the authoritative
// invoice decoded from the authority's response, its raw bytes and the QR
// payload embedded at signing time.
type ClearedRecord struct {
	Invoice *model.Invoice
	Raw     []byte
	QR      []byte
}

// Orchestrator owns exactly one invoice for the duration of its lifecycle.
// Instances share no mutable state, so independent invoices may be processed
// concurrently by independent orchestrators.
type Orchestrator struct {
	inv       *model.Invoice
	gateway   Gateway
	submitter Submitter
	log       zerolog.Logger

	request *model.SubmissionRequest
	result  *model.ClearanceResult
}

// Option configures the orchestrator
type Option func(*Orchestrator)

// WithSubmitter sets the remote submitter used by Submit
func WithSubmitter(s Submitter) Option {
	return func(o *Orchestrator) { o.submitter = s }
}

// WithLogger sets the orchestrator logger
func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// New creates an orchestrator owning inv.
func New(inv *model.Invoice, gateway Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		inv:     inv,
		gateway: gateway,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Invoice returns the invoice being driven.
func (o *Orchestrator) Invoice() *model.Invoice {
	return o.inv
}

// Request returns the submission payload built by BuildRequest, if any.
func (o *Orchestrator) Request() *model.SubmissionRequest {
	return o.request
}

// Sign serializes the draft, hands it to the external signer and freezes the
// resulting envelope. Draft -> Signed.
func (o *Orchestrator) Sign(ctx context.Context) error {
	if o.inv.State != model.StateDraft {
		return NewStateError(sdk.OpSign, o.inv.State)
	}

	doc, err := ubl.Build(o.inv)
	if err != nil {
		return err
	}

	signed, err := o.gateway.Sign(ctx, doc)
	if err != nil {
		return err
	}

	o.inv.Envelope = codec.NewEnvelope(signed.SignedDocument, signed.QR)
	o.inv.State = model.StateSigned

	o.log.Info().
		Str("invoice", o.inv.ID).
		Str("hash", o.inv.Envelope.Hash).
		Msg("invoice signed")
	return nil
}

// Validate runs the external validator over the frozen envelope. A FAILED
// verdict keeps the invoice at Signed and reports a
// ClearanceValidationFailure. Signed -> Validated.
func (o *Orchestrator) Validate(ctx context.Context) error {
	if o.inv.State != model.StateSigned {
		return NewStateError(sdk.OpValidate, o.inv.State)
	}

	outcome, err := o.gateway.Validate(ctx, o.inv.Envelope.Raw)
	if err != nil {
		return err
	}
	if !outcome.Passed {
		return NewClearanceValidationFailure(o.inv.State, outcome.Diagnostics)
	}

	o.inv.State = model.StateValidated
	o.log.Info().Str("invoice", o.inv.ID).Msg("invoice validated")
	return nil
}

// BuildRequest packages the envelope for submission and enforces the
// hash-binding invariant before anything can be transmitted: the request's
// hash must match the digest of its own decoded payload, and the authority
// tool's canonical hash must agree with the locally computed one. The state
// stays Validated.
func (o *Orchestrator) BuildRequest(ctx context.Context) (*model.SubmissionRequest, error) {
	if o.inv.State != model.StateValidated {
		return nil, NewStateError(sdk.OpBuildRequest, o.inv.State)
	}

	req, err := o.gateway.BuildSubmissionRequest(ctx, o.inv.Envelope.Raw)
	if err != nil {
		return nil, err
	}

	payload, err := codec.DecodeEnvelope(req.Invoice)
	if err != nil {
		return nil, err
	}
	if !codec.VerifyHash(payload, req.InvoiceHash) {
		return nil, model.NewHashMismatchError("submission request", req.InvoiceHash, codec.ComputeHash(payload))
	}

	authorityHash, err := o.gateway.ComputeAuthorityHash(ctx, o.inv.Envelope.Raw)
	if err != nil {
		return nil, err
	}
	if authorityHash != o.inv.Envelope.Hash {
		return nil, model.NewHashMismatchError("authority reconciliation", authorityHash, o.inv.Envelope.Hash)
	}

	o.request = req
	o.log.Info().Str("invoice", o.inv.ID).Msg("submission request built")
	return req, nil
}

// Submit sends the built request to the authority over the configured
// submitter, choosing the clearance or reporting path by invoice type.
// Validated -> Submitted.
func (o *Orchestrator) Submit(ctx context.Context) error {
	if o.inv.State != model.StateValidated {
		return NewStateError("submit", o.inv.State)
	}
	if o.request == nil {
		return NewStateError("submit without built request", o.inv.State)
	}
	if o.submitter == nil {
		return NewStateError("submit without a configured submitter", o.inv.State)
	}

	var result *model.ClearanceResult
	var err error
	if o.inv.Type == model.TypeStandard {
		result, err = o.submitter.SubmitClearance(ctx, o.request)
	} else {
		result, err = o.submitter.SubmitReport(ctx, o.request)
	}
	if err != nil {
		return err
	}

	o.result = result
	o.inv.State = model.StateSubmitted
	o.log.Info().
		Str("invoice", o.inv.ID).
		Str("status", result.Status).
		Msg("invoice submitted")
	return nil
}

// Result returns the authority's submission answer, if any.
func (o *Orchestrator) Result() *model.ClearanceResult {
	return o.result
}

// ReceiveClearance decodes the authority's base64 response into the
// authoritative official record. The reporting path returns no document, so
// callers pass the invoice's own envelope there. Submitted -> Cleared.
func (o *Orchestrator) ReceiveClearance(responseBase64 string) (*ClearedRecord, error) {
	if o.inv.State != model.StateSubmitted {
		return nil, NewStateError("receive clearance for", o.inv.State)
	}

	raw, err := codec.DecodeEnvelope(responseBase64)
	if err != nil {
		return nil, err
	}

	cleared, err := ubl.Parse(raw)
	if err != nil {
		return nil, err
	}

	qr, _, err := ubl.ExtractQR(raw)
	if err != nil {
		return nil, err
	}

	cleared.State = model.StateCleared
	cleared.Envelope = codec.NewEnvelope(raw, qr)
	o.inv.State = model.StateCleared

	o.log.Info().
		Str("invoice", cleared.ID).
		Str("hash", cleared.Envelope.Hash).
		Msg("clearance received, official record decoded")

	return &ClearedRecord{Invoice: cleared, Raw: raw, QR: qr}, nil
}

// LoopbackSubmitter echoes a submission straight back as its own cleared
// response. It stands in for the authority in development flows where no
// credentials exist yet.
type LoopbackSubmitter struct{}

// SubmitClearance returns the submitted document as the cleared one.
func (LoopbackSubmitter) SubmitClearance(_ context.Context, req *model.SubmissionRequest) (*model.ClearanceResult, error) {
	return &model.ClearanceResult{Status: "CLEARED", ClearedInvoice: req.Invoice}, nil
}

// SubmitReport acknowledges the report without returning a document.
func (LoopbackSubmitter) SubmitReport(_ context.Context, _ *model.SubmissionRequest) (*model.ClearanceResult, error) {
	return &model.ClearanceResult{Status: "REPORTED"}, nil
}
