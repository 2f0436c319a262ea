// Package sdk invokes the authority's external signer/validator executable
// and turns its textual output into typed outcomes. It is the engine's only
// dependency on the outside cryptographic tooling.
package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/rezonia/einvoice-clearance/internal/model"
	"github.com/rezonia/einvoice-clearance/internal/ubl"
)

// Operation names used in error reporting.
const (
	OpSign         = "sign"
	OpValidate     = "validate"
	OpGenerateHash = "generate-hash"
	OpGenerateCSR  = "generate-csr"
	OpBuildRequest = "build-request"
)

// SignedResult is the gateway's answer to a sign call: the signed document
// bytes and the QR payload the signer embedded in them. The QR payload is
// never recomputed locally.
type SignedResult struct {
	SignedDocument []byte
	QR             []byte
}

// CSRConfig names the inputs and outputs of a credential generation call.
// Output paths must be fresh; the gateway refuses to overwrite an existing
// private key.
type CSRConfig struct {
	ConfigPath     string
	PrivateKeyPath string
	CSRPath        string
}

// Gateway shells out to the SDK binary. A zero timeout means the caller's
// context is the only budget.
type Gateway struct {
	binPath string
	log     zerolog.Logger
}

// Option configures the gateway
type Option func(*Gateway)

// WithLogger sets the gateway logger
func WithLogger(log zerolog.Logger) Option {
	return func(g *Gateway) { g.log = log }
}

// NewGateway creates a gateway for the SDK binary at binPath.
func NewGateway(binPath string, opts ...Option) *Gateway {
	g := &Gateway{
		binPath: binPath,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// run executes the SDK with the given flags and returns its combined output.
// Timeout and cancellation come from ctx; on deadline the process is killed
// and a ToolTimeoutError returned.
func (g *Gateway) run(ctx context.Context, op string, args ...string) (string, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, g.binPath, args...)
	out, err := cmd.CombinedOutput()
	output := string(out)

	g.log.Debug().
		Str("op", op).
		Dur("elapsed", time.Since(start)).
		Msg("sdk invocation finished")

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", NewToolTimeoutError(op, time.Since(start))
		}
		return "", NewToolInvocationError(op, output, err)
	}
	return output, nil
}

// withTempDocument writes document bytes to a scratch file for the duration
// of fn. The SDK contract is file-path based; everything else stays in
// memory.
func (g *Gateway) withTempDocument(op string, doc []byte, fn func(path string) error) error {
	dir, err := os.MkdirTemp("", "clearance-sdk-")
	if err != nil {
		return NewToolInvocationError(op, "", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "invoice.xml")
	if err := os.WriteFile(path, doc, 0o600); err != nil {
		return NewToolInvocationError(op, "", err)
	}
	return fn(path)
}

// Sign invokes the external signer on the document and returns the signed
// bytes together with the QR payload the signer placed in them.
func (g *Gateway) Sign(ctx context.Context, doc []byte) (*SignedResult, error) {
	var result *SignedResult
	err := g.withTempDocument(OpSign, doc, func(path string) error {
		signedPath := path[:len(path)-len(".xml")] + "_signed.xml"
		if _, err := g.run(ctx, OpSign, "-sign", "-invoice", path, "-signed", signedPath); err != nil {
			return err
		}

		signed, err := os.ReadFile(signedPath)
		if err != nil {
			return NewToolInvocationError(OpSign, "", fmt.Errorf("signer produced no output document: %w", err))
		}

		qr, _, err := ubl.ExtractQR(signed)
		if err != nil {
			return NewToolInvocationError(OpSign, "", fmt.Errorf("signed document QR attachment unreadable: %w", err))
		}
		result = &SignedResult{SignedDocument: signed, QR: qr}
		return nil
	})
	return result, err
}

// Validate runs the external validator and scans its output for the global
// verdict. A FAILED verdict is reported in the outcome, not as an error;
// only a broken tool contract is an error here.
func (g *Gateway) Validate(ctx context.Context, doc []byte) (*ValidationOutcome, error) {
	var outcome *ValidationOutcome
	err := g.withTempDocument(OpValidate, doc, func(path string) error {
		out, err := g.run(ctx, OpValidate, "-validate", "-invoice", path)
		if err != nil {
			return err
		}
		outcome, err = parseValidationOutput(out)
		return err
	})
	return outcome, err
}

// ComputeAuthorityHash asks the SDK for its own canonical digest of the
// document. Callers must reconcile this against the locally computed hash;
// the gateway takes no side in a divergence.
func (g *Gateway) ComputeAuthorityHash(ctx context.Context, doc []byte) (string, error) {
	var digest string
	err := g.withTempDocument(OpGenerateHash, doc, func(path string) error {
		out, err := g.run(ctx, OpGenerateHash, "-generateHash", "-invoice", path)
		if err != nil {
			return err
		}
		digest, err = parseHashOutput(out)
		return err
	})
	return digest, err
}

// GenerateCSR drives the SDK's one-shot credential generation and returns
// the PEM CSR text. It refuses to overwrite an existing private key: losing
// one by accident is unrecoverable.
func (g *Gateway) GenerateCSR(ctx context.Context, cfg CSRConfig) (string, error) {
	if _, err := os.Stat(cfg.PrivateKeyPath); err == nil {
		return "", NewToolInvocationError(OpGenerateCSR, "",
			fmt.Errorf("private key already exists at %s, refusing to overwrite", cfg.PrivateKeyPath))
	}

	_, err := g.run(ctx, OpGenerateCSR,
		"-csr",
		"-csrConfig", cfg.ConfigPath,
		"-privateKey", cfg.PrivateKeyPath,
		"-generatedCsr", cfg.CSRPath,
		"-pem",
	)
	if err != nil {
		return "", err
	}

	csr, err := os.ReadFile(cfg.CSRPath)
	if err != nil {
		return "", NewToolInvocationError(OpGenerateCSR, "", fmt.Errorf("tool produced no CSR file: %w", err))
	}
	return string(csr), nil
}

// BuildSubmissionRequest packages the signed document for transmission. The
// hash inside the request is the tool's; the orchestrator reconciles it
// before anything leaves the machine.
func (g *Gateway) BuildSubmissionRequest(ctx context.Context, doc []byte) (*model.SubmissionRequest, error) {
	var req *model.SubmissionRequest
	err := g.withTempDocument(OpBuildRequest, doc, func(path string) error {
		requestPath := filepath.Join(filepath.Dir(path), "request.json")
		if _, err := g.run(ctx, OpBuildRequest, "-invoiceRequest", "-invoice", path, "-apiRequest", requestPath); err != nil {
			return err
		}

		raw, err := os.ReadFile(requestPath)
		if err != nil {
			return NewToolInvocationError(OpBuildRequest, "", fmt.Errorf("tool produced no request file: %w", err))
		}

		var parsed model.SubmissionRequest
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return NewToolInvocationError(OpBuildRequest, string(raw), fmt.Errorf("request file is not valid JSON: %w", err))
		}
		if parsed.Invoice == "" || parsed.InvoiceHash == "" {
			return NewToolInvocationError(OpBuildRequest, string(raw),
				errors.New("request file missing invoice or invoiceHash"))
		}
		req = &parsed
		return nil
	})
	return req, err
}
