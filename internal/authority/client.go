// Package authority talks to the national e-invoicing authority's HTTPS
// endpoints: CSR onboarding and invoice clearance/reporting submission.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rezonia/einvoice-clearance/internal/model"
)

// Base URLs for the authority's environments.
const (
	EnvDeveloperPortal = "https://gw-fatoora.zatca.gov.sa/e-invoicing/developer-portal"
	EnvSimulation      = "https://gw-fatoora.zatca.gov.sa/e-invoicing/simulation"
	EnvProduction      = "https://gw-fatoora.zatca.gov.sa/e-invoicing/core"
)

// BaseURLFor maps an environment name to its base URL. Unknown names fall
// back to the developer portal.
func BaseURLFor(env string) string {
	switch env {
	case "simulation":
		return EnvSimulation
	case "production", "core":
		return EnvProduction
	default:
		return EnvDeveloperPortal
	}
}

const acceptVersion = "V2"

// CSIDCredential is the compliance certificate-and-secret pair issued after
// CSR submission. The token and secret authenticate subsequent submissions.
type CSIDCredential struct {
	RequestID           json.Number `json:"requestID"`
	DispositionMessage  string      `json:"dispositionMessage"`
	BinarySecurityToken string      `json:"binarySecurityToken"`
	Secret              string      `json:"secret"`
}

// RemoteServiceError carries a non-2xx authority response. The body is
// surfaced verbatim; 4xx errors are client-correctable, 5xx retryable.
type RemoteServiceError struct {
	StatusCode int
	Body       string
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("authority returned %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the failure class permits a retry with backoff.
func (e *RemoteServiceError) Retryable() bool {
	return e.StatusCode >= 500
}

// Client is an HTTP client for one authority environment. Credentials are
// optional until the first authenticated submission.
type Client struct {
	baseURL    string
	httpClient *http.Client
	credential *CSIDCredential
	log        zerolog.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithCredential sets the CSID used to authenticate submissions
func WithCredential(cred *CSIDCredential) ClientOption {
	return func(cl *Client) { cl.credential = cred }
}

// WithClientLogger sets the client logger
func WithClientLogger(log zerolog.Logger) ClientOption {
	return func(cl *Client) { cl.log = log }
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitCSR posts a PEM CSR with the onboarding OTP and returns the issued
// compliance credential. PEM armor is stripped before transmission.
func (c *Client) SubmitCSR(ctx context.Context, csrPEM, otp string) (*CSIDCredential, error) {
	payload := map[string]string{"csr": stripPEM(csrPEM)}

	var cred CSIDCredential
	headers := map[string]string{"OTP": otp}
	if err := c.post(ctx, "/compliance", payload, headers, &cred); err != nil {
		return nil, err
	}

	c.log.Info().Str("disposition", cred.DispositionMessage).Msg("compliance CSID issued")
	return &cred, nil
}

// SubmitClearance sends a Standard invoice for real-time clearance and
// returns the authority's official cleared document.
func (c *Client) SubmitClearance(ctx context.Context, req *model.SubmissionRequest) (*model.ClearanceResult, error) {
	var resp struct {
		ClearanceStatus string `json:"clearanceStatus"`
		ClearedInvoice  string `json:"clearedInvoice"`
	}
	headers := map[string]string{"Clearance-Status": "1"}
	if err := c.post(ctx, "/invoices/clearance/single", req, headers, &resp); err != nil {
		return nil, err
	}
	return &model.ClearanceResult{
		Status:         resp.ClearanceStatus,
		ClearedInvoice: resp.ClearedInvoice,
	}, nil
}

// SubmitReport sends a Simplified invoice for after-the-fact reporting. The
// reporting path returns an acknowledgment, not a cleared document.
func (c *Client) SubmitReport(ctx context.Context, req *model.SubmissionRequest) (*model.ClearanceResult, error) {
	var resp struct {
		ReportingStatus string `json:"reportingStatus"`
	}
	if err := c.post(ctx, "/invoices/reporting/single", req, nil, &resp); err != nil {
		return nil, err
	}
	return &model.ClearanceResult{Status: resp.ReportingStatus}, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, headers map[string]string, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("Accept-Version", acceptVersion)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if c.credential != nil {
		req.SetBasicAuth(c.credential.BinarySecurityToken, c.credential.Secret)
	}

	c.log.Debug().Str("path", path).Msg("posting to authority")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("authority request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read authority response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteServiceError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode authority response: %w", err)
		}
	}
	return nil
}

func stripPEM(pem string) string {
	s := strings.ReplaceAll(pem, "-----BEGIN CERTIFICATE REQUEST-----", "")
	s = strings.ReplaceAll(s, "-----END CERTIFICATE REQUEST-----", "")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return strings.TrimSpace(s)
}
