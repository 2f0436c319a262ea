package sdk_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-clearance/internal/codec"
	"github.com/rezonia/einvoice-clearance/internal/model"
	"github.com/rezonia/einvoice-clearance/internal/sdk"
	"github.com/rezonia/einvoice-clearance/internal/ubl"
)

// writeTool installs a shell script standing in for the SDK binary.
func writeTool(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script SDK stubs require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "fatoora")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func testDocument(t *testing.T) []byte {
	t.Helper()

	inv, err := model.New(model.InvoiceSpec{
		ID:   "INV-2026-001",
		Type: model.TypeSimplified,
		Seller: model.Party{
			Name:      "Maximum Speed Tech Supply LTD",
			VATNumber: "399999999900003",
		},
		Items: []model.LineItemSpec{
			{Name: "Widget", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("500.00")},
		},
	})
	require.NoError(t, err)

	data, err := ubl.Build(inv)
	require.NoError(t, err)
	return data
}

func TestGateway_Sign(t *testing.T) {
	// stands in for the signer: the input already carries the QR a real
	// signer would add, the stub just copies it to the -signed path
	bin := writeTool(t, `
in=""
out=""
while [ "$#" -gt 0 ]; do
  case "$1" in
    -invoice) in="$2"; shift ;;
    -signed) out="$2"; shift ;;
  esac
  shift
done
cp "$in" "$out"
echo "signing complete"
`)

	qr := []byte{0x01, 0x05, 'h', 'e', 'l', 'l', 'o'}
	doc, err := ubl.EmbedQR(testDocument(t), qr)
	require.NoError(t, err)

	g := sdk.NewGateway(bin)
	result, err := g.Sign(context.Background(), doc)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, doc, result.SignedDocument)
	assert.Equal(t, qr, result.QR)
}

func TestGateway_Sign_NoOutputDocument(t *testing.T) {
	bin := writeTool(t, `echo "signer forgot to write the file"`)

	g := sdk.NewGateway(bin)
	_, err := g.Sign(context.Background(), testDocument(t))
	require.Error(t, err)

	var toolErr *sdk.ToolInvocationError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, sdk.OpSign, toolErr.Op)
}

func TestGateway_Validate(t *testing.T) {
	tests := []struct {
		name   string
		script string
		passed bool
	}{
		{"passed", `echo "*** GLOBAL VALIDATION RESULT = PASSED"`, true},
		{"failed", `echo "ERROR [BR-KSA-26] counter missing"; echo "*** GLOBAL VALIDATION RESULT = FAILED"`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := sdk.NewGateway(writeTool(t, tt.script))

			outcome, err := g.Validate(context.Background(), testDocument(t))
			require.NoError(t, err)
			assert.Equal(t, tt.passed, outcome.Passed)
		})
	}
}

func TestGateway_Validate_NonZeroExit(t *testing.T) {
	bin := writeTool(t, `echo "boom"; exit 3`)

	g := sdk.NewGateway(bin)
	_, err := g.Validate(context.Background(), testDocument(t))
	require.Error(t, err)

	var toolErr *sdk.ToolInvocationError
	require.ErrorAs(t, err, &toolErr)
	assert.Contains(t, toolErr.Output, "boom")
}

func TestGateway_Timeout(t *testing.T) {
	bin := writeTool(t, `sleep 5`)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	g := sdk.NewGateway(bin)
	_, err := g.Validate(ctx, testDocument(t))
	require.Error(t, err)

	var timeoutErr *sdk.ToolTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, sdk.OpValidate, timeoutErr.Op)
}

func TestGateway_ComputeAuthorityHash(t *testing.T) {
	bin := writeTool(t, `echo "*** INVOICE HASH = x3n1C6GDDMLqs3F5dqLPMEnb3vs0THa9NPsz6StUvDE="`)

	g := sdk.NewGateway(bin)
	digest, err := g.ComputeAuthorityHash(context.Background(), testDocument(t))
	require.NoError(t, err)
	assert.Equal(t, "x3n1C6GDDMLqs3F5dqLPMEnb3vs0THa9NPsz6StUvDE=", digest)
}

func TestGateway_BuildSubmissionRequest(t *testing.T) {
	bin := writeTool(t, `
in=""
out=""
while [ "$#" -gt 0 ]; do
  case "$1" in
    -invoice) in="$2"; shift ;;
    -apiRequest) out="$2"; shift ;;
  esac
  shift
done
b64=$(base64 -w0 "$in")
printf '{"uuid":"test-uuid","invoiceHash":"test-hash","invoice":"%s"}' "$b64" > "$out"
`)

	doc := testDocument(t)

	g := sdk.NewGateway(bin)
	req, err := g.BuildSubmissionRequest(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "test-uuid", req.UUID)
	assert.Equal(t, "test-hash", req.InvoiceHash)

	decoded, err := codec.DecodeEnvelope(req.Invoice)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
}

func TestGateway_BuildSubmissionRequest_IncompletePayload(t *testing.T) {
	bin := writeTool(t, `
out=""
while [ "$#" -gt 0 ]; do
  case "$1" in
    -apiRequest) out="$2"; shift ;;
  esac
  shift
done
printf '{"uuid":"test-uuid"}' > "$out"
`)

	g := sdk.NewGateway(bin)
	_, err := g.BuildSubmissionRequest(context.Background(), testDocument(t))
	require.Error(t, err)

	var toolErr *sdk.ToolInvocationError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, sdk.OpBuildRequest, toolErr.Op)
}

func TestGateway_GenerateCSR(t *testing.T) {
	bin := writeTool(t, `
out=""
while [ "$#" -gt 0 ]; do
  case "$1" in
    -generatedCsr) out="$2"; shift ;;
  esac
  shift
done
printf -- '-----BEGIN CERTIFICATE REQUEST-----\nMIIB\n-----END CERTIFICATE REQUEST-----\n' > "$out"
echo "csr generated"
`)

	dir := t.TempDir()
	g := sdk.NewGateway(bin)

	csr, err := g.GenerateCSR(context.Background(), sdk.CSRConfig{
		ConfigPath:     filepath.Join(dir, "csr.properties"),
		PrivateKeyPath: filepath.Join(dir, "key.pem"),
		CSRPath:        filepath.Join(dir, "taxpayer.csr"),
	})
	require.NoError(t, err)
	assert.Contains(t, csr, "BEGIN CERTIFICATE REQUEST")
}

func TestGateway_GenerateCSR_RefusesExistingKey(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(keyPath, []byte("precious"), 0o600))

	// the binary must never run; an invalid path proves it
	g := sdk.NewGateway(filepath.Join(dir, "does-not-exist"))
	_, err := g.GenerateCSR(context.Background(), sdk.CSRConfig{
		ConfigPath:     filepath.Join(dir, "csr.properties"),
		PrivateKeyPath: keyPath,
		CSRPath:        filepath.Join(dir, "taxpayer.csr"),
	})
	require.Error(t, err)

	var toolErr *sdk.ToolInvocationError
	require.ErrorAs(t, err, &toolErr)
	assert.Contains(t, toolErr.Error(), "refusing to overwrite")
}
