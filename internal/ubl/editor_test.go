package ubl_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-clearance/internal/model"
	"github.com/rezonia/einvoice-clearance/internal/ubl"
)

func TestEmbedExtractQR_RoundTrip(t *testing.T) {
	inv := testInvoice(t, model.TypeSimplified)
	data, err := ubl.Build(inv)
	require.NoError(t, err)

	// binary TLV payload, not printable text
	qr := []byte{0x01, 0x0b, 'I', 'N', 'V', 0x02, 0x00, 0xff, 0xfe}

	embedded, err := ubl.EmbedQR(data, qr)
	require.NoError(t, err)

	got, ok, err := ubl.ExtractQR(embedded)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, qr, got)
}

func TestExtractQR_Absent(t *testing.T) {
	inv := testInvoice(t, model.TypeSimplified)
	data, err := ubl.Build(inv)
	require.NoError(t, err)

	got, ok, err := ubl.ExtractQR(data)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestExtractQR_Malformed(t *testing.T) {
	_, _, err := ubl.ExtractQR([]byte("not xml at all"))
	require.Error(t, err)

	var perr *model.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestEmbedQR_ReplacesInPlace(t *testing.T) {
	inv := testInvoice(t, model.TypeSimplified)
	data, err := ubl.Build(inv)
	require.NoError(t, err)

	first, err := ubl.EmbedQR(data, []byte("first payload"))
	require.NoError(t, err)
	second, err := ubl.EmbedQR(first, []byte("second payload"))
	require.NoError(t, err)

	// replaced, not duplicated
	assert.Equal(t, 1, strings.Count(string(second), ">QR<"))

	got, ok, err := ubl.ExtractQR(second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("second payload"), got)
}

func TestEmbedQR_PreservesDocument(t *testing.T) {
	inv := testInvoice(t, model.TypeSimplified)
	data, err := ubl.Build(inv)
	require.NoError(t, err)

	embedded, err := ubl.EmbedQR(data, []byte("payload"))
	require.NoError(t, err)

	parsed, err := ubl.Parse(embedded)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, parsed.ID)
	assert.Equal(t, inv.UUID, parsed.UUID)
	require.Len(t, parsed.Items, 1)
}

func TestEmbedQR_SchemaPosition(t *testing.T) {
	inv := testInvoice(t, model.TypeSimplified)
	data, err := ubl.Build(inv)
	require.NoError(t, err)

	embedded, err := ubl.EmbedQR(data, []byte("payload"))
	require.NoError(t, err)

	doc := string(embedded)
	refPos := strings.Index(doc, "AdditionalDocumentReference")
	supplierPos := strings.Index(doc, "AccountingSupplierParty")
	currencyPos := strings.Index(doc, "DocumentCurrencyCode")
	require.NotEqual(t, -1, refPos)
	require.NotEqual(t, -1, supplierPos)
	require.NotEqual(t, -1, currencyPos)

	// reference sits between the header block and the party block
	assert.Less(t, currencyPos, refPos)
	assert.Less(t, refPos, supplierPos)
}

func TestInjectPIH(t *testing.T) {
	inv := testInvoice(t, model.TypeSimplified)
	data, err := ubl.Build(inv)
	require.NoError(t, err)

	const digest = "NWZlY2ViNjZmZmM4NmYzOGQ5NTI3ODZjNmQ2OTZjNzk="

	chained, err := ubl.InjectPIH(data, digest)
	require.NoError(t, err)

	parsed, err := ubl.Parse(chained)
	require.NoError(t, err)
	assert.Equal(t, digest, parsed.PreviousInvoiceHash)
}

func TestInjectPIH_CoexistsWithQR(t *testing.T) {
	inv := testInvoice(t, model.TypeSimplified)
	data, err := ubl.Build(inv)
	require.NoError(t, err)

	qr := []byte("qr payload")
	withQR, err := ubl.EmbedQR(data, qr)
	require.NoError(t, err)
	withBoth, err := ubl.InjectPIH(withQR, "digest-value")
	require.NoError(t, err)

	got, ok, err := ubl.ExtractQR(withBoth)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, qr, got)

	parsed, err := ubl.Parse(withBoth)
	require.NoError(t, err)
	assert.Equal(t, "digest-value", parsed.PreviousInvoiceHash)
}
