package ubl_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-clearance/internal/model"
	"github.com/rezonia/einvoice-clearance/internal/ubl"
)

func TestParse_Malformed(t *testing.T) {
	_, err := ubl.Parse([]byte("<Invoice><unclosed>"))
	require.Error(t, err)

	var perr *model.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParse_MissingMandatoryElements(t *testing.T) {
	inv := testInvoice(t, model.TypeSimplified)
	data, err := ubl.Build(inv)
	require.NoError(t, err)
	doc := string(data)

	tests := []struct {
		name   string
		remove string
		field  string
	}{
		{"missing id", "<cbc:ID>INV-2026-001</cbc:ID>", "ID"},
		{"missing uuid", "<cbc:UUID>" + inv.UUID + "</cbc:UUID>", "UUID"},
		{"missing issue date", "<cbc:IssueDate>2026-01-15</cbc:IssueDate>", "IssueDate"},
		{"missing seller name", "<cbc:RegistrationName>Maximum Speed Tech Supply LTD</cbc:RegistrationName>", "AccountingSupplierParty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Contains(t, doc, tt.remove)
			mutated := strings.Replace(doc, tt.remove, "", 1)

			_, err := ubl.Parse([]byte(mutated))
			require.Error(t, err)

			var perr *model.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.field, perr.Field)
		})
	}
}

func TestParse_ToleratesUnknownElements(t *testing.T) {
	inv := testInvoice(t, model.TypeSimplified)
	data, err := ubl.Build(inv)
	require.NoError(t, err)

	// a future producer adding vendor elements must not break parsing
	extended := strings.Replace(string(data),
		"<cbc:DocumentCurrencyCode>",
		"<ext:VendorExtension><ext:Anything>42</ext:Anything></ext:VendorExtension><cbc:DocumentCurrencyCode>", 1)

	parsed, err := ubl.Parse([]byte(extended))
	require.NoError(t, err)
	assert.Equal(t, inv.ID, parsed.ID)
}

func TestParse_RejectsTotalsViolation(t *testing.T) {
	inv := testInvoice(t, model.TypeSimplified)
	data, err := ubl.Build(inv)
	require.NoError(t, err)

	// VAT no longer 15% of the taxable amount
	mutated := strings.Replace(string(data),
		`<cbc:TaxAmount currencyID="SAR">150.00</cbc:TaxAmount>`,
		`<cbc:TaxAmount currencyID="SAR">99.00</cbc:TaxAmount>`, 1)
	require.NotEqual(t, string(data), mutated)

	_, err = ubl.Parse([]byte(mutated))
	require.Error(t, err)

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "vat_amount", verr.Field)
}

func TestParse_RejectsBadAmount(t *testing.T) {
	inv := testInvoice(t, model.TypeSimplified)
	data, err := ubl.Build(inv)
	require.NoError(t, err)

	mutated := strings.Replace(string(data),
		`<cbc:TaxExclusiveAmount currencyID="SAR">1000.00</cbc:TaxExclusiveAmount>`,
		`<cbc:TaxExclusiveAmount currencyID="SAR">one thousand</cbc:TaxExclusiveAmount>`, 1)
	require.NotEqual(t, string(data), mutated)

	_, err = ubl.Parse([]byte(mutated))
	require.Error(t, err)

	var perr *model.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "TaxExclusiveAmount", perr.Field)
}

func TestParse_DateOnlyTimestamp(t *testing.T) {
	inv := testInvoice(t, model.TypeSimplified)
	data, err := ubl.Build(inv)
	require.NoError(t, err)

	mutated := strings.Replace(string(data), "<cbc:IssueTime>10:30:00</cbc:IssueTime>", "", 1)
	require.NotEqual(t, string(data), mutated)

	parsed, err := ubl.Parse([]byte(mutated))
	require.NoError(t, err)
	assert.Equal(t, "2026-01-15", parsed.IssueDateString())
	assert.Equal(t, "00:00:00", parsed.IssueTimeString())
}
