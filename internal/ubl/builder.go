// Package ubl serializes invoices to and from the UBL 2.1 wire format used
// by the clearance authority, and performs the structural edits (QR and
// previous-invoice-hash references) that must land in schema-mandated
// positions.
package ubl

import (
	"strconv"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/rezonia/einvoice-clearance/internal/model"
	"github.com/rezonia/einvoice-clearance/internal/money"
)

// UBL 2.1 namespaces
const (
	NSInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NSCAC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NSCBC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
)

// ProfileID marks documents produced for the authority's e-invoicing profile.
const ProfileID = "reporting:1.0"

// Build serializes an invoice to canonical UBL bytes. It is deterministic:
// the same invoice always produces the same bytes. Fields are validated for
// the invoice's type before serialization.
func Build(inv *model.Invoice) ([]byte, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Invoice")
	root.CreateAttr("xmlns", NSInvoice)
	root.CreateAttr("xmlns:cac", NSCAC)
	root.CreateAttr("xmlns:cbc", NSCBC)

	text(root, "cbc:ProfileID", ProfileID)
	text(root, "cbc:ID", inv.ID)
	text(root, "cbc:UUID", inv.UUID)
	text(root, "cbc:IssueDate", inv.IssueDateString())
	text(root, "cbc:IssueTime", inv.IssueTimeString())

	typeCode := text(root, "cbc:InvoiceTypeCode", model.InvoiceTypeCode)
	typeCode.CreateAttr("name", inv.Type.SubtypeCode())

	text(root, "cbc:DocumentCurrencyCode", inv.Currency)
	text(root, "cbc:TaxCurrencyCode", inv.Currency)

	if inv.PreviousInvoiceHash != "" {
		appendDocumentReference(root, RefPIH, inv.PreviousInvoiceHash)
	}

	buildParty(root, "cac:AccountingSupplierParty", inv.Seller)
	if inv.Buyer != nil {
		buildParty(root, "cac:AccountingCustomerParty", *inv.Buyer)
	}

	taxTotal := root.CreateElement("cac:TaxTotal")
	amount(taxTotal, "cbc:TaxAmount", inv.VATAmount, inv.Currency)

	totals := root.CreateElement("cac:LegalMonetaryTotal")
	amount(totals, "cbc:LineExtensionAmount", inv.TaxableAmount, inv.Currency)
	amount(totals, "cbc:TaxExclusiveAmount", inv.TaxableAmount, inv.Currency)
	amount(totals, "cbc:TaxInclusiveAmount", inv.TotalAmount, inv.Currency)
	amount(totals, "cbc:PayableAmount", inv.TotalAmount, inv.Currency)

	for i, item := range inv.Items {
		buildLine(root, i+1, item, inv.Currency)
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

func buildParty(root *etree.Element, tag string, p model.Party) {
	wrap := root.CreateElement(tag)
	party := wrap.CreateElement("cac:Party")

	if p.CRN != "" {
		ident := party.CreateElement("cac:PartyIdentification")
		id := text(ident, "cbc:ID", p.CRN)
		id.CreateAttr("schemeID", "CRN")
	}

	addr := party.CreateElement("cac:PostalAddress")
	if p.Street != "" {
		text(addr, "cbc:StreetName", p.Street)
	}
	if p.City != "" {
		text(addr, "cbc:CityName", p.City)
	}
	country := addr.CreateElement("cac:Country")
	code := p.CountryCode
	if code == "" {
		code = "SA"
	}
	text(country, "cbc:IdentificationCode", code)

	taxScheme := party.CreateElement("cac:PartyTaxScheme")
	text(taxScheme, "cbc:CompanyID", p.VATNumber)
	scheme := taxScheme.CreateElement("cac:TaxScheme")
	text(scheme, "cbc:ID", "VAT")

	legal := party.CreateElement("cac:PartyLegalEntity")
	text(legal, "cbc:RegistrationName", p.Name)
}

func buildLine(root *etree.Element, number int, item model.LineItem, currency string) {
	line := root.CreateElement("cac:InvoiceLine")
	text(line, "cbc:ID", strconv.Itoa(number))

	qty := text(line, "cbc:InvoicedQuantity", item.Quantity.String())
	qty.CreateAttr("unitCode", "PCE")

	amount(line, "cbc:LineExtensionAmount", item.LineTotal, currency)

	itemEl := line.CreateElement("cac:Item")
	text(itemEl, "cbc:Name", item.Name)

	price := line.CreateElement("cac:Price")
	amount(price, "cbc:PriceAmount", item.UnitPrice, currency)
}

func text(parent *etree.Element, tag, value string) *etree.Element {
	el := parent.CreateElement(tag)
	el.SetText(value)
	return el
}

func amount(parent *etree.Element, tag string, v decimal.Decimal, currency string) *etree.Element {
	el := text(parent, tag, money.Format(v))
	el.CreateAttr("currencyID", currency)
	return el
}
