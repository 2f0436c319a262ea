package ubl

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rezonia/einvoice-clearance/internal/model"
)

// Wire structures. Tags match on local name only, so documents carrying
// namespace prefixes or additional vendor elements parse without complaint;
// only missing mandatory elements are an error.
type ublInvoice struct {
	XMLName     xml.Name      `xml:"Invoice"`
	ProfileID   string        `xml:"ProfileID"`
	ID          string        `xml:"ID"`
	UUID        string        `xml:"UUID"`
	IssueDate   string        `xml:"IssueDate"`
	IssueTime   string        `xml:"IssueTime"`
	TypeCode    ublTypeCode   `xml:"InvoiceTypeCode"`
	Currency    string        `xml:"DocumentCurrencyCode"`
	DocRefs     []ublDocRef   `xml:"AdditionalDocumentReference"`
	Supplier    *ublPartyWrap `xml:"AccountingSupplierParty"`
	Customer    *ublPartyWrap `xml:"AccountingCustomerParty"`
	TaxTotal    ublTaxTotal   `xml:"TaxTotal"`
	Totals      ublTotals     `xml:"LegalMonetaryTotal"`
	Lines       []ublLine     `xml:"InvoiceLine"`
}

type ublTypeCode struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type ublDocRef struct {
	ID         string `xml:"ID"`
	Attachment struct {
		EmbeddedObject string `xml:"EmbeddedDocumentBinaryObject"`
	} `xml:"Attachment"`
}

type ublPartyWrap struct {
	Party ublParty `xml:"Party"`
}

type ublParty struct {
	Identification struct {
		ID string `xml:"ID"`
	} `xml:"PartyIdentification"`
	Address struct {
		StreetName string `xml:"StreetName"`
		CityName   string `xml:"CityName"`
		Country    struct {
			Code string `xml:"IdentificationCode"`
		} `xml:"Country"`
	} `xml:"PostalAddress"`
	TaxScheme struct {
		CompanyID string `xml:"CompanyID"`
	} `xml:"PartyTaxScheme"`
	LegalEntity struct {
		RegistrationName string `xml:"RegistrationName"`
	} `xml:"PartyLegalEntity"`
}

type ublTaxTotal struct {
	TaxAmount string `xml:"TaxAmount"`
}

type ublTotals struct {
	TaxExclusiveAmount string `xml:"TaxExclusiveAmount"`
	TaxInclusiveAmount string `xml:"TaxInclusiveAmount"`
}

type ublLine struct {
	Quantity string `xml:"InvoicedQuantity"`
	Total    string `xml:"LineExtensionAmount"`
	Item     struct {
		Name string `xml:"Name"`
	} `xml:"Item"`
	Price struct {
		PriceAmount string `xml:"PriceAmount"`
	} `xml:"Price"`
}

// Parse decodes UBL bytes back into an invoice and re-checks the totals
// invariant. Unknown extra elements are ignored; missing mandatory elements
// fail with ParseError.
func Parse(data []byte) (*model.Invoice, error) {
	var wire ublInvoice
	if err := xml.Unmarshal(data, &wire); err != nil {
		return nil, model.NewParseError("xml", "malformed document", err)
	}

	if wire.ID == "" {
		return nil, model.NewParseError("ID", "missing invoice id", nil)
	}
	if wire.UUID == "" {
		return nil, model.NewParseError("UUID", "missing invoice uuid", nil)
	}
	if wire.Supplier == nil || wire.Supplier.Party.LegalEntity.RegistrationName == "" {
		return nil, model.NewParseError("AccountingSupplierParty", "missing seller registration name", nil)
	}
	if wire.IssueDate == "" {
		return nil, model.NewParseError("IssueDate", "missing issue date", nil)
	}
	if wire.Totals.TaxInclusiveAmount == "" {
		return nil, model.NewParseError("LegalMonetaryTotal", "missing monetary totals", nil)
	}

	inv := &model.Invoice{
		ID:       wire.ID,
		UUID:     wire.UUID,
		Currency: wire.Currency,
		State:    model.StateDraft,
	}

	issued, err := parseIssueTimestamp(wire.IssueDate, wire.IssueTime)
	if err != nil {
		return nil, model.NewParseError("IssueDate", "invalid issue date/time", err)
	}
	inv.IssueDate = issued

	if strings.HasPrefix(wire.TypeCode.Name, "01") {
		inv.Type = model.TypeStandard
	} else {
		inv.Type = model.TypeSimplified
	}

	inv.Seller = convertParty(wire.Supplier.Party)
	if wire.Customer != nil && wire.Customer.Party.LegalEntity.RegistrationName != "" {
		buyer := convertParty(wire.Customer.Party)
		inv.Buyer = &buyer
	}

	for _, ref := range wire.DocRefs {
		if ref.ID == RefPIH {
			inv.PreviousInvoiceHash = strings.TrimSpace(ref.Attachment.EmbeddedObject)
		}
	}

	for _, line := range wire.Lines {
		item, err := convertLine(line)
		if err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, item)
	}

	if inv.TaxableAmount, err = parseAmount(wire.Totals.TaxExclusiveAmount, "TaxExclusiveAmount"); err != nil {
		return nil, err
	}
	if inv.VATAmount, err = parseAmount(wire.TaxTotal.TaxAmount, "TaxAmount"); err != nil {
		return nil, err
	}
	if inv.TotalAmount, err = parseAmount(wire.Totals.TaxInclusiveAmount, "TaxInclusiveAmount"); err != nil {
		return nil, err
	}

	if err := inv.CheckTotals(); err != nil {
		return nil, err
	}
	return inv, nil
}

func convertParty(p ublParty) model.Party {
	return model.Party{
		Name:        p.LegalEntity.RegistrationName,
		VATNumber:   p.TaxScheme.CompanyID,
		CRN:         p.Identification.ID,
		Street:      p.Address.StreetName,
		City:        p.Address.CityName,
		CountryCode: p.Address.Country.Code,
	}
}

func convertLine(line ublLine) (model.LineItem, error) {
	item := model.LineItem{Name: line.Item.Name}
	if item.Name == "" {
		return item, model.NewParseError("InvoiceLine", "missing item name", nil)
	}

	var err error
	if item.Quantity, err = decimal.NewFromString(strings.TrimSpace(line.Quantity)); err != nil {
		return item, model.NewParseError("InvoicedQuantity", "invalid quantity", err)
	}
	if item.UnitPrice, err = decimal.NewFromString(strings.TrimSpace(line.Price.PriceAmount)); err != nil {
		return item, model.NewParseError("PriceAmount", "invalid unit price", err)
	}
	if item.LineTotal, err = decimal.NewFromString(strings.TrimSpace(line.Total)); err != nil {
		return item, model.NewParseError("LineExtensionAmount", "invalid line total", err)
	}
	return item, nil
}

func parseAmount(s, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, model.NewParseError(field, "invalid amount", err)
	}
	return d, nil
}

func parseIssueTimestamp(date, clock string) (time.Time, error) {
	if clock == "" {
		return time.ParseInLocation("2006-01-02", date, time.UTC)
	}
	return time.ParseInLocation("2006-01-02 15:04:05", date+" "+clock, time.UTC)
}
