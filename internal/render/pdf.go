// Package render turns a cleared invoice into its human-facing PDF: header,
// party details, columnar line items, totals, a rasterized QR image and the
// official cleared XML embedded as an attachment.
package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/rezonia/einvoice-clearance/internal/model"
	"github.com/rezonia/einvoice-clearance/internal/money"
)

// Renderer lays out cleared invoices as PDF files.
type Renderer struct {
	log zerolog.Logger
}

// Option configures the renderer
type Option func(*Renderer)

// WithLogger sets the renderer logger
func WithLogger(log zerolog.Logger) Option {
	return func(r *Renderer) { r.log = log }
}

// NewRenderer creates a renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderPDF writes the rendered artifact to outPath. A missing QR payload
// is not an error: the layout simply omits the QR block and a warning is
// logged, since a draft without QR is still a useful document.
func (r *Renderer) RenderPDF(inv *model.Invoice, clearedXML, qrPayload []byte, outPath string) error {
	dir, err := os.MkdirTemp("", "clearance-render-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	qrPNG := ""
	if len(qrPayload) > 0 {
		qrPNG = filepath.Join(dir, "qr.png")
		if err := qrcode.WriteFile(string(qrPayload), qrcode.Medium, 256, qrPNG); err != nil {
			return fmt.Errorf("rasterize QR payload: %w", err)
		}
	} else {
		r.log.Warn().Str("invoice", inv.ID).Msg("rendering without QR payload")
	}

	spec, err := pageSpec(inv, qrPNG)
	if err != nil {
		return err
	}
	specPath := filepath.Join(dir, "layout.json")
	if err := os.WriteFile(specPath, spec, 0o600); err != nil {
		return err
	}

	if err := api.CreateFile("", specPath, outPath, nil); err != nil {
		return fmt.Errorf("create PDF: %w", err)
	}

	if len(clearedXML) > 0 {
		xmlPath := filepath.Join(dir, inv.ID+".xml")
		if err := os.WriteFile(xmlPath, clearedXML, 0o600); err != nil {
			return err
		}
		if err := api.AddAttachmentsFile(outPath, "", []string{xmlPath}, false, nil); err != nil {
			return fmt.Errorf("attach cleared document: %w", err)
		}
	}

	r.log.Info().Str("invoice", inv.ID).Str("path", outPath).Msg("PDF rendered")
	return nil
}

// textBox is one positioned text entry in the pdfcpu create spec.
type textBox struct {
	Value    string    `json:"value"`
	Position [2]int    `json:"position"`
	Font     *fontSpec `json:"font,omitempty"`
	Anchor   string    `json:"anchor,omitempty"`
}

type fontSpec struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type imageBox struct {
	Src      string `json:"src"`
	Position [2]int `json:"position"`
	Width    int    `json:"width"`
}

// pageSpec produces the pdfcpu create-JSON for a single A4 page. Kept as a
// pure function so the layout is testable without producing a PDF.
func pageSpec(inv *model.Invoice, qrPNG string) ([]byte, error) {
	mono := &fontSpec{Name: "Courier", Size: 9}
	body := &fontSpec{Name: "Helvetica", Size: 10}
	heading := &fontSpec{Name: "Helvetica-Bold", Size: 11}

	texts := []textBox{
		{Value: "TAX INVOICE", Position: [2]int{297, 800}, Anchor: "tc", Font: &fontSpec{Name: "Helvetica-Bold", Size: 20}},
		{Value: "Invoice Number: " + inv.ID, Position: [2]int{50, 760}, Font: body},
		{Value: "UUID: " + inv.UUID, Position: [2]int{50, 745}, Font: body},
		{Value: "Issued: " + inv.IssueDateString() + " " + inv.IssueTimeString(), Position: [2]int{50, 730}, Font: body},
		{Value: "SELLER", Position: [2]int{50, 700}, Font: heading},
		{Value: "Name: " + inv.Seller.Name, Position: [2]int{50, 685}, Font: body},
		{Value: "VAT Number: " + inv.Seller.VATNumber, Position: [2]int{50, 670}, Font: body},
	}

	y := 655
	if inv.Buyer != nil {
		texts = append(texts,
			textBox{Value: "BUYER", Position: [2]int{50, 640}, Font: heading},
			textBox{Value: "Name: " + inv.Buyer.Name, Position: [2]int{50, 625}, Font: body},
			textBox{Value: "VAT Number: " + inv.Buyer.VATNumber, Position: [2]int{50, 610}, Font: body},
		)
		y = 595
	}

	texts = append(texts, textBox{Value: "LINE ITEMS", Position: [2]int{50, y - 15}, Font: heading})
	y -= 30
	texts = append(texts, textBox{
		Value:    fmt.Sprintf("%-32s %10s %14s %14s", "ITEM", "QTY", "UNIT PRICE", "TOTAL"),
		Position: [2]int{50, y},
		Font:     mono,
	})
	for _, item := range inv.Items {
		y -= 13
		texts = append(texts, textBox{
			Value: fmt.Sprintf("%-32s %10s %14s %14s",
				truncate(item.Name, 32),
				item.Quantity.String(),
				money.Format(item.UnitPrice),
				money.Format(item.LineTotal)),
			Position: [2]int{50, y},
			Font:     mono,
		})
	}

	y -= 30
	texts = append(texts,
		textBox{Value: "AMOUNT SUMMARY", Position: [2]int{50, y}, Font: heading},
		textBox{Value: fmt.Sprintf("Taxable Amount: %s %s", inv.Currency, money.Format(inv.TaxableAmount)), Position: [2]int{50, y - 15}, Font: body},
		textBox{Value: fmt.Sprintf("VAT (15%%): %s %s", inv.Currency, money.Format(inv.VATAmount)), Position: [2]int{50, y - 30}, Font: body},
		textBox{Value: fmt.Sprintf("Total Amount: %s %s", inv.Currency, money.Format(inv.TotalAmount)), Position: [2]int{50, y - 45}, Font: body},
	)

	content := map[string]interface{}{"text": texts}
	if qrPNG != "" {
		content["image"] = []imageBox{{Src: qrPNG, Position: [2]int{400, 80}, Width: 150}}
	}

	spec := map[string]interface{}{
		"pages": map[string]interface{}{
			"1": map[string]interface{}{
				"content": content,
			},
		},
	}
	return json.MarshalIndent(spec, "", "  ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
