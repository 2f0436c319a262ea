package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-clearance/internal/logger"
	"github.com/rezonia/einvoice-clearance/internal/render"
	"github.com/rezonia/einvoice-clearance/internal/ubl"
)

var renderOut string

var renderCmd = &cobra.Command{
	Use:   "render [cleared.xml]",
	Short: "Render a cleared invoice document as PDF",
	Long: `Produce the human-facing PDF for a cleared invoice: header, party
details, line items, totals, the rasterized QR code and the cleared XML
embedded as an attachment.

A document without a QR payload still renders; the QR block is omitted
with a warning.

Examples:
  clearance render cleared.xml
  clearance render cleared.xml -o invoice.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "", "Output PDF path (default: input name with .pdf)")
}

func runRender(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	inv, err := ubl.Parse(raw)
	if err != nil {
		return err
	}

	qr, _, err := ubl.ExtractQR(raw)
	if err != nil {
		return err
	}

	out := renderOut
	if out == "" {
		out = strings.TrimSuffix(args[0], ".xml") + ".pdf"
	}

	renderer := render.NewRenderer(render.WithLogger(logger.WithComponent("render")))
	if err := renderer.RenderPDF(inv, raw, qr, out); err != nil {
		return err
	}

	fmt.Printf("rendered PDF: %s\n", out)
	return nil
}
