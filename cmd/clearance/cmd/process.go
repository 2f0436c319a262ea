package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-clearance/internal/authority"
	"github.com/rezonia/einvoice-clearance/internal/lifecycle"
	"github.com/rezonia/einvoice-clearance/internal/logger"
	"github.com/rezonia/einvoice-clearance/internal/model"
	"github.com/rezonia/einvoice-clearance/internal/render"
	"github.com/rezonia/einvoice-clearance/internal/sdk"
)

var (
	processOutDir  string
	processTimeout time.Duration
	processSubmit  bool
	csidPath       string
	skipPDF        bool
)

var processCmd = &cobra.Command{
	Use:   "process [invoice.json]",
	Short: "Run the full clearance lifecycle for an invoice",
	Long: `Drive an invoice through its complete lifecycle: build the UBL
document from a JSON construction record, sign and validate it with the
authority SDK, package the submission request, submit it, decode the
official cleared document and render the final PDF.

Without --submit the authority is not contacted; the submission is echoed
back locally so the full round trip can be exercised before onboarding.

The invoice JSON is a construction record:
  {
    "id": "INV-2026-001",
    "type": "simplified",
    "seller": {"name": "ACME LTD", "vat_number": "300000000000003"},
    "items": [{"name": "Widget", "quantity": "2", "unit_price": "500.00"}]
  }

Examples:
  clearance process invoice.json
  clearance process invoice.json --submit --csid compliance-csid.json
  clearance process invoice.json -o out/`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&processOutDir, "out-dir", "o", ".", "Directory for produced artifacts")
	processCmd.Flags().DurationVar(&processTimeout, "timeout", 5*time.Minute, "Overall processing timeout")
	processCmd.Flags().BoolVar(&processSubmit, "submit", false, "Actually submit to the authority (requires --csid)")
	processCmd.Flags().StringVar(&csidPath, "csid", "", "CSID credential JSON for authenticated submission")
	processCmd.Flags().BoolVar(&skipPDF, "skip-pdf", false, "Skip PDF rendering")
}

func runProcess(cmd *cobra.Command, args []string) error {
	if sdkPath == "" {
		return errors.New("no SDK binary configured (use --sdk or CLEARANCE_SDK)")
	}

	spec, err := readSpec(args[0])
	if err != nil {
		return err
	}

	inv, err := model.New(*spec)
	if err != nil {
		return err
	}

	log := logger.WithComponent("process")
	gateway := sdk.NewGateway(sdkPath, sdk.WithLogger(log))

	submitter, err := buildSubmitter()
	if err != nil {
		return err
	}

	orch := lifecycle.New(inv, gateway,
		lifecycle.WithSubmitter(submitter),
		lifecycle.WithLogger(log),
	)

	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	if err := orch.Sign(ctx); err != nil {
		return describeFailure(inv, "sign", err)
	}
	if err := orch.Validate(ctx); err != nil {
		return describeFailure(inv, "validate", err)
	}

	req, err := orch.BuildRequest(ctx)
	if err != nil {
		return describeFailure(inv, "build request", err)
	}
	if err := writeJSON(filepath.Join(processOutDir, inv.ID+"-request.json"), req); err != nil {
		return err
	}

	if err := orch.Submit(ctx); err != nil {
		return describeFailure(inv, "submit", err)
	}

	// Reporting returns no document; the signed envelope is the official one.
	clearedBase64 := orch.Result().ClearedInvoice
	if clearedBase64 == "" {
		clearedBase64 = inv.Envelope.Base64
	}

	record, err := orch.ReceiveClearance(clearedBase64)
	if err != nil {
		return describeFailure(inv, "receive clearance", err)
	}

	clearedPath := filepath.Join(processOutDir, inv.ID+"-cleared.xml")
	if err := os.WriteFile(clearedPath, record.Raw, 0o644); err != nil {
		return err
	}
	fmt.Printf("cleared document: %s\n", clearedPath)

	if !skipPDF {
		pdfPath := filepath.Join(processOutDir, inv.ID+".pdf")
		renderer := render.NewRenderer(render.WithLogger(logger.WithComponent("render")))
		if err := renderer.RenderPDF(record.Invoice, record.Raw, record.QR, pdfPath); err != nil {
			return err
		}
		fmt.Printf("rendered PDF:     %s\n", pdfPath)
	}

	fmt.Printf("lifecycle complete: %s is %s\n", inv.ID, record.Invoice.State)
	return nil
}

func readSpec(path string) (*model.InvoiceSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read invoice spec: %w", err)
	}
	var spec model.InvoiceSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("invoice spec is not valid JSON: %w", err)
	}
	return &spec, nil
}

func buildSubmitter() (lifecycle.Submitter, error) {
	if !processSubmit {
		return lifecycle.LoopbackSubmitter{}, nil
	}
	if csidPath == "" {
		return nil, errors.New("--submit requires --csid with onboarding credentials")
	}

	raw, err := os.ReadFile(csidPath)
	if err != nil {
		return nil, fmt.Errorf("read CSID credential: %w", err)
	}
	var cred authority.CSIDCredential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, fmt.Errorf("CSID credential is not valid JSON: %w", err)
	}

	return authority.NewClient(
		authority.BaseURLFor(environment),
		authority.WithCredential(&cred),
		authority.WithClientLogger(logger.WithComponent("authority")),
	), nil
}

func describeFailure(inv *model.Invoice, op string, err error) error {
	return fmt.Errorf("%s failed for invoice %s (state %s): %w", op, inv.ID, inv.State, err)
}

func writeJSON(path string, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("request JSON:     %s\n", path)
	return nil
}
