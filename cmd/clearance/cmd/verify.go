package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-clearance/internal/codec"
	"github.com/rezonia/einvoice-clearance/internal/model"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [request.json]",
	Short: "Verify the hash binding of a submission request",
	Long: `Recompute the SHA-256 digest of the base64 invoice inside a
submission request JSON and compare it with the invoiceHash the request
claims. A mismatch means the request must not be transmitted.

Examples:
  clearance verify standard-clearance-request.json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	var req model.SubmissionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("request is not valid JSON: %w", err)
	}

	payload, err := codec.DecodeEnvelope(req.Invoice)
	if err != nil {
		return err
	}

	computed := codec.ComputeHash(payload)
	fmt.Printf("claimed hash:  %s\n", req.InvoiceHash)
	fmt.Printf("computed hash: %s\n", computed)

	if !codec.VerifyHash(payload, req.InvoiceHash) {
		return model.NewHashMismatchError("submission request", req.InvoiceHash, computed)
	}

	fmt.Println("match: yes")
	return nil
}
