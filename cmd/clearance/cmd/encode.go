package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-clearance/internal/codec"
)

var encodeCmd = &cobra.Command{
	Use:   "encode [file]",
	Short: "Base64-encode an invoice document for API submission",
	Long: `Wrap an invoice document in the Base64 envelope used by submission
payloads and print it together with its SHA-256 digest.

Examples:
  clearance encode signed.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
}

func runEncode(cmd *cobra.Command, args []string) error {
	doc, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read invoice: %w", err)
	}

	fmt.Println(codec.EncodeEnvelope(doc))
	fmt.Fprintf(os.Stderr, "invoiceHash: %s\n", codec.ComputeHash(doc))
	return nil
}
