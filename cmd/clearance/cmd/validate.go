package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-clearance/internal/logger"
	"github.com/rezonia/einvoice-clearance/internal/sdk"
)

var validateTimeout time.Duration

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate an invoice document with the authority SDK",
	Long: `Run the authority SDK validator over an invoice document and report
the global verdict.

A FAILED verdict exits non-zero but is a document problem, not a tool
problem; tool invocation failures are reported separately.

Examples:
  clearance validate invoice.xml
  clearance validate signed.xml --timeout 1m`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().DurationVar(&validateTimeout, "timeout", 2*time.Minute, "Validation timeout")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if sdkPath == "" {
		return errors.New("no SDK binary configured (use --sdk or CLEARANCE_SDK)")
	}

	doc, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read invoice: %w", err)
	}

	log := logger.WithComponent("validate")
	gateway := sdk.NewGateway(sdkPath, sdk.WithLogger(log))

	ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
	defer cancel()

	outcome, err := gateway.Validate(ctx, doc)
	if err != nil {
		return err
	}

	if !outcome.Passed {
		fmt.Fprintln(os.Stderr, outcome.Diagnostics)
		return fmt.Errorf("validation FAILED for %s", args[0])
	}

	fmt.Printf("validation PASSED for %s\n", args[0])
	return nil
}
