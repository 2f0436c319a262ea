package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-clearance/internal/logger"
)

var (
	version = "1.0.0"

	// Global flags
	sdkPath     string
	environment string
	logLevel    string
	logFormat   string
)

var rootCmd = &cobra.Command{
	Use:   "clearance",
	Short: "Drive e-invoices through the authority clearance workflow",
	Long: `Clearance is a CLI for producing, transmitting and reconciling
tax-compliant electronic invoices against the national e-invoicing authority.

The workflow:
  1. Build a UBL invoice from a JSON spec
  2. Sign and validate it with the authority SDK
  3. Package and submit it for clearance (standard) or reporting (simplified)
  4. Decode the official cleared document and render it as PDF

Examples:
  # Validate an invoice document
  clearance validate invoice.xml

  # Run the full lifecycle for a simplified invoice
  clearance process invoice.json

  # Generate onboarding credentials
  clearance credentials --csr-config csr.properties --key key.pem --csr out.csr

  # Start the HTTP API
  clearance serve`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sdkPath, "sdk", "", "Path to the authority SDK binary (env: CLEARANCE_SDK)")
	rootCmd.PersistentFlags().StringVar(&environment, "env", "developer-portal", "Authority environment (developer-portal, simulation, production)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (console, json)")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env values fill in anything not set via flags or environment
	_ = godotenv.Load()

	if sdkPath == "" {
		sdkPath = os.Getenv("CLEARANCE_SDK")
	}
	if env := os.Getenv("CLEARANCE_ENV"); env != "" && !rootCmd.PersistentFlags().Changed("env") {
		environment = env
	}

	if err := logger.Setup(logLevel, logFormat); err != nil {
		logLevel = "info"
		_ = logger.Setup(logLevel, logFormat)
	}
}
