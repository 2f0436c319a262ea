package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-clearance/internal/logger"
	"github.com/rezonia/einvoice-clearance/internal/server"
)

var (
	serverAddr   string
	serverDebug  bool
	readTimeout  time.Duration
	writeTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server exposing the engine's local operations.

Endpoints:
  - POST /api/v1/invoices/build    - Build a UBL document from a spec
  - POST /api/v1/invoices/parse    - Parse a UBL document
  - POST /api/v1/invoices/qr       - Extract the embedded QR payload
  - POST /api/v1/invoices/validate - Validate via the SDK (if configured)
  - POST /api/v1/envelope/encode   - Base64-encode a document
  - POST /api/v1/envelope/decode   - Decode a Base64 envelope
  - POST /api/v1/envelope/verify   - Verify a hash binding
  - GET  /health                   - Health check

Examples:
  clearance serve
  clearance serve --address :8080 --sdk /opt/fatoora/fatoora`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", ":8080", "Server listen address")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 5*time.Minute, "HTTP write timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	config := &server.Config{
		Address:      serverAddr,
		SDKPath:      sdkPath,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		Debug:        serverDebug,
	}

	srv := server.NewServer(config, logger.WithComponent("server"))

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		fmt.Println("\nShutting down server...")
		os.Exit(0)
	}()

	fmt.Printf("Starting server on %s\n", serverAddr)
	if sdkPath != "" {
		fmt.Println("SDK validation enabled")
	} else {
		fmt.Println("SDK validation disabled (no SDK binary configured)")
	}

	return srv.Run()
}
