package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-clearance/internal/authority"
	"github.com/rezonia/einvoice-clearance/internal/logger"
	"github.com/rezonia/einvoice-clearance/internal/sdk"
)

var (
	csrConfigPath string
	privateKeyOut string
	csrOut        string
	onboardOTP    string
	csidOut       string
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Generate a key pair and CSR, optionally submitting it for onboarding",
	Long: `Generate a new private key and certificate signing request with the
authority SDK. With --otp, the CSR is submitted to the authority's
compliance endpoint and the issued CSID credential saved to --csid-out.

Output paths must be fresh: an existing private key is never overwritten.

Examples:
  clearance credentials --csr-config csr.properties --key key.pem --csr taxpayer.csr
  clearance credentials --csr-config csr.properties --key key.pem --csr taxpayer.csr \
      --otp 123456 --csid-out compliance-csid.json`,
	RunE: runCredentials,
}

func init() {
	rootCmd.AddCommand(credentialsCmd)

	credentialsCmd.Flags().StringVar(&csrConfigPath, "csr-config", "", "CSR configuration properties file")
	credentialsCmd.Flags().StringVar(&privateKeyOut, "key", "", "Output path for the private key (must not exist)")
	credentialsCmd.Flags().StringVar(&csrOut, "csr", "", "Output path for the CSR")
	credentialsCmd.Flags().StringVar(&onboardOTP, "otp", "", "6-digit onboarding OTP; submits the CSR when set")
	credentialsCmd.Flags().StringVar(&csidOut, "csid-out", "compliance-csid.json", "Output path for the issued CSID credential")

	_ = credentialsCmd.MarkFlagRequired("csr-config")
	_ = credentialsCmd.MarkFlagRequired("key")
	_ = credentialsCmd.MarkFlagRequired("csr")
}

func runCredentials(cmd *cobra.Command, args []string) error {
	if sdkPath == "" {
		return errors.New("no SDK binary configured (use --sdk or CLEARANCE_SDK)")
	}

	log := logger.WithComponent("credentials")
	gateway := sdk.NewGateway(sdkPath, sdk.WithLogger(log))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	csrPEM, err := gateway.GenerateCSR(ctx, sdk.CSRConfig{
		ConfigPath:     csrConfigPath,
		PrivateKeyPath: privateKeyOut,
		CSRPath:        csrOut,
	})
	if err != nil {
		return err
	}

	fmt.Printf("private key: %s\n", privateKeyOut)
	fmt.Printf("csr:         %s\n", csrOut)

	if onboardOTP == "" {
		fmt.Println("next step: submit the CSR with --otp to obtain a compliance CSID")
		return nil
	}

	client := authority.NewClient(
		authority.BaseURLFor(environment),
		authority.WithClientLogger(log),
	)

	cred, err := client.SubmitCSR(ctx, csrPEM, onboardOTP)
	if err != nil {
		var remote *authority.RemoteServiceError
		if errors.As(err, &remote) && remote.StatusCode == 400 {
			fmt.Fprintln(os.Stderr, "hint: a 400 usually means the OTP expired or the CSR content is invalid")
		}
		return err
	}

	out, err := json.MarshalIndent(cred, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(csidOut, out, 0o600); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}

	fmt.Printf("compliance CSID saved to %s\n", csidOut)
	return nil
}
