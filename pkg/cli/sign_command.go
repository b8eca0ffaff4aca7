package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lincza/al-build/pkg/console"
	"github.com/lincza/al-build/pkg/logger"
	"github.com/lincza/al-build/pkg/sign"
)

var signCmdLog = logger.New("cli:sign")

// NewSignCommand creates the sign command
func NewSignCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign <file>",
		Short: "Sign a compiled extension package",
		Long: `Sign a package with an Authenticode certificate.

Extension (.app) packages use the NAVX container format and can only be
signed with SignTool on Windows; standard PE files also sign on Linux and
macOS through osslsigncode. The certificate comes from Azure Key Vault
(--vault-url) or a base64 PKCS#12 blob (--cert-base64 or the
SIGNING_CERT_BASE64 environment variable).

Examples:
  al-build sign out/App.app --cert-base64 "$CERT" --cert-password "$PWD"
  al-build sign out/App.app --vault-url https://v.vault.azure.net --cert-name codesign`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunSign(cmd, args[0])
		},
	}
	cmd.Flags().String("cert-base64", "", "Base64-encoded PKCS#12 certificate")
	cmd.Flags().String("cert-password", "", "Certificate password")
	cmd.Flags().String("timestamp-url", sign.DefaultTimestampURL, "Timestamp server URL")
	cmd.Flags().Bool("force", false, "Attempt signing even on an incompatible platform")
	cmd.Flags().String("vault-url", "", "Azure Key Vault URL")
	cmd.Flags().String("cert-name", "", "Certificate name in the vault")
	return cmd
}

// RunSign signs one file from command line flags and environment.
func RunSign(cmd *cobra.Command, file string) error {
	vaultURL, _ := cmd.Flags().GetString("vault-url")
	certBase64, _ := cmd.Flags().GetString("cert-base64")
	certPassword, _ := cmd.Flags().GetString("cert-password")
	timestampURL, _ := cmd.Flags().GetString("timestamp-url")
	force, _ := cmd.Flags().GetBool("force")

	if certBase64 == "" {
		certBase64 = os.Getenv("SIGNING_CERT_BASE64")
	}
	if certPassword == "" {
		certPassword = os.Getenv("SIGNING_CERT_PASSWORD")
	}

	var cert *sign.Certificate
	var err error
	switch {
	case vaultURL != "":
		certName, _ := cmd.Flags().GetString("cert-name")
		cert, err = sign.CertificateFromVault(cmd.Context(), sign.VaultConfig{
			VaultURL:     vaultURL,
			CertName:     certName,
			TenantID:     os.Getenv("AZURE_TENANT_ID"),
			ClientID:     os.Getenv("AZURE_CLIENT_ID"),
			ClientSecret: os.Getenv("AZURE_CLIENT_SECRET"),
		})
	case certBase64 != "":
		cert, err = sign.CertificateFromBase64(certBase64, certPassword)
	default:
		err = fmt.Errorf("no certificate provided; use --cert-base64, --vault-url or SIGNING_CERT_BASE64")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}
	defer cert.Close()

	signCmdLog.Printf("Signing %s", file)
	req := sign.Request{File: file, Certificate: cert, TimestampURL: timestampURL, Force: force}
	if err := sign.Sign(cmd.Context(), req); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}
	fmt.Println(console.FormatSuccessMessage("File signed: " + file))
	return nil
}
