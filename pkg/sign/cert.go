package sign

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/lincza/al-build/pkg/logger"
)

var certLog = logger.New("sign:cert")

// Certificate is a PKCS#12 certificate materialized on disk for the
// signing tools. Callers must Close it to remove the key material.
type Certificate struct {
	Path     string
	Password string
}

// Close removes the certificate file from disk.
func (c *Certificate) Close() error {
	if c.Path == "" {
		return nil
	}
	err := os.Remove(c.Path)
	c.Path = ""
	return err
}

func writeCertFile(data []byte) (string, error) {
	f, err := os.CreateTemp("", "codesign-*.pfx")
	if err != nil {
		return "", fmt.Errorf("failed to create certificate file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write certificate file: %w", err)
	}
	return f.Name(), nil
}

// CertificateFromBase64 decodes a base64 PKCS#12 blob to a temporary file.
func CertificateFromBase64(encoded, password string) (*Certificate, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode certificate: %w", err)
	}
	path, err := writeCertFile(data)
	if err != nil {
		return nil, err
	}
	certLog.Printf("Certificate decoded, %d bytes", len(data))
	return &Certificate{Path: path, Password: password}, nil
}

// VaultConfig identifies a certificate stored in Azure Key Vault and the
// service principal allowed to read it.
type VaultConfig struct {
	VaultURL     string
	CertName     string
	TenantID     string
	ClientID     string
	ClientSecret string
}

func (v VaultConfig) validate() error {
	if v.VaultURL == "" || v.CertName == "" || v.TenantID == "" || v.ClientID == "" || v.ClientSecret == "" {
		return fmt.Errorf("key vault signing requires vault URL, certificate name, tenant ID, client ID and client secret")
	}
	return nil
}

// CertificateFromVault fetches the certificate's secret from Key Vault.
// Key Vault stores the full PKCS#12 bundle, base64 encoded, as the secret
// with the certificate's name; exported this way it carries no password.
func CertificateFromVault(ctx context.Context, cfg VaultConfig) (*Certificate, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cred, err := azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	client, err := azsecrets.NewClient(cfg.VaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}

	certLog.Printf("Retrieving certificate %s from %s", cfg.CertName, cfg.VaultURL)
	secret, err := client.GetSecret(ctx, cfg.CertName, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve certificate from Key Vault: %w", err)
	}
	if secret.Value == nil {
		return nil, fmt.Errorf("certificate secret %s has no value", cfg.CertName)
	}

	data, err := base64.StdEncoding.DecodeString(*secret.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Key Vault certificate: %w", err)
	}
	path, err := writeCertFile(data)
	if err != nil {
		return nil, err
	}
	return &Certificate{Path: path}, nil
}
