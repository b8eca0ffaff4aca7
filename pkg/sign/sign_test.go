//go:build !integration

package sign

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lincza/al-build/pkg/testutil"
)

func TestIsExtensionPackage(t *testing.T) {
	dir := testutil.TempDir(t, "sign-*")

	navx := filepath.Join(dir, "extension.app")
	require.NoError(t, os.WriteFile(navx, []byte("NAVX\x00\x01payload"), 0o644))
	assert.True(t, IsExtensionPackage(navx))

	pe := filepath.Join(dir, "tool.exe")
	require.NoError(t, os.WriteFile(pe, []byte("MZ\x90\x00"), 0o644))
	assert.False(t, IsExtensionPackage(pe))

	assert.False(t, IsExtensionPackage(filepath.Join(dir, "missing.app")))

	empty := filepath.Join(dir, "empty.app")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	assert.False(t, IsExtensionPackage(empty))
}

func TestCheckPlatform(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("platform gate only applies off Windows")
	}

	dir := testutil.TempDir(t, "sign-*")
	navx := filepath.Join(dir, "extension.app")
	require.NoError(t, os.WriteFile(navx, []byte("NAVXdata"), 0o644))
	pe := filepath.Join(dir, "tool.exe")
	require.NoError(t, os.WriteFile(pe, []byte("MZdata"), 0o644))

	assert.Error(t, CheckPlatform(navx, false), "NAVX packages require Windows")
	assert.NoError(t, CheckPlatform(navx, true), "force overrides the gate")
	assert.NoError(t, CheckPlatform(pe, false), "PE files sign cross-platform")
}

func TestCertificateFromBase64(t *testing.T) {
	payload := []byte("pkcs12 blob")
	encoded := base64.StdEncoding.EncodeToString(payload)

	cert, err := CertificateFromBase64(encoded, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cert.Password)

	data, err := os.ReadFile(cert.Path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	path := cert.Path
	require.NoError(t, cert.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "Close must remove the key material")

	// Close is safe to call again.
	assert.NoError(t, cert.Close())
}

func TestCertificateFromBase64Invalid(t *testing.T) {
	_, err := CertificateFromBase64("%%%not base64%%%", "")
	assert.Error(t, err)
}

func TestVaultConfigValidate(t *testing.T) {
	complete := VaultConfig{
		VaultURL:     "https://v.vault.azure.net",
		CertName:     "codesign",
		TenantID:     "t",
		ClientID:     "c",
		ClientSecret: "s",
	}
	assert.NoError(t, complete.validate())

	missing := complete
	missing.ClientSecret = ""
	assert.Error(t, missing.validate())

	assert.Error(t, VaultConfig{}.validate())
}
