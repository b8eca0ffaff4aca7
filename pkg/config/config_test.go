//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lincza/al-build/pkg/testutil"
)

func TestLoadDefaults(t *testing.T) {
	dir := testutil.TempDir(t, "config-*")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "Cloud", cfg.Build.Target)
	assert.Equal(t, "auto", cfg.Build.BuildType)
	assert.Equal(t, ".symbols", cfg.Symbols.Dir)
	assert.Empty(t, cfg.Publish.ProductID)
}

func TestLoad(t *testing.T) {
	dir := testutil.TempDir(t, "config-*")
	content := `build:
  target: OnPrem
  build_type: bc22
  ruleset_path: rules/LincRuleSet.json
  assembly_probing_paths:
    - /usr/lib/bc
symbols:
  dir: .cache/symbols
  fallback_publisher: Linc Communications
  fallback_org: lincza
signing:
  timestamp_url: http://timestamp.digicert.com
  vault_url: https://linc-signing.vault.azure.net
  cert_name: codesign
publish:
  product_id: 12345678-aaaa-bbbb-cccc-1234567890ab
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "OnPrem", cfg.Build.Target)
	assert.Equal(t, "bc22", cfg.Build.BuildType)
	assert.Equal(t, "rules/LincRuleSet.json", cfg.Build.RulesetPath)
	assert.Equal(t, []string{"/usr/lib/bc"}, cfg.Build.AssemblyProbingPaths)
	assert.Equal(t, ".cache/symbols", cfg.Symbols.Dir)
	assert.Equal(t, "Linc Communications", cfg.Symbols.FallbackPublisher)
	assert.Equal(t, "lincza", cfg.Symbols.FallbackOrg)
	assert.Equal(t, "http://timestamp.digicert.com", cfg.Signing.TimestampURL)
	assert.Equal(t, "https://linc-signing.vault.azure.net", cfg.Signing.VaultURL)
	assert.Equal(t, "codesign", cfg.Signing.CertName)
	assert.Equal(t, "12345678-aaaa-bbbb-cccc-1234567890ab", cfg.Publish.ProductID)
}

func TestLoadBackfillsDefaults(t *testing.T) {
	dir := testutil.TempDir(t, "config-*")
	content := `publish:
  product_id: abc
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "Cloud", cfg.Build.Target)
	assert.Equal(t, "auto", cfg.Build.BuildType)
	assert.Equal(t, ".symbols", cfg.Symbols.Dir)
	assert.Equal(t, "abc", cfg.Publish.ProductID)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := testutil.TempDir(t, "config-*")
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("build: [not a map"), 0o644))

	_, err := Load(dir)
	assert.ErrorContains(t, err, "failed to parse")
}
