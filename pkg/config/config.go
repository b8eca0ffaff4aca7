// Package config loads the optional repository-level build configuration
// from .albuild.yml at the project root.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/lincza/al-build/pkg/logger"
)

var configLog = logger.New("config:config")

// FileName is the repository-level configuration file.
const FileName = ".albuild.yml"

// Config is the repository build configuration. Every field is optional;
// zero values fall back to built-in defaults or environment variables.
type Config struct {
	// Build holds compile-time settings.
	Build BuildConfig `yaml:"build"`
	// Symbols configures dependency symbol resolution.
	Symbols SymbolsConfig `yaml:"symbols"`
	// Signing configures artifact code signing.
	Signing SigningConfig `yaml:"signing"`
	// Publish configures marketplace submission.
	Publish PublishConfig `yaml:"publish"`
}

type BuildConfig struct {
	// Target is the compiler target, Cloud by default.
	Target string `yaml:"target"`
	// BuildType pins a manifest version tag instead of auto-detection.
	BuildType string `yaml:"build_type"`
	// RulesetPath overrides ruleset discovery.
	RulesetPath string `yaml:"ruleset_path"`
	// AssemblyProbingPaths are extra .NET assembly directories.
	AssemblyProbingPaths []string `yaml:"assembly_probing_paths"`
}

type SymbolsConfig struct {
	// Dir is the symbol cache directory relative to the project root.
	Dir string `yaml:"dir"`
	// FallbackPublisher routes matching dependencies to the GitHub
	// Packages registry when the marketplace feed misses.
	FallbackPublisher string `yaml:"fallback_publisher"`
	// FallbackOrg is the GitHub organization owning that registry.
	FallbackOrg string `yaml:"fallback_org"`
}

type SigningConfig struct {
	// TimestampURL overrides the default timestamp authority.
	TimestampURL string `yaml:"timestamp_url"`
	// VaultURL enables Azure Key Vault certificate retrieval.
	VaultURL string `yaml:"vault_url"`
	// CertName is the certificate name in the vault.
	CertName string `yaml:"cert_name"`
}

type PublishConfig struct {
	// ProductID is the Partner Center product for submissions.
	ProductID string `yaml:"product_id"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		Build:   BuildConfig{Target: "Cloud", BuildType: "auto"},
		Symbols: SymbolsConfig{Dir: ".symbols"},
	}
}

// Load reads .albuild.yml from dir, returning defaults when the file does
// not exist.
func Load(dir string) (*Config, error) {
	cfg := Defaults()

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		configLog.Printf("No %s in %s, using defaults", FileName, dir)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	if cfg.Build.Target == "" {
		cfg.Build.Target = "Cloud"
	}
	if cfg.Build.BuildType == "" {
		cfg.Build.BuildType = "auto"
	}
	if cfg.Symbols.Dir == "" {
		cfg.Symbols.Dir = ".symbols"
	}
	configLog.Printf("Loaded %s", path)
	return cfg, nil
}
