//go:build !integration

package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lincza/al-build/pkg/testutil"
)

const sampleDescriptor = `{
  "id": "a1b2c3d4-0000-0000-0000-000000000001",
  "name": "Warehouse Connector",
  "publisher": "Linc Communications",
  "version": "1.0.0.0",
  "platform": "22.0.0.0",
  "application": "22.0.0.0",
  "runtime": "11.0",
  "target": "Cloud",
  "idRanges": [{"from": 100000, "to": 100999}],
  "dependencies": [
    {"id": "63ca2fa4-4f03-4f2b-a480-172fef340d3f", "name": "System Application", "publisher": "Microsoft", "version": "22.0.0.0"}
  ],
  "features": ["NoImplicitWith"]
}`

func TestParse(t *testing.T) {
	d, err := Parse([]byte(sampleDescriptor))
	require.NoError(t, err)

	assert.Equal(t, "Warehouse Connector", d.Name)
	assert.Equal(t, "Linc Communications", d.Publisher)
	assert.Equal(t, "1.0.0.0", d.Version)
	assert.Equal(t, 22, d.PlatformMajor())
	assert.Equal(t, 22, d.ApplicationMajor())
	assert.Len(t, d.Dependencies, 1)
	assert.Equal(t, "WarehouseConnector", d.CleanName())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "{"},
		{"missing name", `{"version": "1.0.0.0"}`},
		{"empty version", `{"name": "App", "version": ""}`},
		{"non-numeric version", `{"name": "App", "version": "1.0.x.0"}`},
		{"negative version component", `{"name": "App", "version": "1.-2.0.0"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestSavePreservesUnknownFields(t *testing.T) {
	dir := testutil.TempDir(t, "descriptor-*")
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptorFile), []byte(sampleDescriptor), 0o644))

	d, err := Load(dir)
	require.NoError(t, err)

	d.Version = "22.25.1992.630"
	require.NoError(t, d.Save(dir))

	data, err := os.ReadFile(filepath.Join(dir, DescriptorFile))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "22.25.1992.630", doc["version"])
	// Fields the build does not model must survive the rewrite.
	assert.Equal(t, []any{"NoImplicitWith"}, doc["features"])
	assert.Equal(t, "11.0", doc["runtime"])
}

func TestMajorComponent(t *testing.T) {
	tests := []struct {
		version  string
		expected int
	}{
		{"22.0.0.0", 22},
		{"26.3", 26},
		{"7", 7},
		{"", 0},
		{"abc", 0},
		{"x.1", 0},
	}
	for _, tt := range tests {
		if got := majorComponent(tt.version); got != tt.expected {
			t.Errorf("majorComponent(%q) = %d, want %d", tt.version, got, tt.expected)
		}
	}
}

func TestIsStoreEligible(t *testing.T) {
	tests := []struct {
		name     string
		ranges   []IDRange
		expected bool
	}{
		{"marketplace range", []IDRange{{From: 100000, To: 100999}}, true},
		{"per-tenant range", []IDRange{{From: 50000, To: 59999}}, false},
		{"mixed ranges", []IDRange{{From: 50000, To: 59999}, {From: 7000000, To: 7000999}}, true},
		{"exact boundary", []IDRange{{From: 100000, To: 100000}}, true},
		{"just below boundary", []IDRange{{From: 99999, To: 100500}}, false},
		{"no ranges", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsStoreEligible(tt.ranges))
		})
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"My App", "MyApp"},
		{"Warehouse-Connector v2", "WarehouseConnectorv2"},
		{"ÅppNavn", "ppNavn"},
	}
	for _, tt := range tests {
		d := &Descriptor{Name: tt.name}
		if got := d.CleanName(); got != tt.expected {
			t.Errorf("CleanName(%q) = %q, want %q", tt.name, got, tt.expected)
		}
	}
}
