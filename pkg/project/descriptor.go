// Package project models the AL project descriptor (app.json) and the
// analysis derived from it: store eligibility, dependency breakdown, and
// Business Central version detection.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/lincza/al-build/pkg/logger"
)

var descriptorLog = logger.New("project:descriptor")

// DescriptorFile is the manifest filename the AL toolchain expects.
const DescriptorFile = "app.json"

// Dependency is a single entry of the descriptor's dependencies list.
type Dependency struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Publisher string `json:"publisher"`
	Version   string `json:"version"`
}

// IDRange is an object ID allocation range.
type IDRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Descriptor is the typed view of app.json. Loading keeps the raw document
// alongside the typed fields so fields this tool does not model survive a
// rewrite untouched.
type Descriptor struct {
	Name         string       `json:"name"`
	Publisher    string       `json:"publisher"`
	Version      string       `json:"version"`
	Description  string       `json:"description"`
	Platform     string       `json:"platform"`
	Application  string       `json:"application"`
	Runtime      string       `json:"runtime"`
	Target       string       `json:"target"`
	Dependencies []Dependency `json:"dependencies"`
	IDRanges     []IDRange    `json:"idRanges"`

	raw map[string]json.RawMessage
}

// Load reads and validates the descriptor in the given project directory.
func Load(dir string) (*Descriptor, error) {
	path := filepath.Join(dir, DescriptorFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", DescriptorFile, err)
	}
	return Parse(data)
}

// Parse decodes descriptor content and validates the fields the build
// pipeline depends on.
func Parse(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", DescriptorFile, err)
	}
	if err := json.Unmarshal(data, &d.raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", DescriptorFile, err)
	}

	if d.Name == "" {
		return nil, fmt.Errorf("%s is missing the name field", DescriptorFile)
	}
	if _, err := versionField(d.Version); err != nil {
		return nil, fmt.Errorf("%s has an invalid version %q: %w", DescriptorFile, d.Version, err)
	}
	descriptorLog.Printf("Parsed descriptor: name=%s version=%s platform=%s", d.Name, d.Version, d.Platform)
	return &d, nil
}

// Save writes the descriptor back to the given project directory, keeping
// unmodeled fields from the original document.
func (d *Descriptor) Save(dir string) error {
	doc := make(map[string]json.RawMessage, len(d.raw))
	for k, v := range d.raw {
		doc[k] = v
	}
	version, err := json.Marshal(d.Version)
	if err != nil {
		return err
	}
	doc["version"] = version

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", DescriptorFile, err)
	}
	data = append(data, '\n')
	path := filepath.Join(dir, DescriptorFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", DescriptorFile, err)
	}
	descriptorLog.Printf("Saved descriptor with version %s", d.Version)
	return nil
}

func versionField(version string) ([]int, error) {
	if version == "" {
		return nil, fmt.Errorf("version is empty")
	}
	parts := strings.Split(version, ".")
	fields := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("version component %q is not a non-negative integer", p)
		}
		fields = append(fields, n)
	}
	return fields, nil
}

// PlatformMajor returns the major component of the platform version, or 0
// when the platform field is absent or malformed.
func (d *Descriptor) PlatformMajor() int {
	return majorComponent(d.Platform)
}

// ApplicationMajor returns the major component of the application version,
// or 0 when the application field is absent or malformed.
func (d *Descriptor) ApplicationMajor() int {
	return majorComponent(d.Application)
}

func majorComponent(version string) int {
	if version == "" {
		return 0
	}
	major, _, _ := strings.Cut(version, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return 0
	}
	return n
}

// IsStoreEligible reports whether the ID ranges qualify the project for
// marketplace submission: any range starting at 100000 or above.
func IsStoreEligible(ranges []IDRange) bool {
	for _, r := range ranges {
		if r.From >= 100000 {
			return true
		}
	}
	return false
}

var cleanNameRegexp = regexp.MustCompile(`[^a-zA-Z0-9]`)

// CleanName returns the app name with all non-alphanumeric characters
// removed, suitable for artifact filenames.
func (d *Descriptor) CleanName() string {
	return cleanNameRegexp.ReplaceAllString(d.Name, "")
}
