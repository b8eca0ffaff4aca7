package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lincza/al-build/pkg/logger"
)

var substitutionLog = logger.New("project:substitution")

// VersionTarget describes the per-version build inputs for one normalized
// Business Central version tag.
type VersionTarget struct {
	Tag          string // normalized tag such as "bc22" or "bccloud"
	ManifestFile string // version-specific descriptor filename
	SymbolDir    string // subdirectory for cached symbols of this version
}

// versionTargets maps every supported tag to its manifest filename and
// symbol cache subdirectory. A single table replaces per-version branching.
var versionTargets = map[string]VersionTarget{
	"bc17":    {Tag: "bc17", ManifestFile: "bc17_app.json", SymbolDir: "bc17"},
	"bc18":    {Tag: "bc18", ManifestFile: "bc18_app.json", SymbolDir: "bc18"},
	"bc19":    {Tag: "bc19", ManifestFile: "bc19_app.json", SymbolDir: "bc19"},
	"bc20":    {Tag: "bc20", ManifestFile: "bc20_app.json", SymbolDir: "bc20"},
	"bc21":    {Tag: "bc21", ManifestFile: "bc21_app.json", SymbolDir: "bc21"},
	"bc22":    {Tag: "bc22", ManifestFile: "bc22_app.json", SymbolDir: "bc22"},
	"bc23":    {Tag: "bc23", ManifestFile: "bc23_app.json", SymbolDir: "bc23"},
	"bc24":    {Tag: "bc24", ManifestFile: "bc24_app.json", SymbolDir: "bc24"},
	"bc25":    {Tag: "bc25", ManifestFile: "bc25_app.json", SymbolDir: "bc25"},
	"bc26":    {Tag: "bc26", ManifestFile: "bc26_app.json", SymbolDir: "bc26"},
	"bccloud": {Tag: "bccloud", ManifestFile: "cloud_app.json", SymbolDir: "cloud"},
}

// ResolveVersionTag normalizes a requested build type into a version tag.
// "auto" derives the tag from the descriptor's application major version;
// majors outside the supported range map to "bccloud". Explicit tags are
// validated against the target table.
func ResolveVersionTag(d *Descriptor, requested string) (VersionTarget, error) {
	tag := requested
	if requested == "" || requested == "auto" {
		tag = "bccloud"
		if major := d.ApplicationMajor(); major != 0 {
			if candidate, ok := versionTargets["bc"+strconv.Itoa(major)]; ok {
				tag = candidate.Tag
			}
		}
		substitutionLog.Printf("Auto-detected version tag %s from application %q", tag, d.Application)
	}
	target, ok := versionTargets[tag]
	if !ok {
		return VersionTarget{}, fmt.Errorf("unknown build type %q", requested)
	}
	return target, nil
}

// Active is the descriptor selected for the current build together with the
// restore token needed to reinstate the original manifest afterwards.
type Active struct {
	Descriptor *Descriptor
	Target     VersionTarget
	Swapped    bool // true when a version-specific manifest replaced app.json

	dir      string
	original []byte // pre-swap app.json content, the restore token
	restored bool
}

// Select resolves the active descriptor for the requested build type.
// When a version-specific manifest exists for the resolved tag it fully
// replaces app.json for the duration of the build. The returned Active
// always carries the original manifest bytes; callers must defer Restore
// so the swap is undone on every exit path.
func Select(dir, requestedBuildType string) (*Active, error) {
	base, err := Load(dir)
	if err != nil {
		return nil, err
	}
	target, err := ResolveVersionTag(base, requestedBuildType)
	if err != nil {
		return nil, err
	}

	original, err := os.ReadFile(filepath.Join(dir, DescriptorFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", DescriptorFile, err)
	}

	active := &Active{Descriptor: base, Target: target, dir: dir, original: original}

	versionPath := filepath.Join(dir, target.ManifestFile)
	data, err := os.ReadFile(versionPath)
	if os.IsNotExist(err) {
		substitutionLog.Printf("No version-specific manifest %s, using base descriptor", target.ManifestFile)
		return active, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", target.ManifestFile, err)
	}

	variant, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid version-specific manifest %s: %w", target.ManifestFile, err)
	}
	if err := os.WriteFile(filepath.Join(dir, DescriptorFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to activate %s: %w", target.ManifestFile, err)
	}

	substitutionLog.Printf("Swapped in version-specific manifest %s", target.ManifestFile)
	active.Descriptor = variant
	active.Swapped = true
	return active, nil
}

// SetVersion overwrites the active descriptor's version field on disk.
// The original manifest is untouched; Restore reinstates it.
func (a *Active) SetVersion(version string) error {
	a.Descriptor.Version = version
	return a.Descriptor.Save(a.dir)
}

// Restore writes the original manifest back. It is safe to call more than
// once; only the first call performs the write. Restore must run on every
// exit path, including compiler failure.
func (a *Active) Restore() error {
	if a.restored {
		return nil
	}
	a.restored = true
	if err := os.WriteFile(filepath.Join(a.dir, DescriptorFile), a.original, 0o644); err != nil {
		return fmt.Errorf("failed to restore %s: %w", DescriptorFile, err)
	}
	substitutionLog.Print("Restored original manifest")
	return nil
}
