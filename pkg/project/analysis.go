package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/lincza/al-build/pkg/logger"
)

var analysisLog = logger.New("project:analysis")

// AppKind categorizes a project by its object ID allocation.
type AppKind string

const (
	AppKindStore    AppKind = "AppSource"  // ranges at 100000+
	AppKindPTE      AppKind = "Per-Tenant" // ranges at 50000..99999
	AppKindCustom   AppKind = "Custom"     // ranges starting at 1+
	AppKindInternal AppKind = "Internal"   // anything else
)

// DependencyAnalysis splits the dependency list into Microsoft-provided and
// third-party entries and flags the standard Microsoft apps.
type DependencyAnalysis struct {
	Microsoft  []Dependency
	ThirdParty []Dependency
	HasBase    bool
	HasSystem  bool
	HasApp     bool
	InvalidIDs []string // dependency names whose id is not a GUID
}

// SourceAnalysis summarizes the AL source files in the project.
type SourceAnalysis struct {
	Files             int
	ObjectTypes       map[string]int
	LargestFile       string
	LargestFileSize   int64
	HasTests          bool
	HasPermissionSets bool
}

// ArtifactAnalysis reports pre-existing build inputs and outputs.
type ArtifactAnalysis struct {
	RulesetPath string
	SymbolCount int
	AppFiles    int
}

// Analysis is the complete project analysis.
type Analysis struct {
	Descriptor   *Descriptor
	Kind         AppKind
	ReleaseName  string
	Dependencies DependencyAnalysis
	Source       SourceAnalysis
	Artifacts    ArtifactAnalysis
}

// releaseNames maps Business Central major versions to their marketing
// release names.
var releaseNames = map[int]string{
	14: "BC 14 (2019 Release Wave 1)",
	15: "BC 15 (2019 Release Wave 2)",
	16: "BC 16 (2020 Release Wave 1)",
	17: "BC 17 (2020 Release Wave 2)",
	18: "BC 18 (2021 Release Wave 1)",
	19: "BC 19 (2021 Release Wave 2)",
	20: "BC 20 (2022 Release Wave 1)",
	21: "BC 21 (2022 Release Wave 2)",
	22: "BC 22 (2023 Release Wave 1)",
	23: "BC 23 (2023 Release Wave 2)",
	24: "BC 24 (2024 Release Wave 1)",
	25: "BC 25 (2024 Release Wave 2)",
	26: "BC 26 (2025 Release Wave 1)",
}

// ReleaseName returns the marketing name for a Business Central major
// version, falling back to a generic label for unknown majors.
func ReleaseName(major int) string {
	if name, ok := releaseNames[major]; ok {
		return name
	}
	return fmt.Sprintf("BC %d", major)
}

// ClassifyIDRanges picks the strongest category any range qualifies for.
func ClassifyIDRanges(ranges []IDRange) AppKind {
	kind := AppKindInternal
	for _, r := range ranges {
		switch {
		case r.From >= 100000:
			return AppKindStore
		case r.From >= 50000:
			kind = AppKindPTE
		case r.From >= 1 && kind == AppKindInternal:
			kind = AppKindCustom
		}
	}
	return kind
}

// AnalyzeDependencies splits and validates the dependency list.
func AnalyzeDependencies(deps []Dependency) DependencyAnalysis {
	var a DependencyAnalysis
	for _, dep := range deps {
		if strings.EqualFold(dep.Publisher, "Microsoft") {
			a.Microsoft = append(a.Microsoft, dep)
			switch strings.ToLower(dep.Name) {
			case "base application":
				a.HasBase = true
			case "system application":
				a.HasSystem = true
			case "application":
				a.HasApp = true
			}
		} else {
			a.ThirdParty = append(a.ThirdParty, dep)
		}
		if dep.ID != "" {
			if _, err := uuid.Parse(dep.ID); err != nil {
				a.InvalidIDs = append(a.InvalidIDs, dep.Name)
			}
		}
	}
	return a
}

// alObjectRegexp matches AL object declarations at the start of a line,
// covering both numbered and quoted-name forms.
var alObjectRegexp = regexp.MustCompile(`(?im)^\s*(table|page|report|codeunit|query|xmlport|profile|pagecustomization|reportextension|tableextension|pageextension|enum|enumextension|interface|controladdin|permissionset|entitlement)\s+(?:\d+|")`)

// ScanSource walks the project directory for .al files and summarizes the
// object types they declare. Unreadable files are skipped with a warning.
func ScanSource(dir string) (SourceAnalysis, error) {
	analysis := SourceAnalysis{ObjectTypes: map[string]int{}}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Symbol caches contain compiled apps, not project source.
			if d.Name() == ".symbols" || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".al") {
			return nil
		}

		analysis.Files++
		info, err := d.Info()
		if err == nil && info.Size() > analysis.LargestFileSize {
			analysis.LargestFileSize = info.Size()
			if rel, relErr := filepath.Rel(dir, path); relErr == nil {
				analysis.LargestFile = rel
			}
		}

		content, err := os.ReadFile(path)
		if err != nil {
			analysisLog.Printf("Skipping unreadable source file %s: %v", path, err)
			return nil
		}

		if m := alObjectRegexp.FindSubmatch(content); m != nil {
			objectType := strings.ToLower(string(m[1]))
			analysis.ObjectTypes[objectType]++
			if objectType == "permissionset" {
				analysis.HasPermissionSets = true
			}
		}
		upper := strings.ToUpper(string(content))
		if strings.Contains(strings.ToLower(d.Name()), "test") || strings.Contains(upper, "[TEST]") {
			analysis.HasTests = true
		}
		return nil
	})
	if err != nil {
		return analysis, fmt.Errorf("failed to scan source files: %w", err)
	}

	analysisLog.Printf("Scanned %d AL files, %d object types", analysis.Files, len(analysis.ObjectTypes))
	return analysis, nil
}

// ScanArtifacts checks for pre-existing build configuration and outputs.
func ScanArtifacts(dir string) ArtifactAnalysis {
	var a ArtifactAnalysis
	for _, name := range []string{"LincRuleSet.json", "ruleset.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			a.RulesetPath = name
			break
		}
	}
	if apps, err := filepath.Glob(filepath.Join(dir, ".symbols", "*.app")); err == nil {
		a.SymbolCount = len(apps)
	}
	if apps, err := filepath.Glob(filepath.Join(dir, "*.app")); err == nil {
		a.AppFiles = len(apps)
	}
	return a
}

// Analyze performs the full project analysis for a directory.
func Analyze(dir string) (*Analysis, error) {
	descriptor, err := Load(dir)
	if err != nil {
		return nil, err
	}
	source, err := ScanSource(dir)
	if err != nil {
		return nil, err
	}
	return &Analysis{
		Descriptor:   descriptor,
		Kind:         ClassifyIDRanges(descriptor.IDRanges),
		ReleaseName:  ReleaseName(descriptor.ApplicationMajor()),
		Dependencies: AnalyzeDependencies(descriptor.Dependencies),
		Source:       source,
		Artifacts:    ScanArtifacts(dir),
	}, nil
}
