package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lincza/al-build/pkg/console"
	"github.com/lincza/al-build/pkg/logger"
	"github.com/lincza/al-build/pkg/project"
)

var analyzeLog = logger.New("cli:analyze")

// ProjectSummaryItem represents one row of the analysis summary table
type ProjectSummaryItem struct {
	Property string `json:"property" console:"header:Property"`
	Value    string `json:"value" console:"header:Value"`
}

// NewAnalyzeCommand creates the analyze command
func NewAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the AL project and report its shape",
		Long: `Analyze the project descriptor, source files and build artifacts.

Reports the app identity, the detected Business Central release, the object
ID allocation category, the dependency breakdown and the source object
inventory. Store-eligible projects (ID ranges at 100000+) are flagged for
marketplace submission.

Examples:
  al-build analyze                # Human-readable summary
  al-build analyze --json         # Full analysis as JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			return RunAnalyze(projectDir(cmd), jsonFlag)
		},
	}
	addJSONFlag(cmd)
	return cmd
}

// RunAnalyze performs the project analysis and renders it.
func RunAnalyze(dir string, jsonOutput bool) error {
	analyzeLog.Printf("Analyzing project in %s", dir)
	analysis, err := project.Analyze(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		return err
	}

	if jsonOutput {
		data, err := json.MarshalIndent(analysisReport(analysis), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	d := analysis.Descriptor
	rows := []ProjectSummaryItem{
		{Property: "App", Value: d.Name},
		{Property: "Publisher", Value: d.Publisher},
		{Property: "Version", Value: d.Version},
		{Property: "Release", Value: analysis.ReleaseName},
		{Property: "Category", Value: string(analysis.Kind)},
		{Property: "AL files", Value: fmt.Sprintf("%d", analysis.Source.Files)},
		{Property: "Dependencies", Value: fmt.Sprintf("%d Microsoft, %d third-party",
			len(analysis.Dependencies.Microsoft), len(analysis.Dependencies.ThirdParty))},
		{Property: "Cached symbols", Value: fmt.Sprintf("%d", analysis.Artifacts.SymbolCount)},
	}
	fmt.Print(console.RenderStruct(rows))

	if project.IsStoreEligible(d.IDRanges) {
		fmt.Println(console.FormatInfoMessage("Project is eligible for marketplace submission"))
	}
	for _, name := range analysis.Dependencies.InvalidIDs {
		fmt.Println(console.FormatWarningMessage(fmt.Sprintf("Dependency %s has a non-GUID id", name)))
	}
	return nil
}

// analysisReport is the JSON shape of the analyze output, consumed by
// downstream workflow steps.
func analysisReport(a *project.Analysis) map[string]any {
	d := a.Descriptor
	return map[string]any{
		"name":          d.Name,
		"publisher":     d.Publisher,
		"version":       d.Version,
		"platform":      d.Platform,
		"application":   d.Application,
		"runtime":       d.Runtime,
		"release":       a.ReleaseName,
		"category":      a.Kind,
		"isAppSource":   project.IsStoreEligible(d.IDRanges),
		"idRanges":      d.IDRanges,
		"dependencies":  a.Dependencies,
		"source":        a.Source,
		"artifacts":     a.Artifacts,
		"platformMajor": d.PlatformMajor(),
	}
}
