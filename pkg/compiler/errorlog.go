package compiler

import (
	"encoding/json"
	"os"

	"github.com/lincza/al-build/pkg/logger"
)

var errorLogLog = logger.New("compiler:errorlog")

// Diagnostic is one entry of the compiler's structured error log.
type Diagnostic struct {
	File     string
	Line     int
	Column   int
	Severity string // "error" or "warning"
	Code     string // AL diagnostic code, e.g. AL0118
	Message  string
}

// The compiler writes a SARIF-shaped error log. Only the fields rendered
// to the user are modeled here.
type sarifLog struct {
	Issues []struct {
		RuleID    string `json:"ruleId"`
		Message   string `json:"message"`
		Locations []struct {
			AnalysisTarget struct {
				URI    string `json:"uri"`
				Region struct {
					StartLine   int `json:"startLine"`
					StartColumn int `json:"startColumn"`
				} `json:"region"`
			} `json:"analysisTarget"`
		} `json:"locations"`
		Properties struct {
			Severity string `json:"severity"`
		} `json:"properties"`
	} `json:"issues"`
}

// readErrorLog parses the structured error log, returning nil when the
// file is absent or unparseable; the raw stderr is still available to the
// caller in that case.
func readErrorLog(path string) []Diagnostic {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var log sarifLog
	if err := json.Unmarshal(data, &log); err != nil {
		errorLogLog.Printf("Error log at %s is not parseable: %v", path, err)
		return nil
	}

	diagnostics := make([]Diagnostic, 0, len(log.Issues))
	for _, issue := range log.Issues {
		d := Diagnostic{
			Code:     issue.RuleID,
			Message:  issue.Message,
			Severity: issue.Properties.Severity,
		}
		if d.Severity == "" {
			d.Severity = "error"
		}
		if len(issue.Locations) > 0 {
			target := issue.Locations[0].AnalysisTarget
			d.File = target.URI
			d.Line = target.Region.StartLine
			d.Column = target.Region.StartColumn
		}
		diagnostics = append(diagnostics, d)
	}
	errorLogLog.Printf("Parsed %d diagnostics from %s", len(diagnostics), path)
	return diagnostics
}
