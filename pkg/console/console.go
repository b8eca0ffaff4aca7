// Package console provides terminal output formatting for user-facing
// messages: status lines, compiler diagnostics, and simple tables.
//
// All formatting is TTY-aware; when stderr is not a terminal (CI logs,
// redirected output) the styles degrade to plain text.
package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"os"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func isTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}

func render(style lipgloss.Style, s string) string {
	if !isTerminal() {
		return s
	}
	return style.Render(s)
}

// FormatSuccessMessage formats a message indicating a successful operation.
func FormatSuccessMessage(msg string) string {
	return render(successStyle, "✓ "+msg)
}

// FormatInfoMessage formats an informational message.
func FormatInfoMessage(msg string) string {
	return render(infoStyle, "ℹ "+msg)
}

// FormatWarningMessage formats a non-fatal warning.
func FormatWarningMessage(msg string) string {
	return render(warningStyle, "⚠ "+msg)
}

// FormatErrorMessage formats a fatal error message.
func FormatErrorMessage(msg string) string {
	return render(errorStyle, "✗ "+msg)
}

// FormatVerboseMessage formats low-importance detail output.
func FormatVerboseMessage(msg string) string {
	return render(dimStyle, msg)
}

// FormatErrorMessageWithSuggestions formats an error followed by a bulleted
// list of suggested next steps.
func FormatErrorMessageWithSuggestions(msg string, suggestions []string) string {
	var sb strings.Builder
	sb.WriteString(FormatErrorMessage(msg))
	if len(suggestions) > 0 {
		sb.WriteString("\n\nSuggestions:\n")
		for _, s := range suggestions {
			sb.WriteString("  • " + s + "\n")
		}
	}
	return sb.String()
}

// ErrorPosition identifies the source location of a compiler diagnostic.
type ErrorPosition struct {
	File   string
	Line   int
	Column int
}

// CompilerError is a single diagnostic reported by the AL compiler.
type CompilerError struct {
	Position ErrorPosition
	Type     string // "error" or "warning"
	Code     string // AL diagnostic code such as AL0118
	Message  string
	Context  []string // source lines surrounding the diagnostic
}

// FormatError renders a compiler diagnostic in the familiar
// file:line:column: severity: message shape, with optional source context.
func FormatError(e CompilerError) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s:%d:%d: ", e.Position.File, e.Position.Line, e.Position.Column))
	severity := e.Type
	if severity == "" {
		severity = "error"
	}
	style := errorStyle
	if severity == "warning" {
		style = warningStyle
	}
	if e.Code != "" {
		sb.WriteString(render(style, severity+" "+e.Code+":"))
	} else {
		sb.WriteString(render(style, severity+":"))
	}
	sb.WriteString(" " + e.Message + "\n")

	if len(e.Context) > 0 {
		// Context lines are numbered relative to the diagnostic line so the
		// reported line sits in the middle of the excerpt.
		start := e.Position.Line - len(e.Context)/2
		if start < 1 {
			start = 1
		}
		for i, line := range e.Context {
			sb.WriteString(render(dimStyle, fmt.Sprintf("  %d | ", start+i)))
			sb.WriteString(line + "\n")
		}
	}

	return sb.String()
}
