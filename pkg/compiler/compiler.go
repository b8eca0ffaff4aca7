// Package compiler locates and drives the external AL compiler. The
// compiler itself is an external collaborator; this package only builds
// its argument list, runs it, and interprets its outputs.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/lincza/al-build/pkg/logger"
)

var compilerLog = logger.New("compiler:compiler")

// ErrorLogFile is the structured diagnostics file the compiler writes.
const ErrorLogFile = "errorLog.json"

// Find locates the AL compiler executable: PATH first, then the dotnet
// global tools directory.
func Find() (string, error) {
	for _, name := range []string{"AL", "alc"} {
		if path, err := exec.LookPath(name); err == nil {
			compilerLog.Printf("Found AL compiler on PATH: %s", path)
			return path, nil
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		for _, name := range []string{"AL", "alc"} {
			path := filepath.Join(home, ".dotnet", "tools", name)
			if _, err := os.Stat(path); err == nil {
				compilerLog.Printf("Found AL compiler in dotnet tools: %s", path)
				return path, nil
			}
		}
	}

	return "", fmt.Errorf("AL compiler not found; run 'al-build setup' to install it")
}

// Invocation describes one compile of an AL project.
type Invocation struct {
	ProjectDir  string
	OutputFile  string
	SymbolCache string
	Target      string
	RulesetPath string // optional
	// AssemblyProbingPaths are extra directories for .NET assembly
	// resolution of OnPrem targets. Optional.
	AssemblyProbingPaths []string
}

// Result is the outcome of a compile.
type Result struct {
	Success      bool
	ArtifactPath string
	Stderr       string
	Diagnostics  []Diagnostic
}

// args builds the compiler command line.
func (inv Invocation) args(errorLogPath string) []string {
	args := []string{
		"compile",
		"/project:" + inv.ProjectDir,
		"/out:" + inv.OutputFile,
		"/packagecachepath:" + inv.SymbolCache,
		"/target:" + inv.Target,
		"/loglevel:Normal",
		"/errorlog:" + errorLogPath,
	}
	if inv.RulesetPath != "" {
		args = append(args, "/ruleset:"+inv.RulesetPath)
	}
	for _, p := range inv.AssemblyProbingPaths {
		args = append(args, "/assemblyprobingpaths:"+p)
	}
	return args
}

// Run executes the compiler and interprets its exit status, output file,
// and structured error log. A non-zero exit or a missing artifact is a
// failed compile, not an error; errors are reserved for being unable to
// run the compiler at all.
func Run(ctx context.Context, inv Invocation) (Result, error) {
	compilerPath, err := Find()
	if err != nil {
		return Result{}, err
	}

	errorLogPath := filepath.Join(inv.ProjectDir, ErrorLogFile)
	// Stale diagnostics from a previous run must not leak into this one.
	if err := os.Remove(errorLogPath); err != nil && !os.IsNotExist(err) {
		return Result{}, fmt.Errorf("failed to remove stale %s: %w", ErrorLogFile, err)
	}

	args := inv.args(errorLogPath)
	compilerLog.Printf("Running %s %v", compilerPath, args)

	cmd := exec.CommandContext(ctx, compilerPath, args...)
	cmd.Dir = inv.ProjectDir
	cmd.Env = append(os.Environ(),
		"DOTNET_CLI_TELEMETRY_OPTOUT=1",
		"DOTNET_SKIP_FIRST_TIME_EXPERIENCE=1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	result := Result{Stderr: stderr.String()}
	result.Diagnostics = readErrorLog(errorLogPath)

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return Result{}, fmt.Errorf("failed to run AL compiler: %w", runErr)
		}
		compilerLog.Printf("Compiler exited with %d", exitErr.ExitCode())
		return result, nil
	}

	artifact := filepath.Join(inv.ProjectDir, inv.OutputFile)
	if _, err := os.Stat(artifact); err != nil {
		compilerLog.Print("Compiler reported success but produced no artifact")
		return result, nil
	}

	result.Success = true
	result.ArtifactPath = artifact
	return result, nil
}
