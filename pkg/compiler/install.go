package compiler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lincza/al-build/pkg/actions"
	"github.com/lincza/al-build/pkg/logger"
)

var installLog = logger.New("compiler:install")

// toolPackage is the NuGet package that carries the AL compiler.
const toolPackage = "Microsoft.Dynamics.BusinessCentral.Development.Tools"

// nugetOrgFeed is the public feed the compiler tool is installed from.
const nugetOrgFeed = "https://api.nuget.org/v3/index.json"

func dotnetEnv() []string {
	return append(os.Environ(),
		"DOTNET_CLI_TELEMETRY_OPTOUT=1",
		"DOTNET_SKIP_FIRST_TIME_EXPERIENCE=1",
	)
}

func runDotnet(ctx context.Context, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, "dotnet", args...)
	cmd.Env = dotnetEnv()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// CheckDotnet verifies the .NET SDK is available and returns its version.
func CheckDotnet(ctx context.Context) (string, error) {
	stdout, _, err := runDotnet(ctx, "--version")
	if err != nil {
		return "", fmt.Errorf(".NET SDK not found; install it or use actions/setup-dotnet: %w", err)
	}
	version := strings.TrimSpace(stdout)
	installLog.Printf(".NET SDK version %s", version)
	return version, nil
}

// Install installs or updates the AL compiler as a dotnet global tool and
// makes it reachable for subsequent workflow steps.
func Install(ctx context.Context) error {
	if _, err := CheckDotnet(ctx); err != nil {
		return err
	}

	if _, err := Find(); err == nil {
		installLog.Print("AL compiler already installed")
		return exportToolsPath()
	}

	installLog.Printf("Installing %s", toolPackage)
	_, stderr, err := runDotnet(ctx, "tool", "install", toolPackage,
		"--global", "--add-source", nugetOrgFeed, "--ignore-failed-sources")
	if err != nil {
		lower := strings.ToLower(stderr)
		if strings.Contains(lower, "already installed") || strings.Contains(lower, "conflicts with an existing command") {
			installLog.Print("Tool already present, updating instead")
			if _, stderr, err = runDotnet(ctx, "tool", "update", toolPackage,
				"--global", "--add-source", nugetOrgFeed, "--ignore-failed-sources"); err != nil {
				return fmt.Errorf("failed to update AL compiler: %s", strings.TrimSpace(stderr))
			}
		} else {
			return fmt.Errorf("failed to install AL compiler: %s", strings.TrimSpace(stderr))
		}
	}

	if err := verifyInstall(ctx); err != nil {
		return err
	}
	return exportToolsPath()
}

func verifyInstall(ctx context.Context) error {
	stdout, _, err := runDotnet(ctx, "tool", "list", "--global")
	if err != nil {
		return fmt.Errorf("failed to list dotnet tools: %w", err)
	}
	if !strings.Contains(strings.ToLower(stdout), strings.ToLower(toolPackage)) {
		return fmt.Errorf("AL compiler not present after installation")
	}
	installLog.Print("AL compiler installation verified")
	return nil
}

// exportToolsPath appends the dotnet global tools directory to the runner
// PATH so later steps can invoke the compiler directly.
func exportToolsPath() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	toolsDir := filepath.Join(home, ".dotnet", "tools")
	if !strings.Contains(os.Getenv("PATH"), toolsDir) {
		return actions.AddPath(toolsDir)
	}
	return nil
}
