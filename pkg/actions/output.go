package actions

import (
	"fmt"
	"os"

	"github.com/lincza/al-build/pkg/logger"
)

var outputLog = logger.New("actions:output")

// SetOutput appends a key=value pair to the file named by GITHUB_OUTPUT so
// later workflow steps can consume it. Outside of GitHub Actions this is a
// no-op.
func SetOutput(key, value string) error {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		outputLog.Printf("GITHUB_OUTPUT not set, skipping output %s", key)
		return nil
	}
	return appendLine(path, fmt.Sprintf("%s=%s", key, value))
}

// AddPath appends a directory to the file named by GITHUB_PATH so it is on
// PATH for subsequent workflow steps. Outside of GitHub Actions this is a
// no-op.
func AddPath(dir string) error {
	path := os.Getenv("GITHUB_PATH")
	if path == "" {
		outputLog.Printf("GITHUB_PATH not set, skipping path entry %s", dir)
		return nil
	}
	return appendLine(path, dir)
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, line); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	outputLog.Printf("Wrote line to %s: %s", path, line)
	return nil
}
