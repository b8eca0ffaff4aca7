// Package testutil provides shared helpers for package tests.
package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

var (
	runDirOnce sync.Once
	runDir     string
)

// GetTestRunDir returns a directory shared by all tests in a single run.
// It is created once under the system temp directory and reused so test
// artifacts from one invocation stay together.
func GetTestRunDir() string {
	runDirOnce.Do(func() {
		base := filepath.Join(os.TempDir(), "al-build", "test-runs")
		if err := os.MkdirAll(base, 0o755); err != nil {
			runDir = os.TempDir()
			return
		}
		dir, err := os.MkdirTemp(base, "run-*")
		if err != nil {
			runDir = base
			return
		}
		runDir = dir
	})
	return runDir
}

// TempDir creates a temporary directory under the test run directory using
// the given pattern. The directory is removed when the test completes.
func TempDir(t *testing.T, pattern string) string {
	t.Helper()
	dir, err := os.MkdirTemp(GetTestRunDir(), pattern)
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}
