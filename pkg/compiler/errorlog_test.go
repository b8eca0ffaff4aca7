//go:build !integration

package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lincza/al-build/pkg/testutil"
)

const sampleErrorLog = `{
  "issues": [
    {
      "ruleId": "AL0118",
      "message": "The name 'Custmer' does not exist in the current context",
      "locations": [
        {
          "analysisTarget": {
            "uri": "Tables/Shipment.al",
            "region": {"startLine": 42, "startColumn": 18}
          }
        }
      ],
      "properties": {"severity": "error"}
    },
    {
      "ruleId": "AL0604",
      "message": "Use of implicit with is deprecated",
      "locations": [],
      "properties": {"severity": "warning"}
    }
  ]
}`

func TestReadErrorLog(t *testing.T) {
	dir := testutil.TempDir(t, "errorlog-*")
	path := filepath.Join(dir, ErrorLogFile)
	require.NoError(t, os.WriteFile(path, []byte(sampleErrorLog), 0o644))

	diagnostics := readErrorLog(path)
	require.Len(t, diagnostics, 2)

	assert.Equal(t, Diagnostic{
		File:     "Tables/Shipment.al",
		Line:     42,
		Column:   18,
		Severity: "error",
		Code:     "AL0118",
		Message:  "The name 'Custmer' does not exist in the current context",
	}, diagnostics[0])

	assert.Equal(t, "warning", diagnostics[1].Severity)
	assert.Equal(t, "AL0604", diagnostics[1].Code)
	assert.Empty(t, diagnostics[1].File)
}

func TestReadErrorLogMissingFile(t *testing.T) {
	assert.Nil(t, readErrorLog(filepath.Join(t.TempDir(), "absent.json")))
}

func TestReadErrorLogUnparseable(t *testing.T) {
	dir := testutil.TempDir(t, "errorlog-*")
	path := filepath.Join(dir, ErrorLogFile)
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	assert.Nil(t, readErrorLog(path))
}

func TestReadErrorLogDefaultSeverity(t *testing.T) {
	dir := testutil.TempDir(t, "errorlog-*")
	path := filepath.Join(dir, ErrorLogFile)
	content := `{"issues": [{"ruleId": "AL0001", "message": "boom", "locations": [], "properties": {}}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	diagnostics := readErrorLog(path)
	require.Len(t, diagnostics, 1)
	assert.Equal(t, "error", diagnostics[0].Severity)
}
