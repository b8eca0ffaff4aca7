//go:build !integration

package console

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size     int64
		expected string
	}{
		{512, "512 B"},
		{0, "0 B"},
		{2048, "2.0 KB"},
		{1536, "1.5 KB"},
		{3 * 1024 * 1024, "3.00 MB"},
		{1572864, "1.50 MB"},
	}
	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.expected {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, got, tt.expected)
		}
	}
}

func TestRenderStruct(t *testing.T) {
	type row struct {
		Property string   `console:"header:Property"`
		Value    string   `console:"header:Value"`
		Tags     []string `console:"header:Tags"`
		Internal string   `console:"-"`
	}
	out := RenderStruct([]row{
		{Property: "Name", Value: "Warehouse Core", Tags: []string{"app", "cloud"}, Internal: "hidden"},
		{Property: "Version", Value: "22.25.1992.630", Internal: "hidden"},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Property")
	assert.Contains(t, lines[0], "Value")
	assert.Contains(t, lines[0], "Tags")
	assert.Contains(t, lines[1], "Warehouse Core")
	assert.Contains(t, lines[1], "app, cloud")
	assert.Contains(t, lines[2], "22.25.1992.630")
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "Internal")
}

func TestRenderStructAlignsColumns(t *testing.T) {
	type row struct {
		Name  string `console:"header:Name"`
		Count int    `console:"header:Count"`
	}
	out := RenderStruct([]row{
		{Name: "a", Count: 1},
		{Name: "much longer name", Count: 22},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 3)
	// The Count column starts at the same offset in every line.
	offset := strings.Index(lines[0], "Count")
	assert.Equal(t, offset, strings.Index(lines[1], "1"))
	assert.Equal(t, offset, strings.Index(lines[2], "22"))
}

func TestRenderStructUntaggedHeader(t *testing.T) {
	type row struct {
		Publisher string
	}
	out := RenderStruct([]row{{Publisher: "Linc Communications"}})
	assert.Contains(t, out, "Publisher")
}

func TestRenderStructEmpty(t *testing.T) {
	assert.Empty(t, RenderStruct([]struct{ A string }{}))
	assert.Empty(t, RenderStruct("not a slice"))
}
