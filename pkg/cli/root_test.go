//go:build !integration

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lincza/al-build/pkg/project"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand("1.2.3")
	assert.Equal(t, "al-build", cmd.Use)
	assert.Equal(t, "1.2.3", cmd.Version)

	expected := []string{"setup", "analyze", "symbols", "compile", "run", "sign", "publish"}
	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, name := range expected {
		assert.Contains(t, names, name)
	}

	dir, err := cmd.PersistentFlags().GetString("dir")
	require.NoError(t, err)
	assert.Equal(t, ".", dir)
}

func TestDependencyRefs(t *testing.T) {
	d := &project.Descriptor{
		Dependencies: []project.Dependency{
			{ID: "63ca2fa4-4f03-4f2b-a480-172fef340d3f", Name: "Warehouse Core", Publisher: "Linc Communications", Version: "1.0.0.0"},
			{Name: "Shipping", Publisher: "Linc Communications"},
		},
	}

	refs := dependencyRefs(d)
	require.Len(t, refs, 2)
	assert.Equal(t, "63ca2fa4-4f03-4f2b-a480-172fef340d3f", refs[0].ID)
	assert.Equal(t, "Warehouse Core", refs[0].Name)
	assert.Equal(t, "Linc Communications", refs[0].Publisher)
	assert.Empty(t, refs[1].ID)
}

func TestDependencyRefsEmpty(t *testing.T) {
	assert.Empty(t, dependencyRefs(&project.Descriptor{}))
}
