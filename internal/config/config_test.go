package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingConfigReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Project.Root)
	assert.Equal(t, filepath.Base(dir), cfg.Project.Name)
	assert.Equal(t, 3, cfg.Index.ContextLines)
	assert.Contains(t, cfg.Index.Exclude, "**/node_modules/**")
}

func TestLoadAppliesKDLOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".cog"), 0o755))
	content := `
project {
    name "my-service"
}
index {
    exclude "**/fixtures/**" "**/generated/**"
    context_lines 5
}
mcp {
    brain_url "http://localhost:9090"
    debug_log true
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cog", ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "my-service", cfg.Project.Name)
	assert.Equal(t, 5, cfg.Index.ContextLines)
	assert.Contains(t, cfg.Index.Exclude, "**/fixtures/**")
	assert.Contains(t, cfg.Index.Exclude, "**/generated/**")
	assert.Equal(t, "http://localhost:9090", cfg.MCP.BrainURL)
	assert.True(t, cfg.MCP.DebugLog)
}

func TestLoadResolvesRelativeProjectRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".cog"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	content := `
project {
    root "sub"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cog", ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sub"), cfg.Project.Root)
}

func TestLoadDeduplicatesExclude(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".cog"), 0o755))
	content := `
index {
    exclude "**/node_modules/**" "**/node_modules/**"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cog", ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	count := 0
	for _, p := range cfg.Index.Exclude {
		if p == "**/node_modules/**" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
