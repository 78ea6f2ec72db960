package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFallsBackToDefaultWhenFileMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	body := `
[build]
backend = "gpu"
boundary-depth = 2
retain-cache = true
cache-size = 512
defrag-threshold = 0.4
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loam.toml"), []byte(body), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "gpu", cfg.Backend)
	assert.Equal(t, uint64(2), cfg.BoundaryDepth)
	assert.True(t, cfg.RetainCache)
	assert.Equal(t, 512, cfg.CacheSize)
	assert.Equal(t, 0.4, cfg.DefragThreshold)
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "loam.toml"), []byte("not valid toml [["), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}
