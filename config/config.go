// Package config loads a project's loam.toml build configuration, grounded
// on the teacher's mods.LoadModule (github.com/pelletier/go-toml).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"

	"loam/common"
	"loam/report"
)

// tomlFile is loam.toml's on-disk shape.
type tomlFile struct {
	Build *tomlBuild `toml:"build"`
}

type tomlBuild struct {
	Version         string  `toml:"loam-version"`
	Backend         string  `toml:"backend"`
	BoundaryDepth   int     `toml:"boundary-depth"`
	RetainCache     bool    `toml:"retain-cache"`
	CacheSize       int     `toml:"cache-size"`
	DefragThreshold float64 `toml:"defrag-threshold"`
}

// Config is a project's resolved build configuration: the default lowering
// backend, the grid boundary depth (spec.md's n_bd) new Grid relations use
// when a program doesn't override it, whether the Bran/Germ caches (spec.md
// §9) persist across CLI invocations, their capacity, and the delete
// defragmentation threshold override (spec.md §5's "< 0.5 * concrete" rule).
type Config struct {
	Backend         string
	BoundaryDepth   uint64
	RetainCache     bool
	CacheSize       int
	DefragThreshold float64
}

// defaultCacheSize is large enough that a real program never specializes
// this many distinct (kernel, domain, backend) triples in one process
// lifetime; the Bran/helper LRUs are a capacity safety net, not a designed
// eviction policy (spec.md §3's Bran "retained process-lifetime"
// invariant), so the default keeps them effectively unbounded rather than
// evicting in ordinary use.
const defaultCacheSize = 1 << 20

// Default returns the configuration used when no loam.toml is present.
func Default() *Config {
	return &Config{
		Backend:         "cpu",
		BoundaryDepth:   1,
		RetainCache:     false,
		CacheSize:       defaultCacheSize,
		DefragThreshold: 0.5,
	}
}

// Load reads loam.toml from dir, falling back to Default if the file does
// not exist. A malformed file is a fatal build-configuration error, not a
// compile error: it never reaches package report's CompileError kinds.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, common.ConfigFileName)
	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	} else if err != nil {
		return nil, err
	}

	tf := &tomlFile{}
	if err := toml.Unmarshal(buf, tf); err != nil {
		return nil, fmt.Errorf("malformed %s: %w", common.ConfigFileName, err)
	}

	cfg := Default()
	if tf.Build == nil {
		return cfg, nil
	}
	b := tf.Build
	if b.Backend != "" {
		cfg.Backend = b.Backend
	}
	if b.BoundaryDepth > 0 {
		cfg.BoundaryDepth = uint64(b.BoundaryDepth)
	}
	cfg.RetainCache = b.RetainCache
	if b.CacheSize > 0 {
		cfg.CacheSize = b.CacheSize
	}
	if b.DefragThreshold > 0 {
		cfg.DefragThreshold = b.DefragThreshold
	}
	if b.Version != "" && b.Version != common.LoamVersion {
		report.ReportWarning(nil, "%s declares loam-version %s, this build is %s", common.ConfigFileName, b.Version, common.LoamVersion)
	}
	return cfg, nil
}
