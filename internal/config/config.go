package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds project-level settings loaded from depgraph.yml,
// tuning the graph build, memo cache, watcher debounce, and coupling
// miner. Every field is optional; a missing config file yields a
// zero-value ProjectConfig and callers apply their own defaults.
type ProjectConfig struct {
	OutputDir   string   `yaml:"outputDir,omitempty"`
	Languages   []string `yaml:"languages,omitempty"`
	ExcludeDirs []string `yaml:"excludeDirs,omitempty"`
	Verbose     bool     `yaml:"verbose,omitempty"`

	MaxFiles         int `yaml:"maxFiles,omitempty"`
	BuildConcurrency int `yaml:"buildConcurrency,omitempty"`
	MemoMaxSize      int `yaml:"memoMaxSize,omitempty"`
	DebounceMillis   int `yaml:"debounceMillis,omitempty"`

	Coupling CouplingConfig `yaml:"coupling,omitempty"`
}

// CouplingConfig mirrors internal/coupling.Config's tunables so they can be
// overridden per project without internal/config importing internal/coupling.
type CouplingConfig struct {
	MaxCommits        int     `yaml:"maxCommits,omitempty"`
	MinSupport        int     `yaml:"minSupport,omitempty"`
	MinConfidence     float64 `yaml:"minConfidence,omitempty"`
	MaxFilesPerCommit int     `yaml:"maxFilesPerCommit,omitempty"`
	CacheTTLSeconds   int     `yaml:"cacheTtlSeconds,omitempty"`
}

// Debounce returns cfg.DebounceMillis as a Duration, or zero if unset (the
// caller applies its own default).
func (c ProjectConfig) Debounce() time.Duration {
	if c.DebounceMillis <= 0 {
		return 0
	}
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// CacheTTL returns the coupling cache TTL as a Duration, or zero if unset.
func (c CouplingConfig) CacheTTL() time.Duration {
	if c.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Load attempts to read depgraph.yml or depgraph.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"depgraph.yml", "depgraph.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
