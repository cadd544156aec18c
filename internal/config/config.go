// Package config loads batch job files.
//
// A job file is TOML:
//
//	cache = ".unexport.db"
//	workers = 4
//	parallel = true
//	policy_dir = "policies"
//
//	[[target]]
//	path = "app/routes/index.tsx"
//	out = "build/routes/index.client.tsx"
//	remove = ["loader", "action"]
//	policy = "client.risor"
//
// Relative paths are resolved against the job file's directory.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Job is a parsed job file.
type Job struct {
	Cache           string
	Workers         int
	Parallel        bool
	PolicyDir       string
	CollapseImports bool
	Targets         []Target
}

// Target is one module to transform.
type Target struct {
	Path     string
	Out      string
	Language string
	Remove   []string
	Policy   string
}

type fileConfig struct {
	Cache           string         `toml:"cache"`
	Workers         int            `toml:"workers"`
	Parallel        bool           `toml:"parallel"`
	PolicyDir       string         `toml:"policy_dir"`
	CollapseImports bool           `toml:"collapse_imports"`
	Targets         []targetConfig `toml:"target"`
}

type targetConfig struct {
	Path     string   `toml:"path"`
	Out      string   `toml:"out"`
	Language string   `toml:"language"`
	Remove   []string `toml:"remove"`
	Policy   string   `toml:"policy"`
}

// Default returns the settings used for keys a job file leaves out.
func Default() Job {
	return Job{Parallel: true}
}

// Load reads and validates the job file at path.
func Load(path string) (Job, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Job{}, fmt.Errorf("load job: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Job{}, fmt.Errorf("load job: unknown key %q", undecoded[0].String())
	}

	base := filepath.Dir(path)

	if meta.IsDefined("cache") {
		cfg.Cache = resolve(base, strings.TrimSpace(raw.Cache))
	}
	if meta.IsDefined("workers") {
		if raw.Workers < 0 {
			return Job{}, fmt.Errorf("load job: workers must not be negative, got %d", raw.Workers)
		}
		cfg.Workers = raw.Workers
	}
	if meta.IsDefined("parallel") {
		cfg.Parallel = raw.Parallel
	}
	if meta.IsDefined("policy_dir") {
		cfg.PolicyDir = resolve(base, strings.TrimSpace(raw.PolicyDir))
	}
	if meta.IsDefined("collapse_imports") {
		cfg.CollapseImports = raw.CollapseImports
	}

	for i, t := range raw.Targets {
		target, err := normalizeTarget(base, t)
		if err != nil {
			return Job{}, fmt.Errorf("load job: target %d: %w", i+1, err)
		}
		cfg.Targets = append(cfg.Targets, target)
	}
	if len(cfg.Targets) == 0 {
		return Job{}, errors.New("load job: no [[target]] entries")
	}
	return cfg, nil
}

func normalizeTarget(base string, t targetConfig) (Target, error) {
	path := strings.TrimSpace(t.Path)
	if path == "" {
		return Target{}, errors.New("path is required")
	}
	if len(t.Remove) == 0 && strings.TrimSpace(t.Policy) == "" {
		return Target{}, fmt.Errorf("%s: one of remove or policy is required", path)
	}
	return Target{
		Path:     resolve(base, path),
		Out:      resolve(base, strings.TrimSpace(t.Out)),
		Language: strings.TrimSpace(t.Language),
		Remove:   normalizeNames(t.Remove),
		Policy:   strings.TrimSpace(t.Policy),
	}, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func normalizeNames(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, name := range in {
		v := strings.TrimSpace(name)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
