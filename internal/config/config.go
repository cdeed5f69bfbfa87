// Package config loads optdbg.toml and applies .env and OPTDBG_* overrides.
//
// Precedence, lowest first: Default(), the nearest optdbg.toml, a .env file
// next to it (or in the working directory), the process environment. The
// CLI applies explicitly changed flags on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"optdbg/internal/diag"
	"optdbg/internal/passrun"
)

// FileName is the config file looked up from the working directory upward.
const FileName = "optdbg.toml"

type Config struct {
	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`

	Report   Report   `toml:"report"`
	Analysis Analysis `toml:"analysis"`
	Catalog  Catalog  `toml:"catalog"`
	Filter   Filter   `toml:"filter"`
	Cache    Cache    `toml:"cache"`
}

type Report struct {
	MinSeverity    string `toml:"min_severity"`
	MaxSuggestions int    `toml:"max_suggestions"`
	Verbose        bool   `toml:"verbose"`
	ShowDiff       bool   `toml:"show_diff"`
	MissedOnly     bool   `toml:"missed_only"`
	Dedup          bool   `toml:"dedup"`
	GroupBy        string `toml:"group_by"`
	Color          string `toml:"color"` // auto|always|never
}

type Analysis struct {
	Passes          string `toml:"passes"`
	OptLevel        string `toml:"opt_level"`
	Vectorize       bool   `toml:"vectorize"`
	Unroll          bool   `toml:"unroll"`
	VerifyEach      bool   `toml:"verify_each"`
	InlineThreshold int    `toml:"inline_threshold"` // 0 keeps opt's default
	Opt             string `toml:"opt"`
	LLVMDis         string `toml:"llvm_dis"`
	Jobs            int    `toml:"jobs"`
}

type Catalog struct {
	// Extra holds doublestar globs of pattern files, relative to the
	// config file's directory.
	Extra []string `toml:"extra"`
}

type Filter struct {
	Functions []string `toml:"functions"`
	Passes    []string `toml:"passes"`
}

type Cache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

func Default() Config {
	return Config{
		Report: Report{
			MinSeverity:    "low",
			MaxSuggestions: 3,
			ShowDiff:       true,
			GroupBy:        "none",
			Color:          "auto",
		},
		Analysis: Analysis{
			OptLevel:  "O2",
			Vectorize: true,
			Unroll:    true,
			Opt:       "opt",
			LLVMDis:   "llvm-dis",
		},
	}
}

// Root returns the directory relative paths in the config resolve against.
func (c *Config) Root() string {
	if c.Path == "" {
		return "."
	}
	return filepath.Dir(c.Path)
}

func (c *Config) Validate() error {
	if _, err := diag.ParseSeverity(c.Report.MinSeverity); err != nil {
		return fmt.Errorf("report.min_severity: %w", err)
	}
	if c.Report.MaxSuggestions < 0 {
		return fmt.Errorf("report.max_suggestions must not be negative")
	}
	switch c.Report.GroupBy {
	case "", "none", "function", "pass":
	default:
		return fmt.Errorf("report.group_by: unknown mode %q (want none|function|pass)", c.Report.GroupBy)
	}
	switch c.Report.Color {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("report.color: unknown mode %q (want auto|always|never)", c.Report.Color)
	}
	if !slices.Contains(passrun.OptLevels, c.Analysis.OptLevel) {
		return fmt.Errorf("analysis.opt_level: unknown level %q (want one of %s)", c.Analysis.OptLevel, strings.Join(passrun.OptLevels, " "))
	}
	if c.Analysis.Jobs < 0 {
		return fmt.Errorf("analysis.jobs must not be negative")
	}
	if c.Analysis.InlineThreshold < 0 {
		return fmt.Errorf("analysis.inline_threshold must not be negative")
	}
	return nil
}

// Find walks up from startDir looking for optdbg.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadFile decodes path over Default(). Unknown keys are an error.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("analysis", "jobs") && cfg.Analysis.Jobs == 0 {
		return Config{}, fmt.Errorf("%s: [analysis].jobs must be positive when set", path)
	}
	if meta.IsDefined("cache", "dir") && strings.TrimSpace(cfg.Cache.Dir) == "" {
		return Config{}, fmt.Errorf("%s: [cache].dir is empty", path)
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Load discovers the config from startDir, then applies .env and the
// environment. A missing optdbg.toml is not an error.
func Load(startDir string) (Config, error) {
	cfg := Default()
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if ok {
		if cfg, err = LoadFile(path); err != nil {
			return Config{}, err
		}
	}

	dotenv, err := readDotEnv(cfg.Root(), startDir)
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// readDotEnv merges .env files from dirs; earlier dirs win. The process
// environment is never modified.
func readDotEnv(dirs ...string) (map[string]string, error) {
	out := make(map[string]string)
	seen := make(map[string]bool)
	for _, dir := range dirs {
		if dir == "" {
			dir = "."
		}
		p, err := filepath.Abs(filepath.Join(dir, ".env"))
		if err != nil || seen[p] {
			continue
		}
		seen[p] = true
		vals, err := godotenv.Read(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		for k, v := range vals {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
	return out, nil
}

// Environment variables recognized by ApplyEnv.
const (
	EnvMinSeverity = "OPTDBG_MIN_SEVERITY"
	EnvOpt         = "OPTDBG_OPT"
	EnvLLVMDis     = "OPTDBG_LLVM_DIS"
	EnvCacheDir    = "OPTDBG_CACHE_DIR"
	EnvJobs        = "OPTDBG_JOBS"
)

// ApplyEnv overrides fields from lookup, usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvMinSeverity); ok && v != "" {
		if _, err := diag.ParseSeverity(v); err != nil {
			return fmt.Errorf("%s: %w", EnvMinSeverity, err)
		}
		c.Report.MinSeverity = v
	}
	if v, ok := lookup(EnvOpt); ok && v != "" {
		c.Analysis.Opt = v
	}
	if v, ok := lookup(EnvLLVMDis); ok && v != "" {
		c.Analysis.LLVMDis = v
	}
	if v, ok := lookup(EnvCacheDir); ok && v != "" {
		c.Cache.Dir = v
		c.Cache.Enabled = true
	}
	if v, ok := lookup(EnvJobs); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("%s: invalid job count %q", EnvJobs, v)
		}
		c.Analysis.Jobs = n
	}
	return nil
}

// PassOptions converts the analysis section for passrun.
func (c *Config) PassOptions() passrun.Options {
	return passrun.Options{
		Opt:             c.Analysis.Opt,
		LLVMDis:         c.Analysis.LLVMDis,
		Passes:          c.Analysis.Passes,
		OptLevel:        c.Analysis.OptLevel,
		Vectorize:       c.Analysis.Vectorize,
		Unroll:          c.Analysis.Unroll,
		VerifyEach:      c.Analysis.VerifyEach,
		InlineThreshold: c.Analysis.InlineThreshold,
	}
}
