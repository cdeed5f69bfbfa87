package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvMinSeverity, EnvOpt, EnvLLVMDis, EnvCacheDir, EnvJobs} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Root() != "." {
		t.Errorf("Root() = %q, want .", cfg.Root())
	}
}

func TestLoadFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeFile(t, path, `
[report]
min_severity = "high"
group_by = "pass"

[analysis]
opt_level = "O3"
vectorize = false
jobs = 4

[catalog]
extra = ["patterns/**/*.yaml"]

[filter]
functions = ["hot_*"]
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Report.MinSeverity != "high" || cfg.Report.GroupBy != "pass" || cfg.Report.MaxSuggestions != 3 {
		t.Errorf("report = %+v", cfg.Report)
	}
	if cfg.Analysis.OptLevel != "O3" || cfg.Analysis.Vectorize || !cfg.Analysis.Unroll || cfg.Analysis.Jobs != 4 {
		t.Errorf("analysis = %+v", cfg.Analysis)
	}
	if cfg.Analysis.Opt != "opt" {
		t.Errorf("unset opt path lost its default: %q", cfg.Analysis.Opt)
	}
	if len(cfg.Catalog.Extra) != 1 || cfg.Filter.Functions[0] != "hot_*" {
		t.Errorf("catalog/filter = %+v %+v", cfg.Catalog, cfg.Filter)
	}
	if cfg.Root() != filepath.Dir(path) {
		t.Errorf("Root() = %q", cfg.Root())
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name, body, want string
	}{
		{"syntax", "[report\n", "failed to parse TOML"},
		{"unknown key", "[report]\nshow_everything = true\n", "unknown keys: report.show_everything"},
		{"bad severity", "[report]\nmin_severity = \"extreme\"\n", "min_severity"},
		{"bad level", "[analysis]\nopt_level = \"O9\"\n", "opt_level"},
		{"zero jobs", "[analysis]\njobs = 0\n", "jobs must be positive"},
		{"empty cache dir", "[cache]\ndir = \" \"\n", "[cache].dir is empty"},
		{"bad color", "[report]\ncolor = \"rainbow\"\n", "report.color"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			writeFile(t, path, tt.body)
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("LoadFile error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadDiscoversUpward(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), "[analysis]\nopt = \"/usr/bin/opt-18\"\n")
	writeFile(t, filepath.Join(root, ".env"), EnvMinSeverity+"=medium\n"+EnvOpt+"=/from/dotenv\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvOpt, "/from/env")

	cfg, err := Load(nested)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path != filepath.Join(root, FileName) {
		t.Errorf("Path = %q", cfg.Path)
	}
	if cfg.Analysis.Opt != "/from/env" {
		t.Errorf("process env must win over .env and file: %q", cfg.Analysis.Opt)
	}
	if cfg.Report.MinSeverity != "medium" {
		t.Errorf(".env must win over defaults: %q", cfg.Report.MinSeverity)
	}
	if v, ok := os.LookupEnv(EnvMinSeverity); ok && v != "" {
		t.Errorf("Load modified the process environment: %s=%s", EnvMinSeverity, v)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path != "" && !strings.HasSuffix(cfg.Path, FileName) {
		t.Errorf("Path = %q", cfg.Path)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvCacheDir: "/tmp/c",
		EnvJobs:     "8",
		EnvLLVMDis:  "llvm-dis-18",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatal(err)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Dir != "/tmp/c" || cfg.Analysis.Jobs != 8 || cfg.Analysis.LLVMDis != "llvm-dis-18" {
		t.Errorf("cfg = %+v", cfg)
	}

	env[EnvJobs] = "many"
	if err := cfg.ApplyEnv(lookup); err == nil {
		t.Error("ApplyEnv accepted a bad job count")
	}
	env[EnvJobs] = ""
	env[EnvMinSeverity] = "nope"
	if err := cfg.ApplyEnv(lookup); err == nil {
		t.Error("ApplyEnv accepted a bad severity")
	}
}
