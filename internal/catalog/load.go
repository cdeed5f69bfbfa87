package catalog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"optdbg/internal/diag"
)

// patternFile is the on-disk layout of an extension catalog:
//
//	patterns:
//	  - id: mypass/blocked
//	    pass: mypass
//	    message: "blocked by"
//	    short: "My pass was blocked"
//	    severity: high
//	    fixes:
//	      - description: "Do the thing"
type patternFile struct {
	Patterns []patternEntry `yaml:"patterns"`
}

type patternEntry struct {
	ID        string         `yaml:"id"`
	Pass      string         `yaml:"pass"`
	Remark    string         `yaml:"remark"`
	Message   string         `yaml:"message"`
	Short     string         `yaml:"short"`
	Detail    string         `yaml:"detail"`
	RootCause string         `yaml:"root_cause"`
	Intent    string         `yaml:"intent"`
	Severity  *diag.Severity `yaml:"severity"`
	Speedup   float64        `yaml:"speedup"`
	Fixes     []fixEntry     `yaml:"fixes"`
}

type fixEntry struct {
	Description string `yaml:"description"`
	Code        string `yaml:"code"`
	Source      *bool  `yaml:"source"`
	IR          *bool  `yaml:"ir"`
}

// Decode reads extension patterns from YAML. Omitted severities default
// to medium.
func Decode(r io.Reader) ([]Pattern, error) {
	var f patternFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode patterns: %w", err)
	}
	out := make([]Pattern, 0, len(f.Patterns))
	for i, e := range f.Patterns {
		p := e.pattern()
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("pattern #%d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (e patternEntry) pattern() Pattern {
	p := Pattern{
		ID:                  e.ID,
		Pass:                e.Pass,
		Remark:              e.Remark,
		Message:             e.Message,
		ShortReason:         e.Short,
		DetailedExplanation: e.Detail,
		RootCause:           e.RootCause,
		WhatOptimizerWanted: e.Intent,
		Severity:            diag.SevMedium,
		Speedup:             e.Speedup,
	}
	if e.Severity != nil {
		p.Severity = *e.Severity
	}
	for _, f := range e.Fixes {
		fix := diag.Fix{Description: f.Description, Code: f.Code}
		switch {
		case f.Source == nil && f.IR == nil:
			fix.SourceLevel = true
		default:
			fix.SourceLevel = f.Source != nil && *f.Source
			fix.IRLevel = f.IR != nil && *f.IR
		}
		p.Fixes = append(p.Fixes, fix)
	}
	return p
}

// LoadFile reads one extension catalog.
func LoadFile(path string) ([]Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open patterns file %q: %w", path, err)
	}
	defer f.Close()
	ps, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ps, nil
}

// LoadGlobs expands doublestar globs relative to root and loads every
// matched file in lexical path order. Absolute globs are used as is.
func LoadGlobs(root string, globs []string) ([]Pattern, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, g := range globs {
		var matches []string
		var err error
		if filepath.IsAbs(g) {
			matches, err = doublestar.FilepathGlob(g)
		} else {
			matches, err = doublestar.Glob(os.DirFS(root), filepath.ToSlash(g))
			for i := range matches {
				matches[i] = filepath.Join(root, filepath.FromSlash(matches[i]))
			}
		}
		if err != nil {
			return nil, fmt.Errorf("bad pattern glob %q: %w", g, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)

	var out []Pattern
	for _, path := range files {
		ps, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, ps...)
	}
	return out, nil
}
