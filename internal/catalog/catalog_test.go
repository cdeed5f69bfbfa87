package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"optdbg/internal/diag"
)

func TestBuiltinTable(t *testing.T) {
	c := Builtin()
	if c.Len() != 24 {
		t.Fatalf("Builtin().Len() = %d, want 24", c.Len())
	}
	if Builtin() != c {
		t.Error("Builtin() is not a singleton")
	}

	tests := []struct {
		idx      int
		matchers string
		sev      diag.Severity
		speedup  float64
	}{
		{0, "inline|NotInlined|too costly", diag.SevHigh, 1.3},
		{1, "inline|NotInlined|recursive", diag.SevMedium, 0},
		{3, "inline|NotInlined|indirect call", diag.SevHigh, 1.5},
		{5, "loop-vectorize|MissedDetails|loop not vectorized", diag.SevHigh, 4.0},
		{7, "loop-vectorize||unsafe dependent memory operations", diag.SevCritical, 4.0},
		{10, "slp-vectorizer|NotVectorized|", diag.SevMedium, 2.0},
		{11, "sroa|CannotSROAElement|", diag.SevHigh, 1.5},
		{13, "loop-unroll|FullUnrollAssumed|unknown trip count", diag.SevLow, 1.15},
		{17, "memcpyopt||", diag.SevLow, 1.1},
		{19, "|NeverInline|", diag.SevHigh, 1.2},
		{20, "||optnone", diag.SevCritical, 2.0},
		{23, "inline|NoDefinition|", diag.SevMedium, 1.3},
	}
	for _, tt := range tests {
		p := c.At(tt.idx)
		if got := p.Pass + "|" + p.Remark + "|" + p.Message; got != tt.matchers {
			t.Errorf("pattern %d matchers = %q, want %q", tt.idx, got, tt.matchers)
		}
		if p.Severity != tt.sev || p.Speedup != tt.speedup {
			t.Errorf("pattern %d = %s/%.2f, want %s/%.2f", tt.idx, p.Severity, p.Speedup, tt.sev, tt.speedup)
		}
	}

	first := c.At(0)
	if len(first.Fixes) != 4 || !first.Fixes[3].IRLevel || first.Fixes[3].SourceLevel || !first.Fixes[0].SourceLevel {
		t.Errorf("too-costly fixes = %+v", first.Fixes)
	}
	if !strings.Contains(first.DetailedExplanation, "InlineThreshold (default 225)") {
		t.Errorf("detail text lost: %q", first.DetailedExplanation)
	}

	for i, p := range c.All() {
		for _, s := range []string{p.ShortReason, p.DetailedExplanation, p.RootCause, p.WhatOptimizerWanted} {
			if s == "" {
				t.Errorf("pattern %d (%s) has an empty text", i, p.ID)
			}
		}
		for _, f := range p.Fixes {
			for _, r := range f.Description + f.Code {
				if r > 0x7f {
					t.Errorf("pattern %s fix has non-ASCII text %q", p.ID, f.Description)
					break
				}
			}
		}
	}
}

func TestAtReturnsCopy(t *testing.T) {
	c := Builtin()
	p := c.At(0)
	p.Fixes[0].Description = "mutated"
	if c.At(0).Fixes[0].Description == "mutated" {
		t.Fatal("At leaks catalog storage")
	}
	if got, ok := c.Lookup("inline/too-costly"); !ok || got.ShortReason != "Inlining rejected: callee too large" {
		t.Errorf("Lookup = %+v, %v", got, ok)
	}
	if _, ok := c.Lookup("missing"); ok {
		t.Error("Lookup found a missing id")
	}
}

func TestBuilderValidation(t *testing.T) {
	ok := Pattern{ID: "a", ShortReason: "r", Severity: diag.SevLow}
	tests := []struct {
		name string
		ps   []Pattern
	}{
		{"empty id", []Pattern{{ShortReason: "r"}}},
		{"duplicate id", []Pattern{ok, ok}},
		{"bad severity", []Pattern{{ID: "x", ShortReason: "r", Severity: diag.Severity(9)}}},
		{"negative speedup", []Pattern{{ID: "x", ShortReason: "r", Speedup: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			for _, p := range tt.ps {
				b.Add(p)
			}
			if _, err := b.Build(); !errors.Is(err, ErrInvalidPattern) {
				t.Fatalf("Build() error = %v, want ErrInvalidPattern", err)
			}
		})
	}
}

func TestExtendAppends(t *testing.T) {
	base := Builtin()
	ext, err := base.Extend(Pattern{ID: "custom/x", Pass: "inline", ShortReason: "custom", Severity: diag.SevInfo})
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if ext.Len() != base.Len()+1 || base.Len() != 24 {
		t.Fatalf("lengths = %d/%d", ext.Len(), base.Len())
	}
	if ext.At(ext.Len()-1).ID != "custom/x" || ext.At(0).ID != base.At(0).ID {
		t.Error("extension entries must follow builtin entries")
	}
	if _, err := base.Extend(Pattern{ID: "inline/too-costly", ShortReason: "dup"}); err == nil {
		t.Error("Extend accepted a duplicate id")
	}
}

const extYAML = `patterns:
  - id: custom/licm
    pass: licm
    message: "failed to hoist"
    short: "LICM could not hoist"
    detail: "Value {Inst} stays in the loop."
    severity: high
    speedup: 1.5
    fixes:
      - description: "Mark the pointer restrict"
        code: "int *restrict p"
      - description: "Reorder the IR"
        ir: true
  - id: custom/default
    pass: foo
    short: "Foo failed"
`

func TestDecode(t *testing.T) {
	ps, err := Decode(strings.NewReader(extYAML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("got %d patterns, want 2", len(ps))
	}
	licm := ps[0]
	if licm.Severity != diag.SevHigh || licm.Speedup != 1.5 || licm.Message != "failed to hoist" {
		t.Errorf("licm = %+v", licm)
	}
	if !licm.Fixes[0].SourceLevel || licm.Fixes[0].IRLevel {
		t.Errorf("fix without flags should be source-level: %+v", licm.Fixes[0])
	}
	if licm.Fixes[1].SourceLevel || !licm.Fixes[1].IRLevel {
		t.Errorf("ir fix flags = %+v", licm.Fixes[1])
	}
	if ps[1].Severity != diag.SevMedium {
		t.Errorf("default severity = %s, want MEDIUM", ps[1].Severity)
	}

	if _, err := Decode(strings.NewReader("patterns:\n  - id: x\n    short: y\n    severity: extreme\n")); err == nil {
		t.Error("Decode accepted an unknown severity")
	}
	if _, err := Decode(strings.NewReader("patterns:\n  - id: x\n    bogus: 1\n")); err == nil {
		t.Error("Decode accepted an unknown field")
	}
	if ps, err := Decode(strings.NewReader("")); err != nil || len(ps) != 0 {
		t.Errorf("empty input = %v, %v", ps, err)
	}
}

func TestLoadGlobs(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "patterns", "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	write := func(rel, id string) {
		body := "patterns:\n  - id: " + id + "\n    short: s\n"
		if err := os.WriteFile(filepath.Join(root, rel), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	write("patterns/b.yaml", "b")
	write("patterns/nested/a.yaml", "a")
	write("patterns/skip.txt", "skip")

	ps, err := LoadGlobs(root, []string{"patterns/**/*.yaml", "patterns/b.yaml"})
	if err != nil {
		t.Fatalf("LoadGlobs: %v", err)
	}
	var ids []string
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	if strings.Join(ids, ",") != "b,a" {
		t.Errorf("ids = %v, want [b a] in path order", ids)
	}
}
