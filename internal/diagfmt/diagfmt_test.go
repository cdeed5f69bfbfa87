package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"optdbg/internal/diag"
	"optdbg/internal/irdiff"
	"optdbg/internal/remarks"
	"optdbg/internal/session"
)

func rec(text string, line int) *irdiff.InstructionRecord {
	return &irdiff.InstructionRecord{Text: text, Line: line}
}

func fixtureDiff() irdiff.ModuleDiff {
	return irdiff.ModuleDiff{
		Functions: []irdiff.FunctionDiff{
			{Kind: irdiff.Unchanged, Name: "keep", BeforeBlockCount: 1, AfterBlockCount: 1, BeforeInstrCount: 1, AfterInstrCount: 1},
			{
				Kind: irdiff.Modified, Name: "main",
				BeforeBlockCount: 2, AfterBlockCount: 1, BeforeInstrCount: 4, AfterInstrCount: 2,
				Blocks: []irdiff.BlockDiff{
					{Kind: irdiff.Modified, Name: "entry", BeforeInstrCount: 2, AfterInstrCount: 2, Instructions: []irdiff.InstructionDiff{
						{Kind: irdiff.Unchanged, Before: rec("%a = load i32, ptr %p", 1), After: rec("%a = load i32, ptr %p", 1)},
						{Kind: irdiff.Removed, Before: rec("call void @helper()", 2)},
						{Kind: irdiff.Added, After: rec("ret i32 %a", 2)},
					}},
					{Kind: irdiff.Removed, Name: "exit", BeforeInstrCount: 1},
				},
			},
			{Kind: irdiff.Removed, Name: "helper", BeforeBlockCount: 1, BeforeInstrCount: 1},
		},
		Removed: 1, Modified: 1, Unchanged: 1,
		TotalBeforeInstructions: 6, TotalAfterInstructions: 3,
	}
}

func fixture() *session.Session {
	s := session.New("default-O2")
	s.Remarks = []remarks.Remark{
		{Kind: remarks.Missed, Pass: "inline"},
		{Kind: remarks.Missed, Pass: "loop-vectorize"},
		{Kind: remarks.Applied, Pass: "licm"},
		{Kind: remarks.Analysis, Pass: "gvn"},
	}
	s.Diff = fixtureDiff()
	s.Diagnostics = []diag.Result{
		{
			Pattern: "loop-vectorize/unsafe-dependence", Pass: "loop-vectorize", RemarkName: "CantVectorize",
			Function: "main", Kind: remarks.Missed, Location: remarks.Location{File: "a.c", Line: 7, Column: 3},
			ShortReason: "Unsafe <dependence>", RootCause: "aliasing", WhatOptimizerWanted: "vectorize",
			DetailedExplanation: "line one\n\nline two",
			Suggestions: []diag.Fix{
				diag.SourceFix("Use restrict", "void f(int *restrict a,\n       int *restrict b);"),
				diag.IRFix("Add noalias", ""),
				diag.SourceFix("Third", ""),
				diag.SourceFix("Fourth", ""),
			},
			Severity: diag.SevCritical, EstimatedSpeedup: 4,
		},
		{
			Pattern: "inline/too-costly", Pass: "inline", RemarkName: "NotInlined", Function: "caller",
			Kind: remarks.Missed, ShortReason: "Too costly", RootCause: "cost", WhatOptimizerWanted: "inline",
			Severity: diag.SevHigh, EstimatedSpeedup: 1.3,
		},
		{
			Pass: "gvn", RemarkName: "LoadClobbered", Function: "main", Kind: remarks.Analysis,
			ShortReason: "Optimization missed: LoadClobbered", RootCause: "See raw message: x",
			WhatOptimizerWanted: "The gvn pass attempted a transformation that was blocked by a precondition.",
			Severity: diag.SevMedium,
		},
		{
			Pattern: "memcpyopt/missed", Pass: "memcpyopt", Function: "copy", Kind: remarks.Missed,
			ShortReason: "memcpy", Severity: diag.SevLow, EstimatedSpeedup: 1.1,
		},
	}
	md := s.Diff
	s.Diagnostics[0].Diff = md.Function("main")
	return s
}

func TestModuleDiff(t *testing.T) {
	md := fixtureDiff()
	var buf bytes.Buffer
	if err := ModuleDiff(&buf, &md, false); err != nil {
		t.Fatal(err)
	}
	want := `
=== IR Diff ===
Functions: +0 -1 ~1 =1
Instructions: 6 -> 3 (-3)
[~] @main  blocks: 2 -> 1  instrs: 4 -> 2
  [~] %entry:
    - call void @helper()
    + ret i32 %a
  [-] %exit:
[-] @helper (inlined/removed)
`
	if got := buf.String(); got != want {
		t.Fatalf("ModuleDiff mismatch\nwant:\n%s\n\ngot:\n%s", want, got)
	}
}

func TestDeltaSuffix(t *testing.T) {
	for d, want := range map[int64]string{-2: " (-2)", 3: " (+3)", 0: " (no change)"} {
		if got := deltaSuffix(d); got != want {
			t.Errorf("deltaSuffix(%d) = %q, want %q", d, got, want)
		}
	}
}

func TestSelect(t *testing.T) {
	rs := fixture().Diagnostics
	tests := []struct {
		name string
		opts ReportOpts
		want string
	}{
		{"default", DefaultReportOpts(), "loop-vectorize,inline,gvn,memcpyopt"},
		{"min high", ReportOpts{MinSeverity: diag.SevHigh}, "loop-vectorize,inline"},
		{"missed only", ReportOpts{MinSeverity: diag.SevInfo, MissedOnly: true}, "loop-vectorize,inline,memcpyopt"},
		{"function glob", ReportOpts{MinSeverity: diag.SevInfo, FunctionGlobs: []string{"ma*"}}, "loop-vectorize,gvn"},
		{"pass glob", ReportOpts{MinSeverity: diag.SevInfo, PassGlobs: []string{"loop-*", "mem{cpy,set}opt"}}, "loop-vectorize,memcpyopt"},
		{"bad glob", ReportOpts{MinSeverity: diag.SevInfo, PassGlobs: []string{"[x"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, r := range Select(rs, tt.opts) {
				got = append(got, r.Pass)
			}
			if strings.Join(got, ",") != tt.want {
				t.Errorf("Select = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestSelectDedup(t *testing.T) {
	rs := fixture().Diagnostics
	doubled := append(append([]diag.Result(nil), rs...), rs...)
	opts := ReportOpts{MinSeverity: diag.SevInfo}
	if got := len(Select(doubled, opts)); got != 2*len(rs) {
		t.Fatalf("without dedup: %d results, want %d", got, 2*len(rs))
	}
	opts.Dedup = true
	if got := len(Select(doubled, opts)); got != len(rs) {
		t.Errorf("with dedup: %d results, want %d", got, len(rs))
	}
}

func TestTerminal(t *testing.T) {
	s := fixture()
	opts := DefaultReportOpts()
	opts.Color = false
	opts.Verbose = true
	var buf bytes.Buffer
	if err := Terminal(&buf, s, opts); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"  LLVM Optimization Failure Debugger\n",
		"  Pipeline : default-O2\n",
		"  Remarks  : 4 total\n  Missed   : 2\n  Applied  : 1\n",
		"  Functions  : before=3  after=2\n",
		"  Instruction delta   : -3 (reduced)\n",
		"  [!!] CRITICAL : 1\n",
		"  [- ] LOW      : 1\n",
		"[!!] [CRITICAL] Unsafe <dependence>\n  Pass     : loop-vectorize\n  Function : @main\n  Location : a.c:7:3\n  Potential speedup if fixed: 4.0x\n",
		"  ROOT CAUSE\n",
		"  DETAILED EXPLANATION\n",
		"  line one\n\n  line two\n",
		"    1. Use restrict\n\n      | void f(int *restrict a,\n      |        int *restrict b);\n",
		"    2. Add noalias\n      [IR-level change]\n",
		"  IR DIFF for @main\n",
		"  blocks: 2 -> 1   instructions: 4 -> 2\n",
		"  %entry:\n    = %a = load i32, ptr %p\n    - call void @helper()\n    + ret i32 %a\n",
		"  Total diagnostics: 4\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n\ngot:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Fourth") {
		t.Error("suggestions not capped at MaxSuggestions")
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("color codes with Color=false")
	}
	if strings.Index(out, "Unsafe <dependence>") > strings.Index(out, "Too costly") {
		t.Error("diagnostics not in rank order")
	}
}

func TestTerminalSummaryOnlyAndEmpty(t *testing.T) {
	s := fixture()
	opts := DefaultReportOpts()
	opts.Color = false
	opts.SummaryOnly = true
	var buf bytes.Buffer
	if err := Terminal(&buf, s, opts); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "ROOT CAUSE") || !strings.Contains(buf.String(), "Missed Optimization Summary") {
		t.Errorf("summary-only output:\n%s", buf.String())
	}

	empty := session.New("instcombine")
	buf.Reset()
	if err := Terminal(&buf, empty, opts); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"No optimization opportunities detected.", "No missed optimizations found for the specified passes.", "Total diagnostics: 0"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("empty report missing %q:\n%s", want, buf.String())
		}
	}
}

func TestTerminalColor(t *testing.T) {
	opts := DefaultReportOpts()
	var buf bytes.Buffer
	if err := Terminal(&buf, fixture(), opts); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Error("Color=true produced no escape codes")
	}
}

func TestGroup(t *testing.T) {
	rs := fixture().Diagnostics
	gs := group(rs, GroupByFunction)
	var got []string
	for _, g := range gs {
		got = append(got, g.title+"="+string(rune('0'+len(g.items))))
	}
	if want := "Function @main=2,Function @caller=1,Function @copy=1"; strings.Join(got, ",") != want {
		t.Errorf("groups = %v, want %s", got, want)
	}
	if gs := group(rs, GroupNone); len(gs) != 1 || gs[0].title != "" || len(gs[0].items) != 4 {
		t.Errorf("GroupNone = %+v", gs)
	}

	opts := DefaultReportOpts()
	opts.Color = false
	opts.GroupBy = GroupByPass
	var buf bytes.Buffer
	if err := Terminal(&buf, fixture(), opts); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "  Pass inline (1)\n") {
		t.Errorf("missing group heading:\n%s", buf.String())
	}
}

func TestParseGroupBy(t *testing.T) {
	for in, want := range map[string]GroupBy{"": GroupNone, "none": GroupNone, "function": GroupByFunction, "pass": GroupByPass} {
		got, err := ParseGroupBy(in)
		if err != nil || got != want {
			t.Errorf("ParseGroupBy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseGroupBy("file"); err == nil {
		t.Error("ParseGroupBy accepted an unknown mode")
	}
}

func TestJSON(t *testing.T) {
	s := fixture()
	opts := DefaultReportOpts()
	opts.MinSeverity = diag.SevHigh
	var buf bytes.Buffer
	if err := JSON(&buf, s, opts); err != nil {
		t.Fatal(err)
	}
	var out struct {
		RunID       string `json:"run_id"`
		Pipeline    string `json:"pipeline"`
		Summary     SummaryJSON
		Diff        *irdiff.ModuleDiff `json:"diff"`
		Diagnostics []struct {
			Pattern     string     `json:"pattern"`
			Severity    string     `json:"severity"`
			Kind        string     `json:"kind"`
			Suggestions []diag.Fix `json:"suggestions"`
		} `json:"diagnostics"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.RunID != s.RunID || out.Pipeline != "default-O2" || out.Count != 2 {
		t.Errorf("header = %+v", out)
	}
	if out.Summary.Missed != 2 || out.Summary.InstructionDelta != -3 || out.Summary.BySeverity["CRITICAL"] != 1 {
		t.Errorf("summary = %+v", out.Summary)
	}
	if out.Diff == nil || out.Diff.Function("helper").Kind != irdiff.Removed {
		t.Errorf("diff = %+v", out.Diff)
	}
	d := out.Diagnostics[0]
	if d.Severity != "critical" || d.Kind != "missed" || len(d.Suggestions) != 3 {
		t.Errorf("diagnostic = %+v", d)
	}
	if s.Diagnostics[0].Suggestions[0].Description != "Use restrict" || len(s.Diagnostics[0].Suggestions) != 4 {
		t.Error("JSON rendering mutated the session")
	}
}

func TestSarif(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultReportOpts()
	opts.MinSeverity = diag.SevInfo
	if err := Sarif(&buf, fixture(), opts, SarifRunMeta{ToolVersion: "1.2.3", InvocationArgs: []string{"analyze", "a.ll"}}); err != nil {
		t.Fatal(err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid SARIF: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("log = %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "optdbg" || run.Tool.Driver.Version != "1.2.3" {
		t.Errorf("driver = %+v", run.Tool.Driver)
	}
	var ids, levels []string
	for _, r := range run.Tool.Driver.Rules {
		ids = append(ids, r.ID)
	}
	for _, r := range run.Results {
		levels = append(levels, r.Level)
	}
	if want := "loop-vectorize/unsafe-dependence,inline/too-costly,fallback/gvn,memcpyopt/missed"; strings.Join(ids, ",") != want {
		t.Errorf("rules = %v", ids)
	}
	if want := "error,error,warning,note"; strings.Join(levels, ",") != want {
		t.Errorf("levels = %v", levels)
	}
	first := run.Results[0]
	if first.Locations[0].PhysicalLocation.Region.StartLine != 7 || first.Locations[0].LogicalLocations[0].Name != "main" {
		t.Errorf("location = %+v", first.Locations)
	}
	if run.Results[1].Locations[0].PhysicalLocation != nil {
		t.Error("invalid location must not produce a physical location")
	}
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := HTML(&buf, fixture(), DefaultReportOpts()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		`<a href="#diag-0" class="nav-item">loop-vectorize: Unsafe &lt;dependence&gt;</a>`,
		`class="severity-indicator sev-critical-dot"`,
		"Estimated Speedup: 4.0x",
		`<td class="diff-ln">-</td><td class="diff-content">  call void @helper()</td>`,
		"%entry:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	if strings.Contains(out, "Unsafe <dependence>") {
		t.Error("HTML text was not escaped")
	}
}
