package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"optdbg/internal/trace"
)

const testBefore = `define i32 @main() {
entry:
  %x = call i32 @foo()
  ret i32 %x
}

define i32 @foo() {
entry:
  ret i32 7
}

define void @loop(ptr %p, i64 %n) {
entry:
  br label %body

body:
  %v = load i32, ptr %p
  store i32 %v, ptr %p
  br label %exit

exit:
  ret void
}
`

const testAfter = `define i32 @main() {
entry:
  ret i32 7
}

define void @loop(ptr %p, i64 %n) {
entry:
  br label %body

body:
  %v = load i32, ptr %p
  br label %exit

exit:
  ret void
}
`

const testRemarks = `--- !Passed
Pass:            inline
Name:            Inlined
Function:        main
Args:
  - Callee: foo
...
--- !Missed
Pass:            loop-vectorize
Name:            CantVectorizeMemory
DebugLoc:        { File: t.c, Line: 9, Column: 3 }
Function:        loop
Args:
  - String: 'unsafe dependent memory operations in loop'
...
--- !Missed
Pass:            memcpyopt
Name:            Missed
Function:        loop
Args:
  - String: 'could not promote memcpy'
...
`

type fixture struct {
	dir, before, after, remarks string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	fx := fixture{
		dir:     dir,
		before:  filepath.Join(dir, "before.ll"),
		after:   filepath.Join(dir, "after.ll"),
		remarks: filepath.Join(dir, "remarks.yaml"),
	}
	for path, body := range map[string]string{fx.before: testBefore, fx.after: testAfter, fx.remarks: testRemarks} {
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return fx
}

// run executes the CLI in-process and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	runCleanups()
	return stdout.String(), err
}

func TestAnalyzeUsageConflicts(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"before without after", []string{"analyze", "--before", "a.ll"}, "--before requires --after"},
		{"after without before", []string{"analyze", "--after", "b.ll"}, "--after requires --before"},
		{"positional and pair", []string{"analyze", "x.ll", "--before", "a.ll", "--after", "b.ll"}, "cannot specify both a positional input file and --before/--after"},
		{"no input", []string{"analyze"}, "no input specified: provide an IR file or use --before/--after"},
		{"two groupings", []string{"analyze", "--before", "a.ll", "--after", "b.ll", "--group-by-function", "--group-by-pass"}, "cannot use --group-by-function and --group-by-pass together"},
		{"bad severity", []string{"analyze", "--before", "a.ll", "--after", "b.ll", "--min-severity", "urgent"}, "urgent"},
		{"bad level", []string{"analyze", "x.ll", "-O9"}, "O9"},
		{"bad ui", []string{"analyze", "--before", "a.ll", "--after", "b.ll", "--ui", "maybe"}, "invalid --ui value"},
		{"too many args", []string{"analyze", "a.ll", "b.ll"}, "accepts at most 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want it to contain %q", err, tt.want)
			}
			if code := exitCode(err); code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
		})
	}
}

func TestAnalyzePairJSON(t *testing.T) {
	fx := newFixture(t)
	out, err := run(t, "analyze", "--before", fx.before, "--after", fx.after, "--remarks", fx.remarks,
		"--format", "json", "--ui", "off")
	if code := exitCode(err); code != 2 {
		t.Fatalf("exit code = %d (err %v), want 2 for a critical diagnostic", code, err)
	}

	var report struct {
		Pipeline string `json:"pipeline"`
		Summary  struct {
			Remarks int `json:"remarks"`
			Missed  int `json:"missed"`
		} `json:"summary"`
		Diagnostics []struct {
			Pattern  string `json:"pattern"`
			Severity string `json:"severity"`
			Function string `json:"function"`
		} `json:"diagnostics"`
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("bad JSON: %v\n%s", err, out)
	}
	if report.Pipeline != "external" || report.Summary.Remarks != 3 || report.Summary.Missed != 2 {
		t.Errorf("header = %+v", report)
	}
	if report.Count != 2 || report.Diagnostics[0].Pattern != "loop-vectorize/unsafe-dependence" {
		t.Fatalf("diagnostics = %+v", report.Diagnostics)
	}
}

func TestAnalyzeFiltersDropCritical(t *testing.T) {
	fx := newFixture(t)
	out, err := run(t, "analyze", "--before", fx.before, "--after", fx.after, "--remarks", fx.remarks,
		"--filter-pass", "memcpy*", "--no-color", "--ui", "off")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out, "memcpyopt") || strings.Contains(out, "loop-vectorize/") {
		t.Errorf("filtered report:\n%s", out)
	}
}

func TestAnalyzeSaveAndReport(t *testing.T) {
	fx := newFixture(t)
	saved := filepath.Join(fx.dir, "out", "session.mp")
	_, err := run(t, "analyze", "--before", fx.before, "--after", fx.after, "--remarks", fx.remarks,
		"--save", saved, "--summary-only", "--ui", "off")
	if exitCode(err) != 2 {
		t.Fatalf("analyze: %v", err)
	}

	htmlPath := filepath.Join(fx.dir, "report.html")
	out, err := run(t, "report", saved, "--format", "sarif", "--min-severity", "low", "--html", htmlPath)
	if exitCode(err) != 2 {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, `"version": "2.1.0"`) || !strings.Contains(out, "loop-vectorize/unsafe-dependence") {
		t.Errorf("sarif output:\n%s", out)
	}
	if data, err := os.ReadFile(htmlPath); err != nil || !strings.Contains(string(data), "<html") {
		t.Errorf("html report: %v", err)
	}

	if _, err := run(t, "report", filepath.Join(fx.dir, "missing.mp")); err == nil {
		t.Error("report of a missing session succeeded")
	}
}

func TestDiffCommand(t *testing.T) {
	fx := newFixture(t)
	out, err := run(t, "diff", fx.before, fx.after, "--no-color")
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	for _, want := range []string{"=== IR Diff ===", "Functions: +0 -1 ~2 =0", "[-] @foo (inlined/removed)", "@loop"} {
		if !strings.Contains(out, want) {
			t.Errorf("diff output lacks %q:\n%s", want, out)
		}
	}

	out, err = run(t, "diff", fx.before, fx.after, "--format", "json")
	if err != nil {
		t.Fatalf("diff json: %v", err)
	}
	var md struct {
		Removed int `json:"removed"`
	}
	if err := json.Unmarshal([]byte(out), &md); err != nil || md.Removed != 1 {
		t.Errorf("diff json = %+v, %v", md, err)
	}
}

func TestRemarksCommand(t *testing.T) {
	fx := newFixture(t)
	out, err := run(t, "remarks", fx.remarks, "--missed")
	if err != nil {
		t.Fatalf("remarks: %v", err)
	}
	if !strings.Contains(out, "[missed] loop-vectorize/CantVectorizeMemory in loop at t.c:9:3") {
		t.Errorf("remarks output:\n%s", out)
	}
	if !strings.HasSuffix(out, "2 of 3 remarks shown (2 missed, 0 applied, 0 analysis)\n") {
		t.Errorf("summary line:\n%s", out)
	}

	out, err = run(t, "remarks", fx.remarks, "--function", "loop", "--pass", "memcpyopt", "--format", "json")
	if err != nil {
		t.Fatalf("remarks json: %v", err)
	}
	var rs []map[string]any
	if err := json.Unmarshal([]byte(out), &rs); err != nil || len(rs) != 1 || rs[0]["pass"] != "memcpyopt" {
		t.Errorf("remarks json = %v, %v", rs, err)
	}
}

func TestPatternsCommand(t *testing.T) {
	out, err := run(t, "patterns")
	if err != nil {
		t.Fatalf("patterns: %v", err)
	}
	if !strings.Contains(out, "inline/too-costly") || !strings.Contains(out, " patterns\n") {
		t.Errorf("patterns output:\n%s", out)
	}

	out, err = run(t, "patterns", "generic/optnone")
	if err != nil {
		t.Fatalf("patterns id: %v", err)
	}
	if !strings.HasPrefix(out, "[!!] generic/optnone\n") {
		t.Errorf("pattern detail:\n%s", out)
	}

	if _, err := run(t, "patterns", "no/such"); err == nil {
		t.Error("unknown pattern id accepted")
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := run(t, "version", "--format", "json", "--full")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatal(err)
	}
	if payload["tool"] != "optdbg" || payload["version"] == "" || payload["git_commit"] == "" {
		t.Errorf("payload = %v", payload)
	}
}

func TestNormalizeOptLevel(t *testing.T) {
	for in, want := range map[string]string{"2": "O2", "O3": "O3", "s": "Os", " z": "Oz"} {
		if got := normalizeOptLevel(in); got != want {
			t.Errorf("normalizeOptLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExitCode(t *testing.T) {
	if exitCode(nil) != 0 || exitCode(errors.New("x")) != 1 || exitCode(exitCritical) != 2 {
		t.Error("exit code mapping")
	}
	wrapped := &exitCodeError{code: 3, err: errors.New("inner")}
	if exitCode(wrapped) != 3 || wrapped.Error() != "inner" || exitCritical.Error() != "" {
		t.Error("exitCodeError accessors")
	}
}

func TestAnalyzeTimings(t *testing.T) {
	fx := newFixture(t)
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"analyze", "--before", fx.before, "--after", fx.after,
		"--filter-pass", "memcpy*", "--ui", "off", "--no-color", "--timings"})
	err := root.ExecuteContext(context.Background())
	runCleanups()
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	got := stderr.String()
	for _, want := range []string{"timings:\n", "  load ", "  diff ", "  classify ", "  total "} {
		if !strings.Contains(got, want) {
			t.Errorf("stderr missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "optimize") {
		t.Errorf("optimize listed in pair mode:\n%s", got)
	}
}

func TestShouldUseTUI(t *testing.T) {
	tests := []struct {
		mode          uiMode
		traceOnStderr bool
		want          bool
	}{
		{uiModeOn, true, true},
		{uiModeOff, false, false},
		// stage events on stderr would interleave with the progress view
		{uiModeAuto, true, false},
	}
	for _, tt := range tests {
		if got := shouldUseTUI(tt.mode, tt.traceOnStderr); got != tt.want {
			t.Errorf("shouldUseTUI(%s, %v) = %v, want %v", tt.mode, tt.traceOnStderr, got, tt.want)
		}
	}
	if _, err := readUIMode("fancy"); err == nil {
		t.Error("readUIMode accepted an unknown mode")
	}
}

func TestStreamsToStderr(t *testing.T) {
	tests := []struct {
		mode   trace.StorageMode
		output string
		want   bool
	}{
		{trace.ModeStream, "", true},
		{trace.ModeBoth, "-", true},
		{trace.ModeRing, "", false},
		{trace.ModeStream, "trace.ndjson", false},
	}
	for _, tt := range tests {
		if got := streamsToStderr(tt.mode, tt.output); got != tt.want {
			t.Errorf("streamsToStderr(%v, %q) = %v, want %v", tt.mode, tt.output, got, tt.want)
		}
	}
}

func TestDumpTraceRing(t *testing.T) {
	ring := trace.NewRingTracer(32, trace.LevelDetail)
	activeTracer = ring
	t.Cleanup(func() { activeTracer = trace.Nop })

	ctx := trace.WithTracer(context.Background(), ring)
	ctx, _ = trace.StartSpan(ctx, trace.ScopeDriver, "cmd:analyze")
	ctx, _ = trace.StartSpan(ctx, trace.ScopeStage, "diff")
	trace.FunctionSpan(ctx, "main").Fail(errors.New("no blocks"))

	var buf bytes.Buffer
	dumpTraceRing(&buf)
	out := buf.String()
	for _, want := range []string{
		"trace: failed inside cmd:analyze > diff\n",
		"trace: function diffs failed: main\n",
		"trace: last events before failure:",
		"fn:main",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}
