package diagfmt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"optdbg/internal/diag"
	"optdbg/internal/irdiff"
	"optdbg/internal/session"
)

const ruleWidth = 80

type termWriter struct {
	w    *bufio.Writer
	p    painter
	opts ReportOpts
}

func (t *termWriter) rule(ch byte) {
	t.w.WriteString(strings.Repeat(string(ch), ruleWidth))
	t.w.WriteByte('\n')
}

func (t *termWriter) line(format string, args ...any) {
	fmt.Fprintf(t.w, format, args...)
	t.w.WriteByte('\n')
}

// section prints a heading framed by dashed rules.
func (t *termWriter) section(title string, attrs ...color.Attribute) {
	t.w.WriteByte('\n')
	t.rule('-')
	t.line("  %s", t.p.paint(title, attrs...))
	t.rule('-')
}

// Terminal renders the human-readable report for s.
func Terminal(w io.Writer, s *session.Session, opts ReportOpts) error {
	t := &termWriter{w: bufio.NewWriter(w), p: painter(opts.Color), opts: opts}
	shown := Select(s.Diagnostics, opts)

	t.header(s)
	t.summary(s, shown)

	if len(shown) == 0 {
		t.line("  %s", t.p.paint("No missed optimizations found for the specified passes.", color.FgGreen))
		t.footer(len(shown))
		return t.w.Flush()
	}

	if !opts.SummaryOnly {
		for _, g := range group(shown, opts.GroupBy) {
			if g.title != "" {
				t.rule('#')
				t.line("  %s (%d)", t.p.paint(g.title, color.FgBlue, color.Bold), len(g.items))
			}
			for i := range g.items {
				t.diagnostic(&g.items[i])
			}
		}
	}
	t.footer(len(shown))
	return t.w.Flush()
}

func (t *termWriter) header(s *session.Session) {
	t.rule('=')
	t.line("%s", t.p.paint("  LLVM Optimization Failure Debugger", color.FgCyan, color.Bold))
	t.line("%s", t.p.paint("  Why wasn't my code optimized?", color.FgWhite, color.Bold))
	t.rule('=')

	missed, applied := s.Counts()
	t.line("  Pipeline : %s", s.Pipeline)
	t.line("  Remarks  : %d total", len(s.Remarks))
	t.line("  Missed   : %d", missed)
	t.line("  Applied  : %d", applied)
	if s.VerificationFailed {
		t.line("  Verifier : %s", t.p.paint("FAILED", color.FgRed, color.Bold))
	}
	t.w.WriteByte('\n')
}

func (t *termWriter) summary(s *session.Session, shown []diag.Result) {
	d := &s.Diff
	if !d.HasChanges() && len(shown) == 0 {
		t.line("  %s", t.p.paint("No optimization opportunities detected.", color.FgGreen))
		t.w.WriteByte('\n')
		return
	}

	t.rule('-')
	t.line("  %s", t.p.paint("IR Statistics", color.FgCyan))
	t.rule('-')
	t.line("  Functions  : before=%d  after=%d", d.Modified+d.Unchanged+d.Removed, d.Modified+d.Unchanged+d.Added)
	t.line("  Modified   : %d", d.Modified)
	t.line("  Inlined    : %d", d.Removed)
	t.line("  Instructions before : %d", d.TotalBeforeInstructions)
	t.line("  Instructions after  : %d", d.TotalAfterInstructions)

	delta := d.InstructionDelta()
	var deltaText string
	switch {
	case delta < 0:
		deltaText = t.p.paint(fmt.Sprintf("%d (reduced)", delta), color.FgGreen)
	case delta > 0:
		deltaText = t.p.paint(fmt.Sprintf("+%d (increased, possible inlining expansion)", delta), color.FgYellow)
	default:
		deltaText = "0 (no change)"
	}
	t.line("  Instruction delta   : %s", deltaText)
	t.w.WriteByte('\n')

	if len(shown) == 0 {
		return
	}
	counts := diag.BagOf(shown).Counts()
	t.rule('-')
	t.line("  %s", t.p.paint("Missed Optimization Summary", color.FgCyan))
	t.rule('-')
	for sev := diag.SevCritical; sev <= diag.SevInfo; sev++ {
		if n := counts[sev]; n > 0 {
			t.line("  %s", t.p.paint(fmt.Sprintf("%s %-8s : %d", sev.Tag(), sev, n), severityAttrs(sev)...))
		}
	}
	t.w.WriteByte('\n')
}

func (t *termWriter) diagnostic(r *diag.Result) {
	t.rule('=')
	t.line("%s", t.p.paint(fmt.Sprintf("%s [%s] %s", r.Severity.Tag(), r.Severity, r.ShortReason), severityAttrs(r.Severity)...))
	t.line("  Pass     : %s", r.Pass)
	t.line("  Function : @%s", r.Function)
	if r.Location.IsValid() {
		t.line("  Location : %s", r.Location)
	}
	if r.Hotness != nil {
		t.line("  Hotness  : %g", *r.Hotness)
	}
	if r.EstimatedSpeedup > 0 {
		t.line("  Potential speedup if fixed: %s", t.p.paint(fmt.Sprintf("%.1fx", r.EstimatedSpeedup), color.FgGreen))
	}

	t.section("ROOT CAUSE", color.FgCyan)
	t.line("  %s", r.RootCause)
	t.section("WHAT THE OPTIMIZER WANTED TO DO", color.FgCyan)
	t.line("  %s", r.WhatOptimizerWanted)

	if t.opts.Verbose {
		t.section("DETAILED EXPLANATION", color.FgCyan)
		for l := range strings.SplitSeq(r.DetailedExplanation, "\n") {
			if l == "" {
				t.w.WriteByte('\n')
				continue
			}
			t.line("  %s", l)
		}
	}

	if t.opts.ShowSuggestions {
		t.suggestions(r.Suggestions)
	}
	if t.opts.ShowDiff && r.Diff != nil {
		t.functionDiff(r.Diff)
	}
	t.w.WriteByte('\n')
}

func (t *termWriter) suggestions(fixes []diag.Fix) {
	if len(fixes) == 0 {
		return
	}
	if n := t.opts.MaxSuggestions; n > 0 && len(fixes) > n {
		fixes = fixes[:n]
	}
	t.section("HOW TO FIX THIS", color.FgGreen, color.Bold)
	for i, f := range fixes {
		t.w.WriteString("\n  ")
		t.line("%s%s", t.p.paint(fmt.Sprintf("  %d. ", i+1), color.FgYellow), f.Description)
		if f.Code != "" {
			t.w.WriteByte('\n')
			for l := range strings.SplitSeq(f.Code, "\n") {
				t.line("      | %s", l)
			}
		}
		if f.IRLevel {
			t.line("     %s", t.p.paint(" [IR-level change]", color.FgCyan))
		}
	}
}

func (t *termWriter) functionDiff(fd *irdiff.FunctionDiff) {
	t.section("IR DIFF for @"+fd.Name, color.FgCyan)
	t.line("  blocks: %d -> %d   instructions: %d -> %d",
		fd.BeforeBlockCount, fd.AfterBlockCount, fd.BeforeInstrCount, fd.AfterInstrCount)
	t.w.WriteByte('\n')
	for i := range fd.Blocks {
		bd := &fd.Blocks[i]
		if bd.Kind == irdiff.Unchanged {
			continue
		}
		t.line("  %%%s:", bd.Name)
		writeInstrs(t.w, t.p, bd.Instructions, "    ", t.opts.Verbose)
	}
}

func (t *termWriter) footer(total int) {
	t.rule('=')
	t.line("  Total diagnostics: %d", total)
	t.line("  Run with --verbose for full explanations")
	t.line("  Run with --html=report.html for an interactive report")
	t.rule('=')
	t.w.WriteByte('\n')
}

type resultGroup struct {
	title string
	items []diag.Result
}

// group splits ranked results by function or pass. Groups appear in the
// order of their most severe member; members keep rank order.
func group(rs []diag.Result, by GroupBy) []resultGroup {
	if by == GroupNone {
		return []resultGroup{{items: rs}}
	}
	index := make(map[string]int)
	var out []resultGroup
	for _, r := range rs {
		var key, title string
		if by == GroupByFunction {
			key, title = r.Function, "Function @"+r.Function
		} else {
			key, title = r.Pass, "Pass "+r.Pass
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, resultGroup{title: title})
		}
		out[i].items = append(out[i].items, r)
	}
	return out
}
