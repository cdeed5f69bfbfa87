package diagfmt

import (
	"fmt"
	"html/template"
	"io"
	"strconv"

	"optdbg/internal/diag"
	"optdbg/internal/irdiff"
	"optdbg/internal/session"
)

type htmlDiffRow struct {
	Class  string
	Gutter string
	Text   string
}

type htmlDiag struct {
	Anchor   string
	Dot      string
	Result   diag.Result
	Speedup  string
	Fixes    []diag.Fix
	DiffRows []htmlDiffRow
}

type htmlPage struct {
	Title       string
	Pipeline    string
	RunID       string
	Remarks     int
	Missed      int
	Applied     int
	Functions   int
	Delta       int64
	Diagnostics []htmlDiag
}

func severityDot(s diag.Severity) string {
	switch s {
	case diag.SevCritical:
		return "sev-critical-dot"
	case diag.SevHigh:
		return "sev-high-dot"
	case diag.SevMedium:
		return "sev-medium-dot"
	case diag.SevLow:
		return "sev-low-dot"
	default:
		return "sev-info-dot"
	}
}

// diffRows flattens the changed blocks of fd into table rows. Unchanged
// instructions inside a changed block are kept for context.
func diffRows(fd *irdiff.FunctionDiff) []htmlDiffRow {
	var rows []htmlDiffRow
	for i := range fd.Blocks {
		bd := &fd.Blocks[i]
		if bd.Kind == irdiff.Unchanged {
			continue
		}
		rows = append(rows, htmlDiffRow{Class: "diff-meta", Gutter: "#", Text: "%" + bd.Name + ":"})
		for j := range bd.Instructions {
			d := &bd.Instructions[j]
			switch d.Kind {
			case irdiff.Unchanged:
				rows = append(rows, htmlDiffRow{Gutter: strconv.Itoa(j + 1), Text: "  " + d.Before.Text})
			case irdiff.Added:
				rows = append(rows, htmlDiffRow{Class: "diff-plus", Gutter: "+", Text: "  " + d.After.Text})
			case irdiff.Removed:
				rows = append(rows, htmlDiffRow{Class: "diff-minus", Gutter: "-", Text: "  " + d.Before.Text})
			case irdiff.Modified:
				rows = append(rows,
					htmlDiffRow{Class: "diff-minus", Gutter: "-", Text: "  " + d.Before.Text},
					htmlDiffRow{Class: "diff-plus", Gutter: "+", Text: "  " + d.After.Text})
			}
		}
	}
	return rows
}

// HTML writes a standalone report page. All text goes through
// html/template escaping.
func HTML(w io.Writer, s *session.Session, opts ReportOpts) error {
	shown := Select(s.Diagnostics, opts)
	missed, applied := s.Counts()
	page := htmlPage{
		Title:     "optdbg report",
		Pipeline:  s.Pipeline,
		RunID:     s.RunID,
		Remarks:   len(s.Remarks),
		Missed:    missed,
		Applied:   applied,
		Functions: s.Diff.Modified + s.Diff.Unchanged,
		Delta:     s.Diff.InstructionDelta(),
	}
	for i, r := range shown {
		d := htmlDiag{
			Anchor: fmt.Sprintf("diag-%d", i),
			Dot:    severityDot(r.Severity),
			Result: r,
		}
		if r.EstimatedSpeedup > 0.1 {
			d.Speedup = fmt.Sprintf("%.1fx", r.EstimatedSpeedup)
		}
		if opts.ShowSuggestions {
			d.Fixes = r.Suggestions
			if n := opts.MaxSuggestions; n > 0 && len(d.Fixes) > n {
				d.Fixes = d.Fixes[:n]
			}
		}
		if opts.ShowDiff && r.Diff != nil {
			d.DiffRows = diffRows(r.Diff)
		}
		page.Diagnostics = append(page.Diagnostics, d)
	}
	return htmlTemplate.Execute(w, page)
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #0b0e14; --surface: #151921; --surface-alt: #1c212b;
    --border: #2d333b; --border-bright: #444c56;
    --text: #adbac7; --text-muted: #768390; --text-bright: #cdd9e5;
    --red: #e5534b; --yellow: #d29922; --green: #57ab5a;
    --blue: #539bf5; --purple: #b083f0; --cyan: #39c5cf;
  }
  * { box-sizing: border-box; margin: 0; padding: 0; }
  body { background: var(--bg); color: var(--text); font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; line-height: 1.5; }
  .mono { font-family: ui-monospace, SFMono-Regular, Menlo, Consolas, monospace; }
  .sidebar { width: 300px; position: fixed; top: 0; bottom: 0; left: 0; background: var(--surface); border-right: 1px solid var(--border); overflow-y: auto; padding: 1.5rem; }
  .main { margin-left: 300px; padding: 2rem 3rem; }
  .brand { font-size: 1.1rem; font-weight: 700; color: var(--text-bright); margin-bottom: 2rem; }
  h1 { font-size: 1.5rem; font-weight: 600; color: var(--text-bright); margin-bottom: 0.5rem; }
  .report-meta { font-size: 0.85rem; color: var(--text-muted); margin-bottom: 2rem; }
  .stat-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 1rem; margin-bottom: 2.5rem; }
  .stat-card { background: var(--surface-alt); border: 1px solid var(--border); padding: 1rem; border-radius: 6px; }
  .stat-label { font-size: 0.75rem; font-weight: 600; text-transform: uppercase; color: var(--text-muted); margin-bottom: 0.5rem; }
  .stat-value { font-size: 1.4rem; font-weight: 700; color: var(--text-bright); }
  .nav-item { display: block; padding: 0.5rem 0.75rem; border-radius: 4px; color: var(--text-muted); text-decoration: none; font-size: 0.85rem; white-space: nowrap; overflow: hidden; text-overflow: ellipsis; }
  .nav-item:hover { background: var(--surface-alt); color: var(--text-bright); }
  .nav-group-label { font-size: 0.7rem; font-weight: 700; text-transform: uppercase; color: var(--border-bright); margin: 1.5rem 0 0.5rem 0.75rem; }
  .card { background: var(--surface); border: 1px solid var(--border); border-radius: 8px; margin-bottom: 2rem; overflow: hidden; }
  .card-header { padding: 1rem 1.5rem; background: var(--surface-alt); border-bottom: 1px solid var(--border); display: flex; align-items: center; gap: 1rem; }
  .card-body { padding: 1.5rem; }
  .severity-indicator { width: 8px; height: 8px; border-radius: 50%; }
  .sev-critical-dot { background: var(--red); box-shadow: 0 0 8px var(--red); }
  .sev-high-dot { background: var(--yellow); }
  .sev-medium-dot { background: var(--purple); }
  .sev-low-dot { background: var(--cyan); }
  .sev-info-dot { background: var(--text-muted); }
  .diag-title { font-weight: 600; color: var(--text-bright); }
  .diag-loc { font-size: 0.8rem; color: var(--text-muted); }
  .label-group { display: flex; gap: 0.5rem; margin-bottom: 1rem; }
  .label { font-size: 0.7rem; font-weight: 700; padding: 0.15rem 0.4rem; border-radius: 3px; background: var(--border); color: var(--text-muted); text-transform: uppercase; }
  .label-speedup { color: var(--green); }
  .content-section { margin-bottom: 1.5rem; }
  .content-label { font-size: 0.7rem; font-weight: 700; text-transform: uppercase; color: var(--blue); margin-bottom: 0.5rem; }
  .content-text { font-size: 0.95rem; white-space: pre-line; }
  .fix-container { background: #1c2433; border: 1px solid #3d4d6b; border-radius: 6px; padding: 1rem; border-left: 4px solid var(--blue); margin-bottom: 1.5rem; }
  .fix-item { margin-bottom: 1rem; }
  .fix-desc { font-size: 0.9rem; font-weight: 600; color: var(--text-bright); }
  pre { font-size: 0.85rem; padding: 1rem; background: var(--bg); border-radius: 4px; overflow-x: auto; border: 1px solid var(--border); margin-top: 0.5rem; }
  .diff-table { width: 100%; border-collapse: collapse; font-size: 0.8rem; }
  .diff-ln { width: 40px; text-align: right; padding-right: 1rem; color: var(--text-muted); user-select: none; border-right: 1px solid var(--border); }
  .diff-content { padding-left: 1rem; white-space: pre; }
  .diff-plus { color: var(--green); background: #1b2e1e; }
  .diff-minus { color: var(--red); background: #351a1a; }
  .diff-meta { color: var(--blue); background: #161b22; font-weight: bold; }
</style>
</head>
<body>
<div class="sidebar">
  <div class="brand">optdbg</div>
  <div class="nav-group-label">Navigation</div>
  <a href="#summary" class="nav-item">Summary</a>
{{- if .Diagnostics}}
  <div class="nav-group-label">Missed Optimizations</div>
{{- range .Diagnostics}}
  <a href="#{{.Anchor}}" class="nav-item">{{.Result.Pass}}: {{.Result.ShortReason}}</a>
{{- end}}
{{- end}}
</div>
<div class="main">
  <div id="summary">
    <h1>Why wasn't my code optimized?</h1>
    <div class="report-meta mono">Pipeline: {{.Pipeline}}{{if .RunID}} // Run: {{.RunID}}{{end}}</div>
    <div class="stat-grid">
      <div class="stat-card"><div class="stat-label">Remarks</div><div class="stat-value mono">{{.Remarks}}</div></div>
      <div class="stat-card"><div class="stat-label">Missed Opts</div><div class="stat-value mono" style="color:var(--red)">{{.Missed}}</div></div>
      <div class="stat-card"><div class="stat-label">Applied</div><div class="stat-value mono" style="color:var(--green)">{{.Applied}}</div></div>
      <div class="stat-card"><div class="stat-label">Functions</div><div class="stat-value mono">{{.Functions}}</div></div>
      <div class="stat-card"><div class="stat-label">Instr Delta</div><div class="stat-value mono">{{.Delta}}</div></div>
    </div>
  </div>
{{- range .Diagnostics}}
  <div id="{{.Anchor}}" class="card">
    <div class="card-header">
      <div class="severity-indicator {{.Dot}}"></div>
      <div class="diag-title">{{.Result.ShortReason}}</div>
{{- if .Result.Location.IsValid}}
      <div class="diag-loc mono">{{.Result.Location}}</div>
{{- end}}
    </div>
    <div class="card-body">
      <div class="label-group">
        <div class="label">{{.Result.Severity}}</div>
        <div class="label">{{.Result.Pass}}</div>
        <div class="label">@{{.Result.Function}}</div>
{{- if .Speedup}}
        <div class="label label-speedup">Estimated Speedup: {{.Speedup}}</div>
{{- end}}
      </div>
      <div class="content-section">
        <div class="content-label">Root Cause</div>
        <div class="content-text">{{.Result.RootCause}}</div>
      </div>
      <div class="content-section">
        <div class="content-label">Optimizer Intent</div>
        <div class="content-text">{{.Result.WhatOptimizerWanted}}</div>
      </div>
      <div class="content-section">
        <div class="content-label">Explanation</div>
        <div class="content-text">{{.Result.DetailedExplanation}}</div>
      </div>
{{- if .Fixes}}
      <div class="content-label">Actionable Resolutions</div>
      <div class="fix-container">
{{- range $i, $f := .Fixes}}
        <div class="fix-item">
          <div class="fix-desc">{{inc $i}}. {{$f.Description}}{{if $f.IRLevel}} [IR-level]{{end}}</div>
{{- if $f.Code}}
          <pre class="mono">{{$f.Code}}</pre>
{{- end}}
        </div>
{{- end}}
      </div>
{{- end}}
{{- if .DiffRows}}
      <div class="content-section">
        <div class="content-label">Structural IR Changes</div>
        <div class="card">
          <table class="diff-table mono">
{{- range .DiffRows}}
            <tr class="diff-row {{.Class}}"><td class="diff-ln">{{.Gutter}}</td><td class="diff-content">{{.Text}}</td></tr>
{{- end}}
          </table>
        </div>
      </div>
{{- end}}
    </div>
  </div>
{{- end}}
</div>
</body>
</html>
`))
