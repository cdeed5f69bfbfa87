package diagfmt

import (
	"encoding/json"
	"io"
	"time"

	"optdbg/internal/diag"
	"optdbg/internal/irdiff"
	"optdbg/internal/session"
)

// SummaryJSON mirrors the terminal header counts.
type SummaryJSON struct {
	Remarks            int            `json:"remarks"`
	Missed             int            `json:"missed"`
	Applied            int            `json:"applied"`
	InstructionDelta   int64          `json:"instruction_delta"`
	BySeverity         map[string]int `json:"by_severity"`
	VerificationFailed bool           `json:"verification_failed,omitempty"`
}

// ReportOutput is the root of the JSON report.
type ReportOutput struct {
	RunID       string             `json:"run_id"`
	CreatedAt   time.Time          `json:"created_at"`
	Pipeline    string             `json:"pipeline"`
	Summary     SummaryJSON        `json:"summary"`
	Diff        *irdiff.ModuleDiff `json:"diff,omitempty"`
	Diagnostics []diag.Result      `json:"diagnostics"`
	Count       int                `json:"count"`
}

// BuildReportOutput assembles the JSON report without serializing it.
// Suggestions are capped and per-result diffs dropped according to opts.
func BuildReportOutput(s *session.Session, opts ReportOpts) ReportOutput {
	shown := Select(s.Diagnostics, opts)
	for i := range shown {
		r := &shown[i]
		if !opts.ShowSuggestions {
			r.Suggestions = nil
		} else if n := opts.MaxSuggestions; n > 0 && len(r.Suggestions) > n {
			r.Suggestions = r.Suggestions[:n:n]
		}
		if !opts.ShowDiff {
			r.Diff = nil
		}
	}

	missed, applied := s.Counts()
	counts := diag.BagOf(shown).Counts()
	bySev := make(map[string]int, diag.NumSeverities)
	for sev := diag.SevCritical; sev <= diag.SevInfo; sev++ {
		bySev[sev.String()] = counts[sev]
	}

	out := ReportOutput{
		RunID:     s.RunID,
		CreatedAt: s.CreatedAt,
		Pipeline:  s.Pipeline,
		Summary: SummaryJSON{
			Remarks:            len(s.Remarks),
			Missed:             missed,
			Applied:            applied,
			InstructionDelta:   s.Diff.InstructionDelta(),
			BySeverity:         bySev,
			VerificationFailed: s.VerificationFailed,
		},
		Diagnostics: shown,
		Count:       len(shown),
	}
	if opts.ShowDiff && !opts.SummaryOnly {
		out.Diff = &s.Diff
	}
	if opts.SummaryOnly {
		out.Diagnostics = []diag.Result{}
	}
	return out
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, s *session.Session, opts ReportOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildReportOutput(s, opts))
}
