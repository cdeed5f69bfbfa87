package diagfmt

import (
	"github.com/bmatcuk/doublestar/v4"

	"optdbg/internal/diag"
	"optdbg/internal/remarks"
)

// Select returns the diagnostics a report should show, keeping rank order.
// Malformed globs never match.
func Select(rs []diag.Result, opts ReportOpts) []diag.Result {
	ranked := diag.BagOf(rs).Filter(opts.MinSeverity).Items()
	out := diag.NewBag(len(ranked))
	for i := range ranked {
		r := &ranked[i]
		if opts.MissedOnly && r.Kind != remarks.Missed {
			continue
		}
		if !matchAny(opts.FunctionGlobs, r.Function) || !matchAny(opts.PassGlobs, r.Pass) {
			continue
		}
		out.Add(*r)
	}
	if opts.Dedup {
		out.Dedup()
	}
	return out.Items()
}

func matchAny(globs []string, name string) bool {
	if len(globs) == 0 {
		return true
	}
	for _, g := range globs {
		if ok, err := doublestar.Match(g, name); err == nil && ok {
			return true
		}
	}
	return false
}
