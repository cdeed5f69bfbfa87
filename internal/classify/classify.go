// Package classify turns optimization remarks into ranked explanations by
// matching them against a pattern catalog.
package classify

import (
	"strings"

	"golang.org/x/text/cases"

	"optdbg/internal/catalog"
	"optdbg/internal/diag"
	"optdbg/internal/irdiff"
	"optdbg/internal/remarks"
)

// Matcher weights. The message matcher is the most specific.
const (
	weightPass    = 2
	weightRemark  = 3
	weightMessage = 4
)

// Classifier is safe for concurrent use; it never mutates the catalog.
type Classifier struct {
	cat *catalog.Catalog
}

// New returns a classifier over cat. A nil catalog means catalog.Builtin().
func New(cat *catalog.Catalog) *Classifier {
	if cat == nil {
		cat = catalog.Builtin()
	}
	return &Classifier{cat: cat}
}

func (c *Classifier) Catalog() *catalog.Catalog {
	return c.cat
}

// contains is a case-insensitive substring test.
func contains(haystack, needle string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(haystack), fold.String(needle))
}

// score returns the pattern score for r, or -1 when a non-empty matcher
// rejects it.
func score(p *catalog.Pattern, r *remarks.Remark) int {
	s := 0
	if p.Pass != "" {
		if !contains(r.Pass, p.Pass) {
			return -1
		}
		s += weightPass
	}
	if p.Remark != "" {
		if !contains(r.Name, p.Remark) {
			return -1
		}
		s += weightRemark
	}
	if p.Message != "" {
		if !contains(r.Message, p.Message) {
			return -1
		}
		s += weightMessage
	}
	return s
}

// Match returns the best scoring pattern for r. On equal scores the
// pattern registered first wins.
func (c *Classifier) Match(r *remarks.Remark) (catalog.Pattern, int, bool) {
	best := -1
	var bestPat catalog.Pattern
	for _, p := range c.cat.All() {
		if s := score(&p, r); s > best {
			best = s
			bestPat = p
		}
	}
	if best < 0 {
		return catalog.Pattern{}, -1, false
	}
	return bestPat, best, true
}

// Classify explains a single remark.
func (c *Classifier) Classify(r *remarks.Remark) diag.Result {
	res := diag.Result{
		Pass:       r.Pass,
		RemarkName: r.Name,
		Function:   r.Function,
		Kind:       r.Kind,
		Location:   r.Loc,
		IsMachine:  r.IsMachine,
	}
	if r.Hotness != nil {
		h := *r.Hotness
		res.Hotness = &h
	}

	p, _, ok := c.Match(r)
	if !ok {
		res.ShortReason = "Optimization missed: " + r.Name
		res.DetailedExplanation = "Pass '" + r.Pass + "' reported a missed optimization with remark '" +
			r.Name + "'. The raw message from the pass is: " + r.Message +
			"\n\nThis remark does not have a detailed explanation in the optdbg database yet. " +
			"The raw remark information above should point you toward the issue."
		res.RootCause = "See raw message: " + r.Message
		res.WhatOptimizerWanted = "The " + r.Pass + " pass attempted a transformation that was blocked by a precondition."
		res.Severity = diag.SevMedium
		res.EstimatedSpeedup = 0
		return res
	}

	res.Pattern = p.ID
	res.ShortReason = p.ShortReason
	res.DetailedExplanation = Interpolate(p.DetailedExplanation, r)
	res.RootCause = Interpolate(p.RootCause, r)
	res.WhatOptimizerWanted = Interpolate(p.WhatOptimizerWanted, r)
	res.Suggestions = diag.CloneFixes(p.Fixes)
	res.Severity = p.Severity
	res.EstimatedSpeedup = p.Speedup
	return res
}

// Interpolate replaces {Key} placeholders with remark argument values,
// one argument at a time in argument order, then {FunctionName} with the
// remark's function. Each pass runs left to right and does not rescan the
// text it inserted. Unknown placeholders are left as they are.
func Interpolate(tmpl string, r *remarks.Remark) string {
	out := tmpl
	for _, a := range r.Args {
		out = strings.ReplaceAll(out, "{"+a.Key+"}", a.Value)
	}
	return strings.ReplaceAll(out, "{FunctionName}", r.Function)
}

// Analyze classifies every non-applied remark, attaches the matching
// function diff when md has one, and ranks the results by severity.
func (c *Classifier) Analyze(rs []remarks.Remark, md *irdiff.ModuleDiff) []diag.Result {
	out := make([]diag.Result, 0, len(rs))
	for i := range rs {
		r := &rs[i]
		if r.IsApplied() {
			continue
		}
		res := c.Classify(r)
		if fd := md.Function(r.Function); fd != nil {
			cp := fd.Clone()
			res.Diff = &cp
		}
		out = append(out, res)
	}
	diag.Rank(out)
	return out
}
