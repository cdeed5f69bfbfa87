package diag

import (
	"optdbg/internal/irdiff"
	"optdbg/internal/remarks"
)

// Fix is one suggested change. A fix may apply at source level, IR level
// or both.
type Fix struct {
	Description string `json:"description" msgpack:"description" yaml:"description"`
	Code        string `json:"code,omitempty" msgpack:"code" yaml:"code"`
	SourceLevel bool   `json:"source_level" msgpack:"source_level" yaml:"source"`
	IRLevel     bool   `json:"ir_level" msgpack:"ir_level" yaml:"ir"`
}

// SourceFix builds a source-level suggestion.
func SourceFix(desc, code string) Fix {
	return Fix{Description: desc, Code: code, SourceLevel: true}
}

// IRFix builds an IR-level suggestion.
func IRFix(desc, code string) Fix {
	return Fix{Description: desc, Code: code, IRLevel: true}
}

// CloneFixes copies a fix slice so results never share catalog storage.
func CloneFixes(fs []Fix) []Fix {
	if len(fs) == 0 {
		return nil
	}
	return append([]Fix(nil), fs...)
}

// Result is the explanation produced for one remark.
type Result struct {
	Pattern    string           `json:"pattern,omitempty" msgpack:"pattern"` // empty for the fallback
	Pass       string           `json:"pass" msgpack:"pass"`
	RemarkName string           `json:"remark" msgpack:"remark"`
	Function   string           `json:"function" msgpack:"function"`
	Kind       remarks.Kind     `json:"kind" msgpack:"kind"`
	Location   remarks.Location `json:"location" msgpack:"location"`

	ShortReason         string `json:"short_reason" msgpack:"short_reason"`
	DetailedExplanation string `json:"detailed_explanation" msgpack:"detailed_explanation"`
	RootCause           string `json:"root_cause" msgpack:"root_cause"`
	WhatOptimizerWanted string `json:"what_optimizer_wanted" msgpack:"what_optimizer_wanted"`

	Suggestions []Fix    `json:"suggestions,omitempty" msgpack:"suggestions"`
	Severity    Severity `json:"severity" msgpack:"severity"`

	Diff             *irdiff.FunctionDiff `json:"diff,omitempty" msgpack:"diff"`
	EstimatedSpeedup float64              `json:"estimated_speedup" msgpack:"estimated_speedup"`
	IsMachine        bool                 `json:"is_machine,omitempty" msgpack:"is_machine"`
	Hotness          *float64             `json:"hotness,omitempty" msgpack:"hotness"`
}

// IsFallback reports whether no catalog pattern matched.
func (r *Result) IsFallback() bool {
	return r.Pattern == ""
}

// RuleID names the rule for machine-readable output.
func (r *Result) RuleID() string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "fallback/" + r.Pass
}
