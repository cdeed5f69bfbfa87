// Package remarks models optimization remarks and reads them from the
// YAML records written by -pass-remarks-output and from -Rpass text.
package remarks

import (
	"fmt"
	"strings"
)

// Kind is the outcome a pass reported.
type Kind uint8

const (
	Applied Kind = iota
	Missed
	Analysis
	AnalysisAliasing
	AnalysisFPCommute
)

func (k Kind) String() string {
	switch k {
	case Applied:
		return "applied"
	case Missed:
		return "missed"
	case Analysis:
		return "analysis"
	case AnalysisAliasing:
		return "analysis-aliasing"
	case AnalysisFPCommute:
		return "analysis-fpcommute"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for c := Applied; c <= AnalysisFPCommute; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown remark kind %q", b)
}

// Location is a source position. An empty File means unknown.
type Location struct {
	File   string `json:"file" msgpack:"file"`
	Line   uint32 `json:"line" msgpack:"line"`
	Column uint32 `json:"column" msgpack:"column"`
}

func (l Location) IsValid() bool { return l.File != "" }

func (l Location) String() string {
	if !l.IsValid() {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Arg is one named argument of a remark, e.g. Callee or Cost.
type Arg struct {
	Key   string   `json:"key" msgpack:"key"`
	Value string   `json:"value" msgpack:"value"`
	Loc   Location `json:"loc,omitzero" msgpack:"loc"`
}

// Remark is a single optimization remark.
type Remark struct {
	Kind      Kind     `json:"kind" msgpack:"kind"`
	Pass      string   `json:"pass" msgpack:"pass"`
	Name      string   `json:"name" msgpack:"name"`
	Function  string   `json:"function" msgpack:"function"`
	Loc       Location `json:"loc" msgpack:"loc"`
	Message   string   `json:"message" msgpack:"message"`
	Args      []Arg    `json:"args,omitempty" msgpack:"args"`
	Hotness   *float64 `json:"hotness,omitempty" msgpack:"hotness"`
	IsMachine bool     `json:"is_machine,omitempty" msgpack:"is_machine"`
}

func (r *Remark) IsMissed() bool  { return r.Kind == Missed }
func (r *Remark) IsApplied() bool { return r.Kind == Applied }

// IsAnalysis covers all analysis kinds.
func (r *Remark) IsAnalysis() bool {
	return r.Kind == Analysis || r.Kind == AnalysisAliasing || r.Kind == AnalysisFPCommute
}

// Arg returns the value of the first argument named key.
func (r *Remark) Arg(key string) (string, bool) {
	for _, a := range r.Args {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

var machinePasses = map[string]struct{}{
	"regalloc":        {},
	"asm-printer":     {},
	"prologepilog":    {},
	"block-placement": {},
	"shrink-wrap":     {},
	"early-ifcvt":     {},
	"tailduplication": {},
	"stack-coloring":  {},
	"branch-folder":   {},
	"postra-sched":    {},
	"pipeliner":       {},
	"size-info":       {},
	"sdagisel":        {},
	"gisel-select":    {},
}

// IsMachinePass guesses whether a pass runs on machine IR. YAML records do
// not carry this bit, so the decision is made from the pass name.
func IsMachinePass(pass string) bool {
	if strings.HasPrefix(pass, "machine") {
		return true
	}
	_, ok := machinePasses[pass]
	return ok
}
