package diagfmt

import (
	"fmt"

	"optdbg/internal/diag"
)

// GroupBy selects how the terminal report groups diagnostics.
type GroupBy uint8

const (
	GroupNone GroupBy = iota
	GroupByFunction
	GroupByPass
)

func (g GroupBy) String() string {
	switch g {
	case GroupByFunction:
		return "function"
	case GroupByPass:
		return "pass"
	default:
		return "none"
	}
}

func ParseGroupBy(v string) (GroupBy, error) {
	switch v {
	case "", "none":
		return GroupNone, nil
	case "function":
		return GroupByFunction, nil
	case "pass":
		return GroupByPass, nil
	}
	return GroupNone, fmt.Errorf("unknown group-by %q (want none|function|pass)", v)
}

// ReportOpts configures every renderer in this package.
type ReportOpts struct {
	ShowDiff        bool
	ShowSuggestions bool
	Verbose         bool // adds DETAILED EXPLANATION and unchanged diff lines
	MissedOnly      bool // drop analysis remarks, keep missed ones
	GroupBy         GroupBy
	MaxSuggestions  int
	MinSeverity     diag.Severity
	SummaryOnly     bool
	Dedup           bool // one result per remark, location and reason
	Color           bool

	// doublestar patterns; empty means no filter
	FunctionGlobs []string
	PassGlobs     []string
}

func DefaultReportOpts() ReportOpts {
	return ReportOpts{
		ShowDiff:        true,
		ShowSuggestions: true,
		MaxSuggestions:  3,
		MinSeverity:     diag.SevLow,
		Color:           true,
	}
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
}
