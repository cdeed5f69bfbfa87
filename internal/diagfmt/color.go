package diagfmt

import (
	"github.com/fatih/color"

	"optdbg/internal/diag"
	"optdbg/internal/irdiff"
)

// painter colors text only when enabled, regardless of color.NoColor, so
// output to files and tests stays deterministic.
type painter bool

func (p painter) paint(s string, attrs ...color.Attribute) string {
	if !p {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

func severityAttrs(s diag.Severity) []color.Attribute {
	switch s {
	case diag.SevCritical:
		return []color.Attribute{color.FgRed, color.Bold}
	case diag.SevHigh:
		return []color.Attribute{color.FgYellow, color.Bold}
	case diag.SevMedium:
		return []color.Attribute{color.FgMagenta}
	case diag.SevLow:
		return []color.Attribute{color.FgCyan}
	default:
		return []color.Attribute{color.FgWhite}
	}
}

func kindAttr(k irdiff.Kind) color.Attribute {
	switch k {
	case irdiff.Added:
		return color.FgGreen
	case irdiff.Removed:
		return color.FgRed
	case irdiff.Modified:
		return color.FgYellow
	default:
		return color.FgWhite
	}
}
