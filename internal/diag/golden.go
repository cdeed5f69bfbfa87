package diag

import (
	"fmt"
	"strings"
)

// FormatShort renders results one per line in their current order:
//
//	HIGH inline/TooCostly @main a.c:3:5: Function too costly to inline
//
// The output is stable and used by golden tests and --format=short.
func FormatShort(rs []Result) string {
	var b strings.Builder
	for i := range rs {
		r := &rs[i]
		fmt.Fprintf(&b, "%s %s/%s @%s %s: %s",
			r.Severity, r.Pass, r.RemarkName, r.Function, r.Location.String(), sanitizeMessage(r.ShortReason))
		if i < len(rs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
