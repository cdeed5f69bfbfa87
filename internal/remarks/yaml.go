package remarks

import (
	"strconv"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
)

// ParseYAML reads the record stream produced by -pass-remarks-output with
// -pass-remarks-format=yaml. Unknown record tags, records without a pass
// name and truncated trailing records are skipped, never reported.
func ParseYAML(data []byte) []Remark {
	content := string(data)
	var out []Remark
	pos := 0
	for pos < len(content) {
		start := strings.Index(content[pos:], "---")
		if start < 0 {
			break
		}
		start += pos
		end := len(content)
		if next := strings.Index(content[start+3:], "\n---"); next >= 0 {
			end = start + 3 + next + 1
		}
		pos = end

		r, ok := parseRecord(content[start:end])
		if ok {
			out = append(out, r)
		}
	}
	return out
}

func parseRecord(rec string) (Remark, bool) {
	var r Remark
	switch {
	case strings.HasPrefix(rec, "--- !Missed"):
		r.Kind = Missed
	case strings.HasPrefix(rec, "--- !Passed"):
		r.Kind = Applied
	case strings.HasPrefix(rec, "--- !Analysis"):
		r.Kind = Analysis
	default:
		return r, false
	}

	r.Pass = clean(field(rec, "Pass:"))
	r.Name = clean(field(rec, "Name:"))
	r.Function = clean(field(rec, "Function:"))
	if r.Pass == "" {
		return r, false
	}

	if argsPos := strings.Index(rec, "Args:"); argsPos >= 0 {
		r.Message, r.Args = parseArgs(rec, argsPos)
	}

	if strings.Contains(rec, "DebugLoc:") {
		r.Loc = Location{
			File:   clean(field(rec, "File:")),
			Line:   leadingUint(field(rec, "Line:")),
			Column: leadingUint(field(rec, "Column:")),
		}
	}

	if h := field(rec, "Hotness:"); h != "" {
		if v, err := strconv.ParseFloat(h, 64); err == nil {
			r.Hotness = &v
		}
	}
	r.IsMachine = IsMachinePass(r.Pass)
	return r, true
}

// field finds the first "Field:" at the record start or after a newline,
// blank or '{', and returns the rest of that line. A single-quoted value
// is unquoted; an unterminated quote yields "". Inside a flow mapping the
// value ends at the next ',' or '}'.
func field(rec, name string) string {
	at := -1
	for from := 0; from < len(rec); {
		i := strings.Index(rec[from:], name)
		if i < 0 {
			break
		}
		i += from
		if i == 0 || rec[i-1] == '\n' || rec[i-1] == ' ' || rec[i-1] == '{' {
			at = i
			break
		}
		from = i + 1
	}
	if at < 0 {
		return ""
	}
	lineEnd := strings.IndexByte(rec[at:], '\n')
	if lineEnd < 0 {
		lineEnd = len(rec)
	} else {
		lineEnd += at
	}
	rest := rec[at+len(name) : lineEnd]

	if q := strings.IndexByte(rest, '\''); q >= 0 {
		e := strings.IndexByte(rest[q+1:], '\'')
		if e < 0 {
			return ""
		}
		return rest[q+1 : q+1+e]
	}
	lineStart := strings.LastIndexByte(rec[:at], '\n') + 1
	if strings.Contains(rec[lineStart:at], "{") {
		if cut := strings.IndexAny(rest, ",}"); cut >= 0 {
			rest = rest[:cut]
		}
	}
	return strings.TrimSpace(rest)
}

// parseArgs walks the "- Key: value" lines after Args: and joins the
// values into one message. An indented DebugLoc under an entry belongs to
// that entry.
func parseArgs(rec string, argsPos int) (string, []Arg) {
	var (
		msg  strings.Builder
		args []Arg
	)
	search := argsPos + len("Args:")
	for search < len(rec) {
		lineEnd := strings.IndexByte(rec[search:], '\n')
		if lineEnd < 0 {
			lineEnd = len(rec)
		} else {
			lineEnd += search
		}
		line := rec[search:lineEnd]
		trimmed := strings.TrimSpace(line)
		next := lineEnd + 1

		if strings.HasPrefix(trimmed, "DebugLoc:") && len(args) > 0 && line != trimmed {
			args[len(args)-1].Loc = Location{
				File:   clean(field(trimmed, "File:")),
				Line:   leadingUint(field(trimmed, "Line:")),
				Column: leadingUint(field(trimmed, "Column:")),
			}
			search = next
			continue
		}
		if !strings.HasPrefix(trimmed, "-") && trimmed != "" && search > argsPos+len("Args:")+1 {
			break
		}

		if vp := strings.Index(line, ": "); vp >= 0 {
			val := strings.TrimSpace(line[vp+2:])
			piece := val
			if len(val) >= 2 && strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'") {
				piece = val[1 : len(val)-1]
			}
			piece = clean(piece)

			cur := msg.String()
			if cur != "" && !strings.HasSuffix(cur, " ") && piece != "" && !strings.HasPrefix(piece, " ") {
				msg.WriteByte(' ')
			}
			msg.WriteString(piece)

			key := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line[:vp]), "-"))
			if key != "" {
				args = append(args, Arg{Key: key, Value: piece})
			}
		}
		search = next
	}
	return msg.String(), args
}

// leadingUint parses leading decimal digits; anything else is 0.
func leadingUint(s string) uint32 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.ParseUint(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0
	}
	return v
}

func clean(s string) string {
	return norm.NFC.String(s)
}
