package ir

import (
	"fmt"
	"strings"
)

var linkages = map[string]struct{}{
	"private": {}, "internal": {}, "available_externally": {}, "linkonce": {},
	"weak": {}, "common": {}, "appending": {}, "extern_weak": {},
	"linkonce_odr": {}, "weak_odr": {}, "external": {},
}

var visibilities = map[string]struct{}{
	"default": {}, "hidden": {}, "protected": {},
}

// tokens that carry no signature meaning for the diff
var ignoredPrefix = map[string]struct{}{
	"dso_local": {}, "dso_preemptable": {}, "dllimport": {}, "dllexport": {},
}

var returnAttrs = map[string]struct{}{
	"noundef": {}, "zeroext": {}, "signext": {}, "inreg": {}, "noalias": {},
	"nonnull": {}, "dereferenceable": {}, "dereferenceable_or_null": {},
	"align": {}, "range": {}, "nofpclass": {}, "noext": {},
}

// header parses everything after "define "/"declare " on a function line.
func (p *parser) header(rest string, decl bool) (*pendingFunc, error) {
	rest = strings.TrimSpace(rest)
	at := strings.IndexByte(rest, '@')
	if at < 0 {
		return nil, p.errorf("function header without a name")
	}
	name, tail, err := globalName(rest[at+1:])
	if err != nil {
		return nil, p.errorf("%v", err)
	}
	if !strings.HasPrefix(tail, "(") {
		return nil, p.errorf("missing parameter list for @%s", name)
	}
	end := matching(tail, 0)
	if end < 0 {
		return nil, p.errorf("unbalanced parameter list for @%s", name)
	}

	fn := &Function{Name: name, Declaration: decl}
	pf := &pendingFunc{fn: fn}

	var retType, retAttrs []string
	prefix := splitTop(rest[:at])
	for i := 0; i < len(prefix); i++ {
		tok := prefix[i]
		if _, ok := linkages[tok]; ok {
			fn.Linkage = tok
			continue
		}
		if _, ok := visibilities[tok]; ok {
			fn.Visibility = tok
			continue
		}
		if _, ok := ignoredPrefix[tok]; ok {
			continue
		}
		if tok == "cc" && i+1 < len(prefix) {
			fn.CallConv = "cc " + prefix[i+1]
			i++
			continue
		}
		if len(retType) == 0 && strings.HasSuffix(tok, "cc") {
			fn.CallConv = tok
			continue
		}
		if isAttr(tok, returnAttrs) {
			retAttrs = append(retAttrs, tok)
			if tok == "align" && i+1 < len(prefix) {
				retAttrs[len(retAttrs)-1] += " " + prefix[i+1]
				i++
			}
			continue
		}
		retType = append(retType, tok)
	}
	if len(retType) == 0 {
		return nil, p.errorf("missing return type for @%s", name)
	}

	var params []string
	for idx, raw := range splitParams(tail[1:end]) {
		ty, attrs := paramType(raw)
		if ty == "" {
			continue
		}
		params = append(params, ty)
		if len(attrs) > 0 {
			pf.extra = append(pf.extra, fmt.Sprintf("arg%d: %s", idx, strings.Join(attrs, " ")))
		}
	}
	if len(retAttrs) > 0 {
		pf.extra = append([]string{"ret: " + strings.Join(retAttrs, " ")}, pf.extra...)
	}
	fn.Type = strings.Join(retType, " ") + " (" + strings.Join(params, ", ") + ")"

	suffix := splitTop(tail[end+1:])
	for i := 0; i < len(suffix); i++ {
		tok := suffix[i]
		if strings.HasPrefix(tok, "!") {
			// metadata attachment: "!dbg !12"
			i++
			continue
		}
		pf.fnAttrs = append(pf.fnAttrs, tok)
	}
	return pf, nil
}

func isAttr(tok string, set map[string]struct{}) bool {
	name := tok
	if i := strings.IndexByte(tok, '('); i > 0 {
		name = tok[:i]
	}
	_, ok := set[name]
	return ok
}

// globalName reads a global identifier after '@', quoted or bare.
func globalName(s string) (name, tail string, err error) {
	if strings.HasPrefix(s, `"`) {
		end := strings.IndexByte(s[1:], '"')
		if end < 0 {
			return "", "", fmt.Errorf("unterminated quoted function name")
		}
		return s[1 : end+1], s[end+2:], nil
	}
	end := strings.IndexByte(s, '(')
	if end < 0 {
		end = len(s)
	}
	name = strings.TrimSpace(s[:end])
	if name == "" {
		return "", "", fmt.Errorf("empty function name")
	}
	return name, s[end:], nil
}

// paramType splits one parameter into its type and attribute tokens.
// The parameter name, if any, is dropped.
func paramType(raw string) (string, []string) {
	toks := splitTop(raw)
	if len(toks) == 0 {
		return "", nil
	}
	ty := toks[0]
	i := 1
	for i < len(toks) && (strings.HasPrefix(toks[i], "addrspace(") || toks[i] == "*" || strings.HasPrefix(toks[i], "(")) {
		ty += " " + toks[i]
		i++
	}
	var attrs []string
	for ; i < len(toks); i++ {
		tok := toks[i]
		if strings.HasPrefix(tok, "%") {
			continue
		}
		attrs = append(attrs, tok)
	}
	return ty, attrs
}

// splitTop splits on blanks outside brackets and quotes.
func splitTop(s string) []string {
	var out []string
	depth := 0
	inQuote := false
	start := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote:
			if c == '"' {
				inQuote = false
			}
		case c == '"':
			inQuote = true
		case c == '(' || c == '[' || c == '{' || c == '<':
			depth++
		case c == ')' || c == ']' || c == '}' || c == '>':
			if depth > 0 {
				depth--
			}
		case (c == ' ' || c == '\t') && depth == 0:
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// splitParams splits a parameter list on top-level commas.
func splitParams(s string) []string {
	var out []string
	depth := 0
	inQuote := false
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote:
			if c == '"' {
				inQuote = false
			}
		case c == '"':
			inQuote = true
		case c == '(' || c == '[' || c == '{' || c == '<':
			depth++
		case c == ')' || c == ']' || c == '}' || c == '>':
			if depth > 0 {
				depth--
			}
		case c == ',' && depth == 0:
			out = append(out, strings.TrimSpace(s[last:i]))
			last = i + 1
		}
	}
	if tail := strings.TrimSpace(s[last:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

// matching returns the index of the bracket closing s[open], or -1.
func matching(s string, open int) int {
	depth := 0
	inQuote := false
	for i := open; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote:
			if c == '"' {
				inQuote = false
			}
		case c == '"':
			inQuote = true
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
