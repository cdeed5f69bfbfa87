package ir

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// mdNode is one numbered specialized metadata node, e.g.
// !7 = !DILocation(line: 4, column: 10, scope: !3).
type mdNode struct {
	kind   string
	fields map[string]string
}

type metadata map[string]mdNode

const maxScopeDepth = 64

func (md metadata) add(line string) {
	id, body, ok := strings.Cut(line, " = ")
	if !ok || !isDigits(strings.TrimPrefix(id, "!")) {
		return
	}
	body = strings.TrimPrefix(strings.TrimSpace(body), "distinct ")
	if !strings.HasPrefix(body, "!DI") {
		return
	}
	open := strings.IndexByte(body, '(')
	if open < 0 {
		return
	}
	end := matching(body, open)
	if end < 0 {
		return
	}
	node := mdNode{kind: body[1:open], fields: make(map[string]string)}
	for _, f := range splitParams(body[open+1 : end]) {
		k, v, ok := strings.Cut(f, ":")
		if !ok {
			continue
		}
		node.fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	md[id] = node
}

// location resolves a DILocation reference to "file:line:col".
// Unresolvable references yield "".
func (md metadata) location(ref string) string {
	n, ok := md[ref]
	if !ok || n.kind != "DILocation" {
		return ""
	}
	line := uintField(n.fields["line"])
	col := uintField(n.fields["column"])
	return fmt.Sprintf("%s:%d:%d", md.filename(n.fields["scope"]), line, col)
}

// filename walks the scope chain up to the first node that names a file.
func (md metadata) filename(scope string) string {
	for range maxScopeDepth {
		n, ok := md[scope]
		if !ok {
			return ""
		}
		if n.kind == "DIFile" {
			return strings.Trim(n.fields["filename"], `"`)
		}
		if f, ok := n.fields["file"]; ok {
			if fn, ok := md[f]; ok && fn.kind == "DIFile" {
				return strings.Trim(fn.fields["filename"], `"`)
			}
		}
		next, ok := n.fields["scope"]
		if !ok {
			return ""
		}
		scope = next
	}
	return ""
}

func uintField(s string) uint32 {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0
	}
	return v
}
