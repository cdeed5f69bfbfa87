package ir

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrBitcode is returned for binary bitcode input. Callers disassemble it first.
var ErrBitcode = errors.New("bitcode input is not supported by the text reader")

var (
	bitcodeMagic        = []byte{'B', 'C', 0xC0, 0xDE}
	bitcodeWrapperMagic = []byte{0xDE, 0xC0, 0x17, 0x0B}
)

// ParseError describes malformed IR text.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// IsBitcode reports whether data starts with a bitcode magic number.
func IsBitcode(data []byte) bool {
	return bytes.HasPrefix(data, bitcodeMagic) || bytes.HasPrefix(data, bitcodeWrapperMagic)
}

// ParseFile reads and parses a textual IR file.
func ParseFile(path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read IR file %q: %w", path, err)
	}
	return ParseBytes(path, data)
}

// Parse reads textual IR from r. name is used in error messages.
func Parse(name string, r io.Reader) (*Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read IR %q: %w", name, err)
	}
	return ParseBytes(name, data)
}

// ParseBytes parses textual IR held in memory.
func ParseBytes(name string, data []byte) (*Module, error) {
	if IsBitcode(data) {
		return nil, fmt.Errorf("%s: %w", name, ErrBitcode)
	}
	p := &parser{
		file:       name,
		mod:        &Module{Name: name},
		attrGroups: make(map[string]string),
		md:         make(metadata),
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		p.line++
		if err := p.handle(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if p.cur != nil {
		return nil, p.errorf("unterminated body of function @%s", p.cur.fn.Name)
	}
	p.finish()
	return p.mod, nil
}

type pendingFunc struct {
	fn      *Function
	fnAttrs []string
	extra   []string // ret/param attribute groups, already canonical
}

type parser struct {
	file       string
	line       int
	mod        *Module
	attrGroups map[string]string
	md         metadata
	cur        *pendingFunc
	funcs      []*pendingFunc
	// depth of '[' left open by the last instruction, e.g. a switch case list
	open int
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{File: p.file, Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) handle(raw string) error {
	if p.cur != nil {
		return p.handleBody(raw)
	}
	line := strings.TrimSpace(raw)
	switch {
	case line == "":
	case strings.HasPrefix(line, "; ModuleID = "):
		p.mod.Name = strings.Trim(strings.TrimPrefix(line, "; ModuleID = "), "'")
	case strings.HasPrefix(line, "source_filename = "):
		p.mod.SourceFile = strings.Trim(strings.TrimPrefix(line, "source_filename = "), `"`)
	case strings.HasPrefix(line, "define "):
		if !strings.HasSuffix(line, "{") {
			return p.errorf("function header without opening brace")
		}
		pf, err := p.header(strings.TrimSuffix(strings.TrimPrefix(line, "define "), "{"), false)
		if err != nil {
			return err
		}
		p.cur = pf
	case strings.HasPrefix(line, "declare "):
		pf, err := p.header(strings.TrimPrefix(line, "declare "), true)
		if err != nil {
			return err
		}
		p.commit(pf)
	case strings.HasPrefix(line, "attributes #"):
		p.attributeGroup(line)
	case strings.HasPrefix(line, "!"):
		p.md.add(line)
	}
	return nil
}

func (p *parser) handleBody(raw string) error {
	line := strings.TrimSpace(raw)
	fn := p.cur.fn
	switch {
	case line == "":
		return nil
	case line == "}":
		p.commit(p.cur)
		p.cur = nil
		p.open = 0
		return nil
	case strings.HasPrefix(line, "; <label>:"):
		// старый формат безымянных блоков
		fn.Blocks = append(fn.Blocks, Block{})
		return nil
	case strings.HasPrefix(line, ";"):
		return nil
	}

	indented := raw[0] == ' ' || raw[0] == '\t'
	if indented && len(fn.Blocks) > 0 && (p.open > 0 || isContinuation(line)) {
		b := &fn.Blocks[len(fn.Blocks)-1]
		if n := len(b.Instrs); n > 0 {
			in := &b.Instrs[n-1]
			in.Text += " " + line
			in.DebugLoc = dbgRef(in.Text)
			p.open = max(0, p.open+bracketDelta(line))
			return nil
		}
	}

	if !indented {
		p.open = 0
		name, ok := labelName(line)
		if !ok {
			return p.errorf("malformed block label %q in @%s", line, fn.Name)
		}
		fn.Blocks = append(fn.Blocks, Block{Name: name})
		return nil
	}

	if len(fn.Blocks) == 0 {
		fn.Blocks = append(fn.Blocks, Block{})
	}
	text := strings.TrimRight(strings.TrimLeft(raw, " \t"), " \t")
	inst := Instruction{Text: text, Opcode: opcodeOf(text), DebugLoc: dbgRef(text)}
	b := &fn.Blocks[len(fn.Blocks)-1]
	b.Instrs = append(b.Instrs, inst)
	p.open = max(0, bracketDelta(text))
	return nil
}

// isContinuation reports lines LLVM prints under a multi-line instruction:
// the invoke destinations and landingpad clauses.
func isContinuation(line string) bool {
	switch {
	case strings.HasPrefix(line, "to label "):
	case strings.HasPrefix(line, "catch "), strings.HasPrefix(line, "filter "):
	case line == "cleanup":
	default:
		return false
	}
	return true
}

// bracketDelta counts '[' minus ']' outside quoted strings.
func bracketDelta(s string) int {
	d := 0
	quoted := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			quoted = !quoted
		case '[':
			if !quoted {
				d++
			}
		case ']':
			if !quoted {
				d--
			}
		}
	}
	return d
}

func (p *parser) commit(pf *pendingFunc) {
	p.mod.Functions = append(p.mod.Functions, pf.fn)
	p.funcs = append(p.funcs, pf)
}

func (p *parser) attributeGroup(line string) {
	rest := strings.TrimPrefix(line, "attributes ")
	id, body, ok := strings.Cut(rest, " = ")
	if !ok {
		return
	}
	body = strings.TrimSpace(body)
	body = strings.TrimPrefix(body, "{")
	body = strings.TrimSuffix(body, "}")
	p.attrGroups[strings.TrimSpace(id)] = strings.TrimSpace(body)
}

// finish expands attribute groups and resolves debug locations once the
// whole file has been read; both are declared after their uses.
func (p *parser) finish() {
	for _, pf := range p.funcs {
		attrs := make([]string, 0, len(pf.fnAttrs))
		for _, tok := range pf.fnAttrs {
			if strings.HasPrefix(tok, "#") {
				if g, ok := p.attrGroups[tok]; ok {
					attrs = append(attrs, g)
					continue
				}
			}
			attrs = append(attrs, tok)
		}
		var parts []string
		if len(attrs) > 0 {
			parts = append(parts, strings.Join(attrs, " "))
		}
		parts = append(parts, pf.extra...)
		pf.fn.Attrs = strings.Join(parts, "; ")

		for bi := range pf.fn.Blocks {
			b := &pf.fn.Blocks[bi]
			for ii := range b.Instrs {
				if ref := b.Instrs[ii].DebugLoc; ref != "" {
					b.Instrs[ii].DebugLoc = p.md.location(ref)
				}
			}
		}
	}
}

// labelName extracts a block label. Numeric labels are unnamed.
func labelName(line string) (string, bool) {
	var name string
	if strings.HasPrefix(line, `"`) {
		end := strings.Index(line[1:], `":`)
		if end < 0 {
			return "", false
		}
		name = line[1 : end+1]
	} else {
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			return "", false
		}
		name = line[:colon]
		if strings.ContainsAny(name, " \t") {
			return "", false
		}
	}
	if isDigits(name) {
		return "", true
	}
	return name, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func opcodeOf(text string) string {
	fields := strings.Fields(text)
	i := 0
	if len(fields) > 2 && fields[1] == "=" && strings.HasPrefix(fields[0], "%") {
		i = 2
	}
	if i < len(fields) {
		switch fields[i] {
		case "tail", "musttail", "notail":
			i++
		}
	}
	if i >= len(fields) {
		return ""
	}
	return strings.TrimSuffix(fields[i], ",")
}

// dbgRef returns the "!N" reference of a !dbg attachment, or "".
func dbgRef(text string) string {
	idx := strings.Index(text, "!dbg !")
	if idx < 0 {
		return ""
	}
	ref := text[idx+len("!dbg "):]
	end := 1
	for end < len(ref) && ref[end] >= '0' && ref[end] <= '9' {
		end++
	}
	if end == 1 {
		return ""
	}
	return ref[:end]
}
