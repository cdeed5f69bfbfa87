package ir

import (
	"errors"
	"strings"
	"testing"
)

const sample = `; ModuleID = 'sample.c'
source_filename = "sample.c"
target triple = "x86_64-unknown-linux-gnu"

; Function Attrs: noinline nounwind
define dso_local i32 @sum(ptr noundef %a, i32 noundef %n) #0 !dbg !10 {
entry:
  %cmp = icmp sgt i32 %n, 0, !dbg !14
  br i1 %cmp, label %loop, label %exit

loop:                                             ; preds = %loop, %entry
  %i = phi i32 [ 0, %entry ], [ %inc, %loop ]
  %inc = add nsw i32 %i, 1
  %done = icmp eq i32 %inc, %n
  br i1 %done, label %exit, label %loop

exit:
  ret i32 0
}

define internal fastcc void @"odd name"() {
  %1 = tail call i32 @helper(i32 1)
  br label %2

2:
  ret void
}

declare i32 @helper(i32 noundef) #1

attributes #0 = { noinline nounwind "frame-pointer"="all" }
attributes #1 = { nounwind }

!1 = !DIFile(filename: "sample.c", directory: "/tmp")
!10 = distinct !DISubprogram(name: "sum", scope: !1, file: !1, line: 2, unit: !0)
!12 = distinct !DILexicalBlock(scope: !10, line: 3, column: 5)
!14 = !DILocation(line: 3, column: 9, scope: !12)
`

func TestParseSample(t *testing.T) {
	m, err := ParseBytes("sample.ll", []byte(sample))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if m.Name != "sample.c" || m.SourceFile != "sample.c" {
		t.Errorf("module = %q/%q, want sample.c/sample.c", m.Name, m.SourceFile)
	}
	if len(m.Functions) != 3 {
		t.Fatalf("functions = %d, want 3", len(m.Functions))
	}
	if m.Definitions() != 2 {
		t.Errorf("Definitions() = %d, want 2", m.Definitions())
	}

	sum := m.Function("sum")
	if sum == nil {
		t.Fatal("missing @sum")
	}
	if got, want := sum.Type, "i32 (ptr, i32)"; got != want {
		t.Errorf("sum.Type = %q, want %q", got, want)
	}
	if got, want := sum.Signature(), "sum : i32 (ptr, i32)"; got != want {
		t.Errorf("Signature() = %q, want %q", got, want)
	}
	if !strings.Contains(sum.Attrs, "noinline nounwind") {
		t.Errorf("sum.Attrs = %q, want expanded group #0", sum.Attrs)
	}
	if !strings.Contains(sum.Attrs, "arg0: noundef") {
		t.Errorf("sum.Attrs = %q, want parameter attributes", sum.Attrs)
	}
	if len(sum.Blocks) != 3 {
		t.Fatalf("sum blocks = %d, want 3", len(sum.Blocks))
	}
	names := []string{sum.Blocks[0].Name, sum.Blocks[1].Name, sum.Blocks[2].Name}
	if strings.Join(names, ",") != "entry,loop,exit" {
		t.Errorf("block names = %v", names)
	}
	if sum.InstructionCount() != 7 {
		t.Errorf("sum instructions = %d, want 7", sum.InstructionCount())
	}
	first := sum.Blocks[0].Instrs[0]
	if first.Opcode != "icmp" {
		t.Errorf("opcode = %q, want icmp", first.Opcode)
	}
	if first.DebugLoc != "sample.c:3:9" {
		t.Errorf("DebugLoc = %q, want sample.c:3:9", first.DebugLoc)
	}
	if strings.HasPrefix(first.Text, " ") {
		t.Errorf("instruction text keeps indentation: %q", first.Text)
	}

	odd := m.Function("odd name")
	if odd == nil {
		t.Fatal("missing quoted function")
	}
	if odd.Linkage != "internal" || odd.CallConv != "fastcc" {
		t.Errorf("odd linkage/cc = %q/%q", odd.Linkage, odd.CallConv)
	}
	if len(odd.Blocks) != 2 || odd.Blocks[0].Name != "" || odd.Blocks[1].Name != "" {
		t.Errorf("numbered blocks should be unnamed: %+v", odd.Blocks)
	}
	if op := odd.Blocks[0].Instrs[0].Opcode; op != "call" {
		t.Errorf("tail call opcode = %q, want call", op)
	}

	helper := m.Function("helper")
	if helper == nil || !helper.Declaration || len(helper.Blocks) != 0 {
		t.Fatalf("helper = %+v, want declaration without blocks", helper)
	}
	if helper.Attrs != "nounwind; arg0: noundef" {
		t.Errorf("helper.Attrs = %q", helper.Attrs)
	}
}

const multiLine = `define i32 @pick(i32 %x) personality ptr @__gxx_personality_v0 {
entry:
  switch i32 %x, label %d [
    i32 0, label %a
    i32 1, label %b
  ]

a:
  %r = invoke i32 @g(i32 %x)
          to label %b unwind label %lpad

b:
  ret i32 1

d:
  ret i32 2

lpad:
  %lp = landingpad { ptr, i32 }
          cleanup
          catch ptr null
  resume { ptr, i32 } %lp
}
`

func TestParseMultiLineInstructions(t *testing.T) {
	m, err := ParseBytes("multi.ll", []byte(multiLine))
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	fn := m.Function("pick")
	if fn == nil || len(fn.Blocks) != 5 {
		t.Fatalf("pick = %+v, want 5 blocks", fn)
	}
	var ops []string
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			ops = append(ops, in.Opcode)
		}
	}
	if got, want := strings.Join(ops, ","), "switch,invoke,ret,ret,landingpad,resume"; got != want {
		t.Errorf("opcodes = %s, want %s", got, want)
	}
	if fn.InstructionCount() != 6 {
		t.Errorf("InstructionCount = %d, want 6", fn.InstructionCount())
	}
	sw := fn.Blocks[0].Instrs[0].Text
	if sw != "switch i32 %x, label %d [ i32 0, label %a i32 1, label %b ]" {
		t.Errorf("switch text = %q", sw)
	}
	if inv := fn.Blocks[1].Instrs[0].Text; !strings.HasSuffix(inv, " to label %b unwind label %lpad") {
		t.Errorf("invoke text = %q", inv)
	}
	if lp := fn.Blocks[4].Instrs[0].Text; !strings.HasSuffix(lp, "{ ptr, i32 } cleanup catch ptr null") {
		t.Errorf("landingpad text = %q", lp)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unterminated", "define void @f() {\nentry:\n  ret void\n", "unterminated body"},
		{"no brace", "define void @f()\n", "without opening brace"},
		{"no name", "declare void\n", "without a name"},
		{"unbalanced", "declare void @f(i32\n", "unbalanced parameter list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes("bad.ll", []byte(tt.src))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if !strings.Contains(pe.Msg, tt.want) {
				t.Errorf("message = %q, want substring %q", pe.Msg, tt.want)
			}
		})
	}
}

func TestParseBitcode(t *testing.T) {
	_, err := ParseBytes("x.bc", []byte{'B', 'C', 0xC0, 0xDE, 0, 0})
	if !errors.Is(err, ErrBitcode) {
		t.Fatalf("err = %v, want ErrBitcode", err)
	}
}

func TestOpcodeOf(t *testing.T) {
	tests := map[string]string{
		"ret void": "ret",
		"%x = load i32, ptr %p, align 4": "load",
		"store i32 0, ptr %p": "store",
		"%r = musttail call i32 @g()": "call",
		"unreachable": "unreachable",
	}
	for in, want := range tests {
		if got := opcodeOf(in); got != want {
			t.Errorf("opcodeOf(%q) = %q, want %q", in, got, want)
		}
	}
}
