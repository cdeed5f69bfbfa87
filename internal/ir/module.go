// Package ir holds a read-only snapshot of an LLVM module: functions,
// their basic blocks and printed instructions. Snapshots are produced by
// Parse and consumed by the structural diff engine.
package ir

import "strings"

// Instruction is a single printed instruction.
type Instruction struct {
	Text     string // canonical text, leading whitespace stripped
	Opcode   string
	DebugLoc string // "file:line:col", empty when unavailable
}

// Block is a basic block. Name is empty for unnamed (numbered) blocks.
type Block struct {
	Name   string
	Instrs []Instruction
}

// Function is a function definition or declaration.
type Function struct {
	Name        string
	Declaration bool
	Type        string // "ret (params)"
	Linkage     string
	Visibility  string
	CallConv    string
	Attrs       string // canonical attribute string with groups expanded
	Blocks      []Block
}

// Signature renders "name : type".
func (f *Function) Signature() string {
	return f.Name + " : " + f.Type
}

// Fingerprint summarizes non-body metadata for equality checks.
func (f *Function) Fingerprint() string {
	return strings.Join([]string{f.CallConv, f.Linkage, f.Visibility, f.Attrs}, "|")
}

// InstructionCount sums instructions over all blocks.
func (f *Function) InstructionCount() int {
	n := 0
	for i := range f.Blocks {
		n += len(f.Blocks[i].Instrs)
	}
	return n
}

// Module is a parsed IR module.
type Module struct {
	Name       string
	SourceFile string
	Functions  []*Function
}

// Function returns the first function with the given name, or nil.
func (m *Module) Function(name string) *Function {
	if m == nil {
		return nil
	}
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// InstructionCount sums instructions over all functions.
func (m *Module) InstructionCount() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, f := range m.Functions {
		n += f.InstructionCount()
	}
	return n
}

// Definitions returns the number of non-declaration functions.
func (m *Module) Definitions() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, f := range m.Functions {
		if !f.Declaration {
			n++
		}
	}
	return n
}
