// Package irdiff compares two IR snapshots of the same module and reports
// what changed at function, block and instruction granularity.
package irdiff

import "fmt"

// Kind is the change classification shared by every diff level.
type Kind uint8

const (
	Unchanged Kind = iota
	Added
	Removed
	Modified
)

func (k Kind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// Marker is the one-character prefix used in textual diffs.
func (k Kind) Marker() string {
	switch k {
	case Added:
		return "+"
	case Removed:
		return "-"
	case Modified:
		return "~"
	default:
		return "="
	}
}

// InstructionRecord is the copied text of one instruction.
type InstructionRecord struct {
	Text     string `json:"text" msgpack:"text"`
	Line     int    `json:"line" msgpack:"line"` // 1-based position within its block
	Opcode   string `json:"opcode,omitempty" msgpack:"opcode"`
	DebugLoc string `json:"debug_loc,omitempty" msgpack:"debug_loc"`
}

func (r *InstructionRecord) clone() *InstructionRecord {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// InstructionDiff is one aligned instruction. Before is nil for Added,
// After is nil for Removed.
type InstructionDiff struct {
	Kind   Kind               `json:"kind" msgpack:"kind"`
	Before *InstructionRecord `json:"before,omitempty" msgpack:"before"`
	After  *InstructionRecord `json:"after,omitempty" msgpack:"after"`
}

// Text returns whichever side is present, preferring After.
func (d *InstructionDiff) Text() string {
	if d.After != nil {
		return d.After.Text
	}
	if d.Before != nil {
		return d.Before.Text
	}
	return ""
}

type BlockDiff struct {
	Kind             Kind              `json:"kind" msgpack:"kind"`
	Name             string            `json:"name" msgpack:"name"`
	Instructions     []InstructionDiff `json:"instructions,omitempty" msgpack:"instructions"`
	BeforeInstrCount int               `json:"before_instr_count" msgpack:"before_instr_count"`
	AfterInstrCount  int               `json:"after_instr_count" msgpack:"after_instr_count"`
}

type FunctionDiff struct {
	Kind              Kind        `json:"kind" msgpack:"kind"`
	Name              string      `json:"name" msgpack:"name"`
	BeforeSignature   string      `json:"before_signature,omitempty" msgpack:"before_signature"`
	AfterSignature    string      `json:"after_signature,omitempty" msgpack:"after_signature"`
	BeforeBlockCount  int         `json:"before_block_count" msgpack:"before_block_count"`
	AfterBlockCount   int         `json:"after_block_count" msgpack:"after_block_count"`
	BeforeInstrCount  int         `json:"before_instr_count" msgpack:"before_instr_count"`
	AfterInstrCount   int         `json:"after_instr_count" msgpack:"after_instr_count"`
	Blocks            []BlockDiff `json:"blocks,omitempty" msgpack:"blocks"`
	AttributesChanged bool        `json:"attributes_changed" msgpack:"attributes_changed"`
	SignatureChanged  bool        `json:"signature_changed" msgpack:"signature_changed"`
}

// WasOptimized reports a modified function that lost instructions.
func (f *FunctionDiff) WasOptimized() bool {
	return f.Kind == Modified && f.AfterInstrCount < f.BeforeInstrCount
}

// WasSimplified reports a modified function that lost blocks.
func (f *FunctionDiff) WasSimplified() bool {
	return f.Kind == Modified && f.AfterBlockCount < f.BeforeBlockCount
}

// Clone deep-copies the block tree, so the copy shares nothing with f.
func (f *FunctionDiff) Clone() FunctionDiff {
	cp := *f
	if f.Blocks == nil {
		return cp
	}
	cp.Blocks = make([]BlockDiff, len(f.Blocks))
	for i, b := range f.Blocks {
		if b.Instructions != nil {
			instrs := make([]InstructionDiff, len(b.Instructions))
			for j, in := range b.Instructions {
				instrs[j] = InstructionDiff{Kind: in.Kind, Before: in.Before.clone(), After: in.After.clone()}
			}
			b.Instructions = instrs
		}
		cp.Blocks[i] = b
	}
	return cp
}

// WasInlined reports a function that disappeared, usually after inlining.
func (f *FunctionDiff) WasInlined() bool {
	return f.Kind == Removed
}

type ModuleDiff struct {
	Functions               []FunctionDiff `json:"functions" msgpack:"functions"`
	Added                   int            `json:"added" msgpack:"added"`
	Removed                 int            `json:"removed" msgpack:"removed"`
	Modified                int            `json:"modified" msgpack:"modified"`
	Unchanged               int            `json:"unchanged" msgpack:"unchanged"`
	TotalBeforeInstructions int            `json:"total_before_instructions" msgpack:"total_before_instructions"`
	TotalAfterInstructions  int            `json:"total_after_instructions" msgpack:"total_after_instructions"`
}

func (m *ModuleDiff) HasChanges() bool {
	return m != nil && (m.Added > 0 || m.Removed > 0 || m.Modified > 0)
}

// InstructionDelta is after minus before; negative means the module shrank.
func (m *ModuleDiff) InstructionDelta() int64 {
	if m == nil {
		return 0
	}
	return int64(m.TotalAfterInstructions) - int64(m.TotalBeforeInstructions)
}

// Function returns the diff for an exact function name, or nil.
func (m *ModuleDiff) Function(name string) *FunctionDiff {
	if m == nil {
		return nil
	}
	for i := range m.Functions {
		if m.Functions[i].Name == name {
			return &m.Functions[i]
		}
	}
	return nil
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "unchanged":
		*k = Unchanged
	case "added":
		*k = Added
	case "removed":
		*k = Removed
	case "modified":
		*k = Modified
	default:
		return fmt.Errorf("unknown diff kind %q", b)
	}
	return nil
}
