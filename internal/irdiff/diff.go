package irdiff

import (
	"strconv"

	"optdbg/internal/align"
	"optdbg/internal/ir"
)

// pairing is one function slot of the module diff. Either side may be nil.
type pairing struct {
	before *ir.Function
	after  *ir.Function
}

func (p pairing) name() string {
	if p.before != nil {
		return p.before.Name
	}
	return p.after.Name
}

// plan fixes the output order: before functions in before order, then
// unpaired after functions in after order. Functions sharing a name pair up
// in encounter order.
func plan(before, after *ir.Module) []pairing {
	var out []pairing
	pending := make(map[string][]*ir.Function)
	if after != nil {
		for _, af := range after.Functions {
			pending[af.Name] = append(pending[af.Name], af)
		}
	}
	paired := make(map[*ir.Function]bool)
	if before != nil {
		for _, bf := range before.Functions {
			p := pairing{before: bf}
			if q := pending[bf.Name]; len(q) > 0 {
				p.after = q[0]
				pending[bf.Name] = q[1:]
				paired[q[0]] = true
			}
			out = append(out, p)
		}
	}
	if after != nil {
		for _, af := range after.Functions {
			if !paired[af] {
				out = append(out, pairing{after: af})
			}
		}
	}
	return out
}

// Diff compares two module snapshots.
func Diff(before, after *ir.Module) *ModuleDiff {
	pairs := plan(before, after)
	fns := make([]FunctionDiff, len(pairs))
	for i, p := range pairs {
		fns[i] = diffPair(p)
	}
	return assemble(before, after, fns)
}

func assemble(before, after *ir.Module, fns []FunctionDiff) *ModuleDiff {
	md := &ModuleDiff{
		Functions:               fns,
		TotalBeforeInstructions: before.InstructionCount(),
		TotalAfterInstructions:  after.InstructionCount(),
	}
	for i := range fns {
		fd := &fns[i]
		switch {
		case fd.Kind == Added:
			md.Added++
		case fd.Kind == Removed:
			md.Removed++
		case fd.Kind == Modified || fd.AttributesChanged || fd.SignatureChanged:
			md.Modified++
		default:
			md.Unchanged++
		}
	}
	return md
}

func diffPair(p pairing) FunctionDiff {
	switch {
	case p.after == nil:
		return FunctionDiff{
			Kind:             Removed,
			Name:             p.before.Name,
			BeforeSignature:  p.before.Signature(),
			BeforeBlockCount: len(p.before.Blocks),
			BeforeInstrCount: p.before.InstructionCount(),
		}
	case p.before == nil:
		return FunctionDiff{
			Kind:            Added,
			Name:            p.after.Name,
			AfterSignature:  p.after.Signature(),
			AfterBlockCount: len(p.after.Blocks),
			AfterInstrCount: p.after.InstructionCount(),
		}
	default:
		return DiffFunctions(p.before, p.after)
	}
}

// DiffFunctions compares two versions of the same function.
func DiffFunctions(before, after *ir.Function) FunctionDiff {
	fd := FunctionDiff{
		Kind:              Unchanged,
		Name:              before.Name,
		BeforeSignature:   before.Signature(),
		AfterSignature:    after.Signature(),
		BeforeBlockCount:  len(before.Blocks),
		AfterBlockCount:   len(after.Blocks),
		BeforeInstrCount:  before.InstructionCount(),
		AfterInstrCount:   after.InstructionCount(),
		AttributesChanged: before.Fingerprint() != after.Fingerprint(),
	}
	fd.SignatureChanged = fd.BeforeSignature != fd.AfterSignature

	switch {
	case before.Declaration && after.Declaration:
		return fd
	case before.Declaration != after.Declaration:
		fd.Kind = Modified
		return fd
	}

	bNames := blockNames(before.Blocks)
	aNames := blockNames(after.Blocks)
	changed := false
	for _, pr := range align.Align(bNames, aNames) {
		switch pr.Op() {
		case align.OpMatch:
			bd := DiffBlocks(bNames[pr.A], &before.Blocks[pr.A], &after.Blocks[pr.B])
			if bd.Kind != Unchanged {
				changed = true
			}
			fd.Blocks = append(fd.Blocks, bd)
		case align.OpDelete:
			changed = true
			fd.Blocks = append(fd.Blocks, BlockDiff{
				Kind:             Removed,
				Name:             bNames[pr.A],
				BeforeInstrCount: len(before.Blocks[pr.A].Instrs),
			})
		case align.OpInsert:
			changed = true
			fd.Blocks = append(fd.Blocks, BlockDiff{
				Kind:            Added,
				Name:            aNames[pr.B],
				AfterInstrCount: len(after.Blocks[pr.B].Instrs),
			})
		}
	}
	if changed || fd.AttributesChanged || fd.SignatureChanged {
		fd.Kind = Modified
	}
	return fd
}

// blockNames gives unnamed blocks the synthetic name bb.<index>.
func blockNames(blocks []ir.Block) []string {
	names := make([]string, len(blocks))
	for i := range blocks {
		if blocks[i].Name != "" {
			names[i] = blocks[i].Name
		} else {
			names[i] = "bb." + strconv.Itoa(i)
		}
	}
	return names
}

// DiffBlocks aligns the instruction texts of two blocks.
func DiffBlocks(name string, before, after *ir.Block) BlockDiff {
	bd := BlockDiff{
		Kind:             Unchanged,
		Name:             name,
		BeforeInstrCount: len(before.Instrs),
		AfterInstrCount:  len(after.Instrs),
	}
	bText := texts(before.Instrs)
	aText := texts(after.Instrs)
	for _, pr := range align.Align(bText, aText) {
		var d InstructionDiff
		switch pr.Op() {
		case align.OpMatch:
			d = InstructionDiff{
				Kind:   Unchanged,
				Before: record(before.Instrs, pr.A),
				After:  record(after.Instrs, pr.B),
			}
		case align.OpDelete:
			d = InstructionDiff{Kind: Removed, Before: record(before.Instrs, pr.A)}
			bd.Kind = Modified
		case align.OpInsert:
			d = InstructionDiff{Kind: Added, After: record(after.Instrs, pr.B)}
			bd.Kind = Modified
		}
		bd.Instructions = append(bd.Instructions, d)
	}
	return bd
}

func texts(instrs []ir.Instruction) []string {
	out := make([]string, len(instrs))
	for i := range instrs {
		out[i] = instrs[i].Text
	}
	return out
}

func record(instrs []ir.Instruction, i int) *InstructionRecord {
	in := &instrs[i]
	return &InstructionRecord{
		Text:     in.Text,
		Line:     i + 1,
		Opcode:   in.Opcode,
		DebugLoc: in.DebugLoc,
	}
}
