// Package testkit holds checks shared by tests across packages.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"optdbg/internal/irdiff"
)

// CheckDiff validates the structural invariants of a module diff:
// 1) counters agree with the function kinds and sum to len(Functions)
// 2) every function of either side appears in exactly one slot, so the
//    module totals equal the per-function sums
// 3) instruction sides match their kind, lines are 1-based
// 4) block and function instruction counts agree with their children
// 5) unchanged functions contain only unchanged blocks
func CheckDiff(md *irdiff.ModuleDiff) error {
	if md == nil {
		return fmt.Errorf("nil module diff")
	}

	var counts [4]int
	var sumBefore, sumAfter int
	for i := range md.Functions {
		fd := &md.Functions[i]
		switch {
		case fd.Kind == irdiff.Added:
			counts[0]++
		case fd.Kind == irdiff.Removed:
			counts[1]++
		case fd.Kind == irdiff.Modified || fd.AttributesChanged || fd.SignatureChanged:
			counts[2]++
		default:
			counts[3]++
		}
		if err := checkFunction(fd); err != nil {
			return fmt.Errorf("function %q: %w", fd.Name, err)
		}
		sumBefore += fd.BeforeInstrCount
		sumAfter += fd.AfterInstrCount
	}

	got := [4]int{md.Added, md.Removed, md.Modified, md.Unchanged}
	if got != counts {
		return fmt.Errorf("counters +%d -%d ~%d =%d, recounted +%d -%d ~%d =%d",
			got[0], got[1], got[2], got[3], counts[0], counts[1], counts[2], counts[3])
	}

	if sumBefore != md.TotalBeforeInstructions || sumAfter != md.TotalAfterInstructions {
		return fmt.Errorf("totals %d/%d differ from function sums %d/%d",
			md.TotalBeforeInstructions, md.TotalAfterInstructions, sumBefore, sumAfter)
	}
	before, err := safecast.Conv[int64](md.TotalBeforeInstructions)
	if err != nil {
		return fmt.Errorf("before total: %w", err)
	}
	after, err := safecast.Conv[int64](md.TotalAfterInstructions)
	if err != nil {
		return fmt.Errorf("after total: %w", err)
	}
	if md.InstructionDelta() != after-before {
		return fmt.Errorf("InstructionDelta() = %d, want %d", md.InstructionDelta(), after-before)
	}
	return nil
}

func checkFunction(fd *irdiff.FunctionDiff) error {
	switch fd.Kind {
	case irdiff.Added:
		if fd.BeforeInstrCount != 0 || fd.BeforeBlockCount != 0 {
			return fmt.Errorf("added function has before counts")
		}
	case irdiff.Removed:
		if fd.AfterInstrCount != 0 || fd.AfterBlockCount != 0 {
			return fmt.Errorf("removed function has after counts")
		}
	}
	if len(fd.Blocks) == 0 {
		return nil
	}

	var before, after int
	for i := range fd.Blocks {
		bd := &fd.Blocks[i]
		if fd.Kind == irdiff.Unchanged && bd.Kind != irdiff.Unchanged {
			return fmt.Errorf("unchanged function has %s block %q", bd.Kind, bd.Name)
		}
		if err := checkBlock(bd); err != nil {
			return fmt.Errorf("block %q: %w", bd.Name, err)
		}
		before += bd.BeforeInstrCount
		after += bd.AfterInstrCount
	}
	if before != fd.BeforeInstrCount || after != fd.AfterInstrCount {
		return fmt.Errorf("block sums %d/%d, function counts %d/%d", before, after, fd.BeforeInstrCount, fd.AfterInstrCount)
	}
	return nil
}

func checkBlock(bd *irdiff.BlockDiff) error {
	if len(bd.Instructions) == 0 {
		return nil
	}
	var before, after int
	for i := range bd.Instructions {
		in := &bd.Instructions[i]
		switch in.Kind {
		case irdiff.Added:
			if in.Before != nil || in.After == nil {
				return fmt.Errorf("instruction %d: added needs only an after side", i)
			}
		case irdiff.Removed:
			if in.Before == nil || in.After != nil {
				return fmt.Errorf("instruction %d: removed needs only a before side", i)
			}
		default:
			if in.Before == nil || in.After == nil {
				return fmt.Errorf("instruction %d: %s needs both sides", i, in.Kind)
			}
		}
		if in.Before != nil {
			before++
			if in.Before.Line < 1 {
				return fmt.Errorf("instruction %d: before line %d", i, in.Before.Line)
			}
		}
		if in.After != nil {
			after++
			if in.After.Line < 1 {
				return fmt.Errorf("instruction %d: after line %d", i, in.After.Line)
			}
		}
	}
	if before != bd.BeforeInstrCount || after != bd.AfterInstrCount {
		return fmt.Errorf("instruction sides %d/%d, block counts %d/%d", before, after, bd.BeforeInstrCount, bd.AfterInstrCount)
	}
	return nil
}
