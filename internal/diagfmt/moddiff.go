package diagfmt

import (
	"bufio"
	"fmt"
	"io"

	"github.com/fatih/color"

	"optdbg/internal/irdiff"
)

// ModuleDiff prints the structural diff of a whole module. Unchanged
// functions, blocks and instructions are omitted.
func ModuleDiff(w io.Writer, md *irdiff.ModuleDiff, useColor bool) error {
	bw := bufio.NewWriter(w)
	p := painter(useColor)
	if md == nil {
		md = &irdiff.ModuleDiff{}
	}

	fmt.Fprintf(bw, "\n=== IR Diff ===\n")
	fmt.Fprintf(bw, "Functions: +%d -%d ~%d =%d\n", md.Added, md.Removed, md.Modified, md.Unchanged)
	fmt.Fprintf(bw, "Instructions: %d -> %d%s\n",
		md.TotalBeforeInstructions, md.TotalAfterInstructions, deltaSuffix(md.InstructionDelta()))

	for i := range md.Functions {
		fd := &md.Functions[i]
		if fd.Kind == irdiff.Unchanged {
			continue
		}
		var head string
		switch fd.Kind {
		case irdiff.Added:
			head = fmt.Sprintf("[+] @%s (new function)", fd.Name)
		case irdiff.Removed:
			head = fmt.Sprintf("[-] @%s (inlined/removed)", fd.Name)
		default:
			head = fmt.Sprintf("[~] @%s  blocks: %d -> %d  instrs: %d -> %d", fd.Name,
				fd.BeforeBlockCount, fd.AfterBlockCount, fd.BeforeInstrCount, fd.AfterInstrCount)
		}
		fmt.Fprintln(bw, p.paint(head, kindAttr(fd.Kind)))

		for j := range fd.Blocks {
			bd := &fd.Blocks[j]
			if bd.Kind == irdiff.Unchanged {
				continue
			}
			fmt.Fprintf(bw, "  %s\n", p.paint(fmt.Sprintf("[%s] %%%s:", bd.Kind.Marker(), bd.Name), kindAttr(bd.Kind)))
			writeInstrs(bw, p, bd.Instructions, "    ", false)
		}
	}
	return bw.Flush()
}

func deltaSuffix(d int64) string {
	switch {
	case d < 0:
		return fmt.Sprintf(" (%d)", d)
	case d > 0:
		return fmt.Sprintf(" (+%d)", d)
	default:
		return " (no change)"
	}
}

// writeInstrs prints changed instructions as -/+ lines. A modified
// instruction prints both sides.
func writeInstrs(w io.Writer, p painter, ins []irdiff.InstructionDiff, indent string, withUnchanged bool) {
	for k := range ins {
		d := &ins[k]
		switch d.Kind {
		case irdiff.Unchanged:
			if withUnchanged && d.Before != nil {
				fmt.Fprintf(w, "%s= %s\n", indent, d.Before.Text)
			}
		case irdiff.Added:
			fmt.Fprintf(w, "%s%s\n", indent, p.paint("+ "+d.After.Text, color.FgGreen))
		case irdiff.Removed:
			fmt.Fprintf(w, "%s%s\n", indent, p.paint("- "+d.Before.Text, color.FgRed))
		case irdiff.Modified:
			fmt.Fprintf(w, "%s%s\n", indent, p.paint("- "+d.Before.Text, color.FgRed))
			fmt.Fprintf(w, "%s%s\n", indent, p.paint("+ "+d.After.Text, color.FgGreen))
		}
	}
}
