package fuzztests

import (
	"context"
	"testing"
	"time"

	"optdbg/internal/ir"
	"optdbg/internal/irdiff"
	"optdbg/internal/testkit"
)

// parseTimeout is the maximum time allowed for parsing and diffing a single
// input. Longer runs point at an infinite loop.
const parseTimeout = 5 * time.Second

func FuzzIRParse(f *testing.F) {
	addSeeds(f, irSeeds, ".ll")
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input, maxFuzzInput)
		m, err := ir.ParseBytes("fuzz.ll", input)
		if err != nil {
			return
		}
		md := irdiff.Diff(m, m)
		if err := testkit.CheckDiff(md); err != nil {
			t.Fatalf("self diff broke invariants: %v\ninput: %q", err, truncateForLog(input, 200))
		}
		if md.HasChanges() {
			t.Fatalf("self diff reported changes: +%d -%d ~%d", md.Added, md.Removed, md.Modified)
		}
	})
}

// FuzzIRDiffNoHang parses two modules and diffs them concurrently under a
// deadline.
func FuzzIRDiffNoHang(f *testing.F) {
	for i := range irSeeds {
		f.Add([]byte(irSeeds[i]), []byte(irSeeds[(i+2)%len(irSeeds)]))
	}
	f.Fuzz(func(t *testing.T, a, b []byte) {
		a = clampInput(a, maxFuzzInput/4)
		b = clampInput(b, maxFuzzInput/4)

		ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			before, err := ir.ParseBytes("before.ll", a)
			if err != nil {
				done <- nil
				return
			}
			after, err := ir.ParseBytes("after.ll", b)
			if err != nil {
				done <- nil
				return
			}
			md, err := irdiff.DiffConcurrent(ctx, before, after, 4)
			if err != nil {
				done <- nil
				return
			}
			done <- testkit.CheckDiff(md)
		}()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("diff broke invariants: %v\nbefore: %q\nafter: %q", err, truncateForLog(a, 200), truncateForLog(b, 200))
			}
		case <-ctx.Done():
			t.Fatalf("diff hang detected: took longer than %v\nbefore (%d bytes): %q", parseTimeout, len(a), truncateForLog(a, 200))
		}
	})
}
