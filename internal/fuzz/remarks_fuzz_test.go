package fuzztests

import (
	"bytes"
	"testing"

	"optdbg/internal/align"
	"optdbg/internal/remarks"
)

func FuzzRemarksYAML(f *testing.F) {
	addSeeds(f, yamlSeeds, ".yaml", ".yml")
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input, maxFuzzInput)
		for i, r := range remarks.ParseYAML(input) {
			if r.Pass == "" {
				t.Fatalf("remark %d has no pass: %+v", i, r)
			}
			if r.IsMachine != remarks.IsMachinePass(r.Pass) {
				t.Fatalf("remark %d: IsMachine=%v for pass %q", i, r.IsMachine, r.Pass)
			}
		}
	})
}

func FuzzRemarksText(f *testing.F) {
	addSeeds(f, textSeeds, ".txt")
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input, maxFuzzInput)
		rs, err := remarks.ParseText(bytes.NewReader(input))
		if err != nil {
			t.Fatalf("ParseText: %v", err)
		}
		for i, r := range rs {
			if r.Pass == "" || !r.Loc.IsValid() {
				t.Fatalf("remark %d is incomplete: %+v", i, r)
			}
		}
	})
}

// FuzzAlign checks that every alignment is a full, ordered walk of both
// inputs whose match count equals the LCS length.
func FuzzAlign(f *testing.F) {
	f.Add([]byte("abcde"), []byte("ace"))
	f.Add([]byte(""), []byte("xyz"))
	f.Add([]byte("aaaa"), []byte("aa"))
	f.Fuzz(func(t *testing.T, a, b []byte) {
		// таблица квадратичная, держим входы короткими
		a = clampInput(a, 256)
		b = clampInput(b, 256)
		pairs := align.Align(a, b)

		nextA, nextB := 0, 0
		for _, p := range pairs {
			if p.A == align.None && p.B == align.None {
				t.Fatal("pair with both sides missing")
			}
			if p.A != align.None {
				if p.A != nextA {
					t.Fatalf("A index %d out of order, want %d", p.A, nextA)
				}
				nextA++
			}
			if p.B != align.None {
				if p.B != nextB {
					t.Fatalf("B index %d out of order, want %d", p.B, nextB)
				}
				nextB++
			}
			if p.Op() == align.OpMatch && a[p.A] != b[p.B] {
				t.Fatalf("match of unequal tokens at %d/%d", p.A, p.B)
			}
		}
		if nextA != len(a) || nextB != len(b) {
			t.Fatalf("walk covered %d/%d of %d/%d", nextA, nextB, len(a), len(b))
		}
		if got, want := align.Matches(pairs), align.LCSLength(a, b); got != want {
			t.Fatalf("Matches = %d, LCSLength = %d", got, want)
		}
	})
}
