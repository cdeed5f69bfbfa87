// Package align computes minimal edit scripts between two token sequences.
//
// The alignment is the classic longest-common-subsequence walk. Tokens are
// opaque comparable values; the package knows nothing about IR.
package align

// None marks the missing side of a Pair.
const None = -1

// Op classifies a single alignment step.
type Op uint8

const (
	// OpMatch pairs equal tokens from both sequences.
	OpMatch Op = iota
	// OpInsert takes a token that exists only in B.
	OpInsert
	// OpDelete takes a token that exists only in A.
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpMatch:
		return "match"
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Pair is one step of an alignment. A and B index into the input
// sequences; either may be None, never both.
type Pair struct {
	A int
	B int
}

// Op reports the kind of the step.
func (p Pair) Op() Op {
	switch {
	case p.A == None:
		return OpInsert
	case p.B == None:
		return OpDelete
	default:
		return OpMatch
	}
}

// table is the (M+1)x(N+1) LCS length matrix stored row-major.
type table struct {
	cells []int
	width int
}

func (t *table) at(i, j int) int { return t.cells[i*t.width+j] }

func buildTable[T comparable](a, b []T) *table {
	m, n := len(a), len(b)
	t := &table{cells: make([]int, (m+1)*(n+1)), width: n + 1}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			idx := i*t.width + j
			if a[i-1] == b[j-1] {
				t.cells[idx] = t.at(i-1, j-1) + 1
				continue
			}
			up, left := t.at(i-1, j), t.at(i, j-1)
			if up >= left {
				t.cells[idx] = up
			} else {
				t.cells[idx] = left
			}
		}
	}
	return t
}

// Align returns an alignment of a and b covering every index of both
// sequences exactly once, in order, with a maximal number of matches.
//
// On equal-cost paths the backtrack prefers consuming b (an insertion)
// whenever dp[i][j-1] >= dp[i-1][j]. Read forward, this renders a
// replacement as delete-then-insert.
func Align[T comparable](a, b []T) []Pair {
	m, n := len(a), len(b)
	if m == 0 && n == 0 {
		return nil
	}
	if m == 0 || n == 0 {
		out := make([]Pair, 0, m+n)
		for i := range a {
			out = append(out, Pair{A: i, B: None})
		}
		for j := range b {
			out = append(out, Pair{A: None, B: j})
		}
		return out
	}

	t := buildTable(a, b)
	out := make([]Pair, 0, m+n)
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && a[i-1] == b[j-1]:
			out = append(out, Pair{A: i - 1, B: j - 1})
			i--
			j--
		case j > 0 && (i == 0 || t.at(i, j-1) >= t.at(i-1, j)):
			out = append(out, Pair{A: None, B: j - 1})
			j--
		default:
			out = append(out, Pair{A: i - 1, B: None})
			i--
		}
	}

	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// LCSLength returns the length of the longest common subsequence.
func LCSLength[T comparable](a, b []T) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	return buildTable(a, b).at(len(a), len(b))
}

// Matches counts the OpMatch steps of an alignment.
func Matches(pairs []Pair) int {
	n := 0
	for _, p := range pairs {
		if p.Op() == OpMatch {
			n++
		}
	}
	return n
}
