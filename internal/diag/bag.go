package diag

import (
	"fmt"
	"sort"
)

// Rank orders results from most to least severe. The sort is stable, so
// results of equal severity keep their input order.
func Rank(rs []Result) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Severity < rs[j].Severity
	})
}

type Bag struct {
	items []Result
}

func NewBag(capacity int) *Bag {
	return &Bag{items: make([]Result, 0, capacity)}
}

// BagOf wraps existing results without copying.
func BagOf(rs []Result) *Bag {
	return &Bag{items: rs}
}

func (b *Bag) Add(r ...Result) {
	b.items = append(b.items, r...)
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает внутренний срез, не модифицируйте его.
func (b *Bag) Items() []Result {
	return b.items
}

// Filter returns a new bag with results at least as severe as min.
func (b *Bag) Filter(min Severity) *Bag {
	out := NewBag(len(b.items))
	for i := range b.items {
		if b.items[i].Severity.AtLeast(min) {
			out.items = append(out.items, b.items[i])
		}
	}
	return out
}

// Counts tallies results per severity, indexed by Severity.
func (b *Bag) Counts() [NumSeverities]int {
	var c [NumSeverities]int
	for i := range b.items {
		if s := b.items[i].Severity; s.Valid() {
			c[s]++
		}
	}
	return c
}

func (b *Bag) HasCritical() bool {
	for i := range b.items {
		if b.items[i].Severity == SevCritical {
			return true
		}
	}
	return false
}

// Dedup drops repeated results for the same remark at the same place.
// LLVM emits identical remarks for every inlined copy of a call site.
func (b *Bag) Dedup() {
	seen := make(map[string]struct{}, len(b.items))
	kept := b.items[:0]
	for _, r := range b.items {
		key := fmt.Sprintf("%s/%s@%s:%s:%s", r.Pass, r.RemarkName, r.Function, r.Location.String(), r.ShortReason)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, r)
	}
	b.items = kept
}
