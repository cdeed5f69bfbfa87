package remarks

import "sync"

// Collector accumulates remarks from concurrent producers. Readers always
// get a copy.
type Collector struct {
	mu      sync.Mutex
	remarks []Remark
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Add(rs ...Remark) {
	c.mu.Lock()
	c.remarks = append(c.remarks, rs...)
	c.mu.Unlock()
}

// Sink adapts the collector to a callback.
func (c *Collector) Sink() func(Remark) {
	return func(r Remark) { c.Add(r) }
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.remarks)
}

// All returns a snapshot of every remark in arrival order.
func (c *Collector) All() []Remark {
	return c.filter(func(*Remark) bool { return true })
}

func (c *Collector) Missed() []Remark {
	return c.filter((*Remark).IsMissed)
}

func (c *Collector) Applied() []Remark {
	return c.filter((*Remark).IsApplied)
}

func (c *Collector) Analysis() []Remark {
	return c.filter((*Remark).IsAnalysis)
}

func (c *Collector) ForFunction(name string) []Remark {
	return c.filter(func(r *Remark) bool { return r.Function == name })
}

func (c *Collector) ForPass(pass string) []Remark {
	return c.filter(func(r *Remark) bool { return r.Pass == pass })
}

// Reset drops everything collected so far.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.remarks = nil
	c.mu.Unlock()
}

func (c *Collector) filter(keep func(*Remark) bool) []Remark {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Remark, 0, len(c.remarks))
	for i := range c.remarks {
		if keep(&c.remarks[i]) {
			out = append(out, cloneRemark(c.remarks[i]))
		}
	}
	return out
}

func cloneRemark(r Remark) Remark {
	if r.Args != nil {
		r.Args = append([]Arg(nil), r.Args...)
	}
	if r.Hotness != nil {
		h := *r.Hotness
		r.Hotness = &h
	}
	return r
}

// Counts tallies remarks by outcome.
func Counts(rs []Remark) (missed, applied, analysis int) {
	for i := range rs {
		switch {
		case rs[i].IsMissed():
			missed++
		case rs[i].IsApplied():
			applied++
		case rs[i].IsAnalysis():
			analysis++
		}
	}
	return missed, applied, analysis
}
