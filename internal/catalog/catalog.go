// Package catalog holds the table of known missed-optimization patterns.
//
// A pattern pairs three optional matchers (pass name, remark name and a
// message substring) with the explanation shown to the user. Matchers are
// evaluated by internal/classify; this package only stores them.
package catalog

import (
	"errors"
	"fmt"
	"iter"

	"optdbg/internal/diag"
)

// Pattern is one catalog entry. Empty matchers match anything.
type Pattern struct {
	ID      string
	Pass    string
	Remark  string
	Message string

	ShortReason         string
	DetailedExplanation string // may contain {Key} placeholders
	RootCause           string
	WhatOptimizerWanted string

	Fixes    []diag.Fix
	Severity diag.Severity
	Speedup  float64
}

func (p Pattern) clone() Pattern {
	p.Fixes = diag.CloneFixes(p.Fixes)
	return p
}

// Catalog is an immutable, ordered pattern table.
type Catalog struct {
	patterns []Pattern
	byID     map[string]int
}

// Builder collects patterns in registration order.
type Builder struct {
	patterns []Pattern
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Add(p Pattern) *Builder {
	b.patterns = append(b.patterns, p.clone())
	return b
}

var ErrInvalidPattern = errors.New("invalid pattern")

// Build validates the collected patterns and freezes them.
func (b *Builder) Build() (*Catalog, error) {
	c := &Catalog{
		patterns: make([]Pattern, 0, len(b.patterns)),
		byID:     make(map[string]int, len(b.patterns)),
	}
	for i, p := range b.patterns {
		if err := validate(p); err != nil {
			return nil, fmt.Errorf("pattern #%d: %w", i, err)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("pattern #%d: %w: duplicate id %q", i, ErrInvalidPattern, p.ID)
		}
		c.byID[p.ID] = len(c.patterns)
		c.patterns = append(c.patterns, p)
	}
	return c, nil
}

func validate(p Pattern) error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidPattern)
	case !p.Severity.Valid():
		return fmt.Errorf("%w: %s: invalid severity %d", ErrInvalidPattern, p.ID, uint8(p.Severity))
	case p.Speedup < 0:
		return fmt.Errorf("%w: %s: negative speedup", ErrInvalidPattern, p.ID)
	case p.ShortReason == "":
		return fmt.Errorf("%w: %s: empty short reason", ErrInvalidPattern, p.ID)
	}
	return nil
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.patterns)
}

// At returns a copy of the i-th pattern.
func (c *Catalog) At(i int) Pattern {
	return c.patterns[i].clone()
}

// All iterates patterns in registration order. Yielded values are copies.
func (c *Catalog) All() iter.Seq2[int, Pattern] {
	return func(yield func(int, Pattern) bool) {
		if c == nil {
			return
		}
		for i := range c.patterns {
			if !yield(i, c.patterns[i].clone()) {
				return
			}
		}
	}
}

func (c *Catalog) Lookup(id string) (Pattern, bool) {
	if c == nil {
		return Pattern{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Pattern{}, false
	}
	return c.patterns[i].clone(), true
}

// Extend returns a new catalog with extra appended after the existing
// entries, so existing patterns keep precedence on ties.
func (c *Catalog) Extend(extra ...Pattern) (*Catalog, error) {
	b := NewBuilder()
	for i := range c.Len() {
		b.Add(c.patterns[i])
	}
	for _, p := range extra {
		b.Add(p)
	}
	return b.Build()
}
