// Package transformer defines the typed transformation chain that turns a
// coerced table into an analysis-ready table, along with the row-level
// diagnostics shared by every transform.
package transformer

import (
	"fmt"

	"labourstat/pkg/records"
)

// Transformer maps one table to a new table. Implementations must not modify
// the input.
type Transformer interface {
	Name() string
	Apply(in records.Table) (records.Table, error)
}

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs every transformer in order. The first error aborts the chain and
// is wrapped with the failing transformer's name.
func (c Chain) Apply(in records.Table) (records.Table, error) {
	out := in
	for _, t := range c {
		next, err := t.Apply(out)
		if err != nil {
			return records.Table{}, fmt.Errorf("%s: %w", t.Name(), err)
		}
		out = next
	}
	return out, nil
}
