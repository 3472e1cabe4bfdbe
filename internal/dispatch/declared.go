package dispatch

import (
	"github.com/gyaneshwarpardhi/mro/internal/hierarchy"
)

// FromGraph builds a Table from the methods declared in the hierarchy file.
// Each declared implementation only records itself in the trace; those marked
// super then forward with Next.
func FromGraph(g *hierarchy.Graph) (*Table, error) {
	t := NewTable(g)
	for _, n := range g.Classes() {
		for _, m := range n.Methods() {
			if err := t.Define(n.Name(), m.Name, declared(m.Super)); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

func declared(super bool) Impl {
	if super {
		return func(c *Call) error { return c.Next() }
	}
	return func(*Call) error { return nil }
}
