package dispatch

import (
	"context"

	"github.com/gyaneshwarpardhi/mro/internal/hierarchy"
)

// Call is one invocation of an operation on a receiver class. The cursor is
// the position, in the receiver's linearization, of the implementation that
// is currently running; Next moves it forward and restores it on return.
//
// A Call is not safe for concurrent use.
type Call struct {
	ctx      context.Context
	table    *Table
	receiver string
	op       string
	mro      hierarchy.Linearization
	cursor   int
	trace    []string
}

func (c *Call) Context() context.Context { return c.ctx }

// Receiver is the class the operation was invoked on.
func (c *Call) Receiver() string { return c.receiver }

func (c *Call) Op() string { return c.op }

// Class is the class whose implementation is currently running.
func (c *Call) Class() string {
	if c.cursor < 0 {
		return ""
	}
	return c.mro[c.cursor]
}

// Position is the cursor: the index of Class in MRO.
func (c *Call) Position() int { return c.cursor }

func (c *Call) MRO() hierarchy.Linearization {
	out := make(hierarchy.Linearization, len(c.mro))
	copy(out, c.mro)
	return out
}

// Trace lists, in order, the classes whose implementation ran.
func (c *Call) Trace() []string {
	out := make([]string, len(c.trace))
	copy(out, c.trace)
	return out
}

// HasNext reports whether a class after the cursor defines the operation.
func (c *Call) HasNext() bool {
	_, ok := c.table.scan(c.mro, c.op, c.cursor+1)
	return ok
}

// Next runs the first implementation after the cursor in the receiver's
// linearization. It never consults the current class's declared bases.
// At the end of the chain there is nothing left to run and Next returns nil.
func (c *Call) Next() error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	pos, ok := c.table.scan(c.mro, c.op, c.cursor+1)
	if !ok {
		return nil
	}
	return c.run(pos)
}

func (c *Call) run(pos int) error {
	impl, _ := c.table.lookup(c.mro[pos], c.op)
	prev := c.cursor
	c.cursor = pos
	defer func() { c.cursor = prev }()
	c.trace = append(c.trace, c.mro[pos])
	return impl(c)
}
