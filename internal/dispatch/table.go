// Package dispatch resolves operations against C3 linearizations and runs
// cooperative "next in order" chains.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gyaneshwarpardhi/mro/internal/hierarchy"
)

var ErrMethodNotFound = errors.New("method not found")

// Impl is one class's implementation of an operation. It may call
// call.Next() to forward to the next provider in the receiver's order.
type Impl func(call *Call) error

// Provider identifies the class that supplies an operation for a receiver.
type Provider struct {
	Class    string                  `json:"class"`
	Position int                     `json:"position"`
	MRO      hierarchy.Linearization `json:"mro"`
}

// Table maps (class, operation) pairs to implementations.
// It is safe for concurrent reads; Define should only be called at startup.
type Table struct {
	graph   *hierarchy.Graph
	mu      sync.RWMutex
	methods map[string]map[string]Impl // class → op → impl
}

// NewTable creates an empty Table over g.
func NewTable(g *hierarchy.Graph) *Table {
	return &Table{graph: g, methods: make(map[string]map[string]Impl)}
}

// Graph returns the hierarchy the table dispatches over.
func (t *Table) Graph() *hierarchy.Graph { return t.graph }

// Define binds impl to op on class.
func (t *Table) Define(class, op string, impl Impl) error {
	if _, ok := t.graph.Class(class); !ok {
		return fmt.Errorf("define %s.%s: %w: %q", class, op, hierarchy.ErrClassNotFound, class)
	}
	if impl == nil {
		return fmt.Errorf("define %s.%s: nil implementation", class, op)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	ops, ok := t.methods[class]
	if !ok {
		ops = make(map[string]Impl)
		t.methods[class] = ops
	}
	if _, exists := ops[op]; exists {
		return fmt.Errorf("define %s.%s: already defined", class, op)
	}
	ops[op] = impl
	return nil
}

// Defines reports whether op is defined directly on class.
func (t *Table) Defines(class, op string) bool {
	_, ok := t.lookup(class, op)
	return ok
}

func (t *Table) lookup(class, op string) (Impl, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	impl, ok := t.methods[class][op]
	return impl, ok
}

// Resolve returns the first class in class's linearization that defines op.
func (t *Table) Resolve(class, op string) (Provider, error) {
	mro, err := t.graph.Linearize(class)
	if err != nil {
		return Provider{}, err
	}
	pos, ok := t.scan(mro, op, 0)
	if !ok {
		return Provider{}, fmt.Errorf("%w: %s has no %q in %s", ErrMethodNotFound, class, op, mro)
	}
	return Provider{Class: mro[pos], Position: pos, MRO: mro}, nil
}

// scan finds the first position >= from in mro whose class defines op.
func (t *Table) scan(mro hierarchy.Linearization, op string, from int) (int, bool) {
	for i := from; i < len(mro); i++ {
		if t.Defines(mro[i], op) {
			return i, true
		}
	}
	return 0, false
}

// Invoke resolves op for an instance of class and runs it. The returned Call
// carries the trace of every implementation that ran, also on error.
// A nil ctx is treated as context.Background().
func (t *Table) Invoke(ctx context.Context, class, op string) (*Call, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := t.Resolve(class, op)
	if err != nil {
		return nil, err
	}
	c := &Call{ctx: ctx, table: t, receiver: class, op: op, mro: p.MRO, cursor: -1}
	return c, c.run(p.Position)
}
