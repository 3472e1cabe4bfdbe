package hierarchy

import (
	"sort"
	"strings"
	"sync"
)

// Linearization is a resolution order: the class itself followed by each of
// its ancestors exactly once.
type Linearization []string

// String renders the order as "D -> B -> C -> A".
func (l Linearization) String() string {
	return strings.Join(l, " -> ")
}

// Index returns the position of name, or -1.
func (l Linearization) Index(name string) int {
	for i, n := range l {
		if n == name {
			return i
		}
	}
	return -1
}

// Graph holds the classes of one hierarchy description.
// It is immutable once built; hot-reload creates a new Graph and swaps atomically.
type Graph struct {
	classes map[string]*ClassNode
	order   []string // declaration order
	root    string

	// One memo slot per class, allocated by Build. The map itself is never
	// written after Build returns.
	memo map[string]*memoEntry
}

type memoEntry struct {
	once sync.Once
	mro  Linearization
	err  error
}

func newGraph(root string) *Graph {
	return &Graph{
		classes: make(map[string]*ClassNode),
		memo:    make(map[string]*memoEntry),
		root:    root,
	}
}

func (g *Graph) addClass(n *ClassNode) {
	g.classes[n.name] = n
	g.order = append(g.order, n.name)
	g.memo[n.name] = &memoEntry{}
}

// Class returns a class by name.
func (g *Graph) Class(name string) (*ClassNode, bool) {
	n, ok := g.classes[name]
	return n, ok
}

// Classes returns every class in declaration order. A root that was not
// declared in the source comes last.
func (g *Graph) Classes() []*ClassNode {
	out := make([]*ClassNode, len(g.order))
	for i, name := range g.order {
		out[i] = g.classes[name]
	}
	return out
}

// Names returns every class name, sorted.
func (g *Graph) Names() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	sort.Strings(out)
	return out
}

// Root returns the configured universal ancestor ("" when none).
func (g *Graph) Root() string { return g.root }

// ClassCount returns the total number of classes.
func (g *Graph) ClassCount() int { return len(g.classes) }

// IsAncestor reports whether ancestor is reachable from name via base edges.
func (g *Graph) IsAncestor(ancestor, name string) bool {
	n, ok := g.classes[name]
	if !ok {
		return false
	}
	seen := make(map[string]struct{})
	stack := append([]*ClassNode{}, n.parents...)
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.name == ancestor {
			return true
		}
		if _, ok := seen[p.name]; ok {
			continue
		}
		seen[p.name] = struct{}{}
		stack = append(stack, p.parents...)
	}
	return false
}
