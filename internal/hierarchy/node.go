package hierarchy

// Method is an operation declared directly on a class.
type Method struct {
	Name  string
	Super bool // forwards to the next class in the linearization
}

// ClassNode is one class and its direct bases in declaration order.
// Nodes are created by Build and never mutated afterwards.
type ClassNode struct {
	name    string
	parents []*ClassNode
	methods []Method
	// implicit is set when the only parent is the configured root and was
	// not written in the source file.
	implicit bool
}

func (n *ClassNode) Name() string { return n.name }

// Parents returns the direct bases in declaration order.
func (n *ClassNode) Parents() []*ClassNode {
	out := make([]*ClassNode, len(n.parents))
	copy(out, n.parents)
	return out
}

// ParentNames returns the names of the direct bases in declaration order.
func (n *ClassNode) ParentNames() []string {
	out := make([]string, len(n.parents))
	for i, p := range n.parents {
		out[i] = p.name
	}
	return out
}

// DeclaredParents is ParentNames without an implicit root.
func (n *ClassNode) DeclaredParents() []string {
	if n.implicit {
		return []string{}
	}
	return n.ParentNames()
}

func (n *ClassNode) Methods() []Method {
	out := make([]Method, len(n.methods))
	copy(out, n.methods)
	return out
}
