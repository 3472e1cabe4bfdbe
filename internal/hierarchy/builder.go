package hierarchy

import (
	"github.com/gyaneshwarpardhi/mro/internal/config"
)

// Build constructs a Graph from a hierarchy description.
// Malformed input (empty or duplicate names, unknown or repeated bases, cycles)
// is rejected here with an *InvalidHierarchyError, before any linearization.
func Build(cfg *config.HierarchyConfig) (*Graph, error) {
	g := newGraph(cfg.Root)

	declared := make(map[string]config.ClassDef, len(cfg.Classes))
	for i, c := range cfg.Classes {
		if c.Name == "" {
			return nil, invalidf("", "classes[%d]: name is required", i)
		}
		if _, dup := declared[c.Name]; dup {
			return nil, invalidf(c.Name, "declared more than once")
		}
		declared[c.Name] = c
	}
	for _, c := range cfg.Classes {
		seen := make(map[string]struct{}, len(c.Bases))
		for j, b := range c.Bases {
			if b == "" {
				return nil, invalidf(c.Name, "bases[%d] is empty", j)
			}
			if b == c.Name {
				return nil, invalidf(c.Name, "cannot inherit from itself")
			}
			if _, dup := seen[b]; dup {
				return nil, invalidf(c.Name, "duplicate base %q", b)
			}
			seen[b] = struct{}{}
			if _, ok := declared[b]; !ok && b != cfg.Root {
				return nil, invalidf(c.Name, "unknown base %q", b)
			}
		}
		if c.Name == cfg.Root && len(c.Bases) > 0 {
			return nil, invalidf(c.Name, "the root class cannot declare bases")
		}
	}
	if cycle := config.FindCycle(cfg); len(cycle) > 0 {
		return nil, cycleError(cycle)
	}

	for _, c := range cfg.Classes {
		n := &ClassNode{name: c.Name}
		for _, m := range c.Methods {
			n.methods = append(n.methods, Method{Name: m.Name, Super: m.Super})
		}
		g.addClass(n)
	}
	if cfg.Root != "" {
		if _, ok := declared[cfg.Root]; !ok {
			g.addClass(&ClassNode{name: cfg.Root})
		}
	}

	for _, c := range cfg.Classes {
		n := g.classes[c.Name]
		if len(c.Bases) == 0 && cfg.Root != "" && c.Name != cfg.Root {
			n.parents = []*ClassNode{g.classes[cfg.Root]}
			n.implicit = true
			continue
		}
		for _, b := range c.Bases {
			n.parents = append(n.parents, g.classes[b])
		}
	}
	return g, nil
}
