package config

import (
	"fmt"
	"strings"
)

// Validate checks the config for:
//   - Required fields
//   - Duplicate class names and duplicate bases within one class
//   - Bases that reference undeclared classes
//   - Cycles in the base graph
//   - Negative engine settings
//
// All problems are collected into a single error.
func Validate(cfg *HierarchyConfig) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	if cfg.Engine.Workers < 0 {
		errs = append(errs, fmt.Sprintf("engine.workers must not be negative (got %d)", cfg.Engine.Workers))
	}
	if cfg.Engine.QueueDepth < 0 {
		errs = append(errs, fmt.Sprintf("engine.queue_depth must not be negative (got %d)", cfg.Engine.QueueDepth))
	}
	if cfg.Engine.RequestTimeoutMs < 0 {
		errs = append(errs, fmt.Sprintf("engine.request_timeout_ms must not be negative (got %d)", cfg.Engine.RequestTimeoutMs))
	}

	declared := make(map[string]int, len(cfg.Classes)) // name → index
	for i, c := range cfg.Classes {
		if c.Name == "" {
			errs = append(errs, fmt.Sprintf("classes[%d]: name is required", i))
			continue
		}
		if prev, ok := declared[c.Name]; ok {
			errs = append(errs, fmt.Sprintf("duplicate class %q (classes[%d] and classes[%d])", c.Name, prev, i))
			continue
		}
		declared[c.Name] = i
	}

	for _, c := range cfg.Classes {
		if c.Name == "" {
			continue
		}
		seen := make(map[string]struct{}, len(c.Bases))
		for j, b := range c.Bases {
			switch {
			case b == "":
				errs = append(errs, fmt.Sprintf("class %s: bases[%d] is empty", c.Name, j))
				continue
			case b == c.Name:
				errs = append(errs, fmt.Sprintf("class %s: cannot inherit from itself", c.Name))
				continue
			}
			if _, dup := seen[b]; dup {
				errs = append(errs, fmt.Sprintf("class %s: duplicate base %q", c.Name, b))
				continue
			}
			seen[b] = struct{}{}
			if _, ok := declared[b]; !ok && b != cfg.Root {
				errs = append(errs, fmt.Sprintf("class %s: unknown base %q", c.Name, b))
			}
		}
		if c.Name == cfg.Root && len(c.Bases) > 0 {
			errs = append(errs, fmt.Sprintf("class %s: the root class cannot declare bases", c.Name))
		}
		methods := make(map[string]struct{}, len(c.Methods))
		for k, m := range c.Methods {
			if m.Name == "" {
				errs = append(errs, fmt.Sprintf("class %s: methods[%d]: name is required", c.Name, k))
				continue
			}
			if _, dup := methods[m.Name]; dup {
				errs = append(errs, fmt.Sprintf("class %s: duplicate method %q", c.Name, m.Name))
			}
			methods[m.Name] = struct{}{}
		}
	}

	if cycle := FindCycle(cfg); len(cycle) > 0 {
		errs = append(errs, fmt.Sprintf("inheritance cycle: %s", strings.Join(cycle, " -> ")))
	}

	if len(errs) > 0 {
		return fmt.Errorf("hierarchy validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// FindCycle returns one inheritance cycle as a closed path (first == last),
// or nil when the base graph is acyclic. Classes are visited in declaration
// order and bases in their listed order, so the witness is stable.
func FindCycle(cfg *HierarchyConfig) []string {
	const (
		white = iota
		gray
		black
	)
	bases := make(map[string][]string, len(cfg.Classes))
	for _, c := range cfg.Classes {
		if _, ok := bases[c.Name]; !ok {
			bases[c.Name] = c.Bases
		}
	}

	color := make(map[string]int, len(bases))
	var stack []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = gray
		stack = append(stack, name)
		for _, b := range bases[name] {
			switch color[b] {
			case white:
				if visit(b) {
					return true
				}
			case gray:
				// Back edge name → b: the cycle is the stack suffix starting at b.
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == b {
						cycle = append(append([]string{}, stack[i:]...), b)
						return true
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return false
	}

	for _, c := range cfg.Classes {
		if color[c.Name] == white && visit(c.Name) {
			return cycle
		}
	}
	return nil
}
