package hierarchy

import (
	"fmt"
	"sort"
)

// Linearize returns the C3 linearization of the named class:
//
//	L[C] = C + merge(L[P1], ..., L[Pn], [P1, ..., Pn])
//
// Results are memoized on the Graph, so each class is computed at most once
// and concurrent callers share the outcome. The returned slice is a copy.
func (g *Graph) Linearize(name string) (Linearization, error) {
	if _, ok := g.memo[name]; !ok {
		return nil, notFound(name)
	}
	mro, err := g.cached(name)
	if err != nil {
		return nil, err
	}
	out := make(Linearization, len(mro))
	copy(out, mro)
	return out, nil
}

func (g *Graph) linearize(n *ClassNode) (Linearization, error) {
	if len(n.parents) == 0 {
		return Linearization{n.name}, nil
	}

	seqs := make([][]string, 0, len(n.parents)+1)
	for _, p := range n.parents {
		l, err := g.cached(p.name)
		if err != nil {
			return nil, fmt.Errorf("base %s of %s: %w", p.name, n.name, err)
		}
		seqs = append(seqs, l)
	}
	seqs = append(seqs, n.ParentNames())

	merged, conflict := merge(seqs)
	if conflict != nil {
		conflict.Class = n.name
		return nil, conflict
	}
	out := make(Linearization, 0, len(merged)+1)
	out = append(out, n.name)
	return append(out, merged...), nil
}

// cached is Linearize without the lookup check or the defensive copy.
// Build guarantees the base graph is acyclic, so the recursion through
// once.Do never re-enters the same entry.
func (g *Graph) cached(name string) (Linearization, error) {
	e := g.memo[name]
	e.once.Do(func() {
		e.mro, e.err = g.linearize(g.classes[name])
	})
	return e.mro, e.err
}

// merge performs the C3 merge of seqs. It never modifies its input.
//
// Each step takes the first head, in argument order, that does not occur in
// the tail of any sequence. inTail counts tail occurrences; because a name
// occurs at most once per sequence, advancing a cursor only ever removes the
// new head from the tail count.
func merge(seqs [][]string) ([]string, *InconsistentHierarchyError) {
	cursor := make([]int, len(seqs))
	inTail := make(map[string]int)
	total := 0
	for _, s := range seqs {
		for i := 1; i < len(s); i++ {
			inTail[s[i]]++
		}
		total += len(s)
	}

	out := make([]string, 0, total)
	for {
		next, remaining := "", false
		for i, s := range seqs {
			if cursor[i] >= len(s) {
				continue
			}
			remaining = true
			if head := s[cursor[i]]; inTail[head] == 0 {
				next = head
				break
			}
		}
		if !remaining {
			return out, nil
		}
		if next == "" {
			return nil, blocked(seqs, cursor)
		}

		out = append(out, next)
		for i, s := range seqs {
			if cursor[i] < len(s) && s[cursor[i]] == next {
				cursor[i]++
				if cursor[i] < len(s) {
					inTail[s[cursor[i]]]--
				}
			}
		}
	}
}

// blocked describes a stuck merge: for every distinct remaining head, the
// head of the first sequence that still lists it in its tail.
func blocked(seqs [][]string, cursor []int) *InconsistentHierarchyError {
	err := &InconsistentHierarchyError{}
	seen := make(map[string]struct{})
	for i, s := range seqs {
		if cursor[i] >= len(s) {
			continue
		}
		head := s[cursor[i]]
		if _, dup := seen[head]; dup {
			continue
		}
		seen[head] = struct{}{}
		err.Candidates = append(err.Candidates, head)

	search:
		for j, t := range seqs {
			if cursor[j] >= len(t) {
				continue
			}
			for _, name := range t[cursor[j]+1:] {
				if name == head {
					err.Conflicts = append(err.Conflicts, Conflict{Class: head, Blocker: t[cursor[j]]})
					break search
				}
			}
		}
	}
	return err
}

// ClassError pairs a class with the reason its linearization failed.
type ClassError struct {
	Class string
	Err   error
}

func (e ClassError) Error() string { return fmt.Sprintf("%s: %v", e.Class, e.Err) }

func (e ClassError) Unwrap() error { return e.Err }

// LinearizeAll linearizes every class. Failures are returned sorted by class
// name; successes are keyed by class name.
func (g *Graph) LinearizeAll() (map[string]Linearization, []ClassError) {
	names := g.Names()
	ok := make(map[string]Linearization, len(names))
	var failed []ClassError
	for _, name := range names {
		l, err := g.Linearize(name)
		if err != nil {
			failed = append(failed, ClassError{Class: name, Err: err})
			continue
		}
		ok[name] = l
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].Class < failed[j].Class })
	return ok, failed
}
