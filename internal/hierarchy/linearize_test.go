package hierarchy_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/mro/internal/config"
	"github.com/gyaneshwarpardhi/mro/internal/hierarchy"
)

func class(name string, bases ...string) config.ClassDef {
	return config.ClassDef{Name: name, Bases: bases}
}

func mustBuild(t *testing.T, root string, classes ...config.ClassDef) *hierarchy.Graph {
	t.Helper()
	g, err := hierarchy.Build(&config.HierarchyConfig{Version: "v1", Root: root, Classes: classes})
	require.NoError(t, err)
	return g
}

func diamond(t *testing.T, root string) *hierarchy.Graph {
	return mustBuild(t, root,
		class("A"),
		class("B", "A"),
		class("C", "A"),
		class("D", "B", "C"),
	)
}

func TestLinearize(t *testing.T) {
	tests := []struct {
		name    string
		root    string
		classes []config.ClassDef
		target  string
		want    []string
	}{
		{
			name:    "single class",
			classes: []config.ClassDef{class("A")},
			target:  "A",
			want:    []string{"A"},
		},
		{
			name:    "single class with root",
			root:    "object",
			classes: []config.ClassDef{class("A")},
			target:  "A",
			want:    []string{"A", "object"},
		},
		{
			name:    "root alone",
			root:    "object",
			classes: []config.ClassDef{class("A")},
			target:  "object",
			want:    []string{"object"},
		},
		{
			name:    "disjoint bases",
			classes: []config.ClassDef{class("A"), class("B"), class("C", "A", "B")},
			target:  "C",
			want:    []string{"C", "A", "B"},
		},
		{
			name:    "disjoint bases with root",
			root:    "object",
			classes: []config.ClassDef{class("A"), class("B"), class("C", "A", "B")},
			target:  "C",
			want:    []string{"C", "A", "B", "object"},
		},
		{
			name:    "diamond",
			root:    "object",
			classes: []config.ClassDef{class("A"), class("B", "A"), class("C", "A"), class("D", "B", "C")},
			target:  "D",
			want:    []string{"D", "B", "C", "A", "object"},
		},
		{
			name:    "diamond with bases reversed",
			root:    "object",
			classes: []config.ClassDef{class("A"), class("B", "A"), class("C", "A"), class("D", "C", "B")},
			target:  "D",
			want:    []string{"D", "C", "B", "A", "object"},
		},
		{
			name:    "explicit root base",
			root:    "object",
			classes: []config.ClassDef{class("A", "object"), class("B", "A", "object")},
			target:  "B",
			want:    []string{"B", "A", "object"},
		},
		{
			// The classic example from the C3 paper.
			name: "wide and deep",
			root: "O",
			classes: []config.ClassDef{
				class("F"), class("E"), class("D"),
				class("C", "D", "F"),
				class("B", "D", "E"),
				class("A", "B", "C"),
			},
			target: "A",
			want:   []string{"A", "B", "C", "D", "E", "F", "O"},
		},
		{
			name: "shared ancestor at different depths",
			root: "O",
			classes: []config.ClassDef{
				class("F"), class("E"), class("D"),
				class("C", "D", "F"),
				class("B", "E", "D"),
				class("A", "B", "C"),
			},
			target: "A",
			want:   []string{"A", "B", "E", "C", "D", "F", "O"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustBuild(t, tt.root, tt.classes...)
			got, err := g.Linearize(tt.target)
			require.NoError(t, err)
			assert.Equal(t, hierarchy.Linearization(tt.want), got)
		})
	}
}

func TestLinearize_Invariants(t *testing.T) {
	g := mustBuild(t, "object",
		class("A"), class("B", "A"), class("C", "A"),
		class("D", "B", "C"), class("E", "C"),
		class("F", "D", "E"), class("G"), class("H", "F", "G"),
	)
	all, failed := g.LinearizeAll()
	require.Empty(t, failed)

	for name, l := range all {
		require.NotEmpty(t, l)
		assert.Equal(t, name, l[0], "class must come first in its own order")

		seen := make(map[string]struct{}, len(l))
		for _, c := range l {
			_, dup := seen[c]
			assert.False(t, dup, "%s appears twice in %s", c, l)
			seen[c] = struct{}{}
		}
		for _, other := range g.Names() {
			if g.IsAncestor(other, name) {
				assert.Greater(t, l.Index(other), 0, "%s must follow %s", other, name)
			}
		}
		// Every class precedes its own ancestors within any order that includes it.
		for i, c := range l {
			for _, p := range l[:i] {
				assert.False(t, g.IsAncestor(p, c),
					"%s listed before its descendant %s in %s", p, c, name)
			}
		}
		// Local precedence: direct bases keep their declared order.
		n, _ := g.Class(name)
		last := -1
		for _, p := range n.ParentNames() {
			idx := l.Index(p)
			assert.Greater(t, idx, last, "bases of %s out of order in %s", name, l)
			last = idx
		}
	}
}

func TestLinearize_Inconsistent(t *testing.T) {
	g := mustBuild(t, "object",
		class("A"), class("B"),
		class("X", "A", "B"),
		class("Y", "B", "A"),
		class("Z", "X", "Y"),
	)

	_, err := g.Linearize("Z")
	require.Error(t, err)
	assert.True(t, errors.Is(err, hierarchy.ErrInconsistentHierarchy))

	var ie *hierarchy.InconsistentHierarchyError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "Z", ie.Class)
	assert.Equal(t, []string{"A", "B"}, ie.Candidates)
	assert.Equal(t, []hierarchy.Conflict{
		{Class: "A", Blocker: "B"},
		{Class: "B", Blocker: "A"},
	}, ie.Conflicts)
	assert.Contains(t, err.Error(), "A must follow B")

	// The partial classes are still fine.
	x, err := g.Linearize("X")
	require.NoError(t, err)
	assert.Equal(t, hierarchy.Linearization{"X", "A", "B", "object"}, x)
}

func TestLinearize_InconsistentIsDeterministic(t *testing.T) {
	build := func() error {
		g := mustBuild(t, "",
			class("A"), class("B"),
			class("X", "A", "B"), class("Y", "B", "A"),
			class("Z", "X", "Y"),
		)
		_, err := g.Linearize("Z")
		return err
	}
	first := build()
	require.Error(t, first)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first.Error(), build().Error())
	}
}

func TestLinearize_LocalPrecedenceConflict(t *testing.T) {
	// B(A) with C(A, B): A must come after B, but C lists A first.
	g := mustBuild(t, "", class("A"), class("B", "A"), class("C", "A", "B"))
	_, err := g.Linearize("C")
	assert.ErrorIs(t, err, hierarchy.ErrInconsistentHierarchy)
}

func TestLinearize_InconsistentBasePropagates(t *testing.T) {
	g := mustBuild(t, "",
		class("A"), class("B"),
		class("X", "A", "B"), class("Y", "B", "A"),
		class("Z", "X", "Y"),
		class("W", "Z"),
	)
	_, err := g.Linearize("W")
	require.ErrorIs(t, err, hierarchy.ErrInconsistentHierarchy)

	var ie *hierarchy.InconsistentHierarchyError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Z", ie.Class)
	assert.Contains(t, err.Error(), "base Z of W")
}

func TestLinearize_UnknownClass(t *testing.T) {
	g := diamond(t, "")
	_, err := g.Linearize("Nope")
	assert.ErrorIs(t, err, hierarchy.ErrClassNotFound)
}

func TestLinearize_ReturnsCopy(t *testing.T) {
	g := diamond(t, "object")
	first, err := g.Linearize("D")
	require.NoError(t, err)
	first[1] = "mutated"

	second, err := g.Linearize("D")
	require.NoError(t, err)
	assert.Equal(t, hierarchy.Linearization{"D", "B", "C", "A", "object"}, second)
}

func TestLinearize_Concurrent(t *testing.T) {
	var classes []config.ClassDef
	classes = append(classes, class("C0"))
	for i := 1; i < 50; i++ {
		bases := []string{fmt.Sprintf("C%d", i-1)}
		if i > 2 {
			bases = append(bases, fmt.Sprintf("C%d", i-3))
		}
		classes = append(classes, class(fmt.Sprintf("C%d", i), bases...))
	}
	g := mustBuild(t, "object", classes...)
	want, err := mustBuild(t, "object", classes...).Linearize("C49")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := g.Linearize("C49")
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestLinearizeAll_ReportsFailuresSorted(t *testing.T) {
	g := mustBuild(t, "",
		class("A"), class("B"),
		class("Y", "B", "A"), class("X", "A", "B"),
		class("Z2", "Y", "X"), class("Z1", "X", "Y"),
	)
	ok, failed := g.LinearizeAll()
	require.Len(t, failed, 2)
	assert.Equal(t, "Z1", failed[0].Class)
	assert.Equal(t, "Z2", failed[1].Class)
	assert.ErrorIs(t, failed[0], hierarchy.ErrInconsistentHierarchy)
	assert.Len(t, ok, 4)
}

func TestLinearization_String(t *testing.T) {
	assert.Equal(t, "D -> B -> C -> A", hierarchy.Linearization{"D", "B", "C", "A"}.String())
	assert.Equal(t, -1, hierarchy.Linearization{"D"}.Index("A"))
}
