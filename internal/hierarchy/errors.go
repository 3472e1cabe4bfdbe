package hierarchy

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidHierarchy      = errors.New("invalid hierarchy")
	ErrInconsistentHierarchy = errors.New("inconsistent hierarchy")
	ErrClassNotFound         = errors.New("class not found")
)

// InvalidHierarchyError reports malformed input detected while building a
// Graph: an unknown base, a duplicate, or an inheritance cycle.
type InvalidHierarchyError struct {
	Class string
	Cycle []string // closed path when the problem is a cycle
	Msg   string
}

func (e *InvalidHierarchyError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(ErrInvalidHierarchy.Error())
	if e.Class != "" {
		fmt.Fprintf(&b, ": class %s", e.Class)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

func (e *InvalidHierarchyError) Unwrap() error { return ErrInvalidHierarchy }

func invalidf(class, format string, args ...any) error {
	return &InvalidHierarchyError{Class: class, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(path []string) error {
	return &InvalidHierarchyError{
		Class: path[0],
		Cycle: path,
		Msg:   "inheritance cycle: " + strings.Join(path, " -> "),
	}
}

// Conflict is one ordering constraint that blocked the merge: Class could not
// be placed because some input sequence lists it after Blocker.
type Conflict struct {
	Class   string `json:"class"`
	Blocker string `json:"blocker"`
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s must follow %s", c.Class, c.Blocker)
}

// InconsistentHierarchyError is returned when the C3 merge reaches a state in
// which every remaining head appears in the tail of another sequence.
type InconsistentHierarchyError struct {
	Class      string     // class whose linearization failed
	Candidates []string   // remaining heads, in merge argument order
	Conflicts  []Conflict // one per candidate
}

func (e *InconsistentHierarchyError) Error() string {
	if e == nil {
		return ""
	}
	parts := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		parts[i] = c.String()
	}
	return fmt.Sprintf("%s: cannot create a consistent method resolution order for %s (bases %s): %s",
		ErrInconsistentHierarchy, e.Class, strings.Join(e.Candidates, ", "), strings.Join(parts, "; "))
}

func (e *InconsistentHierarchyError) Unwrap() error { return ErrInconsistentHierarchy }

func notFound(name string) error {
	return fmt.Errorf("%w: %q", ErrClassNotFound, name)
}
