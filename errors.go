package fabrica

import (
	"fmt"
	"sort"
	"strings"
)

// NotFoundError is returned when a (model, alias) pair resolves to no
// registered factory. Lookups are exact: there is no fuzzy matching
// and no on-the-fly definition.
type NotFoundError struct {
	Name Name
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("factory not found: %s", e.Name)
}

// DerivationError is returned when deriving a factory under an alias
// that is already bound to a different parent. Re-deriving from the
// same parent is idempotent and does not error.
type DerivationError struct {
	Name     Name
	Parent   string // alias of the requested parent
	Existing string // alias of the parent the name is already bound to
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("factory %s cannot derive from %q: it is already derived from %q",
		e.Name, e.Parent, e.Existing)
}

// CyclicDependencyError is returned when the attribute dependency
// graph cannot be ordered. Dependencies maps every attribute that
// declares at least one dependency to its declared dependency list,
// not just the members of one cycle, to aid diagnosis.
type CyclicDependencyError struct {
	Dependencies map[string][]string
}

func (e *CyclicDependencyError) Error() string {
	names := make([]string, 0, len(e.Dependencies))
	for name := range e.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s -> %v", name, e.Dependencies[name]))
	}
	return "cyclic attribute dependencies: " + strings.Join(parts, ", ")
}
