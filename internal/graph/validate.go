package graph

import (
	"fmt"
	"strings"

	oerrors "github.com/packsplit/packsplit/internal/errors"
)

// ValidationError lists every problem found in a graph.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("graph validation failed:")
	for _, p := range e.Problems {
		sb.WriteString("\n  ")
		sb.WriteString(p)
	}
	return sb.String()
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return oerrors.ErrValidation
}

// Validate checks that the graph is closed: every entry and import target
// exists and every edge kind is known. Entry names and async chunk names
// must be valid output names.
func (g *Graph) Validate() error {
	var problems []string

	if len(g.Entries) == 0 {
		problems = append(problems, "no entry points declared")
	}
	for _, name := range g.EntryNames() {
		id := g.Entries[name]
		if !ValidName(name) {
			problems = append(problems, fmt.Sprintf("entry %q: invalid name (allowed: letters, digits, and _ . ~ @ -)", name))
		}
		if _, ok := g.Modules[id]; !ok {
			problems = append(problems, fmt.Sprintf("entry %q: module %q not found", name, id))
		}
	}

	for _, id := range g.IDs() {
		m := g.Modules[id]
		switch m.Type {
		case "", TypeScript, TypeStyle, TypeAsset:
		default:
			problems = append(problems, fmt.Sprintf("module %q: unknown type %q", id, m.Type))
		}
		for i, imp := range m.Imports {
			if imp.Kind != ImportStatic && imp.Kind != ImportDynamic {
				problems = append(problems, fmt.Sprintf("module %q: import %d: unknown kind %q", id, i, imp.Kind))
			}
			if imp.ChunkName != "" && !ValidName(imp.ChunkName) {
				problems = append(problems, fmt.Sprintf("module %q: import %q: invalid chunk name %q", id, imp.Path, imp.ChunkName))
			}
			if _, ok := g.Modules[imp.Path]; !ok {
				problems = append(problems, fmt.Sprintf("module %q: import %q not found", id, imp.Path))
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
