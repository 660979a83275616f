package partition

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/packsplit/packsplit/internal/graph"
)

// RuleSpec is an output rule as declared in configuration.
type RuleSpec struct {
	// Name identifies the rule in messages.
	Name string

	// Test is a regular expression matched against the module ID.
	Test string

	// Package is a regular expression matched against the originating
	// package. First-party modules never match a package pattern.
	Package string

	// Vendor, when set, requires a third-party (true) or first-party
	// (false) module.
	Vendor *bool

	// Chunk is the target chunk name.
	Chunk string

	// Priority orders rules; higher is evaluated first.
	Priority int
}

// Rule is a compiled output rule.
type Rule struct {
	// Index is the declaration position, used as the tie-break.
	Index    int
	Name     string
	Chunk    string
	Priority int

	test   *regexp.Regexp
	pkg    *regexp.Regexp
	vendor *bool
}

// CompileRules compiles rule specs and returns them in evaluation order:
// descending priority, and for equal priority, declaration order. The first
// malformed rule aborts compilation with a *RuleError.
func CompileRules(specs []RuleSpec) ([]*Rule, error) {
	rules := make([]*Rule, 0, len(specs))

	for i, spec := range specs {
		r := &Rule{
			Index:    i,
			Name:     spec.Name,
			Chunk:    spec.Chunk,
			Priority: spec.Priority,
			vendor:   spec.Vendor,
		}
		if r.Name == "" {
			r.Name = spec.Chunk
		}

		if spec.Test == "" && spec.Package == "" && spec.Vendor == nil {
			return nil, &RuleError{Set: "rules", Index: i, Name: spec.Name,
				Message: "rule needs at least one of test, package or vendor"}
		}
		if !graph.ValidName(spec.Chunk) {
			return nil, &RuleError{Set: "rules", Index: i, Name: spec.Name, Field: "chunk", Value: spec.Chunk,
				Message: "chunk name must be a single path element of letters, digits, '.', '_', '~', '@' and '-'"}
		}

		var err error
		if spec.Test != "" {
			if r.test, err = regexp.Compile(spec.Test); err != nil {
				return nil, &RuleError{Set: "rules", Index: i, Name: spec.Name, Field: "test", Value: spec.Test,
					Message: "invalid pattern", Cause: err}
			}
		}
		if spec.Package != "" {
			if r.pkg, err = regexp.Compile(spec.Package); err != nil {
				return nil, &RuleError{Set: "rules", Index: i, Name: spec.Name, Field: "package", Value: spec.Package,
					Message: "invalid pattern", Cause: err}
			}
		}

		rules = append(rules, r)
	}

	sortRules(rules)
	return rules, nil
}

// sortRules orders by descending priority. The sort is stable, so equal
// priorities keep declaration order: the first registered rule wins.
func sortRules(rules []*Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
}

// Describe renders the rule's predicates, e.g.
// "test[/node_modules/], vendor[true]".
func (r *Rule) Describe() string {
	var parts []string
	if r.test != nil {
		parts = append(parts, "test["+r.test.String()+"]")
	}
	if r.pkg != nil {
		parts = append(parts, "package["+r.pkg.String()+"]")
	}
	if r.vendor != nil {
		parts = append(parts, fmt.Sprintf("vendor[%t]", *r.vendor))
	}
	return strings.Join(parts, ", ")
}
