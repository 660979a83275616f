package partition

import (
	"fmt"
	"strings"

	"github.com/packsplit/packsplit/internal/graph"
)

// MatchDetail records why a rule did or didn't match a module.
type MatchDetail struct {
	ModuleID string
	Rule     string
	Chunk    string
	Priority int
	Matched  bool
	Failed   []string
	Reason   string
}

// Matcher evaluates output rules against modules.
type Matcher struct {
	rules []*Rule
}

// NewMatcher creates a Matcher over rules already in evaluation order
// (as returned by CompileRules).
func NewMatcher(rules []*Rule) *Matcher {
	return &Matcher{rules: rules}
}

// Match evaluates rules top-down and returns the first that matches, or
// nil. Details cover every rule evaluated, up to and including the winner.
func (m *Matcher) Match(mod *graph.Module) (*Rule, []MatchDetail) {
	var details []MatchDetail

	for _, r := range m.rules {
		detail := m.evaluate(mod, r)
		details = append(details, detail)
		if detail.Matched {
			return r, details
		}
	}

	return nil, details
}

// evaluate checks every predicate of r against mod.
func (m *Matcher) evaluate(mod *graph.Module, r *Rule) MatchDetail {
	detail := MatchDetail{
		ModuleID: mod.ID,
		Rule:     r.Name,
		Chunk:    r.Chunk,
		Priority: r.Priority,
		Matched:  true,
	}

	if r.test != nil && !r.test.MatchString(mod.ID) {
		detail.Matched = false
		detail.Failed = append(detail.Failed, fmt.Sprintf("test %s", r.test))
	}

	if r.pkg != nil {
		switch {
		case mod.Package == "":
			detail.Matched = false
			detail.Failed = append(detail.Failed, "package (first-party module)")
		case !r.pkg.MatchString(mod.Package):
			detail.Matched = false
			detail.Failed = append(detail.Failed, fmt.Sprintf("package %s (got %q)", r.pkg, mod.Package))
		}
	}

	if r.vendor != nil && *r.vendor != mod.IsThirdParty() {
		detail.Matched = false
		if *r.vendor {
			detail.Failed = append(detail.Failed, "vendor (module is first-party)")
		} else {
			detail.Failed = append(detail.Failed, "first-party (module is third-party)")
		}
	}

	if detail.Matched {
		detail.Reason = "Matched: " + r.Describe()
	} else {
		detail.Reason = "Not matched: " + strings.Join(detail.Failed, "; ")
	}

	return detail
}
