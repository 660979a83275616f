package partition

import (
	"errors"
	"fmt"
	"strings"

	oerrors "github.com/packsplit/packsplit/internal/errors"
)

// ErrRuntimeImpure indicates that graph modules ended up in a runtime
// chunk. The runtime chunk must only ever hold the generated bootstrap.
var ErrRuntimeImpure = errors.New("runtime chunk contains application modules")

// RuleError reports a malformed output or asset rule.
type RuleError struct {
	// Set is "rules" or "assets".
	Set string

	// Index is the rule's position in its declaration list.
	Index int

	// Name is the rule name, if any.
	Name string

	// Field is the offending field ("test", "package", "chunk").
	Field string

	// Value is the offending field content.
	Value string

	// Message describes the problem.
	Message string

	// Cause is the underlying error (e.g. a regexp syntax error).
	Cause error
}

func (e *RuleError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]", e.Set, e.Index)
	if e.Name != "" {
		fmt.Fprintf(&b, " (%s)", e.Name)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s %q", e.Field, e.Value)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes both ErrRule and the underlying cause.
func (e *RuleError) Unwrap() []error {
	if e.Cause == nil {
		return []error{oerrors.ErrRule}
	}
	return []error{oerrors.ErrRule, e.Cause}
}

// TemplateError reports a malformed filename template or one missing a
// placeholder the mode requires.
type TemplateError struct {
	Class    FileClass
	Template string
	Message  string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("%s template %q: %s", e.Class, e.Template, e.Message)
}

// Unwrap returns ErrTemplate.
func (e *TemplateError) Unwrap() error {
	return oerrors.ErrTemplate
}

// CollisionError reports two outputs rendering to the same path.
type CollisionError struct {
	Path   string
	First  string
	Second string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("output path %q is produced by both %s and %s", e.Path, e.First, e.Second)
}

// Unwrap returns ErrTemplate: a collision always means a template lacks a
// distinguishing placeholder.
func (e *CollisionError) Unwrap() error {
	return oerrors.ErrTemplate
}

// ImpureRuntimeError names the runtime chunk and the modules that leaked
// into it.
type ImpureRuntimeError struct {
	Chunk   string
	Modules []string
}

func (e *ImpureRuntimeError) Error() string {
	return fmt.Sprintf("runtime chunk %q must not contain modules, found: %s",
		e.Chunk, strings.Join(e.Modules, ", "))
}

// Unwrap returns ErrRuntimeImpure.
func (e *ImpureRuntimeError) Unwrap() error {
	return ErrRuntimeImpure
}
