// Package errors provides sentinel errors for packsplit.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for known conditions.
var (
	// ErrValidation indicates an invalid configuration or graph.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a graph, config, or manifest file was not found.
	ErrNotFound = errors.New("not found")

	// ErrRule indicates a malformed output rule.
	ErrRule = errors.New("invalid output rule")

	// ErrTemplate indicates a malformed or incomplete filename template.
	ErrTemplate = errors.New("invalid filename template")
)

// DetailError is an error rendered as a multi-line block with the file,
// field and hint that help the user fix it. Only Type and Message are
// required.
type DetailError struct {
	Type    string
	Message string

	// Location is a file path, optionally suffixed with ":line".
	Location string

	// Field is a dotted config path such as "rules[1].test".
	Field string

	// Context holds extra labelled values, printed sorted by label.
	Context map[string]string

	Hint  string
	Cause error
}

// Error renders the error as a block for terminal display:
//
//	Error: <type>
//	  Location: <location>
//	  Field: <field>
//	  <context key>: <value>
//
//	  <message>
//
//	Hint: <hint>
func (e *DetailError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n", e.Type)

	header := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "  %s: %s\n", label, value)
		}
	}
	header("Location", e.Location)
	header("Field", e.Field)

	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		header(k, e.Context[k])
	}

	fmt.Fprintf(&b, "\n  %s\n", e.Message)
	if e.Hint != "" {
		fmt.Fprintf(&b, "\nHint: %s\n", e.Hint)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *DetailError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a validation error with details.
func NewValidationError(message, location, field, hint string) error {
	return &DetailError{
		Type:     "validation failed",
		Message:  message,
		Location: location,
		Field:    field,
		Hint:     hint,
		Cause:    ErrValidation,
	}
}

// NewNotFoundError creates a not found error for a missing file.
func NewNotFoundError(message, location, hint string) error {
	return &DetailError{
		Type:     "not found",
		Message:  message,
		Location: location,
		Hint:     hint,
		Cause:    ErrNotFound,
	}
}

// Wrap prefixes sentinel with message, keeping it matchable by errors.Is.
func Wrap(sentinel error, message string) error {
	return fmt.Errorf("%s: %w", message, sentinel)
}
