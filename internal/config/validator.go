package config

import (
	"bytes"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"

	oerrors "github.com/packsplit/packsplit/internal/errors"
)

// FieldError is one schema violation.
type FieldError struct {
	// Path is the dotted field path, e.g. "output.manifestFormat".
	Path string
	// Position is file:line:col when known.
	Position string
	Message  string
}

// ValidationError lists every schema violation found in a config file.
type ValidationError struct {
	File   string
	Errors []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "config %s: %d schema error(s)", e.File, len(e.Errors))
	for _, fe := range e.Errors {
		b.WriteString("\n  ")
		if fe.Path != "" {
			b.WriteString(fe.Path)
			b.WriteString(": ")
		}
		b.WriteString(fe.Message)
		if fe.Position != "" {
			b.WriteString(" (")
			b.WriteString(fe.Position)
			b.WriteString(")")
		}
	}
	return b.String()
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error {
	return oerrors.ErrValidation
}

// ValidateBytes checks raw YAML config data against the #Config schema.
// Unknown fields are rejected because #Config is closed.
func ValidateBytes(filename string, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	ctx := cuecontext.New()
	schema := ctx.CompileBytes(configSchemaCUE, cue.Filename("config.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return newValidationError(filename, err)
	}
	value := ctx.BuildFile(file)
	if err := value.Err(); err != nil {
		return newValidationError(filename, err)
	}

	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return newValidationError(filename, err)
	}
	return nil
}

func newValidationError(filename string, err error) *ValidationError {
	ve := &ValidationError{File: filename}
	for _, e := range cueerrors.Errors(err) {
		path := e.Path()
		if len(path) > 0 && path[0] == "#Config" {
			path = path[1:]
		}
		format, args := e.Msg()
		fe := FieldError{
			Path:    strings.Join(path, "."),
			Message: fmt.Sprintf(format, args...),
		}
		if pos := e.Position(); pos.IsValid() {
			fe.Position = pos.String()
		}
		ve.Errors = append(ve.Errors, fe)
	}
	if len(ve.Errors) == 0 {
		ve.Errors = []FieldError{{Message: err.Error()}}
	}
	return ve
}
