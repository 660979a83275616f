package cmd

import (
	"errors"

	oerrors "github.com/packsplit/packsplit/internal/errors"
)

// ExitError carries the process exit code for a failed command. Printed is
// set when the command already reported Err to the user.
type ExitError struct {
	Err     error
	Code    int
	Printed bool
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError for err with the given code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// ExitCodeFromError maps err to an exit code. An explicit ExitError wins;
// otherwise the sentinel in the chain decides.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, oerrors.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, oerrors.ErrValidation),
		errors.Is(err, oerrors.ErrRule),
		errors.Is(err, oerrors.ErrTemplate):
		return ExitValidationError
	default:
		return ExitGeneralError
	}
}

// exitError attaches the exit code matching err.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return &ExitError{Err: err, Code: ExitCodeFromError(err)}
}
