// Package cmd provides CLI command implementations.
package cmd

// Process exit codes. Values between the named ones are reserved so the
// numbering stays compatible with scripts written against earlier releases.
const (
	ExitSuccess      = 0
	ExitGeneralError = 1

	// ExitValidationError covers an invalid config file, output rule,
	// filename template or build graph.
	ExitValidationError = 2

	// ExitNotFound means a graph, config or manifest file is missing.
	ExitNotFound = 5
)

var exitCodeNames = map[int]string{
	ExitSuccess:         "Success",
	ExitGeneralError:    "General Error",
	ExitValidationError: "Validation Error",
	ExitNotFound:        "Not Found",
}

// ExitCodeName returns a display name for code.
func ExitCodeName(code int) string {
	if name, ok := exitCodeNames[code]; ok {
		return name
	}
	return "Unknown"
}
