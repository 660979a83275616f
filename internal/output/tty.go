package output

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether stderr is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
