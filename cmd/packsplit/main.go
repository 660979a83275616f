// Command packsplit partitions a build graph into output chunks.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/packsplit/packsplit/internal/cmd"
)

func main() {
	err := cmd.NewRootCmd().Execute()
	if err == nil {
		return
	}

	var exitErr *cmd.ExitError
	if !errors.As(err, &exitErr) || !exitErr.Printed {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cmd.ExitCodeFromError(err))
}
