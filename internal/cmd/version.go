package cmd

import (
	"github.com/spf13/cobra"

	"github.com/packsplit/packsplit/internal/output"
	"github.com/packsplit/packsplit/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Show packsplit version information.

Displays:
  - packsplit version, commit, and build date
  - CUE SDK version used for config validation`,
		RunE: runVersion,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	output.Println(version.Get().String())
	return nil
}
