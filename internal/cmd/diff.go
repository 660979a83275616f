package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/packsplit/packsplit/internal/manifest"
	"github.com/packsplit/packsplit/internal/output"
)

// NewDiffCmd creates the diff command.
func NewDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Compare two asset manifests",
		Long: `Compare two asset manifests, such as the output of two builds.

Prints a chunk summary (added, removed, re-fingerprinted) followed by a
structural diff of every manifest field.

Examples:
  packsplit diff old/asset-manifest.json dist/asset-manifest.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args[0], args[1])
		},
	}
}

func runDiff(oldPath, newPath string) error {
	from, err := manifest.Read(appFs, oldPath)
	if err != nil {
		return exitError(err)
	}
	to, err := manifest.Read(appFs, newPath)
	if err != nil {
		return exitError(err)
	}

	result, err := manifest.Compare(from, to, output.IsTTY())
	if err != nil {
		return exitError(fmt.Errorf("comparing manifests: %w", err))
	}

	if result.IsEmpty() {
		output.Println(output.FormatCheckmark(result.Summary()))
		return nil
	}

	for _, name := range result.Added {
		output.Println(output.StyleAdded.Render("+ " + name))
	}
	for _, name := range result.Removed {
		output.Println(output.StyleRemoved.Render("- " + name))
	}
	for _, c := range result.Changed {
		output.Println(output.StyleChanged.Render(fmt.Sprintf("~ %s %s → %s", c.Name, c.OldFingerprint, c.NewFingerprint)))
	}
	output.Println("")
	output.Println(output.StyleSummary.Render(result.Summary()))

	if result.Report != "" {
		output.Println("")
		output.Print(result.Report)
	}
	return nil
}
