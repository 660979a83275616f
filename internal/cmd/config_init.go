package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/packsplit/packsplit/internal/config"
	oerrors "github.com/packsplit/packsplit/internal/errors"
	"github.com/packsplit/packsplit/internal/output"
)

// NewConfigInitCmd creates the config init command.
func NewConfigInitCmd() *cobra.Command {
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Long: `Write the default packsplit.yaml: the react, antd and libs vendor rules,
image inlining below 10 KiB, and development and production profiles.

The path is resolved using precedence:
  --config flag > PACKSPLIT_CONFIG env > ./packsplit.yaml

Examples:
  # Create packsplit.yaml in the current directory
  packsplit config init

  # Overwrite an existing file
  packsplit config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(forceFlag)
		},
	}

	cmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

func runConfigInit(force bool) error {
	path := configPath.Value

	exists, err := config.ConfigFileExists(appFs, path)
	if err != nil {
		return exitError(err)
	}
	if exists && !force {
		return exitError(&oerrors.DetailError{
			Type:     "validation failed",
			Message:  "configuration already exists",
			Location: path,
			Hint:     "Use --force to overwrite existing configuration.",
			Cause:    oerrors.ErrValidation,
		})
	}

	content, err := config.InitContent()
	if err != nil {
		return exitError(err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := appFs.MkdirAll(dir, 0o755); err != nil {
			return exitError(fmt.Errorf("creating %s: %w", dir, err))
		}
	}
	if err := afero.WriteFile(appFs, path, content, 0o644); err != nil {
		return exitError(fmt.Errorf("writing %s: %w", path, err))
	}

	output.Println(output.FormatCheckmark("Configuration written to " + path))
	output.Println("Validate with: packsplit config vet")
	return nil
}
