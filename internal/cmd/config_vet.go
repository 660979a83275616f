package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/packsplit/packsplit/internal/config"
	oerrors "github.com/packsplit/packsplit/internal/errors"
	"github.com/packsplit/packsplit/internal/output"
	"github.com/packsplit/packsplit/internal/pipeline"
)

// NewConfigVetCmd creates the config vet command.
func NewConfigVetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vet",
		Short: "Validate configuration",
		Long: `Validate the packsplit configuration file.

Checks performed:
  1. Config file exists at resolved path
  2. Config file matches the schema (types, enums, unknown fields)
  3. Rules, asset rules and templates compile for every mode

The config path is resolved using precedence:
  --config flag > PACKSPLIT_CONFIG env > ./packsplit.yaml

Examples:
  packsplit config vet
  packsplit config vet --config web/packsplit.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigVet()
		},
	}
}

func runConfigVet() error {
	path := configPath.Value
	output.Debug("validating config", "path", path, "source", configPath.Source)

	exists, err := config.ConfigFileExists(appFs, path)
	if err != nil {
		return exitError(err)
	}
	if !exists {
		return exitError(&oerrors.DetailError{
			Type:     "not found",
			Message:  "configuration file not found",
			Location: path,
			Hint:     "Run 'packsplit config init' to create default configuration.",
			Cause:    oerrors.ErrNotFound,
		})
	}

	// Schema errors surface here through loadConfig.
	if configErr != nil {
		return exitError(configErr)
	}

	for _, mode := range []string{config.ModeDevelopment, config.ModeProduction} {
		cfg, err := rawConfig.ForMode(mode)
		if err != nil {
			return exitError(err)
		}
		if _, err := pipeline.New(appFs, cfg); err != nil {
			return exitError(fmt.Errorf("%s mode: %w", mode, err))
		}
	}

	output.Println(output.FormatCheckmark("Configuration is valid: " + path))
	return nil
}
