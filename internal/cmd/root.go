package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/packsplit/packsplit/internal/config"
	oerrors "github.com/packsplit/packsplit/internal/errors"
	"github.com/packsplit/packsplit/internal/output"
	"github.com/packsplit/packsplit/internal/partition"
	"github.com/packsplit/packsplit/internal/version"
)

var (
	// Global flags
	configFlag     string
	modeFlag       string
	verboseFlag    bool
	timestampsFlag bool

	// appFs is the filesystem every command reads and writes. Tests swap it
	// for an in-memory one.
	appFs afero.Fs = afero.NewOsFs()

	// Loaded during PersistentPreRunE
	configPath config.ResolvedValue
	rawConfig  *config.Config
	configErr  error
)

// NewRootCmd creates the root command for the packsplit CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "packsplit",
		Short: "Split a module graph into cacheable output chunks",
		Long: `packsplit partitions a resolved module graph into output chunks: a runtime
chunk per entry, vendor chunks selected by prioritized rules, the
application chunk and lazily loaded async chunks. Production builds name
every file by a fingerprint of its contents for long-term caching.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeGlobals(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to config file (env: PACKSPLIT_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&modeFlag, "mode", "m", "", "Build mode: development or production (env: PACKSPLIT_MODE, NODE_ENV)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&timestampsFlag, "timestamps", true, "Show timestamps in log output")

	rootCmd.AddCommand(NewBuildCmd())
	rootCmd.AddCommand(NewPlanCmd())
	rootCmd.AddCommand(NewDiffCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// initializeGlobals loads configuration and sets up logging. A config
// error is kept for the commands that need a config; the rest still run.
func initializeGlobals(cmd *cobra.Command) error {
	configPath = config.ResolveConfigPath(configFlag)
	rawConfig, configErr = loadConfig(configPath)

	logCfg := output.LogConfig{
		Verbose: verboseFlag,
	}
	if cmd.Flags().Changed("timestamps") {
		logCfg.Timestamps = output.BoolPtr(timestampsFlag)
	} else if rawConfig != nil && rawConfig.Log.Timestamps != nil {
		logCfg.Timestamps = rawConfig.Log.Timestamps
	}
	output.SetupLogging(logCfg)

	if configErr != nil {
		output.Debug("config load error", "error", configErr)
	}

	info := version.Get()
	output.Debug("packsplit started", "version", info.Version, "config", configPath.Value)
	return nil
}

// loadConfig validates and reads the config file. A missing default file
// yields an empty config; a missing file named by flag or env is an error.
func loadConfig(path config.ResolvedValue) (*config.Config, error) {
	exists, err := config.ConfigFileExists(appFs, path.Value)
	if err != nil {
		return nil, err
	}

	loader := config.NewLoader(appFs)
	if !exists {
		if path.Source != config.SourceDefault {
			return nil, &oerrors.DetailError{
				Type:     "not found",
				Message:  "configuration file not found",
				Location: path.Value,
				Hint:     "Run 'packsplit config init' to create one.",
				Cause:    oerrors.ErrNotFound,
			}
		}
		return loader.Load(path.Value)
	}

	if err := loader.Vet(path.Value); err != nil {
		return nil, err
	}
	return loader.Load(path.Value)
}

// resolveConfig returns the configuration for the resolved build mode.
func resolveConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}

	modeValue := config.ResolveMode(config.ResolveModeOptions{
		FlagValue:   modeFlag,
		ConfigValue: rawConfig.Mode,
	})
	config.LogResolvedValues([]config.ResolvedValue{configPath, modeValue})

	mode, err := partition.ParseMode(modeValue.Value)
	if err != nil {
		return nil, &oerrors.DetailError{
			Type:    "validation failed",
			Message: err.Error(),
			Field:   "mode",
			Context: map[string]string{"source": string(modeValue.Source)},
			Hint:    "Use development or production.",
			Cause:   oerrors.ErrValidation,
		}
	}

	return rawConfig.ForMode(mode.String())
}
