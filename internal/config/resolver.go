package config

import (
	"os"
	"strings"

	"github.com/packsplit/packsplit/internal/output"
)

// ConfigSource indicates where a configuration value came from.
type ConfigSource string

const (
	// SourceFlag indicates value came from command-line flag.
	SourceFlag ConfigSource = "flag"
	// SourceEnv indicates value came from a PACKSPLIT_* environment variable.
	SourceEnv ConfigSource = "env"
	// SourceNodeEnv indicates value was derived from NODE_ENV.
	SourceNodeEnv ConfigSource = "env:NODE_ENV"
	// SourceConfig indicates value came from config file.
	SourceConfig ConfigSource = "config"
	// SourceDefault indicates value is the built-in default.
	SourceDefault ConfigSource = "default"
)

// ResolvedValue is a configuration value with its origin.
type ResolvedValue struct {
	Key    string
	Value  string
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]string
}

type candidate struct {
	source ConfigSource
	value  string
}

// resolve picks the first non-empty candidate and records the rest as
// shadowed.
func resolve(key string, candidates ...candidate) ResolvedValue {
	rv := ResolvedValue{Key: key, Shadowed: make(map[ConfigSource]string)}
	for _, c := range candidates {
		if c.value == "" {
			continue
		}
		if rv.Source == "" {
			rv.Value = c.value
			rv.Source = c.source
			continue
		}
		rv.Shadowed[c.source] = c.value
	}
	return rv
}

// ResolveModeOptions contains options for mode resolution.
type ResolveModeOptions struct {
	// FlagValue is the --mode flag value (empty if not set).
	FlagValue string
	// ConfigValue is the mode from the config file (empty if not set).
	ConfigValue string
}

// ResolveMode resolves the build mode using precedence:
// (1) --mode flag, (2) PACKSPLIT_MODE env, (3) NODE_ENV, (4) config.mode,
// (5) development.
//
// NODE_ENV=production selects production; any other non-empty NODE_ENV
// selects development.
func ResolveMode(opts ResolveModeOptions) ResolvedValue {
	var nodeEnv string
	if v := strings.TrimSpace(os.Getenv("NODE_ENV")); v != "" {
		nodeEnv = ModeDevelopment
		if v == ModeProduction {
			nodeEnv = ModeProduction
		}
	}

	return resolve("mode",
		candidate{SourceFlag, opts.FlagValue},
		candidate{SourceEnv, os.Getenv("PACKSPLIT_MODE")},
		candidate{SourceNodeEnv, nodeEnv},
		candidate{SourceConfig, opts.ConfigValue},
		candidate{SourceDefault, ModeDevelopment},
	)
}

// ResolveConfigPath resolves the config file path using precedence:
// (1) --config flag, (2) PACKSPLIT_CONFIG env, (3) ./packsplit.yaml.
func ResolveConfigPath(flagValue string) ResolvedValue {
	return resolve("config",
		candidate{SourceFlag, flagValue},
		candidate{SourceEnv, os.Getenv("PACKSPLIT_CONFIG")},
		candidate{SourceDefault, DefaultConfigFile},
	)
}

// ResolveString resolves a plain setting: flag, then config, then default.
// Environment overrides for such settings are applied by the Loader.
func ResolveString(key, flagValue, configValue, defaultValue string) ResolvedValue {
	return resolve(key,
		candidate{SourceFlag, flagValue},
		candidate{SourceConfig, configValue},
		candidate{SourceDefault, defaultValue},
	)
}

// LogResolvedValues logs configuration resolution at DEBUG level.
func LogResolvedValues(values []ResolvedValue) {
	for _, v := range values {
		output.Debug("config value resolved",
			"key", v.Key,
			"value", v.Value,
			"source", v.Source,
		)
		for source, shadowed := range v.Shadowed {
			output.Debug("  shadowed by higher precedence",
				"key", v.Key,
				"shadowed_source", source,
				"shadowed_value", shadowed,
			)
		}
	}
}
