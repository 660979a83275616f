package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Environment variable prefix for packsplit configuration.
const envPrefix = "PACKSPLIT"

// Loader handles loading and merging configuration from multiple sources.
type Loader struct {
	v  *viper.Viper
	fs afero.Fs
}

// NewLoader creates a configuration loader reading from fsys.
func NewLoader(fsys afero.Fs) *Loader {
	v := viper.New()
	v.SetFs(fsys)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = v.BindEnv("graph", "PACKSPLIT_GRAPH")
	_ = v.BindEnv("hash", "PACKSPLIT_HASH")
	_ = v.BindEnv("jobs", "PACKSPLIT_JOBS")
	_ = v.BindEnv("output.dir", "PACKSPLIT_OUTPUT_DIR")

	return &Loader{v: v, fs: fsys}
}

// Load reads the config file at path without applying defaults. A missing
// file is not an error: the result then carries only environment values.
func (l *Loader) Load(path string) (*Config, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	l.v.SetConfigFile(expanded)
	l.v.SetConfigType("yaml")

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config file %s: %w", expanded, err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Vet validates the raw config file at path against the schema.
func (l *Loader) Vet(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return fmt.Errorf("expanding config path: %w", err)
	}
	data, err := afero.ReadFile(l.fs, expanded)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", expanded, err)
	}
	return ValidateBytes(expanded, data)
}
