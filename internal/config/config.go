// Package config provides configuration loading and management.
package config

import (
	"fmt"

	"github.com/imdario/mergo"
)

// Config represents the packsplit project configuration.
// Loaded from ./packsplit.yaml, validated against the embedded CUE schema.
type Config struct {
	// Mode is the build mode: "development" or "production".
	// Overridden by --mode, PACKSPLIT_MODE and NODE_ENV.
	Mode string `mapstructure:"mode" json:"mode,omitempty" yaml:"mode,omitempty"`

	// Graph is the path of the module graph file.
	// Env: PACKSPLIT_GRAPH
	Graph string `mapstructure:"graph" json:"graph,omitempty" yaml:"graph,omitempty"`

	// DefaultChunk holds application code no rule claims.
	DefaultChunk string `mapstructure:"defaultChunk" json:"defaultChunk,omitempty" yaml:"defaultChunk,omitempty"`

	// RuntimeName names per-entry runtime chunks; must contain [entry].
	RuntimeName string `mapstructure:"runtimeName" json:"runtimeName,omitempty" yaml:"runtimeName,omitempty"`

	// Hash is the fingerprint hash: xxhash64, sha256 or blake3.
	// Env: PACKSPLIT_HASH
	Hash string `mapstructure:"hash" json:"hash,omitempty" yaml:"hash,omitempty"`

	// HashLength cuts fingerprints of placeholders without an explicit length.
	HashLength int `mapstructure:"hashLength" json:"hashLength,omitempty" yaml:"hashLength,omitempty"`

	// Jobs bounds concurrent file reads and writes. 0 means GOMAXPROCS.
	// Env: PACKSPLIT_JOBS
	Jobs int `mapstructure:"jobs" json:"jobs,omitempty" yaml:"jobs,omitempty"`

	// Rules are the output rules, evaluated by descending priority.
	Rules []RuleConfig `mapstructure:"rules" json:"rules,omitempty" yaml:"rules,omitempty"`

	// Assets decide which modules are assets and when they are inlined.
	Assets []AssetRuleConfig `mapstructure:"assets" json:"assets,omitempty" yaml:"assets,omitempty"`

	// Templates name output files. Unset classes use the mode defaults.
	Templates TemplateConfig `mapstructure:"templates" json:"templates,omitempty" yaml:"templates,omitempty"`

	// Output controls where and how files are written.
	Output OutputConfig `mapstructure:"output" json:"output,omitempty" yaml:"output,omitempty"`

	// Log contains logging-related settings.
	Log LogConfig `mapstructure:"log" json:"log,omitempty" yaml:"log,omitempty"`

	// Profiles hold per-mode overrides, keyed by mode name.
	Profiles map[string]ProfileConfig `mapstructure:"profiles" json:"profiles,omitempty" yaml:"profiles,omitempty"`
}

// RuleConfig is an output rule.
type RuleConfig struct {
	Name     string `mapstructure:"name" json:"name,omitempty" yaml:"name,omitempty"`
	Test     string `mapstructure:"test" json:"test,omitempty" yaml:"test,omitempty"`
	Package  string `mapstructure:"package" json:"package,omitempty" yaml:"package,omitempty"`
	Vendor   *bool  `mapstructure:"vendor" json:"vendor,omitempty" yaml:"vendor,omitempty"`
	Chunk    string `mapstructure:"chunk" json:"chunk" yaml:"chunk"`
	Priority int    `mapstructure:"priority" json:"priority,omitempty" yaml:"priority,omitempty"`
}

// AssetRuleConfig is an asset rule. InlineLimit 0 always emits a file.
type AssetRuleConfig struct {
	Name        string `mapstructure:"name" json:"name,omitempty" yaml:"name,omitempty"`
	Test        string `mapstructure:"test" json:"test" yaml:"test"`
	InlineLimit int64  `mapstructure:"inlineLimit" json:"inlineLimit,omitempty" yaml:"inlineLimit,omitempty"`
}

// TemplateConfig holds filename templates per file class.
type TemplateConfig struct {
	Script      string `mapstructure:"script" json:"script,omitempty" yaml:"script,omitempty"`
	ScriptChunk string `mapstructure:"scriptChunk" json:"scriptChunk,omitempty" yaml:"scriptChunk,omitempty"`
	Style       string `mapstructure:"style" json:"style,omitempty" yaml:"style,omitempty"`
	StyleChunk  string `mapstructure:"styleChunk" json:"styleChunk,omitempty" yaml:"styleChunk,omitempty"`
	Asset       string `mapstructure:"asset" json:"asset,omitempty" yaml:"asset,omitempty"`
}

// OutputConfig controls the emitted files.
type OutputConfig struct {
	// Dir is the output directory.
	// Env: PACKSPLIT_OUTPUT_DIR
	Dir string `mapstructure:"dir" json:"dir,omitempty" yaml:"dir,omitempty"`

	// Clean removes Dir before writing.
	Clean *bool `mapstructure:"clean" json:"clean,omitempty" yaml:"clean,omitempty"`

	// Minify minifies scripts, styles and runtimes. On in production.
	Minify *bool `mapstructure:"minify" json:"minify,omitempty" yaml:"minify,omitempty"`

	// Manifest is the manifest file name inside Dir.
	Manifest string `mapstructure:"manifest" json:"manifest,omitempty" yaml:"manifest,omitempty"`

	// ManifestFormat is "json" or "yaml".
	ManifestFormat string `mapstructure:"manifestFormat" json:"manifestFormat,omitempty" yaml:"manifestFormat,omitempty"`

	// Compress lists precompressed siblings to write ("gzip", "zstd").
	Compress []string `mapstructure:"compress" json:"compress,omitempty" yaml:"compress,omitempty"`

	// CompressThreshold is the minimum size in bytes to precompress.
	CompressThreshold int64 `mapstructure:"compressThreshold" json:"compressThreshold,omitempty" yaml:"compressThreshold,omitempty"`

	// Public is copied into Dir, except index.html.
	Public string `mapstructure:"public" json:"public,omitempty" yaml:"public,omitempty"`
}

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `mapstructure:"timestamps" json:"timestamps,omitempty" yaml:"timestamps,omitempty"`
}

// ProfileConfig overrides base settings for one mode.
type ProfileConfig struct {
	Hash       string         `mapstructure:"hash" json:"hash,omitempty" yaml:"hash,omitempty"`
	HashLength int            `mapstructure:"hashLength" json:"hashLength,omitempty" yaml:"hashLength,omitempty"`
	Templates  TemplateConfig `mapstructure:"templates" json:"templates,omitempty" yaml:"templates,omitempty"`
	Output     OutputConfig   `mapstructure:"output" json:"output,omitempty" yaml:"output,omitempty"`
}

// Mode names.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

func boolPtr(b bool) *bool {
	return &b
}

// DefaultConfig returns a Config with all default values populated.
// Used by `packsplit config init` to generate the initial config file.
func DefaultConfig() *Config {
	return &Config{
		Mode:         ModeDevelopment,
		Graph:        "build-graph.json",
		DefaultChunk: "application",
		RuntimeName:  "runtime~[entry]",
		Hash:         "xxhash64",
		HashLength:   20,
		Rules: []RuleConfig{
			{Name: "react", Test: `(^|[\\/])node_modules[\\/]react(.*)?[\\/]`, Chunk: "chunk-react", Priority: 40},
			{Name: "antd", Test: `(^|[\\/])node_modules[\\/]antd[\\/]`, Chunk: "chunk-antd", Priority: 30},
			{Name: "libs", Test: `(^|[\\/])node_modules[\\/]`, Chunk: "chunk-libs", Priority: 20},
		},
		Assets: []AssetRuleConfig{
			{Name: "images", Test: `\.(jpe?g|png|gif|webp|svg)$`, InlineLimit: 10 * 1024},
			{Name: "fonts", Test: `\.(woff2?|ttf|eot|otf)$`},
		},
		Output: OutputConfig{
			Dir:               "dist",
			Manifest:          "asset-manifest.json",
			ManifestFormat:    "json",
			CompressThreshold: 10 * 1024,
			Public:            "public",
		},
		Profiles: map[string]ProfileConfig{
			ModeDevelopment: {
				Templates: TemplateConfig{
					Script:      "static/js/[name].js",
					ScriptChunk: "static/js/[name].chunk.js",
					Style:       "static/css/[name].css",
					StyleChunk:  "static/css/[name].chunk.css",
				},
				Output: OutputConfig{Clean: boolPtr(false), Minify: boolPtr(false)},
			},
			ModeProduction: {
				Templates: TemplateConfig{
					Script:      "static/js/[name].[contenthash:10].js",
					ScriptChunk: "static/js/[name].[contenthash:10].chunk.js",
					Style:       "static/css/[name].[contenthash:10].css",
					StyleChunk:  "static/css/[name].[contenthash:10].chunk.css",
				},
				Output: OutputConfig{Clean: boolPtr(true), Minify: boolPtr(true)},
			},
		},
	}
}

// WithDefaults fills every unset field from DefaultConfig.
func (c *Config) WithDefaults() (*Config, error) {
	out := *c
	if err := mergo.Merge(&out, DefaultConfig(), mergo.WithoutDereference); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	return &out, nil
}

// ForMode resolves the settings for one build mode. Precedence, highest
// first: the config's profile for mode, the config's base settings, the
// built-in profile for mode, the built-in base settings.
func (c *Config) ForMode(mode string) (*Config, error) {
	out := *c
	out.Mode = mode

	fields := ProfileConfig{
		Hash:       c.Hash,
		HashLength: c.HashLength,
		Templates:  c.Templates,
		Output:     c.Output,
	}
	if profile, ok := c.Profiles[mode]; ok {
		if err := mergo.Merge(&fields, profile, mergo.WithOverride, mergo.WithoutDereference); err != nil {
			return nil, fmt.Errorf("applying %s profile: %w", mode, err)
		}
	}
	if builtin, ok := DefaultConfig().Profiles[mode]; ok {
		if err := mergo.Merge(&fields, builtin, mergo.WithoutDereference); err != nil {
			return nil, fmt.Errorf("applying default %s profile: %w", mode, err)
		}
	}

	out.Hash = fields.Hash
	out.HashLength = fields.HashLength
	out.Templates = fields.Templates
	out.Output = fields.Output
	return out.WithDefaults()
}

// CleanOutput reports whether the output directory is cleaned first.
func (c *Config) CleanOutput() bool {
	return c.Output.Clean != nil && *c.Output.Clean
}

// MinifyOutput reports whether emitted code is minified.
func (c *Config) MinifyOutput() bool {
	return c.Output.Minify != nil && *c.Output.Minify
}
