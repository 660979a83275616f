package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, ModeDevelopment, cfg.Mode)
	assert.Equal(t, "build-graph.json", cfg.Graph)
	assert.Equal(t, "application", cfg.DefaultChunk)
	assert.Equal(t, "runtime~[entry]", cfg.RuntimeName)
	assert.Equal(t, "xxhash64", cfg.Hash)
	assert.Equal(t, "dist", cfg.Output.Dir)
	assert.Equal(t, "public", cfg.Output.Public)

	require.Len(t, cfg.Rules, 3)
	assert.Equal(t, "chunk-react", cfg.Rules[0].Chunk)
	assert.Equal(t, 40, cfg.Rules[0].Priority)
	assert.Equal(t, "chunk-antd", cfg.Rules[1].Chunk)
	assert.Equal(t, 30, cfg.Rules[1].Priority)
	assert.Equal(t, "chunk-libs", cfg.Rules[2].Chunk)
	assert.Equal(t, 20, cfg.Rules[2].Priority)

	require.Len(t, cfg.Assets, 2)
	assert.Equal(t, int64(10*1024), cfg.Assets[0].InlineLimit)
	assert.Zero(t, cfg.Assets[1].InlineLimit)
}

func TestWithDefaults(t *testing.T) {
	cfg := &Config{
		Hash:  "blake3",
		Rules: []RuleConfig{{Test: `\.css$`, Chunk: "styles", Priority: 5}},
		Output: OutputConfig{
			Dir: "build",
		},
	}

	got, err := cfg.WithDefaults()
	require.NoError(t, err)

	assert.Equal(t, "blake3", got.Hash)
	assert.Equal(t, "build", got.Output.Dir)
	assert.Equal(t, "asset-manifest.json", got.Output.Manifest)
	require.Len(t, got.Rules, 1, "configured rules replace the defaults")
	assert.Equal(t, "styles", got.Rules[0].Chunk)
	assert.Equal(t, "application", got.DefaultChunk)

	// The receiver is left untouched.
	assert.Empty(t, cfg.DefaultChunk)
}

func TestForMode(t *testing.T) {
	t.Run("built-in production profile", func(t *testing.T) {
		got, err := (&Config{}).ForMode(ModeProduction)
		require.NoError(t, err)

		assert.Equal(t, ModeProduction, got.Mode)
		assert.Equal(t, "static/js/[name].[contenthash:10].js", got.Templates.Script)
		assert.Equal(t, "static/css/[name].[contenthash:10].chunk.css", got.Templates.StyleChunk)
		assert.True(t, got.CleanOutput())
		assert.True(t, got.MinifyOutput())
	})

	t.Run("built-in development profile", func(t *testing.T) {
		got, err := (&Config{}).ForMode(ModeDevelopment)
		require.NoError(t, err)

		assert.Equal(t, "static/js/[name].js", got.Templates.Script)
		assert.False(t, got.CleanOutput())
		assert.False(t, got.MinifyOutput())
	})

	t.Run("base settings beat built-in profile", func(t *testing.T) {
		cfg := &Config{
			Templates: TemplateConfig{Script: "js/[name].[fingerprint:8].js"},
			Output:    OutputConfig{Clean: boolPtr(false), Minify: boolPtr(false)},
		}
		got, err := cfg.ForMode(ModeProduction)
		require.NoError(t, err)

		assert.Equal(t, "js/[name].[fingerprint:8].js", got.Templates.Script)
		assert.Equal(t, "static/css/[name].[contenthash:10].css", got.Templates.Style)
		assert.False(t, got.CleanOutput())
		assert.False(t, got.MinifyOutput())
	})

	t.Run("config profile beats base settings", func(t *testing.T) {
		cfg := &Config{
			Hash: "xxhash64",
			Output: OutputConfig{
				Dir:      "build",
				Compress: []string{"gzip"},
			},
			Profiles: map[string]ProfileConfig{
				ModeProduction: {
					Hash:   "sha256",
					Output: OutputConfig{Compress: []string{"gzip", "zstd"}},
				},
			},
		}
		got, err := cfg.ForMode(ModeProduction)
		require.NoError(t, err)

		assert.Equal(t, "sha256", got.Hash)
		assert.Equal(t, "build", got.Output.Dir)
		assert.Equal(t, []string{"gzip", "zstd"}, got.Output.Compress)

		dev, err := cfg.ForMode(ModeDevelopment)
		require.NoError(t, err)
		assert.Equal(t, "xxhash64", dev.Hash)
		assert.Equal(t, []string{"gzip"}, dev.Output.Compress)
	})

	t.Run("shared defaults are not mutated", func(t *testing.T) {
		_, err := (&Config{}).ForMode(ModeProduction)
		require.NoError(t, err)

		dev, err := (&Config{}).ForMode(ModeDevelopment)
		require.NoError(t, err)
		assert.False(t, dev.CleanOutput())
	})
}

func TestInitContent(t *testing.T) {
	data, err := InitContent()
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "# packsplit project configuration.")
	assert.Contains(t, content, "chunk: chunk-react")
	assert.Contains(t, content, "runtime~[entry]")
	assert.Contains(t, content, "production:")

	assert.NoError(t, ValidateBytes(DefaultConfigFile, data))
}
