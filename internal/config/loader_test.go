package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/packsplit/packsplit/internal/errors"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader(afero.NewMemMapFs())
	assert.NotNil(t, loader)
	assert.NotNil(t, loader.v)
}

func TestLoaderLoad(t *testing.T) {
	t.Run("loads config from file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		content := `
mode: production
graph: out/graph.json
hash: blake3
hashLength: 12
rules:
  - name: vue
    test: '[\\/]node_modules[\\/]vue[\\/]'
    chunk: chunk-vue
    priority: 50
  - package: '^lodash'
    vendor: true
    chunk: chunk-lodash
output:
  dir: build
  clean: false
  compress: [gzip, zstd]
profiles:
  production:
    templates:
      script: 'js/[name].[contenthash:8].js'
`
		require.NoError(t, afero.WriteFile(fs, "/proj/packsplit.yaml", []byte(content), 0o644))

		cfg, err := NewLoader(fs).Load("/proj/packsplit.yaml")
		require.NoError(t, err)

		assert.Equal(t, "production", cfg.Mode)
		assert.Equal(t, "out/graph.json", cfg.Graph)
		assert.Equal(t, "blake3", cfg.Hash)
		assert.Equal(t, 12, cfg.HashLength)
		require.Len(t, cfg.Rules, 2)
		assert.Equal(t, "vue", cfg.Rules[0].Name)
		assert.Equal(t, `[\\/]node_modules[\\/]vue[\\/]`, cfg.Rules[0].Test)
		assert.Equal(t, 50, cfg.Rules[0].Priority)
		require.NotNil(t, cfg.Rules[1].Vendor)
		assert.True(t, *cfg.Rules[1].Vendor)
		assert.Equal(t, "build", cfg.Output.Dir)
		require.NotNil(t, cfg.Output.Clean)
		assert.False(t, *cfg.Output.Clean)
		assert.Equal(t, []string{"gzip", "zstd"}, cfg.Output.Compress)
		assert.Equal(t, "js/[name].[contenthash:8].js", cfg.Profiles["production"].Templates.Script)
	})

	t.Run("returns empty config for missing file", func(t *testing.T) {
		cfg, err := NewLoader(afero.NewMemMapFs()).Load("/proj/packsplit.yaml")

		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Empty(t, cfg.Mode)
		assert.Empty(t, cfg.Rules)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "packsplit.yaml", []byte("hash: sha256\noutput:\n  dir: build\n"), 0o644))

		t.Setenv("PACKSPLIT_HASH", "blake3")
		t.Setenv("PACKSPLIT_OUTPUT_DIR", "public-build")
		t.Setenv("PACKSPLIT_JOBS", "3")

		cfg, err := NewLoader(fs).Load("packsplit.yaml")
		require.NoError(t, err)

		assert.Equal(t, "blake3", cfg.Hash)
		assert.Equal(t, "public-build", cfg.Output.Dir)
		assert.Equal(t, 3, cfg.Jobs)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "packsplit.yaml", []byte("rules: [\n"), 0o644))

		_, err := NewLoader(fs).Load("packsplit.yaml")
		assert.Error(t, err)
	})
}

func TestLoaderVet(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "good.yaml", []byte("mode: production\nhash: sha256\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte("mode: staging\n"), 0o644))

	loader := NewLoader(fs)
	assert.NoError(t, loader.Vet("good.yaml"))

	err := loader.Vet("bad.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrValidation)

	assert.Error(t, loader.Vet("missing.yaml"))
}
