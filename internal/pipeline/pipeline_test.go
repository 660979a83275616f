package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packsplit/packsplit/internal/config"
	oerrors "github.com/packsplit/packsplit/internal/errors"
	"github.com/packsplit/packsplit/internal/partition"
)

const graphJSON = `{
  "entries": {"main": "src/index.js"},
  "inputs": {
    "src/index.js": {
      "contents": "var React = require('react');",
      "imports": [
        {"path": "node_modules/react/index.js", "kind": "import-statement"},
        {"path": "node_modules/antd/lib/index.js", "kind": "import-statement"},
        {"path": "node_modules/lodash/lodash.js", "kind": "import-statement"},
        {"path": "src/index.css", "kind": "import-statement"},
        {"path": "src/pages/Home.jsx", "kind": "dynamic-import", "chunkName": "home"},
      ],
    },
    "src/index.css": {"contents": "body { margin: 0 }"},
    "src/pages/Home.jsx": {"contents": "module.exports = function Home() {};"},
    "src/unused.js": {"contents": "module.exports = null;"},
    "node_modules/react/index.js": {"contents": "module.exports = {};"},
    "node_modules/antd/lib/index.js": {"contents": "module.exports = {};"},
    "node_modules/lodash/lodash.js": {"contents": "module.exports = {};"},
  },
}`

const graphPath = "/app/build-graph.json"

func newFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, graphPath, []byte(graphJSON), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/app/public/favicon.ico", []byte("ICO"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/app/public/index.html", []byte("<html></html>"), 0o644))
	return fs
}

func resolved(t *testing.T, cfg *config.Config, mode string) *config.Config {
	t.Helper()
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "/app/dist"
	}
	if cfg.Output.Public == "" {
		cfg.Output.Public = "/app/public"
	}
	out, err := cfg.ForMode(mode)
	require.NoError(t, err)
	return out
}

func TestBuild_Development(t *testing.T) {
	fs := newFs(t)
	p, err := New(fs, resolved(t, &config.Config{}, config.ModeDevelopment))
	require.NoError(t, err)
	assert.Equal(t, partition.Development, p.Mode())
	assert.Equal(t, "/app/dist", p.OutDir())

	res, err := p.Build(context.Background(), graphPath, BuildOptions{})
	require.NoError(t, err)

	names := make([]string, 0, len(res.Partition.Chunks))
	for _, c := range res.Partition.Chunks {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"runtime~main", "chunk-react", "chunk-antd", "chunk-libs", "application", "home"}, names)
	assert.Equal(t, []string{"src/unused.js"}, res.Partition.Excluded)

	for _, path := range []string{
		"/app/dist/static/js/runtime~main.js",
		"/app/dist/static/js/chunk-react.chunk.js",
		"/app/dist/static/js/application.js",
		"/app/dist/static/css/application.css",
		"/app/dist/static/js/home.chunk.js",
		"/app/dist/asset-manifest.json",
		"/app/dist/favicon.ico",
	} {
		ok, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.True(t, ok, "expected %s", path)
	}
	ok, err := afero.Exists(fs, "/app/dist/index.html")
	require.NoError(t, err)
	assert.False(t, ok, "the HTML template is not copied")

	require.NotNil(t, res.Report)
	require.Len(t, res.Phases, 3)
	assert.Equal(t, "load", res.Phases[0].Name)
	assert.Equal(t, "partition", res.Phases[1].Name)
	assert.Equal(t, "emit", res.Phases[2].Name)

	ep, ok := res.Manifest.Entrypoints["main"]
	require.True(t, ok)
	assert.Equal(t, "static/js/runtime~main.js", ep.Scripts[0])
}

func TestBuild_Production(t *testing.T) {
	fs := newFs(t)
	require.NoError(t, afero.WriteFile(fs, "/app/dist/stale.js", []byte("old"), 0o644))

	p, err := New(fs, resolved(t, &config.Config{}, config.ModeProduction))
	require.NoError(t, err)

	res, err := p.Build(context.Background(), graphPath, BuildOptions{})
	require.NoError(t, err)

	app, ok := res.Partition.Chunk("application")
	require.True(t, ok)
	script := app.File(partition.ClassScript)
	require.NotNil(t, script)
	assert.Regexp(t, `^static/js/application\.[0-9a-f]{10}\.js$`, script.Path)

	ok, err = afero.Exists(fs, "/app/dist/stale.js")
	require.NoError(t, err)
	assert.False(t, ok, "production cleans the output directory")

	css := app.File(partition.ClassStyle)
	require.NotNil(t, css)
	data, err := afero.ReadFile(fs, "/app/dist/"+css.Path)
	require.NoError(t, err)
	assert.Equal(t, "body{margin:0}", string(data))

	js, err := afero.ReadFile(fs, "/app/dist/"+script.Path)
	require.NoError(t, err)
	assert.NotContains(t, string(js), "\n")
}

func TestBuild_RejectsEscapingChunkName(t *testing.T) {
	fs := afero.NewMemMapFs()
	graph := `{
  "entries": {"main": "src/index.js"},
  "inputs": {
    "src/index.js": {
      "contents": "1;",
      "imports": [{"path": "src/lazy.js", "kind": "dynamic-import", "chunkName": "../../../../escaped"}]
    },
    "src/lazy.js": {"contents": "2;"}
  }
}`
	require.NoError(t, afero.WriteFile(fs, "/proj/build-graph.json", []byte(graph), 0o644))

	cfg := resolved(t, &config.Config{Output: config.OutputConfig{Dir: "/proj/dist"}}, config.ModeDevelopment)
	p, err := New(fs, cfg)
	require.NoError(t, err)

	_, err = p.Build(context.Background(), "/proj/build-graph.json", BuildOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrValidation))

	for _, path := range []string{"/escaped.chunk.js", "/proj/dist"} {
		ok, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.False(t, ok, path)
	}
}

func TestPlan_DuplicateModuleIDs(t *testing.T) {
	fs := afero.NewMemMapFs()
	graph := `{
  "entries": {"main": "src/index.js"},
  "inputs": {
    "src/index.js": {"contents": "1;"},
    "src/index.js": {"contents": "2;"}
  }
}`
	require.NoError(t, afero.WriteFile(fs, graphPath, []byte(graph), 0o644))

	p, err := New(fs, resolved(t, &config.Config{}, config.ModeDevelopment))
	require.NoError(t, err)

	_, err = p.Plan(context.Background(), graphPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrValidation))
	assert.Contains(t, err.Error(), `module "src/index.js": declared more than once`)
}

func TestBuild_DryRun(t *testing.T) {
	fs := newFs(t)
	p, err := New(fs, resolved(t, &config.Config{}, config.ModeDevelopment))
	require.NoError(t, err)

	res, err := p.Build(context.Background(), graphPath, BuildOptions{DryRun: true})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Report.Files)

	ok, err := afero.DirExists(fs, "/app/dist")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPlan_WritesNothing(t *testing.T) {
	fs := newFs(t)
	p, err := New(fs, resolved(t, &config.Config{}, config.ModeDevelopment))
	require.NoError(t, err)

	res, err := p.Plan(context.Background(), graphPath)
	require.NoError(t, err)
	assert.Nil(t, res.Report)
	assert.Len(t, res.Phases, 2)
	assert.NotNil(t, res.Manifest)

	ok, err := afero.DirExists(fs, "/app/dist")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPlan_MissingGraph(t *testing.T) {
	p, err := New(afero.NewMemMapFs(), resolved(t, &config.Config{}, config.ModeDevelopment))
	require.NoError(t, err)

	_, err = p.Plan(context.Background(), graphPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrNotFound)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		want error
	}{
		{
			name: "bad rule regex",
			cfg:  &config.Config{Rules: []config.RuleConfig{{Test: "(", Chunk: "broken"}}},
			want: oerrors.ErrRule,
		},
		{
			name: "template without name",
			cfg:  &config.Config{Templates: config.TemplateConfig{Script: "static/js/main.js"}},
			want: oerrors.ErrTemplate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(afero.NewMemMapFs(), resolved(t, tt.cfg, config.ModeDevelopment))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("unknown compression", func(t *testing.T) {
		cfg := resolved(t, &config.Config{Output: config.OutputConfig{Compress: []string{"brotli"}}}, config.ModeDevelopment)
		_, err := New(afero.NewMemMapFs(), cfg)
		assert.Error(t, err)
	})
}

func TestYAMLManifestName(t *testing.T) {
	fs := newFs(t)
	cfg := resolved(t, &config.Config{Output: config.OutputConfig{ManifestFormat: "yaml"}}, config.ModeDevelopment)
	p, err := New(fs, cfg)
	require.NoError(t, err)

	_, err = p.Build(context.Background(), graphPath, BuildOptions{})
	require.NoError(t, err)

	ok, err := afero.Exists(fs, "/app/dist/asset-manifest.yaml")
	require.NoError(t, err)
	assert.True(t, ok)
}
