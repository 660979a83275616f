package emit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/packsplit/packsplit/internal/errors"
	"github.com/packsplit/packsplit/internal/graph"
	"github.com/packsplit/packsplit/internal/manifest"
	"github.com/packsplit/packsplit/internal/output"
	"github.com/packsplit/packsplit/internal/partition"
)

func addModule(g *graph.Graph, id, contents string, imports ...string) {
	m := &graph.Module{
		ID:       id,
		Package:  graph.PackageOf(id),
		Size:     int64(len(contents)),
		Contents: []byte(contents),
	}
	for _, imp := range imports {
		m.Imports = append(m.Imports, graph.Import{Path: imp, Kind: graph.ImportStatic})
	}
	g.Modules[id] = m
}

func testGraph() *graph.Graph {
	g := graph.New()
	g.Entries["main"] = "src/index.js"
	addModule(g, "src/index.js", "require('react');", "node_modules/react/index.js", "src/index.css", "src/font.woff2")
	addModule(g, "node_modules/react/index.js", "module.exports = {};")
	addModule(g, "src/index.css", "body { margin: 0 }")
	addModule(g, "src/font.woff2", "FONT")
	return g
}

func partitionGraph(t *testing.T, g *graph.Graph, mode partition.Mode) *partition.Result {
	t.Helper()
	rules, err := partition.CompileRules([]partition.RuleSpec{
		{Name: "libs", Vendor: boolPtr(true), Chunk: "chunk-libs", Priority: 20},
	})
	require.NoError(t, err)
	assets, err := partition.CompileAssetRules(partition.DefaultAssetRules())
	require.NoError(t, err)

	p, err := partition.New(mode, partition.Options{Rules: rules, Assets: assets})
	require.NoError(t, err)
	res, err := p.Partition(g)
	require.NoError(t, err)
	return res
}

func boolPtr(b bool) *bool { return &b }

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func statusOf(rep *Report, path string) string {
	for _, f := range rep.Files {
		if f.Path == path {
			return f.Status
		}
	}
	return ""
}

func TestEmit_WritesChunks(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := testGraph()
	res := partitionGraph(t, g, partition.Development)

	e := New(fs, Options{OutDir: "build", ManifestName: manifest.DefaultName})
	rep, err := e.Emit(context.Background(), g, res)
	require.NoError(t, err)

	rt, _ := res.Chunk("runtime~main")
	assert.Equal(t, string(rt.Source), readFile(t, fs, "build/static/js/runtime~main.js"))

	app := readFile(t, fs, "build/static/js/application.js")
	assert.Equal(t,
		"window.__packsplit__.define(\"src/index.js\", function (module, exports, require) {\n"+
			"require('react');\n"+
			"});\n"+
			"window.__packsplit__.start(\"main\", \"src/index.js\");\n",
		app)

	libs := readFile(t, fs, "build/static/js/chunk-libs.chunk.js")
	assert.Contains(t, libs, `define("node_modules/react/index.js"`)
	assert.NotContains(t, libs, ".start(")

	assert.Equal(t, "/* src/index.css */\nbody { margin: 0 }\n", readFile(t, fs, "build/static/css/application.css"))

	var fontPath string
	for _, a := range res.Assets {
		fontPath = a.Path
	}
	assert.Equal(t, "FONT", readFile(t, fs, filepath.Join("build", fontPath)))

	m, err := manifest.Read(fs, "build/asset-manifest.json")
	require.NoError(t, err)
	assert.Equal(t, "development", m.Mode)

	assert.Equal(t, len(rep.Files), rep.Written)
	assert.Zero(t, rep.Unchanged)
	assert.Equal(t, "build", rep.OutDir)
}

func TestEmit_UnchangedFilesSkipped(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := testGraph()
	res := partitionGraph(t, g, partition.Production)
	e := New(fs, Options{OutDir: "build"})

	_, err := e.Emit(context.Background(), g, res)
	require.NoError(t, err)

	g.Modules["src/index.css"].Contents = []byte("body { margin: 1px }")
	res = partitionGraph(t, g, partition.Production)
	rep, err := e.Emit(context.Background(), g, res)
	require.NoError(t, err)

	app, _ := res.Chunk("application")
	assert.Equal(t, output.StatusUnchanged, statusOf(rep, app.File(partition.ClassScript).Path))
	assert.Equal(t, output.StatusWritten, statusOf(rep, app.File(partition.ClassStyle).Path))
	assert.Equal(t, 1, rep.Written)
}

func TestEmit_Clean(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "build/stale.js", []byte("old"), 0o644))

	g := testGraph()
	_, err := New(fs, Options{OutDir: "build", Clean: true}).Emit(context.Background(), g, partitionGraph(t, g, partition.Development))
	require.NoError(t, err)

	exists, err := afero.Exists(fs, "build/stale.js")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEmit_DryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := testGraph()

	rep, err := New(fs, Options{OutDir: "build", DryRun: true, Clean: true}).Emit(context.Background(), g, partitionGraph(t, g, partition.Development))
	require.NoError(t, err)

	exists, err := afero.DirExists(fs, "build")
	require.NoError(t, err)
	assert.False(t, exists)
	for _, f := range rep.Files {
		assert.Equal(t, output.StatusPlanned, f.Status, f.Path)
	}
	assert.Zero(t, rep.Written)
}

func TestEmit_Compression(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := testGraph()
	res := partitionGraph(t, g, partition.Development)

	_, err := New(fs, Options{
		OutDir:            "build",
		Compress:          []Compression{Gzip, Zstd},
		CompressThreshold: 1,
	}).Emit(context.Background(), g, res)
	require.NoError(t, err)

	original := readFile(t, fs, "build/static/js/application.js")

	gz, err := fs.Open("build/static/js/application.js.gz")
	require.NoError(t, err)
	defer gz.Close()
	zr, err := gzip.NewReader(gz)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, original, string(plain))

	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	zst, err := afero.ReadFile(fs, "build/static/js/application.js.zst")
	require.NoError(t, err)
	plain, err = dec.DecodeAll(zst, nil)
	require.NoError(t, err)
	assert.Equal(t, original, string(plain))

	exists, err := afero.Exists(fs, "build/static/css/application.css.gz")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestEmit_CompressionThreshold(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := testGraph()

	_, err := New(fs, Options{OutDir: "build", Compress: []Compression{Gzip}}).
		Emit(context.Background(), g, partitionGraph(t, g, partition.Development))
	require.NoError(t, err)

	exists, err := afero.Exists(fs, "build/static/js/application.js.gz")
	require.NoError(t, err)
	assert.False(t, exists, "files below the default threshold are not compressed")
}

func TestEmit_PublicDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "public/index.html", []byte("<html>"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "public/favicon.ico", []byte("ico"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "public/img/hero.jpg", []byte("jpg"), 0o644))

	g := testGraph()
	rep, err := New(fs, Options{OutDir: "build", PublicDir: "public"}).
		Emit(context.Background(), g, partitionGraph(t, g, partition.Development))
	require.NoError(t, err)

	assert.Equal(t, "ico", readFile(t, fs, "build/favicon.ico"))
	assert.Equal(t, "jpg", readFile(t, fs, "build/img/hero.jpg"))
	exists, err := afero.Exists(fs, "build/index.html")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, output.StatusCopied, statusOf(rep, "favicon.ico"))
}

func TestEmit_MissingPublicDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	g := testGraph()
	_, err := New(fs, Options{OutDir: "build", PublicDir: "public"}).
		Emit(context.Background(), g, partitionGraph(t, g, partition.Development))
	assert.NoError(t, err)
}

func TestEmit_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := testGraph()
	_, err := New(afero.NewMemMapFs(), Options{OutDir: "build"}).Emit(ctx, g, partitionGraph(t, g, partition.Development))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmit_ReadOnlyFs(t *testing.T) {
	g := testGraph()
	_, err := New(afero.NewReadOnlyFs(afero.NewMemMapFs()), Options{OutDir: "build"}).
		Emit(context.Background(), g, partitionGraph(t, g, partition.Development))
	require.Error(t, err)
}

func TestChunkScript_MultipleEntries(t *testing.T) {
	g := testGraph()
	g.Entries["admin"] = "src/admin.js"
	addModule(g, "src/admin.js", "admin();")

	res := partitionGraph(t, g, partition.Development)
	app, ok := res.Chunk("application")
	require.True(t, ok)

	script := string(ChunkScript(g, app))
	adminStart := strings.Index(script, `.start("admin", "src/admin.js");`)
	mainStart := strings.Index(script, `.start("main", "src/index.js");`)
	require.GreaterOrEqual(t, adminStart, 0)
	require.GreaterOrEqual(t, mainStart, 0)
	assert.Less(t, adminStart, mainStart)
	assert.True(t, bytes.HasSuffix([]byte(script), []byte(`.start("main", "src/index.js");`+"\n")))
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("GZ")
	require.NoError(t, err)
	assert.Equal(t, Gzip, c)
	assert.Equal(t, ".gz", c.Ext())

	c, err = ParseCompression("zstd")
	require.NoError(t, err)
	assert.Equal(t, ".zst", c.Ext())

	_, err = ParseCompression("brotli")
	assert.Error(t, err)
}

func TestEmit_IdenticalAssetsWrittenOnce(t *testing.T) {
	fs := afero.NewMemMapFs()
	png := strings.Repeat("P", 20000)

	g := graph.New()
	g.Entries["main"] = "src/index.js"
	addModule(g, "src/index.js", "require('./a.png');", "src/a/logo.png", "src/b/logo.png")
	addModule(g, "src/a/logo.png", png)
	addModule(g, "src/b/logo.png", png)
	res := partitionGraph(t, g, partition.Production)

	require.Len(t, res.Assets, 2)
	require.Equal(t, res.Assets[0].Path, res.Assets[1].Path)
	shared := res.Assets[0].Path

	rep, err := New(fs, Options{OutDir: "build", Clean: true}).Emit(context.Background(), g, res)
	require.NoError(t, err)

	var entries []FileReport
	for _, f := range rep.Files {
		if f.Path == shared {
			entries = append(entries, f)
		}
	}
	require.Len(t, entries, 1)
	assert.Equal(t, output.StatusWritten, entries[0].Status)
	assert.Equal(t, png, readFile(t, fs, filepath.Join("build", shared)))
	assert.Equal(t, len(rep.Files), rep.Written)
}

func TestEmit_Minify(t *testing.T) {
	g := testGraph()
	g.Modules["src/index.css"].Contents = []byte("body {\n  margin: 0;\n}\n")
	res := partitionGraph(t, g, partition.Production)

	app, ok := res.Chunk("application")
	require.True(t, ok)
	script := app.File(partition.ClassScript).Path
	style := app.File(partition.ClassStyle).Path

	t.Run("on", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		_, err := New(fs, Options{OutDir: "build", Minify: true}).Emit(context.Background(), g, res)
		require.NoError(t, err)

		assert.Equal(t, "body{margin:0}", readFile(t, fs, filepath.Join("build", style)))

		js := readFile(t, fs, filepath.Join("build", script))
		assert.Less(t, len(js), len(ChunkScript(g, app)))
		assert.NotContains(t, js, "\n")
		assert.Contains(t, js, "src/index.js")
	})

	t.Run("off", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		_, err := New(fs, Options{OutDir: "build"}).Emit(context.Background(), g, res)
		require.NoError(t, err)

		assert.Equal(t, string(ChunkStyle(g, app)), readFile(t, fs, filepath.Join("build", style)))
		assert.Equal(t, string(ChunkScript(g, app)), readFile(t, fs, filepath.Join("build", script)))
	})
}

func TestEmit_MinifyError(t *testing.T) {
	g := testGraph()
	g.Modules["src/index.js"].Contents = []byte("function ((")
	res := partitionGraph(t, g, partition.Production)

	fs := afero.NewMemMapFs()
	_, err := New(fs, Options{OutDir: "build", Minify: true}).Emit(context.Background(), g, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `chunk "application"`)

	exists, err := afero.DirExists(fs, "build")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEmit_RefusesPathsOutsideOutDir(t *testing.T) {
	tests := []struct {
		name   string
		opts   Options
		tamper func(res *partition.Result)
	}{
		{
			name: "manifest name",
			opts: Options{ManifestName: "../escaped.json"},
		},
		{
			name: "chunk file",
			tamper: func(res *partition.Result) {
				app, _ := res.Chunk("application")
				app.Files[0].Path = "static/js/../../../escaped.js"
			},
		},
		{
			name: "output directory itself",
			tamper: func(res *partition.Result) {
				app, _ := res.Chunk("application")
				app.Files[0].Path = "static/.."
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/proj/dist/keep.txt", []byte("keep"), 0o644))

			g := testGraph()
			res := partitionGraph(t, g, partition.Development)
			if tt.tamper != nil {
				tt.tamper(res)
			}

			opts := tt.opts
			opts.OutDir = "/proj/dist"
			opts.Clean = true
			_, err := New(fs, opts).Emit(context.Background(), g, res)
			require.Error(t, err)
			assert.True(t, errors.Is(err, oerrors.ErrValidation))

			for _, path := range []string{"/escaped.json", "/escaped.js", "/proj/escaped.json", "/proj/escaped.js"} {
				exists, err := afero.Exists(fs, path)
				require.NoError(t, err)
				assert.False(t, exists, path)
			}
			exists, err := afero.Exists(fs, "/proj/dist/keep.txt")
			require.NoError(t, err)
			assert.True(t, exists, "nothing is cleaned when the plan is rejected")
		})
	}
}
