// Package emit writes a partitioned build to an output directory: chunk
// script and style files, assets, precompressed siblings, the public
// directory and the manifest.
package emit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	oerrors "github.com/packsplit/packsplit/internal/errors"
	"github.com/packsplit/packsplit/internal/graph"
	"github.com/packsplit/packsplit/internal/manifest"
	"github.com/packsplit/packsplit/internal/minifier"
	"github.com/packsplit/packsplit/internal/output"
	"github.com/packsplit/packsplit/internal/partition"
)

// Options configures an Emitter.
type Options struct {
	// OutDir is the output directory.
	OutDir string

	// Clean removes OutDir before writing.
	Clean bool

	// DryRun computes the report without touching the filesystem.
	DryRun bool

	// Minify minifies chunk scripts and styles. Runtime chunks are
	// minified by the partitioner.
	Minify bool

	// PublicDir is copied into OutDir, except index.html. Optional.
	PublicDir string

	// Compress lists the precompressed siblings to write.
	Compress []Compression

	// CompressThreshold is the minimum size in bytes of a compressed file.
	CompressThreshold int64

	// ManifestName is the manifest path inside OutDir. Empty disables it.
	ManifestName string

	// ManifestFormat selects JSON or YAML.
	ManifestFormat manifest.Format

	// Hash is recorded in the manifest.
	Hash partition.HashFunc

	// Jobs bounds concurrent writes. Defaults to GOMAXPROCS.
	Jobs int
}

// FileKind classifies an emitted file.
type FileKind string

const (
	KindScript     FileKind = "script"
	KindStyle      FileKind = "style"
	KindAsset      FileKind = "asset"
	KindCompressed FileKind = "compressed"
	KindPublic     FileKind = "public"
	KindManifest   FileKind = "manifest"
)

// FileReport is the outcome of one file.
type FileReport struct {
	Path   string
	Kind   FileKind
	Chunk  string
	Size   int64
	Status string
}

// Report summarizes an emit.
type Report struct {
	OutDir    string
	Files     []FileReport
	Written   int
	Unchanged int
	Bytes     int64
	Duration  time.Duration
}

// Emitter writes build output through an afero filesystem.
type Emitter struct {
	fs   afero.Fs
	opts Options
}

// New creates an Emitter.
func New(fs afero.Fs, opts Options) *Emitter {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	if opts.CompressThreshold <= 0 {
		opts.CompressThreshold = DefaultCompressThreshold
	}
	return &Emitter{fs: fs, opts: opts}
}

// file is one pending write. Exactly one of data or source is set.
type file struct {
	path   string
	kind   FileKind
	chunk  string
	data   []byte
	source string

	// dest is path joined onto OutDir, set once the plan is complete.
	dest string
}

// Emit writes every output of res. The first failed write cancels the
// rest and is returned.
func (e *Emitter) Emit(ctx context.Context, g *graph.Graph, res *partition.Result) (*Report, error) {
	start := time.Now()

	files, err := e.plan(g, res)
	if err != nil {
		return nil, err
	}

	if e.opts.Clean && !e.opts.DryRun {
		output.Debug("cleaning output directory", "dir", e.opts.OutDir)
		if err := e.fs.RemoveAll(e.opts.OutDir); err != nil {
			return nil, fmt.Errorf("cleaning %s: %w", e.opts.OutDir, err)
		}
	}

	reports := make([]FileReport, len(files))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(min(e.opts.Jobs, max(len(files), 1)))

	for i, f := range files {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			r, err := e.write(f)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Path < reports[j].Path
	})

	rep := &Report{OutDir: e.opts.OutDir, Files: reports}
	for _, r := range reports {
		switch r.Status {
		case output.StatusUnchanged:
			rep.Unchanged++
		case output.StatusWritten, output.StatusCopied:
			rep.Written++
			rep.Bytes += r.Size
		}
	}
	rep.Duration = time.Since(start)
	return rep, nil
}

// plan renders every file in memory. Public files are read when written.
func (e *Emitter) plan(g *graph.Graph, res *partition.Result) ([]file, error) {
	var files []file

	for _, c := range res.Chunks {
		if f := c.File(partition.ClassScript); f != nil {
			data := ChunkScript(g, c)
			if e.opts.Minify && c.Kind != partition.KindRuntime {
				var err error
				if data, err = minifier.Script(data); err != nil {
					return nil, fmt.Errorf("chunk %q: %w", c.Name, err)
				}
			}
			files = append(files, file{path: f.Path, kind: KindScript, chunk: c.Name, data: data})
		}
		if f := c.File(partition.ClassStyle); f != nil {
			data := ChunkStyle(g, c)
			if e.opts.Minify {
				var err error
				if data, err = minifier.Style(data); err != nil {
					return nil, fmt.Errorf("chunk %q: %w", c.Name, err)
				}
			}
			files = append(files, file{path: f.Path, kind: KindStyle, chunk: c.Name, data: data})
		}
	}

	var compressed []file
	for _, f := range files {
		if int64(len(f.data)) < e.opts.CompressThreshold {
			continue
		}
		for _, algo := range e.opts.Compress {
			data, err := compress(algo, f.data)
			if err != nil {
				return nil, fmt.Errorf("compressing %s: %w", f.path, err)
			}
			compressed = append(compressed, file{path: f.path + algo.Ext(), kind: KindCompressed, chunk: f.chunk, data: data})
		}
	}
	files = append(files, compressed...)

	// Identical assets share one path and are written once.
	assetPaths := make(map[string]bool)
	for _, a := range res.Assets {
		if a.Inline || assetPaths[a.Path] {
			continue
		}
		assetPaths[a.Path] = true
		m, _ := g.Module(a.Module)
		files = append(files, file{path: a.Path, kind: KindAsset, data: m.Contents})
	}

	if e.opts.ManifestName != "" {
		data, err := manifest.Encode(manifest.Build(res, e.opts.Hash), e.opts.ManifestFormat)
		if err != nil {
			return nil, err
		}
		files = append(files, file{path: e.opts.ManifestName, kind: KindManifest, data: data})
	}

	public, err := e.publicFiles()
	if err != nil {
		return nil, err
	}

	// Build output wins over a public file of the same name.
	taken := make(map[string]bool, len(files))
	for _, f := range files {
		taken[filepath.ToSlash(f.path)] = true
	}
	for _, f := range public {
		if taken[f.path] {
			output.Warn("public file shadowed by build output", "path", f.path)
			continue
		}
		files = append(files, f)
	}

	for i := range files {
		dest, err := e.destination(files[i].path)
		if err != nil {
			return nil, err
		}
		files[i].dest = dest
	}
	return files, nil
}

// destination joins rel onto OutDir, refusing paths that leave it.
func (e *Emitter) destination(rel string) (string, error) {
	dest := filepath.Join(e.opts.OutDir, filepath.FromSlash(rel))
	inside, err := filepath.Rel(e.opts.OutDir, dest)
	if err != nil || inside == "." || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: output path %q resolves outside %s", oerrors.ErrValidation, rel, e.opts.OutDir)
	}
	return dest, nil
}

// publicFiles lists the public directory, skipping the HTML template.
func (e *Emitter) publicFiles() ([]file, error) {
	if e.opts.PublicDir == "" {
		return nil, nil
	}
	exists, err := afero.DirExists(e.fs, e.opts.PublicDir)
	if err != nil {
		return nil, fmt.Errorf("checking public directory: %w", err)
	}
	if !exists {
		output.Debug("public directory not found, skipping", "dir", e.opts.PublicDir)
		return nil, nil
	}

	var files []file
	err = afero.Walk(e.fs, e.opts.PublicDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(e.opts.PublicDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "index.html" {
			return nil
		}
		files = append(files, file{path: rel, kind: KindPublic, source: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking public directory: %w", err)
	}
	return files, nil
}

// write stores one file unless an identical file is already in place.
func (e *Emitter) write(f file) (FileReport, error) {
	rep := FileReport{Path: f.path, Kind: f.kind, Chunk: f.chunk}

	data := f.data
	if f.source != "" {
		var err error
		if data, err = afero.ReadFile(e.fs, f.source); err != nil {
			return rep, fmt.Errorf("reading %s: %w", f.source, err)
		}
	}
	rep.Size = int64(len(data))

	if e.opts.DryRun {
		rep.Status = output.StatusPlanned
		return rep, nil
	}

	dest := f.dest
	if !e.opts.Clean {
		if existing, err := afero.ReadFile(e.fs, dest); err == nil && xxhash.Sum64(existing) == xxhash.Sum64(data) && len(existing) == len(data) {
			rep.Status = output.StatusUnchanged
			output.Debug("unchanged", "path", f.path)
			return rep, nil
		}
	}

	if err := e.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return rep, fmt.Errorf("creating directory for %s: %w", f.path, err)
	}
	if err := afero.WriteFile(e.fs, dest, data, 0o644); err != nil {
		return rep, fmt.Errorf("writing %s: %w", f.path, err)
	}

	rep.Status = output.StatusWritten
	if f.kind == KindPublic {
		rep.Status = output.StatusCopied
	}
	if f.chunk != "" {
		output.ChunkLogger(f.chunk).Debug("wrote file", "path", f.path, "bytes", rep.Size)
	} else {
		output.Debug("wrote file", "path", f.path, "bytes", rep.Size)
	}
	return rep, nil
}
