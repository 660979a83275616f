package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"
	"golang.org/x/sync/errgroup"

	oerrors "github.com/packsplit/packsplit/internal/errors"
)

// graphFile is the on-disk shape of a graph. It follows the "inputs"
// section of an esbuild metafile, extended with entries, packages and
// module contents.
type graphFile struct {
	Entries map[string]string    `json:"entries"`
	Inputs  map[string]inputFile `json:"inputs"`
}

type inputFile struct {
	Bytes    int64        `json:"bytes"`
	Package  *string      `json:"package"`
	Type     string       `json:"type"`
	File     string       `json:"file"`
	Contents *string      `json:"contents"`
	Imports  []importFile `json:"imports"`
}

type importFile struct {
	Path      string `json:"path"`
	Kind      string `json:"kind"`
	ChunkName string `json:"chunkName"`
}

// LoadOptions configures graph loading.
type LoadOptions struct {
	// Jobs bounds concurrent source reads. Zero means GOMAXPROCS.
	Jobs int
}

// Parse decodes a graph from JSONC bytes. Comments and trailing commas are
// allowed. Modules that reference a source file are returned with empty
// contents; Load fills them in.
func Parse(data []byte) (*Graph, error) {
	data = jsonc.ToJSON(data)

	var gf graphFile
	if err := json.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("parsing graph: %w", err)
	}
	if problems, err := duplicateKeys(data); err != nil {
		return nil, fmt.Errorf("parsing graph: %w", err)
	} else if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	g := New()
	for name, id := range gf.Entries {
		g.Entries[name] = id
	}

	for id, in := range gf.Inputs {
		m := &Module{
			ID:     id,
			Size:   in.Bytes,
			Type:   ModuleType(in.Type),
			Source: in.File,
		}

		if in.Package != nil {
			m.Package = *in.Package
		} else {
			m.Package = PackageOf(id)
		}

		if in.Contents != nil {
			m.Contents = []byte(*in.Contents)
			m.Source = ""
			if m.Size == 0 {
				m.Size = int64(len(m.Contents))
			}
		}

		for _, imp := range in.Imports {
			m.Imports = append(m.Imports, Import{
				Path:      imp.Path,
				Kind:      normalizeKind(imp.Kind),
				ChunkName: imp.ChunkName,
			})
		}

		g.Modules[id] = m
	}

	return g, nil
}

// duplicateKeys reports entry names and module IDs declared more than once.
// json.Unmarshal keeps the last duplicate silently, so the object keys are
// walked token by token.
func duplicateKeys(data []byte) ([]string, error) {
	sections := map[string]string{"entries": "entry", "inputs": "module"}

	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var problems []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		label, ok := sections[tok.(string)]
		if !ok {
			if err := skipValue(dec); err != nil {
				return nil, err
			}
			continue
		}

		if tok, err = dec.Token(); err != nil {
			return nil, err
		}
		if tok != json.Delim('{') {
			continue
		}
		seen := make(map[string]bool)
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key := tok.(string)
			if seen[key] {
				problems = append(problems, fmt.Sprintf("%s %q: declared more than once", label, key))
			}
			seen[key] = true
			if err := skipValue(dec); err != nil {
				return nil, err
			}
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
	}
	return problems, nil
}

func skipValue(dec *json.Decoder) error {
	var raw json.RawMessage
	return dec.Decode(&raw)
}

// normalizeKind maps esbuild import kinds onto static/dynamic. Unknown
// kinds pass through so Validate can report them.
func normalizeKind(kind string) ImportKind {
	switch kind {
	case "", "static", "import-statement", "require-call", "import-rule", "url-token":
		return ImportStatic
	case "dynamic", "dynamic-import", "require-resolve":
		return ImportDynamic
	default:
		return ImportKind(kind)
	}
}

// Load reads a graph file, reads every referenced source file relative to
// the graph file's directory, and validates the result.
func Load(ctx context.Context, fs afero.Fs, path string, opts LoadOptions) (*Graph, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oerrors.NewNotFoundError(
				fmt.Sprintf("graph file %s does not exist", path),
				path,
				"Pass the resolver's graph output as the first argument",
			)
		}
		return nil, fmt.Errorf("reading graph %s: %w", path, err)
	}

	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := readSources(ctx, fs, filepath.Dir(path), g, opts.Jobs); err != nil {
		return nil, err
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// readSources loads module contents from disk with bounded concurrency.
func readSources(ctx context.Context, fs afero.Fs, root string, g *Graph, jobs int) error {
	var pending []*Module
	for _, id := range g.IDs() {
		if m := g.Modules[id]; m.Source != "" {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(min(jobs, len(pending)))

	// Each goroutine owns exactly one module, so no locking is needed.
	for _, m := range pending {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			src := m.Source
			if !filepath.IsAbs(src) {
				src = filepath.Join(root, src)
			}
			data, err := afero.ReadFile(fs, src)
			if err != nil {
				return fmt.Errorf("module %q: reading %s: %w", m.ID, src, err)
			}
			m.Contents = data
			if m.Size == 0 {
				m.Size = int64(len(data))
			}
			return nil
		})
	}

	return eg.Wait()
}
