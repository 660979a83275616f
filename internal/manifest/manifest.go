// Package manifest records the outcome of a build: which files each entry
// loads, what every chunk contains and where every asset went. Manifests
// are written next to the output and can be compared across builds.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"

	oerrors "github.com/packsplit/packsplit/internal/errors"
	"github.com/packsplit/packsplit/internal/partition"
)

// DefaultName is the manifest file name inside the output directory.
const DefaultName = "asset-manifest.json"

// Format selects the manifest encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name. Empty selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown manifest format %q (valid: json, yaml)", s)
	}
}

// Manifest is the serialized build record.
type Manifest struct {
	Mode string `json:"mode" yaml:"mode"`
	Hash string `json:"hash" yaml:"hash"`

	// Files maps logical names ("application.js", "src/logo.png") to paths.
	Files map[string]string `json:"files" yaml:"files"`

	Entrypoints  map[string]Entrypoint `json:"entrypoints" yaml:"entrypoints"`
	AsyncImports []AsyncImport         `json:"asyncImports,omitempty" yaml:"asyncImports,omitempty"`
	Chunks       []Chunk               `json:"chunks" yaml:"chunks"`

	// Modules maps module IDs to their chunk.
	Modules map[string]string `json:"modules" yaml:"modules"`

	Assets []Asset `json:"assets,omitempty" yaml:"assets,omitempty"`
}

// Entrypoint is one entry's load plan.
type Entrypoint struct {
	Module  string   `json:"module" yaml:"module"`
	Chunks  []string `json:"chunks" yaml:"chunks"`
	Scripts []string `json:"scripts" yaml:"scripts"`
	Styles  []string `json:"styles,omitempty" yaml:"styles,omitempty"`
}

// AsyncImport is the load plan of one dynamic import.
type AsyncImport struct {
	Name    string   `json:"name" yaml:"name"`
	Module  string   `json:"module" yaml:"module"`
	Chunks  []string `json:"chunks" yaml:"chunks"`
	Scripts []string `json:"scripts" yaml:"scripts"`
	Styles  []string `json:"styles,omitempty" yaml:"styles,omitempty"`
}

// Chunk is a chunk table row.
type Chunk struct {
	Name        string                 `json:"name" yaml:"name"`
	Kind        string                 `json:"kind" yaml:"kind"`
	Priority    int                    `json:"priority" yaml:"priority"`
	Fingerprint string                 `json:"fingerprint" yaml:"fingerprint"`
	Size        int64                  `json:"size" yaml:"size"`
	Files       []partition.OutputFile `json:"files" yaml:"files"`
	Modules     []string               `json:"modules,omitempty" yaml:"modules,omitempty"`
}

// Asset is an asset table row.
type Asset struct {
	Source      string `json:"source" yaml:"source"`
	Rule        string `json:"rule,omitempty" yaml:"rule,omitempty"`
	Path        string `json:"path,omitempty" yaml:"path,omitempty"`
	Inline      bool   `json:"inline" yaml:"inline"`
	Size        int64  `json:"size" yaml:"size"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
}

// Build converts a partition result into a manifest.
func Build(res *partition.Result, hash partition.HashFunc) *Manifest {
	m := &Manifest{
		Mode:        res.Mode.String(),
		Hash:        string(hash),
		Files:       make(map[string]string),
		Entrypoints: make(map[string]Entrypoint, len(res.Entrypoints)),
		Modules:     make(map[string]string, len(res.Assignments)),
	}

	for _, ep := range res.Entrypoints {
		m.Entrypoints[ep.Name] = Entrypoint{
			Module:  ep.Module,
			Chunks:  ep.Chunks,
			Scripts: ep.Scripts,
			Styles:  ep.Styles,
		}
	}

	for _, ai := range res.AsyncImports {
		m.AsyncImports = append(m.AsyncImports, AsyncImport{
			Name:    ai.Name,
			Module:  ai.Module,
			Chunks:  ai.Chunks,
			Scripts: ai.Scripts,
			Styles:  ai.Styles,
		})
	}

	for _, c := range res.Chunks {
		m.Chunks = append(m.Chunks, Chunk{
			Name:        c.Name,
			Kind:        string(c.Kind),
			Priority:    c.Priority,
			Fingerprint: c.Fingerprint,
			Size:        c.Size,
			Files:       c.Files,
			Modules:     c.Modules,
		})
		for _, f := range c.Files {
			m.Files[c.Name+filepath.Ext(f.Path)] = f.Path
		}
	}

	for id, chunk := range res.Assignments {
		m.Modules[id] = chunk
	}

	for _, a := range res.Assets {
		m.Assets = append(m.Assets, Asset{
			Source:      a.Module,
			Rule:        a.Rule,
			Path:        a.Path,
			Inline:      a.Inline,
			Size:        a.Size,
			Fingerprint: a.Fingerprint,
		})
		if !a.Inline {
			m.Files[a.Module] = a.Path
		}
	}

	return m
}

// Encode serializes m. Map keys are emitted in sorted order by both
// encoders, so equal manifests encode to equal bytes.
func Encode(m *Manifest, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return nil, fmt.Errorf("encoding manifest: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding manifest: %w", err)
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding manifest: %w", err)
		}
		return append(data, '\n'), nil
	}
}

// Decode parses a manifest in either encoding.
func Decode(data []byte) (*Manifest, error) {
	js, err := sigsyaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(js, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// Read loads a manifest file.
func Read(fs afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if exists, _ := afero.Exists(fs, path); !exists {
			return nil, oerrors.NewNotFoundError("manifest not found", path,
				"run 'packsplit build' first, or pass the path of an existing manifest")
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Chunk returns the named chunk row.
func (m *Manifest) Chunk(name string) (Chunk, bool) {
	for _, c := range m.Chunks {
		if c.Name == name {
			return c, true
		}
	}
	return Chunk{}, false
}

// ChunkNames returns the chunk names in sorted order.
func (m *Manifest) ChunkNames() []string {
	names := make([]string, 0, len(m.Chunks))
	for _, c := range m.Chunks {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}
