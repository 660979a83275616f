// Package testutil provides test helpers for packsplit tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/spf13/afero"
)

// WriteFile creates a file with the given content in the specified directory.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dirs for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// GraphModule describes one module of a graph fixture.
type GraphModule struct {
	Contents string
	Package  string
	Static   []string
	// Dynamic maps import targets to chunk names ("" for none).
	Dynamic map[string]string
}

// GraphJSON renders a graph file in the format graph.Parse reads.
func GraphJSON(t *testing.T, entries map[string]string, modules map[string]GraphModule) []byte {
	t.Helper()

	type imp struct {
		Path      string `json:"path"`
		Kind      string `json:"kind"`
		ChunkName string `json:"chunkName,omitempty"`
	}
	type input struct {
		Contents string  `json:"contents"`
		Package  *string `json:"package,omitempty"`
		Imports  []imp   `json:"imports,omitempty"`
	}

	inputs := make(map[string]input, len(modules))
	for id, m := range modules {
		in := input{Contents: m.Contents}
		if m.Package != "" {
			pkg := m.Package
			in.Package = &pkg
		}
		for _, s := range m.Static {
			in.Imports = append(in.Imports, imp{Path: s, Kind: "import-statement"})
		}
		targets := make([]string, 0, len(m.Dynamic))
		for target := range m.Dynamic {
			targets = append(targets, target)
		}
		sort.Strings(targets)
		for _, target := range targets {
			in.Imports = append(in.Imports, imp{Path: target, Kind: "dynamic-import", ChunkName: m.Dynamic[target]})
		}
		inputs[id] = in
	}

	data, err := json.MarshalIndent(map[string]any{"entries": entries, "inputs": inputs}, "", "  ")
	if err != nil {
		t.Fatalf("failed to encode graph: %v", err)
	}
	return data
}

// WriteGraph writes a small React-style project to dir on fs: an entry,
// react, a stylesheet, a lazy page and a public directory. It returns the
// graph file path.
func WriteGraph(t *testing.T, fs afero.Fs, dir string) string {
	t.Helper()

	data := GraphJSON(t,
		map[string]string{"main": "src/index.js"},
		map[string]GraphModule{
			"src/index.js": {
				Contents: "var React = require('react');",
				Static:   []string{"node_modules/react/index.js", "src/index.css"},
				Dynamic:  map[string]string{"src/pages/About.jsx": "about"},
			},
			"node_modules/react/index.js": {Contents: "module.exports = {};"},
			"src/index.css":               {Contents: "body { margin: 0 }"},
			"src/pages/About.jsx":         {Contents: "module.exports = function About() {};"},
		},
	)

	path := filepath.Join(dir, "build-graph.json")
	mustWrite(t, fs, path, data)
	mustWrite(t, fs, filepath.Join(dir, "public", "robots.txt"), []byte("User-agent: *\n"))
	return path
}

func mustWrite(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
