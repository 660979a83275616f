// Package partition implements the build output partitioner: it assigns
// every reachable module to exactly one chunk, extracts a runtime chunk per
// entry point, fingerprints chunk contents and renders output filenames.
//
// Partitioning is a pure function of the graph, the rule table and the
// mode. It performs no I/O.
package partition

import (
	"fmt"
	"sort"
	"strings"
)

// Mode selects the filename policy.
type Mode string

const (
	// Development produces stable, human-readable names.
	Development Mode = "development"

	// Production embeds content fingerprints for long-term caching.
	Production Mode = "production"
)

// ParseMode parses a mode name. Accepts the short forms "dev" and "prod".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev":
		return Development, nil
	case "production", "prod":
		return Production, nil
	default:
		return "", fmt.Errorf("invalid mode %q (valid: development, production)", s)
	}
}

// IsProduction reports whether m is the production mode.
func (m Mode) IsProduction() bool {
	return m == Production
}

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}

// ChunkKind classifies a chunk for load ordering.
type ChunkKind string

const (
	// KindRuntime is the per-entry module-loading bootstrap.
	KindRuntime ChunkKind = "runtime"

	// KindVendor is a chunk created by an output rule.
	KindVendor ChunkKind = "vendor"

	// KindInitial is the default chunk holding application code.
	KindInitial ChunkKind = "initial"

	// KindAsync is a chunk loaded on demand through a dynamic import.
	KindAsync ChunkKind = "async"
)

// OutputFile is one file emitted for a chunk or asset.
type OutputFile struct {
	// Class is the template class that named the file.
	Class FileClass `json:"class" yaml:"class"`

	// Path is the rendered output path, relative to the output directory.
	Path string `json:"path" yaml:"path"`

	// Fingerprint is the hash of the contents written to Path.
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
}

// Chunk is a named, ordered set of modules emitted together.
type Chunk struct {
	Name     string
	Kind     ChunkKind
	Priority int

	// Entry is set on runtime chunks to the entry they bootstrap.
	Entry string

	// HasEntry is true when the chunk holds an entry module. Such chunks
	// are named with the entry templates instead of the chunk templates.
	HasEntry bool

	// Modules lists member module IDs in sorted order.
	Modules []string

	// Source is the generated bootstrap of a runtime chunk.
	Source []byte

	// Fingerprint covers every member module (or the runtime source).
	Fingerprint string

	// Size is the summed size of the members in bytes.
	Size int64

	Files []OutputFile

	scripts []string
	styles  []string
}

// ScriptModules returns the member IDs emitted into the script file.
func (c *Chunk) ScriptModules() []string {
	return c.scripts
}

// StyleModules returns the member IDs emitted into the style file.
func (c *Chunk) StyleModules() []string {
	return c.styles
}

// File returns the output file of the given class family ("script" or
// "style"), or nil if the chunk emits none.
func (c *Chunk) File(family FileClass) *OutputFile {
	for i := range c.Files {
		if c.Files[i].Class.Family() == family {
			return &c.Files[i]
		}
	}
	return nil
}

// Contains reports whether id is a member of the chunk.
func (c *Chunk) Contains(id string) bool {
	i := sort.SearchStrings(c.Modules, id)
	return i < len(c.Modules) && c.Modules[i] == id
}

// Asset is a non-script module: inlined below its size threshold, emitted
// as a separate content-addressed file otherwise.
type Asset struct {
	// Module is the source module ID.
	Module string

	// Rule names the asset rule that matched, if any.
	Rule string

	// Inline is true when the asset is embedded as a data URI.
	Inline bool

	// DataURI is the embedded form of an inlined asset.
	DataURI string

	// Path is the emitted file path; empty when inlined.
	Path string

	Fingerprint string
	Size        int64
}

// Entrypoint lists, for one entry, the chunks and files to load in order.
type Entrypoint struct {
	Name   string
	Module string

	// Chunks are in load order: runtime, rule chunks, application.
	Chunks []string

	// Scripts and Styles are the chunk files in the same order.
	Scripts []string
	Styles  []string
}

// AsyncImport lists the chunks a dynamic import has to load.
type AsyncImport struct {
	// Name is the async chunk name the import opened.
	Name string

	// Module is the import target.
	Module string

	// Chunks hold the modules of the import's static closure, in load
	// order. Chunks already loaded by the page are skipped by the runtime.
	Chunks []string

	Scripts []string
	Styles  []string
}

// Result is the outcome of one partitioning run.
type Result struct {
	Mode Mode

	// Chunks are sorted by load weight, then priority, then name.
	Chunks []*Chunk

	// Assignments maps every partitioned module ID to its chunk name.
	Assignments map[string]string

	Assets       []*Asset
	Entrypoints  []Entrypoint
	AsyncImports []AsyncImport

	// Excluded lists module IDs unreachable from every entry.
	Excluded []string

	// MatchDetails records each rule evaluation, for verbose output.
	MatchDetails []MatchDetail

	index map[string]*Chunk
}

// Chunk returns the chunk with the given name.
func (r *Result) Chunk(name string) (*Chunk, bool) {
	c, ok := r.index[name]
	return c, ok
}

// ChunkFiles maps each chunk name to its emitted paths.
func (r *Result) ChunkFiles() map[string][]string {
	files := make(map[string][]string, len(r.Chunks))
	for _, c := range r.Chunks {
		paths := make([]string, 0, len(c.Files))
		for _, f := range c.Files {
			paths = append(paths, f.Path)
		}
		files[c.Name] = paths
	}
	return files
}

// Entrypoint returns the load plan of the named entry.
func (r *Result) Entrypoint(name string) (Entrypoint, bool) {
	for _, ep := range r.Entrypoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return Entrypoint{}, false
}
