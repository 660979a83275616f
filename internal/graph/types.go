// Package graph models the resolved module dependency graph a build starts
// from. The graph is produced by an external resolver; this package only
// loads, validates and traverses it.
package graph

import (
	"path"
	"sort"
	"strings"
)

// ModuleType classifies how a module is emitted.
type ModuleType string

const (
	// TypeScript modules are wrapped into a chunk's script file.
	TypeScript ModuleType = "script"

	// TypeStyle modules are extracted into a chunk's style file.
	TypeStyle ModuleType = "style"

	// TypeAsset modules (images, fonts) are inlined or emitted on their own.
	TypeAsset ModuleType = "asset"
)

// ImportKind distinguishes eager imports from lazily loaded ones.
type ImportKind string

const (
	// ImportStatic is an import the importer needs before it can run.
	ImportStatic ImportKind = "static"

	// ImportDynamic is an import() call; its target starts an async chunk.
	ImportDynamic ImportKind = "dynamic"
)

// styleExtensions are the extensions treated as style modules when a module
// carries no explicit type.
var styleExtensions = map[string]bool{
	".css":  true,
	".less": true,
	".scss": true,
	".sass": true,
	".styl": true,
}

// Import is a directed "imports" edge.
type Import struct {
	// Path is the ID of the imported module.
	Path string

	// Kind is static or dynamic.
	Kind ImportKind

	// ChunkName names the async chunk opened by a dynamic import.
	// Ignored on static imports.
	ChunkName string
}

// Module is a compiled unit of source code.
type Module struct {
	// ID is the module path, unique within a graph.
	ID string

	// Package is the originating package; empty for first-party code.
	Package string

	// Size is the module size in bytes.
	Size int64

	// Type is the declared module type. Empty means "infer".
	Type ModuleType

	// Contents holds the compiled source.
	Contents []byte

	// Source is the file the contents are read from, relative to the
	// graph file. Empty when contents are inline.
	Source string

	// Imports are the module's outgoing edges in declaration order.
	Imports []Import
}

// IsThirdParty reports whether the module comes from a dependency package.
func (m *Module) IsThirdParty() bool {
	return m.Package != ""
}

// Ext returns the module's file extension including the dot.
func (m *Module) Ext() string {
	return path.Ext(m.ID)
}

// ResolveType returns the declared type, or infers one: style extensions are
// styles, IDs accepted by isAsset are assets, everything else is script.
func (m *Module) ResolveType(isAsset func(id string) bool) ModuleType {
	if m.Type != "" {
		return m.Type
	}
	if styleExtensions[strings.ToLower(m.Ext())] {
		return TypeStyle
	}
	if isAsset != nil && isAsset(m.ID) {
		return TypeAsset
	}
	return TypeScript
}

// Graph is a module table rooted at named entry points.
type Graph struct {
	// Entries maps entry names to module IDs.
	Entries map[string]string

	// Modules maps module IDs to modules.
	Modules map[string]*Module
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		Entries: make(map[string]string),
		Modules: make(map[string]*Module),
	}
}

// Module returns the module with the given ID.
func (g *Graph) Module(id string) (*Module, bool) {
	m, ok := g.Modules[id]
	return m, ok
}

// EntryNames returns the entry names in sorted order.
func (g *Graph) EntryNames() []string {
	names := make([]string, 0, len(g.Entries))
	for name := range g.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IDs returns all module IDs in sorted order.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.Modules))
	for id := range g.Modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PackageOf derives the originating package from a node_modules path.
// Scoped packages keep their scope ("@babel/runtime"). Returns "" for
// first-party paths.
func PackageOf(id string) string {
	p := strings.ReplaceAll(id, "\\", "/")

	const marker = "node_modules/"
	idx := strings.LastIndex(p, marker)
	if idx < 0 {
		return ""
	}
	rest := p[idx+len(marker):]

	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		return ""
	}
	if strings.HasPrefix(parts[0], "@") {
		if len(parts) < 2 || parts[1] == "" {
			return ""
		}
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}
