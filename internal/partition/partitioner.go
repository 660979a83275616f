package partition

import (
	"fmt"
	"path"
	"sort"
	"strings"

	oerrors "github.com/packsplit/packsplit/internal/errors"
	"github.com/packsplit/packsplit/internal/graph"
	"github.com/packsplit/packsplit/pkg/weights"
)

const (
	// DefaultChunkName holds first-party code no rule claims.
	DefaultChunkName = "application"

	// DefaultRuntimeName names the per-entry runtime chunk.
	DefaultRuntimeName = "runtime~[entry]"

	// DefaultHashLength cuts fingerprints of placeholders without a length.
	DefaultHashLength = 20
)

// Options configures a Partitioner.
type Options struct {
	// Rules are compiled output rules in evaluation order.
	Rules []*Rule

	// Assets decides which modules are assets and how they are emitted.
	Assets *AssetRules

	// Templates names output files. Empty classes use DefaultTemplates.
	Templates TemplateSpec

	// DefaultChunk defaults to DefaultChunkName.
	DefaultChunk string

	// RuntimeName must contain [entry]. Defaults to DefaultRuntimeName.
	RuntimeName string

	// Hash defaults to HashXXH64.
	Hash HashFunc

	// HashLength defaults to DefaultHashLength.
	HashLength int

	// Minify minifies the generated runtime bootstrap.
	Minify bool
}

// Partitioner assigns graph modules to chunks and names their files.
type Partitioner struct {
	mode      Mode
	opts      Options
	templates *Templates
	matcher   *Matcher

	runtimePrefix string
}

// New creates a Partitioner for mode. Templates are validated against the
// mode and rule chunk names against the reserved names, so configuration
// errors surface before any graph is read.
func New(mode Mode, opts Options) (*Partitioner, error) {
	if mode != Development && mode != Production {
		return nil, fmt.Errorf("invalid mode %q", mode)
	}

	if opts.DefaultChunk == "" {
		opts.DefaultChunk = DefaultChunkName
	}
	if opts.RuntimeName == "" {
		opts.RuntimeName = DefaultRuntimeName
	}
	if opts.Hash == "" {
		opts.Hash = HashXXH64
	}
	if opts.HashLength <= 0 {
		opts.HashLength = DefaultHashLength
	}

	if !strings.Contains(opts.RuntimeName, "[entry]") {
		return nil, &TemplateError{Class: "runtime", Template: opts.RuntimeName,
			Message: "missing required placeholder [entry]"}
	}
	if !graph.ValidName(strings.ReplaceAll(opts.RuntimeName, "[entry]", "main")) {
		return nil, &TemplateError{Class: "runtime", Template: opts.RuntimeName,
			Message: "runtime name must be a single path element"}
	}
	if !graph.ValidName(opts.DefaultChunk) {
		return nil, fmt.Errorf("%w: default chunk %q must be a single path element", oerrors.ErrValidation, opts.DefaultChunk)
	}

	templates, err := ParseTemplates(opts.Templates.WithDefaults(mode))
	if err != nil {
		return nil, err
	}
	if err := templates.ValidateFor(mode); err != nil {
		return nil, err
	}

	prefix, _, _ := strings.Cut(opts.RuntimeName, "[entry]")
	for _, r := range opts.Rules {
		if r.Chunk == opts.DefaultChunk {
			return nil, &RuleError{Set: "rules", Index: r.Index, Name: r.Name, Field: "chunk", Value: r.Chunk,
				Message: "chunk name is reserved for the default chunk"}
		}
		if prefix != "" && strings.HasPrefix(r.Chunk, prefix) {
			return nil, &RuleError{Set: "rules", Index: r.Index, Name: r.Name, Field: "chunk", Value: r.Chunk,
				Message: fmt.Sprintf("chunk name must not use the runtime prefix %q", prefix)}
		}
	}

	return &Partitioner{
		mode:          mode,
		opts:          opts,
		templates:     templates,
		matcher:       NewMatcher(opts.Rules),
		runtimePrefix: prefix,
	}, nil
}

// Mode returns the mode the partitioner was built for.
func (p *Partitioner) Mode() Mode {
	return p.mode
}

// RuntimeChunkName returns the runtime chunk name of an entry.
func (p *Partitioner) RuntimeChunkName(entry string) string {
	return strings.ReplaceAll(p.opts.RuntimeName, "[entry]", entry)
}

// asyncRoot is one async chunk discovered during reachability.
type asyncRoot struct {
	name    string
	module  string
	members []string
}

// reach holds the reachability analysis of a graph.
type reach struct {
	initial   map[string]map[string]bool
	anyEntry  map[string]bool
	reachedBy map[string]map[string]bool
	async     []*asyncRoot
}

func (r *reach) reachable(id string) bool {
	return r.anyEntry[id] || len(r.reachedBy[id]) > 0
}

// analyze computes each entry's initial set and every async root, following
// nested dynamic imports breadth-first.
func (p *Partitioner) analyze(g *graph.Graph) *reach {
	r := &reach{
		initial:   make(map[string]map[string]bool),
		anyEntry:  make(map[string]bool),
		reachedBy: make(map[string]map[string]bool),
	}

	var queue []graph.Import
	for _, entry := range g.EntryNames() {
		c := g.StaticClosure(g.Entries[entry])
		set := make(map[string]bool, len(c.Modules))
		for _, id := range c.Modules {
			set[id] = true
			r.anyEntry[id] = true
		}
		r.initial[entry] = set
		queue = append(queue, c.Dynamic...)
	}

	seen := make(map[string]bool)
	for len(queue) > 0 {
		imp := queue[0]
		queue = queue[1:]

		name := asyncChunkName(imp)
		key := name + "\x00" + imp.Path
		if seen[key] {
			continue
		}
		seen[key] = true

		c := g.StaticClosure(imp.Path)
		root := &asyncRoot{name: name, module: imp.Path, members: c.Modules}
		r.async = append(r.async, root)
		for _, id := range c.Modules {
			if r.reachedBy[id] == nil {
				r.reachedBy[id] = make(map[string]bool)
			}
			r.reachedBy[id][name] = true
		}
		queue = append(queue, c.Dynamic...)
	}

	return r
}

// asyncChunkName is the edge's chunk name, or the target's base name
// without extension. Derived names are sanitized; explicit names are
// checked by graph.Validate.
func asyncChunkName(imp graph.Import) string {
	if imp.ChunkName != "" {
		return imp.ChunkName
	}
	base := path.Base(imp.Path)
	return graph.SanitizeName(strings.TrimSuffix(base, path.Ext(base)))
}

// checkAsyncNames rejects async chunks named after a rule chunk or the
// default chunk. Runtime names are left to checkRuntimePurity.
func (p *Partitioner) checkAsyncNames(r *reach) error {
	owners := map[string]string{p.opts.DefaultChunk: "the default chunk"}
	for _, rule := range p.opts.Rules {
		if _, ok := owners[rule.Chunk]; !ok {
			owners[rule.Chunk] = fmt.Sprintf("rule %q", rule.Name)
		}
	}

	var problems []string
	for _, root := range r.async {
		if owner, ok := owners[root.name]; ok {
			problems = append(problems, fmt.Sprintf("async chunk %q (dynamic import of %q): name already used by %s",
				root.name, root.module, owner))
		}
	}
	if len(problems) > 0 {
		return &graph.ValidationError{Problems: problems}
	}
	return nil
}

// Partition assigns every reachable module of g and names every output.
// It fails without a partial result.
func (p *Partitioner) Partition(g *graph.Graph) (*Result, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		Mode:        p.mode,
		Assignments: make(map[string]string),
		index:       make(map[string]*Chunk),
	}

	typeOf := make(map[string]graph.ModuleType, len(g.Modules))
	for id, m := range g.Modules {
		typeOf[id] = m.ResolveType(p.opts.Assets.IsAsset)
	}

	r := p.analyze(g)
	if err := p.checkAsyncNames(r); err != nil {
		return nil, err
	}

	for _, entry := range g.EntryNames() {
		name := p.RuntimeChunkName(entry)
		src, err := RuntimeSource(entry, g.Entries[entry], p.opts.Minify)
		if err != nil {
			return nil, fmt.Errorf("runtime for entry %q: %w", entry, err)
		}
		c := p.chunk(res, name, KindRuntime, 0)
		c.Entry = entry
		c.Source = src
		c.Size = int64(len(src))
		c.Fingerprint = p.opts.Hash.Sum(src)
	}

	// Rule chunks, default chunk, async chunks; in that order of strength.
	for _, id := range g.IDs() {
		if !r.reachable(id) {
			res.Excluded = append(res.Excluded, id)
			continue
		}
		if typeOf[id] == graph.TypeAsset {
			continue
		}

		m := g.Modules[id]
		rule, details := p.matcher.Match(m)
		res.MatchDetails = append(res.MatchDetails, details...)

		var c *Chunk
		switch {
		case rule != nil:
			c = p.chunk(res, rule.Chunk, KindVendor, rule.Priority)
		case r.anyEntry[id]:
			c = p.chunk(res, p.opts.DefaultChunk, KindInitial, 0)
		case len(r.reachedBy[id]) == 1:
			var name string
			for n := range r.reachedBy[id] {
				name = n
			}
			c = p.chunk(res, name, KindAsync, 0)
		default:
			c = p.chunk(res, p.opts.DefaultChunk, KindInitial, 0)
		}

		c.Modules = append(c.Modules, id)
		c.Size += m.Size
		if typeOf[id] == graph.TypeStyle {
			c.styles = append(c.styles, id)
		} else {
			c.scripts = append(c.scripts, id)
		}
		res.Assignments[id] = c.Name
	}

	if err := p.checkRuntimePurity(res); err != nil {
		return nil, err
	}

	entryModules := make(map[string]bool, len(g.Entries))
	for _, id := range g.Entries {
		entryModules[id] = true
	}

	kept := res.Chunks[:0]
	for _, c := range res.Chunks {
		if c.Kind != KindRuntime && len(c.Modules) == 0 {
			delete(res.index, c.Name)
			continue
		}
		sort.Strings(c.Modules)
		sort.Strings(c.scripts)
		sort.Strings(c.styles)
		for _, id := range c.Modules {
			if entryModules[id] {
				c.HasEntry = true
				break
			}
		}
		if c.Kind != KindRuntime {
			c.Fingerprint = ModulesFingerprint(p.opts.Hash, g, c.Modules)
		}
		kept = append(kept, c)
	}
	res.Chunks = kept
	sortChunks(res.Chunks)

	paths := make(map[string]string)
	for _, c := range res.Chunks {
		if err := p.nameChunk(g, c, paths); err != nil {
			return nil, err
		}
	}

	for _, id := range g.IDs() {
		if !r.reachable(id) || typeOf[id] != graph.TypeAsset {
			continue
		}
		a, err := p.asset(g.Modules[id], paths)
		if err != nil {
			return nil, err
		}
		res.Assets = append(res.Assets, a)
	}

	res.Entrypoints = p.entrypoints(g, r, res)
	res.AsyncImports = p.asyncImports(r, res)

	return res, nil
}

// chunk returns the named chunk, creating it when needed. When a name is
// shared the stronger kind (lower load weight) wins and the priority is
// the highest seen.
func (p *Partitioner) chunk(res *Result, name string, kind ChunkKind, priority int) *Chunk {
	c, ok := res.index[name]
	if !ok {
		c = &Chunk{Name: name, Kind: kind, Priority: priority}
		res.index[name] = c
		res.Chunks = append(res.Chunks, c)
		return c
	}
	if weights.GetWeight(string(kind)) < weights.GetWeight(string(c.Kind)) {
		c.Kind = kind
	}
	if priority > c.Priority {
		c.Priority = priority
	}
	return c
}

// checkRuntimePurity fails when a graph module was assigned to a runtime
// chunk, which can only happen through a colliding chunk name.
func (p *Partitioner) checkRuntimePurity(res *Result) error {
	for _, c := range res.Chunks {
		if c.Kind == KindRuntime && len(c.Modules) > 0 {
			mods := make([]string, len(c.Modules))
			copy(mods, c.Modules)
			sort.Strings(mods)
			return &ImpureRuntimeError{Chunk: c.Name, Modules: mods}
		}
	}
	return nil
}

// sortChunks orders by load weight, then descending priority, then name.
func sortChunks(chunks []*Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		wi, wj := weights.GetWeight(string(chunks[i].Kind)), weights.GetWeight(string(chunks[j].Kind))
		if wi != wj {
			return wi < wj
		}
		if chunks[i].Priority != chunks[j].Priority {
			return chunks[i].Priority > chunks[j].Priority
		}
		return chunks[i].Name < chunks[j].Name
	})
}

// nameChunk renders the chunk's script and style paths and records them in
// paths, failing on a collision.
func (p *Partitioner) nameChunk(g *graph.Graph, c *Chunk, paths map[string]string) error {
	scriptClass, styleClass := ClassScriptChunk, ClassStyleChunk
	if c.Kind == KindRuntime || c.HasEntry {
		scriptClass, styleClass = ClassScript, ClassStyle
	}

	add := func(class FileClass, fp, ext string) error {
		file := OutputFile{
			Class:       class,
			Path:        p.templates.For(class).Render(c.Name, fp, ext, p.opts.HashLength),
			Fingerprint: fp,
		}
		owner := fmt.Sprintf("chunk %q (%s)", c.Name, class.Family())
		if prev, ok := paths[file.Path]; ok {
			return &CollisionError{Path: file.Path, First: prev, Second: owner}
		}
		paths[file.Path] = owner
		c.Files = append(c.Files, file)
		return nil
	}

	if c.Kind == KindRuntime {
		return add(scriptClass, c.Fingerprint, ".js")
	}
	if len(c.scripts) > 0 {
		if err := add(scriptClass, ModulesFingerprint(p.opts.Hash, g, c.scripts), ".js"); err != nil {
			return err
		}
	}
	if len(c.styles) > 0 {
		if err := add(styleClass, ModulesFingerprint(p.opts.Hash, g, c.styles), ".css"); err != nil {
			return err
		}
	}
	return nil
}

// asset decides between inlining and emitting m. Two assets with identical
// bytes share one path; any other clash is a collision.
func (p *Partitioner) asset(m *graph.Module, paths map[string]string) (*Asset, error) {
	a := &Asset{
		Module:      m.ID,
		Fingerprint: p.opts.Hash.Sum(m.Contents),
		Size:        m.Size,
	}

	rule := p.opts.Assets.Find(m.ID)
	if rule != nil {
		a.Rule = rule.Name
		if rule.Inline(m.Size) {
			a.Inline = true
			a.DataURI = DataURI(m.Ext(), m.Contents)
			return a, nil
		}
	}

	ext := m.Ext()
	base := strings.TrimSuffix(path.Base(m.ID), ext)
	a.Path = p.templates.For(ClassAsset).Render(base, a.Fingerprint, ext, p.opts.HashLength)

	owner := fmt.Sprintf("asset %q@%s", m.ID, a.Fingerprint)
	if prev, ok := paths[a.Path]; ok {
		if !strings.HasSuffix(prev, "@"+a.Fingerprint) {
			return nil, &CollisionError{Path: a.Path, First: prev, Second: owner}
		}
		return a, nil
	}
	paths[a.Path] = owner
	return a, nil
}

// entrypoints builds each entry's load plan: runtime, rule chunks holding
// its initial modules, then the default chunk.
func (p *Partitioner) entrypoints(g *graph.Graph, r *reach, res *Result) []Entrypoint {
	var eps []Entrypoint
	for _, entry := range g.EntryNames() {
		ep := Entrypoint{Name: entry, Module: g.Entries[entry]}
		initial := r.initial[entry]

		var vendors, rest []*Chunk
		for _, c := range res.Chunks {
			if c.Kind == KindRuntime || !holdsAny(c, initial) {
				continue
			}
			if c.Kind == KindVendor {
				vendors = append(vendors, c)
			} else {
				rest = append(rest, c)
			}
		}
		sort.SliceStable(vendors, func(i, j int) bool {
			if vendors[i].Priority != vendors[j].Priority {
				return vendors[i].Priority > vendors[j].Priority
			}
			return vendors[i].Name < vendors[j].Name
		})

		ordered := make([]*Chunk, 0, len(vendors)+len(rest)+1)
		if rt, ok := res.index[p.RuntimeChunkName(entry)]; ok {
			ordered = append(ordered, rt)
		}
		ordered = append(ordered, vendors...)
		ordered = append(ordered, rest...)

		for _, c := range ordered {
			ep.Chunks = append(ep.Chunks, c.Name)
			ep.Scripts, ep.Styles = appendFiles(ep.Scripts, ep.Styles, c)
		}
		eps = append(eps, ep)
	}
	return eps
}

// asyncImports lists, per dynamic import, the chunks holding its closure.
func (p *Partitioner) asyncImports(r *reach, res *Result) []AsyncImport {
	var out []AsyncImport
	for _, root := range r.async {
		members := make(map[string]bool, len(root.members))
		for _, id := range root.members {
			members[id] = true
		}

		ai := AsyncImport{Name: root.name, Module: root.module}
		for _, c := range res.Chunks {
			if c.Kind == KindRuntime || !holdsAny(c, members) {
				continue
			}
			ai.Chunks = append(ai.Chunks, c.Name)
			ai.Scripts, ai.Styles = appendFiles(ai.Scripts, ai.Styles, c)
		}
		out = append(out, ai)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Module < out[j].Module
	})
	return out
}

func holdsAny(c *Chunk, set map[string]bool) bool {
	for _, id := range c.Modules {
		if set[id] {
			return true
		}
	}
	return false
}

func appendFiles(scripts, styles []string, c *Chunk) ([]string, []string) {
	if f := c.File(ClassScript); f != nil {
		scripts = append(scripts, f.Path)
	}
	if f := c.File(ClassStyle); f != nil {
		styles = append(styles, f.Path)
	}
	return scripts, styles
}
