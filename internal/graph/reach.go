package graph

// Closure is the static import closure of a root module.
type Closure struct {
	// Modules lists reached module IDs in depth-first, declaration order.
	// The root comes first.
	Modules []string

	// Dynamic lists the dynamic edges leaving the closure, in the order
	// they were discovered.
	Dynamic []Import
}

// Contains reports whether the closure reached id.
func (c Closure) Contains(id string) bool {
	for _, m := range c.Modules {
		if m == id {
			return true
		}
	}
	return false
}

// StaticClosure follows static imports from root. Dynamic imports are not
// followed; they are collected so the caller can open async roots for them.
// Missing targets are skipped; Validate reports them.
func (g *Graph) StaticClosure(root string) Closure {
	var c Closure
	seen := make(map[string]bool)
	g.walk(root, seen, &c)
	return c
}

func (g *Graph) walk(id string, seen map[string]bool, c *Closure) {
	if seen[id] {
		return
	}
	m, ok := g.Modules[id]
	if !ok {
		return
	}
	seen[id] = true
	c.Modules = append(c.Modules, id)

	for _, imp := range m.Imports {
		if imp.Kind == ImportDynamic {
			c.Dynamic = append(c.Dynamic, imp)
			continue
		}
		g.walk(imp.Path, seen, c)
	}
}
