package emit

import (
	"bytes"
	"encoding/json"

	"github.com/packsplit/packsplit/internal/graph"
	"github.com/packsplit/packsplit/internal/partition"
)

// registry is the global the runtime installs.
const registry = "window." + partition.GlobalName

// ChunkScript renders a chunk's script file. Runtime chunks are their
// generated source. Every other chunk defines its script modules in the
// registry and, when it holds entry modules, starts them last.
func ChunkScript(g *graph.Graph, c *partition.Chunk) []byte {
	if c.Kind == partition.KindRuntime {
		return c.Source
	}

	var buf bytes.Buffer
	for _, id := range c.ScriptModules() {
		m, _ := g.Module(id)
		buf.WriteString(registry)
		buf.WriteString(".define(")
		buf.Write(quote(id))
		buf.WriteString(", function (module, exports, require) {\n")
		buf.Write(m.Contents)
		if len(m.Contents) > 0 && m.Contents[len(m.Contents)-1] != '\n' {
			buf.WriteByte('\n')
		}
		buf.WriteString("});\n")
	}

	for _, entry := range g.EntryNames() {
		id := g.Entries[entry]
		if !c.Contains(id) {
			continue
		}
		buf.WriteString(registry)
		buf.WriteString(".start(")
		buf.Write(quote(entry))
		buf.WriteString(", ")
		buf.Write(quote(id))
		buf.WriteString(");\n")
	}
	return buf.Bytes()
}

// ChunkStyle concatenates a chunk's style modules, each introduced by a
// comment naming its source.
func ChunkStyle(g *graph.Graph, c *partition.Chunk) []byte {
	var buf bytes.Buffer
	for _, id := range c.StyleModules() {
		m, _ := g.Module(id)
		buf.WriteString("/* ")
		buf.WriteString(id)
		buf.WriteString(" */\n")
		buf.Write(m.Contents)
		if len(m.Contents) > 0 && m.Contents[len(m.Contents)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

// quote renders s as a JavaScript string literal.
func quote(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}
