package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/packsplit/packsplit/internal/partition"
)

// RenderChunkTable renders one row per chunk, in load order.
func RenderChunkTable(res *partition.Result) string {
	t := NewTable("CHUNK", "KIND", "PRIORITY", "MODULES", "SIZE", "FILES").AlignRight(2, 3, 4)

	for _, c := range res.Chunks {
		paths := make([]string, 0, len(c.Files))
		for _, f := range c.Files {
			paths = append(paths, f.Path)
		}
		t.Row(
			c.Name,
			string(c.Kind),
			strconv.Itoa(c.Priority),
			strconv.Itoa(len(c.Modules)),
			humanize.Bytes(uint64(c.Size)),
			strings.Join(paths, "\n"),
		)
	}

	return t.String()
}

// RenderAssetTable renders the asset decisions. Returns "" when there are
// no assets.
func RenderAssetTable(res *partition.Result) string {
	if len(res.Assets) == 0 {
		return ""
	}

	t := NewTable("ASSET", "RULE", "SIZE", "OUTPUT").AlignRight(2)
	for _, a := range res.Assets {
		out := a.Path
		if a.Inline {
			out = StyleDim.Render("inline")
		}
		t.Row(a.Module, a.Rule, humanize.Bytes(uint64(a.Size)), out)
	}
	return t.String()
}

// RenderEntrypoints lists each entry's load order.
func RenderEntrypoints(res *partition.Result) string {
	var sb strings.Builder
	for _, ep := range res.Entrypoints {
		fmt.Fprintf(&sb, "%s %s\n", StyleAction.Render("entry"), StyleNoun.Render(ep.Name))
		for i, name := range ep.Chunks {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, name)
		}
	}
	for _, ai := range res.AsyncImports {
		fmt.Fprintf(&sb, "%s %s %s\n", StyleAction.Render("async"), StyleNoun.Render(ai.Name),
			StyleDim.Render("("+strings.Join(ai.Chunks, ", ")+")"))
	}
	return sb.String()
}

// WriteMatchDetails writes the rule evaluations grouped by module.
func WriteMatchDetails(w io.Writer, details []partition.MatchDetail) error {
	current := ""
	for _, d := range details {
		if d.ModuleID != current {
			current = d.ModuleID
			if _, err := fmt.Fprintln(w, StyleNoun.Render(current)); err != nil {
				return err
			}
		}
		mark := StyleRemoved.Render("✗")
		if d.Matched {
			mark = StyleAdded.Render("✓")
		}
		if _, err := fmt.Fprintf(w, "  %s %s → %s (priority %d): %s\n",
			mark, d.Rule, d.Chunk, d.Priority, d.Reason); err != nil {
			return err
		}
	}
	return nil
}
