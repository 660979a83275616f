package manifest

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff/pkg/dyff"
	sigsyaml "sigs.k8s.io/yaml"
)

// ChunkChange is a chunk present in both manifests with a new fingerprint.
type ChunkChange struct {
	Name           string
	OldFingerprint string
	NewFingerprint string
	OldFiles       []string
	NewFiles       []string
}

// DiffResult compares two manifests.
type DiffResult struct {
	// Added chunks exist only in the new manifest.
	Added []string

	// Removed chunks exist only in the old manifest.
	Removed []string

	// Changed chunks have a different fingerprint.
	Changed []ChunkChange

	// Report is the rendered structural diff of the whole manifest.
	Report string
}

// IsEmpty returns true if no chunk changed.
func (r *DiffResult) IsEmpty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0
}

// Summary returns a one-line summary of chunk changes.
func (r *DiffResult) Summary() string {
	if r.IsEmpty() {
		return "No chunk changes"
	}

	parts := make([]string, 0, 3)
	if len(r.Added) > 0 {
		parts = append(parts, fmt.Sprintf("%d added", len(r.Added)))
	}
	if len(r.Removed) > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", len(r.Removed)))
	}
	if len(r.Changed) > 0 {
		parts = append(parts, fmt.Sprintf("%d changed", len(r.Changed)))
	}

	return strings.Join(parts, ", ")
}

// Compare diffs two manifests: a chunk-level fingerprint summary plus a
// YAML-aware report of every field.
func Compare(from, to *Manifest, useColor bool) (*DiffResult, error) {
	res := &DiffResult{}

	oldChunks := make(map[string]Chunk, len(from.Chunks))
	for _, c := range from.Chunks {
		oldChunks[c.Name] = c
	}
	newChunks := make(map[string]Chunk, len(to.Chunks))
	for _, c := range to.Chunks {
		newChunks[c.Name] = c
	}

	for _, name := range to.ChunkNames() {
		nc := newChunks[name]
		oc, ok := oldChunks[name]
		switch {
		case !ok:
			res.Added = append(res.Added, name)
		case oc.Fingerprint != nc.Fingerprint:
			res.Changed = append(res.Changed, ChunkChange{
				Name:           name,
				OldFingerprint: oc.Fingerprint,
				NewFingerprint: nc.Fingerprint,
				OldFiles:       filePaths(oc),
				NewFiles:       filePaths(nc),
			})
		}
	}
	for _, name := range from.ChunkNames() {
		if _, ok := newChunks[name]; !ok {
			res.Removed = append(res.Removed, name)
		}
	}
	sort.Strings(res.Removed)

	fromYAML, err := sigsyaml.Marshal(from)
	if err != nil {
		return nil, fmt.Errorf("serializing old manifest: %w", err)
	}
	toYAML, err := sigsyaml.Marshal(to)
	if err != nil {
		return nil, fmt.Errorf("serializing new manifest: %w", err)
	}

	report, err := diffYAML(fromYAML, toYAML, useColor)
	if err != nil {
		return nil, err
	}
	res.Report = report

	return res, nil
}

func filePaths(c Chunk) []string {
	paths := make([]string, 0, len(c.Files))
	for _, f := range c.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

// diffYAML computes a YAML diff using dyff. Returns "" when equal.
func diffYAML(from, to []byte, useColor bool) (string, error) {
	fromInput, err := parseYAMLInput("old", from)
	if err != nil {
		return "", fmt.Errorf("parsing old manifest: %w", err)
	}
	toInput, err := parseYAMLInput("new", to)
	if err != nil {
		return "", fmt.Errorf("parsing new manifest: %w", err)
	}

	report, err := dyff.CompareInputFiles(fromInput, toInput)
	if err != nil {
		return "", fmt.Errorf("comparing manifests: %w", err)
	}
	if len(report.Diffs) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	writer := &dyff.HumanReport{
		Report:            report,
		DoNotInspectCerts: true,
		NoTableStyle:      !useColor,
		OmitHeader:        true,
	}
	if err := writer.WriteReport(io.Writer(&buf)); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	lines := strings.Split(buf.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// parseYAMLInput parses YAML bytes into a dyff input file.
func parseYAMLInput(name string, data []byte) (ytbx.InputFile, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ytbx.InputFile{Location: name}, nil
	}

	docs, err := ytbx.LoadYAMLDocuments(data)
	if err != nil {
		return ytbx.InputFile{}, err
	}
	return ytbx.InputFile{Location: name, Documents: docs}, nil
}
