// Package pipeline orchestrates a build: load the module graph, partition
// it into chunks, then emit the output files.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/packsplit/packsplit/internal/config"
	"github.com/packsplit/packsplit/internal/emit"
	"github.com/packsplit/packsplit/internal/graph"
	"github.com/packsplit/packsplit/internal/manifest"
	"github.com/packsplit/packsplit/internal/output"
	"github.com/packsplit/packsplit/internal/partition"
)

// PhaseRecord captures timing for one pipeline phase.
type PhaseRecord struct {
	Name     string
	Duration time.Duration
	Details  string // Human-readable summary (e.g., "7 chunks, 2 assets")
}

// Result contains the output of a pipeline run.
type Result struct {
	Graph     *graph.Graph
	Partition *partition.Result
	Manifest  *manifest.Manifest

	// Report is nil for Plan.
	Report *emit.Report

	Phases []PhaseRecord
}

// Pipeline runs builds for one mode-resolved configuration.
type Pipeline struct {
	fs          afero.Fs
	cfg         *config.Config
	partitioner *partition.Partitioner
	emitOpts    emit.Options
	hash        partition.HashFunc
}

// New compiles cfg into a Pipeline. Rule, template and output settings
// are checked here, before any graph is read.
func New(fs afero.Fs, cfg *config.Config) (*Pipeline, error) {
	mode, opts, err := partitionOptions(cfg)
	if err != nil {
		return nil, err
	}

	p, err := partition.New(mode, opts)
	if err != nil {
		return nil, err
	}

	emitOpts, err := emitOptions(cfg, opts.Hash)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		fs:          fs,
		cfg:         cfg,
		partitioner: p,
		emitOpts:    emitOpts,
		hash:        opts.Hash,
	}, nil
}

// Mode returns the build mode.
func (p *Pipeline) Mode() partition.Mode {
	return p.partitioner.Mode()
}

// OutDir returns the output directory.
func (p *Pipeline) OutDir() string {
	return p.emitOpts.OutDir
}

// Plan loads the graph at graphPath and partitions it without writing.
func (p *Pipeline) Plan(ctx context.Context, graphPath string) (*Result, error) {
	res := &Result{}

	start := time.Now()
	g, err := graph.Load(ctx, p.fs, graphPath, graph.LoadOptions{Jobs: p.cfg.Jobs})
	if err != nil {
		return nil, err
	}
	res.Graph = g
	res.Phases = append(res.Phases, PhaseRecord{
		Name:     "load",
		Duration: time.Since(start),
		Details:  fmt.Sprintf("%d modules, %d entries", len(g.Modules), len(g.Entries)),
	})
	output.Debug("graph loaded", "path", graphPath, "modules", len(g.Modules), "entries", len(g.Entries))

	start = time.Now()
	part, err := p.partitioner.Partition(g)
	if err != nil {
		return nil, err
	}
	res.Partition = part
	res.Manifest = manifest.Build(part, p.hash)
	res.Phases = append(res.Phases, PhaseRecord{
		Name:     "partition",
		Duration: time.Since(start),
		Details:  fmt.Sprintf("%d chunks, %d assets, %d excluded", len(part.Chunks), len(part.Assets), len(part.Excluded)),
	})
	output.Debug("graph partitioned",
		"mode", part.Mode,
		"chunks", len(part.Chunks),
		"assets", len(part.Assets),
		"excluded", len(part.Excluded),
	)

	return res, nil
}

// BuildOptions adjusts a single Build call.
type BuildOptions struct {
	// DryRun reports what would be written without touching the output.
	DryRun bool
}

// Build runs Plan and writes the result to the output directory.
func (p *Pipeline) Build(ctx context.Context, graphPath string, opts BuildOptions) (*Result, error) {
	res, err := p.Plan(ctx, graphPath)
	if err != nil {
		return nil, err
	}

	emitOpts := p.emitOpts
	emitOpts.DryRun = opts.DryRun

	start := time.Now()
	report, err := emit.New(p.fs, emitOpts).Emit(ctx, res.Graph, res.Partition)
	if err != nil {
		return nil, err
	}
	res.Report = report
	res.Phases = append(res.Phases, PhaseRecord{
		Name:     "emit",
		Duration: time.Since(start),
		Details:  fmt.Sprintf("%d written, %d unchanged", report.Written, report.Unchanged),
	})

	return res, nil
}

// LogPhases logs phase timings at DEBUG level.
func LogPhases(phases []PhaseRecord) {
	for _, ph := range phases {
		output.Debug("phase complete", "phase", ph.Name, "duration", ph.Duration, "details", ph.Details)
	}
}
