package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/packsplit/packsplit/internal/config"
	"github.com/packsplit/packsplit/internal/output"
	"github.com/packsplit/packsplit/internal/pipeline"
)

// buildFlags are the output overrides shared by build and plan.
type buildFlags struct {
	outDir         string
	manifestFormat string
	jobs           int
}

func (f *buildFlags) addTo(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.outDir, "out-dir", "", "Output directory (env: PACKSPLIT_OUTPUT_DIR)")
	cmd.Flags().StringVar(&f.manifestFormat, "manifest-format", "", "Manifest format: json, yaml")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 0, "Concurrent file reads and writes (env: PACKSPLIT_JOBS)")
}

// apply overrides cfg with the flags the user set.
func (f *buildFlags) apply(cfg *config.Config) []config.ResolvedValue {
	outDir := config.ResolveString("output.dir", f.outDir, cfg.Output.Dir, "")
	cfg.Output.Dir = outDir.Value
	if f.manifestFormat != "" {
		cfg.Output.ManifestFormat = f.manifestFormat
	}
	if f.jobs > 0 {
		cfg.Jobs = f.jobs
	}
	return []config.ResolvedValue{outDir}
}

// graphPath returns the graph argument, or the configured path.
func graphPath(args []string, cfg *config.Config) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Graph
}

// NewBuildCmd creates the build command.
func NewBuildCmd() *cobra.Command {
	var (
		bf         buildFlags
		dryRunFlag bool
	)

	cmd := &cobra.Command{
		Use:   "build [graph]",
		Short: "Partition a module graph and write the output",
		Long: `Partition a module graph into chunks and write scripts, styles, assets,
the asset manifest and the public directory to the output directory.

Arguments:
  graph    Path to the graph file (default: config graph, build-graph.json)

Examples:
  # Development build
  packsplit build

  # Production build with fingerprinted file names
  packsplit build --mode production

  # Show what would be written
  packsplit build --dry-run --verbose`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), args, &bf, dryRunFlag)
		},
	}

	bf.addTo(cmd)
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Report what would be written without writing")

	return cmd
}

func runBuild(ctx context.Context, args []string, bf *buildFlags, dryRun bool) error {
	cfg, err := resolveConfig()
	if err != nil {
		return exitError(err)
	}
	config.LogResolvedValues(bf.apply(cfg))

	p, err := pipeline.New(appFs, cfg)
	if err != nil {
		return exitError(err)
	}

	path := graphPath(args, cfg)
	var res *pipeline.Result
	err = output.RunWithSpinner(ctx, func() error {
		var buildErr error
		res, buildErr = p.Build(ctx, path, pipeline.BuildOptions{DryRun: dryRun})
		return buildErr
	}, output.WithTitle(fmt.Sprintf("Building %s (%s)", path, p.Mode())))
	if err != nil {
		return exitError(err)
	}
	pipeline.LogPhases(res.Phases)

	report := res.Report
	for _, f := range report.Files {
		output.Println(output.FormatFileLine(f.Path, humanize.IBytes(uint64(f.Size)), f.Status))
	}
	output.Println("")

	verb := "Built"
	if dryRun {
		verb = "Planned"
	}
	output.Println(output.FormatCheckmark(fmt.Sprintf("%s %d chunks into %s: %d written, %d unchanged, %s in %s",
		verb, len(res.Partition.Chunks), report.OutDir, report.Written, report.Unchanged,
		humanize.IBytes(uint64(report.Bytes)), report.Duration.Round(time.Millisecond))))
	return nil
}
