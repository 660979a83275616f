package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/packsplit/packsplit/internal/config"
	"github.com/packsplit/packsplit/internal/manifest"
	"github.com/packsplit/packsplit/internal/output"
	"github.com/packsplit/packsplit/internal/pipeline"
)

// NewPlanCmd creates the plan command.
func NewPlanCmd() *cobra.Command {
	var (
		bf         buildFlags
		outputFlag string
	)

	cmd := &cobra.Command{
		Use:   "plan [graph]",
		Short: "Show how a module graph would be partitioned",
		Long: `Partition a module graph without writing anything and show the chunks,
assets and per-entry load order.

With --verbose, every rule evaluation is listed per module with the
reason it matched or failed.

Examples:
  # Chunk table for the default graph
  packsplit plan

  # Production manifest as YAML
  packsplit plan --mode production -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), args, &bf, outputFlag)
		},
	}

	bf.addTo(cmd)
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "table",
		"Output format: "+strings.Join(output.ValidFormats(), ", "))

	return cmd
}

func runPlan(ctx context.Context, args []string, bf *buildFlags, outputFmt string) error {
	format, ok := output.ParseOutputFormat(outputFmt)
	if !ok {
		return &ExitError{
			Code: ExitGeneralError,
			Err:  fmt.Errorf("invalid output format %q (valid: %s)", outputFmt, strings.Join(output.ValidFormats(), ", ")),
		}
	}

	cfg, err := resolveConfig()
	if err != nil {
		return exitError(err)
	}
	config.LogResolvedValues(bf.apply(cfg))

	p, err := pipeline.New(appFs, cfg)
	if err != nil {
		return exitError(err)
	}

	res, err := p.Plan(ctx, graphPath(args, cfg))
	if err != nil {
		return exitError(err)
	}
	pipeline.LogPhases(res.Phases)

	switch format {
	case output.FormatJSON, output.FormatYAML:
		mf := manifest.FormatJSON
		if format == output.FormatYAML {
			mf = manifest.FormatYAML
		}
		data, err := manifest.Encode(res.Manifest, mf)
		if err != nil {
			return exitError(err)
		}
		output.Print(string(data))
		return nil
	}

	part := res.Partition
	output.Println(output.RenderChunkTable(part))
	if len(part.Assets) > 0 {
		output.Println("")
		output.Println(output.RenderAssetTable(part))
	}
	output.Println("")
	output.Print(output.RenderEntrypoints(part))

	if len(part.Excluded) > 0 {
		output.Debug("modules unreachable from every entry", "count", len(part.Excluded), "modules", strings.Join(part.Excluded, ", "))
	}

	if verboseFlag {
		output.Println("")
		if err := output.WriteMatchDetails(output.Stdout(), part.MatchDetails); err != nil {
			return exitError(err)
		}
	}
	return nil
}
