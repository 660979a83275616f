package pipeline

import (
	"fmt"
	"path"
	"strings"

	"github.com/packsplit/packsplit/internal/config"
	"github.com/packsplit/packsplit/internal/emit"
	"github.com/packsplit/packsplit/internal/manifest"
	"github.com/packsplit/packsplit/internal/partition"
)

// partitionOptions compiles the rule tables of a mode-resolved config.
func partitionOptions(cfg *config.Config) (partition.Mode, partition.Options, error) {
	mode, err := partition.ParseMode(cfg.Mode)
	if err != nil {
		return "", partition.Options{}, err
	}

	hash, err := partition.ParseHashFunc(cfg.Hash)
	if err != nil {
		return "", partition.Options{}, err
	}

	specs := make([]partition.RuleSpec, len(cfg.Rules))
	for i, r := range cfg.Rules {
		specs[i] = partition.RuleSpec{
			Name:     r.Name,
			Test:     r.Test,
			Package:  r.Package,
			Vendor:   r.Vendor,
			Chunk:    r.Chunk,
			Priority: r.Priority,
		}
	}
	rules, err := partition.CompileRules(specs)
	if err != nil {
		return "", partition.Options{}, err
	}

	assetSpecs := make([]partition.AssetRuleSpec, len(cfg.Assets))
	for i, a := range cfg.Assets {
		assetSpecs[i] = partition.AssetRuleSpec{Name: a.Name, Test: a.Test, InlineLimit: a.InlineLimit}
	}
	assets, err := partition.CompileAssetRules(assetSpecs)
	if err != nil {
		return "", partition.Options{}, err
	}

	return mode, partition.Options{
		Rules:  rules,
		Assets: assets,
		Templates: partition.TemplateSpec{
			Script:      cfg.Templates.Script,
			ScriptChunk: cfg.Templates.ScriptChunk,
			Style:       cfg.Templates.Style,
			StyleChunk:  cfg.Templates.StyleChunk,
			Asset:       cfg.Templates.Asset,
		},
		DefaultChunk: cfg.DefaultChunk,
		RuntimeName:  cfg.RuntimeName,
		Hash:         hash,
		HashLength:   cfg.HashLength,
		Minify:       cfg.MinifyOutput(),
	}, nil
}

// emitOptions maps the output section of a mode-resolved config.
func emitOptions(cfg *config.Config, hash partition.HashFunc) (emit.Options, error) {
	format, err := manifest.ParseFormat(cfg.Output.ManifestFormat)
	if err != nil {
		return emit.Options{}, err
	}

	compress := make([]emit.Compression, 0, len(cfg.Output.Compress))
	for _, s := range cfg.Output.Compress {
		c, err := emit.ParseCompression(s)
		if err != nil {
			return emit.Options{}, err
		}
		compress = append(compress, c)
	}

	return emit.Options{
		OutDir:            cfg.Output.Dir,
		Clean:             cfg.CleanOutput(),
		Minify:            cfg.MinifyOutput(),
		PublicDir:         cfg.Output.Public,
		Compress:          compress,
		CompressThreshold: cfg.Output.CompressThreshold,
		ManifestName:      manifestName(cfg.Output.Manifest, format),
		ManifestFormat:    format,
		Hash:              hash,
		Jobs:              cfg.Jobs,
	}, nil
}

// manifestName swaps the extension of the default manifest name to match
// the format. Custom names are kept as configured.
func manifestName(name string, format manifest.Format) string {
	if name != manifest.DefaultName {
		return name
	}
	return fmt.Sprintf("%s.%s", strings.TrimSuffix(name, path.Ext(name)), format)
}
