// identityfusion resolves raw passenger-name variants from an extracted
// flight log into canonical person entities, producing alias maps, merge
// candidates for review, SQL to apply the aliases, and a summary report.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/skyledger/flightlog/pkg/config"
	"github.com/skyledger/flightlog/pkg/fusion"
	"github.com/skyledger/flightlog/pkg/logging"
)

type options struct {
	configPath     string
	inputPath      string
	outputDir      string
	apiKey         string
	autoMerge      bool
	fuzzyThreshold float64
	useAI          bool
	format         string
	debug          bool
}

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "identityfusion",
		Short: "Resolve passenger-name variants to canonical identities",
		Long: `identityfusion reads a name,count CSV (as produced from an extracted
master log), seeds canonical entities from frequent names, matches the
rest by abbreviation, substring, and Jaro-Winkler similarity, and writes
the alias map, entity list, merge candidates, SQL, and a review report.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.Flags().Changed)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to config.yaml (optional)")
	cmd.Flags().StringVar(&opts.inputPath, "input", "", "name,count CSV path (required)")
	cmd.Flags().StringVar(&opts.outputDir, "output", "output", "output directory")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "API key for --use-ai (or ANTHROPIC_API_KEY)")
	cmd.Flags().BoolVar(&opts.autoMerge, "auto-merge", false, "apply candidates marked safe to auto-merge")
	cmd.Flags().Float64Var(&opts.fuzzyThreshold, "fuzzy-threshold", 0.85, "minimum similarity for fuzzy candidates")
	cmd.Flags().BoolVar(&opts.useAI, "use-ai", false, "ask the model about names the heuristics cannot place")
	cmd.Flags().StringVar(&opts.format, "format", "json", "export format: json, sql, or both")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "verbose logging")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func run(ctx context.Context, opts *options, flagChanged func(string) bool) error {
	switch opts.format {
	case "json", "sql", "both":
	default:
		return fmt.Errorf("unknown format %q (want json, sql, or both)", opts.format)
	}

	logger, err := logging.New(opts.debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.apiKey != "" {
		cfg.Vision.APIKey = opts.apiKey
	}
	if flagChanged("fuzzy-threshold") {
		cfg.Fusion.FuzzyThreshold = opts.fuzzyThreshold
	}

	nameCounts, err := readNameCounts(opts.inputPath)
	if err != nil {
		return err
	}
	logger.Info("loaded name counts", zap.Int("names", len(nameCounts)))

	fusionCfg := fusion.Config{
		FuzzyThreshold:     cfg.Fusion.FuzzyThreshold,
		AutoMergeThreshold: cfg.Fusion.AutoMergeThreshold,
		MinEntityFrequency: cfg.Fusion.MinEntityFrequency,
	}
	if cfg.Fusion.AbbreviationsFile != "" {
		abbrevs, err := readAbbreviations(cfg.Fusion.AbbreviationsFile)
		if err != nil {
			return err
		}
		fusionCfg.KnownAbbreviations = abbrevs
	}

	engine := fusion.NewEngine(fusionCfg, logger)
	candidates := engine.Analyze(nameCounts)

	if opts.useAI {
		suggester := fusion.NewSuggester(cfg.Vision.APIKey, cfg.Vision.Model, logger)
		aiCandidates, err := suggester.Suggest(ctx, engine.Unmapped(), engine.Entities())
		if err != nil {
			logger.Warn("AI suggestion pass failed", zap.String("error", logging.SanitizeError(err)))
		} else {
			candidates = append(candidates, aiCandidates...)
		}
	}

	applied := 0
	if opts.autoMerge {
		for _, c := range candidates {
			if c.AutoMerge {
				engine.ApplyMerge(c)
				applied++
			}
		}
	}

	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	entities := engine.Entities()
	aliases := engine.ExportAliases()

	if opts.format == "json" || opts.format == "both" {
		if err := fusion.WriteAliases(filepath.Join(opts.outputDir, "aliases.json"), aliases); err != nil {
			return err
		}
		if err := fusion.WriteEntities(filepath.Join(opts.outputDir, "entities.json"), entities); err != nil {
			return err
		}
		if err := fusion.WriteCandidates(filepath.Join(opts.outputDir, "merge_candidates.json"), candidates); err != nil {
			return err
		}
	}
	if opts.format == "sql" || opts.format == "both" {
		if err := fusion.WriteSQL(filepath.Join(opts.outputDir, "apply_aliases.sql"), aliases); err != nil {
			return err
		}
	}
	if err := fusion.WriteReport(filepath.Join(opts.outputDir, "fusion_report.md"), entities, candidates, engine.Unmapped()); err != nil {
		return err
	}

	fmt.Printf("Resolved %d entities, %d merge candidates (%d auto-merged), %d unmapped.\n",
		len(entities), len(candidates), applied, len(engine.Unmapped()))
	fmt.Printf("Wrote results to %s.\n", opts.outputDir)

	return nil
}

// readNameCounts parses a name,count CSV. A header row is tolerated; rows
// with an unparseable count are skipped rather than fatal.
func readNameCounts(path string) ([]fusion.NameCount, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var counts []fusion.NameCount
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if len(record) < 2 {
			continue
		}
		name := strings.TrimSpace(record[0])
		count, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil || name == "" {
			continue
		}
		counts = append(counts, fusion.NameCount{Name: name, Count: count})
	}

	if len(counts) == 0 {
		return nil, fmt.Errorf("no usable name,count rows in %s", path)
	}
	return counts, nil
}

// readAbbreviations loads a YAML map of abbreviation -> canonical name.
func readAbbreviations(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read abbreviations %s: %w", path, err)
	}
	abbrevs := make(map[string]string)
	if err := yaml.Unmarshal(data, &abbrevs); err != nil {
		return nil, fmt.Errorf("parse abbreviations %s: %w", path, err)
	}
	normalized := make(map[string]string, len(abbrevs))
	for k, v := range abbrevs {
		normalized[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return normalized, nil
}
