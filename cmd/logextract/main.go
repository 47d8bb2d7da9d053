// logextract turns a scanned flight-log PDF into a structured,
// OCR-corrected master log. Pages are rasterized with poppler, sent
// concurrently through a vision model, and aggregated into
// master_log.json / flight_log.csv.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skyledger/flightlog/pkg/config"
	"github.com/skyledger/flightlog/pkg/flightlog"
	"github.com/skyledger/flightlog/pkg/logging"
	"github.com/skyledger/flightlog/pkg/pdfsplit"
	"github.com/skyledger/flightlog/pkg/retry"
	"github.com/skyledger/flightlog/pkg/vision"
)

type options struct {
	configPath      string
	pdfPath         string
	outputDir       string
	apiKey          string
	concurrency     int
	dpi             int
	startPage       int
	endPage         int
	keepImages      bool
	savePageResults bool
	skipSplit       bool
	dryRun          bool
	debug           bool
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
		Use:   "logextract",
		Short: "Extract structured flight records from a scanned flight-log PDF",
		Long: `logextract splits a scanned flight-log PDF into page images, runs each
page through a vision model under a bounded concurrency cap, corrects
common handwriting misreads in tail numbers and airport codes, and writes
the aggregated master log as JSON and CSV.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, cmd.Flags().Changed)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to config.yaml (optional)")
	cmd.Flags().StringVar(&opts.pdfPath, "pdf", "", "path to the flight-log PDF (required)")
	cmd.Flags().StringVar(&opts.outputDir, "output", "output", "output directory")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "vision API key (or ANTHROPIC_API_KEY)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 10, "maximum concurrent vision requests")
	cmd.Flags().IntVar(&opts.dpi, "dpi", 200, "rasterization DPI")
	cmd.Flags().IntVar(&opts.startPage, "start-page", 0, "first page to process (1-indexed, inclusive)")
	cmd.Flags().IntVar(&opts.endPage, "end-page", 0, "last page to process (1-indexed, inclusive)")
	cmd.Flags().BoolVar(&opts.keepImages, "keep-images", false, "keep rendered page images after extraction")
	cmd.Flags().BoolVar(&opts.savePageResults, "save-page-results", false, "write per-page page_NNN.json files")
	cmd.Flags().BoolVar(&opts.skipSplit, "skip-split", false, "reuse existing page images in <output>/pages")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "split only; make no vision calls")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "verbose logging")

	_ = cmd.MarkFlagRequired("pdf")

	return cmd
}

func run(ctx context.Context, opts *options, flagChanged func(string) bool) error {
	logger, err := logging.New(opts.debug)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg, opts, flagChanged)

	pagesDir := filepath.Join(opts.outputDir, "pages")
	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	imagePaths, firstPage, err := pageImages(ctx, cfg, opts, logger, pagesDir)
	if err != nil {
		return err
	}

	if opts.dryRun {
		fmt.Printf("Dry run: split %d page(s) into %s, no extraction performed.\n", len(imagePaths), pagesDir)
		return nil
	}

	results, err := extract(ctx, cfg, opts, logger, imagePaths, firstPage)
	if err != nil {
		return err
	}

	if opts.savePageResults {
		for _, r := range results {
			if err := flightlog.WritePageResult(opts.outputDir, r); err != nil {
				return err
			}
		}
	}

	master := flightlog.NewAggregator(logger).Aggregate(results)

	masterPath := filepath.Join(opts.outputDir, "master_log.json")
	csvPath := filepath.Join(opts.outputDir, "flight_log.csv")
	if err := flightlog.WriteJSON(masterPath, master); err != nil {
		return err
	}
	if err := flightlog.WriteCSV(csvPath, master); err != nil {
		return err
	}

	if !opts.keepImages && !opts.skipSplit {
		if err := os.RemoveAll(pagesDir); err != nil {
			logger.Warn("could not remove page images", zap.Error(err))
		}
	}

	fmt.Printf("Extracted %d entries from %d pages (%d with errors).\n",
		master.TotalEntries, master.PagesProcessed, master.PagesWithErrors)
	fmt.Printf("Wrote %s and %s.\n", masterPath, csvPath)
	if master.PagesWithErrors > 0 {
		for _, pe := range master.ProcessingErrors {
			fmt.Printf("  page %d: %s\n", pe.PageNumber, pe.Error)
		}
	}

	return nil
}

// pageImages either rasterizes the PDF or, with --skip-split, picks up the
// images from a previous run. The returned first page number keeps page
// numbering aligned with the original document when a range is requested.
func pageImages(ctx context.Context, cfg *config.Config, opts *options, logger *zap.Logger, pagesDir string) ([]string, int, error) {
	firstPage := opts.startPage
	if firstPage < 1 {
		firstPage = 1
	}

	if opts.skipSplit {
		ext := cfg.Extract.ImageFormat
		if ext == "jpeg" {
			ext = "jpg"
		}
		paths, err := filepath.Glob(filepath.Join(pagesDir, "page-*."+ext))
		if err != nil || len(paths) == 0 {
			return nil, 0, fmt.Errorf("no existing page images in %s (remove --skip-split?)", pagesDir)
		}
		sort.Strings(paths)
		logger.Info("reusing existing page images", zap.Int("pages", len(paths)))
		return paths, firstPage, nil
	}

	splitter := pdfsplit.New(logger)

	total, err := splitter.PageCount(ctx, opts.pdfPath)
	if err != nil {
		return nil, 0, err
	}
	logger.Info("PDF opened", zap.String("pdf", opts.pdfPath), zap.Int("pages", total))

	if opts.startPage > total {
		return nil, 0, fmt.Errorf("start page %d beyond document end (%d pages)", opts.startPage, total)
	}

	paths, err := splitter.Split(ctx, opts.pdfPath, pagesDir, pdfsplit.Options{
		DPI:       cfg.Extract.DPI,
		Format:    cfg.Extract.ImageFormat,
		FirstPage: opts.startPage,
		LastPage:  opts.endPage,
	})
	if err != nil {
		return nil, 0, err
	}
	return paths, firstPage, nil
}

func extract(ctx context.Context, cfg *config.Config, opts *options, logger *zap.Logger, imagePaths []string, firstPage int) ([]flightlog.PageExtractionResult, error) {
	client, err := vision.NewClient(&vision.Config{
		Provider:  cfg.Vision.Provider,
		Model:     cfg.Vision.Model,
		BaseURL:   cfg.Vision.BaseURL,
		APIKey:    cfg.Vision.APIKey,
		MaxTokens: cfg.Vision.MaxTokens,
	}, logger)
	if err != nil {
		return nil, err
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.Vision.MaxRetries

	agent := vision.NewAgent(client, vision.AgentConfig{
		Concurrency: cfg.Extract.Concurrency,
		Timeout:     time.Duration(cfg.Vision.TimeoutSeconds) * time.Second,
		Retry:       retryCfg,
	}, logger)

	results := agent.ExtractAll(ctx, imagePaths, firstPage, func(completed, total int) {
		fmt.Printf("\rExtracting pages: %d/%d", completed, total)
	})
	fmt.Println()

	return results, nil
}

func applyFlagOverrides(cfg *config.Config, opts *options, changed func(string) bool) {
	if opts.apiKey != "" {
		cfg.Vision.APIKey = opts.apiKey
	}
	if changed("concurrency") {
		cfg.Extract.Concurrency = opts.concurrency
	}
	if changed("dpi") {
		cfg.Extract.DPI = opts.dpi
	}
}
