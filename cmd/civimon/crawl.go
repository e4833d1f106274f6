package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/civimon/civimon/internal/classify"
	"github.com/civimon/civimon/internal/config"
	"github.com/civimon/civimon/internal/crawler"
	"github.com/civimon/civimon/internal/fetch"
	"github.com/civimon/civimon/internal/ingest"
	"github.com/civimon/civimon/internal/log"
	"github.com/civimon/civimon/internal/model"
	"github.com/civimon/civimon/internal/pipeline"
	"github.com/civimon/civimon/internal/render"
	"github.com/civimon/civimon/internal/report"
	"github.com/civimon/civimon/internal/sitemap"
	"github.com/civimon/civimon/internal/store"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl jurisdiction websites and record document versions",
		Long: `Crawl traverses every jurisdiction's website looking for policy and
governance documents.

For each jurisdiction it discovers seeds from robots.txt sitemaps and a set
of known path patterns, follows relevant links up to the configured depth,
downloads document candidates, and stores each one as a content-addressed
version. Re-crawling unchanged content only refreshes its last-seen time,
so version history reflects real changes.

When the CIVIMON_LLM_API_KEY environment variable is set, newly changed
high-relevance documents are classified with a language model.

Examples:
  # Crawl the jurisdictions stored by 'civimon ingest'
  civimon crawl

  # Crawl straight from a CSV file
  civimon crawl --input kommuner.csv

  # Slow down for fragile sites and enable browser rendering
  civimon crawl --rate 1 --render

Configuration file (.civimon) example:
  relevance:
    crawlThreshold: 1
    llmThreshold: 3
  llm:
    model: gpt-4o-mini
    maxChars: 24000`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	// Input flags
	cmd.Flags().StringP("input", "i", "",
		"CSV file with jurisdictions (default: jurisdictions from the database)")

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().IntP("depth", "d", config.DefaultCrawlDepth,
		"Maximum crawl recursion depth")
	cmd.Flags().Float64P("rate", "r", config.DefaultMaxPerSecond,
		"Maximum requests per second per host")
	cmd.Flags().Int("retries", config.DefaultRetries,
		"Fetch attempts for transient failures")
	cmd.Flags().IntP("max-concurrency", "b", config.DefaultMaxConcurrency,
		"Number of jurisdictions crawled in parallel")
	cmd.Flags().Bool("render", false,
		"Render script-driven pages with a headless browser (requires Chrome)")

	// Storage flags
	cmd.Flags().String("blob-dir", "",
		"Directory for document blobs (default: <data-dir>/blobs)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .civimon in current or home directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cmd, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getDataDir resolves the data directory from the persistent flag, falling
// back to the XDG default.
func getDataDir(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("data-dir")
	if err != nil {
		dir, err = cmd.Root().PersistentFlags().GetString("data-dir")
		if err != nil {
			return "", err
		}
	}
	if dir == "" {
		dir = config.XDGDataDir()
	}
	return dir, nil
}

// buildConfig creates a Config from cobra command flags plus the optional
// config file. The classifier API key only ever comes from the environment.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.InputPath, err = cmd.Flags().GetString("input")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.CrawlDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxPerSecond, err = cmd.Flags().GetFloat64("rate")
	if err != nil {
		return nil, err
	}

	cfg.Retries, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.MaxConcurrency, err = cmd.Flags().GetInt("max-concurrency")
	if err != nil {
		return nil, err
	}

	cfg.RenderEnabled, err = cmd.Flags().GetBool("render")
	if err != nil {
		return nil, err
	}

	cfg.BlobDir, err = cmd.Flags().GetString("blob-dir")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.DataDir, err = getDataDir(cmd)
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// Load settings from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently skip when no file exists.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.LLMAPIKey = os.Getenv(classify.EnvAPIKey)

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// The secure handler masks API keys and tokens in log output.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// runCrawl executes a full crawl run.
func runCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	st, err := store.Open(cfg.DataDir, store.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	blobs := store.NewBlobStore(cfg.ResolvedBlobDir())

	jurisdictions, invalid, err := loadTargets(ctx, cfg, st)
	if err != nil {
		return err
	}
	if len(jurisdictions) == 0 && len(invalid) == 0 {
		return errors.New("no jurisdictions to crawl (run 'civimon ingest' or pass --input)")
	}

	runID, err := st.CreateRun(ctx)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	logger.Info("starting crawl",
		"run_id", runID,
		"jurisdictions", len(jurisdictions),
		"invalid_rows", len(invalid),
		"concurrency", cfg.MaxConcurrency,
		"render", cfg.RenderEnabled,
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Crawling %d jurisdiction(s) (run %d, concurrency %d)...\n",
		len(jurisdictions), runID, cfg.MaxConcurrency)
	startTime := time.Now()

	// One fetcher, resolver, and dispatcher shared across jurisdictions;
	// per-crawl state lives inside each Crawl call.
	limiter := fetch.NewDomainRateLimiter(cfg.MaxPerSecond)
	fetcher := fetch.NewFetcher(limiter,
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithRetries(cfg.Retries),
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithLogger(logger),
	)
	resolver := sitemap.NewResolver(fetcher, logger)
	heuristic := crawler.NewHeuristic(cfg.Relevance)

	dispatcherOpts := []crawler.DispatcherOption{
		crawler.WithMaxDepth(cfg.CrawlDepth),
		crawler.WithHeuristicPaths(cfg.HeuristicPaths),
		crawler.WithDispatcherUserAgent(cfg.UserAgent),
		crawler.WithDispatcherLogger(logger),
	}
	if cfg.RenderEnabled {
		browser := render.NewBrowser(ctx, render.WithLogger(logger))
		defer browser.Close()
		dispatcherOpts = append(dispatcherOpts, crawler.WithRenderer(browser))
	}
	dispatcher := crawler.NewDispatcher(fetcher, resolver, heuristic, dispatcherOpts...)

	classifier, err := buildClassifier(cfg, logger)
	if err != nil {
		return err
	}

	factory := func() *pipeline.Pipeline {
		p := pipeline.New(
			pipeline.WithLogger(logger),
			pipeline.WithContinueOnError(true),
		)
		p.AddSteps(
			pipeline.NewCrawlStep(dispatcher, logger),
			pipeline.NewDownloadStep(fetcher, st, blobs, pipeline.WithDownloadLogger(logger)),
			pipeline.NewClassifyStep(classifier, st, logger),
			pipeline.NewCoverageStep(st, logger),
		)
		return p
	}

	bp := pipeline.NewBatchProcessor(factory,
		pipeline.WithConcurrency(cfg.MaxConcurrency),
		pipeline.WithBatchLogger(logger),
	)

	_, batchErr := bp.ProcessBatch(ctx, jurisdictions, runID)

	// Invalid input rows still get a coverage row so the report shows them.
	for _, row := range invalid {
		j := model.Jurisdiction{ID: row.ID, Name: row.Name, Type: row.Type, Website: row.Website}
		if err := st.UpsertJurisdiction(ctx, j); err != nil {
			logger.Error("failed to store invalid row", "name", row.Name, "error", err)
		}
		cov := model.CoverageRow{
			RunID:          runID,
			JurisdictionID: row.ID,
			Name:           row.Name,
			Website:        row.Website,
			Status:         model.CoverageFAIL,
			ErrorMessage:   "invalid_input: " + row.Reason,
		}
		if err := st.InsertCoverage(ctx, cov); err != nil {
			logger.Error("failed to record invalid row", "name", row.Name, "error", err)
		}
	}

	if err := st.FinishRun(ctx, runID); err != nil {
		logger.Error("failed to finish run", "run_id", runID, "error", err)
	}

	elapsed := time.Since(startTime)
	fmt.Fprintf(cmd.OutOrStdout(), "Crawl completed in %s\n", elapsed.Round(time.Millisecond))

	if err := printRunSummary(ctx, cmd, st, runID, cfg.Verbose); err != nil {
		logger.Error("failed to print run summary", "error", err)
	}

	return batchErr
}

// loadTargets returns the jurisdictions to crawl, either from the input CSV
// or from the database.
func loadTargets(ctx context.Context, cfg *config.Config, st *store.Store) ([]model.Jurisdiction, []model.InvalidJurisdiction, error) {
	if cfg.InputPath != "" {
		return ingest.LoadJurisdictions(cfg.InputPath)
	}

	jurisdictions, err := st.ListJurisdictions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list jurisdictions: %w", err)
	}
	return jurisdictions, nil, nil
}

// buildClassifier creates the LLM client when an API key is configured.
// Without a key classification is disabled for the run.
func buildClassifier(cfg *config.Config, logger *slog.Logger) (pipeline.Classifier, error) {
	if cfg.LLMAPIKey == "" {
		logger.Info("classification disabled", "reason", classify.EnvAPIKey+" not set")
		return nil, nil
	}

	client, err := classify.NewClient(cfg.LLMAPIKey,
		classify.WithEndpoint(cfg.LLMEndpoint),
		classify.WithModel(cfg.LLMModel),
		classify.WithMaxChars(cfg.LLMMaxChars),
		classify.WithClientLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}
	return client, nil
}

// printRunSummary writes the human-readable coverage summary to stdout.
func printRunSummary(ctx context.Context, cmd *cobra.Command, st *store.Store, runID int64, verbose bool) error {
	rows, err := st.CoverageRows(ctx, runID)
	if err != nil {
		return err
	}

	export := &report.RunExport{
		RunID:       runID,
		GeneratedAt: time.Now(),
		Coverage:    rows,
	}
	writer := report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(verbose))
	_, err = writer.WriteCoverage(export)
	return err
}
