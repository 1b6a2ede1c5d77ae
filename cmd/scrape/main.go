// Command scrape rebuilds the book dataset, either from local page
// documents (sync or concurrent mode) or by crawling a live catalogue.
// Every record flows through the validation and dedupe pipeline before it
// reaches the output writers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pricelab/go-book-pipeline/cli"
	"github.com/pricelab/go-book-pipeline/config"
	"github.com/pricelab/go-book-pipeline/models"
	"github.com/pricelab/go-book-pipeline/pipeline"
	"github.com/pricelab/go-book-pipeline/scraper"
)

func main() {
	config.LoadEnv()

	defaultCfg := config.DefaultConfig()
	pagesDirDefault := defaultCfg.PagesDir
	if value, ok := config.EnvString("BOOKS_PAGES_DIR"); ok {
		pagesDirDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("BOOKS_OUTPUT"); ok {
		outputDefault = value
	}
	workersDefault := defaultCfg.Workers
	if value, ok, err := config.EnvInt("BOOKS_WORKERS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid BOOKS_WORKERS: %v\n", err)
		os.Exit(1)
	} else if ok {
		workersDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("BOOKS_METRICS_ADDR"); ok {
		metricsDefault = value
	}

	mode := flag.String("mode", defaultCfg.ScrapeMode, "Scrape mode: sync or concurrent")
	source := flag.String("source", defaultCfg.ScrapeSource, "Scrape source: local or remote")
	pagesDir := flag.String("pages-dir", pagesDirDefault, "Directory of local page documents")
	workers := flag.Int("workers", workersDefault, "Worker count for concurrent mode")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	baseURL := flag.String("base-url", defaultCfg.BaseURL, "Base URL for remote source")
	maxPages := flag.Int("pages", defaultCfg.MaxPages, "Maximum catalogue pages for remote source")
	parallelism := flag.Int("parallel", defaultCfg.Parallelism, "Concurrent requests for remote source")
	delayMs := flag.Int("delay", 0, "Delay between remote requests (milliseconds)")
	maxRetries := flag.Int("max-retries", defaultCfg.MaxRetries, "Maximum retry attempts per URL")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	cli.SetupLogging(*verbose)

	cfg := config.DefaultConfig()
	cfg.ScrapeMode = strings.ToLower(*mode)
	cfg.ScrapeSource = strings.ToLower(*source)
	cfg.PagesDir = *pagesDir
	cfg.Workers = *workers
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.BaseURL = *baseURL
	cfg.MaxPages = *maxPages
	cfg.Parallelism = *parallelism
	cfg.Delay = time.Duration(*delayMs) * time.Millisecond
	cfg.MaxRetries = *maxRetries
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Error("close writer", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight work to finish")
	}()

	// Local scrapes guarantee the written rows follow page order, so their
	// pipeline runs one writer worker. The remote crawl has no arrival
	// order to preserve and fans out instead.
	pipelineWorkers := 1
	if cfg.ScrapeSource == "remote" {
		pipelineWorkers = cfg.Parallelism
	}

	p := pipeline.NewPipeline(ctx, writer, cfg)
	p.Start(pipelineWorkers)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	start := time.Now()
	var exitErr error
	switch cfg.ScrapeSource {
	case "remote":
		exitErr = runRemote(ctx, cfg, p)
	default:
		exitErr = runLocal(ctx, cfg, p)
	}
	if exitErr != nil {
		slog.Error("scrape failed", slog.Any("error", exitErr))
		p.Close()
		os.Exit(1)
	}

	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}

	printSummary(p.GetMetrics(), time.Since(start), cfg.OutputFile)
}

func runLocal(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline) error {
	s := scraper.NewLocalScraper(cfg.PagesDir)
	stopMetrics := serveMetrics(cfg.MetricsAddr, s.Metrics)
	defer stopMetrics()

	slog.Info("scraping local pages",
		slog.String("dir", cfg.PagesDir),
		slog.String("mode", cfg.ScrapeMode),
		slog.Int("workers", cfg.Workers),
	)

	var (
		result *models.ScrapeResult
		err    error
	)
	if cfg.ScrapeMode == "concurrent" {
		result, err = s.ScrapeConcurrent(ctx, cfg.Workers)
	} else {
		result, err = s.ScrapeSync(ctx)
	}
	if err != nil {
		return err
	}
	if err := p.Process(result.Books...); err != nil {
		return err
	}

	slog.Info("local scrape finished",
		slog.Int("books", len(result.Books)),
		slog.Int("pages", result.PageCount),
		slog.Int("skipped_rows", result.SkippedRows),
	)
	return nil
}

func runRemote(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline) error {
	s, err := scraper.NewRemoteScraper(cfg)
	if err != nil {
		return err
	}
	stopMetrics := serveMetrics(cfg.MetricsAddr, s.Metrics)
	defer stopMetrics()

	slog.Info("crawling remote catalogue",
		slog.String("base_url", cfg.BaseURL),
		slog.Int("pages", cfg.MaxPages),
		slog.Int("parallel", cfg.Parallelism),
	)

	result, err := s.Run(ctx, p)
	if err != nil {
		return err
	}

	slog.Info("remote crawl finished",
		slog.Int("requests", result.RequestCount),
		slog.Int("errors", result.ErrorCount),
		slog.Int("retries", result.RetryCount),
		slog.Int("failed_urls", len(result.FailedURLs)),
	)
	return nil
}

// serveMetrics exposes a scraper registry until the returned stop function
// runs. A blank address disables the endpoint.
func serveMetrics(addr string, metrics *scraper.Metrics) func() {
	if addr == "" || metrics == nil {
		return func() {}
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(metrics map[string]interface{}, duration time.Duration, outputFile string) {
	totalItems := int64(0)
	if processed, ok := metrics["processed_books"].(int64); ok {
		totalItems = processed
	}
	itemsPerSec := 0.0
	if duration.Seconds() > 0 {
		itemsPerSec = float64(totalItems) / duration.Seconds()
	}

	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")
	fmt.Printf("  Total items:   %d\n", totalItems)
	if valErrors, ok := metrics["validation_errors"].(map[string]int); ok && len(valErrors) > 0 {
		fmt.Printf("  Validation:    %v\n", valErrors)
	}
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Items/sec:     %.2f\n", itemsPerSec)
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}
