// Command generate renders a synthetic book catalogue as paginated HTML
// documents, optionally writing the ground-truth dataset alongside.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pricelab/go-book-pipeline/cli"
	"github.com/pricelab/go-book-pipeline/config"
	"github.com/pricelab/go-book-pipeline/dataset"
	"github.com/pricelab/go-book-pipeline/generator"
)

func main() {
	config.LoadEnv()

	defaultCfg := config.DefaultConfig()
	recordsDefault := defaultCfg.Records
	if value, ok, err := config.EnvInt("BOOKS_RECORDS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid BOOKS_RECORDS: %v\n", err)
		os.Exit(1)
	} else if ok {
		recordsDefault = value
	}
	pagesDirDefault := defaultCfg.PagesDir
	if value, ok := config.EnvString("BOOKS_PAGES_DIR"); ok {
		pagesDirDefault = value
	}
	seedDefault := defaultCfg.Seed
	if value, ok, err := config.EnvInt64("BOOKS_SEED"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid BOOKS_SEED: %v\n", err)
		os.Exit(1)
	} else if ok {
		seedDefault = value
	}

	records := flag.Int("records", recordsDefault, "Number of synthetic records to generate")
	rowsPerPage := flag.Int("rows-per-page", defaultCfg.RowsPerPage, "Records rendered per page document")
	seed := flag.Int64("seed", seedDefault, "Random seed for reproducible catalogues")
	pagesDir := flag.String("pages-dir", pagesDirDefault, "Directory for generated page documents")
	datasetDefault := defaultCfg.DatasetFile
	if value, ok := config.EnvString("BOOKS_DATASET"); ok {
		datasetDefault = value
	}
	datasetFile := flag.String("dataset", datasetDefault, "Ground-truth dataset CSV path (empty to skip)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	cli.SetupLogging(*verbose)

	cfg := config.DefaultConfig()
	cfg.Records = *records
	cfg.RowsPerPage = *rowsPerPage
	cfg.Seed = *seed
	cfg.PagesDir = *pagesDir
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("generating catalogue",
		slog.Int("records", cfg.Records),
		slog.Int("rows_per_page", cfg.RowsPerPage),
		slog.Int64("seed", cfg.Seed),
	)

	start := time.Now()
	books := generator.New(cfg.Seed).Dataset(cfg.Records)
	pages, err := generator.WritePages(cfg.PagesDir, books, cfg.RowsPerPage)
	if err != nil {
		slog.Error("writing page documents", slog.Any("error", err))
		os.Exit(1)
	}

	if *datasetFile != "" {
		if err := dataset.Save(*datasetFile, books); err != nil {
			slog.Error("writing ground-truth dataset", slog.Any("error", err))
			os.Exit(1)
		}
		slog.Info("ground-truth dataset written", slog.String("path", *datasetFile))
	}

	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Generation complete")
	fmt.Printf("  Records:    %d\n", len(books))
	fmt.Printf("  Pages:      %d\n", pages)
	fmt.Printf("  Directory:  %s\n", cfg.PagesDir)
	fmt.Printf("  Duration:   %v\n", time.Since(start))
	fmt.Println(separator)
}
