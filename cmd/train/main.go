// Command train fits the price model on a scraped dataset and writes the
// model artifact plus a markdown training report.
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
	"github.com/pricelab/go-book-pipeline/ml"
)

func main() {
	config.LoadEnv()

	defaultCfg := config.DefaultConfig()
	datasetDefault := defaultCfg.DatasetFile
	if value, ok := config.EnvString("BOOKS_DATASET"); ok {
		datasetDefault = value
	}
	modelDefault := defaultCfg.ModelFile
	if value, ok := config.EnvString("BOOKS_MODEL"); ok {
		modelDefault = value
	}
	seedDefault := defaultCfg.Seed
	if value, ok, err := config.EnvInt64("BOOKS_SEED"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid BOOKS_SEED: %v\n", err)
		os.Exit(1)
	} else if ok {
		seedDefault = value
	}

	datasetFile := flag.String("dataset", datasetDefault, "Input dataset CSV path")
	modelFile := flag.String("model", modelDefault, "Output model artifact path")
	reportFile := flag.String("report", defaultCfg.ReportFile, "Output training report path")
	trees := flag.Int("trees", defaultCfg.Trees, "Number of trees in the forest")
	maxDepth := flag.Int("max-depth", defaultCfg.MaxDepth, "Maximum tree depth")
	minLeaf := flag.Int("min-leaf", defaultCfg.MinLeaf, "Minimum rows per leaf")
	testFraction := flag.Float64("test-fraction", defaultCfg.TestFraction, "Held-out fraction for evaluation")
	seed := flag.Int64("seed", seedDefault, "Random seed for the split and the forest")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	cli.SetupLogging(*verbose)

	cfg := config.DefaultConfig()
	cfg.DatasetFile = *datasetFile
	cfg.ModelFile = *modelFile
	cfg.ReportFile = *reportFile
	cfg.Trees = *trees
	cfg.MaxDepth = *maxDepth
	cfg.MinLeaf = *minLeaf
	cfg.TestFraction = *testFraction
	cfg.Seed = *seed
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	books, err := dataset.Load(cfg.DatasetFile)
	if err != nil {
		slog.Error("loading dataset", slog.String("path", cfg.DatasetFile), slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("dataset loaded", slog.String("path", cfg.DatasetFile), slog.Int("records", len(books)))

	start := time.Now()
	artifact, err := ml.NewTrainer(cfg).Train(books)
	if err != nil {
		slog.Error("training failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := artifact.Save(cfg.ModelFile); err != nil {
		slog.Error("saving model", slog.Any("error", err))
		os.Exit(1)
	}
	if err := ml.WriteReport(cfg.ReportFile, artifact); err != nil {
		slog.Error("writing report", slog.Any("error", err))
		os.Exit(1)
	}

	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Training complete")
	fmt.Printf("  Run ID:      %s\n", artifact.RunID)
	fmt.Printf("  Records:     %d train / %d test\n", artifact.TrainSize, artifact.TestSize)
	fmt.Printf("  MAE:         %.4f\n", artifact.Metrics.MAE)
	fmt.Printf("  RMSE:        %.4f\n", artifact.Metrics.RMSE)
	fmt.Printf("  R2:          %.4f\n", artifact.Metrics.R2)
	fmt.Printf("  Duration:    %v\n", time.Since(start))
	fmt.Printf("  Model file:  %s\n", cfg.ModelFile)
	fmt.Printf("  Report file: %s\n", cfg.ReportFile)
	fmt.Println(separator)
}
