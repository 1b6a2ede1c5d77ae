// Command serve loads a trained model artifact and exposes the prediction
// UI and JSON API over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pricelab/go-book-pipeline/cli"
	"github.com/pricelab/go-book-pipeline/config"
	"github.com/pricelab/go-book-pipeline/dataset"
	"github.com/pricelab/go-book-pipeline/ml"
	"github.com/pricelab/go-book-pipeline/models"
	"github.com/pricelab/go-book-pipeline/server"
)

func main() {
	config.LoadEnv()

	defaultCfg := config.DefaultConfig()
	modelDefault := defaultCfg.ModelFile
	if value, ok := config.EnvString("BOOKS_MODEL"); ok {
		modelDefault = value
	}
	addrDefault := defaultCfg.ListenAddr
	if value, ok := config.EnvString("BOOKS_LISTEN_ADDR"); ok {
		addrDefault = value
	}

	modelFile := flag.String("model", modelDefault, "Trained model artifact path")
	addr := flag.String("addr", addrDefault, "HTTP listen address")
	dataFile := flag.String("data", "", "Dataset CSV for the explorer page (optional)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	cli.SetupLogging(*verbose)

	cfg := config.DefaultConfig()
	cfg.ModelFile = *modelFile
	cfg.ListenAddr = *addr
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	artifact, err := ml.LoadArtifact(cfg.ModelFile)
	if err != nil {
		slog.Error("loading model", slog.String("path", cfg.ModelFile), slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("model loaded",
		slog.String("path", cfg.ModelFile),
		slog.String("run_id", artifact.RunID),
		slog.Int("categories", len(artifact.Categories())),
		slog.Float64("mae", artifact.Metrics.MAE),
	)

	var books []*models.Book
	if *dataFile != "" {
		books, err = dataset.Load(*dataFile)
		if err != nil {
			slog.Error("loading explorer dataset", slog.String("path", *dataFile), slog.Any("error", err))
			os.Exit(1)
		}
		slog.Info("explorer dataset loaded", slog.String("path", *dataFile), slog.Int("records", len(books)))
	}

	s, err := server.New(cfg, artifact, books)
	if err != nil {
		slog.Error("initialising server", slog.Any("error", err))
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", slog.Any("error", err))
		}
	}()

	slog.Info("prediction server listening", slog.String("addr", cfg.ListenAddr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("server stopped")
}
