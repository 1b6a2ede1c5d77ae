// Package config holds configuration shared by the pipeline commands.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds settings for every stage of the pipeline. Each command only
// reads the fields it cares about.
type Config struct {
	// Data layout.
	DataDir     string
	PagesDir    string
	DatasetFile string // CSV written by the generator
	OutputFile  string // CSV/JSONL written by the scraper
	ModelFile   string
	ReportFile  string

	// Generation.
	Records     int
	RowsPerPage int
	Seed        int64

	// Local scraping.
	ScrapeMode   string // sync or concurrent
	ScrapeSource string // local or remote
	Workers      int

	// Remote crawling.
	BaseURL          string
	MaxPages         int
	Parallelism      int
	Delay            time.Duration
	RandomDelay      time.Duration
	Timeout          time.Duration
	MaxRetries       int
	RetryBackoff     time.Duration
	RetryBackoffMax  time.Duration
	UserAgent        string
	RespectRobotsTxt bool

	// Pipeline.
	OutputFormat       string // csv, json, or dual
	PipelineBufferSize int
	BatchSize          int
	DedupeMaxSize      int

	// Training.
	Trees        int
	MaxDepth     int
	MinLeaf      int
	TestFraction float64

	// Serving.
	ListenAddr  string
	MetricsAddr string

	Verbose bool
}

// DefaultConfig returns the defaults used by the demo pipeline.
func DefaultConfig() *Config {
	return &Config{
		DataDir:     "data",
		PagesDir:    "data/pages",
		DatasetFile: "data/synthetic_books.csv",
		OutputFile:  "data/scraped_books.csv",
		ModelFile:   "models/price_model.json",
		ReportFile:  "models/model_performance.md",

		Records:     5000,
		RowsPerPage: 1000,
		Seed:        42,

		ScrapeMode:   "sync",
		ScrapeSource: "local",
		Workers:      8,

		BaseURL:          "https://books.toscrape.com",
		MaxPages:         50,
		Parallelism:      16,
		Delay:            0,
		RandomDelay:      0,
		Timeout:          10 * time.Second,
		MaxRetries:       2,
		RetryBackoff:     200 * time.Millisecond,
		RetryBackoffMax:  2 * time.Second,
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		RespectRobotsTxt: false,

		OutputFormat:       "csv",
		PipelineBufferSize: 512,
		BatchSize:          64,
		DedupeMaxSize:      100000,

		Trees:        200,
		MaxDepth:     12,
		MinLeaf:      2,
		TestFraction: 0.2,

		ListenAddr:  ":8080",
		MetricsAddr: "",

		Verbose: false,
	}
}

// LoadEnv pulls a .env file into the process environment if one exists.
// Missing files are not an error.
func LoadEnv() {
	_ = godotenv.Load()
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data dir cannot be empty")
	}
	if c.PagesDir == "" {
		return fmt.Errorf("pages dir cannot be empty")
	}
	if c.Records <= 0 {
		return fmt.Errorf("records must be positive")
	}
	if c.RowsPerPage <= 0 {
		return fmt.Errorf("rows per page must be positive")
	}
	if c.ScrapeMode != "sync" && c.ScrapeMode != "concurrent" {
		return fmt.Errorf("scrape mode must be sync or concurrent")
	}
	if c.ScrapeSource != "local" && c.ScrapeSource != "remote" {
		return fmt.Errorf("scrape source must be local or remote")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}

	if c.ScrapeSource == "remote" {
		if c.BaseURL == "" {
			return fmt.Errorf("base URL cannot be empty")
		}
		parsedURL, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base URL: %w", err)
		}
		if parsedURL.Host == "" {
			return fmt.Errorf("base URL must include a host")
		}
		if c.UserAgent == "" {
			return fmt.Errorf("user agent cannot be empty")
		}
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.RandomDelay < 0 {
		return fmt.Errorf("random delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}

	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}

	if c.Trees <= 0 {
		return fmt.Errorf("trees must be positive")
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max depth must be positive")
	}
	if c.MinLeaf <= 0 {
		return fmt.Errorf("min leaf must be positive")
	}
	if c.TestFraction < 0 || c.TestFraction >= 1 {
		return fmt.Errorf("test fraction must be in [0, 1)")
	}

	if c.ListenAddr == "" {
		return fmt.Errorf("listen addr cannot be empty")
	}

	return nil
}

// EnvString returns the value of an environment variable and whether it was set.
func EnvString(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses an integer environment variable.
func EnvInt(name string) (int, bool, error) {
	raw, ok := EnvString(name)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	return value, true, nil
}

// EnvInt64 parses a 64-bit integer environment variable.
func EnvInt64(name string) (int64, bool, error) {
	raw, ok := EnvString(name)
	if !ok {
		return 0, false, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	return value, true, nil
}
