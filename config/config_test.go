package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "zero records",
			mutate: func(cfg *Config) {
				cfg.Records = 0
			},
			wantErr: "records",
		},
		{
			name: "zero rows per page",
			mutate: func(cfg *Config) {
				cfg.RowsPerPage = 0
			},
			wantErr: "rows per page",
		},
		{
			name: "unknown scrape mode",
			mutate: func(cfg *Config) {
				cfg.ScrapeMode = "parallel"
			},
			wantErr: "scrape mode",
		},
		{
			name: "unknown scrape source",
			mutate: func(cfg *Config) {
				cfg.ScrapeSource = "ftp"
			},
			wantErr: "scrape source",
		},
		{
			name: "negative workers",
			mutate: func(cfg *Config) {
				cfg.Workers = -1
			},
			wantErr: "workers",
		},
		{
			name: "empty base url for remote source",
			mutate: func(cfg *Config) {
				cfg.ScrapeSource = "remote"
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid base url format",
			mutate: func(cfg *Config) {
				cfg.ScrapeSource = "remote"
				cfg.BaseURL = "http://"
			},
			wantErr: "base URL",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "unknown output format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
		{
			name: "test fraction of one",
			mutate: func(cfg *Config) {
				cfg.TestFraction = 1.0
			},
			wantErr: "test fraction",
		},
		{
			name: "zero trees",
			mutate: func(cfg *Config) {
				cfg.Trees = 0
			},
			wantErr: "trees",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("BOOKPIPE_TEST_INT", "12")
	value, ok, err := EnvInt("BOOKPIPE_TEST_INT")
	if err != nil || !ok || value != 12 {
		t.Fatalf("EnvInt = (%d, %v, %v), want (12, true, nil)", value, ok, err)
	}

	t.Setenv("BOOKPIPE_TEST_INT", "twelve")
	if _, _, err := EnvInt("BOOKPIPE_TEST_INT"); err == nil {
		t.Fatalf("expected parse error for non-numeric value")
	}

	if _, ok, err := EnvInt("BOOKPIPE_TEST_INT_UNSET"); ok || err != nil {
		t.Fatalf("unset variable should report ok=false, err=nil")
	}
}
