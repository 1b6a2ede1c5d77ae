package scraper

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pricelab/go-book-pipeline/config"
	"github.com/pricelab/go-book-pipeline/dataset"
	"github.com/pricelab/go-book-pipeline/generator"
	"github.com/pricelab/go-book-pipeline/pipeline"
)

func writeTestPages(t *testing.T, records, rowsPerPage int) string {
	t.Helper()
	dir := t.TempDir()
	books := generator.New(42).Dataset(records)
	if _, err := generator.WritePages(dir, books, rowsPerPage); err != nil {
		t.Fatalf("write pages: %v", err)
	}
	return dir
}

func TestLocalScraperSync(t *testing.T) {
	dir := writeTestPages(t, 45, 10)

	result, err := NewLocalScraper(dir).ScrapeSync(context.Background())
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(result.Books) != 45 {
		t.Fatalf("books = %d, want 45", len(result.Books))
	}
	if result.PageCount != 5 {
		t.Fatalf("pages = %d, want 5", result.PageCount)
	}
	if result.SkippedRows != 0 {
		t.Fatalf("skipped = %d, want 0", result.SkippedRows)
	}
	for i, b := range result.Books {
		if b.ID != i+1 {
			t.Fatalf("book %d has id %d, want %d", i, b.ID, i+1)
		}
	}
}

func TestLocalScraperConcurrentMatchesSync(t *testing.T) {
	dir := writeTestPages(t, 120, 7)

	s := NewLocalScraper(dir)
	sync, err := s.ScrapeSync(context.Background())
	if err != nil {
		t.Fatalf("sync scrape: %v", err)
	}
	conc, err := NewLocalScraper(dir).ScrapeConcurrent(context.Background(), 8)
	if err != nil {
		t.Fatalf("concurrent scrape: %v", err)
	}

	if len(sync.Books) != len(conc.Books) {
		t.Fatalf("row counts differ: sync=%d concurrent=%d", len(sync.Books), len(conc.Books))
	}
	for i := range sync.Books {
		if *sync.Books[i] != *conc.Books[i] {
			t.Fatalf("row %d differs: sync=%+v concurrent=%+v", i, sync.Books[i], conc.Books[i])
		}
	}
}

func TestLocalScraperPageOrderIsNumeric(t *testing.T) {
	dir := writeTestPages(t, 110, 10)

	result, err := NewLocalScraper(dir).ScrapeConcurrent(context.Background(), 4)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if result.PageCount != 11 {
		t.Fatalf("pages = %d, want 11", result.PageCount)
	}
	// page_10 and page_11 sort after page_2 numerically, not lexically.
	for i, b := range result.Books {
		if b.ID != i+1 {
			t.Fatalf("book %d has id %d, want %d", i, b.ID, i+1)
		}
	}
}

// The CSV a local scrape persists must keep page order end to end, not
// just the in-memory slice: a single pipeline worker writes the batches,
// so the file on disk reads back in the same order the pages were parsed.
func TestLocalScrapeWrittenCSVPreservesPageOrder(t *testing.T) {
	dir := writeTestPages(t, 150, 20)

	result, err := NewLocalScraper(dir).ScrapeConcurrent(context.Background(), 4)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}

	out := filepath.Join(t.TempDir(), "books.csv")
	writer, err := pipeline.NewCSVWriter(out)
	if err != nil {
		t.Fatalf("create writer: %v", err)
	}

	p := pipeline.NewPipeline(context.Background(), writer, config.DefaultConfig())
	p.Start(1)
	if err := p.Process(result.Books...); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close pipeline: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	loaded, err := dataset.Load(out)
	if err != nil {
		t.Fatalf("load csv: %v", err)
	}
	if len(loaded) != 150 {
		t.Fatalf("rows = %d, want 150", len(loaded))
	}
	for i, b := range loaded {
		if b.ID != i+1 {
			t.Fatalf("csv row %d has id %d, want %d", i, b.ID, i+1)
		}
	}
}

func TestLocalScraperCountsSkippedRows(t *testing.T) {
	dir := t.TempDir()
	page := `<html><body>
<table border="0" class="table table-striped">
<thead><tr><th>id</th><th>title</th><th>category</th><th>rating</th><th>price</th><th>availability</th><th>description</th></tr></thead>
<tbody>
<tr><td>1</td><td>Good Book</td><td>Fiction</td><td>3</td><td>20.00</td><td>5</td><td>Fine.</td></tr>
<tr><td>2</td><td>Short Row</td><td>Fiction</td></tr>
</tbody>
</table>
</body></html>`
	if err := os.WriteFile(filepath.Join(dir, "page_1.html"), []byte(page), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	result, err := NewLocalScraper(dir).ScrapeSync(context.Background())
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(result.Books) != 1 {
		t.Fatalf("books = %d, want 1", len(result.Books))
	}
	if result.SkippedRows != 1 {
		t.Fatalf("skipped = %d, want 1", result.SkippedRows)
	}
}

func TestLocalScraperMissingDirectory(t *testing.T) {
	s := NewLocalScraper(filepath.Join(t.TempDir(), "absent"))
	if _, err := s.ScrapeSync(context.Background()); err == nil {
		t.Fatalf("expected error for missing pages directory")
	}
}

func TestLocalScraperEmptyDirectory(t *testing.T) {
	s := NewLocalScraper(t.TempDir())
	if _, err := s.ScrapeSync(context.Background()); err == nil {
		t.Fatalf("expected error for directory without page documents")
	}
}

func TestLocalScraperCancelledContext(t *testing.T) {
	dir := writeTestPages(t, 20, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewLocalScraper(dir).ScrapeSync(ctx); err == nil {
		t.Fatalf("expected context error from sync scrape")
	}
	if _, err := NewLocalScraper(dir).ScrapeConcurrent(ctx, 4); err == nil {
		t.Fatalf("expected context error from concurrent scrape")
	}
}
