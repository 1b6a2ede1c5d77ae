package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pricelab/go-book-pipeline/models"
	"github.com/pricelab/go-book-pipeline/parser"
)

var pageFilePattern = regexp.MustCompile(`page_(\d+)\.html$`)

// LocalScraper reconstructs the dataset from page documents on disk. It has
// no retry policy: the inputs are immutable local files, so a read either
// works or the run fails.
type LocalScraper struct {
	pagesDir string
	Metrics  *Metrics
}

// NewLocalScraper builds a scraper over the page documents in pagesDir.
func NewLocalScraper(pagesDir string) *LocalScraper {
	return &LocalScraper{
		pagesDir: pagesDir,
		Metrics:  NewMetrics(),
	}
}

// ScrapeSync parses every page document in page order, one at a time.
func (s *LocalScraper) ScrapeSync(ctx context.Context) (*models.ScrapeResult, error) {
	files, err := s.pageFiles()
	if err != nil {
		return nil, err
	}

	result := &models.ScrapeResult{StartTime: time.Now(), PageCount: len(files)}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		books, skipped, err := s.parseFile(path)
		if err != nil {
			return nil, err
		}
		result.Books = append(result.Books, books...)
		result.SkippedRows += skipped
	}
	result.EndTime = time.Now()
	return result, nil
}

// ScrapeConcurrent parses page documents with a bounded worker pool. Each
// worker owns one slot of an index-addressed result slice, so the flattened
// output preserves page order no matter which worker finishes first.
func (s *LocalScraper) ScrapeConcurrent(ctx context.Context, workers int) (*models.ScrapeResult, error) {
	files, err := s.pageFiles()
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}

	result := &models.ScrapeResult{StartTime: time.Now(), PageCount: len(files)}
	perPage := make([][]*models.Book, len(files))
	perPageSkipped := make([]int, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			books, skipped, err := s.parseFile(path)
			if err != nil {
				return err
			}
			perPage[i] = books
			perPageSkipped[i] = skipped
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range perPage {
		result.Books = append(result.Books, perPage[i]...)
		result.SkippedRows += perPageSkipped[i]
	}
	result.EndTime = time.Now()
	return result, nil
}

// pageFiles lists page documents sorted by page number. Lexical order would
// put page_10 before page_2, which breaks the ordering guarantee.
func (s *LocalScraper) pageFiles() ([]string, error) {
	if _, err := os.Stat(s.pagesDir); err != nil {
		return nil, fmt.Errorf("pages directory: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(s.pagesDir, "page_*.html"))
	if err != nil {
		return nil, fmt.Errorf("list page documents: %w", err)
	}

	type page struct {
		path   string
		number int
	}
	pages := make([]page, 0, len(matches))
	for _, path := range matches {
		m := pageFilePattern.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		pages = append(pages, page{path: path, number: number})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page documents in %s", s.pagesDir)
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].number < pages[j].number })

	files := make([]string, len(pages))
	for i, p := range pages {
		files[i] = p.path
	}
	return files, nil
}

func (s *LocalScraper) parseFile(path string) ([]*models.Book, int, error) {
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open page document: %w", err)
	}
	defer f.Close()

	books, skipped, err := parser.ParsePage(f)
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", path, err)
	}

	s.Metrics.IncPagesParsed()
	s.Metrics.AddRowsSkipped(skipped)
	s.Metrics.ObservePageParse(time.Since(start))
	for range books {
		s.Metrics.IncItems()
	}
	if skipped > 0 {
		slog.Warn("skipped malformed rows",
			slog.String("page", filepath.Base(path)),
			slog.Int("skipped", skipped),
		)
	}
	return books, skipped, nil
}
