package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/pricelab/go-book-pipeline/config"
	"github.com/pricelab/go-book-pipeline/models"
	"github.com/pricelab/go-book-pipeline/parser"
	"github.com/pricelab/go-book-pipeline/pipeline"
)

const partialBookKey = "book"

// RemoteScraper crawls a live bookstore catalogue. Listing pages yield
// partial records; a second collector follows each product link to fill in
// category and description before the record enters the pipeline.
type RemoteScraper struct {
	cfg     *config.Config
	listing *colly.Collector
	detail  *colly.Collector
	retry   *retryManager
	Metrics *Metrics

	requestCount int64
	pageCount    int64
	errorCount   int64

	mu           sync.Mutex
	failedURLs   []string
	errorsByType map[string]int

	handlersOnce sync.Once
}

// NewRemoteScraper builds a catalogue scraper configured from cfg.
func NewRemoteScraper(cfg *config.Config) (*RemoteScraper, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	listing := colly.NewCollector(
		colly.Async(true),
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
	)
	listing.SetRequestTimeout(cfg.Timeout)
	listing.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	listing.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	detail := listing.Clone()

	for _, c := range []*colly.Collector{listing, detail} {
		if err := c.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Parallelism: cfg.Parallelism,
			Delay:       cfg.Delay,
			RandomDelay: cfg.RandomDelay,
		}); err != nil {
			return nil, fmt.Errorf("configure rate limits: %w", err)
		}
	}

	s := &RemoteScraper{
		cfg:          cfg,
		listing:      listing,
		detail:       detail,
		errorsByType: make(map[string]int),
		Metrics:      NewMetrics(),
	}
	s.retry = newRetryManager(cfg, s.Metrics)
	return s, nil
}

// Run starts the crawl and streams completed records through the pipeline.
func (s *RemoteScraper) Run(ctx context.Context, p *pipeline.Pipeline) (*models.CrawlResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.retry.SetContext(ctx)
	s.configureHandlers(ctx, p)

	start := time.Now()
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			s.listing.Wait()
			s.detail.Wait()
			s.retry.Stop()
		case <-done:
		}
	}()

	if err := s.listing.Visit(s.cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("initial visit: %w", err)
	}

	s.listing.Wait()
	s.detail.Wait()
	s.retry.Stop()

	result := &models.CrawlResult{
		StartTime:    start,
		EndTime:      time.Now(),
		ErrorCount:   int(atomic.LoadInt64(&s.errorCount)),
		FailedURLs:   s.snapshotFailedURLs(),
		ErrorsByType: s.snapshotErrors(),
		RetryCount:   s.retry.TotalRetries(),
		RequestCount: int(atomic.LoadInt64(&s.requestCount)),
		PageCount:    int(atomic.LoadInt64(&s.pageCount)),
	}

	if metrics := p.GetMetrics(); metrics != nil {
		if processed, ok := metrics["processed_books"].(int64); ok {
			result.TotalCount = int(processed)
		}
	}

	return result, nil
}

func (s *RemoteScraper) configureHandlers(ctx context.Context, p *pipeline.Pipeline) {
	s.handlersOnce.Do(func() {
		s.instrument(s.listing, func(u string) error { return s.listing.Visit(u) })
		s.instrument(s.detail, nil)

		s.listing.OnHTML("article.product_pod", func(e *colly.HTMLElement) {
			partial := extractListing(e)
			if partial == nil {
				return
			}

			detailCtx := colly.NewContext()
			detailCtx.Put(partialBookKey, partial)
			if err := s.detail.Request(http.MethodGet, partial.URL, nil, detailCtx, nil); err != nil {
				slog.Debug("detail request failed", slog.String("url", partial.URL), slog.Any("error", err))
			}
		})

		s.listing.OnHTML("li.next a", func(e *colly.HTMLElement) {
			currentPage := atomic.AddInt64(&s.pageCount, 1)
			if currentPage >= int64(s.cfg.MaxPages) {
				return
			}
			if ctx.Err() != nil {
				return
			}
			link := e.Attr("href")
			abs := e.Request.AbsoluteURL(link)
			s.listing.Visit(abs)
		})

		s.detail.OnHTML("ul.breadcrumb", func(e *colly.HTMLElement) {
			book := partialFromContext(e.Request.Ctx)
			if book == nil {
				return
			}
			// Breadcrumb reads Home > Books > Category > Title.
			category := strings.TrimSpace(e.DOM.Find("li:nth-child(3) a").Text())
			if category != "" {
				book.Category = category
			}
		})

		s.detail.OnHTML("#product_description + p", func(e *colly.HTMLElement) {
			book := partialFromContext(e.Request.Ctx)
			if book == nil {
				return
			}
			book.Description = strings.TrimSpace(e.Text)
		})

		s.detail.OnScraped(func(r *colly.Response) {
			book := partialFromContext(r.Ctx)
			if book == nil {
				return
			}
			if book.Category == "" {
				book.Category = "Default"
			}
			s.Metrics.IncItems()
			if err := p.Process(book); err != nil && !errors.Is(err, pipeline.ErrPipelineClosed) {
				slog.Error("pipeline process error", slog.Any("error", err))
			}
		})
	})
}

// instrument attaches the shared request/response/error handlers to a
// collector. revisit is the retry callback; nil disables retries for the
// collector (detail-page retries would lose their partial record context,
// so those requests carry their own revisit closure).
func (s *RemoteScraper) instrument(c *colly.Collector, revisit func(string) error) {
	c.OnRequest(func(r *colly.Request) {
		r.Ctx.Put("start", time.Now())
		current := atomic.AddInt64(&s.requestCount, 1)
		s.Metrics.IncRequest("started")
		if current%50 == 0 {
			slog.Debug("scraper request progress",
				slog.Int64("requests", current),
				slog.Int64("pages", atomic.LoadInt64(&s.pageCount)),
				slog.String("url", r.URL.String()),
			)
		}
	})

	c.OnResponse(func(r *colly.Response) {
		if r.StatusCode >= http.StatusBadRequest {
			slog.Error("non-200 response",
				slog.Int("status", r.StatusCode),
				slog.String("url", r.Request.URL.String()),
			)
		}
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			s.Metrics.ObserveDuration(time.Since(start))
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		atomic.AddInt64(&s.errorCount, 1)
		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
		}
		classified := classifyError(err, statusCode)
		category := errorTypeLabel(classified)

		s.mu.Lock()
		s.errorsByType[category]++
		s.mu.Unlock()

		failedURL := ""
		if r != nil && r.Request != nil && r.Request.URL != nil {
			failedURL = r.Request.URL.String()
		}
		slog.Error("request error",
			slog.String("url", failedURL),
			slog.String("category", category),
			slog.Any("error", err),
		)
		s.Metrics.IncError(category)

		visit := revisit
		if visit == nil && r != nil && r.Request != nil {
			requestCtx := r.Request.Ctx
			visit = func(u string) error {
				return s.detail.Request(http.MethodGet, u, nil, requestCtx, nil)
			}
		}

		if visit == nil || !s.retry.Schedule(failedURL, visit) {
			s.mu.Lock()
			s.failedURLs = append(s.failedURLs, failedURL)
			s.mu.Unlock()
		}
	})
}

func partialFromContext(ctx *colly.Context) *models.Book {
	if ctx == nil {
		return nil
	}
	book, _ := ctx.GetAny(partialBookKey).(*models.Book)
	return book
}

// extractListing pulls the fields available on a catalogue listing entry.
func extractListing(e *colly.HTMLElement) *models.Book {
	title := strings.TrimSpace(e.ChildAttr("h3 a", "title"))
	if title == "" {
		title = strings.TrimSpace(e.ChildText("h3 a"))
	}
	if title == "" {
		return nil
	}

	href := e.ChildAttr("h3 a", "href")
	if href == "" {
		return nil
	}
	bookURL := e.Request.AbsoluteURL(href)

	price, err := parser.ParsePrice(e.ChildText("p.price_color"))
	if err != nil {
		return nil
	}

	ratingClass := e.ChildAttr("p.star-rating", "class")
	rating := 0
	if parts := strings.Fields(ratingClass); len(parts) > 1 {
		rating = parser.RatingToNumeric(parts[1])
	}

	availabilityText := strings.TrimSpace(e.ChildText("p.instock.availability"))
	if availabilityText == "" {
		availabilityText = strings.TrimSpace(e.ChildText("p.availability"))
	}

	return &models.Book{
		Title:        title,
		Rating:       rating,
		Price:        price,
		Availability: parser.ParseAvailability(availabilityText),
		URL:          bookURL,
	}
}

func (s *RemoteScraper) snapshotFailedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.failedURLs))
	copy(out, s.failedURLs)
	return out
}

func (s *RemoteScraper) snapshotErrors() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return out
}

type retryManager struct {
	cfg     *config.Config
	metrics *Metrics
	ctx     context.Context

	mu           sync.Mutex
	attempts     map[string]int
	timers       map[string]*time.Timer
	totalRetries int
	stopped      bool
}

func newRetryManager(cfg *config.Config, metrics *Metrics) *retryManager {
	return &retryManager{
		cfg:      cfg,
		attempts: make(map[string]int),
		timers:   make(map[string]*time.Timer),
		metrics:  metrics,
		ctx:      context.Background(),
	}
}

// Schedule arms a backoff timer that re-issues the request through visit.
// Returns false once the URL has exhausted its retry budget.
func (rm *retryManager) Schedule(url string, visit func(string) error) bool {
	if rm.cfg.MaxRetries == 0 || url == "" {
		return false
	}

	if rm.ctx != nil {
		select {
		case <-rm.ctx.Done():
			return false
		default:
		}
	}

	rm.mu.Lock()

	if rm.stopped {
		rm.mu.Unlock()
		return false
	}
	if rm.ctx != nil && rm.ctx.Err() != nil {
		rm.mu.Unlock()
		return false
	}

	attempt := rm.attempts[url]
	if attempt >= rm.cfg.MaxRetries {
		rm.mu.Unlock()
		return false
	}

	attempt++
	rm.attempts[url] = attempt
	rm.totalRetries++
	rm.metrics.IncRetries()

	delay := rm.backoff(attempt)
	rm.resetTimerLocked(url)
	rm.timers[url] = time.AfterFunc(delay, func() {
		rm.fireRetry(url, visit)
	})
	rm.mu.Unlock()
	return true
}

func (rm *retryManager) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := rm.cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := rm.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

func (rm *retryManager) resetTimerLocked(url string) {
	if timer, ok := rm.timers[url]; ok {
		timer.Stop()
		delete(rm.timers, url)
	}
}

func (rm *retryManager) fireRetry(url string, visit func(string) error) {
	rm.mu.Lock()
	if rm.stopped {
		rm.mu.Unlock()
		return
	}
	ctx := rm.ctx
	rm.mu.Unlock()

	if ctx != nil && ctx.Err() != nil {
		return
	}
	if err := visit(url); err != nil {
		slog.Debug("retry visit failed", slog.String("url", url), slog.Any("error", err))
	}

	rm.mu.Lock()
	delete(rm.timers, url)
	rm.mu.Unlock()
}

func (rm *retryManager) Stop() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.stopped {
		return
	}

	rm.stopped = true
	for url, timer := range rm.timers {
		timer.Stop()
		delete(rm.timers, url)
	}
}

func (rm *retryManager) TotalRetries() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.totalRetries
}

func (rm *retryManager) SetContext(ctx context.Context) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if ctx == nil {
		rm.ctx = context.Background()
		return
	}
	rm.ctx = ctx
}
