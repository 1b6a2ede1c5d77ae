package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraping stages.
type Metrics struct {
	Registry          *prometheus.Registry
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	ItemsScrapedTotal prometheus.Counter
	RetriesTotal      prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
	PagesParsedTotal  prometheus.Counter
	RowsSkippedTotal  prometheus.Counter
	PageParseDuration prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total HTTP requests issued by the remote scraper.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "HTTP request latency for remote scraper requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	itemsScraped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_items_scraped_total",
			Help: "Total number of records extracted.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_retries_total",
			Help: "Total number of retry attempts scheduled.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)
	pagesParsed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_pages_parsed_total",
			Help: "Total number of local page documents parsed.",
		},
	)
	rowsSkipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_rows_skipped_total",
			Help: "Total number of malformed rows skipped during parsing.",
		},
	)
	pageParseDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_page_parse_duration_seconds",
			Help:    "Time spent reading and parsing one page document.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(requests, requestDuration, itemsScraped, retries, errorsTotal, pagesParsed, rowsSkipped, pageParseDuration)

	return &Metrics{
		Registry:          registry,
		RequestsTotal:     requests,
		RequestDuration:   requestDuration,
		ItemsScrapedTotal: itemsScraped,
		RetriesTotal:      retries,
		ErrorsTotal:       errorsTotal,
		PagesParsedTotal:  pagesParsed,
		RowsSkippedTotal:  rowsSkipped,
		PageParseDuration: pageParseDuration,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncItems increments the items scraped counter.
func (m *Metrics) IncItems() {
	if m == nil {
		return
	}
	m.ItemsScrapedTotal.Inc()
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncPagesParsed increments the local pages parsed counter.
func (m *Metrics) IncPagesParsed() {
	if m == nil {
		return
	}
	m.PagesParsedTotal.Inc()
}

// AddRowsSkipped adds to the skipped rows counter.
func (m *Metrics) AddRowsSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsSkippedTotal.Add(float64(n))
}

// ObservePageParse records the time taken to parse one page document.
func (m *Metrics) ObservePageParse(d time.Duration) {
	if m == nil {
		return
	}
	m.PageParseDuration.Observe(d.Seconds())
}
