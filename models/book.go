// Package models defines data structures shared across the pipeline stages.
package models

import (
	"strconv"
	"time"
)

// Book is one record of the synthetic bookstore dataset. The same struct
// flows through generation, scraping, training, and serving.
type Book struct {
	ID           int     `csv:"id" json:"id"`
	Title        string  `csv:"title" json:"title"`
	Category     string  `csv:"category" json:"category"`
	Rating       int     `csv:"rating" json:"rating"`
	Price        float64 `csv:"price" json:"price"`
	Availability int     `csv:"availability" json:"availability"`
	Description  string  `csv:"description" json:"description"`

	// URL is only set by the remote catalogue scraper.
	URL string `csv:"url" json:"url,omitempty"`
}

// Key identifies a book for de-duplication. Remote records are keyed by
// their catalogue URL, locally scraped records by their row id.
func (b *Book) Key() string {
	if b.URL != "" {
		return b.URL
	}
	return "id:" + strconv.Itoa(b.ID)
}

// ScrapeResult summarises one scraping run over local page documents.
type ScrapeResult struct {
	Books       []*Book
	PageCount   int
	SkippedRows int
	StartTime   time.Time
	EndTime     time.Time
}

// CrawlResult summarises one remote catalogue crawl.
type CrawlResult struct {
	StartTime    time.Time
	EndTime      time.Time
	TotalCount   int
	ErrorCount   int
	FailedURLs   []string
	ErrorsByType map[string]int
	RetryCount   int
	RequestCount int
	PageCount    int
}
