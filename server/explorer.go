package server

import (
	"net/http"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pricelab/go-book-pipeline/models"
)

const explorerSampleSize = 20

type categoryCount struct {
	Name  string
	Count int
}

type dataPageData struct {
	Total      int
	MinPrice   float64
	MaxPrice   float64
	MeanPrice  float64
	Categories []categoryCount
	Sample     []*models.Book
}

// handleData renders a summary of the loaded dataset: size, price spread,
// category breakdown and a sample of rows.
// GET /data
func (s *Server) handleData(w http.ResponseWriter, _ *http.Request) {
	if len(s.books) == 0 {
		http.Error(w, "no dataset loaded; start the server with -data", http.StatusNotFound)
		return
	}

	prices := make([]float64, len(s.books))
	byCategory := make(map[string]int)
	minPrice, maxPrice := s.books[0].Price, s.books[0].Price
	for i, b := range s.books {
		prices[i] = b.Price
		byCategory[b.Category]++
		if b.Price < minPrice {
			minPrice = b.Price
		}
		if b.Price > maxPrice {
			maxPrice = b.Price
		}
	}

	categories := make([]categoryCount, 0, len(byCategory))
	for name, count := range byCategory {
		categories = append(categories, categoryCount{Name: name, Count: count})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Count != categories[j].Count {
			return categories[i].Count > categories[j].Count
		}
		return categories[i].Name < categories[j].Name
	})

	sample := s.books
	if len(sample) > explorerSampleSize {
		sample = sample[:explorerSampleSize]
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := dataPageData{
		Total:      len(s.books),
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		MeanPrice:  stat.Mean(prices, nil),
		Categories: categories,
		Sample:     sample,
	}
	if err := s.tmpl.ExecuteTemplate(w, "data.html", data); err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}
