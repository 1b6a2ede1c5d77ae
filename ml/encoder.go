// Package ml trains and serves a bagged regression forest that predicts
// book prices from catalogue attributes.
package ml

import (
	"sort"

	"github.com/pricelab/go-book-pipeline/models"
	"github.com/pricelab/go-book-pipeline/parser"
)

// Encoder maps a book's attributes onto a flat feature vector: one-hot
// category indicators followed by rating, availability and description
// length. The category vocabulary is fixed when the encoder is fitted;
// unseen categories encode as an all-zero indicator block.
type Encoder struct {
	Categories []string `json:"categories"`
}

// NewEncoder fits an encoder on the training records. The vocabulary is
// sorted so identically distributed inputs always produce the same layout.
func NewEncoder(books []*models.Book) *Encoder {
	seen := make(map[string]bool)
	for _, b := range books {
		if b.Category != "" {
			seen[b.Category] = true
		}
	}
	categories := make([]string, 0, len(seen))
	for c := range seen {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return &Encoder{Categories: categories}
}

// NumFeatures reports the width of the encoded vector.
func (e *Encoder) NumFeatures() int {
	return len(e.Categories) + 3
}

// FeatureNames lists the encoded columns in vector order.
func (e *Encoder) FeatureNames() []string {
	names := make([]string, 0, e.NumFeatures())
	for _, c := range e.Categories {
		names = append(names, "category="+c)
	}
	return append(names, "rating", "availability", "description_length")
}

// Encode builds the feature vector for one observation.
func (e *Encoder) Encode(category string, rating, availability, descriptionWords int) []float64 {
	features := make([]float64, e.NumFeatures())
	if i := sort.SearchStrings(e.Categories, category); i < len(e.Categories) && e.Categories[i] == category {
		features[i] = 1
	}
	base := len(e.Categories)
	features[base] = float64(rating)
	features[base+1] = float64(availability)
	features[base+2] = float64(descriptionWords)
	return features
}

// EncodeBook encodes a stored record, deriving description length on the fly.
func (e *Encoder) EncodeBook(b *models.Book) []float64 {
	return e.Encode(b.Category, b.Rating, b.Availability, parser.WordCount(b.Description))
}
