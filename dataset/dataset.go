// Package dataset persists book records as delimited text files and
// prepares train/test partitions for the model trainer.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pricelab/go-book-pipeline/models"
)

// Columns is the canonical column schema of a book dataset. Extra columns
// (such as the remote scraper's url column) are tolerated on load; missing
// ones are fatal.
var Columns = []string{"id", "title", "category", "rating", "price", "availability", "description"}

// SchemaError reports a dataset whose header does not satisfy the schema.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset: missing required column %q", e.Column)
}

// Save writes books to path using the canonical column schema.
func Save(path string, books []*models.Book) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return fmt.Errorf("write dataset header: %w", err)
	}
	for _, b := range books {
		record := []string{
			strconv.Itoa(b.ID),
			b.Title,
			b.Category,
			strconv.Itoa(b.Rating),
			strconv.FormatFloat(b.Price, 'f', 2, 64),
			strconv.Itoa(b.Availability),
			b.Description,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write dataset record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush dataset: %w", err)
	}
	return nil
}

// Load reads a book dataset from path. The header is validated before any
// row is parsed: every canonical column must be present, in any position.
// A numeric cell that fails to parse is fatal; the trainer must never see a
// silently corrupted table.
func Load(path string) ([]*models.Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range Columns {
		if _, ok := index[name]; !ok {
			return nil, &SchemaError{Column: name}
		}
	}

	var books []*models.Book
	line := 1
	for {
		record, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read dataset row %d: %w", line, err)
		}
		line++

		book, err := rowToBook(record, index)
		if err != nil {
			return nil, fmt.Errorf("dataset row %d: %w", line, err)
		}
		books = append(books, book)
	}
	return books, nil
}

func rowToBook(record []string, index map[string]int) (*models.Book, error) {
	cell := func(name string) string {
		i := index[name]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	id, err := strconv.Atoi(cell("id"))
	if err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", cell("id"), err)
	}
	rating, err := strconv.Atoi(cell("rating"))
	if err != nil {
		return nil, fmt.Errorf("invalid rating %q: %w", cell("rating"), err)
	}
	price, err := strconv.ParseFloat(cell("price"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", cell("price"), err)
	}
	availability, err := strconv.Atoi(cell("availability"))
	if err != nil {
		return nil, fmt.Errorf("invalid availability %q: %w", cell("availability"), err)
	}

	book := &models.Book{
		ID:           id,
		Title:        cell("title"),
		Category:     cell("category"),
		Rating:       rating,
		Price:        price,
		Availability: availability,
		Description:  cell("description"),
	}
	if i, ok := index["url"]; ok && i < len(record) {
		book.URL = record[i]
	}
	return book, nil
}

// Split shuffles a copy of books with the given seed and carves off a test
// partition of the requested fraction. A fraction that rounds to zero rows
// yields an empty test partition; the caller decides how to evaluate then.
func Split(books []*models.Book, testFraction float64, seed int64) (train, test []*models.Book) {
	shuffled := make([]*models.Book, len(books))
	copy(shuffled, books)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nTest := int(float64(len(shuffled)) * testFraction)
	return shuffled[nTest:], shuffled[:nTest]
}
