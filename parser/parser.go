// Package parser extracts book records from page documents and normalizes
// scraped field values.
package parser

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pricelab/go-book-pipeline/models"
)

// ErrNoTable is returned when a page document has no recognizable record table.
var ErrNoTable = errors.New("parser: page has no record table")

// columnCount is the number of cells per record row in a page document.
const columnCount = 7

// ParsePage extracts every book row from a page document. Rows with missing
// cells or non-numeric values in numeric cells are skipped and counted
// rather than failing the whole page; a page without a table at all is an
// error since that means the markup contract is broken.
func ParsePage(r io.Reader) ([]*models.Book, int, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("parse html: %w", err)
	}

	table := doc.Find("table.table")
	if table.Length() == 0 {
		return nil, 0, ErrNoTable
	}

	var books []*models.Book
	skipped := 0
	table.First().Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		book, ok := parseRow(row)
		if !ok {
			skipped++
			return
		}
		books = append(books, book)
	})

	return books, skipped, nil
}

func parseRow(row *goquery.Selection) (*models.Book, bool) {
	cells := row.Find("td")
	if cells.Length() != columnCount {
		return nil, false
	}

	text := make([]string, columnCount)
	cells.Each(func(i int, cell *goquery.Selection) {
		text[i] = strings.TrimSpace(cell.Text())
	})

	id, err := strconv.Atoi(text[0])
	if err != nil {
		return nil, false
	}
	rating, err := strconv.Atoi(text[3])
	if err != nil {
		return nil, false
	}
	price, err := ParsePrice(text[4])
	if err != nil {
		return nil, false
	}
	availability, err := strconv.Atoi(text[5])
	if err != nil {
		return nil, false
	}

	return &models.Book{
		ID:           id,
		Title:        text[1],
		Category:     text[2],
		Rating:       rating,
		Price:        price,
		Availability: availability,
		Description:  text[6],
	}, true
}

// ValidateBook ensures a scraped record carries the fields training needs.
func ValidateBook(b *models.Book) error {
	if b == nil {
		return fmt.Errorf("book is nil")
	}
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("book missing title")
	}
	if strings.TrimSpace(b.Category) == "" {
		return fmt.Errorf("book missing category for %s", b.Title)
	}
	if b.Rating < 0 || b.Rating > 5 {
		return fmt.Errorf("book rating %d out of range for %s", b.Rating, b.Title)
	}
	if b.Price <= 0 {
		return fmt.Errorf("book missing price for %s", b.Title)
	}
	return nil
}

// ParsePrice strips currency symbols and whitespace and parses the rest as
// a decimal price.
func ParsePrice(price string) (float64, error) {
	cleaned := strings.TrimSpace(price)
	for _, symbol := range []string{"Â£", "£", "$", "€"} {
		cleaned = strings.ReplaceAll(cleaned, symbol, "")
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("empty price")
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", price, err)
	}
	return value, nil
}

// RatingToNumeric converts the catalogue's textual rating to 0..5.
func RatingToNumeric(rating string) int {
	switch strings.TrimSpace(rating) {
	case "Zero":
		return 0
	case "One":
		return 1
	case "Two":
		return 2
	case "Three":
		return 3
	case "Four":
		return 4
	case "Five":
		return 5
	default:
		return 0
	}
}

var availabilityCount = regexp.MustCompile(`(\d+)`)

// ParseAvailability extracts the stock count from availability text such as
// "In stock (22 available)". Text without a count means in stock with an
// unknown quantity, reported as 1.
func ParseAvailability(text string) int {
	match := availabilityCount.FindStringSubmatch(text)
	if match == nil {
		return 1
	}
	count, err := strconv.Atoi(match[1])
	if err != nil || count < 1 {
		return 1
	}
	return count
}

// WordCount reports the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
