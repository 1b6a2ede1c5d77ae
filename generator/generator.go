// Package generator produces the synthetic bookstore dataset and renders it
// into static catalogue pages for the scraping stages.
package generator

import (
	"fmt"
	"html/template"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/pricelab/go-book-pipeline/models"
)

var categories = []string{
	"Travel", "Mystery", "Historical Fiction", "Sequential Art", "Classics",
	"Philosophy", "Romance", "Womens Fiction", "Fiction", "Childrens",
	"Religion", "Nonfiction", "Music", "Default", "Science Fiction",
	"Sports and Games", "Fantasy", "New Adult", "Young Adult", "Science",
	"Poetry", "Paranormal", "Art", "Psychology", "Autobiography",
	"Parenting", "Adult Fiction", "Humor", "Horror", "History",
}

var titleAdjectives = []string{
	"Amazing", "Incredible", "Mysterious", "Fantastic", "Enchanting",
	"Thrilling", "Majestic", "Curious", "Serene", "Vivid", "Silent",
	"Forgotten", "Golden", "Hidden", "Ancient", "Brave", "Clever",
	"Whispering", "Radiant", "Shadowy",
}

var titleNouns = []string{
	"Journey", "Legacy", "Secret", "Chronicle", "Saga", "Quest", "Tale",
	"Legend", "Story", "Odyssey", "Mystery", "Adventure", "Dream", "Voice",
	"Whisper", "Echo", "Promise", "Empire", "Garden", "Sky",
}

// Categories returns the fixed category vocabulary used by the generator.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// Generator produces deterministic synthetic book records for a given seed.
type Generator struct {
	rng *rand.Rand
}

// New builds a generator seeded for reproducible output.
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Dataset generates n book records. Ratings are uniform in 1..5 and prices
// correlate with rating (rating*5 plus uniform noise in [5, 25)), so a
// trained model has real signal to find.
func (g *Generator) Dataset(n int) []*models.Book {
	books := make([]*models.Book, 0, n)
	for i := 0; i < n; i++ {
		rating := g.rng.Intn(5) + 1
		price := float64(rating*5) + 5 + g.rng.Float64()*20
		price = roundCents(price)

		books = append(books, &models.Book{
			ID:           i + 1,
			Title:        fmt.Sprintf("%s %s %d", g.pick(titleAdjectives), g.pick(titleNouns), i+1),
			Category:     g.pick(categories),
			Rating:       rating,
			Price:        price,
			Availability: g.rng.Intn(20) + 1,
			Description:  g.sentence(8, 20),
		})
	}
	return books
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}

// sentence builds a capitalized sentence of minWords..maxWords random
// lowercase words, each 3..10 letters long.
func (g *Generator) sentence(minWords, maxWords int) string {
	count := minWords + g.rng.Intn(maxWords-minWords+1)
	words := make([]string, count)
	for i := range words {
		words[i] = g.word(3 + g.rng.Intn(8))
	}
	s := strings.Join(words, " ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func (g *Generator) word(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		b.WriteByte(byte('a' + g.rng.Intn(26)))
	}
	return b.String()
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// pageTemplate mirrors the fixed markup contract the parser relies on: one
// table.table-striped per page, one tbody row per record, cells in column
// order.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Synthetic Books Page {{.Number}}</title>
</head>
<body>
    <h1>Synthetic Books Page {{.Number}}</h1>
    <div class="navigation">{{if .HasPrev}}<a href="page_{{.PrevNumber}}.html">Previous</a>{{end}}{{if and .HasPrev .HasNext}} | {{end}}{{if .HasNext}}<a href="page_{{.NextNumber}}.html">Next</a>{{end}}</div>
    <table border="0" class="table table-striped">
      <thead>
        <tr><th>id</th><th>title</th><th>category</th><th>rating</th><th>price</th><th>availability</th><th>description</th></tr>
      </thead>
      <tbody>
{{range .Books}}        <tr><td>{{.ID}}</td><td>{{.Title}}</td><td>{{.Category}}</td><td>{{.Rating}}</td><td>{{printf "%.2f" .Price}}</td><td>{{.Availability}}</td><td>{{.Description}}</td></tr>
{{end}}      </tbody>
    </table>
</body>
</html>
`))

type pageData struct {
	Number     int
	PrevNumber int
	NextNumber int
	HasPrev    bool
	HasNext    bool
	Books      []*models.Book
}

// WritePages splits books into fixed-size pages and renders one HTML file
// per page into dir. Returns the number of pages written.
func WritePages(dir string, books []*models.Book, rowsPerPage int) (int, error) {
	if rowsPerPage <= 0 {
		return 0, fmt.Errorf("rows per page must be positive")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create pages directory: %w", err)
	}

	numPages := (len(books) + rowsPerPage - 1) / rowsPerPage
	for page := 0; page < numPages; page++ {
		start := page * rowsPerPage
		end := start + rowsPerPage
		if end > len(books) {
			end = len(books)
		}

		data := pageData{
			Number:     page + 1,
			PrevNumber: page,
			NextNumber: page + 2,
			HasPrev:    page > 0,
			HasNext:    page < numPages-1,
			Books:      books[start:end],
		}

		path := filepath.Join(dir, fmt.Sprintf("page_%d.html", page+1))
		if err := writePage(path, data); err != nil {
			return 0, err
		}
	}
	return numPages, nil
}

func writePage(path string, data pageData) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create page file: %w", err)
	}
	if err := pageTemplate.Execute(f, data); err != nil {
		f.Close()
		return fmt.Errorf("render page %s: %w", path, err)
	}
	return f.Close()
}
