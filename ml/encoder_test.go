package ml

import (
	"testing"

	"github.com/pricelab/go-book-pipeline/models"
)

func TestEncoderVocabularySorted(t *testing.T) {
	books := []*models.Book{
		{Category: "Mystery"},
		{Category: "Fantasy"},
		{Category: "Mystery"},
		{Category: "Biography"},
	}

	e := NewEncoder(books)
	want := []string{"Biography", "Fantasy", "Mystery"}
	if len(e.Categories) != len(want) {
		t.Fatalf("categories = %v, want %v", e.Categories, want)
	}
	for i := range want {
		if e.Categories[i] != want[i] {
			t.Fatalf("categories = %v, want %v", e.Categories, want)
		}
	}
	if got := e.NumFeatures(); got != 6 {
		t.Fatalf("num features = %d, want 6", got)
	}
}

func TestEncoderEncode(t *testing.T) {
	e := NewEncoder([]*models.Book{{Category: "Fantasy"}, {Category: "Mystery"}})

	v := e.Encode("Mystery", 4, 7, 12)
	want := []float64{0, 1, 4, 7, 12}
	if len(v) != len(want) {
		t.Fatalf("vector = %v, want %v", v, want)
	}
	for i := range want {
		if v[i] != want[i] {
			t.Fatalf("vector = %v, want %v", v, want)
		}
	}
}

func TestEncoderUnknownCategoryZeroBlock(t *testing.T) {
	e := NewEncoder([]*models.Book{{Category: "Fantasy"}, {Category: "Mystery"}})

	v := e.Encode("Horror", 3, 5, 10)
	if v[0] != 0 || v[1] != 0 {
		t.Fatalf("unknown category should encode as zeros, got %v", v)
	}
	if v[2] != 3 || v[3] != 5 || v[4] != 10 {
		t.Fatalf("numeric features corrupted: %v", v)
	}
}

func TestEncoderFeatureNames(t *testing.T) {
	e := NewEncoder([]*models.Book{{Category: "Fantasy"}})
	names := e.FeatureNames()
	want := []string{"category=Fantasy", "rating", "availability", "description_length"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestEncodeBookDerivesDescriptionLength(t *testing.T) {
	e := NewEncoder([]*models.Book{{Category: "Fantasy"}})
	b := &models.Book{Category: "Fantasy", Rating: 2, Availability: 9, Description: "three word tale"}

	v := e.EncodeBook(b)
	if v[len(v)-1] != 3 {
		t.Fatalf("description length feature = %v, want 3", v[len(v)-1])
	}
}
