package generator

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestDatasetDeterministic(t *testing.T) {
	a := New(42).Dataset(200)
	b := New(42).Dataset(200)

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if *a[i] != *b[i] {
			t.Fatalf("record %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}

	c := New(43).Dataset(200)
	same := true
	for i := range a {
		if *a[i] != *c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different seeds should produce different datasets")
	}
}

func TestDatasetBounds(t *testing.T) {
	books := New(7).Dataset(500)
	if len(books) != 500 {
		t.Fatalf("records = %d, want 500", len(books))
	}
	for _, b := range books {
		if b.Rating < 1 || b.Rating > 5 {
			t.Fatalf("rating %d out of range for %q", b.Rating, b.Title)
		}
		if b.Availability < 1 || b.Availability > 20 {
			t.Fatalf("availability %d out of range for %q", b.Availability, b.Title)
		}
		min := float64(b.Rating*5) + 5
		max := float64(b.Rating*5) + 25
		if b.Price < min || b.Price > max {
			t.Fatalf("price %.2f outside [%.2f, %.2f] for rating %d", b.Price, min, max, b.Rating)
		}
		if b.Category == "" || b.Title == "" || b.Description == "" {
			t.Fatalf("empty text field in %+v", b)
		}
	}
}

func TestWritePages(t *testing.T) {
	dir := t.TempDir()
	books := New(1).Dataset(25)

	pages, err := WritePages(dir, books, 10)
	if err != nil {
		t.Fatalf("write pages: %v", err)
	}
	if pages != 3 {
		t.Fatalf("pages = %d, want 3", pages)
	}

	for _, name := range []string{"page_1.html", "page_2.html", "page_3.html"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}

func TestWritePagesDeterministic(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	if _, err := WritePages(dirA, New(42).Dataset(30), 10); err != nil {
		t.Fatalf("write pages: %v", err)
	}
	if _, err := WritePages(dirB, New(42).Dataset(30), 10); err != nil {
		t.Fatalf("write pages: %v", err)
	}

	for _, name := range []string{"page_1.html", "page_2.html", "page_3.html"} {
		a, err := os.ReadFile(filepath.Join(dirA, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		b, err := os.ReadFile(filepath.Join(dirB, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !bytes.Equal(a, b) {
			t.Fatalf("%s differs between identically seeded runs", name)
		}
	}
}
