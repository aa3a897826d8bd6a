package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/openclaw/qrstudio/qr"
)

func openTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	s, err := NewHistoryStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return s
}

func testGeneration(text string, createdAt int64) *Generation {
	opts := qr.DefaultOptions()
	opts.Text = text
	g := NewGeneration(opts, &qr.Image{Format: qr.FormatPNG, Data: []byte("png"), Width: 240, Modules: 21})
	g.CreatedAt = createdAt
	return g
}

func TestSaveAndGetGeneration(t *testing.T) {
	s := openTestStore(t)
	g := testGeneration("https://example.com", 100)

	if err := s.SaveGeneration(g); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Duplicate ids are ignored.
	if err := s.SaveGeneration(g); err != nil {
		t.Fatalf("save duplicate: %v", err)
	}

	got, err := s.GetGeneration(g.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *got != *g {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *got, *g)
	}
	if got.Options().Text != "https://example.com" || got.Options().Format != qr.FormatPNG {
		t.Errorf("unexpected options %+v", got.Options())
	}

	if _, err := s.GetGeneration("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentGenerations(t *testing.T) {
	s := openTestStore(t)
	for i, text := range []string{"first", "second", "third"} {
		if err := s.SaveGeneration(testGeneration(text, int64(i+1))); err != nil {
			t.Fatalf("save %s: %v", text, err)
		}
	}

	gens, err := s.RecentGenerations(2, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(gens) != 2 || gens[0].Text != "third" || gens[1].Text != "second" {
		t.Fatalf("unexpected page %+v", gens)
	}

	gens, err = s.RecentGenerations(2, 2)
	if err != nil {
		t.Fatalf("recent offset: %v", err)
	}
	if len(gens) != 1 || gens[0].Text != "first" {
		t.Fatalf("unexpected second page %+v", gens)
	}
}

func TestSearchGenerations(t *testing.T) {
	s := openTestStore(t)
	for i, text := range []string{"hello world", "goodbye moon", `say "hello" again`} {
		if err := s.SaveGeneration(testGeneration(text, int64(i))); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	gens, err := s.SearchGenerations("hello", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(gens) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(gens))
	}

	gens, err = s.SearchGenerations(`"moon`, 10)
	if err != nil {
		t.Fatalf("search with quote: %v", err)
	}
	if len(gens) != 1 || gens[0].Text != "goodbye moon" {
		t.Errorf("expected the stray quote to be escaped, got %+v", gens)
	}
}
