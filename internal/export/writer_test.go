package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agropulso-hq/agrofeed/internal/domain"
)

func TestWriteFeedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "public", "feed.json")
	w := NewWriter(path, false)

	published := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	articles := []domain.Article{
		{
			ID:          "abc",
			SourceName:  "Maquinac",
			Title:       "Venta de Tractores crece 20%",
			Teaser:      "El mercado repunta.",
			URL:         "https://www.maquinac.com/nota/1",
			PublishedAt: published,
		},
		{
			ID:         "def",
			SourceName: "Agroclave",
			Title:      "Sin fecha",
			URL:        "https://agroclave.com/n/2",
		},
	}

	generated := time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC)
	if err := w.Write(generated, []string{"Maquinac", "Agroclave"}, articles); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if doc.GeneratedAt != "2024-03-02T06:00:00Z" {
		t.Errorf("GeneratedAt = %q", doc.GeneratedAt)
	}
	if len(doc.Sources) != 2 || doc.Sources[0] != "Maquinac" {
		t.Errorf("Sources = %v", doc.Sources)
	}
	if len(doc.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(doc.Items))
	}

	if doc.Items[0].PublishedAt == nil || *doc.Items[0].PublishedAt != "2024-03-01T10:00:00Z" {
		t.Errorf("Items[0].PublishedAt = %v", doc.Items[0].PublishedAt)
	}
	if doc.Items[1].PublishedAt != nil {
		t.Errorf("dateless item must serialize publishedAt as null, got %v", *doc.Items[1].PublishedAt)
	}
	if doc.Items[0].Source != "Maquinac" {
		t.Errorf("Items[0].Source = %q", doc.Items[0].Source)
	}
}

func TestWriteReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	if err := os.WriteFile(path, []byte("old content"), 0o644); err != nil {
		t.Fatalf("seed old file: %v", err)
	}

	w := NewWriter(path, true)
	if err := w.Write(time.Now(), nil, nil); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("replaced file is not valid JSON: %v", err)
	}
	if doc.Items == nil || len(doc.Items) != 0 {
		t.Errorf("empty run must serialize an empty items list, got %v", doc.Items)
	}
	if doc.Sources == nil {
		t.Error("sources must serialize as an empty list, not null")
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the feed file in the dir, found %d entries", len(entries))
	}
}
