package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agropulso-hq/agrofeed/internal/domain"
)

// Document is the static feed payload consumed by the frontend.
type Document struct {
	GeneratedAt string   `json:"generatedAt"`
	Sources     []string `json:"sources"`
	Items       []Item   `json:"items"`
}

// Item is one article record in the feed document. PublishedAt is an
// ISO-8601 string, or null when the source gave no parseable date.
type Item struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Title       string  `json:"title"`
	Teaser      string  `json:"teaser"`
	URL         string  `json:"url"`
	PublishedAt *string `json:"publishedAt"`
}

// Writer serializes the harvested articles to a JSON file.
type Writer struct {
	path   string
	pretty bool
}

// NewWriter builds a Writer targeting the given path.
func NewWriter(path string, pretty bool) *Writer {
	return &Writer{path: path, pretty: pretty}
}

// Write builds the feed document and writes it atomically (temp file
// plus rename) so readers never observe a partial feed.
func (w *Writer) Write(generatedAt time.Time, sourceNames []string, articles []domain.Article) error {
	doc := BuildDocument(generatedAt, sourceNames, articles)

	var (
		data []byte
		err  error
	)
	if w.pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("marshal feed document: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".feed-*.json")
	if err != nil {
		return fmt.Errorf("create temp feed file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp feed file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp feed file: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace feed file: %w", err)
	}
	return nil
}

// BuildDocument converts articles into the serializable feed document.
func BuildDocument(generatedAt time.Time, sourceNames []string, articles []domain.Article) Document {
	items := make([]Item, 0, len(articles))
	for _, art := range articles {
		items = append(items, Item{
			ID:          art.ID,
			Source:      art.SourceName,
			Title:       art.Title,
			Teaser:      art.Teaser,
			URL:         art.URL,
			PublishedAt: isoDate(art.PublishedAt),
		})
	}

	if sourceNames == nil {
		sourceNames = []string{}
	}

	return Document{
		GeneratedAt: generatedAt.UTC().Format(time.RFC3339),
		Sources:     sourceNames,
		Items:       items,
	}
}

// isoDate formats the time as ISO-8601, or nil for the zero time.
func isoDate(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
