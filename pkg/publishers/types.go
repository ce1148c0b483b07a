package publishers

import (
	"context"
	"time"

	"github.com/agropulso-hq/agrofeed/internal/domain"
)

// Event is the article announcement delivered to downstream publishers.
type Event struct {
	SourceID    string  `json:"source_id"`
	SourceName  string  `json:"source_name"`
	ArticleID   string  `json:"article_id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	PublishedAt *string `json:"published_at"`
}

// EventFromArticle converts a harvested article into an announcement event.
func EventFromArticle(art domain.Article) Event {
	evt := Event{
		SourceID:   art.SourceID,
		SourceName: art.SourceName,
		ArticleID:  art.ID,
		Title:      art.Title,
		URL:        art.URL,
	}
	if art.HasDate() {
		s := art.PublishedAt.UTC().Format(time.RFC3339)
		evt.PublishedAt = &s
	}
	return evt
}

// Publisher delivers announcement events to one configured sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Logger is the minimal logging surface publishers need.
type Logger interface {
	DebugObj(msg, eventType string, fields map[string]any)
	InfoObj(msg, eventType string, fields map[string]any)
	WarnObj(msg, eventType string, fields map[string]any)
	ErrorObj(msg, eventType string, fields map[string]any)
}

// nopLogger drops all entries.
type nopLogger struct{}

func (nopLogger) DebugObj(string, string, map[string]any) {}
func (nopLogger) InfoObj(string, string, map[string]any)  {}
func (nopLogger) WarnObj(string, string, map[string]any)  {}
func (nopLogger) ErrorObj(string, string, map[string]any) {}

// ensureLogger substitutes a no-op logger for nil.
func ensureLogger(log Logger) Logger {
	if log == nil {
		return nopLogger{}
	}
	return log
}
