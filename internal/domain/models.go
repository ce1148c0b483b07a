package domain

import "time"

// Domain contains core models shared by the harvest pipeline.

// Article is a single harvested news item. ID is the sha1 hex digest of
// the resolved absolute URL; two items with the same ID are the same
// article.
type Article struct {
	ID          string
	SourceID    string
	SourceName  string
	Title       string
	Teaser      string
	URL         string
	PublishedAt time.Time // zero when the source gave no parseable date
}

// HasDate reports whether the article carries a parseable publication date.
func (a Article) HasDate() bool {
	return !a.PublishedAt.IsZero()
}
