package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/agropulso-hq/agrofeed/internal/domain"
	"github.com/agropulso-hq/agrofeed/internal/relevance"
)

const feedFetcherID = "feed"

// feedFetcher probes common RSS/Atom feed locations on a source and
// keeps the first feed that yields at least one relevant item.
type feedFetcher struct {
	client    HTTPClient
	filter    *relevance.Filter
	paths     []string
	userAgent string
}

// NewFeedFetcher builds the structured-feed retrieval strategy.
func NewFeedFetcher(client HTTPClient, filter *relevance.Filter, paths []string, userAgent string) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &feedFetcher{
		client:    client,
		filter:    filter,
		paths:     paths,
		userAgent: userAgent,
	}
}

func (f *feedFetcher) ID() string {
	return feedFetcherID
}

// Fetch probes the configured feed paths in order. Each candidate must
// answer 200 with an XML-ish content type and parse as RSS or Atom; the
// first one producing a relevant item wins.
func (f *feedFetcher) Fetch(ctx context.Context, src Source) ([]domain.Article, error) {
	if strings.TrimSpace(src.BaseURL) == "" {
		return nil, fmt.Errorf("source %q base url is empty", src.ID)
	}

	headers := Headers(src, f.userAgent)
	parser := gofeed.NewParser()

	var lastErr error
	for i, path := range f.paths {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if i > 0 {
			sleepCtx(ctx, src.RequestDelay())
		}

		feedURL := src.BaseURL + path

		resp, err := f.client.Get(ctx, feedURL, headers)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode() != http.StatusOK {
			lastErr = fmt.Errorf("%s returned status %d body: %s", feedURL, resp.StatusCode(), responseSnippet(resp.Body()))
			continue
		}
		if !isFeedContentType(resp.Header("Content-Type")) {
			lastErr = fmt.Errorf("%s content type %q is not a feed", feedURL, resp.Header("Content-Type"))
			continue
		}

		feed, err := parser.Parse(bytes.NewReader(resp.Body()))
		if err != nil {
			lastErr = fmt.Errorf("parse feed at %s: %w", feedURL, err)
			continue
		}

		articles := f.buildArticles(src, feed)
		if len(articles) > 0 {
			return articles, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("no feed path yielded relevant items for source %q: last attempt: %w", src.ID, lastErr)
	}
	return nil, fmt.Errorf("no feed path yielded relevant items for source %q", src.ID)
}

// buildArticles converts feed entries into relevant domain articles.
func (f *feedFetcher) buildArticles(src Source, feed *gofeed.Feed) []domain.Article {
	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		link := resolveURL(item.Link, src.BaseURL)
		if link == "" {
			continue
		}

		title := strings.TrimSpace(item.Title)
		teaser := strings.TrimSpace(item.Description)
		if teaser == "" {
			teaser = strings.TrimSpace(item.Content)
		}

		if f.filter != nil && !f.filter.Matches(title, teaser) {
			continue
		}

		articles = append(articles, domain.Article{
			ID:          hashURL(link),
			SourceID:    src.ID,
			SourceName:  src.Name,
			Title:       title,
			Teaser:      teaser,
			URL:         link,
			PublishedAt: itemPublishedAt(item),
		})
	}
	return articles
}

// itemPublishedAt extracts the publication date from the entry, trying
// the parsed fields first and then the raw strings.
func itemPublishedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	if parsed := parseArticleDate(item.Published); !parsed.IsZero() {
		return parsed
	}
	return parseArticleDate(item.Updated)
}
