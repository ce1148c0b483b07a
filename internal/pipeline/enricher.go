package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/agropulso-hq/agrofeed/internal/domain"
	"github.com/agropulso-hq/agrofeed/internal/logger"
	"github.com/agropulso-hq/agrofeed/pkg/httpclient"
	"github.com/agropulso-hq/agrofeed/pkg/sources"
)

const maxHTMLBodyBytes = 1 << 20 // 1 MiB

// Enricher fills missing article metadata by fetching the article page
// and reading its meta tags. Listing pages often carry no teaser; the
// article page usually does.
type Enricher struct {
	client    httpclient.Client
	userAgent string
	log       logger.Logger
}

// NewEnricher creates an Enricher with the given HTTP client and logger.
func NewEnricher(client httpclient.Client, userAgent string, log logger.Logger) *Enricher {
	if client == nil {
		client = sources.DefaultHTTPClient()
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Enricher{client: client, userAgent: userAgent, log: log}
}

// Enrich fills in missing teasers for the given articles, one page at a
// time, honoring the source's politeness delay. Articles that already
// have a teaser are returned untouched.
func (e *Enricher) Enrich(ctx context.Context, src sources.Source, articles []domain.Article) []domain.Article {
	out := make([]domain.Article, len(articles))
	copy(out, articles)

	for i, art := range articles {
		if ctx.Err() != nil {
			break
		}
		if strings.TrimSpace(art.Teaser) != "" {
			continue
		}

		sleepBeforeAttempt(ctx, src)

		enriched, err := e.fetchAndParse(ctx, src, art)
		if err != nil {
			e.log.WarnObj("article metadata scrape failed", "metadata_error", map[string]any{
				"source_id": src.ID,
				"url":       art.URL,
				"error":     err.Error(),
			})
			continue
		}
		out[i] = enriched
	}

	return out
}

// fetchAndParse fetches the article HTML and merges meta tag values
// into the article.
func (e *Enricher) fetchAndParse(ctx context.Context, src sources.Source, art domain.Article) (domain.Article, error) {
	headers := sources.Headers(src, e.userAgent)

	resp, err := e.client.Get(ctx, art.URL, headers)
	if err != nil {
		return art, fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != 200 {
		return art, fmt.Errorf("status %d", resp.StatusCode())
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	meta, err := parseMeta(body)
	if err != nil {
		return art, err
	}

	updated := art
	if updated.Title == "" && meta.Title != "" {
		updated.Title = meta.Title
	}
	if meta.Description != "" {
		updated.Teaser = meta.Description
	}
	return updated, nil
}

// pageMeta holds metadata extracted from an HTML page.
type pageMeta struct {
	Title       string
	Description string
}

// parseMeta extracts page metadata from the HTML body.
func parseMeta(body []byte) (pageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	pm := pageMeta{}
	pm.Title = firstNonEmpty(
		extract(`meta[property="og:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	pm.Description = firstNonEmpty(
		extract(`meta[property="og:description"]`),
		extract(`meta[name="description"]`),
	)
	return pm, nil
}

// firstNonEmpty returns the first non-empty string from the given values.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// sleepBeforeAttempt applies the source's politeness delay unless the
// context is cancelled first.
func sleepBeforeAttempt(ctx context.Context, src sources.Source) {
	delay := src.RequestDelay()
	if delay <= 0 {
		return
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
