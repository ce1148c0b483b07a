package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/agropulso-hq/agrofeed/internal/domain"
	"github.com/agropulso-hq/agrofeed/internal/relevance"
)

const listingFetcherID = "listing"

// articleSelectors are the container selectors tried when scraping a
// listing page for article-like blocks.
var articleSelectors = []string{
	"article",
	".post",
	".news-item",
	".entry",
	".noticia",
	".card",
}

// teaserSelectors locate the teaser text inside a candidate block.
var teaserSelectors = []string{"p", ".excerpt", ".entry-summary", ".copete", ".summary"}

// listingFetcher scrapes likely article listing pages when a source
// exposes no usable feed.
type listingFetcher struct {
	client    HTTPClient
	filter    *relevance.Filter
	paths     []string
	userAgent string
}

// NewListingFetcher builds the HTML fallback retrieval strategy.
func NewListingFetcher(client HTTPClient, filter *relevance.Filter, paths []string, userAgent string) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &listingFetcher{
		client:    client,
		filter:    filter,
		paths:     paths,
		userAgent: userAgent,
	}
}

func (f *listingFetcher) ID() string {
	return listingFetcherID
}

// Fetch probes the configured listing paths in order and stops at the
// first page yielding any relevant item.
func (f *listingFetcher) Fetch(ctx context.Context, src Source) ([]domain.Article, error) {
	if strings.TrimSpace(src.BaseURL) == "" {
		return nil, fmt.Errorf("source %q base url is empty", src.ID)
	}

	headers := Headers(src, f.userAgent)

	var lastErr error
	for i, path := range f.paths {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if i > 0 {
			sleepCtx(ctx, src.RequestDelay())
		}

		pageURL := src.BaseURL + path

		resp, err := f.client.Get(ctx, pageURL, headers)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode() != http.StatusOK {
			lastErr = fmt.Errorf("%s returned status %d body: %s", pageURL, resp.StatusCode(), responseSnippet(resp.Body()))
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
		if err != nil {
			lastErr = fmt.Errorf("parse html at %s: %w", pageURL, err)
			continue
		}

		articles := f.extractArticles(src, pageURL, doc)
		if len(articles) > 0 {
			return articles, nil
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("no listing path yielded relevant items for source %q: last attempt: %w", src.ID, lastErr)
	}
	return nil, fmt.Errorf("no listing path yielded relevant items for source %q", src.ID)
}

// extractArticles pulls candidate blocks out of the page and keeps the
// relevant ones.
func (f *listingFetcher) extractArticles(src Source, pageURL string, doc *goquery.Document) []domain.Article {
	var articles []domain.Article
	seen := make(map[string]struct{})

	for _, selector := range articleSelectors {
		doc.Find(selector).Each(func(_ int, block *goquery.Selection) {
			art, ok := f.extractBlock(src, pageURL, block)
			if !ok {
				return
			}
			if _, dup := seen[art.ID]; dup {
				return
			}
			seen[art.ID] = struct{}{}
			articles = append(articles, art)
		})
		if len(articles) > 0 {
			break
		}
	}
	return articles
}

// extractBlock reads one candidate block: first anchor gives title and
// href, first paragraph-like element the teaser, an optional <time>
// element the date.
func (f *listingFetcher) extractBlock(src Source, pageURL string, block *goquery.Selection) (domain.Article, bool) {
	anchor := block.Find("a[href]").First()
	if anchor.Length() == 0 {
		return domain.Article{}, false
	}

	href, _ := anchor.Attr("href")
	link := resolveURL(href, pageURL)
	if link == "" {
		return domain.Article{}, false
	}

	title := strings.TrimSpace(anchor.Text())
	if title == "" {
		title = strings.TrimSpace(anchor.AttrOr("title", ""))
	}
	if title == "" {
		return domain.Article{}, false
	}

	teaser := firstTeaser(block)

	if f.filter != nil && !f.filter.Matches(title, teaser) {
		return domain.Article{}, false
	}

	return domain.Article{
		ID:          hashURL(link),
		SourceID:    src.ID,
		SourceName:  src.Name,
		Title:       title,
		Teaser:      teaser,
		URL:         link,
		PublishedAt: blockPublishedAt(block),
	}, true
}

// firstTeaser returns the first non-empty paragraph-like text in the block.
func firstTeaser(block *goquery.Selection) string {
	for _, selector := range teaserSelectors {
		if text := strings.TrimSpace(block.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// blockPublishedAt parses the optional <time> element, preferring its
// datetime attribute over the visible text.
func blockPublishedAt(block *goquery.Selection) time.Time {
	elem := block.Find("time").First()
	if elem.Length() == 0 {
		return time.Time{}
	}

	if attr, ok := elem.Attr("datetime"); ok {
		if parsed := parseArticleDate(attr); !parsed.IsZero() {
			return parsed
		}
	}
	return parseArticleDate(elem.Text())
}
