package pipeline

import (
	"context"
	"sort"

	"github.com/agropulso-hq/agrofeed/internal/domain"
	"github.com/agropulso-hq/agrofeed/internal/logger"
	"github.com/agropulso-hq/agrofeed/pkg/sources"
)

// Harvester runs the acquisition pipeline: for every source it tries
// each retrieval strategy in order, then merges the results globally.
type Harvester struct {
	fetchers []sources.Fetcher
	enricher *Enricher
	log      logger.Logger
}

// New builds a Harvester. The fetcher order is the strategy order;
// enricher may be nil.
func New(fetchers []sources.Fetcher, enricher *Enricher, log logger.Logger) *Harvester {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Harvester{
		fetchers: fetchers,
		enricher: enricher,
		log:      log,
	}
}

// Run processes every source sequentially and returns the deduplicated,
// date-descending article list. A source whose strategies all fail
// simply contributes nothing.
func (h *Harvester) Run(ctx context.Context, srcs []sources.Source) []domain.Article {
	var collected []domain.Article

	for _, src := range srcs {
		if ctx.Err() != nil {
			break
		}

		articles := h.harvestSource(ctx, src)
		h.log.InfoObj("source processed", "source_done", map[string]any{
			"source_id": src.ID,
			"articles":  len(articles),
		})
		collected = append(collected, articles...)
	}

	merged := Merge(collected)
	SortByDateDesc(merged)
	return merged
}

// harvestSource tries each strategy until one yields relevant articles.
func (h *Harvester) harvestSource(ctx context.Context, src sources.Source) []domain.Article {
	for _, fetcher := range h.fetchers {
		articles, err := fetcher.Fetch(ctx, src)
		if err != nil {
			h.log.WarnObj("retrieval strategy failed", "strategy_miss", map[string]any{
				"source_id": src.ID,
				"strategy":  fetcher.ID(),
				"error":     err.Error(),
			})
			continue
		}
		if len(articles) == 0 {
			continue
		}

		if h.enricher != nil {
			articles = h.enricher.Enrich(ctx, src, articles)
		}
		return articles
	}
	return nil
}

// Merge combines articles keyed by URL hash. For colliding IDs the item
// with the later date wins; missing dates compare as the zero time, so
// the last occurrence is kept on ties.
func Merge(articles []domain.Article) []domain.Article {
	byID := make(map[string]domain.Article, len(articles))
	order := make([]string, 0, len(articles))

	for _, art := range articles {
		existing, ok := byID[art.ID]
		if !ok {
			byID[art.ID] = art
			order = append(order, art.ID)
			continue
		}
		if !art.PublishedAt.Before(existing.PublishedAt) {
			byID[art.ID] = art
		}
	}

	out := make([]domain.Article, 0, len(byID))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}

// SortByDateDesc orders articles newest first; articles without a date
// sort after all dated ones.
func SortByDateDesc(articles []domain.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		di, dj := articles[i].PublishedAt, articles[j].PublishedAt
		if di.IsZero() != dj.IsZero() {
			return !di.IsZero()
		}
		return di.After(dj)
	})
}
