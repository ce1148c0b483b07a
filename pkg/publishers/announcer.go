package publishers

import (
	"context"

	"github.com/agropulso-hq/agrofeed/internal/domain"
)

// SeenStore tracks which article IDs were already announced.
type SeenStore interface {
	Seen(id string) (bool, error)
	MarkSeen(ids ...string) error
}

// Announcer fans out newly harvested articles to the configured
// publishers, consulting the seen store so re-runs stay quiet about
// articles announced before.
type Announcer struct {
	publishers []Publisher
	store      SeenStore
	log        Logger
}

// NewAnnouncer builds an Announcer; store may be nil, in which case
// every article is treated as new.
func NewAnnouncer(pubs []Publisher, store SeenStore, log Logger) *Announcer {
	return &Announcer{
		publishers: pubs,
		store:      store,
		log:        ensureLogger(log),
	}
}

// Announce publishes an event per previously unseen article to every
// publisher. Delivery failures are logged and skipped; an article is
// marked seen once at least one publisher accepted it.
func (a *Announcer) Announce(ctx context.Context, articles []domain.Article) {
	if len(a.publishers) == 0 {
		return
	}

	for _, art := range articles {
		if ctx.Err() != nil {
			return
		}

		if a.store != nil {
			seen, err := a.store.Seen(art.ID)
			if err != nil {
				a.log.WarnObj("seen store read failed", "announce_store_error", map[string]any{
					"article_id": art.ID,
					"error":      err.Error(),
				})
				continue
			}
			if seen {
				continue
			}
		}

		evt := EventFromArticle(art)
		delivered := false
		for _, pub := range a.publishers {
			if err := pub.Publish(ctx, evt); err != nil {
				a.log.WarnObj("publisher delivery failed", "announce_delivery_error", map[string]any{
					"publisher_id": pub.ID(),
					"article_id":   art.ID,
					"error":        err.Error(),
				})
				continue
			}
			delivered = true
		}

		if delivered && a.store != nil {
			if err := a.store.MarkSeen(art.ID); err != nil {
				a.log.WarnObj("seen store write failed", "announce_store_error", map[string]any{
					"article_id": art.ID,
					"error":      err.Error(),
				})
			}
		}
	}
}
