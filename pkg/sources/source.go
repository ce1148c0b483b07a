package sources

import (
	"context"
	"time"

	"github.com/agropulso-hq/agrofeed/internal/config"
	"github.com/agropulso-hq/agrofeed/internal/domain"
	"github.com/agropulso-hq/agrofeed/pkg/httpclient"
)

// Source is a configured content provider the harvester pulls from.
type Source struct {
	ID          string
	Name        string
	BaseURL     string
	Headers     map[string]string
	DelayMillis int
}

// RequestDelay returns the politeness delay applied between network
// attempts against this source.
func (s Source) RequestDelay() time.Duration {
	if s.DelayMillis <= 0 {
		return 0
	}
	return time.Duration(s.DelayMillis) * time.Millisecond
}

// FromConfig converts a config entry into a Source.
func FromConfig(cfg config.SourceConfig) Source {
	return Source{
		ID:          cfg.ID,
		Name:        cfg.Name,
		BaseURL:     cfg.BaseURL,
		Headers:     cfg.Headers,
		DelayMillis: cfg.DelayMillis,
	}
}

// Fetcher is one retrieval strategy for a source. Fetch returns the
// relevant articles it extracted, or an error when the strategy found
// nothing usable and the next strategy should be tried.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, src Source) ([]domain.Article, error)
}

// HTTPClient is the client dependency shared by fetchers.
type HTTPClient = httpclient.Client

// DefaultHTTPClient returns a tuned HTTP client for source fetchers.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }

// Headers merges the source-specific headers over the default set sent
// with every request.
func Headers(src Source, userAgent string) map[string]string {
	out := map[string]string{
		"User-Agent": userAgent,
		"Accept":     "*/*",
	}
	for k, v := range src.Headers {
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
