package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agropulso-hq/agrofeed/internal/domain"
	"github.com/agropulso-hq/agrofeed/pkg/sources"
)

// stubFetcher returns canned articles or an error.
type stubFetcher struct {
	id       string
	articles []domain.Article
	err      error
	calls    int
}

func (s *stubFetcher) ID() string { return s.id }

func (s *stubFetcher) Fetch(_ context.Context, _ sources.Source) ([]domain.Article, error) {
	s.calls++
	return s.articles, s.err
}

func art(id, url string, date string) domain.Article {
	a := domain.Article{ID: id, URL: url, Title: "t-" + id}
	if date != "" {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			panic(err)
		}
		a.PublishedAt = t
	}
	return a
}

func TestMergeKeepsLaterDate(t *testing.T) {
	older := art("x", "https://a/1", "2024-01-01")
	newer := art("x", "https://a/1", "2024-03-01")

	merged := Merge([]domain.Article{older, newer})
	if len(merged) != 1 {
		t.Fatalf("expected 1 article after merge, got %d", len(merged))
	}
	if !merged[0].PublishedAt.Equal(newer.PublishedAt) {
		t.Errorf("expected the 2024-03-01 version to win, got %v", merged[0].PublishedAt)
	}

	// Order independent: later date wins even when it comes first.
	merged = Merge([]domain.Article{newer, older})
	if !merged[0].PublishedAt.Equal(newer.PublishedAt) {
		t.Errorf("expected the 2024-03-01 version to win regardless of order, got %v", merged[0].PublishedAt)
	}
}

func TestMergeLastWriteWinsOnMissingDates(t *testing.T) {
	first := art("x", "https://a/1", "")
	first.Teaser = "primera"
	second := art("x", "https://a/1", "")
	second.Teaser = "segunda"

	merged := Merge([]domain.Article{first, second})
	if len(merged) != 1 {
		t.Fatalf("expected 1 article, got %d", len(merged))
	}
	if merged[0].Teaser != "segunda" {
		t.Errorf("expected last occurrence to win on missing dates, got %q", merged[0].Teaser)
	}
}

func TestMergeUniqueIDs(t *testing.T) {
	in := []domain.Article{
		art("a", "https://a/1", "2024-01-01"),
		art("b", "https://a/2", "2024-01-02"),
		art("a", "https://a/1", "2024-02-01"),
		art("c", "https://a/3", ""),
	}

	merged := Merge(in)
	seen := make(map[string]struct{})
	for _, m := range merged {
		if _, dup := seen[m.ID]; dup {
			t.Fatalf("duplicate id %q in merged output", m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	if len(merged) != 3 {
		t.Errorf("expected 3 unique articles, got %d", len(merged))
	}
}

func TestSortByDateDescUndatedLast(t *testing.T) {
	items := []domain.Article{
		art("old", "https://a/1", "2023-06-01"),
		art("none1", "https://a/2", ""),
		art("new", "https://a/3", "2024-03-01"),
		art("none2", "https://a/4", ""),
		art("mid", "https://a/5", "2024-01-15"),
	}

	SortByDateDesc(items)

	wantOrder := []string{"new", "mid", "old", "none1", "none2"}
	for i, want := range wantOrder {
		if items[i].ID != want {
			t.Fatalf("position %d: got %q, want %q (full order %v)", i, items[i].ID, want, ids(items))
		}
	}
}

func ids(items []domain.Article) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestHarvesterFallsBackToSecondStrategy(t *testing.T) {
	feedStub := &stubFetcher{id: "feed", err: errors.New("no feed found")}
	listingStub := &stubFetcher{id: "listing", articles: []domain.Article{art("a", "https://a/1", "2024-01-01")}}

	h := New([]sources.Fetcher{feedStub, listingStub}, nil, nil)
	got := h.Run(context.Background(), []sources.Source{{ID: "s1", Name: "S1"}})

	if feedStub.calls != 1 || listingStub.calls != 1 {
		t.Errorf("expected both strategies tried once, got feed=%d listing=%d", feedStub.calls, listingStub.calls)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("unexpected result %v", got)
	}
}

func TestHarvesterSkipsFailedSourceEntirely(t *testing.T) {
	feedStub := &stubFetcher{id: "feed", err: errors.New("boom")}
	listingStub := &stubFetcher{id: "listing", err: errors.New("boom too")}

	h := New([]sources.Fetcher{feedStub, listingStub}, nil, nil)
	got := h.Run(context.Background(), []sources.Source{{ID: "s1"}, {ID: "s2"}})

	if len(got) != 0 {
		t.Errorf("expected empty result when all strategies fail, got %d items", len(got))
	}
	if feedStub.calls != 2 {
		t.Errorf("expected feed strategy tried for both sources, got %d", feedStub.calls)
	}
}

func TestHarvesterStopsTryingAfterFirstSuccess(t *testing.T) {
	feedStub := &stubFetcher{id: "feed", articles: []domain.Article{art("a", "https://a/1", "")}}
	listingStub := &stubFetcher{id: "listing"}

	h := New([]sources.Fetcher{feedStub, listingStub}, nil, nil)
	h.Run(context.Background(), []sources.Source{{ID: "s1"}})

	if listingStub.calls != 0 {
		t.Errorf("listing strategy should not run when feed succeeded, got %d calls", listingStub.calls)
	}
}

func TestHarvesterMergesAcrossSources(t *testing.T) {
	// Both sources return the same URL; the later dated copy must win.
	perSource := map[string][]domain.Article{
		"s1": {art("dup", "https://a/1", "2024-01-01")},
		"s2": {art("dup", "https://a/1", "2024-03-01")},
	}
	fetcher := &mapFetcher{bySource: perSource}

	h := New([]sources.Fetcher{fetcher}, nil, nil)
	got := h.Run(context.Background(), []sources.Source{{ID: "s1"}, {ID: "s2"}})

	if len(got) != 1 {
		t.Fatalf("expected 1 article after cross-source merge, got %d", len(got))
	}
	if got[0].PublishedAt.Format("2006-01-02") != "2024-03-01" {
		t.Errorf("expected later copy kept, got %v", got[0].PublishedAt)
	}
}

// mapFetcher returns articles keyed by source id.
type mapFetcher struct {
	bySource map[string][]domain.Article
}

func (m *mapFetcher) ID() string { return "map" }

func (m *mapFetcher) Fetch(_ context.Context, src sources.Source) ([]domain.Article, error) {
	arts, ok := m.bySource[src.ID]
	if !ok || len(arts) == 0 {
		return nil, errors.New("no articles")
	}
	return arts, nil
}
