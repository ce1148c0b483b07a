package publishers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agropulso-hq/agrofeed/internal/domain"
)

func writePublishersFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write publishers file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	content := `
publishers:
  - id: webhook
    type: http
    http:
      url: https://hooks.example.com/agrofeed
  - id: queue-out
    type: queue
    enabled: false
    queue:
      provider: aws-sqs
      sqs:
        uri: https://sqs.us-east-1.amazonaws.com/123/agrofeed
        region: us-east-1
        access_key_id: AKIA123
        secret_access_key: secret
`
	reg, err := LoadRegistry(writePublishersFile(t, "publishers.yaml", content))
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}

	if got := len(reg.All()); got != 2 {
		t.Fatalf("len(All) = %d, want 2", got)
	}
	if got := len(reg.Enabled()); got != 1 {
		t.Errorf("len(Enabled) = %d, want 1 (queue-out is disabled)", got)
	}

	cfg, ok := reg.ByID("webhook")
	if !ok {
		t.Fatal("webhook publisher not found by id")
	}
	if cfg.HTTP.Method != "POST" {
		t.Errorf("default method = %q, want POST", cfg.HTTP.Method)
	}
	if cfg.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Errorf("default timeout = %d", cfg.HTTP.TimeoutSeconds)
	}
}

func TestLoadRegistryExpandsEnv(t *testing.T) {
	t.Setenv("AGROFEED_TEST_HOOK", "https://hooks.example.com/from-env")

	content := `
publishers:
  - id: webhook
    type: http
    http:
      url: ${AGROFEED_TEST_HOOK}
`
	reg, err := LoadRegistry(writePublishersFile(t, "publishers.yaml", content))
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}

	cfg, _ := reg.ByID("webhook")
	if cfg.HTTP.URL != "https://hooks.example.com/from-env" {
		t.Errorf("URL = %q, want env-expanded value", cfg.HTTP.URL)
	}
}

func TestLoadRegistryRejectsInvalidEntries(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing id", "publishers:\n  - type: http\n    http:\n      url: https://x\n"},
		{"unknown type", "publishers:\n  - id: a\n    type: carrier-pigeon\n"},
		{"http without url", "publishers:\n  - id: a\n    type: http\n    http:\n      method: POST\n"},
		{"queue without provider", "publishers:\n  - id: a\n    type: queue\n    queue: {}\n"},
		{"sqs missing region", "publishers:\n  - id: a\n    type: queue\n    queue:\n      provider: aws-sqs\n      sqs:\n        uri: https://x\n        access_key_id: k\n        secret_access_key: s\n"},
		{"duplicate ids", "publishers:\n  - id: a\n    type: http\n    http:\n      url: https://x\n  - id: a\n    type: http\n    http:\n      url: https://y\n"},
		{"empty list", "publishers: []\n"},
	}

	for _, tc := range cases {
		if _, err := LoadRegistry(writePublishersFile(t, "publishers.yaml", tc.content)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestHTTPPublisherDeliversEvent(t *testing.T) {
	var received Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cfg := PublisherConfig{
		ID:   "webhook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{URL: srv.URL, Method: "POST", TimeoutSeconds: 5},
	}
	pub, err := newHTTPPublisher(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher returned error: %v", err)
	}

	published := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	evt := EventFromArticle(domain.Article{
		ID:          "abc",
		SourceID:    "maquinac",
		SourceName:  "Maquinac",
		Title:       "Venta de Tractores crece 20%",
		URL:         "https://www.maquinac.com/nota/1",
		PublishedAt: published,
	})

	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	if received.ArticleID != "abc" || received.SourceID != "maquinac" {
		t.Errorf("received event %+v", received)
	}
	if received.PublishedAt == nil || *received.PublishedAt != "2024-03-01T10:00:00Z" {
		t.Errorf("PublishedAt = %v", received.PublishedAt)
	}
}

func TestHTTPPublisherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := PublisherConfig{
		ID:   "webhook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{URL: srv.URL, Method: "POST", TimeoutSeconds: 5},
	}
	pub, err := newHTTPPublisher(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher returned error: %v", err)
	}

	if err := pub.Publish(context.Background(), Event{ArticleID: "x"}); err == nil {
		t.Error("expected error on 5xx response")
	}
}

func TestEventFromArticleWithoutDate(t *testing.T) {
	evt := EventFromArticle(domain.Article{ID: "abc", URL: "https://x"})
	if evt.PublishedAt != nil {
		t.Errorf("PublishedAt = %v, want nil for undated article", *evt.PublishedAt)
	}
}
