package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agropulso-hq/agrofeed/internal/config"
	"github.com/agropulso-hq/agrofeed/internal/domain"
	"github.com/agropulso-hq/agrofeed/internal/export"
	"github.com/agropulso-hq/agrofeed/internal/ledger"
	"github.com/agropulso-hq/agrofeed/internal/logger"
	"github.com/agropulso-hq/agrofeed/internal/pipeline"
	"github.com/agropulso-hq/agrofeed/internal/relevance"
	"github.com/agropulso-hq/agrofeed/pkg/httpclient"
	"github.com/agropulso-hq/agrofeed/pkg/publishers"
	"github.com/agropulso-hq/agrofeed/pkg/sources"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "harvester: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("AGROFEED_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := httpclient.NewRestyClient(cfg.Timeout())
	filter := relevance.NewFilter(cfg.Keywords)

	fetchers := []sources.Fetcher{
		sources.NewFeedFetcher(client, filter, cfg.FeedPaths, cfg.UserAgent),
		sources.NewListingFetcher(client, filter, cfg.ListingPaths, cfg.UserAgent),
	}

	var enricher *pipeline.Enricher
	if cfg.Enrich {
		enricher = pipeline.NewEnricher(client, cfg.UserAgent, log)
	}

	srcs := make([]sources.Source, 0, len(cfg.Sources))
	names := make([]string, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		srcs = append(srcs, sources.FromConfig(sc))
		names = append(names, sc.Name)
	}

	started := time.Now()
	log.InfoObj("harvest started", "run_start", map[string]any{
		"sources":  len(srcs),
		"keywords": len(cfg.Keywords),
	})

	articles := pipeline.New(fetchers, enricher, log).Run(ctx, srcs)

	writer := export.NewWriter(cfg.Output.Path, cfg.Output.PrettyPrint)
	if err := writer.Write(time.Now(), names, articles); err != nil {
		return fmt.Errorf("write feed document: %w", err)
	}

	log.InfoObj("feed document written", "run_done", map[string]any{
		"path":     cfg.Output.Path,
		"items":    len(articles),
		"duration": time.Since(started).String(),
	})

	if cfg.PublishersFile != "" {
		if err := announce(ctx, cfg, articles, log); err != nil {
			return fmt.Errorf("announce articles: %w", err)
		}
	}

	return nil
}

// announce delivers newly harvested articles to the configured
// downstream publishers.
func announce(ctx context.Context, cfg config.Config, articles []domain.Article, log logger.Logger) error {
	reg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return fmt.Errorf("load publishers file: %w", err)
	}

	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), reg.Enabled(), log)
	if err != nil {
		return fmt.Errorf("build publishers: %w", err)
	}
	if len(pubs) == 0 {
		return nil
	}

	var store publishers.SeenStore
	if cfg.LedgerPath != "" {
		db, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			return fmt.Errorf("open announce ledger: %w", err)
		}
		defer db.Close()
		store = db
	}

	publishers.NewAnnouncer(pubs, store, log).Announce(ctx, articles)
	return nil
}
