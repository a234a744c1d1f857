// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/consensus-dev/consensus/internal/analysis"
	"github.com/consensus-dev/consensus/internal/config"
	"github.com/consensus-dev/consensus/internal/embedding"
	_ "github.com/consensus-dev/consensus/internal/embedding/google" // register google backend
	_ "github.com/consensus-dev/consensus/internal/embedding/openai" // register openai backend
	_ "github.com/consensus-dev/consensus/internal/embedding/voyage" // register voyage backend
	"github.com/consensus-dev/consensus/internal/match"
	"github.com/consensus-dev/consensus/internal/secrets"
	"github.com/consensus-dev/consensus/internal/source/polymarket"
	"github.com/consensus-dev/consensus/internal/store"
	_ "github.com/consensus-dev/consensus/internal/store/sqlite" // register sqlite backend
	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

// secretStoreFactory creates the secrets.Store used to resolve keyring://
// references. Tests substitute an in-memory store.
var secretStoreFactory = func() secrets.Store {
	return secrets.NewKeyringStore()
}

// App holds the wired pipeline and owns its resources.
type App struct {
	Config     *config.Config
	Portfolios store.PortfolioStore
	Embeddings store.EmbeddingCache
	Embedder   embedding.Provider
	Events     analysis.EventSource
	Service    *analysis.Service
	// Matcher is Service behind the result cache, or Service itself when
	// the cache is disabled.
	Matcher analysis.Matcher
	// Cache is nil when cache.ttl is zero.
	Cache *analysis.CachedMatcher
}

// openStores creates the data directory and opens the configured backend.
func openStores(cfg *config.Config) (store.PortfolioStore, store.EmbeddingCache, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, nil, conserr.Errorf(conserr.CodeCLISetupFailure, "creating data directory: %w", err)
	}
	ps, ec, err := store.NewStores(&store.StorageConfig{Backend: cfg.Storage.Backend}, cfg.DataDir)
	if err != nil {
		return nil, nil, conserr.Wrap(err, conserr.CodeCLISetupFailure, "opening stores")
	}
	return ps, ec, nil
}

func newEventSource(cfg *config.Config) (*polymarket.Client, error) {
	return polymarket.New(polymarket.Config{
		Endpoint: cfg.Events.Endpoint,
		Limit:    cfg.Events.Limit,
		Order:    cfg.Events.Order,
		Timeout:  cfg.Events.Timeout,
	}, nil)
}

// newEmbedder builds the configured provider, resolving a keyring:// API
// key first.
func newEmbedder(cfg *config.Config, secretStore secrets.Store) (embedding.Provider, error) {
	pc := cfg.Provider()
	apiKey, err := secrets.Resolve(secretStore, pc.APIKey)
	if err != nil {
		return nil, conserr.Wrapf(err, conserr.CodeCLISetupFailure,
			"resolving api key for %s (store one with `consensus secret set %s`)",
			cfg.Embedding.Provider, cfg.Embedding.Provider)
	}

	return embedding.New(cfg.Embedding.Provider, embedding.Config{
		APIKey:            apiKey,
		Endpoint:          pc.Endpoint,
		Model:             cfg.Embedding.Model,
		Dimensions:        cfg.Embedding.Dimensions,
		BatchSize:         cfg.Embedding.BatchSize,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	})
}

// newEngine builds the match engine. An empty exclude list disables
// post-filtering.
func newEngine(cfg *config.Config) (*match.Engine, error) {
	return match.NewEngine(cfg.Matching.MatchConfig(), match.ExcludeTitleTerms(cfg.Matching.ExcludeTitleTerms...))
}

// Wire builds every subsystem from cfg. On error, anything already opened
// is closed.
func Wire(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}
	wired := false
	defer func() {
		if !wired {
			_ = app.Close()
		}
	}()

	var err error
	app.Portfolios, app.Embeddings, err = openStores(cfg)
	if err != nil {
		return nil, err
	}

	events, err := newEventSource(cfg)
	if err != nil {
		return nil, err
	}
	app.Events = events

	provider, err := newEmbedder(cfg, secretStoreFactory())
	if err != nil {
		return nil, err
	}
	app.Embedder = provider
	if cfg.Embedding.Cache {
		app.Embedder = embedding.Cached(provider, app.Embeddings, cfg.Embedding.Dimensions)
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}

	app.Service, err = analysis.NewService(events, analysis.PortfolioHoldings{Store: app.Portfolios}, app.Embedder, engine)
	if err != nil {
		return nil, err
	}

	app.Matcher = app.Service
	if cfg.Cache.TTL > 0 {
		app.Cache = analysis.NewCachedMatcher(app.Service, cfg.Cache.SizeMB<<20, cfg.Cache.TTL)
		app.Matcher = app.Cache
	}

	slog.Debug("wired pipeline",
		"provider", app.Embedder.Name(),
		"model", app.Embedder.Model(),
		"embedding_cache", cfg.Embedding.Cache,
		"result_cache_ttl", cfg.Cache.TTL,
		"data_dir", cfg.DataDir)
	wired = true
	return app, nil
}

// Close releases every resource the App opened.
func (a *App) Close() error {
	var errs []error
	if a.Embedder != nil {
		errs = append(errs, a.Embedder.Close())
	}
	if a.Embeddings != nil {
		errs = append(errs, a.Embeddings.Close())
	}
	if a.Portfolios != nil {
		errs = append(errs, a.Portfolios.Close())
	}
	return errors.Join(errs...)
}
