// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

// Package analysis composes the event source, the user's holdings, an
// embedding provider and the match engine into a per-user match run.
package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/consensus-dev/consensus/internal/embedding"
	"github.com/consensus-dev/consensus/internal/match"
	"github.com/consensus-dev/consensus/internal/store"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
	"github.com/consensus-dev/consensus/pkg/types"
)

// EventSource supplies the candidate events for a run.
type EventSource interface {
	Events(ctx context.Context) ([]types.Event, error)
}

// HoldingSource supplies a user's holdings.
type HoldingSource interface {
	Holdings(ctx context.Context, userID string) ([]types.Holding, error)
}

// Matcher returns the events relevant to a user's holdings.
type Matcher interface {
	Match(ctx context.Context, userID string) ([]types.Event, error)
}

// PortfolioHoldings reads holdings from a portfolio store.
type PortfolioHoldings struct {
	Store store.PortfolioStore
}

func (p PortfolioHoldings) Holdings(ctx context.Context, userID string) ([]types.Holding, error) {
	portfolio, err := p.Store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return portfolio.Holdings(), nil
}

// Service runs the matching pipeline. It keeps no per-run state.
type Service struct {
	events   EventSource
	holdings HoldingSource
	embedder embedding.Provider
	engine   *match.Engine
	now      func() time.Time
}

var _ Matcher = (*Service)(nil)

// NewService validates its collaborators and returns a Service.
func NewService(events EventSource, holdings HoldingSource, embedder embedding.Provider, engine *match.Engine) (*Service, error) {
	if events == nil {
		return nil, conserr.New(conserr.CodeServerConfigInvalid, "event source is required")
	}
	if holdings == nil {
		return nil, conserr.New(conserr.CodeServerConfigInvalid, "holding source is required")
	}
	if embedder == nil {
		return nil, conserr.New(conserr.CodeServerConfigInvalid, "embedding provider is required")
	}
	if engine == nil {
		return nil, conserr.New(conserr.CodeServerConfigInvalid, "match engine is required")
	}
	return &Service{
		events:   events,
		holdings: holdings,
		embedder: embedder,
		engine:   engine,
		now:      time.Now,
	}, nil
}

// Match returns the ranked, filtered events relevant to userID's holdings.
// Any upstream failure aborts the run; there is no partial result.
func (s *Service) Match(ctx context.Context, userID string) ([]types.Event, error) {
	r, err := s.run(ctx, userID)
	if err != nil {
		return nil, err
	}
	return r.result.Events, nil
}

// Explain runs the pipeline and reports the decision made for every event.
func (s *Service) Explain(ctx context.Context, userID string) (*Report, error) {
	r, err := s.run(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.report(userID, r), nil
}

type run struct {
	events   []types.Event
	holdings []types.Holding
	result   *match.Result
}

func (s *Service) run(ctx context.Context, userID string) (*run, error) {
	events, err := s.events.Events(ctx)
	if err != nil {
		return nil, upstream(err, conserr.CodeSourceEventsUpstreamFailure, "fetching events")
	}

	holdings, err := s.holdings.Holdings(ctx, userID)
	if err != nil {
		return nil, upstream(err, conserr.CodeSourceHoldingsUpstreamFailure, "fetching holdings")
	}

	holdingTexts := match.HoldingTexts(holdings)

	eventVecs, err := s.embedder.Embed(ctx, match.EventTexts(events))
	if err != nil {
		return nil, upstream(err, conserr.CodeEmbeddingUpstreamFailure, "embedding events")
	}
	holdingVecs, err := s.embedder.Embed(ctx, holdingTexts)
	if err != nil {
		return nil, upstream(err, conserr.CodeEmbeddingUpstreamFailure, "embedding holdings")
	}

	if len(holdingVecs) != len(holdingTexts) {
		return nil, conserr.Errorf(conserr.CodeMatchEmbeddingCountMismatch,
			"holding embedding count mismatch: %d holdings, %d embeddings", len(holdingTexts), len(holdingVecs))
	}

	result, err := s.engine.Evaluate(events, eventVecs, holdingVecs)
	if err != nil {
		return nil, conserr.With(err, conserr.FieldUserID(userID))
	}

	slog.Debug("analysis complete", "user", userID, "events", len(events),
		"holdings", len(holdings), "returned", len(result.Events))
	return &run{events: events, holdings: holdings, result: result}, nil
}

// upstream leaves coded errors untouched and tags plain ones with code.
func upstream(err error, code conserr.Code, msg string) error {
	if conserr.CodeOf(err) != "" {
		return err
	}
	return conserr.Wrap(err, code, msg)
}
