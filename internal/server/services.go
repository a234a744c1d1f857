// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package server

import (
	"context"

	"github.com/consensus-dev/consensus/internal/analysis"
	"github.com/consensus-dev/consensus/internal/embedding"
	"github.com/consensus-dev/consensus/internal/store"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

// Explainer produces a diagnostics report for a user.
type Explainer interface {
	Explain(ctx context.Context, userID string) (*analysis.Report, error)
}

// Invalidator drops any cached match result for a user.
type Invalidator interface {
	Invalidate(userID string)
}

// Services holds the dependencies route handlers call. Use NewServices.
type Services struct {
	matcher     analysis.Matcher
	explainer   Explainer
	events      analysis.EventSource
	portfolios  store.PortfolioStore
	invalidator Invalidator              // optional
	health      embedding.HealthReporter // optional
}

// NewServices validates and bundles the required services.
func NewServices(matcher analysis.Matcher, explainer Explainer, events analysis.EventSource, portfolios store.PortfolioStore) (*Services, error) {
	if matcher == nil {
		return nil, conserr.New(conserr.CodeServerConfigInvalid, "matcher is required")
	}
	if explainer == nil {
		return nil, conserr.New(conserr.CodeServerConfigInvalid, "explainer is required")
	}
	if events == nil {
		return nil, conserr.New(conserr.CodeServerConfigInvalid, "event source is required")
	}
	if portfolios == nil {
		return nil, conserr.New(conserr.CodeServerConfigInvalid, "portfolio store is required")
	}
	return &Services{
		matcher:    matcher,
		explainer:  explainer,
		events:     events,
		portfolios: portfolios,
	}, nil
}

// SetInvalidator registers the cache to clear after portfolio changes.
func (s *Services) SetInvalidator(inv Invalidator) {
	s.invalidator = inv
}

// SetHealthReporter exposes provider health on /health.
func (s *Services) SetHealthReporter(h embedding.HealthReporter) {
	s.health = h
}

func (s *Services) invalidate(userID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
}
