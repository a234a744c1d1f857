// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package store

import (
	"context"
	"time"
)

// PortfolioStore persists user portfolios and their assets.
type PortfolioStore interface {
	// Create makes an empty portfolio for userID. It is a no-op when one
	// already exists.
	Create(ctx context.Context, userID string) (*Portfolio, error)
	// Get returns the portfolio for userID or ErrNotFound.
	Get(ctx context.Context, userID string) (*Portfolio, error)
	// AddAsset appends asset to the user's portfolio, creating the portfolio
	// if needed. An asset whose symbol matches an existing one
	// case-insensitively is merged: quantities add up and non-empty
	// keywords, description, name and value replace the stored ones.
	// Empty fields keep the stored value, so a merge cannot clear keywords
	// or the description; remove the asset and add it again instead.
	AddAsset(ctx context.Context, userID string, asset Asset) (*Portfolio, error)
	// RemoveAsset deletes the asset with symbol (case-insensitive) or
	// returns ErrNotFound.
	RemoveAsset(ctx context.Context, userID, symbol string) error
	Close() error
}

// EmbeddingCache stores embedding vectors by opaque key.
type EmbeddingCache interface {
	// Get returns the vectors present for keys. Missing keys are absent
	// from the result.
	Get(ctx context.Context, keys []string) (map[string][]float32, error)
	Put(ctx context.Context, entries map[string][]float32) error
	// Prune drops entries stored before cutoff and reports how many.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}
