// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strconv"

	"github.com/consensus-dev/consensus/pkg/health"
)

// Cache stores vectors by opaque key. Missing keys are absent from the
// map returned by Get.
type Cache interface {
	Get(ctx context.Context, keys []string) (map[string][]float32, error)
	Put(ctx context.Context, entries map[string][]float32) error
}

// CachedProvider serves repeat texts from a Cache and sends only misses
// upstream.
type CachedProvider struct {
	inner Provider
	cache Cache
	dims  int
}

var (
	_ Provider       = (*CachedProvider)(nil)
	_ HealthReporter = (*CachedProvider)(nil)
)

// Cached wraps p with cache. dims is the output size p was configured
// with (zero for the model default) and is part of every key, so vectors of
// different sizes never mix. Cache failures are logged and bypassed; they
// never fail an Embed call.
func Cached(p Provider, cache Cache, dims int) *CachedProvider {
	return &CachedProvider{inner: p, cache: cache, dims: dims}
}

// CacheKey identifies text embedded by a given provider, model and output
// size.
func CacheKey(provider, model string, dims int, text string) string {
	sum := sha256.Sum256([]byte(provider + "/" + model + "/" + strconv.Itoa(dims) + "/" + text))
	return hex.EncodeToString(sum[:])
}

func (c *CachedProvider) Name() string  { return c.inner.Name() }
func (c *CachedProvider) Model() string { return c.inner.Model() }
func (c *CachedProvider) Close() error  { return c.inner.Close() }

// HealthMetrics forwards to the wrapped provider when it tracks health.
func (c *CachedProvider) HealthMetrics() health.Metrics {
	if hr, ok := c.inner.(HealthReporter); ok {
		return hr.HealthMetrics()
	}
	return health.Metrics{Provider: c.Name(), Model: c.Model(), Available: true}
}

func (c *CachedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = CacheKey(c.inner.Name(), c.inner.Model(), c.dims, t)
	}

	hits, err := c.cache.Get(ctx, keys)
	if err != nil {
		slog.Warn("embedding cache read failed", "provider", c.Name(), "error", err)
		hits = nil
	}

	// Unique misses in first-seen order.
	var missTexts, missKeys []string
	seen := make(map[string]bool)
	for i, k := range keys {
		if _, ok := hits[k]; ok || seen[k] {
			continue
		}
		seen[k] = true
		missTexts = append(missTexts, texts[i])
		missKeys = append(missKeys, k)
	}

	fresh := make(map[string][]float32, len(missKeys))
	if len(missTexts) > 0 {
		vectors, err := c.inner.Embed(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		if err := CheckBatch(missTexts, vectors); err != nil {
			return nil, err
		}
		for i, k := range missKeys {
			fresh[k] = vectors[i]
		}
		if err := c.cache.Put(ctx, fresh); err != nil {
			slog.Warn("embedding cache write failed", "provider", c.Name(), "error", err)
		}
	}

	out := make([][]float32, len(texts))
	for i, k := range keys {
		if v, ok := fresh[k]; ok {
			out[i] = v
			continue
		}
		out[i] = hits[k]
	}

	slog.Debug("embedding cache", "provider", c.Name(), "texts", len(texts), "misses", len(missTexts))
	if err := CheckBatch(texts, out); err != nil {
		return nil, err
	}
	return out, nil
}
