// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coocood/freecache"

	"github.com/consensus-dev/consensus/pkg/types"
)

// CachedMatcher memoizes a Matcher's results per user for a fixed TTL.
// Failed runs are never cached, and neither are runs that overlapped an
// Invalidate for the same user.
type CachedMatcher struct {
	inner Matcher
	cache *freecache.Cache
	ttl   int // seconds

	mu   sync.Mutex
	gens map[string]uint64 // bumped by Invalidate
}

var _ Matcher = (*CachedMatcher)(nil)

// NewCachedMatcher wraps inner with an in-memory cache of sizeBytes.
// A ttl below one second is rounded up to one second.
func NewCachedMatcher(inner Matcher, sizeBytes int, ttl time.Duration) *CachedMatcher {
	return &CachedMatcher{
		inner: inner,
		cache: freecache.NewCache(sizeBytes),
		ttl:   max(int(ttl/time.Second), 1),
		gens:  make(map[string]uint64),
	}
}

func (c *CachedMatcher) Match(ctx context.Context, userID string) ([]types.Event, error) {
	key := []byte(userID)

	if raw, err := c.cache.Get(key); err == nil {
		var events []types.Event
		if err := json.Unmarshal(raw, &events); err == nil {
			slog.Debug("analysis cache hit", "user", userID)
			return events, nil
		}
		c.cache.Del(key)
	} else if !errors.Is(err, freecache.ErrNotFound) {
		slog.Warn("analysis cache read failed", "user", userID, "error", err)
	}

	gen := c.generation(userID)
	events, err := c.inner.Match(ctx, userID)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(events)
	if err != nil {
		slog.Warn("analysis cache encode failed", "user", userID, "error", err)
		return events, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[userID] != gen {
		slog.Debug("analysis cache store skipped after invalidation", "user", userID)
		return events, nil
	}
	if err := c.cache.Set(key, raw, c.ttl); err != nil {
		slog.Warn("analysis cache write failed", "user", userID, "error", err)
	}
	return events, nil
}

func (c *CachedMatcher) generation(userID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[userID]
}

// Invalidate drops the cached result for userID. A run already in flight
// for userID returns its result but does not cache it.
func (c *CachedMatcher) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[userID]++
	c.cache.Del([]byte(userID))
}

// Stats reports the cache hit rate and entry count.
func (c *CachedMatcher) Stats() (hitRate float64, entries int64) {
	return c.cache.HitRate(), c.cache.EntryCount()
}
