// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package embedding

import (
	"sync"
	"time"

	conserr "github.com/consensus-dev/consensus/pkg/errors"
	"github.com/consensus-dev/consensus/pkg/health"
)

// DefaultHealthCooldown is how long a backend reports unavailable after a
// failed request.
const DefaultHealthCooldown = 30 * time.Second

// HealthTracker records the outcome of upstream requests. A backend is
// healthy until a request fails, then unavailable for the cooldown period.
type HealthTracker struct {
	mu           sync.RWMutex
	provider     string
	model        string
	healthy      bool
	failedAt     time.Time
	cooldown     time.Duration
	requests     int64
	failureCount int64
	nowFunc      func() time.Time
}

// NewHealthTracker creates a tracker that starts healthy.
func NewHealthTracker(provider, model string, cooldown time.Duration) (*HealthTracker, error) {
	if cooldown <= 0 {
		return nil, conserr.Errorf(conserr.CodeConfigValidateInvalidValue,
			"health tracker cooldown must be positive, got %s", cooldown)
	}
	return &HealthTracker{
		provider: provider,
		model:    model,
		healthy:  true,
		cooldown: cooldown,
		nowFunc:  time.Now,
	}, nil
}

// caller must hold h.mu.
func (h *HealthTracker) isHealthyLocked() bool {
	if h.healthy {
		return true
	}
	return h.nowFunc().Sub(h.failedAt) >= h.cooldown
}

// IsHealthy reports whether the backend is healthy or its cooldown elapsed.
func (h *HealthTracker) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.isHealthyLocked()
}

// Record counts a request and marks the backend according to err.
func (h *HealthTracker) Record(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests++
	if err == nil {
		h.healthy = true
		return
	}
	h.healthy = false
	h.failedAt = h.nowFunc()
	h.failureCount++
}

// SetNowFunc overrides the time source.
func (h *HealthTracker) SetNowFunc(fn func() time.Time) {
	h.mu.Lock()
	h.nowFunc = fn
	h.mu.Unlock()
}

// HealthMetrics returns a snapshot of the tracker state.
func (h *HealthTracker) HealthMetrics() health.Metrics {
	h.mu.RLock()
	defer h.mu.RUnlock()

	m := health.Metrics{
		Provider:     h.provider,
		Model:        h.model,
		Requests:     h.requests,
		FailureCount: h.failureCount,
		Available:    h.isHealthyLocked(),
	}
	if h.failureCount > 0 {
		t := h.failedAt
		m.LastFailureAt = &t
	}
	if !h.healthy {
		end := h.failedAt.Add(h.cooldown)
		m.CooldownUntil = &end
	}
	return m
}
