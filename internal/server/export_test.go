// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package server

import "time"

// IPLimiter exposes the per-IP limiter to external tests.
type IPLimiter struct{ l *ipLimiter }

func NewIPLimiter(cfg RateLimitConfig, now func() time.Time) *IPLimiter {
	return &IPLimiter{l: newIPLimiter(cfg, now)}
}

func (i *IPLimiter) Allow(ip string) bool { return i.l.allow(ip) }

func (i *IPLimiter) Sweep() { i.l.sweep() }

func (i *IPLimiter) Len() int {
	i.l.mu.Lock()
	defer i.l.mu.Unlock()
	return len(i.l.visitors)
}
