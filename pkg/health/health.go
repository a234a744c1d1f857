// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package health

import "time"

// Metrics is a point-in-time snapshot of an embedding backend's health,
// safe to serialize to JSON.
type Metrics struct {
	Provider      string     `json:"provider"`
	Model         string     `json:"model"`
	Requests      int64      `json:"requests"`
	FailureCount  int64      `json:"failure_count"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
	Available     bool       `json:"available"`
}
