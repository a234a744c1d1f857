// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package types

// Event is an external occurrence tested for relevance against a user's
// holdings. Only ID, Title and Description take part in matching; the
// remaining fields are carried through to callers untouched.
type Event struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Image       string   `json:"image,omitempty" yaml:"image,omitempty"`
	Markets     []Market `json:"markets,omitempty" yaml:"markets,omitempty"`
}

// Market is a tradable question attached to an event.
type Market struct {
	ID       string    `json:"id" yaml:"id"`
	Question string    `json:"question" yaml:"question"`
	Image    string    `json:"image,omitempty" yaml:"image,omitempty"`
	Outcomes []Outcome `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
}

// Outcome is one possible resolution of a market. Price is nil when the
// upstream did not quote one.
type Outcome struct {
	Name  string   `json:"name" yaml:"name"`
	Price *float64 `json:"price,omitempty" yaml:"price,omitempty"`
}
