// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package types

// Holding is a user's tracked item matched against events.
type Holding struct {
	Keywords    []string `json:"keywords" yaml:"keywords"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}
