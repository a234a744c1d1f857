// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package store

import (
	"time"

	"github.com/consensus-dev/consensus/pkg/types"
)

// Portfolio is a user's set of tracked assets, in insertion order.
type Portfolio struct {
	ID        string    `json:"id" yaml:"id"`
	UserID    string    `json:"user_id" yaml:"user_id"`
	Assets    []Asset   `json:"assets" yaml:"assets"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Asset is one position in a portfolio. Keywords and Description feed the
// holding text used for matching.
type Asset struct {
	ID          string   `json:"id" yaml:"id"`
	Symbol      string   `json:"symbol" yaml:"symbol"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Quantity    float64  `json:"quantity" yaml:"quantity"`
	Value       float64  `json:"value,omitempty" yaml:"value,omitempty"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Holding converts the asset into its matching representation.
func (a Asset) Holding() types.Holding {
	return types.Holding{
		Keywords:    append([]string(nil), a.Keywords...),
		Description: a.Description,
	}
}

// Holdings converts every asset, preserving order.
func (p *Portfolio) Holdings() []types.Holding {
	out := make([]types.Holding, len(p.Assets))
	for i, a := range p.Assets {
		out[i] = a.Holding()
	}
	return out
}
