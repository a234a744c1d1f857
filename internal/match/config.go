// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package match

import (
	"math"

	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

const (
	// DefaultSimilarityThreshold is the minimum cosine similarity between an
	// event and its best holding for the event to be accepted.
	DefaultSimilarityThreshold = 0.717
	// DefaultUniquenessMargin is the minimum gap between the best and
	// second-best similarity when the portfolio has more than one holding.
	DefaultUniquenessMargin    = 0.02
)

// Config holds the acceptance policy for a match run.
type Config struct {
	// SimilarityThreshold is the minimum best similarity an event needs.
	SimilarityThreshold float64
	// UniquenessMargin is the minimum gap between the best and second-best
	// similarity when more than one holding is present.
	UniquenessMargin float64
}

// DefaultConfig returns the stock acceptance policy.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: DefaultSimilarityThreshold,
		UniquenessMargin:    DefaultUniquenessMargin,
	}
}

// Validate rejects non-finite values, a threshold outside [-1, 1] and a
// negative margin.
func (c Config) Validate() error {
	if math.IsNaN(c.SimilarityThreshold) || c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1 {
		return conserr.Errorf(conserr.CodeMatchConfigInvalid,
			"similarity threshold must be within [-1, 1], got %v", c.SimilarityThreshold)
	}
	if math.IsNaN(c.UniquenessMargin) || math.IsInf(c.UniquenessMargin, 0) || c.UniquenessMargin < 0 {
		return conserr.Errorf(conserr.CodeMatchConfigInvalid,
			"uniqueness margin must be a non-negative number, got %v", c.UniquenessMargin)
	}
	return nil
}
