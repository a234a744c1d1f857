// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package analysis

import (
	"math"
	"time"

	"github.com/consensus-dev/consensus/internal/match"
	"github.com/consensus-dev/consensus/pkg/types"
)

// Report explains a match run.
type Report struct {
	UserID              string        `json:"user_id" yaml:"user_id"`
	Provider            string        `json:"provider" yaml:"provider"`
	Model               string        `json:"model" yaml:"model"`
	SimilarityThreshold float64       `json:"similarity_threshold" yaml:"similarity_threshold"`
	UniquenessMargin    float64       `json:"uniqueness_margin" yaml:"uniqueness_margin"`
	EventCount          int           `json:"event_count" yaml:"event_count"`
	HoldingCount        int           `json:"holding_count" yaml:"holding_count"`
	Matched             int           `json:"matched" yaml:"matched"`
	Decisions           []Decision    `json:"decisions" yaml:"decisions"`
	Events              []types.Event `json:"events" yaml:"events"`
	GeneratedAt         time.Time     `json:"generated_at" yaml:"generated_at"`
}

// Decision is the verdict for one event. Similarities are nil where there
// was no candidate to compare against.
type Decision struct {
	EventID      string         `json:"event_id" yaml:"event_id"`
	EventTitle   string         `json:"event_title" yaml:"event_title"`
	Best         *float64       `json:"best,omitempty" yaml:"best,omitempty"`
	SecondBest   *float64       `json:"second_best,omitempty" yaml:"second_best,omitempty"`
	Margin       *float64       `json:"margin,omitempty" yaml:"margin,omitempty"`
	HoldingIndex int            `json:"holding_index" yaml:"holding_index"`
	Holding      *types.Holding `json:"holding,omitempty" yaml:"holding,omitempty"`
	Accepted     bool           `json:"accepted" yaml:"accepted"`
	Filtered     bool           `json:"filtered" yaml:"filtered"`
}

func (s *Service) report(userID string, r *run) *Report {
	cfg := s.engine.Config()
	rep := &Report{
		UserID:              userID,
		Provider:            s.embedder.Name(),
		Model:               s.embedder.Model(),
		SimilarityThreshold: cfg.SimilarityThreshold,
		UniquenessMargin:    cfg.UniquenessMargin,
		EventCount:          len(r.events),
		HoldingCount:        len(r.holdings),
		Matched:             len(r.result.Ranked),
		Decisions:           make([]Decision, len(r.result.Decisions)),
		Events:              r.result.Events,
		GeneratedAt:         s.now().UTC(),
	}

	for i, d := range r.result.Decisions {
		out := Decision{
			EventID:      d.EventID,
			EventTitle:   d.EventTitle,
			Best:         finite(d.Best),
			SecondBest:   finite(d.SecondBest),
			HoldingIndex: d.HoldingIndex,
			Accepted:     d.Accepted,
			Filtered:     d.Filtered,
		}
		if d.SecondBest != match.NoCandidate {
			out.Margin = finite(d.Margin())
		}
		if d.HoldingIndex >= 0 && d.HoldingIndex < len(r.holdings) {
			h := r.holdings[d.HoldingIndex]
			out.Holding = &h
		}
		rep.Decisions[i] = out
	}
	return rep
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
