// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package match

import (
	"cmp"
	"log/slog"
	"math"
	"slices"

	conserr "github.com/consensus-dev/consensus/pkg/errors"
	"github.com/consensus-dev/consensus/pkg/types"
)

// NoCandidate is the similarity reported when there is no holding to
// compare against, either for best (no holdings) or second-best (one holding).
var NoCandidate = math.Inf(-1)

// Record is an accepted match.
type Record struct {
	EventID              string
	EventTitle           string
	BestSimilarity       float64
	SecondBestSimilarity float64
	HoldingIndex         int
	EventIndex           int
}

// Decision is the verdict for a single event, accepted or not.
type Decision struct {
	EventIndex   int
	EventID      string
	EventTitle   string
	Best         float64
	SecondBest   float64
	HoldingIndex int
	Accepted     bool
	// Filtered is set when an accepted event was dropped by a post-filter.
	Filtered bool
}

// Margin is the gap between the best and second-best similarity. It is
// +Inf when there was no second candidate.
func (d Decision) Margin() float64 {
	return d.Best - d.SecondBest
}

// Result is the full outcome of a match run.
type Result struct {
	// Decisions holds one entry per event in input order.
	Decisions []Decision
	// Ranked holds accepted records by descending best similarity, before
	// post-filtering.
	Ranked []Record
	// Events is the ranked, filtered output.
	Events []types.Event
}

// Engine decides which events have a strong, unambiguous match among a set
// of holdings. It holds no per-run state and is safe for concurrent use.
type Engine struct {
	cfg     Config
	filters []Filter
}

// NewEngine validates cfg and returns an Engine. When no filters are given
// DefaultFilters is used; pass an always-true filter to disable filtering.
func NewEngine(cfg Config, filters ...Filter) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		filters = DefaultFilters()
	}
	return &Engine{cfg: cfg, filters: filters}, nil
}

// Config returns the acceptance policy in use.
func (e *Engine) Config() Config {
	return e.cfg
}

// Match returns the events that clear the threshold and uniqueness checks,
// ranked by best similarity and post-filtered.
func (e *Engine) Match(events []types.Event, eventEmbeddings, holdingEmbeddings [][]float32) ([]types.Event, error) {
	res, err := e.Evaluate(events, eventEmbeddings, holdingEmbeddings)
	if err != nil {
		return nil, err
	}
	return res.Events, nil
}

// Evaluate runs the match and returns every decision alongside the output.
func (e *Engine) Evaluate(events []types.Event, eventEmbeddings, holdingEmbeddings [][]float32) (*Result, error) {
	if len(eventEmbeddings) != len(events) {
		return nil, conserr.Errorf(conserr.CodeMatchEmbeddingCountMismatch,
			"event embedding count mismatch: %d events, %d embeddings", len(events), len(eventEmbeddings))
	}

	res := &Result{
		Decisions: make([]Decision, 0, len(events)),
		Events:    []types.Event{},
	}

	for i, ev := range events {
		best, second, idx, err := topTwo(eventEmbeddings[i], holdingEmbeddings)
		if err != nil {
			return nil, conserr.With(err, conserr.FieldEventID(ev.ID))
		}

		d := Decision{
			EventIndex:   i,
			EventID:      ev.ID,
			EventTitle:   ev.Title,
			Best:         best,
			SecondBest:   second,
			HoldingIndex: idx,
			Accepted:     e.accepts(best, second, len(holdingEmbeddings)),
		}

		if d.Accepted {
			res.Ranked = append(res.Ranked, Record{
				EventID:              ev.ID,
				EventTitle:           ev.Title,
				BestSimilarity:       best,
				SecondBestSimilarity: second,
				HoldingIndex:         idx,
				EventIndex:           i,
			})
			slog.Debug("match accepted",
				"event", ev.ID, "best", best, "second_best", second, "holding_index", idx)
		} else {
			slog.Debug("match rejected",
				"event", ev.ID, "best", best, "second_best", second, "margin", d.Margin())
		}
		res.Decisions = append(res.Decisions, d)
	}

	slices.SortStableFunc(res.Ranked, func(a, b Record) int {
		return cmp.Compare(b.BestSimilarity, a.BestSimilarity)
	})

	for _, r := range res.Ranked {
		ev := events[r.EventIndex]
		if !e.keep(ev) {
			res.Decisions[r.EventIndex].Filtered = true
			slog.Debug("match filtered", "event", ev.ID, "title", ev.Title)
			continue
		}
		res.Events = append(res.Events, ev)
	}

	slog.Info("match run complete",
		"threshold", e.cfg.SimilarityThreshold,
		"margin", e.cfg.UniquenessMargin,
		"events", len(events),
		"holdings", len(holdingEmbeddings),
		"matched", len(res.Ranked),
		"returned", len(res.Events))

	return res, nil
}

func (e *Engine) accepts(best, second float64, holdings int) bool {
	if holdings == 0 || best < e.cfg.SimilarityThreshold {
		return false
	}
	return holdings <= 1 || best-second >= e.cfg.UniquenessMargin
}

func (e *Engine) keep(ev types.Event) bool {
	for _, f := range e.filters {
		if !f(ev) {
			return false
		}
	}
	return true
}

// topTwo scans holdings once, tracking the best and second-best similarity
// and the index of the best. With no holdings it reports NoCandidate and -1.
func topTwo(vec []float32, holdings [][]float32) (best, second float64, idx int, err error) {
	best, second, idx = NoCandidate, NoCandidate, -1
	for j, h := range holdings {
		sim, err := CosineSimilarity(vec, h)
		if err != nil {
			return 0, 0, -1, err
		}
		switch {
		case sim > best:
			second = best
			best, idx = sim, j
		case sim > second:
			second = sim
		}
	}
	return best, second, idx, nil
}
