// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package analysis_test

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/consensus-dev/consensus/internal/analysis"
	"github.com/consensus-dev/consensus/internal/match"
	"github.com/consensus-dev/consensus/pkg/types"
)

type staticEvents struct {
	events []types.Event
	err    error
}

func (s staticEvents) Events(context.Context) ([]types.Event, error) {
	return s.events, s.err
}

type staticHoldings struct {
	byUser map[string][]types.Holding
	err    error
}

func (s staticHoldings) Holdings(_ context.Context, userID string) ([]types.Holding, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byUser[userID], nil
}

// lookupEmbedder returns a fixed vector per text. Unknown texts are an error.
type lookupEmbedder struct {
	vectors map[string][]float32
	err     error
	// short drops the last vector of any call with more than one text.
	short bool
	calls atomic.Int32
}

func (l *lookupEmbedder) Name() string  { return "lookup" }
func (l *lookupEmbedder) Model() string { return "lookup-v1" }
func (l *lookupEmbedder) Close() error  { return nil }

func (l *lookupEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, ok := l.vectors[t]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", t)
		}
		out = append(out, v)
	}
	if l.short && len(out) > 1 {
		out = out[:len(out)-1]
	}
	return out, nil
}

// at returns a unit vector whose cosine with {1, 0, 0, ...} is sim.
func at(sim float64, axis, dim int) []float32 {
	v := make([]float32, dim)
	v[0] = float32(sim)
	v[axis] = float32(math.Sqrt(1 - sim*sim))
	return v
}

func basis(dim int) []float32 {
	v := make([]float32, dim)
	v[0] = 1
	return v
}

var (
	fedEvent    = types.Event{ID: "e1", Title: "Fed raises rates", Description: "25bp"}
	oilEvent    = types.Event{ID: "e2", Title: "OPEC cuts output", Description: "oil"}
	sportsEvent = types.Event{ID: "e3", Title: "Lakers vs Celtics", Description: "NBA"}

	bankHolding = types.Holding{Keywords: []string{"banking", "rates"}, Description: "JPM"}
	goldHolding = types.Holding{Keywords: []string{"gold"}}
)

// fixture wires a Service over three events and one or two holdings. The
// holding side sits on the first axis; events are placed by similarity.
func fixture(t *testing.T, holdings []types.Holding, vectors map[string][]float32) (*analysis.Service, *lookupEmbedder) {
	t.Helper()
	emb := &lookupEmbedder{vectors: vectors}
	engine, err := match.NewEngine(match.DefaultConfig())
	require.NoError(t, err)

	svc, err := analysis.NewService(
		staticEvents{events: []types.Event{fedEvent, oilEvent, sportsEvent}},
		staticHoldings{byUser: map[string][]types.Holding{"u1": holdings}},
		emb, engine)
	require.NoError(t, err)
	return svc, emb
}

func singleHoldingVectors() map[string][]float32 {
	return map[string][]float32{
		match.EventText(fedEvent):      at(0.85, 1, 4),
		match.EventText(oilEvent):      at(0.30, 2, 4),
		match.EventText(sportsEvent):   at(0.95, 3, 4),
		match.HoldingText(bankHolding): basis(4),
	}
}
