// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/consensus-dev/consensus/internal/analysis"
	"github.com/consensus-dev/consensus/internal/server"
	"github.com/consensus-dev/consensus/internal/store"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
	"github.com/consensus-dev/consensus/pkg/health"
	"github.com/consensus-dev/consensus/pkg/types"
)

type fakeMatcher struct {
	events map[string][]types.Event
	err    error
}

func (f *fakeMatcher) Match(_ context.Context, userID string) ([]types.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events[userID], nil
}

type fakeExplainer struct {
	err error
}

func (f *fakeExplainer) Explain(_ context.Context, userID string) (*analysis.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	best := 0.82
	return &analysis.Report{
		UserID:              userID,
		Provider:            "fake",
		Model:               "fake-v1",
		SimilarityThreshold: 0.717,
		UniquenessMargin:    0.02,
		EventCount:          1,
		HoldingCount:        1,
		Matched:             1,
		Decisions: []analysis.Decision{{
			EventID:      "e1",
			EventTitle:   "Fed raises rates",
			Best:         &best,
			HoldingIndex: 0,
			Accepted:     true,
		}},
		Events:      []types.Event{{ID: "e1", Title: "Fed raises rates"}},
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

type fakeEvents struct {
	events []types.Event
	err    error
}

func (f *fakeEvents) Events(context.Context) ([]types.Event, error) {
	return f.events, f.err
}

// memPortfolios is a minimal in-memory PortfolioStore.
type memPortfolios struct {
	mu     sync.Mutex
	byUser map[string]*store.Portfolio
}

var _ store.PortfolioStore = (*memPortfolios)(nil)

func newMemPortfolios() *memPortfolios {
	return &memPortfolios{byUser: map[string]*store.Portfolio{}}
}

func (m *memPortfolios) Create(_ context.Context, userID string) (*store.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byUser[userID]; ok {
		return p, nil
	}
	p := &store.Portfolio{ID: "p-" + userID, UserID: userID, Assets: []store.Asset{}}
	m.byUser[userID] = p
	return p, nil
}

func (m *memPortfolios) Get(_ context.Context, userID string) (*store.Portfolio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byUser[userID]
	if !ok {
		return nil, conserr.Wrap(store.ErrNotFound, conserr.CodeStorePortfolioNotFound, "portfolio not found",
			conserr.FieldUserID(userID))
	}
	return p, nil
}

func (m *memPortfolios) AddAsset(ctx context.Context, userID string, asset store.Asset) (*store.Portfolio, error) {
	if err := asset.Validate(); err != nil {
		return nil, err
	}
	p, err := m.Create(ctx, userID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range p.Assets {
		if strings.EqualFold(a.Symbol, asset.Symbol) {
			p.Assets[i].Quantity += asset.Quantity
			return p, nil
		}
	}
	asset.ID = "a-" + asset.Symbol
	p.Assets = append(p.Assets, asset)
	return p, nil
}

func (m *memPortfolios) RemoveAsset(_ context.Context, userID, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byUser[userID]
	if ok {
		for i, a := range p.Assets {
			if strings.EqualFold(a.Symbol, symbol) {
				p.Assets = append(p.Assets[:i], p.Assets[i+1:]...)
				return nil
			}
		}
	}
	return conserr.Wrap(store.ErrNotFound, conserr.CodeStoreAssetNotFound, "asset not found")
}

func (m *memPortfolios) Close() error { return nil }

type recordingInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (r *recordingInvalidator) Invalidate(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
}

func (r *recordingInvalidator) Users() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.users...)
}

type staticHealth struct {
	metrics health.Metrics
}

func (s staticHealth) HealthMetrics() health.Metrics { return s.metrics }

type harness struct {
	srv         *server.Server
	matcher     *fakeMatcher
	explainer   *fakeExplainer
	events      *fakeEvents
	portfolios  *memPortfolios
	invalidator *recordingInvalidator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		matcher: &fakeMatcher{events: map[string][]types.Event{
			"u1": {{ID: "e1", Title: "Fed raises rates"}},
		}},
		explainer:   &fakeExplainer{},
		events:      &fakeEvents{events: []types.Event{{ID: "e1"}, {ID: "e2"}}},
		portfolios:  newMemPortfolios(),
		invalidator: &recordingInvalidator{},
	}

	svc, err := server.NewServices(h.matcher, h.explainer, h.events, h.portfolios)
	require.NoError(t, err)
	svc.SetInvalidator(h.invalidator)

	h.srv, err = server.New(server.Config{ListenAddr: "127.0.0.1:0", Services: svc})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.srv.Close() })
	return h
}

func (h *harness) do(method, path, userID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		req.Header.Set(server.UserHeader, userID)
	}
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)
	return w
}
