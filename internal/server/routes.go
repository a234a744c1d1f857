// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/consensus-dev/consensus/internal/analysis"
	"github.com/consensus-dev/consensus/internal/store"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
	"github.com/consensus-dev/consensus/pkg/types"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "analysis-summary",
		Method:      http.MethodGet,
		Path:        "/api/v1/analysis/summary",
		Summary:     "Events relevant to the caller's portfolio",
		Tags:        []string{"analysis"},
	}, s.handleSummary)

	huma.Register(s.api, huma.Operation{
		OperationID: "analysis-report",
		Method:      http.MethodGet,
		Path:        "/api/v1/analysis/report",
		Summary:     "Per-event match decisions for the caller's portfolio",
		Tags:        []string{"analysis"},
	}, s.handleReport)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/api/v1/events",
		Summary:     "Current candidate events",
		Tags:        []string{"events"},
	}, s.handleListEvents)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-portfolio",
		Method:      http.MethodGet,
		Path:        "/api/v1/portfolio",
		Summary:     "Get the caller's portfolio",
		Tags:        []string{"portfolio"},
	}, s.handleGetPortfolio)

	huma.Register(s.api, huma.Operation{
		OperationID: "add-asset",
		Method:      http.MethodPost,
		Path:        "/api/v1/portfolio/assets",
		Summary:     "Add or merge an asset",
		Tags:        []string{"portfolio"},
	}, s.handleAddAsset)

	huma.Register(s.api, huma.Operation{
		OperationID:   "remove-asset",
		Method:        http.MethodDelete,
		Path:          "/api/v1/portfolio/assets/{symbol}",
		Summary:       "Remove an asset",
		Tags:          []string{"portfolio"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleRemoveAsset)
}

// --- Request/Response types for huma ---

type userInput struct {
	UserID string `header:"X-User-ID" doc:"Caller's user ID"`
}

type eventList struct {
	Count  int           `json:"count" doc:"Number of events"`
	Events []types.Event `json:"events" doc:"Events, most relevant first where ranked"`
}

type summaryOutput struct {
	Body struct {
		UserID string `json:"user_id" doc:"Caller's user ID"`
		eventList
	}
}

type reportOutput struct {
	Body *analysis.Report
}

type eventsOutput struct {
	Body eventList
}

type portfolioOutput struct {
	Body *store.Portfolio
}

// AssetRequest is the body of an add-asset call.
type AssetRequest struct {
	Symbol      string   `json:"symbol" minLength:"1" doc:"Ticker or identifier, unique per portfolio case-insensitively"`
	Name        string   `json:"name,omitempty" doc:"Display name"`
	Quantity    float64  `json:"quantity,omitempty" minimum:"0" doc:"Units held, added to any existing position"`
	Value       float64  `json:"value,omitempty" minimum:"0" doc:"Position value"`
	Keywords    []string `json:"keywords,omitempty" doc:"Terms describing the holding for matching. When merging into an existing symbol, an empty list keeps the stored keywords"`
	Description string   `json:"description,omitempty" doc:"Free-text description used for matching"`
}

type addAssetInput struct {
	userInput
	Body AssetRequest
}

type removeAssetInput struct {
	userInput
	Symbol string `path:"symbol" doc:"Asset symbol, case-insensitive"`
}

// --- Handlers ---

func (s *Server) handleSummary(ctx context.Context, in *userInput) (*summaryOutput, error) {
	if err := store.ValidateUserID(in.UserID); err != nil {
		return nil, apiError("analysis summary", err)
	}

	events, err := s.services.matcher.Match(ctx, in.UserID)
	if err != nil {
		return nil, apiError("analysis summary", err)
	}

	out := &summaryOutput{}
	out.Body.UserID = in.UserID
	out.Body.eventList = newEventList(events)
	return out, nil
}

func (s *Server) handleReport(ctx context.Context, in *userInput) (*reportOutput, error) {
	if err := store.ValidateUserID(in.UserID); err != nil {
		return nil, apiError("analysis report", err)
	}

	rep, err := s.services.explainer.Explain(ctx, in.UserID)
	if err != nil {
		return nil, apiError("analysis report", err)
	}
	return &reportOutput{Body: rep}, nil
}

func (s *Server) handleListEvents(ctx context.Context, _ *struct{}) (*eventsOutput, error) {
	events, err := s.services.events.Events(ctx)
	if err != nil {
		return nil, apiError("listing events", err)
	}
	return &eventsOutput{Body: newEventList(events)}, nil
}

func (s *Server) handleGetPortfolio(ctx context.Context, in *userInput) (*portfolioOutput, error) {
	if err := store.ValidateUserID(in.UserID); err != nil {
		return nil, apiError("getting portfolio", err)
	}

	p, err := s.services.portfolios.Get(ctx, in.UserID)
	if err != nil {
		return nil, apiError("getting portfolio", err)
	}
	return &portfolioOutput{Body: p}, nil
}

func (s *Server) handleAddAsset(ctx context.Context, in *addAssetInput) (*portfolioOutput, error) {
	if err := store.ValidateUserID(in.UserID); err != nil {
		return nil, apiError("adding asset", err)
	}

	asset := store.Asset{
		Symbol:      in.Body.Symbol,
		Name:        in.Body.Name,
		Quantity:    in.Body.Quantity,
		Value:       in.Body.Value,
		Keywords:    in.Body.Keywords,
		Description: in.Body.Description,
	}
	p, err := s.services.portfolios.AddAsset(ctx, in.UserID, asset)
	if err != nil {
		return nil, apiError("adding asset", err)
	}

	s.services.invalidate(in.UserID)
	slog.Info("asset added", "user", in.UserID, "symbol", asset.Symbol)
	return &portfolioOutput{Body: p}, nil
}

func (s *Server) handleRemoveAsset(ctx context.Context, in *removeAssetInput) (*struct{}, error) {
	if err := store.ValidateUserID(in.UserID); err != nil {
		return nil, apiError("removing asset", err)
	}

	if err := s.services.portfolios.RemoveAsset(ctx, in.UserID, in.Symbol); err != nil {
		return nil, apiError("removing asset", err)
	}

	s.services.invalidate(in.UserID)
	slog.Info("asset removed", "user", in.UserID, "symbol", in.Symbol)
	return nil, nil
}

func newEventList(events []types.Event) eventList {
	if events == nil {
		events = []types.Event{}
	}
	return eventList{Count: len(events), Events: events}
}

// apiError maps a coded error onto an HTTP problem response.
func apiError(op string, err error) error {
	status := conserr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error(op+" failed", "code", conserr.CodeOf(err), "error", err)
	} else {
		slog.Debug(op+" rejected", "code", conserr.CodeOf(err), "error", err)
	}
	return huma.NewError(status, op+" failed", err)
}
