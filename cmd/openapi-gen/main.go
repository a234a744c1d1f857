// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/consensus-dev/consensus/internal/analysis"
	"github.com/consensus-dev/consensus/internal/server"
	"github.com/consensus-dev/consensus/internal/store"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
	"github.com/consensus-dev/consensus/pkg/types"
)

func main() {
	spec, err := generateSpec()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	outPath := "api/openapi/spec.json"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output dir: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(outPath, spec, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing spec: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OpenAPI spec written to %s\n", outPath)
}

// generateSpec creates a server with all routes registered and extracts the
// OpenAPI document huma builds from the handler types.
func generateSpec() ([]byte, error) {
	// Handlers are never invoked during spec generation.
	svc, err := server.NewServices(stubMatcher{}, stubExplainer{}, stubEvents{}, stubPortfolios{})
	if err != nil {
		return nil, err
	}

	srv, err := server.New(server.Config{
		ListenAddr: "127.0.0.1:0",
		Services:   svc,
	})
	if err != nil {
		return nil, conserr.Errorf(conserr.CodeCLISetupFailure, "creating server: %w", err)
	}

	return json.MarshalIndent(srv.API().OpenAPI(), "", "  ")
}

type stubMatcher struct{}

func (stubMatcher) Match(context.Context, string) ([]types.Event, error) { return nil, nil }

type stubExplainer struct{}

func (stubExplainer) Explain(context.Context, string) (*analysis.Report, error) { return nil, nil }

type stubEvents struct{}

func (stubEvents) Events(context.Context) ([]types.Event, error) { return nil, nil }

type stubPortfolios struct{}

func (stubPortfolios) Create(context.Context, string) (*store.Portfolio, error) { return nil, nil }
func (stubPortfolios) Get(context.Context, string) (*store.Portfolio, error)    { return nil, nil }
func (stubPortfolios) AddAsset(context.Context, string, store.Asset) (*store.Portfolio, error) {
	return nil, nil
}
func (stubPortfolios) RemoveAsset(context.Context, string, string) error { return nil }
func (stubPortfolios) Close() error                                      { return nil }
