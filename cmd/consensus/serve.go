// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/consensus-dev/consensus/internal/config"
	"github.com/consensus-dev/consensus/internal/embedding"
	"github.com/consensus-dev/consensus/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  "Load configuration, wire the matching pipeline and serve the HTTP API until interrupted.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	_ = viper.BindPFlag("networking.listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := Wire(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Warn("closing resources", "error", err)
		}
	}()

	srv, err := newServer(cfg, app)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("serving", "listen", cfg.Networking.Listen, "provider", app.Embedder.Name(), "model", app.Embedder.Model())
	return srv.Start(ctx)
}

// newServer builds the HTTP server over a wired App.
func newServer(cfg *config.Config, app *App) (*server.Server, error) {
	svc, err := server.NewServices(app.Matcher, app.Service, app.Events, app.Portfolios)
	if err != nil {
		return nil, err
	}
	if app.Cache != nil {
		svc.SetInvalidator(app.Cache)
	}
	if hr, ok := app.Embedder.(embedding.HealthReporter); ok {
		svc.SetHealthReporter(hr)
	}

	return server.New(server.Config{
		ListenAddr:  cfg.Networking.Listen,
		CORSOrigins: cfg.Networking.CORSOrigins,
		RateLimit: server.RateLimitConfig{
			RequestsPerSecond: cfg.Networking.RateLimit.RequestsPerSecond,
			Burst:             cfg.Networking.RateLimit.Burst,
		},
		Services: svc,
		Version:  version,
	})
}

// commandContext returns cmd's context, or Background when run outside
// Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
