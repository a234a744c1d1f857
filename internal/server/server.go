// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

// Package server exposes the match pipeline and portfolio management over
// HTTP with an OpenAPI description.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	conserr "github.com/consensus-dev/consensus/pkg/errors"
	"github.com/consensus-dev/consensus/pkg/health"
)

// DefaultCORSOrigin is allowed when no origins are configured.
const DefaultCORSOrigin = "http://localhost:5173"

// UserHeader carries the caller's user ID.
const UserHeader = "X-User-ID"

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr   string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RateLimit    RateLimitConfig
	// Services registers the API routes when set. Without it only /health
	// and the OpenAPI document are served.
	Services *Services
	Version  string
}

// Server wraps a chi router with a huma API.
type Server struct {
	router    chi.Router
	api       huma.API
	cfg       Config
	services  *Services
	done      chan struct{}
	closeOnce sync.Once
}

// New builds the router, middleware and routes.
func New(cfg Config) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, conserr.New(conserr.CodeServerConfigInvalid, "listen address is required")
	}
	if err := cfg.RateLimit.Validate(); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// A report run embeds every event upstream.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	s := &Server{
		cfg:      cfg,
		services: cfg.Services,
		done:     make(chan struct{}),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(rateLimitMiddleware(cfg.RateLimit, s.done))
	r.Use(corsMiddleware(cfg.CORSOrigins))

	humaConfig := huma.DefaultConfig("Consensus API", cfg.Version)
	humaConfig.Info.Description = "Matches external events to the holdings of a portfolio"
	s.router = r
	s.api = humachi.New(r, humaConfig)

	huma.Register(s.api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, s.handleHealth)

	if s.services != nil {
		s.registerRoutes()
	}

	return s, nil
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// API returns the huma API for registering additional operations.
func (s *Server) API() huma.API {
	return s.api
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return conserr.Wrapf(err, conserr.CodeServerStartFailure, "listening on %s", s.cfg.ListenAddr)
	}
	defer s.Close()

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return conserr.Wrap(err, conserr.CodeServerStartFailure, "serving http")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return conserr.Wrap(err, conserr.CodeServerShutdownFailure, "shutting down")
	}
	return <-errCh
}

// Close stops background goroutines. It is safe to call more than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// HealthBody is the JSON body of the health endpoint.
type HealthBody struct {
	Status   string          `json:"status" example:"ok" doc:"ok, or degraded while the embedding provider is cooling down"`
	Provider *health.Metrics `json:"provider,omitempty" doc:"Embedding provider health, when tracked"`
}

// HealthResponse wraps the health check response.
type HealthResponse struct {
	Body HealthBody
}

func (s *Server) handleHealth(_ context.Context, _ *struct{}) (*HealthResponse, error) {
	out := &HealthResponse{Body: HealthBody{Status: "ok"}}
	if s.services == nil || s.services.health == nil {
		return out, nil
	}

	m := s.services.health.HealthMetrics()
	out.Body.Provider = &m
	if !m.Available {
		out.Body.Status = "degraded"
	}
	return out, nil
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{DefaultCORSOrigin}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", UserHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
