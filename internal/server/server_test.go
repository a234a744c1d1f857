// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package server_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consensus-dev/consensus/internal/server"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
	"github.com/consensus-dev/consensus/pkg/health"
)

func TestNew_RequiresListenAddr(t *testing.T) {
	_, err := server.New(server.Config{})
	require.Error(t, err)
	assert.True(t, conserr.HasCode(err, conserr.CodeServerConfigInvalid))
}

func TestNew_RejectsInvalidRateLimit(t *testing.T) {
	_, err := server.New(server.Config{
		ListenAddr: "127.0.0.1:0",
		RateLimit:  server.RateLimitConfig{RequestsPerSecond: 5},
	})
	require.Error(t, err)
	assert.True(t, conserr.HasCode(err, conserr.CodeServerConfigInvalid))
}

func TestHealth_WithoutServices(t *testing.T) {
	srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body server.HealthBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Nil(t, body.Provider)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	assert.Equal(t, http.StatusNotFound, w.Code, "api routes need services")
}

func TestHealth_ReportsProvider(t *testing.T) {
	tests := []struct {
		name       string
		available  bool
		wantStatus string
	}{
		{"available", true, "ok"},
		{"cooling down", false, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := server.NewServices(&fakeMatcher{}, &fakeExplainer{}, &fakeEvents{}, newMemPortfolios())
			require.NoError(t, err)
			svc.SetHealthReporter(staticHealth{metrics: health.Metrics{
				Provider:     "openai",
				Model:        "text-embedding-3-small",
				Requests:     4,
				FailureCount: 1,
				Available:    tt.available,
			}})
			srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0", Services: svc})
			require.NoError(t, err)
			t.Cleanup(func() { _ = srv.Close() })

			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			require.Equal(t, http.StatusOK, w.Code)
			var body server.HealthBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			require.NotNil(t, body.Provider)
			assert.Equal(t, "openai", body.Provider.Provider)
			assert.Equal(t, int64(4), body.Provider.Requests)
			assert.Equal(t, int64(1), body.Provider.FailureCount)
		})
	}
}

func TestOpenAPI_ListsRoutes(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/openapi.json", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "Consensus API", doc.Info.Title)
	assert.Equal(t, "dev", doc.Info.Version)
	for _, p := range []string{
		"/health",
		"/api/v1/analysis/summary",
		"/api/v1/analysis/report",
		"/api/v1/events",
		"/api/v1/portfolio",
		"/api/v1/portfolio/assets",
		"/api/v1/portfolio/assets/{symbol}",
	} {
		assert.Contains(t, doc.Paths, p)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		allowed bool
	}{
		{"default origin", nil, server.DefaultCORSOrigin, true},
		{"default rejects others", nil, "https://evil.example", false},
		{"configured origin", []string{"https://app.example"}, "https://app.example", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := server.New(server.Config{ListenAddr: "127.0.0.1:0", CORSOrigins: tt.origins})
			require.NoError(t, err)
			t.Cleanup(func() { _ = srv.Close() })

			req := httptest.NewRequest(http.MethodOptions, "/health", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			req.Header.Set("Access-Control-Request-Headers", server.UserHeader)
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			if tt.allowed {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv, err := server.New(server.Config{ListenAddr: addr})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.NoError(t, srv.Close(), "close after shutdown is a no-op")
}

func TestServer_StartFailsOnBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	srv, err := server.New(server.Config{ListenAddr: ln.Addr().String()})
	require.NoError(t, err)

	err = srv.Start(context.Background())
	require.Error(t, err)
	assert.True(t, conserr.HasCode(err, conserr.CodeServerStartFailure))
}

func TestNewServices_RequiresAll(t *testing.T) {
	m, e, ev, p := &fakeMatcher{}, &fakeExplainer{}, &fakeEvents{}, newMemPortfolios()

	_, err := server.NewServices(nil, e, ev, p)
	assert.Error(t, err)
	_, err = server.NewServices(m, nil, ev, p)
	assert.Error(t, err)
	_, err = server.NewServices(m, e, nil, p)
	assert.Error(t, err)
	_, err = server.NewServices(m, e, ev, nil)
	assert.Error(t, err)
	_, err = server.NewServices(m, e, ev, p)
	assert.NoError(t, err)
}
