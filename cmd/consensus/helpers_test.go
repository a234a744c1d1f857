// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/consensus-dev/consensus/internal/secrets"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

// isolateHome points HOME at a temp dir so config discovery and
// bootstrapping never touch the real user's files.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(new(bytes.Buffer))
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// writeConfig marshals settings to a YAML file and returns its path.
func writeConfig(t *testing.T, settings map[string]any) string {
	t.Helper()
	data, err := yaml.Marshal(settings)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "consensus.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// testConfig returns settings for the openai provider against fake
// upstreams, with state under a fresh data directory.
func testConfig(t *testing.T, embeddingsURL, eventsURL string) map[string]any {
	t.Helper()
	return map[string]any{
		"embedding": map[string]any{
			"provider": "openai",
			"model":    "test-model",
		},
		"providers": map[string]any{
			"openai": map[string]any{
				"api_key":  "test-key",
				"endpoint": embeddingsURL,
			},
		},
		"events": map[string]any{
			"endpoint": eventsURL,
		},
		"cache":    map[string]any{"ttl": "0s"},
		"data_dir": t.TempDir(),
	}
}

const testEvents = `[
  {"id": "16167", "title": "Fed decision in December?", "description": "Resolves on the FOMC statement."},
  {"id": "2001", "title": "OPEC output cut?", "description": "Crude supply."},
  {"id": "3001", "title": "Fed Cup final: Spain vs Italy", "description": "Tennis."}
]`

// fakeEventsServer serves testEvents on /events.
func fakeEventsServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testEvents))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// fakeEmbeddingsServer answers OpenAI-style embedding requests. Texts
// mentioning the Fed land on one axis, oil on another, everything else on a
// third.
func fakeEmbeddingsServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data := make([]map[string]any, len(req.Input))
		for i, text := range req.Input {
			vec := []float64{0, 0, 1}
			switch {
			case strings.Contains(text, "Fed"):
				vec = []float64{1, 0, 0}
			case strings.Contains(text, "OPEC"), strings.Contains(text, "oil"):
				vec = []float64{0, 1, 0}
			}
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": vec}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// mockSecretStore is an in-memory secrets.Store.
type mockSecretStore struct {
	data map[string]string
}

func newMockSecretStore(keys ...string) *mockSecretStore {
	m := &mockSecretStore{data: make(map[string]string)}
	for _, k := range keys {
		m.data[k] = "redacted"
	}
	return m
}

func (m *mockSecretStore) Store(_, key, value string) error {
	m.data[key] = value
	return nil
}

func (m *mockSecretStore) Retrieve(_, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", conserr.Errorf(conserr.CodeSecretNotFound, "not found")
	}
	return v, nil
}

func (m *mockSecretStore) Delete(_, key string) error {
	if _, ok := m.data[key]; !ok {
		return conserr.Errorf(conserr.CodeSecretNotFound, "not found")
	}
	delete(m.data, key)
	return nil
}

func (m *mockSecretStore) List(_ string) ([]string, error) {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func useSecretStore(t *testing.T, s secrets.Store) {
	t.Helper()
	orig := secretStoreFactory
	secretStoreFactory = func() secrets.Store { return s }
	t.Cleanup(func() { secretStoreFactory = orig })
}
