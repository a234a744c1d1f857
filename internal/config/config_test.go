// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/consensus-dev/consensus/internal/config"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

func validConfig() *config.Config {
	return &config.Config{
		Networking: config.NetworkingConfig{Listen: "127.0.0.1:18790"},
		Embedding: config.EmbeddingConfig{
			Provider:  "google",
			BatchSize: 100,
			Cache:     true,
		},
		Matching: config.MatchingConfig{
			SimilarityThreshold: 0.717,
			UniquenessMargin:    0.02,
			ExcludeTitleTerms:   []string{" vs "},
		},
		Events: config.EventsConfig{
			Endpoint: "https://gamma-api.polymarket.com",
			Limit:    50,
			Order:    "volume24hr",
			Timeout:  30 * time.Second,
		},
		Cache:   config.CacheConfig{TTL: 10 * time.Minute, SizeMB: 32},
		Storage: config.StorageConfig{Backend: "sqlite"},
		DataDir: "/var/lib/consensus",
	}
}

func requireErrContaining(t *testing.T, errs []error, frag string) {
	t.Helper()
	require.NotEmpty(t, errs)
	for _, err := range errs {
		if strings.Contains(err.Error(), frag) {
			assert.NotEmpty(t, conserr.CodeOf(err), "error should carry a code: %v", err)
			return
		}
	}
	t.Fatalf("expected an error containing %q, got %v", frag, errs)
}

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:18790", cfg.Networking.Listen)
	assert.Empty(t, cfg.Networking.CORSOrigins)
	assert.Equal(t, "google", cfg.Embedding.Provider)
	assert.Empty(t, cfg.Embedding.Model)
	assert.Equal(t, 100, cfg.Embedding.BatchSize)
	assert.True(t, cfg.Embedding.Cache)
	assert.Equal(t, 0.717, cfg.Matching.SimilarityThreshold)
	assert.Equal(t, 0.02, cfg.Matching.UniquenessMargin)
	assert.Equal(t, []string{" vs ", " vs. "}, cfg.Matching.ExcludeTitleTerms)
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.Events.Endpoint)
	assert.Equal(t, 50, cfg.Events.Limit)
	assert.Equal(t, "volume24hr", cfg.Events.Order)
	assert.Equal(t, 30*time.Second, cfg.Events.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 32, cfg.Cache.SizeMB)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consensus.yaml")
	content := `
networking:
  listen: "0.0.0.0:9999"
embedding:
  provider: voyage
  dimensions: 512
providers:
  voyage:
    api_key: "test-key"
matching:
  similarity_threshold: 0.8
events:
  timeout: 5s
cache:
  ttl: 0s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.Networking.Listen)
	assert.Equal(t, "voyage", cfg.Embedding.Provider)
	assert.Equal(t, 512, cfg.Embedding.Dimensions)
	assert.Equal(t, "test-key", cfg.Provider().APIKey)
	assert.Equal(t, 0.8, cfg.Matching.SimilarityThreshold)
	assert.Equal(t, 0.02, cfg.Matching.UniquenessMargin, "unset keys keep defaults")
	assert.Equal(t, 5*time.Second, cfg.Events.Timeout)
	assert.Zero(t, cfg.Cache.TTL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, conserr.HasCode(err, conserr.CodeConfigLoadReadFailure))
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CONSENSUS_NETWORKING_LISTEN", "10.0.0.1:8080")
	t.Setenv("CONSENSUS_MATCHING_UNIQUENESS_MARGIN", "0.05")
	t.Setenv("CONSENSUS_EMBEDDING_PROVIDER", "openai")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:8080", cfg.Networking.Listen)
	assert.Equal(t, 0.05, cfg.Matching.UniquenessMargin)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
}

func TestLoad_ValidationCalledAtLoadTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "consensus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedding:\n  provider: cohere\n"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding.provider")
}

func TestFromViper_EnvRejectedValue(t *testing.T) {
	t.Setenv("CONSENSUS_MATCHING_SIMILARITY_THRESHOLD", "1.5")

	v := viper.New()
	config.SetDefaults(v)
	config.SetupEnv(v)

	_, err := config.FromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matching")
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.Empty(t, validConfig().Validate())
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"empty listen", func(c *config.Config) { c.Networking.Listen = "" }, "networking.listen must not be empty"},
		{"listen without port", func(c *config.Config) { c.Networking.Listen = "localhost" }, "valid host:port"},
		{"listen port not numeric", func(c *config.Config) { c.Networking.Listen = ":http" }, "must be a number"},
		{"listen port out of range", func(c *config.Config) { c.Networking.Listen = ":70000" }, "between 1 and 65535"},
		{"relative cors origin", func(c *config.Config) { c.Networking.CORSOrigins = []string{"example.com"} }, "cors_origins[0]"},
		{"negative rate", func(c *config.Config) { c.Networking.RateLimit.RequestsPerSecond = -1 }, "requests_per_second must not be negative"},
		{"rate without burst", func(c *config.Config) { c.Networking.RateLimit.RequestsPerSecond = 5 }, "burst must be positive"},
		{"unknown provider", func(c *config.Config) { c.Embedding.Provider = "cohere" }, "embedding.provider"},
		{"negative dimensions", func(c *config.Config) { c.Embedding.Dimensions = -1 }, "embedding.dimensions"},
		{"zero batch size", func(c *config.Config) { c.Embedding.BatchSize = 0 }, "embedding.batch_size"},
		{"negative embedding rate", func(c *config.Config) { c.Embedding.RequestsPerSecond = -2 }, "embedding.requests_per_second"},
		{"relative provider endpoint", func(c *config.Config) {
			c.Providers = map[string]config.ProviderConfig{"openai": {Endpoint: "/v1"}}
		}, "providers.openai.endpoint"},
		{"threshold above one", func(c *config.Config) { c.Matching.SimilarityThreshold = 1.2 }, "matching"},
		{"negative margin", func(c *config.Config) { c.Matching.UniquenessMargin = -0.1 }, "matching"},
		{"empty exclude term", func(c *config.Config) { c.Matching.ExcludeTitleTerms = []string{""} }, "exclude_title_terms[0]"},
		{"relative events endpoint", func(c *config.Config) { c.Events.Endpoint = "gamma" }, "events.endpoint"},
		{"zero events limit", func(c *config.Config) { c.Events.Limit = 0 }, "events.limit"},
		{"empty events order", func(c *config.Config) { c.Events.Order = "" }, "events.order"},
		{"zero events timeout", func(c *config.Config) { c.Events.Timeout = 0 }, "events.timeout"},
		{"negative cache ttl", func(c *config.Config) { c.Cache.TTL = -time.Second }, "cache.ttl"},
		{"cache without size", func(c *config.Config) { c.Cache.SizeMB = 0 }, "cache.size_mb"},
		{"unknown backend", func(c *config.Config) { c.Storage.Backend = "postgres" }, "storage.backend"},
		{"empty data dir", func(c *config.Config) { c.DataDir = "" }, "data_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			requireErrContaining(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidate_CacheDisabledNeedsNoSize(t *testing.T) {
	cfg := validConfig()
	cfg.Cache = config.CacheConfig{}
	assert.Empty(t, cfg.Validate())
}

func TestValidate_WildcardOrigin(t *testing.T) {
	cfg := validConfig()
	cfg.Networking.CORSOrigins = []string{"*", "https://app.example.com"}
	assert.Empty(t, cfg.Validate())
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Networking.Listen = ""
	cfg.Embedding.Provider = ""
	cfg.Storage.Backend = ""

	assert.Len(t, cfg.Validate(), 3)
}

func TestDefaultConfigYAML_LoadsAndValidates(t *testing.T) {
	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(config.DefaultConfigYAML, &parsed))

	path := filepath.Join(t.TempDir(), "consensus.yaml")
	require.NoError(t, os.WriteFile(path, config.DefaultConfigYAML, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "keyring://consensus/google-api-key", cfg.Provider().APIKey)
}

func TestBootstrapAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "consensus.yaml")

	assert.Equal(t, path, config.BootstrapAt(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfigYAML, data)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.Empty(t, config.BootstrapAt(path), "existing file is left alone")
}

func TestMatchingConfig_MatchConfig(t *testing.T) {
	mc := validConfig().Matching.MatchConfig()
	assert.Equal(t, 0.717, mc.SimilarityThreshold)
	assert.Equal(t, 0.02, mc.UniquenessMargin)
}
