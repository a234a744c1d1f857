// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package config

import (
	"errors"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/consensus-dev/consensus/internal/match"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

// EnvPrefix is the prefix for environment overrides, e.g.
// CONSENSUS_MATCHING_SIMILARITY_THRESHOLD.
const EnvPrefix = "CONSENSUS"

// Embedding providers that can be named in embedding.provider.
var knownProviders = []string{"google", "openai", "voyage"}

// Config is the top-level consensus configuration.
type Config struct {
	Networking NetworkingConfig          `mapstructure:"networking"`
	Embedding  EmbeddingConfig           `mapstructure:"embedding"`
	Providers  map[string]ProviderConfig `mapstructure:"providers"`
	Matching   MatchingConfig            `mapstructure:"matching"`
	Events     EventsConfig              `mapstructure:"events"`
	Cache      CacheConfig               `mapstructure:"cache"`
	Storage    StorageConfig             `mapstructure:"storage"`
	DataDir    string                    `mapstructure:"data_dir"`
}

// NetworkingConfig controls the HTTP listener.
type NetworkingConfig struct {
	Listen      string          `mapstructure:"listen"`
	CORSOrigins []string        `mapstructure:"cors_origins"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig sets per-IP request limits. Zero requests per second
// disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider          string  `mapstructure:"provider"`
	Model             string  `mapstructure:"model"`
	Dimensions        int     `mapstructure:"dimensions"`
	BatchSize         int     `mapstructure:"batch_size"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Cache             bool    `mapstructure:"cache"`
}

// ProviderConfig holds credentials and endpoint for an embedding provider.
type ProviderConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// MatchingConfig is the acceptance policy.
type MatchingConfig struct {
	SimilarityThreshold float64  `mapstructure:"similarity_threshold"`
	UniquenessMargin    float64  `mapstructure:"uniqueness_margin"`
	ExcludeTitleTerms   []string `mapstructure:"exclude_title_terms"`
}

// MatchConfig returns the engine configuration.
func (m MatchingConfig) MatchConfig() match.Config {
	return match.Config{
		SimilarityThreshold: m.SimilarityThreshold,
		UniquenessMargin:    m.UniquenessMargin,
	}
}

// EventsConfig points at the event source.
type EventsConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Limit    int           `mapstructure:"limit"`
	Order    string        `mapstructure:"order"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// CacheConfig sizes the per-user result cache. A zero TTL disables it.
type CacheConfig struct {
	TTL    time.Duration `mapstructure:"ttl"`
	SizeMB int           `mapstructure:"size_mb"`
}

// StorageConfig selects the storage backend.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

// DefaultDataDir returns ~/.local/share/consensus, or a relative
// directory when the home directory cannot be resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".consensus"
	}
	return filepath.Join(home, ".local", "share", "consensus")
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	def := match.DefaultConfig()

	v.SetDefault("networking.listen", "127.0.0.1:18790")
	v.SetDefault("networking.cors_origins", []string{})
	v.SetDefault("networking.rate_limit.requests_per_second", 0.0)
	v.SetDefault("networking.rate_limit.burst", 0)
	v.SetDefault("embedding.provider", "google")
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.dimensions", 0)
	v.SetDefault("embedding.batch_size", 100)
	v.SetDefault("embedding.requests_per_second", 0.0)
	v.SetDefault("embedding.cache", true)
	v.SetDefault("matching.similarity_threshold", def.SimilarityThreshold)
	v.SetDefault("matching.uniqueness_margin", def.UniquenessMargin)
	v.SetDefault("matching.exclude_title_terms", append([]string(nil), match.DefaultExcludedTitleTerms...))
	v.SetDefault("events.endpoint", "https://gamma-api.polymarket.com")
	v.SetDefault("events.limit", 50)
	v.SetDefault("events.order", "volume24hr")
	v.SetDefault("events.timeout", 30*time.Second)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.size_mb", 32)
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("data_dir", DefaultDataDir())
}

// SetupEnv enables CONSENSUS_ environment overrides on v.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, conserr.Errorf(conserr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, conserr.Errorf(conserr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Load reads configuration from path (or defaults only when empty) with
// CONSENSUS_ environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, conserr.Errorf(conserr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// Provider returns the settings for the configured embedding provider.
func (c *Config) Provider() ProviderConfig {
	return c.Providers[c.Embedding.Provider]
}

// Validate checks the configuration for logical errors. It collects every
// problem rather than stopping at the first.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateNetworking()...)
	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateMatching()...)
	errs = append(errs, c.validateEvents()...)
	errs = append(errs, c.validateCache()...)
	errs = append(errs, c.validateStorage()...)

	return errs
}

func invalid(format string, args ...any) error {
	return conserr.Errorf(conserr.CodeConfigValidateInvalidValue, "config: "+format, args...)
}

func (c *Config) validateNetworking() []error {
	var errs []error

	if c.Networking.Listen == "" {
		errs = append(errs, invalid("networking.listen must not be empty"))
	} else if _, portStr, err := net.SplitHostPort(c.Networking.Listen); err != nil {
		errs = append(errs, invalid("networking.listen must be a valid host:port address, got %q: %w",
			c.Networking.Listen, err))
	} else if port, err := strconv.Atoi(portStr); err != nil {
		errs = append(errs, invalid("networking.listen port must be a number, got %q", portStr))
	} else if port < 1 || port > 65535 {
		errs = append(errs, invalid("networking.listen port must be between 1 and 65535, got %d", port))
	}

	for i, origin := range c.Networking.CORSOrigins {
		if origin == "*" {
			continue
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, invalid("networking.cors_origins[%d] must be an absolute origin, got %q", i, origin))
		}
	}

	rl := c.Networking.RateLimit
	if rl.RequestsPerSecond < 0 {
		errs = append(errs, invalid("networking.rate_limit.requests_per_second must not be negative, got %g",
			rl.RequestsPerSecond))
	}
	if rl.RequestsPerSecond > 0 && rl.Burst <= 0 {
		errs = append(errs, invalid("networking.rate_limit.burst must be positive when a rate is set, got %d",
			rl.Burst))
	}

	return errs
}

func (c *Config) validateEmbedding() []error {
	var errs []error
	e := c.Embedding

	if !slices.Contains(knownProviders, e.Provider) {
		errs = append(errs, invalid("embedding.provider must be one of [%s], got %q",
			strings.Join(knownProviders, ", "), e.Provider))
	}

	if e.Dimensions < 0 {
		errs = append(errs, invalid("embedding.dimensions must not be negative, got %d", e.Dimensions))
	}
	if e.BatchSize <= 0 {
		errs = append(errs, invalid("embedding.batch_size must be greater than 0, got %d", e.BatchSize))
	}
	if e.RequestsPerSecond < 0 {
		errs = append(errs, invalid("embedding.requests_per_second must not be negative, got %g", e.RequestsPerSecond))
	}

	for name, p := range c.Providers {
		if p.Endpoint == "" {
			continue
		}
		if u, err := url.Parse(p.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, invalid("providers.%s.endpoint must be an absolute URL, got %q", name, p.Endpoint))
		}
	}

	return errs
}

func (c *Config) validateMatching() []error {
	var errs []error

	if err := c.Matching.MatchConfig().Validate(); err != nil {
		errs = append(errs, invalid("matching: %w", err))
	}
	for i, term := range c.Matching.ExcludeTitleTerms {
		if term == "" {
			errs = append(errs, invalid("matching.exclude_title_terms[%d] must not be empty", i))
		}
	}

	return errs
}

func (c *Config) validateEvents() []error {
	var errs []error

	if u, err := url.Parse(c.Events.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, invalid("events.endpoint must be an absolute URL, got %q", c.Events.Endpoint))
	}
	if c.Events.Limit <= 0 {
		errs = append(errs, invalid("events.limit must be greater than 0, got %d", c.Events.Limit))
	}
	if c.Events.Order == "" {
		errs = append(errs, invalid("events.order must not be empty"))
	}
	if c.Events.Timeout <= 0 {
		errs = append(errs, invalid("events.timeout must be greater than 0, got %s", c.Events.Timeout))
	}

	return errs
}

func (c *Config) validateCache() []error {
	var errs []error

	if c.Cache.TTL < 0 {
		errs = append(errs, invalid("cache.ttl must not be negative, got %s", c.Cache.TTL))
	}
	if c.Cache.TTL > 0 && c.Cache.SizeMB <= 0 {
		errs = append(errs, invalid("cache.size_mb must be greater than 0 when cache.ttl is set, got %d",
			c.Cache.SizeMB))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	if c.Storage.Backend != "sqlite" {
		errs = append(errs, invalid("storage.backend must be one of [sqlite], got %q", c.Storage.Backend))
	}
	if c.DataDir == "" {
		errs = append(errs, invalid("data_dir must not be empty"))
	}

	return errs
}
