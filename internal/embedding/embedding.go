// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package embedding

import (
	"context"
	"slices"
	"sync"

	conserr "github.com/consensus-dev/consensus/pkg/errors"
	"github.com/consensus-dev/consensus/pkg/health"
)

// Provider turns texts into embedding vectors.
//
// Embed returns exactly one vector per input text, in input order, and all
// vectors share one dimensionality. A failure is all-or-nothing: either every
// vector is returned or an error is. An empty input yields an empty result
// without contacting the upstream.
type Provider interface {
	Name() string
	Model() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}

// HealthReporter is implemented by providers that track upstream health.
type HealthReporter interface {
	HealthMetrics() health.Metrics
}

// Config is the backend-agnostic provider configuration.
type Config struct {
	APIKey   string
	Endpoint string // optional base URL override
	Model    string // empty selects the backend default
	// Dimensions requests a reduced output size where the model supports
	// it. Zero keeps the model default.
	Dimensions        int
	BatchSize         int
	RequestsPerSecond float64
}

// Factory builds a provider from configuration.
type Factory func(cfg Config) (Provider, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// Register makes a backend available under name. Backend packages call
// this from init().
func Register(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// New builds the provider registered under name.
func New(name string, cfg Config) (Provider, error) {
	factoriesMu.RLock()
	f, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, conserr.New(conserr.CodeEmbeddingNotFound,
			"unknown embedding provider", conserr.FieldProvider(name))
	}
	return f(cfg)
}

// Names lists registered backends in sorted order.
func Names() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
