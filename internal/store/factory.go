// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package store

import (
	"sync"

	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

// BackendFactory opens the stores of a backend rooted at dataPath.
type BackendFactory func(dataPath string) (PortfolioStore, EmbeddingCache, error)

var (
	factories   = map[string]BackendFactory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers the factory for a named storage backend.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, f BackendFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// resolveBackend returns the effective backend name, defaulting to "sqlite".
func resolveBackend(cfg *StorageConfig) string {
	if cfg == nil || cfg.Backend == "" {
		return "sqlite"
	}
	return cfg.Backend
}

// NewStores opens the portfolio store and embedding cache for cfg.
func NewStores(cfg *StorageConfig, dataPath string) (PortfolioStore, EmbeddingCache, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, nil, conserr.New(conserr.CodeStoreBackendUnsupported,
			"unsupported storage backend", conserr.Field("backend", backend))
	}

	return factory(dataPath)
}
