// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package sqlite

import (
	"os"
	"path/filepath"

	"github.com/consensus-dev/consensus/internal/store"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

func init() {
	store.RegisterBackend("sqlite", newStores)
}

func newStores(dataPath string) (store.PortfolioStore, store.EmbeddingCache, error) {
	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, nil, conserr.Wrap(err, conserr.CodeStoreDatabaseFailure, "creating data directory",
			conserr.Field("path", dataPath))
	}

	ps, err := NewPortfolioStore(filepath.Join(dataPath, "portfolios.db"))
	if err != nil {
		return nil, nil, err
	}

	ec, err := NewEmbeddingCache(filepath.Join(dataPath, "embeddings.db"))
	if err != nil {
		_ = ps.Close()
		return nil, nil, err
	}

	return ps, ec, nil
}
