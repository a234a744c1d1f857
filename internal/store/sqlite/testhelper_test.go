// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/consensus-dev/consensus/internal/store/sqlite"
)

// testDBPath returns a SQLite database path inside a per-test temp dir.
func testDBPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name+".db")
}

func newPortfolioStore(t *testing.T) *sqlite.PortfolioStore {
	t.Helper()
	s, err := sqlite.NewPortfolioStore(testDBPath(t, "portfolios"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newEmbeddingCache(t *testing.T) *sqlite.EmbeddingCache {
	t.Helper()
	c, err := sqlite.NewEmbeddingCache(testDBPath(t, "embeddings"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}
