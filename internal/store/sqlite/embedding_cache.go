// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/consensus-dev/consensus/internal/store"
)

func init() {
	sqlite_vec.Auto()
}

// Compile-time interface check.
var _ store.EmbeddingCache = (*EmbeddingCache)(nil)

// queryChunk keeps IN (...) lists well below SQLite's variable limit.
const queryChunk = 500

const embeddingDDL = `
CREATE TABLE IF NOT EXISTS embeddings (
	key        TEXT PRIMARY KEY,
	dimensions INTEGER NOT NULL,
	vector     BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
`

// EmbeddingCache implements store.EmbeddingCache backed by SQLite. Vectors
// are stored in the sqlite-vec float32 blob format.
type EmbeddingCache struct {
	db  *sql.DB
	now func() time.Time
}

// NewEmbeddingCache opens (or creates) a SQLite database at dbPath and
// initialises the embeddings table.
func NewEmbeddingCache(dbPath string) (*EmbeddingCache, error) {
	db, err := open(dbPath, embeddingDDL)
	if err != nil {
		return nil, err
	}
	return &EmbeddingCache{db: db, now: time.Now}, nil
}

func (c *EmbeddingCache) Get(ctx context.Context, keys []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(keys))
	for start := 0; start < len(keys); start += queryChunk {
		chunk := keys[start:min(start+queryChunk, len(keys))]
		if err := c.getChunk(ctx, chunk, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *EmbeddingCache) getChunk(ctx context.Context, keys []string, out map[string][]float32) error {
	placeholders := strings.Repeat("?,", len(keys))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT key, vec_to_json(vector) FROM embeddings WHERE key IN (`+placeholders+`)`, args...)
	if err != nil {
		return dbError(err, "reading embeddings")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return dbError(err, "scanning embedding")
		}
		var v []float32
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return dbError(err, "decoding embedding")
		}
		out[key] = v
	}
	if err := rows.Err(); err != nil {
		return dbError(err, "iterating embeddings")
	}
	return nil
}

func (c *EmbeddingCache) Put(ctx context.Context, entries map[string][]float32) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	const q = `INSERT INTO embeddings(key, dimensions, vector, created_at) VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET dimensions = excluded.dimensions, vector = excluded.vector, created_at = excluded.created_at`
	now := c.now().Unix()
	for key, v := range entries {
		blob, err := sqlite_vec.SerializeFloat32(v)
		if err != nil {
			return dbError(err, "serializing embedding")
		}
		if _, err := tx.ExecContext(ctx, q, key, len(v), blob, now); err != nil {
			return dbError(err, "storing embedding")
		}
	}

	if err := tx.Commit(); err != nil {
		return dbError(err, "committing embeddings")
	}
	return nil
}

// Prune deletes entries stored before cutoff and returns how many were removed.
func (c *EmbeddingCache) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM embeddings WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, dbError(err, "pruning embeddings")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dbError(err, "pruning embeddings")
	}
	return n, nil
}

// Close closes the underlying database connection.
func (c *EmbeddingCache) Close() error {
	return c.db.Close()
}
