// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/consensus-dev/consensus/internal/store"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

// Compile-time interface check.
var _ store.PortfolioStore = (*PortfolioStore)(nil)

// PortfolioStore implements store.PortfolioStore backed by SQLite.
type PortfolioStore struct {
	db  *sql.DB
	now func() time.Time
}

const portfolioDDL = `
CREATE TABLE IF NOT EXISTS portfolios (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS assets (
	id           TEXT PRIMARY KEY,
	portfolio_id TEXT NOT NULL,
	position     INTEGER NOT NULL,
	symbol       TEXT NOT NULL,
	symbol_key   TEXT NOT NULL,
	name         TEXT NOT NULL DEFAULT '',
	quantity     REAL NOT NULL DEFAULT 0,
	value        REAL NOT NULL DEFAULT 0,
	keywords     TEXT NOT NULL DEFAULT '[]',
	description  TEXT NOT NULL DEFAULT '',
	UNIQUE (portfolio_id, symbol_key),
	FOREIGN KEY (portfolio_id) REFERENCES portfolios(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_assets_portfolio ON assets(portfolio_id, position);
`

// NewPortfolioStore opens (or creates) a SQLite database at dbPath and
// initialises the portfolio tables.
func NewPortfolioStore(dbPath string) (*PortfolioStore, error) {
	db, err := open(dbPath, portfolioDDL)
	if err != nil {
		return nil, err
	}
	return &PortfolioStore{db: db, now: time.Now}, nil
}

func (s *PortfolioStore) Create(ctx context.Context, userID string) (*store.Portfolio, error) {
	if err := store.ValidateUserID(userID); err != nil {
		return nil, err
	}
	if err := s.ensure(ctx, s.db, userID); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PortfolioStore) ensure(ctx context.Context, db execer, userID string) error {
	now := formatTime(s.now())
	const q = `INSERT INTO portfolios(id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO NOTHING`
	if _, err := db.ExecContext(ctx, q, uuid.NewString(), userID, now, now); err != nil {
		return dbError(err, "creating portfolio")
	}
	return nil
}

func (s *PortfolioStore) Get(ctx context.Context, userID string) (*store.Portfolio, error) {
	if err := store.ValidateUserID(userID); err != nil {
		return nil, err
	}

	var p store.Portfolio
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, updated_at FROM portfolios WHERE user_id = ?`, userID,
	).Scan(&p.ID, &p.UserID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, conserr.Wrap(store.ErrNotFound, conserr.CodeStorePortfolioNotFound,
			"portfolio not found", conserr.FieldUserID(userID))
	}
	if err != nil {
		return nil, dbError(err, "getting portfolio")
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)

	assets, err := s.assets(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Assets = assets
	return &p, nil
}

func (s *PortfolioStore) assets(ctx context.Context, portfolioID string) ([]store.Asset, error) {
	const q = `SELECT id, symbol, name, quantity, value, keywords, description
FROM assets WHERE portfolio_id = ? ORDER BY position`

	rows, err := s.db.QueryContext(ctx, q, portfolioID)
	if err != nil {
		return nil, dbError(err, "listing assets")
	}
	defer func() { _ = rows.Close() }()

	assets := []store.Asset{}
	for rows.Next() {
		var a store.Asset
		var keywords string
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Name, &a.Quantity, &a.Value, &keywords, &a.Description); err != nil {
			return nil, dbError(err, "scanning asset")
		}
		if err := json.Unmarshal([]byte(keywords), &a.Keywords); err != nil {
			return nil, dbError(err, "decoding asset keywords")
		}
		if a.Keywords == nil {
			a.Keywords = []string{}
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating assets")
	}
	return assets, nil
}

func (s *PortfolioStore) AddAsset(ctx context.Context, userID string, asset store.Asset) (*store.Portfolio, error) {
	if err := store.ValidateUserID(userID); err != nil {
		return nil, err
	}
	asset.Symbol = strings.TrimSpace(asset.Symbol)
	if err := asset.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, dbError(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.ensure(ctx, tx, userID); err != nil {
		return nil, err
	}

	var portfolioID string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM portfolios WHERE user_id = ?`, userID).Scan(&portfolioID); err != nil {
		return nil, dbError(err, "resolving portfolio")
	}

	keywords := asset.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	kwJSON, err := json.Marshal(keywords)
	if err != nil {
		return nil, dbError(err, "encoding asset keywords")
	}

	symbolKey := strings.ToLower(asset.Symbol)
	var existingID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM assets WHERE portfolio_id = ? AND symbol_key = ?`, portfolioID, symbolKey,
	).Scan(&existingID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		const q = `INSERT INTO assets(id, portfolio_id, position, symbol, symbol_key, name, quantity, value, keywords, description)
VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM assets WHERE portfolio_id = ?), ?, ?, ?, ?, ?, ?, ?)`
		if _, err := tx.ExecContext(ctx, q, uuid.NewString(), portfolioID, portfolioID,
			asset.Symbol, symbolKey, asset.Name, asset.Quantity, asset.Value, string(kwJSON), asset.Description); err != nil {
			return nil, dbError(err, "inserting asset")
		}
	case err != nil:
		return nil, dbError(err, "looking up asset")
	default:
		// Empty fields keep the stored value; see store.PortfolioStore.
		const q = `UPDATE assets SET
	quantity    = quantity + ?,
	name        = CASE WHEN ? <> '' THEN ? ELSE name END,
	value       = CASE WHEN ? > 0 THEN ? ELSE value END,
	keywords    = CASE WHEN ? > 0 THEN ? ELSE keywords END,
	description = CASE WHEN ? <> '' THEN ? ELSE description END
WHERE id = ?`
		if _, err := tx.ExecContext(ctx, q,
			asset.Quantity,
			asset.Name, asset.Name,
			asset.Value, asset.Value,
			len(keywords), string(kwJSON),
			asset.Description, asset.Description,
			existingID); err != nil {
			return nil, dbError(err, "updating asset")
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE portfolios SET updated_at = ? WHERE id = ?`,
		formatTime(s.now()), portfolioID); err != nil {
		return nil, dbError(err, "touching portfolio")
	}

	if err := tx.Commit(); err != nil {
		return nil, dbError(err, "committing asset")
	}
	return s.Get(ctx, userID)
}

func (s *PortfolioStore) RemoveAsset(ctx context.Context, userID, symbol string) error {
	if err := store.ValidateUserID(userID); err != nil {
		return err
	}

	p, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE portfolio_id = ? AND symbol_key = ?`,
		p.ID, strings.ToLower(strings.TrimSpace(symbol)))
	if err != nil {
		return dbError(err, "deleting asset")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(err, "deleting asset")
	}
	if n == 0 {
		return conserr.Wrap(store.ErrNotFound, conserr.CodeStoreAssetNotFound,
			"asset not found", conserr.FieldUserID(userID), conserr.Field("symbol", symbol))
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE portfolios SET updated_at = ? WHERE id = ?`,
		formatTime(s.now()), p.ID); err != nil {
		return dbError(err, "touching portfolio")
	}
	return nil
}

// Close closes the underlying database connection.
func (s *PortfolioStore) Close() error {
	return s.db.Close()
}
