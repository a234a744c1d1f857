// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/consensus-dev/consensus/internal/store"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

// open opens (or creates) the database at dbPath and applies ddl.
func open(dbPath, ddl string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, dbError(err, "opening sqlite db")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, dbError(err, "pinging sqlite db")
	}

	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, dbError(err, "migrating sqlite db")
	}

	return db, nil
}

// dbError tags an unexpected driver error as a store database failure.
func dbError(err error, msg string) error {
	return conserr.Wrap(fmt.Errorf("%w: %w", store.ErrDatabase, err), conserr.CodeStoreDatabaseFailure, msg)
}

// formatTime serialises a time.Time to RFC3339 with nanosecond precision.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime deserialises a time string stored in the database.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
