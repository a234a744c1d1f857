// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package store

import "errors"

// Sentinel errors for store operations, checked with errors.Is. Backends
// wrap them in coded errors so callers can also classify via pkg/errors.
var (
	// ErrNotFound indicates the requested portfolio or asset does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input parameters are invalid or malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDatabase is a catch-all for unexpected database failures.
	ErrDatabase = errors.New("database error")
)
