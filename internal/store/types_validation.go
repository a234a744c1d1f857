// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package store

import (
	"math"
	"strings"

	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

// Validate checks that the Asset can be stored.
func (a Asset) Validate() error {
	if strings.TrimSpace(a.Symbol) == "" {
		return conserr.New(conserr.CodeStoreInvalidInput, "asset: Symbol is required")
	}
	if math.IsNaN(a.Quantity) || math.IsInf(a.Quantity, 0) || a.Quantity < 0 {
		return conserr.Errorf(conserr.CodeStoreInvalidInput, "asset: invalid quantity %v", a.Quantity)
	}
	if math.IsNaN(a.Value) || math.IsInf(a.Value, 0) || a.Value < 0 {
		return conserr.Errorf(conserr.CodeStoreInvalidInput, "asset: invalid value %v", a.Value)
	}
	for i, k := range a.Keywords {
		if strings.TrimSpace(k) == "" {
			return conserr.Errorf(conserr.CodeStoreInvalidInput, "asset: keyword %d is empty", i)
		}
	}
	return nil
}

// ValidateUserID rejects empty user identifiers.
func ValidateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return conserr.New(conserr.CodeStoreInvalidInput, "user id is required")
	}
	return nil
}
