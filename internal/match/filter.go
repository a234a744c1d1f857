// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package match

import (
	"strings"

	"github.com/consensus-dev/consensus/pkg/types"
)

// Filter decides whether a ranked match is kept in the output.
// Returning false drops the event.
type Filter func(types.Event) bool

// DefaultExcludedTitleTerms marks head-to-head events, which are out of
// domain for portfolio matching.
var DefaultExcludedTitleTerms = []string{" vs ", " vs. "}

// ExcludeTitleTerms drops events whose title contains any of terms,
// compared case-insensitively. Empty terms are ignored.
func ExcludeTitleTerms(terms ...string) Filter {
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		lowered = append(lowered, strings.ToLower(t))
	}

	return func(e types.Event) bool {
		title := strings.ToLower(e.Title)
		for _, t := range lowered {
			if strings.Contains(title, t) {
				return false
			}
		}
		return true
	}
}

// DefaultFilters returns the filters applied when none are configured.
func DefaultFilters() []Filter {
	return []Filter{ExcludeTitleTerms(DefaultExcludedTitleTerms...)}
}
