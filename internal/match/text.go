// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package match

import (
	"strings"

	"github.com/consensus-dev/consensus/pkg/types"
)

// EventText is the text embedded for an event: the title and description
// separated by a newline. No normalization or truncation is applied.
func EventText(e types.Event) string {
	return e.Title + "\n" + e.Description
}

// HoldingText is the text embedded for a holding: its keywords one per line,
// followed by a newline and the description.
func HoldingText(h types.Holding) string {
	return strings.Join(h.Keywords, "\n") + "\n" + h.Description
}

// EventTexts returns one text per event, position for position.
func EventTexts(events []types.Event) []string {
	texts := make([]string, len(events))
	for i, e := range events {
		texts[i] = EventText(e)
	}
	return texts
}

// HoldingTexts returns one text per holding, position for position.
func HoldingTexts(holdings []types.Holding) []string {
	texts := make([]string, len(holdings))
	for i, h := range holdings {
		texts[i] = HoldingText(h)
	}
	return texts
}
