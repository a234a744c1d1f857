// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package types

import (
	"strings"

	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

// OutputFormat selects how CLI results are rendered.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// Valid reports whether f is a recognized output format.
func (f OutputFormat) Valid() bool {
	switch f {
	case OutputText, OutputJSON, OutputYAML:
		return true
	default:
		return false
	}
}

// ParseOutputFormat parses a case-insensitive string into an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", conserr.Errorf(conserr.CodeCLIInputInvalid,
			"invalid output format: %q", s)
	}
	return f, nil
}
