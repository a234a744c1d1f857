// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package google

var (
	Contents    = contents
	EmbedConfig = embedConfig
	Vectors     = vectors
)
