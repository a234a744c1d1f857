// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package voyage

var (
	RequestOpts = requestOpts
	Vectors     = vectors
)
