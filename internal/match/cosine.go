// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package match

import (
	"math"

	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

// CosineSimilarity returns dot(a,b) / (|a| * |b|), accumulated in float64.
// The result is exactly 0 when either vector has zero norm. Vectors of
// different lengths are a contract violation and yield an error.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, conserr.Errorf(conserr.CodeMatchVectorLengthMismatch,
			"vector length mismatch: %d != %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
