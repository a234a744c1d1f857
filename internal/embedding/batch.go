// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package embedding

import (
	"context"

	conserr "github.com/consensus-dev/consensus/pkg/errors"
	"golang.org/x/time/rate"
)

// DefaultBatchSize bounds how many texts go into a single upstream request.
const DefaultBatchSize = 100

// Batches splits texts into consecutive chunks of at most size elements.
// A non-positive size uses DefaultBatchSize.
func Batches(texts []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	out := make([][]string, 0, (len(texts)+size-1)/size)
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		out = append(out, texts[start:end])
	}
	return out
}

// CheckBatch verifies an upstream response against its request: one vector
// per text, none empty, all of the same length.
func CheckBatch(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return conserr.Errorf(conserr.CodeEmbeddingResponseInvalid,
			"embedding response has %d vectors for %d texts", len(vectors), len(texts))
	}
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 {
			return conserr.Errorf(conserr.CodeEmbeddingResponseInvalid,
				"embedding %d is empty", i)
		}
		if len(v) != dim {
			return conserr.Errorf(conserr.CodeEmbeddingResponseInvalid,
				"embedding %d has %d dimensions, expected %d", i, len(v), dim)
		}
	}
	return nil
}

// NewLimiter returns a limiter allowing rps upstream requests per second,
// or nil when rps is not positive.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := max(int(rps), 1)
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// BatchFunc embeds one batch against an upstream API.
type BatchFunc func(ctx context.Context, batch []string) ([][]float32, error)

// Batcher runs a BatchFunc over a full input, applying batching, request
// throttling, response checks and health tracking. Backends embed one.
type Batcher struct {
	Size    int
	Limiter *rate.Limiter
	Health  *HealthTracker
}

// Run embeds texts batch by batch and concatenates the results in order.
// The first failing batch aborts the run; no partial result is returned.
func (b *Batcher) Run(ctx context.Context, texts []string, fn BatchFunc) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, 0, len(texts))
	dim := -1
	for _, batch := range Batches(texts, b.Size) {
		if b.Limiter != nil {
			if err := b.Limiter.Wait(ctx); err != nil {
				return nil, conserr.Wrap(err, conserr.CodeEmbeddingUpstreamFailure, "waiting for rate limiter")
			}
		}

		vectors, err := fn(ctx, batch)
		if err == nil {
			err = CheckBatch(batch, vectors)
		}
		if err == nil && dim >= 0 && len(vectors[0]) != dim {
			err = conserr.Errorf(conserr.CodeEmbeddingResponseInvalid,
				"batch dimensions changed from %d to %d", dim, len(vectors[0]))
		}
		if b.Health != nil {
			b.Health.Record(err)
		}
		if err != nil {
			return nil, err
		}

		dim = len(vectors[0])
		out = append(out, vectors...)
	}
	return out, nil
}
