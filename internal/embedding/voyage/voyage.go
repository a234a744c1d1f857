// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package voyage

import (
	"context"

	"github.com/austinfhunter/voyageai"

	"github.com/consensus-dev/consensus/internal/embedding"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
	"github.com/consensus-dev/consensus/pkg/health"
)

const (
	// DefaultModel is the Voyage embedding model used when none is configured.
	DefaultModel = "voyage-3.5-lite"
	// Events and holdings are compared symmetrically, so both sides are
	// embedded as documents.
	inputType = "document"
)

func init() {
	embedding.Register("voyage", func(cfg embedding.Config) (embedding.Provider, error) {
		return New(cfg)
	})
}

// Provider embeds texts with the Voyage AI API.
type Provider struct {
	client  *voyageai.VoyageClient
	model   string
	dims    int
	batcher *embedding.Batcher
}

var (
	_ embedding.Provider       = (*Provider)(nil)
	_ embedding.HealthReporter = (*Provider)(nil)
)

// New creates a Voyage embedding provider. The API key is required.
func New(cfg embedding.Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, conserr.New(conserr.CodeEmbeddingRequestInvalid,
			"voyage: missing api_key in config", conserr.FieldProvider("voyage"))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	tracker, err := embedding.NewHealthTracker("voyage", model, embedding.DefaultHealthCooldown)
	if err != nil {
		return nil, err
	}

	return &Provider{
		client: voyageai.NewClient(&voyageai.VoyageClientOpts{Key: cfg.APIKey}),
		model:  model,
		dims:   cfg.Dimensions,
		batcher: &embedding.Batcher{
			Size:    cfg.BatchSize,
			Limiter: embedding.NewLimiter(cfg.RequestsPerSecond),
			Health:  tracker,
		},
	}, nil
}

func (p *Provider) Name() string  { return "voyage" }
func (p *Provider) Model() string { return p.model }
func (p *Provider) Close() error  { return nil }

func (p *Provider) HealthMetrics() health.Metrics {
	return p.batcher.Health.HealthMetrics()
}

func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return p.batcher.Run(ctx, texts, p.embedBatch)
}

func (p *Provider) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, conserr.Wrap(err, conserr.CodeEmbeddingUpstreamFailure, "voyage: request cancelled")
	}

	resp, err := p.client.Embed(batch, p.model, requestOpts(p.dims))
	if err != nil {
		return nil, conserr.Wrap(err, conserr.CodeEmbeddingUpstreamFailure,
			"voyage: embedding request failed", conserr.FieldProvider("voyage"))
	}
	if resp == nil {
		return nil, conserr.New(conserr.CodeEmbeddingResponseInvalid,
			"voyage: empty embedding response", conserr.FieldProvider("voyage"))
	}
	return vectors(resp.Data), nil
}

func requestOpts(dims int) *voyageai.EmbeddingRequestOpts {
	it := inputType
	opts := &voyageai.EmbeddingRequestOpts{InputType: &it}
	if dims > 0 {
		opts.OutputDimension = &dims
	}
	return opts
}

func vectors(data []voyageai.EmbeddingObject) [][]float32 {
	out := make([][]float32, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return out
}
