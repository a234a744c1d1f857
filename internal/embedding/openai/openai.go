// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package openai

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/consensus-dev/consensus/internal/embedding"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
	"github.com/consensus-dev/consensus/pkg/health"
)

// DefaultModel is the OpenAI embedding model used when none is configured.
const DefaultModel = "text-embedding-3-small"

func init() {
	embedding.Register("openai", func(cfg embedding.Config) (embedding.Provider, error) {
		return New(cfg)
	})
}

// Provider embeds texts with the OpenAI embeddings endpoint. Endpoint may
// point at any API-compatible server.
type Provider struct {
	client  openaisdk.Client
	model   string
	dims    int
	batcher *embedding.Batcher
}

var (
	_ embedding.Provider       = (*Provider)(nil)
	_ embedding.HealthReporter = (*Provider)(nil)
)

// New creates an OpenAI embedding provider. The API key is required.
func New(cfg embedding.Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, conserr.New(conserr.CodeEmbeddingRequestInvalid,
			"openai: missing api_key in config", conserr.FieldProvider("openai"))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}

	tracker, err := embedding.NewHealthTracker("openai", model, embedding.DefaultHealthCooldown)
	if err != nil {
		return nil, err
	}

	return &Provider{
		client: openaisdk.NewClient(opts...),
		model:  model,
		dims:   cfg.Dimensions,
		batcher: &embedding.Batcher{
			Size:    cfg.BatchSize,
			Limiter: embedding.NewLimiter(cfg.RequestsPerSecond),
			Health:  tracker,
		},
	}, nil
}

func (p *Provider) Name() string  { return "openai" }
func (p *Provider) Model() string { return p.model }
func (p *Provider) Close() error  { return nil }

func (p *Provider) HealthMetrics() health.Metrics {
	return p.batcher.Health.HealthMetrics()
}

func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return p.batcher.Run(ctx, texts, p.embedBatch)
}

func (p *Provider) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	params := openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: batch},
		Model: openaisdk.EmbeddingModel(p.model),
	}
	if p.dims > 0 {
		params.Dimensions = openaisdk.Int(int64(p.dims))
	}

	resp, err := p.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, conserr.Wrap(err, conserr.CodeEmbeddingUpstreamFailure,
			"openai: embedding request failed", conserr.FieldProvider("openai"))
	}
	return vectors(resp.Data, len(batch))
}

// vectors places each embedding at its reported index and narrows it to
// float32.
func vectors(data []openaisdk.Embedding, n int) ([][]float32, error) {
	if len(data) != n {
		return nil, conserr.Errorf(conserr.CodeEmbeddingResponseInvalid,
			"openai: %d embeddings for %d inputs", len(data), n)
	}
	out := make([][]float32, n)
	for _, d := range data {
		if d.Index < 0 || int(d.Index) >= n || out[d.Index] != nil {
			return nil, conserr.Errorf(conserr.CodeEmbeddingResponseInvalid,
				"openai: unexpected embedding index %d", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i, x := range d.Embedding {
			v[i] = float32(x)
		}
		out[d.Index] = v
	}
	return out, nil
}
