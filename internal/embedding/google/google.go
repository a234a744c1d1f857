// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package google

import (
	"context"

	"google.golang.org/genai"

	"github.com/consensus-dev/consensus/internal/embedding"
	conserr "github.com/consensus-dev/consensus/pkg/errors"
	"github.com/consensus-dev/consensus/pkg/health"
)

const (
	// DefaultModel is the Gemini embedding model used when none is configured.
	DefaultModel = "gemini-embedding-001"
	taskType     = "SEMANTIC_SIMILARITY"
)

func init() {
	embedding.Register("google", func(cfg embedding.Config) (embedding.Provider, error) {
		return New(cfg)
	})
}

// Provider embeds texts with the Gemini API.
type Provider struct {
	client  *genai.Client
	model   string
	dims    int
	batcher *embedding.Batcher
}

var (
	_ embedding.Provider       = (*Provider)(nil)
	_ embedding.HealthReporter = (*Provider)(nil)
)

// New creates a Gemini embedding provider. The API key is required.
func New(cfg embedding.Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, conserr.New(conserr.CodeEmbeddingRequestInvalid,
			"google: missing api_key in config", conserr.FieldProvider("google"))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, conserr.Wrapf(err, conserr.CodeEmbeddingUpstreamFailure, "google: creating client")
	}

	tracker, err := embedding.NewHealthTracker("google", model, embedding.DefaultHealthCooldown)
	if err != nil {
		return nil, err
	}

	return &Provider{
		client: client,
		model:  model,
		dims:   cfg.Dimensions,
		batcher: &embedding.Batcher{
			Size:    cfg.BatchSize,
			Limiter: embedding.NewLimiter(cfg.RequestsPerSecond),
			Health:  tracker,
		},
	}, nil
}

func (p *Provider) Name() string  { return "google" }
func (p *Provider) Model() string { return p.model }
func (p *Provider) Close() error  { return nil }

func (p *Provider) HealthMetrics() health.Metrics {
	return p.batcher.Health.HealthMetrics()
}

func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return p.batcher.Run(ctx, texts, p.embedBatch)
}

func (p *Provider) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	resp, err := p.client.Models.EmbedContent(ctx, p.model, contents(batch), embedConfig(p.dims))
	if err != nil {
		return nil, conserr.Wrap(err, conserr.CodeEmbeddingUpstreamFailure,
			"google: embedding request failed", conserr.FieldProvider("google"))
	}
	return vectors(resp)
}

// contents maps each text to its own single-part content so the API
// returns one embedding per text.
func contents(batch []string) []*genai.Content {
	out := make([]*genai.Content, len(batch))
	for i, text := range batch {
		out[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}
	return out
}

func embedConfig(dims int) *genai.EmbedContentConfig {
	cfg := &genai.EmbedContentConfig{TaskType: taskType}
	if dims > 0 {
		cfg.OutputDimensionality = genai.Ptr(int32(dims))
	}
	return cfg
}

func vectors(resp *genai.EmbedContentResponse) ([][]float32, error) {
	if resp == nil {
		return nil, conserr.New(conserr.CodeEmbeddingResponseInvalid,
			"google: empty embedding response", conserr.FieldProvider("google"))
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, conserr.Errorf(conserr.CodeEmbeddingResponseInvalid,
				"google: embedding %d missing from response", i)
		}
		out[i] = e.Values
	}
	return out, nil
}
