// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package embedding

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	apperrors "github.com/kraklabs/vibeindex/internal/errors"
)

// OpenAIProvider implements Provider over openai-go/v3's Embeddings
// API, grounded on vvoland-cagent's pkg/model/provider/openai/client.go
// batch-embedding call, adapted from []float64 batch results to the
// single-text, channel-agnostic Provider contract this package exposes.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider constructs a provider for the given API key and
// embedding model name (e.g. "text-embedding-3-small").
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Embed requests one embedding. Channel is not forwarded: OpenAI's
// embeddings endpoint has no notion of content type, so every channel
// shares the same model.
func (p *OpenAIProvider) Embed(ctx context.Context, _ Channel, text string) (Vector, error) {
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
		Model: p.model,
	})
	if err != nil {
		return nil, apperrors.New(apperrors.KindEmbedding, "embed", "openai embeddings request failed", err).WithRetryable()
	}
	if len(resp.Data) == 0 {
		return nil, apperrors.New(apperrors.KindEmbedding, "embed", "openai returned no embedding", nil).WithRetryable()
	}
	raw := resp.Data[0].Embedding
	vec := make(Vector, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}
