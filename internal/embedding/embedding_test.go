// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{Model: "mock", Dimensions: 8, BatchSize: 2, EnableCaching: true, APIKey: "test-key"}
}

func TestNew_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty model", Config{Dimensions: 8, BatchSize: 1, APIKey: "k"}},
		{"zero dimensions", Config{Model: "m", BatchSize: 1, APIKey: "k"}},
		{"zero batch size", Config{Model: "m", Dimensions: 8, APIKey: "k"}},
		{"empty api key", Config{Model: "m", Dimensions: 8, BatchSize: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, &MockProvider{Dimensions: 8})
			assert.Error(t, err)
		})
	}
}

func TestEmbed_ReturnsUnitVector(t *testing.T) {
	svc, err := New(validConfig(), &MockProvider{Dimensions: 8})
	require.NoError(t, err)

	v, err := svc.Embed(context.Background(), ChannelCode, "function main() {}")
	require.NoError(t, err)
	require.Len(t, v, 8)

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, norm, 1e-4)
}

func TestEmbed_CachingReturnsByteIdenticalVectors(t *testing.T) {
	svc, err := New(validConfig(), &MockProvider{Dimensions: 8})
	require.NoError(t, err)

	v1, err := svc.Embed(context.Background(), ChannelCode, "same text")
	require.NoError(t, err)
	v2, err := svc.Embed(context.Background(), ChannelCode, "same text")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}

func TestEmbedBatch_PreservesOrderAndSplitsSubBatches(t *testing.T) {
	svc, err := New(validConfig(), &MockProvider{Dimensions: 8})
	require.NoError(t, err)

	texts := []string{"a", "b", "c", "d", "e"}
	results, diagnostics := svc.EmbedBatch(context.Background(), ChannelSemantic, texts)

	assert.Empty(t, diagnostics)
	require.Len(t, results, len(texts))
	for i, text := range texts {
		want, err := svc.Embed(context.Background(), ChannelSemantic, text)
		require.NoError(t, err)
		assert.Equal(t, want, results[i])
	}
}

func TestSimilarity_IdenticalVectorsNearOne(t *testing.T) {
	v := Vector{0.6, 0.8}
	assert.InDelta(t, 1.0, Similarity(v, v), 1e-6)
}

func TestSimilarity_OrthogonalVectorsNearZero(t *testing.T) {
	a := Vector{1, 0}
	b := Vector{0, 1}
	assert.InDelta(t, 0.0, Similarity(a, b), 1e-6)
}

func TestSimilarity_MismatchedLengthReturnsZero(t *testing.T) {
	assert.Equal(t, 0.0, Similarity(Vector{1, 2}, Vector{1}))
}
