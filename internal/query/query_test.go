// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package query

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/vibeindex/internal/embedding"
	"github.com/kraklabs/vibeindex/internal/graph"
	"github.com/kraklabs/vibeindex/internal/model"
)

// fixedProvider returns a caller-supplied vector for an exact text match
// and a fixed default otherwise, letting tests control similarity
// ordering without depending on MockProvider's random hash-seeded output.
type fixedProvider struct {
	byText  map[string]embedding.Vector
	Default embedding.Vector
}

func (f *fixedProvider) Embed(_ context.Context, _ embedding.Channel, text string) (embedding.Vector, error) {
	if v, ok := f.byText[text]; ok {
		return v, nil
	}
	return f.Default, nil
}

func newTestBackend(t *testing.T) graph.Backend {
	t.Helper()
	store, err := graph.Open(filepath.Join(t.TempDir(), "code.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newElement(id, name string, vec embedding.Vector) model.CodeElement {
	now := time.Now()
	return model.CodeElement{
		ID:                id,
		FilePath:          "a.ts",
		Name:              name,
		Kind:              model.ElementFunction,
		ContentHash:       model.ComputeContentHash(name),
		Description:       "desc of " + name,
		SemanticEmbedding: vec,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestRun_RanksBySimilarityToEmbeddedQuery(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	close := embedding.Vector{1, 0, 0, 0}
	far := embedding.Vector{0, 1, 0, 0}
	_, err := backend.CreateElement(ctx, newElement("elem:validateUser", "validateUser", close))
	require.NoError(t, err)
	_, err = backend.CreateElement(ctx, newElement("elem:formatDate", "formatDate", far))
	require.NoError(t, err)

	provider := &fixedProvider{byText: map[string]embedding.Vector{"user validation": close}}
	svc, err := embedding.New(embedding.Config{Model: "fixed", Dimensions: 4, BatchSize: 1, APIKey: "test"}, provider)
	require.NoError(t, err)

	hits, err := Run(ctx, svc, backend, "user validation", Options{Threshold: 0.3})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "validateUser", hits[0].Element.Name)
	assert.Greater(t, hits[0].Similarity, 0.3)
}

func TestRun_RejectsEmptyQuery(t *testing.T) {
	backend := newTestBackend(t)
	svc, err := embedding.New(embedding.Config{Model: "mock", Dimensions: 4, BatchSize: 1, APIKey: "test"}, &embedding.MockProvider{Dimensions: 4})
	require.NoError(t, err)

	_, err = Run(context.Background(), svc, backend, "", Options{})
	assert.Error(t, err)
}

func TestRun_DefaultsToSemanticChannelAndTenResults(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		id := model.GenerateElementID("a.ts", "fn", i)
		require.NoError(t, func() error {
			_, err := backend.CreateElement(ctx, newElement(id, "fn", embedding.Vector{1, 0, 0, 0}))
			return err
		}())
	}

	provider := &fixedProvider{Default: embedding.Vector{1, 0, 0, 0}}
	svc, err := embedding.New(embedding.Config{Model: "fixed", Dimensions: 4, BatchSize: 1, APIKey: "test"}, provider)
	require.NoError(t, err)

	hits, err := Run(ctx, svc, backend, "anything", Options{Threshold: -1})
	require.NoError(t, err)
	assert.Len(t, hits, defaultLimit)
}

func TestRun_LimitClampsAtMax(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()
	for i := 0; i < maxLimit+5; i++ {
		id := model.GenerateElementID("a.ts", "x", i)
		require.NoError(t, func() error {
			_, err := backend.CreateElement(ctx, newElement(id, "x", embedding.Vector{1, 0}))
			return err
		}())
	}

	provider := &fixedProvider{Default: embedding.Vector{1, 0}}
	svc, err := embedding.New(embedding.Config{Model: "fixed", Dimensions: 2, BatchSize: 1, APIKey: "test"}, provider)
	require.NoError(t, err)

	hits, err := Run(ctx, svc, backend, "anything", Options{Threshold: -1, Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, hits, maxLimit)
}

func TestRun_ExpandAttachesTraversalContext(t *testing.T) {
	backend := newTestBackend(t)
	ctx := context.Background()

	vec := embedding.Vector{1, 0}
	a := newElement("elem:a", "a", vec)
	b := newElement("elem:b", "b", nil)
	now := time.Now()
	_, err := backend.CreateBatch(ctx, []model.CodeElement{a, b}, []model.StructuralRelationship{
		{ID: "rel:a-b", From: "elem:a", To: "elem:b", Type: model.RelCalls, CreatedAt: now, UpdatedAt: now},
	})
	require.NoError(t, err)

	provider := &fixedProvider{Default: vec}
	svc, err := embedding.New(embedding.Config{Model: "fixed", Dimensions: 2, BatchSize: 1, APIKey: "test"}, provider)
	require.NoError(t, err)

	hits, err := Run(ctx, svc, backend, "a", Options{
		Threshold: -1,
		Expand:    true,
		ExpandOptions: graph.TraverseOptions{
			MaxDepth:  2,
			Direction: graph.DirectionOutgoing,
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	require.NotNil(t, hits[0].Context)
	assert.Contains(t, hits[0].Context.Nodes, "elem:b")
}
