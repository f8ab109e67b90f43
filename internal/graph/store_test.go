// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/vibeindex/internal/embedding"
	"github.com/kraklabs/vibeindex/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func makeElement(id, file, name string, kind model.ElementKind, vec embedding.Vector) model.CodeElement {
	now := time.Now()
	return model.CodeElement{
		ID:               id,
		FilePath:         file,
		Name:             name,
		Kind:             kind,
		ContentHash:      model.ComputeContentHash(name),
		ContentEmbedding: vec,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestCreateElement_UpsertPreservesCreatedAtReplacesDescription(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	original := makeElement("elem:1", "a.ts", "f", model.ElementFunction, embedding.Vector{0.1, 0.2})
	original.Description = "first pass"
	created := original.CreatedAt

	_, err := store.CreateElement(ctx, original)
	require.NoError(t, err)

	updated := original
	updated.Description = "second pass"
	updated.UpdatedAt = created.Add(time.Hour)
	_, err = store.CreateElement(ctx, updated)
	require.NoError(t, err)

	results, err := store.Search(ctx, embedding.Vector{0.1, 0.2}, SearchOptions{EmbeddingType: EmbeddingContent, Threshold: -1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "second pass", results[0].Element.Description)
	assert.True(t, results[0].Element.CreatedAt.Equal(created))
}

func TestSearch_OrdersByDescendingSimilarityAndRespectsThreshold(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, storeElement(ctx, store, "elem:close", "a.ts", embedding.Vector{1, 0, 0, 0}))
	require.NoError(t, storeElement(ctx, store, "elem:far", "a.ts", embedding.Vector{0, 1, 0, 0}))

	results, err := store.Search(ctx, embedding.Vector{1, 0, 0, 0}, SearchOptions{EmbeddingType: EmbeddingContent, Threshold: 0.5, Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "elem:close", results[0].Element.ID)
}

func storeElement(ctx context.Context, store *SQLiteStore, id, file string, vec embedding.Vector) error {
	_, err := store.CreateElement(ctx, makeElement(id, file, id, model.ElementFunction, vec))
	return err
}

func TestSearch_LimitCapsAtOneHundred(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 105; i++ {
		require.NoError(t, storeElement(ctx, store, fmt.Sprintf("elem:%d", i), "a.ts", embedding.Vector{1, 0}))
	}

	results, err := store.Search(ctx, embedding.Vector{1, 0}, SearchOptions{EmbeddingType: EmbeddingContent, Threshold: -1, Limit: 200})
	require.NoError(t, err)
	assert.Len(t, results, 100)
}

func TestCreateBatch_DropsRelationshipsWithUnresolvedEndpoints(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	elements := []model.CodeElement{
		makeElement("elem:a", "a.ts", "a", model.ElementFunction, embedding.Vector{1, 0}),
		makeElement("elem:b", "a.ts", "b", model.ElementFunction, embedding.Vector{0, 1}),
	}
	now := time.Now()
	relationships := []model.StructuralRelationship{
		{ID: "rel:ok", From: "elem:a", To: "elem:b", Type: model.RelCalls, CreatedAt: now, UpdatedAt: now},
		{ID: "rel:dangling", From: "elem:a", To: "elem:missing", Type: model.RelCalls, CreatedAt: now, UpdatedAt: now},
	}

	result, err := store.CreateBatch(ctx, elements, relationships)
	require.NoError(t, err)
	assert.Contains(t, result.CreatedIDs, "elem:a")
	assert.Contains(t, result.CreatedIDs, "elem:b")
	assert.Contains(t, result.CreatedIDs, "rel:ok")
	assert.Contains(t, result.Dropped, "rel:dangling")
}

func TestTraverse_VisitsEachNodeAtMostOnce(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	elements := []model.CodeElement{
		makeElement("elem:a", "a.ts", "a", model.ElementFunction, nil),
		makeElement("elem:b", "a.ts", "b", model.ElementFunction, nil),
		makeElement("elem:c", "a.ts", "c", model.ElementFunction, nil),
	}
	now := time.Now()
	relationships := []model.StructuralRelationship{
		{ID: "rel:a-b", From: "elem:a", To: "elem:b", Type: model.RelCalls, CreatedAt: now, UpdatedAt: now},
		{ID: "rel:a-c", From: "elem:a", To: "elem:c", Type: model.RelCalls, CreatedAt: now, UpdatedAt: now},
		{ID: "rel:b-c", From: "elem:b", To: "elem:c", Type: model.RelCalls, CreatedAt: now, UpdatedAt: now},
	}
	_, err := store.CreateBatch(ctx, elements, relationships)
	require.NoError(t, err)

	result, err := store.Traverse(ctx, "elem:a", TraverseOptions{MaxDepth: 5, Direction: DirectionOutgoing})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"elem:a", "elem:b", "elem:c"}, result.Nodes)
	assert.Equal(t, 3, len(result.Path))
}

func TestTraverse_RespectsMaxDepth(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	elements := []model.CodeElement{
		makeElement("elem:a", "a.ts", "a", model.ElementFunction, nil),
		makeElement("elem:b", "a.ts", "b", model.ElementFunction, nil),
		makeElement("elem:c", "a.ts", "c", model.ElementFunction, nil),
	}
	now := time.Now()
	relationships := []model.StructuralRelationship{
		{ID: "rel:a-b", From: "elem:a", To: "elem:b", Type: model.RelCalls, CreatedAt: now, UpdatedAt: now},
		{ID: "rel:b-c", From: "elem:b", To: "elem:c", Type: model.RelCalls, CreatedAt: now, UpdatedAt: now},
	}
	_, err := store.CreateBatch(ctx, elements, relationships)
	require.NoError(t, err)

	result, err := store.Traverse(ctx, "elem:a", TraverseOptions{MaxDepth: 1, Direction: DirectionOutgoing})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"elem:a", "elem:b"}, result.Nodes)
}

func TestDeleteByPath_CascadesToRelationshipsAndDataFlows(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	elements := []model.CodeElement{
		makeElement("elem:a", "a.ts", "a", model.ElementFunction, embedding.Vector{1, 0}),
		makeElement("elem:b", "a.ts", "b", model.ElementFunction, embedding.Vector{0, 1}),
	}
	now := time.Now()
	relationships := []model.StructuralRelationship{
		{ID: "rel:a-b", From: "elem:a", To: "elem:b", Type: model.RelCalls, CreatedAt: now, UpdatedAt: now},
	}
	_, err := store.CreateBatch(ctx, elements, relationships)
	require.NoError(t, err)

	count, err := store.DeleteByPath(ctx, "a.ts")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	results, err := store.Search(ctx, embedding.Vector{1, 0}, SearchOptions{EmbeddingType: EmbeddingContent, Threshold: -1})
	require.NoError(t, err)
	assert.Empty(t, results)

	edges, err := store.edgesFor(ctx, "elem:a", DirectionOutgoing)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestUpsertFileMetadata_ReplacesOnConflict(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := model.FileMetadata{
		Path:           "a.ts",
		Size:           100,
		ModifiedAt:     time.Now(),
		Language:       "typescript",
		Checksum:       "hash1",
		SymbolCount:    3,
		ProcessingTime: time.Second,
		LastIndexed:    time.Now(),
	}
	require.NoError(t, store.UpsertFileMetadata(ctx, first))

	second := first
	second.Checksum = "hash2"
	second.SymbolCount = 5
	require.NoError(t, store.UpsertFileMetadata(ctx, second))

	var checksum string
	var symbolCount int
	err := store.db.QueryRowContext(ctx, "SELECT checksum, symbol_count FROM file_metadata WHERE path = ?", "a.ts").
		Scan(&checksum, &symbolCount)
	require.NoError(t, err)
	assert.Equal(t, "hash2", checksum)
	assert.Equal(t, 5, symbolCount)

	var rowCount int
	require.NoError(t, store.db.QueryRowContext(ctx, "SELECT count(*) FROM file_metadata").Scan(&rowCount))
	assert.Equal(t, 1, rowCount)
}

func TestUpsertWorkspaceInfo_ReplacesOnConflict(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := model.WorkspaceInfo{
		Path:             "/workspace",
		CreatedAt:        time.Now(),
		LastIndexed:      time.Now(),
		TotalFiles:       10,
		TotalElements:    20,
		IndexingStrategy: model.StrategyFull,
	}
	require.NoError(t, store.UpsertWorkspaceInfo(ctx, first))

	second := first
	second.TotalFiles = 11
	second.TotalElements = 25
	second.IndexingStrategy = model.StrategyIncremental
	require.NoError(t, store.UpsertWorkspaceInfo(ctx, second))

	var totalFiles, totalElements int
	var strategy string
	err := store.db.QueryRowContext(ctx,
		"SELECT total_files, total_elements, indexing_strategy FROM workspace_info WHERE path = ?", "/workspace").
		Scan(&totalFiles, &totalElements, &strategy)
	require.NoError(t, err)
	assert.Equal(t, 11, totalFiles)
	assert.Equal(t, 25, totalElements)
	assert.Equal(t, "incremental", strategy)
}
