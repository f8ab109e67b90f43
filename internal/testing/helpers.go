// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package testing

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/kraklabs/vibeindex/internal/graph"
	"github.com/kraklabs/vibeindex/internal/model"
)

// SetupTestBackend opens a Graph Store inside a fresh temporary
// directory and registers its cleanup with t, so callers across
// internal/ packages don't each hand-roll the same graph.Open/t.TempDir
// boilerplate.
//
// Example:
//
//	func TestMyFeature(t *testing.T) {
//	    backend := testing.SetupTestBackend(t)
//	    testing.InsertTestElement(t, backend, "elem:f", "HandleAuth", model.ElementFunction, "auth.go", 10, 25)
//	}
func SetupTestBackend(t *testing.T) *graph.SQLiteStore {
	t.Helper()

	store, err := graph.Open(filepath.Join(t.TempDir(), "code.db"))
	if err != nil {
		t.Fatalf("failed to open test graph store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// InsertTestElement seeds a minimal code element with no embeddings,
// for tests that only care about structural shape (file/name/kind/span).
//
// Example:
//
//	testing.InsertTestElement(t, backend, "elem:HandleAuth", "HandleAuth", model.ElementFunction, "auth.go", 10, 25)
func InsertTestElement(t *testing.T, backend *graph.SQLiteStore, id, name string, kind model.ElementKind, filePath string, startLine, endLine int) model.CodeElement {
	t.Helper()

	now := time.Now()
	elem := model.CodeElement{
		ID:          id,
		FilePath:    filePath,
		Name:        name,
		Kind:        kind,
		StartLine:   startLine,
		EndLine:     endLine,
		ContentHash: model.ComputeContentHash(name + filePath),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := backend.CreateElement(t.Context(), elem); err != nil {
		t.Fatalf("failed to insert test element %s: %v", id, err)
	}
	return elem
}

// InsertTestElementWithEmbedding is like InsertTestElement but also sets
// the semantic embedding, for tests that exercise similarity search.
func InsertTestElementWithEmbedding(t *testing.T, backend *graph.SQLiteStore, id, name string, kind model.ElementKind, filePath string, vec []float32) model.CodeElement {
	t.Helper()

	now := time.Now()
	elem := model.CodeElement{
		ID:                id,
		FilePath:          filePath,
		Name:              name,
		Kind:              kind,
		ContentHash:       model.ComputeContentHash(name + filePath),
		SemanticEmbedding: vec,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if _, err := backend.CreateElement(t.Context(), elem); err != nil {
		t.Fatalf("failed to insert test element %s: %v", id, err)
	}
	return elem
}

// InsertTestRelationship links two previously-inserted elements with a
// structural relationship edge.
//
// Example:
//
//	testing.InsertTestRelationship(t, backend, "rel:a-b", "elem:a", "elem:b", model.RelCalls)
func InsertTestRelationship(t *testing.T, backend *graph.SQLiteStore, id, from, to string, relType model.StructuralRelationshipType) model.StructuralRelationship {
	t.Helper()

	now := time.Now()
	rel := model.StructuralRelationship{
		ID:        id,
		From:      from,
		To:        to,
		Type:      relType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := backend.CreateRelationship(t.Context(), rel); err != nil {
		t.Fatalf("failed to insert test relationship %s: %v", id, err)
	}
	return rel
}
