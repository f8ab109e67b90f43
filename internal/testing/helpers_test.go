// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/vibeindex/internal/graph"
	"github.com/kraklabs/vibeindex/internal/model"
)

func TestSetupTestBackend(t *testing.T) {
	backend := SetupTestBackend(t)
	require.NotNil(t, backend)
}

func TestInsertTestElement(t *testing.T) {
	backend := SetupTestBackend(t)

	InsertTestElement(t, backend, "elem:HandleAuth", "HandleAuth", model.ElementFunction, "auth.go", 10, 25)

	result, err := backend.Traverse(t.Context(), "elem:HandleAuth", graph.TraverseOptions{MaxDepth: 1})
	require.NoError(t, err)
	assert.Contains(t, result.Nodes, "elem:HandleAuth")
}

func TestInsertTestElementWithEmbedding(t *testing.T) {
	backend := SetupTestBackend(t)

	InsertTestElementWithEmbedding(t, backend, "elem:UserService", "UserService", model.ElementClass, "user.go", []float32{1, 0, 0, 0})

	hits, err := backend.Search(t.Context(), []float32{1, 0, 0, 0}, graph.SearchOptions{Threshold: 0.9})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "UserService", hits[0].Element.Name)
}

func TestInsertTestRelationship(t *testing.T) {
	backend := SetupTestBackend(t)

	InsertTestElement(t, backend, "elem:main", "main", model.ElementFunction, "main.go", 1, 10)
	InsertTestElement(t, backend, "elem:helper", "helper", model.ElementFunction, "main.go", 12, 15)
	InsertTestRelationship(t, backend, "rel:main-helper", "elem:main", "elem:helper", model.RelCalls)

	result, err := backend.Traverse(t.Context(), "elem:main", graph.TraverseOptions{MaxDepth: 1})
	require.NoError(t, err)
	assert.Contains(t, result.Nodes, "elem:helper")
}

func TestSetupTestBackend_Isolation(t *testing.T) {
	backend1 := SetupTestBackend(t)
	InsertTestElement(t, backend1, "elem:Test1", "Test1", model.ElementFunction, "file1.go", 1, 10)

	backend2 := SetupTestBackend(t)
	result, err := backend2.Traverse(t.Context(), "elem:Test1", graph.TraverseOptions{MaxDepth: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"elem:Test1"}, result.Nodes, "second backend is isolated and has no such element, so traverse only sees the queried id itself")
}
