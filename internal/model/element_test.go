// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateElementID_Deterministic(t *testing.T) {
	id1 := GenerateElementID("src/a.ts", "main", 0)
	id2 := GenerateElementID("src/a.ts", "main", 0)
	assert.Equal(t, id1, id2)
	assert.True(t, len(id1) > len("elem:"))
}

func TestGenerateElementID_NormalizesPath(t *testing.T) {
	id1 := GenerateElementID("./src/a.ts", "main", 0)
	id2 := GenerateElementID("src/a.ts", "main", 0)
	assert.Equal(t, id1, id2)
}

func TestGenerateElementID_DistinctOnStartByte(t *testing.T) {
	id1 := GenerateElementID("src/a.ts", "main", 0)
	id2 := GenerateElementID("src/a.ts", "main", 42)
	assert.NotEqual(t, id1, id2)
}

func TestComputeContentHash_Deterministic(t *testing.T) {
	h1 := ComputeContentHash("export function main(){}")
	h2 := ComputeContentHash("export function main(){}")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestSetSearchPhrases_Deduplicates(t *testing.T) {
	e := &CodeElement{}
	e.SetSearchPhrases([]string{"validate user", "auth", "validate user"})
	assert.ElementsMatch(t, []string{"validate user", "auth"}, e.SearchPhrases)
}

func TestReplaceDescription_AppendsNever(t *testing.T) {
	e := &CodeElement{Description: "old", UpdatedAt: time.Unix(100, 0)}
	e.ReplaceDescription("new", time.Unix(200, 0))
	assert.Equal(t, "new", e.Description)
	assert.Equal(t, time.Unix(200, 0), e.UpdatedAt)
}

func TestReplaceDescription_MonotonicUpdatedAt(t *testing.T) {
	e := &CodeElement{Description: "old", UpdatedAt: time.Unix(200, 0)}
	e.ReplaceDescription("stale write", time.Unix(100, 0))
	assert.Equal(t, "stale write", e.Description)
	assert.Equal(t, time.Unix(200, 0), e.UpdatedAt, "a later write wins; an out-of-order earlier write must not roll updated_at back")
}
