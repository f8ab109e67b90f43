// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package relate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kraklabs/vibeindex/internal/extract"
	"github.com/kraklabs/vibeindex/internal/model"
)

func elementNamed(filePath, name string, exported bool) model.CodeElement {
	return model.CodeElement{
		ID:       model.GenerateElementID(filePath, name, 1),
		FilePath: filePath,
		Name:     name,
		Kind:     model.ElementFunction,
		Exported: exported,
	}
}

func TestNameIndex_AddFile_RegistersModuleElementAndPath(t *testing.T) {
	idx := NewNameIndex()
	result := &extract.FileParseResult{
		FilePath: "src/utils/format.ts",
		Elements: []model.CodeElement{elementNamed("src/utils/format.ts", "trim", true)},
	}

	idx.AddFile(result)

	assert.NotEmpty(t, idx.ModuleElementID("src/utils/format.ts"))
	assert.Equal(t, model.GenerateElementID("src/utils/format.ts", "<module>", 0), idx.ModuleElementID("src/utils/format.ts"))
}

func TestNameIndex_ResolveName_PrefersSameFileOverModule(t *testing.T) {
	idx := NewNameIndex()
	a := elementNamed("src/a.ts", "helper", false)
	b := elementNamed("src/b.ts", "helper", true)
	idx.AddFile(&extract.FileParseResult{FilePath: "src/a.ts", Elements: []model.CodeElement{a}})
	idx.AddFile(&extract.FileParseResult{FilePath: "src/b.ts", Elements: []model.CodeElement{b}})

	id, ok := idx.resolveName("src/a.ts", "src/b", "helper")
	assert.True(t, ok)
	assert.Equal(t, a.ID, id, "a same-file private helper must win over a same-named export elsewhere")
}

func TestNameIndex_ResolveName_FallsBackToModuleWhenNotInSameFile(t *testing.T) {
	idx := NewNameIndex()
	b := elementNamed("src/b.ts", "helper", true)
	idx.AddFile(&extract.FileParseResult{FilePath: "src/a.ts", Elements: nil})
	idx.AddFile(&extract.FileParseResult{FilePath: "src/b.ts", Elements: []model.CodeElement{b}})

	id, ok := idx.resolveName("src/a.ts", "src/b", "helper")
	assert.True(t, ok)
	assert.Equal(t, b.ID, id)
}

func TestNameIndex_ResolveName_UnexportedElementInvisibleAcrossFiles(t *testing.T) {
	idx := NewNameIndex()
	b := elementNamed("src/b.ts", "helper", false)
	idx.AddFile(&extract.FileParseResult{FilePath: "src/a.ts", Elements: nil})
	idx.AddFile(&extract.FileParseResult{FilePath: "src/b.ts", Elements: []model.CodeElement{b}})

	_, ok := idx.resolveName("src/a.ts", "src/b", "helper")
	assert.False(t, ok, "a private helper in another file must not resolve")
}

func TestNameIndex_ResolveModuleSpecifier_RelativeImport(t *testing.T) {
	idx := NewNameIndex()
	idx.AddFile(&extract.FileParseResult{FilePath: "src/utils/format.ts"})
	idx.AddFile(&extract.FileParseResult{FilePath: "src/index.ts"})

	mp, ok := idx.resolveModuleSpecifier("src/index.ts", "./utils/format")
	assert.True(t, ok)
	assert.Equal(t, "src/utils/format", mp)
}

func TestNameIndex_ResolveModuleSpecifier_BareSpecifierMatchesKnownModulePath(t *testing.T) {
	idx := NewNameIndex()
	idx.AddFile(&extract.FileParseResult{FilePath: "src/utils/format.ts"})

	mp, ok := idx.resolveModuleSpecifier("src/index.ts", "src/utils/format")
	assert.True(t, ok)
	assert.Equal(t, "src/utils/format", mp)
}

func TestNameIndex_ResolveModuleSpecifier_UnknownSpecifierFails(t *testing.T) {
	idx := NewNameIndex()
	idx.AddFile(&extract.FileParseResult{FilePath: "src/index.ts"})

	_, ok := idx.resolveModuleSpecifier("src/index.ts", "./missing")
	assert.False(t, ok)

	_, ok = idx.resolveModuleSpecifier("src/index.ts", "some-package")
	assert.False(t, ok)
}

func TestDedupeKeys_MarkIfNew_OnlyFirstCallerWins(t *testing.T) {
	d := newDedupeKeys()

	assert.True(t, d.markIfNew("edge:a->b"))
	assert.False(t, d.markIfNew("edge:a->b"))
	assert.True(t, d.markIfNew("edge:b->c"))
}

func TestWorkerCount_NeverExceedsEightOrDropsBelowOne(t *testing.T) {
	n := workerCount()
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, 8)
}
