// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package relate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/vibeindex/internal/extract"
	"github.com/kraklabs/vibeindex/internal/parser"
)

func newTestRegistry(t *testing.T) *parser.Registry {
	t.Helper()
	root := t.TempDir()
	for _, lang := range []string{"typescript", "javascript", "tsx"} {
		dir := filepath.Join(root, lang, "v1.0.0")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "grammar.json"), []byte("{}"), 0o644))
	}
	return parser.NewRegistry(root)
}

func extractFile(t *testing.T, reg *parser.Registry, source []byte, path string) *extract.FileParseResult {
	t.Helper()
	tree, err := reg.Parse(context.Background(), source, parser.DetectLanguage(path))
	require.NoError(t, err)
	defer tree.Close()
	return extract.New().Extract(tree, source, path)
}

// TestAnalyze_S2_HeritageEdges runs scenario S2's source, a class that
// extends one name and implements another, where neither name is
// declared in the file.
func TestAnalyze_S2_HeritageEdges(t *testing.T) {
	reg := newTestRegistry(t)
	source := []byte(`export class A extends B implements C {}`)
	result := extractFile(t, reg, source, "src/a.ts")

	idx := NewNameIndex()
	idx.AddFile(result)

	out := New().Analyze(result, idx)

	var sawExtends, sawImplements bool
	for _, rel := range out.Structural {
		if rel.Type == "extends" {
			sawExtends = true
		}
		if rel.Type == "implements" {
			sawImplements = true
		}
	}
	// B and C are not declared in this file, so both edges are expected
	// to be dropped with a diagnostic under same-file-only resolution.
	assert.False(t, sawExtends)
	assert.False(t, sawImplements)
	require.NotEmpty(t, out.Diagnostics)
}

// TestAnalyze_HeritageResolvesSameFile covers the case where both the
// class and its supertype are declared in the same file: the edge must
// resolve and both endpoints must be present in the file's own element
// set (testable property 4: relationship endpoint integrity).
func TestAnalyze_HeritageResolvesSameFile(t *testing.T) {
	reg := newTestRegistry(t)
	source := []byte(`class Base {}
export class A extends Base {}`)
	result := extractFile(t, reg, source, "src/a.ts")

	idx := NewNameIndex()
	idx.AddFile(result)

	out := New().Analyze(result, idx)

	require.Len(t, out.Structural, 1)
	rel := out.Structural[0]
	assert.Equal(t, "extends", string(rel.Type))

	ids := make(map[string]bool, len(result.Elements))
	for _, e := range result.Elements {
		ids[e.ID] = true
	}
	assert.True(t, ids[rel.From], "from endpoint must be a known element")
	assert.True(t, ids[rel.To], "to endpoint must be a known element")
}

// TestAnalyze_CallResolvesSameFile exercises the calls edge path and
// confirms the caller/callee endpoints both resolve to real elements.
func TestAnalyze_CallResolvesSameFile(t *testing.T) {
	reg := newTestRegistry(t)
	source := []byte(`function helper(){}
export function main(){ helper() }`)
	result := extractFile(t, reg, source, "src/main.ts")

	idx := NewNameIndex()
	idx.AddFile(result)

	out := New().Analyze(result, idx)

	require.NotEmpty(t, out.Structural)
	var found bool
	for _, rel := range out.Structural {
		if rel.Type == "calls" {
			found = true
		}
	}
	assert.True(t, found, "expected a calls edge from main to helper")
}

// TestAnalyze_ImportResolvesToModuleElement covers the import structural
// edge and the synthetic module-identity element used as its endpoint.
func TestAnalyze_ImportResolvesToModuleElement(t *testing.T) {
	reg := newTestRegistry(t)

	utilSource := []byte(`export function util(){}`)
	utilResult := extractFile(t, reg, utilSource, "src/util.ts")

	mainSource := []byte(`import { util } from "./util";
export function main(){ util() }`)
	mainResult := extractFile(t, reg, mainSource, "src/main.ts")

	idx := NewNameIndex()
	idx.AddFile(utilResult)
	idx.AddFile(mainResult)

	out := New().Analyze(mainResult, idx)

	var sawImport bool
	for _, rel := range out.Structural {
		if rel.Type == "imports" {
			sawImport = true
			assert.Equal(t, idx.ModuleElementID("src/main.ts"), rel.From)
			assert.Equal(t, idx.ModuleElementID("src/util.ts"), rel.To)
		}
	}
	assert.True(t, sawImport)
}

// TestAnalyze_ReferencesEdge_CallArgumentResolvesToDeclaredElement covers
// the "references" structural edge: a bare identifier passed as a call
// argument, naming a declared element, without itself being called.
func TestAnalyze_ReferencesEdge_CallArgumentResolvesToDeclaredElement(t *testing.T) {
	reg := newTestRegistry(t)
	source := []byte(`function cb(){}
export function run(){ invoke(cb) }`)
	result := extractFile(t, reg, source, "src/run.ts")

	idx := NewNameIndex()
	idx.AddFile(result)

	out := New().Analyze(result, idx)

	var cbID string
	for _, e := range result.Elements {
		if e.Name == "cb" {
			cbID = e.ID
		}
	}
	require.NotEmpty(t, cbID)

	var found bool
	for _, rel := range out.Structural {
		if rel.Type == "references" && rel.To == cbID {
			found = true
		}
	}
	assert.True(t, found, "expected a references edge to cb from the identifier argument")
}

// TestAnalyze_ReferencesEdge_AssignmentRHSResolvesToDeclaredElement
// covers the other references source: a bare identifier on an
// assignment's right-hand side.
func TestAnalyze_ReferencesEdge_AssignmentRHSResolvesToDeclaredElement(t *testing.T) {
	reg := newTestRegistry(t)
	source := []byte(`function producer(){}
export function user(){ let x; x = producer; }`)
	result := extractFile(t, reg, source, "src/user.ts")

	idx := NewNameIndex()
	idx.AddFile(result)

	out := New().Analyze(result, idx)

	var producerID string
	for _, e := range result.Elements {
		if e.Name == "producer" {
			producerID = e.ID
		}
	}
	require.NotEmpty(t, producerID)

	var found bool
	for _, rel := range out.Structural {
		if rel.Type == "references" && rel.To == producerID {
			found = true
		}
	}
	assert.True(t, found, "expected a references edge to producer from the assignment right-hand side")
}

// TestAnalyze_TransformationEdge_ChainOfReassignments covers the
// "transformation" data-flow edge: reassigning the same variable more
// than once within one element's body is a pipeline chain.
func TestAnalyze_TransformationEdge_ChainOfReassignments(t *testing.T) {
	reg := newTestRegistry(t)
	source := []byte(`export function pipeline(value){
  value = trim(value);
  value = normalize(value);
}`)
	result := extractFile(t, reg, source, "src/pipeline.ts")

	idx := NewNameIndex()
	idx.AddFile(result)

	out := New().Analyze(result, idx)

	var transforms []string
	for _, flow := range out.DataFlow {
		if flow.Type == "transformation" {
			transforms = append(transforms, flow.Metadata.VariableName)
			assert.Equal(t, 1, flow.Metadata.StepOrder)
			assert.Equal(t, "reassignment", flow.Metadata.TransformationType)
		}
	}
	require.Len(t, transforms, 1, "two reassignments of the same variable must yield exactly one transformation step")
	assert.Equal(t, "value", transforms[0])
}

// TestAnalyze_TransformationEdge_SingleAssignmentYieldsNoChain confirms a
// variable assigned only once never produces a transformation edge.
func TestAnalyze_TransformationEdge_SingleAssignmentYieldsNoChain(t *testing.T) {
	reg := newTestRegistry(t)
	source := []byte(`export function once(value){
  value = trim(value);
}`)
	result := extractFile(t, reg, source, "src/once.ts")

	idx := NewNameIndex()
	idx.AddFile(result)

	out := New().Analyze(result, idx)

	for _, flow := range out.DataFlow {
		assert.NotEqual(t, "transformation", string(flow.Type))
	}
}
