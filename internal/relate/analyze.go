// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package relate

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kraklabs/vibeindex/internal/extract"
	"github.com/kraklabs/vibeindex/internal/model"
)

// Diagnostic is an observable, non-fatal resolution failure: an edge
// whose endpoint could not be resolved, dropped per spec §3 invariant 2
// and §7's Resolution error kind.
type Diagnostic struct {
	Op      string
	Message string
}

// Result is C3's output for one file: the structural and data-flow
// edges it could resolve, plus every element the file contributed (so
// the file's own elements are always present in the commit batch,
// spec §3's "Elements and relationships are created in a single staged
// batch per file").
type Result struct {
	Elements        []model.CodeElement
	Structural      []model.StructuralRelationship
	DataFlow        []model.DataFlowRelationship
	Diagnostics     []Diagnostic
}

// Analyzer derives relationships for one file at a time, against a
// shared NameIndex built across every file in the workspace.
type Analyzer struct{}

// New creates an Analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze derives the structural and data-flow edges for result, using
// idx for cross-file and same-file resolution.
func (a *Analyzer) Analyze(result *extract.FileParseResult, idx *NameIndex) *Result {
	out := &Result{Elements: result.Elements}

	elementByID := make(map[string]model.CodeElement, len(result.Elements))
	for _, e := range result.Elements {
		elementByID[e.ID] = e
	}

	a.analyzeImports(result, idx, out)
	a.analyzeExports(result, idx, out)
	a.analyzeHeritage(result, out)
	a.analyzeCalls(result, idx, elementByID, out)
	a.analyzeReferences(result, idx, out)
	a.analyzeDataFlow(result, elementByID, out)

	return out
}

func (a *Analyzer) analyzeImports(result *extract.FileParseResult, idx *NameIndex, out *Result) {
	for _, imp := range result.Imports {
		targetModule, ok := idx.resolveModuleSpecifier(result.FilePath, imp.ModulePath)
		if !ok {
			out.Diagnostics = append(out.Diagnostics, Diagnostic{
				Op:      "resolve_import",
				Message: "unresolved import target: " + imp.ModulePath,
			})
			continue
		}
		targetFile := idx.modulePathToFile[targetModule]
		toID := idx.ModuleElementID(targetFile)
		fromID := idx.ModuleElementID(result.FilePath)

		out.Structural = append(out.Structural, model.StructuralRelationship{
			ID:   relationshipID(fromID, toID, model.RelImports, imp.Line),
			From: fromID,
			To:   toID,
			Type: model.RelImports,
			Context: model.RelationshipContext{
				ImportType: imp.ImportType,
				Specifiers: imp.Specifiers,
				Alias:      imp.Alias,
			},
			ComplexityScore: 0.1,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		})
	}
}

func (a *Analyzer) analyzeExports(result *extract.FileParseResult, idx *NameIndex, out *Result) {
	fromID := idx.ModuleElementID(result.FilePath)
	for _, exp := range result.Exports {
		if exp.ModulePath == "" {
			continue // local export, no cross-file edge to derive
		}
		targetModule, ok := idx.resolveModuleSpecifier(result.FilePath, exp.ModulePath)
		if !ok {
			out.Diagnostics = append(out.Diagnostics, Diagnostic{
				Op:      "resolve_export",
				Message: "unresolved re-export target: " + exp.ModulePath,
			})
			continue
		}
		targetFile := idx.modulePathToFile[targetModule]
		toID := idx.ModuleElementID(targetFile)

		out.Structural = append(out.Structural, model.StructuralRelationship{
			ID:   relationshipID(fromID, toID, model.RelExports, exp.Line),
			From: fromID,
			To:   toID,
			Type: model.RelExports,
			Context: model.RelationshipContext{
				Specifiers: exp.Specifiers,
			},
			ComplexityScore: 0.1,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		})
	}
}

// analyzeHeritage turns each "extends:Name"/"implements:Name" tag from
// the extractor into one structural edge per spec §4.3.
func (a *Analyzer) analyzeHeritage(result *extract.FileParseResult, out *Result) {
	for _, e := range result.Elements {
		if e.Kind != model.ElementClass || len(e.Inheritance) == 0 {
			continue
		}
		for _, tag := range e.Inheritance {
			parts := strings.SplitN(tag, ":", 2)
			if len(parts) != 2 {
				continue
			}
			relType := model.RelExtends
			if parts[0] == "implements" {
				relType = model.RelImplements
			}
			targetID, ok := idxSameFileLookup(result, parts[1])
			if !ok {
				out.Diagnostics = append(out.Diagnostics, Diagnostic{
					Op:      "resolve_heritage",
					Message: "unresolved " + parts[0] + " target: " + parts[1],
				})
				continue
			}
			out.Structural = append(out.Structural, model.StructuralRelationship{
				ID:              relationshipID(e.ID, targetID, relType, e.StartLine),
				From:            e.ID,
				To:              targetID,
				Type:            relType,
				ComplexityScore: 0.2,
				CreatedAt:       time.Now(),
				UpdatedAt:       time.Now(),
			})
		}
	}
}

// idxSameFileLookup resolves a bare name against the file's own element
// set only. Heritage targets not declared in the file are not looked up
// in other files; analyzeHeritage drops them with a diagnostic.
func idxSameFileLookup(result *extract.FileParseResult, name string) (string, bool) {
	for _, e := range result.Elements {
		if e.Name == name {
			return e.ID, true
		}
	}
	return "", false
}

func (a *Analyzer) analyzeCalls(result *extract.FileParseResult, idx *NameIndex, elementByID map[string]model.CodeElement, out *Result) {
	dedup := newDedupeKeys()

	if len(result.CallSites) < parallelThreshold {
		for _, call := range result.CallSites {
			a.resolveAndAppendCallDeduped(call, result, idx, dedup, out)
		}
		return
	}

	jobs := make(chan extract.CallSite, len(result.CallSites))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for w := 0; w < workerCount(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for call := range jobs {
				local := &Result{}
				a.resolveAndAppendCallDeduped(call, result, idx, dedup, local)
				if len(local.Structural) == 0 && len(local.Diagnostics) == 0 {
					continue
				}
				mu.Lock()
				out.Structural = append(out.Structural, local.Structural...)
				out.Diagnostics = append(out.Diagnostics, local.Diagnostics...)
				mu.Unlock()
			}
		}()
	}
	for _, call := range result.CallSites {
		jobs <- call
	}
	close(jobs)
	wg.Wait()
}

// resolveAndAppendCallDeduped resolves call and appends the edge unless
// an identical (caller, callee) edge was already emitted for this file,
// mirroring CallResolver's seen-edge-key dedup.
func (a *Analyzer) resolveAndAppendCallDeduped(call extract.CallSite, result *extract.FileParseResult, idx *NameIndex, dedup *dedupeKeys, out *Result) {
	key := call.CallerElementID + "->" + call.CalleeName
	if !dedup.markIfNew(key) {
		return
	}
	a.resolveAndAppendCall(call, result, idx, out)
}

func (a *Analyzer) resolveAndAppendCall(call extract.CallSite, result *extract.FileParseResult, idx *NameIndex, out *Result) {
	calleeName := call.CalleeName
	module := ""

	if strings.HasPrefix(calleeName, "this.") {
		calleeName = strings.TrimPrefix(calleeName, "this.")
	} else if dot := strings.LastIndex(calleeName, "."); dot >= 0 {
		calleeName = calleeName[dot+1:]
	}

	toID, ok := idx.resolveName(result.FilePath, module, calleeName)
	if !ok {
		out.Diagnostics = append(out.Diagnostics, Diagnostic{
			Op:      "resolve_call",
			Message: "unresolved callee: " + call.CalleeName,
		})
		return
	}

	out.Structural = append(out.Structural, model.StructuralRelationship{
		ID:   relationshipID(call.CallerElementID, toID, model.RelCalls, call.Line),
		From: call.CallerElementID,
		To:   toID,
		Type: model.RelCalls,
		Context: model.RelationshipContext{
			CallSiteLine:     call.Line,
			ParametersPassed: call.ParametersPassed,
			Conditional:      call.Conditional,
		},
		ComplexityScore: complexityScore(call),
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	})
}

// analyzeReferences derives "references" edges from non-call identifier
// usages (a bare identifier passed as a call argument, or named on an
// assignment's right-hand side) that resolve to another element, the
// sibling pass to analyzeCalls over the same NameIndex. Unresolved names
// are dropped silently rather than as a Diagnostic: unlike an import or
// call target, most unresolved identifiers here are parameters, loop
// variables, or globals never declared as an element, and surfacing
// every one would drown the call/import resolution diagnostics in noise.
func (a *Analyzer) analyzeReferences(result *extract.FileParseResult, idx *NameIndex, out *Result) {
	dedup := newDedupeKeys()
	for _, ref := range result.References {
		toID, ok := idx.resolveName(result.FilePath, "", ref.Name)
		if !ok || toID == ref.ReferrerElementID {
			continue
		}
		key := ref.ReferrerElementID + "->" + toID
		if !dedup.markIfNew(key) {
			continue
		}
		out.Structural = append(out.Structural, model.StructuralRelationship{
			ID:              relationshipID(ref.ReferrerElementID, toID, model.RelReferences, ref.Line),
			From:            ref.ReferrerElementID,
			To:              toID,
			Type:            model.RelReferences,
			ComplexityScore: 0.1,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		})
	}
}

// complexityScore is an informational heuristic (spec §9 Open Question:
// the precise rule is undecided in the source). It scales with argument
// count and whether the call sits inside a conditional arm, clamped to
// [0, 1].
func complexityScore(call extract.CallSite) float64 {
	score := 0.1 + 0.05*float64(len(call.ParametersPassed))
	if call.Conditional {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}
	return score
}

func (a *Analyzer) analyzeDataFlow(result *extract.FileParseResult, elementByID map[string]model.CodeElement, out *Result) {
	for _, e := range result.Elements {
		if e.Kind != model.ElementFunction && e.Kind != model.ElementMethod {
			continue
		}
		for i, p := range e.Parameters {
			out.DataFlow = append(out.DataFlow, model.DataFlowRelationship{
				ID:             relationshipID(e.ID, e.ID, model.FlowParameterInput, i),
				From:           e.ID,
				To:             e.ID,
				Type:           model.FlowParameterInput,
				TypeAnnotation: p.TypeAnnotation,
				Metadata: model.FlowMetadata{
					ParameterName:     p.Name,
					ParameterPosition: i,
				},
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			})
		}
		if e.ReturnType != "" {
			out.DataFlow = append(out.DataFlow, model.DataFlowRelationship{
				ID:             relationshipID(e.ID, e.ID, model.FlowReturnOutput, 0),
				From:           e.ID,
				To:             e.ID,
				Type:           model.FlowReturnOutput,
				TypeAnnotation: e.ReturnType,
				CreatedAt:      time.Now(),
				UpdatedAt:      time.Now(),
			})
		}
	}

	for _, pa := range result.PropertyAccesses {
		objID, ok := idx2Lookup(result, pa.ObjectName)
		if !ok {
			continue
		}
		out.DataFlow = append(out.DataFlow, model.DataFlowRelationship{
			ID:   relationshipID(objID, pa.AccessorElementID, model.FlowPropertyAccess, pa.Line),
			From: objID,
			To:   pa.AccessorElementID,
			Type: model.FlowPropertyAccess,
			Metadata: model.FlowMetadata{
				PropertyPath: pa.PropertyPath,
			},
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
	}

	for _, asn := range result.Assignments {
		out.DataFlow = append(out.DataFlow, model.DataFlowRelationship{
			ID:   relationshipID(asn.ElementID, asn.ElementID, model.FlowAssignment, asn.Line),
			From: asn.ElementID,
			To:   asn.ElementID,
			Type: model.FlowAssignment,
			Metadata: model.FlowMetadata{
				VariableName: asn.VariableName,
			},
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
	}

	a.analyzeTransformations(result, out)
}

// transformationChainKey groups an element's repeated assignments to the
// same variable, the "pipeline stage" unit spec §4.3's transformation
// edge describes.
type transformationChainKey struct {
	elementID string
	variable  string
}

// analyzeTransformations detects chains of single-assignment pipeline
// stages: when the same variable is reassigned more than once within one
// element's body, each reassignment after the first is a transformation
// step consuming the previous step's value.
func (a *Analyzer) analyzeTransformations(result *extract.FileParseResult, out *Result) {
	chains := make(map[transformationChainKey][]extract.AssignmentSite)
	for _, asn := range result.Assignments {
		key := transformationChainKey{elementID: asn.ElementID, variable: asn.VariableName}
		chains[key] = append(chains[key], asn)
	}

	var keys []transformationChainKey
	for key, sites := range chains {
		if len(sites) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].elementID != keys[j].elementID {
			return keys[i].elementID < keys[j].elementID
		}
		return keys[i].variable < keys[j].variable
	})

	for _, key := range keys {
		sites := chains[key]
		sort.Slice(sites, func(i, j int) bool { return sites[i].Line < sites[j].Line })
		for step, asn := range sites[1:] {
			out.DataFlow = append(out.DataFlow, model.DataFlowRelationship{
				ID:   relationshipID(key.elementID, key.elementID, model.FlowTransformation, asn.Line),
				From: key.elementID,
				To:   key.elementID,
				Type: model.FlowTransformation,
				Metadata: model.FlowMetadata{
					VariableName:       key.variable,
					StepOrder:          step + 1,
					TransformationType: "reassignment",
				},
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			})
		}
	}
}

func idx2Lookup(result *extract.FileParseResult, name string) (string, bool) {
	for _, e := range result.Elements {
		if e.Name == name {
			return e.ID, true
		}
	}
	return "", false
}

// relationshipID derives a stable id for an edge from its endpoints,
// type, and a positional disambiguator (line or ordinal), so repeated
// analysis of identical content produces identical edge ids.
func relationshipID(from, to string, relType any, disambiguator int) string {
	return model.GenerateElementID(from+"->"+to, toString(relType), disambiguator)
}

func toString(v any) string {
	switch t := v.(type) {
	case model.StructuralRelationshipType:
		return string(t)
	case model.DataFlowType:
		return string(t)
	default:
		return ""
	}
}
