// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package extract implements the Element Extractor (C2): it walks a
// tree-sitter syntax tree and emits CodeElement records plus the raw
// import/export statements the Relationship Analyzer consumes.
package extract

import (
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kraklabs/vibeindex/internal/model"
)

// recognizedNodeTypes is the node-type table from spec §4.2: every node
// whose type is in this set produces (at most) one CodeElement.
var recognizedNodeTypes = map[string]model.ElementKind{
	"function_declaration":     model.ElementFunction,
	"function_expression":      model.ElementFunction,
	"arrow_function":           model.ElementFunction,
	"method_definition":        model.ElementMethod,
	"class_declaration":        model.ElementClass,
	"interface_declaration":    model.ElementInterface,
	"type_alias_declaration":   model.ElementTypeAlias,
	"enum_declaration":         model.ElementEnum,
	"variable_declaration":     model.ElementVariable,
	"lexical_declaration":      model.ElementVariable,
}

// ParseError is a non-fatal fault surfaced for a file; it never aborts
// extraction of the rest of the file.
type ParseError struct {
	Message string
	Line    int
}

// ImportRecord is the raw shape of one import_statement, carried forward
// for the Relationship Analyzer to turn into a StructuralRelationship.
type ImportRecord struct {
	ModulePath string
	ImportType string // default, named, namespace, side_effect
	Specifiers []string
	Alias      string
	Line       int
}

// ExportRecord mirrors ImportRecord for export_statement, including
// re-exports ("export { x } from 'mod'").
type ExportRecord struct {
	ModulePath string // non-empty for re-exports
	Specifiers []string
	Line       int
}

// CallSite is a raw call expression found inside an element's body, fed
// to the Relationship Analyzer to resolve into a "calls" structural
// edge.
type CallSite struct {
	CallerElementID  string
	CalleeName       string
	Line             int
	ParametersPassed []string
	Conditional      bool
}

// ReferenceSite is a raw non-call identifier usage — a bare identifier
// passed as a call argument, or the right-hand side of an assignment —
// fed to the Relationship Analyzer to resolve into a "references"
// structural edge, distinct from "calls".
type ReferenceSite struct {
	ReferrerElementID string
	Name              string
	Line              int
}

// PropertyAccessSite is a raw `object.property` expression, fed to the
// Relationship Analyzer for the "property_access" data-flow edge.
type PropertyAccessSite struct {
	AccessorElementID string
	ObjectName        string
	PropertyPath      string
	Line              int
}

// AssignmentSite is a raw assignment expression inside an element's
// body, fed to the Relationship Analyzer for the "assignment" data-flow
// edge.
type AssignmentSite struct {
	ElementID    string
	VariableName string
	Line         int
}

// FileParseResult is C2's output for a single file.
type FileParseResult struct {
	FilePath         string
	Elements         []model.CodeElement
	Imports          []ImportRecord
	Exports          []ExportRecord
	CallSites        []CallSite
	References       []ReferenceSite
	PropertyAccesses []PropertyAccessSite
	Assignments      []AssignmentSite
	Errors           []ParseError
	ProcessingTime   time.Duration
}

// Extractor walks syntax trees and emits FileParseResult records. It is
// stateless and safe for concurrent use across files.
type Extractor struct{}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract walks tree and produces the FileParseResult for filePath.
// Errors from unrecoverable parse faults are collected in the result,
// never returned as a Go error: the file ships whatever was extracted.
func (x *Extractor) Extract(tree *sitter.Tree, source []byte, filePath string) *FileParseResult {
	start := time.Now()
	result := &FileParseResult{FilePath: filePath}

	root := tree.RootNode()
	if root.HasError() {
		result.Errors = append(result.Errors, ParseError{
			Message: "syntax tree contains error nodes; extraction is partial",
		})
	}

	x.walk(root, source, filePath, result, nil)

	result.ProcessingTime = time.Since(start)
	return result
}

// walk recursively visits nodes, emitting CodeElements for recognized
// types and collecting import/export statements separately.
func (x *Extractor) walk(node *sitter.Node, source []byte, filePath string, result *FileParseResult, exportAncestor *sitter.Node) {
	if node == nil {
		return
	}

	nodeType := node.Type()

	switch nodeType {
	case "import_statement":
		if rec, ok := parseImport(node, source); ok {
			result.Imports = append(result.Imports, rec)
		}
	case "export_statement":
		if rec, ok := parseExport(node, source); ok {
			result.Exports = append(result.Exports, rec)
		}
		exportAncestor = node
	}

	if kind, ok := recognizedNodeTypes[nodeType]; ok {
		if elem, ok := x.extractElement(node, source, filePath, kind, exportAncestor != nil); ok {
			result.Elements = append(result.Elements, elem)
			if kind == model.ElementFunction || kind == model.ElementMethod {
				if body := node.ChildByFieldName("body"); body != nil {
					x.walkExpressions(body, source, elem.ID, false, result)
				}
			}
		}
	}

	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		child := node.NamedChild(i)
		// export_statement's own ancestry applies only to its subtree.
		childExportAncestor := exportAncestor
		x.walk(child, source, filePath, result, childExportAncestor)
	}
}

// conditionalNodeTypes marks constructs whose descendants count as
// occurring within a conditional arm, per spec §4.3.
var conditionalNodeTypes = map[string]bool{
	"if_statement":         true,
	"while_statement":      true,
	"ternary_expression":   true,
	"binary_expression":    true, // catches && / || arms conservatively
}

// walkExpressions walks an element's body collecting call sites,
// property accesses, and assignments for the Relationship Analyzer's
// data-flow derivation. ownerID is the enclosing element's id.
func (x *Extractor) walkExpressions(node *sitter.Node, source []byte, ownerID string, conditional bool, result *FileParseResult) {
	if node == nil {
		return
	}

	nodeType := node.Type()
	if conditionalNodeTypes[nodeType] {
		conditional = true
	}

	switch nodeType {
	case "call_expression":
		if site, ok := parseCallSite(node, source, ownerID, conditional); ok {
			result.CallSites = append(result.CallSites, site)
		}
		result.References = append(result.References, parseCallArgumentReferences(node, source, ownerID)...)
	case "assignment_expression":
		if site, ok := parseAssignment(node, source, ownerID); ok {
			result.Assignments = append(result.Assignments, site)
		}
		if ref, ok := parseAssignmentReference(node, source, ownerID); ok {
			result.References = append(result.References, ref)
		}
	case "member_expression":
		if site, ok := parsePropertyAccess(node, source, ownerID); ok {
			result.PropertyAccesses = append(result.PropertyAccesses, site)
		}
	}

	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		x.walkExpressions(node.NamedChild(i), source, ownerID, conditional, result)
	}
}

func parseCallSite(node *sitter.Node, source []byte, ownerID string, conditional bool) (CallSite, bool) {
	fnNode := node.ChildByFieldName("function")
	if fnNode == nil {
		return CallSite{}, false
	}
	calleeName := calleeText(fnNode, source)
	if calleeName == "" {
		return CallSite{}, false
	}

	var params []string
	if argsNode := node.ChildByFieldName("arguments"); argsNode != nil {
		argCount := int(argsNode.NamedChildCount())
		for i := 0; i < argCount; i++ {
			arg := argsNode.NamedChild(i)
			params = append(params, string(source[arg.StartByte():arg.EndByte()]))
		}
	}

	return CallSite{
		CallerElementID:  ownerID,
		CalleeName:       calleeName,
		Line:             int(node.StartPoint().Row) + 1,
		ParametersPassed: params,
		Conditional:      conditional,
	}, true
}

// parseCallArgumentReferences emits one ReferenceSite per bare-identifier
// call argument: a value passed by reference rather than invoked, the
// "references" edge's other source (alongside assignment right-hand
// sides) beyond the "calls" edge call_expression already yields.
func parseCallArgumentReferences(node *sitter.Node, source []byte, ownerID string) []ReferenceSite {
	argsNode := node.ChildByFieldName("arguments")
	if argsNode == nil {
		return nil
	}
	var refs []ReferenceSite
	count := int(argsNode.NamedChildCount())
	for i := 0; i < count; i++ {
		arg := argsNode.NamedChild(i)
		if arg.Type() != "identifier" {
			continue
		}
		refs = append(refs, ReferenceSite{
			ReferrerElementID: ownerID,
			Name:              string(source[arg.StartByte():arg.EndByte()]),
			Line:              int(arg.StartPoint().Row) + 1,
		})
	}
	return refs
}

// parseAssignmentReference emits a ReferenceSite when an assignment's
// right-hand side is a bare identifier naming another element, rather
// than a literal or call result.
func parseAssignmentReference(node *sitter.Node, source []byte, ownerID string) (ReferenceSite, bool) {
	right := node.ChildByFieldName("right")
	if right == nil || right.Type() != "identifier" {
		return ReferenceSite{}, false
	}
	return ReferenceSite{
		ReferrerElementID: ownerID,
		Name:              string(source[right.StartByte():right.EndByte()]),
		Line:              int(right.StartPoint().Row) + 1,
	}, true
}

// calleeText renders the callee expression's full dotted form (e.g.
// "user.validate") so the resolver can split on "this." for same-class
// method calls.
func calleeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

func parseAssignment(node *sitter.Node, source []byte, ownerID string) (AssignmentSite, bool) {
	left := node.ChildByFieldName("left")
	if left == nil {
		return AssignmentSite{}, false
	}
	return AssignmentSite{
		ElementID:    ownerID,
		VariableName: string(source[left.StartByte():left.EndByte()]),
		Line:         int(node.StartPoint().Row) + 1,
	}, true
}

func parsePropertyAccess(node *sitter.Node, source []byte, ownerID string) (PropertyAccessSite, bool) {
	object := node.ChildByFieldName("object")
	property := node.ChildByFieldName("property")
	if object == nil || property == nil {
		return PropertyAccessSite{}, false
	}
	return PropertyAccessSite{
		AccessorElementID: ownerID,
		ObjectName:        string(source[object.StartByte():object.EndByte()]),
		PropertyPath:      string(source[property.StartByte():property.EndByte()]),
		Line:              int(node.StartPoint().Row) + 1,
	}, true
}

// extractElement builds a CodeElement from a recognized node.
func (x *Extractor) extractElement(node *sitter.Node, source []byte, filePath string, kind model.ElementKind, exported bool) (model.CodeElement, bool) {
	name := findName(node, source, kind)
	if name == "" || name == "unknown" {
		return model.CodeElement{}, false
	}

	startPoint := node.StartPoint()
	endPoint := node.EndPoint()
	content := string(source[node.StartByte():node.EndByte()])

	elem := model.CodeElement{
		ID:          model.GenerateElementID(filePath, name, int(node.StartByte())),
		FilePath:    filePath,
		Name:        name,
		Kind:        kind,
		StartLine:   int(startPoint.Row) + 1,
		EndLine:     int(endPoint.Row) + 1,
		StartColumn: int(startPoint.Column),
		EndColumn:   int(endPoint.Column),
		StartByte:   int(node.StartByte()),
		EndByte:     int(node.EndByte()),
		Content:     content,
		ContentHash: model.ComputeContentHash(content),
		Exported:    exported,
		Async:       isAsync(content),
	}

	if kind == model.ElementFunction || kind == model.ElementMethod {
		elem.Parameters = extractParameters(node, source)
		elem.ReturnType = extractReturnType(node, source)
	}
	if kind == model.ElementClass {
		elem.Inheritance = extractHeritage(node, source)
	}

	return elem, true
}

// findName locates the symbol's name per spec §4.2: the first
// identifier/type_identifier child, or (for declarations) the name
// field of the first variable_declarator.
func findName(node *sitter.Node, source []byte, kind model.ElementKind) string {
	if kind == model.ElementVariable {
		count := int(node.NamedChildCount())
		for i := 0; i < count; i++ {
			child := node.NamedChild(i)
			if child.Type() == "variable_declarator" {
				if nameNode := child.ChildByFieldName("name"); nameNode != nil {
					return string(source[nameNode.StartByte():nameNode.EndByte()])
				}
			}
		}
		return "unknown"
	}

	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return string(source[nameNode.StartByte():nameNode.EndByte()])
	}

	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		child := node.NamedChild(i)
		if child.Type() == "identifier" || child.Type() == "type_identifier" {
			return string(source[child.StartByte():child.EndByte()])
		}
	}

	return "unknown"
}

// isAsync reports the async modifier from the node's own leading text,
// per spec §4.2 ("async flag from the node's modifiers").
func isAsync(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "async ") || strings.HasPrefix(trimmed, "async(")
}

func extractParameters(node *sitter.Node, source []byte) []model.Parameter {
	paramsNode := node.ChildByFieldName("parameters")
	if paramsNode == nil {
		return nil
	}
	var params []model.Parameter
	count := int(paramsNode.NamedChildCount())
	for i := 0; i < count; i++ {
		p := paramsNode.NamedChild(i)
		var name, typeAnno string
		if nameNode := p.ChildByFieldName("pattern"); nameNode != nil {
			name = string(source[nameNode.StartByte():nameNode.EndByte()])
		} else {
			name = string(source[p.StartByte():p.EndByte()])
		}
		if typeNode := p.ChildByFieldName("type"); typeNode != nil {
			typeAnno = string(source[typeNode.StartByte():typeNode.EndByte()])
		}
		params = append(params, model.Parameter{Name: name, TypeAnnotation: typeAnno})
	}
	return params
}

func extractReturnType(node *sitter.Node, source []byte) string {
	if retNode := node.ChildByFieldName("return_type"); retNode != nil {
		return string(source[retNode.StartByte():retNode.EndByte()])
	}
	return ""
}

// extractHeritage returns one tagged entry per superclass/interface in
// the class's extends/implements clauses, formatted "extends:Name" or
// "implements:Name" so the Relationship Analyzer can derive one edge
// per name without re-parsing the clause text.
func extractHeritage(node *sitter.Node, source []byte) []string {
	var heritage []string
	heritageNode := node.ChildByFieldName("heritage")
	if heritageNode == nil {
		count := int(node.NamedChildCount())
		for i := 0; i < count; i++ {
			if child := node.NamedChild(i); child.Type() == "class_heritage" {
				heritageNode = child
				break
			}
		}
	}
	if heritageNode == nil {
		return nil
	}
	count := int(heritageNode.NamedChildCount())
	for i := 0; i < count; i++ {
		clause := heritageNode.NamedChild(i)
		tag := "extends"
		if clause.Type() == "implements_clause" || clause.Type() == "class_implements_clause" {
			tag = "implements"
		}
		typeCount := int(clause.NamedChildCount())
		for j := 0; j < typeCount; j++ {
			t := clause.NamedChild(j)
			name := string(source[t.StartByte():t.EndByte()])
			heritage = append(heritage, tag+":"+name)
		}
	}
	return heritage
}

func parseImport(node *sitter.Node, source []byte) (ImportRecord, bool) {
	rec := ImportRecord{Line: int(node.StartPoint().Row) + 1, ImportType: "side_effect"}

	if sourceNode := node.ChildByFieldName("source"); sourceNode != nil {
		rec.ModulePath = strings.Trim(string(source[sourceNode.StartByte():sourceNode.EndByte()]), `"'`)
	}

	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "import_clause":
			classifyImportClause(child, source, &rec)
		}
	}

	return rec, rec.ModulePath != ""
}

func classifyImportClause(clause *sitter.Node, source []byte, rec *ImportRecord) {
	count := int(clause.NamedChildCount())
	for i := 0; i < count; i++ {
		child := clause.NamedChild(i)
		switch child.Type() {
		case "identifier":
			rec.ImportType = "default"
			rec.Specifiers = append(rec.Specifiers, string(source[child.StartByte():child.EndByte()]))
		case "namespace_import":
			rec.ImportType = "namespace"
			rec.Alias = strings.TrimSpace(string(source[child.StartByte():child.EndByte()]))
		case "named_imports":
			rec.ImportType = "named"
			specCount := int(child.NamedChildCount())
			for j := 0; j < specCount; j++ {
				spec := child.NamedChild(j)
				rec.Specifiers = append(rec.Specifiers, string(source[spec.StartByte():spec.EndByte()]))
			}
		}
	}
}

func parseExport(node *sitter.Node, source []byte) (ExportRecord, bool) {
	rec := ExportRecord{Line: int(node.StartPoint().Row) + 1}

	if sourceNode := node.ChildByFieldName("source"); sourceNode != nil {
		rec.ModulePath = strings.Trim(string(source[sourceNode.StartByte():sourceNode.EndByte()]), `"'`)
	}

	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		child := node.NamedChild(i)
		if child.Type() == "export_clause" {
			specCount := int(child.NamedChildCount())
			for j := 0; j < specCount; j++ {
				spec := child.NamedChild(j)
				rec.Specifiers = append(rec.Specifiers, string(source[spec.StartByte():spec.EndByte()]))
			}
		}
	}

	return rec, true
}
