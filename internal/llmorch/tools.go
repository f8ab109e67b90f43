// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package llmorch implements the LLM Orchestrator (C5): Mode A's
// tool-driven agent loop and Mode B's digest-driven description
// pipeline, plus retry/backoff and token tracking shared by both.
// Grounded on pkg/llm/provider.go for the underlying chat capability
// and on pkg/tools/*.go for the shape of a bounded tool-dispatch loop
// over a fixed, enumerated toolset.
package llmorch

import "encoding/json"

// ToolName enumerates the five fixed Mode A tools from spec.md §6.
type ToolName string

const (
	ToolListFilesystem    ToolName = "list_filesystem"
	ToolReadFile          ToolName = "read_file"
	ToolListSymbolsInFile ToolName = "list_symbols_in_file"
	ToolGetSymbolDetails  ToolName = "get_symbol_details"
	ToolCreateIndexEntry  ToolName = "create_index_entry"
)

// ToolSpec is one entry in the fixed, enumerated Mode A toolset: a
// name, a description for the model, and a JSON input schema.
type ToolSpec struct {
	Name        ToolName
	Description string
	Schema      json.RawMessage
}

// ToolSpecs returns the five Mode A tools in declaration order.
func ToolSpecs() []ToolSpec {
	return []ToolSpec{
		{
			Name:        ToolListFilesystem,
			Description: "List filesystem entries under a workspace-relative path.",
			Schema:      json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`),
		},
		{
			Name:        ToolReadFile,
			Description: "Read the full contents of a file at a workspace-relative path.",
			Schema:      json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`),
		},
		{
			Name:        ToolListSymbolsInFile,
			Description: "List the symbols (name, kind, span) declared in a file.",
			Schema:      json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"}},"required":["path"]}`),
		},
		{
			Name:        ToolGetSymbolDetails,
			Description: "Get the full declaration detail for one named symbol in a file.",
			Schema:      json.RawMessage(`{"type":"object","properties":{"path":{"type":"string"},"symbol_name":{"type":"string"}},"required":["path","symbol_name"]}`),
		},
		{
			Name:        ToolCreateIndexEntry,
			Description: "Record a synthesized description for one symbol in the index.",
			Schema: json.RawMessage(`{"type":"object","properties":{
				"path":{"type":"string"},
				"symbol_name":{"type":"string"},
				"symbol_kind":{"type":"string"},
				"start_line":{"type":"integer"},
				"end_line":{"type":"integer"},
				"content":{"type":"string"},
				"synthesized_description":{"type":"string"}
			},"required":["path","symbol_name","symbol_kind","start_line","end_line","content","synthesized_description"]}`),
		},
	}
}

// SymbolSummary is list_symbols_in_file's per-entry output shape.
type SymbolSummary struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// SymbolDetail is get_symbol_details's output shape.
type SymbolDetail struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Content   string `json:"content"`
	FilePath  string `json:"file_path"`
}

// CreateIndexEntryInput is create_index_entry's input shape.
type CreateIndexEntryInput struct {
	Path                    string `json:"path"`
	SymbolName              string `json:"symbol_name"`
	SymbolKind              string `json:"symbol_kind"`
	StartLine               int    `json:"start_line"`
	EndLine                 int    `json:"end_line"`
	Content                 string `json:"content"`
	SynthesizedDescription  string `json:"synthesized_description"`
}

// Workspace is the filesystem/index surface Mode A's tools dispatch
// against. The Coordinator supplies a concrete implementation backed
// by the discovered file set and the in-progress name index.
type Workspace interface {
	ListFilesystem(path string) ([]string, error)
	ReadFile(path string) (string, error)
	ListSymbols(path string) ([]SymbolSummary, error)
	SymbolDetails(path, symbolName string) (SymbolDetail, bool, error)
	CreateIndexEntry(input CreateIndexEntryInput) error
}
