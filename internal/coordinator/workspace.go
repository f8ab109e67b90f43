// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package coordinator

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/kraklabs/vibeindex/internal/llmorch"
)

// coordinatorWorkspace implements llmorch.Workspace, Mode A's tool
// surface, over a Run's already-discovered and already-extracted file
// set: list_filesystem/read_file/list_symbols_in_file/
// get_symbol_details all answer from that in-memory state rather than
// touching disk again, and create_index_entry records the descriptions
// the model chooses to synthesize for describe() to apply once the
// agent's single conversation ends.
type coordinatorWorkspace struct {
	units  []*fileUnit
	byPath map[string]*fileUnit

	mu   sync.Mutex
	desc map[string]string // relPath + "::" + symbolName -> description
}

func newCoordinatorWorkspace(units []*fileUnit) *coordinatorWorkspace {
	byPath := make(map[string]*fileUnit, len(units))
	for _, u := range units {
		byPath[u.RelPath] = u
	}
	return &coordinatorWorkspace{units: units, byPath: byPath, desc: make(map[string]string)}
}

// ListFilesystem lists every discovered file whose relative path falls
// under workspace-relative prefix p; "", ".", and "/" all mean the root.
func (w *coordinatorWorkspace) ListFilesystem(p string) ([]string, error) {
	prefix := normalizeListPrefix(p)
	out := make([]string, 0, len(w.units))
	for _, u := range w.units {
		if prefix == "" || strings.HasPrefix(u.RelPath, prefix) {
			out = append(out, u.RelPath)
		}
	}
	sort.Strings(out)
	return out, nil
}

func normalizeListPrefix(p string) string {
	clean := path.Clean(p)
	if clean == "." || clean == "/" || clean == "" {
		return ""
	}
	return strings.TrimPrefix(clean, "/") + "/"
}

func (w *coordinatorWorkspace) ReadFile(p string) (string, error) {
	u, ok := w.byPath[p]
	if !ok {
		return "", fmt.Errorf("file not found: %s", p)
	}
	return string(u.Content), nil
}

func (w *coordinatorWorkspace) ListSymbols(p string) ([]llmorch.SymbolSummary, error) {
	u, ok := w.byPath[p]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", p)
	}
	out := make([]llmorch.SymbolSummary, 0, len(u.Parse.Elements))
	for _, e := range u.Parse.Elements {
		out = append(out, llmorch.SymbolSummary{
			Name:      e.Name,
			Kind:      string(e.Kind),
			StartLine: e.StartLine,
			EndLine:   e.EndLine,
		})
	}
	return out, nil
}

func (w *coordinatorWorkspace) SymbolDetails(p, symbolName string) (llmorch.SymbolDetail, bool, error) {
	u, ok := w.byPath[p]
	if !ok {
		return llmorch.SymbolDetail{}, false, fmt.Errorf("file not found: %s", p)
	}
	for _, e := range u.Parse.Elements {
		if e.Name == symbolName {
			return llmorch.SymbolDetail{
				Name:      e.Name,
				Kind:      string(e.Kind),
				StartLine: e.StartLine,
				EndLine:   e.EndLine,
				Content:   e.Content,
				FilePath:  p,
			}, true, nil
		}
	}
	return llmorch.SymbolDetail{}, false, nil
}

func (w *coordinatorWorkspace) CreateIndexEntry(input llmorch.CreateIndexEntryInput) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.desc[input.Path+"::"+input.SymbolName] = input.SynthesizedDescription
	return nil
}

// descriptions returns a snapshot of every description the model
// recorded via create_index_entry during the agent's run.
func (w *coordinatorWorkspace) descriptions() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]string, len(w.desc))
	for k, v := range w.desc {
		out[k] = v
	}
	return out
}
