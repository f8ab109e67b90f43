// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package relate implements the Relationship Analyzer (C3): it builds a
// cross-file name index and, given that index and a file's extraction
// result, derives structural and data-flow relationships between
// elements. Grounded on pkg/ingestion/resolver.go's CallResolver, which
// this package generalizes from Go-only call resolution to the full
// structural and data-flow edge set of spec §4.3.
package relate

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/kraklabs/vibeindex/internal/extract"
	"github.com/kraklabs/vibeindex/internal/model"
)

// parallelThreshold mirrors CallResolver.ResolveCalls: below this many
// pending call sites, sequential resolution avoids goroutine overhead.
const parallelThreshold = 1000

// NameIndex maps (module_path, exported_name) -> element id across all
// files, plus a same-file index for non-exported same-file resolution,
// built once after every file has been extracted (spec §4.7 step 3).
type NameIndex struct {
	// byModuleAndName resolves cross-file references: exported names are
	// keyed by the declaring file's module path (its path without extension).
	byModuleAndName map[string]map[string]string

	// byFileAndName resolves same-file references regardless of export
	// status, since a private helper is visible within its own file.
	byFileAndName map[string]map[string]string

	// modulePathToFile maps a normalized module path back to the file
	// that declares it, used to follow relative import specifiers.
	modulePathToFile map[string]string

	// fileModuleElement is the synthetic per-file "module identity"
	// element id, the resolution target for other files' import edges.
	fileModuleElement map[string]string
}

// NewNameIndex builds an empty index.
func NewNameIndex() *NameIndex {
	return &NameIndex{
		byModuleAndName:   make(map[string]map[string]string),
		byFileAndName:     make(map[string]map[string]string),
		modulePathToFile:  make(map[string]string),
		fileModuleElement: make(map[string]string),
	}
}

// modulePath strips the file extension and normalizes separators, so
// "src/utils/format.ts" and an import specifier "./format" (resolved
// relative to "src/utils") land on the same key.
func modulePath(filePath string) string {
	clean := filepath.ToSlash(filepath.Clean(filePath))
	ext := filepath.Ext(clean)
	return strings.TrimSuffix(clean, ext)
}

// AddFile registers one file's elements into the index. Call once per
// file, after all files have been extracted but before Analyze.
func (idx *NameIndex) AddFile(result *extract.FileParseResult) {
	mp := modulePath(result.FilePath)
	idx.modulePathToFile[mp] = result.FilePath
	idx.fileModuleElement[result.FilePath] = model.GenerateElementID(result.FilePath, "<module>", 0)

	if idx.byFileAndName[result.FilePath] == nil {
		idx.byFileAndName[result.FilePath] = make(map[string]string)
	}
	if idx.byModuleAndName[mp] == nil {
		idx.byModuleAndName[mp] = make(map[string]string)
	}

	for _, e := range result.Elements {
		idx.byFileAndName[result.FilePath][e.Name] = e.ID
		if e.Exported {
			idx.byModuleAndName[mp][e.Name] = e.ID
		}
	}
}

// ModuleElementID returns the synthetic module-identity element id for
// a file, the "to" endpoint an import edge resolves against.
func (idx *NameIndex) ModuleElementID(filePath string) string {
	return idx.fileModuleElement[filePath]
}

// resolveModuleSpecifier resolves an import specifier (relative or
// bare) against fromFile's directory to a module path present in the
// index, trying the supported source extensions.
func (idx *NameIndex) resolveModuleSpecifier(fromFile, specifier string) (string, bool) {
	if strings.HasPrefix(specifier, ".") {
		joined := filepath.ToSlash(filepath.Clean(filepath.Join(filepath.Dir(fromFile), specifier)))
		if _, ok := idx.modulePathToFile[joined]; ok {
			return joined, true
		}
		return "", false
	}
	if _, ok := idx.modulePathToFile[specifier]; ok {
		return specifier, true
	}
	return "", false
}

// resolveName resolves a bare identifier to an element id. sameFile's
// elements (exported or not) are searched first; when module is
// non-empty, that module's exported names are the second choice. No
// other module is searched, so a name found in neither tier does not
// resolve.
func (idx *NameIndex) resolveName(sameFile, module, name string) (string, bool) {
	if m, ok := idx.byFileAndName[sameFile]; ok {
		if id, ok := m[name]; ok {
			return id, true
		}
	}
	if module != "" {
		if m, ok := idx.byModuleAndName[module]; ok {
			if id, ok := m[name]; ok {
				return id, true
			}
		}
	}
	return "", false
}

// dedupeKeys guards parallel resolution from emitting duplicate edges,
// mirroring CallResolver's seen-edge-key map.
type dedupeKeys struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newDedupeKeys() *dedupeKeys {
	return &dedupeKeys{seen: make(map[string]bool)}
}

func (d *dedupeKeys) markIfNew(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[key] {
		return false
	}
	d.seen[key] = true
	return true
}

// workerCount mirrors CallResolver.resolveCallsParallel's cap of 8.
func workerCount() int {
	n := runtime.NumCPU()
	if n > 8 {
		return 8
	}
	if n < 1 {
		return 1
	}
	return n
}
