// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package parser implements the Parser Registry: language detection,
// grammar resolution from a versioned search path, and a process-wide
// cache of live tree-sitter parsers with idle eviction.
package parser

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	apperrors "github.com/kraklabs/vibeindex/internal/errors"
)

// Language ids recognized by detect_language.
const (
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
	LangJavaScript = "javascript"
)

// extensionLanguage maps lower-cased file extensions to language ids.
// Unknown extensions default to LangTypeScript per spec §4.1.
var extensionLanguage = map[string]string{
	".ts":  LangTypeScript,
	".tsx": LangTSX,
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
}

// DetectLanguage returns the language id for path based solely on its
// lower-cased suffix. Unknown suffixes map to LangTypeScript.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionLanguage[ext]; ok {
		return lang
	}
	return LangTypeScript
}

// grammarFactories supplies the statically linked tree-sitter grammar
// for each language id once the Registry has confirmed (via the
// GrammarResolver) that a matching artifact is present in the
// configured search path. Grammars are compiled into the binary, as
// go-tree-sitter bindings normally are; the search path models the
// deployment-time contract that a given grammar version is vendored
// alongside the binary.
var grammarFactories = map[string]func() *sitter.Language{
	LangTypeScript: typescript.GetLanguage,
	LangTSX:        tsx.GetLanguage,
	LangJavaScript: javascript.GetLanguage,
}

type cacheEntry struct {
	parser  *sitter.Parser
	lang    *sitter.Language
	version string
	lastUse time.Time
}

// Registry lazily loads and caches one parser per language, evicting
// entries unused for longer than IdleWindow.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*cacheEntry
	resolver *GrammarResolver

	// IdleWindow is the minimum time an unused parser stays cached before
	// the background sweep may evict it. Zero disables eviction.
	IdleWindow time.Duration

	stopSweep chan struct{}
	sweepOnce sync.Once
}

// NewRegistry builds a Registry backed by a GrammarResolver rooted at
// searchPath, with the default 10-minute idle eviction window.
func NewRegistry(searchPath string) *Registry {
	return &Registry{
		entries:    make(map[string]*cacheEntry),
		resolver:   NewGrammarResolver(searchPath),
		IdleWindow: 10 * time.Minute,
	}
}

// StartSweep launches the background idle-eviction goroutine. Calling it
// more than once is a no-op; call Stop to terminate the goroutine.
func (r *Registry) StartSweep(interval time.Duration) {
	r.sweepOnce.Do(func() {
		r.stopSweep = make(chan struct{})
		go r.sweepLoop(interval)
	})
}

// Stop terminates the background sweep goroutine, if running.
func (r *Registry) Stop() {
	if r.stopSweep != nil {
		close(r.stopSweep)
	}
}

func (r *Registry) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopSweep:
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}

func (r *Registry) evictIdle() {
	if r.IdleWindow <= 0 {
		return
	}
	cutoff := time.Now().Add(-r.IdleWindow)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.entries {
		if entry.lastUse.Before(cutoff) {
			delete(r.entries, id)
		}
	}
}

// GetParser resolves, caches, and returns the tree-sitter parser for
// languageID. The first call for a given id resolves the grammar via
// the configured search path; subsequent calls reuse the cached entry
// and extend its lifetime, preventing the idle sweep from evicting an
// in-flight language.
func (r *Registry) GetParser(languageID string) (*sitter.Parser, error) {
	r.mu.RLock()
	entry, ok := r.entries[languageID]
	r.mu.RUnlock()
	if ok {
		r.touch(languageID)
		return entry.parser, nil
	}

	factory, known := grammarFactories[languageID]
	if !known {
		return nil, apperrors.New(apperrors.KindParser, "get_parser",
			"unsupported language: "+languageID, nil)
	}

	version, err := r.resolver.Resolve(languageID)
	if err != nil {
		return nil, err
	}

	lang := factory()
	p := sitter.NewParser()
	p.SetLanguage(lang)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[languageID]; ok {
		existing.lastUse = time.Now()
		return existing.parser, nil
	}
	r.entries[languageID] = &cacheEntry{parser: p, lang: lang, version: version, lastUse: time.Now()}
	return p, nil
}

func (r *Registry) touch(languageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[languageID]; ok {
		entry.lastUse = time.Now()
	}
}

// Parse produces a syntax tree for source in the given language.
// Malformed input never fails the parse: tree-sitter's error-recovery
// grammar yields a tree with ERROR nodes that the extractor inspects.
func (r *Registry) Parse(ctx context.Context, source []byte, languageID string) (*sitter.Tree, error) {
	p, err := r.GetParser(languageID)
	if err != nil {
		return nil, err
	}
	tree, err := p.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, apperrors.New(apperrors.KindParser, "parse", "tree-sitter parse failed", err)
	}
	return tree, nil
}

// Cached reports how many languages currently hold a live cache entry,
// for diagnostics and tests.
func (r *Registry) Cached() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
