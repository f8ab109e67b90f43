// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/mod/semver"

	apperrors "github.com/kraklabs/vibeindex/internal/errors"
)

// grammarArtifact is the file a grammar directory must contain to be
// considered a usable artifact for a language.
const grammarArtifact = "grammar.json"

// GrammarResolver locates the grammar artifact for a language id under
// a configured search path. The expected layout is
// <searchPath>/<language_id>/<semver>/grammar.json — the resolver picks
// the latest SemVer-sorted subdirectory that contains the artifact.
type GrammarResolver struct {
	SearchPath string
}

// NewGrammarResolver builds a resolver rooted at searchPath.
func NewGrammarResolver(searchPath string) *GrammarResolver {
	return &GrammarResolver{SearchPath: searchPath}
}

// Resolve returns the version string of the newest grammar artifact
// available for languageID, or a KindParser error when no artifact is
// found or the newest one cannot be opened. Both failures are fatal for
// that language only; other languages remain usable via their own cache
// entries.
func (g *GrammarResolver) Resolve(languageID string) (string, error) {
	langDir := filepath.Join(g.SearchPath, languageID)
	entries, err := os.ReadDir(langDir)
	if err != nil {
		return "", apperrors.New(apperrors.KindParser, "resolve_grammar",
			"no grammar directory for "+languageID, err)
	}

	var versions []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		v := name
		if v[0] != 'v' {
			v = "v" + v
		}
		if !semver.IsValid(v) {
			continue
		}
		if _, err := os.Stat(filepath.Join(langDir, name, grammarArtifact)); err != nil {
			continue
		}
		versions = append(versions, name)
	}

	if len(versions) == 0 {
		return "", apperrors.New(apperrors.KindParser, "resolve_grammar",
			"no grammar artifact found for "+languageID, nil)
	}

	sort.Slice(versions, func(i, j int) bool {
		vi, vj := versions[i], versions[j]
		if vi[0] != 'v' {
			vi = "v" + vi
		}
		if vj[0] != 'v' {
			vj = "v" + vj
		}
		return semver.Compare(vi, vj) < 0
	})

	latest := versions[len(versions)-1]

	artifactPath := filepath.Join(langDir, latest, grammarArtifact)
	f, err := os.Open(artifactPath)
	if err != nil {
		return "", apperrors.New(apperrors.KindParser, "resolve_grammar",
			"grammar artifact unreadable for "+languageID, err)
	}
	f.Close()

	return latest, nil
}
