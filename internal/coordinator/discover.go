// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package coordinator

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	apperrors "github.com/kraklabs/vibeindex/internal/errors"
)

// discoverFiles walks root and returns every regular file whose
// root-relative, slash-normalized path matches at least one include
// glob and no exclude glob, per spec §4.7 step 1. Grounded on
// vvoland-cagent's pkg/fsx/collect.go, which uses the same
// bmatcuk/doublestar matcher for the same relative-path-glob shape;
// generalized here from a flat path list to a root walk so commands
// can match "**/*.ts" without fully enumerating node_modules first.
func discoverFiles(root string, include, exclude []string) ([]string, error) {
	var matched []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal (KindFilesystem)
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			for _, pattern := range exclude {
				if dirExcluded(rel, pattern) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		for _, pattern := range exclude {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return nil
			}
		}
		for _, pattern := range include {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				matched = append(matched, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.New(apperrors.KindFilesystem, "discover_files", "failed to walk workspace root", err)
	}

	sort.Strings(matched)
	return matched, nil
}

// dirExcluded reports whether a directory itself should be pruned: an
// exclude pattern like "**/node_modules/**" should stop the walk from
// ever descending into node_modules rather than filtering its contents
// file by file.
func dirExcluded(rel, pattern string) bool {
	trimmed := pattern
	for _, suffix := range []string{"/**", "/*"} {
		if len(trimmed) > len(suffix) && trimmed[len(trimmed)-len(suffix):] == suffix {
			trimmed = trimmed[:len(trimmed)-len(suffix)]
			break
		}
	}
	ok, _ := doublestar.Match(trimmed, rel)
	if ok {
		return true
	}
	ok, _ = doublestar.Match(pattern, rel+"/x")
	return ok
}
