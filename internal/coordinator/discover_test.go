// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package coordinator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverFiles_MatchesIncludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.ts", "content")
	writeFile(t, root, "src/util.tsx", "content")
	writeFile(t, root, "README.md", "content")

	matched, err := discoverFiles(root, []string{"**/*.ts", "**/*.tsx"}, nil)
	require.NoError(t, err)
	require.Len(t, matched, 2)
	for _, m := range matched {
		assert.True(t, filepath.Ext(m) == ".ts" || filepath.Ext(m) == ".tsx")
	}
}

func TestDiscoverFiles_PrunesExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.ts", "content")
	writeFile(t, root, "node_modules/dep/index.ts", "content")

	matched, err := discoverFiles(root, []string{"**/*.ts"}, []string{"**/node_modules/**"})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, filepath.Join(root, "src/main.ts"), matched[0])
}

func TestDiscoverFiles_ExcludeWinsOverInclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.test.ts", "content")

	matched, err := discoverFiles(root, []string{"**/*.ts"}, []string{"**/*.test.ts"})
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestDiscoverFiles_EmptyRootYieldsNoFiles(t *testing.T) {
	root := t.TempDir()
	matched, err := discoverFiles(root, []string{"**/*.ts"}, nil)
	require.NoError(t, err)
	assert.Empty(t, matched)
}
