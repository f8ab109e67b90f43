// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage_KnownSuffixes(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a/b/Component.ts", LangTypeScript},
		{"a/b/Component.TS", LangTypeScript},
		{"a/b/Component.tsx", LangTSX},
		{"a/b/index.js", LangJavaScript},
		{"a/b/index.JSX", LangJavaScript},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectLanguage(tt.path), tt.path)
	}
}

func TestDetectLanguage_UnknownDefaultsToTypeScript(t *testing.T) {
	assert.Equal(t, LangTypeScript, DetectLanguage("README.md"))
	assert.Equal(t, LangTypeScript, DetectLanguage("no_extension"))
}

func TestGetParser_UnsupportedLanguage(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	_, err := reg.GetParser("cobol")
	assert.Error(t, err)
}

func TestRegistry_EvictIdle(t *testing.T) {
	reg := NewRegistry(t.TempDir())
	reg.IdleWindow = 0
	reg.evictIdle()
	assert.Equal(t, 0, reg.Cached())
}
