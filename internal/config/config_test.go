// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Processing: Processing{ParallelLimit: 10},
		Workspace:  Workspace{Root: "/workspace", Mode: ModeFull},
	}
}

func TestValidate_AcceptsWellFormedConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AcceptsEmptyModeAsUnspecified(t *testing.T) {
	cfg := validConfig()
	cfg.Workspace.Mode = ""
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsEmptyWorkspaceRoot(t *testing.T) {
	cfg := validConfig()
	cfg.Workspace.Root = ""
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "workspace.root")
}

func TestValidate_RejectsUnrecognizedMode(t *testing.T) {
	cfg := validConfig()
	cfg.Workspace.Mode = "delta"
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "workspace.mode")
}

func TestValidate_RejectsNonPositiveParallelLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Processing.ParallelLimit = 0
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "processing.parallel_limit")
}

func TestValidate_AcceptsEmptyLLMModeAndBothNamedModes(t *testing.T) {
	for _, mode := range []OrchestratorMode{"", ModeDigest, ModeAgent} {
		cfg := validConfig()
		cfg.LLM.Mode = mode
		assert.NoError(t, cfg.Validate())
	}
}

func TestValidate_RejectsUnrecognizedLLMMode(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Mode = "tool-assisted"
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "llm.mode")
}

func TestDefaultProcessing_HasPositiveParallelLimitAndBaselineExcludes(t *testing.T) {
	p := DefaultProcessing()
	assert.Equal(t, 10, p.ParallelLimit)
	assert.Contains(t, p.ExcludeGlobs, "**/node_modules/**")
	assert.NotEmpty(t, p.IncludeGlobs)
}

func TestDefaultStorage_DerivesDBPathFromWorkspaceRoot(t *testing.T) {
	s := DefaultStorage("/workspace")
	assert.Equal(t, "/workspace/.vibe/code.db", s.DBPath)
	assert.Equal(t, 4243, s.BasePort)
}
