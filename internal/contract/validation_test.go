// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package contract

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSoftLimitBytes_DefaultsWithoutEnv(t *testing.T) {
	os.Unsetenv("VIBEINDEX_SOFT_LIMIT_BYTES")
	assert.Equal(t, DefaultSoftLimitBytes, SoftLimitBytes())
}

func TestSoftLimitBytes_HonorsEnvOverride(t *testing.T) {
	t.Setenv("VIBEINDEX_SOFT_LIMIT_BYTES", "1024")
	assert.Equal(t, 1024, SoftLimitBytes())
}

func TestSoftLimitBytes_IgnoresInvalidEnv(t *testing.T) {
	t.Setenv("VIBEINDEX_SOFT_LIMIT_BYTES", "not-a-number")
	assert.Equal(t, DefaultSoftLimitBytes, SoftLimitBytes())
}

func TestValidateBatchSize_OKUnderLimit(t *testing.T) {
	result := ValidateBatchSize(1024)
	assert.True(t, result.OK)
}

func TestValidateBatchSize_RejectsOverLimit(t *testing.T) {
	t.Setenv("VIBEINDEX_SOFT_LIMIT_BYTES", "100")
	result := ValidateBatchSize(101)
	assert.False(t, result.OK)
	assert.NotEmpty(t, result.Message)
}
