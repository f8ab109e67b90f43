// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package contract

import (
	"os"
	"strconv"
)

// DefaultSoftLimitBytes is the baseline soft limit on the total
// extracted content committed for a single file's element batch.
const DefaultSoftLimitBytes = 64 << 20 // 64 MiB

// SoftLimitBytes returns the effective soft limit for a file's element
// batch. Controlled via env VIBEINDEX_SOFT_LIMIT_BYTES; falls back to
// DefaultSoftLimitBytes.
func SoftLimitBytes() int {
	if v := os.Getenv("VIBEINDEX_SOFT_LIMIT_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultSoftLimitBytes
}

// ValidationResult represents the result of a validation check.
type ValidationResult struct {
	OK      bool
	Message string
}

// ValidateBatchSize checks a file's total extracted content size
// against the soft limit, guarding against a single pathological file
// (e.g. a generated or vendored blob that slipped past exclude globs)
// exhausting memory during commit.
func ValidateBatchSize(totalContentBytes int) *ValidationResult {
	if totalContentBytes > SoftLimitBytes() {
		return &ValidationResult{
			OK:      false,
			Message: "file's element batch exceeds soft limit",
		}
	}
	return &ValidationResult{OK: true}
}
