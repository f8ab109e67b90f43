// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package contract provides validation constants and utilities shared
// across the indexing pipeline.
//
// # Batch Size Limits
//
// The Coordinator enforces a soft limit on the total content size of a
// single file's element batch, to guard against a pathological file
// (e.g. a generated or vendored blob that slipped past exclude globs)
// exhausting memory during commit:
//
//	result := contract.ValidateBatchSize(totalContentBytes)
//	if !result.OK {
//	    log.Printf("validation failed: %s", result.Message)
//	}
//
// # Configuration via Environment
//
// The soft limit can be adjusted via the VIBEINDEX_SOFT_LIMIT_BYTES
// environment variable:
//
//	export VIBEINDEX_SOFT_LIMIT_BYTES=33554432  # 32 MiB
//
// If unset or invalid, DefaultSoftLimitBytes (64 MiB) is used.
package contract
