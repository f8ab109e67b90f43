// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package llmorch

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/kraklabs/vibeindex/internal/errors"
)

// withRetry wraps call in spec §4.5's retry policy: 3 attempts, base
// 2s, factor 2 (delays 2s, 4s). On final failure it returns the error;
// callers substitute the stable fallback description string.
func withRetry(ctx context.Context, op string, call func() error) error {
	const maxAttempts = 3
	base := 2 * time.Second
	delay := base

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = call()
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return apperrors.New(apperrors.KindLLM, op, fmt.Sprintf("failed after %d attempts", maxAttempts), lastErr).WithRetryable()
}

// FallbackDescription is spec §4.5's stable description used when an
// LLM call fails on its final retry, so the pipeline never stalls.
func FallbackDescription(name, kind string, err error) string {
	return fmt.Sprintf("%s (%s): %s", name, kind, err.Error())
}
