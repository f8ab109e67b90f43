// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package llmorch

import (
	"fmt"
	"math"
	"sync"
)

// TokenUsage accumulates input/output/total token counts across calls,
// per spec §4.5's thread-scoped tracker.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Tracker is safe for concurrent use across the LLM calls of one run.
type Tracker struct {
	mu    sync.Mutex
	usage TokenUsage
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Add accumulates one call's usage.
func (t *Tracker) Add(input, output int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.usage.InputTokens += input
	t.usage.OutputTokens += output
	t.usage.TotalTokens += input + output
}

// Usage returns a snapshot of accumulated usage.
func (t *Tracker) Usage() TokenUsage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.usage
}

// Format renders n as spec §4.5 requires:
// n < 1,000 -> "n"; 1,000 <= n < 1,000,000 -> "N K" (one decimal iff
// non-integer K); n >= 1,000,000 -> "N M" (one decimal iff
// non-integer M).
func Format(n int) string {
	switch {
	case n < 1000:
		return fmt.Sprintf("%d", n)
	case n < 1_000_000:
		return formatScaled(n, 1000.0, "K")
	default:
		return formatScaled(n, 1_000_000.0, "M")
	}
}

func formatScaled(n int, scale float64, suffix string) string {
	v := float64(n) / scale
	rounded := math.Round(v)
	if v == rounded {
		return fmt.Sprintf("%d%s", int(rounded), suffix)
	}
	return fmt.Sprintf("%.1f%s", v, suffix)
}

// Progress renders "current/max" using Format on each side, e.g.
// "240K/1M".
func Progress(current, max int) string {
	return Format(current) + "/" + Format(max)
}

// PercentOf returns round(100 * min(current, max) / max).
func PercentOf(current, max int) int {
	if max <= 0 {
		return 0
	}
	if current > max {
		current = max
	}
	return int(math.Round(100 * float64(current) / float64(max)))
}

// IsNearLimit reports whether current/max >= ratio.
func IsNearLimit(current, max int, ratio float64) bool {
	if max <= 0 {
		return false
	}
	return float64(current)/float64(max) >= ratio
}
