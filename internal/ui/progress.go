// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Status is the lifecycle state of a single tracked component (a file, an
// element, a relationship batch — whatever granularity the caller reports
// at).
type Status string

const (
	StatusQueued    Status = "queued"
	StatusAnalyzing Status = "analyzing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Entry is one row of the process-wide status map.
type Entry struct {
	Status      Status
	StartedAt   time.Time
	Description string
}

// Tracker is the process-wide component_id -> Entry status map the
// Coordinator updates as files and elements move through the pipeline. It
// is safe for concurrent use by many worker goroutines.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]Entry
	start   time.Time
}

// NewTracker creates an empty status tracker, timestamped at construction
// for elapsed-time and rate calculations.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]Entry), start: time.Now()}
}

// Set records or updates the status of componentID.
func (t *Tracker) Set(componentID string, status Status, description string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, exists := t.entries[componentID]
	if !exists || entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now()
	}
	entry.Status = status
	entry.Description = description
	t.entries[componentID] = entry
}

// Counts returns the number of components in each status.
func (t *Tracker) Counts() map[Status]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := make(map[Status]int, 4)
	for _, e := range t.entries {
		counts[e.Status]++
	}
	return counts
}

// Snapshot returns a copy of the current status map, keyed by component
// id, for rendering or inspection.
func (t *Tracker) Snapshot() map[string]Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]Entry, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

// Rate returns the completion rate in components/second since the
// tracker was created.
func (t *Tracker) Rate() float64 {
	elapsed := time.Since(t.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	completed := t.Counts()[StatusCompleted]
	return float64(completed) / elapsed
}

// ETA estimates the remaining time to process `total` components given
// the current completion rate. Returns 0 when the rate is unknown.
func (t *Tracker) ETA(total int) time.Duration {
	rate := t.Rate()
	if rate <= 0 {
		return 0
	}
	remaining := total - t.Counts()[StatusCompleted]
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/rate) * time.Second
}

// Renderer prints Tracker snapshots to a writer, throttled to a minimum
// interval unless the caller forces an immediate render. Grounded on the
// same progressbar styling used for file-count progress bars elsewhere in
// this module, generalized to the heterogeneous component status map.
type Renderer struct {
	mu       sync.Mutex
	writer   io.Writer
	interval time.Duration
	last     time.Time
	total    int
}

// NewRenderer creates a throttled renderer. total is the expected number
// of components, used for the completion percentage and ETA; 0 disables
// the percentage line.
func NewRenderer(w io.Writer, total int) *Renderer {
	return &Renderer{writer: w, interval: 2 * time.Second, total: total}
}

// SetInterval overrides the default 2-second minimum render interval.
func (r *Renderer) SetInterval(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interval = d
}

// Render prints an aggregate line for the tracker's current state. When
// force is false, calls within the throttle interval of the previous
// render are silently dropped.
func (r *Renderer) Render(t *Tracker, force bool) {
	r.mu.Lock()
	now := time.Now()
	if !force && now.Sub(r.last) < r.interval {
		r.mu.Unlock()
		return
	}
	r.last = now
	r.mu.Unlock()

	counts := t.Counts()
	rate := t.Rate()
	line := fmt.Sprintf("queued=%d analyzing=%d completed=%d failed=%d rate=%.2f/s",
		counts[StatusQueued], counts[StatusAnalyzing], counts[StatusCompleted], counts[StatusFailed], rate)

	if r.total > 0 {
		pct := 100 * counts[StatusCompleted] / r.total
		eta := t.ETA(r.total)
		line += fmt.Sprintf(" (%d%%, eta %s)", pct, eta.Round(time.Second))
	}

	fmt.Fprintln(r.writer, line)
}

// FailedComponents returns the ids of components currently in the failed
// state, sorted for deterministic diagnostics.
func (t *Tracker) FailedComponents() []string {
	snap := t.Snapshot()
	var out []string
	for id, e := range snap {
		if e.Status == StatusFailed {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// BarConfig determines if and how a schollz/progressbar bar should be
// displayed alongside the tracker's textual summary.
type BarConfig struct {
	Enabled bool
	Writer  io.Writer
	NoColor bool
}

// NewBarConfig derives a BarConfig from quiet/no-color flags and TTY
// detection on stderr, the same policy the demonstration CLI applies.
func NewBarConfig(quiet, noColor bool) BarConfig {
	return BarConfig{
		Enabled: !quiet && isatty.IsTerminal(os.Stderr.Fd()),
		Writer:  os.Stderr,
		NoColor: noColor,
	}
}

// NewBar creates a progress bar with consistent styling, or returns nil
// when progress is disabled. Methods on a nil *progressbar.ProgressBar
// panic, so a caller guards each update with `if bar != nil`.
func NewBar(cfg BarConfig, total int64, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
