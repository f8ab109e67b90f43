// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package metrics exposes the Coordinator's Prometheus counters and
// histograms: files and elements processed, embedding and LLM call
// outcomes, and stage durations. One process-wide registration,
// guarded against double-registration by sync.Once, mirroring
// pkg/ingestion/metrics.go's shape.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type indexingMetrics struct {
	once sync.Once

	filesDiscovered prometheus.Counter
	filesSkipped    prometheus.Counter
	filesFailed     prometheus.Counter

	elementsExtracted     prometheus.Counter
	relationshipsResolved prometheus.Counter
	relationshipsDropped  prometheus.Counter

	embedComputed prometheus.Counter
	embedErrors   prometheus.Counter
	embedRetries  prometheus.Counter

	llmDescriptions prometheus.Counter
	llmFallbacks    prometheus.Counter
	llmTokensUsed   prometheus.Counter

	batchesCommitted prometheus.Counter

	parseDuration   prometheus.Histogram
	embedDuration   prometheus.Histogram
	describeDuration prometheus.Histogram
	commitDuration  prometheus.Histogram
	totalDuration   prometheus.Histogram
}

var m indexingMetrics

func (m *indexingMetrics) init() {
	m.once.Do(func() {
		m.filesDiscovered = prometheus.NewCounter(prometheus.CounterOpts{Name: "vibeindex_files_discovered_total", Help: "Files matched by include/exclude globs"})
		m.filesSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "vibeindex_files_skipped_total", Help: "Files skipped (unchanged in incremental mode)"})
		m.filesFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "vibeindex_files_failed_total", Help: "Files whose parse/extract failed and were skipped"})

		m.elementsExtracted = prometheus.NewCounter(prometheus.CounterOpts{Name: "vibeindex_elements_extracted_total", Help: "Code elements extracted"})
		m.relationshipsResolved = prometheus.NewCounter(prometheus.CounterOpts{Name: "vibeindex_relationships_resolved_total", Help: "Structural and data-flow edges resolved"})
		m.relationshipsDropped = prometheus.NewCounter(prometheus.CounterOpts{Name: "vibeindex_relationships_dropped_total", Help: "Edges dropped for an unresolved endpoint"})

		m.embedComputed = prometheus.NewCounter(prometheus.CounterOpts{Name: "vibeindex_embeddings_computed_total", Help: "Embeddings computed across all four channels"})
		m.embedErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "vibeindex_embeddings_errors_total", Help: "Embedding calls that failed after retry"})
		m.embedRetries = prometheus.NewCounter(prometheus.CounterOpts{Name: "vibeindex_embeddings_retries_total", Help: "Embedding call retries"})

		m.llmDescriptions = prometheus.NewCounter(prometheus.CounterOpts{Name: "vibeindex_llm_descriptions_total", Help: "Descriptions synthesized by the LLM orchestrator"})
		m.llmFallbacks = prometheus.NewCounter(prometheus.CounterOpts{Name: "vibeindex_llm_fallbacks_total", Help: "Descriptions that fell back after exhausting retries"})
		m.llmTokensUsed = prometheus.NewCounter(prometheus.CounterOpts{Name: "vibeindex_llm_tokens_total", Help: "LLM tokens consumed across the run"})

		m.batchesCommitted = prometheus.NewCounter(prometheus.CounterOpts{Name: "vibeindex_batches_committed_total", Help: "Graph-store commit batches"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
		m.parseDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "vibeindex_parse_seconds", Help: "Parse & extract duration per file", Buckets: buckets})
		m.embedDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "vibeindex_embed_seconds", Help: "Embed stage duration", Buckets: buckets})
		m.describeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "vibeindex_describe_seconds", Help: "Describe stage duration", Buckets: buckets})
		m.commitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "vibeindex_commit_seconds", Help: "Graph-store commit duration", Buckets: buckets})
		m.totalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "vibeindex_total_seconds", Help: "Total indexing run duration", Buckets: buckets})

		prometheus.MustRegister(
			m.filesDiscovered, m.filesSkipped, m.filesFailed,
			m.elementsExtracted, m.relationshipsResolved, m.relationshipsDropped,
			m.embedComputed, m.embedErrors, m.embedRetries,
			m.llmDescriptions, m.llmFallbacks, m.llmTokensUsed,
			m.batchesCommitted,
			m.parseDuration, m.embedDuration, m.describeDuration, m.commitDuration, m.totalDuration,
		)
	})
}

// RecordFileDiscovered increments the discovered-files counter.
func RecordFileDiscovered() { m.init(); m.filesDiscovered.Inc() }

// RecordFileSkipped increments the unchanged-file-skipped counter.
func RecordFileSkipped() { m.init(); m.filesSkipped.Inc() }

// RecordFileFailed increments the failed-file counter.
func RecordFileFailed() { m.init(); m.filesFailed.Inc() }

// RecordElementsExtracted adds n to the extracted-elements counter.
func RecordElementsExtracted(n int) { m.init(); m.elementsExtracted.Add(float64(n)) }

// RecordRelationshipsResolved adds n to the resolved-edges counter.
func RecordRelationshipsResolved(n int) { m.init(); m.relationshipsResolved.Add(float64(n)) }

// RecordRelationshipsDropped adds n to the dropped-edges counter.
func RecordRelationshipsDropped(n int) { m.init(); m.relationshipsDropped.Add(float64(n)) }

// RecordEmbedComputed increments the computed-embeddings counter.
func RecordEmbedComputed() { m.init(); m.embedComputed.Inc() }

// RecordEmbedError increments the embedding-failure counter.
func RecordEmbedError() { m.init(); m.embedErrors.Inc() }

// RecordEmbedRetry increments the embedding-retry counter.
func RecordEmbedRetry() { m.init(); m.embedRetries.Inc() }

// RecordLLMDescription increments the synthesized-description counter.
func RecordLLMDescription() { m.init(); m.llmDescriptions.Inc() }

// RecordLLMFallback increments the fallback-description counter.
func RecordLLMFallback() { m.init(); m.llmFallbacks.Inc() }

// RecordLLMTokens adds n to the LLM token-usage counter.
func RecordLLMTokens(n int) { m.init(); m.llmTokensUsed.Add(float64(n)) }

// RecordBatchCommitted increments the committed-batches counter.
func RecordBatchCommitted() { m.init(); m.batchesCommitted.Inc() }

// ObserveParseDuration records one file's parse & extract duration in seconds.
func ObserveParseDuration(seconds float64) { m.init(); m.parseDuration.Observe(seconds) }

// ObserveEmbedDuration records the embed stage's duration in seconds.
func ObserveEmbedDuration(seconds float64) { m.init(); m.embedDuration.Observe(seconds) }

// ObserveDescribeDuration records the describe stage's duration in seconds.
func ObserveDescribeDuration(seconds float64) { m.init(); m.describeDuration.Observe(seconds) }

// ObserveCommitDuration records the commit stage's duration in seconds.
func ObserveCommitDuration(seconds float64) { m.init(); m.commitDuration.Observe(seconds) }

// ObserveTotalDuration records one full indexing run's duration in seconds.
func ObserveTotalDuration(seconds float64) { m.init(); m.totalDuration.Observe(seconds) }
