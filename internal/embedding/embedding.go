// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package embedding implements the Embedding Service (C4): four
// content channels sharing one backend model, batched requests,
// content-addressed caching, and cosine similarity. Grounded on
// pkg/ingestion/embedding.go, generalized from two hardcoded channels
// (function, type) to a parameterized Channel.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	apperrors "github.com/kraklabs/vibeindex/internal/errors"
)

// Channel identifies one of the four embedding spaces a CodeElement or
// relationship occupies.
type Channel string

const (
	ChannelCode         Channel = "code"
	ChannelSemantic     Channel = "semantic"
	ChannelRelationship Channel = "relationship"
	ChannelDataFlow     Channel = "data_flow"
)

// Vector is a unit-normalized embedding.
type Vector []float32

// Provider generates embeddings for text in a given channel. Channel
// is advisory for providers that expose distinct endpoints per
// content type; providers that don't may ignore it.
type Provider interface {
	Embed(ctx context.Context, channel Channel, text string) (Vector, error)
}

// Diagnostic records one failed position in a batch, per spec §4.4:
// "on partial failure emits per-position diagnostics and omits the
// failed position".
type Diagnostic struct {
	Index   int
	Message string
}

// Config is the Embedding Service's construction-time configuration,
// spec §4.4's recognized-options set.
type Config struct {
	Model          string
	Dimensions     int
	BatchSize      int
	EnableCaching  bool
	APIKey         string
}

// Validate enforces the constraints construction must fail on.
func (c Config) Validate() error {
	if c.Model == "" {
		return apperrors.New(apperrors.KindEmbedding, "validate_config", "model must not be empty", nil).WithFatal()
	}
	if c.Dimensions <= 0 {
		return apperrors.New(apperrors.KindEmbedding, "validate_config", "dimensions must be a positive integer", nil).WithFatal()
	}
	if c.BatchSize <= 0 {
		return apperrors.New(apperrors.KindEmbedding, "validate_config", "batch_size must be a positive integer", nil).WithFatal()
	}
	return nil
}

// Service is the Embedding Service: a Provider plus batching, retry,
// and an optional content-addressed cache.
type Service struct {
	cfg      Config
	provider Provider

	cacheMu sync.RWMutex
	cache   map[string]Vector

	retryBase    time.Duration
	retryMax     int
	retryFactor  float64
}

// New constructs a Service. Returns InvalidConfiguration if cfg
// violates any recognized-option constraint.
func New(cfg Config, provider Provider) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.New(apperrors.KindEmbedding, "new_service", "api_key must be a non-empty string", nil).WithFatal()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		cfg:         cfg,
		provider:    provider,
		retryBase:   2 * time.Second,
		retryMax:    3,
		retryFactor: 2.0,
	}
	if cfg.EnableCaching {
		s.cache = make(map[string]Vector)
	}
	return s, nil
}

func cacheKey(channel Channel, model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return string(channel) + "|" + model + "|" + hex.EncodeToString(sum[:])
}

// Embed returns a unit-normalized vector of the configured dimension
// for one piece of text in channel.
func (s *Service) Embed(ctx context.Context, channel Channel, text string) (Vector, error) {
	if s.cfg.EnableCaching {
		key := cacheKey(channel, s.cfg.Model, text)
		s.cacheMu.RLock()
		if v, ok := s.cache[key]; ok {
			s.cacheMu.RUnlock()
			return v, nil
		}
		s.cacheMu.RUnlock()
	}

	v, err := s.embedWithRetry(ctx, channel, text)
	if err != nil {
		return nil, err
	}

	if s.cfg.EnableCaching {
		key := cacheKey(channel, s.cfg.Model, text)
		s.cacheMu.Lock()
		s.cache[key] = v
		s.cacheMu.Unlock()
	}
	return v, nil
}

func (s *Service) embedWithRetry(ctx context.Context, channel Channel, text string) (Vector, error) {
	var lastErr error
	for attempt := 0; attempt < s.retryMax; attempt++ {
		v, err := s.provider.Embed(ctx, channel, text)
		if err == nil {
			return normalize(v), nil
		}
		lastErr = err
		if attempt == s.retryMax-1 {
			break
		}
		delay := time.Duration(float64(s.retryBase) * math.Pow(s.retryFactor, float64(attempt)))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, apperrors.New(apperrors.KindEmbedding, "embed", fmt.Sprintf("embedding backend failed after %d attempts", s.retryMax), lastErr).WithRetryable()
}

// EmbedBatch embeds many texts in one channel, splitting into
// sub-batches of at most batch_size and preserving input order.
// Failed positions are omitted from the result and reported as
// diagnostics rather than aborting the whole batch.
func (s *Service) EmbedBatch(ctx context.Context, channel Channel, texts []string) ([]Vector, []Diagnostic) {
	results := make([]Vector, 0, len(texts))
	var diagnostics []Diagnostic

	for start := 0; start < len(texts); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		for i := start; i < end; i++ {
			v, err := s.Embed(ctx, channel, texts[i])
			if err != nil {
				diagnostics = append(diagnostics, Diagnostic{Index: i, Message: err.Error()})
				continue
			}
			results = append(results, v)
		}
	}
	return results, diagnostics
}

// Similarity returns the cosine similarity of a and b, in [-1, 1].
func Similarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func normalize(v Vector) Vector {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	out := make(Vector, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// MockProvider generates deterministic, content-derived embeddings for
// testing and for workspaces with no configured embedding backend.
// Ported from pkg/ingestion/embedding.go's MockEmbeddingProvider.
type MockProvider struct {
	Dimensions int
}

func (m *MockProvider) Embed(_ context.Context, _ Channel, text string) (Vector, error) {
	hash := hashString(text)
	v := make(Vector, m.Dimensions)
	r := rand.New(rand.NewSource(int64(hash)))
	for i := range v {
		v[i] = r.Float32()*2 - 1
	}
	return v, nil
}

func hashString(s string) uint64 {
	var hash uint64 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint64(c)
	}
	return hash
}
