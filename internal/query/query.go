// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package query implements the query path (Q): embed a natural-language
// query, run similarity search against the Graph Store (C6), and
// optionally traverse outgoing relationships from each hit to assemble
// ranked context. Grounded on pkg/tools/semantic.go's embed-then-search
// shape and pkg/tools/trace.go's BFS-based call-path assembly, adapted
// from CozoDB HNSW scripts and hand-rolled BFS to this module's
// embedding.Service and graph.Backend.
package query

import (
	"context"

	apperrors "github.com/kraklabs/vibeindex/internal/errors"
	"github.com/kraklabs/vibeindex/internal/embedding"
	"github.com/kraklabs/vibeindex/internal/graph"
	"github.com/kraklabs/vibeindex/internal/model"
)

// defaultLimit and maxLimit mirror graph.SQLiteStore.Search's own
// clamping, so a caller that skips Options entirely still gets sane
// pagination.
const (
	defaultLimit = 10
	maxLimit     = 100
)

// Options parameterizes Run. Channel defaults to embedding.ChannelSemantic
// since queries are natural language, matched against element
// descriptions rather than verbatim code.
type Options struct {
	Channel    embedding.Channel
	Limit      int
	Threshold  float64
	PathFilter string
	KindFilter model.ElementKind

	// Expand, when true, traverses outgoing relationships from each hit
	// (bounded by ExpandOptions) and attaches the result as context.
	Expand        bool
	ExpandOptions graph.TraverseOptions
}

// Hit is one ranked result, optionally carrying the graph context
// reachable from its element by outgoing traversal.
type Hit struct {
	Element    model.CodeElement
	Similarity float64
	Context    *graph.TraverseResult
}

// Run embeds query on Options.Channel, searches the backend, and — when
// Options.Expand is set — traverses outgoing relationships from each
// returned element to attach context. Results are ordered by descending
// similarity, same as the underlying search.
func Run(ctx context.Context, embed *embedding.Service, backend graph.Backend, query string, opts Options) ([]Hit, error) {
	if query == "" {
		return nil, apperrors.New(apperrors.KindConfig, "query_run", "query text must not be empty", nil)
	}

	channel := opts.Channel
	if channel == "" {
		channel = embedding.ChannelSemantic
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	vec, err := embed.Embed(ctx, channel, query)
	if err != nil {
		return nil, err
	}

	results, err := backend.Search(ctx, vec, graph.SearchOptions{
		Limit:         limit,
		Threshold:     opts.Threshold,
		EmbeddingType: searchChannelFor(channel),
		PathFilter:    opts.PathFilter,
		KindFilter:    opts.KindFilter,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{Element: r.Element, Similarity: r.Similarity}
		if !opts.Expand {
			continue
		}
		ctxResult, err := backend.Traverse(ctx, r.Element.ID, opts.ExpandOptions)
		if err != nil {
			continue
		}
		hits[i].Context = &ctxResult
	}
	return hits, nil
}

// searchChannelFor maps an embedding channel to the graph store's
// embedding-type enum; the two taxonomies name the same four channels.
func searchChannelFor(channel embedding.Channel) graph.EmbeddingType {
	switch channel {
	case embedding.ChannelSemantic:
		return graph.EmbeddingSemantic
	case embedding.ChannelRelationship:
		return graph.EmbeddingRelationship
	case embedding.ChannelDataFlow:
		return graph.EmbeddingDataFlow
	default:
		return graph.EmbeddingContent
	}
}
