// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Command vibeindex is a demonstration entry point for the indexing
// core: it wires a Config, a Graph Store, an Embedding Service, an
// optional LLM provider, and the Indexing Coordinator together and
// drives one run or one query from the command line. It is not the
// product's argument-parsing surface — flag/env handling here is
// deliberately minimal, grounded on cmd/cie/main.go's stdlib-flag-over-
// subcommands dispatch, including that file's own `flag
// "github.com/spf13/pflag"` substitution for shorthand-flag support.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/vibeindex/internal/config"
	"github.com/kraklabs/vibeindex/internal/coordinator"
	"github.com/kraklabs/vibeindex/internal/embedding"
	"github.com/kraklabs/vibeindex/internal/graph"
	"github.com/kraklabs/vibeindex/internal/llmorch"
	"github.com/kraklabs/vibeindex/internal/output"
	"github.com/kraklabs/vibeindex/internal/query"
)

var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Usage = printUsage

	flag.Parse()
	if *showVersion {
		fmt.Printf("vibeindex version %s\n", version)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "index":
		err = runIndex(args[1:])
	case "query":
		err = runQuery(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "vibeindex:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `vibeindex - semantic code indexing engine

Usage:
  vibeindex index [--root PATH] [--incremental] [--json]
  vibeindex query <text> [--root PATH] [--limit N] [--threshold F] [--json]

Global Options:
  --version   Show version and exit

Environment Variables:
  VIBEINDEX_LLM_API_KEY        Chat provider API key (enables description synthesis)
  VIBEINDEX_LLM_PROVIDER       "anthropic" (default) or "openai"
  VIBEINDEX_LLM_MODEL          Chat model name
  VIBEINDEX_LLM_MODE           "digest" (default, Mode B) or "agent" (Mode A)
  VIBEINDEX_EMBEDDING_API_KEY  Embedding provider API key (falls back to a mock provider when unset)
  VIBEINDEX_EMBEDDING_MODEL    Embedding model name

Config File:
  <root>/.vibe/config.yaml overrides processing.* and embedding.model/
  dimensions defaults; environment variables still take precedence.
`)
}

// fileOverrides is the shape of the optional .vibe/config.yaml overlay:
// a thin, CLI-only convenience for the handful of processing settings a
// user would otherwise have to repeat as flags on every run. It has no
// bearing on what the core itself accepts — config.Config is still the
// only type the Coordinator ever sees.
type fileOverrides struct {
	Processing struct {
		ParallelLimit int      `yaml:"parallel_limit"`
		IncludeGlobs  []string `yaml:"include_globs"`
		ExcludeGlobs  []string `yaml:"exclude_globs"`
	} `yaml:"processing"`
	Embedding struct {
		Model      string `yaml:"model"`
		Dimensions int    `yaml:"dimensions"`
	} `yaml:"embedding"`
}

// loadFileOverrides reads <root>/.vibe/config.yaml when present; a
// missing file is not an error, since the overlay is optional.
func loadFileOverrides(root string) (fileOverrides, error) {
	var overrides fileOverrides
	data, err := os.ReadFile(filepath.Join(root, ".vibe", "config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return overrides, nil
		}
		return overrides, err
	}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return overrides, fmt.Errorf("parse .vibe/config.yaml: %w", err)
	}
	return overrides, nil
}

// buildConfig assembles a Config from defaults, an optional
// .vibe/config.yaml overlay, and environment variables, standing in for
// the ambient configuration loader the core itself never depends on.
func buildConfig(root string, mode config.IndexingMode) (config.Config, error) {
	overrides, err := loadFileOverrides(root)
	if err != nil {
		return config.Config{}, err
	}

	processing := config.DefaultProcessing()
	if overrides.Processing.ParallelLimit > 0 {
		processing.ParallelLimit = overrides.Processing.ParallelLimit
	}
	if len(overrides.Processing.IncludeGlobs) > 0 {
		processing.IncludeGlobs = overrides.Processing.IncludeGlobs
	}
	if len(overrides.Processing.ExcludeGlobs) > 0 {
		processing.ExcludeGlobs = overrides.Processing.ExcludeGlobs
	}

	embeddingModel := envOr("VIBEINDEX_EMBEDDING_MODEL", overrides.Embedding.Model)
	if embeddingModel == "" {
		embeddingModel = "text-embedding-3-small"
	}
	dimensions := overrides.Embedding.Dimensions
	if dimensions <= 0 {
		dimensions = 1536
	}

	return config.Config{
		LLM: config.LLM{
			Model:  envOr("VIBEINDEX_LLM_MODEL", "claude-sonnet-4-5"),
			APIKey: os.Getenv("VIBEINDEX_LLM_API_KEY"),
			Mode:   config.OrchestratorMode(envOr("VIBEINDEX_LLM_MODE", string(config.ModeDigest))),
		},
		Embedding: config.Embedding{
			Model:         embeddingModel,
			Dimensions:    dimensions,
			BatchSize:     32,
			EnableCaching: true,
			APIKey:        os.Getenv("VIBEINDEX_EMBEDDING_API_KEY"),
		},
		Storage:    config.DefaultStorage(root),
		Processing: processing,
		Workspace:  config.Workspace{Root: root, Mode: mode},
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// chatProvider returns nil when no API key is configured, so the
// Coordinator commits elements without descriptions rather than
// failing — description synthesis is only invoked when configured.
func chatProvider(cfg config.LLM) llmorch.ChatProvider {
	if cfg.APIKey == "" {
		return nil
	}
	if envOr("VIBEINDEX_LLM_PROVIDER", "anthropic") == "openai" {
		return llmorch.NewOpenAIProvider(cfg.APIKey, cfg.Model)
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return llmorch.NewAnthropicProvider(cfg.APIKey, cfg.Model, maxTokens)
}

// embeddingProvider falls back to a deterministic mock when no API key
// is configured, so indexing still produces usable vectors for local
// experimentation without a network dependency.
func embeddingProvider(cfg config.Embedding) embedding.Provider {
	if cfg.APIKey == "" {
		return &embedding.MockProvider{Dimensions: cfg.Dimensions}
	}
	return embedding.NewOpenAIProvider(cfg.APIKey, cfg.Model)
}

func runIndex(args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	root := fs.String("root", ".", "workspace root to index")
	incremental := fs.Bool("incremental", false, "skip files unchanged since the last run")
	asJSON := fs.Bool("json", false, "print the run result as JSON instead of plain text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mode := config.ModeFull
	if *incremental {
		mode = config.ModeIncremental
	}
	cfg, err := buildConfig(*root, mode)
	if err != nil {
		return err
	}

	backend, err := graph.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer backend.Close()

	embed, err := embedding.New(embedding.Config{
		Model:         cfg.Embedding.Model,
		Dimensions:    cfg.Embedding.Dimensions,
		BatchSize:     cfg.Embedding.BatchSize,
		EnableCaching: cfg.Embedding.EnableCaching,
		APIKey:        orDummyKey(cfg.Embedding.APIKey),
	}, embeddingProvider(cfg.Embedding))
	if err != nil {
		return err
	}

	coord := coordinator.New(cfg, backend, embed, chatProvider(cfg.LLM))
	result, err := coord.Run(context.Background())
	if err != nil {
		if *asJSON {
			return output.JSONError(err)
		}
		return err
	}

	if *asJSON {
		return output.JSON(result)
	}

	fmt.Printf("run %s: discovered %d, processed %d, skipped %d, failed %d\n",
		result.RunID, result.FilesDiscovered, result.FilesProcessed, result.FilesSkipped, result.FilesFailed)
	fmt.Printf("elements %d, relationships %d, data flows %d, embeddings %d\n",
		result.ElementsExtracted, result.RelationshipsResolved, result.DataFlowsResolved, result.EmbeddingsComputed)
	fmt.Printf("duration %s\n", result.Duration)
	return nil
}

// orDummyKey lets the mock embedding provider satisfy embedding.New's
// non-empty-api_key construction check when no real key is configured.
func orDummyKey(key string) string {
	if key == "" {
		return "local-mock"
	}
	return key
}

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	root := fs.String("root", ".", "workspace root to query")
	limit := fs.Int("limit", 10, "maximum number of results")
	threshold := fs.Float64("threshold", 0.0, "minimum cosine similarity")
	asJSON := fs.Bool("json", false, "print hits as JSON instead of plain text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("query text is required")
	}
	text := fs.Arg(0)

	cfg, err := buildConfig(*root, config.ModeFull)
	if err != nil {
		return err
	}

	backend, err := graph.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer backend.Close()

	embed, err := embedding.New(embedding.Config{
		Model:         cfg.Embedding.Model,
		Dimensions:    cfg.Embedding.Dimensions,
		BatchSize:     cfg.Embedding.BatchSize,
		EnableCaching: cfg.Embedding.EnableCaching,
		APIKey:        orDummyKey(cfg.Embedding.APIKey),
	}, embeddingProvider(cfg.Embedding))
	if err != nil {
		return err
	}

	hits, err := query.Run(context.Background(), embed, backend, text, query.Options{
		Limit:     *limit,
		Threshold: *threshold,
	})
	if err != nil {
		if *asJSON {
			return output.JSONError(err)
		}
		return err
	}

	if *asJSON {
		return output.JSON(hits)
	}

	for i, h := range hits {
		fmt.Printf("%d. %s (%s) %s — similarity %.3f\n", i+1, h.Element.Name, h.Element.Kind, h.Element.FilePath, h.Similarity)
	}
	return nil
}
