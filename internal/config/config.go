// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package config defines the finalized configuration the indexing core
// consumes. It is a plain value object, not a loader: nothing in this
// package reads environment variables, flags, or .env files — that
// belongs to the CLI that constructs a Config and hands it to the
// Coordinator, per spec's external-interfaces contract.
package config

// LLM holds the LLM Orchestrator's (C5) settings.
type LLM struct {
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
	Verbose     bool

	// Mode selects which of C5's two first-class orchestrator modes this
	// workspace runs, per spec §4.5 ("Two modes; one is selected per
	// workspace"). The zero value is treated as ModeDigest.
	Mode OrchestratorMode
}

// OrchestratorMode selects between the LLM Orchestrator's Mode A
// (tool-driven agent, a single bounded conversation over the fixed
// five-tool set) and Mode B (whole-codebase digest, then a second
// prompt per digest-listed component).
type OrchestratorMode string

const (
	ModeDigest OrchestratorMode = "digest"
	ModeAgent  OrchestratorMode = "agent"
)

// Embedding holds the Embedding Service's (C4) settings.
type Embedding struct {
	Model          string
	Dimensions     int
	BatchSize      int
	EnableCaching  bool
	APIKey         string
}

// Storage holds the Graph Store's (C6) settings.
type Storage struct {
	Host     string
	Port     int
	Username string
	Password string
	DBPath   string
	BasePort int
}

// Processing holds the Indexing Coordinator's (C7) concurrency and
// file-discovery settings.
type Processing struct {
	ParallelLimit int
	IncludeGlobs  []string
	ExcludeGlobs  []string

	// GrammarSearchPath roots the Parser Registry's GrammarResolver
	// (<path>/<language_id>/<semver>/grammar.json). Not a spec-recognized
	// key in its own right; it rides along with processing.* since the
	// Registry is owned and constructed by the Coordinator.
	GrammarSearchPath string
}

// IndexingMode selects a from-scratch run over a previously indexed
// workspace.
type IndexingMode string

const (
	ModeFull        IndexingMode = "full"
	ModeIncremental IndexingMode = "incremental"
)

// Workspace holds the root path and run mode for one indexing pass.
type Workspace struct {
	Root string
	Mode IndexingMode
}

// Config is the fully resolved, immutable configuration object the
// core receives. Field names mirror spec's recognized key namespaces
// (llm.*, embedding.*, storage.*, processing.*, workspace.*) directly,
// so a CLI's flag/env/file loader has a one-to-one mapping to build one.
type Config struct {
	LLM        LLM
	Embedding  Embedding
	Storage    Storage
	Processing Processing
	Workspace  Workspace
}

// DefaultProcessing returns the parallel_limit=10 default and the
// exclude globs every indexable workspace needs regardless of project
// type.
func DefaultProcessing() Processing {
	return Processing{
		ParallelLimit: 10,
		IncludeGlobs:  []string{"**/*.ts", "**/*.tsx", "**/*.js", "**/*.jsx"},
		ExcludeGlobs: []string{
			"**/node_modules/**",
			"**/.git/**",
			"**/dist/**",
			"**/build/**",
			"**/*.test.ts",
			"**/*.test.tsx",
			"**/*.spec.ts",
		},
	}
}

// DefaultStorage returns the spec default base port 4243 and the
// .vibe-relative db path convention.
func DefaultStorage(workspaceRoot string) Storage {
	return Storage{
		Host:     "localhost",
		BasePort: 4243,
		DBPath:   workspaceRoot + "/.vibe/code.db",
	}
}

// Validate reports the configuration errors that are always fatal
// regardless of which subsystems a run actually invokes: an empty
// workspace root, an unrecognized mode, and a non-positive parallel
// limit. llm.api_key and embedding.api_key are validated by their
// respective subsystems only when invoked, per spec §6.
func (c Config) Validate() error {
	if c.Workspace.Root == "" {
		return errMissingField("workspace.root")
	}
	switch c.Workspace.Mode {
	case ModeFull, ModeIncremental, "":
	default:
		return errInvalidField("workspace.mode", string(c.Workspace.Mode))
	}
	if c.Processing.ParallelLimit <= 0 {
		return errInvalidField("processing.parallel_limit", "must be positive")
	}
	switch c.LLM.Mode {
	case ModeDigest, ModeAgent, "":
	default:
		return errInvalidField("llm.mode", string(c.LLM.Mode))
	}
	return nil
}

type configError struct {
	field  string
	reason string
}

func (e *configError) Error() string {
	if e.reason == "" {
		return "config: missing required field " + e.field
	}
	return "config: invalid " + e.field + ": " + e.reason
}

func errMissingField(field string) error {
	return &configError{field: field}
}

func errInvalidField(field, reason string) error {
	return &configError{field: field, reason: reason}
}
