// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package coordinator implements the Indexing Coordinator (C7): the
// top-level pipeline that discovers files, runs them through the
// Parser Registry and Element Extractor, builds the cross-file name
// index, resolves relationships, synthesizes descriptions, computes
// embeddings, and commits everything to the Graph Store. Grounded on
// pkg/ingestion/local_pipeline.go's LocalPipeline.Run staged steps,
// generalized from a Go-repo pipeline to the eight-step sequence this
// module's components implement.
package coordinator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kraklabs/vibeindex/internal/config"
	"github.com/kraklabs/vibeindex/internal/contract"
	apperrors "github.com/kraklabs/vibeindex/internal/errors"
	"github.com/kraklabs/vibeindex/internal/embedding"
	"github.com/kraklabs/vibeindex/internal/extract"
	"github.com/kraklabs/vibeindex/internal/graph"
	"github.com/kraklabs/vibeindex/internal/llmorch"
	"github.com/kraklabs/vibeindex/internal/metrics"
	"github.com/kraklabs/vibeindex/internal/model"
	"github.com/kraklabs/vibeindex/internal/parser"
	"github.com/kraklabs/vibeindex/internal/relate"
	"github.com/kraklabs/vibeindex/internal/ui"
)

// Result summarizes one Run, mirroring the counters the teacher's
// IngestionResult exposes for a completed pipeline.
type Result struct {
	// RunID uniquely identifies this invocation of Run, for correlating
	// its log lines and metrics; it carries no meaning across runs and
	// is never used to derive an element or relationship id.
	RunID string

	FilesDiscovered int
	FilesProcessed  int
	FilesSkipped    int
	FilesFailed     int

	ElementsExtracted      int
	RelationshipsResolved  int
	RelationshipsDropped   int
	DataFlowsResolved      int

	DescriptionsSynthesized int
	DescriptionFallbacks    int

	EmbeddingsComputed int
	EmbeddingErrors    int

	Duration time.Duration
}

// Coordinator drives one indexing run against a fixed set of
// component implementations. The Parser Registry is constructed here
// rather than held as package-level state, so its lifetime (and idle
// grammar cache) is scoped to the Coordinator that owns it.
type Coordinator struct {
	Config    config.Config
	Backend   graph.Backend
	Embed     *embedding.Service
	LLM       llmorch.ChatProvider // nil disables both orchestrator modes' description synthesis
	Tokens    *llmorch.Tracker
	Progress  *ui.Tracker
	Renderer  *ui.Renderer

	registry  *parser.Registry
	extractor *extract.Extractor
	analyzer  *relate.Analyzer
}

// New builds a Coordinator. llmProvider may be nil, in which case
// elements are committed without descriptions or semantic embeddings —
// spec's "missing llm.api_key is fatal only if invoked" applies at the
// Coordinator level by simply not invoking the orchestrator at all.
func New(cfg config.Config, backend graph.Backend, embed *embedding.Service, llmProvider llmorch.ChatProvider) *Coordinator {
	return &Coordinator{
		Config:    cfg,
		Backend:   backend,
		Embed:     embed,
		LLM:       llmProvider,
		Tokens:    llmorch.NewTracker(),
		Progress:  ui.NewTracker(),
		Renderer:  ui.NewRenderer(os.Stderr, 0),
		registry:  parser.NewRegistry(cfg.Processing.GrammarSearchPath),
		extractor: extract.New(),
		analyzer:  relate.New(),
	}
}

// fileUnit is one file's state carried from discovery through commit.
type fileUnit struct {
	RelPath     string
	AbsPath     string
	Content     []byte
	Language    string
	ContentHash string
	Size        int64
	ModTime     time.Time
	Parse       *extract.FileParseResult
}

// Run executes the full eight-step pipeline against c.Config.Workspace.Root.
func (c *Coordinator) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	result := Result{RunID: uuid.NewString()}

	if err := c.Config.Validate(); err != nil {
		return result, apperrors.New(apperrors.KindConfig, "validate_config", err.Error(), err).WithFatal()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	root := c.Config.Workspace.Root
	incremental := c.Config.Workspace.Mode == config.ModeIncremental

	var cp *checkpoint
	if incremental {
		loaded, err := loadCheckpoint(root)
		if err != nil {
			return result, err
		}
		cp = loaded
	} else {
		cp = &checkpoint{FileHashes: make(map[string]string)}
	}

	// Step 1: discover.
	paths, err := discoverFiles(root, c.Config.Processing.IncludeGlobs, c.Config.Processing.ExcludeGlobs)
	if err != nil {
		return result, err
	}
	result.FilesDiscovered = len(paths)
	for range paths {
		metrics.RecordFileDiscovered()
	}
	c.Renderer = ui.NewRenderer(os.Stderr, len(paths))

	var (
		mu       sync.Mutex
		fatalErr error
	)
	reportFatal := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if fatalErr == nil && apperrors.IsFatal(err) {
			fatalErr = err
			cancel()
		}
	}

	limit := c.Config.Processing.ParallelLimit
	if limit <= 0 {
		limit = 1
	}

	// Step 2: parse & extract, bounded concurrency.
	units := make([]*fileUnit, len(paths))
	{
		sem := make(chan struct{}, limit)
		var wg sync.WaitGroup
		for i, p := range paths {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, absPath string) {
				defer wg.Done()
				defer func() { <-sem }()

				rel, relErr := filepath.Rel(root, absPath)
				if relErr != nil {
					rel = absPath
				}
				rel = filepath.ToSlash(rel)

				c.Progress.Set(rel, ui.StatusAnalyzing, "parsing")
				u, skipped, err := c.parseFile(ctx, absPath, rel, cp, incremental)
				if err != nil {
					c.Progress.Set(rel, ui.StatusFailed, err.Error())
					mu.Lock()
					result.FilesFailed++
					mu.Unlock()
					metrics.RecordFileFailed()
					reportFatal(err)
					return
				}
				if skipped {
					c.Progress.Set(rel, ui.StatusCompleted, "unchanged")
					mu.Lock()
					result.FilesSkipped++
					mu.Unlock()
					return
				}
				units[i] = u
			}(i, p)
		}
		wg.Wait()
	}
	if fatalErr != nil {
		return result, fatalErr
	}

	var successful []*fileUnit
	for _, u := range units {
		if u == nil {
			continue
		}
		successful = append(successful, u)
		result.ElementsExtracted += len(u.Parse.Elements)
	}

	// Step 3: build the cross-file name index, plus a flat id -> element
	// lookup the orchestrator's relationship/flow narrative stage and
	// Mode A's tool surface both need in order to name an edge's
	// endpoints across file boundaries.
	idx := relate.NewNameIndex()
	for _, u := range successful {
		idx.AddFile(u.Parse)
	}
	byID := make(map[string]model.CodeElement)
	for _, u := range successful {
		byID[idx.ModuleElementID(u.RelPath)] = model.CodeElement{
			ID: idx.ModuleElementID(u.RelPath), FilePath: u.RelPath, Name: "<module>", Kind: model.ElementModule,
		}
		for _, e := range u.Parse.Elements {
			byID[e.ID] = e
		}
	}

	// Step 3.5: run the LLM Orchestrator (C5) once per run — Mode A's
	// single whole-workspace agent conversation, or Mode B's
	// whole-codebase digest — per config.LLM.Mode, spec §4.5's "one is
	// selected per workspace." Its output drives per-file description
	// synthesis below.
	orch := c.runOrchestrator(ctx, successful)

	// Steps 4-7: analyze, describe, embed, commit — per file, bounded
	// concurrency, each file independent once the index is built.
	{
		sem := make(chan struct{}, limit)
		var wg sync.WaitGroup
		for _, u := range successful {
			wg.Add(1)
			sem <- struct{}{}
			go func(u *fileUnit) {
				defer wg.Done()
				defer func() { <-sem }()

				c.Progress.Set(u.RelPath, ui.StatusAnalyzing, "relating")
				if err := c.processFile(ctx, u, idx, byID, orch, cp, &result, &mu); err != nil {
					c.Progress.Set(u.RelPath, ui.StatusFailed, err.Error())
					mu.Lock()
					result.FilesFailed++
					mu.Unlock()
					metrics.RecordFileFailed()
					reportFatal(err)
					return
				}
				c.Progress.Set(u.RelPath, ui.StatusCompleted, "")
				mu.Lock()
				result.FilesProcessed++
				mu.Unlock()
			}(u)
			c.Renderer.Render(c.Progress, false)
		}
		wg.Wait()
	}
	c.Renderer.Render(c.Progress, true)

	if fatalErr != nil {
		return result, fatalErr
	}

	if err := saveCheckpoint(root, cp); err != nil {
		return result, err
	}

	now := time.Now()
	workspaceInfo := model.WorkspaceInfo{
		Path:             root,
		CreatedAt:        now,
		LastIndexed:      now,
		TotalFiles:       result.FilesDiscovered,
		TotalElements:    result.ElementsExtracted + len(successful),
		IndexingStrategy: strategyFor(c.Config.Workspace.Mode),
	}
	if err := c.Backend.UpsertWorkspaceInfo(ctx, workspaceInfo); err != nil {
		reportFatal(err)
		if fatalErr != nil {
			return result, fatalErr
		}
	}

	result.Duration = time.Since(start)
	metrics.ObserveTotalDuration(result.Duration.Seconds())
	return result, nil
}

func strategyFor(mode config.IndexingMode) model.IndexingStrategy {
	if mode == config.ModeIncremental {
		return model.StrategyIncremental
	}
	return model.StrategyFull
}

// parseFile reads, hashes, and (unless unchanged under incremental mode)
// parses and extracts one file. Read, parse and grammar-resolution
// failures are returned as non-fatal KindFilesystem/KindParser errors per
// spec §7: a language whose grammar cannot be resolved fails each of its
// files, while files in other languages proceed.
func (c *Coordinator) parseFile(ctx context.Context, absPath, relPath string, cp *checkpoint, incremental bool) (*fileUnit, bool, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, false, apperrors.New(apperrors.KindFilesystem, "stat_file", "failed to stat "+relPath, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, false, apperrors.New(apperrors.KindFilesystem, "read_file", "failed to read "+relPath, err)
	}

	hash := model.ComputeContentHash(string(data))
	if incremental {
		if prev, ok := cp.FileHashes[relPath]; ok && prev == hash {
			return nil, true, nil
		}
	}

	lang := parser.DetectLanguage(relPath)
	parseStart := time.Now()
	tree, err := c.registry.Parse(ctx, data, lang)
	metrics.ObserveParseDuration(time.Since(parseStart).Seconds())
	if err != nil {
		return nil, false, err
	}

	pr := c.extractor.Extract(tree, data, relPath)
	return &fileUnit{
		RelPath:     relPath,
		AbsPath:     absPath,
		Content:     data,
		Language:    lang,
		ContentHash: hash,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		Parse:       pr,
	}, false, nil
}

// processFile runs steps 4-7 for a single file: relationship analysis,
// orchestrator-driven description synthesis (elements and, separately,
// relationship/flow narratives), four-channel embedding, and
// element-first commit.
func (c *Coordinator) processFile(ctx context.Context, u *fileUnit, idx *relate.NameIndex, byID map[string]model.CodeElement, orch *orchestratorRun, cp *checkpoint, result *Result, mu *sync.Mutex) error {
	analyzed := c.analyzer.Analyze(u.Parse, idx)

	mu.Lock()
	result.RelationshipsResolved += len(analyzed.Structural) + len(analyzed.DataFlow)
	result.RelationshipsDropped += len(analyzed.Diagnostics)
	mu.Unlock()
	metrics.RecordRelationshipsResolved(len(analyzed.Structural) + len(analyzed.DataFlow))
	metrics.RecordRelationshipsDropped(len(analyzed.Diagnostics))

	now := time.Now()
	moduleElem := model.CodeElement{
		ID:          idx.ModuleElementID(u.RelPath),
		FilePath:    u.RelPath,
		Name:        "<module>",
		Kind:        model.ElementModule,
		ContentHash: u.ContentHash,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	elements := make([]model.CodeElement, 0, len(analyzed.Elements)+1)
	elements = append(elements, moduleElem)
	elements = append(elements, analyzed.Elements...)

	totalContentBytes := 0
	for _, e := range elements {
		totalContentBytes += len(e.Content)
	}
	if v := contract.ValidateBatchSize(totalContentBytes); !v.OK {
		return apperrors.New(apperrors.KindExtraction, "process_file", v.Message+": "+u.RelPath, nil)
	}

	c.describe(ctx, elements, u, orch, result, mu)
	c.describeRelationships(ctx, analyzed.Structural, analyzed.DataFlow, byID, result, mu)
	c.embedElements(ctx, elements, result, mu)
	c.embedEdges(ctx, analyzed.Structural, analyzed.DataFlow, result, mu)

	commitStart := time.Now()
	batch, err := c.Backend.CreateBatch(ctx, elements, analyzed.Structural)
	if err != nil {
		return err
	}
	mu.Lock()
	result.RelationshipsDropped += len(batch.Dropped)
	mu.Unlock()
	metrics.RecordRelationshipsDropped(len(batch.Dropped))

	for _, df := range analyzed.DataFlow {
		if _, err := c.Backend.CreateDataFlow(ctx, df); err != nil {
			mu.Lock()
			result.RelationshipsDropped++
			mu.Unlock()
			continue
		}
		mu.Lock()
		result.DataFlowsResolved++
		mu.Unlock()
	}
	metrics.ObserveCommitDuration(time.Since(commitStart).Seconds())
	metrics.RecordBatchCommitted()

	meta := model.FileMetadata{
		Path:           u.RelPath,
		Size:           u.Size,
		ModifiedAt:     u.ModTime,
		Language:       u.Language,
		Checksum:       u.ContentHash,
		SymbolCount:    len(analyzed.Elements),
		ProcessingTime: time.Since(commitStart),
		LastIndexed:    now,
	}
	if err := c.Backend.UpsertFileMetadata(ctx, meta); err != nil {
		return err
	}

	mu.Lock()
	cp.FileHashes[u.RelPath] = u.ContentHash
	mu.Unlock()
	return nil
}

// modeALabel and modeBLabel are the ui.Tracker keys the once-per-run
// orchestrator step reports failures under, since neither Mode A's
// agent conversation nor Mode B's digest call belongs to any one file.
const (
	modeALabel = "<mode-a-agent>"
	modeBLabel = "<mode-b-digest>"
)

// orchestratorRun holds the once-per-Run output of the LLM Orchestrator
// (C5) that each file's describe call below consults: Mode A's
// create_index_entry recordings, or Mode B's digest-extracted
// component list. A nil *orchestratorRun (no LLM configured) or a zero
// orchestratorRun (the one call failed) both mean "no orchestrator
// output is available."
type orchestratorRun struct {
	mode config.OrchestratorMode

	// agentDescriptions is Mode A's output: relPath+"::"+symbolName ->
	// the description the model chose to record for that symbol. Only
	// symbols the model actually visited and indexed appear here.
	agentDescriptions map[string]string

	// digestListed is Mode B's output: file path -> the set of
	// component names the digest call singled out for a second,
	// per-component describe prompt. Nil means digest generation itself
	// failed, in which case describe falls back to unconditionally
	// describing every element, so a run still produces descriptions.
	digestListed map[string]map[string]bool
}

// runOrchestrator drives whichever of Mode A or Mode B c.Config.LLM.Mode
// selects, once for the whole run, per spec §4.5. Returns nil when no
// LLM provider is configured.
func (c *Coordinator) runOrchestrator(ctx context.Context, successful []*fileUnit) *orchestratorRun {
	if c.LLM == nil {
		return nil
	}
	run := &orchestratorRun{mode: c.Config.LLM.Mode}

	if run.mode == config.ModeAgent {
		ws := newCoordinatorWorkspace(successful)
		agent := llmorch.NewAgent(c.LLM, c.Tokens)
		if err := agent.Run(ctx, ws, modeAGoal); err != nil {
			c.Progress.Set(modeALabel, ui.StatusFailed, err.Error())
		}
		run.agentDescriptions = ws.descriptions()
		return run
	}

	digest := buildDigest(successful)
	digestResult, err := llmorch.GenerateDigest(ctx, c.LLM, c.Tokens, digest)
	if err != nil {
		c.Progress.Set(modeBLabel, ui.StatusFailed, err.Error())
		return run
	}
	run.digestListed = make(map[string]map[string]bool, len(digestResult.Files))
	for _, f := range digestResult.Files {
		set := make(map[string]bool, len(f.Components))
		for _, comp := range f.Components {
			set[comp.Name] = true
		}
		run.digestListed[f.Filename] = set
	}
	return run
}

// modeAGoal is the user-turn goal handed to Mode A's agent conversation.
const modeAGoal = "Explore this workspace and index every symbol worth describing by calling create_index_entry for it."

// buildDigest concatenates every file's path and content into the
// single string Mode B's GenerateDigest treats as "a whole-codebase
// digest sent once," per spec §4.5.
func buildDigest(units []*fileUnit) string {
	var sb strings.Builder
	for _, u := range units {
		fmt.Fprintf(&sb, "=== %s ===\n%s\n\n", u.RelPath, u.Content)
	}
	return sb.String()
}

// describe synthesizes a description per non-synthetic element from
// whichever orchestrator mode this run selected. Mode A only describes
// the symbols the model chose to visit and record via
// create_index_entry; Mode B only describes components the digest call
// listed for this file. An element neither mode mentions is committed
// without a description — that is each mode's normal, partial-coverage
// behavior, not a failure. With no configured LLM provider nothing is
// described. When Mode B's digest call itself failed, every element
// falls back to a direct per-element DescribeComponent call so a run
// still produces descriptions.
func (c *Coordinator) describe(ctx context.Context, elements []model.CodeElement, u *fileUnit, orch *orchestratorRun, result *Result, mu *sync.Mutex) {
	if c.LLM == nil || orch == nil {
		return
	}

	if orch.mode == config.ModeAgent {
		for i := range elements {
			if elements[i].Kind == model.ElementModule {
				continue
			}
			desc, ok := orch.agentDescriptions[u.RelPath+"::"+elements[i].Name]
			if !ok {
				continue
			}
			elements[i].ReplaceDescription(desc, time.Now())
			mu.Lock()
			result.DescriptionsSynthesized++
			mu.Unlock()
			metrics.RecordLLMDescription()
		}
		return
	}

	listed, fileListed := orch.digestListed[u.RelPath]
	digestActive := orch.digestListed != nil
	for i := range elements {
		if elements[i].Kind == model.ElementModule {
			continue
		}
		if digestActive && (!fileListed || !listed[elements[i].Name]) {
			continue
		}
		comp := llmorch.DigestComponent{Name: elements[i].Name, Kind: string(elements[i].Kind)}
		describeStart := time.Now()
		desc, err := llmorch.DescribeComponent(ctx, c.LLM, c.Tokens, string(u.Content), comp)
		metrics.ObserveDescribeDuration(time.Since(describeStart).Seconds())
		if err != nil {
			desc = llmorch.FallbackDescription(comp.Name, comp.Kind, err)
			mu.Lock()
			result.DescriptionFallbacks++
			mu.Unlock()
			metrics.RecordLLMFallback()
		} else {
			mu.Lock()
			result.DescriptionsSynthesized++
			mu.Unlock()
			metrics.RecordLLMDescription()
		}
		elements[i].ReplaceDescription(desc, time.Now())
	}
}

// describeRelationships synthesizes the relationship/flow narratives
// embedEdges's relationship/data_flow channels embed: a structural
// edge's semantic description and architectural purpose, or a
// data-flow edge's transformation description and business-logic
// purpose. Neither orchestrator mode's spec-fixed interface carries a
// relationship-narrative call of its own (Mode A's five tools and Mode
// B's per-component prompt are both element-scoped), so this runs the
// same way regardless of which mode described the endpoints'
// elements — once per edge, falling back to FallbackDescription on
// final retry failure. A nil c.LLM leaves every narrative empty, which
// is how embedEdges already recognizes there is nothing to embed.
func (c *Coordinator) describeRelationships(ctx context.Context, structural []model.StructuralRelationship, dataFlow []model.DataFlowRelationship, byID map[string]model.CodeElement, result *Result, mu *sync.Mutex) {
	if c.LLM == nil {
		return
	}
	for i := range structural {
		fromName, toName := nameOf(byID, structural[i].From), nameOf(byID, structural[i].To)
		desc, err := llmorch.DescribeRelationship(ctx, c.LLM, c.Tokens, fromName, toName, string(structural[i].Type))
		if err != nil {
			desc = llmorch.FallbackDescription(fromName+" -> "+toName, string(structural[i].Type), err)
			mu.Lock()
			result.DescriptionFallbacks++
			mu.Unlock()
			metrics.RecordLLMFallback()
		} else {
			mu.Lock()
			result.DescriptionsSynthesized++
			mu.Unlock()
			metrics.RecordLLMDescription()
		}
		structural[i].SemanticDescription = desc
		structural[i].ArchitecturalPurpose = desc
	}
	for i := range dataFlow {
		fromName, toName := nameOf(byID, dataFlow[i].From), nameOf(byID, dataFlow[i].To)
		desc, err := llmorch.DescribeDataFlow(ctx, c.LLM, c.Tokens, fromName, toName, string(dataFlow[i].Type))
		if err != nil {
			desc = llmorch.FallbackDescription(fromName+" -> "+toName, string(dataFlow[i].Type), err)
			mu.Lock()
			result.DescriptionFallbacks++
			mu.Unlock()
			metrics.RecordLLMFallback()
		} else {
			mu.Lock()
			result.DescriptionsSynthesized++
			mu.Unlock()
			metrics.RecordLLMDescription()
		}
		dataFlow[i].DataTransformationDescription = desc
		dataFlow[i].BusinessLogicPurpose = desc
	}
}

// nameOf looks up an element's display name for a relationship
// narrative prompt, falling back to the raw id for an endpoint this
// file's local element set doesn't carry (it is always present in
// byID, which is built from every successfully parsed file).
func nameOf(byID map[string]model.CodeElement, id string) string {
	if e, ok := byID[id]; ok {
		return e.Name
	}
	return id
}

// embedElements computes the content-channel embedding for every
// element's verbatim content and the semantic-channel embedding for
// every non-empty description, batched per channel per file.
func (c *Coordinator) embedElements(ctx context.Context, elements []model.CodeElement, result *Result, mu *sync.Mutex) {
	contentTexts := make([]string, len(elements))
	for i, e := range elements {
		contentTexts[i] = e.Content
	}
	embedStart := time.Now()
	contentVecs, contentDiag := c.Embed.EmbedBatch(ctx, embedding.ChannelCode, contentTexts)
	assignVectors(elements, contentVecs, contentDiag, func(e *model.CodeElement, v embedding.Vector) { e.ContentEmbedding = v })
	recordEmbedOutcome(result, mu, len(contentVecs), len(contentDiag))

	var semIdx []int
	var semTexts []string
	for i, e := range elements {
		if e.Description == "" {
			continue
		}
		semIdx = append(semIdx, i)
		semTexts = append(semTexts, e.Description)
	}
	semVecs, semDiag := c.Embed.EmbedBatch(ctx, embedding.ChannelSemantic, semTexts)
	metrics.ObserveEmbedDuration(time.Since(embedStart).Seconds())
	failedSem := make(map[int]bool, len(semDiag))
	for _, d := range semDiag {
		failedSem[d.Index] = true
	}
	vi := 0
	for local, orig := range semIdx {
		if failedSem[local] {
			continue
		}
		elements[orig].SemanticEmbedding = semVecs[vi]
		vi++
	}
	recordEmbedOutcome(result, mu, len(semVecs), len(semDiag))
}

// embedEdges computes relationship/data-flow embeddings only for edges
// that already carry a non-empty free-text description. The
// Relationship Analyzer (C3) never populates one itself; describeRelationships
// does, immediately before this is called, whenever c.LLM is configured.
// With no configured LLM provider every description is empty and both
// channels are skipped entirely — not every run exercises them.
func (c *Coordinator) embedEdges(ctx context.Context, structural []model.StructuralRelationship, dataFlow []model.DataFlowRelationship, result *Result, mu *sync.Mutex) {
	var relIdx []int
	var relTexts []string
	for i, r := range structural {
		if r.SemanticDescription == "" {
			continue
		}
		relIdx = append(relIdx, i)
		relTexts = append(relTexts, r.SemanticDescription)
	}
	if len(relTexts) > 0 {
		vecs, diag := c.Embed.EmbedBatch(ctx, embedding.ChannelRelationship, relTexts)
		failed := make(map[int]bool, len(diag))
		for _, d := range diag {
			failed[d.Index] = true
		}
		vi := 0
		for local, orig := range relIdx {
			if failed[local] {
				continue
			}
			structural[orig].RelationshipEmbedding = vecs[vi]
			vi++
		}
		recordEmbedOutcome(result, mu, len(vecs), len(diag))
	}

	var dfIdx []int
	var dfTexts []string
	for i, d := range dataFlow {
		if d.DataTransformationDescription == "" {
			continue
		}
		dfIdx = append(dfIdx, i)
		dfTexts = append(dfTexts, d.DataTransformationDescription)
	}
	if len(dfTexts) > 0 {
		vecs, diag := c.Embed.EmbedBatch(ctx, embedding.ChannelDataFlow, dfTexts)
		failed := make(map[int]bool, len(diag))
		for _, dd := range diag {
			failed[dd.Index] = true
		}
		vi := 0
		for local, orig := range dfIdx {
			if failed[local] {
				continue
			}
			dataFlow[orig].DataFlowEmbedding = vecs[vi]
			vi++
		}
		recordEmbedOutcome(result, mu, len(vecs), len(diag))
	}
}

// assignVectors zips successes back onto elements in input order, since
// EmbedBatch's result slice omits failed positions rather than padding
// them; diag's Index values are safe to use as a failed-position set
// because positions before a failure are unaffected by it.
func assignVectors(elements []model.CodeElement, vecs []embedding.Vector, diag []embedding.Diagnostic, assign func(*model.CodeElement, embedding.Vector)) {
	failed := make(map[int]bool, len(diag))
	for _, d := range diag {
		failed[d.Index] = true
	}
	vi := 0
	for i := range elements {
		if failed[i] {
			continue
		}
		assign(&elements[i], vecs[vi])
		vi++
	}
}

func recordEmbedOutcome(result *Result, mu *sync.Mutex, computed, failed int) {
	mu.Lock()
	result.EmbeddingsComputed += computed
	result.EmbeddingErrors += failed
	mu.Unlock()
	for i := 0; i < computed; i++ {
		metrics.RecordEmbedComputed()
	}
	for i := 0; i < failed; i++ {
		metrics.RecordEmbedError()
	}
}
