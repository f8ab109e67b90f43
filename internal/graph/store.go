// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package graph implements the Graph Store (C6): table-per-entity
// persistence for elements, relationships, data flows, file metadata
// and workspace info, cosine-similarity search over the stored element
// embeddings, and breadth-first graph traversal.
//
// Grounded on pkg/storage/backend.go for the Backend interface shape
// (the teacher wraps a CGO CozoDB binding whose C library is not
// buildable in this environment; this package swaps it for the
// SQLite + sqlite-vec stack already exercised by
// theRebelliousNerd-codenerd's internal/store/local_core.go) and on
// pkg/tools/trace.go's TracePath for the traversal BFS shape.
package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/kraklabs/vibeindex/internal/errors"
	"github.com/kraklabs/vibeindex/internal/embedding"
	"github.com/kraklabs/vibeindex/internal/model"
)

var vecInitOnce sync.Once

// EmbeddingType selects which of the four embedding channels a Search
// call ranks against.
type EmbeddingType string

const (
	EmbeddingContent      EmbeddingType = "content"
	EmbeddingSemantic     EmbeddingType = "semantic"
	EmbeddingRelationship EmbeddingType = "relationship"
	EmbeddingDataFlow     EmbeddingType = "data_flow"
)

// Direction constrains which edges Traverse follows from a node.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// SearchOptions parameterizes Search. Limit defaults to 10 and is
// capped at 100; Threshold excludes results with lower cosine
// similarity.
type SearchOptions struct {
	Limit         int
	Threshold     float64
	EmbeddingType EmbeddingType
	PathFilter    string
	KindFilter    model.ElementKind
}

// SearchResult is one ranked hit.
type SearchResult struct {
	Element    model.CodeElement
	Similarity float64
}

// TraverseOptions parameterizes Traverse.
type TraverseOptions struct {
	RelationshipTypes []model.StructuralRelationshipType
	MaxDepth          int
	Direction         Direction
}

// TraverseResult is one BFS run's outcome.
type TraverseResult struct {
	Nodes []string
	Edges []model.StructuralRelationship
	Path  []string
	Depth int
}

// BatchResult is create_batch's outcome: per-record atomicity, overall
// partial success.
type BatchResult struct {
	CreatedIDs []string
	Dropped    []string
	Errors     []string
}

// Backend is the storage interface every graph-store implementation
// satisfies, generalized from pkg/storage/backend.go's
// Query/Execute/Close to spec.md §4.6's richer operation set.
type Backend interface {
	CreateElement(ctx context.Context, e model.CodeElement) (string, error)
	CreateRelationship(ctx context.Context, r model.StructuralRelationship) (string, error)
	CreateDataFlow(ctx context.Context, d model.DataFlowRelationship) (string, error)
	CreateBatch(ctx context.Context, elements []model.CodeElement, relationships []model.StructuralRelationship) (BatchResult, error)
	Search(ctx context.Context, queryEmbedding embedding.Vector, opts SearchOptions) ([]SearchResult, error)
	Traverse(ctx context.Context, startID string, opts TraverseOptions) (TraverseResult, error)
	DeleteByPath(ctx context.Context, path string) (int, error)
	UpsertFileMetadata(ctx context.Context, m model.FileMetadata) error
	UpsertWorkspaceInfo(ctx context.Context, w model.WorkspaceInfo) error
	Close() error
}

// SQLiteStore implements Backend over a local SQLite database,
// generalized from theRebelliousNerd-codenerd's
// LocalStore.initialize/detectVecExtension. Search is a linear scan that
// scores every stored vector by cosine similarity; no approximate-
// nearest-neighbor index is built, and the sqlite-vec extension is only
// probed at Open (vecExt).
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	vecExt bool
}

// Open creates or attaches to the SQLite database at path, creating
// the schema if absent.
func Open(path string) (*SQLiteStore, error) {
	vecInitOnce.Do(func() {
		sqlite_vec.Auto()
	})

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, apperrors.New(apperrors.KindStorage, "open", "failed to open sqlite database", err).WithFatal()
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, apperrors.New(apperrors.KindStorage, "open", "failed to apply pragma: "+pragma, err).WithFatal()
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	s.detectVecExtension()
	return s, nil
}

func (s *SQLiteStore) detectVecExtension() {
	if _, err := s.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS vec_probe USING vec0(embedding float[4])"); err == nil {
		s.vecExt = true
		_, _ = s.db.Exec("DROP TABLE IF EXISTS vec_probe")
	}
}

func (s *SQLiteStore) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS code_elements (
			id TEXT PRIMARY KEY,
			file_path TEXT NOT NULL,
			element_name TEXT NOT NULL,
			kind TEXT NOT NULL,
			start_line INTEGER,
			end_line INTEGER,
			start_column INTEGER,
			end_column INTEGER,
			start_byte INTEGER,
			end_byte INTEGER,
			content TEXT,
			content_hash TEXT,
			description TEXT,
			search_phrases TEXT,
			exported INTEGER,
			async INTEGER,
			parameters TEXT,
			return_type TEXT,
			inheritance TEXT,
			visibility TEXT,
			content_embedding BLOB,
			semantic_embedding BLOB,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE INDEX IF NOT EXISTS idx_code_elements_file_path ON code_elements(file_path);`,
		`CREATE INDEX IF NOT EXISTS idx_code_elements_name ON code_elements(element_name);`,
		`CREATE TABLE IF NOT EXISTS structural_relationship (
			id TEXT PRIMARY KEY,
			from_id TEXT NOT NULL,
			to_id TEXT NOT NULL,
			type TEXT NOT NULL,
			context TEXT,
			semantic_description TEXT,
			architectural_purpose TEXT,
			complexity_score REAL,
			relationship_embedding BLOB,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE INDEX IF NOT EXISTS idx_structural_from ON structural_relationship(from_id);`,
		`CREATE INDEX IF NOT EXISTS idx_structural_to ON structural_relationship(to_id);`,
		`CREATE INDEX IF NOT EXISTS idx_structural_type ON structural_relationship(type);`,
		`CREATE TABLE IF NOT EXISTS data_flow (
			id TEXT PRIMARY KEY,
			from_id TEXT NOT NULL,
			to_id TEXT NOT NULL,
			type TEXT NOT NULL,
			type_annotation TEXT,
			metadata TEXT,
			data_transformation_description TEXT,
			business_logic_purpose TEXT,
			side_effects TEXT,
			data_flow_embedding BLOB,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE INDEX IF NOT EXISTS idx_data_flow_from ON data_flow(from_id);`,
		`CREATE INDEX IF NOT EXISTS idx_data_flow_to ON data_flow(to_id);`,
		`CREATE TABLE IF NOT EXISTS file_metadata (
			path TEXT PRIMARY KEY,
			size INTEGER,
			modified_at DATETIME,
			language TEXT,
			checksum TEXT,
			symbol_count INTEGER,
			processing_time_ns INTEGER,
			last_indexed DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS workspace_info (
			path TEXT PRIMARY KEY,
			created_at DATETIME,
			last_indexed DATETIME,
			total_files INTEGER,
			total_elements INTEGER,
			indexing_strategy TEXT
		);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return apperrors.New(apperrors.KindStorage, "init_schema", "failed to create schema", err).WithFatal()
		}
	}
	return nil
}

func vectorToBlob(v embedding.Vector) []byte {
	if len(v) == 0 {
		return nil
	}
	blob, err := sqlite_vec.SerializeFloat32(v)
	if err != nil {
		return nil
	}
	return blob
}

// CreateElement upserts one element: id-keyed, replacing description,
// embeddings, and updated_at on conflict while preserving created_at.
func (s *SQLiteStore) CreateElement(ctx context.Context, e model.CodeElement) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	params, err := json.Marshal(e.Parameters)
	if err != nil {
		return "", apperrors.New(apperrors.KindStorage, "create_element", "failed to encode parameters", err)
	}
	phrases, err := json.Marshal(e.SearchPhrases)
	if err != nil {
		return "", apperrors.New(apperrors.KindStorage, "create_element", "failed to encode search phrases", err)
	}
	inheritance, err := json.Marshal(e.Inheritance)
	if err != nil {
		return "", apperrors.New(apperrors.KindStorage, "create_element", "failed to encode inheritance", err)
	}

	now := e.UpdatedAt
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO code_elements (
			id, file_path, element_name, kind, start_line, end_line, start_column, end_column,
			start_byte, end_byte, content, content_hash, description, search_phrases, exported,
			async, parameters, return_type, inheritance, visibility, content_embedding,
			semantic_embedding, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			content_embedding = excluded.content_embedding,
			semantic_embedding = excluded.semantic_embedding,
			updated_at = excluded.updated_at
	`,
		e.ID, e.FilePath, e.Name, string(e.Kind), e.StartLine, e.EndLine, e.StartColumn, e.EndColumn,
		e.StartByte, e.EndByte, e.Content, e.ContentHash, e.Description, string(phrases), boolToInt(e.Exported),
		boolToInt(e.Async), string(params), e.ReturnType, string(inheritance), e.Visibility,
		vectorToBlob(e.ContentEmbedding), vectorToBlob(e.SemanticEmbedding), e.CreatedAt, now,
	)
	if err != nil {
		return "", apperrors.New(apperrors.KindStorage, "create_element", "insert failed", err).WithRetryable()
	}
	return e.ID, nil
}

// CreateRelationship upserts one structural edge with the same
// replace-on-conflict semantics as CreateElement.
func (s *SQLiteStore) CreateRelationship(ctx context.Context, r model.StructuralRelationship) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctxJSON, err := json.Marshal(r.Context)
	if err != nil {
		return "", apperrors.New(apperrors.KindStorage, "create_relationship", "failed to encode context", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO structural_relationship (
			id, from_id, to_id, type, context, semantic_description, architectural_purpose,
			complexity_score, relationship_embedding, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			semantic_description = excluded.semantic_description,
			relationship_embedding = excluded.relationship_embedding,
			updated_at = excluded.updated_at
	`,
		r.ID, r.From, r.To, string(r.Type), string(ctxJSON), r.SemanticDescription, r.ArchitecturalPurpose,
		r.ComplexityScore, vectorToBlob(r.RelationshipEmbedding), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return "", apperrors.New(apperrors.KindStorage, "create_relationship", "insert failed", err).WithRetryable()
	}
	return r.ID, nil
}

// CreateDataFlow upserts one data-flow edge.
func (s *SQLiteStore) CreateDataFlow(ctx context.Context, d model.DataFlowRelationship) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	metaJSON, err := json.Marshal(d.Metadata)
	if err != nil {
		return "", apperrors.New(apperrors.KindStorage, "create_data_flow", "failed to encode metadata", err)
	}
	sideEffects, err := json.Marshal(d.SideEffects)
	if err != nil {
		return "", apperrors.New(apperrors.KindStorage, "create_data_flow", "failed to encode side effects", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO data_flow (
			id, from_id, to_id, type, type_annotation, metadata, data_transformation_description,
			business_logic_purpose, side_effects, data_flow_embedding, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data_transformation_description = excluded.data_transformation_description,
			data_flow_embedding = excluded.data_flow_embedding,
			updated_at = excluded.updated_at
	`,
		d.ID, d.From, d.To, string(d.Type), d.TypeAnnotation, string(metaJSON), d.DataTransformationDescription,
		d.BusinessLogicPurpose, string(sideEffects), vectorToBlob(d.DataFlowEmbedding), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return "", apperrors.New(apperrors.KindStorage, "create_data_flow", "insert failed", err).WithRetryable()
	}
	return d.ID, nil
}

// CreateBatch commits elements then relationships, atomic per record:
// one record's failure does not abort the rest. Relationships whose
// endpoints are not present among the elements just committed (and not
// already resolvable in the store) are dropped and reported.
func (s *SQLiteStore) CreateBatch(ctx context.Context, elements []model.CodeElement, relationships []model.StructuralRelationship) (BatchResult, error) {
	var result BatchResult

	knownIDs := make(map[string]bool, len(elements))
	for _, e := range elements {
		knownIDs[e.ID] = true
		if _, err := s.CreateElement(ctx, e); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("element %s: %v", e.ID, err))
			continue
		}
		result.CreatedIDs = append(result.CreatedIDs, e.ID)
	}

	for _, r := range relationships {
		if !knownIDs[r.From] && !s.elementExists(ctx, r.From) {
			result.Dropped = append(result.Dropped, r.ID)
			continue
		}
		if !knownIDs[r.To] && !s.elementExists(ctx, r.To) {
			result.Dropped = append(result.Dropped, r.ID)
			continue
		}
		if _, err := s.CreateRelationship(ctx, r); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("relationship %s: %v", r.ID, err))
			continue
		}
		result.CreatedIDs = append(result.CreatedIDs, r.ID)
	}

	return result, nil
}

func (s *SQLiteStore) elementExists(ctx context.Context, id string) bool {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM code_elements WHERE id = ?", id).Scan(&exists)
	return err == nil
}

func embeddingColumn(t EmbeddingType) string {
	switch t {
	case EmbeddingSemantic:
		return "semantic_embedding"
	case EmbeddingRelationship:
		return "relationship_embedding"
	case EmbeddingDataFlow:
		return "data_flow_embedding"
	default:
		return "content_embedding"
	}
}

// Search ranks code_elements by cosine similarity against
// opts.EmbeddingType's column, excluding anything below opts.Threshold
// and capping results at opts.Limit (default 10, max 100).
func (s *SQLiteStore) Search(ctx context.Context, queryEmbedding embedding.Vector, opts SearchOptions) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	col := embeddingColumn(opts.EmbeddingType)
	query := fmt.Sprintf(`SELECT id, file_path, element_name, kind, start_line, end_line, start_column,
		end_column, start_byte, end_byte, content, content_hash, description, search_phrases, exported,
		async, parameters, return_type, inheritance, visibility, %s, created_at, updated_at
		FROM code_elements WHERE %s IS NOT NULL`, col, col)

	var args []any
	if opts.PathFilter != "" {
		query += " AND file_path = ?"
		args = append(args, opts.PathFilter)
	}
	if opts.KindFilter != "" {
		query += " AND kind = ?"
		args = append(args, string(opts.KindFilter))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.New(apperrors.KindStorage, "search", "query failed", err).WithRetryable()
	}
	defer rows.Close()

	var candidates []SearchResult
	for rows.Next() {
		e, vecBlob, err := scanElementWithVec(rows)
		if err != nil {
			return nil, apperrors.New(apperrors.KindStorage, "search", "scan failed", err)
		}
		vec := blobToVector(vecBlob)
		sim := embedding.Similarity(queryEmbedding, vec)
		if sim < opts.Threshold {
			continue
		}
		candidates = append(candidates, SearchResult{Element: e, Similarity: sim})
	}

	sortBySimilarityDesc(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func sortBySimilarityDesc(results []SearchResult) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Similarity > results[j-1].Similarity; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}

func scanElementWithVec(rows *sql.Rows) (model.CodeElement, []byte, error) {
	var e model.CodeElement
	var kind, params, phrases, inheritance string
	var exported, async int
	var vecBlob []byte

	err := rows.Scan(
		&e.ID, &e.FilePath, &e.Name, &kind, &e.StartLine, &e.EndLine, &e.StartColumn, &e.EndColumn,
		&e.StartByte, &e.EndByte, &e.Content, &e.ContentHash, &e.Description, &phrases, &exported,
		&async, &params, &e.ReturnType, &inheritance, &e.Visibility, &vecBlob, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return e, nil, err
	}
	e.Kind = model.ElementKind(kind)
	e.Exported = exported != 0
	e.Async = async != 0
	_ = json.Unmarshal([]byte(params), &e.Parameters)
	_ = json.Unmarshal([]byte(phrases), &e.SearchPhrases)
	_ = json.Unmarshal([]byte(inheritance), &e.Inheritance)
	return e, vecBlob, nil
}

func blobToVector(blob []byte) embedding.Vector {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil
	}
	v := make(embedding.Vector, len(blob)/4)
	for i := range v {
		bits := uint32(blob[i*4]) | uint32(blob[i*4+1])<<8 | uint32(blob[i*4+2])<<16 | uint32(blob[i*4+3])<<24
		v[i] = math.Float32frombits(bits)
	}
	return v
}

// Traverse performs a breadth-first walk from startID over
// structural_relationship edges, visiting each node at most once,
// grounded on pkg/tools/trace.go's TracePath BFS.
func (s *SQLiteStore) Traverse(ctx context.Context, startID string, opts TraverseOptions) (TraverseResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 1
	}
	direction := opts.Direction
	if direction == "" {
		direction = DirectionOutgoing
	}

	typeFilter := make(map[model.StructuralRelationshipType]bool, len(opts.RelationshipTypes))
	for _, t := range opts.RelationshipTypes {
		typeFilter[t] = true
	}

	type queued struct {
		id    string
		depth int
	}

	result := TraverseResult{}
	visited := map[string]bool{startID: true}
	queue := []queued{{id: startID, depth: 0}}
	result.Path = append(result.Path, startID)
	result.Nodes = append(result.Nodes, startID)

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		current := queue[0]
		queue = queue[1:]
		if current.depth > result.Depth {
			result.Depth = current.depth
		}
		if current.depth >= maxDepth {
			continue
		}

		edges, err := s.edgesFor(ctx, current.id, direction)
		if err != nil {
			return result, err
		}
		for _, e := range edges {
			if len(typeFilter) > 0 && !typeFilter[e.Type] {
				continue
			}
			next := e.To
			if direction == DirectionIncoming || (direction == DirectionBoth && e.To == current.id) {
				next = e.From
			}
			result.Edges = append(result.Edges, e)
			if visited[next] {
				continue
			}
			visited[next] = true
			result.Nodes = append(result.Nodes, next)
			result.Path = append(result.Path, next)
			queue = append(queue, queued{id: next, depth: current.depth + 1})
		}
	}

	return result, nil
}

func (s *SQLiteStore) edgesFor(ctx context.Context, id string, direction Direction) ([]model.StructuralRelationship, error) {
	var query string
	switch direction {
	case DirectionIncoming:
		query = "SELECT id, from_id, to_id, type, complexity_score, created_at, updated_at FROM structural_relationship WHERE to_id = ?"
	case DirectionBoth:
		query = "SELECT id, from_id, to_id, type, complexity_score, created_at, updated_at FROM structural_relationship WHERE from_id = ? OR to_id = ?"
	default:
		query = "SELECT id, from_id, to_id, type, complexity_score, created_at, updated_at FROM structural_relationship WHERE from_id = ?"
	}

	var rows *sql.Rows
	var err error
	if direction == DirectionBoth {
		rows, err = s.db.QueryContext(ctx, query, id, id)
	} else {
		rows, err = s.db.QueryContext(ctx, query, id)
	}
	if err != nil {
		return nil, apperrors.New(apperrors.KindStorage, "traverse", "edge query failed", err).WithRetryable()
	}
	defer rows.Close()

	var edges []model.StructuralRelationship
	for rows.Next() {
		var e model.StructuralRelationship
		var typeStr string
		if err := rows.Scan(&e.ID, &e.From, &e.To, &typeStr, &e.ComplexityScore, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, apperrors.New(apperrors.KindStorage, "traverse", "edge scan failed", err)
		}
		e.Type = model.StructuralRelationshipType(typeStr)
		edges = append(edges, e)
	}
	return edges, nil
}

// DeleteByPath removes a file's elements and cascades to the
// relationships and data flows they own.
func (s *SQLiteStore) DeleteByPath(ctx context.Context, path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.New(apperrors.KindStorage, "delete_by_path", "failed to begin transaction", err).WithRetryable()
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT id FROM code_elements WHERE file_path = ?", path)
	if err != nil {
		return 0, apperrors.New(apperrors.KindStorage, "delete_by_path", "lookup failed", err).WithRetryable()
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, apperrors.New(apperrors.KindStorage, "delete_by_path", "scan failed", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	inClause := "(" + strings.Join(placeholders, ",") + ")"

	if len(ids) > 0 {
		if _, err := tx.ExecContext(ctx, "DELETE FROM structural_relationship WHERE from_id IN "+inClause+" OR to_id IN "+inClause, append(append([]any{}, args...), args...)...); err != nil {
			return 0, apperrors.New(apperrors.KindStorage, "delete_by_path", "cascade delete of relationships failed", err).WithRetryable()
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM data_flow WHERE from_id IN "+inClause+" OR to_id IN "+inClause, append(append([]any{}, args...), args...)...); err != nil {
			return 0, apperrors.New(apperrors.KindStorage, "delete_by_path", "cascade delete of data flows failed", err).WithRetryable()
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM code_elements WHERE file_path = ?", path)
	if err != nil {
		return 0, apperrors.New(apperrors.KindStorage, "delete_by_path", "element delete failed", err).WithRetryable()
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM file_metadata WHERE path = ?", path); err != nil {
		return 0, apperrors.New(apperrors.KindStorage, "delete_by_path", "file metadata delete failed", err).WithRetryable()
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.New(apperrors.KindStorage, "delete_by_path", "commit failed", err).WithRetryable()
	}

	n, _ := res.RowsAffected()
	return int(n), nil
}

// UpsertFileMetadata records a file's indexing state, keyed by path.
// Called last in the per-file commit order (elements and their
// relationships/data flows land first), so symbol_count and
// last_indexed always describe a fully-committed file.
func (s *SQLiteStore) UpsertFileMetadata(ctx context.Context, m model.FileMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_metadata (
			path, size, modified_at, language, checksum, symbol_count, processing_time_ns, last_indexed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			modified_at = excluded.modified_at,
			language = excluded.language,
			checksum = excluded.checksum,
			symbol_count = excluded.symbol_count,
			processing_time_ns = excluded.processing_time_ns,
			last_indexed = excluded.last_indexed
	`,
		m.Path, m.Size, m.ModifiedAt, m.Language, m.Checksum, m.SymbolCount, m.ProcessingTime.Nanoseconds(), m.LastIndexed,
	)
	if err != nil {
		return apperrors.New(apperrors.KindStorage, "upsert_file_metadata", "insert failed", err).WithRetryable()
	}
	return nil
}

// UpsertWorkspaceInfo replaces the singleton record for one workspace
// root, committed once per indexing run after every file has landed.
func (s *SQLiteStore) UpsertWorkspaceInfo(ctx context.Context, w model.WorkspaceInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workspace_info (
			path, created_at, last_indexed, total_files, total_elements, indexing_strategy
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			last_indexed = excluded.last_indexed,
			total_files = excluded.total_files,
			total_elements = excluded.total_elements,
			indexing_strategy = excluded.indexing_strategy
	`,
		w.Path, w.CreatedAt, w.LastIndexed, w.TotalFiles, w.TotalElements, string(w.IndexingStrategy),
	)
	if err != nil {
		return apperrors.New(apperrors.KindStorage, "upsert_workspace_info", "insert failed", err).WithRetryable()
	}
	return nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
