// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides the tagged error taxonomy used across the
// indexing engine.
//
// Every fallible operation in the pipeline produces an Error carrying a
// Kind from the taxonomy: Config, Filesystem, Parser, Extraction,
// Resolution, Embedding, LLM, Storage, and Workspace. The Fatal flag,
// set with WithFatal where the error is constructed, determines whether
// the Coordinator treats a failure as fatal (abort the run) or
// recoverable (log, count, and continue).
package errors

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Kind tags an Error with the subsystem that produced it. It does not
// set fatality by itself: an Error is fatal only when WithFatal marks it.
type Kind string

const (
	// KindConfig covers invalid or missing configuration. Always fatal.
	KindConfig Kind = "config"

	// KindFilesystem covers file read/list failures. Non-fatal per file.
	KindFilesystem Kind = "filesystem"

	// KindParser covers grammar load (fatal for that language) and parse
	// faults (non-fatal per file; partial extraction is allowed).
	KindParser Kind = "parser"

	// KindExtraction covers malformed nodes or missing expected children.
	// Non-fatal per symbol.
	KindExtraction Kind = "extraction"

	// KindResolution covers an unresolved relationship endpoint. The edge
	// is dropped; never fatal.
	KindResolution Kind = "resolution"

	// KindEmbedding covers embedding backend failures. Retryable; on final
	// failure the element keeps its description but no vector.
	KindEmbedding Kind = "embedding"

	// KindLLM covers rate limits (retryable), auth failures (fatal for
	// that call's scope), malformed tool calls (returned to the model),
	// and timeouts (retryable).
	KindLLM Kind = "llm"

	// KindStorage covers graph-store failures: connection loss is fatal,
	// a single query/write failure is not, "already exists" is success.
	KindStorage Kind = "storage"

	// KindWorkspace covers lock contention (retryable) and initialization
	// failures (fatal).
	KindWorkspace Kind = "workspace"
)

// Error is a structured, taggable error carrying enough context for the
// Coordinator's propagation policy: what went wrong, which subsystem it
// came from, whether retrying makes sense, and the underlying cause.
type Error struct {
	// Kind identifies the subsystem, per the taxonomy above.
	Kind Kind

	// Op names the operation that failed (e.g. "parser.get_parser",
	// "graph.create_batch").
	Op string

	// Message is a human-readable summary of what went wrong.
	Message string

	// Retryable marks whether the caller should apply backoff and retry.
	Retryable bool

	// Fatal marks whether this error must abort the entire run rather
	// than being counted and skipped.
	Fatal bool

	// Err is the wrapped underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Op != "" {
		b.WriteString(".")
		b.WriteString(e.Op)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap enables errors.Is/errors.As over the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an Error of the given kind.
func New(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// WithRetryable marks the error retryable and returns it, for chaining.
func (e *Error) WithRetryable() *Error {
	e.Retryable = true
	return e
}

// WithFatal marks the error as fatal for the whole run and returns it.
func (e *Error) WithFatal() *Error {
	e.Fatal = true
	return e
}

// IsFatal reports whether err (or any error it wraps) is a structural
// failure that should abort the indexing run, i.e. an Error marked with
// WithFatal, such as a failure to open the store or invalid
// configuration. Everything else is local and recoverable.
func IsFatal(err error) bool {
	var e *Error
	if as(err, &e) {
		return e.Fatal
	}
	return false
}

// IsRetryable reports whether err is a transient failure worth retrying
// with backoff (rate limits, timeouts, lock contention).
func IsRetryable(err error) bool {
	var e *Error
	if as(err, &e) {
		return e.Retryable
	}
	return false
}

// as is a small local errors.As to avoid importing the standard library
// "errors" package under a name that collides with this package's name.
func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Summary renders a single human-readable line naming the subsystem, the
// operation, and the underlying cause — the shape required for a
// structural-failure abort message.
func (e *Error) Summary() string {
	return fmt.Sprintf("%s failure in %s: %s", e.Kind, e.Op, e.Error())
}

var colorKind = color.New(color.FgRed, color.Bold)

// FatalSummary writes a colored one-line structural-failure summary to
// stderr. It does not exit the process; the Coordinator decides that.
func FatalSummary(err error) {
	var e *Error
	if as(err, &e) {
		fmt.Fprint(os.Stderr, colorKind.Sprint("fatal: "))
		fmt.Fprintln(os.Stderr, e.Summary())
		return
	}
	fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
}

// JSON renders the error as a machine-readable record.
type JSON struct {
	Kind      string `json:"kind"`
	Op        string `json:"op"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Fatal     bool   `json:"fatal"`
	Cause     string `json:"cause,omitempty"`
}

// ToJSON converts the Error to its JSON-serializable form.
func (e *Error) ToJSON() JSON {
	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}
	return JSON{
		Kind:      string(e.Kind),
		Op:        e.Op,
		Message:   e.Message,
		Retryable: e.Retryable,
		Fatal:     e.Fatal,
		Cause:     cause,
	}
}

// Encode writes the error's JSON form to stderr.
func Encode(err error) {
	var e *Error
	if !as(err, &e) {
		e = &Error{Kind: KindStorage, Message: err.Error()}
	}
	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(e.ToJSON())
}
