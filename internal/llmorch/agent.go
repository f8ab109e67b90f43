// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package llmorch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/kraklabs/vibeindex/internal/errors"
)

// ChatMessage is one turn in Mode A's single conversation.
type ChatMessage struct {
	Role    string // "system", "user", "assistant", "tool"
	Content string
}

// ToolCall is one model-issued invocation of a Mode A tool.
type ToolCall struct {
	Name      ToolName
	Arguments json.RawMessage
}

// ChatResult is one round-trip with the backend: text output, zero or
// more tool calls, and the token usage for that call.
type ChatResult struct {
	Text      string
	ToolCalls []ToolCall
	Input     int
	Output    int
}

// ChatProvider is the tool-calling-capable chat backend Mode A drives.
// Concrete implementations wrap anthropic-sdk-go / openai-go/v3 tool
// conversion, grounded on vvoland-cagent's convertTools pattern.
type ChatProvider interface {
	Chat(ctx context.Context, messages []ChatMessage, tools []ToolSpec) (ChatResult, error)
}

const systemInstruction = `You are exploring a codebase to produce a semantic index. ` +
	`Use the available tools to discover files, read their contents, list the symbols ` +
	`they declare, and inspect symbol details. For every symbol worth indexing, call ` +
	`create_index_entry with a concise, accurate description of what it does. Continue ` +
	`exploring until the codebase is covered, then stop.`

// Agent drives Mode A's bounded tool-dispatch loop.
type Agent struct {
	Provider      ChatProvider
	MaxIterations int
	Tracker       *Tracker
}

// NewAgent constructs an Agent with the spec default of 20 iterations.
func NewAgent(provider ChatProvider, tracker *Tracker) *Agent {
	return &Agent{Provider: provider, MaxIterations: 20, Tracker: tracker}
}

// Run drives the conversation against ws until the model stops issuing
// tool calls or MaxIterations is reached.
func (a *Agent) Run(ctx context.Context, ws Workspace, goal string) error {
	messages := []ChatMessage{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: goal},
	}

	tools := ToolSpecs()
	maxIter := a.MaxIterations
	if maxIter <= 0 {
		maxIter = 20
	}

	for iter := 0; iter < maxIter; iter++ {
		var result ChatResult
		err := withRetry(ctx, "agent.chat", func() error {
			var callErr error
			result, callErr = a.Provider.Chat(ctx, messages, tools)
			return callErr
		})
		if err != nil {
			return err
		}
		if a.Tracker != nil {
			a.Tracker.Add(result.Input, result.Output)
		}

		if result.Text != "" {
			messages = append(messages, ChatMessage{Role: "assistant", Content: result.Text})
		}

		if len(result.ToolCalls) == 0 {
			return nil
		}

		var sb strings.Builder
		for _, call := range result.ToolCalls {
			res := a.dispatch(ws, call)
			fmt.Fprintf(&sb, "Function %s result: %s\n", call.Name, res)
		}
		sb.WriteString("\nBased on these results, please continue your exploration.")
		messages = append(messages, ChatMessage{Role: "tool", Content: sb.String()})
	}
	return apperrors.New(apperrors.KindLLM, "agent.run",
		fmt.Sprintf("max iterations reached (%d) without the model concluding exploration", maxIter), nil)
}

// dispatch executes one tool call against ws, returning its JSON
// result (or a JSON error object for unknown tools/bad arguments) —
// errors are returned to the model, never to the caller, per spec §4.5.
func (a *Agent) dispatch(ws Workspace, call ToolCall) string {
	switch call.Name {
	case ToolListFilesystem:
		var args struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return toolError(err)
		}
		entries, err := ws.ListFilesystem(args.Path)
		if err != nil {
			return toolError(err)
		}
		return toJSON(entries)

	case ToolReadFile:
		var args struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return toolError(err)
		}
		content, err := ws.ReadFile(args.Path)
		if err != nil {
			return toolError(err)
		}
		return toJSON(content)

	case ToolListSymbolsInFile:
		var args struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return toolError(err)
		}
		symbols, err := ws.ListSymbols(args.Path)
		if err != nil {
			return toolError(err)
		}
		return toJSON(symbols)

	case ToolGetSymbolDetails:
		var args struct {
			Path       string `json:"path"`
			SymbolName string `json:"symbol_name"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return toolError(err)
		}
		detail, ok, err := ws.SymbolDetails(args.Path, args.SymbolName)
		if err != nil {
			return toolError(err)
		}
		if !ok {
			return toolError(fmt.Errorf("symbol %q not found in %q", args.SymbolName, args.Path))
		}
		return toJSON(detail)

	case ToolCreateIndexEntry:
		var args CreateIndexEntryInput
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return toolError(err)
		}
		if err := ws.CreateIndexEntry(args); err != nil {
			return toolError(err)
		}
		return toJSON(struct {
			Success bool `json:"success"`
		}{true})

	default:
		return toolError(fmt.Errorf("unknown tool: %s", call.Name))
	}
}

func toolError(err error) string {
	return toJSON(struct {
		Error string `json:"error"`
	}{err.Error()})
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `{"error":"failed to encode result"}`
	}
	return string(b)
}
