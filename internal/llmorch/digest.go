// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package llmorch

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
)

// DigestComponent is one entry of Mode B's extracted component list.
type DigestComponent struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// DigestFile groups a file's components, per spec §4.5's
// `[{filename, components: [{name, kind}]}]` shape.
type DigestFile struct {
	Filename   string            `json:"filename"`
	Components []DigestComponent `json:"components"`
}

// DigestResult is one digest call's parsed output.
type DigestResult struct {
	ArchitecturalSummary string
	Files                []DigestFile
}

const digestSystemInstruction = `You are given a whole-codebase digest. Produce two things: ` +
	`(1) an architectural summary in Markdown, and (2) a JSON array in a fenced ` + "```json```" + ` ` +
	`code block of the shape [{"filename": string, "components": [{"name": string, "kind": string}]}] ` +
	`enumerating every notable component per file.`

var fencedJSONBlock = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// GenerateDigest sends the whole-codebase digest once and extracts the
// architectural summary and component list.
func GenerateDigest(ctx context.Context, provider ChatProvider, tracker *Tracker, digest string) (DigestResult, error) {
	var result ChatResult
	err := withRetry(ctx, "digest.generate", func() error {
		var callErr error
		result, callErr = provider.Chat(ctx, []ChatMessage{
			{Role: "system", Content: digestSystemInstruction},
			{Role: "user", Content: digest},
		}, nil)
		return callErr
	})
	if err != nil {
		return DigestResult{}, err
	}
	if tracker != nil {
		tracker.Add(result.Input, result.Output)
	}

	files := extractFileList(result.Text)
	return DigestResult{ArchitecturalSummary: result.Text, Files: files}, nil
}

// extractFileList matches the first json-tagged fenced block and
// parses it. On absence or parse failure it returns nil — the caller
// is responsible for emitting the diagnostic spec §4.5 requires.
func extractFileList(text string) []DigestFile {
	match := fencedJSONBlock.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	var files []DigestFile
	if err := json.Unmarshal([]byte(match[1]), &files); err != nil {
		return nil
	}
	return files
}

// DescribeComponent requests a description for one listed component,
// using the containing file's content as context. On final retry
// failure the caller substitutes FallbackDescription.
func DescribeComponent(ctx context.Context, provider ChatProvider, tracker *Tracker, fileContent string, comp DigestComponent) (string, error) {
	var result ChatResult
	err := withRetry(ctx, "digest.describe_component", func() error {
		var callErr error
		result, callErr = provider.Chat(ctx, []ChatMessage{
			{Role: "system", Content: "Describe what the named component does, concisely, for a semantic code index."},
			{Role: "user", Content: "File:\n" + fileContent + "\n\nDescribe " + comp.Kind + " " + comp.Name + "."},
		}, nil)
		return callErr
	})
	if err != nil {
		return "", err
	}
	if tracker != nil {
		tracker.Add(result.Input, result.Output)
	}
	return result.Text, nil
}

// DescribeRelationship synthesizes a structural relationship's
// semantic description and architectural purpose: why fromName relates
// to toName the way relType names. Neither orchestrator mode's
// spec-fixed interface (Mode A's five tools, Mode B's per-component
// prompt) carries a relationship-narrative call of its own, so the
// Coordinator drives this the same way regardless of which mode
// described the endpoints' elements.
func DescribeRelationship(ctx context.Context, provider ChatProvider, tracker *Tracker, fromName, toName, relType string) (string, error) {
	var result ChatResult
	err := withRetry(ctx, "digest.describe_relationship", func() error {
		var callErr error
		result, callErr = provider.Chat(ctx, []ChatMessage{
			{Role: "system", Content: "Describe, in one or two sentences, the architectural purpose of a structural code relationship for a semantic code index."},
			{Role: "user", Content: fmt.Sprintf("%s %s %s. Why does this relationship exist?", fromName, relType, toName)},
		}, nil)
		return callErr
	})
	if err != nil {
		return "", err
	}
	if tracker != nil {
		tracker.Add(result.Input, result.Output)
	}
	return result.Text, nil
}

// DescribeDataFlow synthesizes a data-flow relationship's
// transformation narrative: what the data moving from fromName to
// toName via flowType represents and how its shape changes.
func DescribeDataFlow(ctx context.Context, provider ChatProvider, tracker *Tracker, fromName, toName, flowType string) (string, error) {
	var result ChatResult
	err := withRetry(ctx, "digest.describe_data_flow", func() error {
		var callErr error
		result, callErr = provider.Chat(ctx, []ChatMessage{
			{Role: "system", Content: "Describe, in one or two sentences, what the data flowing between two code elements represents and how it is shaped, for a semantic code index."},
			{Role: "user", Content: fmt.Sprintf("%s %s %s. Describe the data and any transformation.", fromName, flowType, toName)},
		}, nil)
		return callErr
	})
	if err != nil {
		return "", err
	}
	if tracker != nil {
		tracker.Add(result.Input, result.Output)
	}
	return result.Text, nil
}
