// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package llmorch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	apperrors "github.com/kraklabs/vibeindex/internal/errors"
)

// AnthropicProvider implements ChatProvider over anthropic-sdk-go,
// converting the fixed Mode A toolset to anthropic.ToolUnionParam the
// way vvoland-cagent's convertTools/ConvertParametersToSchema do.
type AnthropicProvider struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicProvider constructs a provider for the given API key and
// model, with maxTokens applied to every request.
func NewAnthropicProvider(apiKey, model string, maxTokens int64) *AnthropicProvider {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicProvider{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
	}
}

func convertToolSpecs(specs []ToolSpec) ([]anthropic.ToolUnionParam, error) {
	out := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(spec.Schema, &schema); err != nil {
			return nil, fmt.Errorf("convert schema for tool %s: %w", spec.Name, err)
		}
		tool := anthropic.ToolParam{
			Name:        string(spec.Name),
			Description: anthropic.String(spec.Description),
			InputSchema: schema,
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return out, nil
}

func convertChatMessages(messages []ChatMessage) (system []anthropic.TextBlockParam, converted []anthropic.MessageParam) {
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case "user", "tool":
			converted = append(converted, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case "assistant":
			converted = append(converted, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return system, converted
}

// Chat sends one round-trip, returning the model's text output plus
// any tool calls it issued.
func (p *AnthropicProvider) Chat(ctx context.Context, messages []ChatMessage, tools []ToolSpec) (ChatResult, error) {
	system, converted := convertChatMessages(messages)

	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		System:    system,
		Messages:  converted,
	}
	if len(tools) > 0 {
		toolParams, err := convertToolSpecs(tools)
		if err != nil {
			return ChatResult{}, apperrors.New(apperrors.KindLLM, "chat.convert_tools", "failed converting tool schemas", err)
		}
		params.Tools = toolParams
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return ChatResult{}, apperrors.New(apperrors.KindLLM, "chat", "anthropic request failed", err).WithRetryable()
	}

	var result ChatResult
	result.Input = int(resp.Usage.InputTokens)
	result.Output = int(resp.Usage.OutputTokens)

	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			result.Text += variant.Text
		case anthropic.ToolUseBlock:
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				Name:      ToolName(variant.Name),
				Arguments: json.RawMessage(variant.Input),
			})
		}
	}

	return result, nil
}
