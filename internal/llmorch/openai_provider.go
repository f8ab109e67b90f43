// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package llmorch

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	apperrors "github.com/kraklabs/vibeindex/internal/errors"
)

// OpenAIProvider implements ChatProvider over the Chat Completions
// surface of openai-go/v3, grounded on vvoland-cagent's
// CreateChatCompletionStream tool-conversion shape, adapted to a
// single non-streaming round trip.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider constructs a provider for the given API key and
// model name.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func convertToolSpecsOpenAI(specs []ToolSpec) ([]openai.ChatCompletionToolUnionParam, error) {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		var parameters shared.FunctionParameters
		if err := json.Unmarshal(spec.Schema, &parameters); err != nil {
			return nil, apperrors.New(apperrors.KindLLM, "convert_tool_schema", "failed converting tool schema for "+string(spec.Name), err)
		}
		out = append(out, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        string(spec.Name),
			Description: openai.String(spec.Description),
			Parameters:  parameters,
		}))
	}
	return out, nil
}

func convertChatMessagesOpenAI(messages []ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// Chat sends one non-streaming Chat Completions round trip.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []ChatMessage, tools []ToolSpec) (ChatResult, error) {
	params := openai.ChatCompletionNewParams{
		Model:    p.model,
		Messages: convertChatMessagesOpenAI(messages),
	}
	if len(tools) > 0 {
		toolParams, err := convertToolSpecsOpenAI(tools)
		if err != nil {
			return ChatResult{}, err
		}
		params.Tools = toolParams
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return ChatResult{}, apperrors.New(apperrors.KindLLM, "chat", "openai request failed", err).WithRetryable()
	}
	if len(resp.Choices) == 0 {
		return ChatResult{}, apperrors.New(apperrors.KindLLM, "chat", "openai response had no choices", nil)
	}

	msg := resp.Choices[0].Message
	result := ChatResult{
		Text:   msg.Content,
		Input:  int(resp.Usage.PromptTokens),
		Output: int(resp.Usage.CompletionTokens),
	}
	for _, call := range msg.ToolCalls {
		fn := call.Function
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			Name:      ToolName(fn.Name),
			Arguments: json.RawMessage(fn.Arguments),
		})
	}
	return result, nil
}
