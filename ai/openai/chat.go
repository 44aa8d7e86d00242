// Copyright 2025 Agora Data
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"log/slog"

	"github.com/agoradata/agora/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ChatModel implements ai.ChatModel using OpenAI-compatible chat APIs
// with tool calling.
type ChatModel struct {
	client llms.Model
	logger *slog.Logger
}

// newChatModel is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newChatModel(config *ai.Config) (*ChatModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &ChatModel{
		client: client,
		logger: slog.Default().With("component", "openai-chat"),
	}, nil
}

// NewChatModel creates a new chat model using the provided configuration.
//
// Returns ai.ChatModel interface to enforce abstraction.
func NewChatModel(config *ai.Config) (ai.ChatModel, error) {
	return newChatModel(config)
}

// Complete generates the next assistant turn for a conversation.
func (c *ChatModel) Complete(ctx context.Context, messages []ai.ChatMessage, tools []ai.ToolDefinition) (*ai.Completion, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, toMessageContent(msg))
	}

	opts := []llms.CallOption{llms.WithTemperature(0.0)}
	if len(tools) > 0 {
		opts = append(opts, llms.WithTools(toTools(tools)))
	}

	response, err := c.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		c.logger.Error("failed to generate completion", "err", err)
		return nil, err
	}

	if len(response.Choices) < 1 {
		c.logger.Debug("no choices returned from model")
		return &ai.Completion{}, nil
	}

	choice := response.Choices[0]
	completion := &ai.Completion{Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		completion.ToolCalls = append(completion.ToolCalls, ai.ToolCall{
			Id:        tc.ID,
			Name:      tc.FunctionCall.Name,
			Arguments: tc.FunctionCall.Arguments,
		})
	}

	c.logger.Debug("completion generated",
		"content_length", len(completion.Content),
		"tool_calls", len(completion.ToolCalls))

	return completion, nil
}

// toMessageContent converts a neutral chat message to the langchaingo form.
func toMessageContent(msg ai.ChatMessage) llms.MessageContent {
	switch msg.Role {
	case ai.ChatRoleSystem:
		return llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		}
	case ai.ChatRoleTool:
		return llms.MessageContent{
			Role: llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{
				llms.ToolCallResponse{
					ToolCallID: msg.ToolCallId,
					Name:       msg.ToolName,
					Content:    msg.Content,
				},
			},
		}
	case ai.ChatRoleAssistant:
		parts := []llms.ContentPart{}
		if msg.Content != "" {
			parts = append(parts, llms.TextPart(msg.Content))
		}
		for _, tc := range msg.ToolCalls {
			parts = append(parts, llms.ToolCall{
				ID:   tc.Id,
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		return llms.MessageContent{
			Role:  llms.ChatMessageTypeAI,
			Parts: parts,
		}
	default:
		return llms.MessageContent{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		}
	}
}

// toTools converts neutral tool definitions to the langchaingo form.
func toTools(tools []ai.ToolDefinition) []llms.Tool {
	result := make([]llms.Tool, 0, len(tools))
	for _, tool := range tools {
		result = append(result, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	return result
}
