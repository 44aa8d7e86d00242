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


package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agoradata/agora/ai"
	"github.com/agoradata/agora/core"
	"github.com/agoradata/agora/storage"
)

const (
	lockStripes          = 64
	defaultMaxToolPasses = 8
	defaultToolTimeout   = 15 * time.Second

	fallbackReply = "I wasn't able to finish that request. Could you rephrase or narrow it down?"
)

// TurnResult is the outcome of one user turn.
type TurnResult struct {
	// ConversationId identifies the conversation, newly created when the
	// turn opened one.
	ConversationId core.ID

	// Reply is the assistant's final text for this turn.
	Reply string

	// ToolCalls is the audit trail of tools executed during the turn.
	ToolCalls []core.ToolCallRecord

	// EntityRefs is the updated set of entities the conversation now
	// carries.
	EntityRefs []core.EntityRef
}

// Orchestrator drives the conversational loop: it rebuilds the model
// transcript from storage, runs bounded tool-calling passes against the
// chat model, and persists the completed turn. Turns on the same
// conversation are serialized; turns on different conversations run
// concurrently.
type Orchestrator struct {
	conversationRepository storage.ConversationRepository
	dispatcher             *Dispatcher
	chatModel              ai.ChatModel
	maxToolPasses          int
	toolTimeout            time.Duration
	locks                  [lockStripes]sync.Mutex
	logger                 *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithMaxToolPasses bounds the number of model round-trips in one turn.
func WithMaxToolPasses(passes int) Option {
	return func(o *Orchestrator) error {
		if passes < 1 {
			return errors.New("max tool passes must be at least 1")
		}
		o.maxToolPasses = passes
		return nil
	}
}

// WithToolTimeout bounds the execution time of a single tool call.
func WithToolTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) error {
		if timeout <= 0 {
			return errors.New("tool timeout must be positive")
		}
		o.toolTimeout = timeout
		return nil
	}
}

// NewOrchestrator creates a conversation orchestrator.
func NewOrchestrator(
	conversationRepository storage.ConversationRepository,
	dispatcher *Dispatcher,
	provider ai.Provider,
	opts ...Option,
) (*Orchestrator, error) {
	if conversationRepository == nil {
		return nil, ErrConversationRepositoryRequired
	}
	if dispatcher == nil {
		return nil, ErrDispatcherRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	o := &Orchestrator{
		conversationRepository: conversationRepository,
		dispatcher:             dispatcher,
		chatModel:              provider.ChatModel(),
		maxToolPasses:          defaultMaxToolPasses,
		toolTimeout:            defaultToolTimeout,
		logger:                 slog.Default().With("component", "orchestrator"),
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	return o, nil
}

func (o *Orchestrator) lockFor(id core.ID) *sync.Mutex {
	return &o.locks[uint64(id)%lockStripes]
}

// HandleMessage processes one user turn. A zero conversationID opens a
// new conversation owned by userID. The turn is persisted atomically at
// the end: either both the user message and the assistant reply with
// its tool records land, or neither does.
func (o *Orchestrator) HandleMessage(ctx context.Context, conversationID, userID core.ID, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyUserMessage
	}

	conversation, err := o.loadOrCreate(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	lock := o.lockFor(conversation.Id)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock so a concurrent turn's messages are part
	// of the transcript we build on.
	if conversation, err = o.conversationRepository.GetConversation(ctx, conversation.Id); err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	state := newTurnState(conversation.Id, userID, text, conversation.EntityRefs)
	transcript := buildTranscript(conversation, text)

	reply, err := o.runPasses(ctx, state, transcript)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	records := recordsInOrder(state)
	_, err = o.conversationRepository.AppendMessages(ctx, conversation.Id,
		core.Message{Role: core.RoleUser, Content: text, Timestamp: now},
		core.Message{Role: core.RoleAssistant, Content: reply, ToolCalls: records, Timestamp: now},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to persist turn: %w", err)
	}

	if err := o.conversationRepository.SetEntityRefs(ctx, conversation.Id, state.entityRefs); err != nil {
		return nil, fmt.Errorf("failed to persist entity refs: %w", err)
	}

	return &TurnResult{
		ConversationId: conversation.Id,
		Reply:          reply,
		ToolCalls:      records,
		EntityRefs:     state.entityRefs,
	}, nil
}

// loadOrCreate resolves the conversation for a turn, enforcing
// ownership. Soft-deleted conversations behave as if they never
// existed.
func (o *Orchestrator) loadOrCreate(ctx context.Context, conversationID, userID core.ID) (*core.Conversation, error) {
	if conversationID == 0 {
		conversation, err := o.conversationRepository.AddConversation(ctx, &core.Conversation{UserId: userID})
		if err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		return conversation, nil
	}

	conversation, err := o.conversationRepository.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if conversation.Deleted {
		return nil, fmt.Errorf("failed to load conversation: %w", storage.ErrNotFound)
	}
	if conversation.UserId != userID {
		return nil, ErrConversationOwnership
	}
	return conversation, nil
}

// runPasses drives the tool loop. Each pass sends the transcript to the
// model; tool call requests are executed and their results appended
// before the next pass. When the pass budget is exhausted the model is
// asked once more without tools so the turn still ends in text.
func (o *Orchestrator) runPasses(ctx context.Context, state *turnState, transcript []ai.ChatMessage) (string, error) {
	tools := toolDefinitions()

	for pass := 0; pass < o.maxToolPasses; pass++ {
		completion, err := o.chatModel.Complete(ctx, transcript, tools)
		if err != nil {
			return "", fmt.Errorf("chat completion failed: %w", err)
		}

		if len(completion.ToolCalls) == 0 {
			if completion.Content == "" {
				return fallbackReply, nil
			}
			return completion.Content, nil
		}

		transcript = append(transcript, ai.ChatMessage{
			Role:      ai.ChatRoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})

		for _, call := range completion.ToolCalls {
			record := o.executeWithTimeout(ctx, state, call)
			transcript = append(transcript, ai.ChatMessage{
				Role:       ai.ChatRoleTool,
				Content:    toolMessageContent(record),
				ToolCallId: call.Id,
				ToolName:   call.Name,
			})
		}
	}

	o.logger.Warn("tool pass limit reached", "conversation_id", state.conversationID)

	// Final text-only completion; no tools offered.
	completion, err := o.chatModel.Complete(ctx, transcript, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrToolPassLimit, err)
	}
	if completion.Content == "" {
		return fallbackReply, nil
	}
	return completion.Content, nil
}

// executeWithTimeout runs one tool call under the per-call deadline.
func (o *Orchestrator) executeWithTimeout(ctx context.Context, state *turnState, call ai.ToolCall) core.ToolCallRecord {
	callCtx, cancel := context.WithTimeout(ctx, o.toolTimeout)
	defer cancel()
	return o.dispatcher.Execute(callCtx, state, call)
}

// toolMessageContent renders a record as the tool-role message body the
// model sees. Failures are prefixed so the model recognizes them.
func toolMessageContent(record core.ToolCallRecord) string {
	if record.Failed {
		return "error: " + record.ResultText
	}
	if record.Result != "" {
		return record.Result
	}
	return record.ResultText
}

// recordsInOrder returns the turn's tool records in execution order.
// Duplicate-suppressed calls share a single record.
func recordsInOrder(state *turnState) []core.ToolCallRecord {
	if len(state.order) == 0 {
		return nil
	}
	records := make([]core.ToolCallRecord, 0, len(state.order))
	for _, key := range state.order {
		records = append(records, *state.executed[key])
	}
	return records
}

// buildTranscript reconstructs the model transcript from the persisted
// conversation plus the incoming user message. Prior tool records are
// replayed as assistant tool calls and tool results so the model sees
// the same structure it produced.
func buildTranscript(conversation *core.Conversation, userText string) []ai.ChatMessage {
	transcript := make([]ai.ChatMessage, 0, len(conversation.Messages)*2+2)
	transcript = append(transcript, ai.ChatMessage{
		Role:    ai.ChatRoleSystem,
		Content: buildSystemPrompt(conversation.EntityRefs),
	})

	callSeq := 0
	for _, message := range conversation.Messages {
		switch message.Role {
		case core.RoleUser:
			transcript = append(transcript, ai.ChatMessage{Role: ai.ChatRoleUser, Content: message.Content})
		case core.RoleAssistant:
			if len(message.ToolCalls) > 0 {
				assistant := ai.ChatMessage{Role: ai.ChatRoleAssistant}
				ids := make([]string, len(message.ToolCalls))
				for i, record := range message.ToolCalls {
					callSeq++
					ids[i] = "replay_" + strconv.Itoa(callSeq)
					assistant.ToolCalls = append(assistant.ToolCalls, ai.ToolCall{
						Id:        ids[i],
						Name:      record.Name,
						Arguments: record.Arguments,
					})
				}
				transcript = append(transcript, assistant)
				for i, record := range message.ToolCalls {
					transcript = append(transcript, ai.ChatMessage{
						Role:       ai.ChatRoleTool,
						Content:    toolMessageContent(record),
						ToolCallId: ids[i],
						ToolName:   record.Name,
					})
				}
			}
			transcript = append(transcript, ai.ChatMessage{Role: ai.ChatRoleAssistant, Content: message.Content})
		}
	}

	transcript = append(transcript, ai.ChatMessage{Role: ai.ChatRoleUser, Content: userText})
	return transcript
}
