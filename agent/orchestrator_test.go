package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoradata/agora/ai"
	"github.com/agoradata/agora/ai/mock"
	"github.com/agoradata/agora/catalog"
	"github.com/agoradata/agora/core"
	"github.com/agoradata/agora/index"
	"github.com/agoradata/agora/inquiry"
	"github.com/agoradata/agora/match"
	"github.com/agoradata/agora/storage"
	"github.com/agoradata/agora/storage/badger"
)

type harness struct {
	orchestrator  *Orchestrator
	dispatcher    *Dispatcher
	catalog       *catalog.Catalog
	machine       *inquiry.Machine
	datasets      storage.DatasetRepository
	conversations storage.ConversationRepository
	provider      *mock.MockProvider
}

func (h *harness) chat() *mock.MockChatModel {
	return h.provider.GetMockChatModel()
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	datasets, conversations, inquiries, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	provider := mock.NewMockProvider().(*mock.MockProvider)
	idx := index.New(384)

	cat, err := catalog.NewCatalog(datasets, idx, provider)
	require.NoError(t, err)
	t.Cleanup(cat.Release)

	matcher, err := match.NewMatcher(datasets, idx, provider)
	require.NoError(t, err)

	machine, err := inquiry.NewMachine(inquiries)
	require.NoError(t, err)

	dispatcher, err := NewDispatcher(matcher, machine, datasets)
	require.NoError(t, err)

	orchestrator, err := NewOrchestrator(conversations, dispatcher, provider, opts...)
	require.NoError(t, err)

	return &harness{
		orchestrator:  orchestrator,
		dispatcher:    dispatcher,
		catalog:       cat,
		machine:       machine,
		datasets:      datasets,
		conversations: conversations,
		provider:      provider,
	}
}

func (h *harness) registerDataset(t *testing.T, title, description string, vendorID core.ID) *core.Dataset {
	t.Helper()
	added, err := h.catalog.Register(context.Background(), &core.Dataset{
		Title:        title,
		Description:  description,
		Domain:       "Finance",
		PricingModel: "subscription",
		Price:        250,
		Visibility:   core.VisibilityPublic,
		VendorId:     vendorID,
	})
	require.NoError(t, err)
	h.catalog.Wait()
	return added[0]
}

func TestNewOrchestrator(t *testing.T) {
	h := newHarness(t)

	t.Run("requires conversation repository", func(t *testing.T) {
		_, err := NewOrchestrator(nil, h.dispatcher, h.provider)
		assert.ErrorIs(t, err, ErrConversationRepositoryRequired)
	})

	t.Run("requires dispatcher", func(t *testing.T) {
		_, err := NewOrchestrator(h.conversations, nil, h.provider)
		assert.ErrorIs(t, err, ErrDispatcherRequired)
	})

	t.Run("requires provider", func(t *testing.T) {
		_, err := NewOrchestrator(h.conversations, h.dispatcher, nil)
		assert.ErrorIs(t, err, ErrAIProviderRequired)
	})

	t.Run("rejects invalid options", func(t *testing.T) {
		_, err := NewOrchestrator(h.conversations, h.dispatcher, h.provider, WithMaxToolPasses(0))
		assert.Error(t, err)

		_, err = NewOrchestrator(h.conversations, h.dispatcher, h.provider, WithToolTimeout(0))
		assert.Error(t, err)
	})
}

func TestHandleMessage_PlainReply(t *testing.T) {
	h := newHarness(t)
	h.chat().EnqueueText("Hello! What kind of data are you looking for?")

	result, err := h.orchestrator.HandleMessage(context.Background(), 0, 1, "hi")
	require.NoError(t, err)

	assert.NotZero(t, result.ConversationId)
	assert.Equal(t, "Hello! What kind of data are you looking for?", result.Reply)
	assert.Empty(t, result.ToolCalls)

	conversation, err := h.conversations.GetConversation(context.Background(), result.ConversationId)
	require.NoError(t, err)
	require.Len(t, conversation.Messages, 2)
	assert.Equal(t, core.RoleUser, conversation.Messages[0].Role)
	assert.Equal(t, "hi", conversation.Messages[0].Content)
	assert.Equal(t, core.RoleAssistant, conversation.Messages[1].Role)
	assert.Equal(t, result.Reply, conversation.Messages[1].Content)
}

func TestHandleMessage_EmptyMessage(t *testing.T) {
	h := newHarness(t)

	_, err := h.orchestrator.HandleMessage(context.Background(), 0, 1, "   ")
	assert.ErrorIs(t, err, ErrEmptyUserMessage)
}

func TestHandleMessage_Ownership(t *testing.T) {
	h := newHarness(t)
	h.chat().EnqueueText("sure")

	result, err := h.orchestrator.HandleMessage(context.Background(), 0, 1, "hi")
	require.NoError(t, err)

	_, err = h.orchestrator.HandleMessage(context.Background(), result.ConversationId, 2, "hi")
	assert.ErrorIs(t, err, ErrConversationOwnership)
}

func TestHandleMessage_UnknownConversation(t *testing.T) {
	h := newHarness(t)

	_, err := h.orchestrator.HandleMessage(context.Background(), 12345, 1, "hi")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHandleMessage_SearchFlow(t *testing.T) {
	h := newHarness(t)
	dataset := h.registerDataset(t, "Crypto Market Ticks", "Tick-level cryptocurrency trade data across major exchanges.", 9)

	// The mock embedder is deterministic on text, so querying with the
	// canonical rendering guarantees a hit.
	args, err := json.Marshal(map[string]string{"query": dataset.CanonicalText()})
	require.NoError(t, err)

	h.chat().
		EnqueueToolCall("call_1", ToolSearchDatasets, string(args)).
		EnqueueText("I found Crypto Market Ticks (ID 1).")

	result, err := h.orchestrator.HandleMessage(context.Background(), 0, 1, "I need crypto trading data")
	require.NoError(t, err)

	assert.Equal(t, "I found Crypto Market Ticks (ID 1).", result.Reply)
	require.Len(t, result.ToolCalls, 1)

	record := result.ToolCalls[0]
	assert.Equal(t, ToolSearchDatasets, record.Name)
	assert.False(t, record.Failed)
	assert.Contains(t, record.Result, dataset.Title)

	conversation, err := h.conversations.GetConversation(context.Background(), result.ConversationId)
	require.NoError(t, err)
	require.Len(t, conversation.Messages, 2)
	require.Len(t, conversation.Messages[1].ToolCalls, 1)
	assert.Equal(t, ToolSearchDatasets, conversation.Messages[1].ToolCalls[0].Name)
}

func TestHandleMessage_EntityRefsCarried(t *testing.T) {
	h := newHarness(t)
	dataset := h.registerDataset(t, "Retail Footfall", "Hourly store visit counts.", 9)

	h.chat().
		EnqueueToolCall("call_1", ToolGetDataset, fmt.Sprintf(`{"dataset_id":%d}`, dataset.Id)).
		EnqueueText("Here are the details.")

	result, err := h.orchestrator.HandleMessage(context.Background(), 0, 1, "tell me about dataset 1")
	require.NoError(t, err)

	require.Len(t, result.EntityRefs, 1)
	assert.Equal(t, core.EntityDataset, result.EntityRefs[0].Kind)
	assert.Equal(t, dataset.Id, result.EntityRefs[0].Id)
	assert.Equal(t, dataset.Title, result.EntityRefs[0].Label)

	// The next turn's system prompt carries the reference.
	var sawLabel bool
	h.chat().CompleteFunc = func(ctx context.Context, messages []ai.ChatMessage, tools []ai.ToolDefinition) (*ai.Completion, error) {
		require.NotEmpty(t, messages)
		require.Equal(t, ai.ChatRoleSystem, messages[0].Role)
		sawLabel = strings.Contains(messages[0].Content, dataset.Title)
		return &ai.Completion{Content: "It covers store visits."}, nil
	}

	result, err = h.orchestrator.HandleMessage(context.Background(), result.ConversationId, 1, "what does it cover?")
	require.NoError(t, err)
	assert.True(t, sawLabel)
	require.Len(t, result.EntityRefs, 1)
}

func TestHandleMessage_SubmitRequiresAffirmation(t *testing.T) {
	h := newHarness(t)
	dataset := h.registerDataset(t, "Weather Archive", "Historical weather observations.", 9)

	draft, err := h.machine.CreateDraft(context.Background(), 1, dataset.VendorId, dataset.Id, 0,
		core.Payload{Version: 1, Notes: "interested in a trial"})
	require.NoError(t, err)

	submitArgs := fmt.Sprintf(`{"inquiry_id":%d,"confirmed":true}`, draft.Id)

	t.Run("blocked without explicit confirmation", func(t *testing.T) {
		h.chat().
			EnqueueToolCall("call_1", ToolSubmitInquiry, submitArgs).
			EnqueueText("I still need your confirmation before sending it.")

		result, err := h.orchestrator.HandleMessage(context.Background(), 0, 1, "please send my inquiry to the vendor")
		require.NoError(t, err)

		require.Len(t, result.ToolCalls, 1)
		assert.True(t, result.ToolCalls[0].Failed)
		assert.Contains(t, result.ToolCalls[0].ResultText, "confirmation")

		current, err := h.machine.Get(context.Background(), draft.Id)
		require.NoError(t, err)
		assert.Equal(t, core.StatusDraft, current.Status)
	})

	t.Run("blocked when confirmed flag is false", func(t *testing.T) {
		h.chat().
			EnqueueToolCall("call_1", ToolSubmitInquiry, fmt.Sprintf(`{"inquiry_id":%d,"confirmed":false}`, draft.Id)).
			EnqueueText("Please confirm first.")

		result, err := h.orchestrator.HandleMessage(context.Background(), 0, 1, "yes")
		require.NoError(t, err)

		require.Len(t, result.ToolCalls, 1)
		assert.True(t, result.ToolCalls[0].Failed)

		current, err := h.machine.Get(context.Background(), draft.Id)
		require.NoError(t, err)
		assert.Equal(t, core.StatusDraft, current.Status)
	})

	t.Run("submits after the user says yes", func(t *testing.T) {
		h.chat().
			EnqueueToolCall("call_1", ToolSubmitInquiry, submitArgs).
			EnqueueText("Done, your inquiry is with the vendor.")

		result, err := h.orchestrator.HandleMessage(context.Background(), 0, 1, "yes")
		require.NoError(t, err)

		require.Len(t, result.ToolCalls, 1)
		assert.False(t, result.ToolCalls[0].Failed)

		current, err := h.machine.Get(context.Background(), draft.Id)
		require.NoError(t, err)
		assert.Equal(t, core.StatusSubmitted, current.Status)
	})
}

func TestHandleMessage_NoSameTurnSubmit(t *testing.T) {
	h := newHarness(t)
	dataset := h.registerDataset(t, "Shipping Manifests", "Container shipping manifests.", 9)

	// The first inquiry created gets ID 1 from the sequence.
	h.chat().
		EnqueueToolCall("call_1", ToolCreateInquiryDraft, fmt.Sprintf(`{"dataset_id":%d,"notes":"need API access"}`, dataset.Id)).
		EnqueueToolCall("call_2", ToolSubmitInquiry, `{"inquiry_id":1,"confirmed":true}`).
		EnqueueText("I drafted the inquiry but need your confirmation to send it.")

	result, err := h.orchestrator.HandleMessage(context.Background(), 0, 1, "yes")
	require.NoError(t, err)

	require.Len(t, result.ToolCalls, 2)
	assert.False(t, result.ToolCalls[0].Failed)
	assert.True(t, result.ToolCalls[1].Failed)

	current, err := h.machine.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, core.StatusDraft, current.Status)
}

func TestHandleMessage_DuplicateCallSuppressed(t *testing.T) {
	h := newHarness(t)
	h.registerDataset(t, "Air Quality Sensors", "PM2.5 readings from urban sensor networks.", 9)

	embedderCallsBefore := h.provider.GetMockEmbedder().CallCount()

	// Argument key order differs but the calls are identical.
	h.chat().
		EnqueueToolCall("call_1", ToolSearchDatasets, `{"query":"air quality","top_k":3}`).
		EnqueueToolCall("call_2", ToolSearchDatasets, `{"top_k":3,"query":"air quality"}`).
		EnqueueText("Here is what I found.")

	result, err := h.orchestrator.HandleMessage(context.Background(), 0, 1, "find air quality data")
	require.NoError(t, err)

	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, embedderCallsBefore+1, h.provider.GetMockEmbedder().CallCount())
}

func TestHandleMessage_FailedToolDoesNotAbortTurn(t *testing.T) {
	h := newHarness(t)

	t.Run("unknown tool", func(t *testing.T) {
		h.chat().
			EnqueueToolCall("call_1", "drop_all_tables", `{}`).
			EnqueueText("I can't do that.")

		result, err := h.orchestrator.HandleMessage(context.Background(), 0, 1, "do something weird")
		require.NoError(t, err)

		require.Len(t, result.ToolCalls, 1)
		assert.True(t, result.ToolCalls[0].Failed)
		assert.Contains(t, result.ToolCalls[0].ResultText, "unknown tool")
		assert.Equal(t, "I can't do that.", result.Reply)
	})

	t.Run("malformed arguments", func(t *testing.T) {
		h.chat().
			EnqueueToolCall("call_1", ToolSearchDatasets, `{"query":`).
			EnqueueText("Let me try that differently.")

		result, err := h.orchestrator.HandleMessage(context.Background(), 0, 1, "search for something")
		require.NoError(t, err)

		require.Len(t, result.ToolCalls, 1)
		assert.True(t, result.ToolCalls[0].Failed)
		assert.Contains(t, result.ToolCalls[0].ResultText, "invalid arguments")
	})

	t.Run("missing dataset", func(t *testing.T) {
		h.chat().
			EnqueueToolCall("call_1", ToolGetDataset, `{"dataset_id":999}`).
			EnqueueText("That dataset does not exist.")

		result, err := h.orchestrator.HandleMessage(context.Background(), 0, 1, "show me dataset 999")
		require.NoError(t, err)

		require.Len(t, result.ToolCalls, 1)
		assert.True(t, result.ToolCalls[0].Failed)
		assert.Contains(t, result.ToolCalls[0].ResultText, "does not exist")
	})
}

func TestHandleMessage_ToolPassLimit(t *testing.T) {
	h := newHarness(t, WithMaxToolPasses(2))
	h.registerDataset(t, "Energy Prices", "Spot electricity prices.", 9)

	calls := 0
	h.chat().CompleteFunc = func(ctx context.Context, messages []ai.ChatMessage, tools []ai.ToolDefinition) (*ai.Completion, error) {
		calls++
		if len(tools) > 0 {
			args, _ := json.Marshal(map[string]any{"query": "energy", "top_k": calls})
			return &ai.Completion{ToolCalls: []ai.ToolCall{{
				Id: fmt.Sprintf("call_%d", calls), Name: ToolSearchDatasets, Arguments: string(args),
			}}}, nil
		}
		return &ai.Completion{Content: "Here is a partial answer."}, nil
	}

	result, err := h.orchestrator.HandleMessage(context.Background(), 0, 1, "keep searching")
	require.NoError(t, err)

	// Two tool passes, then one tool-free completion for the final text.
	assert.Equal(t, 3, calls)
	assert.Equal(t, "Here is a partial answer.", result.Reply)
	assert.Len(t, result.ToolCalls, 2)
}

func TestHandleMessage_TranscriptReplay(t *testing.T) {
	h := newHarness(t)
	dataset := h.registerDataset(t, "Satellite Imagery", "Daily satellite captures.", 9)

	h.chat().
		EnqueueToolCall("call_1", ToolGetDataset, fmt.Sprintf(`{"dataset_id":%d}`, dataset.Id)).
		EnqueueText("Found it.")

	result, err := h.orchestrator.HandleMessage(context.Background(), 0, 1, "show me dataset 1")
	require.NoError(t, err)

	var replayed []ai.ChatMessage
	h.chat().CompleteFunc = func(ctx context.Context, messages []ai.ChatMessage, tools []ai.ToolDefinition) (*ai.Completion, error) {
		replayed = messages
		return &ai.Completion{Content: "As I said, it is daily imagery."}, nil
	}

	_, err = h.orchestrator.HandleMessage(context.Background(), result.ConversationId, 1, "remind me what that was")
	require.NoError(t, err)

	// system, user, assistant tool request, tool result, assistant text, new user message
	require.Len(t, replayed, 6)
	assert.Equal(t, ai.ChatRoleAssistant, replayed[2].Role)
	require.Len(t, replayed[2].ToolCalls, 1)
	assert.Equal(t, ToolGetDataset, replayed[2].ToolCalls[0].Name)
	assert.Equal(t, ai.ChatRoleTool, replayed[3].Role)
	assert.Equal(t, replayed[2].ToolCalls[0].Id, replayed[3].ToolCallId)
	assert.Contains(t, replayed[3].Content, dataset.Title)
}
