package mock

import (
	"context"
	"sync"

	"github.com/agoradata/agora/ai"
)

// MockChatModel is a test double for ai.ChatModel.
// Responses can be scripted in advance with Enqueue, or fully overridden
// via the CompleteFunc field.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	// If nil, scripted responses are consumed in order.
	CompleteFunc func(ctx context.Context, messages []ai.ChatMessage, tools []ai.ToolDefinition) (*ai.Completion, error)

	mu        sync.Mutex
	scripted  []*ai.Completion
	callCount int
}

// NewMockChatModel creates a mock chat model.
// Note: Returns concrete type to allow test assertions via GetMockChatModel().
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Enqueue appends a scripted completion. Scripted completions are
// returned by Complete in FIFO order.
func (m *MockChatModel) Enqueue(completion *ai.Completion) *MockChatModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted = append(m.scripted, completion)
	return m
}

// EnqueueText appends a scripted text-only completion.
func (m *MockChatModel) EnqueueText(content string) *MockChatModel {
	return m.Enqueue(&ai.Completion{Content: content})
}

// EnqueueToolCall appends a scripted completion requesting a single tool call.
func (m *MockChatModel) EnqueueToolCall(id, name, arguments string) *MockChatModel {
	return m.Enqueue(&ai.Completion{
		ToolCalls: []ai.ToolCall{{Id: id, Name: name, Arguments: arguments}},
	})
}

// Complete returns the next scripted completion, or a canned text reply
// when the script is exhausted.
func (m *MockChatModel) Complete(ctx context.Context, messages []ai.ChatMessage, tools []ai.ToolDefinition) (*ai.Completion, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.CompleteFunc
	var next *ai.Completion
	if fn == nil && len(m.scripted) > 0 {
		next = m.scripted[0]
		m.scripted = m.scripted[1:]
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages, tools)
	}
	if next != nil {
		return next, nil
	}
	return &ai.Completion{Content: "OK"}, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the script, the call count, and injected behavior.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted = nil
	m.callCount = 0
	m.CompleteFunc = nil
}
