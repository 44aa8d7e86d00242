package ai

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleTool      ChatRole = "tool"
)

// ChatMessage is a single turn in a model conversation.
type ChatMessage struct {
	// Role identifies the message author.
	Role ChatRole

	// Content is the text body. May be empty for assistant turns that
	// only request tool calls.
	Content string

	// ToolCalls holds the tool call requests made by an assistant turn.
	ToolCalls []ToolCall

	// ToolCallId links a tool-role message to the assistant request it
	// answers. Set only when Role is ChatRoleTool.
	ToolCallId string

	// ToolName names the tool that produced a tool-role message.
	ToolName string
}

// ToolCall is a model's request to invoke a named tool.
type ToolCall struct {
	// Id is the provider-assigned identifier for this call.
	Id string

	// Name is the tool to invoke.
	Name string

	// Arguments is the raw JSON argument payload.
	Arguments string
}

// ToolDefinition describes a tool the model may call.
type ToolDefinition struct {
	// Name is the tool identifier exposed to the model.
	Name string

	// Description tells the model when to use the tool.
	Description string

	// Parameters is a JSON Schema object describing the arguments.
	Parameters map[string]any
}

// Completion is the result of a single chat completion request.
type Completion struct {
	// Content is the assistant's text reply. May be empty when the
	// model only requests tool calls.
	Content string

	// ToolCalls holds the tool call requests, in model order.
	ToolCalls []ToolCall
}
