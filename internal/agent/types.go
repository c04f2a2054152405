package agent

import "context"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model request to run one tool. Arguments is the raw JSON
// object produced by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one entry of the conversation. ToolCalls is only set on
// assistant messages, ToolCallID only on tool messages.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolSpec declares a tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Model produces the next assistant message for a conversation.
type Model interface {
	Complete(ctx context.Context, messages []Message, tools []ToolSpec) (Message, error)
}

// ToolExecutor runs one tool call on behalf of userID and returns its raw
// result. A nil result means the tool produced no output.
type ToolExecutor interface {
	Execute(ctx context.Context, userID string, call ToolCall) (any, error)
}

// ToolCatalog resolves tool names to their declarations.
type ToolCatalog interface {
	Tools(ctx context.Context, names []string) ([]ToolSpec, error)
}

// ConnectionChecker reports whether the operator has an active Gmail
// connection. Implementations treat provider errors as "not connected".
type ConnectionChecker interface {
	CheckConnected(ctx context.Context) bool
}
