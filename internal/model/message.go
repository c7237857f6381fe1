package model

type MessageRole string

const (
	MessageRoleUser       = MessageRole("user")
	MessageRoleAssistant  = MessageRole("assistant")
	MessageRoleToolResult = MessageRole("tool_result")
)

// ToolUse is a model request to invoke a named action with the given input.
type ToolUse struct {
	ID    string
	Name  string
	Input map[string]any
}

// ToolResult answers a ToolUse with the same call id. Content is either the
// action output or an {"error": ...} payload.
type ToolResult struct {
	ToolUseID string
	Content   string
}

// Message is one entry of a conversation transcript. Exactly one variant is
// populated per role: user messages carry Text, assistant messages carry
// Text and/or ToolUse, tool-result messages carry ToolResult.
type Message struct {
	Role       MessageRole
	Text       string
	ToolUse    *ToolUse
	ToolResult *ToolResult
}

// Reply is a single model response: an optional text segment and an optional
// tool-use segment.
type Reply struct {
	Text    string
	ToolUse *ToolUse
}
