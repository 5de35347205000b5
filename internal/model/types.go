// Package model provides types for model backend operations.
package model

// Role is the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a provider-neutral conversation message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolCalls are set on assistant messages that request tool execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID and ToolName are set on tool result messages.
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
	IsError    bool   `json:"is_error,omitempty"`

	// Audio is an optional raw audio payload for multimodal backends.
	Audio *Audio `json:"-"`
}

// Audio is a raw audio attachment.
type Audio struct {
	Format string // e.g. "wav"
	Data   []byte
}

// Request represents a model inference request.
type Request struct {
	Messages    []Message `json:"messages"`
	Tools       []Tool    `json:"tools,omitempty"` // Tools for function calling
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

// Response represents a model inference response.
type Response struct {
	Text       string     `json:"text"`
	TokensUsed int        `json:"tokens_used"`
	Model      string     `json:"model"`
	DurationMs int64      `json:"duration_ms"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"` // Tool calls from model
}

// Tool represents a tool definition for function calling.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ToolCall represents a tool call requested by the model.
type ToolCall struct {
	ID    string                 `json:"id"`
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input"`
}

// NewSystemMessage returns a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage returns a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage returns an assistant message carrying the tool calls it requested.
func NewAssistantMessage(content string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// NewToolResultMessage returns the result of executing call.
func NewToolResultMessage(call ToolCall, output string, isError bool) Message {
	return Message{
		Role:       RoleTool,
		Content:    output,
		ToolCallID: call.ID,
		ToolName:   call.Name,
		IsError:    isError,
	}
}

// HasAudio reports whether any message carries an audio attachment.
func (r *Request) HasAudio() bool {
	for _, m := range r.Messages {
		if m.Audio != nil {
			return true
		}
	}
	return false
}
