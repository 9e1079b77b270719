// Package llm provides the chat-completion clients for every supported
// provider. Three wire protocols cover the whole registry: Gemini's
// generateContent API, the OpenAI chat/completions dialect (also spoken
// by Groq, Mistral, Ollama and xAI), and Anthropic's messages API.
package llm

import "context"

// Roles used in conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn of a conversation in provider-neutral form.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// ToolCalls is set on assistant messages that requested tools.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolResults is set on tool messages carrying execution output.
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ToolDefinition describes a tool the model may invoke.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"` // JSON Schema for parameters
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// ToolResult is the outcome of executing one requested tool call.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

// Usage captures token accounting from a response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Response is a provider-neutral completion result.
type Response struct {
	Text       string     `json:"text"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	StopReason string     `json:"stop_reason,omitempty"`
	Usage      Usage      `json:"usage"`
}

// Client is the interface every provider implements.
type Client interface {
	// Complete sends a bare prompt and returns the text completion.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteWithSystem sends a prompt under a system instruction.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Chat runs one model turn over a full conversation with tool
	// definitions attached. Tool results from earlier turns ride along
	// in the message history.
	Chat(ctx context.Context, systemPrompt string, messages []Message, tools []ToolDefinition) (*Response, error)

	// Model returns the active model identifier.
	Model() string

	// SetModel switches the model used for subsequent calls.
	SetModel(model string)
}
