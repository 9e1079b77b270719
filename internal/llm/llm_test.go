package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient("nonexistent", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNewClientMissingKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	_, err := NewClient("google", "gemini-2.5-flash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY")
}

func TestNewClientOllamaNeedsNoKey(t *testing.T) {
	client, err := NewClient("ollama", "")
	require.NoError(t, err)
	assert.Equal(t, "llama3.2", client.Model())
}

func TestNewClientDefaultsModel(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	client, err := NewClient("anthropic", "")
	require.NoError(t, err)
	assert.Equal(t, "claude-3-7-sonnet-latest", client.Model())
}

func TestOpenAIChatToolCalls(t *testing.T) {
	var captured openAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "run_shell", "arguments": "{\"command\":\"ls\"}"}
					}]
				},
				"finish_reason": "tool_calls"
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClientWithConfig(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o",
		Timeout: 5 * time.Second,
	})

	resp, err := client.Chat(context.Background(), "be helpful",
		[]Message{{Role: RoleUser, Content: "list files"}},
		[]ToolDefinition{{Name: "run_shell", Description: "runs a command", InputSchema: map[string]any{"type": "object"}}})
	require.NoError(t, err)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	require.Len(t, captured.Tools, 1)
	assert.Equal(t, "run_shell", captured.Tools[0].Function.Name)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "run_shell", resp.ToolCalls[0].Name)
	assert.Equal(t, "ls", resp.ToolCalls[0].Input["command"])
	assert.Equal(t, "tool_calls", resp.StopReason)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestOpenAIChatToolResultRoundTrip(t *testing.T) {
	var captured openAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "done"}, "finish_reason": "stop"}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClientWithConfig(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o",
		Timeout: 5 * time.Second,
	})

	history := []Message{
		{Role: RoleUser, Content: "list files"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Name: "run_shell", Input: map[string]any{"command": "ls"}}}},
		{Role: RoleTool, ToolResults: []ToolResult{{ToolCallID: "call_1", Name: "run_shell", Content: "a.txt"}}},
	}
	resp, err := client.Chat(context.Background(), "", history, nil)
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Text)

	require.Len(t, captured.Messages, 3)
	assert.Equal(t, "assistant", captured.Messages[1].Role)
	require.Len(t, captured.Messages[1].ToolCalls, 1)
	assert.JSONEq(t, `{"command":"ls"}`, captured.Messages[1].ToolCalls[0].Function.Arguments)
	assert.Equal(t, "tool", captured.Messages[2].Role)
	assert.Equal(t, "call_1", captured.Messages[2].ToolCallID)
	assert.Equal(t, "a.txt", captured.Messages[2].Content)
}

func TestAnthropicChatParsesBlocks(t *testing.T) {
	var captured anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"content": [
				{"type": "text", "text": "Checking."},
				{"type": "tool_use", "id": "toolu_1", "name": "web_search", "input": {"query": "weather"}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 20, "output_tokens": 8}
		}`))
	}))
	defer server.Close()

	client := NewAnthropicClientWithConfig(AnthropicConfig{
		APIKey:  "test-key",
		Model:   "claude-3-7-sonnet-latest",
		Timeout: 5 * time.Second,
	})
	// Point the request at the test server.
	client.httpClient = server.Client()
	client.httpClient.Transport = rewriteTransport{base: http.DefaultTransport, target: server.URL}

	resp, err := client.Chat(context.Background(), "sys",
		[]Message{{Role: RoleUser, Content: "weather?"}},
		[]ToolDefinition{{Name: "web_search", InputSchema: nil}})
	require.NoError(t, err)

	assert.Equal(t, "sys", captured.System)
	require.Len(t, captured.Tools, 1)
	// A nil schema must still serialize as a valid object schema.
	assert.Equal(t, map[string]any{"type": "object"}, captured.Tools[0].InputSchema)

	assert.Equal(t, "Checking.", resp.Text)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "weather", resp.ToolCalls[0].Input["query"])
	assert.Equal(t, 28, resp.Usage.TotalTokens)
}

func TestOpenAIRetriesOn429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "ok"}, "finish_reason": "stop"}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClientWithConfig(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o",
		Timeout: 5 * time.Second,
	})
	resp, err := client.Chat(context.Background(), "", []Message{{Role: RoleUser, Content: "hi"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 2, calls)
}

// rewriteTransport redirects all requests to a fixed test server.
type rewriteTransport struct {
	base   http.RoundTripper
	target string
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	redirected, err := http.NewRequestWithContext(req.Context(), req.Method, t.target+req.URL.Path, req.Body)
	if err != nil {
		return nil, err
	}
	redirected.Header = req.Header
	return t.base.RoundTrip(redirected)
}
