package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"spaceblack/internal/logging"
)

// OpenAIClient implements Client for the OpenAI chat/completions dialect.
// Groq, Mistral, Ollama and xAI all speak the same protocol; only the
// base URL and key differ.
type OpenAIClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
}

// OpenAIConfig holds configuration for an OpenAI-compatible client.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
		Timeout: 120 * time.Second,
	}
}

// NewOpenAIClient creates a client with default config.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return NewOpenAIClientWithConfig(DefaultOpenAIConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a client with custom config.
func NewOpenAIClientWithConfig(config OpenAIConfig) *OpenAIClient {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIClient{
		apiKey:      config.APIKey,
		baseURL:     baseURL,
		model:       config.Model,
		temperature: config.Temperature,
		httpClient:  &http.Client{Timeout: config.Timeout},
	}
}

// OpenAI wire types.

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []openAITool    `json:"tools,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends a bare prompt.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt under a system message.
func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.Chat(ctx, systemPrompt, []Message{{Role: RoleUser, Content: userPrompt}}, nil)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Chat runs one model turn over the conversation.
func (c *OpenAIClient) Chat(ctx context.Context, systemPrompt string, messages []Message, tools []ToolDefinition) (*Response, error) {
	if c.apiKey == "" && !strings.Contains(c.baseURL, "localhost") {
		return nil, fmt.Errorf("openai: API key not configured")
	}

	wireMessages := make([]openAIMessage, 0, len(messages)+1)
	if systemPrompt != "" {
		wireMessages = append(wireMessages, openAIMessage{Role: "system", Content: systemPrompt})
	}
	for _, m := range messages {
		switch m.Role {
		case RoleAssistant:
			wm := openAIMessage{Role: "assistant", Content: m.Content}
			for _, tc := range m.ToolCalls {
				args, err := json.Marshal(tc.Input)
				if err != nil {
					return nil, fmt.Errorf("openai: marshal tool args: %w", err)
				}
				call := openAIToolCall{ID: tc.ID, Type: "function"}
				call.Function.Name = tc.Name
				call.Function.Arguments = string(args)
				wm.ToolCalls = append(wm.ToolCalls, call)
			}
			wireMessages = append(wireMessages, wm)
		case RoleTool:
			for _, tr := range m.ToolResults {
				wireMessages = append(wireMessages, openAIMessage{
					Role:       "tool",
					Content:    tr.Content,
					ToolCallID: tr.ToolCallID,
				})
			}
		default:
			wireMessages = append(wireMessages, openAIMessage{Role: "user", Content: m.Content})
		}
	}

	req := openAIRequest{
		Model:       c.model,
		Messages:    wireMessages,
		MaxTokens:   4096,
		Temperature: c.temperature,
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, openAITool{
			Type: "function",
			Function: openAIFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	var or openAIResponse
	if err := doWithRetry(ctx, c.httpClient, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		return httpReq, nil
	}, &or); err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	if or.Error != nil {
		return nil, fmt.Errorf("openai: API error: %s", or.Error.Message)
	}
	if len(or.Choices) == 0 {
		return nil, fmt.Errorf("openai: no completion returned")
	}

	choice := or.Choices[0]
	out := &Response{
		Text:       strings.TrimSpace(choice.Message.Content),
		StopReason: choice.FinishReason,
		Usage: Usage{
			InputTokens:  or.Usage.PromptTokens,
			OutputTokens: or.Usage.CompletionTokens,
			TotalTokens:  or.Usage.TotalTokens,
		},
	}
	for _, call := range choice.Message.ToolCalls {
		if call.Type != "function" {
			continue
		}
		var args map[string]any
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return nil, fmt.Errorf("openai: unmarshal arguments for %s: %w", call.Function.Name, err)
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:    call.ID,
			Name:  call.Function.Name,
			Input: args,
		})
	}
	logging.API("[OpenAI] model=%s tool_calls=%d tokens=%d", c.model, len(out.ToolCalls), out.Usage.TotalTokens)
	return out, nil
}

// Model returns the active model.
func (c *OpenAIClient) Model() string { return c.model }

// SetModel switches the model.
func (c *OpenAIClient) SetModel(model string) { c.model = model }
