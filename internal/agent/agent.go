// Package agent runs the conversation loop: model turn, tool
// execution, results fed back, until the model answers in plain text.
package agent

import (
	"context"
	"fmt"
	"sync"

	"spaceblack/internal/brain"
	"spaceblack/internal/llm"
	"spaceblack/internal/logging"
	"spaceblack/internal/tools"
)

// maxIterations bounds a single Process call. Eight model turns is
// plenty for any real task; past that the model is usually looping.
const maxIterations = 8

// maxHistoryMessages caps the retained conversation. Older turns fall
// off the front; long-term state lives in the brain files, not here.
const maxHistoryMessages = 40

// Agent owns the conversation state and drives the tool loop.
type Agent struct {
	client   llm.Client
	registry *tools.Registry
	paths    brain.Paths

	mu          sync.Mutex
	history     []llm.Message
	promptExtra string
}

// New builds an agent over a client, a tool registry and a brain.
func New(client llm.Client, registry *tools.Registry, paths brain.Paths) *Agent {
	return &Agent{
		client:   client,
		registry: registry,
		paths:    paths,
	}
}

// Client returns the underlying LLM client.
func (a *Agent) Client() llm.Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client
}

// SetClient swaps the LLM client, e.g. after a provider change in the
// config wizard. The conversation history carries over.
func (a *Agent) SetClient(client llm.Client) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.client = client
}

// SetPromptExtra appends extra context to every system prompt, such as
// the skill availability summary.
func (a *Agent) SetPromptExtra(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.promptExtra = text
}

// Process runs one user turn to completion: the model may request
// tools across several iterations; the final plain-text answer is
// returned. Tool failures go back to the model as error results so it
// can recover or report them.
func (a *Agent) Process(ctx context.Context, input string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	logging.Agent("Processing input: %d chars", len(input))
	systemPrompt := brain.BuildSystemPrompt(a.paths)
	if a.promptExtra != "" {
		systemPrompt += "\n\n[SKILLS]\n" + a.promptExtra
	}
	defs := a.registry.Definitions()

	// Everything appended during this turn is rolled back on failure,
	// so the history never ends in an unanswered tool request.
	mark := len(a.history)
	a.history = append(a.history, llm.Message{Role: llm.RoleUser, Content: input})

	for iteration := 0; iteration < maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			a.history = a.history[:mark]
			return "", err
		}

		resp, err := a.client.Chat(ctx, systemPrompt, a.history, defs)
		if err != nil {
			a.history = a.history[:mark]
			return "", fmt.Errorf("model turn: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			a.history = append(a.history, llm.Message{Role: llm.RoleAssistant, Content: resp.Text})
			a.trimHistory()
			logging.Agent("Turn complete after %d iteration(s)", iteration+1)
			return resp.Text, nil
		}

		a.history = append(a.history, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})

		results := make([]llm.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			results = append(results, a.runToolCall(ctx, call))
		}
		a.history = append(a.history, llm.Message{Role: llm.RoleTool, ToolResults: results})
	}

	a.history = a.history[:mark]
	return "", fmt.Errorf("no answer after %d tool iterations", maxIterations)
}

// runToolCall executes one requested call. Errors become model-visible
// results rather than aborting the turn.
func (a *Agent) runToolCall(ctx context.Context, call llm.ToolCall) llm.ToolResult {
	result, err := a.registry.Execute(ctx, call.Name, call.Input)
	if err != nil {
		logging.Get(logging.CategoryAgent).Warn("Tool %s failed: %v", call.Name, err)
		return llm.ToolResult{
			ToolCallID: call.ID,
			Name:       call.Name,
			Content:    fmt.Sprintf("Error: %v", err),
			IsError:    true,
		}
	}
	return llm.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
		Content:    result.Result,
	}
}

// trimHistory drops the oldest messages past the cap, never splitting
// an assistant tool request from its results.
func (a *Agent) trimHistory() {
	if len(a.history) <= maxHistoryMessages {
		return
	}
	cut := len(a.history) - maxHistoryMessages
	// Never start the window on a tool-result message.
	for cut < len(a.history) && a.history[cut].Role == llm.RoleTool {
		cut++
	}
	a.history = a.history[cut:]
}

// ClearHistory resets the conversation.
func (a *Agent) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

// History returns a copy of the conversation so far.
func (a *Agent) History() []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]llm.Message, len(a.history))
	copy(out, a.history)
	return out
}
