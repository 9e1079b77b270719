// Package tools provides the modular tool layer the agent dispatches
// through. Each tool is standalone, registered in a Registry, and
// exposed to the model as a function declaration.
package tools

import (
	"context"

	"spaceblack/internal/llm"
)

// ToolCategory classifies tools for filtering and display.
type ToolCategory string

const (
	// CategoryMemory covers memory logging, profile and soul updates.
	CategoryMemory ToolCategory = "memory"

	// CategorySystem covers shell execution and file operations.
	CategorySystem ToolCategory = "system"

	// CategoryWeb covers web search.
	CategoryWeb ToolCategory = "web"

	// CategoryBrowser covers semantic browser automation.
	CategoryBrowser ToolCategory = "browser"

	// CategorySchedule covers task scheduling.
	CategorySchedule ToolCategory = "schedule"

	// CategoryVault covers the secrets vault.
	CategoryVault ToolCategory = "vault"

	// CategorySkill covers installable skill integrations.
	CategorySkill ToolCategory = "skill"

	// CategoryGeneral is for tools that fit nowhere else.
	CategoryGeneral ToolCategory = "general"
)

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	// Items describes array element schema (required for type="array")
	Items *PropertyItems `json:"items,omitempty"`
}

// PropertyItems describes the schema for array elements.
type PropertyItems struct {
	Type string `json:"type"`
}

// ToolSchema defines the JSON schema for tool arguments.
type ToolSchema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// ExecuteFunc is the signature for tool execution.
// Returns the result string and any error.
type ExecuteFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool defines a modular tool the agent can invoke.
type Tool struct {
	// Name is the unique identifier for the tool.
	Name string

	// Description explains what the tool does.
	// Used for model tool calling and documentation.
	Description string

	// Category classifies the tool.
	Category ToolCategory

	// Execute runs the tool with the given arguments.
	Execute ExecuteFunc

	// Schema defines the expected arguments.
	Schema ToolSchema
}

// Validate checks if the tool definition is valid.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// Definition converts the tool into the function declaration the model
// layer sends on the wire.
func (t *Tool) Definition() llm.ToolDefinition {
	props := make(map[string]any, len(t.Schema.Properties))
	for name, p := range t.Schema.Properties {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Items != nil {
			prop["items"] = map[string]any{"type": p.Items.Type}
		}
		props[name] = prop
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(t.Schema.Required) > 0 {
		schema["required"] = t.Schema.Required
	}
	return llm.ToolDefinition{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: schema,
	}
}

// ToolResult wraps the result of tool execution with metadata.
type ToolResult struct {
	// ToolName identifies which tool was executed.
	ToolName string

	// Result is the string output from the tool.
	Result string

	// Error is set if the tool failed.
	Error error

	// DurationMs is how long execution took.
	DurationMs int64
}

// IsSuccess returns true if the tool executed without error.
func (r *ToolResult) IsSuccess() bool {
	return r.Error == nil
}
