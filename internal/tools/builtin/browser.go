package builtin

import (
	"context"
	"fmt"
	"strings"

	"spaceblack/internal/browser"
	"spaceblack/internal/tools"
)

// browserActions the dispatch tool understands. Kept in one place so
// the description and the switch cannot drift apart.
var browserActions = []string{
	"navigate", "snapshot", "click", "fill", "type", "hover",
	"select_option", "press", "back", "get_text", "close",
}

func browserActionEnum() []any {
	enum := make([]any, len(browserActions))
	for i, a := range browserActions {
		enum[i] = a
	}
	return enum
}

// BrowserActTool returns the single browser dispatch tool. One tool
// instead of eleven keeps the tool list small for models that degrade
// with large schemas; the action argument selects the operation.
func BrowserActTool(session *browser.Session) *tools.Tool {
	return &tools.Tool{
		Name: "browser_act",
		Description: "Control a real browser. Actions: navigate (url), snapshot, " +
			"click/hover (ref), fill/type (ref, text), select_option (ref, text=option label), " +
			"press (key, e.g. Enter), back, get_text (readable page text), close. " +
			"Refs come from the numbered snapshot; take a fresh snapshot after the page changes.",
		Category: tools.CategoryBrowser,
		Schema: tools.ToolSchema{
			Required: []string{"action"},
			Properties: map[string]tools.Property{
				"action": {
					Type:        "string",
					Description: "One of: " + strings.Join(browserActions, ", "),
					Enum:        browserActionEnum(),
				},
				"url": {
					Type:        "string",
					Description: "Target URL (navigate only)",
				},
				"ref": {
					Type:        "integer",
					Description: "Element ref from the latest snapshot",
				},
				"text": {
					Type:        "string",
					Description: "Text to fill/type, or option label for select_option",
				},
				"key": {
					Type:        "string",
					Description: "Key name for press (Enter, Tab, Escape, ArrowDown, ...)",
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return dispatchBrowserAction(ctx, session, args)
		},
	}
}

func dispatchBrowserAction(ctx context.Context, session *browser.Session, args map[string]any) (string, error) {
	action := strings.ToLower(tools.StringArg(args, "action", ""))
	ref := tools.IntArg(args, "ref", -1)
	text := tools.StringArg(args, "text", "")

	// Actions that change page state get a fresh snapshot appended so
	// the model sees the result without a second round trip.
	switch action {
	case "navigate":
		url := tools.StringArg(args, "url", "")
		if url == "" {
			return "", fmt.Errorf("navigate needs a url")
		}
		if err := session.Navigate(ctx, url); err != nil {
			return "", err
		}
		return withSnapshot(ctx, session, fmt.Sprintf("Navigated to %s.", url))

	case "snapshot":
		snap, err := session.Snapshot(ctx)
		if err != nil {
			return "", err
		}
		return snap.Outline(), nil

	case "click":
		if err := session.Click(ctx, ref); err != nil {
			return "", err
		}
		return withSnapshot(ctx, session, fmt.Sprintf("Clicked [%d].", ref))

	case "fill":
		if err := session.Fill(ctx, ref, text); err != nil {
			return "", err
		}
		return fmt.Sprintf("Filled [%d].", ref), nil

	case "type":
		if err := session.Type(ctx, ref, text); err != nil {
			return "", err
		}
		return fmt.Sprintf("Typed into [%d].", ref), nil

	case "hover":
		if err := session.Hover(ctx, ref); err != nil {
			return "", err
		}
		return fmt.Sprintf("Hovering over [%d].", ref), nil

	case "select_option":
		if text == "" {
			return "", fmt.Errorf("select_option needs the option label in text")
		}
		if err := session.SelectOption(ctx, ref, text); err != nil {
			return "", err
		}
		return withSnapshot(ctx, session, fmt.Sprintf("Selected %q in [%d].", text, ref))

	case "press":
		key := tools.StringArg(args, "key", "")
		if key == "" {
			return "", fmt.Errorf("press needs a key name")
		}
		if err := session.PressKey(ctx, key); err != nil {
			return "", err
		}
		return withSnapshot(ctx, session, fmt.Sprintf("Pressed %s.", key))

	case "back":
		if err := session.Back(ctx); err != nil {
			return "", err
		}
		return withSnapshot(ctx, session, "Went back.")

	case "get_text":
		return session.Text(ctx)

	case "close":
		if !session.IsOpen() {
			return "Browser was not open.", nil
		}
		if err := session.Shutdown(); err != nil {
			return "", err
		}
		return "Browser closed.", nil

	default:
		return "", fmt.Errorf("unknown browser action %q", action)
	}
}

// withSnapshot appends a fresh outline to an action result. Snapshot
// failures degrade to the bare message; the action itself succeeded.
func withSnapshot(ctx context.Context, session *browser.Session, message string) (string, error) {
	snap, err := session.Snapshot(ctx)
	if err != nil {
		return message, nil
	}
	return message + "\n\n" + snap.Outline(), nil
}
