package skills

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"spaceblack/internal/config"
	"spaceblack/internal/tools"
)

// telegramAPIBase is a var so tests can point it at a local server.
var telegramAPIBase = "https://api.telegram.org"

var telegramClient = &http.Client{Timeout: 30 * time.Second}

// TelegramSendTool returns the Telegram notification tool. The chat id
// comes from the skill config so the model only supplies the text.
func TelegramSendTool(cfg *config.Config) *tools.Tool {
	return &tools.Tool{
		Name:        "telegram_send_message",
		Description: "Send a message to the user's Telegram via the configured bot.",
		Category:    tools.CategorySkill,
		Schema: tools.ToolSchema{
			Required: []string{"text"},
			Properties: map[string]tools.Property{
				"text": {Type: "string", Description: "Message text to send"},
				"chat_id": {
					Type:        "string",
					Description: "Override target chat id (defaults to the configured one)",
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			token := credential(cfg, "telegram", "bot_token", "TELEGRAM_BOT_TOKEN")
			if token == "" {
				return "", fmt.Errorf("missing Telegram bot token: configure the telegram skill or set TELEGRAM_BOT_TOKEN")
			}
			chatID := tools.StringArg(args, "chat_id", "")
			if chatID == "" {
				if sc, ok := cfg.Skills["telegram"]; ok {
					chatID = sc.ChatID
				}
			}
			if chatID == "" {
				return "", fmt.Errorf("no Telegram chat id configured; set chat_id in the telegram skill settings")
			}
			text := tools.StringArg(args, "text", "")
			return sendTelegramMessage(ctx, token, chatID, text)
		},
	}
}

func sendTelegramMessage(ctx context.Context, token, chatID, text string) (string, error) {
	payload, err := json.Marshal(map[string]string{"chat_id": chatID, "text": text})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", telegramAPIBase, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := telegramClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("telegram api: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(body, &result); err != nil || !result.OK {
		if result.Description != "" {
			return "", fmt.Errorf("telegram api: %s", result.Description)
		}
		return "", fmt.Errorf("telegram api: status %d", resp.StatusCode)
	}
	return "Message sent.", nil
}
