package builtin

import (
	"context"
	"fmt"
	"strings"

	"spaceblack/internal/tools"
	"spaceblack/internal/vault"
)

// GetSecretTool returns the secret retrieval tool.
func GetSecretTool(v *vault.Vault) *tools.Tool {
	return &tools.Tool{
		Name:        "get_secret",
		Description: "Retrieve a stored secret from the vault by key.",
		Category:    tools.CategoryVault,
		Schema: tools.ToolSchema{
			Required: []string{"key"},
			Properties: map[string]tools.Property{
				"key": {
					Type:        "string",
					Description: "Secret key name",
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			key := tools.StringArg(args, "key", "")
			value, err := v.Get(key)
			if err != nil {
				return "", err
			}
			return value, nil
		},
	}
}

// SetSecretTool returns the secret storage tool.
func SetSecretTool(v *vault.Vault) *tools.Tool {
	return &tools.Tool{
		Name:        "set_secret",
		Description: "Store a secret in the vault. Use for API keys, tokens, and credentials the user shares.",
		Category:    tools.CategoryVault,
		Schema: tools.ToolSchema{
			Required: []string{"key", "value"},
			Properties: map[string]tools.Property{
				"key": {
					Type:        "string",
					Description: "Secret key name",
				},
				"value": {
					Type:        "string",
					Description: "Secret value",
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			key := tools.StringArg(args, "key", "")
			value := tools.StringArg(args, "value", "")
			if err := v.Set(key, value); err != nil {
				return "", err
			}
			return fmt.Sprintf("Secret %q stored.", key), nil
		},
	}
}

// ListSecretsTool returns the secret listing tool. Only key names are
// ever returned; values stay in the vault.
func ListSecretsTool(v *vault.Vault) *tools.Tool {
	return &tools.Tool{
		Name:        "list_secrets",
		Description: "List the names of stored secrets. Values are never shown.",
		Category:    tools.CategoryVault,
		Schema:      tools.ToolSchema{},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			keys, err := v.List()
			if err != nil {
				return "", err
			}
			if len(keys) == 0 {
				return "The vault is empty.", nil
			}
			return strings.Join(keys, "\n"), nil
		},
	}
}
