package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"spaceblack/internal/brain"
	"spaceblack/internal/config"
	"spaceblack/internal/llm"
)

const verifyTimeout = 15 * time.Second

// RunOnboarding walks a new user through provider, API key, model and
// search setup on plain stdin/stdout, then writes config.json and .env
// under the workspace. It runs before the TUI ever starts.
func RunOnboarding(workspace string) error {
	return runOnboarding(workspace, os.Stdin, os.Stdout, verifyKey)
}

// verifyFunc makes a minimal live call to prove a key works.
type verifyFunc func(providerID, model string) error

func runOnboarding(workspace string, in io.Reader, out io.Writer, verify verifyFunc) error {
	reader := bufio.NewReader(in)
	ask := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Fprintln(out, "Welcome. Let's wake up your ghost.")
	fmt.Fprintln(out)

	provider, err := askProvider(ask, out)
	if err != nil {
		return err
	}

	cfg := config.Default()
	cfg.Provider = provider.ID
	envPath := config.EnvPath(workspace)

	if provider.EnvVar != "" {
		if err := askAPIKey(ask, out, provider, envPath); err != nil {
			return err
		}
	}

	model, err := askModel(ask, out, provider)
	if err != nil {
		return err
	}
	cfg.Model = model

	if provider.EnvVar != "" {
		if err := confirmKeyWorks(ask, out, provider, model, verify); err != nil {
			return err
		}
	}

	braveKey, err := ask("Brave Search API key (empty to use DuckDuckGo): ")
	if err != nil {
		return err
	}
	if braveKey != "" {
		if err := config.SetEnvValue(envPath, "BRAVE_API_KEY", braveKey); err != nil {
			return fmt.Errorf("save Brave key: %w", err)
		}
		cfg.SearchProvider = "brave"
	} else {
		cfg.SearchProvider = "duckduckgo"
	}

	if err := cfg.Save(config.Path(workspace)); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if err := brain.EnsureInitialized(brain.NewPaths(workspace)); err != nil {
		return fmt.Errorf("initialize brain: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Done. %s is ready on %s.\n", provider.Name, model)
	return nil
}

func askProvider(ask func(string) (string, error), out io.Writer) (config.ProviderInfo, error) {
	providers := config.Providers()
	fmt.Fprintln(out, "Providers:")
	for i, p := range providers {
		fmt.Fprintf(out, "  %d. %s\n", i+1, p.Name)
	}
	for {
		answer, err := ask("Provider [1]: ")
		if err != nil {
			return config.ProviderInfo{}, err
		}
		if answer == "" {
			return providers[0], nil
		}
		if id := resolveProviderChoice(answer); id != "" {
			p, _ := config.LookupProvider(id)
			return p, nil
		}
		fmt.Fprintf(out, "Unknown provider %q, try again.\n", answer)
	}
}

func askAPIKey(ask func(string) (string, error), out io.Writer, provider config.ProviderInfo, envPath string) error {
	for {
		key, err := ask(fmt.Sprintf("%s (%s): ", provider.Name, provider.EnvVar))
		if err != nil {
			return err
		}
		if key == "" {
			if os.Getenv(provider.EnvVar) != "" {
				fmt.Fprintf(out, "Using %s from the environment.\n", provider.EnvVar)
				return nil
			}
			fmt.Fprintln(out, "An API key is required for this provider.")
			continue
		}
		// SetEnvValue also exports to the process so verification sees it.
		if err := config.SetEnvValue(envPath, provider.EnvVar, key); err != nil {
			return fmt.Errorf("save API key: %w", err)
		}
		return nil
	}
}

func askModel(ask func(string) (string, error), out io.Writer, provider config.ProviderInfo) (string, error) {
	models := config.ChatModels(provider.ID)
	fallback := config.DefaultModel(provider.ID)
	fmt.Fprintln(out, "Models:")
	for i, model := range models {
		fmt.Fprintf(out, "  %d. %s\n", i+1, model)
	}
	answer, err := ask(fmt.Sprintf("Model [%s]: ", fallback))
	if err != nil {
		return "", err
	}
	return resolveModelChoice(provider.ID, answer), nil
}

// confirmKeyWorks probes the provider with a tiny completion. A failure
// is not fatal: keys for fresh accounts sometimes take a minute to
// propagate, so the user may choose to continue anyway.
func confirmKeyWorks(ask func(string) (string, error), out io.Writer, provider config.ProviderInfo, model string, verify verifyFunc) error {
	fmt.Fprint(out, "Verifying the key... ")
	if err := verify(provider.ID, model); err != nil {
		fmt.Fprintf(out, "failed: %v\n", err)
		answer, askErr := ask("Continue anyway? [y/N]: ")
		if askErr != nil {
			return askErr
		}
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			return fmt.Errorf("key verification failed: %w", err)
		}
		return nil
	}
	fmt.Fprintln(out, "ok.")
	return nil
}

func verifyKey(providerID, model string) error {
	client, err := llm.NewClient(providerID, model)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()
	_, err = client.Complete(ctx, "Reply with OK.")
	return err
}
