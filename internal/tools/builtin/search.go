package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"spaceblack/internal/config"
	"spaceblack/internal/logging"
	"spaceblack/internal/tools"

	"golang.org/x/net/html"
)

const (
	braveSearchURL = "https://api.search.brave.com/res/v1/web/search"
	braveEnvVar    = "BRAVE_API_KEY"
	braveCount     = 3
)

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// searchClient is shared by both backends.
var searchClient = &http.Client{Timeout: 30 * time.Second}

// WebSearchTool returns the web search tool. The backend follows
// config.SearchProvider: Brave when a key is configured, DuckDuckGo
// HTML scraping otherwise.
func WebSearchTool(cfg *config.Config) *tools.Tool {
	return &tools.Tool{
		Name:        "web_search",
		Description: "Search the web and return the top results with titles, URLs, and snippets.",
		Category:    tools.CategoryWeb,
		Schema: tools.ToolSchema{
			Required: []string{"query"},
			Properties: map[string]tools.Property{
				"query": {
					Type:        "string",
					Description: "The search query",
				},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			query := strings.TrimSpace(tools.StringArg(args, "query", ""))
			if query == "" {
				return "", fmt.Errorf("query cannot be empty")
			}

			provider := "duckduckgo"
			if cfg != nil && cfg.SearchProvider != "" {
				provider = cfg.SearchProvider
			}

			var (
				results []SearchResult
				err     error
			)
			switch provider {
			case "brave":
				results, err = searchBrave(ctx, query)
			default:
				results, err = searchDuckDuckGo(ctx, query, braveCount)
			}
			if err != nil {
				return "", err
			}
			if len(results) == 0 {
				return "No results found for: " + query, nil
			}

			var sb strings.Builder
			for i, r := range results {
				fmt.Fprintf(&sb, "%d. %s\n   %s\n", i+1, r.Title, r.URL)
				if r.Snippet != "" {
					fmt.Fprintf(&sb, "   %s\n", r.Snippet)
				}
			}
			logging.Tools("web_search: %d results via %s for %q", len(results), provider, query)
			return strings.TrimRight(sb.String(), "\n"), nil
		},
	}
}

func searchBrave(ctx context.Context, query string) ([]SearchResult, error) {
	apiKey := os.Getenv(braveEnvVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s is not set; add it to .env or switch search_provider to \"duckduckgo\" in config.json", braveEnvVar)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s?q=%s&count=%d", braveSearchURL, url.QueryEscape(query), braveCount), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", apiKey)

	resp, err := searchClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("brave search: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var br struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("brave search: parse response: %w", err)
	}

	results := make([]SearchResult, 0, len(br.Web.Results))
	for _, r := range br.Web.Results {
		results = append(results, SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return results, nil
}

// searchDuckDuckGo scrapes the DuckDuckGo HTML endpoint, which needs no
// API key.
func searchDuckDuckGo(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	searchURL := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := searchClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo search: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search: read response: %w", err)
	}
	return parseDuckDuckGoResults(string(body), maxResults), nil
}

// parseDuckDuckGoResults extracts results from DuckDuckGo's HTML, which
// marks each hit with class "result results_links".
func parseDuckDuckGoResults(htmlContent string, maxResults int) []SearchResult {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil
	}

	var results []SearchResult
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" {
			for _, attr := range n.Attr {
				if attr.Key == "class" && strings.Contains(attr.Val, "results_links") {
					if r := extractResult(n); r.URL != "" && r.Title != "" {
						results = append(results, r)
					}
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results
}

func extractResult(n *html.Node) SearchResult {
	var result SearchResult

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "class" {
					continue
				}
				if strings.Contains(attr.Val, "result__a") {
					result.URL = attrValue(n, "href")
					result.Title = textContent(n)
				} else if strings.Contains(attr.Val, "result__snippet") {
					result.Snippet = textContent(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	// Unwrap DuckDuckGo's redirect links.
	if strings.HasPrefix(result.URL, "//duckduckgo.com/l/?uddg=") {
		if decoded, err := url.QueryUnescape(strings.TrimPrefix(result.URL, "//duckduckgo.com/l/?uddg=")); err == nil {
			if idx := strings.Index(decoded, "&"); idx > 0 {
				decoded = decoded[:idx]
			}
			result.URL = decoded
		}
	}
	return result
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
