package skills

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"spaceblack/internal/config"
	"spaceblack/internal/tools"
)

// githubAPIBase is a var so tests can point it at a local server.
var githubAPIBase = "https://api.github.com"

var githubClient = &http.Client{Timeout: 30 * time.Second}

// GitHubActTool returns the unified GitHub tool. One dispatch entry
// point covers repos, issues, comments, branches, commits and PRs.
func GitHubActTool(cfg *config.Config) *tools.Tool {
	return &tools.Tool{
		Name: "github_act",
		Description: "Interact with the GitHub API. Actions: get_repo, list_issues, create_issue " +
			"(repo, title, body), list_prs, get_issue_comments (repo, issue_number), create_comment " +
			"(repo, issue_number, body), search_repos (query), search_code (repo, query), " +
			"create_branch (repo, branch_name), commit_file (repo, branch_name, file_path, " +
			"commit_message, content), create_pr (repo, title, head_branch, base_branch, body). " +
			"Repo format is owner/name.",
		Category: tools.CategorySkill,
		Schema: tools.ToolSchema{
			Required: []string{"action"},
			Properties: map[string]tools.Property{
				"action":         {Type: "string", Description: "The GitHub operation to perform"},
				"repo":           {Type: "string", Description: "Repository as owner/name"},
				"title":          {Type: "string", Description: "Issue or PR title"},
				"body":           {Type: "string", Description: "Issue, comment or PR body"},
				"issue_number":   {Type: "integer", Description: "Issue or PR number"},
				"query":          {Type: "string", Description: "Search query"},
				"branch_name":    {Type: "string", Description: "Branch to create or commit to"},
				"file_path":      {Type: "string", Description: "Path of the file to commit"},
				"commit_message": {Type: "string", Description: "Commit message"},
				"content":        {Type: "string", Description: "File content to commit"},
				"head_branch":    {Type: "string", Description: "PR source branch"},
				"base_branch":    {Type: "string", Description: "PR target branch"},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			token := credential(cfg, "github", "api_key", "GITHUB_TOKEN")
			if token == "" {
				return "", fmt.Errorf("missing GitHub token: add it via the /skills menu or set GITHUB_TOKEN in .env")
			}
			return githubAct(ctx, token, args)
		},
	}
}

func githubAct(ctx context.Context, token string, args map[string]any) (string, error) {
	action := tools.StringArg(args, "action", "")
	repo := tools.StringArg(args, "repo", "")
	title := tools.StringArg(args, "title", "")
	body := tools.StringArg(args, "body", "")
	query := tools.StringArg(args, "query", "")
	issueNumber := tools.IntArg(args, "issue_number", 0)

	gh := githubCaller{ctx: ctx, token: token}

	switch action {
	case "get_repo":
		if repo == "" {
			return "", fmt.Errorf("get_repo needs repo (owner/name)")
		}
		return gh.call("GET", "/repos/"+repo, nil)

	case "list_issues":
		if repo == "" {
			return "", fmt.Errorf("list_issues needs repo")
		}
		return gh.call("GET", "/repos/"+repo+"/issues?state=open", nil)

	case "create_issue":
		if repo == "" || title == "" {
			return "", fmt.Errorf("create_issue needs repo and title")
		}
		return gh.call("POST", "/repos/"+repo+"/issues", map[string]any{"title": title, "body": body})

	case "list_prs":
		if repo == "" {
			return "", fmt.Errorf("list_prs needs repo")
		}
		return gh.call("GET", "/repos/"+repo+"/pulls?state=open", nil)

	case "get_issue_comments":
		if repo == "" || issueNumber == 0 {
			return "", fmt.Errorf("get_issue_comments needs repo and issue_number")
		}
		return gh.call("GET", fmt.Sprintf("/repos/%s/issues/%d/comments", repo, issueNumber), nil)

	case "create_comment":
		if repo == "" || issueNumber == 0 || body == "" {
			return "", fmt.Errorf("create_comment needs repo, issue_number and body")
		}
		return gh.call("POST", fmt.Sprintf("/repos/%s/issues/%d/comments", repo, issueNumber),
			map[string]any{"body": body})

	case "search_repos":
		if query == "" {
			return "", fmt.Errorf("search_repos needs query")
		}
		return gh.call("GET", "/search/repositories?q="+url.QueryEscape(query), nil)

	case "search_code":
		if repo == "" || query == "" {
			return "", fmt.Errorf("search_code needs repo and query")
		}
		return gh.call("GET", "/search/code?q="+url.QueryEscape(query+" repo:"+repo), nil)

	case "create_branch":
		branch := tools.StringArg(args, "branch_name", "")
		if repo == "" || branch == "" {
			return "", fmt.Errorf("create_branch needs repo and branch_name")
		}
		return gh.createBranch(repo, branch)

	case "commit_file":
		return gh.commitFile(repo, args)

	case "create_pr":
		head := tools.StringArg(args, "head_branch", "")
		base := tools.StringArg(args, "base_branch", "")
		if repo == "" || title == "" || head == "" || base == "" {
			return "", fmt.Errorf("create_pr needs repo, title, head_branch and base_branch")
		}
		return gh.call("POST", "/repos/"+repo+"/pulls",
			map[string]any{"title": title, "head": head, "base": base, "body": body})

	default:
		return "", fmt.Errorf("unknown github action %q", action)
	}
}

type githubCaller struct {
	ctx   context.Context
	token string
}

// call performs one API request and returns the raw JSON body, or an
// API error message the model can act on.
func (g githubCaller) call(method, path string, payload map[string]any) (string, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return "", err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(g.ctx, method, githubAPIBase+path, reqBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "token "+g.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := githubClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("github api: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return fmt.Sprintf("GitHub API error: %d - %s", resp.StatusCode, string(data)), nil
	}
	return string(data), nil
}

// createBranch resolves the default branch head and creates a ref from
// its SHA.
func (g githubCaller) createBranch(repo, branch string) (string, error) {
	var repoInfo struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := g.callInto("GET", "/repos/"+repo, nil, &repoInfo); err != nil {
		return "", err
	}
	if repoInfo.DefaultBranch == "" {
		repoInfo.DefaultBranch = "main"
	}

	var ref struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	if err := g.callInto("GET", "/repos/"+repo+"/git/refs/heads/"+repoInfo.DefaultBranch, nil, &ref); err != nil {
		return "", err
	}
	if ref.Object.SHA == "" {
		return "", fmt.Errorf("could not resolve default branch SHA for %s", repo)
	}

	return g.call("POST", "/repos/"+repo+"/git/refs",
		map[string]any{"ref": "refs/heads/" + branch, "sha": ref.Object.SHA})
}

// commitFile creates or updates one file on a branch. An existing file
// needs its current SHA in the payload.
func (g githubCaller) commitFile(repo string, args map[string]any) (string, error) {
	branch := tools.StringArg(args, "branch_name", "")
	path := tools.StringArg(args, "file_path", "")
	message := tools.StringArg(args, "commit_message", "")
	content := tools.StringArg(args, "content", "")
	if repo == "" || branch == "" || path == "" || message == "" || content == "" {
		return "", fmt.Errorf("commit_file needs repo, branch_name, file_path, commit_message and content")
	}

	payload := map[string]any{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"branch":  branch,
	}
	var existing struct {
		SHA string `json:"sha"`
	}
	if err := g.callInto("GET", "/repos/"+repo+"/contents/"+path+"?ref="+url.QueryEscape(branch), nil, &existing); err == nil && existing.SHA != "" {
		payload["sha"] = existing.SHA
	}

	return g.call("PUT", "/repos/"+repo+"/contents/"+path, payload)
}

func (g githubCaller) callInto(method, path string, payload map[string]any, dst any) error {
	body, err := g.call(method, path, payload)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), dst)
}
