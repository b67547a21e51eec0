// Package github talks to the hosting platform through the gh CLI, with an
// optional REST path for posting comments.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hochfrequenz/wizard-workbench/internal/domain"
	"github.com/hochfrequenz/wizard-workbench/internal/shell"
)

var prURLPattern = regexp.MustCompile(`/pull/(\d+)/?$`)

// Client runs gh commands in a repository directory
type Client struct {
	dir       string
	runner    shell.Runner
	commenter Commenter
}

// NewClient creates a Client. Without a Commenter, comments are posted with
// `gh pr comment` and the returned URL is synthesized.
func NewClient(dir string, runner shell.Runner, commenter Commenter) *Client {
	if runner == nil {
		runner = shell.ExecRunner{}
	}
	return &Client{dir: dir, runner: runner, commenter: commenter}
}

func (c *Client) gh(ctx context.Context, args ...string) (string, error) {
	return shell.Run(ctx, c.runner, c.dir, "gh", args...)
}

// CreatePROptions describes a PR to open
type CreatePROptions struct {
	Title string
	Body  string
	Base  string
	Head  string // defaults to the current branch
	Draft bool
}

// CreatePR opens a pull request and returns its URL
func (c *Client) CreatePR(ctx context.Context, opts CreatePROptions) (string, error) {
	out, err := c.gh(ctx, CreatePRArgs(opts)...)
	if err != nil {
		return "", fmt.Errorf("gh pr create: %w", err)
	}
	// gh prints progress lines before the URL
	lines := strings.Split(out, "\n")
	return strings.TrimSpace(lines[len(lines)-1]), nil
}

// CreatePRArgs builds the gh argv for CreatePR
func CreatePRArgs(opts CreatePROptions) []string {
	args := []string{"pr", "create", "--title", opts.Title, "--body", opts.Body, "--base", opts.Base}
	if opts.Head != "" {
		args = append(args, "--head", opts.Head)
	}
	if opts.Draft {
		args = append(args, "--draft")
	}
	return args
}

// CreatePRCommand renders the CreatePR invocation as a shell command line
func CreatePRCommand(opts CreatePROptions) string {
	return shell.Render("gh", CreatePRArgs(opts)...)
}

type prView struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	URL    string `json:"url"`
	Author struct {
		Login string `json:"login"`
	} `json:"author"`
	BaseRefName string `json:"baseRefName"`
	HeadRefName string `json:"headRefName"`
}

type prFiles struct {
	Files []struct {
		Path      string `json:"path"`
		Additions int    `json:"additions"`
		Deletions int    `json:"deletions"`
	} `json:"files"`
}

// FetchPR loads metadata, diff and file list of PR number.
// gh does not report a per-file change type here, so every file is
// reported as modified.
func (c *Client) FetchPR(ctx context.Context, number int) (*domain.PRData, error) {
	n := strconv.Itoa(number)

	out, err := c.gh(ctx, "pr", "view", n, "--json", "number,title,body,author,baseRefName,headRefName")
	if err != nil {
		return nil, fmt.Errorf("gh pr view %d: %w", number, err)
	}
	var view prView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		return nil, fmt.Errorf("parsing PR %d: %w", number, err)
	}

	diff, err := shell.Raw(ctx, c.runner, c.dir, "gh", "pr", "diff", n)
	if err != nil {
		return nil, fmt.Errorf("gh pr diff %d: %w", number, err)
	}

	out, err = c.gh(ctx, "pr", "view", n, "--json", "files")
	if err != nil {
		return nil, fmt.Errorf("gh pr view %d files: %w", number, err)
	}
	var files prFiles
	if err := json.Unmarshal([]byte(out), &files); err != nil {
		return nil, fmt.Errorf("parsing PR %d files: %w", number, err)
	}

	pr := &domain.PRData{
		Number:      view.Number,
		Title:       view.Title,
		Description: view.Body,
		Author:      view.Author.Login,
		BaseBranch:  view.BaseRefName,
		HeadBranch:  view.HeadRefName,
		Diff:        diff,
	}
	for _, f := range files.Files {
		pr.Files = append(pr.Files, domain.PRFile{
			Filename:  f.Path,
			Status:    domain.FileModified,
			Additions: f.Additions,
			Deletions: f.Deletions,
		})
	}
	return pr, nil
}

// PostComment posts body on PR number and returns the comment URL.
// When a Commenter is configured the real permalink is returned. Otherwise
// the URL points at the PR with a #issuecomment-new fragment, since gh does
// not print the permalink.
func (c *Client) PostComment(ctx context.Context, number int, body string) (string, error) {
	if c.commenter != nil {
		return c.commenter.Comment(ctx, number, body)
	}

	if _, err := c.gh(ctx, "pr", "comment", strconv.Itoa(number), "--body", body); err != nil {
		return "", fmt.Errorf("gh pr comment: %w", err)
	}
	repoURL, err := c.gh(ctx, "repo", "view", "--json", "url", "-q", ".url")
	if err != nil {
		return "", fmt.Errorf("gh repo view: %w", err)
	}
	return fmt.Sprintf("%s/pull/%d#issuecomment-new", repoURL, number), nil
}

// PRNumber returns the number of the PR for branch, or false if none exists
func (c *Client) PRNumber(ctx context.Context, branch string) (int, bool) {
	out, ok := shell.RunSafe(ctx, c.runner, c.dir, "gh", "pr", "view", branch, "--json", "number", "-q", ".number")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, false
	}
	return n, true
}

// PRURL returns the URL of the PR for branch, or false if none exists
func (c *Client) PRURL(ctx context.Context, branch string) (string, bool) {
	out, ok := shell.RunSafe(ctx, c.runner, c.dir, "gh", "pr", "view", branch, "--json", "url", "-q", ".url")
	return out, ok && out != ""
}

// IsAuthenticated reports whether gh has a logged-in account
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	_, ok := shell.RunSafe(ctx, c.runner, c.dir, "gh", "auth", "status")
	return ok
}

// ExtractPRNumber returns the number at the end of a PR URL like
// https://github.com/owner/repo/pull/123
func ExtractPRNumber(url string) (int, bool) {
	m := prURLPattern.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
