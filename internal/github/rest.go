package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/cli/go-gh/v2/pkg/repository"
)

// Commenter posts an issue comment on a PR and returns its permalink
type Commenter interface {
	Comment(ctx context.Context, number int, body string) (string, error)
}

// RESTCommenter posts comments through the GitHub REST API using gh's
// stored credentials
type RESTCommenter struct {
	client *api.RESTClient
	repo   repository.Repository
}

// NewRESTCommenter builds a commenter for the repository behind remoteURL
// (https or ssh form)
func NewRESTCommenter(remoteURL string) (*RESTCommenter, error) {
	repo, err := repository.Parse(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote %q: %w", remoteURL, err)
	}
	client, err := api.NewRESTClient(api.ClientOptions{Host: repo.Host})
	if err != nil {
		return nil, fmt.Errorf("failed to create REST client: %w", err)
	}
	return &RESTCommenter{client: client, repo: repo}, nil
}

type issueComment struct {
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
}

// Comment implements Commenter
func (c *RESTCommenter) Comment(ctx context.Context, number int, body string) (string, error) {
	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return "", err
	}

	path := fmt.Sprintf("repos/%s/%s/issues/%d/comments", c.repo.Owner, c.repo.Name, number)
	var resp issueComment
	if err := c.client.DoWithContext(ctx, http.MethodPost, path, bytes.NewReader(payload), &resp); err != nil {
		return "", fmt.Errorf("post comment on #%d: %w", number, err)
	}
	if resp.HTMLURL == "" {
		return "", fmt.Errorf("post comment on #%d: no html_url in response", number)
	}
	return resp.HTMLURL, nil
}

// Repo returns the owner/name the commenter posts to
func (c *RESTCommenter) Repo() string {
	return c.repo.Owner + "/" + c.repo.Name
}
