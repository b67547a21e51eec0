package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/cli/go-gh/v2/pkg/repository"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestRESTCommenter_ReturnsPermalink(t *testing.T) {
	var gotPath, gotBody string
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		resp := `{"id":1,"html_url":"https://github.com/acme/workbench/pull/5#issuecomment-1"}`
		return &http.Response{
			StatusCode: http.StatusCreated,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(resp)),
			Request:    r,
		}, nil
	})

	client, err := api.NewRESTClient(api.ClientOptions{Host: "github.com", AuthToken: "test", Transport: transport})
	if err != nil {
		t.Fatal(err)
	}
	c := &RESTCommenter{client: client, repo: repository.Repository{Host: "github.com", Owner: "acme", Name: "workbench"}}

	url, err := c.Comment(context.Background(), 5, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://github.com/acme/workbench/pull/5#issuecomment-1" {
		t.Errorf("url = %q", url)
	}
	if gotPath != "/repos/acme/workbench/issues/5/comments" {
		t.Errorf("path = %q", gotPath)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(gotBody), &payload); err != nil || payload["body"] != "hello" {
		t.Errorf("body = %q", gotBody)
	}
	if c.Repo() != "acme/workbench" {
		t.Errorf("Repo() = %q", c.Repo())
	}
}

func TestNewRESTCommenter_BadRemote(t *testing.T) {
	if _, err := NewRESTCommenter("not a url"); err == nil {
		t.Error("expected error for unparseable remote")
	}
}
