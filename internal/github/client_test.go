package github

import (
	"context"
	"strings"
	"testing"

	"github.com/hochfrequenz/wizard-workbench/internal/domain"
	"github.com/hochfrequenz/wizard-workbench/internal/shell"
)

func TestExtractPRNumber(t *testing.T) {
	tests := []struct {
		url    string
		want   int
		wantOK bool
	}{
		{"https://github.com/acme/workbench/pull/123", 123, true},
		{"https://github.com/acme/workbench/pull/7/", 7, true},
		{"https://github.com/acme/workbench/pull/42\n", 42, true},
		{"https://github.com/acme/workbench/issues/5", 0, false},
		{"https://github.com/acme/workbench/pull/12/files", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ExtractPRNumber(tt.url)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ExtractPRNumber(%q) = %d, %v; want %d, %v", tt.url, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCreatePR_EscapesTitleAndBody(t *testing.T) {
	fake := shell.NewFake().On("gh pr create", "Creating pull request...\nhttps://github.com/acme/workbench/pull/9\n", nil)
	client := NewClient("/repo", fake, nil)

	opts := CreatePROptions{
		Title: "[Wizard CI] \"quoted\" `tick` (abc1234)",
		Body:  "Automated wizard test on `next-js/15-app`",
		Base:  "main",
	}
	url, err := client.CreatePR(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://github.com/acme/workbench/pull/9" {
		t.Errorf("url = %q", url)
	}

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	// argv carries the raw title, no shell in between
	if calls[0].Args[3] != opts.Title {
		t.Errorf("title arg = %q", calls[0].Args[3])
	}

	rendered := CreatePRCommand(opts)
	if !strings.Contains(rendered, "\\\"quoted\\\"") {
		t.Errorf("double quotes not escaped: %s", rendered)
	}
	if !strings.Contains(rendered, "\\`tick\\`") {
		t.Errorf("backticks not escaped: %s", rendered)
	}
	if !strings.Contains(rendered, "\\`next-js/15-app\\`") {
		t.Errorf("body backticks not escaped: %s", rendered)
	}
}

func TestCreatePRArgs_Draft(t *testing.T) {
	args := CreatePRArgs(CreatePROptions{Title: "t", Body: "b", Base: "main", Head: "feature", Draft: true})
	got := strings.Join(args, " ")
	if got != "pr create --title t --body b --base main --head feature --draft" {
		t.Errorf("args = %s", got)
	}
}

func TestFetchPR_DefaultsStatusToModified(t *testing.T) {
	fake := shell.NewFake().
		On("gh pr view 12 --json number,title", `{"number":12,"title":"Add analytics","body":"","author":{"login":"octo"},"baseRefName":"main","headRefName":"wizard-ci/foo/abc1234"}`, nil).
		On("gh pr diff 12", "diff --git a/x b/x\n+line\n", nil).
		On("gh pr view 12 --json files", `{"files":[{"path":"x","additions":1,"deletions":0},{"path":"new.ts","additions":5,"deletions":0}]}`, nil)
	client := NewClient("/repo", fake, nil)

	pr, err := client.FetchPR(context.Background(), 12)
	if err != nil {
		t.Fatal(err)
	}
	if pr.Number != 12 || pr.Author != "octo" || pr.HeadBranch != "wizard-ci/foo/abc1234" {
		t.Errorf("unexpected PR: %+v", pr)
	}
	if pr.Diff != "diff --git a/x b/x\n+line\n" {
		t.Errorf("diff should be untrimmed, got %q", pr.Diff)
	}
	if len(pr.Files) != 2 {
		t.Fatalf("got %d files", len(pr.Files))
	}
	for _, f := range pr.Files {
		if f.Status != domain.FileModified {
			t.Errorf("%s status = %s, want modified", f.Filename, f.Status)
		}
	}
}

func TestFetchPR_ViewFailure(t *testing.T) {
	fake := shell.NewFake().Fail("gh pr view", "no pull requests found")
	client := NewClient("/repo", fake, nil)

	if _, err := client.FetchPR(context.Background(), 99); err == nil {
		t.Error("expected error")
	}
	if fake.Called("gh pr diff") {
		t.Error("diff should not be fetched after a failed view")
	}
}

func TestPostComment_SynthesizedURL(t *testing.T) {
	fake := shell.NewFake().
		On("gh repo view", "https://github.com/acme/workbench\n", nil)
	client := NewClient("/repo", fake, nil)

	url, err := client.PostComment(context.Background(), 5, "looks good")
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://github.com/acme/workbench/pull/5#issuecomment-new" {
		t.Errorf("url = %q", url)
	}
	if !fake.Called("gh pr comment 5 --body \"looks good\"") {
		t.Errorf("comment not posted:\n%s", fake.Dump())
	}
}

type stubCommenter struct {
	url    string
	number int
}

func (s *stubCommenter) Comment(ctx context.Context, number int, body string) (string, error) {
	s.number = number
	return s.url, nil
}

func TestPostComment_UsesCommenter(t *testing.T) {
	fake := shell.NewFake()
	stub := &stubCommenter{url: "https://github.com/acme/workbench/pull/5#issuecomment-1"}
	client := NewClient("/repo", fake, stub)

	url, err := client.PostComment(context.Background(), 5, "body")
	if err != nil {
		t.Fatal(err)
	}
	if url != stub.url || stub.number != 5 {
		t.Errorf("url = %q, number = %d", url, stub.number)
	}
	if len(fake.Calls()) != 0 {
		t.Errorf("gh should not be called:\n%s", fake.Dump())
	}
}

func TestPRLookup(t *testing.T) {
	fake := shell.NewFake().
		On("gh pr view has-pr --json number", "17\n", nil).
		On("gh pr view has-pr --json url", "https://github.com/acme/workbench/pull/17\n", nil).
		Fail("gh pr view", "no pull requests found for branch")
	client := NewClient("/repo", fake, nil)
	ctx := context.Background()

	if n, ok := client.PRNumber(ctx, "has-pr"); !ok || n != 17 {
		t.Errorf("PRNumber = %d, %v", n, ok)
	}
	if url, ok := client.PRURL(ctx, "has-pr"); !ok || !strings.HasSuffix(url, "/pull/17") {
		t.Errorf("PRURL = %q, %v", url, ok)
	}
	if _, ok := client.PRNumber(ctx, "no-pr"); ok {
		t.Error("PRNumber should be absent")
	}
	if _, ok := client.PRURL(ctx, "no-pr"); ok {
		t.Error("PRURL should be absent")
	}
}

func TestIsAuthenticated(t *testing.T) {
	if !NewClient("/repo", shell.NewFake(), nil).IsAuthenticated(context.Background()) {
		t.Error("expected authenticated")
	}
	fake := shell.NewFake().Fail("gh auth status", "not logged in")
	if NewClient("/repo", fake, nil).IsAuthenticated(context.Background()) {
		t.Error("expected unauthenticated")
	}
}
