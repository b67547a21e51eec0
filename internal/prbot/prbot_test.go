package prbot

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hochfrequenz/wizard-workbench/internal/git"
	"github.com/hochfrequenz/wizard-workbench/internal/github"
	"github.com/hochfrequenz/wizard-workbench/internal/shell"
)

func setupGitRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	cmds := [][]string{
		{"git", "init", "-b", "main"},
		{"git", "config", "user.email", "test@test.com"},
		{"git", "config", "user.name", "Test"},
	}

	for _, args := range cmds {
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("%v failed: %s", args, out)
		}
	}

	os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Test"), 0644)

	cmd := exec.Command("git", "add", ".")
	cmd.Dir = dir
	cmd.Run()

	cmd = exec.Command("git", "commit", "-m", "Initial commit")
	cmd.Dir = dir
	cmd.Run()

	return dir
}

type fakeCreator struct {
	calls []github.CreatePROptions
	url   string
	err   error
}

func (f *fakeCreator) CreatePR(ctx context.Context, opts github.CreatePROptions) (string, error) {
	f.calls = append(f.calls, opts)
	return f.url, f.err
}

func TestBuildPRTitleAndBody(t *testing.T) {
	title := BuildPRTitle("next-js/15-app-router-todo", "abc1234")
	if title != "[Wizard CI] next-js/15-app-router-todo (abc1234)" {
		t.Errorf("title = %q", title)
	}

	body := BuildPRBody("next-js/15-app-router-todo", 83*time.Second+400*time.Millisecond)
	if body != "Automated wizard test on `next-js/15-app-router-todo`\n\nDuration: 83.4s" {
		t.Errorf("body = %q", body)
	}

	body = BuildPushOnlyBody("next-js/todo", "wizard-ci/next-js-todo/abc1234")
	if body != "Automated wizard test on `next-js/todo`\n\nBranch: `wizard-ci/next-js-todo/abc1234`" {
		t.Errorf("push-only body = %q", body)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0ms"},
		{999 * time.Millisecond, "999ms"},
		{time.Second, "1.0s"},
		{1500 * time.Millisecond, "1.5s"},
		{2 * time.Minute, "120.0s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestPushAndCreatePR_PushFailureSkipsPR(t *testing.T) {
	fake := shell.NewFake().Fail("git push", "remote rejected")
	creator := &fakeCreator{url: "https://github.com/acme/workbench/pull/1"}
	bot := NewPRBot(git.New("/repo", fake), creator)

	res := bot.PushAndCreatePR(context.Background(), PushOptions{
		Branch: "wizard-ci/foo/abc1234",
		Remote: "origin",
		Base:   "main",
		Title:  "t",
		Body:   "b",
	})

	if res.Success {
		t.Error("expected failure")
	}
	if res.Error == "" {
		t.Error("expected a non-empty error")
	}
	if len(creator.calls) != 0 {
		t.Errorf("PR creation attempted %d times after failed push", len(creator.calls))
	}
}

func TestPushAndCreatePR_CreateFailure(t *testing.T) {
	fake := shell.NewFake()
	creator := &fakeCreator{err: errors.New("a pull request already exists")}
	bot := NewPRBot(git.New("/repo", fake), creator)

	res := bot.PushAndCreatePR(context.Background(), PushOptions{Branch: "b", Remote: "origin", Base: "main"})
	if res.Success || !strings.Contains(res.Error, "already exists") {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestPushAndCreatePR_DeletesBranchAfter(t *testing.T) {
	fake := shell.NewFake().Fail("git branch -D", "not fully merged")
	creator := &fakeCreator{url: "https://github.com/acme/workbench/pull/3"}
	bot := NewPRBot(git.New("/repo", fake), creator)

	res := bot.PushAndCreatePR(context.Background(), PushOptions{
		Branch:            "wizard-ci/foo/abc1234",
		Remote:            "origin",
		Base:              "main",
		DeleteBranchAfter: true,
		ReturnToBranch:    "main",
	})

	if !res.Success || res.PRURL != creator.url {
		t.Errorf("delete failure must not fail the push: %+v", res)
	}
	if creator.calls[0].Head != "wizard-ci/foo/abc1234" {
		t.Errorf("head = %q", creator.calls[0].Head)
	}
	if !fake.Called("git checkout main") || !fake.Called("git branch -D wizard-ci/foo/abc1234") {
		t.Errorf("cleanup not attempted:\n%s", fake.Dump())
	}
	if res.BranchDeleted {
		t.Error("BranchDeleted set although git branch -D failed")
	}

	ok := NewPRBot(git.New("/repo", shell.NewFake()), creator).PushAndCreatePR(context.Background(), PushOptions{
		Branch:            "wizard-ci/foo/abc1234",
		Remote:            "origin",
		Base:              "main",
		DeleteBranchAfter: true,
		ReturnToBranch:    "main",
	})
	if !ok.BranchDeleted {
		t.Errorf("BranchDeleted not set after a clean delete: %+v", ok)
	}
}

func TestSwitchOrCreateBranch(t *testing.T) {
	ctx := context.Background()
	dir := setupGitRepo(t)
	repo := git.New(dir, nil)
	bot := NewPRBot(repo, &fakeCreator{})

	if err := repo.CreateBranch(ctx, "existing"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Checkout(ctx, "main"); err != nil {
		t.Fatal(err)
	}

	res, err := bot.SwitchOrCreateBranch(ctx, SwitchOptions{
		Branch:   "existing",
		Generate: func() string { return "generated" },
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Created || res.Branch != "existing" {
		t.Errorf("existing branch: %+v", res)
	}
	if cur, _ := repo.CurrentBranch(ctx); cur != "existing" {
		t.Errorf("checked out %q", cur)
	}

	res, err = bot.SwitchOrCreateBranch(ctx, SwitchOptions{
		Branch:   "missing",
		Generate: func() string { return "generated" },
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Created || res.Branch != "missing" {
		t.Errorf("named branch should be created under its own name: %+v", res)
	}

	res, err = bot.SwitchOrCreateBranch(ctx, SwitchOptions{Generate: func() string { return "fresh" }})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Created || res.Branch != "fresh" {
		t.Errorf("no name: %+v", res)
	}

	if _, err := bot.SwitchOrCreateBranch(ctx, SwitchOptions{}); err == nil {
		t.Error("expected an error without a name or generator")
	}
}

func TestDeleteBranches_CollectsFailures(t *testing.T) {
	ctx := context.Background()
	dir := setupGitRepo(t)
	repo := git.New(dir, nil)
	bot := NewPRBot(repo, &fakeCreator{})

	for _, b := range []string{"wizard-ci/a/1111111", "wizard-ci/b/2222222"} {
		if err := repo.CreateBranch(ctx, b); err != nil {
			t.Fatal(err)
		}
		if err := repo.Checkout(ctx, "main"); err != nil {
			t.Fatal(err)
		}
	}

	res := bot.DeleteBranches(ctx, []string{"wizard-ci/a/1111111", "does-not-exist", "wizard-ci/b/2222222"})
	if len(res.Deleted) != 2 {
		t.Errorf("Deleted = %v", res.Deleted)
	}
	if len(res.Failed) != 1 || res.Failed[0].Branch != "does-not-exist" {
		t.Errorf("Failed = %+v", res.Failed)
	}
}
