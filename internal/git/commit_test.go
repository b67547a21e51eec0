package git

import (
	"context"
	"strings"
	"testing"
)

func TestRepo_CommitPath_OnlyCommitsPath(t *testing.T) {
	ctx := context.Background()
	dir := setupGitRepo(t)
	repo := New(dir, nil)

	writeFile(t, dir, "apps/foo/index.js", "foo\n")
	writeFile(t, dir, "apps/bar/index.js", "bar\n")
	writeFile(t, dir, "README.md", "changed\n")
	runGit(t, dir, "add", "README.md") // staged elsewhere

	hash, err := repo.CommitPath(ctx, "apps/foo", "wizard-ci: foo")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "" {
		t.Error("expected a short hash")
	}

	committed := runGit(t, dir, "show", "--name-only", "--format=", "HEAD")
	if committed != "apps/foo/index.js" {
		t.Errorf("committed files = %q, want only apps/foo/index.js", committed)
	}

	status := runGit(t, dir, "status", "--porcelain")
	if !strings.Contains(status, "apps/bar/") {
		t.Errorf("apps/bar should remain uncommitted, status:\n%s", status)
	}
	if !strings.Contains(status, "README.md") {
		t.Errorf("README.md should remain uncommitted, status:\n%s", status)
	}
}

func TestRepo_CommitAll(t *testing.T) {
	ctx := context.Background()
	dir := setupGitRepo(t)
	repo := New(dir, nil)

	writeFile(t, dir, "a.txt", "a\n")
	writeFile(t, dir, "b/c.txt", "c\n")

	hash, err := repo.CommitAll(ctx, "everything")
	if err != nil {
		t.Fatal(err)
	}
	if hash != runGit(t, dir, "rev-parse", "--short", "HEAD") {
		t.Errorf("hash = %q does not match HEAD", hash)
	}
	if changed, _ := repo.HasChanges(ctx); changed {
		t.Error("tree should be clean after CommitAll")
	}
}

func TestRepo_CommitPath_NothingToCommit(t *testing.T) {
	repo := New(setupGitRepo(t), nil)
	if _, err := repo.CommitPath(context.Background(), "README.md", "noop"); err == nil {
		t.Error("expected error when nothing changed")
	}
}
