package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
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

	writeFile(t, dir, "README.md", "# Test\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "Initial commit")

	return dir
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %s", args, out)
	}
	return strings.TrimSpace(string(out))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestOpen_ResolvesRoot(t *testing.T) {
	dir := setupGitRepo(t)
	sub := filepath.Join(dir, "apps", "foo")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	repo, err := Open(context.Background(), sub, nil)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(repo.Dir)
	if got != want {
		t.Errorf("Dir = %q, want %q", got, want)
	}
}

func TestOpen_NotARepo(t *testing.T) {
	if _, err := Open(context.Background(), t.TempDir(), nil); err == nil {
		t.Error("expected error outside a repository")
	}
}

func TestRepo_CurrentBranchAndRemote(t *testing.T) {
	ctx := context.Background()
	repo := New(setupGitRepo(t), nil)

	branch, err := repo.CurrentBranch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if branch != "main" {
		t.Errorf("CurrentBranch = %q, want main", branch)
	}

	if _, ok := repo.RemoteURL(ctx, "origin"); ok {
		t.Error("RemoteURL should be absent without a remote")
	}
	runGit(t, repo.Dir, "remote", "add", "origin", "https://github.com/acme/workbench.git")
	url, ok := repo.RemoteURL(ctx, "origin")
	if !ok || url != "https://github.com/acme/workbench.git" {
		t.Errorf("RemoteURL = %q, %v", url, ok)
	}
}

func TestRepo_HasChangesInPath_IsScoped(t *testing.T) {
	ctx := context.Background()
	dir := setupGitRepo(t)
	repo := New(dir, nil)

	writeFile(t, dir, "apps/bar/index.js", "console.log('bar')\n")

	changed, err := repo.HasChangesInPath(ctx, "apps/foo")
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("apps/foo should be clean")
	}

	changed, err = repo.HasChangesInPath(ctx, "apps/bar")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Error("apps/bar should have changes")
	}

	all, err := repo.HasChanges(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !all {
		t.Error("repository should have changes")
	}
}

func TestRepo_ChangedFilesInPath(t *testing.T) {
	ctx := context.Background()
	dir := setupGitRepo(t)
	repo := New(dir, nil)

	writeFile(t, dir, "apps/foo/a.js", "a\n")
	writeFile(t, dir, "README.md", "changed\n")

	files, err := repo.ChangedFilesInPath(ctx, "apps/foo")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || !strings.Contains(files[0], "apps/foo") {
		t.Errorf("ChangedFilesInPath = %v", files)
	}

	files, err = repo.ChangedFiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("ChangedFiles = %v, want 2 entries", files)
	}
	if files[0] != " M README.md" && files[1] != " M README.md" {
		t.Errorf("porcelain leading space lost: %q", files)
	}
}

func TestRepo_Restore(t *testing.T) {
	ctx := context.Background()
	dir := setupGitRepo(t)
	writeFile(t, dir, "apps/foo/index.js", "original\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "add foo")

	repo := New(dir, nil)
	writeFile(t, dir, "apps/foo/index.js", "modified\n")
	writeFile(t, dir, "apps/foo/new.js", "untracked\n")
	writeFile(t, dir, "apps/bar/keep.js", "elsewhere\n")

	if err := repo.Restore(ctx, "apps/foo"); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "apps/foo/index.js"))
	if string(data) != "original\n" {
		t.Errorf("index.js = %q, want original", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "apps/foo/new.js")); !os.IsNotExist(err) {
		t.Error("untracked file should be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "apps/bar/keep.js")); err != nil {
		t.Error("changes outside the path must survive")
	}
}

func TestRepo_Restore_UntrackedOnly(t *testing.T) {
	ctx := context.Background()
	dir := setupGitRepo(t)
	repo := New(dir, nil)

	writeFile(t, dir, "apps/fresh/index.js", "new\n")
	if err := repo.Restore(ctx, "apps/fresh"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "apps/fresh/index.js")); !os.IsNotExist(err) {
		t.Error("untracked file should be removed")
	}
}

func TestRepo_ChangedFiles_NonASCII(t *testing.T) {
	dir := setupGitRepo(t)
	writeFile(t, dir, "apps/crêpe/ü.js", "x\n")

	files, err := New(dir, nil).ChangedFilesInPath(context.Background(), "apps/crêpe")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0] != "?? apps/crêpe/" {
		t.Errorf("ChangedFilesInPath = %q, want unquoted path", files)
	}
}
