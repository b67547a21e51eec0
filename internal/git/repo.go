// Package git wraps the git operations the CI and evaluation workflows need.
//
// A Repo is bound to a single clone. The checked-out branch is shared state
// of that clone, so two workflows must never operate on the same Repo at
// the same time; use one clone per concurrent run.
package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/hochfrequenz/wizard-workbench/internal/shell"
)

// Repo is a git working copy
type Repo struct {
	Dir    string
	runner shell.Runner
}

// New binds a Repo to dir without validating it
func New(dir string, runner shell.Runner) *Repo {
	if runner == nil {
		runner = shell.ExecRunner{}
	}
	return &Repo{Dir: dir, runner: runner}
}

// Open resolves the repository root containing dir
func Open(ctx context.Context, dir string, runner shell.Runner) (*Repo, error) {
	r := New(dir, runner)
	root, err := r.Root(ctx)
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %s: %w", dir, err)
	}
	r.Dir = root
	return r, nil
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	return shell.Run(ctx, r.runner, r.Dir, "git", args...)
}

func (r *Repo) gitSafe(ctx context.Context, args ...string) (string, bool) {
	return shell.RunSafe(ctx, r.runner, r.Dir, "git", args...)
}

// Root returns the top-level directory of the working tree
func (r *Repo) Root(ctx context.Context) (string, error) {
	return r.git(ctx, "rev-parse", "--show-toplevel")
}

// CurrentBranch returns the checked-out branch name
func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	return r.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// RemoteURL returns the fetch URL of remote, or false if it is not configured
func (r *Repo) RemoteURL(ctx context.Context, remote string) (string, bool) {
	return r.gitSafe(ctx, "remote", "get-url", remote)
}

// HasChanges reports whether the working tree has uncommitted changes
func (r *Repo) HasChanges(ctx context.Context) (bool, error) {
	files, err := r.ChangedFiles(ctx)
	return len(files) > 0, err
}

// HasChangesInPath reports whether relPath has uncommitted changes.
// Only the subtree is queried so changes elsewhere are ignored.
func (r *Repo) HasChangesInPath(ctx context.Context, relPath string) (bool, error) {
	files, err := r.ChangedFilesInPath(ctx, relPath)
	return len(files) > 0, err
}

// ChangedFiles returns the porcelain status lines of the whole working tree
func (r *Repo) ChangedFiles(ctx context.Context) ([]string, error) {
	return r.status(ctx)
}

// ChangedFilesInPath returns the porcelain status lines below relPath
func (r *Repo) ChangedFilesInPath(ctx context.Context, relPath string) ([]string, error) {
	return r.status(ctx, "--", relPath)
}

func (r *Repo) status(ctx context.Context, extra ...string) ([]string, error) {
	args := append(append([]string{}, verbatimPaths...), "status", "--porcelain")
	args = append(args, extra...)
	out, err := shell.Raw(ctx, r.runner, r.Dir, "git", args...)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// Restore discards every uncommitted change below relPath, including
// untracked files. Ignored files are kept. History is not touched.
func (r *Repo) Restore(ctx context.Context, relPath string) error {
	// restore fails on a pathspec with no tracked files; clean still has to run
	if _, err := r.git(ctx, "restore", "--source=HEAD", "--staged", "--worktree", "--", relPath); err != nil {
		if tracked, _ := r.gitSafe(ctx, "ls-files", "--", relPath); tracked != "" {
			return fmt.Errorf("restore %s: %w", relPath, err)
		}
	}
	if _, err := r.git(ctx, "clean", "-fd", "--", relPath); err != nil {
		return fmt.Errorf("clean %s: %w", relPath, err)
	}
	return nil
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimRight(line, "\r"))
		}
	}
	return lines
}
