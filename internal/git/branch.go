package git

import (
	"context"
	"fmt"
	"strings"
)

// BranchExists reports whether a local branch called name exists
func (r *Repo) BranchExists(ctx context.Context, name string) bool {
	_, ok := r.gitSafe(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+name)
	return ok
}

// CreateBranch creates name from HEAD and checks it out
func (r *Repo) CreateBranch(ctx context.Context, name string) error {
	if _, err := r.git(ctx, "checkout", "-b", name); err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	return nil
}

// Checkout switches to an existing branch
func (r *Repo) Checkout(ctx context.Context, name string) error {
	if _, err := r.git(ctx, "checkout", name); err != nil {
		return fmt.Errorf("checkout %s: %w", name, err)
	}
	return nil
}

// DeleteBranch force-deletes a local branch
func (r *Repo) DeleteBranch(ctx context.Context, name string) error {
	if _, err := r.git(ctx, "branch", "-D", name); err != nil {
		return fmt.Errorf("delete branch %s: %w", name, err)
	}
	return nil
}

// ListBranches lists local branches, optionally filtered by a glob pattern
// such as "wizard-ci/*"
func (r *Repo) ListBranches(ctx context.Context, pattern string) ([]string, error) {
	args := []string{"branch", "--list", "--format=%(refname:short)"}
	if pattern != "" {
		args = append(args, pattern)
	}
	out, err := r.git(ctx, args...)
	if err != nil {
		return nil, err
	}
	var branches []string
	for _, line := range splitLines(out) {
		branches = append(branches, strings.TrimSpace(line))
	}
	return branches, nil
}

// Push pushes branch to remote and sets upstream
func (r *Repo) Push(ctx context.Context, remote, branch string) error {
	if _, err := r.git(ctx, "push", "-u", remote, branch); err != nil {
		return fmt.Errorf("git push: %w", err)
	}
	return nil
}
