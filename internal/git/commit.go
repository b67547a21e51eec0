package git

import (
	"context"
	"fmt"
)

// CommitAll stages everything, commits and returns the short hash
func (r *Repo) CommitAll(ctx context.Context, message string) (string, error) {
	if _, err := r.git(ctx, "add", "-A"); err != nil {
		return "", fmt.Errorf("git add: %w", err)
	}
	if _, err := r.git(ctx, "commit", "-m", message); err != nil {
		return "", fmt.Errorf("git commit: %w", err)
	}
	return r.git(ctx, "rev-parse", "--short", "HEAD")
}

// CommitPath stages and commits only relPath and returns the short hash.
// Changes outside relPath, staged or not, stay out of the commit.
func (r *Repo) CommitPath(ctx context.Context, relPath, message string) (string, error) {
	if _, err := r.git(ctx, "add", "-A", "--", relPath); err != nil {
		return "", fmt.Errorf("git add %s: %w", relPath, err)
	}
	if _, err := r.git(ctx, "commit", "-m", message, "--", relPath); err != nil {
		return "", fmt.Errorf("git commit %s: %w", relPath, err)
	}
	return r.git(ctx, "rev-parse", "--short", "HEAD")
}
