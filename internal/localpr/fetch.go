// Package localpr builds PR-shaped data from a local branch compared
// against a base branch, for evaluating work that has no remote PR yet.
package localpr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hochfrequenz/wizard-workbench/internal/domain"
	"github.com/hochfrequenz/wizard-workbench/internal/git"
)

var (
	ErrBranchNotFound   = errors.New("branch not found")
	ErrSameBranch       = errors.New("branch and base branch are the same")
	ErrNoCommonAncestor = errors.New("cannot find common ancestor")
	ErrNoChanges        = errors.New("no changes between branches")
)

// BranchError names a branch that does not exist locally
type BranchError struct {
	Branch string
	IsBase bool
}

func (e *BranchError) Error() string {
	if e.IsBase {
		return fmt.Sprintf("base branch %q does not exist locally (use --base to choose another base branch)", e.Branch)
	}
	return fmt.Sprintf("branch %q does not exist locally (check the name, or use --base if it was meant as the base)", e.Branch)
}

func (e *BranchError) Is(target error) bool { return target == ErrBranchNotFound }

// Options selects the comparison
type Options struct {
	Branch string // "HEAD" or empty means the current branch
	Base   string
}

// Fetch compares opts.Branch against opts.Base from their merge-base and
// returns the result as a PRData with Number 0
func Fetch(ctx context.Context, repo *git.Repo, opts Options) (*domain.PRData, error) {
	branch := opts.Branch
	if branch == "" || branch == "HEAD" {
		current, err := repo.CurrentBranch(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve current branch: %w", err)
		}
		branch = current
	}
	base := opts.Base
	if base == "" {
		base = "main"
	}

	if !repo.BranchExists(ctx, branch) {
		return nil, &BranchError{Branch: branch}
	}
	if !repo.BranchExists(ctx, base) {
		return nil, &BranchError{Branch: base, IsBase: true}
	}
	if branch == base {
		return nil, fmt.Errorf("%w: %s (pass --base to compare against another branch)", ErrSameBranch, branch)
	}

	mergeBase, err := repo.MergeBase(ctx, base, branch)
	if err != nil || mergeBase == "" {
		return nil, fmt.Errorf("%w between %s and %s", ErrNoCommonAncestor, base, branch)
	}

	diff, err := repo.Diff(ctx, mergeBase, branch)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", base, branch, err)
	}
	if strings.TrimSpace(diff) == "" {
		return nil, fmt.Errorf("%w: %s has nothing that %s does not", ErrNoChanges, branch, base)
	}

	numstat, err := repo.DiffNumstat(ctx, mergeBase, branch)
	if err != nil {
		return nil, fmt.Errorf("numstat: %w", err)
	}
	nameStatus, err := repo.DiffNameStatus(ctx, mergeBase, branch)
	if err != nil {
		return nil, fmt.Errorf("name-status: %w", err)
	}

	stats := ParseNumstat(numstat)
	entries := ParseNameStatus(nameStatus)
	files := make([]domain.PRFile, 0, len(entries))
	for _, e := range entries {
		s := stats[e.Filename]
		f := domain.PRFile{
			Filename:  e.Filename,
			Status:    e.Status,
			Additions: s.Additions,
			Deletions: s.Deletions,
		}
		if patch, ok := repo.FileDiff(ctx, mergeBase, branch, e.Filename); ok {
			f.Patch = patch
		}
		files = append(files, f)
	}

	pr := &domain.PRData{
		Number:     0,
		Title:      "Local branch: " + branch,
		Author:     "local",
		BaseBranch: base,
		HeadBranch: branch,
		Diff:       diff,
		Files:      files,
	}
	if first, ok := repo.FirstCommitMessage(ctx, mergeBase, branch); ok {
		pr.Title = first
	}
	if msgs, ok := repo.CommitMessages(ctx, mergeBase, branch); ok {
		pr.Description = "Commits:\n" + msgs
	}
	if author, ok := repo.CommitAuthor(ctx, branch); ok {
		pr.Author = author
	}
	return pr, nil
}
