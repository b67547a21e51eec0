package git

import (
	"context"
	"strings"

	"github.com/hochfrequenz/wizard-workbench/internal/shell"
)

// MergeBase returns the best common ancestor of base and head
func (r *Repo) MergeBase(ctx context.Context, base, head string) (string, error) {
	return r.git(ctx, "merge-base", base, head)
}

// verbatimPaths stops git from C-quoting non-ASCII path names in diff and
// status output, so the names can be passed back as pathspecs
var verbatimPaths = []string{"-c", "core.quotePath=false"}

func (r *Repo) diffRaw(ctx context.Context, args ...string) (string, error) {
	argv := append(append([]string{}, verbatimPaths...), "diff")
	return shell.Raw(ctx, r.runner, r.Dir, "git", append(argv, args...)...)
}

// Diff returns the unified diff between from and to
func (r *Repo) Diff(ctx context.Context, from, to string) (string, error) {
	return r.diffRaw(ctx, from, to)
}

// DiffNumstat returns `git diff --numstat` output between from and to
func (r *Repo) DiffNumstat(ctx context.Context, from, to string) (string, error) {
	return r.diffRaw(ctx, "--numstat", from, to)
}

// DiffNameStatus returns `git diff --name-status` output between from and to
func (r *Repo) DiffNameStatus(ctx context.Context, from, to string) (string, error) {
	return r.diffRaw(ctx, "--name-status", from, to)
}

// FileDiff returns the patch of a single file. A failure yields false
// instead of an error so one missing patch does not abort a whole fetch.
func (r *Repo) FileDiff(ctx context.Context, from, to, filename string) (string, bool) {
	out, err := r.diffRaw(ctx, from, to, "--", filename)
	if err != nil {
		return "", false
	}
	return out, true
}

// CommitAuthor returns the author name of the most recent commit on ref
func (r *Repo) CommitAuthor(ctx context.Context, ref string) (string, bool) {
	out, ok := r.gitSafe(ctx, "log", "-1", "--format=%an", ref)
	return out, ok && out != ""
}

// FirstCommitMessage returns the subject of the oldest commit in from..to
func (r *Repo) FirstCommitMessage(ctx context.Context, from, to string) (string, bool) {
	out, ok := r.gitSafe(ctx, "log", "--format=%s", "--reverse", from+".."+to)
	if !ok || out == "" {
		return "", false
	}
	first, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(first), true
}

// CommitMessages returns the subjects of from..to as "- subject" lines, newest first
func (r *Repo) CommitMessages(ctx context.Context, from, to string) (string, bool) {
	out, ok := r.gitSafe(ctx, "log", "--format=- %s", from+".."+to)
	return out, ok && out != ""
}
