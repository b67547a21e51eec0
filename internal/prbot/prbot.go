package prbot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hochfrequenz/wizard-workbench/internal/git"
	"github.com/hochfrequenz/wizard-workbench/internal/github"
)

const (
	prBodyTemplate       = "Automated wizard test on `%s`\n\nDuration: %s"
	pushOnlyBodyTemplate = "Automated wizard test on `%s`\n\nBranch: `%s`"
)

// PRCreator opens pull requests
type PRCreator interface {
	CreatePR(ctx context.Context, opts github.CreatePROptions) (string, error)
}

// PRBot composes git and gh operations into PR workflows
type PRBot struct {
	repo *git.Repo
	prs  PRCreator
}

// NewPRBot creates a new PRBot
func NewPRBot(repo *git.Repo, prs PRCreator) *PRBot {
	return &PRBot{repo: repo, prs: prs}
}

// BuildPRTitle constructs the title of a wizard CI PR
func BuildPRTitle(app, shortID string) string {
	return fmt.Sprintf("[Wizard CI] %s (%s)", app, shortID)
}

// BuildPRBody constructs the body of a wizard CI PR
func BuildPRBody(app string, duration time.Duration) string {
	return fmt.Sprintf(prBodyTemplate, app, FormatDuration(duration))
}

// BuildPushOnlyBody constructs the body of a PR opened for an existing branch
func BuildPushOnlyBody(app, branch string) string {
	return fmt.Sprintf(pushOnlyBodyTemplate, app, branch)
}

// FormatDuration renders sub-second durations in ms, everything else in
// seconds with one decimal
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// PushOptions describes a push followed by PR creation
type PushOptions struct {
	Branch string
	Remote string
	Base   string
	Title  string
	Body   string

	// When both are set, ReturnToBranch is checked out and Branch deleted
	// locally once the PR exists.
	DeleteBranchAfter bool
	ReturnToBranch    string
}

// PushResult reports the outcome of PushAndCreatePR
type PushResult struct {
	Success bool
	PRURL   string
	Error   string

	// BranchDeleted is set when DeleteBranchAfter removed the local branch
	BranchDeleted bool
}

// PushAndCreatePR pushes the branch and opens a PR against Base.
// Failures are reported in the result instead of returned, so callers
// processing several apps can carry on.
func (p *PRBot) PushAndCreatePR(ctx context.Context, opts PushOptions) PushResult {
	if err := p.repo.Push(ctx, opts.Remote, opts.Branch); err != nil {
		return PushResult{Error: fmt.Sprintf("push %s to %s failed: %v", opts.Branch, opts.Remote, err)}
	}

	url, err := p.prs.CreatePR(ctx, github.CreatePROptions{
		Title: opts.Title,
		Body:  opts.Body,
		Base:  opts.Base,
		Head:  opts.Branch,
	})
	if err != nil {
		return PushResult{Error: fmt.Sprintf("create PR failed: %v", err)}
	}

	if opts.DeleteBranchAfter && opts.ReturnToBranch != "" {
		// the PR is the durable result; a failed local cleanup is only logged
		res := PushResult{Success: true, PRURL: url}
		if err := p.repo.Checkout(ctx, opts.ReturnToBranch); err != nil {
			log.Printf("prbot: cleanup checkout: %v", err)
		} else if err := p.repo.DeleteBranch(ctx, opts.Branch); err != nil {
			log.Printf("prbot: cleanup delete: %v", err)
		} else {
			res.BranchDeleted = true
		}
		return res
	}

	return PushResult{Success: true, PRURL: url}
}

// SwitchOptions selects the branch a run commits to
type SwitchOptions struct {
	Branch   string        // checked out if it exists, created otherwise
	Generate func() string // name for a new branch when Branch is empty
}

// BranchResult reports which branch is checked out and whether it is new
type BranchResult struct {
	Branch  string
	Created bool
}

// SwitchOrCreateBranch checks out opts.Branch when it exists and creates
// it when it does not. Without a name, a branch named by opts.Generate is
// created.
func (p *PRBot) SwitchOrCreateBranch(ctx context.Context, opts SwitchOptions) (BranchResult, error) {
	if opts.Branch != "" && p.repo.BranchExists(ctx, opts.Branch) {
		if err := p.repo.Checkout(ctx, opts.Branch); err != nil {
			return BranchResult{}, err
		}
		return BranchResult{Branch: opts.Branch, Created: false}, nil
	}

	name := opts.Branch
	if name == "" && opts.Generate != nil {
		name = opts.Generate()
	}
	if name == "" {
		return BranchResult{}, fmt.Errorf("no branch name to create")
	}
	if err := p.repo.CreateBranch(ctx, name); err != nil {
		return BranchResult{}, err
	}
	return BranchResult{Branch: name, Created: true}, nil
}

// BranchFailure is a branch that could not be deleted
type BranchFailure struct {
	Branch string
	Err    error
}

// DeleteResult reports the outcome of DeleteBranches
type DeleteResult struct {
	Deleted []string
	Failed  []BranchFailure
}

// DeleteBranches deletes every branch it can and collects the failures
func (p *PRBot) DeleteBranches(ctx context.Context, names []string) DeleteResult {
	var res DeleteResult
	for _, name := range names {
		if err := p.repo.DeleteBranch(ctx, name); err != nil {
			res.Failed = append(res.Failed, BranchFailure{Branch: name, Err: err})
			continue
		}
		res.Deleted = append(res.Deleted, name)
	}
	return res
}
