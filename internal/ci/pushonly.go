package ci

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hochfrequenz/wizard-workbench/internal/domain"
	"github.com/hochfrequenz/wizard-workbench/internal/prbot"
)

// ErrCancelled is returned when the operator declines to continue
var ErrCancelled = errors.New("cancelled")

// PushOnlyOptions selects the branch for PushOnly
type PushOnlyOptions struct {
	Branch string // "" pushes the current branch
	Pick   bool   // ask the operator to choose a local branch
}

// PushOnly skips reset and wizard: it pushes an existing branch, opens the
// PR, optionally evaluates it, and returns to the original branch.
func (o *Orchestrator) PushOnly(ctx context.Context, opts PushOnlyOptions) (Outcome, error) {
	original, err := o.Repo.CurrentBranch(ctx)
	if err != nil {
		return Outcome{}, err
	}

	branch := opts.Branch
	if opts.Pick {
		branch, err = o.pickBranch(ctx, original)
		if err != nil {
			return Outcome{}, err
		}
	}

	target := original
	switched := branch != "" && branch != original
	if switched {
		if err := o.Repo.Checkout(ctx, branch); err != nil {
			if strings.Contains(err.Error(), "would be overwritten") {
				return Outcome{}, errors.New("cannot switch branches: you have uncommitted changes; commit or stash them first")
			}
			return Outcome{}, fmt.Errorf("failed to checkout branch %q: %w", branch, err)
		}
		target = branch
	}
	back := func() {
		if switched {
			o.restore(ctx, original)
		}
	}

	o.Out.Section("Push-only mode")
	o.Out.Detail("Branch: %s", target)
	o.Out.Detail("Base: %s", o.Opts.Base)

	if target == o.Opts.Base {
		back()
		return Outcome{}, fmt.Errorf("target branch is the base branch (%s); specify a different branch with --branch", o.Opts.Base)
	}

	dirty, err := o.Repo.ChangedFiles(ctx)
	if err != nil {
		back()
		return Outcome{}, err
	}
	if len(dirty) > 0 {
		o.Out.Blank()
		o.Out.Warn("WARNING: You have uncommitted changes.")
		for _, f := range dirty {
			o.Out.Item(f)
		}
		ok, err := o.Prompter.Confirm("Continue anyway")
		if err != nil {
			back()
			return Outcome{}, err
		}
		if !ok {
			o.Out.Detail("Cancelled.")
			back()
			return Outcome{}, ErrCancelled
		}
	}

	total := 2
	if o.Opts.Evaluate {
		total = 3
	}
	o.Out.Blank()
	o.Out.Step(1, total, "Pushing to remote...")
	o.showRemote(ctx)

	app, id := o.ParseBranch(target)
	if id == "" {
		id = o.shortID()
	}
	// the pushed branch cannot be deleted while it is checked out
	returnTo := original
	if returnTo == target {
		returnTo = o.Opts.Base
	}
	pr := o.Bot.PushAndCreatePR(ctx, prbot.PushOptions{
		Branch:            target,
		Remote:            o.Opts.Remote,
		Base:              o.Opts.Base,
		Title:             prbot.BuildPRTitle(app, id),
		Body:              prbot.BuildPushOnlyBody(app, target),
		DeleteBranchAfter: o.Opts.DeleteBranch,
		ReturnToBranch:    returnTo,
	})
	if !pr.Success {
		o.Out.Error("%s", pr.Error)
		back()
		return Outcome{App: app, Status: domain.RunFailed, Branch: target, Error: pr.Error}, errors.New(pr.Error)
	}
	o.Out.Detail("Pushed: %s", target)
	o.Out.Blank()
	o.Out.Step(2, total, "Creating PR...")
	o.Out.Success("PR: %s", pr.PRURL)
	o.Out.Blank()

	if o.Opts.Evaluate {
		o.evaluate(ctx, 3, total, pr.PRURL)
	}

	if pr.BranchDeleted {
		o.Out.Detail("Deleted local branch: %s", target)
	} else {
		if o.Opts.DeleteBranch {
			o.Out.Warn("Could not delete local branch: %s", target)
		}
		back()
	}

	o.Out.Banner("Done")
	return Outcome{App: app, Status: domain.RunPassed, Branch: target, PRURL: pr.PRURL}, nil
}

// ParseBranch extracts app name and short id from "<prefix>/<app>/<id>".
// Other names are returned unchanged with an empty id.
func (o *Orchestrator) ParseBranch(branch string) (app, id string) {
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(o.Opts.BranchPrefix) + `/(.+)/([a-f0-9]{7})$`)
	if m := re.FindStringSubmatch(branch); m != nil {
		return m[1], m[2]
	}
	return branch, ""
}

func (o *Orchestrator) pickBranch(ctx context.Context, current string) (string, error) {
	all, err := o.Repo.ListBranches(ctx, "")
	if err != nil {
		return "", err
	}
	var branches []string
	for _, b := range all {
		if b != current && b != o.Opts.Base {
			branches = append(branches, b)
		}
	}
	if len(branches) == 0 {
		return "", errors.New("no branches found to push")
	}
	idx, err := o.Prompter.Select("Select branch", branches)
	if err != nil {
		return "", err
	}
	return branches[idx], nil
}
