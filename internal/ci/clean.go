package ci

import (
	"context"
	"fmt"
)

// CleanBranches deletes every local "<prefix>/*" branch after confirmation
// and returns how many were deleted
func (o *Orchestrator) CleanBranches(ctx context.Context) (int, error) {
	prefix := o.Opts.BranchPrefix
	branches, err := o.Repo.ListBranches(ctx, prefix+"/*")
	if err != nil {
		return 0, err
	}
	if len(branches) == 0 {
		o.Out.Println("No %s branches found.", prefix)
		return 0, nil
	}

	o.Out.Println("\nFound %d %s branch(es):\n", len(branches), prefix)
	for i, b := range branches {
		o.Out.Println("  %d) %s", i+1, b)
	}
	o.Out.Blank()

	ok, err := o.Prompter.Confirm(fmt.Sprintf("Delete all %d branch(es)", len(branches)))
	if err != nil {
		return 0, err
	}
	if !ok {
		o.Out.Println("Cancelled.")
		return 0, ErrCancelled
	}

	res := o.Bot.DeleteBranches(ctx, branches)
	for _, b := range res.Deleted {
		o.Out.Println("  Deleted: %s", b)
	}
	for _, f := range res.Failed {
		o.Out.Println("  Failed to delete: %s (%v)", f.Branch, f.Err)
	}
	o.Out.Println("\nDeleted %d/%d branch(es).", len(res.Deleted), len(branches))

	if len(res.Failed) > 0 {
		return len(res.Deleted), fmt.Errorf("%d branch(es) could not be deleted", len(res.Failed))
	}
	return len(res.Deleted), nil
}
