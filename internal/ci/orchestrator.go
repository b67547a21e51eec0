// Package ci runs the wizard against test apps and turns the resulting
// changes into pull requests.
//
// Every workflow here checks out branches in the single working tree of
// Repo. Run at most one Orchestrator per clone.
package ci

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hochfrequenz/wizard-workbench/internal/domain"
	"github.com/hochfrequenz/wizard-workbench/internal/git"
	"github.com/hochfrequenz/wizard-workbench/internal/github"
	"github.com/hochfrequenz/wizard-workbench/internal/notify"
	"github.com/hochfrequenz/wizard-workbench/internal/prbot"
	"github.com/hochfrequenz/wizard-workbench/internal/ui"
)

// Wizard runs the setup wizard against one app
type Wizard interface {
	Run(ctx context.Context, app domain.App) domain.WizardResult
}

// Evaluator reviews a created PR
type Evaluator interface {
	Evaluate(ctx context.Context, prNumber int) error
}

// Recorder persists run history
type Recorder interface {
	StartBatch(name string) (string, error)
	FinishBatch(id string, passed, failed int) error
	SaveRun(run *domain.CIRun, batchID string) error
}

// Options are the per-invocation switches
type Options struct {
	Local        bool   // stop after detecting changes
	Base         string // PR base branch
	Remote       string
	BranchPrefix string
	Branch       string // reuse this branch when it exists
	DeleteBranch bool   // delete the local branch once the PR exists
	Evaluate     bool
}

// Outcome is the result of one app's run
type Outcome struct {
	App      string
	Status   domain.RunStatus
	Branch   string
	PRURL    string
	Error    string
	Duration time.Duration
}

// Passed reports whether the app counts towards the pass total
func (o Outcome) Passed() bool { return o.Status.Passed() }

// Orchestrator drives the per-app CI state machine
type Orchestrator struct {
	Repo      *git.Repo
	Bot       *prbot.PRBot
	Wizard    Wizard
	Evaluator Evaluator // required when Opts.Evaluate is set
	Prompter  ui.Prompter
	Out       *ui.Printer
	Recorder  Recorder        // optional
	Notifier  notify.Notifier // optional
	Opts      Options

	newID func() string
	now   func() time.Time
}

// ShortID returns 7 hex characters, like a git short hash
func ShortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
}

func (o *Orchestrator) shortID() string {
	if o.newID != nil {
		return o.newID()
	}
	return ShortID()
}

func (o *Orchestrator) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

// BranchName builds "<prefix>/<app with / replaced by ->/<id>"
func BranchName(prefix, app, id string) string {
	return fmt.Sprintf("%s/%s/%s", prefix, strings.ReplaceAll(app, "/", "-"), id)
}

// RunApp takes one app through reset, wizard, change detection, branch,
// commit, push and PR. Failures are reported in the Outcome.
func (o *Orchestrator) RunApp(ctx context.Context, app domain.App) Outcome {
	return o.runApp(ctx, app, "")
}

func (o *Orchestrator) runApp(ctx context.Context, app domain.App, batchID string) Outcome {
	started := o.clock()
	out := o.workflow(ctx, app)
	out.App = app.Name

	if o.Recorder != nil {
		run := &domain.CIRun{
			App:        app.Name,
			Branch:     out.Branch,
			Status:     out.Status,
			PRURL:      out.PRURL,
			Error:      out.Error,
			Duration:   out.Duration,
			StartedAt:  started,
			FinishedAt: o.clock(),
		}
		if err := o.Recorder.SaveRun(run, batchID); err != nil {
			log.Printf("ci: recording run for %s: %v", app.Name, err)
		}
	}
	return out
}

func (o *Orchestrator) workflow(ctx context.Context, app domain.App) Outcome {
	total := 5
	if o.Opts.Evaluate {
		total = 6
	}
	fail := func(format string, args ...any) Outcome {
		msg := fmt.Sprintf(format, args...)
		o.Out.Error("Failed: %s", msg)
		return Outcome{Status: domain.RunFailed, Error: msg}
	}

	rel, err := o.relPath(ctx, app.Path)
	if err != nil {
		return fail("%v", err)
	}

	o.Out.Section("Running CI: " + app.Name)

	// Reset
	o.Out.Step(1, total, "Reset app to clean state")
	o.Out.Detail("Path: %s", app.Path)
	changed, err := o.Repo.ChangedFilesInPath(ctx, rel)
	if err != nil {
		return fail("%v", err)
	}
	if len(changed) > 0 {
		o.Out.Warn("WARNING: This will discard %d uncommitted change(s) in %s:", len(changed), app.Name)
		for _, f := range changed {
			o.Out.Item(f)
		}
		ok, err := o.Prompter.Confirm("Proceed with git restore")
		if err != nil {
			return fail("%v", err)
		}
		if !ok {
			o.Out.Detail("Skipped")
			return Outcome{Status: domain.RunSkipped, Error: "reset declined"}
		}
	} else {
		o.Out.Detail("No uncommitted changes in app")
	}
	if err := o.Repo.Restore(ctx, rel); err != nil {
		return fail("%v", err)
	}
	o.Out.Detail("Done")
	o.Out.Blank()

	// Invoke
	o.Out.Step(2, total, "Running wizard...")
	o.Out.Blank()
	res := o.Wizard.Run(ctx, app)
	o.Out.Blank()
	if !res.Success {
		out := fail("%s", res.Error)
		out.Duration = res.Duration
		return out
	}
	o.Out.Success("Completed in %s", prbot.FormatDuration(res.Duration))
	o.Out.Blank()

	// DetectChanges
	o.Out.Step(3, total, "Checking changes...")
	has, err := o.Repo.HasChangesInPath(ctx, rel)
	if err != nil {
		return fail("%v", err)
	}
	if !has {
		o.Out.Detail("No changes detected")
		return Outcome{Status: domain.RunNoChanges, Duration: res.Duration}
	}
	o.Out.Detail("Changes detected")
	o.Out.Blank()

	if o.Opts.Local {
		o.Out.Tag("LOCAL", "Skipping branch/PR creation")
		return Outcome{Status: domain.RunLocal, Duration: res.Duration}
	}

	// Branch and commit
	o.Out.Step(4, total, "Creating branch and committing...")
	original, err := o.Repo.CurrentBranch(ctx)
	if err != nil {
		return fail("%v", err)
	}

	br, err := o.Bot.SwitchOrCreateBranch(ctx, prbot.SwitchOptions{
		Branch: o.Opts.Branch,
		Generate: func() string {
			return BranchName(o.Opts.BranchPrefix, app.Name, o.shortID())
		},
	})
	if err != nil {
		o.restore(ctx, original)
		return fail("failed to switch/create branch: %v", err)
	}
	if !br.Created {
		o.Out.Detail("Reusing branch: %s", br.Branch)
	}
	id := br.Branch[strings.LastIndex(br.Branch, "/")+1:]

	hash, err := o.Repo.CommitPath(ctx, rel, "wizard-ci: "+app.Name)
	if err != nil {
		o.restore(ctx, original)
		out := fail("failed to commit: %v", err)
		out.Branch = br.Branch
		return out
	}
	o.Out.Detail("Branch: %s", br.Branch)
	o.Out.Detail("Commit: %s", hash)
	o.Out.Blank()

	// Push and PR
	o.Out.Step(5, total, "Pushing and creating PR...")
	o.showRemote(ctx)
	pr := o.Bot.PushAndCreatePR(ctx, prbot.PushOptions{
		Branch:            br.Branch,
		Remote:            o.Opts.Remote,
		Base:              o.Opts.Base,
		Title:             prbot.BuildPRTitle(app.Name, id),
		Body:              prbot.BuildPRBody(app.Name, res.Duration),
		DeleteBranchAfter: o.Opts.DeleteBranch,
		ReturnToBranch:    original,
	})
	if !pr.Success {
		o.restore(ctx, original)
		out := fail("%s", pr.Error)
		out.Branch = br.Branch
		return out
	}
	o.Out.Success("PR: %s", pr.PRURL)
	o.Out.Blank()

	if o.Opts.Evaluate {
		o.evaluate(ctx, 6, 6, pr.PRURL)
	}

	if pr.BranchDeleted {
		o.Out.Detail("Deleted local branch: %s", br.Branch)
	} else {
		if o.Opts.DeleteBranch {
			o.Out.Warn("Could not delete local branch: %s", br.Branch)
		}
		o.restore(ctx, original)
	}

	return Outcome{Status: domain.RunPassed, Branch: br.Branch, PRURL: pr.PRURL, Duration: res.Duration}
}

// evaluate runs the optional evaluation step. Failures only warn.
func (o *Orchestrator) evaluate(ctx context.Context, step, total int, prURL string) {
	o.Out.Step(step, total, "Running PR evaluation...")
	n, ok := github.ExtractPRNumber(prURL)
	if !ok {
		o.Out.Warn("Could not extract PR number from URL: %s", prURL)
		return
	}
	o.Out.Detail("PR #%d", n)
	o.Out.Blank()
	if err := o.Evaluator.Evaluate(ctx, n); err != nil {
		o.Out.Warn("Evaluation failed: %v", err)
		return
	}
	o.Out.Success("Evaluation complete")
	o.Out.Blank()
}

func (o *Orchestrator) showRemote(ctx context.Context) {
	if url, ok := o.Repo.RemoteURL(ctx, o.Opts.Remote); ok {
		o.Out.Detail("Remote: %s (%s)", o.Opts.Remote, url)
	} else {
		o.Out.Detail("Remote: %s", o.Opts.Remote)
	}
}

// restore returns to branch, logging instead of failing
func (o *Orchestrator) restore(ctx context.Context, branch string) {
	if branch == "" {
		return
	}
	if err := o.Repo.Checkout(ctx, branch); err != nil {
		log.Printf("ci: returning to %s: %v", branch, err)
	}
}

// relPath returns the app path relative to the repository root
func (o *Orchestrator) relPath(ctx context.Context, appPath string) (string, error) {
	root, err := o.Repo.Root(ctx)
	if err != nil {
		return "", err
	}
	if r, err := filepath.EvalSymlinks(root); err == nil {
		root = r
	}
	abs, err := filepath.Abs(appPath)
	if err != nil {
		return "", err
	}
	if p, err := filepath.EvalSymlinks(abs); err == nil {
		abs = p
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("app %s is outside the repository %s", appPath, root)
	}
	return filepath.ToSlash(rel), nil
}
