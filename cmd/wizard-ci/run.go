package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/hochfrequenz/wizard-workbench/internal/apps"
	"github.com/hochfrequenz/wizard-workbench/internal/ci"
	"github.com/hochfrequenz/wizard-workbench/internal/config"
	"github.com/hochfrequenz/wizard-workbench/internal/domain"
	"github.com/hochfrequenz/wizard-workbench/internal/git"
	"github.com/hochfrequenz/wizard-workbench/internal/github"
	"github.com/hochfrequenz/wizard-workbench/internal/notify"
	"github.com/hochfrequenz/wizard-workbench/internal/prbot"
	"github.com/hochfrequenz/wizard-workbench/internal/runstore"
	"github.com/hochfrequenz/wizard-workbench/internal/shell"
	"github.com/hochfrequenz/wizard-workbench/internal/ui"
	"github.com/hochfrequenz/wizard-workbench/internal/wizard"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// pickBranch is the --branch value when the flag is given without a name
const pickBranch = "\x00pick"

var (
	flagApp          string
	flagAll          bool
	flagLocal        bool
	flagBase         string
	flagRemote       string
	flagDeleteBranch bool
	flagClean        bool
	flagPushOnly     bool
	flagBranch       string
	flagEvaluate     bool
	flagYes          bool
)

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flagApp, "app", "a", "", "test a specific app (exact name or suffix)")
	f.BoolVar(&flagAll, "all", false, "test all apps")
	f.BoolVarP(&flagLocal, "local", "l", false, "skip branch and PR creation")
	f.StringVar(&flagBase, "base", "", "base branch for PRs (default from config, \"main\")")
	f.StringVarP(&flagRemote, "remote", "r", "", "git remote to push to (default from config, \"origin\")")
	f.BoolVarP(&flagDeleteBranch, "delete-branch", "d", false, "delete the local branch after pushing")
	f.BoolVar(&flagClean, "clean", false, "delete old wizard-ci branches")
	f.BoolVarP(&flagPushOnly, "push-only", "p", false, "skip reset and wizard, push a branch and create its PR")
	f.StringVarP(&flagBranch, "branch", "b", "", "branch to reuse or push; prompts when given without a name")
	f.Lookup("branch").NoOptDefVal = pickBranch
	f.BoolVarP(&flagEvaluate, "evaluate", "e", false, "run pr-evaluator after PR creation")
	f.BoolVarP(&flagYes, "yes", "y", false, "answer yes to confirmations")

	rootCmd.MarkFlagsMutuallyExclusive("app", "all")
	rootCmd.MarkFlagsMutuallyExclusive("clean", "push-only")
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

// workbench bundles what every wizard-ci command needs
type workbench struct {
	cfg   *config.Config
	repo  *git.Repo
	store *runstore.Store // nil when the history database is unavailable
}

func openWorkbench(ctx context.Context) (*workbench, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dir := cfg.General.WorkbenchRoot
	if dir == "" {
		dir = "."
	}
	repo, err := git.Open(ctx, dir, shell.ExecRunner{})
	if err != nil {
		return nil, err
	}

	wb := &workbench{cfg: cfg, repo: repo}
	if store, err := runstore.New(cfg.General.DatabasePath); err != nil {
		log.Printf("run history disabled: %v", err)
	} else {
		wb.store = store
	}
	return wb, nil
}

func (w *workbench) Close() {
	if w.store != nil {
		w.store.Close()
	}
}

func (w *workbench) apps() ([]domain.App, error) {
	dir := w.cfg.General.AppsDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(w.repo.Dir, dir)
	}
	found, err := apps.Find(dir, w.cfg.General.Manifest)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no apps found in %s", dir)
	}
	return found, nil
}

func (w *workbench) orchestrator(opts ci.Options, prompter ui.Prompter) *ci.Orchestrator {
	gh := github.NewClient(w.repo.Dir, shell.ExecRunner{}, nil)
	o := &ci.Orchestrator{
		Repo:     w.repo,
		Bot:      prbot.NewPRBot(w.repo, gh),
		Wizard:   wizard.NewRunner(w.cfg.Wizard),
		Prompter: prompter,
		Out:      ui.NewPrinter(os.Stdout),
		Notifier: notify.FromConfig(w.cfg.Notifications),
		Opts:     opts,
		Evaluator: &ci.SubprocessEvaluator{
			Command: strings.Fields(w.cfg.Evaluator.Command),
			Dir:     w.repo.Dir,
		},
	}
	if w.store != nil {
		o.Recorder = w.store
	}
	return o
}

func (w *workbench) options() ci.Options {
	opts := ci.Options{
		Local:        flagLocal,
		Base:         w.cfg.Git.Base,
		Remote:       w.cfg.Git.Remote,
		BranchPrefix: w.cfg.Git.BranchPrefix,
		DeleteBranch: flagDeleteBranch,
		Evaluate:     flagEvaluate,
	}
	if flagBase != "" {
		opts.Base = flagBase
	}
	if flagRemote != "" {
		opts.Remote = flagRemote
	}
	if flagBranch != pickBranch {
		opts.Branch = flagBranch
	}
	return opts
}

func runCI(cmd *cobra.Command, args []string) error {
	if err := takeOptionalArg(cmd.Flags(), "branch", pickBranch, args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wb, err := openWorkbench(ctx)
	if err != nil {
		return err
	}
	defer wb.Close()

	var prompter ui.Prompter = ui.NewTerminalPrompter()
	if flagYes {
		prompter = ui.AutoConfirm{Prompter: prompter}
	}
	orch := wb.orchestrator(wb.options(), prompter)

	switch {
	case flagClean:
		_, err := orch.CleanBranches(ctx)
		if errors.Is(err, ci.ErrCancelled) {
			return nil
		}
		return err

	case flagPushOnly:
		_, err := orch.PushOnly(ctx, ci.PushOnlyOptions{
			Branch: orch.Opts.Branch,
			Pick:   flagBranch == pickBranch,
		})
		if errors.Is(err, ci.ErrCancelled) {
			return nil
		}
		return err
	}

	if flagBranch == pickBranch {
		return errors.New("--branch needs a name unless used with --push-only")
	}
	if err := wb.cfg.ValidateWizardCI(); err != nil {
		return err
	}

	targets, err := selectApps(wb, prompter)
	if err != nil {
		return err
	}

	res := orch.RunBatch(ctx, "manual", targets)
	if !res.OK() {
		return fmt.Errorf("%d of %d app(s) failed", res.Total()-res.Passed, res.Total())
	}
	return nil
}

func selectApps(wb *workbench, prompter ui.Prompter) ([]domain.App, error) {
	all, err := wb.apps()
	if err != nil {
		return nil, err
	}

	switch {
	case flagAll:
		return all, nil
	case flagApp != "":
		matches := apps.Match(all, flagApp)
		switch len(matches) {
		case 0:
			return nil, fmt.Errorf("app not found: %s\nAvailable: %s", flagApp, strings.Join(apps.Names(all), ", "))
		case 1:
			return matches, nil
		default:
			return nil, fmt.Errorf("app %q is ambiguous: %s", flagApp, strings.Join(apps.Names(matches), ", "))
		}
	}

	idx, err := prompter.Select("Select app", apps.Names(all))
	if err != nil {
		return nil, err
	}
	return []domain.App{all[idx]}, nil
}

// takeOptionalArg moves a lone positional argument into an optional-value
// flag that was given without a value, so "--branch name" works like "--branch=name"
func takeOptionalArg(fs *pflag.FlagSet, name, noValue string, args []string) error {
	if len(args) == 0 {
		return nil
	}
	f := fs.Lookup(name)
	if !f.Changed || f.Value.String() != noValue {
		return fmt.Errorf("unexpected argument %q", args[0])
	}
	return f.Value.Set(args[0])
}
