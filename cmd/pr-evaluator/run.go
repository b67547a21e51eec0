package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hochfrequenz/wizard-workbench/internal/agent"
	"github.com/hochfrequenz/wizard-workbench/internal/config"
	"github.com/hochfrequenz/wizard-workbench/internal/evaluator"
	"github.com/hochfrequenz/wizard-workbench/internal/git"
	"github.com/hochfrequenz/wizard-workbench/internal/github"
	"github.com/hochfrequenz/wizard-workbench/internal/notify"
	"github.com/hochfrequenz/wizard-workbench/internal/prompts"
	"github.com/hochfrequenz/wizard-workbench/internal/runstore"
	"github.com/hochfrequenz/wizard-workbench/internal/shell"
	"github.com/hochfrequenz/wizard-workbench/internal/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// autoName is the --test-run value when the flag is given without a name
const autoName = "\x00auto"

var (
	flagPR         int
	flagBranch     string
	flagBase       string
	flagTestRun    string
	flagDryRun     bool
	flagOutput     string
	flagPromptFile string
)

func init() {
	f := rootCmd.Flags()
	f.IntVarP(&flagPR, "pr", "p", 0, "PR number to evaluate")
	f.StringVarP(&flagBranch, "branch", "b", "", "local branch to evaluate")
	f.StringVar(&flagBase, "base", "", "base branch for local branches (default from config, \"main\")")
	f.StringVar(&flagTestRun, "test-run", "", "write artifacts instead of posting; named by timestamp when given without a name")
	f.Lookup("test-run").NoOptDefVal = autoName
	f.BoolVar(&flagDryRun, "dry-run", false, "print the comment instead of posting it")
	f.StringVarP(&flagOutput, "output", "o", "", "also write the comment to this file")
	f.StringVar(&flagPromptFile, "prompt-file", "", "write the full prompt to this file")

	rootCmd.MarkFlagsMutuallyExclusive("pr", "branch")
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

func openRepo(ctx context.Context, cfg *config.Config) (*git.Repo, error) {
	dir := cfg.General.WorkbenchRoot
	if dir == "" {
		dir = "."
	}
	return git.Open(ctx, dir, shell.ExecRunner{})
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if err := takeOptionalArg(cmd.Flags(), "test-run", autoName, args); err != nil {
		return err
	}
	if flagTestRun == autoName {
		flagTestRun = evaluator.TestRunName(time.Now())
	}
	if cmd.Flags().Changed("pr") && flagPR <= 0 {
		return fmt.Errorf("invalid PR number: %d", flagPR)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireAgentCredential(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepo(ctx, cfg)
	if err != nil {
		return err
	}
	out := ui.NewPrinter(os.Stdout)

	opts := evaluator.Options{
		PRNumber:   flagPR,
		Branch:     flagBranch,
		Base:       cfg.Git.Base,
		TestRun:    flagTestRun,
		DryRun:     flagDryRun,
		PromptFile: flagPromptFile,
		OutputFile: flagOutput,
	}
	if flagBase != "" {
		opts.Base = flagBase
	}

	if opts.PRNumber == 0 && opts.Branch == "" {
		branch, err := pickBranch(ctx, repo, opts.Base, ui.NewTerminalPrompter())
		if err != nil {
			return err
		}
		opts.Branch = branch
	}

	gh := github.NewClient(repo.Dir, shell.ExecRunner{}, commenter(ctx, repo, cfg.Git.Remote))
	if opts.Posting() && !gh.IsAuthenticated(ctx) {
		out.Warn("gh is not authenticated (run: gh auth login); writing a test run instead of posting")
		opts.TestRun = evaluator.TestRunName(time.Now())
	}

	artifacts := cfg.Evaluator.ArtifactsDir
	if !filepath.IsAbs(artifacts) {
		artifacts = filepath.Join(repo.Dir, artifacts)
	}

	ev := &evaluator.Evaluator{
		Remote:  gh,
		Repo:    repo,
		Prompts: prompts.DefaultLoader(repo.Dir),
		Agent:   &agent.ClaudeCLI{Binary: cfg.Claude.Binary},
		Request: agent.Request{
			Model:        cfg.Claude.Model,
			MaxTurns:     cfg.Claude.MaxTurns,
			AllowedTools: cfg.Claude.AllowedTools,
			Dir:          repo.Dir,
		},
		Out:          out,
		Notifier:     notify.FromConfig(cfg.Notifications),
		ArtifactsDir: artifacts,
	}
	if store, err := runstore.New(cfg.General.DatabasePath); err != nil {
		log.Printf("evaluation history disabled: %v", err)
	} else {
		defer store.Close()
		ev.Recorder = store
	}

	if opts.PRNumber > 0 {
		out.Section(fmt.Sprintf("Evaluating PR #%d", opts.PRNumber))
	} else {
		out.Section(fmt.Sprintf("Evaluating branch %s", opts.Branch))
	}

	res, err := ev.Evaluate(ctx, opts)
	if err != nil {
		return err
	}

	out.Banner("Evaluation Complete")
	out.Println("Score: %d/5", res.Evaluation.OverallScore)
	out.Println("Recommendation: %s", res.Evaluation.Recommendation)
	if res.CommentURL != "" {
		out.Println("Comment: %s", res.CommentURL)
	}
	if res.ArtifactsDir != "" {
		out.Println("Artifacts: %s", res.ArtifactsDir)
	}
	return nil
}

// commenter posts through the REST API when the remote is a GitHub
// repository. Otherwise the gh CLI fallback is used.
func commenter(ctx context.Context, repo *git.Repo, remote string) github.Commenter {
	url, ok := repo.RemoteURL(ctx, remote)
	if !ok {
		return nil
	}
	c, err := github.NewRESTCommenter(url)
	if err != nil {
		log.Printf("REST comments unavailable, using gh: %v", err)
		return nil
	}
	return c
}

func pickBranch(ctx context.Context, repo *git.Repo, base string, prompter ui.Prompter) (string, error) {
	all, err := repo.ListBranches(ctx, "")
	if err != nil {
		return "", err
	}
	var branches []string
	for _, b := range all {
		if b != base {
			branches = append(branches, b)
		}
	}
	if len(branches) == 0 {
		return "", fmt.Errorf("no local branches besides %s; pass --pr or --branch", base)
	}

	idx, err := prompter.Select("Select branch to evaluate", branches)
	if errors.Is(err, ui.ErrNonInteractive) {
		return "", errors.New("either --pr or --branch is required")
	}
	if err != nil {
		return "", err
	}
	return branches[idx], nil
}

// takeOptionalArg moves a lone positional argument into an optional-value
// flag that was given without a value, so "--test-run name" works like "--test-run=name"
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
