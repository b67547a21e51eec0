package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "pr-evaluator",
		Short: "Review a wizard PR or local branch with the coding agent",
		Long: `pr-evaluator fetches a pull request (or diffs a local branch against its
base), asks the coding agent for a structured review of the analytics
integration and posts the formatted result as a PR comment.

Local branches and --test-run never post. A test run writes the prompt,
the comment and a usage table to the artifacts directory instead.`,
		Example: `  pr-evaluator --pr 42
  pr-evaluator --branch wizard-ci/next-js/15-app-router-saas/a1b2c3d
  pr-evaluator --pr 42 --test-run baseline
  pr-evaluator                       pick a local branch interactively`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         runEvaluate,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
