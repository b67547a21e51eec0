package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "wizard-ci [branch]",
		Short: "Run the setup wizard on test apps and open PRs with the result",
		Long: `wizard-ci runs the analytics setup wizard against the test apps of the
workbench, commits what the wizard changed inside each app to a fresh branch,
pushes it and opens a pull request. With --evaluate the PR is reviewed by
pr-evaluator afterwards.

Apps are processed one at a time in the single working tree of the
workbench clone. Do not run two instances against the same clone.`,
		Example: `  wizard-ci                          interactive app selection
  wizard-ci --app next-js/15-app-router-saas
  wizard-ci --all --local            run every app, skip PR creation
  wizard-ci --push-only --branch     pick a local branch and open its PR
  wizard-ci --clean                  delete old wizard-ci branches`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE:         runCI,
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
