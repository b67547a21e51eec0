package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/hochfrequenz/wizard-workbench/internal/prompts"
	"github.com/hochfrequenz/wizard-workbench/internal/runstore"
	"github.com/spf13/cobra"
)

var (
	historyPR    int
	historyLimit int
)

func init() {
	// history command
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent evaluations",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	historyCmd.Flags().IntVarP(&historyPR, "pr", "p", 0, "filter by PR number")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of evaluations to show")
	rootCmd.AddCommand(historyCmd)

	// prompts command
	promptsCmd := &cobra.Command{
		Use:   "prompts",
		Short: "List the prompt fragments and where each is loaded from",
		Args:  cobra.NoArgs,
		RunE:  runPrompts,
	}
	rootCmd.AddCommand(promptsCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := runstore.New(cfg.General.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.ListEvaluations(historyPR, historyLimit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No evaluations recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTARGET\tSCORE\tRECOMMENDATION\tCOST\tCOMMENT")
	for _, r := range recs {
		target := r.HeadBranch
		if r.PRNumber > 0 {
			target = fmt.Sprintf("#%d", r.PRNumber)
		}
		where := r.CommentURL
		if r.TestRun != "" {
			where = "test run " + r.TestRun
		}
		if where == "" {
			where = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d/5\t%s\t$%.4f\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"), target, r.OverallScore, r.Recommendation, r.CostUSD, where)
	}
	w.Flush()

	return nil
}

func runPrompts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repo, err := openRepo(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	frags, err := prompts.DefaultLoader(repo.Dir).Fragments()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSOURCE\tDESCRIPTION")
	for _, f := range frags {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.ID, f.Name, f.Source, f.Description)
	}
	w.Flush()

	return nil
}
