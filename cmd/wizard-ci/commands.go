package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/hochfrequenz/wizard-workbench/internal/apps"
	"github.com/hochfrequenz/wizard-workbench/internal/batch"
	"github.com/hochfrequenz/wizard-workbench/internal/ci"
	"github.com/hochfrequenz/wizard-workbench/internal/config"
	"github.com/hochfrequenz/wizard-workbench/internal/domain"
	"github.com/hochfrequenz/wizard-workbench/internal/prbot"
	"github.com/hochfrequenz/wizard-workbench/internal/runstore"
	"github.com/hochfrequenz/wizard-workbench/internal/ui"
	"github.com/spf13/cobra"
)

var (
	historyApp   string
	historyLimit int
)

func init() {
	// history command
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent CI runs",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	historyCmd.Flags().StringVarP(&historyApp, "app", "a", "", "filter by app")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	rootCmd.AddCommand(historyCmd)

	// apps command
	appsCmd := &cobra.Command{
		Use:   "apps",
		Short: "List the discovered test apps",
		Args:  cobra.NoArgs,
		RunE:  runApps,
	}
	rootCmd.AddCommand(appsCmd)

	// schedule command
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the configured [[schedule]] batches at their cron times",
		Long: `schedule stays in the foreground and runs every configured batch when
its cron expression is due. Batches run one after another and answer yes to
every confirmation. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: runSchedule,
	}
	rootCmd.AddCommand(scheduleCmd)
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

	runs, err := store.ListRuns(runstore.RunListOptions{App: historyApp, Limit: historyLimit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tAPP\tSTATUS\tDURATION\tPR / ERROR")
	for _, r := range runs {
		detail := r.PRURL
		if r.Error != "" {
			detail = r.Error
		}
		if detail == "" {
			detail = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"), r.App, r.Status, prbot.FormatDuration(r.Duration), detail)
	}
	w.Flush()

	return nil
}

func runApps(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	wb, err := openWorkbench(ctx)
	if err != nil {
		return err
	}
	defer wb.Close()

	found, err := wb.apps()
	if err != nil {
		return err
	}
	for _, a := range found {
		fmt.Println(a.Name)
	}
	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wb, err := openWorkbench(ctx)
	if err != nil {
		return err
	}
	defer wb.Close()

	if len(wb.cfg.Schedules) == 0 {
		return fmt.Errorf("no [[schedule]] entries in %s", configPathOrDefault())
	}
	sched, err := batch.NewScheduler(wb.cfg.Schedules)
	if err != nil {
		return err
	}
	if err := wb.cfg.ValidateWizardCI(); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BATCH\tCRON\tNEXT RUN")
	for _, name := range sched.ListBatches() {
		c, _ := sched.GetConfig(name)
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, c.Cron, sched.NextRun(name).Format("2006-01-02 15:04"))
	}
	w.Flush()

	err = sched.Start(ctx, func(ctx context.Context, sc config.ScheduleConfig) error {
		return runScheduled(ctx, wb, sc)
	})
	if ctx.Err() != nil {
		log.Printf("scheduler stopped")
		return nil
	}
	return err
}

func runScheduled(ctx context.Context, wb *workbench, sc config.ScheduleConfig) error {
	all, err := wb.apps()
	if err != nil {
		return err
	}
	targets := all
	if len(sc.Apps) > 0 {
		targets = nil
		for _, name := range sc.Apps {
			matches := apps.Match(all, name)
			if len(matches) == 0 {
				log.Printf("batch %s: app not found: %s", sc.Name, name)
			}
			targets = append(targets, matches...)
		}
	}
	if len(targets) == 0 {
		return fmt.Errorf("batch %s selects no apps", sc.Name)
	}

	opts := ci.Options{
		Local:        sc.Local,
		Base:         wb.cfg.Git.Base,
		Remote:       wb.cfg.Git.Remote,
		BranchPrefix: wb.cfg.Git.BranchPrefix,
		Evaluate:     sc.Evaluate,
	}
	orch := wb.orchestrator(opts, ui.AutoConfirm{Prompter: ui.NewTerminalPrompter()})
	res := orch.RunBatch(ctx, sc.Name, dedupe(targets))
	if !res.OK() {
		return fmt.Errorf("%d of %d app(s) failed", res.Total()-res.Passed, res.Total())
	}
	return nil
}

func dedupe(list []domain.App) []domain.App {
	seen := make(map[string]bool)
	var out []domain.App
	for _, a := range list {
		if !seen[a.Name] {
			seen[a.Name] = true
			out = append(out, a)
		}
	}
	return out
}

func configPathOrDefault() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}
