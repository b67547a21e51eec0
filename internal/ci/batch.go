package ci

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/hochfrequenz/wizard-workbench/internal/domain"
	"github.com/hochfrequenz/wizard-workbench/internal/notify"
)

// BatchResult aggregates the outcomes of a batch
type BatchResult struct {
	Outcomes []Outcome
	Passed   int
}

// Total is the number of targeted apps
func (b BatchResult) Total() int { return len(b.Outcomes) }

// OK reports whether every app passed
func (b BatchResult) OK() bool { return b.Passed == len(b.Outcomes) }

// Failures lists "app: reason" for every app that did not pass
func (b BatchResult) Failures() []string {
	var out []string
	for _, o := range b.Outcomes {
		if !o.Passed() {
			out = append(out, fmt.Sprintf("%s: %s", o.App, o.Error))
		}
	}
	return out
}

// RunBatch runs apps one after another in name order. A failing app does
// not stop the batch; cancellation does, and marks the rest skipped.
func (o *Orchestrator) RunBatch(ctx context.Context, name string, apps []domain.App) BatchResult {
	sorted := append([]domain.App(nil), apps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	mode := "create PR"
	if o.Opts.Local {
		mode = "local"
	}
	o.Out.Println("\nWizard Test")
	o.Out.Println("Apps: %d", len(sorted))
	o.Out.Println("Mode: %s", mode)

	var batchID string
	if o.Recorder != nil {
		id, err := o.Recorder.StartBatch(name)
		if err != nil {
			log.Printf("ci: recording batch: %v", err)
		}
		batchID = id
	}

	var res BatchResult
	for _, app := range sorted {
		if err := ctx.Err(); err != nil {
			res.Outcomes = append(res.Outcomes, Outcome{App: app.Name, Status: domain.RunSkipped, Error: err.Error()})
			continue
		}
		out := o.runApp(ctx, app, batchID)
		if out.Passed() {
			res.Passed++
		}
		res.Outcomes = append(res.Outcomes, out)
	}

	o.Out.Banner(fmt.Sprintf("Results: %d/%d passed", res.Passed, res.Total()))

	if o.Recorder != nil && batchID != "" {
		if err := o.Recorder.FinishBatch(batchID, res.Passed, res.Total()-res.Passed); err != nil {
			log.Printf("ci: recording batch: %v", err)
		}
	}
	if o.Notifier != nil {
		if err := o.Notifier.Send(notify.BatchSummary(name, res.Passed, res.Total(), res.Failures())); err != nil {
			log.Printf("ci: notification failed: %v", err)
		}
	}
	return res
}
