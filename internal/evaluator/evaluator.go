// Package evaluator reviews a pull request, or a local branch, with the
// coding agent and posts the formatted result as a PR comment.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hochfrequenz/wizard-workbench/internal/agent"
	"github.com/hochfrequenz/wizard-workbench/internal/domain"
	"github.com/hochfrequenz/wizard-workbench/internal/git"
	"github.com/hochfrequenz/wizard-workbench/internal/localpr"
	"github.com/hochfrequenz/wizard-workbench/internal/notify"
	"github.com/hochfrequenz/wizard-workbench/internal/prompts"
	"github.com/hochfrequenz/wizard-workbench/internal/review"
	"github.com/hochfrequenz/wizard-workbench/internal/ui"
)

const previewLength = 100

// errorMarker makes an assistant message log in full
const errorMarker = "API Error"

// Remote fetches PRs from and posts comments to the hosting platform
type Remote interface {
	FetchPR(ctx context.Context, number int) (*domain.PRData, error)
	PostComment(ctx context.Context, number int, body string) (string, error)
}

// Recorder persists finished evaluations
type Recorder interface {
	SaveEvaluation(rec *domain.EvaluationRecord) error
}

// Options selects what to evaluate and where the output goes
type Options struct {
	PRNumber int    // remote PR; exclusive with Branch
	Branch   string // local branch, "" with PRNumber 0 is invalid
	Base     string // base for local branches

	// TestRun, when set, writes artifacts to <ArtifactsDir>/<TestRun>/
	// instead of posting
	TestRun string
	// DryRun prints the comment instead of posting
	DryRun bool
	// PromptFile, when set, receives the full prompt before the query
	PromptFile string
	// OutputFile, when set, receives the formatted comment
	OutputFile string
}

// Validate rejects ambiguous targets
func (o Options) Validate() error {
	if o.PRNumber > 0 && o.Branch != "" {
		return errors.New("--pr and --branch are mutually exclusive")
	}
	if o.PRNumber <= 0 && o.Branch == "" {
		return errors.New("either --pr or --branch is required")
	}
	return nil
}

// Posting reports whether the comment will be posted to a PR
func (o Options) Posting() bool {
	return o.TestRun == "" && !o.DryRun && o.PRNumber > 0
}

// Result is the outcome of one evaluation
type Result struct {
	PR            *domain.PRData
	Evaluation    *review.Evaluation
	ReviewComment string
	CommentURL    string
	Usage         agent.Usage
	CostUSD       float64
	ArtifactsDir  string
}

// Evaluator runs the fetch, prompt, query, validate and post pipeline
type Evaluator struct {
	Remote   Remote
	Repo     *git.Repo // for local branches
	Prompts  *prompts.Loader
	Agent    agent.Querier
	Request  agent.Request // model, turns, tools and working dir
	Out      *ui.Printer
	Recorder Recorder        // optional
	Notifier notify.Notifier // optional

	// ArtifactsDir is the parent of test-run directories
	ArtifactsDir string
}

// Evaluate runs one evaluation. A failure to post the comment is a warning;
// every other failure is returned.
func (e *Evaluator) Evaluate(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	pr, err := e.fetch(ctx, opts)
	if err != nil {
		return nil, err
	}
	added, removed := pr.Totals()
	if pr.IsLocal() {
		e.Out.Println("Branch: %s -> %s", pr.HeadBranch, pr.BaseBranch)
	} else {
		e.Out.Println("PR: %q by @%s", pr.Title, pr.Author)
	}
	e.Out.Println("Files changed: %d (+%d/-%d)", len(pr.Files), added, removed)

	systemPrompt, err := e.Prompts.BuildSystemPrompt()
	if err != nil {
		return nil, fmt.Errorf("building system prompt: %w", err)
	}
	userPrompt, err := e.Prompts.BuildUserPrompt(pr)
	if err != nil {
		return nil, fmt.Errorf("building prompt: %w", err)
	}
	fullPrompt := systemPrompt + "\n\n" + userPrompt

	if opts.PromptFile != "" {
		if err := writeFile(opts.PromptFile, fullPrompt); err != nil {
			return nil, err
		}
		e.Out.Println("Prompt saved to: %s", opts.PromptFile)
	}

	e.Out.Println("\nRunning evaluation agent...")
	req := e.Request
	req.SystemPrompt = systemPrompt
	req.Prompt = userPrompt
	msg, err := agent.Collect(ctx, e.Agent, req, e.logAssistant)
	if err != nil {
		return nil, err
	}
	e.Out.Println("\nAgent completed evaluation")

	raw, err := review.ExtractJSON(msg.Result)
	if err != nil {
		log.Printf("evaluator: unparseable result: %.500s", msg.Result)
		return nil, fmt.Errorf("failed to extract JSON from agent response: %w", err)
	}
	ev, err := review.Decode(raw)
	if err != nil {
		var verr *review.ValidationError
		if errors.As(err, &verr) {
			for _, p := range verr.Problems {
				log.Printf("evaluator: schema: %s", p)
			}
			log.Printf("evaluator: raw evaluation: %s", verr.Payload)
		}
		return nil, err
	}

	e.Out.Println("\nOverall score: %d/5", ev.OverallScore)
	e.Out.Println("Recommendation: %s", ev.Recommendation)

	res := &Result{
		PR:            pr,
		Evaluation:    ev,
		ReviewComment: review.FormatComment(ev),
		Usage:         msg.Usage,
		CostUSD:       msg.Cost(),
	}

	if opts.OutputFile != "" {
		if err := writeFile(opts.OutputFile, res.ReviewComment); err != nil {
			return nil, err
		}
		e.Out.Println("\nEvaluation saved to: %s", opts.OutputFile)
	}

	switch {
	case opts.TestRun != "":
		dir := filepath.Join(e.ArtifactsDir, opts.TestRun)
		if err := WriteArtifacts(dir, fullPrompt, res); err != nil {
			return nil, err
		}
		res.ArtifactsDir = dir
		e.Out.Println("\nTest run saved to: %s", dir)
	case opts.Posting():
		e.Out.Println("\nPosting review comment...")
		url, err := e.Remote.PostComment(ctx, pr.Number, res.ReviewComment)
		if err != nil {
			e.Out.Warn("Failed to post comment: %v", err)
		} else {
			res.CommentURL = url
			e.Out.Println("Comment posted: %s", url)
		}
	default:
		e.Out.Println("\n--- DRY RUN: Review Comment Preview ---")
		e.Out.Println("%s", res.ReviewComment)
		e.Out.Println("--- END PREVIEW ---")
	}

	e.record(res, opts)
	return res, nil
}

func (e *Evaluator) fetch(ctx context.Context, opts Options) (*domain.PRData, error) {
	if opts.PRNumber > 0 {
		e.Out.Println("Fetching PR #%d...", opts.PRNumber)
		return e.Remote.FetchPR(ctx, opts.PRNumber)
	}
	if e.Repo == nil {
		return nil, errors.New("local branch evaluation needs a repository")
	}
	e.Out.Println("Reading local branch %s...", opts.Branch)
	return localpr.Fetch(ctx, e.Repo, localpr.Options{Branch: opts.Branch, Base: opts.Base})
}

func (e *Evaluator) logAssistant(msg *agent.Message) {
	text := msg.Text()
	if text == "" {
		return
	}
	if strings.Contains(text, errorMarker) {
		log.Printf("Agent: %s", text)
		return
	}
	log.Printf("Agent: %s", preview(text))
}

func (e *Evaluator) record(res *Result, opts Options) {
	rec := &domain.EvaluationRecord{
		PRNumber:       res.PR.Number,
		HeadBranch:     res.PR.HeadBranch,
		BaseBranch:     res.PR.BaseBranch,
		OverallScore:   res.Evaluation.OverallScore,
		Recommendation: res.Evaluation.Recommendation,
		CommentURL:     res.CommentURL,
		TestRun:        opts.TestRun,
		InputTokens:    res.Usage.InputTokens,
		OutputTokens:   res.Usage.OutputTokens,
		CostUSD:        res.CostUSD,
	}
	if e.Recorder != nil {
		if err := e.Recorder.SaveEvaluation(rec); err != nil {
			log.Printf("evaluator: recording evaluation: %v", err)
		}
	}
	if e.Notifier != nil {
		if err := e.Notifier.Send(notify.EvaluationResult(rec)); err != nil {
			log.Printf("evaluator: notification failed: %v", err)
		}
	}
}

func preview(text string) string {
	r := []rune(text)
	if len(r) <= previewLength {
		return text
	}
	return string(r[:previewLength]) + "..."
}

// TestRunName returns the default test-run directory name for t
func TestRunName(t time.Time) string {
	return t.Format("2006-01-02T15-04-05")
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
