// Package wizard invokes the analytics setup wizard against one app.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hochfrequenz/wizard-workbench/internal/config"
	"github.com/hochfrequenz/wizard-workbench/internal/domain"
)

// Runner spawns the wizard with the operator's terminal attached
type Runner struct {
	Node          string
	WizardPath    string // checkout containing dist/bin.js
	CI            bool
	Region        string
	APIKey        string
	TranscriptDir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	now func() time.Time
}

// NewRunner builds a Runner from configuration, attached to the process stdio
func NewRunner(cfg config.WizardConfig) *Runner {
	return &Runner{
		Node:          cfg.Node,
		WizardPath:    cfg.Path,
		CI:            cfg.CI,
		Region:        cfg.Region,
		APIKey:        cfg.APIKey,
		TranscriptDir: cfg.TranscriptDir,
		Stdin:         os.Stdin,
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		now:           time.Now,
	}
}

// BinPath returns the wizard entry point
func (r *Runner) BinPath() string {
	return filepath.Join(r.WizardPath, "dist", "bin.js")
}

// Args builds the node argv for an app
func (r *Runner) Args(appPath string) []string {
	args := []string{r.BinPath(), "--local-mcp"}
	if r.CI {
		args = append(args, "--ci", "--region", r.Region, "--api-key", r.APIKey, "--install-dir", appPath)
	}
	return args
}

func (r *Runner) validate() error {
	if r.CI {
		if r.Region != "us" && r.Region != "eu" {
			return fmt.Errorf("CI mode requires POSTHOG_REGION to be \"us\" or \"eu\"")
		}
		if r.APIKey == "" {
			return fmt.Errorf("CI mode requires POSTHOG_PERSONAL_API_KEY")
		}
	}
	if _, err := os.Stat(r.BinPath()); err != nil {
		return fmt.Errorf("wizard not found at %s (set WIZARD_PATH or [wizard] path, and build the wizard)", r.BinPath())
	}
	return nil
}

// Run executes the wizard in app's directory and times it. A failure is
// reported in the result, never returned.
func (r *Runner) Run(ctx context.Context, app domain.App) domain.WizardResult {
	now := r.now
	if now == nil {
		now = time.Now
	}
	start := now()
	result := func(err error) domain.WizardResult {
		res := domain.WizardResult{Success: err == nil, Duration: now().Sub(start)}
		if err != nil {
			res.Error = err.Error()
		}
		return res
	}

	if err := r.validate(); err != nil {
		return result(err)
	}

	node := r.Node
	if node == "" {
		node = "node"
	}
	build := func() *exec.Cmd {
		cmd := exec.CommandContext(ctx, node, r.Args(app.Path)...)
		cmd.Dir = app.Path
		return cmd
	}

	transcript, closeTranscript, err := r.openTranscript(app, start)
	if err != nil {
		return result(err)
	}
	defer closeTranscript()

	err = r.exec(build, transcript)
	return result(describeExit(err))
}

func (r *Runner) exec(build func() *exec.Cmd, transcript io.Writer) error {
	if transcript != nil && isTerminal(r.Stdin) {
		err := runPTY(build(), r.Stdin, r.Stdout, transcript)
		if !errors.Is(err, errNoPTY) {
			return err
		}
	}

	cmd := build()
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if transcript != nil {
		cmd.Stdout = io.MultiWriter(r.Stdout, transcript)
		cmd.Stderr = io.MultiWriter(r.Stderr, transcript)
	}
	return cmd.Run()
}

func (r *Runner) openTranscript(app domain.App, at time.Time) (io.Writer, func(), error) {
	if r.TranscriptDir == "" {
		return nil, func() {}, nil
	}
	if err := os.MkdirAll(r.TranscriptDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("transcript dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.log", strings.ReplaceAll(app.Name, "/", "-"), at.Format("20060102-150405"))
	f, err := os.Create(filepath.Join(r.TranscriptDir, name))
	if err != nil {
		return nil, nil, fmt.Errorf("transcript: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func describeExit(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("wizard exited with code %d", exitErr.ExitCode())
	}
	return fmt.Errorf("failed to run wizard: %w", err)
}
