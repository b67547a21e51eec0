package ci

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
)

// SubprocessEvaluator runs the evaluator binary with the terminal attached
type SubprocessEvaluator struct {
	Command []string // program and leading args, e.g. ["pr-evaluator"]
	Dir     string
	Stdout  io.Writer
	Stderr  io.Writer
}

// Args returns the argv for evaluating prNumber
func (s *SubprocessEvaluator) Args(prNumber int) []string {
	args := append([]string(nil), s.Command[1:]...)
	return append(args, "--pr", strconv.Itoa(prNumber))
}

// Evaluate implements Evaluator
func (s *SubprocessEvaluator) Evaluate(ctx context.Context, prNumber int) error {
	if len(s.Command) == 0 {
		return errors.New("no evaluator command configured")
	}
	cmd := exec.CommandContext(ctx, s.Command[0], s.Args(prNumber)...)
	cmd.Dir = s.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("evaluator exited with code %d", exitErr.ExitCode())
		}
		return fmt.Errorf("failed to run evaluator: %w", err)
	}
	return nil
}
