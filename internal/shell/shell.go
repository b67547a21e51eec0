// Package shell runs external commands (git, gh, node) against a working
// directory. Commands are executed as argv, never through a shell.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a command in dir and returns its stdout
type Runner interface {
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExitError is returned when a command exits non-zero or cannot be started
type ExitError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s: %v", e.Command, e.Stderr, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	Env []string // appended to the inherited environment
}

// Output implements Runner
func (r ExecRunner) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return out, &ExitError{
			Command: Render(name, args...),
			Stderr:  strings.TrimSpace(stderr.String()),
			Err:     err,
		}
	}
	return out, nil
}

// Run executes the command and returns stdout with trailing whitespace trimmed
func Run(ctx context.Context, r Runner, dir, name string, args ...string) (string, error) {
	out, err := r.Output(ctx, dir, name, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), " \t\r\n"), nil
}

// RunSafe is Run for commands whose failure means "no value".
// The boolean is false when the command failed.
func RunSafe(ctx context.Context, r Runner, dir, name string, args ...string) (string, bool) {
	out, err := Run(ctx, r, dir, name, args...)
	if err != nil {
		return "", false
	}
	return out, true
}

// Raw executes the command and returns stdout untouched. Diffs need this
// because trailing context lines are significant.
func Raw(ctx context.Context, r Runner, dir, name string, args ...string) (string, error) {
	out, err := r.Output(ctx, dir, name, args...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
