package ui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// ErrNonInteractive is returned by selections when no terminal is attached
var ErrNonInteractive = errors.New("no terminal attached; pass the choice as a flag")

// Prompter asks the operator to choose or confirm
type Prompter interface {
	// Select returns the index of the chosen item
	Select(label string, items []string) (int, error)
	// Confirm asks a y/n question
	Confirm(question string) (bool, error)
}

// TerminalPrompter prompts on the controlling terminal
type TerminalPrompter struct {
	interactive bool
}

// NewTerminalPrompter returns a prompter bound to stdin. Without a terminal,
// Confirm declines and Select fails.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{interactive: term.IsTerminal(int(os.Stdin.Fd()))}
}

func (t *TerminalPrompter) Select(label string, items []string) (int, error) {
	if len(items) == 0 {
		return 0, fmt.Errorf("nothing to select for %q", label)
	}
	if !t.interactive {
		return 0, ErrNonInteractive
	}

	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  12,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(items[index]), strings.ToLower(input))
		},
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return 0, fmt.Errorf("selection failed: %w", err)
	}
	return idx, nil
}

func (t *TerminalPrompter) Confirm(question string) (bool, error) {
	if !t.interactive {
		return false, nil
	}

	prompt := promptui.Prompt{
		Label:     question,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return true, nil
}

// AutoConfirm answers yes to every Confirm and delegates Select
type AutoConfirm struct {
	Prompter
}

func (AutoConfirm) Confirm(string) (bool, error) { return true, nil }
