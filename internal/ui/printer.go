// Package ui renders the operator-facing step log and interactive prompts.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const ruleWidth = 50

const indent = "      "

// Printer writes the step-numbered progress log. Colour is decided by the
// renderer bound to the writer, so a bytes.Buffer gets plain text.
type Printer struct {
	w io.Writer

	titleStyle   lipgloss.Style
	stepStyle    lipgloss.Style
	successStyle lipgloss.Style
	warnStyle    lipgloss.Style
	errorStyle   lipgloss.Style
	dimStyle     lipgloss.Style
}

// NewPrinter returns a Printer writing to w
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:            w,
		titleStyle:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		stepStyle:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		successStyle: r.NewStyle().Foreground(lipgloss.Color("42")),
		warnStyle:    r.NewStyle().Foreground(lipgloss.Color("214")),
		errorStyle:   r.NewStyle().Foreground(lipgloss.Color("196")),
		dimStyle:     r.NewStyle().Foreground(lipgloss.Color("244")),
	}
}

// Writer exposes the underlying writer
func (p *Printer) Writer() io.Writer { return p.w }

// Section prints a title between thin rules
func (p *Printer) Section(title string) {
	rule := strings.Repeat("─", ruleWidth)
	fmt.Fprintf(p.w, "\n%s\n%s\n%s\n\n", rule, p.titleStyle.Render(title), rule)
}

// Banner prints a title between heavy rules, used for summaries
func (p *Printer) Banner(title string) {
	rule := strings.Repeat("═", ruleWidth)
	fmt.Fprintf(p.w, "\n%s\n%s\n%s\n\n", rule, p.titleStyle.Render(title), rule)
}

// Step prints "[n/total] msg"
func (p *Printer) Step(n, total int, msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.stepStyle.Render(fmt.Sprintf("[%d/%d]", n, total)), msg)
}

// Tag prints "[TAG] msg" for steps outside the numbered sequence
func (p *Printer) Tag(tag, msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.stepStyle.Render("["+tag+"]"), msg)
}

// Detail prints an indented line under the current step
func (p *Printer) Detail(format string, args ...any) {
	fmt.Fprintf(p.w, "%s%s\n", indent, fmt.Sprintf(format, args...))
}

// Item prints a nested list entry
func (p *Printer) Item(s string) {
	fmt.Fprintf(p.w, "%s  %s\n", indent, p.dimStyle.Render(s))
}

// Command echoes a rendered command line
func (p *Printer) Command(line string) {
	fmt.Fprintf(p.w, "%s%s\n", indent, p.dimStyle.Render("$ "+line))
}

func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintf(p.w, "%s%s\n", indent, p.successStyle.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.w, "%s%s\n", indent, p.warnStyle.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintf(p.w, "%s%s\n", indent, p.errorStyle.Render(fmt.Sprintf(format, args...)))
}

// Println writes an unindented line
func (p *Printer) Println(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Blank writes an empty line
func (p *Printer) Blank() {
	fmt.Fprintln(p.w)
}
