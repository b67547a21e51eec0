// Package notify delivers batch and evaluation results to the operator.
package notify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hochfrequenz/wizard-workbench/internal/config"
	"github.com/hochfrequenz/wizard-workbench/internal/domain"
)

// NotificationType represents the type of notification
type NotificationType int

const (
	NotifyInfo NotificationType = iota
	NotifySuccess
	NotifyWarning
	NotifyError
)

// Fact is one labelled value of a result, e.g. "Passed: 3"
type Fact struct {
	Label string
	Value string
}

// Notification represents a notification to be sent
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
	Facts   []Fact
	Link    string // PR or comment the result refers to
}

// Notifier is the interface for sending notifications
type Notifier interface {
	Send(n Notification) error
}

// MultiNotifier sends to multiple notifiers
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that sends to all provided notifiers
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Send sends the notification to all notifiers
func (m *MultiNotifier) Send(n Notification) error {
	var lastErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(n); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// NoopNotifier does nothing (for testing or disabled notifications)
type NoopNotifier struct{}

func (NoopNotifier) Send(n Notification) error { return nil }

// FromConfig builds the configured notifiers, or a NoopNotifier when none is enabled
func FromConfig(cfg config.NotificationsConfig) Notifier {
	var notifiers []Notifier
	if cfg.Desktop {
		notifiers = append(notifiers, NewDesktopNotifier(true))
	}
	if cfg.SlackWebhook != "" {
		notifiers = append(notifiers, NewSlackNotifier(cfg.SlackWebhook))
	}
	if len(notifiers) == 0 {
		return NoopNotifier{}
	}
	return NewMultiNotifier(notifiers...)
}

// BatchSummary describes the end of a multi-app run. failures lists
// "app: reason" lines.
func BatchSummary(name string, passed, total int, failures []string) Notification {
	n := Notification{
		Title:   fmt.Sprintf("Wizard CI %s: %d/%d passed", name, passed, total),
		Message: "All apps passed",
		Type:    NotifySuccess,
		Facts: []Fact{
			{"Batch", name},
			{"Passed", strconv.Itoa(passed)},
			{"Failed", strconv.Itoa(total - passed)},
		},
	}
	if len(failures) > 0 {
		n.Type = NotifyError
		n.Message = strings.Join(failures, "\n")
	}
	return n
}

// EvaluationResult describes a finished PR evaluation
func EvaluationResult(rec *domain.EvaluationRecord) Notification {
	target := "branch " + rec.HeadBranch
	if rec.PRNumber > 0 {
		target = fmt.Sprintf("PR #%d", rec.PRNumber)
	}

	n := Notification{
		Title:   fmt.Sprintf("Evaluation of %s: %d/5", target, rec.OverallScore),
		Message: "Recommendation: " + string(rec.Recommendation),
		Type:    NotifyInfo,
		Link:    rec.CommentURL,
		Facts: []Fact{
			{"Score", fmt.Sprintf("%d/5", rec.OverallScore)},
			{"Recommendation", string(rec.Recommendation)},
			{"Tokens", fmt.Sprintf("%d in / %d out", rec.InputTokens, rec.OutputTokens)},
			{"Cost", fmt.Sprintf("$%.4f", rec.CostUSD)},
		},
	}
	if rec.TestRun != "" {
		n.Facts = append(n.Facts, Fact{"Test run", rec.TestRun})
	}
	switch rec.Recommendation {
	case domain.RecommendApprove:
		n.Type = NotifySuccess
	case domain.RecommendRequestChanges:
		n.Type = NotifyWarning
	}
	return n
}
