package review

import (
	"fmt"
	"strings"

	"github.com/hochfrequenz/wizard-workbench/internal/domain"
)

const commentFooter = "*Generated by PR Evaluation Agent*"

func check(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

// yesBad renders a flag where "yes" is the bad answer
func yesBad(v bool, warn bool) string {
	if !v {
		return "✅ No"
	}
	if warn {
		return "⚠️ Yes"
	}
	return "❌ Yes"
}

func recommendationIcon(r domain.Recommendation) string {
	switch r {
	case domain.RecommendApprove:
		return "✅"
	case domain.RecommendRequestChanges:
		return "❌"
	default:
		return "🤔"
	}
}

func severityIcon(s string) string {
	switch s {
	case "high":
		return "🔴"
	case "medium":
		return "🟡"
	default:
		return "⚪"
	}
}

// FormatComment renders an evaluation as the markdown posted on the PR
func FormatComment(ev *Evaluation) string {
	var b strings.Builder

	b.WriteString("## PR Evaluation Report\n\n### Summary\n")
	b.WriteString(ev.Summary.Overview + "\n\n")
	b.WriteString("| Files Changed | Lines Added | Lines Removed |\n")
	b.WriteString("|--------------|-------------|---------------|\n")
	fmt.Fprintf(&b, "| %d | +%d | -%d |\n", ev.Summary.FilesChanged, ev.Summary.LinesAdded, ev.Summary.LinesRemoved)

	b.WriteString("\n---\n\n### Important Files Changed\n\n")
	b.WriteString("| Filename | Score | Overview |\n")
	b.WriteString("|----------|-------|----------|\n")
	for _, f := range ev.FileAnalysis {
		fmt.Fprintf(&b, "| `%s` | %d/5 | %s |\n", f.Filename, f.Score, tableCell(f.Overview))
	}

	ph := ev.PostHogIntegration
	events := "None detected"
	if len(ph.EventsTracked) > 0 {
		events = strings.Join(ph.EventsTracked, ", ")
	}
	errorTracking := "❌ Not configured"
	if ph.ErrorTrackingSetup {
		errorTracking = "✅ Configured"
	}
	fmt.Fprintf(&b, "\n---\n\n### PostHog Integration: %d/5\n", ph.Score)
	fmt.Fprintf(&b, "**Events Tracked:** %s\n", events)
	fmt.Fprintf(&b, "**Error Tracking:** %s\n", errorTracking)
	if len(ph.Issues) > 0 {
		b.WriteString("\n#### Issues\n")
		for _, issue := range ph.Issues {
			fmt.Fprintf(&b, "- %s **%s**: %s", severityIcon(issue.Severity), strings.ToUpper(issue.Severity), issue.Description)
			if issue.File != "" {
				fmt.Fprintf(&b, " (in `%s`)", issue.File)
			}
			fmt.Fprintf(&b, "\n  - %s\n", issue.Suggestion)
		}
	}
	if len(ph.CriteriaMet) > 0 {
		b.WriteString("\n#### Criteria met\n")
		for _, c := range ph.CriteriaMet {
			fmt.Fprintf(&b, "- ✅ %s\n", c)
		}
	}

	cq := ev.CodeQuality
	fmt.Fprintf(&b, "\n---\n\n### Code Quality: %d/5\n", cq.Score)
	b.WriteString("| Aspect | Status |\n|--------|--------|\n")
	fmt.Fprintf(&b, "| Breaks App | %s |\n", yesBad(cq.BreaksApp, false))
	fmt.Fprintf(&b, "| Overwrites Existing Code | %s |\n", yesBad(cq.OverwritesExistingCode, false))
	fmt.Fprintf(&b, "| Changes App Logic | %s |\n", yesBad(cq.ChangesAppLogic, true))
	fmt.Fprintf(&b, "| Minimal Changes | %s |\n", check(cq.IsMinimal))
	fmt.Fprintf(&b, "| Understandable | %s |\n", check(cq.IsUnderstandable))
	fmt.Fprintf(&b, "| Disruption Level | %s |\n", cq.DisruptionLevel)
	if len(cq.Issues) > 0 {
		b.WriteString("\n#### Issues\n")
		for _, issue := range cq.Issues {
			fmt.Fprintf(&b, "- **%s**: %s", issue.Type, issue.Description)
			if issue.File != "" {
				fmt.Fprintf(&b, " (in `%s`)", issue.File)
			}
			b.WriteString("\n")
		}
	}

	iq := ev.InsightsQuality
	fmt.Fprintf(&b, "\n---\n\n### Quality of Insights: %d/5\n", iq.Score)
	b.WriteString("| Aspect | Status |\n|--------|--------|\n")
	fmt.Fprintf(&b, "| Meaningful Events | %s |\n", check(iq.MeaningfulEvents))
	fmt.Fprintf(&b, "| Enriched Properties | %s |\n", check(iq.EnrichedProperties))
	fmt.Fprintf(&b, "| Answers Product Questions | %s |\n", check(iq.AnswersProductQuestions))
	if len(iq.Issues) > 0 {
		b.WriteString("\n#### Issues\n")
		for _, issue := range iq.Issues {
			fmt.Fprintf(&b, "- ⚠️ %s\n", issue)
		}
	}
	if len(iq.Strengths) > 0 {
		b.WriteString("\n#### Strengths\n")
		for _, s := range iq.Strengths {
			fmt.Fprintf(&b, "- ✅ %s\n", s)
		}
	}

	fmt.Fprintf(&b, "\n---\n\n### Overall Score: %d/5\n", ev.OverallScore)
	rec := strings.ToUpper(strings.ReplaceAll(string(ev.Recommendation), "_", " "))
	fmt.Fprintf(&b, "**Recommendation:** %s **%s**\n", recommendationIcon(ev.Recommendation), rec)

	if ev.ReviewComment != "" {
		b.WriteString("\n" + strings.TrimSpace(ev.ReviewComment) + "\n")
	}

	b.WriteString("\n---\n" + commentFooter)
	return b.String()
}

// tableCell keeps free text from breaking a markdown table row
func tableCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}
