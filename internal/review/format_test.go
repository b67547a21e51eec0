package review

import (
	"strings"
	"testing"
)

func TestFormatComment(t *testing.T) {
	ev, err := Decode([]byte(validPayload))
	if err != nil {
		t.Fatal(err)
	}

	comment := FormatComment(ev)
	for _, want := range []string{
		"## PR Evaluation Report",
		"| 3 | +42 | -2 |",
		"| `app/providers.tsx` | 4/5 | Initialises PostHog |",
		"### PostHog Integration: 4/5",
		"**Events Tracked:** todo_created, todo_completed",
		"**Error Tracking:** ✅ Configured",
		"- 🟡 **MEDIUM**: No identify call (in `app/login.tsx`)\n  - Call posthog.identify()",
		"- ✅ Key read from env",
		"### Code Quality: 5/5",
		"| Changes App Logic | ✅ No |",
		"| Disruption Level | low |",
		"### Quality of Insights: 3/5",
		"| Enriched Properties | ❌ |",
		"- ⚠️ No properties",
		"### Overall Score: 4/5",
		"**Recommendation:** ✅ **APPROVE**",
		"Solid integration.",
	} {
		if !strings.Contains(comment, want) {
			t.Errorf("comment missing %q", want)
		}
	}
	if !strings.HasSuffix(comment, "*Generated by PR Evaluation Agent*") {
		t.Error("footer missing")
	}
}

func TestFormatComment_RecommendationAndEmptyLists(t *testing.T) {
	ev, _ := Decode([]byte(validPayload))
	ev.Recommendation = "request_changes"
	ev.PostHogIntegration.EventsTracked = nil
	ev.PostHogIntegration.Issues = nil
	ev.CodeQuality.ChangesAppLogic = true

	comment := FormatComment(ev)
	if !strings.Contains(comment, "❌ **REQUEST CHANGES**") {
		t.Error("recommendation not rendered")
	}
	if !strings.Contains(comment, "**Events Tracked:** None detected") {
		t.Error("empty events not rendered")
	}
	if !strings.Contains(comment, "| Changes App Logic | ⚠️ Yes |") {
		t.Error("logic change should warn")
	}
	if strings.Count(comment, "#### Issues") != 1 {
		t.Errorf("only insights issues should render, got %d sections", strings.Count(comment, "#### Issues"))
	}
}

func TestTableCell(t *testing.T) {
	if got := tableCell("a|b\nc"); got != `a\|b c` {
		t.Errorf("tableCell = %q", got)
	}
}
