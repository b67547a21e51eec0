package evaluator

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Artifact file names inside a test-run directory
const (
	PromptFile = "prompt.md"
	OutputFile = "output.md"
	UsageFile  = "usage.md"
)

// WriteArtifacts stores the prompt, the comment and a usage table in dir
func WriteArtifacts(dir, prompt string, res *Result) error {
	files := map[string]string{
		PromptFile: prompt,
		OutputFile: res.ReviewComment,
		UsageFile:  UsageTable(res),
	}
	for _, name := range []string{PromptFile, OutputFile, UsageFile} {
		if err := writeFile(filepath.Join(dir, name), files[name]); err != nil {
			return err
		}
	}
	return nil
}

// UsageTable renders token and cost usage as a markdown table
func UsageTable(res *Result) string {
	u := res.Usage
	var b strings.Builder
	b.WriteString("# Usage\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Input tokens | %d |\n", u.InputTokens)
	fmt.Fprintf(&b, "| Output tokens | %d |\n", u.OutputTokens)
	fmt.Fprintf(&b, "| Cache creation tokens | %d |\n", u.CacheCreationInputTokens)
	fmt.Fprintf(&b, "| Cache read tokens | %d |\n", u.CacheReadInputTokens)
	fmt.Fprintf(&b, "| Total cost | $%.4f |\n", res.CostUSD)
	if res.Evaluation != nil {
		fmt.Fprintf(&b, "| Overall score | %d/5 |\n", res.Evaluation.OverallScore)
		fmt.Fprintf(&b, "| Recommendation | %s |\n", res.Evaluation.Recommendation)
	}
	return b.String()
}
