// Package prompts provides the evaluator prompt fragments with override support.
package prompts

import "embed"

//go:embed evaluator/*.md
var embeddedFS embed.FS
