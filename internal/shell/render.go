package shell

import "strings"

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"`", "\\`",
	`$`, `\$`,
)

// Escape neutralizes the characters that are special inside a double-quoted
// shell word: backslash, double quote, backtick and dollar.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Quote returns s as a double-quoted shell word, unquoted when it is a plain token
func Quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n\"'`$\\|&;<>()*?[]{}#~!") {
		return s
	}
	return `"` + Escape(s) + `"`
}

// Render formats a command line the way it could be pasted into a shell.
// Used for the step log and for error messages.
func Render(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, Quote(name))
	for _, a := range args {
		parts = append(parts, Quote(a))
	}
	return strings.Join(parts, " ")
}
