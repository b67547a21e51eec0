package shell

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`plain`, `plain`},
		{`say "hi"`, `say \"hi\"`},
		{"run `rm -rf`", "run \\`rm -rf\\`"},
		{`$HOME`, `\$HOME`},
		{`a\b`, `a\\b`},
	}

	for _, tt := range tests {
		if got := Escape(tt.input); got != tt.want {
			t.Errorf("Escape(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRender_KeepsQuotesAndBackticksEscaped(t *testing.T) {
	got := Render("gh", "pr", "create", "--title", "[Wizard CI] \"app\" `x`")
	want := "gh pr create --title \"[Wizard CI] \\\"app\\\" \\`x\\`\""
	if got != want {
		t.Errorf("Render() = %s, want %s", got, want)
	}

	// The quoted word must not terminate early: every inner quote is escaped.
	inner := strings.TrimSuffix(strings.SplitN(got, "--title \"", 2)[1], "\"")
	for i := 0; i < len(inner); i++ {
		if (inner[i] == '"' || inner[i] == '`') && (i == 0 || inner[i-1] != '\\') {
			t.Errorf("unescaped %q at %d in %s", inner[i], i, inner)
		}
	}
}

func TestQuote_PlainToken(t *testing.T) {
	if got := Quote("origin"); got != "origin" {
		t.Errorf("Quote(origin) = %s", got)
	}
	if got := Quote(""); got != `""` {
		t.Errorf("Quote(\"\") = %s", got)
	}
}

func TestRun_TrimsOutput(t *testing.T) {
	ctx := context.Background()
	out, err := Run(ctx, ExecRunner{}, t.TempDir(), "echo", "hello  ")
	if err != nil {
		t.Fatal(err)
	}
	if out != "hello" {
		t.Errorf("Run() = %q, want hello", out)
	}
}

func TestRun_FailureIsExitError(t *testing.T) {
	ctx := context.Background()
	_, err := Run(ctx, ExecRunner{}, t.TempDir(), "git", "rev-parse", "--verify", "does-not-exist")
	if err == nil {
		t.Fatal("expected error")
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %T", err)
	}
	if !strings.HasPrefix(exitErr.Command, "git rev-parse") {
		t.Errorf("Command = %q", exitErr.Command)
	}
}

func TestRunSafe_ReturnsAbsent(t *testing.T) {
	out, ok := RunSafe(context.Background(), ExecRunner{}, t.TempDir(), "false")
	if ok || out != "" {
		t.Errorf("RunSafe() = %q, %v; want absent", out, ok)
	}
}

func TestFake_ScriptedResponses(t *testing.T) {
	f := NewFake().
		On("git rev-parse --abbrev-ref HEAD", "main\n", nil).
		Fail("git push", "rejected")

	ctx := context.Background()
	branch, err := Run(ctx, f, "/repo", "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil || branch != "main" {
		t.Errorf("branch = %q, %v", branch, err)
	}
	if _, err := Run(ctx, f, "/repo", "git", "push", "-u", "origin", "x"); err == nil {
		t.Error("expected push failure")
	}
	if !f.Called("git push -u origin x") {
		t.Errorf("push not recorded:\n%s", f.Dump())
	}
	if len(f.Calls()) != 2 {
		t.Errorf("got %d calls, want 2", len(f.Calls()))
	}
}
