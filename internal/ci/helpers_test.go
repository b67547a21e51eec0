package ci

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hochfrequenz/wizard-workbench/internal/domain"
	"github.com/hochfrequenz/wizard-workbench/internal/git"
	"github.com/hochfrequenz/wizard-workbench/internal/github"
	"github.com/hochfrequenz/wizard-workbench/internal/prbot"
	"github.com/hochfrequenz/wizard-workbench/internal/ui"
)

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %s", args, out)
	}
	return strings.TrimSpace(string(out))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// setupWorkbench creates a repository with two apps under apps/web and a
// bare repository as its origin
func setupWorkbench(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "workbench")
	remote := filepath.Join(base, "remote.git")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatal(err)
	}

	runGit(t, base, "init", "--bare", remote)
	runGit(t, root, "init", "-b", "main")
	runGit(t, root, "config", "user.email", "test@test.com")
	runGit(t, root, "config", "user.name", "Test")
	runGit(t, root, "remote", "add", "origin", remote)

	writeFile(t, root, "README.md", "# Workbench\n")
	writeFile(t, root, "apps/web/todo/package.json", `{"name":"todo"}`+"\n")
	writeFile(t, root, "apps/web/shop/package.json", `{"name":"shop"}`+"\n")
	runGit(t, root, "add", ".")
	runGit(t, root, "commit", "-m", "Initial commit")
	return root
}

func app(root, name string) domain.App {
	return domain.App{Name: name, Path: filepath.Join(root, "apps", filepath.FromSlash(name))}
}

// wizardFunc adapts a function to Wizard
type wizardFunc func(ctx context.Context, app domain.App) domain.WizardResult

func (f wizardFunc) Run(ctx context.Context, app domain.App) domain.WizardResult { return f(ctx, app) }

// addsPostHog writes a provider file into the app, as the wizard would
func addsPostHog(t *testing.T) wizardFunc {
	return func(ctx context.Context, a domain.App) domain.WizardResult {
		writeFile(t, a.Path, "posthog.ts", "export const posthog = init()\n")
		return domain.WizardResult{Success: true, Duration: 1500 * time.Millisecond}
	}
}

func noop(ctx context.Context, a domain.App) domain.WizardResult {
	return domain.WizardResult{Success: true}
}

type fakeCreator struct {
	calls []github.CreatePROptions
	err   error
}

func (f *fakeCreator) CreatePR(ctx context.Context, opts github.CreatePROptions) (string, error) {
	f.calls = append(f.calls, opts)
	if f.err != nil {
		return "", f.err
	}
	return "https://github.com/hochfrequenz/wizard-workbench/pull/12", nil
}

type fakeEvaluator struct {
	prs []int
	err error
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, pr int) error {
	f.prs = append(f.prs, pr)
	return f.err
}

type harness struct {
	orch     *Orchestrator
	creator  *fakeCreator
	prompter *ui.MockPrompter
	out      *bytes.Buffer
	root     string
}

func newHarness(t *testing.T, w Wizard) *harness {
	t.Helper()
	root := setupWorkbench(t)
	repo := git.New(root, nil)
	creator := &fakeCreator{}
	prompter := &ui.MockPrompter{}
	var out bytes.Buffer

	return &harness{
		orch: &Orchestrator{
			Repo:     repo,
			Bot:      prbot.NewPRBot(repo, creator),
			Wizard:   w,
			Prompter: prompter,
			Out:      ui.NewPrinter(&out),
			Opts: Options{
				Base:         "main",
				Remote:       "origin",
				BranchPrefix: "wizard-ci",
			},
			newID: func() string { return "abc1234" },
		},
		creator:  creator,
		prompter: prompter,
		out:      &out,
		root:     root,
	}
}

func (h *harness) branches(t *testing.T) []string {
	t.Helper()
	out := runGit(t, h.root, "branch", "--format=%(refname:short)")
	return strings.Fields(out)
}
