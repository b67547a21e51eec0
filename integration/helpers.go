//go:build integration

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// binDir holds the binaries built once by TestMain
var binDir string

// binaryPath returns the path to a built CLI binary
func binaryPath(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(binDir, name)
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("binary %s not built: %v", name, err)
	}
	return p
}

func buildBinaries(dir string) error {
	for _, name := range []string{"wizard-ci", "pr-evaluator"} {
		cmd := exec.Command("go", "build", "-o", filepath.Join(dir, name), "../cmd/"+name)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("build %s: %v\n%s", name, err, out)
		}
	}
	return nil
}

// TempDBPath creates a temporary database path for testing
func TempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "history.db")
}

// setupWorkbench creates a git repository with an apps/ tree containing one
// package.json per named app
func setupWorkbench(t *testing.T, apps ...string) string {
	t.Helper()
	dir := t.TempDir()
	gitCmd(t, dir, "init", "-b", "main")
	gitCmd(t, dir, "config", "user.email", "test@example.com")
	gitCmd(t, dir, "config", "user.name", "Test")

	for _, app := range apps {
		appDir := filepath.Join(dir, "apps", filepath.FromSlash(app))
		if err := os.MkdirAll(appDir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(appDir, "package.json"), []byte("{}\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# workbench\n"), 0644); err != nil {
		t.Fatal(err)
	}
	gitCmd(t, dir, "add", ".")
	gitCmd(t, dir, "commit", "-m", "initial")
	return dir
}

func gitCmd(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}

// createTestConfig writes a config file pointing at root and dbPath
func createTestConfig(t *testing.T, root, dbPath string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.toml")

	config := `[general]
workbench_root = "` + root + `"
apps_dir = "apps"
database_path = "` + dbPath + `"

[git]
base = "main"
branch_prefix = "wizard-ci"

[notifications]
desktop = false
`
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return configPath
}

// runBinary runs a binary with a scrubbed environment. extraEnv entries are
// appended as KEY=value.
func runBinary(t *testing.T, binary string, extraEnv []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binary, args...)
	cmd.Env = append(scrubbedEnv(t), extraEnv...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func scrubbedEnv(t *testing.T) []string {
	home := t.TempDir()
	var env []string
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		switch key {
		case "ANTHROPIC_API_KEY", "POSTHOG_PERSONAL_API_KEY", "POSTHOG_REGION", "WIZARD_PATH", "HOME":
			continue
		}
		env = append(env, kv)
	}
	return append(env, "HOME="+home)
}
