package prompts

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/hochfrequenz/wizard-workbench/internal/domain"
	"gopkg.in/yaml.v3"
)

// System prompt fragments, in the order they are joined
var systemFragments = []string{
	"evaluator/task.md",
	"evaluator/evaluation.md",
	"evaluator/output-format.md",
}

const userTemplate = "evaluator/pr.md"

// Loader manages prompt templates with override support.
type Loader struct {
	overrideDirs []string // Directories to check for overrides (in priority order)
	cache        map[string]*template.Template
	metaCache    map[string]*FragmentMeta
	mu           sync.RWMutex
}

// FragmentMeta holds frontmatter metadata of a prompt fragment.
type FragmentMeta struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Path        string `yaml:"-"`
	Source      string `yaml:"-"` // "embedded" or the override file path
}

// NewLoader creates a loader with the given override directories.
// Directories are checked in order; first match wins.
func NewLoader(overrideDirs ...string) *Loader {
	return &Loader{
		overrideDirs: overrideDirs,
		cache:        make(map[string]*template.Template),
		metaCache:    make(map[string]*FragmentMeta),
	}
}

// DefaultLoader creates a loader with standard override paths:
// 1. Workbench-local: .wizard-workbench/prompts/
// 2. User config: ~/.config/wizard-workbench/prompts/
func DefaultLoader(workbenchRoot string) *Loader {
	home, _ := os.UserHomeDir()
	dirs := []string{}

	if workbenchRoot != "" {
		dirs = append(dirs, filepath.Join(workbenchRoot, ".wizard-workbench", "prompts"))
	}
	dirs = append(dirs, filepath.Join(home, ".config", "wizard-workbench", "prompts"))

	return NewLoader(dirs...)
}

// loadContent loads raw content from override dirs or the embedded FS and
// reports where it came from.
func (l *Loader) loadContent(name string) ([]byte, string, error) {
	for _, dir := range l.overrideDirs {
		fullPath := filepath.Join(dir, filepath.FromSlash(name))
		if data, err := os.ReadFile(fullPath); err == nil {
			return data, fullPath, nil
		}
	}

	data, err := fs.ReadFile(embeddedFS, name)
	return data, "embedded", err
}

// parseFrontmatter splits content into frontmatter and body.
func parseFrontmatter(content []byte) (*FragmentMeta, string, error) {
	str := strings.ReplaceAll(string(content), "\r\n", "\n")

	if !strings.HasPrefix(str, "---\n") {
		return nil, str, nil
	}

	end := strings.Index(str[4:], "\n---\n")
	if end == -1 {
		return nil, str, nil // Malformed, treat as no frontmatter
	}

	frontmatter := str[4 : 4+end]
	body := str[4+end+5:]

	var meta FragmentMeta
	if err := yaml.Unmarshal([]byte(frontmatter), &meta); err != nil {
		return nil, "", fmt.Errorf("parse frontmatter: %w", err)
	}

	return &meta, body, nil
}

// LoadTemplate loads and parses a template by path (e.g., "evaluator/pr.md").
func (l *Loader) LoadTemplate(name string) (*template.Template, *FragmentMeta, error) {
	l.mu.RLock()
	if tmpl, ok := l.cache[name]; ok {
		meta := l.metaCache[name]
		l.mu.RUnlock()
		return tmpl, meta, nil
	}
	l.mu.RUnlock()

	content, source, err := l.loadContent(name)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", name, err)
	}

	meta, body, err := parseFrontmatter(content)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if meta == nil {
		meta = &FragmentMeta{ID: strings.TrimSuffix(path.Base(name), ".md")}
	}
	meta.Path = name
	meta.Source = source

	tmpl, err := template.New(name).Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, nil, fmt.Errorf("compile template %s: %w", name, err)
	}

	l.mu.Lock()
	l.cache[name] = tmpl
	l.metaCache[name] = meta
	l.mu.Unlock()

	return tmpl, meta, nil
}

// Execute loads and executes a template with the given data.
func (l *Loader) Execute(name string, data any) (string, error) {
	tmpl, _, err := l.LoadTemplate(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}

	return buf.String(), nil
}

// BuildSystemPrompt joins the task, evaluation criteria and output format
// fragments with blank lines
func (l *Loader) BuildSystemPrompt() (string, error) {
	parts := make([]string, 0, len(systemFragments))
	for _, name := range systemFragments {
		text, err := l.Execute(name, nil)
		if err != nil {
			return "", err
		}
		parts = append(parts, strings.TrimSpace(text))
	}
	return strings.Join(parts, "\n\n"), nil
}

// BuildUserPrompt renders the per-PR context block: metadata, description,
// file list and the fenced diff
func (l *Loader) BuildUserPrompt(pr *domain.PRData) (string, error) {
	out, err := l.Execute(userTemplate, pr)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// Fragments returns the metadata of every fragment the evaluator uses, in
// prompt order
func (l *Loader) Fragments() ([]*FragmentMeta, error) {
	names := append(append([]string{}, systemFragments...), userTemplate)
	result := make([]*FragmentMeta, 0, len(names))
	for _, name := range names {
		_, meta, err := l.LoadTemplate(name)
		if err != nil {
			return nil, err
		}
		result = append(result, meta)
	}
	return result, nil
}
