// Package apps discovers the test applications the wizard is run against.
package apps

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hochfrequenz/wizard-workbench/internal/domain"
)

// Find walks root and returns every directory containing manifest. The walk
// does not descend into an app, nor into hidden directories or node_modules.
// Results are sorted by name.
func Find(root, manifest string) ([]domain.App, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("apps directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("apps directory %s is not a directory", absRoot)
	}

	var found []domain.App
	err = filepath.WalkDir(absRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != absRoot && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules") {
			return filepath.SkipDir
		}
		if path == absRoot {
			return nil
		}
		if _, err := os.Stat(filepath.Join(path, manifest)); err == nil {
			rel, _ := filepath.Rel(absRoot, path)
			found = append(found, domain.App{Name: filepath.ToSlash(rel), Path: path})
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
	return found, nil
}

// Match returns the apps whose name equals target or ends with "/"+target
func Match(all []domain.App, target string) []domain.App {
	target = strings.Trim(filepath.ToSlash(target), "/")
	for _, a := range all {
		if a.Name == target {
			return []domain.App{a}
		}
	}
	var matches []domain.App
	for _, a := range all {
		if strings.HasSuffix(a.Name, "/"+target) {
			matches = append(matches, a)
		}
	}
	return matches
}

// Names returns the names of apps
func Names(all []domain.App) []string {
	names := make([]string, len(all))
	for i, a := range all {
		names[i] = a.Name
	}
	return names
}
