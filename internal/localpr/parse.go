package localpr

import (
	"strconv"
	"strings"

	"github.com/hochfrequenz/wizard-workbench/internal/domain"
)

// Stat holds the line counts of one file
type Stat struct {
	Additions int
	Deletions int
}

// NameStatus is one parsed `git diff --name-status` line
type NameStatus struct {
	Filename string
	Status   domain.FileStatus
}

// ParseNumstat parses `git diff --numstat` output keyed by filename.
// Binary files report "-" and count as zero. Renamed paths are keyed by
// their new name.
func ParseNumstat(out string) map[string]Stat {
	stats := make(map[string]Stat)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.SplitN(strings.TrimRight(line, "\r"), "\t", 3)
		if len(fields) < 3 {
			continue
		}
		stats[renamedPath(fields[2])] = Stat{
			Additions: parseCount(fields[0]),
			Deletions: parseCount(fields[1]),
		}
	}
	return stats
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// renamedPath resolves numstat rename notation ("old => new" and
// "dir/{old => new}/file") to the new path
func renamedPath(p string) string {
	if open := strings.Index(p, "{"); open >= 0 {
		if end := strings.Index(p[open:], "}"); end >= 0 {
			inner := p[open+1 : open+end]
			if _, after, ok := strings.Cut(inner, " => "); ok {
				joined := p[:open] + after + p[open+end+1:]
				return strings.ReplaceAll(joined, "//", "/")
			}
		}
	}
	if _, after, ok := strings.Cut(p, " => "); ok {
		return after
	}
	return p
}

// ParseNameStatus parses `git diff --name-status` output. The filename is
// the last tab-separated field, so renames report their new path.
func ParseNameStatus(out string) []NameStatus {
	var entries []NameStatus
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		entries = append(entries, NameStatus{
			Filename: fields[len(fields)-1],
			Status:   domain.FileStatusFromCode(fields[0]),
		})
	}
	return entries
}
