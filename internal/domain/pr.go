package domain

// PRData is a reviewable unit of change, backed either by a remote pull
// request or by a local branch compared against its base.
// Number is 0 when there is no remote PR.
type PRData struct {
	Number      int
	Title       string
	Description string
	Author      string
	BaseBranch  string
	HeadBranch  string
	Diff        string
	Files       []PRFile
}

// PRFile is one changed file of a PRData
type PRFile struct {
	Filename  string
	Status    FileStatus
	Additions int
	Deletions int
	Patch     string // empty when the per-file patch could not be retrieved
}

// IsLocal reports whether the data was synthesized from a local branch
func (p *PRData) IsLocal() bool {
	return p.Number == 0
}

// Totals sums additions and deletions across all files
func (p *PRData) Totals() (additions, deletions int) {
	for _, f := range p.Files {
		additions += f.Additions
		deletions += f.Deletions
	}
	return additions, deletions
}

// EvaluateResult is produced once per evaluation run
type EvaluateResult struct {
	ReviewComment string
	CommentURL    string
}
