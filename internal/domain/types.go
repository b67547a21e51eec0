package domain

// FileStatus is the change type of a file within a PR
type FileStatus string

const (
	FileAdded    FileStatus = "added"
	FileRemoved  FileStatus = "removed"
	FileModified FileStatus = "modified"
	FileRenamed  FileStatus = "renamed"
)

// FileStatusFromCode maps a git name-status code (A, D, R100, M, ...) to a FileStatus.
// Anything that is not an add, delete or rename counts as a modification.
func FileStatusFromCode(code string) FileStatus {
	if code == "" {
		return FileModified
	}
	switch code[0] {
	case 'A':
		return FileAdded
	case 'D':
		return FileRemoved
	case 'R':
		return FileRenamed
	default:
		return FileModified
	}
}

// RunStatus represents the outcome of one app's CI run
type RunStatus string

const (
	RunPassed    RunStatus = "passed"
	RunNoChanges RunStatus = "no_changes"
	RunLocal     RunStatus = "local"
	RunFailed    RunStatus = "failed"
	RunSkipped   RunStatus = "skipped"
)

// Passed reports whether the status counts towards the pass tally
func (s RunStatus) Passed() bool {
	return s == RunPassed || s == RunNoChanges || s == RunLocal
}

// Recommendation is the evaluator's verdict on a PR
type Recommendation string

const (
	RecommendApprove         Recommendation = "approve"
	RecommendRequestChanges  Recommendation = "request_changes"
	RecommendNeedsDiscussion Recommendation = "needs_discussion"
)

// Valid reports whether r is one of the known recommendations
func (r Recommendation) Valid() bool {
	switch r {
	case RecommendApprove, RecommendRequestChanges, RecommendNeedsDiscussion:
		return true
	}
	return false
}
