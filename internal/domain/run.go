package domain

import "time"

// App is a discoverable test application inside the apps directory
type App struct {
	Name string // slash-joined path relative to the apps root
	Path string // absolute path
}

// WizardResult is produced once per wizard invocation
type WizardResult struct {
	Success  bool
	Duration time.Duration
	Error    string
}

// CIRun is the persisted record of one app's CI run
type CIRun struct {
	ID         string
	App        string
	Branch     string
	Status     RunStatus
	PRURL      string
	Error      string
	Duration   time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
}

// EvaluationRecord is the persisted record of one evaluation
type EvaluationRecord struct {
	ID             string
	PRNumber       int
	HeadBranch     string
	BaseBranch     string
	OverallScore   int
	Recommendation Recommendation
	CommentURL     string
	TestRun        string
	InputTokens    int
	OutputTokens   int
	CostUSD        float64
	CreatedAt      time.Time
}
