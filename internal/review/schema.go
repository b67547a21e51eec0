// Package review holds the evaluation schema the agent must return, along
// with extraction, validation and rendering of it as a PR comment.
package review

import "github.com/hochfrequenz/wizard-workbench/internal/domain"

// SchemaVersion identifies the evaluation shape below. Payloads may omit
// the version; any other value than this one is rejected.
//
// Every field without omitempty must be present in a payload. The validate
// tags constrain values; "score" is the 1-5 range.
const SchemaVersion = 3

// Evaluation is the structured review returned by the agent
type Evaluation struct {
	SchemaVersion      int                   `json:"schemaVersion,omitempty" validate:"omitempty,eq=3"`
	Summary            Summary               `json:"summary"`
	FileAnalysis       []FileAnalysis        `json:"fileAnalysis" validate:"dive"`
	PostHogIntegration PostHogIntegration    `json:"posthogIntegration"`
	CodeQuality        CodeQuality           `json:"codeQuality"`
	InsightsQuality    InsightsQuality       `json:"insightsQuality"`
	OverallScore       int                   `json:"overallScore" validate:"score"`
	Recommendation     domain.Recommendation `json:"recommendation" validate:"oneof=approve request_changes needs_discussion"`
	ReviewComment      string                `json:"reviewComment"`
}

type Summary struct {
	Overview     string `json:"overview"`
	FilesChanged int    `json:"filesChanged" validate:"min=0"`
	LinesAdded   int    `json:"linesAdded" validate:"min=0"`
	LinesRemoved int    `json:"linesRemoved" validate:"min=0"`
}

type FileAnalysis struct {
	Filename string `json:"filename" validate:"required"`
	Score    int    `json:"score" validate:"score"`
	Overview string `json:"overview"`
}

type PostHogIntegration struct {
	Score              int            `json:"score" validate:"score"`
	EventsTracked      []string       `json:"eventsTracked"`
	ErrorTrackingSetup bool           `json:"errorTrackingSetup"`
	Issues             []PostHogIssue `json:"issues" validate:"dive"`
	CriteriaMet        []string       `json:"criteriaMet"`
}

type PostHogIssue struct {
	Severity    string `json:"severity" validate:"oneof=low medium high"`
	Description string `json:"description"`
	File        string `json:"file,omitempty"`
	Suggestion  string `json:"suggestion"`
}

type CodeQuality struct {
	Score                  int         `json:"score" validate:"score"`
	BreaksApp              bool        `json:"breaksApp"`
	OverwritesExistingCode bool        `json:"overwritesExistingCode"`
	ChangesAppLogic        bool        `json:"changesAppLogic"`
	IsMinimal              bool        `json:"isMinimal"`
	IsUnderstandable       bool        `json:"isUnderstandable"`
	DisruptionLevel        string      `json:"disruptionLevel" validate:"oneof=none low medium high"`
	Issues                 []CodeIssue `json:"issues" validate:"dive"`
}

type CodeIssue struct {
	Type        string `json:"type" validate:"oneof=breaking logic syntax import config style"`
	Description string `json:"description"`
	File        string `json:"file,omitempty"`
}

type InsightsQuality struct {
	Score                   int      `json:"score" validate:"score"`
	MeaningfulEvents        bool     `json:"meaningfulEvents"`
	EnrichedProperties      bool     `json:"enrichedProperties"`
	AnswersProductQuestions bool     `json:"answersProductQuestions"`
	Issues                  []string `json:"issues"`
	Strengths               []string `json:"strengths"`
}
