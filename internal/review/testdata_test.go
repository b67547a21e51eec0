package review

const validPayload = `{
  "schemaVersion": 3,
  "summary": {"overview": "Adds PostHog to the todo app", "filesChanged": 3, "linesAdded": 42, "linesRemoved": 2},
  "fileAnalysis": [{"filename": "app/providers.tsx", "score": 4, "overview": "Initialises PostHog"}],
  "posthogIntegration": {
    "score": 4,
    "eventsTracked": ["todo_created", "todo_completed"],
    "errorTrackingSetup": true,
    "issues": [{"severity": "medium", "description": "No identify call", "file": "app/login.tsx", "suggestion": "Call posthog.identify()"}],
    "criteriaMet": ["Key read from env"]
  },
  "codeQuality": {
    "score": 5,
    "breaksApp": false,
    "overwritesExistingCode": false,
    "changesAppLogic": false,
    "isMinimal": true,
    "isUnderstandable": true,
    "disruptionLevel": "low",
    "issues": []
  },
  "insightsQuality": {
    "score": 3,
    "meaningfulEvents": true,
    "enrichedProperties": false,
    "answersProductQuestions": true,
    "issues": ["No properties"],
    "strengths": ["Covers the todo funnel"]
  },
  "overallScore": 4,
  "recommendation": "approve",
  "reviewComment": "Solid integration."
}`
