package runstore

const schema = `
CREATE TABLE IF NOT EXISTS batches (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    started_at TIMESTAMP,
    finished_at TIMESTAMP,
    apps_passed INTEGER DEFAULT 0,
    apps_failed INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS ci_runs (
    id TEXT PRIMARY KEY,
    batch_id TEXT REFERENCES batches(id),
    app TEXT NOT NULL,
    branch TEXT,
    status TEXT NOT NULL,
    pr_url TEXT,
    error TEXT,
    duration_ms INTEGER,
    started_at TIMESTAMP,
    finished_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ci_runs_app ON ci_runs(app);
CREATE INDEX IF NOT EXISTS idx_ci_runs_started_at ON ci_runs(started_at);

CREATE TABLE IF NOT EXISTS evaluations (
    id TEXT PRIMARY KEY,
    pr_number INTEGER,
    head_branch TEXT,
    base_branch TEXT,
    overall_score INTEGER,
    recommendation TEXT,
    comment_url TEXT,
    test_run TEXT,
    tokens_input INTEGER,
    tokens_output INTEGER,
    cost_usd REAL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_evaluations_pr_number ON evaluations(pr_number);
`
