// Package runstore keeps the SQLite history of CI runs and evaluations.
package runstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hochfrequenz/wizard-workbench/internal/domain"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed run history
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Batch is one scheduled or manual multi-app run
type Batch struct {
	ID         string
	Name       string
	StartedAt  time.Time
	FinishedAt time.Time
	Passed     int
	Failed     int
}

// StartBatch records the start of a batch and returns its ID
func (s *Store) StartBatch(name string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO batches (id, name, started_at) VALUES (?, ?, ?)`,
		id, name, time.Now())
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishBatch stores the final counts of a batch
func (s *Store) FinishBatch(id string, passed, failed int) error {
	_, err := s.db.Exec(`UPDATE batches SET finished_at = ?, apps_passed = ?, apps_failed = ? WHERE id = ?`,
		time.Now(), passed, failed, id)
	return err
}

// ListBatches returns the most recent batches first
func (s *Store) ListBatches(limit int) ([]*Batch, error) {
	rows, err := s.db.Query(`
		SELECT id, name, started_at, finished_at, apps_passed, apps_failed
		FROM batches ORDER BY started_at DESC LIMIT ?
	`, limitOrAll(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*Batch
	for rows.Next() {
		var b Batch
		var finished sql.NullTime
		if err := rows.Scan(&b.ID, &b.Name, &b.StartedAt, &finished, &b.Passed, &b.Failed); err != nil {
			return nil, err
		}
		if finished.Valid {
			b.FinishedAt = finished.Time
		}
		batches = append(batches, &b)
	}
	return batches, rows.Err()
}

// SaveRun inserts a CI run. An empty ID is filled in.
func (s *Store) SaveRun(run *domain.CIRun, batchID string) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`
		INSERT INTO ci_runs (id, batch_id, app, branch, status, pr_url, error, duration_ms, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		nullString(batchID),
		run.App,
		run.Branch,
		string(run.Status),
		run.PRURL,
		run.Error,
		run.Duration.Milliseconds(),
		run.StartedAt,
		run.FinishedAt,
	)
	return err
}

// RunListOptions specifies filters for listing runs
type RunListOptions struct {
	App     string
	BatchID string
	Limit   int
}

// ListRuns returns runs matching opts, newest first
func (s *Store) ListRuns(opts RunListOptions) ([]*domain.CIRun, error) {
	query := `SELECT id, app, branch, status, pr_url, error, duration_ms, started_at, finished_at FROM ci_runs WHERE 1=1`
	var args []interface{}

	if opts.App != "" {
		query += " AND app = ?"
		args = append(args, opts.App)
	}
	if opts.BatchID != "" {
		query += " AND batch_id = ?"
		args = append(args, opts.BatchID)
	}

	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limitOrAll(opts.Limit))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.CIRun
	for rows.Next() {
		var run domain.CIRun
		var status string
		var branch, prURL, errMsg sql.NullString
		var durationMS int64
		if err := rows.Scan(&run.ID, &run.App, &branch, &status, &prURL, &errMsg, &durationMS, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		run.Status = domain.RunStatus(status)
		run.Branch = branch.String
		run.PRURL = prURL.String
		run.Error = errMsg.String
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// SaveEvaluation inserts an evaluation record. Zero ID and CreatedAt are filled in.
func (s *Store) SaveEvaluation(rec *domain.EvaluationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO evaluations (id, pr_number, head_branch, base_branch, overall_score, recommendation, comment_url, test_run, tokens_input, tokens_output, cost_usd, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.PRNumber,
		rec.HeadBranch,
		rec.BaseBranch,
		rec.OverallScore,
		string(rec.Recommendation),
		rec.CommentURL,
		rec.TestRun,
		rec.InputTokens,
		rec.OutputTokens,
		rec.CostUSD,
		rec.CreatedAt,
	)
	return err
}

// ListEvaluations returns evaluations, newest first. prNumber 0 means all.
func (s *Store) ListEvaluations(prNumber, limit int) ([]*domain.EvaluationRecord, error) {
	query := `SELECT id, pr_number, head_branch, base_branch, overall_score, recommendation, comment_url, test_run, tokens_input, tokens_output, cost_usd, created_at FROM evaluations WHERE 1=1`
	var args []interface{}
	if prNumber > 0 {
		query += " AND pr_number = ?"
		args = append(args, prNumber)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limitOrAll(limit))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*domain.EvaluationRecord
	for rows.Next() {
		var rec domain.EvaluationRecord
		var recommendation string
		var head, base, commentURL, testRun sql.NullString
		err := rows.Scan(&rec.ID, &rec.PRNumber, &head, &base, &rec.OverallScore, &recommendation,
			&commentURL, &testRun, &rec.InputTokens, &rec.OutputTokens, &rec.CostUSD, &rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		rec.Recommendation = domain.Recommendation(recommendation)
		rec.HeadBranch = head.String
		rec.BaseBranch = base.String
		rec.CommentURL = commentURL.String
		rec.TestRun = testRun.String
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

func limitOrAll(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
