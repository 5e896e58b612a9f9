package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultListLimit = 50

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	insertRunStmt     *sql.Stmt
	insertMetricStmt  *sql.Stmt
	insertExampleStmt *sql.Stmt
	getRunStmt        *sql.Stmt
	metricsByRunStmt  *sql.Stmt
	examplesByRunStmt *sql.Stmt
}

// NewSQLiteStore opens or creates a SQLite store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store: empty sqlite path")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping sqlite: %w", err)
	}

	if err := initSQLiteSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	st := &SQLiteStore{db: db}
	if err := st.prepareStatements(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func initSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			task TEXT NOT NULL,
			model TEXT NOT NULL,
			num_fewshot INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			doc_limit INTEGER NOT NULL,
			documents INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_metrics (
			run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (run_id, name),
			FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS run_examples (
			run_id TEXT NOT NULL,
			doc_id INTEGER NOT NULL,
			pred TEXT NOT NULL,
			target_json TEXT NOT NULL,
			choices_json TEXT,
			FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_task ON runs(task)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model)`,
		`CREATE INDEX IF NOT EXISTS idx_run_examples_run_id ON run_examples(run_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	specs := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.insertRunStmt, `INSERT INTO runs
			(id, task, model, num_fewshot, seed, doc_limit, documents, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`},
		{&s.insertMetricStmt, `INSERT INTO run_metrics (run_id, name, value) VALUES (?, ?, ?)`},
		{&s.insertExampleStmt, `INSERT INTO run_examples
			(run_id, doc_id, pred, target_json, choices_json) VALUES (?, ?, ?, ?, ?)`},
		{&s.getRunStmt, `SELECT id, task, model, num_fewshot, seed, doc_limit, documents,
			started_at, finished_at FROM runs WHERE id = ?`},
		{&s.metricsByRunStmt, `SELECT name, value FROM run_metrics WHERE run_id = ? ORDER BY name`},
		{&s.examplesByRunStmt, `SELECT doc_id, pred, target_json, choices_json
			FROM run_examples WHERE run_id = ?`},
	}

	for _, spec := range specs {
		stmt, err := s.db.Prepare(spec.query)
		if err != nil {
			return fmt.Errorf("store: prepare statement: %w", err)
		}
		*spec.dst = stmt
	}
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}
	if run == nil {
		return errors.New("store: nil run record")
	}
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("store: run record missing id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.StmtContext(ctx, s.insertRunStmt).ExecContext(ctx,
		run.ID, run.Task, run.Model, run.NumFewshot, run.Seed, run.Limit, run.Documents,
		run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}

	for name, value := range run.Metrics {
		if _, err := tx.StmtContext(ctx, s.insertMetricStmt).ExecContext(ctx,
			run.ID, name, value); err != nil {
			return fmt.Errorf("store: insert metric %q: %w", name, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) SaveExamples(ctx context.Context, examples []ExampleRecord) error {
	if s == nil || s.db == nil {
		return errors.New("store: nil sqlite store")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, ex := range examples {
		targetJSON, err := json.Marshal(ex.Target)
		if err != nil {
			return fmt.Errorf("store: marshal target: %w", err)
		}
		var choicesJSON any
		if len(ex.AnswerChoices) > 0 {
			b, err := json.Marshal(ex.AnswerChoices)
			if err != nil {
				return fmt.Errorf("store: marshal choices: %w", err)
			}
			choicesJSON = string(b)
		}

		if _, err := tx.StmtContext(ctx, s.insertExampleStmt).ExecContext(ctx,
			ex.RunID, ex.DocID, ex.Pred, string(targetJSON), choicesJSON); err != nil {
			return fmt.Errorf("store: insert example: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: nil sqlite store")
	}

	run, err := scanRun(s.getRunStmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: run %q not found", id)
		}
		return nil, fmt.Errorf("store: get run: %w", err)
	}

	rows, err := s.metricsByRunStmt.QueryContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("store: get run metrics: %w", err)
	}
	defer rows.Close()

	run.Metrics = make(map[string]float64)
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("store: scan metric: %w", err)
		}
		run.Metrics[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: nil sqlite store")
	}

	query := `SELECT id, task, model, num_fewshot, seed, doc_limit, documents,
		started_at, finished_at FROM runs`
	var clauses []string
	var args []any
	if v := strings.TrimSpace(filter.Task); v != "" {
		clauses = append(clauses, "task = ?")
		args = append(args, v)
	}
	if v := strings.TrimSpace(filter.Model); v != "" {
		clauses = append(clauses, "model = ?")
		args = append(args, v)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetExamples(ctx context.Context, runID string) ([]ExampleRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: nil sqlite store")
	}

	rows, err := s.examplesByRunStmt.QueryContext(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("store: get examples: %w", err)
	}
	defer rows.Close()

	var out []ExampleRecord
	for rows.Next() {
		ex := ExampleRecord{RunID: runID}
		var targetJSON string
		var choicesJSON sql.NullString
		if err := rows.Scan(&ex.DocID, &ex.Pred, &targetJSON, &choicesJSON); err != nil {
			return nil, fmt.Errorf("store: scan example: %w", err)
		}
		if err := json.Unmarshal([]byte(targetJSON), &ex.Target); err != nil {
			return nil, fmt.Errorf("store: decode target: %w", err)
		}
		if choicesJSON.Valid {
			if err := json.Unmarshal([]byte(choicesJSON.String), &ex.AnswerChoices); err != nil {
				return nil, fmt.Errorf("store: decode choices: %w", err)
			}
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Leaderboard(ctx context.Context, task, metric string, limit int) ([]*LeaderboardEntry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store: nil sqlite store")
	}
	task = strings.TrimSpace(task)
	metric = strings.TrimSpace(metric)
	if task == "" || metric == "" {
		return nil, errors.New("store: leaderboard requires task and metric")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.model, MAX(m.value), r.id, r.finished_at
		FROM runs r JOIN run_metrics m ON m.run_id = r.id
		WHERE r.task = ? AND m.name = ?
		GROUP BY r.model
		ORDER BY MAX(m.value) DESC
		LIMIT ?`, task, metric, limit)
	if err != nil {
		return nil, fmt.Errorf("store: leaderboard: %w", err)
	}
	defer rows.Close()

	var out []*LeaderboardEntry
	for rows.Next() {
		e := &LeaderboardEntry{Task: task, Metric: metric}
		var finishedAt int64
		if err := rows.Scan(&e.Model, &e.Score, &e.RunID, &finishedAt); err != nil {
			return nil, fmt.Errorf("store: scan leaderboard row: %w", err)
		}
		e.EvalDate = time.UnixMilli(finishedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	for _, stmt := range []*sql.Stmt{
		s.insertRunStmt, s.insertMetricStmt, s.insertExampleStmt,
		s.getRunStmt, s.metricsByRunStmt, s.examplesByRunStmt,
	} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var run RunRecord
	var startedAt, finishedAt int64
	if err := row.Scan(&run.ID, &run.Task, &run.Model, &run.NumFewshot, &run.Seed,
		&run.Limit, &run.Documents, &startedAt, &finishedAt); err != nil {
		return nil, err
	}
	run.StartedAt = time.UnixMilli(startedAt)
	run.FinishedAt = time.UnixMilli(finishedAt)
	return &run, nil
}
