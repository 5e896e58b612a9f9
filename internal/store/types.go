package store

import (
	"context"
	"time"
)

// RunRecord stores one benchmark run: which task, which model, the
// sampling configuration, and the aggregated metric scores.
type RunRecord struct {
	ID         string
	Task       string
	Model      string
	NumFewshot int
	Seed       int64
	Limit      int
	Documents  int
	StartedAt  time.Time
	FinishedAt time.Time
	Metrics    map[string]float64
}

// ExampleRecord stores one saved prediction/target pair for qualitative
// inspection.
type ExampleRecord struct {
	RunID         string
	DocID         int
	Pred          string
	Target        []string
	AnswerChoices []string
}

// LeaderboardEntry is one row of the per-task leaderboard: a model's best
// score on one metric.
type LeaderboardEntry struct {
	Task     string
	Model    string
	Metric   string
	Score    float64
	RunID    string
	EvalDate time.Time
}

// RunFilter filters run listings.
type RunFilter struct {
	Task  string
	Model string
	Limit int
}

// RunWriter defines persistence for runs and saved examples.
type RunWriter interface {
	SaveRun(ctx context.Context, run *RunRecord) error
	SaveExamples(ctx context.Context, examples []ExampleRecord) error
}

// RunReader defines read access to stored runs.
type RunReader interface {
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*RunRecord, error)
	GetExamples(ctx context.Context, runID string) ([]ExampleRecord, error)
}

// Analytics defines query helpers over run history.
type Analytics interface {
	Leaderboard(ctx context.Context, task, metric string, limit int) ([]*LeaderboardEntry, error)
}

// Store defines persistence for benchmark runs.
type Store interface {
	RunWriter
	RunReader
	Analytics
	Close() error
}
