package runner

import (
	"time"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/task"
)

// Options configures one evaluation run.
type Options struct {
	NumFewshot  int
	Seed        int64
	Limit       int // 0 = all evaluation documents
	Description string
}

// DocResult reports the outcome for one evaluated document.
type DocResult struct {
	DocID   int
	Context *task.ContextInfo
	Values  map[string]task.Value
	Error   string
}

// RunResult aggregates one evaluation run.
type RunResult struct {
	RunID      string
	Task       string
	Model      string
	NumFewshot int
	Seed       int64
	Limit      int
	Documents  int
	Failed     int
	Metrics    map[string]float64
	Examples   []task.SavedExample
	Results    []DocResult
	TotalTime  time.Duration
}
