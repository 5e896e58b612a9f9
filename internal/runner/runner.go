package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/docstore"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/llm"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/store"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/task"
)

// Runner evaluates tasks against a provider, one document at a time, and
// optionally persists results.
type Runner struct {
	Provider llm.Provider
	Store    store.Store // optional
}

// Run evaluates tk over its evaluation split. All sampling randomness
// derives from opts.Seed, so a run is reproducible given the same seed,
// dataset and provider behavior.
func (r *Runner) Run(ctx context.Context, tk *task.Task, opts Options) (*RunResult, error) {
	if r == nil {
		return nil, errors.New("runner: nil runner")
	}
	if ctx == nil {
		return nil, errors.New("runner: nil context")
	}
	if r.Provider == nil {
		return nil, errors.New("runner: nil provider")
	}
	if tk == nil {
		return nil, errors.New("runner: nil task")
	}

	docs, _, err := tk.EvaluationDocs()
	if err != nil {
		return nil, err
	}
	if opts.Limit > 0 && opts.Limit < len(docs) {
		docs = docs[:opts.Limit]
	}

	start := time.Now()
	rnd := rand.New(rand.NewSource(opts.Seed))

	out := &RunResult{
		RunID:      fmt.Sprintf("run-%d", start.UnixNano()),
		Task:       tk.Name(),
		Model:      strings.TrimSpace(r.Provider.Name()),
		NumFewshot: opts.NumFewshot,
		Seed:       opts.Seed,
		Limit:      opts.Limit,
		Results:    make([]DocResult, 0, len(docs)),
	}

	collected := make(map[string][]task.Value)
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		dr := DocResult{DocID: doc.ID}

		prompt, info, err := tk.FewshotContext(doc, opts.NumFewshot, rnd, opts.Description)
		if err != nil {
			return out, fmt.Errorf("runner: build context for doc %d: %w", doc.ID, err)
		}
		dr.Context = info

		results, callErr := r.requestResults(ctx, tk, doc, prompt)
		if callErr != nil {
			dr.Error = callErr.Error()
			out.Failed++
			out.Results = append(out.Results, dr)
			continue
		}

		values, example, err := tk.ProcessResults(doc, results)
		if err != nil {
			dr.Error = err.Error()
			out.Failed++
			out.Results = append(out.Results, dr)
			continue
		}
		dr.Values = values
		out.Results = append(out.Results, dr)

		for key, v := range values {
			collected[key] = append(collected[key], v)
		}
		if example != nil {
			out.Examples = append(out.Examples, *example)
		}
	}

	out.Documents = len(out.Results)
	out.Metrics = aggregate(tk, collected)
	out.TotalTime = time.Since(start)

	if r.Store != nil {
		if err := r.persist(ctx, out, start); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (r *Runner) requestResults(ctx context.Context, tk *task.Task, doc docstore.Document, prompt string) (task.Results, error) {
	if tk.Mode(doc) == task.ModeRankedChoice {
		scores, err := r.Provider.ScoreChoices(ctx, &llm.ChoiceRequest{
			Prompt:  prompt,
			Choices: tk.AnswerChoices(doc),
		})
		if err != nil {
			return task.Results{}, err
		}
		return task.Results{ChoiceScores: scores}, nil
	}

	completion, err := r.Provider.GenerateUntil(ctx, &llm.GenerationRequest{
		Prompt:        prompt,
		StopSequences: tk.StopSequences(),
		MaxTokens:     tk.MaxGenerationLength(),
	})
	if err != nil {
		return task.Results{}, err
	}
	return task.Results{Completions: []string{completion}}, nil
}

func aggregate(tk *task.Task, collected map[string][]task.Value) map[string]float64 {
	out := make(map[string]float64, len(collected))
	reducers := tk.Aggregation()
	for key, values := range collected {
		reduce, ok := reducers[key]
		if !ok {
			reduce = task.Mean
		}
		out[key] = reduce(values)
	}
	return out
}

func (r *Runner) persist(ctx context.Context, res *RunResult, start time.Time) error {
	record := &store.RunRecord{
		ID:         res.RunID,
		Task:       res.Task,
		Model:      res.Model,
		NumFewshot: res.NumFewshot,
		Seed:       res.Seed,
		Limit:      res.Limit,
		Documents:  res.Documents,
		StartedAt:  start,
		FinishedAt: time.Now(),
		Metrics:    res.Metrics,
	}
	if err := r.Store.SaveRun(ctx, record); err != nil {
		return fmt.Errorf("runner: save run: %w", err)
	}

	if len(res.Examples) > 0 {
		examples := make([]store.ExampleRecord, 0, len(res.Examples))
		for _, ex := range res.Examples {
			examples = append(examples, store.ExampleRecord{
				RunID:         res.RunID,
				DocID:         ex.DocID,
				Pred:          ex.Pred,
				Target:        ex.Target,
				AnswerChoices: ex.AnswerChoices,
			})
		}
		if err := r.Store.SaveExamples(ctx, examples); err != nil {
			return fmt.Errorf("runner: save examples: %w", err)
		}
	}
	return nil
}
