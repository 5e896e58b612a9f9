package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/docstore"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/llm"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/task"
)

// stubProvider returns canned completions and records the requests it saw.
type stubProvider struct {
	completion string
	genErr     error
	scores     []float64

	genRequests    []*llm.GenerationRequest
	choiceRequests []*llm.ChoiceRequest
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) GenerateUntil(_ context.Context, req *llm.GenerationRequest) (string, error) {
	p.genRequests = append(p.genRequests, req)
	if p.genErr != nil {
		return "", p.genErr
	}
	return p.completion, nil
}

func (p *stubProvider) ScoreChoices(_ context.Context, req *llm.ChoiceRequest) ([]float64, error) {
	p.choiceRequests = append(p.choiceRequests, req)
	return p.scores, nil
}

func articleRow(sentences, summaries []string) map[string]any {
	doc := make([]any, len(sentences))
	for i, s := range sentences {
		doc[i] = s
	}
	sum := make([]any, len(summaries))
	for i, s := range summaries {
		sum[i] = s
	}
	return map[string]any{
		"article": map[string]any{"document": doc, "summary": sum},
	}
}

func generationTask(t *testing.T, numTest int) *task.Task {
	t.Helper()

	train := make([]map[string]any, 0, 12)
	for i := 0; i < 12; i++ {
		train = append(train, articleRow(
			[]string{fmt.Sprintf("Training article number %d about cooking.", i)},
			[]string{fmt.Sprintf("Training summary %d.", i)},
		))
	}
	test := make([]map[string]any, 0, numTest)
	for i := 0; i < numTest; i++ {
		test = append(test, articleRow(
			[]string{fmt.Sprintf("Evaluation article number %d about travel.", i)},
			[]string{fmt.Sprintf("Evaluation summary %d.", i)},
		))
	}

	st := docstore.FromSplits("english", map[string][]map[string]any{
		"train": train,
		"test":  test,
	})
	tk, err := task.New(task.Language{Code: "en", Dataset: "english"}, st, task.Options{SaveExamples: true})
	if err != nil {
		t.Fatalf("task.New: %v", err)
	}
	return tk
}

func TestRunner_Run_Generation(t *testing.T) {
	tk := generationTask(t, 3)
	provider := &stubProvider{completion: "  Evaluation summary 0. \n"}
	r := &Runner{Provider: provider}

	res, err := r.Run(context.Background(), tk, Options{NumFewshot: 2, Seed: 42})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Documents != 3 || res.Failed != 0 {
		t.Fatalf("documents: got %d failed %d", res.Documents, res.Failed)
	}
	if res.Task != "wikilingua_en" || res.Model != "stub" {
		t.Fatalf("run identity: got %+v", res)
	}
	if len(provider.genRequests) != 3 {
		t.Fatalf("generation requests: got %d want 3", len(provider.genRequests))
	}

	req := provider.genRequests[0]
	if req.MaxTokens != task.DefaultMaxGenerationLength {
		t.Fatalf("MaxTokens: got %d", req.MaxTokens)
	}
	if len(req.StopSequences) != 1 || req.StopSequences[0] != task.DefaultExampleSeparator {
		t.Fatalf("StopSequences: got %v", req.StopSequences)
	}
	if !strings.Contains(req.Prompt, "Write a summary of the text above:") {
		t.Fatalf("prompt missing instruction: %q", req.Prompt)
	}
	if got := strings.Count(req.Prompt, task.DefaultExampleSeparator); got != 2 {
		t.Fatalf("prompt separators: got %d want 2", got)
	}

	for _, key := range []string{"bleu", "rouge1_fmeasure", "rougeLsum_fmeasure"} {
		if _, ok := res.Metrics[key]; !ok {
			t.Fatalf("metrics missing %q: %v", key, res.Metrics)
		}
	}
	if res.Metrics["rouge1_fmeasure"] <= 0 {
		t.Fatalf("rouge1_fmeasure: got %v", res.Metrics["rouge1_fmeasure"])
	}

	if len(res.Examples) != 3 {
		t.Fatalf("examples: got %d want 3", len(res.Examples))
	}
	if res.Examples[0].Pred != "Evaluation summary 0." {
		t.Fatalf("example pred not stripped: %q", res.Examples[0].Pred)
	}
}

func TestRunner_Run_Limit(t *testing.T) {
	tk := generationTask(t, 5)
	provider := &stubProvider{completion: "A summary."}
	r := &Runner{Provider: provider}

	res, err := r.Run(context.Background(), tk, Options{NumFewshot: 1, Seed: 7, Limit: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Documents != 2 || len(provider.genRequests) != 2 {
		t.Fatalf("limit not applied: %d docs, %d requests", res.Documents, len(provider.genRequests))
	}
}

func TestRunner_Run_ProviderErrorCountsAsFailure(t *testing.T) {
	tk := generationTask(t, 2)
	provider := &stubProvider{genErr: errors.New("rate limited")}
	r := &Runner{Provider: provider}

	res, err := r.Run(context.Background(), tk, Options{NumFewshot: 0, Seed: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failed != 2 {
		t.Fatalf("Failed: got %d want 2", res.Failed)
	}
	if res.Results[0].Error == "" {
		t.Fatalf("doc result missing error: %+v", res.Results[0])
	}
	if len(res.Metrics) != 0 {
		t.Fatalf("metrics from failed docs: %v", res.Metrics)
	}
}

func TestRunner_Run_Reproducible(t *testing.T) {
	provider := &stubProvider{completion: "A summary."}

	prompts := func() []string {
		tk := generationTask(t, 2)
		provider.genRequests = nil
		r := &Runner{Provider: provider}
		if _, err := r.Run(context.Background(), tk, Options{NumFewshot: 3, Seed: 99}); err != nil {
			t.Fatalf("Run: %v", err)
		}
		out := make([]string, 0, len(provider.genRequests))
		for _, req := range provider.genRequests {
			out = append(out, req.Prompt)
		}
		return out
	}

	first := prompts()
	second := prompts()
	if len(first) != len(second) {
		t.Fatalf("request counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("prompt %d differs between identical runs", i)
		}
	}
}

func TestRunner_Run_NilChecks(t *testing.T) {
	tk := generationTask(t, 1)

	var nilRunner *Runner
	if _, err := nilRunner.Run(context.Background(), tk, Options{}); err == nil {
		t.Fatalf("expected error for nil runner")
	}

	r := &Runner{Provider: &stubProvider{}}
	if _, err := r.Run(context.Background(), nil, Options{}); err == nil {
		t.Fatalf("expected error for nil task")
	}
	if _, err := (&Runner{}).Run(context.Background(), tk, Options{}); err == nil {
		t.Fatalf("expected error for nil provider")
	}
}

func TestRunner_Run_CancelledContext(t *testing.T) {
	tk := generationTask(t, 3)
	r := &Runner{Provider: &stubProvider{completion: "x"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Run(ctx, tk, Options{Seed: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: got %v want context.Canceled", err)
	}
}
