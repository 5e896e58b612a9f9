package task

import (
	"strings"
	"testing"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/docstore"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/prompt"
)

func rankedLang() Language {
	return Language{
		Code:          "xx",
		Dataset:       "ranked",
		DocumentField: "question",
		SummaryField:  "answer",
	}
}

func rankedTask(t *testing.T, metrics []string, saveExamples bool) (*Task, docstore.Document) {
	t.Helper()

	tpl := &prompt.Template{
		Name:        "capital",
		Text:        "{{field \"question\"}}",
		TargetField: "answer",
		Metrics:     metrics,
		Choices:     []string{"Paris", "Lyon"},
	}
	st := docstore.FromSplits("ranked", map[string][]map[string]any{
		"test": {
			{"question": "Capital of France?", "answer": []any{"Paris"}},
		},
	})

	tk, err := New(rankedLang(), st, Options{Template: tpl, SaveExamples: saveExamples})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	docs, _, err := tk.EvaluationDocs()
	if err != nil {
		t.Fatalf("EvaluationDocs: %v", err)
	}
	return tk, docs[0]
}

func generationTask(t *testing.T, metrics []string, saveExamples bool) (*Task, docstore.Document) {
	t.Helper()

	st := docstore.FromSplits("english", map[string][]map[string]any{
		"test": {
			articleRow([]any{"The cat sat on the mat."}, []any{"The cat sat."}),
		},
	})
	tpl := &prompt.Template{
		Name:         "summarize",
		Text:         "{{join \"article.document\" \" \"}}\n\nSummary:",
		TargetField:  "article.summary",
		RawTextField: "article.document",
		Metrics:      metrics,
	}

	tk, err := New(englishLang(), st, Options{Template: tpl, SaveExamples: saveExamples})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	docs, _, err := tk.EvaluationDocs()
	if err != nil {
		t.Fatalf("EvaluationDocs: %v", err)
	}
	return tk, docs[0]
}

func TestProcessResults_RankedChoice(t *testing.T) {
	tk, doc := rankedTask(t, []string{"Accuracy"}, false)

	if tk.Mode(doc) != ModeRankedChoice {
		t.Fatalf("Mode: got %v want ModeRankedChoice", tk.Mode(doc))
	}

	out, example, err := tk.ProcessResults(doc, Results{ChoiceScores: []float64{2.0, 1.0}})
	if err != nil {
		t.Fatalf("ProcessResults: %v", err)
	}
	if example != nil {
		t.Fatalf("example saved with saving disabled")
	}

	if got := out["acc"].Score; got != 1 {
		t.Fatalf("acc: got %v want 1", got)
	}
	// Byte-length normalization: 2.0/len("Paris") vs 1.0/len("Lyon") keeps
	// the arg-max on the target.
	if got := out["acc_norm"].Score; got != 1 {
		t.Fatalf("acc_norm: got %v want 1", got)
	}
}

func TestProcessResults_RankedChoiceNormFlips(t *testing.T) {
	tk, doc := rankedTask(t, []string{"Accuracy"}, false)

	// Raw scores favor Paris, normalized scores favor Lyon:
	// 1.1/5 = 0.22 < 1.0/4 = 0.25.
	out, _, err := tk.ProcessResults(doc, Results{ChoiceScores: []float64{1.1, 1.0}})
	if err != nil {
		t.Fatalf("ProcessResults: %v", err)
	}
	if got := out["acc"].Score; got != 1 {
		t.Fatalf("acc: got %v want 1", got)
	}
	if got := out["acc_norm"].Score; got != 0 {
		t.Fatalf("acc_norm: got %v want 0", got)
	}
}

func TestProcessResults_RankedChoiceScoreCountMismatch(t *testing.T) {
	tk, doc := rankedTask(t, []string{"Accuracy"}, false)
	if _, _, err := tk.ProcessResults(doc, Results{ChoiceScores: []float64{1.0}}); err == nil {
		t.Fatalf("ProcessResults: expected error for score/choice count mismatch")
	}
}

func TestProcessResults_RankedChoiceMultiReferenceIsError(t *testing.T) {
	tpl := &prompt.Template{
		Name:        "capital",
		Text:        "{{field \"question\"}}",
		TargetField: "answer",
		Metrics:     []string{"Accuracy"},
		Choices:     []string{"Paris", "Lyon"},
	}
	st := docstore.FromSplits("ranked", map[string][]map[string]any{
		"test": {
			{"question": "Capital?", "answer": []any{"Paris", "Lyon"}},
		},
	})
	tk, err := New(rankedLang(), st, Options{Template: tpl})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	docs, _, _ := tk.EvaluationDocs()

	if _, _, err := tk.ProcessResults(docs[0], Results{ChoiceScores: []float64{1, 0}}); err == nil {
		t.Fatalf("ProcessResults: expected error for multi-reference ranked-choice target")
	}
}

func TestProcessResults_Generation(t *testing.T) {
	tk, doc := generationTask(t, []string{"ROUGE"}, true)

	if tk.Mode(doc) != ModeGeneration {
		t.Fatalf("Mode: got %v want ModeGeneration", tk.Mode(doc))
	}

	out, example, err := tk.ProcessResults(doc, Results{Completions: []string{" The cat sat. "}})
	if err != nil {
		t.Fatalf("ProcessResults: %v", err)
	}

	if example == nil {
		t.Fatalf("example not saved with saving enabled")
	}
	if example.Pred != "The cat sat." {
		t.Fatalf("pred not stripped: got %q", example.Pred)
	}

	for _, key := range rougeKeys {
		v, ok := out[key]
		if !ok {
			t.Fatalf("missing rouge sub-score %q", key)
		}
		if v.Score < 0 || v.Score > 1 {
			t.Fatalf("%s = %v out of [0,1]", key, v.Score)
		}
	}
	if out["rouge1_fmeasure"].Score != 1 {
		t.Fatalf("rouge1_fmeasure: got %v want 1 for exact match", out["rouge1_fmeasure"].Score)
	}
}

func TestProcessResults_GenerationBLEUDeferred(t *testing.T) {
	tk, doc := generationTask(t, []string{"BLEU"}, false)

	out, _, err := tk.ProcessResults(doc, Results{Completions: []string{"The cat sat."}})
	if err != nil {
		t.Fatalf("ProcessResults: %v", err)
	}

	v, ok := out["bleu"]
	if !ok {
		t.Fatalf("bleu value missing")
	}
	if !v.Deferred() {
		t.Fatalf("bleu should defer to corpus aggregation")
	}
	if v.Pred != "The cat sat." || len(v.Refs) != 1 {
		t.Fatalf("bleu pair: got %+v", v)
	}
}

func TestProcessResults_GenerationSARI(t *testing.T) {
	tk, doc := generationTask(t, []string{"SARI"}, false)

	out, _, err := tk.ProcessResults(doc, Results{Completions: []string{"The cat sat."}})
	if err != nil {
		t.Fatalf("ProcessResults: %v", err)
	}
	v, ok := out["sari"]
	if !ok {
		t.Fatalf("sari value missing")
	}
	if v.Score <= 0 || v.Score > 1 {
		t.Fatalf("sari: got %v want in (0,1]", v.Score)
	}
}

func TestProcessResults_UnknownMetricSkipped(t *testing.T) {
	var warnings []string
	orig := warnf
	warnf = func(format string, args ...any) {
		warnings = append(warnings, format)
	}
	defer func() { warnf = orig }()

	tk, doc := generationTask(t, []string{"ROUGE", "METEOR"}, false)
	out, _, err := tk.ProcessResults(doc, Results{Completions: []string{"The cat sat."}})
	if err != nil {
		t.Fatalf("ProcessResults: %v", err)
	}

	if len(out) != len(rougeKeys) {
		t.Fatalf("unexpected metric keys: %d", len(out))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "skipping") {
		t.Fatalf("warnings: got %v", warnings)
	}
}

func TestProcessResults_EmptyCompletions(t *testing.T) {
	tk, doc := generationTask(t, []string{"ROUGE"}, false)
	if _, _, err := tk.ProcessResults(doc, Results{}); err == nil {
		t.Fatalf("ProcessResults: expected error for empty completions")
	}
}
