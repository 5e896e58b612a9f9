package task

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/docstore"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/prompt"
)

func evalDoc(tk *Task, t *testing.T) docstore.Document {
	t.Helper()
	docs, _, err := tk.EvaluationDocs()
	if err != nil {
		t.Fatalf("EvaluationDocs: %v", err)
	}
	return docs[0]
}

func TestFewshotContext_ZeroShotIdentity(t *testing.T) {
	tk, err := New(englishLang(), summaryStore(4), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doc := evalDoc(tk, t)

	ctx, info, err := tk.FewshotContext(doc, 0, rand.New(rand.NewSource(1)), "")
	if err != nil {
		t.Fatalf("FewshotContext: %v", err)
	}

	text, err := tk.DocToText(doc)
	if err != nil {
		t.Fatalf("DocToText: %v", err)
	}
	if ctx != text {
		t.Fatalf("zero-shot context: got %q want %q", ctx, text)
	}
	if len(info.FewshotIdx) != 0 || len(info.FewshotTargetIdx) != 0 {
		t.Fatalf("zero-shot info: got %+v want empty index lists", info)
	}
	if info.FewshotSource != "" {
		t.Fatalf("zero-shot source: got %q want empty", info.FewshotSource)
	}
}

func TestFewshotContext_SeparatorStructure(t *testing.T) {
	tk, err := New(englishLang(), summaryStore(8), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doc := evalDoc(tk, t)

	for _, k := range []int{1, 3, 5} {
		ctx, info, err := tk.FewshotContext(doc, k, rand.New(rand.NewSource(3)), "")
		if err != nil {
			t.Fatalf("k=%d: %v", k, err)
		}
		if got := strings.Count(ctx, DefaultExampleSeparator); got != k {
			t.Fatalf("k=%d: %d separators in context, want %d", k, got, k)
		}
		if len(info.FewshotIdx) != k {
			t.Fatalf("k=%d: %d sampled indices", k, len(info.FewshotIdx))
		}
		if !strings.HasSuffix(ctx, "Write a summary of the text above:") {
			t.Fatalf("k=%d: context does not end with the evaluation prompt", k)
		}
	}
}

func TestFewshotContext_Reproducible(t *testing.T) {
	tk, err := New(englishLang(), summaryStore(10), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doc := evalDoc(tk, t)

	ctx1, info1, err := tk.FewshotContext(doc, 4, rand.New(rand.NewSource(42)), "")
	if err != nil {
		t.Fatalf("FewshotContext: %v", err)
	}
	ctx2, info2, err := tk.FewshotContext(doc, 4, rand.New(rand.NewSource(42)), "")
	if err != nil {
		t.Fatalf("FewshotContext: %v", err)
	}

	if ctx1 != ctx2 {
		t.Fatalf("contexts diverge under identical seed")
	}
	if len(info1.FewshotIdx) != len(info2.FewshotIdx) {
		t.Fatalf("index counts diverge")
	}
	for i := range info1.FewshotIdx {
		if info1.FewshotIdx[i] != info2.FewshotIdx[i] {
			t.Fatalf("indices diverge: %v vs %v", info1.FewshotIdx, info2.FewshotIdx)
		}
	}
}

func TestFewshotContext_MultiReferenceTargetRecorded(t *testing.T) {
	// The generic (non-English) template keeps summary segments as
	// separate references, so examples with several segments force a
	// variant choice.
	var lang Language
	for _, l := range Languages {
		if l.Code == "es" {
			lang = l
		}
	}

	st := docstore.FromSplits("spanish", map[string][]map[string]any{
		"train": {
			articleRow([]any{"doc a"}, []any{"ref one", "ref two", "ref three"}),
			articleRow([]any{"doc b"}, []any{"ref uno", "ref dos"}),
		},
		"test": {
			articleRow([]any{"eval doc"}, []any{"eval ref"}),
		},
	})

	tk, err := New(lang, st, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doc := evalDoc(tk, t)

	_, info, err := tk.FewshotContext(doc, 2, rand.New(rand.NewSource(5)), "")
	if err != nil {
		t.Fatalf("FewshotContext: %v", err)
	}
	if len(info.FewshotTargetIdx) != 2 {
		t.Fatalf("target variant indices: got %v want one per multi-reference example", info.FewshotTargetIdx)
	}
	for _, variant := range info.FewshotTargetIdx {
		if variant < 0 || variant > 2 {
			t.Fatalf("variant index out of range: %d", variant)
		}
	}
}

func TestFewshotContext_DescriptionPrepended(t *testing.T) {
	tk, err := New(englishLang(), summaryStore(2), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doc := evalDoc(tk, t)

	ctx, _, err := tk.FewshotContext(doc, 0, rand.New(rand.NewSource(1)), "Summarize articles.\n\n")
	if err != nil {
		t.Fatalf("FewshotContext: %v", err)
	}
	if !strings.HasPrefix(ctx, "Summarize articles.\n\n") {
		t.Fatalf("description not prepended: %q", ctx)
	}
}

func TestFewshotContext_NilRand(t *testing.T) {
	tk, err := New(englishLang(), summaryStore(2), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, _, err := tk.FewshotContext(evalDoc(tk, t), 1, nil, ""); err == nil {
		t.Fatalf("FewshotContext: expected error for nil random source")
	}
}

func TestFewshotContext_TargetsStripped(t *testing.T) {
	tpl := &prompt.Template{
		Name:        "strip",
		Text:        "{{join \"article.document\" \" \"}}",
		TargetField: "article.summary",
		Metrics:     []string{"ROUGE"},
	}

	st := docstore.FromSplits("english", map[string][]map[string]any{
		"train": {
			articleRow([]any{"doc a"}, []any{"  padded target  "}),
		},
		"test": {
			articleRow([]any{"eval doc"}, []any{"eval ref"}),
		},
	})

	tk, err := New(englishLang(), st, Options{Template: tpl})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, _, err := tk.FewshotContext(evalDoc(tk, t), 1, rand.New(rand.NewSource(1)), "")
	if err != nil {
		t.Fatalf("FewshotContext: %v", err)
	}
	want := "doc a padded target" + DefaultExampleSeparator + "eval doc"
	if ctx != want {
		t.Fatalf("context: got %q want %q", ctx, want)
	}
}
