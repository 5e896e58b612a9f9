package task

import (
	"errors"
	"strings"
	"testing"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/docstore"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/prompt"
)

func articleRow(segments, summaries []any) map[string]any {
	return map[string]any{
		"article": map[string]any{
			"document": segments,
			"summary":  summaries,
		},
	}
}

func summaryStore(trainRows int) *docstore.Store {
	rows := make([]map[string]any, 0, trainRows)
	for i := 0; i < trainRows; i++ {
		seg := "segment " + string(rune('a'+i))
		sum := "summary " + string(rune('a'+i))
		rows = append(rows, articleRow([]any{seg}, []any{sum}))
	}
	return docstore.FromSplits("english", map[string][]map[string]any{
		"train": rows,
		"test": {
			articleRow([]any{"eval segment"}, []any{"eval summary"}),
		},
	})
}

func englishLang() Language {
	for _, lang := range Languages {
		if lang.Code == "en" {
			return lang
		}
	}
	panic("en missing from language table")
}

func TestNew_EligibilityFilter(t *testing.T) {
	st := docstore.FromSplits("english", map[string][]map[string]any{
		"train": {
			articleRow([]any{"d1"}, []any{"s1"}),
			articleRow([]any{}, []any{"s2"}),
			articleRow([]any{"d3"}, []any{}),
			articleRow([]any{"d4"}, []any{"s4"}),
		},
		"test": {
			articleRow([]any{"eval"}, []any{"eval sum"}),
		},
	})

	tk, err := New(englishLang(), st, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(tk.train) != 2 {
		t.Fatalf("eligible train docs: got %d want 2", len(tk.train))
	}
}

func TestNew_SeparatorValidation(t *testing.T) {
	st := summaryStore(2)

	if _, err := New(englishLang(), st, Options{TextTargetSeparator: " -> "}); err == nil {
		t.Fatalf("New: expected error for non-whitespace separator")
	}
	if _, err := New(englishLang(), st, Options{TextTargetSeparator: "\n\t "}); err != nil {
		t.Fatalf("New: whitespace separator rejected: %v", err)
	}
}

func TestTask_Name(t *testing.T) {
	tk, err := New(englishLang(), summaryStore(1), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tk.Name() != "wikilingua_en" {
		t.Fatalf("Name: got %q want %q", tk.Name(), "wikilingua_en")
	}
}

func TestTask_StopSequencesAndMaxLength(t *testing.T) {
	tk, err := New(englishLang(), summaryStore(1), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	stops := tk.StopSequences()
	if len(stops) != 1 || stops[0] != DefaultExampleSeparator {
		t.Fatalf("StopSequences: got %v", stops)
	}
	if tk.MaxGenerationLength() != DefaultMaxGenerationLength {
		t.Fatalf("MaxGenerationLength: got %d", tk.MaxGenerationLength())
	}
}

func TestTask_EnglishMissingSegmentIsError(t *testing.T) {
	tk, err := New(englishLang(), summaryStore(1), Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	empty := docstore.Document{ID: 99, Fields: articleRow([]any{}, []any{"sum"})}
	if _, err := tk.DocToText(empty); !errors.Is(err, prompt.ErrNoSourceText) {
		t.Fatalf("DocToText: got %v want ErrNoSourceText", err)
	}
}

func TestTask_SplitPriority(t *testing.T) {
	st := docstore.FromSplits("english", map[string][]map[string]any{
		"validation": {articleRow([]any{"v"}, []any{"vs"})},
		"test":       {articleRow([]any{"t"}, []any{"ts"})},
	})
	tk, err := New(englishLang(), st, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, src, err := tk.FewshotDocs()
	if err != nil {
		t.Fatalf("FewshotDocs: %v", err)
	}
	if src != "validation" {
		t.Fatalf("few-shot source: got %q want validation", src)
	}

	_, evalSrc, err := tk.EvaluationDocs()
	if err != nil {
		t.Fatalf("EvaluationDocs: %v", err)
	}
	if evalSrc != "test" {
		t.Fatalf("evaluation source: got %q want test", evalSrc)
	}
}

func TestRegistry_AllLanguages(t *testing.T) {
	r := NewRegistry()
	names := r.Names()
	if len(names) != 18 {
		t.Fatalf("registry size: got %d want 18", len(names))
	}
	for _, name := range names {
		if !strings.HasPrefix(name, "wikilingua_") {
			t.Fatalf("task name %q missing benchmark prefix", name)
		}
	}

	lang, ok := r.Get("wikilingua_es")
	if !ok {
		t.Fatalf("Get: wikilingua_es missing")
	}
	if lang.Dataset != "spanish" {
		t.Fatalf("spanish dataset: got %q", lang.Dataset)
	}
	if _, ok := r.Get("wikilingua_xx"); ok {
		t.Fatalf("Get: unexpected hit for unknown language")
	}
}
