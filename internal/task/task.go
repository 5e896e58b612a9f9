package task

import (
	"errors"
	"fmt"
	"log"
	"unicode"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/docstore"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/prompt"
)

const (
	// DefaultExampleSeparator delimits few-shot examples from each other
	// and from the evaluation prompt (Webson & Pavlick 2022).
	DefaultExampleSeparator = "\n###\n"

	// DefaultTextTargetSeparator sits between an example's prompt text and
	// its target. Must be whitespace only.
	DefaultTextTargetSeparator = " "

	// DefaultMaxGenerationLength caps summary generation for WikiLingua.
	DefaultMaxGenerationLength = 64
)

// Options configures task construction. Zero values pick the defaults.
type Options struct {
	Template            *prompt.Template // overrides the language default
	ExampleSeparator    string
	TextTargetSeparator string
	MaxGenerationLength int
	SaveExamples        bool
}

// Task evaluates one WikiLingua language edition: it assembles few-shot
// contexts and scores model results against the dataset references.
type Task struct {
	lang     Language
	template *prompt.Template
	metrics  []Metric

	exampleSeparator    string
	textTargetSeparator string
	maxGenLength        int
	saveExamples        bool

	// Split contents, filtered once at construction; immutable afterward.
	train      []docstore.Document
	validation []docstore.Document
	test       []docstore.Document
}

// warnf is swapped out in tests to capture skip warnings.
var warnf = log.Printf

// New builds a task for lang over the given store. Training and validation
// documents failing the eligibility filter (empty document or summary
// segments) are dropped here; the test split is used as-is.
func New(lang Language, store *docstore.Store, opts Options) (*Task, error) {
	if store == nil {
		return nil, errors.New("task: nil document store")
	}

	exampleSep := opts.ExampleSeparator
	if exampleSep == "" {
		exampleSep = DefaultExampleSeparator
	}
	textTargetSep := opts.TextTargetSeparator
	if textTargetSep == "" {
		textTargetSep = DefaultTextTargetSeparator
	}
	if !isWhitespaceOnly(textTargetSep) {
		return nil, fmt.Errorf("task: text-target separator must be whitespace only, got %q", textTargetSep)
	}

	tpl := opts.Template
	if tpl == nil {
		tpl = lang.Template()
	}
	if err := tpl.Validate(); err != nil {
		return nil, err
	}

	maxGen := opts.MaxGenerationLength
	if maxGen <= 0 {
		maxGen = DefaultMaxGenerationLength
	}

	t := &Task{
		lang:                lang,
		template:            tpl,
		exampleSeparator:    exampleSep,
		textTargetSeparator: textTargetSep,
		maxGenLength:        maxGen,
		saveExamples:        opts.SaveExamples,
	}

	for _, name := range tpl.DeclaredMetrics() {
		t.metrics = append(t.metrics, ParseMetric(name))
	}

	if docs, ok := store.Split("train"); ok {
		t.train = t.filterEligible(docs)
	}
	if docs, ok := store.Split("validation"); ok {
		t.validation = t.filterEligible(docs)
	}
	if docs, ok := store.Split("sampled_test"); ok {
		t.test = docs
	} else if docs, ok := store.Split("test"); ok {
		t.test = docs
	}

	if len(t.train) == 0 && len(t.validation) == 0 && len(t.test) == 0 {
		return nil, fmt.Errorf("task: dataset %q has no usable documents", lang.Dataset)
	}
	return t, nil
}

// Name returns the registry key, e.g. "wikilingua_en".
func (t *Task) Name() string {
	return fmt.Sprintf("%s_%s", BenchmarkName, t.lang.Code)
}

// Language returns the language configuration.
func (t *Task) Language() Language { return t.lang }

// StopSequences marks where generation should end: at the few-shot example
// separator.
func (t *Task) StopSequences() []string {
	return []string{t.exampleSeparator}
}

// MaxGenerationLength returns the generation token cap.
func (t *Task) MaxGenerationLength() int { return t.maxGenLength }

// DocToText derives the prompt text for doc.
func (t *Task) DocToText(doc docstore.Document) (string, error) {
	text, _, err := t.template.Apply(doc)
	return text, err
}

// DocToTarget derives the reference target strings for doc.
func (t *Task) DocToTarget(doc docstore.Document) ([]string, error) {
	_, targets, err := t.template.Apply(doc)
	return targets, err
}

// AnswerChoices returns the enumerated answers for ranked-choice scoring,
// or nil for generation tasks.
func (t *Task) AnswerChoices(doc docstore.Document) []string {
	return t.template.AnswerChoices(doc)
}

// FewshotDocs returns the split few-shot examples are drawn from,
// prioritizing train, then validation, then test.
func (t *Task) FewshotDocs() ([]docstore.Document, string, error) {
	switch {
	case len(t.train) > 0:
		return t.train, "train", nil
	case len(t.validation) > 0:
		return t.validation, "validation", nil
	case len(t.test) > 0:
		return t.test, "test", nil
	default:
		return nil, "", errors.New("task: no few-shot source split")
	}
}

// EvaluationDocs returns the split to evaluate: test if present, else
// validation.
func (t *Task) EvaluationDocs() ([]docstore.Document, string, error) {
	switch {
	case len(t.test) > 0:
		return t.test, "test", nil
	case len(t.validation) > 0:
		return t.validation, "validation", nil
	default:
		return nil, "", errors.New("task: no evaluation split")
	}
}

func (t *Task) filterEligible(docs []docstore.Document) []docstore.Document {
	out := make([]docstore.Document, 0, len(docs))
	for _, doc := range docs {
		if t.eligible(doc) {
			out = append(out, doc)
		}
	}
	return out
}

// eligible reports whether doc has both article segments and summary
// segments. Malformed documents are filtered, not errors.
func (t *Task) eligible(doc docstore.Document) bool {
	return len(doc.Strings(t.lang.documentField())) > 0 &&
		len(doc.Strings(t.lang.summaryField())) > 0
}

func isWhitespaceOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
