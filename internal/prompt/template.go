package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/docstore"
)

// ErrNoSourceText reports a document whose configured source field holds no
// usable text. Callers must treat this as a definite failure for that
// document, not skip it silently.
var ErrNoSourceText = errors.New("prompt: no usable source text")

// Template converts a document into a prompt text and its reference
// target(s), and declares which metrics score the task. Templates are
// read-only after construction and shared across all documents of a task.
type Template struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Text is a text/template body rendered against the document. The
	// funcs `field`, `first` and `join` resolve dotted field paths.
	Text string `yaml:"text"`

	// TargetField is the dotted path to the reference strings.
	TargetField string `yaml:"target_field"`

	// JoinTargets, when set, collapses the reference strings into a single
	// reference joined by this separator.
	JoinTargets string `yaml:"join_targets,omitempty"`

	// RawTextField is the dotted path used for the un-prompted source text
	// (SARI needs it). Defaults to TargetField's sibling "document" is not
	// assumed; leave empty to disable raw-text lookup.
	RawTextField string `yaml:"raw_text_field,omitempty"`

	// Metrics names the declared metrics, e.g. ["ROUGE", "BLEU"].
	Metrics []string `yaml:"metrics"`

	// Choices, when non-empty, makes the task ranked-choice: model outputs
	// are scored against this enumerated answer list.
	Choices []string `yaml:"answer_choices,omitempty"`

	parsed *template.Template
}

// Validate checks the template definition and parses the text body.
func (t *Template) Validate() error {
	if t == nil {
		return errors.New("prompt: nil template")
	}
	if strings.TrimSpace(t.Text) == "" {
		return fmt.Errorf("prompt: template %q has empty text", t.Name)
	}
	if strings.TrimSpace(t.TargetField) == "" && len(t.Choices) == 0 {
		return fmt.Errorf("prompt: template %q has no target field", t.Name)
	}
	_, err := t.compile()
	return err
}

func (t *Template) compile() (*template.Template, error) {
	if t.parsed != nil {
		return t.parsed, nil
	}

	// Funcs are rebound per document in Apply; these placeholders only
	// exist so the body parses once.
	tmpl, err := template.New(t.Name).Funcs(docFuncs(docstore.Document{})).Parse(t.Text)
	if err != nil {
		return nil, fmt.Errorf("prompt: parse template %q: %w", t.Name, err)
	}
	t.parsed = tmpl
	return tmpl, nil
}

func docFuncs(doc docstore.Document) template.FuncMap {
	return template.FuncMap{
		"field": func(path string) (string, error) {
			v, ok := doc.Field(path)
			if !ok {
				return "", fmt.Errorf("prompt: missing field %q", path)
			}
			return fmt.Sprintf("%v", v), nil
		},
		"first": func(path string) (string, error) {
			segs := doc.Strings(path)
			if len(segs) == 0 {
				return "", fmt.Errorf("%w: field %q is empty", ErrNoSourceText, path)
			}
			return segs[0], nil
		},
		"join": func(path, sep string) string {
			return strings.Join(doc.Strings(path), sep)
		},
	}
}

// Apply renders the template against doc and returns the prompt text plus
// the reference target strings. A document with no usable source text
// returns an error wrapping ErrNoSourceText.
func (t *Template) Apply(doc docstore.Document) (string, []string, error) {
	if t == nil {
		return "", nil, errors.New("prompt: nil template")
	}
	tmpl, err := t.compile()
	if err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Funcs(docFuncs(doc)).Execute(&buf, doc.Fields); err != nil {
		if strings.Contains(err.Error(), ErrNoSourceText.Error()) {
			return "", nil, fmt.Errorf("prompt: template %q: %w", t.Name, ErrNoSourceText)
		}
		return "", nil, fmt.Errorf("prompt: render template %q: %w", t.Name, err)
	}

	targets := doc.Strings(t.TargetField)
	if t.JoinTargets != "" && len(targets) > 0 {
		targets = []string{strings.Join(targets, t.JoinTargets)}
	}
	return buf.String(), targets, nil
}

// AnswerChoices returns the enumerated answer list for ranked-choice tasks,
// or nil for generation tasks.
func (t *Template) AnswerChoices(doc docstore.Document) []string {
	if t == nil {
		return nil
	}
	return t.Choices
}

// RawText returns the document's un-prompted source text, joined with
// single spaces.
func (t *Template) RawText(doc docstore.Document) (string, error) {
	if t == nil || strings.TrimSpace(t.RawTextField) == "" {
		return "", errors.New("prompt: template has no raw text field")
	}
	segs := doc.Strings(t.RawTextField)
	if len(segs) == 0 {
		return "", fmt.Errorf("%w: field %q is empty", ErrNoSourceText, t.RawTextField)
	}
	return strings.Join(segs, " "), nil
}

// DeclaredMetrics returns the metric names the template declares.
func (t *Template) DeclaredMetrics() []string {
	if t == nil {
		return nil
	}
	return t.Metrics
}
