package task

import (
	"fmt"
	"strings"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/docstore"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/metrics"
)

// Mode says how a document's results are scored. The decision is made per
// document: ranked choice when the template enumerates answer choices,
// generation otherwise.
type Mode int

const (
	ModeGeneration Mode = iota
	ModeRankedChoice
)

// Results carries the model output for one document. Generation tasks fill
// Completions (the first entry is the completion scored); ranked-choice
// tasks fill ChoiceScores, one likelihood-derived score per answer choice
// in choice order.
type Results struct {
	Completions  []string
	ChoiceScores []float64
}

// Value is one metric observation for one document. Most metrics produce a
// scalar; corpus-level metrics defer by carrying the (references,
// prediction) pair instead, and are reduced at aggregation time.
type Value struct {
	Score float64
	Refs  []string
	Pred  string
}

// Deferred reports whether the value is a deferred corpus-metric pair.
func (v Value) Deferred() bool { return len(v.Refs) > 0 }

// SavedExample is the optional qualitative-inspection record emitted per
// scored document when example saving is on.
type SavedExample struct {
	DocID         int      `json:"doc_id"`
	Pred          string   `json:"pred"`
	Target        []string `json:"target"`
	AnswerChoices []string `json:"answer_choices,omitempty"`
}

// Mode returns the scoring mode for doc.
func (t *Task) Mode(doc docstore.Document) Mode {
	if len(t.template.AnswerChoices(doc)) > 0 {
		return ModeRankedChoice
	}
	return ModeGeneration
}

// ProcessResults scores one document's model results, returning a mapping
// from metric key to value. The saved example is nil unless example saving
// is enabled; it never affects the returned metrics.
func (t *Task) ProcessResults(doc docstore.Document, results Results) (map[string]Value, *SavedExample, error) {
	targets, err := t.DocToTarget(doc)
	if err != nil {
		return nil, nil, err
	}

	if t.Mode(doc) == ModeRankedChoice {
		return t.processRankedChoice(doc, targets, results.ChoiceScores)
	}
	return t.processGeneration(doc, targets, results.Completions)
}

func (t *Task) processRankedChoice(doc docstore.Document, targets []string, scores []float64) (map[string]Value, *SavedExample, error) {
	choices := t.template.AnswerChoices(doc)
	if len(targets) != 1 {
		return nil, nil, fmt.Errorf(
			"task: ranked-choice target must be exactly one reference, got %d", len(targets))
	}
	if len(scores) != len(choices) {
		return nil, nil, fmt.Errorf(
			"task: got %d choice scores for %d choices", len(scores), len(choices))
	}

	target := strings.TrimSpace(targets[0])
	targetIdx := -1
	for i, choice := range choices {
		if choice == target {
			targetIdx = i
			break
		}
	}
	if targetIdx < 0 {
		return nil, nil, fmt.Errorf("task: target %q is not an answer choice", target)
	}

	pred := choices[argmax(scores)]

	out := make(map[string]Value)
	for _, metric := range t.metrics {
		if metric != MetricAccuracy {
			warnf("task: unexpected ranked-choice metric %q, skipping", metric)
			continue
		}

		out["acc"] = Value{Score: boolScore(pred == target)}

		// Normalize scores by choice byte length to offset the length
		// bias of unnormalized likelihoods.
		normalized := make([]float64, len(scores))
		for i, s := range scores {
			normalized[i] = s / float64(len(choices[i]))
		}
		out["acc_norm"] = Value{Score: boolScore(argmax(normalized) == targetIdx)}
	}

	var example *SavedExample
	if t.saveExamples {
		example = &SavedExample{
			DocID:         doc.ID,
			Pred:          pred,
			Target:        []string{target},
			AnswerChoices: choices,
		}
	}
	return out, example, nil
}

func (t *Task) processGeneration(doc docstore.Document, targets []string, completions []string) (map[string]Value, *SavedExample, error) {
	if len(targets) == 0 {
		return nil, nil, fmt.Errorf("task: document %d has no reference targets", doc.ID)
	}
	if len(completions) == 0 {
		return nil, nil, fmt.Errorf("task: no completion for document %d", doc.ID)
	}

	pred := strings.TrimSpace(completions[0])

	out := make(map[string]Value)
	for _, metric := range t.metrics {
		switch metric {
		case MetricBLEU:
			// Corpus-level; defer the pair for aggregation.
			out["bleu"] = Value{Refs: targets, Pred: pred}
		case MetricROUGE:
			for key, score := range metrics.Rouge(targets, pred) {
				out[key] = Value{Score: score}
			}
		case MetricSARI:
			raw, err := t.template.RawText(doc)
			if err != nil {
				return nil, nil, err
			}
			out["sari"] = Value{Score: metrics.SARI(raw, pred, targets)}
		default:
			warnf("task: unexpected generation metric %q, skipping", metric)
		}
	}

	var example *SavedExample
	if t.saveExamples {
		example = &SavedExample{
			DocID:  doc.ID,
			Pred:   pred,
			Target: targets,
		}
	}
	return out, example, nil
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
