package task

import (
	"errors"
	"math/rand"
	"strings"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/docstore"
)

// ContextInfo records how a few-shot context was assembled, enough to
// reproduce and audit which examples influenced an evaluation.
type ContextInfo struct {
	FewshotIdx       []int  `json:"fewshot_idx"`
	FewshotTargetIdx []int  `json:"fewshot_target_idx"`
	FewshotSource    string `json:"fewshot_source,omitempty"`
	FewshotNum       int    `json:"fewshot_num"`
	Context          string `json:"ctx"`
}

// FewshotContext builds the prompt for doc: numFewshot labeled examples
// followed by doc's own unlabeled prompt text. An optional description is
// prepended. All randomness (example sampling, multi-reference target
// choice) comes from rnd, never from global state.
func (t *Task) FewshotContext(
	doc docstore.Document,
	numFewshot int,
	rnd *rand.Rand,
	description string,
) (string, *ContextInfo, error) {
	if rnd == nil {
		return "", nil, errors.New("task: a random source is required")
	}

	info := &ContextInfo{
		FewshotIdx:       []int{},
		FewshotTargetIdx: []int{},
		FewshotNum:       numFewshot,
	}

	var labeled string
	if numFewshot > 0 {
		docs, source, err := t.FewshotDocs()
		if err != nil {
			return "", nil, err
		}
		info.FewshotSource = source

		examples, indices, err := t.fewshotExamples(docs, numFewshot, rnd, doc)
		if err != nil {
			return "", nil, err
		}
		info.FewshotIdx = indices

		parts := make([]string, 0, len(examples))
		for _, example := range examples {
			text, targets, err := t.template.Apply(example)
			if err != nil {
				return "", nil, err
			}
			if len(targets) == 0 {
				return "", nil, errors.New("task: few-shot example has no target")
			}

			target := targets[0]
			if len(targets) > 1 {
				variant := rnd.Intn(len(targets))
				target = targets[variant]
				info.FewshotTargetIdx = append(info.FewshotTargetIdx, variant)
			}
			parts = append(parts, text+t.textTargetSeparator+strings.TrimSpace(target))
		}

		// One extra separator sits between the last example and the
		// evaluation prompt.
		labeled = strings.Join(parts, t.exampleSeparator) + t.exampleSeparator
	}

	text, err := t.DocToText(doc)
	if err != nil {
		return "", nil, err
	}

	ctx := labeled + text
	if description != "" {
		ctx = description + ctx
	}
	info.Context = ctx
	return ctx, info, nil
}
