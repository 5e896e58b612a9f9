package task

import (
	"fmt"
	"math/rand"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/docstore"
)

// fewshotExamples draws k distinct documents from docs using rnd, skipping
// ineligible documents and the excluded evaluation document (matched by
// document ID). Indices are accepted in draw order, so results are
// reproducible for a fixed seed. Returns the sampled documents and their
// positions within docs.
//
// Rather than retrying forever when k is too large, the eligible pool is
// counted up front and an insufficient-examples error is returned.
func (t *Task) fewshotExamples(
	docs []docstore.Document,
	k int,
	rnd *rand.Rand,
	exclude docstore.Document,
) ([]docstore.Document, []int, error) {
	if k <= 0 {
		return nil, nil, nil
	}
	if rnd == nil {
		return nil, nil, fmt.Errorf("task: nil random source")
	}

	available := 0
	for _, doc := range docs {
		if t.eligible(doc) && doc.ID != exclude.ID {
			available++
		}
	}
	if k > available {
		return nil, nil, fmt.Errorf(
			"task: insufficient examples: need %d few-shot documents, %d eligible", k, available)
	}

	examples := make([]docstore.Document, 0, k)
	indices := make([]int, 0, k)
	taken := make(map[int]bool, k)

	// Draw batches of 10·k indices without replacement; a permutation
	// prefix is an unordered sample scanned in draw order.
	batchSize := 10 * k
	if batchSize > len(docs) {
		batchSize = len(docs)
	}
	for len(examples) < k {
		for _, idx := range rnd.Perm(len(docs))[:batchSize] {
			if len(examples) >= k {
				break
			}
			doc := docs[idx]
			if taken[idx] || !t.eligible(doc) || doc.ID == exclude.ID {
				continue
			}
			taken[idx] = true
			examples = append(examples, doc)
			indices = append(indices, idx)
		}
	}
	return examples, indices, nil
}
