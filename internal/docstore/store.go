package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Split names recognized by Load, in load order.
var splitNames = []string{"train", "validation", "test", "sampled_test"}

// Store holds the per-split document collections for one dataset. Splits are
// loaded once and never mutated afterward, so a Store is safe for shared
// read-only use across any number of evaluations.
type Store struct {
	dataset string
	splits  map[string][]Document
}

// Dataset returns the dataset name this store was loaded from.
func (s *Store) Dataset() string {
	if s == nil {
		return ""
	}
	return s.dataset
}

// Split returns the named split, if present.
func (s *Store) Split(name string) ([]Document, bool) {
	if s == nil || s.splits == nil {
		return nil, false
	}
	docs, ok := s.splits[strings.TrimSpace(name)]
	return docs, ok
}

// Has reports whether the named split exists and is non-empty.
func (s *Store) Has(name string) bool {
	docs, ok := s.Split(name)
	return ok && len(docs) > 0
}

// SplitNames returns the loaded split names, sorted.
func (s *Store) SplitNames() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.splits))
	for name := range s.splits {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Load reads a dataset from dir/<dataset>/<split>.jsonl for each known split
// name. Missing split files are fine; at least one split must exist. Document
// IDs are assigned sequentially across all splits so they are unique within
// the store.
func Load(ctx context.Context, dir, dataset string) (*Store, error) {
	if ctx == nil {
		return nil, errors.New("docstore: nil context")
	}
	dataset = strings.TrimSpace(dataset)
	if dataset == "" {
		return nil, errors.New("docstore: empty dataset name")
	}

	st := &Store{
		dataset: dataset,
		splits:  make(map[string][]Document),
	}

	nextID := 0
	for _, split := range splitNames {
		path := filepath.Join(dir, dataset, split+".jsonl")
		rows, err := readJSONL(ctx, path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("docstore: load %q: %w", path, err)
		}

		docs := make([]Document, 0, len(rows))
		for _, fields := range rows {
			docs = append(docs, Document{ID: nextID, Fields: fields})
			nextID++
		}
		st.splits[split] = docs
	}

	if len(st.splits) == 0 {
		return nil, fmt.Errorf("docstore: dataset %q has no splits under %q", dataset, dir)
	}
	return st, nil
}

// FromSplits builds a store from in-memory splits, assigning document IDs.
// Intended for tests and synthetic datasets.
func FromSplits(dataset string, splits map[string][]map[string]any) *Store {
	st := &Store{
		dataset: dataset,
		splits:  make(map[string][]Document, len(splits)),
	}
	nextID := 0
	for _, name := range splitNames {
		rows, ok := splits[name]
		if !ok {
			continue
		}
		docs := make([]Document, 0, len(rows))
		for _, fields := range rows {
			docs = append(docs, Document{ID: nextID, Fields: fields})
			nextID++
		}
		st.splits[name] = docs
	}
	return st
}
