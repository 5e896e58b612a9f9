package task

import (
	"fmt"
	"sort"
	"strings"
)

// BenchmarkName prefixes every registered task name.
const BenchmarkName = "wikilingua"

// Registry maps task names ("wikilingua_en") to language configurations.
type Registry struct {
	languages map[string]Language
}

// NewRegistry returns a registry holding every WikiLingua language.
func NewRegistry() *Registry {
	r := &Registry{languages: make(map[string]Language, len(Languages))}
	for _, lang := range Languages {
		r.languages[fmt.Sprintf("%s_%s", BenchmarkName, lang.Code)] = lang
	}
	return r
}

// Get looks up a language configuration by task name.
func (r *Registry) Get(name string) (Language, bool) {
	if r == nil || r.languages == nil {
		return Language{}, false
	}
	lang, ok := r.languages[strings.TrimSpace(name)]
	return lang, ok
}

// Names returns all registered task names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.languages))
	for name := range r.languages {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
