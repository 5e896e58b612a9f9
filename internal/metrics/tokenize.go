package metrics

import (
	"strings"
	"unicode"
)

// Tokenize lowercases s and splits it into runs of letters and digits.
// Punctuation and whitespace are separators. Works on any script, so the
// same tokenizer serves all dataset languages.
func Tokenize(s string) []string {
	s = strings.ToLower(s)
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// SplitSentences breaks text into sentences on newlines and terminal
// punctuation. Used by summary-level ROUGE-Lsum.
func SplitSentences(s string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		sent := strings.TrimSpace(cur.String())
		if sent != "" {
			out = append(out, sent)
		}
		cur.Reset()
	}

	for _, r := range s {
		switch r {
		case '\n', '.', '!', '?', '。', '؟', '।':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func ngrams(tokens []string, n int) map[string]int {
	out := make(map[string]int)
	if n <= 0 || len(tokens) < n {
		return out
	}
	for i := 0; i+n <= len(tokens); i++ {
		out[strings.Join(tokens[i:i+n], "\x1f")]++
	}
	return out
}

func countOverlap(a, b map[string]int) int {
	total := 0
	for g, ca := range a {
		if cb, ok := b[g]; ok {
			if cb < ca {
				total += cb
			} else {
				total += ca
			}
		}
	}
	return total
}

func sumCounts(m map[string]int) int {
	total := 0
	for _, c := range m {
		total += c
	}
	return total
}

func fmeasure(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
