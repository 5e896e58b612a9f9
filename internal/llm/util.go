package llm

import "strings"

const (
	defaultMaxTokens = 256
	maxMaxTokens     = 8192
)

func clampMaxTokens(n int) int {
	if n <= 0 {
		return defaultMaxTokens
	}
	if n > maxMaxTokens {
		return maxMaxTokens
	}
	return n
}

// truncateAtStops cuts s at the earliest occurrence of any stop sequence.
func truncateAtStops(s string, stops []string) string {
	cut := len(s)
	for _, stop := range stops {
		if stop == "" {
			continue
		}
		if idx := strings.Index(s, stop); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	return s[:cut]
}
