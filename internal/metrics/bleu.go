package metrics

import "math"

const bleuMaxOrder = 4

// BLEU computes corpus-level BLEU-4 over parallel reference lists and
// predictions. refs[i] holds the reference strings for preds[i]. Clipped
// n-gram counts are pooled across the corpus before the geometric mean,
// and the brevity penalty uses the closest reference length per segment.
// The score is in [0, 1].
func BLEU(refs [][]string, preds []string) float64 {
	if len(refs) == 0 || len(refs) != len(preds) {
		return 0
	}

	matches := make([]int, bleuMaxOrder)
	possible := make([]int, bleuMaxOrder)
	predLen := 0
	refLen := 0

	for i, pred := range preds {
		predTokens := Tokenize(pred)
		predLen += len(predTokens)
		refLen += closestRefLength(refs[i], len(predTokens))

		for n := 1; n <= bleuMaxOrder; n++ {
			predGrams := ngrams(predTokens, n)

			// Clip against the per-gram maximum across references.
			maxRefGrams := make(map[string]int)
			for _, ref := range refs[i] {
				for g, c := range ngrams(Tokenize(ref), n) {
					if c > maxRefGrams[g] {
						maxRefGrams[g] = c
					}
				}
			}

			matches[n-1] += countOverlap(predGrams, maxRefGrams)
			possible[n-1] += sumCounts(predGrams)
		}
	}

	logSum := 0.0
	for n := 0; n < bleuMaxOrder; n++ {
		if possible[n] == 0 || matches[n] == 0 {
			return 0
		}
		logSum += math.Log(float64(matches[n]) / float64(possible[n]))
	}
	geoMean := math.Exp(logSum / bleuMaxOrder)

	bp := 1.0
	if predLen < refLen && predLen > 0 {
		bp = math.Exp(1 - float64(refLen)/float64(predLen))
	}
	if predLen == 0 {
		return 0
	}
	return bp * geoMean
}

func closestRefLength(refs []string, predLen int) int {
	best := 0
	bestDiff := math.MaxInt
	for _, ref := range refs {
		n := len(Tokenize(ref))
		diff := n - predLen
		if diff < 0 {
			diff = -diff
		}
		// Ties prefer the shorter reference.
		if diff < bestDiff || (diff == bestDiff && n < best) {
			best = n
			bestDiff = diff
		}
	}
	return best
}
