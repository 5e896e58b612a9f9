package metrics

// Rouge computes ROUGE-1, ROUGE-2, ROUGE-L and ROUGE-Lsum
// precision/recall/F-measure between a prediction and one or more
// references, returning all twelve sub-scores flattened under keys like
// "rouge1_precision". With multiple references, each sub-score is the
// maximum over references.
func Rouge(refs []string, pred string) map[string]float64 {
	out := map[string]float64{
		"rouge1_precision": 0, "rouge1_recall": 0, "rouge1_fmeasure": 0,
		"rouge2_precision": 0, "rouge2_recall": 0, "rouge2_fmeasure": 0,
		"rougeL_precision": 0, "rougeL_recall": 0, "rougeL_fmeasure": 0,
		"rougeLsum_precision": 0, "rougeLsum_recall": 0, "rougeLsum_fmeasure": 0,
	}

	predTokens := Tokenize(pred)
	for _, ref := range refs {
		refTokens := Tokenize(ref)

		merge(out, "rouge1", rougeN(refTokens, predTokens, 1))
		merge(out, "rouge2", rougeN(refTokens, predTokens, 2))
		merge(out, "rougeL", rougeL(refTokens, predTokens))
		merge(out, "rougeLsum", rougeLsum(ref, pred))
	}
	return out
}

type prf struct {
	precision float64
	recall    float64
	fmeasure  float64
}

func merge(out map[string]float64, key string, score prf) {
	if score.precision > out[key+"_precision"] {
		out[key+"_precision"] = score.precision
	}
	if score.recall > out[key+"_recall"] {
		out[key+"_recall"] = score.recall
	}
	if score.fmeasure > out[key+"_fmeasure"] {
		out[key+"_fmeasure"] = score.fmeasure
	}
}

func rougeN(ref, pred []string, n int) prf {
	refGrams := ngrams(ref, n)
	predGrams := ngrams(pred, n)

	overlap := countOverlap(refGrams, predGrams)
	return scoreFromCounts(overlap, sumCounts(predGrams), sumCounts(refGrams))
}

func rougeL(ref, pred []string) prf {
	lcs := lcsLength(ref, pred)
	return scoreFromCounts(lcs, len(pred), len(ref))
}

// rougeLsum is summary-level ROUGE-L: the union of LCS hits between each
// reference sentence and the whole prediction, over sentence-split text.
func rougeLsum(ref, pred string) prf {
	refSents := SplitSentences(ref)
	predTokens := Tokenize(pred)

	refLen := 0
	hits := 0
	used := make([]bool, len(predTokens))
	for _, sent := range refSents {
		sentTokens := Tokenize(sent)
		refLen += len(sentTokens)
		for _, j := range lcsIndices(sentTokens, predTokens) {
			if !used[j] {
				used[j] = true
				hits++
			}
		}
	}
	return scoreFromCounts(hits, len(predTokens), refLen)
}

func scoreFromCounts(overlap, predTotal, refTotal int) prf {
	var p, r float64
	if predTotal > 0 {
		p = float64(overlap) / float64(predTotal)
	}
	if refTotal > 0 {
		r = float64(overlap) / float64(refTotal)
	}
	return prf{precision: p, recall: r, fmeasure: fmeasure(p, r)}
}

func lcsLength(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// lcsIndices returns the positions in b that participate in one longest
// common subsequence of a and b.
func lcsIndices(a, b []string) []int {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	var idx []int
	i, j := len(a), len(b)
	for i > 0 && j > 0 {
		switch {
		case a[i-1] == b[j-1]:
			idx = append(idx, j-1)
			i--
			j--
		case dp[i-1][j] >= dp[i][j-1]:
			i--
		default:
			j--
		}
	}
	return idx
}
