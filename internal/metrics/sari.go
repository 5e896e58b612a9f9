package metrics

// SARI scores a rewritten text against its source and references by
// comparing which n-grams were kept, added and deleted (Xu et al. 2016).
// The per-order keep/add/delete scores are averaged over n-gram orders
// 1..4; the result is in [0, 1].
func SARI(source, pred string, refs []string) float64 {
	if len(refs) == 0 {
		return 0
	}

	srcTokens := Tokenize(source)
	predTokens := Tokenize(pred)
	refTokens := make([][]string, len(refs))
	for i, ref := range refs {
		refTokens[i] = Tokenize(ref)
	}

	total := 0.0
	for n := 1; n <= 4; n++ {
		keep, del, add := sariOrder(srcTokens, predTokens, refTokens, n)
		total += (keep + del + add) / 3
	}
	return total / 4
}

func sariOrder(src, pred []string, refs [][]string, n int) (keep, del, add float64) {
	numRefs := len(refs)

	// Source and candidate counters are replicated once per reference so
	// they compare on the same scale as the pooled reference counter.
	srcRep := scaleCounts(ngrams(src, n), numRefs)
	predRep := scaleCounts(ngrams(pred, n), numRefs)
	refAll := make(map[string]int)
	for _, ref := range refs {
		for g, c := range ngrams(ref, n) {
			refAll[g] += c
		}
	}

	keep = sariKeep(srcRep, predRep, refAll)
	del = sariDelete(srcRep, predRep, refAll, numRefs)
	add = sariAdd(srcRep, predRep, refAll)
	return keep, del, add
}

func sariKeep(srcRep, predRep, refAll map[string]int) float64 {
	kept := intersect(srcRep, predRep)
	keptGood := intersect(kept, refAll)
	keptAll := intersect(srcRep, refAll)

	var p1, r1 float64
	for g, good := range keptGood {
		p1 += float64(good) / float64(kept[g])
	}
	precision := safeDiv(p1, float64(len(kept)))
	for _, good := range keptGood {
		r1 += float64(good)
	}
	recall := safeDiv(r1, float64(sumCounts(keptAll)))
	return fmeasure(precision, recall)
}

func sariDelete(srcRep, predRep, refAll map[string]int, numRefs int) float64 {
	deleted := subtract(srcRep, predRep)
	deletedGood := subtract(deleted, refAll)

	var p1 float64
	for g, good := range deletedGood {
		p1 += float64(good) / float64(deleted[g])
	}
	// Deletion is precision-only, as in the reference implementation.
	return safeDiv(p1, float64(len(deleted)))
}

func sariAdd(srcRep, predRep, refAll map[string]int) float64 {
	added := subtract(predRep, srcRep)
	addedGood := intersect(added, refAll)
	addedAll := subtract(refAll, srcRep)

	precision := safeDiv(float64(len(addedGood)), float64(len(added)))
	recall := safeDiv(float64(len(addedGood)), float64(len(addedAll)))
	return fmeasure(precision, recall)
}

func scaleCounts(m map[string]int, factor int) map[string]int {
	out := make(map[string]int, len(m))
	for g, c := range m {
		out[g] = c * factor
	}
	return out
}

func intersect(a, b map[string]int) map[string]int {
	out := make(map[string]int)
	for g, ca := range a {
		if cb, ok := b[g]; ok {
			if cb < ca {
				out[g] = cb
			} else {
				out[g] = ca
			}
		}
	}
	return out
}

func subtract(a, b map[string]int) map[string]int {
	out := make(map[string]int)
	for g, ca := range a {
		if diff := ca - b[g]; diff > 0 {
			out[g] = diff
		}
	}
	return out
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
