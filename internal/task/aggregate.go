package task

import "github.com/LuisVasquezBSC/flor-language-adaptation/internal/metrics"

// Aggregator reduces the per-document values of one metric key to a single
// corpus score.
type Aggregator func(values []Value) float64

// Aggregation maps each metric key the task can emit to its reduction:
// arithmetic mean everywhere except bleu, which recomputes corpus-level
// BLEU from the deferred pairs.
func (t *Task) Aggregation() map[string]Aggregator {
	out := make(map[string]Aggregator)
	for _, metric := range t.metrics {
		switch metric {
		case MetricAccuracy:
			out["acc"] = Mean
			out["acc_norm"] = Mean
		case MetricBLEU:
			out["bleu"] = corpusBLEU
		case MetricROUGE:
			for _, key := range rougeKeys {
				out[key] = Mean
			}
		case MetricSARI:
			out["sari"] = Mean
		}
	}
	return out
}

// HigherIsBetter reports score directionality per metric key. Every metric
// here improves upward.
func (t *Task) HigherIsBetter() map[string]bool {
	out := make(map[string]bool)
	for key := range t.Aggregation() {
		out[key] = true
	}
	return out
}

// Mean averages scalar values.
func Mean(values []Value) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v.Score
	}
	return sum / float64(len(values))
}

func corpusBLEU(values []Value) float64 {
	refs := make([][]string, 0, len(values))
	preds := make([]string, 0, len(values))
	for _, v := range values {
		if !v.Deferred() {
			continue
		}
		refs = append(refs, v.Refs)
		preds = append(preds, v.Pred)
	}
	return metrics.BLEU(refs, preds)
}
