package task

import "strings"

// Metric is the closed set of metrics a prompt template may declare.
// Unrecognized declarations parse to MetricUnknown and are skipped with a
// warning at scoring time rather than failing the run.
type Metric int

const (
	MetricUnknown Metric = iota
	MetricAccuracy
	MetricBLEU
	MetricROUGE
	MetricSARI
)

// ParseMetric maps a template's declared metric name to a Metric.
func ParseMetric(name string) Metric {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "accuracy", "acc":
		return MetricAccuracy
	case "bleu":
		return MetricBLEU
	case "rouge":
		return MetricROUGE
	case "sari":
		return MetricSARI
	default:
		return MetricUnknown
	}
}

func (m Metric) String() string {
	switch m {
	case MetricAccuracy:
		return "Accuracy"
	case MetricBLEU:
		return "BLEU"
	case MetricROUGE:
		return "ROUGE"
	case MetricSARI:
		return "SARI"
	default:
		return "Unknown"
	}
}

// rougeKeys lists every sub-score ROUGE reports, in stable order.
var rougeKeys = []string{
	"rouge1_precision", "rouge1_recall", "rouge1_fmeasure",
	"rouge2_precision", "rouge2_recall", "rouge2_fmeasure",
	"rougeL_precision", "rougeL_recall", "rougeL_fmeasure",
	"rougeLsum_precision", "rougeLsum_recall", "rougeLsum_fmeasure",
}
