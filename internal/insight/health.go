package insight

import (
	"github.com/KaramelBytes/datasight/internal/pipeline"
	"github.com/KaramelBytes/datasight/internal/plugins"
)

// HealthLabel is the categorical band of a health score.
type HealthLabel string

const (
	HealthPoor      HealthLabel = "Poor"
	HealthFair      HealthLabel = "Fair"
	HealthGood      HealthLabel = "Good"
	HealthExcellent HealthLabel = "Excellent"
)

// HealthComponents are the quality ratios the score is composed from.
type HealthComponents struct {
	MissingRatio     float64 `json:"missing_ratio"`
	DuplicationRatio float64 `json:"duplication_ratio"`
	AnomalyRatio     float64 `json:"anomaly_ratio"`
}

// HealthScore is the 0-100 composite data quality metric, derived once per
// run.
type HealthScore struct {
	Value      float64          `json:"value"`
	Label      HealthLabel      `json:"label"`
	Components HealthComponents `json:"components"`
}

// HealthWeights weighs the three component ratios. They must sum to 1 for
// the score to span the full 0-100 range.
type HealthWeights struct {
	Missing   float64 `json:"missing"`
	Duplicate float64 `json:"duplicate"`
	Anomaly   float64 `json:"anomaly"`
}

// DefaultHealthWeights weights missingness heaviest: absent cells corrupt
// every downstream statistic, while duplicates and anomalies degrade more
// locally.
func DefaultHealthWeights() HealthWeights {
	return HealthWeights{Missing: 0.5, Duplicate: 0.3, Anomaly: 0.2}
}

// ComputeHealth derives the health score from the quality and outlier stages.
// A missing stage contributes a zero ratio, not an error. Increasing any
// component ratio never increases the value.
func ComputeHealth(ac *pipeline.AnalysisContext, w HealthWeights) HealthScore {
	var comp HealthComponents
	if payload, ok := ac.Payload(plugins.IDQuality); ok {
		q := payload.(plugins.QualityPayload)
		comp.MissingRatio = q.MissingRatio
		comp.DuplicationRatio = q.DuplicateRatio
	}
	if payload, ok := ac.Payload(plugins.IDOutliers); ok {
		comp.AnomalyRatio = payload.(plugins.OutliersPayload).Ratio
	}
	return scoreHealth(comp, w)
}

func scoreHealth(comp HealthComponents, w HealthWeights) HealthScore {
	penalty := w.Missing*clamp01(comp.MissingRatio) +
		w.Duplicate*clamp01(comp.DuplicationRatio) +
		w.Anomaly*clamp01(comp.AnomalyRatio)
	value := 100 * (1 - penalty)
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	return HealthScore{Value: value, Label: healthLabel(value), Components: comp}
}

// healthLabel buckets the value into non-overlapping bands with closed lower
// bounds.
func healthLabel(value float64) HealthLabel {
	switch {
	case value >= 90:
		return HealthExcellent
	case value >= 75:
		return HealthGood
	case value >= 50:
		return HealthFair
	default:
		return HealthPoor
	}
}
