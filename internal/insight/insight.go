// Package insight converts completed stage results into narrative findings
// with significance scores, and derives the dataset health score.
package insight

// Category classifies a finding for downstream action mapping.
type Category string

const (
	CategoryStatistical  Category = "statistical"
	CategoryQuality      Category = "quality"
	CategoryPredictive   Category = "predictive"
	CategorySegmentation Category = "segmentation"
	CategoryOperational  Category = "operational"
)

// Evidence records the metric a finding rests on and the gate it cleared.
type Evidence struct {
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// Insight is one synthesized finding. Immutable after creation; IDs are
// deterministic so identical inputs produce identical output.
type Insight struct {
	ID            string   `json:"id"`
	SourcePlugins []string `json:"source_plugins"`
	Category      Category `json:"category"`
	Statement     string   `json:"statement"`
	Detail        string   `json:"detail,omitempty"`
	Columns       []string `json:"columns,omitempty"`
	Evidence      Evidence `json:"evidence"`
	Significance  float64  `json:"significance"`
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
