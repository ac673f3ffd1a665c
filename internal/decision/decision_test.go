package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/insight"
)

func metaWithRows(rows int, missing float64) dataset.Meta {
	return dataset.Meta{
		Name: "t",
		Rows: rows,
		Cols: 2,
		Columns: []dataset.ColumnMeta{
			{Name: "a", Ratio: missing},
			{Name: "b", Ratio: missing},
		},
	}
}

func TestDecideEmptyInsights(t *testing.T) {
	out := NewEngine(DefaultConfidenceWeights(), DefaultSaturationRows).Decide(metaWithRows(100, 0), nil)
	assert.Empty(t, out)
}

func TestDecideConfidenceExtremes(t *testing.T) {
	engine := NewEngine(DefaultConfidenceWeights(), DefaultSaturationRows)

	// Maximal significance, saturated sample, complete data, fully
	// actionable quality domain.
	strong := insight.Insight{
		ID:           "missingness",
		Category:     insight.CategoryQuality,
		Evidence:     insight.Evidence{Metric: "missing_ratio", Value: 0.3},
		Significance: 1.0,
	}
	out := engine.Decide(metaWithRows(5000, 0), []insight.Insight{strong})
	require.Len(t, out, 1)
	assert.InDelta(t, 1.0, out[0].Confidence, 1e-9)

	// Weak finding over a thin, gappy sample.
	weak := insight.Insight{
		ID:           "correlation-a-b",
		Category:     insight.CategoryStatistical,
		Columns:      []string{"a", "b"},
		Evidence:     insight.Evidence{Metric: "pearson_r", Value: 0.42, Threshold: 0.4},
		Significance: 0.2,
	}
	out = engine.Decide(metaWithRows(50, 0.4), []insight.Insight{weak})
	require.Len(t, out, 1)
	assert.Less(t, out[0].Confidence, 0.4)
	assert.GreaterOrEqual(t, out[0].Confidence, 0.0)
}

func TestDecideImpactBuckets(t *testing.T) {
	engine := NewEngine(DefaultConfidenceWeights(), DefaultSaturationRows)
	meta := metaWithRows(1000, 0)

	cases := []struct {
		name   string
		metric string
		value  float64
		want   Impact
	}{
		{"high ratio", "missing_ratio", 0.15, ImpactHigh},
		{"medium ratio", "missing_ratio", 0.05, ImpactMedium},
		{"low ratio", "missing_ratio", 0.02, ImpactLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ins := insight.Insight{
				ID:           "missingness",
				Category:     insight.CategoryQuality,
				Evidence:     insight.Evidence{Metric: tc.metric, Value: tc.value},
				Significance: 0.7,
			}
			out := engine.Decide(meta, []insight.Insight{ins})
			require.Len(t, out, 1)
			assert.Equal(t, tc.want, out[0].Impact, "lower bounds are closed")
		})
	}
}

func TestDecideDedupeUnionsInsights(t *testing.T) {
	engine := NewEngine(DefaultConfidenceWeights(), DefaultSaturationRows)
	meta := metaWithRows(1000, 0)
	insights := []insight.Insight{
		{
			ID: "correlation-b-a", Category: insight.CategoryStatistical,
			Evidence:     insight.Evidence{Metric: "pearson_r", Value: 0.5, Threshold: 0.4},
			Significance: 0.6,
		},
		{
			ID: "correlation-a-b", Category: insight.CategoryStatistical,
			Evidence:     insight.Evidence{Metric: "pearson_r", Value: 0.9, Threshold: 0.4},
			Significance: 0.9,
		},
	}
	out := engine.Decide(meta, insights)
	require.Len(t, out, 1, "same action and domain must merge")
	assert.Equal(t, []string{"correlation-a-b", "correlation-b-a"}, out[0].InsightIDs)
	assert.Equal(t, ImpactHigh, out[0].Impact, "merge keeps the winning candidate's impact")

	// Merged confidence is the max of the pair.
	solo := engine.Decide(meta, insights[1:])
	require.Len(t, solo, 1)
	assert.Equal(t, solo[0].Confidence, out[0].Confidence)
}

// A merge must not mix fields across candidates: when the lower-confidence
// candidate carries the bigger effect, the survivor still reports the
// higher-confidence candidate's impact.
func TestDecideDedupeKeepsWinningCandidateWhole(t *testing.T) {
	engine := NewEngine(DefaultConfidenceWeights(), DefaultSaturationRows)
	meta := metaWithRows(1000, 0)
	bigEffect := insight.Insight{
		ID: "correlation-a-b", Category: insight.CategoryStatistical,
		Evidence:     insight.Evidence{Metric: "pearson_r", Value: 0.9, Threshold: 0.4},
		Significance: 0.5,
	}
	confident := insight.Insight{
		ID: "correlation-c-d", Category: insight.CategoryStatistical,
		Evidence:     insight.Evidence{Metric: "pearson_r", Value: 0.45, Threshold: 0.4},
		Significance: 0.95,
	}

	out := engine.Decide(meta, []insight.Insight{bigEffect, confident})
	require.Len(t, out, 1)
	solo := engine.Decide(meta, []insight.Insight{confident})
	require.Len(t, solo, 1)

	assert.Equal(t, solo[0].Confidence, out[0].Confidence)
	assert.Equal(t, solo[0].Impact, out[0].Impact, "impact must ride with the winning confidence")
	assert.Equal(t, ImpactMedium, out[0].Impact)
	assert.Equal(t, []string{"correlation-a-b", "correlation-c-d"}, out[0].InsightIDs)
}

func TestDecideDeterministicTotalOrder(t *testing.T) {
	engine := NewEngine(DefaultConfidenceWeights(), DefaultSaturationRows)
	meta := metaWithRows(800, 0.05)
	insights := []insight.Insight{
		{ID: "segmentation", Category: insight.CategorySegmentation,
			Evidence:     insight.Evidence{Metric: "silhouette", Value: 0.6},
			Significance: 0.8},
		{ID: "missingness", Category: insight.CategoryQuality,
			Evidence:     insight.Evidence{Metric: "missing_ratio", Value: 0.2},
			Significance: 0.6},
		{ID: "key-drivers", Category: insight.CategoryPredictive,
			Evidence:     insight.Evidence{Metric: "association", Value: 0.7},
			Significance: 0.9},
		{ID: "trend-sales", Category: insight.CategoryOperational,
			Evidence:     insight.Evidence{Metric: "trend_r2", Value: 0.5},
			Significance: 0.75},
	}

	first := engine.Decide(meta, insights)
	second := engine.Decide(meta, insights)
	assert.Equal(t, first, second, "identical input must yield identical output")

	for i := 1; i < len(first); i++ {
		prev, cur := first[i-1], first[i]
		if impactRank(prev.Impact) == impactRank(cur.Impact) {
			if prev.Confidence == cur.Confidence {
				assert.Less(t, prev.ID, cur.ID)
			} else {
				assert.Greater(t, prev.Confidence, cur.Confidence)
			}
		} else {
			assert.Greater(t, impactRank(prev.Impact), impactRank(cur.Impact))
		}
	}
}

func TestDecideConfidenceAlwaysBounded(t *testing.T) {
	engine := NewEngine(ConfidenceWeights{Significance: 2, SampleAdequacy: 2, Completeness: 2}, DefaultSaturationRows)
	ins := insight.Insight{
		ID: "missingness", Category: insight.CategoryQuality,
		Evidence:     insight.Evidence{Metric: "missing_ratio", Value: 0.9},
		Significance: 1,
	}
	out := engine.Decide(metaWithRows(100000, 0), []insight.Insight{ins})
	require.Len(t, out, 1)
	assert.LessOrEqual(t, out[0].Confidence, 1.0)
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "no recommendations", Summary(nil))
	recs := []Recommendation{
		{Impact: ImpactHigh}, {Impact: ImpactHigh}, {Impact: ImpactLow},
	}
	assert.Equal(t, "2 high-impact, 1 low-impact", Summary(recs))
}
