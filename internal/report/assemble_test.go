package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/decision"
	"github.com/KaramelBytes/datasight/internal/insight"
	"github.com/KaramelBytes/datasight/internal/pipeline"
	"github.com/KaramelBytes/datasight/internal/plugins"
)

type fixedPlugin struct {
	id      string
	payload any
}

func (p fixedPlugin) ID() string                  { return p.id }
func (p fixedPlugin) DependsOn() []string         { return nil }
func (p fixedPlugin) Category() pipeline.Category { return pipeline.Core }
func (p fixedPlugin) Run(context.Context, *pipeline.View, *dataset.Frame) (any, error) {
	return p.payload, nil
}

func contextWith(t *testing.T, payloads map[string]any) *pipeline.AnalysisContext {
	t.Helper()
	reg := pipeline.NewRegistry()
	for _, id := range []string{
		plugins.IDOverview, plugins.IDUnivariate, plugins.IDQuality,
		plugins.IDMissing, plugins.IDCorrelations, plugins.IDOutliers,
		plugins.IDInteractions, plugins.IDPCA, plugins.IDClustering,
		plugins.IDTimeseries, plugins.IDGeospatial, plugins.IDTarget,
	} {
		if payload, ok := payloads[id]; ok {
			require.NoError(t, reg.Register(fixedPlugin{id: id, payload: payload}))
		}
	}
	orch := pipeline.NewOrchestrator(reg, zap.NewNop())
	ac, err := orch.Run(context.Background(), &dataset.Frame{Name: "sales", Rows: 100})
	require.NoError(t, err)
	return ac
}

func healthy() insight.HealthScore {
	return insight.HealthScore{Value: 95, Label: insight.HealthExcellent}
}

func TestAssembleOmitsSectionsWithoutEvidence(t *testing.T) {
	ac := contextWith(t, map[string]any{
		plugins.IDOverview: plugins.OverviewPayload{Rows: 100, Cols: 3, Numeric: 2, Categorical: 1},
	})
	doc := NewAssembler(zap.NewNop()).Assemble(ac, healthy(), nil, nil)

	require.Len(t, doc.Sections, 1, "only overview has evidence")
	assert.Equal(t, SectionOverview, doc.Sections[0].ID)
}

func TestAssembleSectionOrderAndKPIs(t *testing.T) {
	ac := contextWith(t, map[string]any{
		plugins.IDOverview: plugins.OverviewPayload{Rows: 100, Cols: 3, Numeric: 2},
		plugins.IDQuality:  plugins.QualityPayload{MissingRatio: 0.08, DuplicateRows: 4},
		plugins.IDCorrelations: plugins.CorrelationsPayload{
			Columns: []string{"a", "b"},
			Matrix:  [][]float64{{1, 0.7}, {0.7, 1}},
		},
	})
	recs := []decision.Recommendation{{ID: "rec-audit-anomalies", Impact: decision.ImpactHigh}}
	doc := NewAssembler(zap.NewNop()).Assemble(ac, healthy(), nil, recs)

	ids := make([]string, len(doc.Sections))
	for i, s := range doc.Sections {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{SectionOverview, SectionQuality, SectionRelationships, SectionRecommendations}, ids)

	quality, ok := doc.Section(SectionQuality)
	require.True(t, ok)
	require.NotEmpty(t, quality.KPIs)
	assert.Equal(t, "Missing Cells", quality.KPIs[1].Label)
	assert.Equal(t, "8.0%", quality.KPIs[1].Value)
}

func TestAssembleRelationshipsHeatmap(t *testing.T) {
	ac := contextWith(t, map[string]any{
		plugins.IDCorrelations: plugins.CorrelationsPayload{
			Columns: []string{"a", "b"},
			Matrix:  [][]float64{{1, -0.4}, {-0.4, 1}},
		},
		plugins.IDInteractions: plugins.InteractionsPayload{
			A: "a", B: "b", R: -0.4,
			Points: []plugins.ScatterPoint{{X: 1, Y: 2}},
		},
	})
	doc := NewAssembler(zap.NewNop()).Assemble(ac, healthy(), nil, nil)

	sec, ok := doc.Section(SectionRelationships)
	require.True(t, ok)
	require.Len(t, sec.Charts, 2)
	assert.Equal(t, "heatmap", sec.Charts[0].ChartType)
	require.NotNil(t, sec.Charts[0].Matrix)
	assert.Equal(t, []string{"a", "b"}, sec.Charts[0].Matrix.Labels)
	assert.Equal(t, "scatter", sec.Charts[1].ChartType)
}

func TestAssembleGeographyScatter(t *testing.T) {
	ac := contextWith(t, map[string]any{
		plugins.IDGeospatial: plugins.GeospatialPayload{
			LatColumn: "lat", LonColumn: "lon", Total: 2,
			CenterLat: 51.0, CenterLon: 3.5,
			Points: []plugins.GeoPoint{{Lat: 52, Lon: 4}, {Lat: 50, Lon: 3}},
		},
	})
	doc := NewAssembler(zap.NewNop()).Assemble(ac, healthy(), nil, nil)

	sec, ok := doc.Section(SectionGeography)
	require.True(t, ok)
	require.Len(t, sec.Charts, 1)
	assert.Equal(t, "scatter", sec.Charts[0].ChartType)
	require.Len(t, sec.Charts[0].Series, 1)
	// Longitude is the x axis, latitude the y axis.
	assert.Equal(t, 4.0, sec.Charts[0].Series[0].Data[0].X)
	assert.Equal(t, 52.0, sec.Charts[0].Series[0].Data[0].Y)
}

func TestAssembleScopesInsightsByCategory(t *testing.T) {
	ac := contextWith(t, map[string]any{
		plugins.IDQuality:      plugins.QualityPayload{MissingRatio: 0.2},
		plugins.IDCorrelations: plugins.CorrelationsPayload{Columns: []string{"a"}, Matrix: [][]float64{{1}}},
	})
	insights := []insight.Insight{
		{ID: "missingness", Category: insight.CategoryQuality, Statement: "gaps"},
		{ID: "correlation-a-b", Category: insight.CategoryStatistical, Statement: "linked"},
	}
	doc := NewAssembler(zap.NewNop()).Assemble(ac, healthy(), insights, nil)

	quality, _ := doc.Section(SectionQuality)
	require.Len(t, quality.Insights, 1)
	assert.Equal(t, "missingness", quality.Insights[0].ID)

	rel, _ := doc.Section(SectionRelationships)
	require.Len(t, rel.Insights, 1)
	assert.Equal(t, "correlation-a-b", rel.Insights[0].ID)

	// The recommendations section always carries the full list.
	recsec, ok := doc.Section(SectionRecommendations)
	require.True(t, ok)
	assert.Len(t, recsec.Insights, 2)
}

func TestAssembleStageLedger(t *testing.T) {
	ac := contextWith(t, map[string]any{
		plugins.IDOverview: plugins.OverviewPayload{Rows: 1},
		plugins.IDQuality:  plugins.QualityPayload{},
	})
	doc := NewAssembler(zap.NewNop()).Assemble(ac, healthy(), nil, nil)

	require.Len(t, doc.Stages, 2)
	for _, st := range doc.Stages {
		assert.Equal(t, "ok", st.Status)
	}
	assert.NotEmpty(t, doc.RunID)
	assert.Equal(t, "sales", doc.Dataset.Name)
}
