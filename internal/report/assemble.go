package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/datasight/internal/decision"
	"github.com/KaramelBytes/datasight/internal/insight"
	"github.com/KaramelBytes/datasight/internal/pipeline"
	"github.com/KaramelBytes/datasight/internal/plugins"
)

// Assembler builds the report document from a completed run. Sections whose
// source stages produced no evidence are omitted rather than rendered empty.
type Assembler struct {
	log *zap.Logger
}

func NewAssembler(log *zap.Logger) *Assembler {
	return &Assembler{log: log}
}

// Assemble produces the full document. It never fails: missing evidence
// shrinks the report, it does not error.
func (a *Assembler) Assemble(ac *pipeline.AnalysisContext, health insight.HealthScore, insights []insight.Insight, recs []decision.Recommendation) *Document {
	doc := &Document{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Dataset:     ac.Meta(),
		Health:      health,
	}
	for _, r := range ac.Results() {
		doc.Stages = append(doc.Stages, StageSummary{
			PluginID: r.PluginID,
			Status:   string(r.Status),
			Reason:   r.Reason,
		})
	}

	builders := []func(*pipeline.AnalysisContext, insight.HealthScore, []insight.Insight, []decision.Recommendation) (SectionPayload, bool){
		a.overviewSection,
		a.qualitySection,
		a.distributionsSection,
		a.relationshipsSection,
		a.segmentsSection,
		a.trendsSection,
		a.geographySection,
		a.driversSection,
		a.recommendationsSection,
	}
	for _, build := range builders {
		sec, ok := build(ac, health, insights, recs)
		if !ok {
			continue
		}
		doc.Sections = append(doc.Sections, sec)
	}
	a.log.Info("report assembled",
		zap.String("run_id", doc.RunID),
		zap.Int("sections", len(doc.Sections)),
		zap.Int("insights", len(insights)),
		zap.Int("recommendations", len(recs)))
	return doc
}

func (a *Assembler) overviewSection(ac *pipeline.AnalysisContext, health insight.HealthScore, _ []insight.Insight, _ []decision.Recommendation) (SectionPayload, bool) {
	payload, ok := ac.Payload(plugins.IDOverview)
	if !ok {
		return SectionPayload{}, false
	}
	ov := payload.(plugins.OverviewPayload)
	kinds := []ChartPoint{
		{Label: "numeric", Value: float64(ov.Numeric)},
		{Label: "categorical", Value: float64(ov.Categorical)},
		{Label: "datetime", Value: float64(ov.Datetime)},
		{Label: "text", Value: float64(ov.Text)},
	}
	return SectionPayload{
		ID:    SectionOverview,
		Title: "Overview",
		KPIs: []KPI{
			{Label: "Rows", Value: fmt.Sprintf("%d", ov.Rows)},
			{Label: "Columns", Value: fmt.Sprintf("%d", ov.Cols)},
			{Label: "Health", Value: fmt.Sprintf("%.0f", health.Value), Hint: string(health.Label)},
		},
		Charts: []ChartSpec{
			barChart("overview-kinds", "Column Types", "Type", "Columns", kinds),
		},
	}, true
}

func (a *Assembler) qualitySection(ac *pipeline.AnalysisContext, health insight.HealthScore, insights []insight.Insight, _ []decision.Recommendation) (SectionPayload, bool) {
	payload, ok := ac.Payload(plugins.IDQuality)
	if !ok {
		return SectionPayload{}, false
	}
	q := payload.(plugins.QualityPayload)
	sec := SectionPayload{
		ID:    SectionQuality,
		Title: "Data Quality",
		KPIs: []KPI{
			{Label: "Health Score", Value: fmt.Sprintf("%.0f / 100", health.Value), Hint: string(health.Label)},
			{Label: "Missing Cells", Value: fmt.Sprintf("%.1f%%", q.MissingRatio*100)},
			{Label: "Duplicate Rows", Value: fmt.Sprintf("%d", q.DuplicateRows)},
		},
		Insights: insightsFor(insights, insight.CategoryQuality),
	}
	if mp, ok := ac.Payload(plugins.IDMissing); ok {
		var points []ChartPoint
		for _, c := range mp.(plugins.MissingPayload).Columns {
			if c.Ratio == 0 {
				continue
			}
			points = append(points, ChartPoint{Label: c.Name, Value: c.Ratio * 100})
			if len(points) == 12 {
				break
			}
		}
		if len(points) > 0 {
			sec.Charts = append(sec.Charts, barChart("quality-missing", "Missing Values by Column", "Column", "% missing", points))
		}
	}
	if op, ok := ac.Payload(plugins.IDOutliers); ok {
		var points []ChartPoint
		for _, c := range op.(plugins.OutliersPayload).Columns {
			if c.Count == 0 {
				continue
			}
			points = append(points, ChartPoint{Label: c.Name, Value: float64(c.Count)})
		}
		if len(points) > 0 {
			sec.Charts = append(sec.Charts, barChart("quality-outliers", "Outliers by Column", "Column", "Flagged values", points))
		}
	}
	return sec, true
}

func (a *Assembler) distributionsSection(ac *pipeline.AnalysisContext, _ insight.HealthScore, _ []insight.Insight, _ []decision.Recommendation) (SectionPayload, bool) {
	payload, ok := ac.Payload(plugins.IDUnivariate)
	if !ok {
		return SectionPayload{}, false
	}
	uni := payload.(plugins.UnivariatePayload)
	sec := SectionPayload{ID: SectionDistributions, Title: "Distributions"}
	for i, cs := range uni.Numeric {
		if i == 6 {
			break
		}
		points := make([]ChartPoint, 0, len(cs.Histogram))
		for _, b := range cs.Histogram {
			points = append(points, ChartPoint{
				Label: fmt.Sprintf("%.3g", (b.Low+b.High)/2),
				Value: float64(b.Count),
			})
		}
		title := cs.Name
		if cs.Unit != "" {
			title = fmt.Sprintf("%s (%s)", cs.Name, cs.Unit)
		}
		sec.Charts = append(sec.Charts, barChart("dist-"+cs.Name, title, cs.Name, "Count", points))
	}
	for i, cp := range uni.Categorical {
		if i == 4 {
			break
		}
		points := make([]ChartPoint, 0, len(cp.Top))
		for _, cc := range cp.Top {
			points = append(points, ChartPoint{Label: cc.Value, Value: float64(cc.Count)})
		}
		sec.Charts = append(sec.Charts, barChart("cat-"+cp.Name, cp.Name, cp.Name, "Count", points))
	}
	if len(sec.Charts) == 0 {
		return SectionPayload{}, false
	}
	return sec, true
}

func (a *Assembler) relationshipsSection(ac *pipeline.AnalysisContext, _ insight.HealthScore, insights []insight.Insight, _ []decision.Recommendation) (SectionPayload, bool) {
	payload, ok := ac.Payload(plugins.IDCorrelations)
	if !ok {
		return SectionPayload{}, false
	}
	corr := payload.(plugins.CorrelationsPayload)
	sec := SectionPayload{
		ID:       SectionRelationships,
		Title:    "Relationships",
		Charts:   []ChartSpec{heatmapChart("rel-matrix", "Correlation Matrix", corr.Columns, corr.Matrix)},
		Insights: insightsFor(insights, insight.CategoryStatistical),
	}
	if ip, ok := ac.Payload(plugins.IDInteractions); ok {
		inter := ip.(plugins.InteractionsPayload)
		points := make([]ChartPoint, 0, len(inter.Points))
		for _, pt := range inter.Points {
			points = append(points, ChartPoint{X: pt.X, Y: pt.Y})
		}
		sec.Charts = append(sec.Charts, scatterChart(
			"rel-top-pair",
			fmt.Sprintf("%s vs %s (r = %.2f)", inter.A, inter.B, inter.R),
			inter.A, inter.B,
			[]ChartSeries{{Name: "observations", Data: points}},
		))
	}
	return sec, true
}

func (a *Assembler) segmentsSection(ac *pipeline.AnalysisContext, _ insight.HealthScore, insights []insight.Insight, _ []decision.Recommendation) (SectionPayload, bool) {
	payload, ok := ac.Payload(plugins.IDPCA)
	if !ok {
		return SectionPayload{}, false
	}
	pca := payload.(plugins.PCAPayload)
	sec := SectionPayload{
		ID:    SectionSegments,
		Title: "Structure & Segments",
		KPIs: []KPI{
			{Label: "Variance in 2 components", Value: fmt.Sprintf("%.0f%%", pca.CumulativeTop2*100)},
		},
		Insights: insightsFor(insights, insight.CategorySegmentation),
	}
	if cp, ok := ac.Payload(plugins.IDClustering); ok {
		cl := cp.(plugins.ClusteringPayload)
		series := make([]ChartSeries, cl.SuggestedK)
		for i := range series {
			series[i].Name = fmt.Sprintf("segment %d", i+1)
		}
		for _, pt := range cl.Points {
			if pt.Cluster < 0 || pt.Cluster >= len(series) {
				continue
			}
			series[pt.Cluster].Data = append(series[pt.Cluster].Data, ChartPoint{X: pt.X, Y: pt.Y})
		}
		sec.KPIs = append(sec.KPIs, KPI{Label: "Segments", Value: fmt.Sprintf("%d", cl.SuggestedK),
			Hint: fmt.Sprintf("silhouette %.2f", cl.Silhouette)})
		sec.Charts = append(sec.Charts, scatterChart("seg-clusters", "Segments in Principal Component Space", "PC1", "PC2", series))
	} else {
		points := make([]ChartPoint, 0, len(pca.Scores))
		for _, s := range pca.Scores {
			points = append(points, ChartPoint{X: s.X, Y: s.Y})
		}
		sec.Charts = append(sec.Charts, scatterChart("seg-pca", "Principal Component Projection", "PC1", "PC2",
			[]ChartSeries{{Name: "rows", Data: points}}))
	}
	return sec, true
}

func (a *Assembler) trendsSection(ac *pipeline.AnalysisContext, _ insight.HealthScore, insights []insight.Insight, _ []decision.Recommendation) (SectionPayload, bool) {
	payload, ok := ac.Payload(plugins.IDTimeseries)
	if !ok {
		return SectionPayload{}, false
	}
	ts := payload.(plugins.TimeseriesPayload)
	points := make([]ChartPoint, 0, len(ts.Points))
	for _, pt := range ts.Points {
		points = append(points, ChartPoint{Label: pt.T, Value: pt.V})
	}
	return SectionPayload{
		ID:    SectionTrends,
		Title: "Trends",
		KPIs: []KPI{
			{Label: "Direction", Value: ts.Direction, Hint: fmt.Sprintf("R² %.2f", ts.R2)},
			{Label: "Slope", Value: fmt.Sprintf("%.4g / day", ts.Slope)},
		},
		Charts: []ChartSpec{
			lineChart("trend-"+ts.ValueColumn, fmt.Sprintf("%s over %s", ts.ValueColumn, ts.TimeColumn), ts.TimeColumn, ts.ValueColumn, points),
		},
		Insights: insightsFor(insights, insight.CategoryOperational),
	}, true
}

func (a *Assembler) geographySection(ac *pipeline.AnalysisContext, _ insight.HealthScore, _ []insight.Insight, _ []decision.Recommendation) (SectionPayload, bool) {
	payload, ok := ac.Payload(plugins.IDGeospatial)
	if !ok {
		return SectionPayload{}, false
	}
	geo := payload.(plugins.GeospatialPayload)
	points := make([]ChartPoint, 0, len(geo.Points))
	for _, pt := range geo.Points {
		points = append(points, ChartPoint{X: pt.Lon, Y: pt.Lat})
	}
	return SectionPayload{
		ID:    SectionGeography,
		Title: "Geography",
		KPIs: []KPI{
			{Label: "Coordinates", Value: fmt.Sprintf("%s / %s", geo.LatColumn, geo.LonColumn)},
			{Label: "Points", Value: fmt.Sprintf("%d", geo.Total), Hint: fmt.Sprintf("center %.3f, %.3f", geo.CenterLat, geo.CenterLon)},
		},
		Charts: []ChartSpec{
			scatterChart("geo-points", "Geographic Distribution", geo.LonColumn, geo.LatColumn,
				[]ChartSeries{{Name: "locations", Data: points}}),
		},
	}, true
}

func (a *Assembler) driversSection(ac *pipeline.AnalysisContext, _ insight.HealthScore, insights []insight.Insight, _ []decision.Recommendation) (SectionPayload, bool) {
	payload, ok := ac.Payload(plugins.IDTarget)
	if !ok {
		return SectionPayload{}, false
	}
	tgt := payload.(plugins.TargetPayload)
	points := make([]ChartPoint, 0, len(tgt.Importance))
	for _, fi := range tgt.Importance {
		points = append(points, ChartPoint{Label: fi.Feature, Value: fi.Score})
	}
	return SectionPayload{
		ID:       SectionDrivers,
		Title:    "Target Drivers",
		Charts:   []ChartSpec{barChart("drivers-"+tgt.Target, fmt.Sprintf("Association with %s", tgt.Target), "Feature", "Score", points)},
		Insights: insightsFor(insights, insight.CategoryPredictive),
	}, true
}

func (a *Assembler) recommendationsSection(_ *pipeline.AnalysisContext, _ insight.HealthScore, insights []insight.Insight, recs []decision.Recommendation) (SectionPayload, bool) {
	if len(recs) == 0 && len(insights) == 0 {
		return SectionPayload{}, false
	}
	return SectionPayload{
		ID:    SectionRecommendations,
		Title: "Recommendations",
		KPIs: []KPI{
			{Label: "Insights", Value: fmt.Sprintf("%d", len(insights))},
			{Label: "Recommendations", Value: fmt.Sprintf("%d", len(recs)), Hint: decision.Summary(recs)},
		},
		Insights:        insights,
		Recommendations: recs,
	}, true
}

func insightsFor(insights []insight.Insight, cats ...insight.Category) []insight.Insight {
	var out []insight.Insight
	for _, ins := range insights {
		for _, c := range cats {
			if ins.Category == c {
				out = append(out, ins)
				break
			}
		}
	}
	return out
}
