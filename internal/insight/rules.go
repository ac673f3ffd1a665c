package insight

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/datasight/internal/pipeline"
	"github.com/KaramelBytes/datasight/internal/plugins"
)

// rule is one heuristic scoped to a small set of stage outputs. Rules see the
// whole context but read only their declared sources; a missing or failed
// source means no evidence, never an error. Significance must be monotonic in
// the underlying statistic.
type rule struct {
	id      string
	sources []string
	apply   func(ac *pipeline.AnalysisContext, opt Options) []Insight
}

// defaultRules returns the fixed registry. Order matches plugin declaration
// order of each rule's primary source and is the second sort key for output.
func defaultRules() []rule {
	return []rule{
		{id: "missingness", sources: []string{plugins.IDQuality}, apply: missingnessRule},
		{id: "duplication", sources: []string{plugins.IDQuality}, apply: duplicationRule},
		{id: "correlation", sources: []string{plugins.IDCorrelations}, apply: correlationRule},
		{id: "anomaly", sources: []string{plugins.IDOutliers}, apply: anomalyRule},
		{id: "group-difference", sources: []string{plugins.IDHypothesis}, apply: hypothesisRule},
		{id: "dimensionality", sources: []string{plugins.IDPCA}, apply: pcaRule},
		{id: "segmentation", sources: []string{plugins.IDClustering}, apply: clusteringRule},
		{id: "trend", sources: []string{plugins.IDTimeseries}, apply: trendRule},
		{id: "key-drivers", sources: []string{plugins.IDTarget}, apply: driverRule},
	}
}

// correlationRule surfaces pairs whose |r| clears the cutoff. Significance
// rises linearly from 0.5 at the cutoff to 0.95 at |r| = 1, so stronger
// correlations never score lower.
func correlationRule(ac *pipeline.AnalysisContext, opt Options) []Insight {
	payload, ok := ac.Payload(plugins.IDCorrelations)
	if !ok {
		return nil
	}
	corr := payload.(plugins.CorrelationsPayload)
	var out []Insight
	for _, pair := range corr.Pairs {
		abs := pair.R
		if abs < 0 {
			abs = -abs
		}
		if abs < opt.CorrelationCutoff {
			continue
		}
		span := 1 - opt.CorrelationCutoff
		sig := 0.5 + 0.45*(abs-opt.CorrelationCutoff)/span
		if pair.N < 30 {
			sig *= 0.8 // low sample penalty
		}
		direction := "positively"
		if pair.R < 0 {
			direction = "negatively"
		}
		out = append(out, Insight{
			ID:            fmt.Sprintf("correlation-%s-%s", pair.A, pair.B),
			SourcePlugins: []string{plugins.IDCorrelations},
			Category:      CategoryStatistical,
			Statement:     fmt.Sprintf("%s and %s are strongly %s related (r = %.2f).", pair.A, pair.B, direction, pair.R),
			Detail:        fmt.Sprintf("%s relationship over %d paired observations.", strengthLabel(abs), pair.N),
			Columns:       []string{pair.A, pair.B},
			Evidence:      Evidence{Metric: "pearson_r", Value: pair.R, Threshold: opt.CorrelationCutoff},
			Significance:  clamp01(sig),
		})
	}
	return out
}

func strengthLabel(abs float64) string {
	switch {
	case abs > 0.8:
		return "Very strong"
	case abs > 0.6:
		return "Strong"
	default:
		return "Moderate"
	}
}

// anomalyRule reports detected outliers. Rare anomalies are a stronger
// signal than pervasive ones, so significance falls as the proportion grows.
func anomalyRule(ac *pipeline.AnalysisContext, _ Options) []Insight {
	payload, ok := ac.Payload(plugins.IDOutliers)
	if !ok {
		return nil
	}
	outliers := payload.(plugins.OutliersPayload)
	if outliers.Total == 0 {
		return nil
	}
	var sig float64
	var why string
	switch {
	case outliers.Ratio < 0.01:
		sig, why = 0.95, "anomalies are rare (<1%), indicating strong signal"
	case outliers.Ratio < 0.05:
		sig, why = 0.85, "anomalies are distinct but common (1-5%)"
	case outliers.Ratio < 0.10:
		sig, why = 0.70, "high frequency of outliers (>5%) suggests heavy tails"
	default:
		sig, why = 0.50, "excessive outliers (>10%) may indicate distribution mismatch"
	}
	cols := make([]string, 0, len(outliers.Columns))
	for _, c := range outliers.Columns {
		if c.Count > 0 {
			cols = append(cols, c.Name)
		}
	}
	return []Insight{{
		ID:            "anomaly-total",
		SourcePlugins: []string{plugins.IDOutliers},
		Category:      CategoryQuality,
		Statement:     fmt.Sprintf("Detected %d potential anomalies across %d columns.", outliers.Total, len(cols)),
		Detail:        fmt.Sprintf("Outliers found in: %s; %s.", strings.Join(firstN(cols, 3), ", "), why),
		Columns:       cols,
		Evidence:      Evidence{Metric: "outlier_ratio", Value: outliers.Ratio, Threshold: 0},
		Significance:  sig,
	}}
}

// missingnessRule flags datasets losing a meaningful share of cells.
func missingnessRule(ac *pipeline.AnalysisContext, _ Options) []Insight {
	payload, ok := ac.Payload(plugins.IDQuality)
	if !ok {
		return nil
	}
	q := payload.(plugins.QualityPayload)
	const gate = 0.05
	if q.MissingRatio < gate {
		return nil
	}
	return []Insight{{
		ID:            "missingness",
		SourcePlugins: []string{plugins.IDQuality},
		Category:      CategoryQuality,
		Statement:     fmt.Sprintf("%.1f%% of all cells are missing.", q.MissingRatio*100),
		Detail:        "Gaps at this level bias most statistics unless imputed or explained.",
		Evidence:      Evidence{Metric: "missing_ratio", Value: q.MissingRatio, Threshold: gate},
		Significance:  clamp01(0.4 + q.MissingRatio),
	}}
}

// duplicationRule flags repeated rows.
func duplicationRule(ac *pipeline.AnalysisContext, _ Options) []Insight {
	payload, ok := ac.Payload(plugins.IDQuality)
	if !ok {
		return nil
	}
	q := payload.(plugins.QualityPayload)
	const gate = 0.01
	if q.DuplicateRatio < gate {
		return nil
	}
	return []Insight{{
		ID:            "duplication",
		SourcePlugins: []string{plugins.IDQuality},
		Category:      CategoryQuality,
		Statement:     fmt.Sprintf("%d duplicate rows (%.1f%% of the dataset).", q.DuplicateRows, q.DuplicateRatio*100),
		Detail:        "Duplicates inflate counts and can double-weight observations in aggregates.",
		Evidence:      Evidence{Metric: "duplicate_ratio", Value: q.DuplicateRatio, Threshold: gate},
		Significance:  clamp01(0.5 + 2*q.DuplicateRatio),
	}}
}

// hypothesisRule surfaces the strongest significant group difference.
func hypothesisRule(ac *pipeline.AnalysisContext, _ Options) []Insight {
	payload, ok := ac.Payload(plugins.IDHypothesis)
	if !ok {
		return nil
	}
	h := payload.(plugins.HypothesisPayload)
	var out []Insight
	for _, t := range h.Tests {
		if !t.Significant {
			continue
		}
		out = append(out, Insight{
			ID:            fmt.Sprintf("group-difference-%s", t.Column),
			SourcePlugins: []string{plugins.IDHypothesis},
			Category:      CategoryStatistical,
			Statement: fmt.Sprintf("%s differs between %s=%s and %s=%s (p = %.3g).",
				t.Column, h.SplitColumn, h.GroupA, h.SplitColumn, h.GroupB, t.P),
			Detail:       fmt.Sprintf("Means %.4g vs %.4g.", t.MeanA, t.MeanB),
			Columns:      []string{t.Column, h.SplitColumn},
			Evidence:     Evidence{Metric: "p_value", Value: t.P, Threshold: 0.05},
			Significance: clamp01(1 - t.P),
		})
		if len(out) == 3 {
			break
		}
	}
	return out
}

// pcaRule reports reducible dimensionality.
func pcaRule(ac *pipeline.AnalysisContext, _ Options) []Insight {
	payload, ok := ac.Payload(plugins.IDPCA)
	if !ok {
		return nil
	}
	pca := payload.(plugins.PCAPayload)
	const gate = 0.6
	if pca.CumulativeTop2 < gate {
		return nil
	}
	return []Insight{{
		ID:            "dimensionality",
		SourcePlugins: []string{plugins.IDPCA},
		Category:      CategoryStatistical,
		Statement:     fmt.Sprintf("Two components explain %.0f%% of the variance across %d numeric columns.", pca.CumulativeTop2*100, len(pca.Columns)),
		Detail:        "The numeric features are highly redundant; a compact representation exists.",
		Columns:       pca.Columns,
		Evidence:      Evidence{Metric: "variance_explained_top2", Value: pca.CumulativeTop2, Threshold: gate},
		Significance:  clamp01(pca.CumulativeTop2),
	}}
}

// clusteringRule reports natural segmentation. Significance follows the
// silhouette score monotonically.
func clusteringRule(ac *pipeline.AnalysisContext, _ Options) []Insight {
	payload, ok := ac.Payload(plugins.IDClustering)
	if !ok {
		return nil
	}
	cl := payload.(plugins.ClusteringPayload)
	if cl.SuggestedK < 2 {
		return nil
	}
	sil := cl.Silhouette
	if sil < 0 {
		sil = 0
	}
	sig := 0.4 + 0.55*clamp01(sil/0.7)
	return []Insight{{
		ID:            "segmentation",
		SourcePlugins: []string{plugins.IDClustering},
		Category:      CategorySegmentation,
		Statement:     fmt.Sprintf("The data naturally segments into %d distinct groups.", cl.SuggestedK),
		Detail:        fmt.Sprintf("Silhouette %.2f; group sizes %v.", cl.Silhouette, cl.Sizes),
		Evidence:      Evidence{Metric: "silhouette", Value: cl.Silhouette, Threshold: 0},
		Significance:  clamp01(sig),
	}}
}

// trendRule reports a sustained direction over time.
func trendRule(ac *pipeline.AnalysisContext, _ Options) []Insight {
	payload, ok := ac.Payload(plugins.IDTimeseries)
	if !ok {
		return nil
	}
	ts := payload.(plugins.TimeseriesPayload)
	const gate = 0.1
	if ts.Direction == "flat" || ts.R2 < gate {
		return nil
	}
	return []Insight{{
		ID:            fmt.Sprintf("trend-%s", ts.ValueColumn),
		SourcePlugins: []string{plugins.IDTimeseries},
		Category:      CategoryOperational,
		Statement:     fmt.Sprintf("%s is %s over %s (%.4g per day).", ts.ValueColumn, ts.Direction, ts.TimeColumn, ts.Slope),
		Detail:        fmt.Sprintf("Linear fit explains %.0f%% of the variation.", ts.R2*100),
		Columns:       []string{ts.ValueColumn, ts.TimeColumn},
		Evidence:      Evidence{Metric: "trend_r2", Value: ts.R2, Threshold: gate},
		Significance:  clamp01(0.3 + 0.6*ts.R2),
	}}
}

// driverRule names the strongest predictors of the target.
func driverRule(ac *pipeline.AnalysisContext, _ Options) []Insight {
	payload, ok := ac.Payload(plugins.IDTarget)
	if !ok {
		return nil
	}
	tgt := payload.(plugins.TargetPayload)
	top := firstImportances(tgt.Importance, 3)
	if len(top) == 0 {
		return nil
	}
	names := make([]string, len(top))
	for i, fi := range top {
		names[i] = fi.Feature
	}
	return []Insight{{
		ID:            "key-drivers",
		SourcePlugins: []string{plugins.IDTarget},
		Category:      CategoryPredictive,
		Statement:     fmt.Sprintf("The primary factors driving %s are: %s.", tgt.Target, strings.Join(names, ", ")),
		Detail:        fmt.Sprintf("Top association score %.2f over %d observations.", top[0].Score, tgt.SampleSize),
		Columns:       append(names, tgt.Target),
		Evidence:      Evidence{Metric: "association", Value: top[0].Score, Threshold: 0},
		Significance:  clamp01(0.4 + 0.55*top[0].Score),
	}}
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func firstImportances(s []plugins.FeatureImportance, n int) []plugins.FeatureImportance {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
