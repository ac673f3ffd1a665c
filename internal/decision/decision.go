// Package decision turns synthesized insights into ranked, actionable
// recommendations. The engine is a pure function of its input: identical
// insights over identical metadata always yield identical output.
package decision

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/insight"
)

// Domain classifies where a recommendation lands in an organization.
type Domain string

const (
	DomainStrategic   Domain = "Strategic"
	DomainOperational Domain = "Operational"
	DomainMarketing   Domain = "Marketing"
	DomainTechnical   Domain = "Technical"
)

// Impact buckets the estimated effect of acting on a recommendation. Lower
// bounds are closed: an effect of exactly 0.15 is High.
type Impact string

const (
	ImpactHigh   Impact = "High"
	ImpactMedium Impact = "Medium"
	ImpactLow    Impact = "Low"
)

const (
	impactHighGate   = 0.15
	impactMediumGate = 0.05
)

// Recommendation is one actionable suggestion. Immutable once produced.
type Recommendation struct {
	ID         string   `json:"id"`
	InsightIDs []string `json:"insight_ids"`
	Action     string   `json:"action"`
	Domain     Domain   `json:"domain"`
	Impact     Impact   `json:"impact"`
	Confidence float64  `json:"confidence"`
	Rationale  string   `json:"rationale"`
}

// actionTemplate binds an insight category to a concrete action. The
// actionability factor discounts confidence for domains whose outcomes are
// less deterministic: technical fixes mostly work, marketing campaigns vary.
type actionTemplate struct {
	slug          string
	domain        Domain
	action        string
	rationale     string
	actionability float64
}

var actionRegistry = map[insight.Category]actionTemplate{
	insight.CategoryQuality: {
		slug:          "audit-anomalies",
		domain:        DomainOperational,
		action:        "Conduct a root cause analysis on the flagged data quality issues.",
		rationale:     "Anomalies, gaps, and duplicates often trace back to collection defects or high-risk events that need human review.",
		actionability: 1.0,
	},
	insight.CategoryPredictive: {
		slug:          "optimize-drivers",
		domain:        DomainStrategic,
		action:        "Concentrate spend and effort on the top driver variables.",
		rationale:     "Small improvements in high-association variables yield outsized movement in the target metric.",
		actionability: 0.85,
	},
	insight.CategorySegmentation: {
		slug:          "segment-engagement",
		domain:        DomainMarketing,
		action:        "Develop a distinct engagement strategy for each identified segment.",
		rationale:     "Heterogeneous groups respond poorly to one-size-fits-all treatment.",
		actionability: 0.80,
	},
	insight.CategoryOperational: {
		slug:          "review-drift",
		domain:        DomainTechnical,
		action:        "Review models and processes tied to the trending metric and retrain where stale.",
		rationale:     "A sustained trend means decisions based on historical patterns are going stale.",
		actionability: 0.95,
	},
	insight.CategoryStatistical: {
		slug:          "investigate-relationships",
		domain:        DomainStrategic,
		action:        "Investigate the detected relationships before acting on the involved variables in isolation.",
		rationale:     "Strong statistical structure usually reflects a shared driver worth understanding first.",
		actionability: 0.85,
	},
}

// ConfidenceWeights composes recommendation confidence from the insight's
// significance, how much data backs it, and how complete that data is.
type ConfidenceWeights struct {
	Significance   float64 `json:"significance"`
	SampleAdequacy float64 `json:"sample_adequacy"`
	Completeness   float64 `json:"completeness"`
}

// DefaultConfidenceWeights leans on significance first.
func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{Significance: 0.5, SampleAdequacy: 0.3, Completeness: 0.2}
}

// DefaultSaturationRows is the sample size past which more rows no longer
// raise confidence.
const DefaultSaturationRows = 1000

// Engine maps insights to recommendations.
type Engine struct {
	weights        ConfidenceWeights
	saturationRows int
}

func NewEngine(w ConfidenceWeights, saturationRows int) *Engine {
	if w.Significance <= 0 && w.SampleAdequacy <= 0 && w.Completeness <= 0 {
		w = DefaultConfidenceWeights()
	}
	if saturationRows <= 0 {
		saturationRows = DefaultSaturationRows
	}
	return &Engine{weights: w, saturationRows: saturationRows}
}

// Decide produces the full ranked recommendation list. Empty insights yield
// an empty list, never an error. Output order is total: impact descending,
// confidence descending, then ID.
func (e *Engine) Decide(meta dataset.Meta, insights []insight.Insight) []Recommendation {
	merged := map[string]*Recommendation{}
	for _, ins := range insights {
		tpl, ok := actionRegistry[ins.Category]
		if !ok {
			continue
		}
		conf := e.confidence(meta, ins) * tpl.actionability
		impact := bucketImpact(estimatedEffect(ins))
		key := tpl.slug + "|" + string(tpl.domain)
		if cur, exists := merged[key]; exists {
			// The higher-confidence candidate wins outright; its impact
			// rides along. Only the insight attribution is merged.
			cur.InsightIDs = append(cur.InsightIDs, ins.ID)
			if conf > cur.Confidence {
				cur.Confidence = clamp01(conf)
				cur.Impact = impact
			}
			continue
		}
		merged[key] = &Recommendation{
			ID:         fmt.Sprintf("rec-%s", tpl.slug),
			InsightIDs: []string{ins.ID},
			Action:     tpl.action,
			Domain:     tpl.domain,
			Impact:     impact,
			Confidence: clamp01(conf),
			Rationale:  tpl.rationale,
		}
	}

	out := make([]Recommendation, 0, len(merged))
	for _, r := range merged {
		sort.Strings(r.InsightIDs)
		r.Confidence = clamp01(r.Confidence)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Impact != out[j].Impact {
			return impactRank(out[i].Impact) > impactRank(out[j].Impact)
		}
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// confidence blends significance with sample adequacy and completeness.
// Adequacy saturates: past the configured row count more data buys nothing.
func (e *Engine) confidence(meta dataset.Meta, ins insight.Insight) float64 {
	adequacy := float64(meta.Rows) / float64(e.saturationRows)
	if adequacy > 1 {
		adequacy = 1
	}
	completeness := meta.Completeness(ins.Columns...)
	return clamp01(e.weights.Significance*ins.Significance +
		e.weights.SampleAdequacy*adequacy +
		e.weights.Completeness*completeness)
}

// estimatedEffect sizes what acting on the insight could move. Quality
// ratios are effects in their own units; correlations count the excess over
// the reporting cutoff; everything else falls back to a significance-scaled
// estimate.
func estimatedEffect(ins insight.Insight) float64 {
	switch ins.Evidence.Metric {
	case "missing_ratio", "duplicate_ratio", "outlier_ratio":
		return ins.Evidence.Value
	case "pearson_r":
		abs := ins.Evidence.Value
		if abs < 0 {
			abs = -abs
		}
		excess := abs - ins.Evidence.Threshold
		if excess < 0 {
			return 0
		}
		return excess
	default:
		eff := (ins.Significance - 0.5) * 0.6
		if eff < 0 {
			return 0
		}
		return eff
	}
}

func bucketImpact(effect float64) Impact {
	switch {
	case effect >= impactHighGate:
		return ImpactHigh
	case effect >= impactMediumGate:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

func impactRank(i Impact) int {
	switch i {
	case ImpactHigh:
		return 2
	case ImpactMedium:
		return 1
	default:
		return 0
	}
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

// Summary renders a one-line digest used by CLI output.
func Summary(recs []Recommendation) string {
	if len(recs) == 0 {
		return "no recommendations"
	}
	parts := make([]string, 0, 3)
	var high, medium, low int
	for _, r := range recs {
		switch r.Impact {
		case ImpactHigh:
			high++
		case ImpactMedium:
			medium++
		default:
			low++
		}
	}
	if high > 0 {
		parts = append(parts, fmt.Sprintf("%d high-impact", high))
	}
	if medium > 0 {
		parts = append(parts, fmt.Sprintf("%d medium-impact", medium))
	}
	if low > 0 {
		parts = append(parts, fmt.Sprintf("%d low-impact", low))
	}
	return strings.Join(parts, ", ")
}
