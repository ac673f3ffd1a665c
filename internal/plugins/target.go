package plugins

import (
	"context"
	"math"
	"sort"

	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/pipeline"
)

// FeatureImportance scores one feature's association with the target.
type FeatureImportance struct {
	Feature string  `json:"feature"`
	Score   float64 `json:"score"`
}

// TargetPayload ranks features by association with the target column.
type TargetPayload struct {
	Target     string              `json:"target"`
	TargetKind dataset.Kind        `json:"target_kind"`
	SampleSize int                 `json:"sample_size"`
	Importance []FeatureImportance `json:"importance"`
}

// TargetPlugin ranks numeric features against the chosen target: |Pearson r|
// for a numeric target, point-biserial style group separation for a binary
// categorical one. Without a target column the stage is skipped, never failed.
type TargetPlugin struct{ stage }

func (p *TargetPlugin) Run(_ context.Context, view *pipeline.View, frame *dataset.Frame) (any, error) {
	if frame.Target == "" {
		return nil, pipeline.Skip("no target column provided")
	}
	if _, ok := view.Payload(IDUnivariate); !ok {
		return nil, pipeline.Skip("no univariate evidence")
	}
	tcol, ok := frame.Column(frame.Target)
	if !ok {
		return nil, pipeline.Skip("target column not in frame")
	}

	out := TargetPayload{Target: frame.Target, TargetKind: tcol.Kind}
	switch tcol.Kind {
	case dataset.KindNumeric:
		for _, c := range frame.NumericColumns() {
			if c.Name == tcol.Name {
				continue
			}
			r, n := pearson(c.Floats, tcol.Floats)
			if n < 5 {
				continue
			}
			if n > out.SampleSize {
				out.SampleSize = n
			}
			out.Importance = append(out.Importance, FeatureImportance{Feature: c.Name, Score: math.Abs(r)})
		}
	case dataset.KindCategorical:
		prof := categoryProfile(tcol)
		if len(prof.Top) < 2 {
			return nil, pipeline.Skip("categorical target has fewer than two levels")
		}
		a, b := prof.Top[0].Value, prof.Top[1].Value
		for _, c := range frame.NumericColumns() {
			wa, wb := newWelford(), newWelford()
			for i, v := range c.Floats {
				if math.IsNaN(v) || i >= len(tcol.Raw) {
					continue
				}
				switch tcol.Raw[i] {
				case a:
					wa.add(v)
				case b:
					wb.add(v)
				}
			}
			if wa.n < 5 || wb.n < 5 {
				continue
			}
			pooled := math.Sqrt((wa.std()*wa.std() + wb.std()*wb.std()) / 2)
			if pooled == 0 {
				continue
			}
			// Cohen's d squashed to [0,1) so numeric and categorical
			// targets rank on a comparable scale.
			d := math.Abs(wa.mean-wb.mean) / pooled
			if n := wa.n + wb.n; n > out.SampleSize {
				out.SampleSize = n
			}
			out.Importance = append(out.Importance, FeatureImportance{Feature: c.Name, Score: d / (1 + d)})
		}
	default:
		return nil, pipeline.Skip("target column is neither numeric nor categorical")
	}

	if len(out.Importance) == 0 {
		return nil, pipeline.Skip("no feature associated with target")
	}
	sort.Slice(out.Importance, func(i, j int) bool {
		if out.Importance[i].Score == out.Importance[j].Score {
			return out.Importance[i].Feature < out.Importance[j].Feature
		}
		return out.Importance[i].Score > out.Importance[j].Score
	})
	return out, nil
}
