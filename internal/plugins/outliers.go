package plugins

import (
	"context"
	"math"

	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/pipeline"
)

// DefaultOutlierThreshold is the robust |z| cutoff for flagging a value.
const DefaultOutlierThreshold = 3.5

// ColumnOutliers holds robust z-score outlier counts for one column.
type ColumnOutliers struct {
	Name      string  `json:"name"`
	Count     int     `json:"count"`
	MaxAbsZ   float64 `json:"max_abs_z"`
	Threshold float64 `json:"threshold"`
}

// OutliersPayload aggregates outlier detection across numeric columns.
// Ratio is flagged cells over examined numeric cells and feeds the anomaly
// component of the health score.
type OutliersPayload struct {
	Columns []ColumnOutliers `json:"columns"`
	Total   int              `json:"total"`
	Cells   int              `json:"cells"`
	Ratio   float64          `json:"ratio"`
}

// OutliersPlugin flags values via robust Z-score (MAD), matching the
// classical 0.6745 scaling.
type OutliersPlugin struct {
	stage
	Threshold float64
}

func (p *OutliersPlugin) Run(_ context.Context, view *pipeline.View, frame *dataset.Frame) (any, error) {
	if _, ok := view.Payload(IDUnivariate); !ok {
		return nil, pipeline.Skip("no univariate evidence")
	}
	thr := p.Threshold
	if thr <= 0 {
		thr = DefaultOutlierThreshold
	}

	var out OutliersPayload
	for _, c := range frame.NumericColumns() {
		vals := c.Values()
		if len(vals) < 8 {
			continue
		}
		median, mad := medianMAD(vals)
		co := ColumnOutliers{Name: c.Name, Threshold: thr}
		if mad > 0 {
			for _, v := range vals {
				z := 0.6745 * (v - median) / mad
				az := math.Abs(z)
				if az > thr {
					co.Count++
				}
				if az > co.MaxAbsZ {
					co.MaxAbsZ = az
				}
			}
		}
		out.Cells += len(vals)
		out.Total += co.Count
		out.Columns = append(out.Columns, co)
	}
	if out.Cells > 0 {
		out.Ratio = float64(out.Total) / float64(out.Cells)
	}
	if len(out.Columns) == 0 {
		return nil, pipeline.Skip("no numeric column with enough values")
	}
	return out, nil
}
