package plugins

import (
	"context"
	"math"
	"sort"

	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/pipeline"
)

// TTest is one two-sample mean comparison with a large-sample approximate
// p-value (Welch statistic against the normal distribution).
type TTest struct {
	Column      string  `json:"column"`
	MeanA       float64 `json:"mean_a"`
	MeanB       float64 `json:"mean_b"`
	Z           float64 `json:"z"`
	P           float64 `json:"p"`
	Significant bool    `json:"significant"`
}

// HypothesisPayload compares numeric columns across the two dominant levels
// of the best available categorical split.
type HypothesisPayload struct {
	SplitColumn string  `json:"split_column"`
	GroupA      string  `json:"group_a"`
	GroupB      string  `json:"group_b"`
	Tests       []TTest `json:"tests"`
}

// HypothesisPlugin runs two-sample comparisons over a binary categorical
// split. Columns with degenerate variance are left out rather than erroring.
type HypothesisPlugin struct{ stage }

func (p *HypothesisPlugin) Run(_ context.Context, _ *pipeline.View, frame *dataset.Frame) (any, error) {
	split, a, b := pickBinarySplit(frame)
	if split == nil {
		return nil, pipeline.Skip("no categorical column with two dominant levels")
	}
	numCols := frame.NumericColumns()
	if len(numCols) == 0 {
		return nil, pipeline.Skip("no numeric columns to compare")
	}

	out := HypothesisPayload{SplitColumn: split.Name, GroupA: a, GroupB: b}
	for _, c := range numCols {
		wa, wb := newWelford(), newWelford()
		for i, v := range c.Floats {
			if math.IsNaN(v) || i >= len(split.Raw) {
				continue
			}
			switch split.Raw[i] {
			case a:
				wa.add(v)
			case b:
				wb.add(v)
			}
		}
		if wa.n < 5 || wb.n < 5 {
			continue
		}
		se := math.Sqrt(wa.std()*wa.std()/float64(wa.n) + wb.std()*wb.std()/float64(wb.n))
		if se == 0 {
			continue
		}
		z := (wa.mean - wb.mean) / se
		pval := twoSidedP(z)
		out.Tests = append(out.Tests, TTest{
			Column:      c.Name,
			MeanA:       wa.mean,
			MeanB:       wb.mean,
			Z:           z,
			P:           pval,
			Significant: pval < 0.05,
		})
	}
	if len(out.Tests) == 0 {
		return nil, pipeline.Skip("no comparable numeric columns")
	}
	sort.Slice(out.Tests, func(i, j int) bool {
		if out.Tests[i].P == out.Tests[j].P {
			return out.Tests[i].Column < out.Tests[j].Column
		}
		return out.Tests[i].P < out.Tests[j].P
	})
	return out, nil
}

// pickBinarySplit selects the first categorical column whose two most common
// levels cover at least 80% of its values.
func pickBinarySplit(frame *dataset.Frame) (col *dataset.Column, a, b string) {
	for i := range frame.Columns {
		c := &frame.Columns[i]
		if c.Kind != dataset.KindCategorical {
			continue
		}
		prof := categoryProfile(c)
		if len(prof.Top) < 2 {
			continue
		}
		covered := prof.Top[0].Count + prof.Top[1].Count
		total := len(c.Raw) - c.Missing
		if total > 0 && float64(covered) >= 0.8*float64(total) {
			return c, prof.Top[0].Value, prof.Top[1].Value
		}
	}
	return nil, "", ""
}
