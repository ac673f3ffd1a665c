package plugins

import (
	"context"
	"sort"

	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/pipeline"
)

// Bin is one histogram bucket.
type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// ColumnStats holds descriptive statistics for one numeric column.
type ColumnStats struct {
	Name      string  `json:"name"`
	Unit      string  `json:"unit,omitempty"`
	Count     int     `json:"count"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Mean      float64 `json:"mean"`
	Std       float64 `json:"std"`
	Median    float64 `json:"median"`
	Q1        float64 `json:"q1"`
	Q3        float64 `json:"q3"`
	Histogram []Bin   `json:"histogram"`
}

// UnivariatePayload holds stats for every numeric column plus top categories
// for categorical ones.
type UnivariatePayload struct {
	Numeric     []ColumnStats     `json:"numeric"`
	Categorical []CategoryProfile `json:"categorical"`
}

// CategoryProfile lists the dominant values of a categorical column.
type CategoryProfile struct {
	Name   string          `json:"name"`
	Unique int             `json:"unique"`
	Top    []CategoryCount `json:"top"`
}

// CategoryCount pairs a category value with its frequency.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// UnivariatePlugin computes per-column descriptive statistics.
type UnivariatePlugin struct{ stage }

func (p *UnivariatePlugin) Run(_ context.Context, _ *pipeline.View, frame *dataset.Frame) (any, error) {
	var out UnivariatePayload
	for i := range frame.Columns {
		c := &frame.Columns[i]
		switch c.Kind {
		case dataset.KindNumeric:
			out.Numeric = append(out.Numeric, numericStats(c))
		case dataset.KindCategorical:
			out.Categorical = append(out.Categorical, categoryProfile(c))
		}
	}
	return out, nil
}

func numericStats(c *dataset.Column) ColumnStats {
	vals := c.Values()
	w := newWelford()
	for _, v := range vals {
		w.add(v)
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	s := ColumnStats{
		Name:   c.Name,
		Unit:   c.Unit,
		Count:  w.n,
		Mean:   w.mean,
		Std:    w.std(),
		Median: quantile(sorted, 0.5),
		Q1:     quantile(sorted, 0.25),
		Q3:     quantile(sorted, 0.75),
	}
	if w.n > 0 {
		s.Min, s.Max = w.min, w.max
		s.Histogram = histogram(sorted, 12)
	}
	return s
}

func histogram(sorted []float64, bins int) []Bin {
	if len(sorted) == 0 || bins <= 0 {
		return nil
	}
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return []Bin{{Low: lo, High: hi, Count: len(sorted)}}
	}
	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Low: lo + float64(i)*width, High: lo + float64(i+1)*width}
	}
	for _, v := range sorted {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}
	return out
}

func categoryProfile(c *dataset.Column) CategoryProfile {
	counts := make(map[string]int)
	for _, v := range c.Raw {
		if v == "" || len(v) > 64 {
			continue
		}
		counts[v]++
	}
	tops := make([]CategoryCount, 0, len(counts))
	for v, n := range counts {
		tops = append(tops, CategoryCount{Value: v, Count: n})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > 8 {
		tops = tops[:8]
	}
	return CategoryProfile{Name: c.Name, Unique: len(counts), Top: tops}
}
