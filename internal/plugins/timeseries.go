package plugins

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/pipeline"
)

// TimePoint is one (timestamp, value) observation.
type TimePoint struct {
	T string  `json:"t"`
	V float64 `json:"v"`
}

// TimeseriesPayload describes the least-squares trend of the first numeric
// column over the detected datetime column.
type TimeseriesPayload struct {
	TimeColumn  string      `json:"time_column"`
	ValueColumn string      `json:"value_column"`
	Slope       float64     `json:"slope_per_day"`
	R2          float64     `json:"r2"`
	Direction   string      `json:"direction"`
	Points      []TimePoint `json:"points"`
}

// TimeseriesPlugin fits a linear trend when the frame carries a datetime
// column alongside a numeric one.
type TimeseriesPlugin struct{ stage }

func (p *TimeseriesPlugin) Run(_ context.Context, _ *pipeline.View, frame *dataset.Frame) (any, error) {
	var timeCol *dataset.Column
	for i := range frame.Columns {
		if frame.Columns[i].Kind == dataset.KindDatetime {
			timeCol = &frame.Columns[i]
			break
		}
	}
	if timeCol == nil {
		return nil, pipeline.Skip("no datetime column")
	}
	numCols := frame.NumericColumns()
	if len(numCols) == 0 {
		return nil, pipeline.Skip("no numeric column to trend")
	}
	valCol := numCols[0]

	type obs struct {
		t time.Time
		v float64
	}
	var series []obs
	for i, raw := range timeCol.Raw {
		if raw == "" {
			continue
		}
		t, ok := dataset.ParseTime(raw)
		if !ok {
			continue
		}
		if i >= len(valCol.Floats) || math.IsNaN(valCol.Floats[i]) {
			continue
		}
		series = append(series, obs{t: t, v: valCol.Floats[i]})
	}
	if len(series) < 8 {
		return nil, pipeline.Skip("too few dated observations")
	}
	sort.Slice(series, func(i, j int) bool { return series[i].t.Before(series[j].t) })

	// Least squares on days since the first observation.
	origin := series[0].t
	var sx, sy, sxx, sxy float64
	n := float64(len(series))
	xs := make([]float64, len(series))
	for i, o := range series {
		x := o.t.Sub(origin).Hours() / 24
		xs[i] = x
		sx += x
		sy += o.v
		sxx += x * x
		sxy += x * o.v
	}
	denom := n*sxx - sx*sx
	if denom == 0 {
		return nil, pipeline.Skip("all observations share one timestamp")
	}
	slope := (n*sxy - sx*sy) / denom
	intercept := (sy - slope*sx) / n

	meanY := sy / n
	var ssRes, ssTot float64
	for i, o := range series {
		pred := intercept + slope*xs[i]
		ssRes += (o.v - pred) * (o.v - pred)
		ssTot += (o.v - meanY) * (o.v - meanY)
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}

	out := TimeseriesPayload{
		TimeColumn:  timeCol.Name,
		ValueColumn: valCol.Name,
		Slope:       slope,
		R2:          r2,
	}
	switch {
	case slope > 0:
		out.Direction = "rising"
	case slope < 0:
		out.Direction = "falling"
	default:
		out.Direction = "flat"
	}
	step := 1
	if len(series) > 300 {
		step = len(series) / 300
	}
	for i := 0; i < len(series); i += step {
		out.Points = append(out.Points, TimePoint{T: series[i].t.Format("2006-01-02"), V: series[i].v})
	}
	return out, nil
}
