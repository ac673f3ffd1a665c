package plugins

import (
	"context"
	"math"
	"sort"

	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/pipeline"
)

// Pair is one correlation pair summary.
type Pair struct {
	A string  `json:"a"`
	B string  `json:"b"`
	R float64 `json:"r"`
	N int     `json:"n"`
}

// CorrelationsPayload holds the symmetric Pearson matrix over numeric columns
// plus the top pairs by |r|.
type CorrelationsPayload struct {
	Columns []string    `json:"columns"`
	Matrix  [][]float64 `json:"matrix"`
	Pairs   []Pair      `json:"pairs"`
}

// CorrelationsPlugin computes pairwise Pearson correlations, ignoring rows
// with a missing value on either side of a pair.
type CorrelationsPlugin struct{ stage }

func (p *CorrelationsPlugin) Run(_ context.Context, _ *pipeline.View, frame *dataset.Frame) (any, error) {
	numCols := frame.NumericColumns()
	if len(numCols) < 2 {
		return nil, pipeline.Skip("fewer than two numeric columns")
	}

	n := len(numCols)
	out := CorrelationsPayload{Columns: make([]string, n), Matrix: make([][]float64, n)}
	for i, c := range numCols {
		out.Columns[i] = c.Name
		out.Matrix[i] = make([]float64, n)
		out.Matrix[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r, cnt := pearson(numCols[i].Floats, numCols[j].Floats)
			out.Matrix[i][j] = r
			out.Matrix[j][i] = r
			out.Pairs = append(out.Pairs, Pair{A: numCols[i].Name, B: numCols[j].Name, R: r, N: cnt})
		}
	}
	sort.Slice(out.Pairs, func(i, j int) bool {
		ai, aj := math.Abs(out.Pairs[i].R), math.Abs(out.Pairs[j].R)
		if ai == aj {
			return out.Pairs[i].A+out.Pairs[i].B < out.Pairs[j].A+out.Pairs[j].B
		}
		return ai > aj
	})
	if len(out.Pairs) > 15 {
		out.Pairs = out.Pairs[:15]
	}
	return out, nil
}

// ScatterPoint is one sampled (x, y) observation.
type ScatterPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// InteractionsPayload details the strongest correlated pair with a sampled
// scatter of its joint distribution.
type InteractionsPayload struct {
	A      string         `json:"a"`
	B      string         `json:"b"`
	R      float64        `json:"r"`
	Points []ScatterPoint `json:"points"`
}

// InteractionsPlugin zooms into the strongest pairwise relationship.
type InteractionsPlugin struct{ stage }

func (p *InteractionsPlugin) Run(_ context.Context, view *pipeline.View, frame *dataset.Frame) (any, error) {
	payload, ok := view.Payload(IDCorrelations)
	if !ok {
		return nil, pipeline.Skip("no correlation evidence")
	}
	corr := payload.(CorrelationsPayload)
	if len(corr.Pairs) == 0 {
		return nil, pipeline.Skip("no correlated pairs")
	}

	top := corr.Pairs[0]
	ca, _ := frame.Column(top.A)
	cb, _ := frame.Column(top.B)
	out := InteractionsPayload{A: top.A, B: top.B, R: top.R}
	const maxPoints = 200
	for i := range ca.Floats {
		if len(out.Points) >= maxPoints {
			break
		}
		x, y := ca.Floats[i], cb.Floats[i]
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		out.Points = append(out.Points, ScatterPoint{X: x, Y: y})
	}
	return out, nil
}
