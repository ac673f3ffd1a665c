package plugins

import (
	"context"
	"sort"

	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/pipeline"
)

// QualityPayload carries the dataset-level quality ratios the health score is
// built from. Ratios are fractions in [0,1].
type QualityPayload struct {
	CellCount      int     `json:"cell_count"`
	MissingCells   int     `json:"missing_cells"`
	MissingRatio   float64 `json:"missing_ratio"`
	DuplicateRows  int     `json:"duplicate_rows"`
	DuplicateRatio float64 `json:"duplicate_ratio"`
}

// QualityPlugin computes dataset-level completeness and duplication ratios.
type QualityPlugin struct{ stage }

func (p *QualityPlugin) Run(_ context.Context, _ *pipeline.View, frame *dataset.Frame) (any, error) {
	out := QualityPayload{DuplicateRows: frame.DuplicateRows}
	for i := range frame.Columns {
		out.CellCount += len(frame.Columns[i].Raw)
		out.MissingCells += frame.Columns[i].Missing
	}
	if out.CellCount > 0 {
		out.MissingRatio = float64(out.MissingCells) / float64(out.CellCount)
	}
	if frame.Rows > 0 {
		out.DuplicateRatio = float64(frame.DuplicateRows) / float64(frame.Rows)
	}
	return out, nil
}

// ColumnMissing is one column's missingness measurement.
type ColumnMissing struct {
	Name    string  `json:"name"`
	Missing int     `json:"missing"`
	Ratio   float64 `json:"ratio"`
}

// MissingPayload reports per-column missingness, worst first.
type MissingPayload struct {
	Columns []ColumnMissing `json:"columns"`
}

// MissingPlugin profiles missing values column by column.
type MissingPlugin struct{ stage }

func (p *MissingPlugin) Run(_ context.Context, _ *pipeline.View, frame *dataset.Frame) (any, error) {
	out := MissingPayload{Columns: make([]ColumnMissing, 0, len(frame.Columns))}
	for i := range frame.Columns {
		c := &frame.Columns[i]
		out.Columns = append(out.Columns, ColumnMissing{
			Name:    c.Name,
			Missing: c.Missing,
			Ratio:   c.MissingRatio(),
		})
	}
	sort.Slice(out.Columns, func(i, j int) bool {
		if out.Columns[i].Ratio == out.Columns[j].Ratio {
			return out.Columns[i].Name < out.Columns[j].Name
		}
		return out.Columns[i].Ratio > out.Columns[j].Ratio
	})
	return out, nil
}
