package plugins

import (
	"context"

	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/pipeline"
)

// OverviewPayload summarizes the dataset's shape and schema. Every other
// stage depends on it directly or transitively.
type OverviewPayload struct {
	Rows          int                  `json:"rows"`
	Cols          int                  `json:"cols"`
	Numeric       int                  `json:"numeric"`
	Categorical   int                  `json:"categorical"`
	Datetime      int                  `json:"datetime"`
	Text          int                  `json:"text"`
	DuplicateRows int                  `json:"duplicate_rows"`
	Columns       []dataset.ColumnMeta `json:"columns"`
}

// OverviewPlugin captures dataset shape and per-column schema.
type OverviewPlugin struct{ stage }

func (p *OverviewPlugin) Run(_ context.Context, _ *pipeline.View, frame *dataset.Frame) (any, error) {
	out := OverviewPayload{
		Rows:          frame.Rows,
		Cols:          len(frame.Columns),
		DuplicateRows: frame.DuplicateRows,
		Columns:       frame.Meta().Columns,
	}
	for i := range frame.Columns {
		switch frame.Columns[i].Kind {
		case dataset.KindNumeric:
			out.Numeric++
		case dataset.KindCategorical:
			out.Categorical++
		case dataset.KindDatetime:
			out.Datetime++
		case dataset.KindText:
			out.Text++
		}
	}
	return out, nil
}
