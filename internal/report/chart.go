package report

// Chart specs are self-contained declarative payloads: everything the client
// needs to draw a chart lives in the spec, so the renderer never reaches back
// into analysis state.

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// ChartSpec declares a single chart. ID is unique within the report and is
// the client's idempotence key.
type ChartSpec struct {
	ID         string        `json:"id"`
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Matrix     *Heatmap      `json:"matrix,omitempty"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries is one named data series.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint is one data point. Scatter charts use X/Y; categorical charts
// use Label/Value.
type ChartPoint struct {
	Label string  `json:"label,omitempty"`
	Value float64 `json:"value"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
}

// Heatmap carries a labelled square matrix, used by the correlation chart.
type Heatmap struct {
	Labels []string    `json:"labels"`
	Cells  [][]float64 `json:"cells"`
}

func barChart(id, title, xAxis, yAxis string, points []ChartPoint) ChartSpec {
	return ChartSpec{
		ID:        id,
		ChartType: "bar",
		Title:     title,
		XAxis:     xAxis,
		YAxis:     yAxis,
		Series:    []ChartSeries{{Name: title, Data: points, Color: defaultColors[0]}},
		Colors:    assignColors(1),
		ShowGrid:  true,
	}
}

func lineChart(id, title, xAxis, yAxis string, points []ChartPoint) ChartSpec {
	return ChartSpec{
		ID:        id,
		ChartType: "line",
		Title:     title,
		XAxis:     xAxis,
		YAxis:     yAxis,
		Series:    []ChartSeries{{Name: title, Data: points, Color: defaultColors[0]}},
		Colors:    assignColors(1),
		ShowGrid:  true,
	}
}

func scatterChart(id, title, xAxis, yAxis string, series []ChartSeries) ChartSpec {
	for i := range series {
		if series[i].Color == "" {
			series[i].Color = defaultColors[i%len(defaultColors)]
		}
	}
	return ChartSpec{
		ID:         id,
		ChartType:  "scatter",
		Title:      title,
		XAxis:      xAxis,
		YAxis:      yAxis,
		Series:     series,
		Colors:     assignColors(len(series)),
		ShowLegend: len(series) > 1,
		ShowGrid:   true,
	}
}

func heatmapChart(id, title string, labels []string, cells [][]float64) ChartSpec {
	return ChartSpec{
		ID:        id,
		ChartType: "heatmap",
		Title:     title,
		Matrix:    &Heatmap{Labels: labels, Cells: cells},
	}
}

func assignColors(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = defaultColors[i%len(defaultColors)]
	}
	return out
}
