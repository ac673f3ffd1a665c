package plugins

import (
	"context"
	"math"
	"strings"

	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/pipeline"
)

// GeoPoint is one plottable coordinate pair, optionally carrying the target
// value for map coloring.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	V   float64 `json:"v,omitempty"`
}

// GeospatialPayload holds the sampled coordinates detected in the frame.
type GeospatialPayload struct {
	LatColumn   string     `json:"lat_column"`
	LonColumn   string     `json:"lon_column"`
	ColorColumn string     `json:"color_column,omitempty"`
	Points      []GeoPoint `json:"points"`
	Total       int        `json:"total"`
	CenterLat   float64    `json:"center_lat"`
	CenterLon   float64    `json:"center_lon"`
}

// GeospatialPlugin detects latitude/longitude columns by name and prepares a
// sampled point set for the map view.
type GeospatialPlugin struct{ stage }

var (
	latNames = map[string]bool{"latitude": true, "lat": true, "lat_dd": true, "y": true}
	lonNames = map[string]bool{"longitude": true, "lon": true, "long": true, "lng": true, "lon_dd": true, "x": true}
)

const maxGeoPoints = 500

func (p *GeospatialPlugin) Run(_ context.Context, _ *pipeline.View, frame *dataset.Frame) (any, error) {
	latCol := findCoordColumn(frame, latNames)
	lonCol := findCoordColumn(frame, lonNames)
	if latCol == nil || lonCol == nil {
		return nil, pipeline.Skip("no latitude/longitude columns")
	}

	var colorCol *dataset.Column
	if frame.Target != "" {
		if c, ok := frame.Column(frame.Target); ok && c.Kind == dataset.KindNumeric {
			colorCol = c
		}
	}

	out := GeospatialPayload{LatColumn: latCol.Name, LonColumn: lonCol.Name}
	if colorCol != nil {
		out.ColorColumn = colorCol.Name
	}
	var sumLat, sumLon float64
	for i := 0; i < frame.Rows; i++ {
		lat, lon := latCol.Floats[i], lonCol.Floats[i]
		if math.IsNaN(lat) || math.IsNaN(lon) {
			continue
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			continue
		}
		out.Total++
		sumLat += lat
		sumLon += lon
		if len(out.Points) >= maxGeoPoints {
			continue
		}
		pt := GeoPoint{Lat: lat, Lon: lon}
		if colorCol != nil && !math.IsNaN(colorCol.Floats[i]) {
			pt.V = colorCol.Floats[i]
		}
		out.Points = append(out.Points, pt)
	}
	if out.Total == 0 {
		return nil, pipeline.Skip("no valid coordinate pairs")
	}
	out.CenterLat = sumLat / float64(out.Total)
	out.CenterLon = sumLon / float64(out.Total)
	return out, nil
}

// findCoordColumn matches numeric columns against the conventional coordinate
// names, case-insensitively, in frame order.
func findCoordColumn(frame *dataset.Frame, names map[string]bool) *dataset.Column {
	for i := range frame.Columns {
		c := &frame.Columns[i]
		if c.Kind != dataset.KindNumeric {
			continue
		}
		if names[strings.ToLower(c.Name)] {
			return c
		}
	}
	return nil
}
