// Package viz turns numeric series into plot geometry and renders it.
package viz

// SeriesPoint is one step of an ordered series, eg a day of a forecast.
type SeriesPoint struct {
	Index int
	Value float64
}

// Point is a coordinate on the drawing surface. Y grows downwards.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlotGeometry is the output of Layout: one Point per SeriesPoint, in order,
// plus the extents used for scaling.
type PlotGeometry struct {
	Points     []Point `json:"points"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Range      float64 `json:"range"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	TopPadding float64 `json:"topPadding"`
}

// ChartLabels annotates a rendered chart.
type ChartLabels struct {
	Title       string
	PointLabels []string // one per point, eg "Day 1"
}

// Renderer draws a PlotGeometry onto some surface.
type Renderer interface {
	Render(g PlotGeometry, labels ChartLabels) (string, error)
}
