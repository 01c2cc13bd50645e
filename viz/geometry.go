package viz

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptySeries  = errors.New("series has no points")
	ErrInvalidValue = errors.New("series value is not finite")
)

// SeriesFromValues indexes values from 0.
func SeriesFromValues(values []float64) []SeriesPoint {
	out := make([]SeriesPoint, len(values))
	for i, v := range values {
		out[i] = SeriesPoint{Index: i, Value: v}
	}
	return out
}

// Layout maps series onto a width x height region. x spreads indices evenly
// across the width (a single point sits at width/2). y is inverted so larger
// values plot higher, with the maximum at topPadding and the minimum at
// height.
//
// When every value is equal the range is taken as 1: all points land on
// y = height and the returned Range is 1.
func Layout(series []SeriesPoint, width, height, topPadding float64) (PlotGeometry, error) {
	if len(series) == 0 {
		return PlotGeometry{}, ErrEmptySeries
	}

	g := PlotGeometry{
		Points:     make([]Point, len(series)),
		Min:        math.Inf(1),
		Max:        math.Inf(-1),
		Width:      width,
		Height:     height,
		TopPadding: topPadding,
	}
	for _, sp := range series {
		if math.IsNaN(sp.Value) || math.IsInf(sp.Value, 0) {
			return PlotGeometry{}, fmt.Errorf("%w: index %d is %v", ErrInvalidValue, sp.Index, sp.Value)
		}
		g.Min = math.Min(g.Min, sp.Value)
		g.Max = math.Max(g.Max, sp.Value)
	}
	g.Range = g.Max - g.Min
	if g.Range == 0 {
		g.Range = 1
	}

	count := len(series)
	for i, sp := range series {
		x := width / 2
		if count > 1 {
			x = float64(sp.Index) / float64(count-1) * width
		}
		g.Points[i] = Point{X: x, Y: g.ScaleY(sp.Value)}
	}
	return g, nil
}

// ScaleY maps a value with the same transform Layout used for the points.
func (g PlotGeometry) ScaleY(v float64) float64 {
	r := g.Range
	if r == 0 {
		r = 1
	}
	return g.Height - (v-g.Min)/r*(g.Height-g.TopPadding)
}
