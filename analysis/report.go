package analysis

import (
	"fmt"

	"github.com/panyam/cropcast/estimation"
	"github.com/panyam/cropcast/history"
	"github.com/panyam/cropcast/viz"
	gfn "github.com/panyam/goutils/fn"
)

// Report is the outcome of a completed run, ready for display.
type Report struct {
	Profile  string
	Sample   Sample
	State    estimation.State
	Result   estimation.Result
	Series   []viz.SeriesPoint
	Geometry viz.PlotGeometry
	Labels   viz.ChartLabels
}

// BuildReport takes a finished state, pulls the chart metrics out of its
// result and lays them out on the profile canvas.
func BuildReport(p Profile, s estimation.State) (Report, error) {
	res, err := s.Result()
	if err != nil {
		return Report{}, fmt.Errorf("run %s: %w", s.RunID, err)
	}

	values := gfn.Map(p.ChartMetrics, func(name string) float64 {
		v, _ := res.Value(name)
		return v
	})
	series := viz.SeriesFromValues(values)
	geom, err := viz.Layout(series, p.Canvas.Width, p.Canvas.Height, p.Canvas.TopPadding)
	if err != nil {
		return Report{}, fmt.Errorf("run %s: %w", s.RunID, err)
	}

	labels := p.ChartLabels
	if len(labels) == 0 {
		labels = p.ChartMetrics
	}
	return Report{
		Profile:  p.Name,
		State:    s,
		Result:   res,
		Series:   series,
		Geometry: geom,
		Labels:   viz.ChartLabels{Title: p.Name, PointLabels: append([]string(nil), labels...)},
	}, nil
}

// Record converts the report into a history entry.
func (r Report) Record() history.Record {
	metrics := make(map[string]float64, len(r.Result.Values))
	for _, mv := range r.Result.Values {
		metrics[mv.Name] = mv.Value
	}
	return history.Record{
		RunID:       r.State.RunID,
		Profile:     r.Profile,
		Sample:      r.Sample.ImageURI,
		Status:      r.State.Status.String(),
		Progress:    r.State.Progress,
		Metrics:     metrics,
		Series:      gfn.Map(r.Series, func(sp viz.SeriesPoint) float64 { return sp.Value }),
		CompletedAt: r.State.UpdatedAt,
	}
}
