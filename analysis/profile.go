// Package analysis runs disease-prediction analyses: a staged estimation run
// per sample whose finished forecast is laid out as a chart and recorded in
// history.
package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/panyam/cropcast/estimation"
)

var ErrInvalidProfile = errors.New("invalid analysis profile")

// Canvas is the drawing region the forecast chart is laid out in.
type Canvas struct {
	Width      float64
	Height     float64
	TopPadding float64
}

// Profile configures one kind of analysis.
type Profile struct {
	Name         string
	Engine       estimation.Config
	ChartMetrics []string // series plotted once the run completes, in order
	ChartLabels  []string // optional, one per chart metric
	Canvas       Canvas
}

// Validate checks the engine config and the chart wiring.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidProfile)
	}
	if err := estimation.Validate(p.Engine); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	if len(p.ChartMetrics) == 0 {
		return fmt.Errorf("%w: %q has no chart metrics", ErrInvalidProfile, p.Name)
	}
	known := make(map[string]bool, len(p.Engine.Metrics))
	for _, m := range p.Engine.Metrics {
		known[m.Name] = true
	}
	for _, name := range p.ChartMetrics {
		if !known[name] {
			return fmt.Errorf("%w: chart metric %q is not produced by the run", ErrInvalidProfile, name)
		}
	}
	if len(p.ChartLabels) > 0 && len(p.ChartLabels) != len(p.ChartMetrics) {
		return fmt.Errorf("%w: %d chart labels for %d chart metrics", ErrInvalidProfile, len(p.ChartLabels), len(p.ChartMetrics))
	}
	c := p.Canvas
	if c.Width <= 0 || c.Height <= 0 || c.TopPadding < 0 || c.TopPadding >= c.Height {
		return fmt.Errorf("%w: bad canvas %gx%g padding %g", ErrInvalidProfile, c.Width, c.Height, c.TopPadding)
	}
	return nil
}

// DefaultProfile is the leaf disease forecast shown on the prediction screen:
// the current infection estimate followed by 1, 3 and 7 day forecasts.
func DefaultProfile() Profile {
	return Profile{
		Name: "Leaf Blight Forecast",
		Engine: estimation.Config{
			TickInterval: 120 * time.Millisecond,
			Increment:    4,
			Bands: []estimation.Band{
				{Lower: 0, Label: "Uploading leaf image"},
				{Lower: 15, Label: "Detecting leaf area"},
				{Lower: 35, Label: "Identifying lesion patterns"},
				{Lower: 60, Label: "Estimating infection severity"},
				{Lower: 80, Label: "Forecasting disease spread"},
			},
			CompleteLabel: "Analysis complete",
			Metrics: []estimation.Metric{
				{Name: "current", Threshold: 30, Compute: estimation.Constant(9.8)},
				{Name: "t+1", Threshold: 60, Compute: estimation.Constant(13.61)},
				{Name: "t+3", Threshold: 75, Compute: estimation.Constant(18.00)},
				{Name: "t+7", Threshold: 90, Compute: estimation.Constant(31.47)},
			},
		},
		ChartMetrics: []string{"t+1", "t+3", "t+7"},
		ChartLabels:  []string{"Day 1", "Day 3", "Day 7"},
		Canvas:       Canvas{Width: 300, Height: 160, TopPadding: 20},
	}
}
