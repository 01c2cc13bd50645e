package viz

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// ChartConfig holds styling and margins around the plot area. The plot area
// itself is the geometry's Width x Height.
type ChartConfig struct {
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
	LineColor    string
	MarkerColor  string
	GridColor    string
	TextColor    string
	MarkerRadius float64
	GridTicks    int
}

// DefaultChartConfig returns sensible defaults.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		MarginTop: 30, MarginRight: 20, MarginBottom: 30, MarginLeft: 50,
		LineColor: "#16a34a", MarkerColor: "#15803d", GridColor: "#e5e7eb", TextColor: "#000000",
		MarkerRadius: 4, GridTicks: 5,
	}
}

// chartData contains all data needed for SVG template rendering.
type chartData struct {
	Config      ChartConfig
	Title       string
	Width       int
	Height      int
	InnerWidth  float64
	InnerHeight float64
	Path        string
	Markers     []marker
	GridLines   []gridLine
}

type marker struct {
	X, Y  float64
	Label string
	Value string
}
type gridLine struct {
	Y     float64
	Label string
}

const chartTemplate = `<svg width="{{.Width}}" height="{{.Height}}" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <style>
      .axis { font: 11px sans-serif; fill: {{.Config.TextColor}}; }
      .grid-line { stroke: {{.Config.GridColor}}; stroke-width: 0.5px; }
      .title { font: bold 14px sans-serif; text-anchor: middle; fill: {{.Config.TextColor}}; }
      .value { font: 10px sans-serif; text-anchor: middle; fill: {{.Config.TextColor}}; }
    </style>
  </defs>

  {{if .Title}}<text class="title" x="{{half .Width}}" y="18">{{.Title}}</text>{{end}}

  <g transform="translate({{.Config.MarginLeft}},{{.Config.MarginTop}})">
    {{range .GridLines}}<line class="grid-line" x1="0" x2="{{px $.InnerWidth}}" y1="{{px .Y}}" y2="{{px .Y}}"></line><text class="axis" x="-8" y="{{px .Y}}" text-anchor="end" dominant-baseline="middle">{{.Label}}</text>
    {{end}}
    {{if .Path}}<path fill="none" stroke="{{.Config.LineColor}}" stroke-width="2px" d="{{.Path}}"></path>{{end}}
    {{range .Markers}}<circle cx="{{px .X}}" cy="{{px .Y}}" r="{{px $.Config.MarkerRadius}}" fill="{{$.Config.MarkerColor}}"></circle><text class="value" x="{{px .X}}" y="{{px .Y}}" dy="-8">{{.Value}}</text>{{if .Label}}<text class="axis" x="{{px .X}}" y="{{px $.InnerHeight}}" dy="18" text-anchor="middle">{{.Label}}</text>{{end}}
    {{end}}
  </g>
</svg>`

// ChartRenderer renders a PlotGeometry as an SVG line chart. The line and
// the markers are both drawn from the same points.
type ChartRenderer struct {
	config   ChartConfig
	template *template.Template
}

func NewChartRenderer(config ChartConfig) *ChartRenderer {
	tmpl := template.Must(template.New("chart").Funcs(template.FuncMap{
		"half": func(a int) int { return a / 2 },
		"px":   func(v float64) string { return formatCoord(v) },
	}).Parse(chartTemplate))
	return &ChartRenderer{config: config, template: tmpl}
}

// Render creates an SVG document for g. Each point's value label is
// recovered from its position, so labels always match what is drawn.
func (c *ChartRenderer) Render(g PlotGeometry, labels ChartLabels) (string, error) {
	if len(g.Points) == 0 {
		return "", ErrEmptySeries
	}
	if len(labels.PointLabels) > 0 && len(labels.PointLabels) != len(g.Points) {
		return "", fmt.Errorf("got %d point labels for %d points", len(labels.PointLabels), len(g.Points))
	}

	data := chartData{
		Config:      c.config,
		Title:       labels.Title,
		Width:       int(math.Ceil(g.Width)) + c.config.MarginLeft + c.config.MarginRight,
		Height:      int(math.Ceil(g.Height)) + c.config.MarginTop + c.config.MarginBottom,
		InnerWidth:  g.Width,
		InnerHeight: g.Height,
		Path:        linePath(g.Points),
	}

	ticks := valueTicks(g.Min, g.Max, c.config.GridTicks)
	prec := optimalPrecision(ticks)
	for _, tick := range ticks {
		data.GridLines = append(data.GridLines, gridLine{Y: g.ScaleY(tick), Label: formatValue(tick, prec)})
	}

	for i, pt := range g.Points {
		m := marker{X: pt.X, Y: pt.Y, Value: formatValue(g.valueAt(pt.Y), 2)}
		if len(labels.PointLabels) > 0 {
			m.Label = labels.PointLabels[i]
		}
		data.Markers = append(data.Markers, m)
	}

	var result strings.Builder
	if err := c.template.Execute(&result, data); err != nil {
		return "", err
	}
	return "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" + result.String(), nil
}

// valueAt inverts ScaleY.
func (g PlotGeometry) valueAt(y float64) float64 {
	span := g.Height - g.TopPadding
	if span == 0 {
		return g.Min
	}
	return g.Min + (g.Height-y)/span*g.Range
}

// linePath builds an SVG path through the points. A single point has no line.
func linePath(points []Point) string {
	if len(points) < 2 {
		return ""
	}
	var b strings.Builder
	for i, pt := range points {
		if i == 0 {
			fmt.Fprintf(&b, "M%s,%s", formatCoord(pt.X), formatCoord(pt.Y))
		} else {
			fmt.Fprintf(&b, " L%s,%s", formatCoord(pt.X), formatCoord(pt.Y))
		}
	}
	return b.String()
}

func formatCoord(v float64) string {
	return formatValue(v, 2)
}

// valueTicks picks "nice" grid values (1, 2, 5 x 10^n steps) covering [min, max].
func valueTicks(min, max float64, maxTicks int) []float64 {
	if maxTicks < 2 {
		maxTicks = 2
	}
	if min >= max {
		return []float64{min}
	}
	rawStep := (max - min) / float64(maxTicks-1)
	magnitude := math.Pow(10, math.Floor(math.Log10(rawStep)))
	var step float64
	switch normalized := rawStep / magnitude; {
	case normalized <= 1:
		step = magnitude
	case normalized <= 2:
		step = 2 * magnitude
	case normalized <= 5:
		step = 5 * magnitude
	default:
		step = 10 * magnitude
	}
	var ticks []float64
	for tick := math.Ceil(min/step) * step; tick <= max+step*1e-9; tick += step {
		ticks = append(ticks, tick)
	}
	return ticks
}

func optimalPrecision(values []float64) int {
	if len(values) <= 1 {
		return 1
	}
	minDiff := math.Inf(1)
	for i := 1; i < len(values); i++ {
		if diff := math.Abs(values[i] - values[i-1]); diff > 0 && diff < minDiff {
			minDiff = diff
		}
	}
	if minDiff > 0 && !math.IsInf(minDiff, 0) {
		precision := int(math.Max(0, -math.Floor(math.Log10(minDiff))))
		if precision > 8 {
			return 8
		}
		return precision
	}
	return 2
}

func formatValue(value float64, precision int) string {
	formatted := fmt.Sprintf("%.*f", precision, value)
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(strings.TrimRight(formatted, "0"), ".")
	}
	if formatted == "" || formatted == "-" || formatted == "-0" {
		return "0"
	}
	return formatted
}
