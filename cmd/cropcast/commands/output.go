package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/panyam/cropcast/estimation"
	"github.com/panyam/cropcast/viz"
)

var (
	stageColor  = color.New(color.FgCyan, color.Bold)
	revealColor = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	dimColor    = color.New(color.Faint)
)

// progressPrinter writes a line whenever the stage changes or a metric is
// revealed. It is used as a run observer, so it only sees applied ticks.
type progressPrinter struct {
	out      io.Writer
	stage    string
	revealed map[string]bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, revealed: map[string]bool{}}
}

func (p *progressPrinter) observe(s estimation.State) {
	if s.StageLabel != p.stage {
		p.stage = s.StageLabel
		stageColor.Fprintf(p.out, "%3d%%  %s\n", s.Progress, s.StageLabel)
	}
	for _, name := range s.Order {
		r := s.Revealed[name]
		if r.Resolved && !p.revealed[name] {
			p.revealed[name] = true
			revealColor.Fprintf(p.out, "      %s = %g\n", name, r.Value)
		}
	}
	if s.Status == estimation.StatusCancelled {
		warnColor.Fprintf(p.out, "%3d%%  cancelled\n", s.Progress)
	}
}

func printGeometry(out io.Writer, g viz.PlotGeometry, labels []string) {
	dimColor.Fprintf(out, "min %g  max %g  range %g\n", g.Min, g.Max, g.Range)
	for i, pt := range g.Points {
		label := fmt.Sprintf("#%d", i)
		if i < len(labels) {
			label = labels[i]
		}
		fmt.Fprintf(out, "  %-8s x=%-8.2f y=%.2f\n", label, pt.X, pt.Y)
	}
}

func printMetrics(out io.Writer, res estimation.Result) {
	width := 0
	for _, mv := range res.Values {
		width = max(width, len(mv.Name))
	}
	for _, mv := range res.Values {
		fmt.Fprintf(out, "  %-*s %g\n", width, mv.Name, mv.Value)
	}
}

func writeSVG(path string, g viz.PlotGeometry, labels viz.ChartLabels) error {
	svg, err := viz.NewChartRenderer(viz.DefaultChartConfig()).Render(g, labels)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(svg), 0o644)
}
