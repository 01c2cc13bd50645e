package commands

import (
	"fmt"

	"github.com/panyam/cropcast/config"
	"github.com/panyam/cropcast/estimation"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Show the stages and reveal thresholds of a profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := config.Resolve(profilePath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		cfg := profile.Engine

		stageColor.Fprintf(out, "%s\n", profile.Name)
		fmt.Fprintf(out, "tick every %s, +%d%% per tick\n\nStages:\n", cfg.TickInterval, cfg.Increment)
		for i, b := range cfg.Bands {
			upper := estimation.MaxProgress
			if i+1 < len(cfg.Bands) {
				upper = cfg.Bands[i+1].Lower
			}
			fmt.Fprintf(out, "  [%3d, %3d)  %s\n", b.Lower, upper, b.Label)
		}
		fmt.Fprintf(out, "  %-10s  %s\n", "100", estimation.StageFor(cfg.Bands, cfg.CompleteLabel, estimation.MaxProgress))

		fmt.Fprintln(out, "\nReveals:")
		for _, m := range cfg.Metrics {
			fmt.Fprintf(out, "  %-8s at %3d%%\n", m.Name, m.Threshold)
		}
		dimColor.Fprintf(out, "\nChart: %v on %gx%g\n", profile.ChartMetrics, profile.Canvas.Width, profile.Canvas.Height)
		return nil
	},
}

func init() {
	AddCommand(describeCmd)
}
