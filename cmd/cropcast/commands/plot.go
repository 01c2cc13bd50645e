package commands

import (
	"fmt"
	"strconv"

	"github.com/panyam/cropcast/viz"
	"github.com/spf13/cobra"
)

func plotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot <value> [value...]",
		Short: "Lay out a numeric series as chart coordinates",
		Long: `Maps the given series onto a width x height canvas and prints the point
coordinates. Larger values plot higher. With --output the chart is also
rendered to SVG.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, _ := cmd.Flags().GetFloat64("width")
			height, _ := cmd.Flags().GetFloat64("height")
			topPadding, _ := cmd.Flags().GetFloat64("top-padding")
			outputFile, _ := cmd.Flags().GetString("output")
			title, _ := cmd.Flags().GetString("title")

			values := make([]float64, len(args))
			for i, a := range args {
				v, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("value %d: %w", i+1, err)
				}
				values[i] = v
			}

			g, err := viz.Layout(viz.SeriesFromValues(values), width, height, topPadding)
			if err != nil {
				return err
			}
			printGeometry(cmd.OutOrStdout(), g, nil)

			if outputFile != "" {
				if err := writeSVG(outputFile, g, viz.ChartLabels{Title: title}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Chart written to %s\n", outputFile)
			}
			return nil
		},
	}

	cmd.Flags().Float64P("width", "W", 300, "Canvas width")
	cmd.Flags().Float64P("height", "H", 160, "Canvas height")
	cmd.Flags().Float64("top-padding", 20, "Space kept above the highest value")
	cmd.Flags().StringP("output", "o", "", "Output SVG file")
	cmd.Flags().String("title", "", "Chart title")
	return cmd
}

func init() {
	AddCommand(plotCmd())
}
