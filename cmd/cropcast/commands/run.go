package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/panyam/cropcast/analysis"
	"github.com/panyam/cropcast/config"
	"github.com/panyam/cropcast/estimation"
	"github.com/panyam/cropcast/history"
	"github.com/panyam/cropcast/logging"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulated disease analysis and chart its forecast",
		Long: `Runs one analysis with the selected profile. Progress advances every tick
interval, stage changes and revealed values are printed as they happen and the
finished forecast is laid out on the profile canvas.

Ctrl-C cancels the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			image, _ := cmd.Flags().GetString("image")
			interval, _ := cmd.Flags().GetDuration("interval")
			svgPath, _ := cmd.Flags().GetString("svg")

			profile, err := config.Resolve(profilePath)
			if err != nil {
				return err
			}
			if interval > 0 {
				profile.Engine.TickInterval = interval
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			store := history.NewRingBufferStore(history.DefaultCapacity)
			defer store.Close()
			printer := newProgressPrinter(out)
			session, err := analysis.NewSession(profile, store, estimation.WithObserver(printer.observe))
			if err != nil {
				return err
			}

			sample, err := analysis.StaticImage(image).Acquire(ctx)
			if err != nil {
				return err
			}
			stageColor.Fprintf(out, "%s: analysing %s\n", profile.Name, sample.ImageURI)

			run, err := session.Start(ctx, sample)
			if err != nil {
				return err
			}
			go func() {
				for err := range run.Errors() {
					warnColor.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
				}
			}()

			report, err := session.Wait(ctx, run)
			if errors.Is(err, analysis.ErrCancelled) || errors.Is(err, context.Canceled) {
				session.Cancel()
				<-run.Done()
				return fmt.Errorf("analysis cancelled at %d%%", run.Snapshot().Progress)
			}
			if err != nil {
				return err
			}

			s := report.State
			fmt.Fprintf(out, "\nFinished in %d ticks (%s)\n", s.Ticks, time.Duration(s.Ticks)*profile.Engine.TickInterval)
			printMetrics(out, report.Result)
			fmt.Fprintln(out, "\nChart geometry:")
			printGeometry(out, report.Geometry, report.Labels.PointLabels)

			if svgPath != "" {
				if err := writeSVG(svgPath, report.Geometry, report.Labels); err != nil {
					return err
				}
				logging.Info("wrote chart to %s", svgPath)
				fmt.Fprintf(out, "\nChart written to %s\n", svgPath)
			}
			return nil
		},
	}

	cmd.Flags().String("image", "camera://capture/latest", "Opaque handle of the leaf image to analyse")
	cmd.Flags().Duration("interval", 0, "Override the profile tick interval (eg 50ms)")
	cmd.Flags().String("svg", "", "Write the forecast chart to this SVG file")
	return cmd
}

func init() {
	AddCommand(runCmd())
}
