package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/panyam/cropcast/logging"
	"github.com/spf13/cobra"
)

var (
	profilePath string
	logLevel    string
	noColor     bool
)

var rootCmd = &cobra.Command{
	Use:   "cropcast",
	Short: "cropcast runs simulated crop disease analyses and charts their forecasts",
	Long: `cropcast drives a staged disease-prediction analysis: progress advances
through named stages, forecast values are revealed as it goes, and the
finished forecast is laid out as a chart.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		level := logLevel
		if level == "" {
			level = os.Getenv(logging.EnvLogLevel)
		}
		if level == "" {
			return nil
		}
		l, err := logging.ParseLogLevel(level)
		if err != nil {
			return err
		}
		logging.SetLogLevel(l)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profilePath, "profile", "p", "", "Path to a YAML analysis profile (default: CROPCAST_PROFILE env var or the built-in leaf blight profile)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, off (default: CROPCAST_LOG_LEVEL env var)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
}

// AddCommand allows adding subcommands from other files.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}
