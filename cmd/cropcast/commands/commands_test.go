package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestPlotCommand(t *testing.T) {
	svg := filepath.Join(t.TempDir(), "forecast.svg")
	out, err := execute(t, "plot", "--no-color", "-o", svg, "13.61", "18.00", "31.47")
	require.NoError(t, err)

	assert.Contains(t, out, "min 13.61  max 31.47")
	assert.Contains(t, out, "x=0.00     y=160.00")
	assert.Contains(t, out, "x=300.00   y=20.00")

	b, err := os.ReadFile(svg)
	require.NoError(t, err)
	assert.Contains(t, string(b), "<svg")
}

func TestPlotCommandRejectsBadValue(t *testing.T) {
	_, err := execute(t, "plot", "1", "two")
	assert.ErrorContains(t, err, "value 2")
}

func TestDescribeCommand(t *testing.T) {
	t.Setenv("CROPCAST_PROFILE", "")
	out, err := execute(t, "describe", "--no-color", "--profile", "")
	require.NoError(t, err)
	assert.Contains(t, out, "Leaf Blight Forecast")
	assert.Contains(t, out, "[ 80, 100)  Forecasting disease spread")
	assert.Contains(t, out, "t+7      at  90%")
}

func TestRunCommand(t *testing.T) {
	t.Setenv("CROPCAST_PROFILE", "")
	t.Setenv("CROPCAST_TICK_INTERVAL", "")
	svg := filepath.Join(t.TempDir(), "run.svg")
	out, err := execute(t, "run", "--no-color", "--profile", "", "--interval", "1ms", "--svg", svg, "--image", "file:///leaf.jpg")
	require.NoError(t, err)

	assert.Contains(t, out, "analysing file:///leaf.jpg")
	assert.Contains(t, out, "Identifying lesion patterns")
	assert.Contains(t, out, "t+7 = 31.47")
	assert.Contains(t, out, "100%  Analysis complete")
	assert.Contains(t, out, "Finished in 25 ticks")
	assert.Contains(t, out, "Day 3")
	assert.FileExists(t, svg)
}
