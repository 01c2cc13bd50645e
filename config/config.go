// Package config loads analysis profiles from YAML files and the environment.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/panyam/cropcast/analysis"
	"github.com/panyam/cropcast/estimation"
	"gopkg.in/yaml.v3"
)

const (
	EnvProfile      = "CROPCAST_PROFILE"
	EnvTickInterval = "CROPCAST_TICK_INTERVAL"
)

var ErrInvalid = errors.New("invalid profile file")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// yaml accepts .nan and .inf for floats; a metric value must be plottable.
	if err := v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	}); err != nil {
		panic(err)
	}
	return v
}

// Duration accepts Go duration strings ("150ms") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Stage is a progress band.
type Stage struct {
	Lower int    `yaml:"lower" validate:"gte=0,lt=100"`
	Label string `yaml:"label" validate:"required"`
}

// Metric is a revealed value. Value is returned after Delay, simulating a
// slow computation.
type Metric struct {
	Name      string   `yaml:"name" validate:"required"`
	Threshold int      `yaml:"threshold" validate:"gte=0,lte=100"`
	Value     float64  `yaml:"value" validate:"finite"`
	Delay     Duration `yaml:"delay,omitempty" validate:"gte=0"`
}

// Chart selects the metrics plotted after completion.
type Chart struct {
	Metrics    []string `yaml:"metrics" validate:"required,min=1,dive,required"`
	Labels     []string `yaml:"labels,omitempty"`
	Width      float64  `yaml:"width" validate:"gt=0"`
	Height     float64  `yaml:"height" validate:"gt=0"`
	TopPadding float64  `yaml:"top_padding" validate:"gte=0"`
}

// Profile mirrors the YAML profile file.
type Profile struct {
	Name          string   `yaml:"name" validate:"required"`
	TickInterval  Duration `yaml:"tick_interval" validate:"gt=0"`
	Increment     int      `yaml:"increment" validate:"min=1,max=100"`
	CompleteLabel string   `yaml:"complete_label,omitempty"`
	Stages        []Stage  `yaml:"stages" validate:"required,min=1,dive"`
	Metrics       []Metric `yaml:"metrics" validate:"dive"`
	Chart         Chart    `yaml:"chart"`
}

// Parse decodes and validates a YAML profile.
func Parse(data []byte) (analysis.Profile, error) {
	var pf Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil {
		return analysis.Profile{}, fmt.Errorf("%w: parse yaml: %v", ErrInvalid, err)
	}
	if err := validate.Struct(pf); err != nil {
		return analysis.Profile{}, fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}
	p := pf.ToProfile()
	if err := p.Validate(); err != nil {
		return analysis.Profile{}, err
	}
	return p, nil
}

// Load reads the profile at path.
func Load(path string) (analysis.Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return analysis.Profile{}, fmt.Errorf("read profile: %w", err)
	}
	p, err := Parse(b)
	if err != nil {
		return analysis.Profile{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Resolve picks the profile for a command: the explicit path, else
// $CROPCAST_PROFILE, else the built-in default. $CROPCAST_TICK_INTERVAL
// overrides the tick interval of whichever profile was chosen.
func Resolve(path string) (analysis.Profile, error) {
	if path == "" {
		path = os.Getenv(EnvProfile)
	}
	p := analysis.DefaultProfile()
	if path != "" {
		var err error
		if p, err = Load(path); err != nil {
			return analysis.Profile{}, err
		}
	}
	if v := os.Getenv(EnvTickInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return analysis.Profile{}, fmt.Errorf("%w: %s=%q is not a positive duration", ErrInvalid, EnvTickInterval, v)
		}
		p.Engine.TickInterval = d
	}
	return p, nil
}

// ToProfile converts the file form into an analysis profile.
func (pf Profile) ToProfile() analysis.Profile {
	cfg := estimation.Config{
		TickInterval:  time.Duration(pf.TickInterval),
		Increment:     pf.Increment,
		CompleteLabel: pf.CompleteLabel,
	}
	for _, s := range pf.Stages {
		cfg.Bands = append(cfg.Bands, estimation.Band{Lower: s.Lower, Label: s.Label})
	}
	for _, m := range pf.Metrics {
		cfg.Metrics = append(cfg.Metrics, estimation.Metric{
			Name:      m.Name,
			Threshold: m.Threshold,
			Compute:   delayed(m.Value, time.Duration(m.Delay)),
		})
	}
	return analysis.Profile{
		Name:         pf.Name,
		Engine:       cfg,
		ChartMetrics: append([]string(nil), pf.Chart.Metrics...),
		ChartLabels:  append([]string(nil), pf.Chart.Labels...),
		Canvas: analysis.Canvas{
			Width:      pf.Chart.Width,
			Height:     pf.Chart.Height,
			TopPadding: pf.Chart.TopPadding,
		},
	}
}

func delayed(v float64, d time.Duration) estimation.ComputeFunc {
	if d <= 0 {
		return estimation.Constant(v)
	}
	return func(ctx context.Context) (float64, error) {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return v, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch {
		case fe.Tag() == "finite":
			msgs = append(msgs, fmt.Sprintf("%s must be a finite number", fe.Namespace()))
		case fe.Param() != "":
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
