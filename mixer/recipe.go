// Package mixer sequences color-mixing recipes against a running simulation
// and scores the resulting color against a target.
package mixer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/inkflow/config"
	"github.com/pthm-cable/inkflow/pigment"
	"github.com/pthm-cable/inkflow/sim"
)

// Dose is the amount of one pigment to dispense.
type Dose struct {
	Volume   float64 `yaml:"volume"`   // 0..MaxColorVolume, sets the splat radius
	Strength float64 `yaml:"strength"` // 0..100, the color intensity
}

func (d Dose) active() bool {
	return d.Volume != 0 && d.Strength != 0
}

// Recipe is one mixing experiment.
type Recipe struct {
	Cyan    Dose `yaml:"cyan"`
	Magenta Dose `yaml:"magenta"`
	Yellow  Dose `yaml:"yellow"`
	Black   Dose `yaml:"black"`

	MixingTime  float64 `yaml:"mixing_time"`  // seconds of vortex mixing, shared across active pigments
	MixingSpeed float64 `yaml:"mixing_speed"` // VORTEX_STRENGTH while mixing
}

// TotalVolume is the sum of all dispensed volumes.
func (r Recipe) TotalVolume() float64 {
	return r.Cyan.Volume + r.Magenta.Volume + r.Yellow.Volume + r.Black.Volume
}

// doses returns the pigments in dispense order: darkest first.
func (r Recipe) doses() []struct {
	color string
	dose  Dose
} {
	return []struct {
		color string
		dose  Dose
	}{
		{pigment.Black, r.Black},
		{pigment.Yellow, r.Yellow},
		{pigment.Magenta, r.Magenta},
		{pigment.Cyan, r.Cyan},
	}
}

// LogValue implements slog.LogValuer.
func (r Recipe) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("cyan", []float64{r.Cyan.Volume, r.Cyan.Strength}),
		slog.Any("magenta", []float64{r.Magenta.Volume, r.Magenta.Strength}),
		slog.Any("yellow", []float64{r.Yellow.Volume, r.Yellow.Strength}),
		slog.Any("black", []float64{r.Black.Volume, r.Black.Strength}),
		slog.Float64("mixing_time", r.MixingTime),
		slog.Float64("mixing_speed", r.MixingSpeed),
	)
}

// Settings holds the sequencing and scoring constants.
type Settings struct {
	MaxColorVolume      float64
	MaxTotalColorVolume float64
	DispenseDelay       time.Duration
	SettleTime          time.Duration
	AnalyzeTimeout      time.Duration
	ColorWeight         float64
	VolumeWeight        float64
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// SettingsFromConfig converts the mixer section of the config.
func SettingsFromConfig(c config.MixerConfig) Settings {
	return Settings{
		MaxColorVolume:      c.MaxColorVolume,
		MaxTotalColorVolume: c.MaxTotalColorVolume,
		DispenseDelay:       seconds(c.DispenseDelay),
		SettleTime:          seconds(c.SettleTime),
		AnalyzeTimeout:      seconds(c.AnalyzeTimeout),
		ColorWeight:         c.ColorWeight,
		VolumeWeight:        c.VolumeWeight,
	}
}

// Controller drives a simulation. Wait lets simulated time pass; a remote
// controller sleeps while a local one steps the simulation.
type Controller interface {
	UpdateConfig(ctx context.Context, key string, value any) error
	Clear(ctx context.Context) error
	CenterSplat(ctx context.Context) error
	AverageColor(ctx context.Context) (sim.RGB, error)
	Wait(ctx context.Context, d time.Duration) error
}

// Mix runs a recipe: clear the dye, spin the vortex, dispense each active
// pigment at the center with its own share of the mixing time, then stop the
// vortex and let the fluid settle.
func Mix(ctx context.Context, c Controller, r Recipe, s Settings) error {
	if s.MaxColorVolume <= 0 {
		return fmt.Errorf("max color volume must be positive, got %v", s.MaxColorVolume)
	}

	if err := c.Clear(ctx); err != nil {
		return fmt.Errorf("clearing: %w", err)
	}

	doses := r.doses()
	active := 0
	for _, d := range doses {
		if d.dose.active() {
			active++
		}
	}
	var share time.Duration
	if active > 0 {
		share = seconds(r.MixingTime / float64(active))
	}

	if err := c.UpdateConfig(ctx, "VORTEX_STRENGTH", r.MixingSpeed); err != nil {
		return err
	}

	for _, d := range doses {
		if !d.dose.active() {
			continue
		}
		slog.Debug("dispensing", "color", d.color, "volume", d.dose.Volume, "strength", d.dose.Strength)

		for _, kv := range []struct {
			key   string
			value any
		}{
			{"SPLAT_RADIUS", d.dose.Volume / s.MaxColorVolume},
			{"COLOR", d.color},
			{"COLOR_INTENSITY", d.dose.Strength},
		} {
			if err := c.UpdateConfig(ctx, kv.key, kv.value); err != nil {
				return fmt.Errorf("setting %s: %w", kv.key, err)
			}
		}
		if err := c.CenterSplat(ctx); err != nil {
			return fmt.Errorf("dispensing %s: %w", d.color, err)
		}
		if err := c.Wait(ctx, s.DispenseDelay+share); err != nil {
			return err
		}
	}

	if err := c.UpdateConfig(ctx, "VORTEX_STRENGTH", 0); err != nil {
		return err
	}
	return c.Wait(ctx, s.SettleTime)
}

// Result is the outcome of scoring one mixed color.
type Result struct {
	Color    sim.RGB
	Distance float64 // euclidean distance to the target in 0..255 units
	Loss     float64
}

// maxDistance is the diagonal of the 0..255 color cube.
var maxDistance = math.Sqrt(3 * 255 * 255)

// Score weighs the distance to target against the total volume used.
// Lower is better.
func Score(got, target sim.RGB, totalVolume float64, s Settings) Result {
	d := floats.Distance(
		[]float64{float64(got.R), float64(got.G), float64(got.B)},
		[]float64{float64(target.R), float64(target.G), float64(target.B)},
		2,
	)
	volume := 1.0
	if s.MaxTotalColorVolume > 0 {
		volume = min(totalVolume/s.MaxTotalColorVolume, 1)
	}
	return Result{
		Color:    got,
		Distance: d,
		Loss:     s.ColorWeight*d/maxDistance + s.VolumeWeight*volume,
	}
}

// Evaluate mixes a recipe, reads back the average color and scores it.
func Evaluate(ctx context.Context, c Controller, r Recipe, target sim.RGB, s Settings) (Result, error) {
	if err := Mix(ctx, c, r, s); err != nil {
		return Result{}, fmt.Errorf("mixing: %w", err)
	}

	actx := ctx
	if s.AnalyzeTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, s.AnalyzeTimeout)
		defer cancel()
	}
	got, err := c.AverageColor(actx)
	if err != nil {
		return Result{}, fmt.Errorf("analyzing: %w", err)
	}

	res := Score(got, target, r.TotalVolume(), s)
	slog.Info("recipe scored", "recipe", r, "color", got, "distance", res.Distance, "loss", res.Loss)
	return res, nil
}
