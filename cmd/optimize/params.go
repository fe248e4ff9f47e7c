package main

import (
	"github.com/pthm-cable/inkflow/mixer"
)

// ParamSpec defines a single optimizable recipe input.
type ParamSpec struct {
	Name    string  // CSV column and log name
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting point
}

// ParamVector holds the set of all optimizable recipe inputs.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the recipe inputs. Volumes are bounded by the
// largest dose the mixer dispenses.
func NewParamVector(maxVolume float64) *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "cyan_volume", Min: 0, Max: maxVolume, Default: maxVolume / 4},
			{Name: "cyan_strength", Min: 2, Max: 100, Default: 50},
			{Name: "magenta_volume", Min: 0, Max: maxVolume, Default: maxVolume / 4},
			{Name: "magenta_strength", Min: 2, Max: 100, Default: 50},
			{Name: "yellow_volume", Min: 0, Max: maxVolume, Default: maxVolume / 4},
			{Name: "yellow_strength", Min: 2, Max: 100, Default: 50},
			{Name: "black_volume", Min: 0, Max: maxVolume, Default: 0},
			{Name: "black_strength", Min: 2, Max: 100, Default: 50},
			{Name: "mixing_time", Min: 1, Max: 45, Default: 10},
			{Name: "mixing_speed", Min: 100, Max: 200, Default: 150},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// Recipe builds a recipe from raw values in Specs order.
func (pv *ParamVector) Recipe(values []float64) mixer.Recipe {
	c := pv.Clamp(values)
	return mixer.Recipe{
		Cyan:        mixer.Dose{Volume: c[0], Strength: c[1]},
		Magenta:     mixer.Dose{Volume: c[2], Strength: c[3]},
		Yellow:      mixer.Dose{Volume: c[4], Strength: c[5]},
		Black:       mixer.Dose{Volume: c[6], Strength: c[7]},
		MixingTime:  c[8],
		MixingSpeed: c[9],
	}
}

// Values extracts raw values from a recipe in Specs order.
func (pv *ParamVector) Values(r mixer.Recipe) []float64 {
	return []float64{
		r.Cyan.Volume, r.Cyan.Strength,
		r.Magenta.Volume, r.Magenta.Strength,
		r.Yellow.Volume, r.Yellow.Strength,
		r.Black.Volume, r.Black.Strength,
		r.MixingTime, r.MixingSpeed,
	}
}
