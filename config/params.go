package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrUnknownKey   = errors.New("unknown config key")
	ErrReadOnly     = errors.New("config key is not adjustable at runtime")
	ErrInvalidValue = errors.New("invalid config value")
)

// ParamKind specifies how a parameter value is interpreted.
type ParamKind int

const (
	ParamFloat  ParamKind = iota // continuous value, clamped to [Min, Max] and snapped to Step
	ParamLevel                   // one of a fixed set of integers
	ParamBool                    // on/off
	ParamChoice                  // named option; unlisted names are kept as-is
)

// Param describes one named simulation parameter as seen by the control surfaces.
type Param struct {
	Key      string    // protocol name, e.g. SIM_SPEED
	Label    string    // panel label
	Kind     ParamKind
	Min      float64
	Max      float64
	Step     float64 // 0 = continuous
	Levels   []int
	Choices  []string
	Realloc  bool // changing it reallocates the grid fields
	ReadOnly bool // known, but not adjustable while running

	num     func(*SimulationConfig) *float64
	integer func(*SimulationConfig) *int
	flag    func(*SimulationConfig) *bool
	text    func(*SimulationConfig) *string
}

// Change reports the effect of a successful Apply.
type Change struct {
	Key     string
	Changed bool // value differs from before
	Realloc bool // fields must be reallocated at the next tick
}

// Params lists the simulation parameters in control panel order.
var Params = []Param{
	{Key: "SIM_SPEED", Label: "sim speed", Kind: ParamFloat, Min: 1, Max: 5, Step: 0.1,
		num: func(s *SimulationConfig) *float64 { return &s.SimSpeed }},
	{Key: "DYE_RESOLUTION", Label: "quality", Kind: ParamLevel, Levels: []int{1024, 512, 256, 128}, Realloc: true,
		integer: func(s *SimulationConfig) *int { return &s.DyeResolution }},
	{Key: "SIM_RESOLUTION", Label: "sim resolution", Kind: ParamLevel, Levels: []int{32, 64, 128, 256}, Realloc: true,
		integer: func(s *SimulationConfig) *int { return &s.SimResolution }},
	{Key: "COLOR", Label: "color", Kind: ParamChoice, Choices: []string{"Cyan", "Magenta", "Yellow", "Black"},
		text: func(s *SimulationConfig) *string { return &s.Color }},
	{Key: "COLOR_INTENSITY", Label: "color intensity", Kind: ParamFloat, Min: 0, Max: 100, Step: 0.1,
		num: func(s *SimulationConfig) *float64 { return &s.ColorIntensity }},
	{Key: "VORTEX_STRENGTH", Label: "vortex strength", Kind: ParamFloat, Min: 0, Max: 200, Step: 1,
		num: func(s *SimulationConfig) *float64 { return &s.VortexStrength }},
	{Key: "DENSITY_DISSIPATION", Label: "density diffusion", Kind: ParamFloat, Min: 0, Max: 4,
		num: func(s *SimulationConfig) *float64 { return &s.DensityDissipation }},
	{Key: "VELOCITY_DISSIPATION", Label: "velocity diffusion", Kind: ParamFloat, Min: 0, Max: 4,
		num: func(s *SimulationConfig) *float64 { return &s.VelocityDissipation }},
	{Key: "PRESSURE", Label: "pressure", Kind: ParamFloat, Min: 0, Max: 1,
		num: func(s *SimulationConfig) *float64 { return &s.Pressure }},
	{Key: "CURL", Label: "vorticity", Kind: ParamFloat, Min: 0, Max: 50, Step: 1,
		num: func(s *SimulationConfig) *float64 { return &s.Curl }},
	{Key: "SPLAT_RADIUS", Label: "splat radius", Kind: ParamFloat, Min: 0, Max: 1, Step: 0.001,
		num: func(s *SimulationConfig) *float64 { return &s.SplatRadius }},
	{Key: "PAUSED", Label: "paused", Kind: ParamBool,
		flag: func(s *SimulationConfig) *bool { return &s.Paused }},
	{Key: "PRESSURE_ITERATIONS", Label: "pressure iterations", Kind: ParamLevel, ReadOnly: true,
		integer: func(s *SimulationConfig) *int { return &s.PressureIterations }},
	{Key: "SPLAT_FORCE", Label: "splat force", Kind: ParamFloat, ReadOnly: true,
		num: func(s *SimulationConfig) *float64 { return &s.SplatForce }},
	{Key: "CAPTURE_RESOLUTION", Label: "capture resolution", Kind: ParamLevel, ReadOnly: true,
		integer: func(s *SimulationConfig) *int { return &s.CaptureResolution }},
}

var paramIndex = func() map[string]int {
	idx := make(map[string]int, len(Params))
	for i, p := range Params {
		idx[p.Key] = i
	}
	return idx
}()

// Lookup returns the parameter with the given protocol key.
func Lookup(key string) (*Param, bool) {
	i, ok := paramIndex[key]
	if !ok {
		return nil, false
	}
	return &Params[i], true
}

// Apply sets a parameter from an untyped value (as decoded from JSON or a panel widget).
// Numeric values are clamped and snapped like a slider would; levels must match exactly.
func (s *SimulationConfig) Apply(key string, value any) (Change, error) {
	p, ok := Lookup(key)
	if !ok {
		return Change{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if p.ReadOnly {
		return Change{}, fmt.Errorf("%w: %s", ErrReadOnly, key)
	}

	change := Change{Key: key}

	switch p.Kind {
	case ParamFloat:
		v, ok := toFloat(value)
		if !ok {
			return Change{}, fmt.Errorf("%w: %s=%v", ErrInvalidValue, key, value)
		}
		v = p.clamp(v)
		dst := p.num(s)
		change.Changed = *dst != v
		*dst = v

	case ParamLevel:
		v, ok := toFloat(value)
		if !ok || v != math.Trunc(v) || !slices.Contains(p.Levels, int(v)) {
			return Change{}, fmt.Errorf("%w: %s=%v", ErrInvalidValue, key, value)
		}
		dst := p.integer(s)
		change.Changed = *dst != int(v)
		*dst = int(v)

	case ParamBool:
		v, ok := toBool(value)
		if !ok {
			return Change{}, fmt.Errorf("%w: %s=%v", ErrInvalidValue, key, value)
		}
		dst := p.flag(s)
		change.Changed = *dst != v
		*dst = v

	case ParamChoice:
		v, ok := value.(string)
		if !ok {
			return Change{}, fmt.Errorf("%w: %s=%v", ErrInvalidValue, key, value)
		}
		dst := p.text(s)
		change.Changed = *dst != v
		*dst = v
	}

	change.Realloc = p.Realloc && change.Changed
	return change, nil
}

// Value returns the current value of a parameter.
func (s *SimulationConfig) Value(key string) (any, bool) {
	p, ok := Lookup(key)
	if !ok {
		return nil, false
	}
	switch {
	case p.num != nil:
		return *p.num(s), true
	case p.integer != nil:
		return *p.integer(s), true
	case p.flag != nil:
		return *p.flag(s), true
	case p.text != nil:
		return *p.text(s), true
	}
	return nil, false
}

// Diff returns the keys whose values differ between s and other, in Params order.
func (s *SimulationConfig) Diff(other *SimulationConfig) []string {
	var keys []string
	for _, p := range Params {
		a, _ := s.Value(p.Key)
		b, _ := other.Value(p.Key)
		if a != b {
			keys = append(keys, p.Key)
		}
	}
	return keys
}

func (p *Param) clamp(v float64) float64 {
	if p.Max > p.Min {
		v = min(max(v, p.Min), p.Max)
	}
	if p.Step > 0 {
		v = math.Round(v/p.Step) * p.Step
	}
	return v
}

func toFloat(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	}
	if f, ok := toFloat(value); ok {
		return f != 0, true
	}
	return false, false
}
