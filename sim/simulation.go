// Package sim implements the fluid solver: the velocity, pressure and dye
// fields, the per-frame step pipeline and the impulse injector.
package sim

import (
	"log/slog"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/pthm-cable/inkflow/config"
	"github.com/pthm-cable/inkflow/field"
	"github.com/pthm-cable/inkflow/kernel"
	"github.com/pthm-cable/inkflow/telemetry"
)

// MaxDT bounds the real frame time fed into a step, in seconds.
const MaxDT = 0.016666

// vortexBlend is the fixed weight of the synthetic vortex in the velocity mix.
const vortexBlend = 0.1

// Simulation owns every grid field and advances them one frame at a time.
// It is not safe for concurrent use; callers serialize access at tick
// boundaries.
type Simulation struct {
	cfg  config.SimulationConfig
	caps field.Caps
	exec *kernel.Executor
	perf *telemetry.PerfCollector

	width, height int

	velocity   *field.Field
	dye        *field.Field
	pressure   *field.Field
	divergence *field.Buffer
	curl       *field.Buffer
	// vortexUnit holds the unit-strength vortex velocity, rebuilt with the grid.
	vortexUnit *field.Buffer

	formatR, formatRG, formatRGBA field.Format
}

// NewSimulation allocates fields for a canvas of width x height pixels. The
// dye starts white and every other field starts at zero.
func NewSimulation(cfg config.SimulationConfig, caps field.Caps, exec *kernel.Executor, width, height int) *Simulation {
	s := &Simulation{
		caps:   caps,
		exec:   exec,
		width:  width,
		height: height,
	}
	s.cfg = s.capDyeResolution(cfg)
	s.formatR = s.resolveFormat(field.FormatR)
	s.formatRG = s.resolveFormat(field.FormatRG)
	s.formatRGBA = s.resolveFormat(field.FormatRGBA)
	if !caps.LinearFiltering {
		slog.Info("linear filtering unavailable, using manual bilinear advection")
	}
	if caps.HalfFloat {
		slog.Info("fields stored at half precision")
	}
	s.initFields()
	return s
}

func (s *Simulation) resolveFormat(want field.Format) field.Format {
	got, err := s.caps.Resolve(want)
	if err != nil {
		slog.Error("field format unavailable", "format", want.String(), "error", err)
		return want
	}
	if got != want {
		slog.Warn("field format fallback", "want", want.String(), "got", got.String())
	}
	return got
}

// initFields (re)allocates all fields at the current resolutions. Dye content
// is resampled; velocity, pressure, divergence and curl start from zero.
func (s *Simulation) initFields() {
	simW, simH := Resolution(s.cfg.SimResolution, s.width, s.height)
	dyeW, dyeH := Resolution(s.cfg.DyeResolution, s.width, s.height)
	filter := s.caps.Filter()

	if s.dye == nil {
		s.dye = field.New(dyeW, dyeH, s.formatRGBA, filter)
		s.dye.Read().Fill(1, 1, 1, 1)
	} else {
		s.dye.Resize(dyeW, dyeH)
	}

	s.velocity.Release()
	s.pressure.Release()
	s.divergence.Release()
	s.curl.Release()
	s.vortexUnit.Release()

	s.velocity = field.New(simW, simH, s.formatRG, filter)
	s.pressure = field.New(simW, simH, s.formatR, field.Nearest)
	s.divergence = field.NewBuffer(simW, simH, s.formatR, field.Nearest)
	s.curl = field.NewBuffer(simW, simH, s.formatR, field.Nearest)
	s.vortexUnit = field.NewBuffer(simW, simH, s.formatRG, field.Nearest)
	s.must(s.exec.RunSurface(vortexUnitPass(), s.vortexUnit))

	slog.Debug("fields allocated",
		"sim_width", simW, "sim_height", simH,
		"dye_width", dyeW, "dye_height", dyeH,
	)
}

// SetPerf attaches a collector that times each pipeline stage.
func (s *Simulation) SetPerf(p *telemetry.PerfCollector) {
	s.perf = p
}

// Config returns the parameters the simulation is currently using.
func (s *Simulation) Config() config.SimulationConfig {
	return s.cfg
}

// Configure installs a new parameter set. Changing either grid resolution
// reallocates the fields.
func (s *Simulation) Configure(cfg config.SimulationConfig) {
	cfg = s.capDyeResolution(cfg)
	realloc := cfg.SimResolution != s.cfg.SimResolution || cfg.DyeResolution != s.cfg.DyeResolution
	s.cfg = cfg
	if realloc {
		s.initFields()
	}
}

// capDyeResolution limits the dye grid when advection has to interpolate by
// hand.
func (s *Simulation) capDyeResolution(cfg config.SimulationConfig) config.SimulationConfig {
	if !s.caps.LinearFiltering && cfg.DyeResolution > config.FallbackDyeResolution {
		slog.Warn("dye resolution capped without linear filtering",
			"want", cfg.DyeResolution, "got", config.FallbackDyeResolution)
		cfg.DyeResolution = config.FallbackDyeResolution
	}
	return cfg
}

// Resize adapts the fields to a new canvas size. Returns false if the size
// is unchanged.
func (s *Simulation) Resize(width, height int) bool {
	if width == s.width && height == s.height {
		return false
	}
	s.width, s.height = width, height
	s.initFields()
	return true
}

// Size returns the canvas size in pixels.
func (s *Simulation) Size() (int, int) {
	return s.width, s.height
}

// Velocity returns the velocity field.
func (s *Simulation) Velocity() *field.Field { return s.velocity }

// Dye returns the dye field.
func (s *Simulation) Dye() *field.Field { return s.dye }

// Pressure returns the pressure field.
func (s *Simulation) Pressure() *field.Field { return s.pressure }

// Divergence returns the divergence scratch buffer.
func (s *Simulation) Divergence() *field.Buffer { return s.divergence }

// Curl returns the curl scratch buffer.
func (s *Simulation) Curl() *field.Buffer { return s.curl }

// Release frees every field.
func (s *Simulation) Release() {
	s.velocity.Release()
	s.dye.Release()
	s.pressure.Release()
	s.divergence.Release()
	s.curl.Release()
	s.vortexUnit.Release()
}

// must panics on executor errors. Every pass is built with inputs distinct
// from its target, so an error here is a broken precondition.
func (s *Simulation) must(err error) {
	if err != nil {
		panic(err)
	}
}

func (s *Simulation) aspect() float32 {
	if s.height == 0 {
		return 1
	}
	return float32(s.width) / float32(s.height)
}

// vector views a buffer's storage for blas32 routines.
func vector(b *field.Buffer) blas32.Vector {
	return blas32.Vector{N: len(b.Data), Data: b.Data, Inc: 1}
}

func (s *Simulation) quantize(b *field.Buffer) {
	if s.caps.HalfFloat {
		field.Quantize(b.Data)
	}
}
