package sim

import (
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/pthm-cable/inkflow/telemetry"
)

// Step advances the fields by dt seconds of real time, scaled by SIM_SPEED.
// The caller clamps dt to MaxDT.
func (s *Simulation) Step(dt float32) {
	dt *= float32(s.cfg.SimSpeed)

	s.perf.StartPhase(telemetry.PhaseCurl)
	s.computeCurl()

	s.perf.StartPhase(telemetry.PhaseVorticity)
	s.applyVorticity(dt)

	s.perf.StartPhase(telemetry.PhaseVortex)
	s.applyVortex(float32(s.cfg.VortexStrength) * dt * 300)

	s.perf.StartPhase(telemetry.PhaseDivergence)
	s.computeDivergence()

	s.perf.StartPhase(telemetry.PhasePressure)
	s.seedPressure(float32(s.cfg.Pressure))
	s.solvePressure(s.cfg.PressureIterations)

	s.perf.StartPhase(telemetry.PhaseGradient)
	s.subtractGradient()

	s.perf.StartPhase(telemetry.PhaseAdvectVelocity)
	s.advectVelocity(dt)

	s.perf.StartPhase(telemetry.PhaseAdvectDye)
	s.advectDye(dt)

	s.perf.StartPhase(telemetry.PhaseBlur)
	s.blurDye()
}

func (s *Simulation) computeCurl() {
	s.must(s.exec.RunSurface(curlPass(s.velocity.Read()), s.curl))
}

func (s *Simulation) applyVorticity(dt float32) {
	p := vorticityPass(s.velocity.Read(), s.curl, float32(s.cfg.Curl), dt)
	s.must(s.exec.Run(p, s.velocity))
}

// applyVortex blends the velocity toward a centered swirl of the given
// strength. At zero strength this still damps velocity by the blend factor.
func (s *Simulation) applyVortex(strength float32) {
	src := vector(s.velocity.Read())
	dst := vector(s.velocity.Write())
	blas32.Copy(src, dst)
	blas32.Scal(1-vortexBlend, dst)
	blas32.Axpy(vortexBlend*strength, vector(s.vortexUnit), dst)
	s.quantize(s.velocity.Write())
	s.velocity.Swap()
}

func (s *Simulation) computeDivergence() {
	s.must(s.exec.RunSurface(divergencePass(s.velocity.Read()), s.divergence))
}

// seedPressure scales the previous pressure by factor as the solver's
// starting guess.
func (s *Simulation) seedPressure(factor float32) {
	dst := vector(s.pressure.Write())
	blas32.Copy(vector(s.pressure.Read()), dst)
	blas32.Scal(factor, dst)
	s.quantize(s.pressure.Write())
	s.pressure.Swap()
}

// solvePressure runs exactly n Jacobi iterations.
func (s *Simulation) solvePressure(n int) {
	for i := 0; i < n; i++ {
		s.must(s.exec.Run(jacobiPass(s.pressure.Read(), s.divergence), s.pressure))
	}
}

func (s *Simulation) subtractGradient() {
	p := gradientPass(s.pressure.Read(), s.velocity.Read())
	s.must(s.exec.Run(p, s.velocity))
}

func (s *Simulation) advectVelocity(dt float32) {
	p := advectVelocityPass(s.velocity.Read(), dt, float32(s.cfg.VelocityDissipation), s.caps.LinearFiltering)
	s.must(s.exec.Run(p, s.velocity))
}

func (s *Simulation) advectDye(dt float32) {
	p := advectDyePass(s.velocity.Read(), s.dye.Read(), dt, float32(s.cfg.DensityDissipation))
	s.must(s.exec.Run(p, s.dye))
}

// blurDye runs one horizontal and one vertical pigment blur.
func (s *Simulation) blurDye() {
	tx, ty := s.dye.TexelSize()
	s.must(s.exec.Run(blurPass(s.dye.Read(), tx*blurOffset, 0), s.dye))
	s.must(s.exec.Run(blurPass(s.dye.Read(), 0, ty*blurOffset), s.dye))
}
