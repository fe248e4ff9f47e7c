package sim

import (
	"math/rand"

	"github.com/pthm-cable/inkflow/pigment"
)

// Random splat force per axis is uniform in [-randomForce/2, randomForce/2).
const randomForce = 1000

// SplatAt deposits an impulse at texture coordinate (x, y): a Gaussian force
// of (dx, dy) into velocity and a solid disc of color into dye.
func (s *Simulation) SplatAt(x, y, dx, dy float32, color pigment.RGBA) {
	aspect := s.aspect()
	radius := s.splatRadius()

	// A zero radius carries no force; the Gaussian is 0/0 at its center.
	if radius > 0 {
		vp := splatVelocityPass(s.velocity.Read(), x, y, dx, dy, aspect, radius)
		s.must(s.exec.Run(vp, s.velocity))
	}

	dp := splatDyePass(s.dye.Read(), x, y, color, aspect, radius)
	s.must(s.exec.Run(dp, s.dye))
}

// splatRadius converts SPLAT_RADIUS to texture units, widened on landscape
// canvases.
func (s *Simulation) splatRadius() float32 {
	r := float32(s.cfg.SplatRadius) / 100
	if a := s.aspect(); a > 1 {
		r *= a
	}
	return r
}

// Color returns the splat color for the current hue category and intensity.
func (s *Simulation) Color() pigment.RGBA {
	return pigment.GenerateColor(s.cfg.Color, float32(s.cfg.ColorIntensity/100))
}

// RandomSplats deposits n impulses at random positions with random forces,
// each colored by the current hue policy.
func (s *Simulation) RandomSplats(n int, rng *rand.Rand) {
	for i := 0; i < n; i++ {
		color := s.Color()
		x := rng.Float32()
		y := rng.Float32()
		dx := randomForce * (rng.Float32() - 0.5)
		dy := randomForce * (rng.Float32() - 0.5)
		s.SplatAt(x, y, dx, dy, color)
	}
}

// CenterSplat deposits a force-free impulse at the canvas center.
func (s *Simulation) CenterSplat() {
	s.SplatAt(0.5, 0.5, 0, 0, s.Color())
}

// Clear paints the dye solid white.
func (s *Simulation) Clear() {
	s.dye.Write().Fill(1, 1, 1, 1)
	s.dye.Swap()
}
