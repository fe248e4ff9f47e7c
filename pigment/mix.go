// Package pigment blends colors the way paint mixes rather than the way light
// adds. Colors are mapped to a latent space of per-channel absorption over
// scattering ratios (single-constant Kubelka-Munk), combined linearly there,
// and mapped back to reflectance.
package pigment

import "math"

// MinReflectance bounds reflectance away from zero so black stays finite in
// latent space.
const MinReflectance = 0.004

// RGBA is a color with components in [0,1].
type RGBA [4]float32

// White is the paper tone dye fades toward.
var White = RGBA{1, 1, 1, 1}

// Latent is a color in mixing space: K/S for R, G and B, plus linear alpha.
type Latent [4]float32

// RGBToLatent maps a color into mixing space.
func RGBToLatent(c RGBA) Latent {
	return Latent{ks(c[0]), ks(c[1]), ks(c[2]), c[3]}
}

// LatentToRGB maps a mixing-space value back to a color.
func LatentToRGB(l Latent) RGBA {
	return RGBA{reflectance(l[0]), reflectance(l[1]), reflectance(l[2]), l[3]}
}

// Add returns l + o.
func (l Latent) Add(o Latent) Latent {
	return Latent{l[0] + o[0], l[1] + o[1], l[2] + o[2], l[3] + o[3]}
}

// Scale returns l * s.
func (l Latent) Scale(s float32) Latent {
	return Latent{l[0] * s, l[1] * s, l[2] * s, l[3] * s}
}

// LerpLatent interpolates two latent values.
func LerpLatent(a, b Latent, t float32) Latent {
	return Latent{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
		a[3] + (b[3]-a[3])*t,
	}
}

// Lerp mixes a and b as pigments; t = 0 yields a, t = 1 yields b.
func Lerp(a, b RGBA, t float32) RGBA {
	return LatentToRGB(LerpLatent(RGBToLatent(a), RGBToLatent(b), t))
}

// Bilerp mixes four corner colors: two horizontal mixes by tx, then a
// vertical mix by ty.
func Bilerp(c00, c10, c01, c11 RGBA, tx, ty float32) RGBA {
	bottom := Lerp(c00, c10, tx)
	top := Lerp(c01, c11, tx)
	return Lerp(bottom, top, ty)
}

func ks(r float32) float32 {
	r = min(max(r, MinReflectance), 1)
	d := 1 - r
	return d * d / (2 * r)
}

// reflectance inverts ks: R = 1 + K/S - sqrt((K/S)^2 + 2 K/S), written in a
// form that does not cancel for large K/S.
func reflectance(k float32) float32 {
	if k <= 0 {
		return 1
	}
	kk := float64(k)
	return float32(1 / (1 + kk + math.Sqrt(kk*kk+2*kk)))
}
