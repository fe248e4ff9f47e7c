package sim

import (
	"math"

	"github.com/pthm-cable/inkflow/field"
	"github.com/pthm-cable/inkflow/kernel"
	"github.com/pthm-cable/inkflow/pigment"
)

// Velocity component clamp applied after vorticity confinement.
const maxVelocity = 1000

// blurOffset is the tap distance of the three-tap blur, in texels.
const blurOffset = 1.33333333

func sample1(b *field.Buffer, u, v float32) float32 {
	var s [4]float32
	b.Sample(u, v, s[:b.Channels()])
	return s[0]
}

func sample2(b *field.Buffer, u, v float32) (float32, float32) {
	var s [4]float32
	b.Sample(u, v, s[:b.Channels()])
	return s[0], s[1]
}

func bilinear2(b *field.Buffer, u, v float32) (float32, float32) {
	var s [4]float32
	b.SampleLinear(u, v, s[:b.Channels()])
	return s[0], s[1]
}

func sampleRGBA(b *field.Buffer, u, v float32) pigment.RGBA {
	var c pigment.RGBA
	b.Sample(u, v, c[:b.Channels()])
	return c
}

func texelRGBA(b *field.Buffer, x, y int) pigment.RGBA {
	var c pigment.RGBA
	copy(c[:], b.Texel(x, y))
	return c
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

func clampVelocity(v float32) float32 {
	return min(max(v, -maxVelocity), maxVelocity)
}

// curlPass computes the scalar vorticity of vel.
func curlPass(vel *field.Buffer) kernel.Pass {
	tx, ty := vel.TexelSize()
	return kernel.Pass{
		Name:   "curl",
		Inputs: []*field.Buffer{vel},
		Fn: func(c kernel.Cell, out []float32) {
			_, l := sample2(vel, c.U-tx, c.V)
			_, r := sample2(vel, c.U+tx, c.V)
			t, _ := sample2(vel, c.U, c.V+ty)
			b, _ := sample2(vel, c.U, c.V-ty)
			out[0] = 0.5 * (r - l - t + b)
		},
	}
}

// vorticityPass pushes velocity along the normalized gradient of |curl|.
func vorticityPass(vel, curl *field.Buffer, strength, dt float32) kernel.Pass {
	tx, ty := vel.TexelSize()
	return kernel.Pass{
		Name:   "vorticity",
		Inputs: []*field.Buffer{vel, curl},
		Fn: func(c kernel.Cell, out []float32) {
			l := sample1(curl, c.U-tx, c.V)
			r := sample1(curl, c.U+tx, c.V)
			t := sample1(curl, c.U, c.V+ty)
			b := sample1(curl, c.U, c.V-ty)
			center := sample1(curl, c.U, c.V)

			fx := 0.5 * (abs32(t) - abs32(b))
			fy := 0.5 * (abs32(r) - abs32(l))
			n := float32(math.Sqrt(float64(fx*fx+fy*fy))) + 0.0001
			fx = fx / n * strength * center
			fy = -fy / n * strength * center

			vx, vy := sample2(vel, c.U, c.V)
			out[0] = clampVelocity(vx + fx*dt)
			out[1] = clampVelocity(vy + fy*dt)
		},
	}
}

// vortexUnitPass writes the vortex velocity for unit strength centered on
// (0.5, 0.5): a tangential swirl growing with distance plus a slight inward pull.
func vortexUnitPass() kernel.Pass {
	return kernel.Pass{
		Name: "vortex_unit",
		Fn: func(c kernel.Cell, out []float32) {
			cx := float64(c.U - 0.5)
			cy := float64(c.V - 0.5)
			d := math.Hypot(cx, cy)

			var sx, sy, px, py float64
			if d > 0 {
				sx, sy = -cy/d, cx/d
				px, py = cx/d, cy/d
			}
			k := smoothstep(0, 0.5, d)
			out[0] = float32(sx*k - px*0.1)
			out[1] = float32(sy*k - py*0.1)
		},
	}
}

func smoothstep(e0, e1, x float64) float64 {
	t := min(max((x-e0)/(e1-e0), 0), 1)
	return t * t * (3 - 2*t)
}

// divergencePass computes velocity divergence, reflecting the normal
// component at the domain edges.
func divergencePass(vel *field.Buffer) kernel.Pass {
	tx, ty := vel.TexelSize()
	return kernel.Pass{
		Name:   "divergence",
		Inputs: []*field.Buffer{vel},
		Fn: func(c kernel.Cell, out []float32) {
			l, _ := sample2(vel, c.U-tx, c.V)
			r, _ := sample2(vel, c.U+tx, c.V)
			_, t := sample2(vel, c.U, c.V+ty)
			_, b := sample2(vel, c.U, c.V-ty)

			cx, cy := sample2(vel, c.U, c.V)
			if c.U-tx < 0 {
				l = -cx
			}
			if c.U+tx > 1 {
				r = -cx
			}
			if c.V+ty > 1 {
				t = -cy
			}
			if c.V-ty < 0 {
				b = -cy
			}
			out[0] = 0.5 * (r - l + t - b)
		},
	}
}

// jacobiPass performs one Jacobi relaxation step of the pressure equation.
func jacobiPass(pressure, divergence *field.Buffer) kernel.Pass {
	tx, ty := pressure.TexelSize()
	return kernel.Pass{
		Name:   "pressure",
		Inputs: []*field.Buffer{pressure, divergence},
		Fn: func(c kernel.Cell, out []float32) {
			l := sample1(pressure, c.U-tx, c.V)
			r := sample1(pressure, c.U+tx, c.V)
			t := sample1(pressure, c.U, c.V+ty)
			b := sample1(pressure, c.U, c.V-ty)
			div := sample1(divergence, c.U, c.V)
			out[0] = (l + r + b + t - div) * 0.25
		},
	}
}

// gradientPass subtracts the pressure gradient from velocity.
func gradientPass(pressure, vel *field.Buffer) kernel.Pass {
	tx, ty := vel.TexelSize()
	return kernel.Pass{
		Name:   "gradient",
		Inputs: []*field.Buffer{pressure, vel},
		Fn: func(c kernel.Cell, out []float32) {
			l := sample1(pressure, c.U-tx, c.V)
			r := sample1(pressure, c.U+tx, c.V)
			t := sample1(pressure, c.U, c.V+ty)
			b := sample1(pressure, c.U, c.V-ty)
			vx, vy := sample2(vel, c.U, c.V)
			out[0] = vx - (r - l)
			out[1] = vy - (t - b)
		},
	}
}

// advectVelocityPass moves velocity along itself. Without hardware-style
// linear filtering both lookups use explicit 4-tap bilinear interpolation.
func advectVelocityPass(vel *field.Buffer, dt, dissipation float32, linear bool) kernel.Pass {
	tx, ty := vel.TexelSize()
	lookup := sample2
	if !linear {
		lookup = bilinear2
	}
	decay := 1 + dissipation*dt
	return kernel.Pass{
		Name:   "advect_velocity",
		Inputs: []*field.Buffer{vel},
		Fn: func(c kernel.Cell, out []float32) {
			vx, vy := lookup(vel, c.U, c.V)
			x, y := lookup(vel, c.U-dt*vx*tx, c.V-dt*vy*ty)
			out[0] = x / decay
			out[1] = y / decay
		},
	}
}

// advectDyePass moves dye along velocity, interpolating between dye texels
// with pigment mixing, then fades the result toward white.
func advectDyePass(vel, dye *field.Buffer, dt, dissipation float32) kernel.Pass {
	tx, ty := vel.TexelSize()
	fade := dissipation * dt
	w, h := float32(dye.Width), float32(dye.Height)
	return kernel.Pass{
		Name:   "advect_dye",
		Inputs: []*field.Buffer{vel, dye},
		Fn: func(c kernel.Cell, out []float32) {
			vx, vy := sample2(vel, c.U, c.V)
			u := c.U - dt*vx*tx
			v := c.V - dt*vy*ty

			sx := u*w - 0.5
			sy := v*h - 0.5
			fx := float32(math.Floor(float64(sx)))
			fy := float32(math.Floor(float64(sy)))
			ix, iy := int(fx), int(fy)

			mixed := pigment.Bilerp(
				texelRGBA(dye, ix, iy),
				texelRGBA(dye, ix+1, iy),
				texelRGBA(dye, ix, iy+1),
				texelRGBA(dye, ix+1, iy+1),
				sx-fx, sy-fy,
			)
			res := pigment.Lerp(mixed, pigment.White, fade)
			copy(out, res[:])
		},
	}
}

// blurPass averages three taps along (dx, dy) in pigment space.
func blurPass(src *field.Buffer, dx, dy float32) kernel.Pass {
	const third = 0.333333
	return kernel.Pass{
		Name:   "blur",
		Inputs: []*field.Buffer{src},
		Fn: func(c kernel.Cell, out []float32) {
			sum := pigment.RGBToLatent(sampleRGBA(src, c.U, c.V)).Scale(third)
			sum = sum.Add(pigment.RGBToLatent(sampleRGBA(src, c.U-dx, c.V-dy)).Scale(third))
			sum = sum.Add(pigment.RGBToLatent(sampleRGBA(src, c.U+dx, c.V+dy)).Scale(third))
			res := pigment.LatentToRGB(sum)
			res[3] = 1
			copy(out, res[:])
		},
	}
}

// splatVelocityPass adds a Gaussian impulse of (fx, fy) centered on (x, y).
func splatVelocityPass(vel *field.Buffer, x, y, fx, fy, aspect, radius float32) kernel.Pass {
	return kernel.Pass{
		Name:   "splat_velocity",
		Inputs: []*field.Buffer{vel},
		Fn: func(c kernel.Cell, out []float32) {
			px := (c.U - x) * aspect
			py := c.V - y
			g := float32(math.Exp(float64(-(px*px + py*py) / radius)))
			vx, vy := sample2(vel, c.U, c.V)
			out[0] = vx + g*fx
			out[1] = vy + g*fy
		},
	}
}

// splatDyePass paints a solid disc of color within ten radii of (x, y).
func splatDyePass(dye *field.Buffer, x, y float32, color pigment.RGBA, aspect, radius float32) kernel.Pass {
	limit := 10 * radius
	return kernel.Pass{
		Name:   "splat_dye",
		Inputs: []*field.Buffer{dye},
		Fn: func(c kernel.Cell, out []float32) {
			px := (c.U - x) * aspect
			py := c.V - y
			if float32(math.Sqrt(float64(px*px+py*py))) < limit {
				out[0], out[1], out[2] = color[0], color[1], color[2]
			} else {
				base := sampleRGBA(dye, c.U, c.V)
				out[0], out[1], out[2] = base[0], base[1], base[2]
			}
			out[3] = 1
		},
	}
}

// displayPass copies dye color into an output surface with opaque alpha.
func displayPass(dye *field.Buffer) kernel.Pass {
	return kernel.Pass{
		Name:   "display",
		Inputs: []*field.Buffer{dye},
		Fn: func(c kernel.Cell, out []float32) {
			col := sampleRGBA(dye, c.U, c.V)
			out[0], out[1], out[2], out[3] = col[0], col[1], col[2], 1
		},
	}
}
