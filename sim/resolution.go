package sim

import "math"

// Resolution returns the grid size for base resolution res on a canvas of
// w x h pixels. The shorter axis gets res texels and the longer axis gets
// res scaled by the aspect ratio.
func Resolution(res, w, h int) (int, int) {
	aspect := 1.0
	if w > 0 && h > 0 {
		aspect = float64(w) / float64(h)
	}
	if aspect < 1 {
		aspect = 1 / aspect
	}

	lo := int(math.Round(float64(res)))
	hi := int(math.Round(float64(res) * aspect))
	if w > h {
		return hi, lo
	}
	return lo, hi
}
