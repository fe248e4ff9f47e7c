package components

// Canvas records the pixel size pointer coordinates are normalized against.
// It is held by the pointer registry alongside the pointer entities.
type Canvas struct {
	Width, Height float32
}

// Aspect returns width over height, or 1 for a degenerate canvas.
func (c Canvas) Aspect() float32 {
	if c.Height <= 0 || c.Width <= 0 {
		return 1
	}
	return c.Width / c.Height
}
