// Package field provides the grid storage used by the fluid solver: single
// float buffers with texture-style sampling and double-buffered fields that
// are swapped between kernel passes.
package field

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
)

// Filter selects how a buffer is sampled between texel centers.
type Filter int

const (
	Nearest Filter = iota
	Linear
)

func (f Filter) String() string {
	if f == Linear {
		return "linear"
	}
	return "nearest"
}

// live counts allocated, unreleased buffers.
var live atomic.Int64

// Live returns the number of buffers allocated and not yet released.
func Live() int64 {
	return live.Load()
}

// Buffer is a 2D grid of float32 texels with 1, 2 or 4 channels.
// Row 0 is the bottom row (v = 0), matching texture coordinates.
type Buffer struct {
	Width  int
	Height int
	Format Format
	Filter Filter
	Data   []float32

	released bool
}

// NewBuffer allocates a zeroed buffer. Non-positive dimensions are logged and
// clamped to 1 so callers can keep running.
func NewBuffer(w, h int, format Format, filter Filter) *Buffer {
	if w < 1 || h < 1 {
		slog.Error("field allocation failed",
			"error", fmt.Sprintf("invalid size %dx%d", w, h),
			"format", format.String(),
		)
		w = max(w, 1)
		h = max(h, 1)
	}
	live.Add(1)
	return &Buffer{
		Width:  w,
		Height: h,
		Format: format,
		Filter: filter,
		Data:   make([]float32, w*h*format.Channels()),
	}
}

// Channels returns the number of float components per texel.
func (b *Buffer) Channels() int {
	return b.Format.Channels()
}

// TexelSize returns (1/width, 1/height).
func (b *Buffer) TexelSize() (float32, float32) {
	return 1 / float32(b.Width), 1 / float32(b.Height)
}

// Texel returns the components of texel (x, y), clamped to the edge.
// The returned slice aliases the buffer.
func (b *Buffer) Texel(x, y int) []float32 {
	x = clampInt(x, 0, b.Width-1)
	y = clampInt(y, 0, b.Height-1)
	c := b.Channels()
	i := (y*b.Width + x) * c
	return b.Data[i : i+c : i+c]
}

// Fill sets every texel to the given components. Missing components are zero.
func (b *Buffer) Fill(values ...float32) {
	c := b.Channels()
	var texel [4]float32
	copy(texel[:c], values)
	for i := 0; i < len(b.Data); i += c {
		copy(b.Data[i:i+c], texel[:c])
	}
}

// Clear zeroes the buffer.
func (b *Buffer) Clear() {
	clear(b.Data)
}

// Sample reads the buffer at texture coordinate (u, v) using its filter mode,
// clamping to the edge like CLAMP_TO_EDGE. out must hold Channels() values.
func (b *Buffer) Sample(u, v float32, out []float32) {
	if b.Filter == Linear {
		b.SampleLinear(u, v, out)
		return
	}
	b.SampleNearest(u, v, out)
}

// SampleNearest returns the texel containing (u, v).
func (b *Buffer) SampleNearest(u, v float32, out []float32) {
	x := int(floor(u * float32(b.Width)))
	y := int(floor(v * float32(b.Height)))
	copy(out, b.Texel(x, y))
}

// SampleLinear bilinearly interpolates the four texels around (u, v).
func (b *Buffer) SampleLinear(u, v float32, out []float32) {
	fx := u*float32(b.Width) - 0.5
	fy := v*float32(b.Height) - 0.5
	x0 := floor(fx)
	y0 := floor(fy)
	tx := fx - x0
	ty := fy - y0

	ix, iy := int(x0), int(y0)
	t00 := b.Texel(ix, iy)
	t10 := b.Texel(ix+1, iy)
	t01 := b.Texel(ix, iy+1)
	t11 := b.Texel(ix+1, iy+1)

	for c := range t00 {
		a := t00[c] + (t10[c]-t00[c])*tx
		d := t01[c] + (t11[c]-t01[c])*tx
		out[c] = a + (d-a)*ty
	}
}

// Release frees the buffer storage. Releasing twice is a no-op.
func (b *Buffer) Release() {
	if b == nil || b.released {
		return
	}
	b.released = true
	b.Data = nil
	live.Add(-1)
}

// Released reports whether Release was called.
func (b *Buffer) Released() bool {
	return b.released
}

// Resample returns a new buffer of the given size whose texels sample src at
// their centers using src's filter mode.
func Resample(src *Buffer, w, h int) *Buffer {
	dst := NewBuffer(w, h, src.Format, src.Filter)
	c := dst.Channels()
	invW := 1 / float32(dst.Width)
	invH := 1 / float32(dst.Height)
	for y := 0; y < dst.Height; y++ {
		v := (float32(y) + 0.5) * invH
		for x := 0; x < dst.Width; x++ {
			u := (float32(x) + 0.5) * invW
			i := (y*dst.Width + x) * c
			src.Sample(u, v, dst.Data[i:i+c])
		}
	}
	return dst
}

func floor(v float32) float32 {
	return float32(math.Floor(float64(v)))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
