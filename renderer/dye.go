// Package renderer draws the simulation surface with raylib.
package renderer

import (
	"image/color"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/inkflow/field"
)

// DyeRenderer uploads the display surface to a texture and stretches it over
// the window. The texture is recreated whenever the surface size changes.
type DyeRenderer struct {
	dyeTex     rl.Texture2D
	texW, texH int
	pixels     []color.RGBA

	screenW, screenH float32
	initialized      bool
}

// NewDyeRenderer creates a new dye renderer.
func NewDyeRenderer(screenW, screenH int32) *DyeRenderer {
	return &DyeRenderer{
		screenW: float32(screenW),
		screenH: float32(screenH),
	}
}

// Init creates the texture (must be called after raylib window is created).
func (r *DyeRenderer) Init(w, h int) {
	if r.initialized && w == r.texW && h == r.texH {
		return
	}
	if r.initialized {
		rl.UnloadTexture(r.dyeTex)
	}

	r.texW = w
	r.texH = h
	r.pixels = make([]color.RGBA, w*h)

	img := rl.GenImageColor(w, h, rl.White)
	r.dyeTex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(r.dyeTex, rl.FilterBilinear)
	rl.UnloadImage(img)
	if r.dyeTex.ID == 0 {
		slog.Error("dye texture allocation failed", "width", w, "height", h)
	}

	r.initialized = true
}

// Resize updates screen dimensions.
func (r *DyeRenderer) Resize(w, h float32) {
	r.screenW = w
	r.screenH = h
}

// Update uploads the surface contents to the GPU texture.
func (r *DyeRenderer) Update(surface *field.Buffer) {
	if surface == nil || surface.Released() {
		return
	}
	r.Init(surface.Width, surface.Height)
	FillPixels(r.pixels, surface)
	rl.UpdateTexture(r.dyeTex, r.pixels)
}

// Draw renders the dye over the whole window.
func (r *DyeRenderer) Draw() {
	r.DrawRect(rl.Rectangle{X: 0, Y: 0, Width: r.screenW, Height: r.screenH})
}

// DrawRect renders the dye into dst. Surface row 0 is the bottom edge, so
// the source rectangle is flipped vertically.
func (r *DyeRenderer) DrawRect(dst rl.Rectangle) {
	if !r.initialized {
		return
	}
	srcRect := rl.Rectangle{X: 0, Y: 0, Width: float32(r.texW), Height: -float32(r.texH)}
	rl.DrawTexturePro(r.dyeTex, srcRect, dst, rl.Vector2{}, 0, rl.White)
}

// Unload frees GPU resources.
func (r *DyeRenderer) Unload() {
	if !r.initialized {
		return
	}
	rl.UnloadTexture(r.dyeTex)
	r.initialized = false
}

// FillPixels converts an RGBA surface into 8-bit pixels in storage order.
// Channels are clamped to [0,1]. dst must hold Width*Height entries.
func FillPixels(dst []color.RGBA, surface *field.Buffer) {
	n := min(len(dst), surface.Width*surface.Height)
	for i := 0; i < n; i++ {
		t := surface.Data[i*4 : i*4+4]
		dst[i] = color.RGBA{R: to8(t[0]), G: to8(t[1]), B: to8(t[2]), A: to8(t[3])}
	}
}

func to8(v float32) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v * 255)
}
