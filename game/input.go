package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/inkflow/sim"
	"github.com/pthm-cable/inkflow/ui"
)

// Key bindings for the simulation. Panel toggles live in the overlay
// registry and avoid these keys.
const (
	keyPause   = rl.KeyP
	keySplats  = rl.KeySpace
	keyClear   = rl.KeyC
	keyCapture = rl.KeyS
)

func (g *Game) frameTime() float32 {
	return rl.GetFrameTime()
}

// handleInput processes keyboard, mouse and touch input. Everything that
// touches the fields is queued for the next tick.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(keyPause) {
		g.UpdateConfig("PAUSED", !g.cfg.Simulation.Paused)
	}
	if rl.IsKeyPressed(keySplats) {
		g.Enqueue(RandomSplats{Count: g.rng.Intn(20) + 5})
	}
	if rl.IsKeyPressed(keyClear) {
		g.Clear()
	}
	if rl.IsKeyPressed(keyCapture) {
		g.Enqueue(Capture{Path: g.outputManager.Path(sim.CaptureFile)})
	}

	g.handleOverlayKeys()

	mx, my := rl.GetMouseX(), rl.GetMouseY()
	if g.panelsHit(mx, my) {
		// Keep strokes from continuing under the panels
		g.pointers.Up(mousePointerID)
	} else {
		g.handleMouse(float32(mx), float32(my))
	}
	g.handleTouch()
}

// panelsHit reports whether (x, y) is over an interactive panel.
func (g *Game) panelsHit(x, y int32) bool {
	if g.uiOverlays.IsEnabled(ui.OverlayControls) && g.uiControls.Contains(x, y, g.uiOverlays) {
		return true
	}
	if g.uiOverlays.IsEnabled(ui.OverlayInspector) {
		if g.inspector.HandleInput(float32(x), float32(y)) {
			g.uiOverlays.SetEnabled(ui.OverlayInspector, false)
			return true
		}
		if g.inspector.Contains(float32(x), float32(y), g.pointers.Entries()) {
			return true
		}
	}
	if g.uiOverlays.IsEnabled(ui.OverlayHistory) && g.colorPanel.HandleInput() {
		return true
	}
	return false
}

func (g *Game) handleMouse(x, y float32) {
	switch {
	case rl.IsMouseButtonPressed(rl.MouseButtonLeft):
		g.pointers.Down(mousePointerID, x, y, g.sim.Color())
	case rl.IsMouseButtonDown(rl.MouseButtonLeft):
		g.pointers.Move(mousePointerID, x, y)
	case rl.IsMouseButtonReleased(rl.MouseButtonLeft):
		g.pointers.Up(mousePointerID)
	}
}

// handleTouch maps touch points onto pointer ids 0..n-1. Points that vanish
// are released.
func (g *Game) handleTouch() {
	n := rl.GetTouchPointCount()
	for i := int32(0); i < n; i++ {
		pos := rl.GetTouchPosition(i)
		if p, _, ok := g.pointers.Lookup(i); ok && p.Down {
			g.pointers.Move(i, pos.X, pos.Y)
			continue
		}
		g.pointers.Down(i, pos.X, pos.Y, g.sim.Color())
	}
	for i := n; i < int32(g.pointers.Len()); i++ {
		g.pointers.Up(i)
	}
}

// handleResize forwards window size changes to the next tick and resizes
// the panels immediately.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := rl.GetScreenWidth()
	h := rl.GetScreenHeight()
	if w == g.width && h == g.height {
		return
	}
	g.RequestResize(w, h)

	if g.dyeRenderer != nil {
		g.dyeRenderer.Resize(float32(w), float32(h))
	}
	if g.inspector != nil {
		g.inspector.Resize(int32(w), int32(h))
	}
	if g.colorPanel != nil {
		g.colorPanel.Resize(int32(w), int32(h))
	}
}
