package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/inkflow/inspector"
	"github.com/pthm-cable/inkflow/renderer"
	"github.com/pthm-cable/inkflow/ui"
)

// initRendering creates the window-side renderers and panels. Must be called
// after the raylib window is created.
func (g *Game) initRendering() {
	w, h := int32(g.width), int32(g.height)

	g.dyeRenderer = renderer.NewDyeRenderer(w, h)
	g.uiOverlays = ui.NewOverlayRegistry()
	g.uiControls = ui.NewControlPanel(10, 10, 300)
	g.uiHUD = ui.NewHUD()
	g.uiPerfPanel = ui.NewPerfPanel(w-270, 10)
	g.inspector = inspector.NewInspector(w, h)
	g.colorPanel = inspector.NewColorPanel(w, h)
	g.syncPanels()
}

// Draw renders the dye and the enabled panels.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.White)

	g.dyeRenderer.Draw()
	g.drawActiveOverlays()

	g.uiHUD.DrawControls(int32(g.height),
		"Drag: Stir | SPACE: Splats | C: Clear | P: Pause | S: Capture | Tab: Controls | H: HUD | G: History | I: Pointers | F: Perf")

	rl.EndDrawing()
}

// drawHUD draws the status panel from the latest state.
func (g *Game) drawHUD() {
	simW, simH := g.sim.Velocity().Width(), g.sim.Velocity().Height()
	dyeW, dyeH := g.sim.Dye().Width(), g.sim.Dye().Height()
	c := g.sim.Color()

	g.uiHUD.Draw(ui.HUDData{
		Title:      "Inkflow",
		Tick:       g.tick,
		FPS:        rl.GetFPS(),
		Paused:     g.cfg.Simulation.Paused,
		Pointers:   g.pointers.Len(),
		SimWidth:   simW,
		SimHeight:  simH,
		DyeWidth:   dyeW,
		DyeHeight:  dyeH,
		SplatColor: inspector.ToColor(c),
		HasStats:   g.hasColors,
		Average:    [3]int{g.lastColors.AvgR, g.lastColors.AvgG, g.lastColors.AvgB},
		StdDev:     [3]int{g.lastColors.StdR, g.lastColors.StdG, g.lastColors.StdB},
	}, int32(g.width))
}
