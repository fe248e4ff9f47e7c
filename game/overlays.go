package game

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/inkflow/ui"
)

// handleOverlayKeys checks for overlay toggle key presses.
func (g *Game) handleOverlayKeys() {
	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		if id, on, ok := g.uiOverlays.HandleKeyPress(key); ok {
			slog.Debug("overlay toggled", "overlay", id, "enabled", on)
		}
	}
	g.syncPanels()
}

// syncPanels mirrors overlay state onto panels that track their own visibility.
func (g *Game) syncPanels() {
	g.inspector.SetVisible(g.uiOverlays.IsEnabled(ui.OverlayInspector))
	g.colorPanel.SetVisible(g.uiOverlays.IsEnabled(ui.OverlayHistory))
}

// drawActiveOverlays renders all currently enabled overlays.
func (g *Game) drawActiveOverlays() {
	for _, id := range g.uiOverlays.EnabledOverlays() {
		switch id {
		case ui.OverlayControls:
			result := g.uiControls.Draw(&g.cfg.Simulation, g.uiOverlays)
			for _, edit := range result.Edits {
				g.UpdateConfig(edit.Key, edit.Value)
			}
			if result.RandomSplats {
				g.Enqueue(RandomSplats{Count: g.rng.Intn(20) + 5})
			}
		case ui.OverlayHUD:
			g.drawHUD()
		case ui.OverlayInspector:
			g.inspector.Draw(g.pointers.Entries())
		case ui.OverlayHistory:
			g.colorPanel.Draw()
		case ui.OverlayPerf:
			g.uiPerfPanel.SetPosition(int32(g.width)-270, 10)
			g.uiPerfPanel.Draw(g.perfCollector.Stats())
		}
	}
}
