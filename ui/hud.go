package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/inkflow/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title    string
	Tick     int32
	FPS      int32
	Paused   bool
	Pointers int

	SimWidth, SimHeight int
	DyeWidth, DyeHeight int

	// Active splat color and the latest displayed-dye statistics (0-255)
	SplatColor rl.Color
	HasStats   bool
	Average    [3]int
	StdDev     [3]int
}

// HUD renders the main heads-up display centered along the top edge.
type HUD struct {
	renderer *Renderer
	sections []SectionDescriptor
	width    int32
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
		sections: hudSections(),
		width:    230,
	}
}

func hud(data any) HUDData { return data.(HUDData) }

func hudSections() []SectionDescriptor {
	return []SectionDescriptor{
		{
			ID: "run",
			Fields: []FieldDescriptor{
				{ID: "tick", Label: "Tick", Widget: WidgetText,
					TextGetter: func(d any) string { return fmt.Sprintf("%d", hud(d).Tick) }},
				{ID: "fps", Label: "FPS", Widget: WidgetText,
					TextGetter: func(d any) string { return fmt.Sprintf("%d", hud(d).FPS) }},
				{ID: "grids", Label: "Grids", Widget: WidgetText,
					TextGetter: func(d any) string {
						h := hud(d)
						return fmt.Sprintf("%dx%d / %dx%d", h.SimWidth, h.SimHeight, h.DyeWidth, h.DyeHeight)
					}},
				{ID: "pointers", Label: "Pointers", Widget: WidgetText,
					TextGetter: func(d any) string { return fmt.Sprintf("%d", hud(d).Pointers) }},
				{ID: "splat", Label: "Splat", Widget: WidgetColorSwatch,
					ColorGetter: func(d any) rl.Color { return hud(d).SplatColor }},
			},
		},
		{
			ID:      "dye",
			Title:   "Dye",
			Visible: func(d any) bool { return hud(d).HasStats },
			Fields: []FieldDescriptor{
				{ID: "average", Label: "Average", Widget: WidgetColorSwatch,
					ColorGetter: func(d any) rl.Color {
						a := hud(d).Average
						return rl.Color{R: uint8(a[0]), G: uint8(a[1]), B: uint8(a[2]), A: 255}
					},
					TextGetter: func(d any) string {
						a := hud(d).Average
						return fmt.Sprintf("%d %d %d", a[0], a[1], a[2])
					}},
				{ID: "std_r", Label: "Std R", Widget: WidgetBar, Range: ByteRange(), Format: "%.0f",
					Getter: func(d any) float32 { return float32(hud(d).StdDev[0]) }},
				{ID: "std_g", Label: "Std G", Widget: WidgetBar, Range: ByteRange(), Format: "%.0f",
					Getter: func(d any) float32 { return float32(hud(d).StdDev[1]) }},
				{ID: "std_b", Label: "Std B", Widget: WidgetBar, Range: ByteRange(), Format: "%.0f",
					Getter: func(d any) float32 { return float32(hud(d).StdDev[2]) }},
			},
		},
	}
}

// Draw renders the HUD centered along the top edge.
func (h *HUD) Draw(data HUDData, screenWidth int32) {
	r := h.renderer
	padding := r.Theme.Padding

	height := padding*2 + 24
	for _, sd := range h.sections {
		height += sd.Height(data, r.Theme)
	}

	x := (screenWidth - h.width) / 2
	y := int32(10)
	r.DrawPanel(x, y, h.width, height)

	y += padding
	rl.DrawText(data.Title, x+padding, y, 16, rl.White)
	if data.Paused {
		rl.DrawText("PAUSED", x+h.width-padding-rl.MeasureText("PAUSED", 14), y+1, 14, rl.Yellow)
	}
	y += 24

	for _, sd := range h.sections {
		y = r.DrawSection(x+padding, y, sd, data, h.width-padding*2)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the pipeline phase timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel with phases in pipeline order.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	width := int32(260)
	height := int32(56 + 14*len(telemetry.Phases))
	r.DrawPanel(p.x, p.y, width, height)

	x := p.x + r.Theme.Padding
	y := p.y + r.Theme.Padding

	rl.DrawText("Pipeline Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Tick: %s (%.0f/s)", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range telemetry.Phases {
		avg := stats.PhaseAvg[name]
		pct := stats.PhasePct[name]

		color := rl.LightGray
		if pct > 20 {
			color = rl.Red
		} else if pct > 10 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-16s %6s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
