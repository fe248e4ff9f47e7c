package ui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/inkflow/config"
)

// Edit is a parameter change requested from the control panel.
type Edit struct {
	Key   string
	Value any
}

// ControlResult collects the requests made in one frame of the panel.
type ControlResult struct {
	Edits        []Edit
	RandomSplats bool
}

// ControlPanel renders the left-side parameter panel and overlay legend.
type ControlPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32

	rowHeight int32
}

// NewControlPanel creates a new control panel.
func NewControlPanel(x, y, width int32) *ControlPanel {
	return &ControlPanel{
		renderer:  NewRenderer(),
		x:         x,
		y:         y,
		width:     width,
		rowHeight: 22,
	}
}

// Contains reports whether a screen point falls inside the panel, so pointer
// input over the widgets is not forwarded to the fluid.
func (c *ControlPanel) Contains(px, py int32, overlays *OverlayRegistry) bool {
	return px >= c.x && px < c.x+c.width && py >= c.y && py < c.y+c.height(overlays)
}

func (c *ControlPanel) height(overlays *OverlayRegistry) int32 {
	r := c.renderer
	rows := int32(0)
	for _, p := range config.Params {
		if !p.ReadOnly {
			rows++
		}
	}
	h := r.Theme.Padding*3 + r.Theme.LineHeight + 4 + rows*c.rowHeight + c.rowHeight + 8
	if overlays != nil {
		for _, cat := range overlays.Categories() {
			h += int32(len(overlays.ByCategory(cat))+1)*r.Theme.LineHeight + 4
		}
	}
	return h
}

// Draw renders the panel for cfg and returns the edits made this frame.
// Edits are not applied here; the caller queues them for the next tick.
func (c *ControlPanel) Draw(cfg *config.SimulationConfig, overlays *OverlayRegistry) ControlResult {
	var result ControlResult

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	r.DrawPanel(c.x, c.y, c.width, c.height(overlays))

	y := c.y + padding
	rl.DrawText("Fluid", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	labelWidth := int32(110)
	widgetX := float32(c.x + padding + labelWidth)
	widgetW := float32(c.width - padding*2 - labelWidth - 40)

	for i := range config.Params {
		p := &config.Params[i]
		if p.ReadOnly {
			continue
		}
		current, _ := cfg.Value(p.Key)
		bounds := rl.Rectangle{X: widgetX, Y: float32(y), Width: widgetW, Height: float32(c.rowHeight - 4)}

		var widget any
		switch p.Kind {
		case config.ParamFloat:
			cur := float32(toFloat(current))
			widget = gui.SliderBar(bounds, p.Label, formatFloat(p, cur), cur, float32(p.Min), float32(p.Max))
		case config.ParamLevel:
			idx := levelIndex(p.Levels, current)
			widget = gui.ComboBox(bounds, levelItems(p.Levels), max(idx, 0))
		case config.ParamBool:
			b, _ := current.(bool)
			bounds.Width = bounds.Height
			widget = gui.CheckBox(bounds, p.Label, b)
		case config.ParamChoice:
			idx := choiceIndex(p.Choices, current)
			widget = gui.ComboBox(bounds, strings.Join(p.Choices, ";"), max(idx, 0))
		}
		if p.Kind == config.ParamLevel || p.Kind == config.ParamChoice {
			rl.DrawText(p.Label, c.x+padding, y+3, r.Theme.FontSize, r.Theme.LabelColor)
		}

		if edit, ok := editFor(p, current, widget); ok {
			result.Edits = append(result.Edits, edit)
		}
		y += c.rowHeight
	}

	y += 4
	if gui.Button(rl.Rectangle{X: float32(c.x + padding), Y: float32(y), Width: float32(c.width - padding*2), Height: float32(c.rowHeight - 2)}, "Random splats") {
		result.RandomSplats = true
	}
	y += c.rowHeight + 4

	if overlays != nil {
		c.drawOverlays(c.x+padding, y, overlays)
	}

	return result
}

// drawOverlays lists overlay toggles by category.
func (c *ControlPanel) drawOverlays(x, y int32, overlays *OverlayRegistry) int32 {
	r := c.renderer
	for _, category := range overlays.Categories() {
		rl.DrawText(categoryLabel(category), x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += r.Theme.LineHeight

		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(x, y, desc, overlays.IsEnabled(desc.ID), c.width-r.Theme.Padding*2)
			y += r.Theme.LineHeight
		}
		y += 4
	}
	return y
}

// drawToggle draws a single overlay toggle line.
func (c *ControlPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "panels":
		return "Panels"
	case "debug":
		return "Debug"
	default:
		return cat
	}
}

// editFor compares a widget's returned value with the value it was drawn
// from and reports the edit, if any. Values are left unclamped; the config
// layer snaps them. Combo boxes show an unlisted current value as their
// first entry.
func editFor(p *config.Param, current, widget any) (Edit, bool) {
	switch p.Kind {
	case config.ParamFloat:
		w, ok := widget.(float32)
		if !ok || w == float32(toFloat(current)) {
			return Edit{}, false
		}
		return Edit{Key: p.Key, Value: float64(w)}, true

	case config.ParamLevel:
		w, ok := widget.(int32)
		if !ok || w == max(levelIndex(p.Levels, current), 0) || w < 0 || int(w) >= len(p.Levels) {
			return Edit{}, false
		}
		return Edit{Key: p.Key, Value: p.Levels[w]}, true

	case config.ParamBool:
		w, ok := widget.(bool)
		cur, _ := current.(bool)
		if !ok || w == cur {
			return Edit{}, false
		}
		return Edit{Key: p.Key, Value: w}, true

	case config.ParamChoice:
		w, ok := widget.(int32)
		if !ok || w == max(choiceIndex(p.Choices, current), 0) || w < 0 || int(w) >= len(p.Choices) {
			return Edit{}, false
		}
		return Edit{Key: p.Key, Value: p.Choices[w]}, true
	}
	return Edit{}, false
}

func levelIndex(levels []int, current any) int32 {
	v, ok := current.(int)
	if !ok {
		return -1
	}
	return int32(slices.Index(levels, v))
}

func levelItems(levels []int) string {
	items := make([]string, len(levels))
	for i, l := range levels {
		items[i] = strconv.Itoa(l)
	}
	return strings.Join(items, ";")
}

func choiceIndex(choices []string, current any) int32 {
	v, ok := current.(string)
	if !ok {
		return -1
	}
	return int32(slices.Index(choices, v))
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

func formatFloat(p *config.Param, v float32) string {
	if p.Step >= 1 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
