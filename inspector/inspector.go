// Package inspector draws debug panels: a reflection-driven component
// inspector and a dye color history graph.
package inspector

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Panel dimensions
const (
	PanelWidth   = 320
	PanelPadding = 10
	HeaderHeight = 30
	EntryHeader  = 22
)

// Panel colors
var (
	ColorPanelBg     = rl.Color{R: 30, G: 30, B: 35, A: 240}
	ColorPanelHeader = rl.Color{R: 45, G: 45, B: 55, A: 255}
	ColorPanelBorder = rl.Color{R: 70, G: 70, B: 80, A: 255}
	ColorHeaderText  = rl.Color{R: 255, G: 255, B: 255, A: 255}
	ColorCloseBtn    = rl.Color{R: 180, G: 80, B: 80, A: 255}
	ColorSection     = rl.Color{R: 50, G: 50, B: 60, A: 255}
	ColorSectionText = rl.Color{R: 200, G: 200, B: 220, A: 255}
)

// Entry is one inspected object: a title and the components to list.
type Entry struct {
	Title      string
	Components []any
}

// Inspector renders component fields of the entries it is given.
type Inspector struct {
	visible      bool
	panelX       int32
	panelY       int32
	screenWidth  int32
	screenHeight int32
}

// NewInspector creates a new inspector instance.
func NewInspector(screenWidth, screenHeight int32) *Inspector {
	return &Inspector{
		panelX:       screenWidth - PanelWidth - 10,
		panelY:       10,
		screenWidth:  screenWidth,
		screenHeight: screenHeight,
	}
}

// Resize updates the panel position when the window is resized.
func (ins *Inspector) Resize(screenWidth, screenHeight int32) {
	ins.screenWidth = screenWidth
	ins.screenHeight = screenHeight
	ins.panelX = screenWidth - PanelWidth - 10
}

// SetVisible shows or hides the panel.
func (ins *Inspector) SetVisible(v bool) {
	ins.visible = v
}

// Visible reports whether the panel is shown.
func (ins *Inspector) Visible() bool {
	return ins.visible
}

// Contains reports whether a screen point lies over the panel.
func (ins *Inspector) Contains(x, y float32, entries []Entry) bool {
	if !ins.visible {
		return false
	}
	h := PanelHeight(entries)
	return int32(x) >= ins.panelX && int32(x) <= ins.panelX+PanelWidth &&
		int32(y) >= ins.panelY && int32(y) <= ins.panelY+h
}

// HandleInput closes the panel when its close button is clicked.
// Returns true if the click was consumed.
func (ins *Inspector) HandleInput(mouseX, mouseY float32) bool {
	if !ins.visible || !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return false
	}
	closeX := ins.panelX + PanelWidth - 25
	closeY := ins.panelY + 5
	if int32(mouseX) >= closeX && int32(mouseX) <= closeX+20 &&
		int32(mouseY) >= closeY && int32(mouseY) <= closeY+20 {
		ins.visible = false
		return true
	}
	return false
}

// Draw renders the inspector panel.
func (ins *Inspector) Draw(entries []Entry) {
	if !ins.visible {
		return
	}

	panelHeight := PanelHeight(entries)

	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, panelHeight, ColorPanelBg)
	rl.DrawRectangleLinesEx(
		rl.Rectangle{X: float32(ins.panelX), Y: float32(ins.panelY), Width: PanelWidth, Height: float32(panelHeight)},
		1,
		ColorPanelBorder,
	)

	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, HeaderHeight, ColorPanelHeader)
	rl.DrawText("POINTERS", ins.panelX+PanelPadding, ins.panelY+7, 16, ColorHeaderText)

	closeX := ins.panelX + PanelWidth - 25
	closeY := ins.panelY + 5
	rl.DrawRectangle(closeX, closeY, 20, 20, ColorCloseBtn)
	rl.DrawText("X", closeX+6, closeY+3, 14, rl.White)

	x := ins.panelX + PanelPadding
	y := ins.panelY + HeaderHeight + PanelPadding

	if len(entries) == 0 {
		rl.DrawText("(no pointer contact yet)", x, y, 12, ColorLabelDim)
		return
	}

	for _, e := range entries {
		ins.drawSectionHeader(x, y, e.Title)
		y += EntryHeader
		for _, c := range e.Components {
			for _, f := range ExtractFields(c) {
				y += DrawField(x, y, f)
			}
		}
		y += 4
	}
}

// drawSectionHeader renders a section title.
func (ins *Inspector) drawSectionHeader(x, y int32, title string) {
	rl.DrawRectangle(x-2, y-2, PanelWidth-2*PanelPadding+4, 18, ColorSection)
	rl.DrawText(title, x+2, y, 14, ColorSectionText)
}

// PanelHeight computes the panel height needed for entries.
func PanelHeight(entries []Entry) int32 {
	height := int32(HeaderHeight + 2*PanelPadding)
	if len(entries) == 0 {
		return height + 16
	}
	for _, e := range entries {
		height += EntryHeader + 4
		for _, c := range e.Components {
			for _, f := range ExtractFields(c) {
				height += fieldHeight(f)
			}
		}
	}
	return height
}

func fieldHeight(f Field) int32 {
	switch f.Widget {
	case WidgetBar, WidgetBool, WidgetSwatch:
		return 18
	default:
		return 20
	}
}
