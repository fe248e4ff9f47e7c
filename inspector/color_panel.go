package inspector

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	// History buffer size (number of data points to keep)
	colorHistorySize = 120

	// Line series indices
	seriesAvgR = 0
	seriesAvgG = 1
	seriesAvgB = 2
	seriesStdR = 3
	seriesStdG = 4
	seriesStdB = 5
	numSeries  = 6
)

// ColorHistory is a ring buffer of dye statistics samples in 0..255 units.
type ColorHistory struct {
	values [numSeries][colorHistorySize]float64
	index  int
	count  int
}

// Record appends one sample of average and standard deviation per channel.
func (h *ColorHistory) Record(avg, std [3]int) {
	for c := 0; c < 3; c++ {
		h.values[seriesAvgR+c][h.index] = float64(avg[c])
		h.values[seriesStdR+c][h.index] = float64(std[c])
	}
	h.index = (h.index + 1) % colorHistorySize
	if h.count < colorHistorySize {
		h.count++
	}
}

// Len returns the number of stored samples.
func (h *ColorHistory) Len() int {
	return h.count
}

// At returns the i-th oldest stored value of a series.
func (h *ColorHistory) At(series, i int) float64 {
	idx := (h.index - h.count + i + colorHistorySize) % colorHistorySize
	return h.values[series][idx]
}

// Latest returns the most recent value of a series, or 0 when empty.
func (h *ColorHistory) Latest(series int) float64 {
	if h.count == 0 {
		return 0
	}
	return h.At(series, h.count-1)
}

// Range finds min/max across the given series, padded by 10%.
func (h *ColorHistory) Range(series []int) (lo, hi float64) {
	lo = math.MaxFloat64
	hi = -math.MaxFloat64
	for _, s := range series {
		for i := 0; i < h.count; i++ {
			v := h.At(s, i)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if h.count == 0 || lo >= hi {
		if h.count == 0 {
			return 0, 255
		}
		return lo - 1, hi + 1
	}
	padding := (hi - lo) * 0.1
	return lo - padding, hi + padding
}

// ColorPanel displays the dye color history as line graphs.
type ColorPanel struct {
	screenWidth  int32
	screenHeight int32

	// Panel dimensions
	panelWidth  int32
	panelHeight int32
	panelX      int32
	panelY      int32

	history ColorHistory
	visible bool

	// Series visibility (toggled by clicking legend)
	seriesVisible [numSeries]bool

	// Series metadata
	seriesNames  [numSeries]string
	seriesColors [numSeries]rl.Color
}

// Color panel colors
var (
	colorPanelTitle = rl.Color{R: 200, G: 200, B: 220, A: 255}
	colorPanelBg    = rl.Color{R: 20, G: 20, B: 30, A: 230}
	colorGraphBg    = rl.Color{R: 15, G: 15, B: 25, A: 255}
	colorGraphGrid  = rl.Color{R: 40, G: 40, B: 50, A: 255}
	colorGraphEdge  = rl.Color{R: 60, G: 60, B: 70, A: 255}
)

// NewColorPanel creates a new color history panel.
func NewColorPanel(screenWidth, screenHeight int32) *ColorPanel {
	p := &ColorPanel{
		panelHeight: 200,
		panelX:      10,
		seriesVisible: [numSeries]bool{
			true, true, true, // averages
			false, false, false, // standard deviations
		},
		seriesNames: [numSeries]string{"avg R", "avg G", "avg B", "std R", "std G", "std B"},
		seriesColors: [numSeries]rl.Color{
			{R: 230, G: 70, B: 70, A: 255},
			{R: 80, G: 200, B: 80, A: 255},
			{R: 90, G: 130, B: 240, A: 255},
			{R: 255, G: 160, B: 160, A: 255},
			{R: 170, G: 240, B: 170, A: 255},
			{R: 170, G: 190, B: 255, A: 255},
		},
	}
	p.Resize(screenWidth, screenHeight)
	return p
}

// Resize updates panel dimensions when the window is resized.
func (p *ColorPanel) Resize(screenWidth, screenHeight int32) {
	p.screenWidth = screenWidth
	p.screenHeight = screenHeight
	p.panelWidth = max(screenWidth-420, 400)
	p.panelY = screenHeight - p.panelHeight - 10
}

// SetVisible shows or hides the panel.
func (p *ColorPanel) SetVisible(v bool) {
	p.visible = v
}

// Update records a new statistics sample.
func (p *ColorPanel) Update(avg, std [3]int) {
	p.history.Record(avg, std)
}

// HandleInput processes mouse clicks for legend toggling.
func (p *ColorPanel) HandleInput() bool {
	if !p.visible || !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return false
	}

	mx := rl.GetMouseX()
	my := rl.GetMouseY()

	legendY := p.panelY + p.panelHeight - 24
	legendX := p.panelX + 10

	for i := 0; i < numSeries; i++ {
		itemX := legendX + int32(i)*70
		if mx >= itemX && mx < itemX+66 && my >= legendY && my < legendY+18 {
			p.seriesVisible[i] = !p.seriesVisible[i]
			return true
		}
	}
	return false
}

// Draw renders the panel with graphs.
func (p *ColorPanel) Draw() {
	if !p.visible {
		return
	}

	rl.DrawRectangle(p.panelX, p.panelY, p.panelWidth, p.panelHeight, colorPanelBg)
	rl.DrawRectangleLines(p.panelX, p.panelY, p.panelWidth, p.panelHeight, colorGraphEdge)
	rl.DrawText("DYE", p.panelX+10, p.panelY+6, 14, colorPanelTitle)

	if p.history.Len() == 0 {
		rl.DrawText("Waiting for data...", p.panelX+100, p.panelY+80, 14, ColorTextDim)
		return
	}

	swatchW := int32(110)
	graphX := p.panelX + swatchW + 20
	graphY := p.panelY + 24
	graphW := p.panelWidth - swatchW - 40
	graphH := p.panelHeight - 54

	p.drawLatest(p.panelX+10, p.panelY+28)
	p.drawGraph(graphX, graphY, graphW, graphH)
	p.drawLegend(p.panelX+10, p.panelY+p.panelHeight-24)
}

// drawLatest draws a swatch of the latest average color and its values.
func (p *ColorPanel) drawLatest(x, y int32) {
	avg := [4]float32{
		float32(p.history.Latest(seriesAvgR) / 255),
		float32(p.history.Latest(seriesAvgG) / 255),
		float32(p.history.Latest(seriesAvgB) / 255),
		1,
	}
	rl.DrawRectangle(x, y, 40, 40, ToColor(avg))
	rl.DrawRectangleLines(x, y, 40, 40, colorGraphEdge)
	y += 46
	rl.DrawText(fmt.Sprintf("avg %3.0f %3.0f %3.0f",
		p.history.Latest(seriesAvgR), p.history.Latest(seriesAvgG), p.history.Latest(seriesAvgB)), x, y, 10, ColorText)
	y += 14
	rl.DrawText(fmt.Sprintf("std %3.0f %3.0f %3.0f",
		p.history.Latest(seriesStdR), p.history.Latest(seriesStdG), p.history.Latest(seriesStdB)), x, y, 10, ColorTextDim)
}

// drawGraph renders the line graph.
func (p *ColorPanel) drawGraph(x, y, w, h int32) {
	rl.DrawRectangle(x, y, w, h, colorGraphBg)
	rl.DrawRectangleLines(x, y, w, h, colorGraphEdge)

	for i := int32(1); i < 4; i++ {
		gridY := y + (h * i / 4)
		rl.DrawLine(x, gridY, x+w, gridY, colorGraphGrid)
	}
	for i := int32(1); i < 6; i++ {
		gridX := x + (w * i / 6)
		rl.DrawLine(gridX, y, gridX, y+h, colorGraphGrid)
	}

	if p.history.Len() < 2 {
		return
	}

	var visible []int
	for s := 0; s < numSeries; s++ {
		if p.seriesVisible[s] {
			visible = append(visible, s)
		}
	}
	lo, hi := p.history.Range(visible)
	for _, s := range visible {
		p.drawSeriesLine(x, y, w, h, s, lo, hi)
	}

	rl.DrawText(fmt.Sprintf("%.0f", hi), x+2, y+2, 9, ColorTextDim)
	rl.DrawText(fmt.Sprintf("%.0f", lo), x+2, y+h-10, 9, ColorTextDim)
}

// drawSeriesLine draws one data series as a line.
func (p *ColorPanel) drawSeriesLine(x, y, w, h int32, series int, lo, hi float64) {
	n := p.history.Len()
	valueRange := hi - lo
	if valueRange <= 0 {
		valueRange = 1
	}

	var prevX, prevY int32
	for i := 0; i < n; i++ {
		v := p.history.At(series, i)

		px := x + int32(float64(i)*float64(w)/float64(n-1))
		py := y + h - int32((v-lo)/valueRange*float64(h))
		py = min(max(py, y), y+h)

		if i > 0 {
			rl.DrawLine(prevX, prevY, px, py, p.seriesColors[series])
		}
		prevX, prevY = px, py
	}
}

// drawLegend draws the interactive legend.
func (p *ColorPanel) drawLegend(x, y int32) {
	itemWidth := int32(70)

	for i := 0; i < numSeries; i++ {
		itemX := x + int32(i)*itemWidth
		color := p.seriesColors[i]
		textColor := ColorText
		if !p.seriesVisible[i] {
			color.A = 80
			textColor = ColorTextDim
		}
		rl.DrawRectangle(itemX, y+2, 10, 10, color)
		rl.DrawText(p.seriesNames[i], itemX+14, y, 11, textColor)
	}

	hintX := x + int32(numSeries)*itemWidth + 10
	rl.DrawText("(click to toggle)", hintX, y, 10, ColorTextDim)
}
