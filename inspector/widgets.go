package inspector

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Widget colors
var (
	ColorBarBg      = rl.Color{R: 40, G: 40, B: 40, A: 255}
	ColorBarFill    = rl.Color{R: 100, G: 180, B: 100, A: 255}
	ColorBarLow     = rl.Color{R: 180, G: 80, B: 80, A: 255}
	ColorText       = rl.Color{R: 220, G: 220, B: 220, A: 255}
	ColorTextDim    = rl.Color{R: 150, G: 150, B: 150, A: 255}
	ColorLabelDim   = rl.Color{R: 110, G: 110, B: 120, A: 255}
	ColorBoolOn     = rl.Color{R: 100, G: 200, B: 100, A: 255}
	ColorBoolOff    = rl.Color{R: 80, G: 80, B: 80, A: 255}
	ColorSwatchEdge = rl.Color{R: 90, G: 90, B: 100, A: 255}
)

// DrawLabel renders a text value.
func DrawLabel(x, y int32, name string, value any, options map[string]string) int32 {
	text := FormatValue(value, options["fmt"])
	rl.DrawText(fmt.Sprintf("%s: %s", name, text), x, y, 16, ColorText)
	return 20
}

// DrawBar renders a horizontal bar over [lo, hi]. Ranges that straddle zero
// fill outward from the zero point.
func DrawBar(x, y int32, name string, value float32, options map[string]string) int32 {
	lo, hi := GetRange(options)

	barWidth := int32(120)
	barHeight := int32(14)

	rl.DrawText(name, x, y, 14, ColorTextDim)

	barX := x + 80
	rl.DrawRectangle(barX, y, barWidth, barHeight, ColorBarBg)

	zero := clampRatio(-lo / (hi - lo))
	ratio := clampRatio((value - lo) / (hi - lo))
	from, to := zero, ratio
	fillColor := ColorBarFill
	if to < from {
		from, to = to, from
		fillColor = ColorBarLow
	}
	fillX := barX + int32(float32(barWidth)*from)
	fillW := int32(float32(barWidth) * (to - from))
	rl.DrawRectangle(fillX, y, fillW, barHeight, fillColor)

	rl.DrawText(fmt.Sprintf("%+.3f", value), barX+barWidth+5, y, 14, ColorTextDim)

	return 18
}

// DrawBool renders an on/off indicator.
func DrawBool(x, y int32, name string, value bool) int32 {
	rl.DrawText(name, x, y, 14, ColorTextDim)

	indicatorX := x + 80
	indicatorSize := int32(14)

	color := ColorBoolOff
	text := "OFF"
	if value {
		color = ColorBoolOn
		text = "ON"
	}

	rl.DrawRectangle(indicatorX, y, indicatorSize, indicatorSize, color)
	rl.DrawText(text, indicatorX+indicatorSize+5, y, 14, color)

	return 18
}

// DrawSwatch renders a color square followed by its components.
func DrawSwatch(x, y int32, name string, c [4]float32) int32 {
	rl.DrawText(name, x, y, 14, ColorTextDim)

	size := int32(14)
	sx := x + 80
	rl.DrawRectangle(sx, y, size, size, ToColor(c))
	rl.DrawRectangleLines(sx, y, size, size, ColorSwatchEdge)
	rl.DrawText(fmt.Sprintf("%.2f %.2f %.2f", c[0], c[1], c[2]), sx+size+5, y, 14, ColorTextDim)

	return 18
}

// DrawField renders a field using its widget type.
func DrawField(x, y int32, field Field) int32 {
	switch field.Widget {
	case WidgetBar:
		if v, ok := GetFloatValue(field.Value); ok {
			return DrawBar(x, y, field.Name, v, field.Options)
		}
	case WidgetBool:
		if v, ok := field.Value.(bool); ok {
			return DrawBool(x, y, field.Name, v)
		}
	case WidgetSwatch:
		if c, ok := GetColor(field.Value); ok {
			return DrawSwatch(x, y, field.Name, c)
		}
	}
	return DrawLabel(x, y, field.Name, field.Value, field.Options)
}

// ToColor converts float components in [0,1] to an 8-bit color.
func ToColor(c [4]float32) rl.Color {
	return rl.Color{
		R: uint8(clampRatio(c[0]) * 255),
		G: uint8(clampRatio(c[1]) * 255),
		B: uint8(clampRatio(c[2]) * 255),
		A: uint8(clampRatio(c[3]) * 255),
	}
}

func clampRatio(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
