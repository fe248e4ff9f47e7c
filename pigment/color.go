package pigment

// Hue categories accepted by GenerateColor.
const (
	Cyan    = "Cyan"
	Magenta = "Magenta"
	Yellow  = "Yellow"
	Black   = "Black"
)

// Categories lists the selectable hue categories in display order.
var Categories = []string{Cyan, Magenta, Yellow, Black}

// GenerateColor returns the splat color for a hue category. intensity is in
// [0,1] and pulls the tint away from white; unknown categories are white.
func GenerateColor(category string, intensity float32) RGBA {
	i := min(max(intensity, 0), 1)
	switch category {
	case Cyan:
		return RGBA{1 - i, 1, 1, 1}
	case Magenta:
		return RGBA{1, 1 - i, 1, 1}
	case Yellow:
		return RGBA{1, 1, 1 - i, 1}
	case Black:
		return RGBA{1 - i, 1 - i, 1 - i, 1}
	}
	return White
}
