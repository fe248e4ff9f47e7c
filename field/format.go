package field

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned when no format in the fallback chain is renderable.
var ErrUnsupportedFormat = errors.New("no renderable format")

// Format is the channel layout of a buffer.
type Format int

const (
	FormatR Format = iota
	FormatRG
	FormatRGBA
)

// Channels returns the float components per texel.
func (f Format) Channels() int {
	switch f {
	case FormatR:
		return 1
	case FormatRG:
		return 2
	default:
		return 4
	}
}

func (f Format) String() string {
	switch f {
	case FormatR:
		return "r16f"
	case FormatRG:
		return "rg16f"
	default:
		return "rgba16f"
	}
}

// ParseFormat maps a config name (r16f, rg16f, rgba16f) to a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "r16f":
		return FormatR, nil
	case "rg16f":
		return FormatRG, nil
	case "rgba16f":
		return FormatRGBA, nil
	}
	return 0, fmt.Errorf("unknown format %q", name)
}

// Caps describes what the compute device can render into and how it samples.
type Caps struct {
	LinearFiltering bool
	HalfFloat       bool
	Formats         map[Format]bool
}

// FullCaps reports every capability as available.
func FullCaps() Caps {
	return Caps{
		LinearFiltering: true,
		Formats:         map[Format]bool{FormatR: true, FormatRG: true, FormatRGBA: true},
	}
}

// Resolve returns the first renderable format in the chain R -> RG -> RGBA
// starting at want.
func (c Caps) Resolve(want Format) (Format, error) {
	for f := want; f <= FormatRGBA; f++ {
		if c.Formats[f] {
			return f, nil
		}
	}
	return want, fmt.Errorf("%w: %s", ErrUnsupportedFormat, want)
}

// Filter returns the filter to use for a field that prefers linear sampling.
func (c Caps) Filter() Filter {
	if c.LinearFiltering {
		return Linear
	}
	return Nearest
}
