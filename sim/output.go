package sim

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"os"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/inkflow/config"
	"github.com/pthm-cable/inkflow/field"
)

// CaptureFile is the default screenshot name.
const CaptureFile = "fluid.png"

// RGB is a color triple in 0..255 units.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// ColorStats summarizes the displayed dye per channel. Average and StdDev
// are in 0..255 units, Variance in squared 0..255 units.
type ColorStats struct {
	Average  RGB
	Variance RGB
	StdDev   RGB
}

// LogValue implements slog.LogValuer.
func (c ColorStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("average", []int{c.Average.R, c.Average.G, c.Average.B}),
		slog.Any("variance", []int{c.Variance.R, c.Variance.G, c.Variance.B}),
		slog.Any("stddev", []int{c.StdDev.R, c.StdDev.G, c.StdDev.B}),
	)
}

// Render runs the display pass, copying dye color into dst.
func (s *Simulation) Render(dst *field.Buffer) {
	s.must(s.exec.RunSurface(displayPass(s.dye.Read()), dst))
}

// renderCapture renders the dye at CAPTURE_RESOLUTION. The caller releases
// the returned buffer.
func (s *Simulation) renderCapture() *field.Buffer {
	w, h := Resolution(s.cfg.CaptureResolution, s.width, s.height)
	dst := field.NewBuffer(w, h, field.FormatRGBA, field.Nearest)
	s.Render(dst)
	return dst
}

// ColorStats renders the dye at capture resolution and reports the mean,
// population variance and standard deviation of each color channel,
// rounded to integers.
func (s *Simulation) ColorStats() ColorStats {
	buf := s.renderCapture()
	defer buf.Release()

	n := buf.Width * buf.Height
	channels := [3][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
	for i := 0; i < n; i++ {
		for c := range channels {
			channels[c][i] = float64(buf.Data[i*4+c])
		}
	}

	var mean, variance, stddev [3]int
	for c, x := range channels {
		m, v := stat.PopMeanVariance(x, nil)
		mean[c] = round(m * 255)
		variance[c] = round(v * 255 * 255)
		stddev[c] = round(math.Sqrt(v) * 255)
	}
	return ColorStats{
		Average:  RGB{mean[0], mean[1], mean[2]},
		Variance: RGB{variance[0], variance[1], variance[2]},
		StdDev:   RGB{stddev[0], stddev[1], stddev[2]},
	}
}

// Luminance renders the dye at capture resolution and returns the Rec. 709
// luma of every texel, clamped to [0,1].
func (s *Simulation) Luminance() []float64 {
	buf := s.renderCapture()
	defer buf.Release()

	n := buf.Width * buf.Height
	out := make([]float64, n)
	for i := range out {
		t := buf.Data[i*4 : i*4+3]
		l := 0.2126*t[0] + 0.7152*t[1] + 0.0722*t[2]
		out[i] = float64(min(max(l, 0), 1))
	}
	return out
}

func round(v float64) int {
	return int(math.Round(v))
}

// Capture renders the dye at capture resolution into an image with the top
// row first. Channels are clamped to [0,1] and scaled to 0..255.
func (s *Simulation) Capture() *image.RGBA {
	buf := s.renderCapture()
	defer buf.Release()

	img := image.NewRGBA(image.Rect(0, 0, buf.Width, buf.Height))
	for y := 0; y < buf.Height; y++ {
		row := buf.Height - 1 - y
		for x := 0; x < buf.Width; x++ {
			t := buf.Texel(x, row)
			img.SetRGBA(x, y, color.RGBA{
				R: to8(t[0]), G: to8(t[1]), B: to8(t[2]), A: to8(t[3]),
			})
		}
	}
	return img
}

func to8(v float32) uint8 {
	return uint8(min(max(v, 0), 1) * 255)
}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// CapsFromConfig builds device capabilities from the device section and its
// derived format set.
func CapsFromConfig(cfg *config.Config) field.Caps {
	caps := field.Caps{
		LinearFiltering: cfg.Device.LinearFiltering,
		HalfFloat:       cfg.Device.HalfFloat,
		Formats:         make(map[field.Format]bool, len(cfg.Derived.FormatsEnabled)),
	}
	for name, enabled := range cfg.Derived.FormatsEnabled {
		if !enabled {
			continue
		}
		f, err := field.ParseFormat(name)
		if err != nil {
			slog.Warn("ignoring device format", "format", name, "error", err)
			continue
		}
		caps.Formats[f] = true
	}
	return caps
}
