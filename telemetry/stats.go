package telemetry

import (
	"log/slog"
	"sort"
)

// WindowStats holds aggregated interaction counts for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Events during window
	Splats        int `csv:"splats"`
	PointerSplats int `csv:"pointer_splats"`
	Clears        int `csv:"clears"`
	ConfigUpdates int `csv:"config_updates"`
	KeysChanged   int `csv:"keys_changed"`
	Resizes       int `csv:"resizes"`
	Captures      int `csv:"captures"`

	// Display luminance distribution (sampled at window end)
	LumaMean float64 `csv:"luma_mean"`
	LumaP10  float64 `csv:"luma_p10"`
	LumaP50  float64 `csv:"luma_p50"`
	LumaP90  float64 `csv:"luma_p90"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeLuminanceStats calculates mean and percentiles from luminance values.
func ComputeLuminanceStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("splats", s.Splats),
		slog.Int("pointer_splats", s.PointerSplats),
		slog.Int("clears", s.Clears),
		slog.Int("config_updates", s.ConfigUpdates),
		slog.Int("keys_changed", s.KeysChanged),
		slog.Int("resizes", s.Resizes),
		slog.Int("captures", s.Captures),
		slog.Float64("luma_mean", s.LumaMean),
		slog.Float64("luma_p10", s.LumaP10),
		slog.Float64("luma_p50", s.LumaP50),
		slog.Float64("luma_p90", s.LumaP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
