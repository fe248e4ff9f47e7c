package telemetry

import "log/slog"

// ColorSample is one periodic reading of the displayed dye statistics.
// Values are in 0..255 units (variance in squared units).
type ColorSample struct {
	Tick int32 `csv:"tick"`

	AvgR int `csv:"avg_r"`
	AvgG int `csv:"avg_g"`
	AvgB int `csv:"avg_b"`

	VarR int `csv:"var_r"`
	VarG int `csv:"var_g"`
	VarB int `csv:"var_b"`

	StdR int `csv:"std_r"`
	StdG int `csv:"std_g"`
	StdB int `csv:"std_b"`
}

// LogValue implements slog.LogValuer for structured logging.
func (c ColorSample) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", int(c.Tick)),
		slog.Any("avg", []int{c.AvgR, c.AvgG, c.AvgB}),
		slog.Any("var", []int{c.VarR, c.VarG, c.VarB}),
		slog.Any("std", []int{c.StdR, c.StdG, c.StdB}),
	)
}
