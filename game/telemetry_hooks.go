package game

import (
	"log/slog"

	"github.com/pthm-cable/inkflow/sim"
	"github.com/pthm-cable/inkflow/telemetry"
)

// flushTelemetry writes perf samples every perf window and, when the stats
// window closes, the interaction counters and a dye color sample.
func (g *Game) flushTelemetry() {
	if w := int32(g.cfg.Telemetry.PerfWindow); w > 0 && g.tick%w == 0 {
		perfStats := g.perfCollector.Stats()
		if g.logStats {
			perfStats.LogStats()
		}
		if err := g.outputManager.WritePerf(perfStats, g.tick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.sim.Luminance())
	colors := colorSample(g.tick, g.sim.ColorStats())
	g.lastColors = colors
	g.hasColors = true

	if g.logStats {
		stats.LogStats()
		slog.Info("colors", "sample", colors)
	}

	if err := g.outputManager.WriteStats(stats); err != nil {
		slog.Error("failed to write stats", "error", err)
	}
	if err := g.outputManager.WriteColors(colors); err != nil {
		slog.Error("failed to write colors", "error", err)
	}
	g.metrics.ObserveColor(colors)

	if g.colorPanel != nil {
		g.colorPanel.Update(
			[3]int{colors.AvgR, colors.AvgG, colors.AvgB},
			[3]int{colors.StdR, colors.StdG, colors.StdB},
		)
	}
}

// colorSample flattens simulation color stats into a telemetry record.
func colorSample(tick int32, c sim.ColorStats) telemetry.ColorSample {
	return telemetry.ColorSample{
		Tick: tick,
		AvgR: c.Average.R, AvgG: c.Average.G, AvgB: c.Average.B,
		VarR: c.Variance.R, VarG: c.Variance.G, VarB: c.Variance.B,
		StdR: c.StdDev.R, StdG: c.StdDev.G, StdB: c.StdDev.B,
	}
}

// LastColors returns the most recent periodic color sample.
func (g *Game) LastColors() (telemetry.ColorSample, bool) {
	return g.lastColors, g.hasColors
}
