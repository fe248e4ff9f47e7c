package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	splats        int
	pointerSplats int
	clears        int
	configUpdates int
	resizes       int
	captures      int
	changedKeys   map[string]bool
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		changedKeys:         make(map[string]bool),
	}
}

// Record counts an event in the current window.
func (c *Collector) Record(ev Event) {
	if c == nil {
		return
	}
	switch ev.Type {
	case EventSplat:
		c.splats += ev.Count
	case EventPointerSplat:
		c.pointerSplats += ev.Count
	case EventClear:
		c.clears++
	case EventConfigUpdate:
		c.configUpdates++
		c.changedKeys[ev.Key] = true
	case EventResize:
		c.resizes++
	case EventCapture:
		c.captures++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	if c == nil {
		return false
	}
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// luminance holds per-texel display luminance in [0,1] used for the
// percentile columns; it may be empty.
func (c *Collector) Flush(currentTick int32, luminance []float64) WindowStats {
	mean, p10, p50, p90 := ComputeLuminanceStats(luminance)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Splats:        c.splats,
		PointerSplats: c.pointerSplats,
		Clears:        c.clears,
		ConfigUpdates: c.configUpdates,
		KeysChanged:   len(c.changedKeys),
		Resizes:       c.resizes,
		Captures:      c.captures,

		LumaMean: mean,
		LumaP10:  p10,
		LumaP50:  p50,
		LumaP90:  p90,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.splats = 0
	c.pointerSplats = 0
	c.clears = 0
	c.configUpdates = 0
	c.resizes = 0
	c.captures = 0
	clear(c.changedKeys)

	return stats
}
