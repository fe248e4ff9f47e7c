package game

import (
	"github.com/pthm-cable/inkflow/config"
	"github.com/pthm-cable/inkflow/telemetry"
)

// InitialSplats is the size of the batch queued at startup.
const InitialSplats = 50

// Pointer id of the mouse; touch pointers use their touch index.
const mousePointerID int32 = -1

// Options configures game initialization.
type Options struct {
	Config    *config.Config // nil = config.Cfg()
	Seed      int64
	LogStats  bool   // log window stats and color samples via slog
	OutputDir string // CSV output directory (empty = disabled)
	Headless  bool   // no window, fixed MaxDT steps
	Width     int    // canvas size in pixels (0 = Screen config)
	Height    int

	Metrics *telemetry.Metrics // optional Prometheus collectors
}
