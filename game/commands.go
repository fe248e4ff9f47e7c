package game

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pthm-cable/inkflow/config"
	"github.com/pthm-cable/inkflow/sim"
	"github.com/pthm-cable/inkflow/telemetry"
)

// ErrStopped is returned by requests that cannot be answered because the
// game was unloaded.
var ErrStopped = errors.New("game stopped")

// Command is a request from a control surface. Commands are queued from any
// goroutine and applied in order at the start of the next tick, never in the
// middle of the pipeline.
type Command interface {
	apply(g *Game)
	kind() string
}

// UpdateConfig sets one named simulation parameter.
type UpdateConfig struct {
	Key   string
	Value any
}

func (c UpdateConfig) kind() string { return "update_config" }

func (c UpdateConfig) apply(g *Game) {
	change, err := g.cfg.Simulation.Apply(c.Key, c.Value)
	if err != nil {
		slog.Warn(rejectReason(err), "key", c.Key, "value", c.Value, "error", err)
		return
	}
	g.sim.Configure(g.cfg.Simulation)
	g.collector.Record(telemetry.NewConfigEvent(g.tick, c.Key))
	if change.Realloc {
		slog.Info("fields reallocated", "key", c.Key, "value", c.Value)
	}
}

// rejectReason names why a parameter update was refused.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, config.ErrUnknownKey):
		return "unknown config key"
	case errors.Is(err, config.ErrReadOnly):
		return "config key not adjustable at runtime"
	case errors.Is(err, config.ErrInvalidValue):
		return "invalid config value"
	}
	return "config update failed"
}

// Clear paints the dye white.
type Clear struct{}

func (Clear) kind() string { return "clear" }

func (Clear) apply(g *Game) {
	g.sim.Clear()
	g.collector.Record(telemetry.NewEvent(telemetry.EventClear, g.tick))
}

// CenterSplat deposits one force-free impulse at the canvas center.
type CenterSplat struct{}

func (CenterSplat) kind() string { return "center_splat" }

func (CenterSplat) apply(g *Game) {
	g.sim.CenterSplat()
	g.collector.Record(telemetry.NewSplatEvent(g.tick, 1))
	g.metrics.CountSplats(1)
}

// RandomSplats schedules a batch of random impulses. Batches are stacked and
// one is deposited per tick, most recent first.
type RandomSplats struct {
	Count int
}

func (RandomSplats) kind() string { return "random_splats" }

func (c RandomSplats) apply(g *Game) {
	if c.Count > 0 {
		g.splatStack = append(g.splatStack, c.Count)
	}
}

// QueryStats reports the displayed dye statistics on Reply.
type QueryStats struct {
	Reply chan<- sim.ColorStats
}

func (QueryStats) kind() string { return "query_stats" }

func (c QueryStats) apply(g *Game) {
	stats := g.sim.ColorStats()
	select {
	case c.Reply <- stats:
	default:
		slog.Warn("stats reply dropped")
	}
}

// Capture writes a PNG of the dye to Path and reports the result on Done.
type Capture struct {
	Path string
	Done chan<- error
}

func (Capture) kind() string { return "capture" }

func (c Capture) apply(g *Game) {
	err := sim.WritePNG(c.Path, g.sim.Capture())
	if err != nil {
		slog.Error("capture failed", "path", c.Path, "error", err)
	} else {
		slog.Info("capture saved", "path", c.Path)
		g.collector.Record(telemetry.NewEvent(telemetry.EventCapture, g.tick))
	}
	if c.Done != nil {
		select {
		case c.Done <- err:
		default:
		}
	}
}

// Enqueue queues a command for the next tick. Safe for concurrent use.
func (g *Game) Enqueue(cmd Command) {
	g.cmdMu.Lock()
	g.commands = append(g.commands, cmd)
	g.cmdMu.Unlock()
}

// drainCommands applies every queued command in arrival order.
func (g *Game) drainCommands() {
	g.cmdMu.Lock()
	pending := g.commands
	g.commands = nil
	g.cmdMu.Unlock()

	for _, cmd := range pending {
		cmd.apply(g)
		g.metrics.CountCommand(cmd.kind())
	}
}

// UpdateConfig queues a parameter change.
func (g *Game) UpdateConfig(key string, value any) {
	g.Enqueue(UpdateConfig{Key: key, Value: value})
}

// Clear queues a dye clear.
func (g *Game) Clear() {
	g.Enqueue(Clear{})
}

// CenterSplat queues a center splat.
func (g *Game) CenterSplat() {
	g.Enqueue(CenterSplat{})
}

// ColorStats queues a statistics query and waits for the tick that answers it.
func (g *Game) ColorStats(ctx context.Context) (sim.ColorStats, error) {
	reply := make(chan sim.ColorStats, 1)
	g.Enqueue(QueryStats{Reply: reply})

	select {
	case stats := <-reply:
		return stats, nil
	case <-ctx.Done():
		return sim.ColorStats{}, ctx.Err()
	case <-g.done:
		return sim.ColorStats{}, ErrStopped
	}
}

// WatchConfig reloads the simulation section of the config file at path on
// every write and queues an update for each changed parameter. It blocks
// until ctx is cancelled.
func (g *Game) WatchConfig(ctx context.Context, path string) error {
	prev := g.fileConfig
	return config.Watch(ctx, path, func(cfg *config.Config) {
		next := cfg.Simulation
		for _, key := range prev.Diff(&next) {
			if p, ok := config.Lookup(key); ok && p.ReadOnly {
				slog.Warn("config key not adjustable at runtime", "key", key)
				continue
			}
			v, _ := next.Value(key)
			g.UpdateConfig(key, v)
		}
		prev = next
	})
}
