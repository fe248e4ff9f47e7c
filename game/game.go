// Package game drives the fluid simulation one frame at a time: it owns the
// command queue, the pointer registry and the splat stack, and wires the
// simulation to the window, panels and telemetry.
package game

import (
	"log/slog"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/pthm-cable/inkflow/components"
	"github.com/pthm-cable/inkflow/config"
	"github.com/pthm-cable/inkflow/field"
	"github.com/pthm-cable/inkflow/inspector"
	"github.com/pthm-cable/inkflow/kernel"
	"github.com/pthm-cable/inkflow/renderer"
	"github.com/pthm-cable/inkflow/sim"
	"github.com/pthm-cable/inkflow/telemetry"
	"github.com/pthm-cable/inkflow/ui"
)

// Game holds the complete frame driver state.
type Game struct {
	cfg        *config.Config
	fileConfig config.SimulationConfig // simulation section as loaded, for reload diffs
	rng        *rand.Rand

	exec *kernel.Executor
	sim  *sim.Simulation

	// Display surface sized to the dye grid (nil when headless)
	surface *field.Buffer

	// Commands from control surfaces, applied at tick boundaries
	cmdMu    sync.Mutex
	commands []Command
	done     chan struct{}
	stopOnce sync.Once

	// Pending random splat batches, deposited one per tick from the top
	splatStack []int
	pointers   *PointerRegistry

	// Telemetry
	perfCollector *telemetry.PerfCollector
	collector     *telemetry.Collector
	outputManager *telemetry.OutputManager
	metrics       *telemetry.Metrics
	logStats      bool
	lastColors    telemetry.ColorSample
	hasColors     bool

	// Rendering (nil when headless)
	dyeRenderer *renderer.DyeRenderer
	uiOverlays  *ui.OverlayRegistry
	uiControls  *ui.ControlPanel
	uiHUD       *ui.HUD
	uiPerfPanel *ui.PerfPanel
	inspector   *inspector.Inspector
	colorPanel  *inspector.ColorPanel

	headless bool
	tick     int32

	// Canvas size in pixels and a resize waiting for the next tick
	width, height      int
	pendingW, pendingH int
}

// NewGameWithOptions creates a new game instance. The config is copied, so
// several games can run side by side.
func NewGameWithOptions(opts Options) *Game {
	base := opts.Config
	if base == nil {
		base = config.Cfg()
	}
	cfg := *base

	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		width, height = cfg.Screen.Width, cfg.Screen.Height
	}

	exec := kernel.NewExecutor(cfg.Device.Workers, cfg.Device.HalfFloat)
	s := sim.NewSimulation(cfg.Simulation, sim.CapsFromConfig(&cfg), exec, width, height)

	g := &Game{
		cfg:        &cfg,
		fileConfig: cfg.Simulation,
		rng:        rand.New(rand.NewSource(opts.Seed)),
		exec:       exec,
		sim:        s,
		done:       make(chan struct{}),
		pointers:   NewPointerRegistry(float32(width), float32(height)),
		metrics:    opts.Metrics,
		logStats:   opts.LogStats,
		headless:   opts.Headless,
		width:      width,
		height:     height,
	}

	g.perfCollector = telemetry.NewPerfCollector(max(cfg.Telemetry.PerfWindow, 1))
	g.collector = telemetry.NewCollector(cfg.Telemetry.StatsWindow, sim.MaxDT)
	s.SetPerf(g.perfCollector)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		slog.Error("output disabled", "dir", opts.OutputDir, "error", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(g.cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	g.splatStack = append(g.splatStack, InitialSplats)

	if !opts.Headless {
		g.initRendering()
	}

	slog.Info("game created",
		"seed", opts.Seed,
		"width", width,
		"height", height,
		"workers", exec.Workers(),
		"headless", opts.Headless,
	)
	return g
}

// Update handles window input and advances one frame of real time.
func (g *Game) Update() {
	g.handleInput()
	g.Step(g.frameTime())
	g.perfCollector.RecordFrame()
}

// UpdateHeadless advances one frame of MaxDT without touching the window.
func (g *Game) UpdateHeadless() {
	g.Step(sim.MaxDT)
}

// Step runs one tick: pending resize, queued commands, one splat batch,
// owed pointer impulses, the solver (unless paused) and the display pass.
func (g *Game) Step(dt float32) {
	start := time.Now()
	g.perfCollector.StartTick()
	g.perfCollector.StartPhase(telemetry.PhaseInput)

	dt = min(dt, sim.MaxDT)

	g.applyResize()
	g.drainCommands()
	g.applySplatStack()
	g.applyPointers()

	paused := g.cfg.Simulation.Paused
	if !paused {
		g.sim.Step(dt)
	}

	g.perfCollector.StartPhase(telemetry.PhaseRender)
	g.render()

	g.perfCollector.EndTick()
	g.tick++
	g.metrics.ObserveTick(time.Since(start), paused)

	g.flushTelemetry()
}

// applySplatStack deposits the most recently pushed batch, if any.
func (g *Game) applySplatStack() {
	if len(g.splatStack) == 0 {
		return
	}
	n := g.splatStack[len(g.splatStack)-1]
	g.splatStack = g.splatStack[:len(g.splatStack)-1]

	g.sim.RandomSplats(n, g.rng)
	g.collector.Record(telemetry.NewSplatEvent(g.tick, n))
	g.metrics.CountSplats(n)
}

// applyPointers deposits an impulse for every pointer that moved since the
// last tick, with force = delta * SPLAT_FORCE.
func (g *Game) applyPointers() {
	force := float32(g.cfg.Simulation.SplatForce)
	n := g.pointers.Consume(func(p components.Pointer, s components.Stroke) {
		g.sim.SplatAt(s.X, s.Y, s.DX*force, s.DY*force, p.Color)
		g.collector.Record(telemetry.NewPointerSplatEvent(g.tick))
	})
	g.metrics.CountSplats(n)
}

// RequestResize schedules a canvas resize for the next tick.
func (g *Game) RequestResize(width, height int) {
	g.pendingW, g.pendingH = width, height
}

func (g *Game) applyResize() {
	if g.pendingW <= 0 || g.pendingH <= 0 {
		return
	}
	w, h := g.pendingW, g.pendingH
	g.pendingW, g.pendingH = 0, 0

	if !g.sim.Resize(w, h) {
		return
	}
	g.width, g.height = w, h
	g.pointers.SetCanvas(float32(w), float32(h))
	g.collector.Record(telemetry.NewEvent(telemetry.EventResize, g.tick))
	slog.Info("canvas resized", "width", w, "height", h)
}

// render runs the display pass into the surface and uploads it.
func (g *Game) render() {
	if g.headless {
		return
	}
	dye := g.sim.Dye()
	if g.surface == nil || g.surface.Width != dye.Width() || g.surface.Height != dye.Height() {
		g.surface.Release()
		g.surface = field.NewBuffer(dye.Width(), dye.Height(), field.FormatRGBA, field.Linear)
	}
	g.sim.Render(g.surface)
	g.dyeRenderer.Update(g.surface)
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() int32 {
	return g.tick
}

// Simulation returns the underlying solver.
func (g *Game) Simulation() *sim.Simulation {
	return g.sim
}

// SimulationConfig returns the parameters in effect.
func (g *Game) SimulationConfig() config.SimulationConfig {
	return g.cfg.Simulation
}

// Pointers returns the pointer registry.
func (g *Game) Pointers() *PointerRegistry {
	return g.pointers
}

// PendingSplats returns the queued random splat batches, bottom first.
func (g *Game) PendingSplats() []int {
	return slices.Clone(g.splatStack)
}

// Unload releases all resources and fails outstanding requests.
func (g *Game) Unload() {
	g.stopOnce.Do(func() {
		close(g.done)
	})
	if g.dyeRenderer != nil {
		g.dyeRenderer.Unload()
	}
	g.surface.Release()
	g.sim.Release()
	g.exec.Close()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
