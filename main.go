package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/inkflow/config"
	"github.com/pthm-cable/inkflow/game"
	"github.com/pthm-cable/inkflow/remote"
	"github.com/pthm-cable/inkflow/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	remoteURL := flag.String("remote", "", "Driver WebSocket URL to take commands from (empty = use config)")
	metricsAddr := flag.String("metrics-addr", "", "Address for the Prometheus endpoint (empty = use config)")
	watch := flag.Bool("watch", false, "Reload simulation parameters when the config file changes")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	if *remoteURL != "" {
		cfg.Remote.Enabled = true
		cfg.Remote.URL = *remoteURL
	}
	if *metricsAddr != "" {
		cfg.Telemetry.MetricsAddr = *metricsAddr
	}

	var metrics *telemetry.Metrics
	if cfg.Telemetry.MetricsAddr != "" {
		metrics = telemetry.NewMetrics()
	}

	opts := game.Options{
		Seed:      rngSeed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
		Headless:  *headless,
		Metrics:   metrics,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if !*headless {
		// raylib must own the main thread, so the window opens before the game
		rl.SetConfigFlags(rl.FlagWindowResizable)
		rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Inkflow")
		defer rl.CloseWindow()
		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	}

	g := game.NewGameWithOptions(opts)
	defer g.Unload()

	ctx, cancel := context.WithCancel(ctx)
	bg, bgctx := errgroup.WithContext(ctx)
	defer func() {
		cancel()
		if err := bg.Wait(); err != nil {
			slog.Error("background task failed", "error", err)
		}
	}()

	if cfg.Remote.Enabled {
		client := remote.NewClient(cfg.Remote.URL, g)
		client.Configure(cfg.Remote)
		bg.Go(func() error { return client.Run(bgctx) })
	}
	if metrics != nil {
		bg.Go(func() error { return metrics.Serve(bgctx, cfg.Telemetry.MetricsAddr) })
	}
	if *watch {
		if *configPath == "" {
			slog.Warn("-watch needs -config, not watching")
		} else {
			bg.Go(func() error { return g.WatchConfig(bgctx, *configPath) })
		}
	}

	if *headless {
		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"max_ticks", *maxTicks,
			"remote", cfg.Remote.Enabled,
		)

		// A remote driver waits in wall-clock time, so its ticks follow the
		// frame rate. Batch runs go as fast as they can.
		var interval time.Duration
		if cfg.Remote.Enabled && cfg.Screen.TargetFPS > 0 {
			interval = time.Second / time.Duration(cfg.Screen.TargetFPS)
		}
		runHeadless(ctx, interval, func() bool {
			g.UpdateHeadless()
			if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
				slog.Info("max ticks reached", "tick", g.Tick())
				return false
			}
			return true
		})
		return
	}

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		g.Update()
		g.Draw()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			break
		}
	}
}

// runHeadless calls step until it returns false or ctx is done. A positive
// interval paces calls with a ticker.
func runHeadless(ctx context.Context, interval time.Duration, step func() bool) {
	if interval <= 0 {
		for ctx.Err() == nil && step() {
		}
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !step() {
				return
			}
		}
	}
}
