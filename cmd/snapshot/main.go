// Snapshot tool - runs the simulation headless and writes the dye to a PNG
// file for inspection.
//
// Usage: go run ./cmd/snapshot -ticks 120 -color Magenta -out fluid.png
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pthm-cable/inkflow/config"
	"github.com/pthm-cable/inkflow/game"
	"github.com/pthm-cable/inkflow/sim"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outPath := flag.String("out", sim.CaptureFile, "Output PNG path")
	width := flag.Int("width", 512, "Canvas width")
	height := flag.Int("height", 512, "Canvas height")
	ticks := flag.Int("ticks", 120, "Ticks to simulate before capturing")
	seed := flag.Int64("seed", 1, "RNG seed")
	colorName := flag.String("color", "", "Splat color (empty = use config)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := *config.Cfg()
	if *colorName != "" {
		cfg.Simulation.Color = *colorName
	}

	g := game.NewGameWithOptions(game.Options{
		Config:   &cfg,
		Seed:     *seed,
		Headless: true,
		Width:    *width,
		Height:   *height,
	})
	defer g.Unload()

	for g.Tick() < int32(*ticks) {
		g.UpdateHeadless()
	}

	s := g.Simulation()
	stats := s.ColorStats()
	if err := sim.WritePNG(*outPath, s.Capture()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to export image: %v\n", err)
		os.Exit(1)
	}

	w, h := sim.Resolution(cfg.Simulation.CaptureResolution, *width, *height)
	fmt.Printf("Dye captured to: %s (%dx%d) after %d ticks\n", *outPath, w, h, g.Tick())
	fmt.Printf("  average %v  variance %v  stddev %v\n", stats.Average, stats.Variance, stats.StdDev)
}
