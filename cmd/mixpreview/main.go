// Mixing preview tool - runs color recipes on a local simulation with sliders.
//
// Usage: go run ./cmd/mixpreview -config config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/inkflow/config"
	"github.com/pthm-cable/inkflow/field"
	"github.com/pthm-cable/inkflow/game"
	"github.com/pthm-cable/inkflow/mixer"
	"github.com/pthm-cable/inkflow/renderer"
	"github.com/pthm-cable/inkflow/sim"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
)

// stepRequest asks the render loop to advance the game n ticks.
type stepRequest struct {
	n    int
	done chan struct{}
}

// stepper is a mixer controller whose time passes on the render loop, so the
// recipe plays out on screen at the fixed headless tick.
type stepper struct {
	*mixer.Local
	g    *game.Game
	reqs chan stepRequest
}

func (s *stepper) step(ctx context.Context, n int) error {
	req := stepRequest{n: n, done: make(chan struct{})}
	select {
	case s.reqs <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *stepper) Wait(ctx context.Context, d time.Duration) error {
	return s.step(ctx, int(math.Ceil(d.Seconds()/sim.MaxDT)))
}

func (s *stepper) AverageColor(ctx context.Context) (sim.RGB, error) {
	reply := make(chan sim.ColorStats, 1)
	s.g.Enqueue(game.QueryStats{Reply: reply})
	if err := s.step(ctx, 1); err != nil {
		return sim.RGB{}, err
	}
	select {
	case stats := <-reply:
		return stats.Average, nil
	case <-ctx.Done():
		return sim.RGB{}, ctx.Err()
	}
}

type outcome struct {
	res mixer.Result
	err error
}

func defaultRecipe() mixer.Recipe {
	return mixer.Recipe{
		Cyan:        mixer.Dose{Volume: 10, Strength: 60},
		Magenta:     mixer.Dose{Volume: 5, Strength: 40},
		Yellow:      mixer.Dose{Volume: 0, Strength: 50},
		Black:       mixer.Dose{Volume: 0, Strength: 50},
		MixingTime:  10,
		MixingSpeed: 150,
	}
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	stepsPerFrame := flag.Int("steps", 2, "Simulation ticks per frame while mixing")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	settings := mixer.SettingsFromConfig(cfg.Mixer)

	rl.InitWindow(windowWidth, windowHeight, "Mixing Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	g := game.NewGameWithOptions(game.Options{
		Seed:     1,
		Headless: true,
		Width:    previewSize,
		Height:   previewSize,
	})
	defer g.Unload()

	ctl := &stepper{Local: mixer.NewLocal(g), g: g, reqs: make(chan stepRequest)}
	dye := renderer.NewDyeRenderer(previewSize, previewSize)
	defer dye.Unload()
	var surface *field.Buffer
	defer func() { surface.Release() }()

	recipe := defaultRecipe()
	target := [3]float32{120, 140, 200}

	var (
		cancel  context.CancelFunc
		results = make(chan outcome, 1)
		current *stepRequest
		left    int
		last    *outcome
		started time.Time
	)

	for !rl.WindowShouldClose() {
		running := cancel != nil

		// Advance the game: freely when idle, on request while a recipe runs
		if running {
			if current == nil {
				select {
				case req := <-ctl.reqs:
					current, left = &req, req.n
				default:
				}
			}
			for i := 0; current != nil && i < *stepsPerFrame; i++ {
				if left == 0 {
					close(current.done)
					current = nil
					break
				}
				g.UpdateHeadless()
				left--
			}
			select {
			case o := <-results:
				last = &o
				cancel()
				cancel = nil
				current = nil
			default:
			}
		} else {
			g.UpdateHeadless()
		}

		d := g.Simulation().Dye().Read()
		if surface == nil || surface.Width != d.Width || surface.Height != d.Height {
			surface.Release()
			surface = field.NewBuffer(d.Width, d.Height, field.FormatRGBA, field.Nearest)
		}
		g.Simulation().Render(surface)
		dye.Update(surface)

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Draw preview
		dye.DrawRect(rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize})
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		statsY := int32(previewSize + 25)
		if running {
			rl.DrawText(fmt.Sprintf("Mixing... %.1fs", time.Since(started).Seconds()), 15, statsY, 16, rl.DarkGray)
		}
		if last != nil {
			drawOutcome(*last, target, statsY+24)
		}

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Recipe", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 30

		slider := func(label string, v *float64, lo, hi float64, format string) {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
			nv := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 16},
				"", "",
				float32(*v), float32(lo), float32(hi),
			)
			rl.DrawText(fmt.Sprintf(format, *v), int32(panelX+float32(panelWidth-70)), int32(panelY), 16, rl.DarkGray)
			if !running {
				*v = float64(nv)
			}
			panelY += 24
		}

		for _, p := range []struct {
			name string
			dose *mixer.Dose
		}{
			{"Cyan", &recipe.Cyan},
			{"Magenta", &recipe.Magenta},
			{"Yellow", &recipe.Yellow},
			{"Black", &recipe.Black},
		} {
			slider(p.name+" volume", &p.dose.Volume, 0, settings.MaxColorVolume, "%.1f")
			slider(p.name+" strength", &p.dose.Strength, 2, 100, "%.0f")
		}
		slider("Mixing time (s)", &recipe.MixingTime, 1, 45, "%.1f")
		slider("Mixing speed", &recipe.MixingSpeed, 100, 200, "%.0f")

		// Separator
		rl.DrawLine(int32(panelX), int32(panelY), int32(panelX)+int32(panelWidth)-20, int32(panelY), rl.LightGray)
		panelY += 10

		rl.DrawText("Target", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 22
		for i, name := range []string{"R", "G", "B"} {
			rl.DrawText(name, int32(panelX), int32(panelY), 14, rl.Gray)
			target[i] = float32(math.Round(float64(gui.SliderBar(
				rl.Rectangle{X: panelX + 20, Y: panelY, Width: float32(panelWidth - 100), Height: 16},
				"", "",
				target[i], 0, 255,
			))))
			rl.DrawText(fmt.Sprintf("%.0f", target[i]), int32(panelX+float32(panelWidth-70)), int32(panelY), 16, rl.DarkGray)
			panelY += 22
		}
		rl.DrawRectangle(int32(panelX), int32(panelY), 60, 24, targetColor(target))
		panelY += 36

		// Buttons
		if running {
			if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Cancel") {
				cancel()
			}
		} else {
			if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Mix") {
				var ctx context.Context
				ctx, cancel = context.WithCancel(context.Background())
				started = time.Now()
				r, t := recipe, toRGB(target)
				go func() {
					res, err := mixer.Evaluate(ctx, ctl, r, t, settings)
					results <- outcome{res: res, err: err}
				}()
			}
			if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
				recipe = defaultRecipe()
				last = nil
			}
		}

		rl.DrawFPS(windowWidth-90, windowHeight-25)
		rl.EndDrawing()
	}

	if cancel != nil {
		cancel()
		<-results
		cancel = nil
	}
	slog.Info("preview closed", "recipe", recipe)
}

func toRGB(t [3]float32) sim.RGB {
	return sim.RGB{R: int(t[0]), G: int(t[1]), B: int(t[2])}
}

func targetColor(t [3]float32) color.RGBA {
	return color.RGBA{R: uint8(t[0]), G: uint8(t[1]), B: uint8(t[2]), A: 255}
}

func drawOutcome(o outcome, target [3]float32, y int32) {
	if o.err != nil {
		rl.DrawText(fmt.Sprintf("Failed: %v", o.err), 15, y, 16, rl.Red)
		return
	}
	c := o.res.Color
	rl.DrawRectangle(15, y, 40, 40, color.RGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 255})
	rl.DrawRectangle(60, y, 40, 40, targetColor(target))
	rl.DrawText(fmt.Sprintf("Mixed (%d, %d, %d)", c.R, c.G, c.B), 110, y, 16, rl.DarkGray)
	rl.DrawText(fmt.Sprintf("Distance %.1f  Loss %.4f", o.res.Distance, o.res.Loss), 110, y+20, 16, rl.DarkGray)
}
