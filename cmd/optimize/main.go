// Package main searches for pigment recipes that reproduce a target color,
// using Nelder-Mead over the recipe inputs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/inkflow/config"
	"github.com/pthm-cable/inkflow/mixer"
	"github.com/pthm-cable/inkflow/remote"
	"github.com/pthm-cable/inkflow/sim"
)

// EvalRecord is one row of optimize_log.csv.
type EvalRecord struct {
	Eval     int     `csv:"eval"`
	Loss     float64 `csv:"loss"`
	Distance float64 `csv:"distance"`
	R        int     `csv:"r"`
	G        int     `csv:"g"`
	B        int     `csv:"b"`

	CyanVolume      float64 `csv:"cyan_volume"`
	CyanStrength    float64 `csv:"cyan_strength"`
	MagentaVolume   float64 `csv:"magenta_volume"`
	MagentaStrength float64 `csv:"magenta_strength"`
	YellowVolume    float64 `csv:"yellow_volume"`
	YellowStrength  float64 `csv:"yellow_strength"`
	BlackVolume     float64 `csv:"black_volume"`
	BlackStrength   float64 `csv:"black_strength"`
	MixingTime      float64 `csv:"mixing_time"`
	MixingSpeed     float64 `csv:"mixing_speed"`
}

func newEvalRecord(eval int, res mixer.Result, r mixer.Recipe) EvalRecord {
	return EvalRecord{
		Eval:            eval,
		Loss:            res.Loss,
		Distance:        res.Distance,
		R:               res.Color.R,
		G:               res.Color.G,
		B:               res.Color.B,
		CyanVolume:      r.Cyan.Volume,
		CyanStrength:    r.Cyan.Strength,
		MagentaVolume:   r.Magenta.Volume,
		MagentaStrength: r.Magenta.Strength,
		YellowVolume:    r.Yellow.Volume,
		YellowStrength:  r.Yellow.Strength,
		BlackVolume:     r.Black.Volume,
		BlackStrength:   r.Black.Strength,
		MixingTime:      r.MixingTime,
		MixingSpeed:     r.MixingSpeed,
	}
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// parseRGB parses "r,g,b" with channels in 0..255.
func parseRGB(s string) (sim.RGB, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return sim.RGB{}, fmt.Errorf("want r,g,b, got %q", s)
	}
	var c [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return sim.RGB{}, fmt.Errorf("channel %q out of range 0..255", p)
		}
		c[i] = v
	}
	return sim.RGB{R: c[0], G: c[1], B: c[2]}, nil
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	targetFlag := flag.String("target", "120,140,200", "Target color as r,g,b")
	seeds := flag.Int("seeds", 2, "Number of seeds per local evaluation")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	outputDir := flag.String("output", "", "Output directory for results")
	listen := flag.String("listen", "", "Drive a remote simulation via a WebSocket server on this address (empty = local games)")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	target, err := parseRGB(*targetFlag)
	if err != nil {
		log.Fatalf("invalid target: %v", err)
	}

	// Create output directory
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Load base config
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	params := NewParamVector(baseCfg.Mixer.MaxColorVolume)

	// Generate seeds for evaluation
	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, target, evalSeeds, baseCfg)

	if *listen != "" {
		srv := remote.NewServer()
		go func() {
			if err := srv.ListenAndServe(ctx, *listen); err != nil {
				log.Fatalf("driver server: %v", err)
			}
		}()
		fmt.Printf("Waiting for a simulation to connect on %s...\n", *listen)
		for !srv.Connected() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(200 * time.Millisecond):
			}
		}
		api := remote.NewAPI(srv, mixer.SettingsFromConfig(baseCfg.Mixer).AnalyzeTimeout)
		evaluator.UseRemote(mixer.NewRemote(api))
	}

	// Open log file
	logPath := filepath.Join(*outputDir, "optimize_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	// Track evaluations and timing
	evalCount := 0
	headerWritten := false
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if ctx.Err() != nil {
				return failedLoss
			}
			raw := params.Denormalize(x)
			loss := evaluator.Evaluate(ctx, raw)
			evalCount++

			// Log clamped values (these are the values actually used)
			rec := []EvalRecord{newEvalRecord(evalCount, evaluator.Last(), params.Recipe(raw))}
			var werr error
			if !headerWritten {
				werr = gocsv.Marshal(rec, logFile)
				headerWritten = true
			} else {
				werr = gocsv.MarshalWithoutHeaders(rec, logFile)
			}
			if werr != nil {
				slog.Error("failed to log evaluation", "error", werr)
			}

			// Calculate timing
			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(*maxEvals-evalCount) * avgPerEval

			last := evaluator.Last()
			fmt.Printf("Eval %d/%d: loss=%.4f color=(%d,%d,%d) (best=%.4f) | elapsed: %s, ETA: %s\n",
				evalCount, *maxEvals, loss, last.Color.R, last.Color.G, last.Color.B,
				evaluator.Best().Loss, formatDuration(elapsed), formatDuration(remaining))

			return loss
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential evaluation
	}
	method := &optimize.NelderMead{}

	fmt.Printf("Starting Nelder-Mead search over %d parameters, max_evals=%d, target=(%d,%d,%d)\n",
		params.Dim(), *maxEvals, target.R, target.G, target.B)

	initX := params.Normalize(params.DefaultVector())
	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	bestX := initX
	if result != nil {
		bestX = result.X
	}
	best := params.Recipe(params.Denormalize(bestX))
	totalTime := time.Since(startTime)
	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(totalTime))
	fmt.Printf("Best loss: %.4f, color (%d,%d,%d)\n",
		evaluator.Best().Loss, evaluator.Best().Color.R, evaluator.Best().Color.G, evaluator.Best().Color.B)

	// Save best recipe
	data, err := yaml.Marshal(best)
	if err != nil {
		log.Printf("failed to marshal best recipe: %v", err)
		return
	}
	recipePath := filepath.Join(*outputDir, "best_recipe.yaml")
	if err := os.WriteFile(recipePath, data, 0644); err != nil {
		log.Printf("failed to write best recipe: %v", err)
	} else {
		fmt.Printf("\nBest recipe saved to: %s\n", recipePath)
	}
}
