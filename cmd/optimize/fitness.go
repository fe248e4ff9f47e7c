package main

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/inkflow/config"
	"github.com/pthm-cable/inkflow/game"
	"github.com/pthm-cable/inkflow/mixer"
	"github.com/pthm-cable/inkflow/sim"
)

// failedLoss is reported for a recipe that could not be evaluated. Real
// losses lie in [0, ColorWeight+VolumeWeight].
const failedLoss = 2.0

// FitnessEvaluator mixes candidate recipes and scores them against the
// target color.
type FitnessEvaluator struct {
	params     *ParamVector
	settings   mixer.Settings
	target     sim.RGB
	seeds      []int64
	baseConfig *config.Config
	width      int
	height     int

	// remote drives a connected simulation instead of local games
	remote mixer.Controller

	// Best run tracking
	mu       sync.Mutex
	bestLoss float64
	best     mixer.Result
	last     mixer.Result
}

// NewFitnessEvaluator creates an evaluator that runs one headless game per
// seed.
func NewFitnessEvaluator(params *ParamVector, target sim.RGB, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		settings:   mixer.SettingsFromConfig(baseCfg.Mixer),
		target:     target,
		seeds:      seeds,
		baseConfig: baseCfg,
		width:      256,
		height:     256,
		bestLoss:   math.Inf(1),
	}
}

// UseRemote evaluates every recipe on the given controller, once.
func (fe *FitnessEvaluator) UseRemote(c mixer.Controller) {
	fe.remote = c
}

// Last returns the result of the most recent evaluation, averaged over seeds.
func (fe *FitnessEvaluator) Last() mixer.Result {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Best returns the lowest-loss result seen so far.
func (fe *FitnessEvaluator) Best() mixer.Result {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.best
}

// Evaluate mixes the recipe for a raw parameter vector and returns its loss
// (lower = better).
func (fe *FitnessEvaluator) Evaluate(ctx context.Context, x []float64) float64 {
	recipe := fe.params.Recipe(x)

	var results []mixer.Result
	if fe.remote != nil {
		res, err := mixer.Evaluate(ctx, fe.remote, recipe, fe.target, fe.settings)
		if err != nil {
			slog.Error("remote evaluation failed", "error", err)
			return failedLoss
		}
		results = []mixer.Result{res}
	} else {
		results = make([]mixer.Result, len(fe.seeds))
		g, gctx := errgroup.WithContext(ctx)
		for i, seed := range fe.seeds {
			g.Go(func() error {
				res, err := fe.runLocal(gctx, recipe, seed)
				results[i] = res
				return err
			})
		}
		if err := g.Wait(); err != nil {
			slog.Error("local evaluation failed", "error", err)
			return failedLoss
		}
	}

	avg := average(results)

	fe.mu.Lock()
	fe.last = avg
	if avg.Loss < fe.bestLoss {
		fe.bestLoss = avg.Loss
		fe.best = avg
	}
	fe.mu.Unlock()

	return avg.Loss
}

// runLocal mixes the recipe in a fresh headless game.
func (fe *FitnessEvaluator) runLocal(ctx context.Context, recipe mixer.Recipe, seed int64) (mixer.Result, error) {
	g := game.NewGameWithOptions(game.Options{
		Config:   fe.baseConfig,
		Seed:     seed,
		Headless: true,
		Width:    fe.width,
		Height:   fe.height,
	})
	defer g.Unload()

	// Deposit the startup batch so the recipe's clear removes it
	g.UpdateHeadless()

	return mixer.Evaluate(ctx, mixer.NewLocal(g), recipe, fe.target, fe.settings)
}

// average combines per-seed results. The color is rounded per channel.
func average(results []mixer.Result) mixer.Result {
	var r, g, b, dist, loss float64
	for _, res := range results {
		r += float64(res.Color.R)
		g += float64(res.Color.G)
		b += float64(res.Color.B)
		dist += res.Distance
		loss += res.Loss
	}
	n := float64(len(results))
	return mixer.Result{
		Color: sim.RGB{
			R: int(math.Round(r / n)),
			G: int(math.Round(g / n)),
			B: int(math.Round(b / n)),
		},
		Distance: dist / n,
		Loss:     loss / n,
	}
}
