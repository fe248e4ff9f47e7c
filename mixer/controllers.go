package mixer

import (
	"context"
	"math"
	"time"

	"github.com/pthm-cable/inkflow/game"
	"github.com/pthm-cable/inkflow/remote"
	"github.com/pthm-cable/inkflow/sim"
)

// Remote controls a simulation connected to a driver server. Time passes in
// real time.
type Remote struct {
	*remote.API
}

// NewRemote wraps a driver API.
func NewRemote(api *remote.API) *Remote {
	return &Remote{API: api}
}

// Wait sleeps for d.
func (r *Remote) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Local controls an in-process headless game, stepping it at the fixed
// headless tick so results do not depend on wall-clock speed.
type Local struct {
	g *game.Game
}

// NewLocal wraps a headless game. The caller owns the game.
func NewLocal(g *game.Game) *Local {
	return &Local{g: g}
}

// UpdateConfig queues a parameter change for the next tick.
func (l *Local) UpdateConfig(_ context.Context, key string, value any) error {
	l.g.UpdateConfig(key, value)
	return nil
}

// Clear queues a dye clear.
func (l *Local) Clear(context.Context) error {
	l.g.Clear()
	return nil
}

// CenterSplat queues a center splat.
func (l *Local) CenterSplat(context.Context) error {
	l.g.CenterSplat()
	return nil
}

// AverageColor steps one tick to apply pending commands and answer the query.
func (l *Local) AverageColor(ctx context.Context) (sim.RGB, error) {
	reply := make(chan sim.ColorStats, 1)
	l.g.Enqueue(game.QueryStats{Reply: reply})
	l.g.UpdateHeadless()

	select {
	case stats := <-reply:
		return stats.Average, nil
	case <-ctx.Done():
		return sim.RGB{}, ctx.Err()
	}
}

// Wait advances the game by d of simulated time.
func (l *Local) Wait(ctx context.Context, d time.Duration) error {
	ticks := int(math.Ceil(d.Seconds() / sim.MaxDT))
	for range ticks {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.g.UpdateHeadless()
	}
	return nil
}
