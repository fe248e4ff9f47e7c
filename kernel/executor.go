// Package kernel runs per-texel functions over field buffers using a
// persistent pool of worker goroutines that split the target into row bands.
package kernel

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/pthm-cable/inkflow/field"
)

// ErrAliasedTarget is returned when a pass would sample the buffer it writes.
var ErrAliasedTarget = errors.New("pass input aliases its target")

// parallelThreshold is the minimum texel count to split across workers.
// Below this, a single band is faster than the dispatch overhead.
const parallelThreshold = 4096

// Cell identifies the destination texel a kernel is computing.
type Cell struct {
	X, Y int
	// U, V is the texel center in [0,1] texture space.
	U, V float32
	// TexelX, TexelY is the size of one destination texel.
	TexelX, TexelY float32
}

// Func computes one destination texel. out has one slot per channel of the
// target and aliases the target's storage.
type Func func(c Cell, out []float32)

// Pass is one full-target kernel invocation.
type Pass struct {
	Name string
	// Inputs lists every buffer Fn samples. None may be the target.
	Inputs []*field.Buffer
	Fn     Func
}

type band struct {
	y0, y1 int
	pass   *Pass
	dst    *field.Buffer
}

// Executor dispatches passes to worker goroutines. Run and RunSurface must
// be called from a single goroutine.
type Executor struct {
	numWorkers int
	halfFloat  bool

	work    chan band
	done    chan struct{}
	stop    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewExecutor creates an executor with the given worker count
// (0 uses GOMAXPROCS). With halfFloat set, pass outputs are rounded
// through binary16.
func NewExecutor(workers int, halfFloat bool) *Executor {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Executor{numWorkers: workers, halfFloat: halfFloat}
}

// Workers returns the pool size.
func (e *Executor) Workers() int {
	return e.numWorkers
}

// Run executes p into f's write buffer and swaps f.
func (e *Executor) Run(p Pass, f *field.Field) error {
	if err := e.RunSurface(p, f.Write()); err != nil {
		return err
	}
	f.Swap()
	return nil
}

// RunSurface executes p into dst.
func (e *Executor) RunSurface(p Pass, dst *field.Buffer) error {
	for _, in := range p.Inputs {
		if in == dst {
			return fmt.Errorf("%s: %w", p.Name, ErrAliasedTarget)
		}
	}
	if dst.Released() {
		return fmt.Errorf("%s: target released", p.Name)
	}

	n := dst.Width * dst.Height
	if n < parallelThreshold || e.numWorkers == 1 {
		e.runBand(band{y0: 0, y1: dst.Height, pass: &p, dst: dst})
		return nil
	}

	e.start()
	rows := (dst.Height + e.numWorkers - 1) / e.numWorkers
	dispatched := 0
	for y0 := 0; y0 < dst.Height; y0 += rows {
		y1 := min(y0+rows, dst.Height)
		e.work <- band{y0: y0, y1: y1, pass: &p, dst: dst}
		dispatched++
	}
	for i := 0; i < dispatched; i++ {
		<-e.done
	}
	return nil
}

// Close stops the worker goroutines. The executor restarts them on next use.
func (e *Executor) Close() {
	if !e.running {
		return
	}
	close(e.stop)
	e.wg.Wait()
	e.running = false
}

func (e *Executor) start() {
	if e.running {
		return
	}
	e.work = make(chan band, e.numWorkers)
	e.done = make(chan struct{}, e.numWorkers)
	e.stop = make(chan struct{})
	e.running = true

	for i := 0; i < e.numWorkers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for {
		select {
		case <-e.stop:
			return
		case b := <-e.work:
			e.runBand(b)
			e.done <- struct{}{}
		}
	}
}

func (e *Executor) runBand(b band) {
	dst := b.dst
	c := dst.Channels()
	tx, ty := dst.TexelSize()
	cell := Cell{TexelX: tx, TexelY: ty}

	for y := b.y0; y < b.y1; y++ {
		cell.Y = y
		cell.V = (float32(y) + 0.5) * ty
		row := y * dst.Width * c
		for x := 0; x < dst.Width; x++ {
			cell.X = x
			cell.U = (float32(x) + 0.5) * tx
			i := row + x*c
			b.pass.Fn(cell, dst.Data[i:i+c:i+c])
		}
	}

	if e.halfFloat {
		field.Quantize(dst.Data[b.y0*dst.Width*c : b.y1*dst.Width*c])
	}
}
