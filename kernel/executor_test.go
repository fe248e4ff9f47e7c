package kernel

import (
	"errors"
	"testing"

	"github.com/pthm-cable/inkflow/field"
)

func TestExecutor_RunWritesEveryTexel(t *testing.T) {
	for _, workers := range []int{1, 4} {
		e := NewExecutor(workers, false)
		// Large enough to cross the parallel threshold.
		f := field.New(128, 96, field.FormatRG, field.Linear)

		err := e.Run(Pass{
			Name: "coords",
			Fn: func(c Cell, out []float32) {
				out[0] = float32(c.X)
				out[1] = float32(c.Y)
			},
		}, f)
		if err != nil {
			t.Fatalf("workers=%d: Run: %v", workers, err)
		}

		for y := 0; y < f.Height(); y++ {
			for x := 0; x < f.Width(); x++ {
				got := f.Read().Texel(x, y)
				if got[0] != float32(x) || got[1] != float32(y) {
					t.Fatalf("workers=%d: texel (%d,%d) = %v", workers, x, y, got)
				}
			}
		}
		e.Close()
		f.Release()
	}
}

func TestExecutor_RunSwaps(t *testing.T) {
	e := NewExecutor(2, false)
	defer e.Close()
	f := field.New(4, 4, field.FormatR, field.Nearest)
	defer f.Release()

	w := f.Write()
	if err := e.Run(Pass{Name: "one", Fn: func(Cell, []float32) {}}, f); err != nil {
		t.Fatal(err)
	}
	if f.Read() != w {
		t.Error("Run did not swap the written buffer into read")
	}
}

func TestExecutor_CellCoordinates(t *testing.T) {
	e := NewExecutor(1, false)
	dst := field.NewBuffer(4, 2, field.FormatRG, field.Nearest)
	defer dst.Release()

	err := e.RunSurface(Pass{
		Name: "uv",
		Fn: func(c Cell, out []float32) {
			out[0] = c.U
			out[1] = c.V
		},
	}, dst)
	if err != nil {
		t.Fatal(err)
	}
	got := dst.Texel(3, 1)
	if got[0] != 0.875 || got[1] != 0.75 {
		t.Errorf("uv at (3,1) = %v, want [0.875 0.75]", got)
	}
}

func TestExecutor_RejectsAliasedTarget(t *testing.T) {
	e := NewExecutor(1, false)
	f := field.New(2, 2, field.FormatR, field.Nearest)
	defer f.Release()

	err := e.RunSurface(Pass{
		Name:   "self",
		Inputs: []*field.Buffer{f.Write()},
		Fn:     func(Cell, []float32) {},
	}, f.Write())
	if !errors.Is(err, ErrAliasedTarget) {
		t.Errorf("err = %v, want ErrAliasedTarget", err)
	}
}

func TestExecutor_HalfFloatQuantizes(t *testing.T) {
	e := NewExecutor(1, true)
	dst := field.NewBuffer(1, 1, field.FormatR, field.Nearest)
	defer dst.Release()

	if err := e.RunSurface(Pass{Name: "tenth", Fn: func(_ Cell, out []float32) { out[0] = 0.1 }}, dst); err != nil {
		t.Fatal(err)
	}
	if dst.Data[0] == 0.1 {
		t.Error("output was not rounded through binary16")
	}
}

func TestExecutor_RestartsAfterClose(t *testing.T) {
	e := NewExecutor(3, false)
	f := field.New(100, 100, field.FormatR, field.Nearest)
	defer f.Release()

	fill := Pass{Name: "fill", Fn: func(_ Cell, out []float32) { out[0] = 2 }}
	for i := 0; i < 2; i++ {
		if err := e.Run(fill, f); err != nil {
			t.Fatal(err)
		}
		e.Close()
	}
	if f.Read().Texel(99, 99)[0] != 2 {
		t.Error("pass did not run after restart")
	}
}
