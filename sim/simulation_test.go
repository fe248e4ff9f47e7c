package sim

import (
	"image/png"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/inkflow/config"
	"github.com/pthm-cable/inkflow/field"
	"github.com/pthm-cable/inkflow/kernel"
	"github.com/pthm-cable/inkflow/pigment"
)

func testConfig(t *testing.T) config.SimulationConfig {
	t.Helper()
	cfg, err := config.Defaults()
	if err != nil {
		t.Fatal(err)
	}
	sc := cfg.Simulation
	sc.SimResolution = 32
	sc.DyeResolution = 64
	sc.CaptureResolution = 32
	return sc
}

func newTestSim(t *testing.T, sc config.SimulationConfig, caps field.Caps, w, h int) *Simulation {
	t.Helper()
	exec := kernel.NewExecutor(2, caps.HalfFloat)
	s := NewSimulation(sc, caps, exec, w, h)
	t.Cleanup(func() {
		s.Release()
		exec.Close()
	})
	return s
}

func forEachTexel(b *field.Buffer, fn func(x, y int, t []float32)) {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			fn(x, y, b.Texel(x, y))
		}
	}
}

func TestResolution(t *testing.T) {
	tests := []struct {
		name         string
		res, w, h    int
		wantW, wantH int
	}{
		{"landscape", 128, 1280, 720, 228, 128},
		{"portrait", 128, 720, 1280, 128, 228},
		{"square", 256, 800, 800, 256, 256},
		{"degenerate", 64, 0, 0, 64, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := Resolution(tt.res, tt.w, tt.h)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("Resolution(%d, %d, %d) = %dx%d, want %dx%d", tt.res, tt.w, tt.h, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestSimulation_ResizeSwapsLongAxis(t *testing.T) {
	s := newTestSim(t, testConfig(t), field.FullCaps(), 1600, 900)
	if s.Velocity().Width() <= s.Velocity().Height() {
		t.Fatalf("landscape velocity grid %dx%d", s.Velocity().Width(), s.Velocity().Height())
	}

	s.Resize(900, 1600)
	if s.Velocity().Width() >= s.Velocity().Height() {
		t.Errorf("portrait velocity grid %dx%d", s.Velocity().Width(), s.Velocity().Height())
	}
	if s.Dye().Width() >= s.Dye().Height() {
		t.Errorf("portrait dye grid %dx%d", s.Dye().Width(), s.Dye().Height())
	}

	s.Resize(1000, 1000)
	if s.Dye().Width() != s.Dye().Height() {
		t.Errorf("square dye grid %dx%d", s.Dye().Width(), s.Dye().Height())
	}
}

func TestSimulation_ResizePreservesDyeZeroesVelocity(t *testing.T) {
	s := newTestSim(t, testConfig(t), field.FullCaps(), 1280, 720)
	s.Dye().Read().Fill(0.3, 0.5, 0.7, 1)
	s.Velocity().Read().Fill(4, -2)
	s.Pressure().Read().Fill(1)
	s.Divergence().Fill(1)
	s.Curl().Fill(1)

	if !s.Resize(800, 800) {
		t.Fatal("Resize reported no change")
	}

	want := []float32{0.3, 0.5, 0.7, 1}
	forEachTexel(s.Dye().Read(), func(x, y int, tx []float32) {
		for c := range want {
			if math.Abs(float64(tx[c]-want[c])) > 1e-5 {
				t.Fatalf("dye (%d,%d) = %v, want %v", x, y, tx, want)
			}
		}
	})
	for name, b := range map[string]*field.Buffer{
		"velocity":   s.Velocity().Read(),
		"pressure":   s.Pressure().Read(),
		"divergence": s.Divergence(),
		"curl":       s.Curl(),
	} {
		for _, v := range b.Data {
			if v != 0 {
				t.Errorf("%s not zeroed after resize", name)
				break
			}
		}
	}
}

func TestSimulation_NoLeakAcrossResizes(t *testing.T) {
	before := field.Live()
	exec := kernel.NewExecutor(1, false)
	defer exec.Close()

	s := NewSimulation(testConfig(t), field.FullCaps(), exec, 640, 480)
	allocated := field.Live() - before
	for i := 0; i < 10; i++ {
		s.Resize(640+i*16, 480)
	}
	if got := field.Live() - before; got != allocated {
		t.Errorf("live buffers after resizes = %d, want %d", got, allocated)
	}
	s.Release()
	if got := field.Live() - before; got != 0 {
		t.Errorf("live buffers after Release = %d, want 0", got)
	}
}

func TestSimulation_PressureFixedPoint(t *testing.T) {
	s := newTestSim(t, testConfig(t), field.FullCaps(), 1280, 720)
	s.Divergence().Clear()
	s.Pressure().Read().Fill(0.7)

	s.seedPressure(1)
	s.solvePressure(s.Config().PressureIterations)

	forEachTexel(s.Pressure().Read(), func(x, y int, tx []float32) {
		if math.Abs(float64(tx[0])-0.7) > 1e-5 {
			t.Fatalf("pressure (%d,%d) = %v, want 0.7", x, y, tx[0])
		}
	})
}

func TestSimulation_VorticityClamp(t *testing.T) {
	for _, curl := range []float64{0, 30, 50, 1e6} {
		sc := testConfig(t)
		sc.Curl = curl
		s := newTestSim(t, sc, field.FullCaps(), 640, 640)

		rng := rand.New(rand.NewSource(7))
		vel := s.Velocity().Read()
		for i := range vel.Data {
			vel.Data[i] = float32(rng.NormFloat64() * 3000)
		}

		s.computeCurl()
		s.applyVorticity(MaxDT)

		for _, v := range s.Velocity().Read().Data {
			if v > maxVelocity || v < -maxVelocity {
				t.Fatalf("curl=%v: velocity component %v exceeds clamp", curl, v)
			}
		}
	}
}

func TestSimulation_VortexAtZeroStrengthDamps(t *testing.T) {
	s := newTestSim(t, testConfig(t), field.FullCaps(), 640, 640)
	s.Velocity().Read().Fill(1, -1)

	s.applyVortex(0)

	for _, v := range s.Velocity().Read().Data {
		if math.Abs(math.Abs(float64(v))-0.9) > 1e-6 {
			t.Fatalf("velocity component %v, want magnitude 0.9", v)
		}
	}
}

func TestSimulation_VortexSwirlsCounterClockwise(t *testing.T) {
	s := newTestSim(t, testConfig(t), field.FullCaps(), 640, 640)
	s.applyVortex(100)

	// Right of center the swirl points up.
	vel := s.Velocity().Read()
	x, y := vel.Width-2, vel.Height/2
	v := vel.Texel(x, y)
	if v[1] <= 0 {
		t.Errorf("velocity right of center = %v, want positive y", v)
	}
}

func TestSimulation_SplatDisc(t *testing.T) {
	s := newTestSim(t, testConfig(t), field.FullCaps(), 1280, 720)
	base := []float32{0.2, 0.4, 0.6, 1}
	s.Dye().Read().Fill(base...)

	s.SplatAt(0.5, 0.5, 0, 0, pigment.White)

	dye := s.Dye().Read()
	aspect := s.aspect()
	limit := 10 * s.splatRadius()
	inside := 0
	forEachTexel(dye, func(x, y int, tx []float32) {
		u := (float32(x) + 0.5) / float32(dye.Width)
		v := (float32(y) + 0.5) / float32(dye.Height)
		px := float64((u - 0.5) * aspect)
		py := float64(v - 0.5)
		d := math.Hypot(px, py)
		if math.Abs(d-float64(limit)) < 1e-3 {
			return
		}
		want := base
		if d < float64(limit) {
			want = []float32{1, 1, 1, 1}
			inside++
		}
		for c := range want {
			if tx[c] != want[c] {
				t.Fatalf("dye (%d,%d) = %v, want %v", x, y, tx, want)
			}
		}
	})
	if inside == 0 {
		t.Error("splat painted no texels")
	}

	for _, v := range s.Velocity().Read().Data {
		if v != 0 {
			t.Fatal("zero-force splat changed velocity")
		}
	}
}

func TestSimulation_SplatAddsGaussianForce(t *testing.T) {
	s := newTestSim(t, testConfig(t), field.FullCaps(), 640, 640)
	s.SplatAt(0.5, 0.5, 100, 0, pigment.White)

	vel := s.Velocity().Read()
	center := vel.Texel(vel.Width/2, vel.Height/2)[0]
	edge := vel.Texel(0, 0)[0]
	if center <= 0 || center > 100 {
		t.Errorf("center force = %v, want in (0, 100]", center)
	}
	if edge >= center {
		t.Errorf("edge force %v not below center force %v", edge, center)
	}
}

func TestSimulation_ClearIdempotent(t *testing.T) {
	s := newTestSim(t, testConfig(t), field.FullCaps(), 640, 480)
	s.RandomSplats(5, rand.New(rand.NewSource(1)))

	s.Clear()
	once := append([]float32(nil), s.Dye().Read().Data...)
	s.Clear()
	twice := s.Dye().Read().Data

	for i := range once {
		if once[i] != 1 || twice[i] != once[i] {
			t.Fatalf("component %d: once=%v twice=%v, want 1", i, once[i], twice[i])
		}
	}
}

func TestSimulation_PausedRedSplatScenario(t *testing.T) {
	sc := testConfig(t)
	sc.SimResolution = 128
	sc.DyeResolution = 1024
	sc.CaptureResolution = 256
	sc.SplatRadius = 1
	sc.Paused = true
	s := newTestSim(t, sc, field.FullCaps(), 1280, 720)

	s.SplatAt(0.5, 0.5, 0, 0, pigment.RGBA{1, 0, 0, 1})
	avg := s.ColorStats().Average

	if avg.R <= avg.G || avg.R <= avg.B {
		t.Errorf("average color %+v, want red bias", avg)
	}
}

func TestSimulation_ColorStatsUniform(t *testing.T) {
	s := newTestSim(t, testConfig(t), field.FullCaps(), 640, 480)

	s.Clear()
	got := s.ColorStats()
	if got.Average != (RGB{255, 255, 255}) || got.Variance != (RGB{}) || got.StdDev != (RGB{}) {
		t.Errorf("white stats = %+v", got)
	}

	s.Dye().Read().Fill(0.5, 0.25, 0, 1)
	got = s.ColorStats()
	if got.Average != (RGB{128, 64, 0}) {
		t.Errorf("average = %+v, want {128 64 0}", got.Average)
	}
}

func TestSimulation_ColorStatsHalfSplit(t *testing.T) {
	s := newTestSim(t, testConfig(t), field.Caps{Formats: field.FullCaps().Formats}, 640, 640)
	dye := s.Dye().Read()
	forEachTexel(dye, func(x, y int, tx []float32) {
		v := float32(1)
		if x < dye.Width/2 {
			v = 0
		}
		tx[0], tx[1], tx[2], tx[3] = v, v, v, 1
	})

	got := s.ColorStats()
	// Half black, half white: mean 0.5, variance 0.25.
	if got.Average.R != 128 || got.Variance.R != 16256 || got.StdDev.R != 128 {
		t.Errorf("stats = %+v", got)
	}
}

func TestSimulation_StepStaysFinite(t *testing.T) {
	for _, caps := range []field.Caps{
		field.FullCaps(),
		{Formats: map[field.Format]bool{field.FormatRGBA: true}, HalfFloat: true},
	} {
		sc := testConfig(t)
		sc.VortexStrength = 50
		sc.DensityDissipation = 1
		sc.VelocityDissipation = 0.5
		s := newTestSim(t, sc, caps, 800, 600)
		s.RandomSplats(20, rand.New(rand.NewSource(3)))

		for i := 0; i < 10; i++ {
			s.Step(MaxDT)
		}

		for _, v := range s.Velocity().Read().Data {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				t.Fatalf("linear=%v: non-finite velocity", caps.LinearFiltering)
			}
		}
		for _, v := range s.Dye().Read().Data {
			if v < 0 || v > 1 || math.IsNaN(float64(v)) {
				t.Fatalf("linear=%v: dye component %v outside [0,1]", caps.LinearFiltering, v)
			}
		}
	}
}

func TestSimulation_UniformDyeSurvivesStep(t *testing.T) {
	s := newTestSim(t, testConfig(t), field.FullCaps(), 640, 480)
	s.Dye().Read().Fill(0.4, 0.6, 0.8, 1)

	s.Step(MaxDT)

	want := []float32{0.4, 0.6, 0.8, 1}
	forEachTexel(s.Dye().Read(), func(x, y int, tx []float32) {
		for c := range want {
			if math.Abs(float64(tx[c]-want[c])) > 1e-3 {
				t.Fatalf("dye (%d,%d) = %v, want %v", x, y, tx, want)
			}
		}
	})
}

func TestSimulation_ConfigureReallocates(t *testing.T) {
	sc := testConfig(t)
	s := newTestSim(t, sc, field.FullCaps(), 640, 640)

	sc.Curl = 5
	s.Configure(sc)
	if s.Velocity().Width() != 32 {
		t.Fatalf("velocity width = %d, want 32", s.Velocity().Width())
	}

	sc.SimResolution = 64
	s.Configure(sc)
	if s.Velocity().Width() != 64 {
		t.Errorf("velocity width after realloc = %d, want 64", s.Velocity().Width())
	}
}

func TestSimulation_CaptureFlipsRows(t *testing.T) {
	s := newTestSim(t, testConfig(t), field.FullCaps(), 640, 640)
	dye := s.Dye().Read()
	forEachTexel(dye, func(x, y int, tx []float32) {
		if y < dye.Height/2 {
			tx[0], tx[1], tx[2], tx[3] = 1, 0, 0, 1
		} else {
			tx[0], tx[1], tx[2], tx[3] = 1, 1, 1, 1
		}
	})

	img := s.Capture()
	b := img.Bounds()
	top := img.RGBAAt(0, 0)
	bottom := img.RGBAAt(0, b.Dy()-1)
	if top.G != 255 || top.B != 255 {
		t.Errorf("top row = %v, want white", top)
	}
	if bottom.R != 255 || bottom.G != 0 || bottom.A != 255 {
		t.Errorf("bottom row = %v, want red", bottom)
	}

	path := filepath.Join(t.TempDir(), CaptureFile)
	if err := WritePNG(path, img); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bounds() != b {
		t.Errorf("decoded bounds %v, want %v", decoded.Bounds(), b)
	}
}
