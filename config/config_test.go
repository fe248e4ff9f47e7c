package config

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	s := cfg.Simulation
	if s.SimResolution != 128 || s.DyeResolution != 1024 || s.CaptureResolution != 256 {
		t.Errorf("resolutions = %d/%d/%d, want 128/1024/256", s.SimResolution, s.DyeResolution, s.CaptureResolution)
	}
	if s.PressureIterations != 20 {
		t.Errorf("pressure_iterations = %d, want 20", s.PressureIterations)
	}
	if math.Abs(s.Pressure-0.6) > 1e-9 || s.Curl != 30 || s.SplatForce != 6000 {
		t.Errorf("unexpected solver defaults: %+v", s)
	}
	if s.Color != "White" || s.ColorIntensity != 100 || s.Paused {
		t.Errorf("unexpected color defaults: %+v", s)
	}
	if !cfg.Derived.FormatsEnabled["rg16f"] {
		t.Error("expected rg16f in derived format set")
	}
}

func TestLoad_MergesUserFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("simulation:\n  curl: 12\n  paused: true\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.Curl != 12 || !cfg.Simulation.Paused {
		t.Errorf("user values not applied: %+v", cfg.Simulation)
	}
	if cfg.Simulation.SimResolution != 128 {
		t.Errorf("default lost after merge: sim_resolution = %d", cfg.Simulation.SimResolution)
	}
}

func TestLoad_LinearFilteringFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("device:\n  linear_filtering: false\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.DyeResolution != FallbackDyeResolution {
		t.Errorf("dye_resolution = %d, want %d", cfg.Simulation.DyeResolution, FallbackDyeResolution)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	cfg, err := Defaults()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Simulation.VortexStrength = 42

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Simulation.VortexStrength != 42 {
		t.Errorf("vortex_strength = %v, want 42", back.Simulation.VortexStrength)
	}
}

func TestSimulationConfig_Apply(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr error
		check   func(s SimulationConfig) bool
		realloc bool
	}{
		{"float", "CURL", 12.0, nil, func(s SimulationConfig) bool { return s.Curl == 12 }, false},
		{"float clamped high", "SIM_SPEED", 9.0, nil, func(s SimulationConfig) bool { return s.SimSpeed == 5 }, false},
		{"float clamped low", "PRESSURE", -1.0, nil, func(s SimulationConfig) bool { return s.Pressure == 0 }, false},
		{"float snapped to step", "VORTEX_STRENGTH", 10.4, nil, func(s SimulationConfig) bool { return s.VortexStrength == 10 }, false},
		{"int accepted for float", "COLOR_INTENSITY", 50, nil, func(s SimulationConfig) bool { return s.ColorIntensity == 50 }, false},
		{"numeric string", "SPLAT_RADIUS", "0.5", nil, func(s SimulationConfig) bool { return math.Abs(s.SplatRadius-0.5) < 1e-9 }, false},
		{"json number", "CURL", json.Number("7"), nil, func(s SimulationConfig) bool { return s.Curl == 7 }, false},
		{"level", "DYE_RESOLUTION", 512.0, nil, func(s SimulationConfig) bool { return s.DyeResolution == 512 }, true},
		{"level unchanged", "SIM_RESOLUTION", 128, nil, func(s SimulationConfig) bool { return s.SimResolution == 128 }, false},
		{"level invalid", "SIM_RESOLUTION", 100.0, ErrInvalidValue, nil, false},
		{"bool", "PAUSED", true, nil, func(s SimulationConfig) bool { return s.Paused }, false},
		{"bool from number", "PAUSED", 1.0, nil, func(s SimulationConfig) bool { return s.Paused }, false},
		{"choice", "COLOR", "Magenta", nil, func(s SimulationConfig) bool { return s.Color == "Magenta" }, false},
		{"choice outside list kept", "COLOR", "Teal", nil, func(s SimulationConfig) bool { return s.Color == "Teal" }, false},
		{"choice wrong type", "COLOR", 3.0, ErrInvalidValue, nil, false},
		{"unknown key", "GRAVITY", 1.0, ErrUnknownKey, nil, false},
		{"read only", "PRESSURE_ITERATIONS", 40.0, ErrReadOnly, nil, false},
		{"nan rejected", "CURL", math.NaN(), ErrInvalidValue, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Defaults()
			if err != nil {
				t.Fatal(err)
			}
			s := cfg.Simulation
			before := s

			change, err := s.Apply(tt.key, tt.value)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Apply error = %v, want %v", err, tt.wantErr)
				}
				if s != before {
					t.Error("failed Apply mutated config")
				}
				return
			}
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if !tt.check(s) {
				t.Errorf("value not applied: %+v", s)
			}
			if change.Realloc != tt.realloc {
				t.Errorf("Realloc = %v, want %v", change.Realloc, tt.realloc)
			}
		})
	}
}

func TestSimulationConfig_Diff(t *testing.T) {
	a, _ := Defaults()
	b, _ := Defaults()
	b.Simulation.Curl = 1
	b.Simulation.Color = "Cyan"

	got := a.Simulation.Diff(&b.Simulation)
	want := []string{"COLOR", "CURL"}
	if len(got) != len(want) {
		t.Fatalf("Diff = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Diff[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLookup_AllParamsHaveAccessor(t *testing.T) {
	cfg, _ := Defaults()
	for _, p := range Params {
		if _, ok := cfg.Simulation.Value(p.Key); !ok {
			t.Errorf("param %s has no accessor", p.Key)
		}
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("simulation:\n  curl: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { reloaded <- c })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("simulation:\n  curl: 9\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-reloaded:
			if c.Simulation.Curl == 9 {
				cancel()
				if err := <-done; err != nil {
					t.Errorf("Watch returned %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
}
