package main

import (
	"math"
	"slices"
	"testing"

	"github.com/pthm-cable/inkflow/mixer"
	"github.com/pthm-cable/inkflow/sim"
)

func TestParamVector_NormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector(25)
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: got %v, want %v", pv.Specs[i].Name, back[i], raw[i])
		}
	}
}

func TestParamVector_RecipeClamps(t *testing.T) {
	pv := NewParamVector(25)
	x := []float64{-3, 150, 30, 1, 12, 50, 0, 2, 60, 90}
	r := pv.Recipe(x)

	want := mixer.Recipe{
		Cyan:        mixer.Dose{Volume: 0, Strength: 100},
		Magenta:     mixer.Dose{Volume: 25, Strength: 2},
		Yellow:      mixer.Dose{Volume: 12, Strength: 50},
		Black:       mixer.Dose{Volume: 0, Strength: 2},
		MixingTime:  45,
		MixingSpeed: 100,
	}
	if r != want {
		t.Errorf("Recipe = %+v, want %+v", r, want)
	}
	if got := pv.Values(r); !slices.Equal(got, pv.Clamp(x)) {
		t.Errorf("Values = %v, want %v", got, pv.Clamp(x))
	}
}

func TestParseRGB(t *testing.T) {
	tests := []struct {
		in      string
		want    sim.RGB
		wantErr bool
	}{
		{"120,140,200", sim.RGB{R: 120, G: 140, B: 200}, false},
		{" 0, 255 ,7", sim.RGB{R: 0, G: 255, B: 7}, false},
		{"1,2", sim.RGB{}, true},
		{"1,2,256", sim.RGB{}, true},
		{"a,b,c", sim.RGB{}, true},
	}
	for _, tt := range tests {
		got, err := parseRGB(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRGB(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseRGB(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestAverage(t *testing.T) {
	got := average([]mixer.Result{
		{Color: sim.RGB{R: 100, G: 10, B: 0}, Distance: 2, Loss: 0.1},
		{Color: sim.RGB{R: 101, G: 20, B: 0}, Distance: 4, Loss: 0.3},
	})
	if got.Color != (sim.RGB{R: 101, G: 15, B: 0}) {
		t.Errorf("Color = %+v", got.Color)
	}
	if got.Distance != 3 || math.Abs(got.Loss-0.2) > 1e-12 {
		t.Errorf("Distance = %v, Loss = %v", got.Distance, got.Loss)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(75e9); got != "1m15s" {
		t.Errorf("formatDuration(75s) = %q", got)
	}
	if got := formatDuration(3725e9); got != "1h02m05s" {
		t.Errorf("formatDuration(3725s) = %q", got)
	}
}
