package ui

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/inkflow/config"
)

func TestOverlayRegistry_Defaults(t *testing.T) {
	reg := NewOverlayRegistry()

	if !reg.IsEnabled(OverlayControls) || !reg.IsEnabled(OverlayHUD) {
		t.Error("controls and HUD should start enabled")
	}
	if reg.IsEnabled(OverlayInspector) || reg.IsEnabled(OverlayPerf) || reg.IsEnabled(OverlayHistory) {
		t.Error("debug panels should start disabled")
	}

	// Simulation bindings must stay free
	for _, key := range []int32{rl.KeyP, rl.KeySpace, rl.KeyC, rl.KeyS} {
		for _, desc := range reg.All() {
			if desc.Key == key {
				t.Errorf("overlay %s is bound to simulation key %d", desc.ID, key)
			}
		}
	}
}

func TestOverlayRegistry_Exclusive(t *testing.T) {
	reg := NewOverlayRegistry()

	reg.Toggle(OverlayInspector)
	if !reg.IsEnabled(OverlayInspector) {
		t.Fatal("inspector should be enabled")
	}

	id, state, ok := reg.HandleKeyPress(rl.KeyF)
	if !ok || id != OverlayPerf || !state {
		t.Fatalf("HandleKeyPress(F) = %v, %v, %v", id, state, ok)
	}
	if reg.IsEnabled(OverlayInspector) {
		t.Error("enabling perf should disable the inspector")
	}

	if _, _, ok := reg.HandleKeyPress(rl.KeyZ); ok {
		t.Error("unbound key should not toggle anything")
	}
}

func TestOverlayRegistry_EnabledOrder(t *testing.T) {
	reg := NewOverlayRegistry()
	reg.SetEnabled(OverlayHistory, true)

	got := reg.EnabledOverlays()
	want := []OverlayID{OverlayControls, OverlayHUD, OverlayHistory}
	if len(got) != len(want) {
		t.Fatalf("EnabledOverlays = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("EnabledOverlays[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestEditFor(t *testing.T) {
	param := func(key string) *config.Param {
		p, ok := config.Lookup(key)
		if !ok {
			t.Fatalf("missing param %s", key)
		}
		return p
	}

	tests := []struct {
		name    string
		key     string
		current any
		widget  any
		want    any
		changed bool
	}{
		{"slider untouched", "CURL", 30.0, float32(30), nil, false},
		{"slider moved", "CURL", 30.0, float32(12), 12.0, true},
		{"level untouched", "DYE_RESOLUTION", 1024, int32(0), nil, false},
		{"level picked", "DYE_RESOLUTION", 1024, int32(2), 256, true},
		{"level out of range", "SIM_RESOLUTION", 128, int32(9), nil, false},
		{"level unlisted shows first", "DYE_RESOLUTION", 300, int32(0), nil, false},
		{"checkbox toggled", "PAUSED", false, true, true, true},
		{"checkbox untouched", "PAUSED", true, true, nil, false},
		{"choice picked", "COLOR", "Cyan", int32(3), "Black", true},
		{"choice unlisted shows first", "COLOR", "Teal", int32(0), nil, false},
		{"wrong widget type", "CURL", 30.0, true, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edit, ok := editFor(param(tt.key), tt.current, tt.widget)
			if ok != tt.changed {
				t.Fatalf("changed = %v, want %v", ok, tt.changed)
			}
			if !ok {
				return
			}
			if edit.Key != tt.key || edit.Value != tt.want {
				t.Errorf("edit = %+v, want %s=%v", edit, tt.key, tt.want)
			}
		})
	}
}

func TestBarRatio(t *testing.T) {
	tests := []struct {
		value float32
		rng   FieldRange
		want  float32
	}{
		{0.5, FieldRange{Min: 0, Max: 1}, 0.5},
		{-1, FieldRange{Min: 0, Max: 1}, 0},
		{300, ByteRange(), 1},
		{51, ByteRange(), 0.2},
		{1, FieldRange{Min: 1, Max: 1}, 0},
	}
	for _, tt := range tests {
		if got := BarRatio(tt.value, tt.rng); got != tt.want {
			t.Errorf("BarRatio(%v, %+v) = %v, want %v", tt.value, tt.rng, got, tt.want)
		}
	}
}

func TestSectionDescriptor_HeightHidden(t *testing.T) {
	theme := DefaultTheme()
	sections := hudSections()

	without := HUDData{}
	with := HUDData{HasStats: true}
	if h := sections[1].Height(without, theme); h != 0 {
		t.Errorf("hidden dye section height = %d, want 0", h)
	}
	if sections[1].Height(with, theme) <= 0 {
		t.Error("visible dye section should take space")
	}
}
