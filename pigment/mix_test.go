package pigment

import (
	"math"
	"testing"
)

func near(a, b, tol float32) bool {
	return math.Abs(float64(a-b)) <= float64(tol)
}

func nearRGBA(a, b RGBA, tol float32) bool {
	for i := range a {
		if !near(a[i], b[i], tol) {
			return false
		}
	}
	return true
}

func TestLatent_RoundTrip(t *testing.T) {
	colors := []RGBA{
		White,
		{0.5, 0.5, 0.5, 1},
		{1, MinReflectance, MinReflectance, 1},
		{0.2, 0.7, 0.9, 0.5},
	}
	for _, c := range colors {
		got := LatentToRGB(RGBToLatent(c))
		if !nearRGBA(got, c, 1e-4) {
			t.Errorf("round trip %v = %v", c, got)
		}
	}
}

func TestRGBToLatent_WhiteIsZero(t *testing.T) {
	l := RGBToLatent(White)
	if l[0] != 0 || l[1] != 0 || l[2] != 0 {
		t.Errorf("white latent = %v, want zero absorption", l)
	}
}

func TestLerp_Endpoints(t *testing.T) {
	a := RGBA{0.9, 0.3, 0.1, 1}
	b := RGBA{0.1, 0.6, 0.8, 1}
	if got := Lerp(a, b, 0); !nearRGBA(got, a, 1e-4) {
		t.Errorf("Lerp(t=0) = %v, want %v", got, a)
	}
	if got := Lerp(a, b, 1); !nearRGBA(got, b, 1e-4) {
		t.Errorf("Lerp(t=1) = %v, want %v", got, b)
	}
}

func TestLerp_Subtractive(t *testing.T) {
	cyan := GenerateColor(Cyan, 1)
	yellow := GenerateColor(Yellow, 1)

	green := Lerp(cyan, yellow, 0.5)
	if green[1] <= green[0] || green[1] <= green[2] {
		t.Errorf("cyan+yellow = %v, want green dominant", green)
	}

	// A linear RGB blend of these would be (0.5, 1, 0.5).
	if green[0] >= 0.5 {
		t.Errorf("red channel %v not darkened by mixing", green[0])
	}
}

func TestLerp_AlphaIsLinear(t *testing.T) {
	got := Lerp(RGBA{1, 1, 1, 0}, RGBA{1, 1, 1, 1}, 0.25)
	if !near(got[3], 0.25, 1e-6) {
		t.Errorf("alpha = %v, want 0.25", got[3])
	}
}

func TestLerp_TowardWhiteConverges(t *testing.T) {
	c := RGBA{0.2, 0.1, 0.8, 1}
	for i := 0; i < 200; i++ {
		c = Lerp(c, White, 0.1)
	}
	if !nearRGBA(c, White, 1e-3) {
		t.Errorf("after repeated fades c = %v, want white", c)
	}
}

func TestBilerp_Corners(t *testing.T) {
	c00 := RGBA{1, 0, 0, 1}
	c10 := RGBA{0, 1, 0, 1}
	c01 := RGBA{0, 0, 1, 1}
	c11 := White

	tests := []struct {
		tx, ty float32
		want   RGBA
	}{
		{0, 0, c00},
		{1, 0, c10},
		{0, 1, c01},
		{1, 1, c11},
	}
	for _, tt := range tests {
		got := Bilerp(c00, c10, c01, c11, tt.tx, tt.ty)
		if !nearRGBA(got, tt.want, 5e-3) {
			t.Errorf("Bilerp(%v,%v) = %v, want %v", tt.tx, tt.ty, got, tt.want)
		}
	}
}

func TestGenerateColor(t *testing.T) {
	tests := []struct {
		category  string
		intensity float32
		want      RGBA
	}{
		{Cyan, 1, RGBA{0, 1, 1, 1}},
		{Magenta, 0.5, RGBA{1, 0.5, 1, 1}},
		{Yellow, 0.25, RGBA{1, 1, 0.75, 1}},
		{Black, 1, RGBA{0, 0, 0, 1}},
		{Black, 0, White},
		{"White", 1, White},
		{"", 1, White},
		{"Teal", 0.7, White},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			if got := GenerateColor(tt.category, tt.intensity); got != tt.want {
				t.Errorf("GenerateColor(%q, %v) = %v, want %v", tt.category, tt.intensity, got, tt.want)
			}
		})
	}
}
