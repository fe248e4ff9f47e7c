package field

import (
	"errors"
	"math"
	"testing"
)

func TestField_SwapIsSelfInverse(t *testing.T) {
	f := New(4, 4, FormatRG, Linear)
	defer f.Release()
	r, w := f.Read(), f.Write()

	f.Swap()
	if f.Read() != w || f.Write() != r {
		t.Fatal("Swap did not exchange buffers")
	}
	f.Swap()
	if f.Read() != r || f.Write() != w {
		t.Fatal("double Swap is not identity")
	}
}

func TestField_ReadWriteNeverAlias(t *testing.T) {
	f := New(2, 2, FormatR, Nearest)
	defer f.Release()
	for i := 0; i < 3; i++ {
		if f.Read() == f.Write() {
			t.Fatalf("read and write alias after %d swaps", i)
		}
		f.Swap()
	}
}

func TestField_ResizeSameSizeNoop(t *testing.T) {
	f := New(8, 4, FormatRGBA, Linear)
	defer f.Release()
	r := f.Read()
	if f.Resize(8, 4) {
		t.Error("Resize to same size reported a change")
	}
	if f.Read() != r {
		t.Error("Resize to same size replaced the read buffer")
	}
}

func TestField_ResizePreservesUniformContent(t *testing.T) {
	for _, filter := range []Filter{Nearest, Linear} {
		t.Run(filter.String(), func(t *testing.T) {
			f := New(16, 8, FormatRGBA, filter)
			defer f.Release()
			f.Read().Fill(0.2, 0.4, 0.6, 1)

			if !f.Resize(5, 11) {
				t.Fatal("Resize reported no change")
			}
			if f.Width() != 5 || f.Height() != 11 {
				t.Fatalf("size = %dx%d, want 5x11", f.Width(), f.Height())
			}
			want := []float32{0.2, 0.4, 0.6, 1}
			for i, v := range f.Read().Data {
				if math.Abs(float64(v-want[i%4])) > 1e-6 {
					t.Fatalf("texel component %d = %v, want %v", i, v, want[i%4])
				}
			}
			for _, v := range f.Write().Data {
				if v != 0 {
					t.Fatal("write buffer not zeroed after resize")
				}
			}
		})
	}
}

func TestField_ResizeReleasesOldBuffers(t *testing.T) {
	before := Live()
	f := New(32, 32, FormatRG, Linear)
	old := f.Read()

	sizes := [][2]int{{16, 16}, {64, 32}, {8, 8}, {32, 32}, {128, 64}}
	for _, s := range sizes {
		f.Resize(s[0], s[1])
	}
	if !old.Released() {
		t.Error("original read buffer was not released")
	}
	if got := Live() - before; got != 2 {
		t.Errorf("live buffers = %d, want 2", got)
	}
	f.Release()
	if got := Live() - before; got != 0 {
		t.Errorf("live buffers after Release = %d, want 0", got)
	}
}

func TestBuffer_Sample(t *testing.T) {
	b := NewBuffer(2, 1, FormatR, Linear)
	defer b.Release()
	b.Data[0], b.Data[1] = 0, 1

	tests := []struct {
		name   string
		filter Filter
		u      float32
		want   float32
	}{
		{"linear midpoint", Linear, 0.5, 0.5},
		{"linear texel center", Linear, 0.25, 0},
		{"linear clamps left", Linear, 0, 0},
		{"linear clamps right", Linear, 1, 1},
		{"nearest left", Nearest, 0.49, 0},
		{"nearest right", Nearest, 0.51, 1},
		{"nearest outside", Nearest, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.Filter = tt.filter
			var out [1]float32
			b.Sample(tt.u, 0.5, out[:])
			if math.Abs(float64(out[0]-tt.want)) > 1e-6 {
				t.Errorf("Sample(%v) = %v, want %v", tt.u, out[0], tt.want)
			}
		})
	}
}

func TestNewBuffer_InvalidSizeClamped(t *testing.T) {
	b := NewBuffer(0, -3, FormatRGBA, Nearest)
	defer b.Release()
	if b.Width != 1 || b.Height != 1 || len(b.Data) != 4 {
		t.Errorf("got %dx%d with %d values, want 1x1 with 4", b.Width, b.Height, len(b.Data))
	}
}

func TestCaps_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		formats map[Format]bool
		want    Format
		wantErr bool
	}{
		{"direct", map[Format]bool{FormatR: true}, FormatR, false},
		{"falls back to rg", map[Format]bool{FormatRG: true, FormatRGBA: true}, FormatRG, false},
		{"falls back to rgba", map[Format]bool{FormatRGBA: true}, FormatRGBA, false},
		{"none", map[Format]bool{}, FormatR, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Caps{Formats: tt.formats}.Resolve(FormatR)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("err = %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Resolve = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestToHalf_KnownValues(t *testing.T) {
	tests := []struct {
		in   float32
		want uint16
	}{
		{0, 0x0000},
		{1, 0x3c00},
		{-2, 0xc000},
		{65504, 0x7bff},
		{1e6, 0x7c00},
		{float32(math.Ldexp(1, -24)), 0x0001},
	}
	for _, tt := range tests {
		if got := ToHalf(tt.in); got != tt.want {
			t.Errorf("ToHalf(%v) = %#04x, want %#04x", tt.in, got, tt.want)
		}
		if tt.want != 0x7c00 {
			if back := FromHalf(tt.want); back != tt.in {
				t.Errorf("FromHalf(%#04x) = %v, want %v", tt.want, back, tt.in)
			}
		}
	}
}

func TestQuantize(t *testing.T) {
	data := []float32{0.1, 0.5, 1000.3}
	Quantize(data)
	if data[1] != 0.5 {
		t.Errorf("0.5 changed to %v", data[1])
	}
	if math.Abs(float64(data[0])-0.1) > 1e-4 || data[0] == 0.1 {
		t.Errorf("0.1 quantized to %v", data[0])
	}
	if math.Abs(float64(data[2])-1000.3) > 0.5 {
		t.Errorf("1000.3 quantized to %v", data[2])
	}
}
