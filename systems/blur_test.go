package systems

import (
	"math"
	"slices"
	"testing"
)

func TestBoxRadii(t *testing.T) {
	tests := []struct {
		sigma float64
		n     int
		want  []int
	}{
		{0, 2, []int{0, 0}},
		{1, 2, []int{0, 1}},
		{2, 2, []int{2, 2}},
		{3, 3, []int{2, 2, 3}},
	}
	for _, tt := range tests {
		if got := boxRadii(tt.sigma, tt.n); !slices.Equal(got, tt.want) {
			t.Errorf("boxRadii(%v, %d) = %v, want %v", tt.sigma, tt.n, got, tt.want)
		}
	}
}

func TestDiffuseRadiusZeroOnlyDecays(t *testing.T) {
	const v, d = float32(5), float32(0.5)
	f := newTestField(t, 16, 16, PopulationConfig{DepositionAmount: v, DecayFactor: d})

	f.Deposit(7, 9)
	f.Diffuse(0)

	idx := f.Index(7, 9)
	if got := f.Data()[idx]; got != v*d {
		t.Errorf("expected exactly v·d = %v at deposit cell, got %v", v*d, got)
	}
	if got := f.Mass(); got != v*d {
		t.Errorf("expected mass %v, got %v", v*d, got)
	}
}

func TestDiffuseRadiusOneSpreadsAndConservesMass(t *testing.T) {
	const v, d = float32(5), float32(0.5)
	f := newTestField(t, 16, 16, PopulationConfig{DepositionAmount: v, DecayFactor: d})

	f.Deposit(0, 0) // corner, so the kernel wraps both axes
	f.Diffuse(1)

	want := v * d / 9
	for _, off := range [][2]float32{{0, 0}, {-1, 0}, {1, 0}, {0, -1}, {0, 1}, {-1, -1}, {1, 1}, {15, 15}} {
		if got := f.Data()[f.Index(off[0], off[1])]; math.Abs(float64(got-want)) > 1e-5 {
			t.Errorf("cell %v: expected %v, got %v", off, want, got)
		}
	}
	if got := f.Data()[f.Index(2, 0)]; math.Abs(float64(got)) > 1e-5 {
		t.Errorf("expected cell outside 3x3 kernel to stay ~0, got %v", got)
	}
	if got := f.Mass(); math.Abs(float64(got-v*d)) > 1e-4 {
		t.Errorf("expected mass v·d = %v, got %v", v*d, got)
	}
}

func TestDiffuseUniformFieldStaysUniform(t *testing.T) {
	f := newTestField(t, 32, 16, PopulationConfig{DecayFactor: 0.9})
	for i := range f.Data() {
		f.Data()[i] = 2
	}

	f.Diffuse(3)

	for i, got := range f.Data() {
		if math.Abs(float64(got-1.8)) > 1e-4 {
			t.Fatalf("data[%d] = %v, want 1.8", i, got)
		}
	}
}

func TestDiffuseRadiusLargerThanField(t *testing.T) {
	f := newTestField(t, 4, 4, PopulationConfig{DepositionAmount: 16, DecayFactor: 1})
	f.Deposit(1, 1)
	f.Diffuse(8)

	for i, got := range f.Data() {
		if math.IsNaN(float64(got)) || math.IsInf(float64(got), 0) {
			t.Fatalf("data[%d] is not finite: %v", i, got)
		}
	}
	if got := f.Mass(); math.Abs(float64(got-16)) > 1e-3 {
		t.Errorf("expected mass 16, got %v", got)
	}
}

func BenchmarkBoxBlur512(b *testing.B) {
	data := make([]float32, 512*512)
	scratch := make([]float32, len(data))
	for i := range data {
		data[i] = float32(i%97) * 0.01
	}
	blur := NewBoxBlur()

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		blur.Diffuse(data, scratch, 512, 512, 1, 0.99)
	}
}
