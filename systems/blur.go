package systems

import (
	"math"

	"gonum.org/v1/gonum/blas/blas32"
)

// Diffuser spatially smooths a toroidal grid and applies a decay multiplier.
// scratch has the same length as data; the result ends in data.
type Diffuser interface {
	Diffuse(data, scratch []float32, width, height, radius int, decay float32)
}

// BoxBlur approximates a Gaussian blur of sigma = radius with successive box
// blurs. Each box is a horizontal pass into scratch followed by a vertical
// pass back into data, both wrapping at the edges.
type BoxBlur struct {
	Passes int
}

// NewBoxBlur returns a two-pass box blur.
func NewBoxBlur() *BoxBlur {
	return &BoxBlur{Passes: 2}
}

// Diffuse implements Diffuser. Radius 0 leaves the grid unspread and only
// applies the decay.
func (b *BoxBlur) Diffuse(data, scratch []float32, width, height, radius int, decay float32) {
	for _, r := range boxRadii(float64(radius), b.Passes) {
		if r == 0 {
			continue
		}
		boxBlurH(data, scratch, width, height, r)
		boxBlurV(scratch, data, width, height, r)
	}
	if decay != 1 {
		blas32.Scal(decay, blas32.Vector{N: len(data), Inc: 1, Data: data})
	}
}

// boxRadii returns the radii of n box blurs whose composition approximates
// a Gaussian with the given sigma.
func boxRadii(sigma float64, n int) []int {
	if n < 1 {
		n = 1
	}
	nf := float64(n)
	wIdeal := math.Sqrt(12*sigma*sigma/nf + 1)
	wl := int(math.Floor(wIdeal))
	if wl%2 == 0 {
		wl--
	}
	wu := wl + 2

	wlf := float64(wl)
	mIdeal := (12*sigma*sigma - nf*wlf*wlf - 4*nf*wlf - 3*nf) / (-4*wlf - 4)
	m := int(math.Round(mIdeal))

	radii := make([]int, n)
	for i := range radii {
		size := wu
		if i < m {
			size = wl
		}
		radii[i] = (size - 1) / 2
	}
	return radii
}

// boxBlurH averages each cell with its r horizontal neighbours on either side.
func boxBlurH(src, dst []float32, w, h, r int) {
	scale := 1 / float32(2*r+1)
	for y := 0; y < h; y++ {
		row := src[y*w : (y+1)*w]
		out := dst[y*w : (y+1)*w]

		var acc float32
		for k := -r; k <= r; k++ {
			acc += row[modInt(k, w)]
		}
		for x := 0; x < w; x++ {
			out[x] = acc * scale
			acc += row[modInt(x+r+1, w)] - row[modInt(x-r, w)]
		}
	}
}

// boxBlurV averages each cell with its r vertical neighbours on either side.
func boxBlurV(src, dst []float32, w, h, r int) {
	scale := 1 / float32(2*r+1)
	for x := 0; x < w; x++ {
		var acc float32
		for k := -r; k <= r; k++ {
			acc += src[modInt(k, h)*w+x]
		}
		for y := 0; y < h; y++ {
			dst[y*w+x] = acc * scale
			acc += src[modInt(y+r+1, h)*w+x] - src[modInt(y-r, h)*w+x]
		}
	}
}
