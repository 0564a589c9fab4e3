package systems

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/blas/blas32"
)

// ErrNotPowerOfTwo is returned when a field dimension is not a power of two.
var ErrNotPowerOfTwo = errors.New("field dimensions must be powers of two")

// float32Epsilon is the gap between 1 and the next float32.
const float32Epsilon = 1.1920929e-07

// TrailField is one population's toroidal trail grid.
//
// data holds the deposited trail. buf has two roles that never overlap in
// time: scratch space while diffusing, and the combined (attraction-weighted)
// signal agents sense between the combine and deposit phases.
type TrailField struct {
	width, height int

	data []float32
	buf  []float32

	config   PopulationConfig
	diffuser Diffuser
}

// NewTrailField creates a zeroed field. Dimensions must be powers of two
// because Index wraps with a bitmask.
func NewTrailField(width, height int, cfg PopulationConfig, diffuser Diffuser) (*TrailField, error) {
	if !isPowerOfTwo(width) || !isPowerOfTwo(height) {
		return nil, fmt.Errorf("%w: got %dx%d", ErrNotPowerOfTwo, width, height)
	}
	if diffuser == nil {
		diffuser = NewBoxBlur()
	}
	return &TrailField{
		width:    width,
		height:   height,
		data:     make([]float32, width*height),
		buf:      make([]float32, width*height),
		config:   cfg,
		diffuser: diffuser,
	}, nil
}

// Seed fills data with uniform random values in [0, 1).
func (f *TrailField) Seed(rng *rand.Rand) {
	for i := range f.data {
		f.data[i] = rng.Float32()
	}
}

// Reset zeroes both buffers.
func (f *TrailField) Reset() {
	clear(f.data)
	clear(f.buf)
}

// Index truncates x and y and returns the row-major cell index. Coordinates
// are shifted by one period before masking, so values down to -width/-height
// wrap correctly. Larger negative excursions are not handled.
func (f *TrailField) Index(x, y float32) int {
	i := int(x+float32(f.width)) & (f.width - 1)
	j := int(y+float32(f.height)) & (f.height - 1)
	return j*f.width + i
}

// ReadCombined returns the combined signal at a position.
func (f *TrailField) ReadCombined(x, y float32) float32 {
	return f.buf[f.Index(x, y)]
}

// Deposit adds the population's deposition amount at a position.
func (f *TrailField) Deposit(x, y float32) {
	f.data[f.Index(x, y)] += f.config.DepositionAmount
}

// Diffuse blurs data with the given radius and applies the decay factor.
func (f *TrailField) Diffuse(radius int) {
	f.diffuser.Diffuse(f.data, f.buf, f.width, f.height, radius, f.config.DecayFactor)
}

// Quantile returns the value at the given fractional rank of data.
// fraction 1 is exactly the maximum and 0 exactly the minimum.
func (f *TrailField) Quantile(fraction float32) float32 {
	n := len(f.data)
	var k int
	if math.Abs(float64(fraction-1)) < float32Epsilon {
		k = n - 1
	} else {
		k = int(float32(n) * fraction)
	}
	k = min(max(k, 0), n-1)
	return selectNth(slices.Clone(f.data), k)
}

// Mass returns the total trail in data. Trail values are non-negative.
func (f *TrailField) Mass() float32 {
	return blas32.Asum(blas32.Vector{N: len(f.data), Inc: 1, Data: f.data})
}

// Data returns the trail grid, row-major. Callers must not retain it across Step.
func (f *TrailField) Data() []float32 { return f.data }

// Buf returns the combined-signal grid.
func (f *TrailField) Buf() []float32 { return f.buf }

// Width returns the field width in cells.
func (f *TrailField) Width() int { return f.width }

// Height returns the field height in cells.
func (f *TrailField) Height() int { return f.height }

// Config returns the population config.
func (f *TrailField) Config() PopulationConfig { return f.config }

// SetConfig replaces the population config.
func (f *TrailField) SetConfig(cfg PopulationConfig) { f.config = cfg }
