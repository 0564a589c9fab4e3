package systems

import "math"

const twoPi = 2 * math.Pi

// isPowerOfTwo reports whether n is a positive power of two.
func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// modInt returns a mod m in [0, m).
func modInt(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// wrap maps x into [0, max).
func wrap(x, max float32) float32 {
	r := x - max*float32(math.Floor(float64(x/max)))
	if r >= max {
		r -= max
	}
	if r < 0 {
		r = 0
	}
	return r
}

func cos32(a float32) float32 { return float32(math.Cos(float64(a))) }
func sin32(a float32) float32 { return float32(math.Sin(float64(a))) }
