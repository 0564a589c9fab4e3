// Package renderer maps trail fields to colour images and displays them.
package renderer

import (
	"image"
	"math"

	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/palette"
)

// FieldSource is a trail field as seen by the renderer.
type FieldSource interface {
	Data() []float32
	Width() int
	Height() int
	Quantile(fraction float32) float32
}

// Options controls the value-to-intensity mapping.
type Options struct {
	Quantile float32 // Reference quantile of each field
	Headroom float32 // Multiplier on the reference value
	InvGamma float32 // Exponent applied to normalised values
}

// DefaultOptions returns the stock mapping: 1.5 × p99.9 with gamma 2.2.
func DefaultOptions() Options {
	return Options{Quantile: 0.999, Headroom: 1.5, InvGamma: 1 / 2.2}
}

// OptionsFromConfig builds Options from the render section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Quantile: float32(cfg.Render.Quantile),
		Headroom: float32(cfg.Render.Headroom),
		InvGamma: cfg.Derived.InvGamma32,
	}
}

// Renderer composites fields into a reusable RGBA image.
type Renderer struct {
	opts  Options
	img   *image.RGBA
	accum []float32 // Per-pixel RGB accumulator, 3 floats per pixel
}

// New creates a renderer for width×height fields.
func New(width, height int, opts Options) *Renderer {
	return &Renderer{
		opts:  opts,
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		accum: make([]float32, 3*width*height),
	}
}

// Image returns the most recently rendered image. It is overwritten by Render.
func (r *Renderer) Image() *image.RGBA { return r.img }

// Render composites every field, tinted by its palette colour. Fields whose
// reference value is not positive contribute nothing.
func (r *Renderer) Render(fields []FieldSource, pal palette.Palette) *image.RGBA {
	clear(r.accum)

	for p, f := range fields {
		data := f.Data()
		if len(data)*3 != len(r.accum) {
			continue
		}
		ref := r.opts.Headroom * f.Quantile(r.opts.Quantile)
		if ref <= 0 {
			continue
		}
		inv := 1 / ref

		c := pal.Color(p)
		cr, cg, cb := float32(c.R), float32(c.G), float32(c.B)
		for i, v := range data {
			t := v * inv
			if t <= 0 {
				continue
			}
			if t > 1 {
				t = 1
			}
			t = float32(math.Pow(float64(t), float64(r.opts.InvGamma)))
			r.accum[3*i] += cr * t
			r.accum[3*i+1] += cg * t
			r.accum[3*i+2] += cb * t
		}
	}

	pix := r.img.Pix
	for i := 0; i < len(r.accum)/3; i++ {
		pix[4*i] = clampByte(r.accum[3*i])
		pix[4*i+1] = clampByte(r.accum[3*i+1])
		pix[4*i+2] = clampByte(r.accum[3*i+2])
		pix[4*i+3] = 255
	}
	return r.img
}

// Render is a one-shot convenience around Renderer.
func Render(fields []FieldSource, pal palette.Palette, opts Options) *image.RGBA {
	if len(fields) == 0 {
		return image.NewRGBA(image.Rectangle{})
	}
	return New(fields[0].Width(), fields[0].Height(), opts).Render(fields, pal)
}

func clampByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
