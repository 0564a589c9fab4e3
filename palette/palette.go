// Package palette holds the fixed registry of colour palettes used to tint
// population trail fields. The registry is built once at package init and
// never mutated; callers refer to palettes by index.
package palette

import (
	"errors"
	"fmt"
	"image/color"
)

// ErrUnknownPalette is returned when a palette index is out of range.
var ErrUnknownPalette = errors.New("unknown palette")

// Palette is a named list of population colours.
type Palette struct {
	Name   string
	Colors []color.RGBA
}

// Color returns the colour for a population, cycling when there are more
// populations than colours.
func (p Palette) Color(population int) color.RGBA {
	return p.Colors[population%len(p.Colors)]
}

func hex(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

var registry = []Palette{
	{Name: "ember", Colors: []color.RGBA{hex(0xfa2b31), hex(0xffbf1f), hex(0xfff146), hex(0xabe319), hex(0x00c481)}},
	{Name: "lagoon", Colors: []color.RGBA{hex(0x05668d), hex(0x028090), hex(0x00a896), hex(0x02c39a), hex(0xf0f3bd)}},
	{Name: "dusk", Colors: []color.RGBA{hex(0x9b5de5), hex(0xf15bb5), hex(0xfee440), hex(0x00bbf9), hex(0x00f5d4)}},
	{Name: "sandstone", Colors: []color.RGBA{hex(0xe63946), hex(0xf1faee), hex(0xa8dadc), hex(0x457b9d), hex(0x1d3557)}},
	{Name: "moss", Colors: []color.RGBA{hex(0x606c38), hex(0x283618), hex(0xfefae0), hex(0xdda15e), hex(0xbc6c25)}},
	{Name: "neon", Colors: []color.RGBA{hex(0xff006e), hex(0xfb5607), hex(0xffbe0b), hex(0x3a86ff), hex(0x8338ec)}},
	{Name: "glacier", Colors: []color.RGBA{hex(0xcaf0f8), hex(0x90e0ef), hex(0x00b4d8), hex(0x0077b6), hex(0x03045e)}},
	{Name: "spore", Colors: []color.RGBA{hex(0xf4f1de), hex(0xe07a5f), hex(0x3d405b), hex(0x81b29a), hex(0xf2cc8f)}},
}

// Count returns the number of registered palettes.
func Count() int { return len(registry) }

// Validate reports whether index resolves to a registered palette.
func Validate(index int) error {
	if index < 0 || index >= len(registry) {
		return fmt.Errorf("%w: index %d not in [0,%d)", ErrUnknownPalette, index, len(registry))
	}
	return nil
}

// Get returns the palette at index.
func Get(index int) (Palette, error) {
	if err := Validate(index); err != nil {
		return Palette{}, err
	}
	return registry[index], nil
}

// Names returns the registered palette names in index order.
func Names() []string {
	names := make([]string, len(registry))
	for i, p := range registry {
		names[i] = p.Name
	}
	return names
}
