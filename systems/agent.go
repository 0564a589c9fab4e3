package systems

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
)

// Agent is a single foraging particle.
type Agent struct {
	X, Y       float32
	Angle      float32 // Heading in radians, [0, 2π)
	Population int     // Index of the agent's trail field
	ID         uint64  // Position in the engine's agent list
}

// NewAgent places an agent uniformly at random on a width×height field.
func NewAgent(id uint64, population, width, height int, rng *rand.Rand) Agent {
	return Agent{
		X:          rng.Float32() * float32(width),
		Y:          rng.Float32() * float32(height),
		Angle:      rng.Float32() * twoPi,
		Population: population,
		ID:         id,
	}
}

// TieBreak maps an agent identity to -1 or +1. It is a pure hash, so an
// agent facing a local minimum always turns the same way.
func TieBreak(id uint64) float32 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], id)
	if xxhash.Sum64(b[:])&1 == 0 {
		return -1
	}
	return 1
}

// PickDirection chooses a turn (-1, 0, +1) from the three sensor readings.
// tieBreak is used when the centre sensor is below both sides.
func PickDirection(center, left, right, tieBreak float32) float32 {
	switch {
	case center > left && center > right:
		return 0
	case center < left && center < right:
		return tieBreak
	case left < right:
		return 1
	case right < left:
		return -1
	default:
		return 0
	}
}

// Sense reads the combined signal at the centre, left and right sensors.
func (a *Agent) Sense(f *TrailField) (center, left, right float32) {
	dist := f.config.SensorDistance
	angle := f.config.SensorAngle

	center = f.ReadCombined(a.X+cos32(a.Angle)*dist, a.Y+sin32(a.Angle)*dist)
	left = f.ReadCombined(a.X+cos32(a.Angle-angle)*dist, a.Y+sin32(a.Angle-angle)*dist)
	right = f.ReadCombined(a.X+cos32(a.Angle+angle)*dist, a.Y+sin32(a.Angle+angle)*dist)
	return center, left, right
}

// RotateAndMove turns by direction×rotation, then steps along the new heading.
// Position is wrapped into [0,width)×[0,height).
func (a *Agent) RotateAndMove(direction, rotation, step float32, width, height int) {
	a.Angle = wrap(a.Angle+direction*rotation, twoPi)
	a.X = wrap(a.X+step*cos32(a.Angle), float32(width))
	a.Y = wrap(a.Y+step*sin32(a.Angle), float32(height))
}

// Update senses the population's field, steers and moves. It writes only to a.
func (a *Agent) Update(f *TrailField) {
	c, l, r := a.Sense(f)
	dir := PickDirection(c, l, r, TieBreak(a.ID))
	a.RotateAndMove(dir, f.config.RotationAngle, f.config.StepDistance, f.width, f.height)
}
