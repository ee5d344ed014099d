package simulation

import (
	"math"
	"testing"

	"github.com/crookler/crowd-dynamics/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrownian_PureDriftAtZeroTemperature(t *testing.T) {
	ps := []Particle{
		{Type: 0, Pos: geometry.Vector2D{X: 1, Y: 2}},
		{Type: 1, Pos: geometry.Vector2D{X: 3, Y: 0}},
	}
	s, err := NewState(geometry.Box{Lx: 30, Ly: 15, Periodic: true}, testTypes(), ps, 0.01, 0, 1)
	require.NoError(t, err)

	b := NewBrownian(mobileOnly(t, s.Types))
	b.Gamma = 2
	forces := []geometry.Vector2D{{X: 10, Y: -4}, {X: 100, Y: 100}}
	b.Step(s, forces)

	assert.InDelta(t, 1.05, s.Particles[0].Pos.X, 1e-12)
	assert.InDelta(t, 1.98, s.Particles[0].Pos.Y, 1e-12)
	assert.InDelta(t, 5, s.Particles[0].Vel.X, 1e-9)
	assert.InDelta(t, -2, s.Particles[0].Vel.Y, 1e-9)
	assert.Equal(t, geometry.Vector2D{X: 3, Y: 0}, s.Particles[1].Pos, "walls are not integrated")
	assert.Equal(t, geometry.Vector2D{}, s.Particles[1].Vel)
}

func TestBrownian_WrapsIntoTheBox(t *testing.T) {
	ps := []Particle{{Type: 0, Pos: geometry.Vector2D{X: 14.9}}}
	s, err := NewState(geometry.Box{Lx: 30, Ly: 15, Periodic: true}, testTypes(), ps, 1, 0, 1)
	require.NoError(t, err)

	NewBrownian(mobileOnly(t, s.Types)).Step(s, []geometry.Vector2D{{X: 0.2}})
	assert.InDelta(t, -14.9, s.Particles[0].Pos.X, 1e-9)
	assert.True(t, s.Box.Contains(s.Particles[0].Pos))
}

func TestBrownian_NoiseVariance(t *testing.T) {
	const n = 4000
	ps := make([]Particle, n)
	s, err := NewState(geometry.Box{Lx: 1000, Ly: 1000, Periodic: true}, testTypes(), ps, 1e-2, 1, 99)
	require.NoError(t, err)

	NewBrownian(mobileOnly(t, s.Types)).Step(s, make([]geometry.Vector2D, n))

	var sum, sumSq float64
	for _, p := range s.Particles {
		sum += p.Pos.X
		sumSq += p.Pos.X * p.Pos.X
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	// 2·kT·dt/γ = 0.02
	assert.InDelta(t, 0, mean, 0.02)
	assert.InEpsilon(t, 0.02, variance, 0.1)
}

func TestBrownian_RotationalDiffusion(t *testing.T) {
	ps := []Particle{{Type: 0, Heading: 1}, {Type: 1, Heading: 1}}
	s, err := NewState(geometry.Box{Lx: 30, Ly: 15, Periodic: true}, testTypes(), ps, 1e-3, 1, 5)
	require.NoError(t, err)

	b := NewBrownian(mobileOnly(t, s.Types))
	b.Step(s, make([]geometry.Vector2D, 2))
	assert.Equal(t, 1.0, s.Particles[0].Heading, "no rotational noise without GammaR")

	b.GammaR = 1
	b.Step(s, make([]geometry.Vector2D, 2))
	assert.NotEqual(t, 1.0, s.Particles[0].Heading)
	assert.LessOrEqual(t, math.Abs(s.Particles[0].Heading), math.Pi)
	assert.Equal(t, 1.0, s.Particles[1].Heading)
}

func TestBrownian_Validate(t *testing.T) {
	b := NewBrownian(nil)
	require.NoError(t, b.Validate())

	b.Gamma = 0
	assert.ErrorIs(t, b.Validate(), ErrInvalidParameter)

	b.Gamma, b.GammaR = 1, -1
	assert.ErrorIs(t, b.Validate(), ErrInvalidParameter)
}
