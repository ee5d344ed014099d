package simulation

import (
	"math"
	"testing"

	"github.com/crookler/crowd-dynamics/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSteering_UsesTwoArgumentArctangent(t *testing.T) {
	ps := []Particle{{Type: 0, Pos: geometry.Vector2D{X: -5, Y: 5}, Heading: 1}}
	s, err := NewState(geometry.Box{Lx: 30, Ly: 15, Periodic: true}, testTypes(), ps, 1e-6, 1, 1)
	require.NoError(t, err)

	NewSteering(geometry.Vector2D{}, mobileOnly(t, s.Types)).Update(s)

	got := s.Particles[0].Heading
	assert.InDelta(t, math.Atan2(-5, 5), got, 1e-12)
}

func TestSteering_AllQuadrants(t *testing.T) {
	door := geometry.Vector2D{X: 0, Y: 0}
	tests := []struct {
		name string
		pos  geometry.Vector2D
		want float64
	}{
		{"left of door", geometry.Vector2D{X: -4}, 0},
		{"right of door", geometry.Vector2D{X: 4}, math.Pi}, // atan(dy/dx) would give 0
		{"below-left", geometry.Vector2D{X: -3, Y: -3}, math.Pi / 4},
		{"above-right", geometry.Vector2D{X: 3, Y: 3}, -3 * math.Pi / 4},
		{"below", geometry.Vector2D{Y: -2}, math.Pi / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := []Particle{{Type: 0, Pos: tt.pos}}
			s, err := NewState(geometry.Box{Lx: 30, Ly: 15}, testTypes(), ps, 1e-6, 1, 1)
			require.NoError(t, err)
			NewSteering(door, mobileOnly(t, s.Types)).Update(s)
			assert.InDelta(t, tt.want, s.Particles[0].Heading, 1e-12)
		})
	}
}

func TestSteering_KeepsHeadingOnTheDoor(t *testing.T) {
	ps := []Particle{{Type: 0, Pos: geometry.Vector2D{X: 1e-12, Y: -1e-12}, Heading: 0.7}}
	s, err := NewState(geometry.Box{Lx: 30, Ly: 15, Periodic: true}, testTypes(), ps, 1e-6, 1, 1)
	require.NoError(t, err)

	NewSteering(geometry.Vector2D{}, mobileOnly(t, s.Types)).Update(s)
	assert.Equal(t, 0.7, s.Particles[0].Heading)
}

func TestSteering_OnlyTouchesFilteredHeadings(t *testing.T) {
	s := evacuationState(t, 1)
	before := s.Snapshot()

	NewSteering(geometry.Vector2D{X: 0, Y: 0}, mobileOnly(t, s.Types)).Update(s)

	for i, p := range s.Particles {
		old := before.Particles[i]
		assert.Equal(t, old.Pos, p.Pos)
		assert.Equal(t, old.Vel, p.Vel)
		if p.Type != 0 {
			assert.Equal(t, old.Heading, p.Heading, "particle %d of type %s", i, s.Types.Name(p.Type))
		}
	}
	// every pedestrian starts left of the door and must now face +x
	for _, p := range s.Particles[:100] {
		assert.Less(t, math.Abs(p.Heading), math.Pi/2)
	}
}
