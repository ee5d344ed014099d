package simulation

import (
	"testing"

	"github.com/crookler/crowd-dynamics/pkg/geometry"
	"github.com/stretchr/testify/require"
)

func testTypes() TypeTable {
	return TypeTable{TypeMobile, TypeWall, TypeAttractor}
}

// evacuationState lays out the attractor scenario: a 10x10 crowd left of a
// wall at x=0 with a two-slot door, and an attractor at (-15, 0).
func evacuationState(t testing.TB, seed uint64) *State {
	t.Helper()
	var ps []Particle
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			ps = append(ps, Particle{Type: 0, Pos: geometry.Vector2D{X: float64(i) - 12 + 0.5, Y: float64(j) - 5 + 0.5}})
		}
	}
	for i := 0; i < 16; i++ {
		if i < 7 || i > 8 {
			ps = append(ps, Particle{Type: 1, Pos: geometry.Vector2D{X: 0, Y: float64(i) - 7.5}})
		}
	}
	ps = append(ps, Particle{Type: 2, Pos: geometry.Vector2D{X: -15, Y: 0}})

	st, err := NewState(geometry.Box{Lx: 30, Ly: 15, Periodic: true}, testTypes(), ps, 1e-6, 1, seed)
	require.NoError(t, err)
	return st
}

func collisionModel() *LJ {
	m := NewLJ("collision", 0.75)
	m.Set(0, 0, PairParams{Epsilon: 1, Sigma: 1})
	m.Set(0, 1, PairParams{Epsilon: 1, Sigma: 1})
	m.Set(1, 1, PairParams{Epsilon: 0, Sigma: 1})
	m.Set(0, 2, PairParams{Epsilon: 0, Sigma: 1})
	m.Set(1, 2, PairParams{Epsilon: 0, Sigma: 1})
	m.Set(2, 2, PairParams{Epsilon: 0, Sigma: 1})
	return m
}

func attractorModel() *LJ {
	m := NewLJ("attractor", 6)
	m.Set(0, 0, PairParams{Epsilon: 0, Sigma: 1})
	m.Set(0, 2, PairParams{Epsilon: 500, Sigma: 1})
	m.Set(2, 2, PairParams{Epsilon: 0, Sigma: 1})
	m.Set(1, 2, PairParams{Epsilon: 0, Sigma: 1})
	m.Set(0, 1, PairParams{Epsilon: 0, Sigma: 1})
	m.Set(1, 1, PairParams{Epsilon: 0, Sigma: 1})
	return m
}

func activeModel() *Active {
	a := NewActive()
	a.Set(0, geometry.Vector2D{X: 30})
	return a
}

func mobileOnly(t testing.TB, tt TypeTable) TypeSet {
	t.Helper()
	set, err := NewTypeSet(tt, TypeMobile)
	require.NoError(t, err)
	return set
}

// twoParticles places an A at the origin and a second particle of type other at (r, 0).
func twoParticles(t testing.TB, other TypeID, r float64) *State {
	t.Helper()
	ps := []Particle{
		{Type: 0, Pos: geometry.Vector2D{}},
		{Type: other, Pos: geometry.Vector2D{X: r}},
	}
	st, err := NewState(geometry.Box{Lx: 30, Ly: 15, Periodic: true}, testTypes(), ps, 1e-6, 1, 1)
	require.NoError(t, err)
	return st
}

func builtList(t testing.TB, s *State, cutoff float64) *CellList {
	t.Helper()
	nl, err := NewCellList(s.Box, cutoff, 0.5, 0)
	require.NoError(t, err)
	nl.Build(s.Particles)
	return nl
}
