package scenario

import (
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/crookler/crowd-dynamics/pkg/geometry"
	"github.com/crookler/crowd-dynamics/pkg/simulation"
	"gonum.org/v1/gonum/floats"
)

// Perlin parameters of the crowd jitter; the lattice is sampled at
// non-integer coordinates because the noise vanishes on integer points.
const (
	perlinAlpha  = 2
	perlinBeta   = 2
	perlinOctave = 3
	perlinScale  = 0.37
)

// Layout generates the initial particles in a fixed order: the crowd
// (column-major), the barrier from bottom to top, then the attractor.
func (s *Scenario) Layout() ([]simulation.Particle, error) {
	tt := s.TypeTable()
	var ps []simulation.Particle

	if c := s.Initial.Crowd; c != nil {
		id, err := tt.Lookup(c.Type)
		if err != nil {
			return nil, fmt.Errorf("crowd: %w", err)
		}
		xs := span(c.Cols, c.X0, c.Spacing)
		ys := span(c.Rows, c.Y0, c.Spacing)

		var noise *perlin.Perlin
		if c.Jitter > 0 {
			noise = perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctave, int64(s.Seed))
		}
		for i, x := range xs {
			for j, y := range ys {
				pos := geometry.Vector2D{X: x, Y: y}
				if noise != nil {
					u, v := (float64(i)+0.5)*perlinScale, (float64(j)+0.5)*perlinScale
					pos.X += c.Jitter * unit(noise.Noise2D(u, v))
					pos.Y += c.Jitter * unit(noise.Noise2D(u+100, v+100))
				}
				ps = append(ps, simulation.Particle{Type: id, Pos: pos})
			}
		}
	}

	if b := s.Initial.Barrier; b != nil {
		id, err := tt.Lookup(b.Type)
		if err != nil {
			return nil, fmt.Errorf("barrier: %w", err)
		}
		open := make(map[int]bool, len(b.Gap))
		for _, g := range b.Gap {
			open[g] = true
		}
		for i, y := range span(b.Count, b.Y0, b.Spacing) {
			if open[i] {
				continue
			}
			ps = append(ps, simulation.Particle{Type: id, Pos: geometry.Vector2D{X: b.X, Y: y}})
		}
	}

	if a := s.Initial.Attractor; a != nil {
		id, err := tt.Lookup(a.Type)
		if err != nil {
			return nil, fmt.Errorf("attractor: %w", err)
		}
		ps = append(ps, simulation.Particle{Type: id, Pos: geometry.Vector2D{X: a.X, Y: a.Y}})
	}
	return ps, nil
}

// unit clamps summed octaves into [-1, 1].
func unit(n float64) float64 {
	return max(-1, min(1, n))
}

// span returns n evenly spaced coordinates starting at start.
func span(n int, start, spacing float64) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{start}
	}
	return floats.Span(make([]float64, n), start, start+spacing*float64(n-1))
}
