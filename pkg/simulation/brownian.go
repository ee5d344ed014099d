package simulation

import (
	"fmt"
	"math"

	"github.com/crookler/crowd-dynamics/pkg/geometry"
)

// Brownian integrates overdamped Langevin dynamics:
//
//	x(t+dt) = x(t) + F·dt/γ + sqrt(2·kT·dt/γ)·ξ,   ξ ~ N(0, 1) per component
//
// and, when GammaR > 0, rotational diffusion of the heading. Types outside
// the filter are pinned: they are skipped, not special-cased.
type Brownian struct {
	Gamma  float64
	GammaR float64
	filter TypeSet
}

// NewBrownian integrates the particles selected by filter with unit friction
// and no rotational diffusion.
func NewBrownian(filter TypeSet) *Brownian {
	return &Brownian{Gamma: 1, filter: filter}
}

// Validate checks the friction coefficients.
func (b *Brownian) Validate() error {
	if !(b.Gamma > 0) || math.IsInf(b.Gamma, 0) {
		return fmt.Errorf("%w: gamma must be positive, got %g", ErrInvalidParameter, b.Gamma)
	}
	if b.GammaR < 0 || math.IsNaN(b.GammaR) {
		return fmt.Errorf("%w: gammaR must be non-negative, got %g", ErrInvalidParameter, b.GammaR)
	}
	return nil
}

// Step advances every filtered particle by one time step using the
// accumulated forces. Random numbers are drawn in index order.
func (b *Brownian) Step(s *State, forces []geometry.Vector2D) {
	rng := s.Rand()
	drift := s.DT / b.Gamma
	noise := math.Sqrt(2 * s.KT * s.DT / b.Gamma)
	var rotNoise float64
	if b.GammaR > 0 {
		rotNoise = math.Sqrt(2 * s.KT * s.DT / b.GammaR)
	}

	for i := range s.Particles {
		p := &s.Particles[i]
		if !b.filter.Has(p.Type) {
			continue
		}
		disp := forces[i].Mul(drift)
		disp.X += noise * rng.NormFloat64()
		disp.Y += noise * rng.NormFloat64()

		p.Pos = s.Box.Wrap(p.Pos.Add(disp))
		p.Vel = disp.Mul(1 / s.DT)
		if rotNoise > 0 {
			p.Heading = geometry.NormalizeAngle(p.Heading + rotNoise*rng.NormFloat64())
		}
	}
}
