package simulation

import (
	"errors"
	"fmt"

	"github.com/crookler/crowd-dynamics/pkg/geometry"
)

type plane struct {
	origin geometry.Vector2D
	normal geometry.Vector2D // unit, pointing into the box
}

// BoxWalls confines particles with a one-sided Lennard-Jones repulsion from
// the four faces of the box: the pair potential with the second particle
// replaced by the plane, at distance d measured along the inward normal.
type BoxWalls struct {
	defaultRCut float64
	minSepRatio float64
	params      map[TypeID]PairParams
}

// NewBoxWalls returns walls with no per-type entries yet.
func NewBoxWalls(defaultRCut float64) *BoxWalls {
	return &BoxWalls{
		defaultRCut: defaultRCut,
		minSepRatio: DefaultMinSeparationRatio,
		params:      make(map[TypeID]PairParams),
	}
}

// Set records the wall parameters felt by particles of type t.
func (w *BoxWalls) Set(t TypeID, p PairParams) {
	w.params[t] = p
}

func (w *BoxWalls) Name() string { return "walls" }

// Cutoff is zero: walls never read the neighbor list.
func (w *BoxWalls) Cutoff() float64 { return 0 }

// Validate requires an entry per type, like the pair models.
func (w *BoxWalls) Validate(types TypeTable) error {
	var errs []error
	for t := range types {
		p, ok := w.params[TypeID(t)]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: walls (%s)", ErrMissingPairParams, types[t]))
			continue
		}
		if p.Epsilon < 0 || !(p.Sigma > 0) || p.RCut < 0 {
			errs = append(errs, fmt.Errorf("%w: walls (%s) epsilon=%g sigma=%g", ErrInvalidParameter, types[t], p.Epsilon, p.Sigma))
		}
	}
	return errors.Join(errs...)
}

func (w *BoxWalls) planes(b geometry.Box) [4]plane {
	lo, hi := b.Lo(), b.Hi()
	return [4]plane{
		{origin: lo, normal: geometry.Vector2D{X: 1}},
		{origin: lo, normal: geometry.Vector2D{Y: 1}},
		{origin: hi, normal: geometry.Vector2D{X: -1}},
		{origin: hi, normal: geometry.Vector2D{Y: -1}},
	}
}

// Accumulate pushes every particle within cutoff of a face back inside.
// Particles already past a face are evaluated at the separation floor.
func (w *BoxWalls) Accumulate(s *State, _ *CellList, forces []geometry.Vector2D) {
	planes := w.planes(s.Box)
	for i := range s.Particles {
		p, ok := w.params[s.Particles[i].Type]
		if !ok || p.Epsilon == 0 {
			continue
		}
		rc := p.RCut
		if rc == 0 {
			rc = w.defaultRCut
		}
		for _, pl := range planes {
			d := s.Particles[i].Pos.Sub(pl.origin).Dot(pl.normal)
			if d >= rc {
				continue
			}
			f := ljForce(max(d, w.minSepRatio*p.Sigma), p.Epsilon, p.Sigma)
			forces[i] = forces[i].AddScaled(pl.normal, f)
		}
	}
}
