package simulation

import (
	"errors"
	"fmt"

	"github.com/crookler/crowd-dynamics/pkg/geometry"
)

// DefaultMinSeparationRatio is the fraction of sigma below which a pair is
// evaluated at the floor instead of its true separation.
const DefaultMinSeparationRatio = 0.5

// PairParams are the Lennard-Jones parameters of one unordered type pair.
// A zero RCut falls back to the model's default cutoff.
type PairParams struct {
	Epsilon float64 `json:"epsilon"`
	Sigma   float64 `json:"sigma"`
	RCut    float64 `json:"rCut,omitempty"`
}

type typePair struct {
	a, b TypeID
}

func newTypePair(a, b TypeID) typePair {
	if a > b {
		a, b = b, a
	}
	return typePair{a: a, b: b}
}

// LJ is a truncated, unshifted Lennard-Jones pair potential:
//
//	V(r) = 4ε[(σ/r)^12 - (σ/r)^6]   for r < rcut, 0 otherwise.
//
// Several instances with different cutoffs ("collision", "attractor") can
// run over the same neighbor list.
type LJ struct {
	name        string
	defaultRCut float64
	minSepRatio float64
	params      map[typePair]PairParams
	skipped     uint64
}

// NewLJ returns an empty pair model; every type pair must be Set before use.
func NewLJ(name string, defaultRCut float64) *LJ {
	return &LJ{
		name:        name,
		defaultRCut: defaultRCut,
		minSepRatio: DefaultMinSeparationRatio,
		params:      make(map[typePair]PairParams),
	}
}

// SetMinSeparationRatio changes the clamping floor, expressed in units of sigma.
func (m *LJ) SetMinSeparationRatio(ratio float64) {
	m.minSepRatio = ratio
}

// Set records the parameters of the unordered pair (a, b).
func (m *LJ) Set(a, b TypeID, p PairParams) {
	m.params[newTypePair(a, b)] = p
}

// Params returns the parameters of (a, b) and whether they were set.
func (m *LJ) Params(a, b TypeID) (PairParams, bool) {
	p, ok := m.params[newTypePair(a, b)]
	return p, ok
}

func (m *LJ) Name() string { return m.name }

// Cutoff returns the largest cutoff over all pairs, including inert ones.
func (m *LJ) Cutoff() float64 {
	rc := m.defaultRCut
	for _, p := range m.params {
		rc = max(rc, p.RCut)
	}
	return rc
}

// Skipped returns how many coincident pairs were skipped so far.
func (m *LJ) Skipped() uint64 {
	return m.skipped
}

// Validate fails unless every unordered pair of the type table has an entry.
// An omitted pair is an error, not an implicit zero.
func (m *LJ) Validate(types TypeTable) error {
	var errs []error
	for a := range types {
		for b := a; b < len(types); b++ {
			p, ok := m.params[newTypePair(TypeID(a), TypeID(b))]
			if !ok {
				errs = append(errs, fmt.Errorf("%w: %s (%s, %s)", ErrMissingPairParams, m.name, types[a], types[b]))
				continue
			}
			if p.Epsilon < 0 || !(p.Sigma > 0) || p.RCut < 0 {
				errs = append(errs, fmt.Errorf("%w: %s (%s, %s) epsilon=%g sigma=%g rCut=%g",
					ErrInvalidParameter, m.name, types[a], types[b], p.Epsilon, p.Sigma, p.RCut))
			}
		}
	}
	if !(m.defaultRCut > 0) {
		errs = append(errs, fmt.Errorf("%w: %s default cutoff %g", ErrInvalidParameter, m.name, m.defaultRCut))
	}
	return errors.Join(errs...)
}

// Accumulate adds the pair forces of every listed pair. Pairs at or beyond
// their cutoff contribute exactly zero, as do pairs with zero epsilon.
func (m *LJ) Accumulate(s *State, nl *CellList, forces []geometry.Vector2D) {
	ps := s.Particles
	for _, pr := range nl.Pairs() {
		p, ok := m.params[newTypePair(ps[pr.I].Type, ps[pr.J].Type)]
		if !ok || p.Epsilon == 0 {
			continue
		}
		rc := p.RCut
		if rc == 0 {
			rc = m.defaultRCut
		}
		d := s.Box.Delta(ps[pr.I].Pos, ps[pr.J].Pos) // points from J to I
		rSq := d.LenSqr()
		if rSq >= rc*rc {
			continue
		}
		if rSq == 0 {
			m.skipped++
			continue
		}
		r := d.Len()
		f := ljForce(max(r, m.minSepRatio*p.Sigma), p.Epsilon, p.Sigma)
		fv := d.Mul(f / r)
		forces[pr.I] = forces[pr.I].Add(fv)
		forces[pr.J] = forces[pr.J].Sub(fv)
	}
}

// ljForce returns -dV/dr; positive values push the pair apart.
func ljForce(r, eps, sigma float64) float64 {
	sr2 := (sigma * sigma) / (r * r)
	sr6 := sr2 * sr2 * sr2
	return 24 * eps / r * (2*sr6*sr6 - sr6)
}
