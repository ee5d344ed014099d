package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/crookler/crowd-dynamics/pkg/geometry"
)

// State is the authoritative system state. It is owned by a Driver; force
// models, updaters and the integrator borrow it for the length of one call.
type State struct {
	Step      uint64
	Box       geometry.Box
	Types     TypeTable
	Particles []Particle
	DT        float64
	KT        float64

	rng *rand.Rand
}

// NewState checks the particle table against the box and the type table and
// seeds the random stream. The particle slice is owned by the state afterwards.
func NewState(box geometry.Box, types TypeTable, particles []Particle, dt, kT float64, seed uint64) (*State, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidParameter, dt)
	}
	if kT < 0 || math.IsNaN(kT) {
		return nil, fmt.Errorf("%w: kT must be non-negative, got %g", ErrInvalidParameter, kT)
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: empty type table", ErrInvalidParameter)
	}
	for i := range particles {
		p := &particles[i]
		p.ID = i
		if p.Type < 0 || int(p.Type) >= len(types) {
			return nil, fmt.Errorf("%w: particle %d has type id %d", ErrUnknownType, i, p.Type)
		}
		if !p.Pos.IsFinite() {
			return nil, fmt.Errorf("%w: particle %d position %v", ErrInvalidParameter, i, p.Pos)
		}
		p.Pos = box.Wrap(p.Pos)
	}
	return &State{
		Box:       box,
		Types:     types,
		Particles: particles,
		DT:        dt,
		KT:        kT,
		rng:       newRand(seed),
	}, nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Rand exposes the seeded stream. Every stochastic component draws from it
// in particle-index order so a seed fixes the whole trajectory.
func (s *State) Rand() *rand.Rand {
	return s.rng
}

// Time returns the simulated time reached so far.
func (s *State) Time() float64 {
	return float64(s.Step) * s.DT
}

// Count returns the number of particles of type id.
func (s *State) Count(id TypeID) int {
	n := 0
	for i := range s.Particles {
		if s.Particles[i].Type == id {
			n++
		}
	}
	return n
}

// Snapshot deep-copies the state so it can outlive the current step.
func (s *State) Snapshot() *Snapshot {
	snap := &Snapshot{
		Step:      s.Step,
		Box:       s.Box,
		Types:     append(TypeTable(nil), s.Types...),
		Particles: make([]Particle, len(s.Particles)),
	}
	copy(snap.Particles, s.Particles)
	return snap
}

// Snapshot is an immutable copy of the state at one step: what trajectory
// writers persist and what analyzers read back.
type Snapshot struct {
	Step      uint64
	Box       geometry.Box
	Types     TypeTable
	Particles []Particle
}
