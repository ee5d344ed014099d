package simulation

import "github.com/crookler/crowd-dynamics/pkg/geometry"

// ForceModel adds its contribution to the per-particle force accumulator.
// Implementations must only add to forces, never overwrite them, so that
// independent models sum.
type ForceModel interface {
	Name() string
	// Cutoff is the largest interaction range read from the neighbor list;
	// zero for models that do not use it.
	Cutoff() float64
	Accumulate(s *State, nl *CellList, forces []geometry.Vector2D)
}

// Validator is implemented by models that need every type to be covered.
type Validator interface {
	Validate(types TypeTable) error
}

// Updater rewrites part of the state outside the force/integrate cycle.
type Updater interface {
	Name() string
	Update(s *State)
}
