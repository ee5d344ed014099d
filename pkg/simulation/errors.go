package simulation

import "errors"

// Configuration errors. They are returned, wrapped with context, while a
// driver is being assembled and are never produced in the middle of a run.
var (
	// ErrMissingPairParams indicates a pair model lacks an entry for a type pair.
	ErrMissingPairParams = errors.New("simulation: missing pair parameters")

	// ErrCellTooSmall indicates a neighbor cell narrower than cutoff + buffer.
	ErrCellTooSmall = errors.New("simulation: neighbor cell smaller than cutoff plus buffer")

	// ErrUnknownType indicates a type name absent from the type table.
	ErrUnknownType = errors.New("simulation: unknown particle type")

	// ErrInvalidParameter indicates a parameter value outside its valid range.
	ErrInvalidParameter = errors.New("simulation: invalid parameter")
)
