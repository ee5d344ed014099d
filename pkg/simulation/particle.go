package simulation

import (
	"fmt"

	"github.com/crookler/crowd-dynamics/pkg/geometry"
)

// Conventional type names of the evacuation scenarios.
const (
	TypeMobile    = "A" // pedestrians: integrated, steered, self-propelled
	TypeWall      = "W" // pinned boundary markers
	TypeAttractor = "B" // long-range pull, pinned
)

// TypeID indexes the type table of a State.
type TypeID int

// Particle is one disk of the system. Type never changes after creation.
type Particle struct {
	ID      int
	Type    TypeID
	Pos     geometry.Vector2D
	Vel     geometry.Vector2D // displacement / dt of the last step, reporting only
	Heading float64           // radians, direction of self-propulsion
}

// Orientation returns the heading as a unit quaternion about z.
func (p *Particle) Orientation() geometry.Quaternion {
	return geometry.QuaternionFromHeading(p.Heading)
}

// TypeTable maps TypeID to type name.
type TypeTable []string

// Lookup returns the id of a type name.
func (tt TypeTable) Lookup(name string) (TypeID, error) {
	for i, n := range tt {
		if n == name {
			return TypeID(i), nil
		}
	}
	return -1, fmt.Errorf("%w: %q (known: %v)", ErrUnknownType, name, []string(tt))
}

// Name returns the name of id, or a placeholder for ids outside the table.
func (tt TypeTable) Name(id TypeID) string {
	if id < 0 || int(id) >= len(tt) {
		return fmt.Sprintf("type#%d", id)
	}
	return tt[id]
}

// TypeSet is a filter over type ids, the equivalent of selecting particles by type.
type TypeSet []bool

// NewTypeSet resolves names against the table.
func NewTypeSet(tt TypeTable, names ...string) (TypeSet, error) {
	set := make(TypeSet, len(tt))
	for _, n := range names {
		id, err := tt.Lookup(n)
		if err != nil {
			return nil, err
		}
		set[id] = true
	}
	return set, nil
}

// Has reports whether id belongs to the set.
func (s TypeSet) Has(id TypeID) bool {
	return id >= 0 && int(id) < len(s) && s[id]
}
