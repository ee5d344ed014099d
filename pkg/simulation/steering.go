package simulation

import "github.com/crookler/crowd-dynamics/pkg/geometry"

// Steering points the heading of every filtered particle at a fixed target,
// the door. It only writes headings.
type Steering struct {
	Target geometry.Vector2D
	filter TypeSet
}

// NewSteering steers the particles selected by filter toward target.
func NewSteering(target geometry.Vector2D, filter TypeSet) *Steering {
	return &Steering{Target: target, filter: filter}
}

func (st *Steering) Name() string { return "steering" }

// Update sets heading = atan2(ty - y, tx - x), through the nearest periodic
// image of the target.
func (st *Steering) Update(s *State) {
	for i := range s.Particles {
		p := &s.Particles[i]
		if !st.filter.Has(p.Type) {
			continue
		}
		d := s.Box.Delta(st.Target, p.Pos)
		if d.Eq(geometry.Vector2D{}) {
			continue // on the target: keep the current heading
		}
		p.Heading = d.Angle()
	}
}
