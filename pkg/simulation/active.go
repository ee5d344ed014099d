package simulation

import "github.com/crookler/crowd-dynamics/pkg/geometry"

// Active is constant self-propulsion: a body-frame force per type, rotated
// by each particle's heading. A body force (F, 0) is F along the heading.
type Active struct {
	body map[TypeID]geometry.Vector2D
}

// NewActive returns an active force with no propelled types.
func NewActive() *Active {
	return &Active{body: make(map[TypeID]geometry.Vector2D)}
}

// Set propels particles of type t with the body-frame force f.
func (a *Active) Set(t TypeID, f geometry.Vector2D) {
	a.body[t] = f
}

func (a *Active) Name() string { return "active" }

func (a *Active) Cutoff() float64 { return 0 }

// Force returns the active force acting on p.
func (a *Active) Force(p *Particle) geometry.Vector2D {
	f, ok := a.body[p.Type]
	if !ok {
		return geometry.Vector2D{}
	}
	if f.Y == 0 {
		return geometry.NewVectorPolar(f.X, p.Heading)
	}
	return f.Rotate(p.Heading)
}

func (a *Active) Accumulate(s *State, _ *CellList, forces []geometry.Vector2D) {
	for i := range s.Particles {
		if _, ok := a.body[s.Particles[i].Type]; !ok {
			continue
		}
		forces[i] = forces[i].Add(a.Force(&s.Particles[i]))
	}
}
