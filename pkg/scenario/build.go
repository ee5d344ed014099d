package scenario

import (
	"fmt"
	"time"

	"github.com/crookler/crowd-dynamics/internal/trajectory"
	"github.com/crookler/crowd-dynamics/pkg/geometry"
	"github.com/crookler/crowd-dynamics/pkg/simulation"
)

// NewState creates the initial state, from Initial.File when set and from
// the generated layout otherwise. A file brings its own box; its type names
// are mapped onto the scenario's types.
func (s *Scenario) NewState() (*simulation.State, error) {
	tt := s.TypeTable()
	box := s.Box
	var ps []simulation.Particle

	if s.Initial.File != "" {
		snap, err := trajectory.ReadFirst(s.Initial.File)
		if err != nil {
			return nil, fmt.Errorf("initial condition: %w", err)
		}
		box = snap.Box
		ps = make([]simulation.Particle, len(snap.Particles))
		for i, p := range snap.Particles {
			id, err := tt.Lookup(snap.Types.Name(p.Type))
			if err != nil {
				return nil, fmt.Errorf("initial condition %s: particle %d: %w", s.Initial.File, i, err)
			}
			p.Type = id
			ps[i] = p
		}
	} else {
		var err error
		if ps, err = s.Layout(); err != nil {
			return nil, err
		}
	}
	return simulation.NewState(box, tt, ps, s.DT, s.KT, s.Seed)
}

// InitialSnapshot is the step-0 frame of the scenario, for writing an
// initial-condition file.
func (s *Scenario) InitialSnapshot() (*simulation.Snapshot, error) {
	st, err := s.NewState()
	if err != nil {
		return nil, err
	}
	return st.Snapshot(), nil
}

// Options builds the force models, integrator, neighbor list and steering
// for state. Sinks and logging are left to the caller.
func (s *Scenario) Options(state *simulation.State) ([]simulation.Option, error) {
	tt := state.Types
	var forces []simulation.ForceModel

	for _, m := range s.Pairs {
		lj := simulation.NewLJ(m.Name, m.RCut)
		if m.MinSeparationRatio > 0 {
			lj.SetMinSeparationRatio(m.MinSeparationRatio)
		}
		for _, p := range m.Params {
			a, err := tt.Lookup(p.A)
			if err != nil {
				return nil, fmt.Errorf("pair model %s: %w", m.Name, err)
			}
			b, err := tt.Lookup(p.B)
			if err != nil {
				return nil, fmt.Errorf("pair model %s: %w", m.Name, err)
			}
			lj.Set(a, b, simulation.PairParams{Epsilon: p.Epsilon, Sigma: p.Sigma, RCut: p.RCut})
		}
		forces = append(forces, lj)
	}

	if len(s.Active) > 0 {
		active := simulation.NewActive()
		for _, a := range s.Active {
			id, err := tt.Lookup(a.Type)
			if err != nil {
				return nil, fmt.Errorf("active: %w", err)
			}
			active.Set(id, geometry.Vector2D{X: a.FX, Y: a.FY})
		}
		forces = append(forces, active)
	}

	if s.Walls != nil {
		walls := simulation.NewBoxWalls(s.Walls.RCut)
		for _, w := range s.Walls.Params {
			id, err := tt.Lookup(w.Type)
			if err != nil {
				return nil, fmt.Errorf("walls: %w", err)
			}
			walls.Set(id, simulation.PairParams{Epsilon: w.Epsilon, Sigma: w.Sigma, RCut: w.RCut})
		}
		forces = append(forces, walls)
	}

	filter, err := simulation.NewTypeSet(tt, s.Brownian.Filter...)
	if err != nil {
		return nil, fmt.Errorf("brownian: %w", err)
	}
	integrator := simulation.NewBrownian(filter)
	integrator.Gamma = s.Brownian.Gamma
	integrator.GammaR = s.Brownian.GammaR

	opts := []simulation.Option{
		simulation.WithForces(forces...),
		simulation.WithIntegrator(integrator),
		simulation.WithNeighborList(s.Neighbor.Buffer, s.Neighbor.CellSize, s.Neighbor.RebuildEvery),
	}

	if st := s.Steering; st != nil && st.Every > 0 {
		sf, err := simulation.NewTypeSet(tt, st.Filter...)
		if err != nil {
			return nil, fmt.Errorf("steering: %w", err)
		}
		door := geometry.Vector2D{X: st.DoorX, Y: st.DoorY}
		opts = append(opts, simulation.WithUpdater(simulation.NewPeriodic(st.Every, 0), simulation.NewSteering(door, sf)))
	}
	return opts, nil
}

// SnapshotTrigger fires every Output.Every steps, starting with step 0.
func (s *Scenario) SnapshotTrigger() simulation.Trigger {
	return simulation.NewPeriodic(s.Output.Every, 0)
}

// StatusInterval is the wall-clock period of progress lines.
func (s *Scenario) StatusInterval() time.Duration {
	return time.Duration(s.Output.StatusSeconds * float64(time.Second))
}

// Build is NewState followed by simulation.New with the scenario's options
// and extra, which typically adds sinks and a logger.
func (s *Scenario) Build(extra ...simulation.Option) (*simulation.Driver, error) {
	state, err := s.NewState()
	if err != nil {
		return nil, err
	}
	opts, err := s.Options(state)
	if err != nil {
		return nil, err
	}
	d, err := simulation.New(state, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return d, nil
}
