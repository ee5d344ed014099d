// Package scenario describes an evacuation run: the physics parameters, the
// initial layout and the outputs. A Scenario is loaded from JSON or gcfg and
// turned into a simulation State and Driver options.
package scenario

import (
	"errors"
	"fmt"
	"math"

	"github.com/crookler/crowd-dynamics/pkg/geometry"
	"github.com/crookler/crowd-dynamics/pkg/simulation"
)

// ErrInvalidScenario wraps every semantic validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

type Scenario struct {
	Name     string          `json:"name"`
	Seed     uint64          `json:"seed"`
	Steps    uint64          `json:"steps"`
	DT       float64         `json:"dt"`
	KT       float64         `json:"kT"`
	Box      geometry.Box    `json:"box"`
	Types    []string        `json:"types"`
	Neighbor NeighborSpec    `json:"neighbor"`
	Pairs    []PairModelSpec `json:"pairs"`
	Active   []ActiveSpec    `json:"active,omitempty"`
	Walls    *WallSpec       `json:"walls,omitempty"`
	Steering *SteeringSpec   `json:"steering,omitempty"`
	Brownian BrownianSpec    `json:"brownian"`
	Output   OutputSpec      `json:"output"`
	Initial  InitialSpec     `json:"initial"`
}

type NeighborSpec struct {
	Buffer       float64 `json:"buffer"`
	CellSize     float64 `json:"cellSize"`     // 0 picks the smallest safe size
	RebuildEvery uint64  `json:"rebuildEvery"` // 0 rebuilds on displacement only
}

// PairModelSpec is one Lennard-Jones model. Params must cover every
// unordered pair of Types.
type PairModelSpec struct {
	Name               string      `json:"name"`
	RCut               float64     `json:"rCut"`
	MinSeparationRatio float64     `json:"minSeparationRatio,omitempty"`
	Params             []PairEntry `json:"params"`
}

type PairEntry struct {
	A       string  `json:"a"`
	B       string  `json:"b"`
	Epsilon float64 `json:"epsilon"`
	Sigma   float64 `json:"sigma"`
	RCut    float64 `json:"rCut,omitempty"`
}

// ActiveSpec is the body-frame self-propulsion force of a type.
type ActiveSpec struct {
	Type string  `json:"type"`
	FX   float64 `json:"fx"`
	FY   float64 `json:"fy"`
}

// WallSpec confines the box with four Lennard-Jones planes.
type WallSpec struct {
	RCut   float64     `json:"rCut"`
	Params []WallEntry `json:"params"`
}

type WallEntry struct {
	Type    string  `json:"type"`
	Epsilon float64 `json:"epsilon"`
	Sigma   float64 `json:"sigma"`
	RCut    float64 `json:"rCut,omitempty"`
}

// SteeringSpec turns the filter types toward the door every Every steps.
type SteeringSpec struct {
	Every  uint64   `json:"every"`
	DoorX  float64  `json:"doorX"`
	DoorY  float64  `json:"doorY"`
	Filter []string `json:"filter"`
}

type BrownianSpec struct {
	Gamma  float64  `json:"gamma"`
	GammaR float64  `json:"gammaR,omitempty"`
	Filter []string `json:"filter"`
}

type OutputSpec struct {
	Trajectory    string  `json:"trajectory"`
	Every         uint64  `json:"every"`
	StatusSeconds float64 `json:"statusSeconds"`
}

// InitialSpec is either a trajectory File whose first frame is loaded, or a
// generated layout.
type InitialSpec struct {
	File      string         `json:"file,omitempty"`
	Crowd     *CrowdSpec     `json:"crowd,omitempty"`
	Barrier   *BarrierSpec   `json:"barrier,omitempty"`
	Attractor *AttractorSpec `json:"attractor,omitempty"`
}

// CrowdSpec is a Rows x Cols lattice of pedestrians starting at (X0, Y0).
// Jitter displaces each site by at most Jitter per axis using Perlin noise.
type CrowdSpec struct {
	Type    string  `json:"type"`
	Cols    int     `json:"cols"`
	Rows    int     `json:"rows"`
	X0      float64 `json:"x0"`
	Y0      float64 `json:"y0"`
	Spacing float64 `json:"spacing"`
	Jitter  float64 `json:"jitter,omitempty"`
}

// BarrierSpec is a vertical line of Count wall slots at X; the slot indices
// in Gap are left open and form the door.
type BarrierSpec struct {
	Type    string  `json:"type"`
	X       float64 `json:"x"`
	Y0      float64 `json:"y0"`
	Spacing float64 `json:"spacing"`
	Count   int     `json:"count"`
	Gap     []int   `json:"gap,omitempty"`
}

type AttractorSpec struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// DefaultScenario is the attractor evacuation: 100 pedestrians left of a
// wall with a two-slot door and a strong attractor at (-15, 0).
func DefaultScenario() *Scenario {
	all := func(eps float64) func(a, b string) PairEntry {
		return func(a, b string) PairEntry { return PairEntry{A: a, B: b, Epsilon: eps, Sigma: 1} }
	}
	on, off := all(1), all(0)
	return &Scenario{
		Name:  "evacuation",
		Seed:  1,
		Steps: 500_000,
		DT:    1e-6,
		KT:    1,
		Box:   geometry.Box{Lx: 30, Ly: 15, Periodic: true},
		Types: []string{simulation.TypeMobile, simulation.TypeWall, simulation.TypeAttractor},
		Neighbor: NeighborSpec{
			Buffer: 0.5,
		},
		Pairs: []PairModelSpec{
			{
				Name: "collision",
				RCut: 0.75,
				Params: []PairEntry{
					on("A", "A"), on("A", "W"), off("W", "W"),
					off("A", "B"), off("W", "B"), off("B", "B"),
				},
			},
			{
				Name: "attractor",
				RCut: 6,
				Params: []PairEntry{
					off("A", "A"), {A: "A", B: "B", Epsilon: 500, Sigma: 1}, off("B", "B"),
					off("W", "B"), off("A", "W"), off("W", "W"),
				},
			},
		},
		Active: []ActiveSpec{{Type: "A", FX: 30}},
		Brownian: BrownianSpec{
			Gamma:  1,
			Filter: []string{"A"},
		},
		Output: OutputSpec{
			Trajectory:    "evacuation.traj",
			Every:         10_000,
			StatusSeconds: 5,
		},
		Initial: InitialSpec{
			Crowd:     &CrowdSpec{Type: "A", Cols: 10, Rows: 10, X0: -11.5, Y0: -4.5, Spacing: 1},
			Barrier:   &BarrierSpec{Type: "W", X: 0, Y0: -7.5, Spacing: 1, Count: 16, Gap: []int{7, 8}},
			Attractor: &AttractorSpec{Type: "B", X: -15, Y: 0},
		},
	}
}

// TypeTable returns the scenario's types as a simulation type table.
func (s *Scenario) TypeTable() simulation.TypeTable {
	return append(simulation.TypeTable(nil), s.Types...)
}

// Validate checks what the schema cannot: type references, positivity of
// physical parameters and the consistency of the layout. Missing pair
// coverage is reported later by the driver, which knows the models.
func (s *Scenario) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !(s.DT > 0) || math.IsInf(s.DT, 0) {
		bad("dt must be positive, got %g", s.DT)
	}
	if s.KT < 0 || math.IsNaN(s.KT) {
		bad("kT must be non-negative, got %g", s.KT)
	}
	if _, err := geometry.NewBox(s.Box.Lx, s.Box.Ly, s.Box.Periodic); err != nil {
		bad("box: %v", err)
	}
	if s.Neighbor.Buffer < 0 {
		bad("neighbor buffer must be non-negative, got %g", s.Neighbor.Buffer)
	}

	known := make(map[string]bool, len(s.Types))
	for _, t := range s.Types {
		if known[t] {
			bad("type %q listed twice", t)
		}
		known[t] = true
	}
	if len(s.Types) == 0 {
		bad("no particle types")
	}
	ref := func(where, t string) {
		if !known[t] {
			bad("%s: unknown type %q", where, t)
		}
	}

	names := make(map[string]bool, len(s.Pairs))
	for _, m := range s.Pairs {
		if names[m.Name] {
			bad("pair model %q defined twice", m.Name)
		}
		names[m.Name] = true
		if !(m.RCut > 0) {
			bad("pair model %q: rCut must be positive", m.Name)
		}
		for _, p := range m.Params {
			ref("pair model "+m.Name, p.A)
			ref("pair model "+m.Name, p.B)
		}
	}
	for _, a := range s.Active {
		ref("active", a.Type)
	}
	if s.Walls != nil {
		for _, w := range s.Walls.Params {
			ref("walls", w.Type)
		}
	}
	if s.Steering != nil {
		for _, t := range s.Steering.Filter {
			ref("steering filter", t)
		}
	}
	if len(s.Brownian.Filter) == 0 {
		bad("brownian filter selects no type")
	}
	for _, t := range s.Brownian.Filter {
		ref("brownian filter", t)
	}

	in := s.Initial
	if in.File == "" && in.Crowd == nil && in.Barrier == nil && in.Attractor == nil {
		bad("initial: neither a file nor a layout")
	}
	if in.File != "" && (in.Crowd != nil || in.Barrier != nil || in.Attractor != nil) {
		bad("initial: file and layout are exclusive")
	}
	if c := in.Crowd; c != nil {
		ref("crowd", c.Type)
		if c.Rows <= 0 || c.Cols <= 0 {
			bad("crowd: %d x %d lattice", c.Rows, c.Cols)
		}
	}
	if b := in.Barrier; b != nil {
		ref("barrier", b.Type)
		for _, g := range b.Gap {
			if g < 0 || g >= b.Count {
				bad("barrier: gap slot %d outside 0..%d", g, b.Count-1)
			}
		}
	}
	if a := in.Attractor; a != nil {
		ref("attractor", a.Type)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidScenario, s.Name, err)
	}
	return nil
}
