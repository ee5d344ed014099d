package scenario

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/crookler/crowd-dynamics/pkg/geometry"
	"gopkg.in/gcfg.v1"
)

// iniScenario is the gcfg layout of a scenario:
//
//	[scenario]
//	name = door
//	types = A
//	types = W
//	[pair "collision"]
//	order = 1              ; models run by ascending order, then by name
//	rcut = 0.75
//	param = A A 1 1        ; a b epsilon sigma [rcut]
//	[active "A"]
//	fx = 30
//
// Optional sections (walls, steering, crowd, barrier, attractor) are
// considered absent when they are left empty.
type iniScenario struct {
	Scenario struct {
		Name  string
		Seed  int64
		Steps int64
		DT    float64
		KT    float64
		Types []string
	}
	Box struct {
		Lx       float64
		Ly       float64
		Periodic bool
	}
	Neighbor struct {
		Buffer       float64
		CellSize     float64
		RebuildEvery int64
	}
	Pair   map[string]*iniPair
	Active map[string]*struct {
		FX float64
		FY float64
	}
	Walls struct {
		RCut  float64
		Param []string // type epsilon sigma [rcut]
	}
	Steering struct {
		Every  int64
		DoorX  float64
		DoorY  float64
		Filter []string
	}
	Brownian struct {
		Gamma  float64
		GammaR float64
		Filter []string
	}
	Output struct {
		Trajectory    string
		Every         int64
		StatusSeconds float64
	}
	Initial struct {
		File string
	}
	Crowd struct {
		Type    string
		Rows    int
		Cols    int
		X0      float64
		Y0      float64
		Spacing float64
		Jitter  float64
	}
	Barrier struct {
		Type    string
		X       float64
		Y0      float64
		Spacing float64
		Count   int
		Gap     []int
	}
	Attractor struct {
		Type string
		X    float64
		Y    float64
	}
}

type iniPair struct {
	Order              int
	RCut               float64
	MinSeparationRatio float64
	Param              []string
}

func loadGcfgFile(path string) (*Scenario, error) {
	var ini iniScenario
	if err := gcfg.ReadFileInto(&ini, path); err != nil {
		return nil, fmt.Errorf("failed to read scenario gcfg: %w", err)
	}
	return ini.scenario()
}

// ParseGcfg reads a scenario from gcfg text.
func ParseGcfg(text string) (*Scenario, error) {
	var ini iniScenario
	if err := gcfg.ReadStringInto(&ini, text); err != nil {
		return nil, fmt.Errorf("failed to read scenario gcfg: %w", err)
	}
	return ini.scenario()
}

func (ini *iniScenario) scenario() (*Scenario, error) {
	for name, v := range map[string]int64{
		"seed": ini.Scenario.Seed, "steps": ini.Scenario.Steps,
		"rebuildEvery": ini.Neighbor.RebuildEvery, "steering every": ini.Steering.Every,
		"output every": ini.Output.Every,
	} {
		if v < 0 {
			return nil, fmt.Errorf("%w: %s is negative", ErrInvalidScenario, name)
		}
	}

	s := &Scenario{
		Name:  ini.Scenario.Name,
		Seed:  uint64(ini.Scenario.Seed),
		Steps: uint64(ini.Scenario.Steps),
		DT:    ini.Scenario.DT,
		KT:    ini.Scenario.KT,
		Box:   geometry.Box{Lx: ini.Box.Lx, Ly: ini.Box.Ly, Periodic: ini.Box.Periodic},
		Types: ini.Scenario.Types,
		Neighbor: NeighborSpec{
			Buffer:       ini.Neighbor.Buffer,
			CellSize:     ini.Neighbor.CellSize,
			RebuildEvery: uint64(ini.Neighbor.RebuildEvery),
		},
		Brownian: BrownianSpec{
			Gamma:  ini.Brownian.Gamma,
			GammaR: ini.Brownian.GammaR,
			Filter: ini.Brownian.Filter,
		},
		Output: OutputSpec{
			Trajectory:    ini.Output.Trajectory,
			Every:         uint64(ini.Output.Every),
			StatusSeconds: ini.Output.StatusSeconds,
		},
		Initial: InitialSpec{File: ini.Initial.File},
	}
	if s.Brownian.Gamma == 0 {
		s.Brownian.Gamma = 1
	}

	pairNames := sortedKeys(ini.Pair)
	sort.SliceStable(pairNames, func(i, j int) bool {
		return ini.Pair[pairNames[i]].Order < ini.Pair[pairNames[j]].Order
	})
	for _, name := range pairNames {
		p := ini.Pair[name]
		m := PairModelSpec{Name: name, RCut: p.RCut, MinSeparationRatio: p.MinSeparationRatio}
		for _, line := range p.Param {
			f := strings.Fields(line)
			if len(f) != 4 && len(f) != 5 {
				return nil, fmt.Errorf("%w: pair %q: param %q: want \"a b epsilon sigma [rcut]\"", ErrInvalidScenario, name, line)
			}
			nums, err := parseFloats(f[2:])
			if err != nil {
				return nil, fmt.Errorf("%w: pair %q: param %q: %v", ErrInvalidScenario, name, line, err)
			}
			e := PairEntry{A: f[0], B: f[1], Epsilon: nums[0], Sigma: nums[1]}
			if len(nums) == 3 {
				e.RCut = nums[2]
			}
			m.Params = append(m.Params, e)
		}
		s.Pairs = append(s.Pairs, m)
	}

	for _, t := range sortedKeys(ini.Active) {
		a := ini.Active[t]
		s.Active = append(s.Active, ActiveSpec{Type: t, FX: a.FX, FY: a.FY})
	}

	if len(ini.Walls.Param) > 0 {
		s.Walls = &WallSpec{RCut: ini.Walls.RCut}
		for _, line := range ini.Walls.Param {
			f := strings.Fields(line)
			if len(f) != 3 && len(f) != 4 {
				return nil, fmt.Errorf("%w: walls: param %q: want \"type epsilon sigma [rcut]\"", ErrInvalidScenario, line)
			}
			nums, err := parseFloats(f[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: walls: param %q: %v", ErrInvalidScenario, line, err)
			}
			e := WallEntry{Type: f[0], Epsilon: nums[0], Sigma: nums[1]}
			if len(nums) == 3 {
				e.RCut = nums[2]
			}
			s.Walls.Params = append(s.Walls.Params, e)
		}
	}

	if st := ini.Steering; len(st.Filter) > 0 {
		s.Steering = &SteeringSpec{Every: uint64(st.Every), DoorX: st.DoorX, DoorY: st.DoorY, Filter: st.Filter}
	}
	if c := ini.Crowd; c.Type != "" {
		s.Initial.Crowd = &CrowdSpec{Type: c.Type, Rows: c.Rows, Cols: c.Cols, X0: c.X0, Y0: c.Y0, Spacing: c.Spacing, Jitter: c.Jitter}
	}
	if b := ini.Barrier; b.Type != "" {
		s.Initial.Barrier = &BarrierSpec{Type: b.Type, X: b.X, Y0: b.Y0, Spacing: b.Spacing, Count: b.Count, Gap: b.Gap}
	}
	if a := ini.Attractor; a.Type != "" {
		s.Initial.Attractor = &AttractorSpec{Type: a.Type, X: a.X, Y: a.Y}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
