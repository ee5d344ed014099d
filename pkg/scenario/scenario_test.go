package scenario

import (
	"context"
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/crookler/crowd-dynamics/internal/trajectory"
	"github.com/crookler/crowd-dynamics/pkg/simulation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScenario_MatchesConfigFiles(t *testing.T) {
	want := DefaultScenario()
	for _, file := range []string{"evacuation.json", "evacuation.gcfg"} {
		t.Run(file, func(t *testing.T) {
			got, err := LoadScenario(filepath.Join("..", "..", "configs", file))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestDefaultScenario_PassesSchema(t *testing.T) {
	b, err := json.Marshal(DefaultScenario())
	require.NoError(t, err)
	_, err = ParseJSON(b)
	assert.NoError(t, err)
}

func TestWriteJSON_ConvertsGcfg(t *testing.T) {
	door, err := LoadScenario(filepath.Join("..", "..", "configs", "door.gcfg"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "door.json")
	require.NoError(t, door.WriteJSON(path))
	got, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, door, got)
}

func TestParseJSON_SchemaRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m map[string]any)
	}{
		{"negative dt", func(m map[string]any) { m["dt"] = -1 }},
		{"missing box", func(m map[string]any) { delete(m, "box") }},
		{"unknown field", func(m map[string]any) { m["gpu"] = true }},
		{"zero sigma", func(m map[string]any) {
			pairs := m["pairs"].([]any)
			params := pairs[0].(map[string]any)["params"].([]any)
			params[0].(map[string]any)["sigma"] = 0
		}},
		{"duplicate types", func(m map[string]any) { m["types"] = []any{"A", "A"} }},
		{"zero steps", func(m map[string]any) { m["steps"] = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(DefaultScenario())
			require.NoError(t, err)
			var m map[string]any
			require.NoError(t, json.Unmarshal(b, &m))
			tt.mutate(m)
			b, err = json.Marshal(m)
			require.NoError(t, err)

			_, err = ParseJSON(b)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	s := DefaultScenario()
	require.NoError(t, s.Validate())

	s.Active[0].Type = "C"
	s.Initial.Barrier.Gap = []int{16}
	s.Brownian.Filter = nil
	err := s.Validate()
	require.ErrorIs(t, err, ErrInvalidScenario)
	assert.Contains(t, err.Error(), `active: unknown type "C"`)
	assert.Contains(t, err.Error(), "gap slot 16")
	assert.Contains(t, err.Error(), "brownian filter selects no type")
}

func TestParseGcfg_PairOrder(t *testing.T) {
	const text = `
[scenario]
name = order
steps = 10
dt = 1e-6
types = A
[box]
lx = 10
ly = 10
[pair "zeta"]
order = 1
rcut = 1
param = A A 1 1
[pair "beta"]
order = 2
rcut = 1
param = A A 1 1
[pair "alpha"]
order = 2
rcut = 1
param = A A 1 1
[brownian]
filter = A
[crowd]
type = A
rows = 1
cols = 1
spacing = 1
`
	s, err := ParseGcfg(text)
	require.NoError(t, err)
	var names []string
	for _, m := range s.Pairs {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "beta"}, names)
}

func TestParseGcfg_Errors(t *testing.T) {
	_, err := ParseGcfg("[scenario]\nname = x\nwarp = 9\n")
	assert.Error(t, err, "unknown variables are rejected")

	_, err = ParseGcfg("[pair \"collision\"]\nrcut = 1\nparam = A A one 1\n")
	assert.ErrorIs(t, err, ErrInvalidScenario)
}

func TestLayout_Default(t *testing.T) {
	s := DefaultScenario()
	ps, err := s.Layout()
	require.NoError(t, err)
	require.Len(t, ps, 115)

	assert.Equal(t, -11.5, ps[0].Pos.X)
	assert.Equal(t, -4.5, ps[0].Pos.Y)
	assert.Equal(t, -11.5, ps[1].Pos.X, "columns are filled first")
	assert.Equal(t, -3.5, ps[1].Pos.Y)
	assert.InDelta(t, -2.5, ps[99].Pos.X, 1e-12)
	assert.InDelta(t, 4.5, ps[99].Pos.Y, 1e-12)

	var wallYs []float64
	for _, p := range ps[100:114] {
		assert.Equal(t, simulation.TypeID(1), p.Type)
		assert.Equal(t, 0.0, p.Pos.X)
		wallYs = append(wallYs, p.Pos.Y)
	}
	assert.NotContains(t, wallYs, -0.5, "slot 7 is the door")
	assert.NotContains(t, wallYs, 0.5, "slot 8 is the door")
	assert.Contains(t, wallYs, -7.5)
	assert.Contains(t, wallYs, 7.5)

	assert.Equal(t, simulation.TypeID(2), ps[114].Type)
	assert.Equal(t, -15.0, ps[114].Pos.X)
}

func TestLayout_Jitter(t *testing.T) {
	s := DefaultScenario()
	s.Initial.Crowd.Jitter = 0.2
	a, err := s.Layout()
	require.NoError(t, err)
	b, err := s.Layout()
	require.NoError(t, err)
	assert.Equal(t, a, b, "jitter is seeded")

	plain, err := DefaultScenario().Layout()
	require.NoError(t, err)
	moved := 0
	for i := 0; i < 100; i++ {
		d := a[i].Pos.Sub(plain[i].Pos)
		assert.LessOrEqual(t, math.Abs(d.X), 0.2+1e-12)
		assert.LessOrEqual(t, math.Abs(d.Y), 0.2+1e-12)
		if d.Len() > 0 {
			moved++
		}
	}
	assert.Positive(t, moved)
}

func TestBuild_Default(t *testing.T) {
	d, err := DefaultScenario().Build()
	require.NoError(t, err)

	st := d.State()
	assert.Equal(t, 100, st.Count(0))
	assert.Equal(t, 14, st.Count(1))
	assert.Equal(t, 1, st.Count(2))
	assert.Equal(t, 6.5, d.NeighborList().Range(), "attractor cutoff plus buffer")
	require.NoError(t, d.Run(context.Background(), 20))
}

func TestBuild_MissingPairFailsFast(t *testing.T) {
	s := DefaultScenario()
	s.Pairs[0].Params = s.Pairs[0].Params[:5]
	_, err := s.Build()
	assert.ErrorIs(t, err, simulation.ErrMissingPairParams)
}

func TestBuild_DoorScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("..", "..", "configs", "door.gcfg"))
	require.NoError(t, err)
	require.NotNil(t, s.Steering)
	assert.Equal(t, uint64(1000), s.Steering.Every)

	d, err := s.Build()
	require.NoError(t, err)
	assert.Len(t, d.State().Particles, 114)
}

func TestNewState_FromInitialConditionFile(t *testing.T) {
	snap, err := DefaultScenario().InitialSnapshot()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ic.traj")
	w, err := trajectory.Create(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteSnapshot(context.Background(), snap))
	require.NoError(t, w.Close(context.Background()))

	s := DefaultScenario()
	s.Initial = InitialSpec{File: path}
	// a different type order must be mapped by name
	s.Types = []string{"B", "A", "W"}
	s.Active[0].Type = "A"
	require.NoError(t, s.Validate())

	st, err := s.NewState()
	require.NoError(t, err)
	require.Len(t, st.Particles, 115)
	assert.Equal(t, "A", st.Types.Name(st.Particles[0].Type))
	assert.Equal(t, "W", st.Types.Name(st.Particles[100].Type))
	assert.Equal(t, "B", st.Types.Name(st.Particles[114].Type))
	assert.Equal(t, snap.Particles[57].Pos, st.Particles[57].Pos)
}
