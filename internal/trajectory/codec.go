// Package trajectory persists simulation snapshots as a stream of
// length-delimited protobuf frames and reads them back.
package trajectory

import (
	"errors"
	"fmt"
	"math"

	"github.com/crookler/crowd-dynamics/pkg/geometry"
	"github.com/crookler/crowd-dynamics/pkg/simulation"
	"google.golang.org/protobuf/encoding/protowire"
)

// ErrCorrupt is returned for frames that cannot be decoded.
var ErrCorrupt = errors.New("trajectory: corrupt frame")

// Frame field numbers. Positions, orientations and velocities are packed
// doubles: 2, 4 and 2 values per particle.
const (
	fieldStep        protowire.Number = 1
	fieldLx          protowire.Number = 2
	fieldLy          protowire.Number = 3
	fieldPeriodic    protowire.Number = 4
	fieldTypeNames   protowire.Number = 5
	fieldTypeIDs     protowire.Number = 6
	fieldPositions   protowire.Number = 7
	fieldOrientation protowire.Number = 8
	fieldVelocities  protowire.Number = 9
)

// Marshal encodes one snapshot as a protobuf message.
func Marshal(snap *simulation.Snapshot) []byte {
	n := len(snap.Particles)
	b := make([]byte, 0, 64+n*(8*8+2))

	b = protowire.AppendTag(b, fieldStep, protowire.VarintType)
	b = protowire.AppendVarint(b, snap.Step)
	b = appendDouble(b, fieldLx, snap.Box.Lx)
	b = appendDouble(b, fieldLy, snap.Box.Ly)
	if snap.Box.Periodic {
		b = protowire.AppendTag(b, fieldPeriodic, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	for _, name := range snap.Types {
		b = protowire.AppendTag(b, fieldTypeNames, protowire.BytesType)
		b = protowire.AppendString(b, name)
	}
	if n == 0 {
		return b
	}

	var ids []byte
	for i := range snap.Particles {
		ids = protowire.AppendVarint(ids, uint64(snap.Particles[i].Type))
	}
	b = protowire.AppendTag(b, fieldTypeIDs, protowire.BytesType)
	b = protowire.AppendBytes(b, ids)

	b = appendPacked(b, fieldPositions, n*2, func(dst []byte) []byte {
		for i := range snap.Particles {
			p := snap.Particles[i].Pos
			dst = appendFixed(dst, p.X, p.Y)
		}
		return dst
	})
	b = appendPacked(b, fieldOrientation, n*4, func(dst []byte) []byte {
		for i := range snap.Particles {
			q := snap.Particles[i].Orientation()
			dst = appendFixed(dst, q.W, q.X, q.Y, q.Z)
		}
		return dst
	})
	b = appendPacked(b, fieldVelocities, n*2, func(dst []byte) []byte {
		for i := range snap.Particles {
			v := snap.Particles[i].Vel
			dst = appendFixed(dst, v.X, v.Y)
		}
		return dst
	})
	return b
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendFixed(b []byte, vs ...float64) []byte {
	for _, v := range vs {
		b = protowire.AppendFixed64(b, math.Float64bits(v))
	}
	return b
}

func appendPacked(b []byte, num protowire.Number, count int, fill func([]byte) []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(count*8))
	return fill(b)
}

// Unmarshal decodes a message produced by Marshal. Unknown fields are skipped.
func Unmarshal(b []byte) (*simulation.Snapshot, error) {
	snap := &simulation.Snapshot{}
	var ids []uint64
	var pos, orient, vel []float64

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldStep && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: step: %v", ErrCorrupt, protowire.ParseError(n))
			}
			snap.Step, b = v, b[n:]
		case (num == fieldLx || num == fieldLy) && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: box: %v", ErrCorrupt, protowire.ParseError(n))
			}
			if num == fieldLx {
				snap.Box.Lx = math.Float64frombits(v)
			} else {
				snap.Box.Ly = math.Float64frombits(v)
			}
			b = b[n:]
		case num == fieldPeriodic && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: periodic: %v", ErrCorrupt, protowire.ParseError(n))
			}
			snap.Box.Periodic, b = protowire.DecodeBool(v), b[n:]
		case num == fieldTypeNames && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: type name: %v", ErrCorrupt, protowire.ParseError(n))
			}
			snap.Types, b = append(snap.Types, v), b[n:]
		case num == fieldTypeIDs && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: type ids: %v", ErrCorrupt, protowire.ParseError(n))
			}
			for len(v) > 0 {
				id, m := protowire.ConsumeVarint(v)
				if m < 0 {
					return nil, fmt.Errorf("%w: type id: %v", ErrCorrupt, protowire.ParseError(m))
				}
				ids, v = append(ids, id), v[m:]
			}
			b = b[n:]
		case (num == fieldPositions || num == fieldOrientation || num == fieldVelocities) && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 || len(v)%8 != 0 {
				return nil, fmt.Errorf("%w: field %d: packed doubles of %d bytes", ErrCorrupt, num, len(v))
			}
			vals := make([]float64, len(v)/8)
			for i := range vals {
				u, _ := protowire.ConsumeFixed64(v[i*8:])
				vals[i] = math.Float64frombits(u)
			}
			switch num {
			case fieldPositions:
				pos = vals
			case fieldOrientation:
				orient = vals
			default:
				vel = vals
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %v", ErrCorrupt, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	count := len(ids)
	if len(pos) != 2*count {
		return nil, fmt.Errorf("%w: %d type ids but %d positions", ErrCorrupt, count, len(pos)/2)
	}
	if orient != nil && len(orient) != 4*count {
		return nil, fmt.Errorf("%w: %d particles but %d orientations", ErrCorrupt, count, len(orient)/4)
	}
	if vel != nil && len(vel) != 2*count {
		return nil, fmt.Errorf("%w: %d particles but %d velocities", ErrCorrupt, count, len(vel)/2)
	}

	snap.Particles = make([]simulation.Particle, count)
	for i := range snap.Particles {
		p := &snap.Particles[i]
		p.ID = i
		p.Type = simulation.TypeID(ids[i])
		if int(p.Type) >= len(snap.Types) {
			return nil, fmt.Errorf("%w: particle %d has type id %d of %d", ErrCorrupt, i, p.Type, len(snap.Types))
		}
		p.Pos = geometry.Vector2D{X: pos[2*i], Y: pos[2*i+1]}
		if orient != nil {
			q := geometry.Quaternion{W: orient[4*i], X: orient[4*i+1], Y: orient[4*i+2], Z: orient[4*i+3]}
			p.Heading = q.Heading()
		}
		if vel != nil {
			p.Vel = geometry.Vector2D{X: vel[2*i], Y: vel[2*i+1]}
		}
	}
	return snap, nil
}
