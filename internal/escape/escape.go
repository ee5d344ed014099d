// Package escape counts pedestrians that made it past the wall in each frame
// of a trajectory and plots the result.
package escape

import (
	"errors"
	"fmt"

	"github.com/crookler/crowd-dynamics/pkg/simulation"
)

var (
	ErrNoFrames = errors.New("escape: trajectory has no frames")
	ErrNoWall   = errors.New("escape: no wall particle to take the threshold from")
)

// Options select who counts as a pedestrian and where the threshold is.
// Zero values mean type "A", wall type "W" and the x of the first wall
// particle of frame 0.
type Options struct {
	MobileType string
	WallType   string
	WallX      *float64
}

func (o Options) withDefaults() Options {
	if o.MobileType == "" {
		o.MobileType = simulation.TypeMobile
	}
	if o.WallType == "" {
		o.WallType = simulation.TypeWall
	}
	return o
}

// WallX returns the x coordinate of the first particle of type wallType.
// The wall is assumed to be a single vertical line.
func WallX(frame *simulation.Snapshot, wallType string) (float64, error) {
	id, err := frame.Types.Lookup(wallType)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoWall, err)
	}
	for i := range frame.Particles {
		if frame.Particles[i].Type == id {
			return frame.Particles[i].Pos.X, nil
		}
	}
	return 0, fmt.Errorf("%w: no particle of type %q", ErrNoWall, wallType)
}

// Count returns, per frame, how many pedestrians have x strictly beyond the
// wall. Pedestrians are the particles of the mobile type in frame 0; types
// are assumed constant over the trajectory.
func Count(frames []*simulation.Snapshot, opts Options) ([]int, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	opts = opts.withDefaults()
	first := frames[0]

	var wallX float64
	if opts.WallX != nil {
		wallX = *opts.WallX
	} else {
		x, err := WallX(first, opts.WallType)
		if err != nil {
			return nil, err
		}
		wallX = x
	}

	mobile, err := first.Types.Lookup(opts.MobileType)
	if err != nil {
		return nil, err
	}
	var walkers []int
	for i := range first.Particles {
		if first.Particles[i].Type == mobile {
			walkers = append(walkers, i)
		}
	}

	counts := make([]int, len(frames))
	for f, frame := range frames {
		if len(frame.Particles) != len(first.Particles) {
			return nil, fmt.Errorf("frame %d has %d particles, frame 0 has %d",
				f, len(frame.Particles), len(first.Particles))
		}
		for _, i := range walkers {
			if frame.Particles[i].Pos.X > wallX {
				counts[f]++
			}
		}
	}
	return counts, nil
}
