package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidBox is returned by NewBox for non-positive or non-finite dimensions.
var ErrInvalidBox = errors.New("geometry: invalid box dimensions")

// Box is the axis-aligned simulation domain, centred on the origin:
// x in [-Lx/2, Lx/2) and y in [-Ly/2, Ly/2).
// A periodic box uses the minimum-image convention for separations
// and wraps positions back inside; a bounded box does neither.
type Box struct {
	Lx       float64 `json:"lx"`
	Ly       float64 `json:"ly"`
	Periodic bool    `json:"periodic"`
}

// NewBox validates the dimensions and returns the box.
func NewBox(lx, ly float64, periodic bool) (Box, error) {
	if !(lx > 0) || !(ly > 0) || math.IsInf(lx, 0) || math.IsInf(ly, 0) {
		return Box{}, fmt.Errorf("%w: %g x %g", ErrInvalidBox, lx, ly)
	}
	return Box{Lx: lx, Ly: ly, Periodic: periodic}, nil
}

// Lo returns the lower-left corner.
func (b Box) Lo() Vector2D {
	return Vector2D{X: -b.Lx / 2, Y: -b.Ly / 2}
}

// Hi returns the upper-right corner.
func (b Box) Hi() Vector2D {
	return Vector2D{X: b.Lx / 2, Y: b.Ly / 2}
}

// Contains reports whether p lies inside the half-open box.
func (b Box) Contains(p Vector2D) bool {
	lo, hi := b.Lo(), b.Hi()
	return p.X >= lo.X && p.X < hi.X && p.Y >= lo.Y && p.Y < hi.Y
}

// MinImage maps a separation vector to its shortest periodic image.
// It is the identity for a bounded box.
func (b Box) MinImage(d Vector2D) Vector2D {
	if !b.Periodic {
		return d
	}
	d.X -= b.Lx * math.Round(d.X/b.Lx)
	d.Y -= b.Ly * math.Round(d.Y/b.Ly)
	return d
}

// Delta returns the separation to - from, honouring periodicity.
func (b Box) Delta(to, from Vector2D) Vector2D {
	return b.MinImage(to.Sub(from))
}

// Wrap folds a position back into the box. It is the identity for a bounded box.
func (b Box) Wrap(p Vector2D) Vector2D {
	if !b.Periodic {
		return p
	}
	p.X = wrapAxis(p.X, b.Lx)
	p.Y = wrapAxis(p.Y, b.Ly)
	return p
}

func wrapAxis(x, l float64) float64 {
	half := l / 2
	x -= l * math.Floor((x+half)/l)
	// rounding can land exactly on the open upper face
	if x >= half {
		x -= l
	}
	return x
}
