package simulation

import (
	"fmt"
	"math"
	"slices"

	"github.com/crookler/crowd-dynamics/pkg/geometry"
)

type cellKey struct {
	x, y int
}

// Pair is an unordered neighbor pair, always stored with I < J.
type Pair struct {
	I, J int
}

// CellList is the spatial index: a uniform grid of cells at least
// cutoff+buffer wide, and the half list of pairs closer than cutoff+buffer
// at build time. Any pair within cutoff at evaluation time is in the list as
// long as no particle moved more than buffer/2 since the build.
type CellList struct {
	box      geometry.Box
	cutoff   float64
	buffer   float64
	cellW    float64
	cellH    float64
	nx, ny   int
	cells    map[cellKey][]int
	cellOf   []cellKey
	pairs    []Pair
	ref      []geometry.Vector2D // positions at the last build
	builds   int
	scratch  []int
	adjacent []cellKey
}

// NewCellList sizes the grid for the largest cutoff of all force models.
// A cellSize of zero means cutoff+buffer; a positive cellSize below that is
// rejected since the 3x3 scan would then miss neighbors.
func NewCellList(box geometry.Box, cutoff, buffer, cellSize float64) (*CellList, error) {
	if cutoff < 0 || buffer < 0 || math.IsNaN(cutoff) || math.IsNaN(buffer) {
		return nil, fmt.Errorf("%w: cutoff %g, buffer %g", ErrInvalidParameter, cutoff, buffer)
	}
	need := cutoff + buffer
	if cellSize == 0 {
		cellSize = need
	}
	if cellSize < need {
		return nil, fmt.Errorf("%w: cell %g < cutoff %g + buffer %g", ErrCellTooSmall, cellSize, cutoff, buffer)
	}
	if !(cellSize > 0) {
		return nil, fmt.Errorf("%w: cell size must be positive", ErrInvalidParameter)
	}

	nx := max(1, int(box.Lx/cellSize))
	ny := max(1, int(box.Ly/cellSize))
	return &CellList{
		box:    box,
		cutoff: cutoff,
		buffer: buffer,
		cellW:  box.Lx / float64(nx),
		cellH:  box.Ly / float64(ny),
		nx:     nx,
		ny:     ny,
		cells:  make(map[cellKey][]int),
	}, nil
}

// Range returns cutoff + buffer, the radius pairs are collected within.
func (c *CellList) Range() float64 {
	return c.cutoff + c.buffer
}

// Dims returns the number of cells along x and y.
func (c *CellList) Dims() (int, int) {
	return c.nx, c.ny
}

// Builds returns how many times the list has been built.
func (c *CellList) Builds() int {
	return c.builds
}

// Build bins every particle and collects the half pair list.
func (c *CellList) Build(particles []Particle) {
	// Reset slices to length 0 but keep their capacity so steady-state
	// rebuilds barely allocate.
	for k := range c.cells {
		c.cells[k] = c.cells[k][:0]
	}
	c.cellOf = c.cellOf[:0]
	c.ref = c.ref[:0]

	for i := range particles {
		key := c.cellIndices(particles[i].Pos)
		c.cells[key] = append(c.cells[key], i)
		c.cellOf = append(c.cellOf, key)
		c.ref = append(c.ref, particles[i].Pos)
	}

	rangeSq := c.Range() * c.Range()
	c.pairs = c.pairs[:0]
	for i := range particles {
		c.scratch = c.scratch[:0]
		for _, key := range c.adjacentCells(c.cellOf[i]) {
			for _, j := range c.cells[key] {
				if j <= i {
					continue
				}
				if c.box.Delta(particles[j].Pos, particles[i].Pos).LenSqr() <= rangeSq {
					c.scratch = append(c.scratch, j)
				}
			}
		}
		slices.Sort(c.scratch)
		for _, j := range c.scratch {
			c.pairs = append(c.pairs, Pair{I: i, J: j})
		}
	}
	c.builds++
}

// Pairs returns the half list of the last build, sorted by (I, J).
// The slice is reused by the next Build.
func (c *CellList) Pairs() []Pair {
	return c.pairs
}

// Neighbors returns every particle sharing a cell or an adjacent cell with
// particle i, excluding i. It is a superset of the true neighbors.
func (c *CellList) Neighbors(i int) []int {
	if i < 0 || i >= len(c.cellOf) {
		return nil
	}
	var out []int
	for _, key := range c.adjacentCells(c.cellOf[i]) {
		for _, j := range c.cells[key] {
			if j != i {
				out = append(out, j)
			}
		}
	}
	slices.Sort(out)
	return out
}

// NeedsRebuild reports whether the list was never built, the particle count
// changed, or some particle moved more than buffer/2 since the last build.
func (c *CellList) NeedsRebuild(particles []Particle) bool {
	if c.builds == 0 || len(particles) != len(c.ref) {
		return true
	}
	limitSq := c.buffer * c.buffer / 4
	for i := range particles {
		if c.box.Delta(particles[i].Pos, c.ref[i]).LenSqr() > limitSq {
			return true
		}
	}
	return false
}

func (c *CellList) cellIndices(p geometry.Vector2D) cellKey {
	lo := c.box.Lo()
	gx := int(math.Floor((p.X - lo.X) / c.cellW))
	gy := int(math.Floor((p.Y - lo.Y) / c.cellH))
	if c.box.Periodic {
		return cellKey{x: wrapIndex(gx, c.nx), y: wrapIndex(gy, c.ny)}
	}
	// Out-of-box particles are clamped to the border cells; clamping keeps
	// the ordering so close particles still end up in adjacent cells.
	return cellKey{x: min(max(gx, 0), c.nx-1), y: min(max(gy, 0), c.ny-1)}
}

// adjacentCells returns the distinct cells of the 3x3 block around key.
// On grids narrower than three cells periodic wrapping would otherwise
// visit a cell twice and duplicate pairs.
func (c *CellList) adjacentCells(key cellKey) []cellKey {
	c.adjacent = c.adjacent[:0]
	for i := key.x - 1; i <= key.x+1; i++ {
		for j := key.y - 1; j <= key.y+1; j++ {
			var k cellKey
			if c.box.Periodic {
				k = cellKey{x: wrapIndex(i, c.nx), y: wrapIndex(j, c.ny)}
			} else {
				if i < 0 || i >= c.nx || j < 0 || j >= c.ny {
					continue
				}
				k = cellKey{x: i, y: j}
			}
			if !slices.Contains(c.adjacent, k) {
				c.adjacent = append(c.adjacent, k)
			}
		}
	}
	return c.adjacent
}

func wrapIndex(i, n int) int {
	return ((i % n) + n) % n
}
