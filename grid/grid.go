// Package grid rasterizes a match.Store into a downscaled density grid
// and renders it to a luminance buffer, following the same
// counts-into-a-flat-array layout used by ktuple's C/D arrays, applied
// here to a 2-D cell grid instead of a 1-D bucket table.
package grid

import (
	"github.com/grailbio/base/errors"

	"github.com/grailbio/dotplot/match"
)

// Grid is a width x height array of match-density counts, stored
// row-major. Cells saturate at the uint32 maximum rather than wrapping.
type Grid struct {
	Width, Height int
	cells         []uint32
}

// New returns a Grid of the given dimensions with every cell zeroed.
func New(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.E("ParameterError", "grid dimensions must be positive", width, height)
	}
	return &Grid{Width: width, Height: height, cells: make([]uint32, width*height)}, nil
}

func (g *Grid) at(col, row int) int { return row*g.Width + col }

// Get returns the count at (col, row).
func (g *Grid) Get(col, row int) uint32 { return g.cells[g.at(col, row)] }

func (g *Grid) incr(col, row int) {
	if col < 0 || col >= g.Width || row < 0 || row >= g.Height {
		return
	}
	i := g.at(col, row)
	if g.cells[i] != ^uint32(0) {
		g.cells[i]++
	}
}

// Calculate rasterizes every match in store whose diagonal run overlaps
// the sub-rectangle [x1,x2) x [y1,y2) of match coordinate space into a
// new Grid downscaled by `scale` in each axis, with a smoothing radius of
// `window` (in source-coordinate units) applied along each run's
// diagonal.
func Calculate(store *match.Store, x1, y1, x2, y2, scale, window int32) (*Grid, error) {
	if scale <= 0 {
		return nil, errors.E("ParameterError", "scale must be positive", scale)
	}
	if x2 < x1 || y2 < y1 {
		return nil, errors.E("ParameterError", "grid rectangle has negative extent", x1, y1, x2, y2)
	}
	width := int(ceilDiv(x2-x1, scale))
	height := int(ceilDiv(y2-y1, scale))
	if width == 0 {
		width = 1
	}
	if height == 0 {
		height = 1
	}
	g, err := New(width, height)
	if err != nil {
		return nil, err
	}

	neighbor := int32(ceilDiv(window, scale))

	for _, m := range store.All() {
		for s := int32(0); s < m.Length; s++ {
			x, y := m.X+s, m.Y+s
			if x < x1 || x >= x2 || y < y1 || y >= y2 {
				continue
			}
			col := int((x - x1) / scale)
			row := int((y - y1) / scale)
			g.incr(col, row)
			for delta := int32(1); delta < neighbor; delta++ {
				g.incr(col+int(delta), row+int(delta))
				g.incr(col-int(delta), row-int(delta))
			}
		}
	}
	return g, nil
}

func ceilDiv(a, b int32) int32 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// AddInplace adds other's cells into g, saturating at the uint32 maximum.
// g and other must have identical dimensions.
func (g *Grid) AddInplace(other *Grid) error {
	if g.Width != other.Width || g.Height != other.Height {
		return errors.E("ParameterError", "grid dimension mismatch", g.Width, g.Height, other.Width, other.Height)
	}
	for i, v := range other.cells {
		sum := uint64(g.cells[i]) + uint64(v)
		if sum > uint64(^uint32(0)) {
			g.cells[i] = ^uint32(0)
		} else {
			g.cells[i] = uint32(sum)
		}
	}
	return nil
}

// FlipInplace reverses the grid's rows, mapping a reverse-strand grid into
// the same visual frame as a forward-strand grid.
func (g *Grid) FlipInplace() {
	for r := 0; r < g.Height/2; r++ {
		other := g.Height - 1 - r
		rowStart, otherStart := r*g.Width, other*g.Width
		for c := 0; c < g.Width; c++ {
			g.cells[rowStart+c], g.cells[otherStart+c] = g.cells[otherStart+c], g.cells[rowStart+c]
		}
	}
}

// ToLuminance renders the grid to a row-major width*height byte buffer,
// linearly mapping [min, max] observed cell counts to [0, 255]. A flat
// grid (max == min) renders as all zeros.
func (g *Grid) ToLuminance() []byte {
	if len(g.cells) == 0 {
		return nil
	}
	min, max := g.cells[0], g.cells[0]
	for _, v := range g.cells {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	out := make([]byte, len(g.cells))
	if max == min {
		return out
	}
	span := float64(max - min)
	for i, v := range g.cells {
		out[i] = byte(float64(v-min)/span*255.0 + 0.5)
	}
	return out
}
