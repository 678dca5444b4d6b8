package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/dotplot/match"
)

func TestNewRejectsNonPositiveDimensions(t *testing.T) {
	_, err := New(0, 5)
	assert.Error(t, err)
	_, err = New(5, -1)
	assert.Error(t, err)
}

func TestCalculateRasterizesRun(t *testing.T) {
	s := match.New()
	s.Append(0, 0, 4)
	g, err := Calculate(s, 0, 0, 8, 8, 1, 1)
	require.NoError(t, err)
	for i := int32(0); i < 4; i++ {
		assert.Equal(t, uint32(1), g.Get(int(i), int(i)))
	}
	assert.Equal(t, uint32(0), g.Get(5, 5))
}

func TestCalculateScaling(t *testing.T) {
	s := match.New()
	s.Append(0, 0, 8)
	g, err := Calculate(s, 0, 0, 8, 8, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, g.Width)
	assert.Equal(t, 4, g.Height)
}

func TestCalculateClipsOutOfRectangle(t *testing.T) {
	s := match.New()
	s.Append(100, 100, 4)
	g, err := Calculate(s, 0, 0, 8, 8, 1, 1)
	require.NoError(t, err)
	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			assert.Equal(t, uint32(0), g.Get(c, r))
		}
	}
}

func TestAddInplaceSaturates(t *testing.T) {
	a, err := New(2, 2)
	require.NoError(t, err)
	b, err := New(2, 2)
	require.NoError(t, err)
	a.cells[0] = ^uint32(0)
	b.cells[0] = 5
	require.NoError(t, a.AddInplace(b))
	assert.Equal(t, ^uint32(0), a.Get(0, 0))
}

func TestAddInplaceRejectsMismatch(t *testing.T) {
	a, err := New(2, 2)
	require.NoError(t, err)
	b, err := New(3, 2)
	require.NoError(t, err)
	assert.Error(t, a.AddInplace(b))
}

func TestFlipInplace(t *testing.T) {
	g, err := New(2, 3)
	require.NoError(t, err)
	g.incr(0, 0)
	g.incr(1, 2)
	g.FlipInplace()
	assert.Equal(t, uint32(1), g.Get(0, 2))
	assert.Equal(t, uint32(1), g.Get(1, 0))
}

func TestToLuminanceFlatGridIsZero(t *testing.T) {
	g, err := New(2, 2)
	require.NoError(t, err)
	lum := g.ToLuminance()
	for _, b := range lum {
		assert.Equal(t, byte(0), b)
	}
}

func TestToLuminanceLinearMapping(t *testing.T) {
	g, err := New(1, 2)
	require.NoError(t, err)
	g.cells[0] = 0
	g.cells[1] = 10
	lum := g.ToLuminance()
	assert.Equal(t, byte(0), lum[0])
	assert.Equal(t, byte(255), lum[1])
}
