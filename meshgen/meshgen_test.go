package meshgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baysim/oilspill/geometry2D"
	"github.com/baysim/oilspill/mesh"
)

func TestCrossedSquare(t *testing.T) {
	m, err := mesh.New(CrossedSquare())
	require.NoError(t, err)
	assert.Equal(t, 4, m.CellCount())
	assert.InDelta(t, 1.0, m.TotalArea(), 1.e-12)
	assert.Len(t, m.BoundaryCells(), 4)
}

func TestUnitSquare(t *testing.T) {
	for _, n := range []int{1, 2, 4, 7} {
		m, err := mesh.New(UnitSquare(n))
		require.NoError(t, err)
		assert.Equal(t, 2*n*n, m.CellCount())
		assert.InDelta(t, 1.0, m.TotalArea(), 1.e-12)
	}
}

func TestDelaunay(t *testing.T) {
	raw, err := Delaunay([]geometry2D.Point{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0.5, Y: 0.5},
	})
	require.NoError(t, err)
	m, err := mesh.New(raw)
	require.NoError(t, err)
	assert.Equal(t, 4, m.CellCount())
	assert.InDelta(t, 1.0, m.TotalArea(), 1.e-12)

	_, err = Delaunay([]geometry2D.Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
	assert.Error(t, err)
}
