package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCellListInsertMoveRemove(t *testing.T) {
	box := NewBox(12, 12, 12)
	cl, err := NewCellList(box, 3.0)
	require.NoError(t, err)
	require.Equal(t, 4, cl.nx)

	positions := map[int][3]float64{
		1: {0, 0, 0},
		2: {5, 5, 5},
		3: {-5, -5, -5},
	}
	for id, p := range positions {
		cl.Insert(id, p[0], p[1], p[2])
	}

	cl.Validate(func(id int) (float64, float64, float64) {
		p := positions[id]
		return p[0], p[1], p[2]
	})

	cl.Move(1, 5.9, 5.9, 5.9)
	positions[1] = [3]float64{5.9, 5.9, 5.9}
	cl.Validate(func(id int) (float64, float64, float64) {
		p := positions[id]
		return p[0], p[1], p[2]
	})

	idx1, ok := cl.CellOf(1)
	require.True(t, ok)
	idx2, ok := cl.CellOf(2)
	require.True(t, ok)
	require.Equal(t, idx1, idx2)

	cl.Remove(2)
	_, ok = cl.CellOf(2)
	require.False(t, ok)
	require.Contains(t, cl.Cell(idx1), 1)
}

func TestCellListNeighborCellsWraps(t *testing.T) {
	box := NewBox(12, 12, 12)
	cl, err := NewCellList(box, 3.0)
	require.NoError(t, err)

	neighbors := cl.NeighborCells(0)
	require.Len(t, neighbors, 27)
}

func TestCellListRejectsTooFewCells(t *testing.T) {
	box := NewBox(4, 4, 4)
	_, err := NewCellList(box, 3.0)
	require.Error(t, err)
}

func TestBoxWrapTriclinic(t *testing.T) {
	box := NewBox(10, 10, 10)
	box.XY = 2.0

	x, y, z := box.Wrap(0, 6, 0)
	require.InDelta(t, -4, y, 1e-9)
	// the y-wrap by one box length should also subtract one xy tilt from x
	require.InDelta(t, -2, x, 1e-9)
	_ = z
}
