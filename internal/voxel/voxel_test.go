package voxel

import (
	"errors"
	"testing"

	"VoxelTerrain/internal/noise"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressKeyFlattensColumnAndPartition(t *testing.T) {
	a := Address{Column: ColumnPosition{X: 3, Z: -2}, Partition: 5}
	assert.Equal(t, [3]int{3, 5, -2}, a.Key())
}

func TestNeighborsRespectColumnBounds(t *testing.T) {
	bottom := Address{Column: ColumnPosition{X: 0, Z: 0}, Partition: 0}
	assert.Len(t, bottom.Neighbors(4), 5)

	middle := Address{Column: ColumnPosition{X: 0, Z: 0}, Partition: 2}
	assert.Len(t, middle.Neighbors(4), 6)

	top := Address{Column: ColumnPosition{X: 0, Z: 0}, Partition: 3}
	for _, n := range top.Neighbors(4) {
		assert.Less(t, n.Partition, 4)
	}
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, -1, FloorDiv(-1, 16))
	assert.Equal(t, -1, FloorDiv(-16, 16))
	assert.Equal(t, -2, FloorDiv(-17, 16))
	assert.Equal(t, 0, FloorDiv(15, 16))
	assert.Equal(t, 1, FloorDiv(16, 16))
}

func TestDistances(t *testing.T) {
	a := ColumnPosition{X: 0, Z: 0}
	b := ColumnPosition{X: 3, Z: -4}
	assert.Equal(t, 25, a.DistanceSq(b))
	assert.Equal(t, 4, a.Chebyshev(b))
}

func TestGridBoundsAreAir(t *testing.T) {
	g := NewGrid(2, 2, 2)
	g.Set(1, 1, 1, Stone)

	assert.Equal(t, Stone, g.At(1, 1, 1))
	assert.Equal(t, Air, g.At(2, 0, 0))
	assert.Equal(t, Air, g.At(-1, 0, 0))
	assert.Equal(t, 1, g.Count())
	assert.False(t, g.Empty())
}

func TestValidateRejectsMismatchedGrid(t *testing.T) {
	g := &Grid{SizeX: 2, SizeY: 2, SizeZ: 2, Voxels: make([]ID, 3)}
	err := g.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedGrid))

	var nilGrid *Grid
	assert.ErrorIs(t, nilGrid.Validate(), ErrMalformedGrid)
}

type flatField struct {
	height, water, half int
}

func (f flatField) Sample(x, y, z int) noise.Sample {
	return noise.Sample{Height: f.height, WaterLevel: f.water, X: x, Y: y, Z: z}
}

func (f flatField) HalfHeight() int { return f.half }

func TestFillLayersTerrain(t *testing.T) {
	field := flatField{height: 4, water: -10, half: 8}
	dims := Dimensions{Size: 4, PartitionHeight: 16}

	// Partition 0 spans world y [-8, 8).
	grid, err := Fill(field, Address{Partition: 0}, dims)
	require.NoError(t, err)

	assert.Equal(t, Grass, grid.At(0, 12, 0))
	assert.Equal(t, Dirt, grid.At(1, 11, 2))
	assert.Equal(t, Dirt, grid.At(1, 10, 2))
	assert.Equal(t, Stone, grid.At(3, 9, 3))
	assert.Equal(t, Stone, grid.At(3, 0, 3))
	assert.Equal(t, Air, grid.At(0, 13, 0))
}

func TestFillAboveTerrainIsEmpty(t *testing.T) {
	field := flatField{height: 0, water: -10, half: 8}
	dims := Dimensions{Size: 4, PartitionHeight: 16}

	grid, err := Fill(field, Address{Partition: 1}, dims)
	require.NoError(t, err)
	assert.True(t, grid.Empty())
}

func TestFillFloodsBelowWaterLevel(t *testing.T) {
	field := flatField{height: -6, water: -2, half: 8}
	dims := Dimensions{Size: 2, PartitionHeight: 16}

	grid, err := Fill(field, Address{Partition: 0}, dims)
	require.NoError(t, err)

	assert.Equal(t, Sand, grid.At(0, 2, 0))
	assert.Equal(t, Water, grid.At(0, 6, 0))
	assert.Equal(t, Air, grid.At(0, 7, 0))
}

func TestFillRejectsDegenerateDimensions(t *testing.T) {
	_, err := Fill(flatField{half: 8}, Address{}, Dimensions{Size: 0, PartitionHeight: 16})
	assert.ErrorIs(t, err, ErrMalformedGrid)
}
