package voxel

import "fmt"

// Grid is a dense block of voxel ids for one chunk partition.
// Index layout is x fastest, then z, then y.
type Grid struct {
	SizeX, SizeY, SizeZ int
	Voxels              []ID
}

func NewGrid(sizeX, sizeY, sizeZ int) *Grid {
	return &Grid{
		SizeX:  sizeX,
		SizeY:  sizeY,
		SizeZ:  sizeZ,
		Voxels: make([]ID, sizeX*sizeY*sizeZ),
	}
}

func (g *Grid) index(x, y, z int) int {
	return x + g.SizeX*(z+g.SizeZ*y)
}

func (g *Grid) InBounds(x, y, z int) bool {
	return x >= 0 && x < g.SizeX && y >= 0 && y < g.SizeY && z >= 0 && z < g.SizeZ
}

// At returns Air outside the grid.
func (g *Grid) At(x, y, z int) ID {
	if !g.InBounds(x, y, z) {
		return Air
	}
	return g.Voxels[g.index(x, y, z)]
}

func (g *Grid) Set(x, y, z int, id ID) {
	if !g.InBounds(x, y, z) {
		return
	}
	g.Voxels[g.index(x, y, z)] = id
}

func (g *Grid) Solid(x, y, z int) bool {
	return g.At(x, y, z) != Air
}

// Count returns the number of non-air voxels.
func (g *Grid) Count() int {
	n := 0
	for _, v := range g.Voxels {
		if v != Air {
			n++
		}
	}
	return n
}

func (g *Grid) Empty() bool {
	for _, v := range g.Voxels {
		if v != Air {
			return false
		}
	}
	return true
}

// Validate checks that the dimensions agree with the backing slice.
func (g *Grid) Validate() error {
	if g == nil {
		return fmt.Errorf("%w: nil grid", ErrMalformedGrid)
	}
	if g.SizeX <= 0 || g.SizeY <= 0 || g.SizeZ <= 0 {
		return fmt.Errorf("%w: dimensions %dx%dx%d", ErrMalformedGrid, g.SizeX, g.SizeY, g.SizeZ)
	}
	if len(g.Voxels) != g.SizeX*g.SizeY*g.SizeZ {
		return fmt.Errorf("%w: %d voxels for %dx%dx%d", ErrMalformedGrid, len(g.Voxels), g.SizeX, g.SizeY, g.SizeZ)
	}
	return nil
}
