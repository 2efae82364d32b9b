package meshing

import (
	"VoxelTerrain/internal/voxel"
)

// Func builds the surface of grid into dst, replacing whatever dst held.
type Func func(grid *voxel.Grid, dst *Buffers) error

// ForMode selects the greedy or the per-voxel-face emitter. Both produce the same
// visible surface; greedy emits fewer, larger quads.
func ForMode(greedy bool) Func {
	if greedy {
		return BuildGreedy
	}
	return Build
}

// visible reports whether the face of the solid voxel at p in direction dir is exposed:
// its neighbour is air or outside the grid.
func visible(grid *voxel.Grid, p [3]int, dir *direction) bool {
	nx, ny, nz := p[0]+dir.step[0], p[1]+dir.step[1], p[2]+dir.step[2]
	if !grid.InBounds(nx, ny, nz) {
		return true
	}
	return grid.At(nx, ny, nz) == voxel.Air
}

// Build emits one quad per exposed voxel face.
func Build(grid *voxel.Grid, dst *Buffers) error {
	if err := grid.Validate(); err != nil {
		return err
	}
	dst.Reset()
	dst.Reserve(Capacity(grid))

	for y := 0; y < grid.SizeY; y++ {
		for z := 0; z < grid.SizeZ; z++ {
			for x := 0; x < grid.SizeX; x++ {
				id := grid.At(x, y, z)
				if id == voxel.Air {
					continue
				}
				p := [3]int{x, y, z}
				for i := range directions {
					dir := &directions[i]
					if !visible(grid, p, dir) {
						continue
					}
					if err := emitQuad(dst, dir, p, 1, 1, uint16(id)); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
