package meshing

import (
	"VoxelTerrain/internal/voxel"
)

// BuildGreedy applies the same visibility rule as Build but merges exposed faces of equal
// id that are coplanar and adjacent into rectangles before emitting them.
func BuildGreedy(grid *voxel.Grid, dst *Buffers) error {
	if err := grid.Validate(); err != nil {
		return err
	}
	dst.Reset()
	dst.Reserve(Capacity(grid))

	size := [3]int{grid.SizeX, grid.SizeY, grid.SizeZ}
	for i := range directions {
		dir := &directions[i]
		u, v := inPlane(dir.axis)
		du, dv := size[u], size[v]
		mask := make([]voxel.ID, du*dv)

		for layer := 0; layer < size[dir.axis]; layer++ {
			for b := 0; b < dv; b++ {
				for a := 0; a < du; a++ {
					var p [3]int
					p[dir.axis], p[u], p[v] = layer, a, b
					id := grid.At(p[0], p[1], p[2])
					if id != voxel.Air && visible(grid, p, dir) {
						mask[a+b*du] = id
					} else {
						mask[a+b*du] = voxel.Air
					}
				}
			}

			for b := 0; b < dv; b++ {
				for a := 0; a < du; {
					id := mask[a+b*du]
					if id == voxel.Air {
						a++
						continue
					}

					w := 1
					for a+w < du && mask[a+w+b*du] == id {
						w++
					}
					h := 1
				grow:
					for b+h < dv {
						for k := 0; k < w; k++ {
							if mask[a+k+(b+h)*du] != id {
								break grow
							}
						}
						h++
					}

					var base [3]int
					base[dir.axis], base[u], base[v] = layer, a, b
					if err := emitQuad(dst, dir, base, w, h, uint16(id)); err != nil {
						return err
					}

					for hb := 0; hb < h; hb++ {
						for k := 0; k < w; k++ {
							mask[a+k+(b+hb)*du] = voxel.Air
						}
					}
					a += w
				}
			}
		}
	}
	return nil
}
