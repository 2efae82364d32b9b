package voxel

import "VoxelTerrain/internal/noise"

const dirtDepth = 3

// HeightSampler is the part of the noise field terrain filling needs.
type HeightSampler interface {
	Sample(x, y, z int) noise.Sample
	HalfHeight() int
}

// Dimensions of one chunk partition in voxels.
type Dimensions struct {
	Size            int // x and z
	PartitionHeight int // y
}

// WorldOrigin returns the world-space voxel coordinate of the partition's (0,0,0) corner.
// Partition 0 starts at -halfHeight so partitions share the noise field's zero-centered frame.
func WorldOrigin(addr Address, dims Dimensions, halfHeight int) (x, y, z int) {
	return addr.Column.X * dims.Size,
		addr.Partition*dims.PartitionHeight - halfHeight,
		addr.Column.Z * dims.Size
}

// Fill generates the voxel grid of addr from the height field.
func Fill(field HeightSampler, addr Address, dims Dimensions) (*Grid, error) {
	grid := NewGrid(dims.Size, dims.PartitionHeight, dims.Size)
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	ox, oy, oz := WorldOrigin(addr, dims, field.HalfHeight())
	for lx := 0; lx < dims.Size; lx++ {
		for lz := 0; lz < dims.Size; lz++ {
			s := field.Sample(ox+lx, oy, oz+lz)
			for ly := 0; ly < dims.PartitionHeight; ly++ {
				grid.Set(lx, ly, lz, classify(oy+ly, s))
			}
		}
	}
	return grid, nil
}

func classify(y int, s noise.Sample) ID {
	switch {
	case y > s.Height:
		if y <= s.WaterLevel {
			return Water
		}
		return Air
	case y == s.Height:
		if s.Height <= s.WaterLevel {
			return Sand
		}
		return Grass
	case y > s.Height-dirtDepth:
		return Dirt
	default:
		return Stone
	}
}
