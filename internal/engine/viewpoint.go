package engine

import (
	"math"

	"VoxelTerrain/internal/voxel"

	mgl "github.com/go-gl/mathgl/mgl32"
)

// ViewpointProvider supplies the world-space position streaming is centered on.
// It is read once per tick.
type ViewpointProvider interface {
	Viewpoint() mgl.Vec3
}

// ViewpointFunc adapts a function to ViewpointProvider.
type ViewpointFunc func() mgl.Vec3

func (f ViewpointFunc) Viewpoint() mgl.Vec3 {
	return f()
}

// FixedViewpoint never moves.
type FixedViewpoint mgl.Vec3

func (v FixedViewpoint) Viewpoint() mgl.Vec3 {
	return mgl.Vec3(v)
}

// ColumnAt returns the column containing world position p for chunks of the given size.
func ColumnAt(p mgl.Vec3, size int) voxel.ColumnPosition {
	x := int(math.Floor(float64(p.X())))
	z := int(math.Floor(float64(p.Z())))
	return voxel.ColumnPosition{X: voxel.FloorDiv(x, size), Z: voxel.FloorDiv(z, size)}
}
