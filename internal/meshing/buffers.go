package meshing

import (
	"VoxelTerrain/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	VerticesPerFace  = 4
	IndicesPerFace   = 6
	FacesPerVoxel    = 6
	TrianglesPerFace = 2
)

// Vertex is one corner of an emitted face. UV.Z carries the voxel id for texture-array lookup.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Tangent  mgl32.Vec4
	UV       mgl32.Vec3
}

// Buffers hold the render mesh of one chunk partition.
type Buffers struct {
	Vertices  []Vertex
	Triangles []int32
}

// NewBuffers preallocates room for the worst case of grid so emission never grows the slices.
func NewBuffers(grid *voxel.Grid) *Buffers {
	vertices, indices := Capacity(grid)
	return &Buffers{
		Vertices:  make([]Vertex, 0, vertices),
		Triangles: make([]int32, 0, indices),
	}
}

// Capacity is the upper bound of vertices and triangle indices for grid:
// every solid voxel showing all six faces.
func Capacity(grid *voxel.Grid) (vertices, indices int) {
	if grid == nil {
		return 0, 0
	}
	solid := grid.Count()
	return VerticesPerFace * FacesPerVoxel * solid, IndicesPerFace * FacesPerVoxel * solid
}

func (b *Buffers) VertexCount() int {
	if b == nil {
		return 0
	}
	return len(b.Vertices)
}

// TriangleCount is the number of triangles, not indices.
func (b *Buffers) TriangleCount() int {
	if b == nil {
		return 0
	}
	return len(b.Triangles) / 3
}

func (b *Buffers) Empty() bool {
	return b.VertexCount() == 0
}

// Reset truncates both buffers, keeping their capacity for reuse.
func (b *Buffers) Reset() {
	b.Vertices = b.Vertices[:0]
	b.Triangles = b.Triangles[:0]
}

// Reserve grows the buffers' capacity to at least the given sizes.
func (b *Buffers) Reserve(vertices, indices int) {
	if cap(b.Vertices) < vertices {
		b.Vertices = make([]Vertex, 0, vertices)
	}
	if cap(b.Triangles) < indices {
		b.Triangles = make([]int32, 0, indices)
	}
}
