package renderer

import (
	"math"

	"VoxelTerrain/internal/meshing"
	"VoxelTerrain/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexStride is the number of floats per interleaved vertex:
// position (3), uv + texture layer (3), normal (3), tangent (4).
const VertexStride = 13

// Model is the render-side copy of one published chunk mesh. Vertices are chunk-local;
// Position places the partition in the world.
type Model struct {
	// HOT DATA - read by culling every frame
	Position             mgl32.Vec3 // world origin of the partition
	BoundingSphereCenter mgl32.Vec3 // world space
	BoundingSphereRadius float32
	CastShadows          bool

	// COLD DATA
	Id              int
	Name            string
	Address         voxel.Address
	Vertices        []float32 // positions only, for bounds and raycasts
	InterleavedData []float32
	Faces           []int32
}

// CreateChunkModel copies buffers into a model positioned at origin. The buffers stay
// owned by the chunk pool and are not referenced afterwards.
func CreateChunkModel(addr voxel.Address, origin mgl32.Vec3, buffers *meshing.Buffers) *Model {
	m := &Model{
		Name:            addr.String(),
		Address:         addr,
		Position:        origin,
		Vertices:        make([]float32, 0, len(buffers.Vertices)*3),
		InterleavedData: make([]float32, 0, len(buffers.Vertices)*VertexStride),
		Faces:           append([]int32(nil), buffers.Triangles...),
	}
	for _, v := range buffers.Vertices {
		m.Vertices = append(m.Vertices, v.Position.X(), v.Position.Y(), v.Position.Z())
		m.InterleavedData = append(m.InterleavedData,
			v.Position.X(), v.Position.Y(), v.Position.Z(),
			v.UV.X(), v.UV.Y(), v.UV.Z(),
			v.Normal.X(), v.Normal.Y(), v.Normal.Z(),
			v.Tangent.X(), v.Tangent.Y(), v.Tangent.Z(), v.Tangent.W())
	}
	m.CalculateBoundingSphere()
	return m
}

func (m *Model) VertexCount() int {
	return len(m.Vertices) / 3
}

// WorldVertex returns vertex i translated by the model position.
func (m *Model) WorldVertex(i int) mgl32.Vec3 {
	return mgl32.Vec3{m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]}.Add(m.Position)
}

// CalculateBoundingSphere centers the sphere on the vertex centroid and sizes it to the
// farthest vertex.
func (m *Model) CalculateBoundingSphere() {
	n := m.VertexCount()
	if n == 0 {
		m.BoundingSphereCenter = m.Position
		m.BoundingSphereRadius = 0
		return
	}

	var center mgl32.Vec3
	for i := 0; i < n; i++ {
		center = center.Add(m.WorldVertex(i))
	}
	center = center.Mul(1.0 / float32(n))

	var maxDistanceSq float32
	for i := 0; i < n; i++ {
		if d := m.WorldVertex(i).Sub(center).LenSqr(); d > maxDistanceSq {
			maxDistanceSq = d
		}
	}

	m.BoundingSphereCenter = center
	m.BoundingSphereRadius = float32(math.Sqrt(float64(maxDistanceSq)))
}

// Bounds returns the world-space axis-aligned box around the vertices.
func (m *Model) Bounds() (min, max mgl32.Vec3) {
	n := m.VertexCount()
	if n == 0 {
		return m.Position, m.Position
	}
	min, max = m.WorldVertex(0), m.WorldVertex(0)
	for i := 1; i < n; i++ {
		v := m.WorldVertex(i)
		for k := 0; k < 3; k++ {
			min[k] = float32(math.Min(float64(min[k]), float64(v[k])))
			max[k] = float32(math.Max(float64(max[k]), float64(v[k])))
		}
	}
	return min, max
}
