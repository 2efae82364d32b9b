package chunk

import (
	"VoxelTerrain/internal/meshing"
	"VoxelTerrain/internal/voxel"
)

// MeshHandle is the render target's opaque reference to a published mesh.
type MeshHandle any

// Collider is an opaque baked collision shape.
type Collider any

// MeshSink is the render-target binding. Publish receives fully built buffers only.
type MeshSink interface {
	Publish(addr voxel.Address, mesh *meshing.Buffers) (MeshHandle, error)
	Release(handle MeshHandle)
}

// ColliderBaker is the physics-bake primitive. Bake may be slow and is called from
// worker goroutines; a nil Collider with a nil error means no shape is needed.
type ColliderBaker interface {
	Bake(handle MeshHandle) (Collider, error)
	Destroy(collider Collider)
}
