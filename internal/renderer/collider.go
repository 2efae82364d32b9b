package renderer

import (
	"fmt"

	"VoxelTerrain/internal/chunk"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/atomic"
)

// Shape is a static triangle collider with a box broad phase.
type Shape struct {
	Min, Max mgl32.Vec3
	model    *Model
}

// Raycast returns the distance to the nearest triangle hit by ray.
func (s *Shape) Raycast(ray Ray) (float32, bool) {
	if _, hit := RayIntersectBox(ray, s.Min, s.Max); !hit {
		return 0, false
	}
	return RayIntersectModel(ray, s.model)
}

// ShapeBaker is a chunk.ColliderBaker for handles produced by MemorySink. Bake is safe
// for concurrent use.
type ShapeBaker struct {
	baked     *atomic.Int64
	destroyed *atomic.Int64
}

func NewShapeBaker() *ShapeBaker {
	return &ShapeBaker{baked: atomic.NewInt64(0), destroyed: atomic.NewInt64(0)}
}

func (b *ShapeBaker) Bake(handle chunk.MeshHandle) (chunk.Collider, error) {
	model, ok := handle.(*Model)
	if !ok || model == nil {
		return nil, fmt.Errorf("bake collider: unsupported mesh handle %T", handle)
	}
	if model.VertexCount() == 0 {
		return nil, fmt.Errorf("bake collider %s: no vertices", model.Name)
	}
	min, max := model.Bounds()
	b.baked.Inc()
	return &Shape{Min: min, Max: max, model: model}, nil
}

func (b *ShapeBaker) Destroy(chunk.Collider) {
	b.destroyed.Inc()
}

// Live is the number of baked colliders not yet destroyed.
func (b *ShapeBaker) Live() int64 {
	return b.baked.Load() - b.destroyed.Load()
}
