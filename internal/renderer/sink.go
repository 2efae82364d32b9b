package renderer

import (
	"fmt"
	"sort"
	"sync"

	"VoxelTerrain/internal/chunk"
	"VoxelTerrain/internal/logger"
	"VoxelTerrain/internal/meshing"
	"VoxelTerrain/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// MemorySink is a chunk.MeshSink that keeps published chunk models in memory, standing
// in for a GPU-backed scene. Handles are the *Model values themselves.
type MemorySink struct {
	mu          sync.RWMutex
	models      map[*Model]struct{}
	nextID      int
	dims        voxel.Dimensions
	halfHeight  int
	castShadows bool
	log         *zap.Logger

	published int
	released  int
}

func NewMemorySink(dims voxel.Dimensions, halfHeight int, castShadows bool, log *zap.Logger) *MemorySink {
	return &MemorySink{
		models:      make(map[*Model]struct{}),
		dims:        dims,
		halfHeight:  halfHeight,
		castShadows: castShadows,
		log:         logger.OrNop(log).Named("sink"),
	}
}

// Publish copies the mesh into a new model placed at the partition's world origin.
func (s *MemorySink) Publish(addr voxel.Address, mesh *meshing.Buffers) (chunk.MeshHandle, error) {
	if mesh == nil || mesh.Empty() {
		return nil, fmt.Errorf("publish %v: empty mesh", addr)
	}
	x, y, z := voxel.WorldOrigin(addr, s.dims, s.halfHeight)
	model := CreateChunkModel(addr, mgl32.Vec3{float32(x), float32(y), float32(z)}, mesh)
	model.CastShadows = s.castShadows

	s.mu.Lock()
	s.nextID++
	model.Id = s.nextID
	s.models[model] = struct{}{}
	s.published++
	s.mu.Unlock()
	return model, nil
}

func (s *MemorySink) Release(handle chunk.MeshHandle) {
	model, ok := handle.(*Model)
	if !ok {
		s.log.Warn("release of foreign handle", zap.Any("handle", handle))
		return
	}
	s.mu.Lock()
	if _, live := s.models[model]; live {
		delete(s.models, model)
		s.released++
	}
	s.mu.Unlock()
}

func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.models)
}

// Models returns the live models ordered by id.
func (s *MemorySink) Models() []*Model {
	s.mu.RLock()
	out := make([]*Model, 0, len(s.models))
	for m := range s.models {
		out = append(out, m)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out
}

// Visible returns the live models whose bounding sphere intersects the frustum.
func (s *MemorySink) Visible(f Frustum) []*Model {
	all := s.Models()
	out := all[:0]
	for _, m := range all {
		if f.IntersectsSphere(m.BoundingSphereCenter, m.BoundingSphereRadius) {
			out = append(out, m)
		}
	}
	return out
}

// Counts returns how many models were published and released so far.
func (s *MemorySink) Counts() (published, released int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.published, s.released
}
