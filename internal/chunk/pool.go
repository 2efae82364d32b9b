package chunk

import (
	"errors"
	"fmt"
	"sync"

	"VoxelTerrain/internal/logger"
	"VoxelTerrain/internal/meshing"
	"VoxelTerrain/internal/voxel"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/zap"
)

var ErrPoolExhausted = errors.New("chunk pool exhausted")

// Resources are the render and collision objects bound to one active address.
type Resources struct {
	Mesh          *meshing.Buffers
	MeshHandle    MeshHandle
	Collider      Collider
	ColliderBaked bool
}

type slot struct {
	addr voxel.Address
	res  Resources
}

type PoolStats struct {
	Capacity  int
	Active    int
	Inactive  int
	Published int
	Evictions int // inactive slots dropped to make room
	Recycled  int // inactive slots whose buffers were handed to a new build
	Reclaimed int // inactive slots reactivated by their own address
}

// Pool owns mesh buffers and collider handles of active chunks. Released slots stay in an
// LRU keyed by address so their buffers can be recycled, or reclaimed when the same
// address becomes active again; the least recently released slot goes first when
// capacity runs out.
//
// Writes happen on the orchestrating goroutine. Reads may come from render or physics
// consumers, which only ever observe fully published buffers.
type Pool struct {
	mu       sync.RWMutex
	capacity int
	active   map[voxel.Address]*slot
	inactive *simplelru.LRU[voxel.Address, *slot]
	sink     MeshSink
	baker    ColliderBaker
	log      *zap.Logger

	published int
	evictions int
	recycled  int
	reclaimed int
}

func NewPool(capacity int, sink MeshSink, baker ColliderBaker, log *zap.Logger) *Pool {
	// active plus inactive never exceeds capacity, so the LRU never evicts on its own
	inactive, err := simplelru.NewLRU[voxel.Address, *slot](max(capacity, 1), nil)
	if err != nil {
		panic(err)
	}
	return &Pool{
		capacity: capacity,
		active:   make(map[voxel.Address]*slot),
		inactive: inactive,
		sink:     sink,
		baker:    baker,
		log:      logger.OrNop(log).Named("pool"),
	}
}

// Baker exposes the collider baker so the collider stage can call it from workers.
func (p *Pool) Baker() ColliderBaker {
	return p.baker
}

// acquire returns the active slot of addr, activating a new one if needed.
// Caller holds p.mu.
func (p *Pool) acquire(addr voxel.Address) (*slot, error) {
	if s, ok := p.active[addr]; ok {
		return s, nil
	}
	if s, ok := p.inactive.Peek(addr); ok {
		p.inactive.Remove(addr)
		p.active[addr] = s
		p.reclaimed++
		return s, nil
	}
	if len(p.active)+p.inactive.Len() >= p.capacity {
		if !p.evictLocked() {
			return nil, fmt.Errorf("%w: %d active of %d", ErrPoolExhausted, len(p.active), p.capacity)
		}
	}
	s := &slot{addr: addr}
	p.active[addr] = s
	return s, nil
}

// evictLocked drops the least recently released slot and returns its buffers.
func (p *Pool) evictLocked() bool {
	_, s, ok := p.inactive.RemoveOldest()
	if !ok {
		return false
	}
	p.evictions++
	p.log.Debug("evicted inactive slot", zap.Stringer("address", s.addr))
	return true
}

// TakeBuffers hands out mesh buffers for a new build, recycling those of the least
// recently released slot when there is one.
func (p *Pool) TakeBuffers() *meshing.Buffers {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, s, ok := p.inactive.RemoveOldest()
	if !ok {
		return &meshing.Buffers{}
	}
	p.recycled++
	if s.res.Mesh == nil {
		return &meshing.Buffers{}
	}
	s.res.Mesh.Reset()
	return s.res.Mesh
}

// PublishMesh replaces the render mesh of addr wholesale. The new buffers are handed to
// the sink before the old handle is released, so consumers never see a partial mesh.
// Empty meshes are recorded but not sent to the sink.
func (p *Pool) PublishMesh(addr voxel.Address, mesh *meshing.Buffers) error {
	var handle MeshHandle
	if !mesh.Empty() && p.sink != nil {
		h, err := p.sink.Publish(addr, mesh)
		if err != nil {
			return fmt.Errorf("publish mesh %v: %w", addr, err)
		}
		handle = h
	}

	p.mu.Lock()
	s, err := p.acquire(addr)
	if err != nil {
		p.mu.Unlock()
		if handle != nil {
			p.sink.Release(handle)
		}
		return err
	}
	old := s.res
	s.res = Resources{Mesh: mesh, MeshHandle: handle}
	p.published++
	p.mu.Unlock()

	p.releaseResources(old)
	return nil
}

// Mesh returns the published buffers of an active address.
func (p *Pool) Mesh(addr voxel.Address) (*meshing.Buffers, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.active[addr]
	if !ok || s.res.Mesh == nil {
		return nil, false
	}
	return s.res.Mesh, true
}

// Resources of an active address.
func (p *Pool) Resources(addr voxel.Address) (Resources, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.active[addr]
	if !ok {
		return Resources{}, false
	}
	return s.res, true
}

// AttachCollider binds a baked collider to the live slot of addr, destroying the one it
// replaces. Unknown addresses destroy the collider instead.
func (p *Pool) AttachCollider(addr voxel.Address, collider Collider) {
	p.mu.Lock()
	s, ok := p.active[addr]
	var old Collider
	if ok {
		old = s.res.Collider
		s.res.Collider = collider
	}
	p.mu.Unlock()

	if !ok {
		old = collider
	}
	if old != nil && p.baker != nil {
		p.baker.Destroy(old)
	}
}

// MarkColliderBaked records that collider baking finished for addr. It is idempotent
// and ignores unknown addresses.
func (p *Pool) MarkColliderBaked(addr voxel.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.active[addr]; ok {
		s.res.ColliderBaked = true
	}
}

// ReleaseCollider destroys the collider of addr and clears its baked flag, keeping the
// published mesh. It is used when an address drops out of the update distance.
func (p *Pool) ReleaseCollider(addr voxel.Address) {
	p.mu.Lock()
	s, ok := p.active[addr]
	var old Collider
	if ok {
		old = s.res.Collider
		s.res.Collider = nil
		s.res.ColliderBaked = false
	}
	p.mu.Unlock()

	if old != nil && p.baker != nil {
		p.baker.Destroy(old)
	}
}

func (p *Pool) ColliderBaked(addr voxel.Address) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.active[addr]
	return ok && s.res.ColliderBaked
}

// ResolveActive returns the resources of every requested address that is active.
// Addresses without resources are absent from the result.
func (p *Pool) ResolveActive(addrs []voxel.Address) map[voxel.Address]Resources {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[voxel.Address]Resources, len(addrs))
	for _, addr := range addrs {
		if s, ok := p.active[addr]; ok {
			out[addr] = s.res
		}
	}
	return out
}

// Release deactivates addr: its sink handle and collider are released and the slot joins
// the inactive LRU list with its buffers kept for reuse.
func (p *Pool) Release(addr voxel.Address) {
	p.mu.Lock()
	s, ok := p.active[addr]
	if !ok {
		p.mu.Unlock()
		return
	}
	delete(p.active, addr)
	old := s.res
	s.res = Resources{Mesh: old.Mesh}
	p.inactive.Add(addr, s)
	p.mu.Unlock()

	old.Mesh = nil
	p.releaseResources(old)
}

// Clear releases every active slot and forgets all inactive ones.
func (p *Pool) Clear() {
	p.mu.Lock()
	all := make([]Resources, 0, len(p.active))
	for addr, s := range p.active {
		all = append(all, s.res)
		delete(p.active, addr)
	}
	p.inactive.Purge()
	p.mu.Unlock()

	for _, res := range all {
		p.releaseResources(res)
	}
}

func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PoolStats{
		Capacity:  p.capacity,
		Active:    len(p.active),
		Inactive:  p.inactive.Len(),
		Published: p.published,
		Evictions: p.evictions,
		Recycled:  p.recycled,
		Reclaimed: p.reclaimed,
	}
}

func (p *Pool) releaseResources(res Resources) {
	if res.MeshHandle != nil && p.sink != nil {
		p.sink.Release(res.MeshHandle)
	}
	if res.Collider != nil && p.baker != nil {
		p.baker.Destroy(res.Collider)
	}
}
