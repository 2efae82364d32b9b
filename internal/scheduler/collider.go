package scheduler

import (
	"VoxelTerrain/internal/chunk"
	"VoxelTerrain/internal/voxel"

	"go.uber.org/zap"
)

// ColliderScheduler bakes physics colliders for MeshReady entries. Entries whose mesh
// has no vertices are never handed to the baker but still count as baked.
type ColliderScheduler struct {
	stage
	store *chunk.Store
	pool  *chunk.Pool
	baker chunk.ColliderBaker

	addrs     []voxel.Address
	handles   []chunk.MeshHandle
	bake      []int // indices into addrs that need a bake
	colliders []chunk.Collider
	errs      []error
}

func NewColliderScheduler(store *chunk.Store, pool *chunk.Pool, opts Options) *ColliderScheduler {
	return &ColliderScheduler{
		stage: newStage("collider", opts),
		store: store,
		pool:  pool,
		baker: pool.Baker(),
	}
}

// Start schedules up to BatchSize of the MeshReady candidates nearest to center.
func (c *ColliderScheduler) Start(candidates []voxel.Address, center voxel.ColumnPosition) (int, error) {
	if !c.IsReady() {
		return 0, ErrNotReady
	}

	eligible := candidates[:0:0]
	for _, a := range candidates {
		if c.store.Stage(a) == chunk.MeshReady {
			eligible = append(eligible, a)
		}
	}

	for _, a := range Nearest(eligible, center, c.batchSize) {
		if err := c.store.Advance(a, chunk.MeshReady); err != nil {
			c.log.Warn("skipping candidate", zap.Error(err))
			continue
		}
		res, ok := c.pool.Resources(a)
		idx := len(c.addrs)
		c.addrs = append(c.addrs, a)
		c.handles = append(c.handles, res.MeshHandle)
		if ok && c.baker != nil && res.Mesh != nil && !res.Mesh.Empty() {
			c.bake = append(c.bake, idx)
		}
	}
	c.colliders = make([]chunk.Collider, len(c.addrs))
	c.errs = make([]error, len(c.addrs))

	c.launch(len(c.bake), func(i int) error {
		idx := c.bake[i]
		c.colliders[idx], c.errs[idx] = c.baker.Bake(c.handles[idx])
		return c.errs[idx]
	})
	return len(c.addrs), nil
}

// Complete waits for the bakes, attaches colliders to the pool, marks every processed
// entry baked, notifies its neighbours and moves it to Active.
func (c *ColliderScheduler) Complete() (Report, error) {
	if c.IsReady() {
		return Report{Stage: c.name}, nil
	}
	elapsed, batchErr := c.join()
	r := Report{Stage: c.name, Scheduled: len(c.addrs), Duration: elapsed}

	baked := make(map[int]bool, len(c.bake))
	for _, idx := range c.bake {
		baked[idx] = true
	}

	var failures []error
	for i, a := range c.addrs {
		switch {
		case c.store.UnloadRequested(a):
			c.destroy(c.colliders[i])
			c.store.Remove(a)
			c.pool.Release(a)
			r.Discarded++
		case batchErr != nil || c.errs[i] != nil:
			if c.errs[i] != nil {
				failures = append(failures, c.errs[i])
			}
			c.destroy(c.colliders[i])
			_ = c.store.Revert(a, chunk.ColliderPending)
			r.Failed++
		default:
			if !baked[i] {
				r.Skipped++
			}
			c.attach(a, c.colliders[i])
			c.pool.MarkColliderBaked(a)
			c.store.NotifyNeighborsChanged(a)
			if err := c.store.Advance(a, chunk.ColliderPending); err != nil {
				failures = append(failures, err)
				r.Failed++
				continue
			}
			r.Processed++
		}
	}

	c.reset()
	c.logComplete(r, failures)
	return r, batchErr
}

// attach keeps the collider only while the published mesh still has vertices.
func (c *ColliderScheduler) attach(addr voxel.Address, collider chunk.Collider) {
	res, ok := c.pool.Resources(addr)
	if !ok || res.Mesh == nil || res.Mesh.Empty() {
		c.destroy(collider)
		if ok && res.Collider != nil {
			c.pool.AttachCollider(addr, nil)
		}
		return
	}
	if collider != nil {
		c.pool.AttachCollider(addr, collider)
	}
}

func (c *ColliderScheduler) destroy(collider chunk.Collider) {
	if collider != nil && c.baker != nil {
		c.baker.Destroy(collider)
	}
}

func (c *ColliderScheduler) Dispose() {
	if c.IsReady() {
		return
	}
	_, _ = c.join()
	for i, a := range c.addrs {
		c.destroy(c.colliders[i])
		if c.store.UnloadRequested(a) {
			c.store.Remove(a)
			c.pool.Release(a)
			continue
		}
		_ = c.store.Revert(a, chunk.ColliderPending)
	}
	c.reset()
}

func (c *ColliderScheduler) reset() {
	clear(c.handles)
	c.addrs, c.handles, c.bake = c.addrs[:0], c.handles[:0], c.bake[:0]
	c.colliders, c.errs = nil, nil
}
