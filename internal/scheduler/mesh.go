package scheduler

import (
	"fmt"

	"VoxelTerrain/internal/chunk"
	"VoxelTerrain/internal/meshing"
	"VoxelTerrain/internal/voxel"

	"go.uber.org/zap"
)

// MeshScheduler builds render meshes for DataReady entries and publishes them through
// the pool.
type MeshScheduler struct {
	stage
	store *chunk.Store
	pool  *chunk.Pool
	build meshing.Func

	addrs  []voxel.Address
	grids  []*voxel.Grid
	meshes []*meshing.Buffers
	errs   []error
}

func NewMeshScheduler(store *chunk.Store, pool *chunk.Pool, build meshing.Func, opts Options) *MeshScheduler {
	if build == nil {
		build = meshing.Build
	}
	return &MeshScheduler{
		stage: newStage("mesh", opts),
		store: store,
		pool:  pool,
		build: build,
	}
}

// Start schedules up to BatchSize of the DataReady candidates nearest to center.
func (m *MeshScheduler) Start(candidates []voxel.Address, center voxel.ColumnPosition) (int, error) {
	if !m.IsReady() {
		return 0, ErrNotReady
	}

	eligible := candidates[:0:0]
	for _, a := range candidates {
		if m.store.Stage(a) == chunk.DataReady {
			eligible = append(eligible, a)
		}
	}

	for _, a := range Nearest(eligible, center, m.batchSize) {
		e, _ := m.store.Entry(a)
		if err := m.store.Advance(a, chunk.DataReady); err != nil {
			m.log.Warn("skipping candidate", zap.Error(err))
			continue
		}
		m.addrs = append(m.addrs, a)
		m.grids = append(m.grids, e.Grid)
		m.meshes = append(m.meshes, m.pool.TakeBuffers())
	}
	m.errs = make([]error, len(m.addrs))

	m.launch(len(m.addrs), func(i int) error {
		if m.grids[i] == nil {
			m.errs[i] = fmt.Errorf("mesh %v: %w", m.addrs[i], voxel.ErrMalformedGrid)
			return m.errs[i]
		}
		m.errs[i] = m.build(m.grids[i], m.meshes[i])
		return m.errs[i]
	})
	return len(m.addrs), nil
}

// Complete waits for the batch and publishes each mesh wholesale. A failed build or
// publish sends the entry back to DataReady.
func (m *MeshScheduler) Complete() (Report, error) {
	if m.IsReady() {
		return Report{Stage: m.name}, nil
	}
	elapsed, batchErr := m.join()
	r := Report{Stage: m.name, Scheduled: len(m.addrs), Duration: elapsed}

	var failures []error
	for i, a := range m.addrs {
		switch {
		case m.store.UnloadRequested(a):
			m.store.Remove(a)
			m.pool.Release(a)
			r.Discarded++
		case batchErr != nil || m.errs[i] != nil:
			if m.errs[i] != nil {
				failures = append(failures, m.errs[i])
			}
			_ = m.store.Revert(a, chunk.MeshPending)
			r.Failed++
		default:
			if err := m.pool.PublishMesh(a, m.meshes[i]); err != nil {
				failures = append(failures, err)
				_ = m.store.Revert(a, chunk.MeshPending)
				r.Failed++
				continue
			}
			if err := m.store.Advance(a, chunk.MeshPending); err != nil {
				failures = append(failures, err)
				r.Failed++
				continue
			}
			m.store.ClearStale(a)
			r.Processed++
		}
	}

	m.reset()
	m.logComplete(r, failures)
	return r, batchErr
}

func (m *MeshScheduler) Dispose() {
	if m.IsReady() {
		return
	}
	_, _ = m.join()
	for _, a := range m.addrs {
		if m.store.UnloadRequested(a) {
			m.store.Remove(a)
			m.pool.Release(a)
			continue
		}
		_ = m.store.Revert(a, chunk.MeshPending)
	}
	m.reset()
}

func (m *MeshScheduler) reset() {
	clear(m.grids)
	clear(m.meshes)
	m.addrs, m.grids, m.meshes, m.errs = m.addrs[:0], m.grids[:0], m.meshes[:0], nil
}
