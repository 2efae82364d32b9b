package scheduler

import (
	"VoxelTerrain/internal/chunk"
	"VoxelTerrain/internal/voxel"

	"go.uber.org/zap"
)

// DataScheduler fills voxel grids from the noise field for Unloaded entries.
type DataScheduler struct {
	stage
	store *chunk.Store
	field voxel.HeightSampler
	dims  voxel.Dimensions

	addrs []voxel.Address
	grids []*voxel.Grid
	errs  []error
}

func NewDataScheduler(store *chunk.Store, field voxel.HeightSampler, dims voxel.Dimensions, opts Options) *DataScheduler {
	return &DataScheduler{
		stage: newStage("data", opts),
		store: store,
		field: field,
		dims:  dims,
	}
}

// Start schedules up to BatchSize of the Unloaded candidates nearest to center and
// returns how many were scheduled. Candidates in any other stage are ignored.
func (d *DataScheduler) Start(candidates []voxel.Address, center voxel.ColumnPosition) (int, error) {
	if !d.IsReady() {
		return 0, ErrNotReady
	}

	eligible := candidates[:0:0]
	for _, a := range candidates {
		if d.store.Stage(a) == chunk.Unloaded {
			eligible = append(eligible, a)
		}
	}

	for _, a := range Nearest(eligible, center, d.batchSize) {
		d.store.Require(a)
		if err := d.store.Advance(a, chunk.Unloaded); err != nil {
			d.log.Warn("skipping candidate", zap.Error(err))
			continue
		}
		d.addrs = append(d.addrs, a)
	}
	d.grids = make([]*voxel.Grid, len(d.addrs))
	d.errs = make([]error, len(d.addrs))

	d.launch(len(d.addrs), func(i int) error {
		d.grids[i], d.errs[i] = voxel.Fill(d.field, d.addrs[i], d.dims)
		return d.errs[i]
	})
	return len(d.addrs), nil
}

// Complete waits for the batch and commits the generated grids. Entries unloaded while
// the batch ran are removed; failed entries go back to Unloaded to be retried.
func (d *DataScheduler) Complete() (Report, error) {
	if d.IsReady() {
		return Report{Stage: d.name}, nil
	}
	elapsed, batchErr := d.join()
	r := Report{Stage: d.name, Scheduled: len(d.addrs), Duration: elapsed}

	var failures []error
	for i, a := range d.addrs {
		switch {
		case d.store.UnloadRequested(a):
			d.store.Remove(a)
			r.Discarded++
		case batchErr != nil || d.errs[i] != nil || d.grids[i] == nil:
			if d.errs[i] != nil {
				failures = append(failures, d.errs[i])
			}
			_ = d.store.Revert(a, chunk.DataPending)
			r.Failed++
		default:
			if err := d.store.CommitGrid(a, d.grids[i]); err != nil {
				failures = append(failures, err)
				r.Failed++
				continue
			}
			r.Processed++
		}
	}

	d.addrs, d.grids, d.errs = d.addrs[:0], nil, nil
	d.logComplete(r, failures)
	return r, batchErr
}

// Dispose waits for any in-flight batch and drops its results.
func (d *DataScheduler) Dispose() {
	if d.IsReady() {
		return
	}
	_, _ = d.join()
	for _, a := range d.addrs {
		if d.store.UnloadRequested(a) {
			d.store.Remove(a)
			continue
		}
		_ = d.store.Revert(a, chunk.DataPending)
	}
	d.addrs, d.grids, d.errs = d.addrs[:0], nil, nil
}
