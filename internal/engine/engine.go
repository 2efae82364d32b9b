package engine

import (
	"context"
	"fmt"
	"time"

	"VoxelTerrain/internal/chunk"
	"VoxelTerrain/internal/config"
	"VoxelTerrain/internal/logger"
	"VoxelTerrain/internal/meshing"
	"VoxelTerrain/internal/noise"
	"VoxelTerrain/internal/scheduler"
	"VoxelTerrain/internal/voxel"

	"github.com/alitto/pond/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// stageScheduler is the common surface of the three stage schedulers.
type stageScheduler interface {
	IsReady() bool
	IsComplete() bool
	Start(candidates []voxel.Address, center voxel.ColumnPosition) (int, error)
	Complete() (scheduler.Report, error)
	Dispose()
	Timer() *scheduler.Timer
	Counters() scheduler.Counters
}

// feed binds a scheduler to the store stage it consumes and the ring it serves.
type feed struct {
	name   string
	sched  stageScheduler
	input  chunk.Stage
	radius int
}

// Engine drives the streaming pipeline. Tick must be called from a single goroutine;
// the chunk pool may be read concurrently by render and physics consumers.
type Engine struct {
	cfg       *config.Settings
	log       *zap.Logger
	viewpoint ViewpointProvider

	field   *noise.Field
	store   *chunk.Store
	pool    *chunk.Pool
	workers pond.Pool
	feeds   []feed

	center   voxel.ColumnPosition
	centered bool
	resident map[voxel.ColumnPosition]struct{}
	ticks    int
	demoted  int
	lastTick time.Duration
	disposed bool
}

// New wires the noise field, chunk store, pool and stage schedulers from cfg. sink and
// baker may be nil, in which case meshes stay in the pool only and no colliders are baked.
func New(cfg *config.Settings, viewpoint ViewpointProvider, sink chunk.MeshSink, baker chunk.ColliderBaker, log *zap.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if viewpoint == nil {
		viewpoint = FixedViewpoint{}
	}
	log = logger.OrNop(log)

	partitions := cfg.Chunk.Partitions(cfg.Noise.Height)
	field := noise.New(cfg.Noise, log.Named("noise"))
	store := chunk.NewStore(partitions, log)
	pool := chunk.NewPool(cfg.Chunk.ResidentColumns()*partitions, sink, baker, log)
	workers := pond.NewPool(cfg.Scheduler.WorkerCount())

	dims := voxel.Dimensions{Size: cfg.Chunk.Size, PartitionHeight: cfg.Chunk.PartitionHeight}
	opts := func(batch int) scheduler.Options {
		return scheduler.Options{
			Workers:     workers,
			BatchSize:   batch,
			TimerWindow: cfg.Scheduler.TimerWindow,
			Log:         log,
		}
	}

	e := &Engine{
		cfg:       cfg,
		log:       log.Named("engine"),
		viewpoint: viewpoint,
		field:     field,
		store:     store,
		pool:      pool,
		workers:   workers,
		resident:  make(map[voxel.ColumnPosition]struct{}),
	}
	e.feeds = []feed{
		{
			name:   "data",
			sched:  scheduler.NewDataScheduler(store, field, dims, opts(cfg.Scheduler.StreamingBatchSize)),
			input:  chunk.Unloaded,
			radius: cfg.Chunk.LoadDistance(),
		},
		{
			name:   "mesh",
			sched:  scheduler.NewMeshScheduler(store, pool, meshing.ForMode(cfg.Scheduler.GreedyMeshing), opts(cfg.Scheduler.MeshingBatchSize)),
			input:  chunk.DataReady,
			radius: cfg.Chunk.DrawDistance,
		},
		{
			name:   "collider",
			sched:  scheduler.NewColliderScheduler(store, pool, opts(cfg.Scheduler.ColliderBatchSize)),
			input:  chunk.MeshReady,
			radius: cfg.Chunk.UpdateDistance,
		},
	}

	e.log.Info("engine initialized",
		zap.Int("partitions", partitions),
		zap.Int("loadDistance", cfg.Chunk.LoadDistance()),
		zap.Int("drawDistance", cfg.Chunk.DrawDistance),
		zap.Int("updateDistance", cfg.Chunk.UpdateDistance),
		zap.Int("workers", cfg.Scheduler.WorkerCount()),
		zap.Int("poolCapacity", pool.Stats().Capacity))
	return e, nil
}

func (e *Engine) Config() *config.Settings { return e.cfg }

func (e *Engine) Store() *chunk.Store { return e.store }

func (e *Engine) Pool() *chunk.Pool { return e.pool }

func (e *Engine) Field() *noise.Field { return e.field }

// Center is the column streaming was last centered on.
func (e *Engine) Center() voxel.ColumnPosition { return e.center }

// Tick advances the pipeline by one step: it recenters streaming on the viewpoint,
// unloads columns that left the load distance, steps settled entries back to the stage
// their ring asks for, then for data, mesh and collider in that order completes a
// finished batch and starts the next one. Tick never blocks on
// workers. Crashed batches are returned as errors after every stage has been serviced.
func (e *Engine) Tick() error {
	if e.disposed {
		return ErrDisposed
	}
	started := time.Now()
	e.ticks++

	e.stream(ColumnAt(e.viewpoint.Viewpoint(), e.cfg.Chunk.Size))

	var errs error
	if err := e.trim(); err != nil {
		errs = multierr.Append(errs, err)
	}
	for _, f := range e.feeds {
		if err := e.service(f); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	e.lastTick = time.Since(started)

	if errs != nil {
		e.log.Error("tick failed", zap.Int("tick", e.ticks), zap.Error(errs))
	}
	return errs
}

func (e *Engine) service(f feed) error {
	var failed error
	if !f.sched.IsReady() {
		if !f.sched.IsComplete() {
			return nil
		}
		if _, err := f.sched.Complete(); err != nil {
			failed = err
		}
	}

	candidates := e.within(e.store.InStage(f.input), f.radius)
	if len(candidates) == 0 {
		return failed
	}
	if _, err := f.sched.Start(candidates, e.center); err != nil {
		return multierr.Append(failed, fmt.Errorf("start %s batch: %w", f.name, err))
	}
	return failed
}

func (e *Engine) within(addrs []voxel.Address, radius int) []voxel.Address {
	out := addrs[:0]
	for _, a := range addrs {
		if a.Column.Chebyshev(e.center) <= radius {
			out = append(out, a)
		}
	}
	return out
}

// stream diffs the resident column set against the load ring around center.
func (e *Engine) stream(center voxel.ColumnPosition) {
	if e.centered && center == e.center {
		return
	}
	e.center, e.centered = center, true

	radius := e.cfg.Chunk.LoadDistance()
	wanted := make(map[voxel.ColumnPosition]struct{}, e.cfg.Chunk.ResidentColumns())
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			wanted[voxel.ColumnPosition{X: center.X + dx, Z: center.Z + dz}] = struct{}{}
		}
	}

	left, deferred := 0, 0
	for col := range e.resident {
		if _, ok := wanted[col]; ok {
			continue
		}
		for p := 0; p < e.store.Partitions(); p++ {
			a := voxel.Address{Column: col, Partition: p}
			if e.store.Unload(a) {
				deferred++
				continue
			}
			e.pool.Release(a)
		}
		delete(e.resident, col)
		left++
	}

	entered := 0
	for col := range wanted {
		if _, ok := e.resident[col]; ok {
			continue
		}
		for p := 0; p < e.store.Partitions(); p++ {
			e.store.Require(voxel.Address{Column: col, Partition: p})
		}
		e.resident[col] = struct{}{}
		entered++
	}

	e.log.Debug("streaming recentered",
		zap.Stringer("center", center),
		zap.Int("entered", entered),
		zap.Int("left", left),
		zap.Int("deferred", deferred))
}

// trim demotes settled entries that sit above their column's target stage. Columns
// leaving the update distance lose their colliders and columns leaving the draw
// distance lose their meshes. Pending entries are picked up once their batch completes.
func (e *Engine) trim() error {
	var errs error
	demoted := 0
	for col := range e.resident {
		want := e.TargetStage(col)
		for p := 0; p < e.store.Partitions(); p++ {
			a := voxel.Address{Column: col, Partition: p}
			st := e.store.Stage(a)
			if st.Pending() || st <= want {
				continue
			}
			if want < chunk.MeshReady {
				e.pool.Release(a)
			} else {
				e.pool.ReleaseCollider(a)
			}
			if err := e.store.Demote(a, want); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			demoted++
		}
	}
	if demoted > 0 {
		e.demoted += demoted
		e.log.Debug("entries demoted",
			zap.Stringer("center", e.center),
			zap.Int("count", demoted))
	}
	return errs
}

// Converged reports whether streaming is centered on the current viewpoint, no batch is
// in flight and every resident address sits exactly at the stage its ring asks for.
func (e *Engine) Converged() bool {
	if !e.centered || ColumnAt(e.viewpoint.Viewpoint(), e.cfg.Chunk.Size) != e.center {
		return false
	}
	for _, f := range e.feeds {
		if !f.sched.IsReady() {
			return false
		}
	}
	for col := range e.resident {
		want := e.TargetStage(col)
		for p := 0; p < e.store.Partitions(); p++ {
			if e.store.Stage(voxel.Address{Column: col, Partition: p}) != want {
				return false
			}
		}
	}
	return true
}

// TargetStage is the last stage a column is driven to at its current distance.
func (e *Engine) TargetStage(col voxel.ColumnPosition) chunk.Stage {
	d := col.Chebyshev(e.center)
	switch {
	case d <= e.cfg.Chunk.UpdateDistance:
		return chunk.Active
	case d <= e.cfg.Chunk.DrawDistance:
		return chunk.MeshReady
	case d <= e.cfg.Chunk.LoadDistance():
		return chunk.DataReady
	default:
		return chunk.Unloaded
	}
}

// Run ticks at the configured rate until ctx is cancelled, logging stats at the
// configured interval.
func (e *Engine) Run(ctx context.Context) error {
	return e.RunFor(ctx, 0)
}

// RunFor is Run that also stops after maxTicks ticks when maxTicks is positive.
func (e *Engine) RunFor(ctx context.Context, maxTicks int) error {
	ticker := time.NewTicker(e.cfg.Scheduler.TickInterval())
	defer ticker.Stop()

	var stats <-chan time.Time
	if interval := e.cfg.Scheduler.StatsInterval.Duration(); interval > 0 {
		st := time.NewTicker(interval)
		defer st.Stop()
		stats = st.C
	}

	for n := 0; maxTicks <= 0 || n < maxTicks; n++ {
		select {
		case <-ctx.Done():
			return nil
		case <-stats:
			e.LogStats()
			n--
		case <-ticker.C:
			if err := e.Tick(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Dispose waits for in-flight batches, stops the workers and releases every pooled
// resource. It is safe to call more than once.
func (e *Engine) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	for _, f := range e.feeds {
		f.sched.Dispose()
	}
	e.workers.StopAndWait()
	e.pool.Clear()
	e.log.Info("engine disposed", zap.Int("ticks", e.ticks))
}
