package engine

import (
	"errors"
	"time"

	"VoxelTerrain/internal/chunk"
	"VoxelTerrain/internal/scheduler"
	"VoxelTerrain/internal/voxel"

	"go.uber.org/zap"
)

var ErrDisposed = errors.New("engine disposed")

// StageStats describe one scheduler.
type StageStats struct {
	Busy     bool
	Average  time.Duration
	Samples  int
	Counters scheduler.Counters
}

type Stats struct {
	Ticks      int
	LastTick   time.Duration
	Center     voxel.ColumnPosition
	Resident   int
	Entries    map[chunk.Stage]int
	Stale      int
	Demoted    int
	Pool       chunk.PoolStats
	Schedulers map[string]StageStats
	Converged  bool
}

func (e *Engine) Stats() Stats {
	s := Stats{
		Ticks:      e.ticks,
		LastTick:   e.lastTick,
		Center:     e.center,
		Resident:   len(e.resident),
		Entries:    e.store.Counts(),
		Stale:      len(e.store.Stale()),
		Demoted:    e.demoted,
		Pool:       e.pool.Stats(),
		Schedulers: make(map[string]StageStats, len(e.feeds)),
		Converged:  e.Converged(),
	}
	for _, f := range e.feeds {
		s.Schedulers[f.name] = StageStats{
			Busy:     !f.sched.IsReady(),
			Average:  f.sched.Timer().Average(),
			Samples:  f.sched.Timer().Len(),
			Counters: f.sched.Counters(),
		}
	}
	return s
}

func (e *Engine) LogStats() {
	s := e.Stats()
	fields := []zap.Field{
		zap.Int("tick", s.Ticks),
		zap.Stringer("center", s.Center),
		zap.Int("resident", s.Resident),
		zap.Int("active", s.Entries[chunk.Active]),
		zap.Int("meshReady", s.Entries[chunk.MeshReady]),
		zap.Int("dataReady", s.Entries[chunk.DataReady]),
		zap.Int("stale", s.Stale),
		zap.Int("demoted", s.Demoted),
		zap.Int("poolActive", s.Pool.Active),
		zap.Int("poolInactive", s.Pool.Inactive),
		zap.Int("poolEvictions", s.Pool.Evictions),
		zap.Int("poolRecycled", s.Pool.Recycled),
		zap.Bool("converged", s.Converged),
	}
	for name, st := range s.Schedulers {
		fields = append(fields, zap.Duration(name+"Average", st.Average))
	}
	e.log.Info("pipeline stats", fields...)
}
