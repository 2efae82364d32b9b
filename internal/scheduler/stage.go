package scheduler

import (
	"errors"
	"fmt"
	"time"

	"VoxelTerrain/internal/logger"

	"github.com/alitto/pond/v2"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNotReady is returned by Start while the previous batch has not been completed.
var ErrNotReady = errors.New("stage batch still in flight")

// Report summarizes one completed batch.
type Report struct {
	Stage     string
	Scheduled int
	Processed int
	Failed    int
	// Skipped counts units that needed no work, such as empty meshes at the collider stage.
	Skipped   int
	Discarded int
	Duration  time.Duration
}

// Counters are cumulative unit totals, updated from worker goroutines.
type Counters struct {
	Units    int64
	Failures int64
}

// batch is one in-flight data-parallel task: one pond task per chunk.
type batch struct {
	tasks   []pond.Task
	started time.Time
}

func (b *batch) done() bool {
	for _, t := range b.tasks {
		select {
		case <-t.Done():
		default:
			return false
		}
	}
	return true
}

func (b *batch) wait() error {
	var err error
	for _, t := range b.tasks {
		err = multierr.Append(err, t.Wait())
	}
	return err
}

// stage holds the single-flight machinery shared by the three stage schedulers.
type stage struct {
	name      string
	workers   pond.Pool
	batchSize int
	timer     *Timer
	log       *zap.Logger
	current   *batch

	units    *atomic.Int64
	failures *atomic.Int64
}

// Options configure a stage scheduler.
type Options struct {
	Workers     pond.Pool
	BatchSize   int
	TimerWindow int
	Log         *zap.Logger
}

func newStage(name string, opts Options) stage {
	return stage{
		name:      name,
		workers:   opts.Workers,
		batchSize: opts.BatchSize,
		timer:     NewTimer(opts.TimerWindow),
		log:       logger.OrNop(opts.Log).Named(name),
		units:     atomic.NewInt64(0),
		failures:  atomic.NewInt64(0),
	}
}

// IsReady is true when no batch is in flight.
func (s *stage) IsReady() bool {
	return s.current == nil
}

// IsComplete polls the in-flight batch without blocking. With no batch in flight there
// is nothing to wait for.
func (s *stage) IsComplete() bool {
	return s.current == nil || s.current.done()
}

func (s *stage) Timer() *Timer {
	return s.timer
}

func (s *stage) BatchSize() int {
	return s.batchSize
}

func (s *stage) Counters() Counters {
	return Counters{Units: s.units.Load(), Failures: s.failures.Load()}
}

// launch submits n independent units and marks the stage busy. n may be zero, in which
// case the batch is immediately complete but still has to be joined.
func (s *stage) launch(n int, unit func(i int) error) {
	b := &batch{tasks: make([]pond.Task, 0, n), started: time.Now()}
	for i := 0; i < n; i++ {
		i := i
		b.tasks = append(b.tasks, s.workers.Submit(func() {
			err := unit(i)
			s.units.Inc()
			if err != nil {
				s.failures.Inc()
			}
		}))
	}
	s.current = b
	s.log.Debug("batch started", zap.Int("units", n))
}

// join blocks until every unit has returned, records the cycle duration and frees the
// stage for the next batch. A non-nil error means a unit crashed.
func (s *stage) join() (time.Duration, error) {
	if s.current == nil {
		return 0, nil
	}
	err := s.current.wait()
	elapsed := time.Since(s.current.started)
	s.current = nil
	s.timer.Record(elapsed)
	if err != nil {
		return elapsed, fmt.Errorf("%s batch: %w", s.name, err)
	}
	return elapsed, nil
}

func (s *stage) logComplete(r Report, unitErrs []error) {
	if err := multierr.Combine(unitErrs...); err != nil {
		s.log.Warn("chunks failed and will be retried",
			zap.Int("failed", r.Failed),
			zap.Error(err))
	}
	s.log.Debug("batch complete",
		zap.Int("processed", r.Processed),
		zap.Int("skipped", r.Skipped),
		zap.Int("discarded", r.Discarded),
		zap.Duration("duration", r.Duration),
		zap.Duration("average", s.timer.Average()))
}
