package chunk

import (
	"errors"
	"fmt"
	"sort"

	"VoxelTerrain/internal/logger"
	"VoxelTerrain/internal/voxel"

	"go.uber.org/zap"
)

// Stage is the pipeline progress of one chunk partition. It only moves forward,
// one step at a time, until the entry is unloaded.
type Stage int

const (
	Unloaded Stage = iota
	DataPending
	DataReady
	MeshPending
	MeshReady
	ColliderPending
	Active
)

var stageNames = [...]string{"unloaded", "data-pending", "data-ready", "mesh-pending", "mesh-ready", "collider-pending", "active"}

func (s Stage) String() string {
	if s < Unloaded || s > Active {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Pending reports whether a stage batch currently owns entries in this stage.
func (s Stage) Pending() bool {
	return s == DataPending || s == MeshPending || s == ColliderPending
}

var ErrInvalidTransition = errors.New("invalid stage transition")

// Entry is the per-address record. Grid is owned by the entry; mesh workers only read it.
type Entry struct {
	Address voxel.Address
	Stage   Stage
	Grid    *voxel.Grid
	// Stale is set when a neighbour's collision state changed after this entry was meshed.
	Stale bool

	unloadRequested bool
}

// Store is the registry of chunk entries. It is mutated only by the orchestrating
// goroutine and holds no lock.
type Store struct {
	entries    map[voxel.Address]*Entry
	partitions int
	log        *zap.Logger
}

func NewStore(partitions int, log *zap.Logger) *Store {
	return &Store{
		entries:    make(map[voxel.Address]*Entry),
		partitions: partitions,
		log:        logger.OrNop(log).Named("store"),
	}
}

// Partitions is the number of slabs per column.
func (s *Store) Partitions() int {
	return s.partitions
}

// Require returns the entry of addr, creating an Unloaded one if needed. A deferred
// unload of addr is cancelled.
func (s *Store) Require(addr voxel.Address) *Entry {
	e, ok := s.entries[addr]
	if !ok {
		e = &Entry{Address: addr, Stage: Unloaded}
		s.entries[addr] = e
	}
	e.unloadRequested = false
	return e
}

func (s *Store) Entry(addr voxel.Address) (*Entry, bool) {
	e, ok := s.entries[addr]
	return e, ok
}

// Stage of addr; unknown addresses are Unloaded.
func (s *Store) Stage(addr voxel.Address) Stage {
	if e, ok := s.entries[addr]; ok {
		return e.Stage
	}
	return Unloaded
}

// Advance moves addr from `from` to the next stage.
func (s *Store) Advance(addr voxel.Address, from Stage) error {
	e, ok := s.entries[addr]
	if !ok {
		return fmt.Errorf("%w: %v is not registered", ErrInvalidTransition, addr)
	}
	if e.Stage != from || from == Active {
		return fmt.Errorf("%w: %v is %v, not %v", ErrInvalidTransition, addr, e.Stage, from)
	}
	e.Stage = from + 1
	return nil
}

// CommitGrid stores generated voxel data and moves addr from DataPending to DataReady.
func (s *Store) CommitGrid(addr voxel.Address, grid *voxel.Grid) error {
	if err := s.Advance(addr, DataPending); err != nil {
		return err
	}
	s.entries[addr].Grid = grid
	return nil
}

// Revert returns a pending entry to the stage it was scheduled from, so a failed unit
// is retried by a later batch.
func (s *Store) Revert(addr voxel.Address, pending Stage) error {
	e, ok := s.entries[addr]
	if !ok {
		return fmt.Errorf("%w: %v is not registered", ErrInvalidTransition, addr)
	}
	if !pending.Pending() || e.Stage != pending {
		return fmt.Errorf("%w: cannot revert %v from %v", ErrInvalidTransition, addr, e.Stage)
	}
	e.Stage = pending - 1
	return nil
}

// Demote steps a settled entry back to a lower committed stage when it drops out of the
// ring that drove it there. It is a partial unload: the caller releases the resources
// of the dropped stages. Pending entries are left to their batch and cannot be demoted.
func (s *Store) Demote(addr voxel.Address, to Stage) error {
	e, ok := s.entries[addr]
	if !ok {
		return fmt.Errorf("%w: %v is not registered", ErrInvalidTransition, addr)
	}
	if e.Stage.Pending() || to.Pending() || to < DataReady || to >= e.Stage {
		return fmt.Errorf("%w: cannot demote %v from %v to %v", ErrInvalidTransition, addr, e.Stage, to)
	}
	e.Stage = to
	if to < MeshReady {
		e.Stale = false
	}
	return nil
}

// Unload drops addr and its voxel data. Entries owned by an in-flight batch are only
// flagged; the batch unloads them when it completes. It reports whether the unload was deferred.
func (s *Store) Unload(addr voxel.Address) (deferred bool) {
	e, ok := s.entries[addr]
	if !ok {
		return false
	}
	if e.Stage.Pending() {
		e.unloadRequested = true
		return true
	}
	delete(s.entries, addr)
	return false
}

// UnloadRequested reports whether addr left the streaming radius while in flight.
func (s *Store) UnloadRequested(addr voxel.Address) bool {
	e, ok := s.entries[addr]
	return ok && e.unloadRequested
}

// Remove deletes addr regardless of its stage. Stage schedulers use it to finish a
// deferred unload once their batch no longer references the entry.
func (s *Store) Remove(addr voxel.Address) {
	delete(s.entries, addr)
}

// NotifyNeighborsChanged flags every meshed face neighbour of addr as stale and
// returns how many were flagged.
func (s *Store) NotifyNeighborsChanged(addr voxel.Address) int {
	flagged := 0
	for _, n := range addr.Neighbors(s.partitions) {
		e, ok := s.entries[n]
		if !ok || e.Stage < MeshReady {
			continue
		}
		if !e.Stale {
			e.Stale = true
			flagged++
		}
	}
	if flagged > 0 {
		s.log.Debug("neighbours flagged stale",
			zap.Stringer("address", addr),
			zap.Int("count", flagged))
	}
	return flagged
}

// Stale returns the flagged addresses in key order.
func (s *Store) Stale() []voxel.Address {
	var out []voxel.Address
	for addr, e := range s.entries {
		if e.Stale {
			out = append(out, addr)
		}
	}
	sortAddresses(out)
	return out
}

func (s *Store) ClearStale(addr voxel.Address) {
	if e, ok := s.entries[addr]; ok {
		e.Stale = false
	}
}

// InStage returns the addresses currently in stage, in key order.
func (s *Store) InStage(stage Stage) []voxel.Address {
	var out []voxel.Address
	for addr, e := range s.entries {
		if e.Stage == stage {
			out = append(out, addr)
		}
	}
	sortAddresses(out)
	return out
}

// Counts returns the number of entries per stage.
func (s *Store) Counts() map[Stage]int {
	counts := make(map[Stage]int)
	for _, e := range s.entries {
		counts[e.Stage]++
	}
	return counts
}

func (s *Store) Len() int {
	return len(s.entries)
}

func sortAddresses(addrs []voxel.Address) {
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })
}
