package scheduler

import (
	"container/heap"

	"VoxelTerrain/internal/voxel"
)

type queued struct {
	addr     voxel.Address
	distance int
}

// addressQueue is a min-heap of addresses keyed by squared column distance to the
// viewpoint, ties broken by address key.
type addressQueue []queued

func (q addressQueue) Len() int { return len(q) }

func (q addressQueue) Less(i, j int) bool {
	if q[i].distance != q[j].distance {
		return q[i].distance < q[j].distance
	}
	return q[i].addr.Less(q[j].addr)
}

func (q addressQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *addressQueue) Push(x any) { *q = append(*q, x.(queued)) }

func (q *addressQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// Nearest returns at most limit addresses from candidates, closest to center first.
func Nearest(candidates []voxel.Address, center voxel.ColumnPosition, limit int) []voxel.Address {
	if limit <= 0 || len(candidates) == 0 {
		return nil
	}
	q := make(addressQueue, 0, len(candidates))
	for _, a := range candidates {
		q = append(q, queued{addr: a, distance: a.Column.DistanceSq(center)})
	}
	heap.Init(&q)

	if limit > len(q) {
		limit = len(q)
	}
	out := make([]voxel.Address, 0, limit)
	for len(out) < limit {
		out = append(out, heap.Pop(&q).(queued).addr)
	}
	return out
}
