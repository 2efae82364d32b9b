package voxel

import (
	"errors"
	"fmt"
)

type ID uint16

const (
	Air ID = iota
	Grass
	Dirt
	Stone
	Water
	Sand
)

var ErrMalformedGrid = errors.New("malformed voxel grid")

// ColumnPosition addresses a vertical stack of partitions on the horizontal chunk grid.
type ColumnPosition struct {
	X, Z int
}

// DistanceSq is the squared chunk-grid distance between two columns.
func (c ColumnPosition) DistanceSq(o ColumnPosition) int {
	dx := c.X - o.X
	dz := c.Z - o.Z
	return dx*dx + dz*dz
}

// Chebyshev is the ring index of o around c; square streaming radii compare against it.
func (c ColumnPosition) Chebyshev(o ColumnPosition) int {
	dx := abs(c.X - o.X)
	dz := abs(c.Z - o.Z)
	if dx > dz {
		return dx
	}
	return dz
}

func (c ColumnPosition) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Z)
}

// Address is one chunk partition: a column plus a slab index.
type Address struct {
	Column    ColumnPosition
	Partition int
}

// Key flattens the address into the storage coordinate (x, partition, z).
func (a Address) Key() [3]int {
	return [3]int{a.Column.X, a.Partition, a.Column.Z}
}

// Less orders addresses by key, used to break distance ties deterministically.
func (a Address) Less(b Address) bool {
	ka, kb := a.Key(), b.Key()
	for i := range ka {
		if ka[i] != kb[i] {
			return ka[i] < kb[i]
		}
	}
	return false
}

func (a Address) String() string {
	return fmt.Sprintf("(%d,%d,%d)", a.Column.X, a.Partition, a.Column.Z)
}

// Neighbors returns the face-adjacent addresses. Vertical neighbours outside
// [0, partitions) do not exist and are omitted.
func (a Address) Neighbors(partitions int) []Address {
	out := make([]Address, 0, 6)
	c := a.Column
	out = append(out,
		Address{Column: ColumnPosition{X: c.X + 1, Z: c.Z}, Partition: a.Partition},
		Address{Column: ColumnPosition{X: c.X - 1, Z: c.Z}, Partition: a.Partition},
		Address{Column: ColumnPosition{X: c.X, Z: c.Z + 1}, Partition: a.Partition},
		Address{Column: ColumnPosition{X: c.X, Z: c.Z - 1}, Partition: a.Partition},
	)
	if a.Partition+1 < partitions {
		out = append(out, Address{Column: c, Partition: a.Partition + 1})
	}
	if a.Partition > 0 {
		out = append(out, Address{Column: c, Partition: a.Partition - 1})
	}
	return out
}

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
