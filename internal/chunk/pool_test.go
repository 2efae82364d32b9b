package chunk

import (
	"errors"
	"testing"

	"VoxelTerrain/internal/meshing"
	"VoxelTerrain/internal/voxel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	next     int
	live     map[int]voxel.Address
	released []int
	fail     bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{live: make(map[int]voxel.Address)}
}

func (s *recordingSink) Publish(a voxel.Address, mesh *meshing.Buffers) (MeshHandle, error) {
	if s.fail {
		return nil, errors.New("render target lost")
	}
	s.next++
	s.live[s.next] = a
	return s.next, nil
}

func (s *recordingSink) Release(h MeshHandle) {
	delete(s.live, h.(int))
	s.released = append(s.released, h.(int))
}

type recordingBaker struct {
	destroyed []Collider
}

func (b *recordingBaker) Bake(h MeshHandle) (Collider, error) {
	return h, nil
}

func (b *recordingBaker) Destroy(c Collider) {
	b.destroyed = append(b.destroyed, c)
}

func solidMesh() *meshing.Buffers {
	grid := voxel.NewGrid(1, 1, 1)
	grid.Set(0, 0, 0, voxel.Stone)
	mesh := meshing.NewBuffers(grid)
	if err := meshing.Build(grid, mesh); err != nil {
		panic(err)
	}
	return mesh
}

func TestPublishMeshSwapsWholesale(t *testing.T) {
	sink := newRecordingSink()
	p := NewPool(4, sink, &recordingBaker{}, nil)
	a := addr(0, 0, 0)

	first := solidMesh()
	require.NoError(t, p.PublishMesh(a, first))
	second := solidMesh()
	require.NoError(t, p.PublishMesh(a, second))

	mesh, ok := p.Mesh(a)
	require.True(t, ok)
	assert.Same(t, second, mesh)
	assert.Equal(t, []int{1}, sink.released, "previous handle released after the swap")
	assert.Len(t, sink.live, 1)
}

func TestEmptyMeshIsNotSentToSink(t *testing.T) {
	sink := newRecordingSink()
	p := NewPool(4, sink, nil, nil)
	a := addr(0, 0, 0)

	require.NoError(t, p.PublishMesh(a, &meshing.Buffers{}))

	res, ok := p.Resources(a)
	require.True(t, ok)
	assert.Nil(t, res.MeshHandle)
	assert.True(t, res.Mesh.Empty())
	assert.Empty(t, sink.live)
}

func TestPublishFailureLeavesPoolUntouched(t *testing.T) {
	sink := newRecordingSink()
	sink.fail = true
	p := NewPool(4, sink, nil, nil)

	err := p.PublishMesh(addr(0, 0, 0), solidMesh())
	require.Error(t, err)
	_, ok := p.Mesh(addr(0, 0, 0))
	assert.False(t, ok)
}

func TestResolveActiveOmitsUnknownAddresses(t *testing.T) {
	p := NewPool(4, newRecordingSink(), nil, nil)
	require.NoError(t, p.PublishMesh(addr(0, 0, 0), solidMesh()))

	got := p.ResolveActive([]voxel.Address{addr(0, 0, 0), addr(7, 0, 7)})
	assert.Len(t, got, 1)
	assert.Contains(t, got, addr(0, 0, 0))
	assert.Empty(t, p.ResolveActive(nil))
}

func TestMarkColliderBakedIsIdempotent(t *testing.T) {
	p := NewPool(4, newRecordingSink(), nil, nil)
	a := addr(0, 0, 0)
	require.NoError(t, p.PublishMesh(a, solidMesh()))

	p.MarkColliderBaked(a)
	p.MarkColliderBaked(a)
	p.MarkColliderBaked(addr(3, 3, 3))

	assert.True(t, p.ColliderBaked(a))
	assert.False(t, p.ColliderBaked(addr(3, 3, 3)))
}

func TestAttachColliderReplacesAndDestroys(t *testing.T) {
	baker := &recordingBaker{}
	p := NewPool(4, newRecordingSink(), baker, nil)
	a := addr(0, 0, 0)
	require.NoError(t, p.PublishMesh(a, solidMesh()))

	p.AttachCollider(a, "first")
	p.AttachCollider(a, "second")
	p.AttachCollider(addr(9, 0, 9), "orphan")

	res, _ := p.Resources(a)
	assert.Equal(t, "second", res.Collider)
	assert.Equal(t, []Collider{"first", "orphan"}, baker.destroyed)
}

func TestReleaseFreesHandlesAndKeepsBuffers(t *testing.T) {
	sink := newRecordingSink()
	baker := &recordingBaker{}
	p := NewPool(4, sink, baker, nil)
	a := addr(0, 0, 0)
	mesh := solidMesh()
	require.NoError(t, p.PublishMesh(a, mesh))
	p.AttachCollider(a, "shape")

	p.Release(a)

	_, ok := p.Mesh(a)
	assert.False(t, ok)
	assert.Empty(t, sink.live)
	assert.Equal(t, []Collider{"shape"}, baker.destroyed)
	assert.Equal(t, PoolStats{Capacity: 4, Active: 0, Inactive: 1, Published: 1}, p.Stats())

	recycled := p.TakeBuffers()
	assert.Same(t, mesh, recycled)
	assert.True(t, recycled.Empty())
	stats := p.Stats()
	assert.Equal(t, 1, stats.Recycled)
	assert.Zero(t, stats.Evictions, "recycling buffers is not an eviction")
}

func TestEvictsLeastRecentlyReleasedBeforeFailing(t *testing.T) {
	p := NewPool(2, newRecordingSink(), nil, nil)
	require.NoError(t, p.PublishMesh(addr(0, 0, 0), solidMesh()))
	require.NoError(t, p.PublishMesh(addr(1, 0, 0), solidMesh()))

	err := p.PublishMesh(addr(2, 0, 0), solidMesh())
	require.ErrorIs(t, err, ErrPoolExhausted)

	p.Release(addr(0, 0, 0))
	require.NoError(t, p.PublishMesh(addr(2, 0, 0), solidMesh()))

	stats := p.Stats()
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 0, stats.Inactive)
	assert.Equal(t, 1, stats.Evictions)
	assert.Zero(t, stats.Recycled)
}

func TestEvictionOrderFollowsRelease(t *testing.T) {
	p := NewPool(3, newRecordingSink(), nil, nil)
	for x := 0; x < 3; x++ {
		require.NoError(t, p.PublishMesh(addr(x, 0, 0), solidMesh()))
	}
	p.Release(addr(2, 0, 0))
	p.Release(addr(0, 0, 0))

	require.NoError(t, p.PublishMesh(addr(5, 0, 0), solidMesh()))

	stats := p.Stats()
	assert.Equal(t, 1, stats.Evictions)
	assert.Equal(t, 1, stats.Inactive)
	require.NoError(t, p.PublishMesh(addr(0, 0, 0), solidMesh()))
	assert.Equal(t, 1, p.Stats().Reclaimed, "the most recently released slot survived eviction")
}

func TestReleasedAddressReclaimsItsSlot(t *testing.T) {
	sink := newRecordingSink()
	p := NewPool(2, sink, nil, nil)
	a := addr(0, 0, 0)
	require.NoError(t, p.PublishMesh(a, solidMesh()))
	require.NoError(t, p.PublishMesh(addr(1, 0, 0), solidMesh()))
	p.Release(a)

	require.NoError(t, p.PublishMesh(a, solidMesh()))

	stats := p.Stats()
	assert.Equal(t, 1, stats.Reclaimed)
	assert.Zero(t, stats.Evictions)
	assert.Zero(t, stats.Inactive)
	assert.Equal(t, 2, stats.Active)
	assert.Len(t, sink.live, 2)
}

func TestReleaseColliderKeepsMesh(t *testing.T) {
	sink := newRecordingSink()
	baker := &recordingBaker{}
	p := NewPool(2, sink, baker, nil)
	a := addr(0, 0, 0)
	require.NoError(t, p.PublishMesh(a, solidMesh()))
	p.AttachCollider(a, "shape")
	p.MarkColliderBaked(a)

	p.ReleaseCollider(a)
	p.ReleaseCollider(addr(4, 0, 4))

	res, ok := p.Resources(a)
	require.True(t, ok)
	assert.Nil(t, res.Collider)
	assert.False(t, res.ColliderBaked)
	assert.NotNil(t, res.MeshHandle)
	assert.Len(t, sink.live, 1)
	assert.Equal(t, []Collider{"shape"}, baker.destroyed)
}

func TestTakeBuffersWithoutInactiveSlots(t *testing.T) {
	p := NewPool(1, nil, nil, nil)
	assert.NotNil(t, p.TakeBuffers())
	assert.Zero(t, p.Stats().Evictions)
	assert.Zero(t, p.Stats().Recycled)
}

func TestClearReleasesEverything(t *testing.T) {
	sink := newRecordingSink()
	p := NewPool(4, sink, nil, nil)
	require.NoError(t, p.PublishMesh(addr(0, 0, 0), solidMesh()))
	require.NoError(t, p.PublishMesh(addr(0, 1, 0), solidMesh()))
	p.Release(addr(0, 1, 0))

	p.Clear()

	assert.Empty(t, sink.live)
	assert.Equal(t, PoolStats{Capacity: 4, Published: 2}, p.Stats())
}
