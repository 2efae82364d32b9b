package renderer

import (
	"math"
	"testing"

	"VoxelTerrain/internal/meshing"
	"VoxelTerrain/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
)

func cubeMesh(t *testing.T) *meshing.Buffers {
	t.Helper()
	grid := voxel.NewGrid(1, 1, 1)
	grid.Set(0, 0, 0, voxel.Stone)
	mesh := meshing.NewBuffers(grid)
	if err := meshing.Build(grid, mesh); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return mesh
}

func TestPublishPlacesModelAtPartitionOrigin(t *testing.T) {
	dims := voxel.Dimensions{Size: 16, PartitionHeight: 8}
	sink := NewMemorySink(dims, 20, false, nil)
	a := voxel.Address{Column: voxel.ColumnPosition{X: 2, Z: -1}, Partition: 3}

	handle, err := sink.Publish(a, cubeMesh(t))
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	model := handle.(*Model)

	if want := (mgl32.Vec3{32, 4, -16}); model.Position != want {
		t.Errorf("position: got %v, want %v", model.Position, want)
	}
	if model.VertexCount() != 24 {
		t.Errorf("expected 24 vertices, got %d", model.VertexCount())
	}
	if len(model.InterleavedData) != 24*VertexStride {
		t.Errorf("interleaved length: got %d", len(model.InterleavedData))
	}
	if len(model.Faces) != 36 {
		t.Errorf("expected 36 indices, got %d", len(model.Faces))
	}
	if want := (mgl32.Vec3{32.5, 4.5, -15.5}); !model.BoundingSphereCenter.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("sphere center: got %v, want %v", model.BoundingSphereCenter, want)
	}
	if r := float64(model.BoundingSphereRadius); math.Abs(r-math.Sqrt(0.75)) > 1e-5 {
		t.Errorf("sphere radius: got %f", r)
	}
	if sink.Len() != 1 {
		t.Errorf("expected 1 live model, got %d", sink.Len())
	}
}

func TestPublishRejectsEmptyMesh(t *testing.T) {
	sink := NewMemorySink(voxel.Dimensions{Size: 1, PartitionHeight: 1}, 0, true, nil)
	if _, err := sink.Publish(voxel.Address{}, &meshing.Buffers{}); err == nil {
		t.Error("expected an error for an empty mesh")
	}
}

func TestReleaseDropsModel(t *testing.T) {
	sink := NewMemorySink(voxel.Dimensions{Size: 1, PartitionHeight: 1}, 0, true, nil)
	handle, _ := sink.Publish(voxel.Address{}, cubeMesh(t))

	sink.Release(handle)
	sink.Release(handle)
	sink.Release("not a model")

	published, released := sink.Counts()
	if sink.Len() != 0 || published != 1 || released != 1 {
		t.Errorf("unexpected counts: live=%d published=%d released=%d", sink.Len(), published, released)
	}
}

func TestVisibleCullsModelsOutsideFrustum(t *testing.T) {
	sink := NewMemorySink(voxel.Dimensions{Size: 1, PartitionHeight: 1}, 0, true, nil)
	ahead := voxel.Address{Column: voxel.ColumnPosition{X: 10}}
	behind := voxel.Address{Column: voxel.ColumnPosition{X: -10}}
	for _, a := range []voxel.Address{ahead, behind} {
		if _, err := sink.Publish(a, cubeMesh(t)); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	cam := NewCamera(mgl32.Vec3{0, 0.5, 0.5}, 0, 0, 1)
	visible := sink.Visible(cam.CalculateFrustum())
	if len(visible) != 1 || visible[0].Address != ahead {
		t.Errorf("expected only the chunk ahead to be visible, got %d models", len(visible))
	}
}

func TestShapeBakerRaycast(t *testing.T) {
	sink := NewMemorySink(voxel.Dimensions{Size: 1, PartitionHeight: 1}, 0, true, nil)
	handle, _ := sink.Publish(voxel.Address{}, cubeMesh(t))
	baker := NewShapeBaker()

	collider, err := baker.Bake(handle)
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}
	shape := collider.(*Shape)
	if shape.Min != (mgl32.Vec3{0, 0, 0}) || shape.Max != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("bounds: got %v..%v", shape.Min, shape.Max)
	}

	down := Ray{Origin: mgl32.Vec3{0.25, 5, 0.3}, Direction: mgl32.Vec3{0, -1, 0}}
	dist, hit := shape.Raycast(down)
	if !hit || math.Abs(float64(dist)-4) > 1e-4 {
		t.Errorf("expected hit at distance 4, got %v %f", hit, dist)
	}

	miss := Ray{Origin: mgl32.Vec3{3, 5, 3}, Direction: mgl32.Vec3{0, -1, 0}}
	if _, hit := shape.Raycast(miss); hit {
		t.Error("ray beside the cube should miss")
	}

	if baker.Live() != 1 {
		t.Errorf("expected 1 live collider, got %d", baker.Live())
	}
	baker.Destroy(collider)
	if baker.Live() != 0 {
		t.Errorf("expected 0 live colliders, got %d", baker.Live())
	}
}

func TestShapeBakerRejectsForeignHandles(t *testing.T) {
	if _, err := NewShapeBaker().Bake(42); err == nil {
		t.Error("expected an error for a non-model handle")
	}
}
