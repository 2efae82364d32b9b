package renderer

import (
	"bytes"
	"testing"

	"VoxelTerrain/internal/voxel"
)

func TestSnapshotRoundTrip(t *testing.T) {
	sink := NewMemorySink(voxel.Dimensions{Size: 1, PartitionHeight: 1}, 0, true, nil)
	a := voxel.Address{Column: voxel.ColumnPosition{X: 3, Z: -2}, Partition: 1}
	if _, err := sink.Publish(a, cubeMesh(t)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, sink.Models()); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}

	models, err := ReadSnapshot(&buf)
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	if len(models) != 1 {
		t.Fatalf("expected 1 model, got %d", len(models))
	}

	original, restored := sink.Models()[0], models[0]
	if restored.Address != a {
		t.Errorf("address mismatch: got %v, want %v", restored.Address, a)
	}
	if restored.VertexCount() != original.VertexCount() {
		t.Errorf("vertex count mismatch: got %d, want %d", restored.VertexCount(), original.VertexCount())
	}
	if restored.BoundingSphereCenter != original.BoundingSphereCenter {
		t.Errorf("bounds not rebuilt: got %v, want %v", restored.BoundingSphereCenter, original.BoundingSphereCenter)
	}
	if !restored.CastShadows {
		t.Error("shadow flag lost")
	}
}

func TestReadSnapshotRejectsGarbage(t *testing.T) {
	if _, err := ReadSnapshot(bytes.NewReader([]byte("not a snapshot"))); err == nil {
		t.Error("expected an error for input that is not a snapshot")
	}
}

func TestDeserializeRejectsOutOfRangeFaces(t *testing.T) {
	mesh := &SerializedMesh{
		InterleavedData: make([]float32, VertexStride*3),
		Faces:           []int32{0, 1, 3},
	}
	if _, err := DeserializeMesh(mesh); err == nil {
		t.Error("expected an error for a face index past the last vertex")
	}
}
