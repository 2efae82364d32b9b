package renderer

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"VoxelTerrain/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/zstd"
)

const (
	snapshotMagic   = 0x4B4E4843 // "CHNK"
	snapshotVersion = 1
)

// SerializedMesh contains the data needed to rebuild a chunk model.
type SerializedMesh struct {
	Address         [3]int32 // x, partition, z
	Position        [3]float32
	CastShadows     bool
	InterleavedData []float32
	Faces           []int32
}

func SerializeMesh(model *Model) *SerializedMesh {
	return &SerializedMesh{
		Address:         [3]int32{int32(model.Address.Column.X), int32(model.Address.Partition), int32(model.Address.Column.Z)},
		Position:        [3]float32{model.Position.X(), model.Position.Y(), model.Position.Z()},
		CastShadows:     model.CastShadows,
		InterleavedData: model.InterleavedData,
		Faces:           model.Faces,
	}
}

// DeserializeMesh rebuilds positions and bounds from the interleaved stream.
func DeserializeMesh(mesh *SerializedMesh) (*Model, error) {
	if len(mesh.InterleavedData)%VertexStride != 0 {
		return nil, fmt.Errorf("interleaved data length %d is not a multiple of %d", len(mesh.InterleavedData), VertexStride)
	}
	addr := voxel.Address{
		Column:    voxel.ColumnPosition{X: int(mesh.Address[0]), Z: int(mesh.Address[2])},
		Partition: int(mesh.Address[1]),
	}
	model := &Model{
		Name:            addr.String(),
		Address:         addr,
		Position:        mgl32.Vec3(mesh.Position),
		CastShadows:     mesh.CastShadows,
		InterleavedData: mesh.InterleavedData,
		Faces:           mesh.Faces,
	}
	n := len(mesh.InterleavedData) / VertexStride
	model.Vertices = make([]float32, 0, n*3)
	for i := 0; i < n; i++ {
		model.Vertices = append(model.Vertices, mesh.InterleavedData[i*VertexStride:i*VertexStride+3]...)
	}
	for _, idx := range model.Faces {
		if idx < 0 || int(idx) >= n {
			return nil, fmt.Errorf("face index %d out of range for %d vertices", idx, n)
		}
	}
	model.CalculateBoundingSphere()
	return model, nil
}

// WriteSnapshot writes models as one zstd-compressed little-endian stream.
func WriteSnapshot(w io.Writer, models []*Model) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	header := []uint32{snapshotMagic, snapshotVersion, uint32(len(models))}
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return err
	}
	for _, m := range models {
		if err := writeMesh(bw, SerializeMesh(m)); err != nil {
			return fmt.Errorf("write %s: %w", m.Name, err)
		}
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadSnapshot reads a stream produced by WriteSnapshot.
func ReadSnapshot(r io.Reader) ([]*Model, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer dec.Close()
	br := bufio.NewReaderSize(dec, 64*1024)

	var header [3]uint32
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	if header[0] != snapshotMagic {
		return nil, fmt.Errorf("invalid snapshot magic: %x", header[0])
	}
	if header[1] != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version: %d", header[1])
	}

	models := make([]*Model, 0, header[2])
	for i := uint32(0); i < header[2]; i++ {
		mesh, err := readMesh(br)
		if err != nil {
			return nil, fmt.Errorf("read mesh %d: %w", i, err)
		}
		model, err := DeserializeMesh(mesh)
		if err != nil {
			return nil, fmt.Errorf("read mesh %d: %w", i, err)
		}
		model.Id = int(i) + 1
		models = append(models, model)
	}
	return models, nil
}

func writeMesh(w io.Writer, mesh *SerializedMesh) error {
	var flags uint32
	if mesh.CastShadows {
		flags |= 1
	}
	for _, v := range []any{mesh.Address, mesh.Position, flags} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	if err := writeSlice(w, mesh.InterleavedData); err != nil {
		return err
	}
	return writeSlice(w, mesh.Faces)
}

func readMesh(r io.Reader) (*SerializedMesh, error) {
	mesh := &SerializedMesh{}
	var flags uint32
	for _, v := range []any{&mesh.Address, &mesh.Position, &flags} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}
	mesh.CastShadows = flags&1 != 0

	var err error
	if mesh.InterleavedData, err = readSlice[float32](r); err != nil {
		return nil, err
	}
	if mesh.Faces, err = readSlice[int32](r); err != nil {
		return nil, err
	}
	return mesh, nil
}

func writeSlice[T float32 | int32](w io.Writer, data []T) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(data))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, data)
}

func readSlice[T float32 | int32](r io.Reader) ([]T, error) {
	var count int32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("negative slice length %d", count)
	}
	data := make([]T, count)
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, err
	}
	return data, nil
}
