package meshing

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrNonCanonicalNormal = errors.New("normal is not an axis direction")

// tangentHandedness is the w component shared by every emitted tangent.
const tangentHandedness = -1

type direction struct {
	step    [3]int // neighbour offset
	axis    int    // axis the face is perpendicular to
	normal  mgl32.Vec3
	corners [4][3]int // unit-cube corners, counter-clockwise seen from outside
}

var directions = [FacesPerVoxel]direction{
	{step: [3]int{1, 0, 0}, axis: 0, normal: mgl32.Vec3{1, 0, 0},
		corners: [4][3]int{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}}},
	{step: [3]int{-1, 0, 0}, axis: 0, normal: mgl32.Vec3{-1, 0, 0},
		corners: [4][3]int{{0, 0, 1}, {0, 1, 1}, {0, 1, 0}, {0, 0, 0}}},
	{step: [3]int{0, 1, 0}, axis: 1, normal: mgl32.Vec3{0, 1, 0},
		corners: [4][3]int{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}}},
	{step: [3]int{0, -1, 0}, axis: 1, normal: mgl32.Vec3{0, -1, 0},
		corners: [4][3]int{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}},
	{step: [3]int{0, 0, 1}, axis: 2, normal: mgl32.Vec3{0, 0, 1},
		corners: [4][3]int{{1, 0, 1}, {1, 1, 1}, {0, 1, 1}, {0, 0, 1}}},
	{step: [3]int{0, 0, -1}, axis: 2, normal: mgl32.Vec3{0, 0, -1},
		corners: [4][3]int{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}}},
}

// inPlane returns the two axes spanning faces perpendicular to axis.
func inPlane(axis int) (u, v int) {
	return (axis + 1) % 3, (axis + 2) % 3
}

// TangentFor swizzles an axis normal (x, y, z) into (z, x, y), which is perpendicular
// for all six axis directions.
func TangentFor(n mgl32.Vec3) (mgl32.Vec4, error) {
	nonZero := 0
	for i := 0; i < 3; i++ {
		switch n[i] {
		case 0:
		case 1, -1:
			nonZero++
		default:
			return mgl32.Vec4{}, fmt.Errorf("%w: %v", ErrNonCanonicalNormal, n)
		}
	}
	if nonZero != 1 {
		return mgl32.Vec4{}, fmt.Errorf("%w: %v", ErrNonCanonicalNormal, n)
	}
	return mgl32.Vec4{n.Z(), n.X(), n.Y(), tangentHandedness}, nil
}

// emitQuad appends one face spanning w voxels along the first in-plane axis and h along
// the second, with base as the minimum corner of the quad's voxel cell.
func emitQuad(dst *Buffers, dir *direction, base [3]int, w, h int, id uint16) error {
	tangent, err := TangentFor(dir.normal)
	if err != nil {
		return err
	}

	u, v := inPlane(dir.axis)
	first := int32(len(dst.Vertices))
	for _, c := range dir.corners {
		var p [3]int
		p[dir.axis] = base[dir.axis] + c[dir.axis]
		p[u] = base[u] + c[u]*w
		p[v] = base[v] + c[v]*h
		dst.Vertices = append(dst.Vertices, Vertex{
			Position: mgl32.Vec3{float32(p[0]), float32(p[1]), float32(p[2])},
			Normal:   dir.normal,
			Tangent:  tangent,
			UV:       mgl32.Vec3{float32(c[u] * w), float32(c[v] * h), float32(id)},
		})
	}
	dst.Triangles = append(dst.Triangles,
		first, first+1, first+2,
		first, first+2, first+3,
	)
	return nil
}
