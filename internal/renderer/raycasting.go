package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray represents a ray in 3D space
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// RayIntersectSphere returns the nearest non-negative distance along ray to the sphere.
func RayIntersectSphere(ray Ray, center mgl32.Vec3, radius float32) (float32, bool) {
	oc := ray.Origin.Sub(center)
	a := ray.Direction.Dot(ray.Direction)
	b := 2 * oc.Dot(ray.Direction)
	c := oc.Dot(oc) - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 || a == 0 {
		return 0, false
	}
	sq := float32(math.Sqrt(float64(disc)))
	near, far := (-b-sq)/(2*a), (-b+sq)/(2*a)
	switch {
	case near >= 0:
		return near, true
	case far >= 0:
		return 0, true // origin inside
	default:
		return 0, false
	}
}

// RayIntersectBox is the slab test against an axis-aligned box.
func RayIntersectBox(ray Ray, min, max mgl32.Vec3) (float32, bool) {
	tmin, tmax := float32(0), float32(math.Inf(1))
	for k := 0; k < 3; k++ {
		o, d := ray.Origin[k], ray.Direction[k]
		if d == 0 {
			if o < min[k] || o > max[k] {
				return 0, false
			}
			continue
		}
		t1, t2 := (min[k]-o)/d, (max[k]-o)/d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = float32(math.Max(float64(tmin), float64(t1)))
		tmax = float32(math.Min(float64(tmax), float64(t2)))
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}

// RayIntersectTriangle uses Möller-Trumbore and ignores hits behind the origin.
func RayIntersectTriangle(ray Ray, v0, v1, v2 mgl32.Vec3) (float32, bool) {
	const epsilon = 1e-7

	edge1, edge2 := v1.Sub(v0), v2.Sub(v0)
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return 0, false
	}

	f := 1 / a
	s := ray.Origin.Sub(v0)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := f * edge2.Dot(q)
	return t, t > epsilon
}

// RayIntersectModel tests the bounding sphere first, then every triangle of the model,
// and returns the nearest hit.
func RayIntersectModel(ray Ray, m *Model) (float32, bool) {
	if m == nil || len(m.Faces) == 0 {
		return 0, false
	}
	if _, hit := RayIntersectSphere(ray, m.BoundingSphereCenter, m.BoundingSphereRadius); !hit {
		return 0, false
	}

	best, found := float32(math.Inf(1)), false
	for i := 0; i+2 < len(m.Faces); i += 3 {
		t, hit := RayIntersectTriangle(ray,
			m.WorldVertex(int(m.Faces[i])),
			m.WorldVertex(int(m.Faces[i+1])),
			m.WorldVertex(int(m.Faces[i+2])))
		if hit && t < best {
			best, found = t, true
		}
	}
	return best, found
}
