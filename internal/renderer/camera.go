package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a free-flying viewpoint. It satisfies the engine's viewpoint provider and
// supplies the frustum used to cull published chunk models.
type Camera struct {
	// HOT DATA - read every tick
	Position   mgl32.Vec3
	Front      mgl32.Vec3
	Up         mgl32.Vec3
	Right      mgl32.Vec3
	Projection mgl32.Mat4
	Pitch      float32 // degrees
	Yaw        float32 // degrees

	// COLD DATA
	WorldUp     mgl32.Vec3
	Speed       float32 // world units per second
	Fov         float32
	Near        float32
	Far         float32
	AspectRatio float32
}

type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

type Frustum struct {
	Planes [6]Plane
}

// NewCamera looks along yaw/pitch from position with a 16:9 projection.
func NewCamera(position mgl32.Vec3, yaw, pitch, speed float32) *Camera {
	c := &Camera{
		Position:    position,
		WorldUp:     mgl32.Vec3{0, 1, 0},
		Yaw:         yaw,
		Pitch:       mgl32.Clamp(pitch, -89, 89),
		Speed:       speed,
		Fov:         60,
		Near:        0.1,
		Far:         2000,
		AspectRatio: 16.0 / 9.0,
	}
	c.updateCameraVectors()
	c.UpdateProjection()
	return c
}

func (c *Camera) UpdateProjection() {
	c.Projection = mgl32.Perspective(mgl32.DegToRad(c.Fov), c.AspectRatio, c.Near, c.Far)
}

func (c *Camera) SetFar(far float32) {
	c.Far = far
	c.UpdateProjection()
}

// Viewpoint is the camera position.
func (c *Camera) Viewpoint() mgl32.Vec3 {
	return c.Position
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front), c.Up)
}

func (c *Camera) GetViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.GetViewMatrix())
}

// Advance flies forward for dt seconds.
func (c *Camera) Advance(dt float32) {
	c.Position = c.Position.Add(c.Front.Mul(c.Speed * dt))
}

// Turn rotates by the given yaw and pitch deltas in degrees. Pitch stays within ±89°.
func (c *Camera) Turn(yaw, pitch float32) {
	c.Yaw += yaw
	c.Pitch = mgl32.Clamp(c.Pitch+pitch, -89, 89)
	c.updateCameraVectors()
}

func (c *Camera) updateCameraVectors() {
	yawRad := float64(mgl32.DegToRad(c.Yaw))
	pitchRad := float64(mgl32.DegToRad(c.Pitch))

	front := mgl32.Vec3{
		float32(math.Cos(yawRad) * math.Cos(pitchRad)),
		float32(math.Sin(pitchRad)),
		float32(math.Sin(yawRad) * math.Cos(pitchRad)),
	}
	c.Front = front.Normalize()
	c.Right = c.Front.Cross(c.WorldUp).Normalize()
	c.Up = c.Right.Cross(c.Front).Normalize()
}

// CalculateFrustum extracts the six clip planes from the view-projection matrix.
// Plane normals point inwards.
func (c *Camera) CalculateFrustum() Frustum {
	vp := c.GetViewProjection()
	row := func(i int) mgl32.Vec4 { return vp.Row(i) }

	var f Frustum
	set := func(i int, v mgl32.Vec4) {
		n := v.Vec3()
		l := n.Len()
		f.Planes[i] = Plane{Normal: n.Mul(1 / l), Distance: v.W() / l}
	}
	set(0, row(3).Add(row(0))) // left
	set(1, row(3).Sub(row(0))) // right
	set(2, row(3).Add(row(1))) // bottom
	set(3, row(3).Sub(row(1))) // top
	set(4, row(3).Add(row(2))) // near
	set(5, row(3).Sub(row(2))) // far
	return f
}

func (p *Plane) DistanceToPoint(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

func (f *Frustum) IntersectsSphere(center mgl32.Vec3, radius float32) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceToPoint(center) < -radius {
			return false
		}
	}
	return true
}
