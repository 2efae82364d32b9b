package noise

import (
	"math"
	"math/rand"
)

// ImprovedSource is Ken Perlin's 2002 improved noise: quintic fade and the twelve
// cube-edge gradients, over a permutation shuffled from seed.
type ImprovedSource struct {
	perm [512]int
}

var edgeGradients = [12][3]float64{
	{1, 1, 0}, {-1, 1, 0}, {1, -1, 0}, {-1, -1, 0},
	{1, 0, 1}, {-1, 0, 1}, {1, 0, -1}, {-1, 0, -1},
	{0, 1, 1}, {0, -1, 1}, {0, 1, -1}, {0, -1, -1},
}

func NewImprovedSource(seed int64) *ImprovedSource {
	s := &ImprovedSource{}
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < 256; i++ {
		s.perm[i] = i
	}
	// Fisher-Yates
	for i := 255; i > 0; i-- {
		j := rng.Intn(i + 1)
		s.perm[i], s.perm[j] = s.perm[j], s.perm[i]
	}
	for i := 0; i < 256; i++ {
		s.perm[256+i] = s.perm[i]
	}
	return s
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float64) float64 {
	return a + t*(b-a)
}

func grad(hash int, x, y, z float64) float64 {
	g := edgeGradients[hash%12]
	return g[0]*x + g[1]*y + g[2]*z
}

// Noise3D samples the lattice at (x, y, z).
func (s *ImprovedSource) Noise3D(x, y, z float64) float64 {
	fx, fy, fz := math.Floor(x), math.Floor(y), math.Floor(z)
	X := int(fx) & 255
	Y := int(fy) & 255
	Z := int(fz) & 255
	x -= fx
	y -= fy
	z -= fz

	u, v, w := fade(x), fade(y), fade(z)

	p := &s.perm
	a := p[X] + Y
	aa := p[a] + Z
	ab := p[a+1] + Z
	b := p[X+1] + Y
	ba := p[b] + Z
	bb := p[b+1] + Z

	return lerp(w,
		lerp(v,
			lerp(u, grad(p[aa], x, y, z), grad(p[ba], x-1, y, z)),
			lerp(u, grad(p[ab], x, y-1, z), grad(p[bb], x-1, y-1, z))),
		lerp(v,
			lerp(u, grad(p[aa+1], x, y, z-1), grad(p[ba+1], x-1, y, z-1)),
			lerp(u, grad(p[ab+1], x, y-1, z-1), grad(p[bb+1], x-1, y-1, z-1))))
}

func (s *ImprovedSource) Noise2D(x, y float64) float64 {
	return s.Noise3D(x, y, 0)
}
