package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceSettings() Settings {
	return Settings{
		Height:      200,
		WaterLevel:  96,
		Scale:       256,
		Persistance: 0.5,
		Lacunarity:  2,
		Octaves:     4,
		Seed:        0,
	}
}

func TestSampleReferenceScenario(t *testing.T) {
	field := NewField(referenceSettings(), NewPerlinSource(0), nil)

	for _, y := range []int{-50, 0, 17, 300} {
		s := field.Sample(0, y, 0)
		assert.GreaterOrEqual(t, s.Height, -100)
		assert.LessOrEqual(t, s.Height, 100)
		assert.Equal(t, -4, s.WaterLevel)
		assert.Equal(t, y, s.Y)
	}
}

func TestSampleIsDeterministic(t *testing.T) {
	a := NewField(referenceSettings(), NewPerlinSource(7), nil)
	b := NewField(referenceSettings(), NewPerlinSource(7), nil)

	for x := -64; x <= 64; x += 13 {
		for z := -64; z <= 64; z += 11 {
			first := a.Sample(x, 0, z)
			assert.Equal(t, first, a.Sample(x, 0, z))
			assert.Equal(t, first, b.Sample(x, 0, z))
		}
	}
}

func TestHeightsStayClamped(t *testing.T) {
	settings := referenceSettings()
	settings.Height = 10
	settings.Scale = 3
	field := NewField(settings, constantSource(5), nil)

	s := field.Sample(12, 0, 40)
	assert.Equal(t, 5, s.Height)

	field = NewField(settings, constantSource(-5), nil)
	assert.Equal(t, -5, field.Sample(12, 0, 40).Height)
}

func TestNonPositiveScaleIsCorrected(t *testing.T) {
	settings := referenceSettings()
	settings.Scale = 0
	field := NewField(settings, NewPerlinSource(1), nil)

	require.Greater(t, field.Settings().Scale, 0.0)
	assert.NotPanics(t, func() { field.Sample(3, 0, 9) })

	settings.Scale = -12
	field = NewField(settings, NewPerlinSource(1), nil)
	assert.Greater(t, field.Settings().Scale, 0.0)
}

func TestOctaveAccumulation(t *testing.T) {
	settings := referenceSettings()
	settings.Height = 1000
	settings.Octaves = 2
	field := NewField(settings, constantSource(0.2), nil)

	// 0.2 * (1 + 0.5) * 500
	assert.Equal(t, 150, field.Sample(1, 0, 1).Height)
}

func TestImprovedSourceIsSelectable(t *testing.T) {
	a := NewImprovedSource(3)
	b := NewImprovedSource(3)

	assert.Equal(t, a.Noise2D(1.37, 8.2), b.Noise2D(1.37, 8.2))
	assert.InDelta(t, 0, a.Noise2D(4, 9), 1e-9, "lattice points are zero")
}

type constantSource float64

func (c constantSource) Noise2D(x, y float64) float64 {
	return float64(c)
}
