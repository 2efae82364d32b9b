package noise

import (
	"math"

	"VoxelTerrain/internal/config"
	"VoxelTerrain/internal/logger"

	perlin "github.com/aquilax/go-perlin"
	"go.uber.org/zap"
)

// minScale replaces a non-positive scale so sampling never divides by zero.
const minScale = 1e-4

// Source2D is a coherent 2D noise primitive returning values roughly in [-1, 1].
type Source2D interface {
	Noise2D(x, y float64) float64
}

// PerlinSource is a single-octave go-perlin generator. Octaves are accumulated by Field,
// so the library's own alpha/beta summation is disabled with n = 1.
type PerlinSource struct {
	p *perlin.Perlin
}

func NewPerlinSource(seed int64) *PerlinSource {
	return &PerlinSource{p: perlin.NewPerlin(2, 2, 1, seed)}
}

func (s *PerlinSource) Noise2D(x, y float64) float64 {
	return s.p.Noise2D(x, y)
}

// Settings are the fractal parameters of the height field.
type Settings struct {
	Height      int
	WaterLevel  int
	Seed        int64
	Scale       float64
	Persistance float64
	Lacunarity  float64
	Octaves     int
}

// SettingsFrom copies the noise section of the configuration.
func SettingsFrom(cfg config.NoiseSettings) Settings {
	return Settings{
		Height:      cfg.Height,
		WaterLevel:  cfg.WaterLevel,
		Seed:        cfg.Seed,
		Scale:       cfg.Scale,
		Persistance: cfg.Persistance,
		Lacunarity:  cfg.Lacunarity,
		Octaves:     cfg.Octaves,
	}
}

// Sample is the height field evaluated at one position. Height and WaterLevel share the
// zero-centered vertical frame: Height is in [-halfHeight, halfHeight].
type Sample struct {
	Height     int
	WaterLevel int
	X, Y, Z    int
}

// Field maps integer positions to terrain heights. It holds no mutable state after
// construction and is safe to share between workers.
type Field struct {
	settings Settings
	half     int
	source   Source2D
}

// New builds a field using the source selected by cfg.Algorithm.
func New(cfg config.NoiseSettings, log *zap.Logger) *Field {
	settings := SettingsFrom(cfg)
	var source Source2D
	switch cfg.Algorithm {
	case "improved":
		source = NewImprovedSource(settings.Seed)
	default:
		source = NewPerlinSource(settings.Seed)
	}
	return NewField(settings, source, log)
}

// NewField corrects degenerate settings and binds them to source.
func NewField(settings Settings, source Source2D, log *zap.Logger) *Field {
	log = logger.OrNop(log)
	if settings.Scale <= 0 {
		log.Warn("non-positive noise scale corrected",
			zap.Float64("scale", settings.Scale),
			zap.Float64("corrected", minScale))
		settings.Scale = minScale
	}
	if settings.Octaves < 1 {
		settings.Octaves = 1
	}
	return &Field{
		settings: settings,
		half:     settings.Height / 2,
		source:   source,
	}
}

// HalfHeight is the clamp bound of sampled heights.
func (f *Field) HalfHeight() int {
	return f.half
}

// Settings returns the corrected settings the field samples with.
func (f *Field) Settings() Settings {
	return f.settings
}

// Sample evaluates the height field over the horizontal plane at (x, z). y is carried
// through unchanged for the caller's convenience.
func (f *Field) Sample(x, y, z int) Sample {
	sum := 0.0
	amplitude := 1.0
	frequency := 1.0
	for i := 0; i < f.settings.Octaves; i++ {
		sx := float64(x) / f.settings.Scale * frequency
		sz := float64(z) / f.settings.Scale * frequency
		sum += f.source.Noise2D(sx, sz) * amplitude
		amplitude *= f.settings.Persistance
		frequency *= f.settings.Lacunarity
	}

	height := int(math.Round(sum * float64(f.half)))
	if height > f.half {
		height = f.half
	} else if height < -f.half {
		height = -f.half
	}

	return Sample{
		Height:     height,
		WaterLevel: f.settings.WaterLevel - f.half,
		X:          x,
		Y:          y,
		Z:          z,
	}
}
