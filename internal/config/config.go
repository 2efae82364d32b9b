package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so configuration files can use strings such as "33ms".
type Duration time.Duration

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalYAML encodes the duration using its canonical string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts either a duration string or an integer nanosecond count.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	if s == "" {
		*d = 0
		return nil
	}
	if parsed, err := time.ParseDuration(s); err == nil {
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := node.Decode(&n); err != nil {
		return fmt.Errorf("duration: invalid value %q", s)
	}
	*d = Duration(time.Duration(n))
	return nil
}

// Settings is the full configuration surface of the terrain pipeline.
type Settings struct {
	Noise     NoiseSettings     `yaml:"noise" json:"noise"`
	Chunk     ChunkSettings     `yaml:"chunk" json:"chunk"`
	Scheduler SchedulerSettings `yaml:"scheduler" json:"scheduler"`
	Renderer  RendererSettings  `yaml:"renderer" json:"renderer"`
	Log       LogSettings       `yaml:"log" json:"log"`
}

type NoiseSettings struct {
	Algorithm   string  `yaml:"algorithm" json:"algorithm"` // "perlin" or "improved"
	Height      int     `yaml:"height" json:"height"`
	WaterLevel  int     `yaml:"waterLevel" json:"waterLevel"`
	Seed        int64   `yaml:"seed" json:"seed"`
	Scale       float64 `yaml:"scale" json:"scale"` // non-positive values are corrected by the noise field
	Persistance float64 `yaml:"persistance" json:"persistance"`
	Lacunarity  float64 `yaml:"lacunarity" json:"lacunarity"`
	Octaves     int     `yaml:"octaves" json:"octaves"`
}

type ChunkSettings struct {
	Size            int `yaml:"size" json:"size"`                       // horizontal voxels per chunk edge
	PartitionHeight int `yaml:"partitionHeight" json:"partitionHeight"` // voxels per vertical slab
	DrawDistance    int `yaml:"drawDistance" json:"drawDistance"`
	UpdateDistance  int `yaml:"updateDistance" json:"updateDistance"`
}

// LoadDistance is the memory-resident margin around the draw distance.
func (c ChunkSettings) LoadDistance() int {
	return c.DrawDistance + 2
}

// Partitions returns how many slabs are stacked in a column of the given world height.
func (c ChunkSettings) Partitions(worldHeight int) int {
	if c.PartitionHeight <= 0 {
		return 0
	}
	n := (worldHeight + c.PartitionHeight - 1) / c.PartitionHeight
	if n < 1 {
		n = 1
	}
	return n
}

// ActiveColumns is the number of columns inside the draw distance.
func (c ChunkSettings) ActiveColumns() int {
	side := 2*c.DrawDistance + 1
	return side * side
}

// ResidentColumns is the number of columns inside the load distance.
func (c ChunkSettings) ResidentColumns() int {
	side := 2*c.LoadDistance() + 1
	return side * side
}

type SchedulerSettings struct {
	StreamingBatchSize int      `yaml:"streamingBatchSize" json:"streamingBatchSize"`
	MeshingBatchSize   int      `yaml:"meshingBatchSize" json:"meshingBatchSize"`
	ColliderBatchSize  int      `yaml:"colliderBatchSize" json:"colliderBatchSize"`
	TickRate           int      `yaml:"tickRate" json:"tickRate"` // ticks per second
	Workers            int      `yaml:"workers" json:"workers"`   // 0 uses GOMAXPROCS
	TimerWindow        int      `yaml:"timerWindow" json:"timerWindow"`
	GreedyMeshing      bool     `yaml:"greedyMeshing" json:"greedyMeshing"`
	StatsInterval      Duration `yaml:"statsInterval" json:"statsInterval"`
}

// TickInterval converts the tick rate into the wall-clock period between ticks.
func (s SchedulerSettings) TickInterval() time.Duration {
	if s.TickRate <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(s.TickRate)
}

// WorkerCount resolves the zero value to the number of usable CPUs.
func (s SchedulerSettings) WorkerCount() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.GOMAXPROCS(0)
}

type RendererSettings struct {
	CastShadows bool `yaml:"castShadows" json:"castShadows"`
}

type LogSettings struct {
	Level       string `yaml:"level" json:"level"`
	Development bool   `yaml:"development" json:"development"`
	Output      string `yaml:"output" json:"output"` // file path; empty logs to stderr
}

// Default returns the reference configuration.
func Default() *Settings {
	return &Settings{
		Noise: NoiseSettings{
			Algorithm:   "perlin",
			Height:      200,
			WaterLevel:  96,
			Seed:        0,
			Scale:       256,
			Persistance: 0.5,
			Lacunarity:  2,
			Octaves:     4,
		},
		Chunk: ChunkSettings{
			Size:            16,
			PartitionHeight: 16,
			DrawDistance:    8,
			UpdateDistance:  4,
		},
		Scheduler: SchedulerSettings{
			StreamingBatchSize: 64,
			MeshingBatchSize:   32,
			ColliderBatchSize:  16,
			TickRate:           30,
			Workers:            0,
			TimerWindow:        32,
			GreedyMeshing:      false,
			StatsInterval:      Duration(time.Second),
		},
		Renderer: RendererSettings{
			CastShadows: true,
		},
		Log: LogSettings{
			Level:       "info",
			Development: false,
		},
	}
}

// Load reads a YAML (or JSON) file on top of the defaults. An empty path returns defaults.
func Load(path string) (*Settings, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate reports settings the pipeline cannot run with. Noise scale is left to the
// noise field, which corrects it instead of failing.
func (s *Settings) Validate() error {
	if s.Noise.Height <= 0 {
		return errors.New("noise.height must be positive")
	}
	if s.Noise.Octaves < 0 {
		return errors.New("noise.octaves cannot be negative")
	}
	switch s.Noise.Algorithm {
	case "", "perlin", "improved":
	default:
		return fmt.Errorf("noise.algorithm %q is not supported", s.Noise.Algorithm)
	}
	if s.Chunk.Size <= 0 || s.Chunk.PartitionHeight <= 0 {
		return errors.New("chunk dimensions must be positive")
	}
	if s.Chunk.DrawDistance < 0 {
		return errors.New("chunk.drawDistance cannot be negative")
	}
	if s.Chunk.UpdateDistance < 0 || s.Chunk.UpdateDistance > s.Chunk.DrawDistance {
		return errors.New("chunk.updateDistance must be between 0 and chunk.drawDistance")
	}
	if s.Scheduler.StreamingBatchSize <= 0 || s.Scheduler.MeshingBatchSize <= 0 || s.Scheduler.ColliderBatchSize <= 0 {
		return errors.New("scheduler batch sizes must be positive")
	}
	if s.Scheduler.TickRate <= 0 {
		return errors.New("scheduler.tickRate must be positive")
	}
	if s.Scheduler.Workers < 0 {
		return errors.New("scheduler.workers cannot be negative")
	}
	if s.Scheduler.TimerWindow <= 0 {
		return errors.New("scheduler.timerWindow must be positive")
	}
	return nil
}
