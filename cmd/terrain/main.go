package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"VoxelTerrain/internal/config"
	"VoxelTerrain/internal/engine"
	"VoxelTerrain/internal/logger"
	"VoxelTerrain/internal/renderer"
	"VoxelTerrain/internal/voxel"

	mgl "github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

func main() {
	os.Exit(terrain(os.Args[1:], os.Stderr))
}

// terrain runs the command and returns its exit code. Deferred work, the final log
// flush included, completes before the process exits.
func terrain(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("terrain", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "YAML settings file (defaults when empty)")
		ticks      = fs.Int("ticks", 0, "stop after n ticks (0 runs until interrupted)")
		speed      = fs.Float64("speed", 12, "viewpoint speed in world units per second")
		heading    = fs.Float64("heading", 45, "viewpoint yaw in degrees")
		dump       = fs.String("dump", "", "write the published chunk meshes to this file on exit")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "load config:", err)
		return 1
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(stderr, "build logger:", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log, *ticks, float32(*speed), float32(*heading), *dump); err != nil {
		log.Error("terrain pipeline stopped", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg *config.Settings, log *zap.Logger, ticks int, speed, heading float32, dump string) error {
	half := cfg.Noise.Height / 2
	dims := voxel.Dimensions{Size: cfg.Chunk.Size, PartitionHeight: cfg.Chunk.PartitionHeight}
	sink := renderer.NewMemorySink(dims, half, cfg.Renderer.CastShadows, log)
	baker := renderer.NewShapeBaker()

	cam := renderer.NewCamera(mgl.Vec3{0, float32(half + 16), 0}, heading, -15, speed)
	cam.SetFar(float32((cfg.Chunk.DrawDistance + 1) * cfg.Chunk.Size))
	// The camera flies by wall-clock time so extra viewpoint reads do not move it.
	last := time.Now()
	viewpoint := engine.ViewpointFunc(func() mgl.Vec3 {
		now := time.Now()
		cam.Advance(float32(now.Sub(last).Seconds()))
		last = now
		return cam.Position
	})

	e, err := engine.New(cfg, viewpoint, sink, baker, log)
	if err != nil {
		return err
	}
	defer e.Dispose()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := e.RunFor(ctx, ticks)
	e.LogStats()

	log.Info("viewpoint summary",
		zap.String("position", fmt.Sprintf("%.1f,%.1f,%.1f", cam.Position.X(), cam.Position.Y(), cam.Position.Z())),
		zap.Int("models", sink.Len()),
		zap.Int("visible", len(sink.Visible(cam.CalculateFrustum()))),
		zap.Int64("colliders", baker.Live()),
		zap.Float64("groundDistance", groundDistance(e, cam.Position)))

	if dump != "" {
		if err := writeSnapshot(dump, sink.Models()); err != nil {
			return fmt.Errorf("dump meshes: %w", err)
		}
		log.Info("meshes written", zap.String("path", dump), zap.Int("models", sink.Len()))
	}
	return runErr
}

// groundDistance casts a ray straight down through the colliders of the viewpoint's
// column. It returns +Inf when nothing below has a collider yet.
func groundDistance(e *engine.Engine, from mgl.Vec3) float64 {
	column := engine.ColumnAt(from, e.Config().Chunk.Size)
	addrs := make([]voxel.Address, 0, e.Store().Partitions())
	for p := 0; p < e.Store().Partitions(); p++ {
		addrs = append(addrs, voxel.Address{Column: column, Partition: p})
	}

	ray := renderer.Ray{Origin: from, Direction: mgl.Vec3{0, -1, 0}}
	best := math.Inf(1)
	for _, res := range e.Pool().ResolveActive(addrs) {
		shape, ok := res.Collider.(*renderer.Shape)
		if !ok {
			continue
		}
		if d, hit := shape.Raycast(ray); hit && float64(d) < best {
			best = float64(d)
		}
	}
	return best
}

func writeSnapshot(path string, models []*renderer.Model) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := renderer.WriteSnapshot(f, models); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
