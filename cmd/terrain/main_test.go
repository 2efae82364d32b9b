package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"VoxelTerrain/internal/renderer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallWorld writes a config for a tiny world that logs to a file in dir.
func smallWorld(t *testing.T, dir string) (configPath, logPath string) {
	t.Helper()
	logPath = filepath.Join(dir, "terrain.log")
	configPath = filepath.Join(dir, "terrain.yaml")
	data := []byte(`
noise:
  height: 16
  waterLevel: 4
  scale: 32
  octaves: 2
chunk:
  size: 4
  partitionHeight: 8
  drawDistance: 1
  updateDistance: 0
scheduler:
  tickRate: 200
  workers: 2
  statsInterval: 0s
log:
  level: info
  output: ` + logPath + `
`)
	require.NoError(t, os.WriteFile(configPath, data, 0o600))
	return configPath, logPath
}

func TestTerrainRejectsUnknownFlag(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 2, terrain([]string{"-bogus"}, &stderr))
	assert.Contains(t, stderr.String(), "bogus")
}

func TestTerrainReportsMissingConfig(t *testing.T) {
	var stderr bytes.Buffer
	code := terrain([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "load config")
}

func TestTerrainRunsAndDumpsMeshes(t *testing.T) {
	dir := t.TempDir()
	configPath, logPath := smallWorld(t, dir)
	dump := filepath.Join(dir, "meshes.chnk")

	var stderr bytes.Buffer
	code := terrain([]string{"-config", configPath, "-ticks", "40", "-speed", "0", "-dump", dump}, &stderr)
	require.Equal(t, 0, code, stderr.String())

	f, err := os.Open(dump)
	require.NoError(t, err)
	defer f.Close()
	_, err = renderer.ReadSnapshot(f)
	require.NoError(t, err)

	logged, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "viewpoint summary")
}

func TestTerrainFlushesFailureBeforeExit(t *testing.T) {
	dir := t.TempDir()
	configPath, logPath := smallWorld(t, dir)
	dump := filepath.Join(dir, "no-such-dir", "meshes.chnk")

	var stderr bytes.Buffer
	code := terrain([]string{"-config", configPath, "-ticks", "2", "-dump", dump}, &stderr)
	assert.Equal(t, 1, code)

	logged, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "terrain pipeline stopped")
	assert.Contains(t, string(logged), "engine disposed")
}
