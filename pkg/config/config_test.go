package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-agentviz/pkg/render"
	"github.com/dd0wney/cluso-agentviz/pkg/visualization"
)

func env(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, visualization.DefaultForceConfig(), cfg.Force())
	assert.Equal(t, 800*time.Millisecond, cfg.Packets.Lifetime)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentviz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
physics:
  repulsion: 3500
  seed: 42
packets:
  lifetime: 1.5s
world:
  width: 1600
source:
  events: tcp://127.0.0.1:5560
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3500.0, cfg.Physics.Repulsion)
	assert.Equal(t, int64(42), cfg.Physics.Seed)
	assert.Equal(t, 1500*time.Millisecond, cfg.Packets.Lifetime)
	assert.Equal(t, 1600.0, cfg.Bounds().Width)
	assert.Equal(t, 700.0, cfg.Bounds().Height)
	// untouched fields keep their defaults
	assert.Equal(t, 0.85, cfg.Physics.Friction)
	assert.Equal(t, "tcp://127.0.0.1:5560", cfg.Source.Events)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("physics: [1, 2"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parse config")

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("physics:\n  friction: 1.5\n"), 0o644))
	_, err = Load(invalid)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{
		"LOG_LEVEL":                "debug",
		"AGENTVIZ_SEED":            "7",
		"AGENTVIZ_PACKET_LIFETIME": "2s",
		"AGENTVIZ_METRICS_ADDR":    ":9100",
		"AGENTVIZ_EVENTS":          "ipc:///tmp/agents.ipc",
	})))
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, int64(7), cfg.Physics.Seed)
	assert.Equal(t, 2*time.Second, cfg.Packets.Lifetime)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	assert.Equal(t, "ipc:///tmp/agents.ipc", cfg.Source.Events)

	// the prefixed variable wins
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{
		"LOG_LEVEL":          "debug",
		"AGENTVIZ_LOG_LEVEL": "warn",
	})))
	assert.Equal(t, "warn", cfg.Logging.Level)

	assert.Error(t, cfg.ApplyEnv(env(map[string]string{"AGENTVIZ_SEED": "abc"})))
	assert.Error(t, cfg.ApplyEnv(env(map[string]string{"AGENTVIZ_PACKET_LIFETIME": "soon"})))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"friction above one", func(c *Config) { c.Physics.Friction = 1.2 }, "Friction"},
		{"friction of exactly one", func(c *Config) { c.Physics.Friction = 1 }, "Friction"},
		{"restitution of exactly one", func(c *Config) { c.Physics.Restitution = 1 }, "Restitution"},
		{"zoom range inverted", func(c *Config) { c.Interaction.MaxZoom = 0.05 }, "MaxZoom"},
		{"max radius below radius", func(c *Config) {
			c.Render.NodeRadius = ptr(5.0)
			c.Render.NodeRadiusMax = ptr(1.0)
		}, "render.nodeRadiusMax"},
		{"negative packet radius", func(c *Config) { c.Render.PacketRadius = ptr(-1.0) }, "PacketRadius"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, "Level"},
		{"inset swallows world", func(c *Config) { c.World.Inset = 400 }, "world.inset"},
		{"zero lifetime", func(c *Config) { c.Packets.Lifetime = 0 }, "packets.lifetime"},
		{"zero frame interval", func(c *Config) { c.Engine.FrameInterval = 0 }, "engine.frameInterval"},
		{"bad events address", func(c *Config) { c.Source.Events = "localhost:5560" }, "source.events"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConverters(t *testing.T) {
	cfg := Default()
	cfg.World.SeedRadius = 50
	cfg.Render.NodeRadius = ptr(10.0)
	cfg.Interaction.DragThreshold = 3

	in := cfg.Ingest()
	assert.Equal(t, cfg.Bounds(), in.Bounds)
	assert.Equal(t, 50.0, in.SeedRadius)

	assert.Equal(t, 3.0, cfg.InteractionConfig().DragThreshold)

	style := cfg.Style(render.DefaultStyle())
	assert.Equal(t, 10.0, style.NodeRadius)
	assert.Equal(t, render.DefaultStyle().LinkWidth, style.LinkWidth)
	assert.Equal(t, render.DefaultStyle().NodeRadiusMax, style.NodeRadiusMax)
}

func TestStyleKeepsBaseWhenUnset(t *testing.T) {
	cfg := Default()
	assert.Equal(t, render.CellStyle(), cfg.Style(render.CellStyle()))
	assert.Equal(t, render.DefaultStyle(), cfg.Style(render.DefaultStyle()))

	cfg.Render.LabelThreshold = ptr(0)
	cfg.Render.NodeRadius = ptr(4.0)
	style := cfg.Style(render.CellStyle())
	assert.Equal(t, 0, style.LabelThreshold)
	assert.Equal(t, 4.0, style.NodeRadius)
	// the cell maximum (3) would sit below the configured radius
	assert.Equal(t, 4.0, style.NodeRadiusMax)
	assert.Equal(t, render.CellStyle().PacketRadius, style.PacketRadius)
}

func TestLoadRenderOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentviz.yaml")
	require.NoError(t, os.WriteFile(path, []byte("render:\n  packetRadius: 2.5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Render.PacketRadius)
	assert.Equal(t, 2.5, *cfg.Render.PacketRadius)
	assert.Nil(t, cfg.Render.NodeRadius)
	assert.Equal(t, 1200, cfg.Render.Width)
}

func ptr[T any](v T) *T { return &v }
