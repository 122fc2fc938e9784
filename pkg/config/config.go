// Package config loads agentviz settings from YAML with environment
// overrides and converts them into the component configurations.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-agentviz/pkg/branchlayout"
	"github.com/dd0wney/cluso-agentviz/pkg/interaction"
	"github.com/dd0wney/cluso-agentviz/pkg/packets"
	"github.com/dd0wney/cluso-agentviz/pkg/render"
	"github.com/dd0wney/cluso-agentviz/pkg/source"
	"github.com/dd0wney/cluso-agentviz/pkg/validation"
	"github.com/dd0wney/cluso-agentviz/pkg/visualization"
)

// ErrInvalidConfig wraps every validation failure returned by Validate
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full agentviz configuration
type Config struct {
	Physics     PhysicsConfig       `yaml:"physics"`
	World       WorldConfig         `yaml:"world"`
	Packets     PacketsConfig       `yaml:"packets"`
	Render      RenderConfig        `yaml:"render"`
	Interaction InteractionConfig   `yaml:"interaction"`
	Trace       branchlayout.Config `yaml:"trace"`
	Engine      EngineConfig        `yaml:"engine"`
	Source      SourceConfig        `yaml:"source"`
	Logging     LoggingConfig       `yaml:"logging"`
	Metrics     MetricsConfig       `yaml:"metrics"`
}

// PhysicsConfig mirrors visualization.ForceConfig
type PhysicsConfig struct {
	Repulsion   float64 `yaml:"repulsion" validate:"gte=0"`
	Spring      float64 `yaml:"spring" validate:"gte=0"`
	Gravity     float64 `yaml:"gravity" validate:"gte=0"`
	Jitter      float64 `yaml:"jitter" validate:"gte=0"`
	Friction    float64 `yaml:"friction" validate:"gt=0,lt=1"`
	MaxSpeed    float64 `yaml:"maxSpeed" validate:"gt=0"`
	Restitution float64 `yaml:"restitution" validate:"gte=0,lt=1"`
	Epsilon     float64 `yaml:"epsilon" validate:"gt=0"`
	Seed        int64   `yaml:"seed"`
}

// WorldConfig sizes the simulation area
type WorldConfig struct {
	Width         float64 `yaml:"width" validate:"gt=0"`
	Height        float64 `yaml:"height" validate:"gt=0"`
	Inset         float64 `yaml:"inset" validate:"gte=0"`
	SeedRadius    float64 `yaml:"seedRadius" validate:"gte=0"`
	MaxLinkWeight float64 `yaml:"maxLinkWeight" validate:"gt=0"`
}

type PacketsConfig struct {
	Lifetime time.Duration `yaml:"lifetime"`
}

// RenderConfig holds the tunable parts of render.Style. Unset style fields
// keep the value of the base style, which differs between raster and
// terminal output.
type RenderConfig struct {
	NodeRadius      *float64 `yaml:"nodeRadius,omitempty" validate:"omitempty,gt=0"`
	NodeRadiusMax   *float64 `yaml:"nodeRadiusMax,omitempty" validate:"omitempty,gt=0"`
	ActivityScale   *float64 `yaml:"activityScale,omitempty" validate:"omitempty,gte=0"`
	PacketRadius    *float64 `yaml:"packetRadius,omitempty" validate:"omitempty,gt=0"`
	BroadcastRadius *float64 `yaml:"broadcastRadius,omitempty" validate:"omitempty,gte=0"`
	LabelThreshold  *int     `yaml:"labelThreshold,omitempty" validate:"omitempty,gte=0"`
	Width           int      `yaml:"width" validate:"gt=0"`
	Height          int      `yaml:"height" validate:"gt=0"`
}

type InteractionConfig struct {
	MinZoom       float64 `yaml:"minZoom" validate:"gt=0"`
	MaxZoom       float64 `yaml:"maxZoom" validate:"gtfield=MinZoom"`
	ZoomStep      float64 `yaml:"zoomStep" validate:"gt=1"`
	HitSlop       float64 `yaml:"hitSlop" validate:"gte=0"`
	DragThreshold float64 `yaml:"dragThreshold" validate:"gte=0"`
}

// EngineConfig sets the loop cadence
type EngineConfig struct {
	PhysicsInterval time.Duration `yaml:"physicsInterval"`
	FrameInterval   time.Duration `yaml:"frameInterval"`
	PollInterval    time.Duration `yaml:"pollInterval"`
	InputBuffer     int           `yaml:"inputBuffer" validate:"gte=0"`
}

// SourceConfig selects where snapshots and events come from. Snapshot
// takes precedence over Postgres.DSN.
type SourceConfig struct {
	Snapshot string          `yaml:"snapshot"`
	Postgres source.PGConfig `yaml:"postgres"`
	Events   string          `yaml:"events"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration
func Default() Config {
	force := visualization.DefaultForceConfig()
	inter := interaction.DefaultConfig()
	return Config{
		Physics: PhysicsConfig{
			Repulsion:   force.Repulsion,
			Spring:      force.Spring,
			Gravity:     force.Gravity,
			Jitter:      force.Jitter,
			Friction:    force.Friction,
			MaxSpeed:    force.MaxSpeed,
			Restitution: force.Restitution,
			Epsilon:     force.Epsilon,
			Seed:        force.Seed,
		},
		World: WorldConfig{
			Width:         1000,
			Height:        700,
			Inset:         30,
			MaxLinkWeight: 10,
		},
		Packets: PacketsConfig{Lifetime: packets.DefaultLifetime},
		Render: RenderConfig{
			Width:  1200,
			Height: 840,
		},
		Interaction: InteractionConfig{
			MinZoom:       inter.MinZoom,
			MaxZoom:       inter.MaxZoom,
			ZoomStep:      inter.ZoomStep,
			HitSlop:       inter.HitSlop,
			DragThreshold: inter.DragThreshold,
		},
		Trace: branchlayout.DefaultConfig(),
		Engine: EngineConfig{
			PhysicsInterval: 16 * time.Millisecond,
			FrameInterval:   33 * time.Millisecond,
			PollInterval:    5 * time.Second,
			InputBuffer:     64,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment:
//
//	AGENTVIZ_LOG_LEVEL (or LOG_LEVEL), AGENTVIZ_SEED,
//	AGENTVIZ_PACKET_LIFETIME, AGENTVIZ_METRICS_ADDR, AGENTVIZ_EVENTS
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("AGENTVIZ_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	} else if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("AGENTVIZ_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("AGENTVIZ_SEED: %w", err)
		}
		c.Physics.Seed = seed
	}
	if v := getenv("AGENTVIZ_PACKET_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("AGENTVIZ_PACKET_LIFETIME: %w", err)
		}
		c.Packets.Lifetime = d
	}
	if v := getenv("AGENTVIZ_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := getenv("AGENTVIZ_EVENTS"); v != "" {
		c.Source.Events = v
	}
	return nil
}

// Validate checks field tags, then the relationships tags cannot express
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cv := validation.NewConfigValidator("config")
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"physics.repulsion", c.Physics.Repulsion},
		{"physics.spring", c.Physics.Spring},
		{"physics.gravity", c.Physics.Gravity},
		{"physics.jitter", c.Physics.Jitter},
		{"world.width", c.World.Width},
		{"world.height", c.World.Height},
	} {
		cv.Finite(f.name, f.value)
	}
	cv.Less("world.inset", 2*c.World.Inset, "world.width", c.World.Width).
		Less("world.inset", 2*c.World.Inset, "world.height", c.World.Height).
		PositiveDuration("packets.lifetime", c.Packets.Lifetime).
		PositiveDuration("engine.physicsInterval", c.Engine.PhysicsInterval).
		PositiveDuration("engine.frameInterval", c.Engine.FrameInterval).
		NonNegativeFloat("engine.pollInterval", float64(c.Engine.PollInterval)).
		PositiveFloat("trace.nodeWidth", c.Trace.NodeWidth).
		PositiveFloat("trace.nodeHeight", c.Trace.NodeHeight).
		When(c.Render.NodeRadius != nil && c.Render.NodeRadiusMax != nil, func(cv *validation.ConfigValidator) {
			cv.Custom("render.nodeRadiusMax", func() error {
				if *c.Render.NodeRadiusMax < *c.Render.NodeRadius {
					return fmt.Errorf("%g must not be below render.nodeRadius (%g)", *c.Render.NodeRadiusMax, *c.Render.NodeRadius)
				}
				return nil
			})
		}).
		When(c.Source.Events != "", func(cv *validation.ConfigValidator) {
			cv.Custom("source.events", func() error { return checkAddr(c.Source.Events) })
		})

	if err := cv.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

var addrSchemes = []string{"tcp://", "ipc://", "inproc://", "ws://", "wss://", "tls+tcp://"}

func checkAddr(addr string) error {
	for _, scheme := range addrSchemes {
		if strings.HasPrefix(addr, scheme) && len(addr) > len(scheme) {
			return nil
		}
	}
	return fmt.Errorf("address %q needs one of the schemes %v", addr, addrSchemes)
}

// Force converts the physics section
func (c *Config) Force() visualization.ForceConfig {
	return visualization.ForceConfig{
		Repulsion:   c.Physics.Repulsion,
		Spring:      c.Physics.Spring,
		Gravity:     c.Physics.Gravity,
		Jitter:      c.Physics.Jitter,
		Friction:    c.Physics.Friction,
		MaxSpeed:    c.Physics.MaxSpeed,
		Restitution: c.Physics.Restitution,
		Epsilon:     c.Physics.Epsilon,
		Seed:        c.Physics.Seed,
	}
}

func (c *Config) Bounds() visualization.Bounds {
	return visualization.Bounds{Width: c.World.Width, Height: c.World.Height, Inset: c.World.Inset}
}

func (c *Config) Ingest() visualization.IngestConfig {
	return visualization.IngestConfig{
		Bounds:        c.Bounds(),
		SeedRadius:    c.World.SeedRadius,
		MaxLinkWeight: c.World.MaxLinkWeight,
	}
}

func (c *Config) InteractionConfig() interaction.Config {
	return interaction.Config{
		MinZoom:       c.Interaction.MinZoom,
		MaxZoom:       c.Interaction.MaxZoom,
		ZoomStep:      c.Interaction.ZoomStep,
		HitSlop:       c.Interaction.HitSlop,
		DragThreshold: c.Interaction.DragThreshold,
	}
}

// Style applies the fields set in the render section over base, which is
// usually render.DefaultStyle or render.CellStyle.
func (c *Config) Style(base render.Style) render.Style {
	setFloat(&base.NodeRadius, c.Render.NodeRadius)
	setFloat(&base.NodeRadiusMax, c.Render.NodeRadiusMax)
	setFloat(&base.ActivityScale, c.Render.ActivityScale)
	setFloat(&base.PacketRadius, c.Render.PacketRadius)
	setFloat(&base.BroadcastRadius, c.Render.BroadcastRadius)
	if c.Render.LabelThreshold != nil {
		base.LabelThreshold = *c.Render.LabelThreshold
	}
	if base.NodeRadiusMax < base.NodeRadius {
		base.NodeRadiusMax = base.NodeRadius
	}
	return base
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
