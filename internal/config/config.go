package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"voxmesh/internal/world"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Chunk   ChunkConfig   `yaml:"chunk"`
	Meshing MeshingConfig `yaml:"meshing"`
	LOD     LODConfig     `yaml:"lod"`
	Metrics MetricsConfig `yaml:"metrics"`
	World   WorldConfig   `yaml:"world"`
}

type ChunkConfig struct {
	Size int `yaml:"size"`
}

type MeshingConfig struct {
	DispatchInterval string `yaml:"dispatch_interval"`
	ApplyBudget      int    `yaml:"apply_budget"`
	Workers          int    `yaml:"workers"` // 0 picks one per spare CPU
	QueueSize        int    `yaml:"queue_size"`
}

// LODConfig enables reduced-detail meshing past Distance chunks from the
// viewer. Levels 0 disables it.
type LODConfig struct {
	Distance int `yaml:"distance"`
	Levels   int `yaml:"levels"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the /metrics endpoint
}

// WorldConfig drives the terrain generated by the demo binary.
type WorldConfig struct {
	Seed   int64 `yaml:"seed"`
	Radius int   `yaml:"radius"` // chunks around the origin on X and Z
	Height int   `yaml:"height"` // chunk layers starting at y=0
}

// Default returns a configuration that validates as is.
func Default() Config {
	return Config{
		Chunk: ChunkConfig{Size: world.DefaultChunkSize},
		Meshing: MeshingConfig{
			DispatchInterval: "250ms",
			ApplyBudget:      1000,
			QueueSize:        1024,
		},
		LOD:   LODConfig{Distance: 8, Levels: 2},
		World: WorldConfig{Seed: 1337, Radius: 4, Height: 2},
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes c as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	s := c.Chunk.Size
	if s < 2 || s > world.MaxChunkSize || s&(s-1) != 0 {
		return fmt.Errorf("%w: chunk.size must be a power of two in [2, %d], got %d", ErrInvalid, world.MaxChunkSize, s)
	}
	d, err := time.ParseDuration(c.Meshing.DispatchInterval)
	if err != nil {
		return fmt.Errorf("%w: meshing.dispatch_interval: %v", ErrInvalid, err)
	}
	if d <= 0 {
		return fmt.Errorf("%w: meshing.dispatch_interval must be positive", ErrInvalid)
	}
	if c.Meshing.ApplyBudget <= 0 {
		return fmt.Errorf("%w: meshing.apply_budget must be positive", ErrInvalid)
	}
	if c.Meshing.Workers < 0 {
		return fmt.Errorf("%w: meshing.workers cannot be negative", ErrInvalid)
	}
	if c.Meshing.QueueSize <= 0 {
		return fmt.Errorf("%w: meshing.queue_size must be positive", ErrInvalid)
	}
	if c.LOD.Distance < 0 || c.LOD.Levels < 0 {
		return fmt.Errorf("%w: lod.distance and lod.levels cannot be negative", ErrInvalid)
	}
	if c.LOD.Levels > 0 && c.LOD.Distance == 0 {
		return fmt.Errorf("%w: lod.distance must be set when lod.levels is", ErrInvalid)
	}
	if c.World.Radius < 0 || c.World.Height <= 0 {
		return fmt.Errorf("%w: world.radius cannot be negative and world.height must be positive", ErrInvalid)
	}
	return nil
}

// DispatchInterval returns the parsed meshing.dispatch_interval. Call after Validate.
func (c *Config) DispatchInterval() time.Duration {
	d, _ := time.ParseDuration(c.Meshing.DispatchInterval)
	return d
}

// WorkerCount resolves meshing.workers, leaving one CPU for the main loop when unset.
func (c *Config) WorkerCount() int {
	if c.Meshing.Workers > 0 {
		return c.Meshing.Workers
	}
	return max(runtime.NumCPU()-1, 1)
}
