package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/framebin/engine/core"
)

// Duration is a time.Duration read from strings such as "250ms".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

type FrameConfig struct {
	// Number of frame bins in flight.
	Bins uint32 `toml:"bins"`
	// Zero waits on fences without bound.
	FenceTimeout   Duration `toml:"fence_timeout"`
	DescriptorSets uint32   `toml:"descriptor_sets"`
	UniformBuffers uint32   `toml:"uniform_buffers"`
	ImageSamplers  uint32   `toml:"image_samplers"`
}

type WorkersConfig struct {
	Count     int `toml:"count"`
	QueueSize int `toml:"queue_size"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type DriverConfig struct {
	// "null" or "vulkan"
	Backend      string `toml:"backend"`
	AppName      string `toml:"app_name"`
	Frames       uint64 `toml:"frames"`
	JobsPerFrame int    `toml:"jobs_per_frame"`
	// Simulated GPU time per submission on the null backend.
	GPULatency Duration `toml:"gpu_latency"`
}

type Config struct {
	Frame   FrameConfig   `toml:"frame"`
	Workers WorkersConfig `toml:"workers"`
	Log     LogConfig     `toml:"log"`
	Driver  DriverConfig  `toml:"driver"`
}

const (
	BackendNull   = "null"
	BackendVulkan = "vulkan"
)

var ErrInvalidConfig = errors.New("invalid configuration")

func Default() *Config {
	return &Config{
		Frame: FrameConfig{
			Bins:           3,
			DescriptorSets: 10,
			UniformBuffers: 2,
			ImageSamplers:  2,
		},
		Workers: WorkersConfig{
			Count:     runtime.NumCPU(),
			QueueSize: 64,
		},
		Log: LogConfig{
			Level: "info",
		},
		Driver: DriverConfig{
			Backend:      BackendNull,
			AppName:      "Framebin",
			Frames:       600,
			JobsPerFrame: 4,
			GPULatency:   Duration(2 * time.Millisecond),
		},
	}
}

// Load reads a TOML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%w: line %d column %d: %s", ErrInvalidConfig, row, col, derr.Error())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Frame.Bins < 2 {
		return fmt.Errorf("%w: frame.bins must be at least 2, got %d", ErrInvalidConfig, c.Frame.Bins)
	}
	if c.Frame.FenceTimeout < 0 {
		return fmt.Errorf("%w: frame.fence_timeout must not be negative", ErrInvalidConfig)
	}
	if c.Frame.DescriptorSets == 0 {
		return fmt.Errorf("%w: frame.descriptor_sets must be positive", ErrInvalidConfig)
	}
	if c.Workers.Count < 1 {
		return fmt.Errorf("%w: workers.count must be at least 1, got %d", ErrInvalidConfig, c.Workers.Count)
	}
	if c.Workers.QueueSize < 0 {
		return fmt.Errorf("%w: workers.queue_size must not be negative", ErrInvalidConfig)
	}
	if c.Driver.JobsPerFrame < 1 {
		return fmt.Errorf("%w: driver.jobs_per_frame must be at least 1", ErrInvalidConfig)
	}
	switch c.Driver.Backend {
	case BackendNull, BackendVulkan:
	default:
		return fmt.Errorf("%w: unknown driver.backend %q", ErrInvalidConfig, c.Driver.Backend)
	}
	if _, err := core.ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) LogLevel() core.LogLevel {
	l, _ := core.ParseLogLevel(c.Log.Level)
	return l
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
