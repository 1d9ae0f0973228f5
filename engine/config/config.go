package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the runtime tunables of the animation pipeline. Every field can be set from the
// environment; unset variables take the envDefault values.
type Config struct {
	// Workers is the size of the evaluation worker pool. Zero means runtime.NumCPU().
	Workers int `env:"OXY_RIG_WORKERS" envDefault:"0"`

	// QueueSize is the task queue depth of the worker pool.
	QueueSize int `env:"OXY_RIG_QUEUE_SIZE" envDefault:"256"`

	// WorkerIdle is how long an idle pool worker lingers before exiting.
	WorkerIdle time.Duration `env:"OXY_RIG_WORKER_IDLE" envDefault:"1s"`

	// MaxInstances caps the number of character instances an animator accepts. Zero means no cap.
	MaxInstances int `env:"OXY_RIG_MAX_INSTANCES" envDefault:"0"`

	// IKEpsilon shrinks the reachable band of two-bone IK solves.
	IKEpsilon float32 `env:"OXY_RIG_IK_EPSILON" envDefault:"0.001"`

	// Profile enables the per-tick profiler.
	Profile bool `env:"OXY_RIG_PROFILE" envDefault:"false"`

	// ProfileInterval is how often the profiler logs.
	ProfileInterval time.Duration `env:"OXY_RIG_PROFILE_INTERVAL" envDefault:"1s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses a Config from the environment and validates it.
//
// Returns:
//   - Config: the parsed configuration with Workers resolved
//   - error: an error if a variable fails to parse or a value is out of range
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set in the environment.
func Default() Config {
	return Config{
		Workers:         runtime.NumCPU(),
		QueueSize:       256,
		WorkerIdle:      time.Second,
		IKEpsilon:       1e-3,
		ProfileInterval: time.Second,
	}
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	switch {
	case c.Workers < 0:
		return fmt.Errorf("OXY_RIG_WORKERS must be >= 0, got %d", c.Workers)
	case c.QueueSize <= 0:
		return fmt.Errorf("OXY_RIG_QUEUE_SIZE must be > 0, got %d", c.QueueSize)
	case c.WorkerIdle <= 0:
		return fmt.Errorf("OXY_RIG_WORKER_IDLE must be > 0, got %s", c.WorkerIdle)
	case c.MaxInstances < 0:
		return fmt.Errorf("OXY_RIG_MAX_INSTANCES must be >= 0, got %d", c.MaxInstances)
	case !(c.IKEpsilon > 0):
		return fmt.Errorf("OXY_RIG_IK_EPSILON must be > 0, got %g", c.IKEpsilon)
	case c.Profile && c.ProfileInterval <= 0:
		return fmt.Errorf("OXY_RIG_PROFILE_INTERVAL must be > 0, got %s", c.ProfileInterval)
	}
	return nil
}
