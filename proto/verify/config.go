package verify

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate and LoadConfig.
var ErrInvalidConfig = errors.New("verify: invalid config")

// DefaultTrials is the random sample size per run.
const DefaultTrials = 1000

// Config controls a verification run.
//
// Seed is always an explicit input: the same seed replays the same random cases.
type Config struct {
	// Seed for the random case generator.
	Seed uint64 `json:"seed" yaml:"seed"`

	// Trials is the number of random cases after the corner cases.
	Trials int `json:"trials" yaml:"trials"`

	// Workers > 1 evaluates random cases concurrently and aggregates every failure.
	Workers int `json:"workers" yaml:"workers"`

	// Seeded is set by LoadConfig when the file names a seed.
	Seeded bool `json:"-" yaml:"-"`
}

// fileConfig tells an absent key apart from a zero value.
type fileConfig struct {
	Seed    *uint64 `yaml:"seed"`
	Trials  *int    `yaml:"trials"`
	Workers *int    `yaml:"workers"`
}

// DefaultConfig returns seed 0, DefaultTrials trials, one worker.
func DefaultConfig() Config {
	return Config{Trials: DefaultTrials, Workers: 1}
}

// Validate checks the config for nonsensical values.
func (c Config) Validate() error {
	if c.Trials < 0 {
		return fmt.Errorf("%w: trials must be >= 0, got %d", ErrInvalidConfig, c.Trials)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// LoadConfig reads a YAML file over DefaultConfig. Keys absent from the file
// keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	if file.Seed != nil {
		cfg.Seed, cfg.Seeded = *file.Seed, true
	}
	if file.Trials != nil {
		cfg.Trials = *file.Trials
	}
	if file.Workers != nil {
		cfg.Workers = *file.Workers
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
