// Package config loads and validates experiment configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes one training experiment.
type Config struct {
	// Dataset selects the data source: "mnist", "synthetic", or "csv".
	Dataset string `yaml:"dataset"`
	// DataDir holds the MNIST IDX files, or the CSV file path when
	// Dataset is "csv".
	DataDir string `yaml:"data_dir"`
	// NumClasses is required for CSV datasets; MNIST fixes it at 10.
	NumClasses int `yaml:"num_classes"`

	// LayerSizes lists every layer width including input and output.
	LayerSizes []int `yaml:"layer_sizes"`

	// Optimizer is "sgd", "sng", or "both" to run the two back to back.
	Optimizer string `yaml:"optimizer"`
	// StepSize is the learning rate. Zero means run the search.
	StepSize  float64 `yaml:"step_size"`
	NumEpochs int     `yaml:"num_epochs"`
	BatchSize int     `yaml:"batch_size"`
	NumShards int     `yaml:"num_shards"`
	RMax      float64 `yaml:"r_max"`
	Epsilon   float64 `yaml:"epsilon"`

	// StatsEveryEpochs is the evaluation cadence.
	StatsEveryEpochs int `yaml:"stats_every_num_epochs"`

	Seed int64 `yaml:"seed"`

	// Device is "cpu" or "webgpu".
	Device string `yaml:"device"`

	LRSearch LRSearch `yaml:"lr_search"`
}

// LRSearch configures the learning rate search that runs when
// StepSize is zero.
type LRSearch struct {
	LRMin         float64 `yaml:"lr_min"`
	LRMax         float64 `yaml:"lr_max"`
	NumCandidates int     `yaml:"num_candidates"`
	TrialEpochs   int     `yaml:"trial_epochs"`
}

// Default returns the baseline experiment configuration.
func Default() Config {
	return Config{
		Dataset:          "mnist",
		DataDir:          "data",
		LayerSizes:       []int{784, 128, 10},
		Optimizer:        "both",
		StepSize:         0,
		NumEpochs:        100,
		BatchSize:        256,
		NumShards:        4,
		RMax:             1.0,
		Epsilon:          1e-8,
		StatsEveryEpochs: 1,
		Seed:             42,
		Device:           "cpu",
		LRSearch: LRSearch{
			LRMin:         0.5,
			LRMax:         2.0,
			NumCandidates: 40,
			TrialEpochs:   2,
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for contradictions.
func (c Config) Validate() error {
	switch c.Dataset {
	case "mnist", "synthetic", "csv":
	default:
		return fmt.Errorf("config: unknown dataset %q", c.Dataset)
	}
	if c.Dataset == "csv" && c.NumClasses <= 0 {
		return fmt.Errorf("config: csv dataset needs num_classes")
	}
	if len(c.LayerSizes) < 2 {
		return fmt.Errorf("config: layer_sizes needs at least input and output, got %v", c.LayerSizes)
	}
	for i, s := range c.LayerSizes {
		if s <= 0 {
			return fmt.Errorf("config: layer size %d at index %d must be positive", s, i)
		}
	}
	switch c.Optimizer {
	case "sgd", "sng", "both":
	default:
		return fmt.Errorf("config: unknown optimizer %q", c.Optimizer)
	}
	if c.StepSize < 0 {
		return fmt.Errorf("config: step_size %v must not be negative", c.StepSize)
	}
	if c.NumEpochs <= 0 {
		return fmt.Errorf("config: num_epochs %d must be positive", c.NumEpochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("config: batch_size %d must be positive", c.BatchSize)
	}
	if c.Optimizer != "sgd" && c.NumShards < 2 {
		return fmt.Errorf("config: num_shards %d must be at least 2 for sng", c.NumShards)
	}
	if c.NumShards > c.BatchSize {
		return fmt.Errorf("config: num_shards %d exceeds batch_size %d", c.NumShards, c.BatchSize)
	}
	if c.RMax < 0 || c.Epsilon < 0 {
		return fmt.Errorf("config: r_max and epsilon must not be negative")
	}
	if c.StatsEveryEpochs < 0 {
		return fmt.Errorf("config: stats_every_num_epochs %d must not be negative", c.StatsEveryEpochs)
	}
	switch c.Device {
	case "cpu", "webgpu":
	default:
		return fmt.Errorf("config: unknown device %q", c.Device)
	}
	if c.StepSize == 0 {
		s := c.LRSearch
		if s.LRMin <= 0 || s.LRMax <= s.LRMin {
			return fmt.Errorf("config: lr_search bracket [%v, %v] is invalid", s.LRMin, s.LRMax)
		}
		if s.NumCandidates < 1 || s.TrialEpochs < 1 {
			return fmt.Errorf("config: lr_search needs at least one candidate and one trial epoch")
		}
	}
	return nil
}
