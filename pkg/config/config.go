// Package config provides configuration loading and management for
// demosaicnet. It handles loading configuration from YAML files and
// provides default values; command-line flags override loaded values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Processing parameters
	Processing struct {
		// NoiseLevel is the Gaussian noise standard deviation injected
		// before mosaic synthesis, in normalized pixel units
		NoiseLevel float64 `yaml:"noiseLevel"`

		// Pattern selects the color-filter-array layout (bayer or xtrans)
		Pattern string `yaml:"pattern"`

		// GPUTileSize is the tile side used on batch-oriented backends
		GPUTileSize int `yaml:"gpuTileSize"`

		// CPUTileSize is the tile side used on constrained backends
		CPUTileSize int `yaml:"cpuTileSize"`

		// Seed feeds the noise generator so runs are reproducible
		Seed uint64 `yaml:"seed"`
	} `yaml:"processing"`

	// Backend parameters
	Backend struct {
		// Kind selects the inference backend (onnx or bilinear)
		Kind string `yaml:"kind"`

		// ModelPath is the model directory or .onnx file for the onnx backend
		ModelPath string `yaml:"modelPath"`

		// LibraryPath optionally points at the onnxruntime shared library
		LibraryPath string `yaml:"libraryPath"`

		// Threads bounds the backend thread count; zero means all cores
		Threads int `yaml:"threads"`

		// Quiet suppresses backend load-time diagnostics
		Quiet bool `yaml:"quiet"`
	} `yaml:"backend"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NoiseLevel = 0.0
	cfg.Processing.Pattern = "bayer"
	cfg.Processing.GPUTileSize = 512
	cfg.Processing.CPUTileSize = 128
	cfg.Processing.Seed = 0

	cfg.Backend.Kind = "onnx"
	cfg.Backend.Threads = runtime.NumCPU()
	cfg.Backend.Quiet = false

	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
