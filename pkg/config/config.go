// Package config provides configuration loading and management for folding-measures.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"foldingmeasures/internal/models"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many CPU cores the curvature loop may use
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Surface construction parameters
	Surface struct {
		// NormalWeighting is "equal" or "area"
		NormalWeighting string `yaml:"normalWeighting"`
	} `yaml:"surface"`

	// Region of interest parameters
	ROI struct {
		// Inclusion is "all" (a triangle needs all three vertices selected)
		// or "any" (partially selected triangles count in proportion)
		Inclusion string `yaml:"inclusion"`

		// Invert swaps selected and unselected vertices before dilation
		Invert bool `yaml:"invert"`

		// Dilate and Erode are applied to the loaded selection, dilation first
		Dilate int `yaml:"dilate"`
		Erode  int `yaml:"erode"`

		// BoundaryOnly keeps only the edge of the final selection
		BoundaryOnly bool `yaml:"boundaryOnly"`
	} `yaml:"roi"`

	// Report parameters
	Report struct {
		// Semicolon writes a semicolon separated report
		Semicolon bool `yaml:"semicolon"`

		// Header is extra text printed below the report title
		Header string `yaml:"header"`
	} `yaml:"report"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default processing parameters
	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default

	cfg.Surface.NormalWeighting = models.EqualWeight.String()

	cfg.ROI.Inclusion = models.AllVertices.String()
	cfg.ROI.Invert = false
	cfg.ROI.Dilate = 0
	cfg.ROI.Erode = 0
	cfg.ROI.BoundaryOnly = false

	cfg.Report.Semicolon = false
	cfg.Report.Header = ""

	cfg.Output.Verbose = false

	return cfg
}

// Validate checks option values and ranges
func (c *Config) Validate() error {
	if c.Processing.NumCores < 0 {
		return models.NewError(models.ErrArguments, "", "numCores must not be negative, got %d", c.Processing.NumCores)
	}
	if _, err := models.ParseNormalWeighting(c.Surface.NormalWeighting); err != nil {
		return err
	}
	if _, err := models.ParseInclusion(c.ROI.Inclusion); err != nil {
		return err
	}
	if c.ROI.Dilate < 0 || c.ROI.Erode < 0 {
		return models.NewError(models.ErrArguments, "", "dilate and erode iterations must not be negative")
	}
	return nil
}

// LoadConfig loads configuration from a YAML file. Keys missing from the
// file keep their default values; a missing file is a read error.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, models.WrapError(models.ErrFileRead, configPath, fmt.Errorf("error reading config file: %w", err))
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, models.WrapError(models.ErrArguments, configPath, fmt.Errorf("error parsing config file: %w", err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return models.WrapError(models.ErrFileWrite, configPath, fmt.Errorf("error creating config directory: %w", err))
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return models.WrapError(models.ErrFileWrite, configPath, fmt.Errorf("error writing config file: %w", err))
	}

	return nil
}
