package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"foldingmeasures/internal/models"
)

// TestLoadMissingConfig verifies a named file that does not exist is a read error
func TestLoadMissingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	cfg, err := LoadConfig(path)
	if !errors.Is(err, models.ErrFileRead) {
		t.Fatalf("Expected a read error, got %v", err)
	}
	if cfg != nil {
		t.Errorf("Expected no configuration, got %+v", cfg)
	}
	var me *models.Error
	if !errors.As(err, &me) || me.Path != path {
		t.Errorf("Expected the error to name %s, got %v", path, err)
	}
}

// TestDefaultConfig checks the default values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Processing.NumCores <= 0 {
		t.Errorf("Expected a positive default core count, got %d", cfg.Processing.NumCores)
	}
	if cfg.Surface.NormalWeighting != "equal" || cfg.ROI.Inclusion != "all" {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.ROI.Invert || cfg.ROI.BoundaryOnly || cfg.ROI.Dilate != 0 || cfg.ROI.Erode != 0 {
		t.Errorf("Expected no region operations by default: %+v", cfg.ROI)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default configuration is invalid: %v", err)
	}
}

// TestSaveAndLoadConfig round-trips a modified configuration through YAML
func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Processing.NumCores = 3
	cfg.Surface.NormalWeighting = "area"
	cfg.ROI.Inclusion = "any"
	cfg.ROI.Dilate = 2
	cfg.ROI.Invert = true
	cfg.ROI.BoundaryOnly = true
	cfg.Report.Semicolon = true
	cfg.Report.Header = "left hemisphere"
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("Expected %+v, got %+v", cfg, loaded)
	}
}

// TestPartialConfig checks that keys missing from the file keep their defaults
func TestPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("roi:\n  erode: 1\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ROI.Erode != 1 || cfg.ROI.Inclusion != "all" || cfg.Surface.NormalWeighting != "equal" {
		t.Errorf("Unexpected config %+v", cfg)
	}
}

// TestInvalidConfig verifies malformed and out-of-range settings are argument errors
func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Malformed", "processing: [1, 2\n"},
		{"UnknownInclusion", "roi:\n  inclusion: half\n"},
		{"UnknownWeighting", "surface:\n  normalWeighting: angle\n"},
		{"NegativeCores", "processing:\n  numCores: -1\n"},
		{"NegativeDilate", "roi:\n  dilate: -2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}
			_, err := LoadConfig(path)
			if !errors.Is(err, models.ErrArguments) {
				t.Errorf("Expected an argument error, got %v", err)
			}
		})
	}
}

// TestSaveConfigFailure verifies an unwritable destination is a write error
func TestSaveConfigFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	err := SaveConfig(DefaultConfig(), filepath.Join(blocker, "config.yaml"))
	if !errors.Is(err, models.ErrFileWrite) {
		t.Errorf("Expected a write error, got %v", err)
	}
}
