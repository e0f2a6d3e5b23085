package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TuningConfig is the root configuration for the tile inspection core.
// All fields are pointers so a partial JSON file only overrides what it
// names; the Get* accessors supply defaults for everything else. The
// defaults match the reference robot deployment.
type TuningConfig struct {
	// Tap test params
	TapThreshold            *float64 `json:"tap_threshold,omitempty"`             // min seconds between taps (debounce)
	SampleWindow            *float64 `json:"sample_window,omitempty"`             // seconds of signal captured per tap
	NoiseFloor              *float64 `json:"noise_floor,omitempty"`               // amplitude floor for envelope duration
	ActivationThreshold     *float64 `json:"activation_threshold,omitempty"`      // amplitude that opens a tap event
	HollowDurationThreshold *float64 `json:"hollow_duration_threshold,omitempty"` // fallback hollow cutoff (seconds)
	BaselineDurationFactor  *float64 `json:"baseline_duration_factor,omitempty"`  // multiplier on calibrated mean duration
	OscillationMargin       *float64 `json:"oscillation_margin,omitempty"`        // crossings above calibrated mean

	// Crack detection params
	CameraCrackThreshold *float64 `json:"camera_crack_threshold,omitempty"` // sensitivity, lower = more edges admitted
	MinCrackLength       *int     `json:"min_crack_length,omitempty"`       // pixels
	EdgeLowThreshold     *int     `json:"edge_low_threshold,omitempty"`
	EdgeHighThreshold    *int     `json:"edge_high_threshold,omitempty"`

	// Scan params
	ScanEnabled  *bool   `json:"scan_enabled,omitempty"`
	ScanInterval *string `json:"scan_interval,omitempty"` // duration string like "5s"

	// Alerting params
	AlertConfidenceThreshold *float64 `json:"alert_confidence_threshold,omitempty"`

	// Storage params
	DBPath *string `json:"db_path,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset so every
// accessor falls back to its default.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted
// from the file retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.TapThreshold != nil && *c.TapThreshold < 0 {
		return fmt.Errorf("tap_threshold must be non-negative, got %f", *c.TapThreshold)
	}
	if c.SampleWindow != nil && *c.SampleWindow <= 0 {
		return fmt.Errorf("sample_window must be positive, got %f", *c.SampleWindow)
	}
	if c.NoiseFloor != nil && *c.NoiseFloor < 0 {
		return fmt.Errorf("noise_floor must be non-negative, got %f", *c.NoiseFloor)
	}
	if c.CameraCrackThreshold != nil {
		if *c.CameraCrackThreshold <= 0 || *c.CameraCrackThreshold > 1 {
			return fmt.Errorf("camera_crack_threshold must be in (0, 1], got %f", *c.CameraCrackThreshold)
		}
	}
	if c.MinCrackLength != nil && *c.MinCrackLength < 0 {
		return fmt.Errorf("min_crack_length must be non-negative, got %d", *c.MinCrackLength)
	}
	if c.EdgeLowThreshold != nil && c.EdgeHighThreshold != nil {
		if *c.EdgeLowThreshold > *c.EdgeHighThreshold {
			return fmt.Errorf("edge_low_threshold %d exceeds edge_high_threshold %d",
				*c.EdgeLowThreshold, *c.EdgeHighThreshold)
		}
	}
	if c.AlertConfidenceThreshold != nil {
		if *c.AlertConfidenceThreshold < 0 || *c.AlertConfidenceThreshold > 1 {
			return fmt.Errorf("alert_confidence_threshold must be between 0 and 1, got %f", *c.AlertConfidenceThreshold)
		}
	}
	if c.ScanInterval != nil && *c.ScanInterval != "" {
		if _, err := time.ParseDuration(*c.ScanInterval); err != nil {
			return fmt.Errorf("invalid scan_interval '%s': %w", *c.ScanInterval, err)
		}
	}
	return nil
}

// GetTapThreshold returns the tap_threshold value or the default.
func (c *TuningConfig) GetTapThreshold() float64 {
	if c.TapThreshold == nil {
		return 0.05
	}
	return *c.TapThreshold
}

// GetSampleWindow returns the sample_window value or the default.
func (c *TuningConfig) GetSampleWindow() float64 {
	if c.SampleWindow == nil {
		return 0.5
	}
	return *c.SampleWindow
}

// GetNoiseFloor returns the noise_floor value or the default.
func (c *TuningConfig) GetNoiseFloor() float64 {
	if c.NoiseFloor == nil {
		return 0.02
	}
	return *c.NoiseFloor
}

// GetActivationThreshold returns the activation_threshold value or the default.
func (c *TuningConfig) GetActivationThreshold() float64 {
	if c.ActivationThreshold == nil {
		return 0.1
	}
	return *c.ActivationThreshold
}

// GetHollowDurationThreshold returns the hollow_duration_threshold value or the default.
func (c *TuningConfig) GetHollowDurationThreshold() float64 {
	if c.HollowDurationThreshold == nil {
		return 0.15
	}
	return *c.HollowDurationThreshold
}

// GetBaselineDurationFactor returns the baseline_duration_factor value or the default.
func (c *TuningConfig) GetBaselineDurationFactor() float64 {
	if c.BaselineDurationFactor == nil {
		return 1.5
	}
	return *c.BaselineDurationFactor
}

// GetOscillationMargin returns the oscillation_margin value or the default.
func (c *TuningConfig) GetOscillationMargin() float64 {
	if c.OscillationMargin == nil {
		return 2.0
	}
	return *c.OscillationMargin
}

// GetCameraCrackThreshold returns the camera_crack_threshold value or the default.
func (c *TuningConfig) GetCameraCrackThreshold() float64 {
	if c.CameraCrackThreshold == nil {
		return 0.15
	}
	return *c.CameraCrackThreshold
}

// GetMinCrackLength returns the min_crack_length value or the default.
func (c *TuningConfig) GetMinCrackLength() int {
	if c.MinCrackLength == nil {
		return 50
	}
	return *c.MinCrackLength
}

// GetEdgeLowThreshold returns the edge_low_threshold value or the default.
func (c *TuningConfig) GetEdgeLowThreshold() int {
	if c.EdgeLowThreshold == nil {
		return 50
	}
	return *c.EdgeLowThreshold
}

// GetEdgeHighThreshold returns the edge_high_threshold value or the default.
func (c *TuningConfig) GetEdgeHighThreshold() int {
	if c.EdgeHighThreshold == nil {
		return 150
	}
	return *c.EdgeHighThreshold
}

// GetScanEnabled returns the scan_enabled value or the default.
func (c *TuningConfig) GetScanEnabled() bool {
	if c.ScanEnabled == nil {
		return false
	}
	return *c.ScanEnabled
}

// GetScanInterval parses and returns the ScanInterval as a time.Duration.
func (c *TuningConfig) GetScanInterval() time.Duration {
	if c.ScanInterval == nil || *c.ScanInterval == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(*c.ScanInterval)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// GetAlertConfidenceThreshold returns the alert_confidence_threshold value or the default.
func (c *TuningConfig) GetAlertConfidenceThreshold() float64 {
	if c.AlertConfidenceThreshold == nil {
		return 0.15
	}
	return *c.AlertConfidenceThreshold
}

// GetDBPath returns the db_path value or the default.
func (c *TuningConfig) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "sitescan.db"
	}
	return *c.DBPath
}
