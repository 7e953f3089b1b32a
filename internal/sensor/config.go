package sensor

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfiguration is returned when sensor thresholds are inconsistent.
var ErrInvalidConfiguration = errors.New("sensor: invalid configuration")

// Default sensor configuration.
const (
	DefaultFOVDeg      = 120.0
	DefaultMaxRange    = 100.0
	DefaultWarnRange   = 40.0
	DefaultDangerRange = 15.0
)

// Config holds the field of view and the range thresholds, in degrees and meters.
type Config struct {
	FOVDeg      float64 `json:"fov_deg" yaml:"fov_deg"`
	MaxRange    float64 `json:"max_range" yaml:"max_range"`
	WarnRange   float64 `json:"warn_range" yaml:"warn_range"`
	DangerRange float64 `json:"danger_range" yaml:"danger_range"`
}

// DefaultConfig returns the stock 120°/100 m sensor.
func DefaultConfig() Config {
	return Config{
		FOVDeg:      DefaultFOVDeg,
		MaxRange:    DefaultMaxRange,
		WarnRange:   DefaultWarnRange,
		DangerRange: DefaultDangerRange,
	}
}

// NewConfig builds and validates a configuration.
func NewConfig(fovDeg, maxRange, warnRange, dangerRange float64) (Config, error) {
	cfg := Config{
		FOVDeg:      fovDeg,
		MaxRange:    maxRange,
		WarnRange:   warnRange,
		DangerRange: dangerRange,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces 0 < danger < warn <= max and 0 < fov <= 360.
func (c Config) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"fov_deg", c.FOVDeg},
		{"max_range", c.MaxRange},
		{"warn_range", c.WarnRange},
		{"danger_range", c.DangerRange},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidConfiguration, f.name)
		}
	}
	if c.FOVDeg <= 0 || c.FOVDeg > 360 {
		return fmt.Errorf("%w: fov_deg %v outside (0, 360]", ErrInvalidConfiguration, c.FOVDeg)
	}
	if c.DangerRange <= 0 {
		return fmt.Errorf("%w: danger_range %v must be positive", ErrInvalidConfiguration, c.DangerRange)
	}
	if c.DangerRange >= c.WarnRange {
		return fmt.Errorf("%w: danger_range %v must be below warn_range %v", ErrInvalidConfiguration, c.DangerRange, c.WarnRange)
	}
	if c.WarnRange > c.MaxRange {
		return fmt.Errorf("%w: warn_range %v exceeds max_range %v", ErrInvalidConfiguration, c.WarnRange, c.MaxRange)
	}
	return nil
}

// HalfFOV returns half the field of view in degrees.
func (c Config) HalfFOV() float64 {
	return c.FOVDeg / 2
}
