// Package config loads process configuration from the environment and the
// optional sensor YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sawitsmart/backend/internal/sensor"
	"github.com/sawitsmart/backend/pkg/geo"
	"gopkg.in/yaml.v3"
)

// Robot start position when ROBOT_LAT/ROBOT_LNG are unset.
const (
	DefaultRobotID  = "SawITSmart"
	DefaultRobotLat = 0.3845999500559381
	DefaultRobotLng = 115.77952148203585
)

// Config holds every setting the server reads at startup.
type Config struct {
	DatabaseURL   string
	Port          string
	Env           string
	LogLevel      string
	SensorFile    string
	RobotID       string
	RobotStart    geo.Point
	RobotTick     time.Duration
	TelemetryTick time.Duration
	Sensor        sensor.Config
}

// Load reads the environment and, when SENSOR_CONFIG is set, the sensor file.
func Load() (*Config, error) {
	lat, err := getEnvFloat("ROBOT_LAT", DefaultRobotLat)
	if err != nil {
		return nil, err
	}
	lng, err := getEnvFloat("ROBOT_LNG", DefaultRobotLng)
	if err != nil {
		return nil, err
	}
	robotTick, err := getEnvDuration("ROBOT_TICK", 2*time.Second)
	if err != nil {
		return nil, err
	}
	telemetryTick, err := getEnvDuration("TELEMETRY_TICK", 5*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("GO_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		SensorFile:    getEnv("SENSOR_CONFIG", ""),
		RobotID:       getEnv("ROBOT_ID", DefaultRobotID),
		RobotStart:    geo.Point{Lat: lat, Lng: lng},
		RobotTick:     robotTick,
		TelemetryTick: telemetryTick,
		Sensor:        sensor.DefaultConfig(),
	}

	if err := cfg.RobotStart.Validate(); err != nil {
		return nil, fmt.Errorf("config: robot start: %w", err)
	}

	if cfg.SensorFile != "" {
		sc, err := LoadSensorFile(cfg.SensorFile)
		if err != nil {
			return nil, err
		}
		cfg.Sensor = sc
	}

	return cfg, nil
}

// sensorFile mirrors the YAML layout. Missing keys keep their defaults.
type sensorFile struct {
	Sensor struct {
		FOVDeg      *float64 `yaml:"fov_deg"`
		MaxRange    *float64 `yaml:"max_range"`
		WarnRange   *float64 `yaml:"warn_range"`
		DangerRange *float64 `yaml:"danger_range"`
	} `yaml:"sensor"`
}

// LoadSensorFile reads a YAML document of the form
//
//	sensor:
//	  fov_deg: 120
//	  max_range: 100
//	  warn_range: 40
//	  danger_range: 15
//
// and validates the result.
func LoadSensorFile(path string) (sensor.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sensor.Config{}, fmt.Errorf("config: failed to read sensor file: %w", err)
	}
	return ParseSensor(data)
}

// ParseSensor decodes sensor YAML on top of the defaults.
func ParseSensor(data []byte) (sensor.Config, error) {
	var f sensorFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return sensor.Config{}, fmt.Errorf("config: failed to parse sensor file: %w", err)
	}

	cfg := sensor.DefaultConfig()
	if f.Sensor.FOVDeg != nil {
		cfg.FOVDeg = *f.Sensor.FOVDeg
	}
	if f.Sensor.MaxRange != nil {
		cfg.MaxRange = *f.Sensor.MaxRange
	}
	if f.Sensor.WarnRange != nil {
		cfg.WarnRange = *f.Sensor.WarnRange
	}
	if f.Sensor.DangerRange != nil {
		cfg.DangerRange = *f.Sensor.DangerRange
	}

	out, err := sensor.NewConfig(cfg.FOVDeg, cfg.MaxRange, cfg.WarnRange, cfg.DangerRange)
	if err != nil {
		return sensor.Config{}, fmt.Errorf("config: %w", err)
	}
	return out, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %s", key, d)
	}
	return d, nil
}
