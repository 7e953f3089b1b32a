package domain

import (
	"time"

	"github.com/sawitsmart/backend/pkg/geo"
)

// Pose is the sensor-bearing robot's instantaneous position and heading.
// HeadingDeg is in [0,360), 0 = true north, clockwise.
type Pose struct {
	geo.Point
	HeadingDeg float64   `json:"heading_deg"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
}

// RobotFix is a raw position report from the robot telemetry channel.
type RobotFix struct {
	ID        string    `json:"id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

// TrackedObject is anything the forward sensor can see.
type TrackedObject struct {
	ID       string    `json:"id"`
	Position geo.Point `json:"position"`
	Label    string    `json:"label,omitempty"`
}

// Severity is a proximity band. Lower values are more severe.
type Severity int

const (
	SeverityDanger Severity = iota
	SeverityWarn
	SeverityNormal
)

// String returns the lowercase band name.
func (s Severity) String() string {
	switch s {
	case SeverityDanger:
		return "danger"
	case SeverityWarn:
		return "warn"
	default:
		return "normal"
	}
}

// MarshalText lets severities travel as strings in JSON and map keys.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Detection is an object found inside the forward sector during one evaluation.
type Detection struct {
	ID             string    `json:"id"`
	Label          string    `json:"label,omitempty"`
	Position       geo.Point `json:"position"`
	DistanceMeters float64   `json:"distance_m"`
	BearingDeg     float64   `json:"bearing_deg"`
	AngleDiffDeg   float64   `json:"angle_diff_deg"`
	Severity       Severity  `json:"severity"`
}

// DisplayName returns the label, falling back to the ID.
func (d Detection) DisplayName() string {
	if d.Label != "" {
		return d.Label
	}
	return d.ID
}
