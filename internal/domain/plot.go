package domain

import "time"

// SoilReading is one telemetry sample from a plantation plot.
type SoilReading struct {
	PlotID         string    `json:"id"`
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	PH             float64   `json:"ph"`
	N              int       `json:"n"`
	P              int       `json:"p"`
	K              int       `json:"k"`
	Moisture       float64   `json:"moisture"`
	Temperature    float64   `json:"temperature"`
	Recommendation []string  `json:"recommendation"`
	Timestamp      time.Time `json:"timestamp"`
}

// HealthStatus is the binary health of a plot, plus the no-data case.
type HealthStatus string

const (
	StatusOptimal  HealthStatus = "optimal"
	StatusCritical HealthStatus = "critical"
	StatusNoData   HealthStatus = "nodata"
)

// Ring is an annular placement band around the robot, in meters.
type Ring struct {
	Name string  `json:"name"`
	RMin float64 `json:"r_min"`
	RMax float64 `json:"r_max"`
}

// Placement rings, innermost first.
var (
	RingInner  = Ring{Name: "inner", RMin: 20, RMax: 35}
	RingMiddle = Ring{Name: "middle", RMin: 40, RMax: 70}
	RingOuter  = Ring{Name: "outer", RMin: 80, RMax: 120}
)

// Plot is the current view of a plot: latest reading, health and ring.
type Plot struct {
	ID      string       `json:"id"`
	Reading *SoilReading `json:"reading"`
	Status  HealthStatus `json:"status"`
	Ring    Ring         `json:"ring"`
}

// KPIs are the dashboard aggregates over the latest readings.
type KPIs struct {
	PlotCount     int       `json:"plot_count"`
	AveragePH     float64   `json:"average_ph"`
	AverageMoist  float64   `json:"average_moisture"`
	CriticalCount int       `json:"critical_count"`
	Timestamp     time.Time `json:"timestamp"`
}
