package domain

import (
	"context"
	"time"
)

// DataRepository defines the interface for data persistence
// This follows the Dependency Inversion Principle - domain defines the interface
type DataRepository interface {
	// SaveReading persists a soil telemetry sample
	SaveReading(ctx context.Context, reading SoilReading) error

	// SaveScan persists the detections of one sensor evaluation
	SaveScan(ctx context.Context, scan Scan) error

	// GetHistoricalReadings retrieves soil telemetry history
	GetHistoricalReadings(ctx context.Context, from, to time.Time) ([]SoilReading, error)

	// GetDetectionHistory retrieves persisted detections
	GetDetectionHistory(ctx context.Context, from, to time.Time) ([]DetectionRecord, error)

	// Health checks database connectivity
	Health(ctx context.Context) error
}
