package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/sawitsmart/backend/pkg/geo"
)

// Scan is the complete output of one forward-sensor evaluation. Each scan
// supersedes the previous one; consumers must not merge them.
type Scan struct {
	ID         uuid.UUID       `json:"id"`
	Robot      *Pose           `json:"robot"`
	Sector     []geo.Point     `json:"sector"`
	Objects    []TrackedObject `json:"objects"`
	Detections []Detection     `json:"detections"`
	Severity   Severity        `json:"severity"`
	Inert      bool            `json:"inert"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Nearest returns the closest detection, if any.
func (s Scan) Nearest() (Detection, bool) {
	if len(s.Detections) == 0 {
		return Detection{}, false
	}
	return s.Detections[0], true
}

// DetectionRecord is a persisted detection row.
type DetectionRecord struct {
	ScanID         uuid.UUID `json:"scan_id"`
	ObjectID       string    `json:"object_id"`
	DistanceMeters float64   `json:"distance_m"`
	BearingDeg     float64   `json:"bearing_deg"`
	Severity       string    `json:"severity"`
	SectorSeverity string    `json:"sector_severity"`
	Timestamp      time.Time `json:"timestamp"`
}
