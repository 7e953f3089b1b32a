// Package sensor simulates a forward-facing ranging sensor mounted on the
// robot. Every evaluation is computed from scratch from one pose and one
// object snapshot; nothing is carried over between evaluations.
package sensor

import (
	"math"
	"sort"

	"github.com/sawitsmart/backend/internal/domain"
	"github.com/sawitsmart/backend/pkg/geo"
)

// SectorStepDeg is the bearing spacing of the sector polygon's arc.
const SectorStepDeg = 4.0

// Result is the output of one evaluation. Sector, Detections and Severity
// always come from the same pose and object snapshot.
type Result struct {
	Sector     []geo.Point        `json:"sector"`
	Detections []domain.Detection `json:"detections"`
	Severity   domain.Severity    `json:"severity"`
	// Inert is set when there was no pose to evaluate.
	Inert bool `json:"inert"`
}

// Engine evaluates poses against tracked objects. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	cfg  Config
	sink DetectionSink
}

// NewEngine validates cfg and returns an engine reporting to sink.
// A nil sink discards results.
func NewEngine(cfg Config, sink DetectionSink) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = Discard
	}
	return &Engine{cfg: cfg, sink: sink}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Evaluate runs one sensor pass. With a nil pose the engine is inert: it
// returns an empty result and does not call the sink. Otherwise the sink is
// called exactly once with the ranked detections, even when there are none.
func (e *Engine) Evaluate(pose *domain.Pose, objects []domain.TrackedObject) Result {
	if pose == nil {
		return Result{Severity: domain.SeverityNormal, Inert: true}
	}

	detections := e.Detect(*pose, objects)
	res := Result{
		Sector:     e.Sector(*pose),
		Detections: detections,
		Severity:   e.SectorSeverity(detections),
	}

	e.sink.OnDetections(res.Detections, res.Severity)
	return res
}

// Sector returns the closed visibility wedge: the robot position, the arc
// sampled every SectorStepDeg at MaxRange, and the robot position again.
func (e *Engine) Sector(pose domain.Pose) []geo.Point {
	half := e.cfg.HalfFOV()
	steps := int(math.Floor(2*half/SectorStepDeg)) + 1

	pts := make([]geo.Point, 0, steps+2)
	pts = append(pts, pose.Point)
	for i := 0; i < steps; i++ {
		offset := -half + float64(i)*SectorStepDeg
		brg := geo.NormalizeBearing(pose.HeadingDeg + offset)
		pts = append(pts, geo.Destination(pose.Point, brg, e.cfg.MaxRange))
	}
	pts = append(pts, pose.Point)
	return pts
}

// Detect measures every object from pose, keeps those inside range and
// field of view (both bounds inclusive) and sorts them nearest first.
// Objects at equal distance keep their input order.
func (e *Engine) Detect(pose domain.Pose, objects []domain.TrackedObject) []domain.Detection {
	half := e.cfg.HalfFOV()
	detections := make([]domain.Detection, 0, len(objects))

	for _, o := range objects {
		d := geo.Distance(pose.Point, o.Position)
		brg := geo.Bearing(pose.Point, o.Position)
		diff := math.Abs(geo.AngleDelta(brg, pose.HeadingDeg))
		if d > e.cfg.MaxRange || diff > half {
			continue
		}
		detections = append(detections, domain.Detection{
			ID:             o.ID,
			Label:          o.Label,
			Position:       o.Position,
			DistanceMeters: d,
			BearingDeg:     brg,
			AngleDiffDeg:   diff,
			Severity:       e.Classify(d),
		})
	}

	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].DistanceMeters < detections[j].DistanceMeters
	})
	return detections
}

// Classify maps a distance onto a severity band.
func (e *Engine) Classify(distance float64) domain.Severity {
	switch {
	case distance <= e.cfg.DangerRange:
		return domain.SeverityDanger
	case distance <= e.cfg.WarnRange:
		return domain.SeverityWarn
	default:
		return domain.SeverityNormal
	}
}

// SectorSeverity is decided by the nearest detection alone.
func (e *Engine) SectorSeverity(ranked []domain.Detection) domain.Severity {
	if len(ranked) == 0 {
		return domain.SeverityNormal
	}
	return e.Classify(ranked[0].DistanceMeters)
}
