package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sawitsmart/backend/internal/domain"
	"github.com/sawitsmart/backend/internal/hub"
	"github.com/sawitsmart/backend/internal/log"
	"github.com/sawitsmart/backend/internal/placement"
	"github.com/sawitsmart/backend/internal/sensor"
	"github.com/sawitsmart/backend/pkg/geo"
)

// ScanObserver records scan timings.
type ScanObserver interface {
	ObserveScan(d time.Duration)
}

// ScanService places the plots around the robot and runs the forward
// sensor over them.
type ScanService struct {
	plots     *PlotService
	robot     *RobotService
	engine    *sensor.Engine
	repo      DataRepository
	publisher Publisher
	observer  ScanObserver

	mu   sync.RWMutex
	last *domain.Scan

	wgBg sync.WaitGroup // tracks background goroutines for graceful shutdown
}

// NewScanService creates a new scan service. publisher and observer may be nil.
func NewScanService(
	plots *PlotService,
	robot *RobotService,
	engine *sensor.Engine,
	repo DataRepository,
	publisher Publisher,
	observer ScanObserver,
) *ScanService {
	return &ScanService{
		plots:     plots,
		robot:     robot,
		engine:    engine,
		repo:      repo,
		publisher: publisher,
		observer:  observer,
	}
}

// WaitBackground blocks until all background save goroutines complete.
// Call during graceful shutdown to avoid dropped writes.
func (s *ScanService) WaitBackground() {
	s.wgBg.Wait()
}

// SensorConfig returns the configuration of the live engine.
func (s *ScanService) SensorConfig() sensor.Config {
	return s.engine.Config()
}

// Objects positions every plot on its status ring around ref.
func (s *ScanService) Objects(ref geo.Point) []domain.TrackedObject {
	plots := s.plots.Snapshot()
	objects := make([]domain.TrackedObject, 0, len(plots))
	for _, p := range plots {
		objects = append(objects, domain.TrackedObject{
			ID:       p.ID,
			Position: placement.Place(ref, p.ID, p.Ring),
			Label:    p.ID + " (" + string(p.Status) + ")",
		})
	}
	return objects
}

// Scan evaluates the current robot pose against the placed plots. Without a
// pose the scan is inert and is neither stored nor published. A scan whose
// pose is older than the latest scan's is persisted and returned but does
// not replace Latest and is not published.
func (s *ScanService) Scan(ctx context.Context) domain.Scan {
	start := time.Now()
	pose := s.robot.Pose()

	var objects []domain.TrackedObject
	if pose != nil {
		objects = s.Objects(pose.Point)
	}
	res := s.engine.Evaluate(pose, objects)

	scan := domain.Scan{
		ID:         uuid.New(),
		Robot:      pose,
		Sector:     res.Sector,
		Objects:    objects,
		Detections: res.Detections,
		Severity:   res.Severity,
		Inert:      res.Inert,
		Timestamp:  start,
	}
	if s.observer != nil {
		s.observer.ObserveScan(time.Since(start))
	}
	if scan.Inert {
		return scan
	}

	s.mu.Lock()
	if s.last != nil && pose.Timestamp.Before(s.last.Robot.Timestamp) {
		// A scan of a newer pose finished first; keep it as the latest.
		log.Debug("scan superseded by newer pose", "scan_id", scan.ID)
	} else {
		s.last = &scan
		s.publish(scan)
	}
	s.mu.Unlock()

	// Persist detections asynchronously (tracked for graceful shutdown)
	if len(scan.Detections) > 0 && s.repo != nil {
		s.wgBg.Add(1)
		go func() {
			defer s.wgBg.Done()
			bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := s.repo.SaveScan(bgCtx, scan); err != nil {
				log.Error("failed to save scan", "scan_id", scan.ID, "error", err)
			}
		}()
	}
	return scan
}

func (s *ScanService) publish(scan domain.Scan) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(hub.TypeScan, scan); err != nil {
		log.Warn("failed to publish scan", "scan_id", scan.ID, "error", err)
	}
}

// Latest returns the most recent non-inert scan.
func (s *ScanService) Latest() (domain.Scan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return domain.Scan{}, false
	}
	return *s.last, true
}

// Evaluate runs a one-off evaluation with its own configuration. When no
// objects are given the plots are placed around the pose. A nil pose yields
// an inert scan. The live engine's sinks are not notified.
func (s *ScanService) Evaluate(cfg sensor.Config, pose *domain.Pose, objects []domain.TrackedObject) (domain.Scan, error) {
	for _, o := range objects {
		if err := o.Position.Validate(); err != nil {
			return domain.Scan{}, err
		}
	}
	engine, err := sensor.NewEngine(cfg, nil)
	if err != nil {
		return domain.Scan{}, err
	}

	var robot *domain.Pose
	if pose != nil {
		if err := pose.Validate(); err != nil {
			return domain.Scan{}, err
		}
		if math.IsNaN(pose.HeadingDeg) || math.IsInf(pose.HeadingDeg, 0) {
			return domain.Scan{}, fmt.Errorf("%w: non-finite heading", geo.ErrInvalidCoordinate)
		}
		p := *pose
		p.HeadingDeg = geo.NormalizeBearing(p.HeadingDeg)
		robot = &p
		if objects == nil {
			objects = s.Objects(p.Point)
		}
	}

	res := engine.Evaluate(robot, objects)
	return domain.Scan{
		ID:         uuid.New(),
		Robot:      robot,
		Sector:     res.Sector,
		Objects:    objects,
		Detections: res.Detections,
		Severity:   res.Severity,
		Inert:      res.Inert,
		Timestamp:  time.Now(),
	}, nil
}

// AlertSink logs evaluations whose sector is in the danger band.
func AlertSink(robotID string) sensor.DetectionSink {
	logger := log.With("robot_id", robotID)
	return sensor.SinkFunc(func(detections []domain.Detection, severity domain.Severity) {
		if severity != domain.SeverityDanger || len(detections) == 0 {
			return
		}
		nearest := detections[0]
		logger.Warn("object in danger range",
			"object", nearest.DisplayName(),
			"distance_m", nearest.DistanceMeters,
			"bearing_deg", nearest.BearingDeg,
		)
	})
}
