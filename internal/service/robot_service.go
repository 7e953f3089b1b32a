package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/sawitsmart/backend/internal/domain"
	"github.com/sawitsmart/backend/pkg/geo"
)

// walkStepDeg bounds the simulated robot's per-tick movement in each axis.
const walkStepDeg = 0.0003

// RobotService tracks the robot pose. Heading is derived from consecutive
// fixes because the telemetry channel only reports position.
type RobotService struct {
	mu    sync.RWMutex
	id    string
	start geo.Point
	rng   *rand.Rand
	pose  *domain.Pose
}

// NewRobotService creates a tracker. There is no pose until the first fix.
func NewRobotService(id string, start geo.Point, rng *rand.Rand) *RobotService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RobotService{id: id, start: start, rng: rng}
}

// ID returns the robot identifier.
func (s *RobotService) ID() string {
	return s.id
}

// Pose returns a copy of the latest pose, or nil before the first fix.
func (s *RobotService) Pose() *domain.Pose {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pose == nil {
		return nil
	}
	p := *s.pose
	return &p
}

// Update applies a position fix. The first fix faces north; later fixes face
// along the bearing from the previous position. A fix that does not move
// keeps the previous heading.
func (s *RobotService) Update(fix domain.RobotFix) domain.Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(geo.Point{Lat: fix.Lat, Lng: fix.Lng}, fix.Timestamp)
}

func (s *RobotService) apply(next geo.Point, ts time.Time) domain.Pose {
	heading := 0.0
	if s.pose != nil {
		heading = s.pose.HeadingDeg
		if s.pose.Point != next {
			heading = geo.Bearing(s.pose.Point, next)
		}
	}
	s.pose = &domain.Pose{Point: next, HeadingDeg: heading, Timestamp: ts}
	return *s.pose
}

// Step advances the simulated random walk by one tick. The first step
// reports the start position.
func (s *RobotService) Step(now time.Time) domain.Pose {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pose == nil {
		return s.apply(s.start, now)
	}
	next := geo.Point{
		Lat: s.pose.Lat + (s.rng.Float64()-0.5)*walkStepDeg,
		Lng: geo.NormalizeLng(s.pose.Lng + (s.rng.Float64()-0.5)*walkStepDeg),
	}
	return s.apply(next, now)
}

// Fix returns the current pose as a telemetry fix.
func (s *RobotService) Fix() (domain.RobotFix, bool) {
	p := s.Pose()
	if p == nil {
		return domain.RobotFix{}, false
	}
	return domain.RobotFix{ID: s.id, Lat: p.Lat, Lng: p.Lng, Timestamp: p.Timestamp}, true
}
