package service

import (
	"context"
	"sync"
	"time"

	"github.com/sawitsmart/backend/internal/domain"
	"github.com/sawitsmart/backend/internal/hub"
	"github.com/sawitsmart/backend/internal/log"
)

// Simulator drives the demo: it walks the robot, scans after every move and
// emits soil telemetry on a slower cadence.
type Simulator struct {
	plots     *PlotService
	robot     *RobotService
	scans     *ScanService
	repo      DataRepository
	publisher Publisher

	robotTick     time.Duration
	telemetryTick time.Duration

	wgBg sync.WaitGroup
}

// NewSimulator creates a simulator. publisher may be nil.
func NewSimulator(
	plots *PlotService,
	robot *RobotService,
	scans *ScanService,
	repo DataRepository,
	publisher Publisher,
	robotTick, telemetryTick time.Duration,
) *Simulator {
	return &Simulator{
		plots:         plots,
		robot:         robot,
		scans:         scans,
		repo:          repo,
		publisher:     publisher,
		robotTick:     robotTick,
		telemetryTick: telemetryTick,
	}
}

// Run seeds every plot and then ticks until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) {
	for _, r := range s.plots.SeedAll(time.Now()) {
		s.persist(ctx, r)
	}
	s.StepRobot(ctx, time.Now())

	robotTicker := time.NewTicker(s.robotTick)
	defer robotTicker.Stop()
	telemetryTicker := time.NewTicker(s.telemetryTick)
	defer telemetryTicker.Stop()

	log.Info("simulator started", "robot_tick", s.robotTick, "telemetry_tick", s.telemetryTick)
	for {
		select {
		case <-ctx.Done():
			log.Info("simulator stopped")
			return
		case now := <-robotTicker.C:
			s.StepRobot(ctx, now)
		case now := <-telemetryTicker.C:
			s.StepTelemetry(ctx, now)
		}
	}
}

// StepRobot moves the robot once, publishes its position and scans.
func (s *Simulator) StepRobot(ctx context.Context, now time.Time) domain.Scan {
	s.robot.Step(now)
	if fix, ok := s.robot.Fix(); ok {
		s.publish(hub.TypeRobotPosition, fix)
	}
	return s.scans.Scan(ctx)
}

// StepTelemetry updates one plot, persists and publishes the reading.
func (s *Simulator) StepTelemetry(ctx context.Context, now time.Time) (domain.SoilReading, bool) {
	r, ok := s.plots.Tick(now)
	if !ok {
		return r, false
	}
	s.persist(ctx, r)
	s.publish(hub.TypeUpdate, r)
	return r, true
}

// WaitBackground blocks until pending reading writes complete.
func (s *Simulator) WaitBackground() {
	s.wgBg.Wait()
}

func (s *Simulator) persist(ctx context.Context, r domain.SoilReading) {
	if s.repo == nil {
		return
	}
	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.repo.SaveReading(bgCtx, r); err != nil {
			log.Error("failed to save reading", "plot_id", r.PlotID, "error", err)
		}
	}()
}

func (s *Simulator) publish(msgType string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(msgType, payload); err != nil {
		log.Warn("failed to publish feed message", "type", msgType, "error", err)
	}
}
