package service

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/sawitsmart/backend/internal/domain"
	"github.com/sawitsmart/backend/internal/repository/postgres"
	"github.com/sawitsmart/backend/internal/sensor"
	"github.com/sawitsmart/backend/pkg/geo"
	"github.com/stretchr/testify/require"
)

type published struct {
	msgType string
	payload any
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []published
}

func (p *recordingPublisher) Publish(msgType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, published{msgType: msgType, payload: payload})
	return nil
}

func (p *recordingPublisher) count(msgType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, m := range p.messages {
		if m.msgType == msgType {
			n++
		}
	}
	return n
}

type statusCounter struct {
	mu     sync.Mutex
	counts map[domain.HealthStatus]int
}

func (c *statusCounter) ObserveReading(status domain.HealthStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[domain.HealthStatus]int{}
	}
	c.counts[status]++
}

var testStart = geo.Point{Lat: 1.8243, Lng: 102.3442}

type fixture struct {
	plots     *PlotService
	robot     *RobotService
	scans     *ScanService
	repo      *postgres.MockRepository
	publisher *recordingPublisher
	sink      *sinkRecorder
}

type sinkRecorder struct {
	mu    sync.Mutex
	calls int
}

func (s *sinkRecorder) OnDetections([]domain.Detection, domain.Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
}

func (s *sinkRecorder) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// newFixture wires the services with a 360° sensor that reaches the outer ring.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg, err := sensor.NewConfig(360, 130, 40, 15)
	require.NoError(t, err)

	f := &fixture{
		repo:      postgres.NewMockRepository(),
		publisher: &recordingPublisher{},
		sink:      &sinkRecorder{},
	}
	f.plots = NewPlotService(DefaultSites, rand.New(rand.NewSource(1)), nil)
	f.robot = NewRobotService("SawITSmart", testStart, rand.New(rand.NewSource(2)))
	engine, err := sensor.NewEngine(cfg, f.sink)
	require.NoError(t, err)
	f.scans = NewScanService(f.plots, f.robot, engine, f.repo, f.publisher, nil)
	return f
}
