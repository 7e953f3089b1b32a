package service

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/sawitsmart/backend/internal/domain"
	"github.com/sawitsmart/backend/internal/health"
	"github.com/sawitsmart/backend/pkg/geo"
	"github.com/sawitsmart/backend/pkg/utils"
	"gonum.org/v1/gonum/stat"
)

// PlotSite is a surveyed plot location.
type PlotSite struct {
	ID       string
	Position geo.Point
}

// DefaultSites are the demo plantation plots.
var DefaultSites = []PlotSite{
	{ID: "PLT-001", Position: geo.Point{Lat: 1.8243, Lng: 102.3442}},
	{ID: "PLT-002", Position: geo.Point{Lat: 1.8255, Lng: 102.3460}},
	{ID: "PLT-003", Position: geo.Point{Lat: 1.8230, Lng: 102.3455}},
	{ID: "PLT-004", Position: geo.Point{Lat: 1.8261, Lng: 102.3430}},
	{ID: "PLT-005", Position: geo.Point{Lat: 1.8219, Lng: 102.3421}},
}

// baselineReading seeds the random walk for a plot with no history.
var baselineReading = domain.SoilReading{PH: 6.5, N: 25, P: 15, K: 23, Moisture: 70, Temperature: 28}

// ReadingObserver is told about every ingested reading.
type ReadingObserver interface {
	ObserveReading(status domain.HealthStatus)
}

// PlotService owns the latest soil reading of every plot and generates
// random-walk telemetry for the demo.
type PlotService struct {
	mu       sync.RWMutex
	rng      *rand.Rand
	sites    []PlotSite
	readings map[string]*domain.SoilReading
	observer ReadingObserver
}

// NewPlotService creates a plot service. Plots start without data.
func NewPlotService(sites []PlotSite, rng *rand.Rand, observer ReadingObserver) *PlotService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &PlotService{
		rng:      rng,
		sites:    append([]PlotSite(nil), sites...),
		readings: make(map[string]*domain.SoilReading, len(sites)),
		observer: observer,
	}
}

// SeedAll generates a reading for every plot.
func (s *PlotService) SeedAll(now time.Time) []domain.SoilReading {
	out := make([]domain.SoilReading, 0, len(s.sites))
	for _, site := range s.sites {
		out = append(out, s.generate(site, now))
	}
	return out
}

// Tick updates one randomly chosen plot and returns its new reading.
func (s *PlotService) Tick(now time.Time) (domain.SoilReading, bool) {
	if len(s.sites) == 0 {
		return domain.SoilReading{}, false
	}
	s.mu.Lock()
	site := s.sites[s.rng.Intn(len(s.sites))]
	s.mu.Unlock()
	return s.generate(site, now), true
}

// generate walks the last reading of site and stores the result
func (s *PlotService) generate(site PlotSite, now time.Time) domain.SoilReading {
	s.mu.Lock()
	last := baselineReading
	if prev, ok := s.readings[site.ID]; ok {
		last = *prev
	}

	next := domain.SoilReading{
		PlotID:      site.ID,
		Lat:         site.Position.Lat,
		Lng:         site.Position.Lng,
		PH:          utils.RoundTo(utils.Vary(last.PH, 0.2, s.rng.Float64()), 1),
		N:           int(math.Round(utils.Vary(float64(last.N), 4, s.rng.Float64()))),
		P:           int(math.Round(utils.Vary(float64(last.P), 3, s.rng.Float64()))),
		K:           int(math.Round(utils.Vary(float64(last.K), 4, s.rng.Float64()))),
		Moisture:    math.Round(utils.Vary(last.Moisture, 5, s.rng.Float64())),
		Temperature: utils.RoundTo(utils.Vary(last.Temperature, 1, s.rng.Float64()), 1),
		Timestamp:   now,
	}
	next.Recommendation = health.Recommend(next.N, next.P, next.K)
	s.readings[site.ID] = &next
	s.mu.Unlock()

	s.observe(&next)
	return next
}

// Ingest stores a reading that arrived from outside, replacing the plot's
// current one. Unknown plots are rejected.
func (s *PlotService) Ingest(r domain.SoilReading) (domain.SoilReading, error) {
	s.mu.Lock()
	site, ok := s.site(r.PlotID)
	if !ok {
		s.mu.Unlock()
		return domain.SoilReading{}, fmt.Errorf("plot: unknown plot %q", r.PlotID)
	}
	r.Lat, r.Lng = site.Position.Lat, site.Position.Lng
	if r.Recommendation == nil {
		r.Recommendation = health.Recommend(r.N, r.P, r.K)
	}
	stored := r
	s.readings[r.PlotID] = &stored
	s.mu.Unlock()

	s.observe(&stored)
	return stored, nil
}

func (s *PlotService) site(id string) (PlotSite, bool) {
	for _, site := range s.sites {
		if site.ID == id {
			return site, true
		}
	}
	return PlotSite{}, false
}

func (s *PlotService) observe(r *domain.SoilReading) {
	if s.observer != nil {
		s.observer.ObserveReading(health.Classify(r))
	}
}

// Snapshot returns every plot with its latest reading, status and ring, ordered by ID.
func (s *PlotService) Snapshot() []domain.Plot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plots := make([]domain.Plot, 0, len(s.sites))
	for _, site := range s.sites {
		var reading *domain.SoilReading
		if r, ok := s.readings[site.ID]; ok {
			cp := *r
			reading = &cp
		}
		status := health.Classify(reading)
		plots = append(plots, domain.Plot{
			ID:      site.ID,
			Reading: reading,
			Status:  status,
			Ring:    health.RingFor(status),
		})
	}
	sort.SliceStable(plots, func(i, j int) bool { return plots[i].ID < plots[j].ID })
	return plots
}

// Readings returns the latest reading of every plot that has one.
func (s *PlotService) Readings() []domain.SoilReading {
	plots := s.Snapshot()
	out := make([]domain.SoilReading, 0, len(plots))
	for _, p := range plots {
		if p.Reading != nil {
			out = append(out, *p.Reading)
		}
	}
	return out
}

// KPIs aggregates the latest readings. Averages are zero when nothing has reported.
func (s *PlotService) KPIs(now time.Time) domain.KPIs {
	plots := s.Snapshot()
	ph := make([]float64, 0, len(plots))
	moisture := make([]float64, 0, len(plots))
	critical := 0

	for _, p := range plots {
		if p.Status == domain.StatusCritical {
			critical++
		}
		if p.Reading == nil {
			continue
		}
		ph = append(ph, p.Reading.PH)
		moisture = append(moisture, p.Reading.Moisture)
	}

	kpis := domain.KPIs{
		PlotCount:     len(plots),
		CriticalCount: critical,
		Timestamp:     now,
	}
	if len(ph) > 0 {
		kpis.AveragePH = utils.RoundTo(stat.Mean(ph, nil), 2)
		kpis.AverageMoist = utils.RoundTo(stat.Mean(moisture, nil), 2)
	}
	return kpis
}
