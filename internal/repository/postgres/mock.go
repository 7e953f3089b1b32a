package postgres

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sawitsmart/backend/internal/domain"
)

// MockRepository implements domain.DataRepository in memory for testing/demo mode
type MockRepository struct {
	mu         sync.RWMutex
	readings   []domain.SoilReading
	detections []domain.DetectionRecord
}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// SaveReading keeps the reading in memory
func (r *MockRepository) SaveReading(ctx context.Context, reading domain.SoilReading) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings = append(r.readings, reading)
	return nil
}

// SaveScan keeps the scan's detections in memory
func (r *MockRepository) SaveScan(ctx context.Context, scan domain.Scan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detections = append(r.detections, Records(scan)...)
	return nil
}

// GetHistoricalReadings returns stored readings in [from, to], newest first
func (r *MockRepository) GetHistoricalReadings(ctx context.Context, from, to time.Time) ([]domain.SoilReading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.SoilReading
	for _, s := range r.readings {
		if inRange(s.Timestamp, from, to) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return limit(out), nil
}

// GetDetectionHistory returns stored detections in [from, to], newest first
func (r *MockRepository) GetDetectionHistory(ctx context.Context, from, to time.Time) ([]domain.DetectionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.DetectionRecord
	for _, d := range r.detections {
		if inRange(d.Timestamp, from, to) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return limit(out), nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}

func inRange(ts, from, to time.Time) bool {
	return !ts.Before(from) && !ts.After(to)
}

func limit[T any](rows []T) []T {
	if len(rows) > historyLimit {
		return rows[:historyLimit]
	}
	return rows
}
