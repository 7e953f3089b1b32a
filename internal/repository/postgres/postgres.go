package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sawitsmart/backend/internal/domain"
)

//go:embed schema.sql
var schema string

// historyLimit caps the rows returned by history queries.
const historyLimit = 500

// PostgresRepository implements domain.DataRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the tables when they do not exist yet
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to apply schema: %w", err)
	}
	return nil
}

// SaveReading persists a soil telemetry sample to PostgreSQL
func (r *PostgresRepository) SaveReading(ctx context.Context, reading domain.SoilReading) error {
	query := `
		INSERT INTO soil_readings (
			plot_id, lat, lng, ph, n, p, k, moisture, temperature,
			recommendation, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	recommendation := reading.Recommendation
	if recommendation == nil {
		recommendation = []string{}
	}

	_, err := r.pool.Exec(ctx, query,
		reading.PlotID, reading.Lat, reading.Lng, reading.PH, reading.N, reading.P, reading.K,
		reading.Moisture, reading.Temperature, recommendation, reading.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save soil reading: %w", err)
	}

	return nil
}

// SaveScan persists every detection of a scan in one batch
func (r *PostgresRepository) SaveScan(ctx context.Context, scan domain.Scan) error {
	if len(scan.Detections) == 0 {
		return nil
	}

	query := `
		INSERT INTO scan_detections (
			scan_id, object_id, distance_m, bearing_deg, severity,
			sector_severity, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, rec := range Records(scan) {
		batch.Queue(query,
			rec.ScanID, rec.ObjectID, rec.DistanceMeters, rec.BearingDeg, rec.Severity,
			rec.SectorSeverity, rec.Timestamp,
		)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres: failed to save scan %s: %w", scan.ID, err)
	}

	return nil
}

// GetHistoricalReadings retrieves soil telemetry history from PostgreSQL
func (r *PostgresRepository) GetHistoricalReadings(ctx context.Context, from, to time.Time) ([]domain.SoilReading, error) {
	query := `
		SELECT plot_id, lat, lng, ph, n, p, k, moisture, temperature,
			   recommendation, timestamp
		FROM soil_readings
		WHERE timestamp BETWEEN $1 AND $2
		ORDER BY timestamp DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, from, to, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query soil readings: %w", err)
	}
	defer rows.Close()

	var results []domain.SoilReading
	for rows.Next() {
		var s domain.SoilReading
		err := rows.Scan(
			&s.PlotID, &s.Lat, &s.Lng, &s.PH, &s.N, &s.P, &s.K, &s.Moisture, &s.Temperature,
			&s.Recommendation, &s.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan soil reading row: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read soil readings: %w", err)
	}

	return results, nil
}

// GetDetectionHistory retrieves persisted detections from PostgreSQL
func (r *PostgresRepository) GetDetectionHistory(ctx context.Context, from, to time.Time) ([]domain.DetectionRecord, error) {
	query := `
		SELECT scan_id, object_id, distance_m, bearing_deg, severity,
			   sector_severity, timestamp
		FROM scan_detections
		WHERE timestamp BETWEEN $1 AND $2
		ORDER BY timestamp DESC, distance_m ASC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, from, to, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query detections: %w", err)
	}
	defer rows.Close()

	var results []domain.DetectionRecord
	for rows.Next() {
		var d domain.DetectionRecord
		err := rows.Scan(
			&d.ScanID, &d.ObjectID, &d.DistanceMeters, &d.BearingDeg, &d.Severity,
			&d.SectorSeverity, &d.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan detection row: %w", err)
		}
		results = append(results, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read detections: %w", err)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

// Records flattens a scan into one row per detection
func Records(scan domain.Scan) []domain.DetectionRecord {
	records := make([]domain.DetectionRecord, 0, len(scan.Detections))
	for _, d := range scan.Detections {
		records = append(records, domain.DetectionRecord{
			ScanID:         scan.ID,
			ObjectID:       d.ID,
			DistanceMeters: d.DistanceMeters,
			BearingDeg:     d.BearingDeg,
			Severity:       d.Severity.String(),
			SectorSeverity: scan.Severity.String(),
			Timestamp:      scan.Timestamp,
		})
	}
	return records
}
