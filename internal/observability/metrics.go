// Package observability exposes Prometheus metrics for the sensor pipeline.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sawitsmart/backend/internal/domain"
)

// SensorMetrics bundles the pipeline metrics. It is a sensor.DetectionSink.
type SensorMetrics struct {
	gatherer prometheus.Gatherer

	Evaluations     prometheus.Counter
	SectorSeverity  *prometheus.CounterVec
	Detections      prometheus.Gauge
	NearestDistance prometheus.Gauge
	ScanDuration    prometheus.Histogram
	Readings        *prometheus.CounterVec
	FeedClients     prometheus.Gauge
}

// NewSensorMetrics registers the metrics against reg, defaulting to the
// global Prometheus registry when nil. Registering twice reuses the
// existing collectors.
func NewSensorMetrics(reg prometheus.Registerer) (*SensorMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	evaluations, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sensor_evaluations_total",
		Help: "Total number of forward sensor evaluations delivered to sinks.",
	}), "sensor_evaluations_total")
	if err != nil {
		return nil, err
	}

	severity, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sensor_sector_severity_total",
		Help: "Evaluations by sector severity band.",
	}, []string{"severity"}), "sensor_sector_severity_total")
	if err != nil {
		return nil, err
	}

	detections, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sensor_detections",
		Help: "Number of objects inside the sector at the last evaluation.",
	}), "sensor_detections")
	if err != nil {
		return nil, err
	}

	nearest, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sensor_nearest_distance_meters",
		Help: "Distance to the nearest detection at the last evaluation, -1 when nothing was detected.",
	}), "sensor_nearest_distance_meters")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scan_duration_seconds",
		Help:    "Time to place plots and evaluate the sensor for one scan.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}), "scan_duration_seconds")
	if err != nil {
		return nil, err
	}

	readings, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_readings_total",
		Help: "Soil readings ingested, labeled by resulting health status.",
	}, []string{"status"}), "telemetry_readings_total")
	if err != nil {
		return nil, err
	}

	clients, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "feed_clients",
		Help: "Connected live feed websocket clients.",
	}), "feed_clients")
	if err != nil {
		return nil, err
	}

	return &SensorMetrics{
		gatherer:        gatherer,
		Evaluations:     evaluations,
		SectorSeverity:  severity,
		Detections:      detections,
		NearestDistance: nearest,
		ScanDuration:    duration,
		Readings:        readings,
		FeedClients:     clients,
	}, nil
}

// OnDetections records one evaluation.
func (m *SensorMetrics) OnDetections(detections []domain.Detection, severity domain.Severity) {
	if m == nil {
		return
	}
	m.Evaluations.Inc()
	m.SectorSeverity.WithLabelValues(severity.String()).Inc()
	m.Detections.Set(float64(len(detections)))
	if len(detections) == 0 {
		m.NearestDistance.Set(-1)
		return
	}
	m.NearestDistance.Set(detections[0].DistanceMeters)
}

// ObserveScan records the duration of one scan.
func (m *SensorMetrics) ObserveScan(d time.Duration) {
	if m == nil {
		return
	}
	m.ScanDuration.Observe(d.Seconds())
}

// ObserveReading counts an ingested reading.
func (m *SensorMetrics) ObserveReading(status domain.HealthStatus) {
	if m == nil {
		return
	}
	m.Readings.WithLabelValues(string(status)).Inc()
}

// SetFeedClients reports the live feed client count.
func (m *SensorMetrics) SetFeedClients(n int) {
	if m == nil {
		return
	}
	m.FeedClients.Set(float64(n))
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *SensorMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}
