package sensor

import "github.com/sawitsmart/backend/internal/domain"

// DetectionSink receives the complete ranked detection list once per
// evaluation, including empty lists. Each call replaces the previous one.
type DetectionSink interface {
	OnDetections(detections []domain.Detection, severity domain.Severity)
}

// SinkFunc adapts a function to DetectionSink.
type SinkFunc func(detections []domain.Detection, severity domain.Severity)

// OnDetections calls f.
func (f SinkFunc) OnDetections(detections []domain.Detection, severity domain.Severity) {
	f(detections, severity)
}

// MultiSink fans one evaluation out to several sinks in order. Nil entries are skipped.
func MultiSink(sinks ...DetectionSink) DetectionSink {
	return SinkFunc(func(detections []domain.Detection, severity domain.Severity) {
		for _, s := range sinks {
			if s != nil {
				s.OnDetections(detections, severity)
			}
		}
	})
}

// Discard drops every evaluation.
var Discard DetectionSink = SinkFunc(func([]domain.Detection, domain.Severity) {})
