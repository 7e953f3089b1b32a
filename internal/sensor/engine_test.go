package sensor

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sawitsmart/backend/internal/domain"
	"github.com/sawitsmart/backend/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	calls      int
	detections []domain.Detection
	severity   domain.Severity
}

func (r *recordingSink) OnDetections(d []domain.Detection, s domain.Severity) {
	r.calls++
	r.detections = d
	r.severity = s
}

func origin(heading float64) *domain.Pose {
	return &domain.Pose{Point: geo.Point{}, HeadingDeg: heading}
}

func objectAt(id string, from geo.Point, bearing, distance float64) domain.TrackedObject {
	return domain.TrackedObject{ID: id, Position: geo.Destination(from, bearing, distance)}
}

func newEngine(t *testing.T, cfg Config) (*Engine, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	e, err := NewEngine(cfg, sink)
	require.NoError(t, err)
	return e, sink
}

func TestEvaluate_DangerAhead(t *testing.T) {
	e, sink := newEngine(t, DefaultConfig())

	res := e.Evaluate(origin(0), []domain.TrackedObject{objectAt("PLT-001", geo.Point{}, 0, 10)})

	require.Len(t, res.Detections, 1)
	d := res.Detections[0]
	assert.Equal(t, "PLT-001", d.ID)
	assert.InDelta(t, 10, d.DistanceMeters, 1e-6)
	assert.InDelta(t, 0, d.AngleDiffDeg, 1e-6)
	assert.Equal(t, domain.SeverityDanger, d.Severity)
	assert.Equal(t, domain.SeverityDanger, res.Severity)
	assert.False(t, res.Inert)

	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, domain.SeverityDanger, sink.severity)
	assert.Equal(t, res.Detections, sink.detections)
}

func TestEvaluate_OutsideFOVExcludedAtAnyRange(t *testing.T) {
	e, _ := newEngine(t, DefaultConfig())

	for _, dist := range []float64{1, 10, 50, 99} {
		res := e.Evaluate(origin(0), []domain.TrackedObject{objectAt("side", geo.Point{}, 90, dist)})
		assert.Empty(t, res.Detections, "distance %v", dist)
		assert.Equal(t, domain.SeverityNormal, res.Severity)
	}
}

func TestEvaluate_EmptyObjectsStillCallsSink(t *testing.T) {
	e, sink := newEngine(t, DefaultConfig())

	res := e.Evaluate(origin(45), nil)

	assert.NotNil(t, res.Detections)
	assert.Empty(t, res.Detections)
	assert.Equal(t, domain.SeverityNormal, res.Severity)
	assert.Equal(t, 1, sink.calls)
	assert.NotNil(t, sink.detections)
	assert.Empty(t, sink.detections)
	assert.Equal(t, domain.SeverityNormal, sink.severity)
}

func TestEvaluate_MissingPoseIsInert(t *testing.T) {
	e, sink := newEngine(t, DefaultConfig())

	res := e.Evaluate(nil, []domain.TrackedObject{objectAt("PLT-001", geo.Point{}, 0, 10)})

	assert.True(t, res.Inert)
	assert.Nil(t, res.Sector)
	assert.Empty(t, res.Detections)
	assert.Equal(t, domain.SeverityNormal, res.Severity)
	assert.Equal(t, 0, sink.calls)
}

func TestEvaluate_InclusiveBoundaries(t *testing.T) {
	agent := geo.Point{Lat: 1.8243, Lng: 102.3442}
	heading := 10.0
	obj := objectAt("edge", agent, heading+50, 80)

	dist := geo.Distance(agent, obj.Position)
	diff := math.Abs(geo.AngleDelta(geo.Bearing(agent, obj.Position), heading))
	pose := &domain.Pose{Point: agent, HeadingDeg: heading}

	edge := Config{FOVDeg: 2 * diff, MaxRange: dist, WarnRange: 40, DangerRange: 15}
	e, _ := newEngine(t, edge)
	res := e.Evaluate(pose, []domain.TrackedObject{obj})
	require.Len(t, res.Detections, 1, "object exactly on both bounds must be included")
	assert.Equal(t, domain.SeverityNormal, res.Severity)

	shortRange := edge
	shortRange.MaxRange = math.Nextafter(dist, 0)
	e, _ = newEngine(t, shortRange)
	assert.Empty(t, e.Evaluate(pose, []domain.TrackedObject{obj}).Detections)

	narrow := edge
	narrow.FOVDeg = 2 * math.Nextafter(diff, 0)
	e, _ = newEngine(t, narrow)
	assert.Empty(t, e.Evaluate(pose, []domain.TrackedObject{obj}).Detections)
}

func TestEvaluate_WrapAroundHeading(t *testing.T) {
	e, _ := newEngine(t, DefaultConfig())
	pose := origin(350)

	objects := []domain.TrackedObject{
		objectAt("east-of-north", geo.Point{}, 20, 30),
		objectAt("west", geo.Point{}, 320, 30),
		objectAt("behind", geo.Point{}, 170, 30),
	}
	res := e.Evaluate(pose, objects)

	ids := make([]string, 0, len(res.Detections))
	for _, d := range res.Detections {
		ids = append(ids, d.ID)
	}
	assert.ElementsMatch(t, []string{"east-of-north", "west"}, ids)
	for _, d := range res.Detections {
		assert.LessOrEqual(t, d.AngleDiffDeg, 60.0)
		assert.InDelta(t, 30, d.AngleDiffDeg, 1e-6)
	}
}

func TestEvaluate_SortedAndStable(t *testing.T) {
	e, _ := newEngine(t, DefaultConfig())
	same := geo.Destination(geo.Point{}, 5, 25)

	objects := []domain.TrackedObject{
		objectAt("far", geo.Point{}, 0, 90),
		{ID: "tie-a", Position: same},
		objectAt("near", geo.Point{}, -10, 5),
		{ID: "tie-b", Position: same},
		objectAt("mid", geo.Point{}, 30, 45),
		{ID: "tie-c", Position: same},
	}
	res := e.Evaluate(origin(0), objects)

	got := make([]string, 0, len(res.Detections))
	for _, d := range res.Detections {
		got = append(got, d.ID)
	}
	assert.Equal(t, []string{"near", "tie-a", "tie-b", "tie-c", "mid", "far"}, got)
}

func TestEvaluate_NearestDrivesSectorSeverity(t *testing.T) {
	e, _ := newEngine(t, DefaultConfig())

	tests := []struct {
		name      string
		distances []float64
		want      domain.Severity
	}{
		{"danger nearest", []float64{80, 12, 30}, domain.SeverityDanger},
		{"warn nearest", []float64{90, 35, 60}, domain.SeverityWarn},
		{"normal nearest", []float64{99, 70, 41}, domain.SeverityNormal},
		{"just inside danger range", []float64{14.999}, domain.SeverityDanger},
		{"just inside warn range", []float64{39.999}, domain.SeverityWarn},
		{"just past warn range", []float64{40.001}, domain.SeverityNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := make([]domain.TrackedObject, 0, len(tt.distances))
			for i, d := range tt.distances {
				objects = append(objects, domain.TrackedObject{
					ID:       string(rune('a' + i)),
					Position: geo.Destination(geo.Point{}, 0, d),
				})
			}
			res := e.Evaluate(origin(0), objects)
			assert.Equal(t, tt.want, res.Severity)
		})
	}
}

func TestEvaluate_PerObjectSeverityIndependentOfNearest(t *testing.T) {
	e, _ := newEngine(t, DefaultConfig())
	objects := []domain.TrackedObject{
		objectAt("danger", geo.Point{}, 0, 10),
		objectAt("warn", geo.Point{}, 10, 30),
		objectAt("normal", geo.Point{}, -10, 70),
	}
	res := e.Evaluate(origin(0), objects)

	require.Len(t, res.Detections, 3)
	assert.Equal(t, domain.SeverityDanger, res.Detections[0].Severity)
	assert.Equal(t, domain.SeverityWarn, res.Detections[1].Severity)
	assert.Equal(t, domain.SeverityNormal, res.Detections[2].Severity)
}

func TestSector_Shape(t *testing.T) {
	e, _ := newEngine(t, DefaultConfig())
	pose := domain.Pose{Point: geo.Point{Lat: 1.8243, Lng: 102.3442}, HeadingDeg: 30}

	poly := e.Sector(pose)

	// 120° wedge sampled every 4° from -60 to +60 inclusive, plus the apex twice.
	require.Len(t, poly, 31+2)
	assert.Equal(t, pose.Point, poly[0])
	assert.Equal(t, pose.Point, poly[len(poly)-1])

	for i, p := range poly[1 : len(poly)-1] {
		assert.InDelta(t, 100, geo.Distance(pose.Point, p), 1e-6)
		want := geo.NormalizeBearing(30 - 60 + float64(i)*SectorStepDeg)
		assert.InDelta(t, 0, geo.AngleDelta(geo.Bearing(pose.Point, p), want), 1e-6)
	}
}

func TestSector_OddFOVStopsInsideWedge(t *testing.T) {
	e, _ := newEngine(t, Config{FOVDeg: 90, MaxRange: 50, WarnRange: 30, DangerRange: 10})
	poly := e.Sector(domain.Pose{HeadingDeg: 0})

	// -45, -41, ..., 43
	require.Len(t, poly, 23+2)
	last := poly[len(poly)-2]
	assert.InDelta(t, 43, geo.Bearing(geo.Point{}, last), 1e-6)
}

func TestSector_AcrossAntimeridian(t *testing.T) {
	e, _ := newEngine(t, DefaultConfig())
	poly := e.Sector(domain.Pose{Point: geo.Point{Lat: 0, Lng: 179.9995}, HeadingDeg: 90})

	for _, p := range poly {
		assert.Greater(t, p.Lng, -180.0)
		assert.LessOrEqual(t, p.Lng, 180.0)
	}
}

func TestEvaluate_ResultConsistent(t *testing.T) {
	e, _ := newEngine(t, DefaultConfig())
	pose := origin(0)
	objects := []domain.TrackedObject{objectAt("PLT-002", geo.Point{}, 20, 33)}

	first := e.Evaluate(pose, objects)
	second := e.Evaluate(pose, objects)

	if diff := cmp.Diff(first, second, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("repeat evaluation differs (-first +second):\n%s", diff)
	}
	assert.Equal(t, e.Sector(*pose), first.Sector)
}

func TestMultiSink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	e, err := NewEngine(DefaultConfig(), MultiSink(a, nil, b))
	require.NoError(t, err)

	e.Evaluate(origin(0), nil)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestNewEngine_NilSink(t *testing.T) {
	e, err := NewEngine(DefaultConfig(), nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() { e.Evaluate(origin(0), nil) })
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	valid := []Config{
		{FOVDeg: 360, MaxRange: 10, WarnRange: 10, DangerRange: 5},
		{FOVDeg: 0.5, MaxRange: 1000, WarnRange: 2, DangerRange: 1},
	}
	for _, c := range valid {
		assert.NoError(t, c.Validate(), "%+v", c)
	}

	invalid := []Config{
		{FOVDeg: 0, MaxRange: 100, WarnRange: 40, DangerRange: 15},
		{FOVDeg: 361, MaxRange: 100, WarnRange: 40, DangerRange: 15},
		{FOVDeg: 120, MaxRange: 100, WarnRange: 40, DangerRange: 40},
		{FOVDeg: 120, MaxRange: 100, WarnRange: 40, DangerRange: 50},
		{FOVDeg: 120, MaxRange: 30, WarnRange: 40, DangerRange: 15},
		{FOVDeg: 120, MaxRange: 100, WarnRange: 40, DangerRange: 0},
		{FOVDeg: math.NaN(), MaxRange: 100, WarnRange: 40, DangerRange: 15},
	}
	for _, c := range invalid {
		err := c.Validate()
		require.Error(t, err, "%+v", c)
		assert.True(t, errors.Is(err, ErrInvalidConfiguration))

		_, err = NewEngine(c, nil)
		assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	}
}

func TestConfigValidate_NamesFirstNonFiniteField(t *testing.T) {
	c := Config{FOVDeg: math.NaN(), MaxRange: math.Inf(1), WarnRange: math.NaN(), DangerRange: math.Inf(-1)}
	for i := 0; i < 50; i++ {
		err := c.Validate()
		require.ErrorIs(t, err, ErrInvalidConfiguration)
		assert.Contains(t, err.Error(), "fov_deg is not finite")
	}

	c = Config{FOVDeg: 120, MaxRange: 100, WarnRange: math.NaN(), DangerRange: math.NaN()}
	for i := 0; i < 50; i++ {
		assert.Contains(t, c.Validate().Error(), "warn_range is not finite")
	}
}

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(120, 100, 40, 15)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = NewConfig(120, 100, 10, 15)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
