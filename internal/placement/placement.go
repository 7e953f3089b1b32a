// Package placement pins simulated objects at stable positions around a
// reference point. The same identifier and ring always produce the same
// offset, so an object keeps its place relative to the moving robot between
// ticks.
//
// Offsets are converted to degrees with a local equirectangular
// approximation (111320 m per degree of latitude). That is accurate for the
// tens to low hundreds of meters the rings span and is not meant for larger
// distances. Near the poles a northward or southward offset is clamped to
// the pole instead of wrapping over it.
package placement

import (
	"math"

	"github.com/sawitsmart/backend/internal/domain"
	"github.com/sawitsmart/backend/pkg/geo"
	"github.com/sawitsmart/backend/pkg/utils"
)

const (
	fnvOffset32 uint32 = 0x811c9dc5
	fnvPrime32  uint32 = 16777619

	// radiusSalt decorrelates the radius draw from the angle draw.
	radiusSalt uint32 = 0x9e3779b9

	metersPerDegree = 111320.0
)

// Seed hashes id with 32-bit FNV-1a.
func Seed(id string) uint32 {
	h := fnvOffset32
	for i := 0; i < len(id); i++ {
		h ^= uint32(id[i])
		h *= fnvPrime32
	}
	return h
}

// Rand01 mixes seed into a value in [0,1). It is a single mulberry32 step.
func Rand01(seed uint32) float64 {
	x := seed + 0x6D2B79F5
	x = (x ^ (x >> 15)) * (x | 1)
	x ^= x + (x^(x>>7))*(x|61)
	return float64(x^(x>>14)) / 4294967296.0
}

// Offset is a polar offset from the reference point. AngleRad is measured
// counterclockwise from east.
type Offset struct {
	AngleRad float64
	RadiusM  float64
}

// AngleDeg returns the offset angle in degrees, in [0,360).
func (o Offset) AngleDeg() float64 {
	return o.AngleRad * 180 / math.Pi
}

// OffsetFor returns the deterministic polar offset for id inside ring.
func OffsetFor(id string, ring domain.Ring) Offset {
	seed := Seed(id)
	return Offset{
		AngleRad: Rand01(seed) * 2 * math.Pi,
		RadiusM:  utils.Lerp(ring.RMin, ring.RMax, Rand01(seed^radiusSalt)),
	}
}

// MetersToDegrees converts a local east/north offset at latDeg into lat/lng deltas.
func MetersToDegrees(latDeg, dx, dy float64) (dLat, dLng float64) {
	latRad := latDeg * math.Pi / 180
	dLat = dy / metersPerDegree
	dLng = dx / (metersPerDegree * math.Cos(latRad))
	return dLat, dLng
}

// Place returns the position of id around ref for the given ring.
func Place(ref geo.Point, id string, ring domain.Ring) geo.Point {
	off := OffsetFor(id, ring)
	dx := math.Cos(off.AngleRad) * off.RadiusM
	dy := math.Sin(off.AngleRad) * off.RadiusM

	dLat, dLng := MetersToDegrees(ref.Lat, dx, dy)
	return geo.Point{
		Lat: utils.Clamp(ref.Lat+dLat, -90, 90),
		Lng: geo.NormalizeLng(ref.Lng + dLng),
	}
}
