// Package geo provides spherical-Earth geodesy helpers. All public inputs and
// outputs are in degrees and meters; trigonometry runs in radians.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/sawitsmart/backend/pkg/utils"
)

// EarthRadiusM is the mean Earth radius in meters.
const EarthRadiusM = 6371000.0

// ErrInvalidCoordinate is returned when a point lies outside the geodetic domain.
var ErrInvalidCoordinate = errors.New("geo: invalid coordinate")

// Point is a geodetic position in degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Validate reports whether p is a finite coordinate with |lat| <= 90 and |lng| <= 180.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return fmt.Errorf("%w: non-finite value (%v, %v)", ErrInvalidCoordinate, p.Lat, p.Lng)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %f outside [-90, 90]", ErrInvalidCoordinate, p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: longitude %f outside [-180, 180]", ErrInvalidCoordinate, p.Lng)
	}
	return nil
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// Distance returns the haversine great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	deltaLat := toRad(b.Lat - a.Lat)
	deltaLng := toRad(b.Lng - a.Lng)

	s := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	if s > 1 {
		s = 1
	}

	return 2 * EarthRadiusM * math.Asin(math.Sqrt(s))
}

// Bearing returns the initial great-circle bearing from a to b in [0, 360).
// Coincident points have no direction; Bearing returns 0 for them.
func Bearing(a, b Point) float64 {
	if a == b {
		return 0
	}

	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	deltaLng := toRad(b.Lng - a.Lng)

	y := math.Sin(deltaLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(deltaLng)
	if x == 0 && y == 0 {
		return 0
	}

	return NormalizeBearing(toDeg(math.Atan2(y, x)))
}

// Destination projects from along bearingDeg for distanceM meters.
// The returned longitude is normalized to (-180, 180].
func Destination(from Point, bearingDeg, distanceM float64) Point {
	delta := distanceM / EarthRadiusM
	theta := toRad(bearingDeg)
	lat1 := toRad(from.Lat)
	lng1 := toRad(from.Lng)

	sinLat2 := math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta)
	lat2 := math.Asin(utils.Clamp(sinLat2, -1, 1))
	y := math.Sin(theta) * math.Sin(delta) * math.Cos(lat1)
	x := math.Cos(delta) - math.Sin(lat1)*sinLat2
	lng2 := lng1 + math.Atan2(y, x)

	return Point{Lat: toDeg(lat2), Lng: NormalizeLng(toDeg(lng2))}
}

// AngleDelta returns the signed minimal difference a-b in degrees, within
// [-180, 180]. AngleDelta(359, 1) is -2, not 358.
func AngleDelta(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d
}

// NormalizeBearing maps any angle to [0, 360).
func NormalizeBearing(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m < 0 {
		m += 360
	}
	if m >= 360 {
		m = 0
	}
	return m
}

// NormalizeLng maps any longitude to (-180, 180].
func NormalizeLng(deg float64) float64 {
	m := math.Mod(deg+180, 360)
	if m < 0 {
		m += 360
	}
	lng := m - 180
	if lng <= -180 {
		lng += 360
	}
	return lng
}
