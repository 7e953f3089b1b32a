package placement

import (
	"fmt"
	"hash/fnv"
	"math"
	"testing"

	"github.com/sawitsmart/backend/internal/domain"
	"github.com/sawitsmart/backend/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var robot = geo.Point{Lat: 0.3845999500559381, Lng: 115.77952148203585}

func TestSeed_MatchesFNV1a(t *testing.T) {
	assert.Equal(t, uint32(0x811c9dc5), Seed(""))
	assert.Equal(t, uint32(0xe40c292c), Seed("a"))

	for _, id := range []string{"PLT-001", "PLT-002", "RB-01", "SawITSmart", "a much longer identifier"} {
		h := fnv.New32a()
		_, err := h.Write([]byte(id))
		require.NoError(t, err)
		assert.Equal(t, h.Sum32(), Seed(id), "id %q", id)
	}
}

func TestSeed_Golden(t *testing.T) {
	assert.Equal(t, uint32(4033617021), Seed("PLT-001"))
}

func TestRand01_Golden(t *testing.T) {
	seed := Seed("PLT-001")
	assert.Equal(t, 0.004141790559515357, Rand01(seed))
	assert.Equal(t, 0.5842166573274881, Rand01(seed^radiusSalt))
}

func TestRand01_RangeAndSpread(t *testing.T) {
	var sum float64
	buckets := make([]int, 4)
	const n = 2000
	for i := 0; i < n; i++ {
		r := Rand01(Seed(fmt.Sprintf("PLT-%04d", i)))
		require.GreaterOrEqual(t, r, 0.0)
		require.Less(t, r, 1.0)
		sum += r
		buckets[int(r*4)]++
	}

	assert.InDelta(t, 0.5, sum/n, 0.05)
	for i, c := range buckets {
		assert.Greater(t, c, n/8, "bucket %d underpopulated", i)
	}
}

func TestRand01_AngleAndRadiusDrawsDiffer(t *testing.T) {
	seed := Seed("PLT-001")
	assert.NotEqual(t, Rand01(seed), Rand01(seed^radiusSalt))
}

func TestPlace_Deterministic(t *testing.T) {
	a := Place(robot, "PLT-001", domain.RingMiddle)
	b := Place(robot, "PLT-001", domain.RingMiddle)
	assert.Equal(t, math.Float64bits(a.Lat), math.Float64bits(b.Lat))
	assert.Equal(t, math.Float64bits(a.Lng), math.Float64bits(b.Lng))
}

func TestPlace_RingChangesPosition(t *testing.T) {
	inner := Place(robot, "PLT-001", domain.RingInner)
	middle := Place(robot, "PLT-001", domain.RingMiddle)
	outer := Place(robot, "PLT-001", domain.RingOuter)

	assert.NotEqual(t, inner, middle)
	assert.NotEqual(t, middle, outer)
	assert.NotEqual(t, inner, outer)
}

func TestPlace_SameBearingAcrossRings(t *testing.T) {
	inner := Place(robot, "PLT-003", domain.RingInner)
	outer := Place(robot, "PLT-003", domain.RingOuter)
	assert.InDelta(t, geo.Bearing(robot, inner), geo.Bearing(robot, outer), 0.5)
}

func TestPlace_WithinRing(t *testing.T) {
	rings := []domain.Ring{domain.RingInner, domain.RingMiddle, domain.RingOuter}
	refs := []geo.Point{robot, {Lat: 1.8243, Lng: 102.3442}, {Lat: 45, Lng: -73}}

	for _, ref := range refs {
		for _, ring := range rings {
			for i := 1; i <= 25; i++ {
				id := fmt.Sprintf("PLT-%03d", i)
				off := OffsetFor(id, ring)
				require.GreaterOrEqual(t, off.RadiusM, ring.RMin)
				require.Less(t, off.RadiusM, ring.RMax)
				require.GreaterOrEqual(t, off.AngleDeg(), 0.0)
				require.Less(t, off.AngleDeg(), 360.0)

				d := geo.Distance(ref, Place(ref, id, ring))
				// local flat approximation vs haversine
				assert.InDelta(t, off.RadiusM, d, off.RadiusM*0.005, "id %s ring %s ref %+v", id, ring.Name, ref)
			}
		}
	}
}

func TestPlace_DifferentIDsSpread(t *testing.T) {
	seen := make(map[geo.Point]bool)
	for i := 1; i <= 50; i++ {
		p := Place(robot, fmt.Sprintf("PLT-%03d", i), domain.RingOuter)
		assert.False(t, seen[p])
		seen[p] = true
	}
}

func TestPlace_ClampsAtThePoles(t *testing.T) {
	for _, ref := range []geo.Point{{Lat: 89.99999, Lng: 10}, {Lat: -89.99999, Lng: 10}, {Lat: 90}, {Lat: -90}} {
		for i := 1; i <= 20; i++ {
			id := fmt.Sprintf("PLT-%03d", i)
			p := Place(ref, id, domain.RingOuter)
			assert.LessOrEqual(t, p.Lat, 90.0, id)
			assert.GreaterOrEqual(t, p.Lat, -90.0, id)
			assert.NoError(t, p.Validate(), id)
		}
	}

	p := Place(geo.Point{Lat: 89.99999}, "PLT-001", domain.RingOuter)
	assert.Equal(t, 90.0, p.Lat)
}

func TestMetersToDegrees(t *testing.T) {
	dLat, dLng := MetersToDegrees(0, 111320, 111320)
	assert.InDelta(t, 1.0, dLat, 1e-12)
	assert.InDelta(t, 1.0, dLng, 1e-12)

	_, dLng = MetersToDegrees(60, 111320, 0)
	assert.InDelta(t, 2.0, dLng, 1e-9)
}
