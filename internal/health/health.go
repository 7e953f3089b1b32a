// Package health turns raw soil readings into a plot health status and maps
// that status onto a placement ring.
package health

import (
	"fmt"
	"math"

	"github.com/sawitsmart/backend/internal/domain"
	"github.com/sawitsmart/backend/pkg/utils"
)

// Soft thresholds. A reading violating any of them is critical.
const (
	PHMin       = 5.5
	PHMax       = 7.5
	MoistureMin = 40.0
)

// Nutrient target bands in ppm.
var (
	targetN = [2]int{120, 200}
	targetP = [2]int{20, 40}
	targetK = [2]int{100, 180}
)

// Score counts the violated soft thresholds.
func Score(r domain.SoilReading) int {
	score := 0
	if r.PH < PHMin || r.PH > PHMax {
		score++
	}
	if r.Moisture < MoistureMin {
		score++
	}
	return score
}

// Classify returns the health status of a reading. A nil reading has no data.
func Classify(r *domain.SoilReading) domain.HealthStatus {
	if r == nil {
		return domain.StatusNoData
	}
	if Score(*r) >= 1 {
		return domain.StatusCritical
	}
	return domain.StatusOptimal
}

// RingFor maps a status onto its placement ring. Critical plots are pinned
// closest to the robot; anything unrecognized is treated as no data.
func RingFor(status domain.HealthStatus) domain.Ring {
	switch status {
	case domain.StatusCritical:
		return domain.RingInner
	case domain.StatusOptimal:
		return domain.RingMiddle
	default:
		return domain.RingOuter
	}
}

// Recommend returns fertilizer advice for the given N, P and K levels.
// Doses are kilograms per tree.
func Recommend(n, p, k int) []string {
	var rec []string

	switch {
	case n < targetN[0]:
		dose := math.Max(0.5, utils.RoundTo(float64(targetN[0]-n)/10, 1))
		rec = append(rec, fmt.Sprintf("N low: apply ~%.1f kg Urea per tree", dose))
	case n > targetN[1]:
		rec = append(rec, "N high: postpone N-rich fertilizer, focus on P/K")
	}

	switch {
	case p < targetP[0]:
		dose := math.Max(0.2, utils.RoundTo(float64(targetP[0]-p)/5, 1))
		rec = append(rec, fmt.Sprintf("P low: apply ~%.1f kg TSP/SP-36 per tree", dose))
	case p > targetP[1]:
		rec = append(rec, "P high: reduce phosphate for now")
	}

	switch {
	case k < targetK[0]:
		dose := math.Max(0.5, utils.RoundTo(float64(targetK[0]-k)/10, 1))
		rec = append(rec, fmt.Sprintf("K low: apply ~%.1f kg MOP/KCl per tree", dose))
	case k > targetK[1]:
		rec = append(rec, "K high: avoid potassium fertilizer")
	}

	if len(rec) == 0 {
		rec = append(rec, "Status good: keep the maintenance dose.")
	}
	return rec
}
