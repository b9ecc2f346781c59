package services

import (
	"cmp"
	"slices"
	"time"

	"github.com/tbourn/go-collision-alerts/internal/domain"
)

// DefaultAlertThreshold is the minimum probability_of_collision for a record
// to take part in alert aggregation.
const DefaultAlertThreshold = 0.75

// byRisk orders records by probability descending, then collision date
// descending.
func byRisk(a, b domain.Collision) int {
	if c := cmp.Compare(b.ProbabilityOfCollision, a.ProbabilityOfCollision); c != 0 {
		return c
	}
	return b.CollisionDate.Compare(a.CollisionDate)
}

// buildAlerts reduces records to one alert per satellite. Only active
// records with probability >= threshold and a collision date after now
// qualify. The representative of each satellite is its first record under
// byRisk; rows come out in that same order.
func buildAlerts(records []domain.Collision, threshold float64, now time.Time) []domain.CollisionAlert {
	candidates := make([]domain.Collision, 0, len(records))
	for _, c := range records {
		if c.Active() && c.ProbabilityOfCollision >= threshold && c.CollisionDate.After(now) {
			candidates = append(candidates, c)
		}
	}
	slices.SortStableFunc(candidates, byRisk)

	out := []domain.CollisionAlert{}
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.SatelliteID]; dup {
			continue
		}
		seen[c.SatelliteID] = struct{}{}
		out = append(out, domain.CollisionAlert{
			SatelliteID:                   c.SatelliteID,
			HighestProbabilityOfCollision: c.ProbabilityOfCollision,
			EarliestCollisionDate:         c.CollisionDate,
			ChaserObjectID:                c.ChaserObjectID,
		})
	}
	return out
}

// mostRecent returns the record with the latest collision date. Among equal
// dates the earliest created_date wins, then the lowest id, so the choice
// does not depend on the order a store returns rows in. matches must be
// non-empty.
func mostRecent(matches []domain.Collision) domain.Collision {
	sorted := slices.Clone(matches)
	slices.SortFunc(sorted, func(a, b domain.Collision) int {
		if c := b.CollisionDate.Compare(a.CollisionDate); c != 0 {
			return c
		}
		if c := a.CreatedDate.Compare(b.CreatedDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return sorted[0]
}
