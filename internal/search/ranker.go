package search

import (
	"fmt"
	"math"
	"sort"

	"github.com/smoke-finder/search-core/pkg/models"
)

// Tie-break rules for equal-score solutions.
const (
	// TieBreakBounces prefers fewer bounces, then shorter flight.
	TieBreakBounces = "bounces"
	// TieBreakFlightTime prefers shorter flight, then fewer bounces.
	TieBreakFlightTime = "flight_time"
)

// Ranker merges the raw candidates a strategy run produced into the final
// ordered list: sort ascending by score, drop near-duplicates, truncate to
// the caller's requested count.
type Ranker struct {
	// PositionEps is the per-axis origin distance below which two solutions
	// may count as duplicates, in units.
	PositionEps float64
	// AngleEps is the yaw/pitch difference below which two solutions may
	// count as duplicates, in degrees.
	AngleEps float64
	// TieBreak selects the ordering rule for equal scores.
	TieBreak string
}

// NewRanker creates a ranker with the given deduplication epsilons and
// tie-break rule.
func NewRanker(positionEps, angleEps float64, tieBreak string) (*Ranker, error) {
	if positionEps < 0 || angleEps < 0 {
		return nil, fmt.Errorf("dedup epsilons must be non-negative, got %f/%f", positionEps, angleEps)
	}
	switch tieBreak {
	case TieBreakBounces, TieBreakFlightTime:
	default:
		return nil, fmt.Errorf("unknown tie-break rule: %q", tieBreak)
	}
	return &Ranker{PositionEps: positionEps, AngleEps: angleEps, TieBreak: tieBreak}, nil
}

// Rank sorts, deduplicates and truncates candidates. The input slice is not
// modified. Two solutions are duplicates when their configurations differ by
// less than the epsilon in every dimension; the lower-scoring one survives.
func (r *Ranker) Rank(candidates []models.Solution, maxResults int) []models.Solution {
	sorted := make([]models.Solution, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(a, b int) bool {
		return r.less(sorted[a], sorted[b])
	})

	kept := make([]models.Solution, 0, len(sorted))
	for _, candidate := range sorted {
		duplicate := false
		for _, existing := range kept {
			if r.isDuplicate(existing.Config, candidate.Config) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		kept = append(kept, candidate)
		if len(kept) == maxResults {
			break
		}
	}
	return kept
}

// less orders by score ascending, applying the tie-break rule on equal
// scores.
func (r *Ranker) less(a, b models.Solution) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	switch r.TieBreak {
	case TieBreakFlightTime:
		if a.Outcome.FlightTime != b.Outcome.FlightTime {
			return a.Outcome.FlightTime < b.Outcome.FlightTime
		}
		return a.Outcome.Bounces < b.Outcome.Bounces
	default:
		if a.Outcome.Bounces != b.Outcome.Bounces {
			return a.Outcome.Bounces < b.Outcome.Bounces
		}
		return a.Outcome.FlightTime < b.Outcome.FlightTime
	}
}

// isDuplicate reports whether two configurations coincide within the
// epsilons in every dimension: origin axes, yaw and pitch.
func (r *Ranker) isDuplicate(a, b models.LaunchConfiguration) bool {
	if math.Abs(a.Origin.X-b.Origin.X) >= r.PositionEps ||
		math.Abs(a.Origin.Y-b.Origin.Y) >= r.PositionEps ||
		math.Abs(a.Origin.Z-b.Origin.Z) >= r.PositionEps {
		return false
	}
	if math.Abs(models.NormalizeYaw(a.YawDeg-b.YawDeg)) >= r.AngleEps {
		return false
	}
	return math.Abs(a.PitchDeg-b.PitchDeg) < r.AngleEps
}
