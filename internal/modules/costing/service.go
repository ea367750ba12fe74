// README: Cost estimator: simple per-km fares and breakdown split quotes.
package costing

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"fleetops/internal/types"
)

// Router resolves a best-effort driving distance between two points. A zero
// distance (or an error) degrades the dependent cost component to 0.
type Router interface {
	DistanceKm(ctx context.Context, from, to types.Point) (float64, error)
}

type Service struct {
	router Router
	log    zerolog.Logger
}

func NewService(router Router, log zerolog.Logger) *Service {
	return &Service{router: router, log: log}
}

// Simple computes round(distanceKm * ratePerKm). Zero or negative distance
// always yields 0.
func Simple(distanceKm, ratePerKm float64) int64 {
	if distanceKm <= 0 || ratePerKm <= 0 {
		return 0
	}
	return int64(math.Round(distanceKm * ratePerKm))
}

// ReassignmentQuote splits the trip cost at the breakdown point. The original
// leg prefers odometer evidence, falling back to a routed pickup→breakdown
// distance, then to 0. The replacement leg is the routed empty leg plus the
// remaining route, both priced at the new vehicle's rate.
func (s *Service) ReassignmentQuote(ctx context.Context, in ReassignmentInput) ReassignmentQuote {
	var q ReassignmentQuote

	switch {
	case in.OdometerStart != 0 && in.OdometerAtFailure != 0:
		q.OriginalKm = math.Max(0, in.OdometerAtFailure-in.OdometerStart)
	case in.Pickup != nil && in.BreakdownLocation != nil:
		q.OriginalKm = s.routed(ctx, *in.Pickup, *in.BreakdownLocation)
	default:
		s.log.Warn().Msg("no odometer data or breakdown location; original leg costed at 0")
	}
	q.CostOriginal = Simple(q.OriginalKm, in.OriginalRatePerKm)

	if in.BreakdownLocation != nil {
		if in.ReplacementStart != nil {
			q.EmptyLegKm = s.routed(ctx, *in.ReplacementStart, *in.BreakdownLocation)
		}
		if in.Destination != nil {
			q.RemainingKm = s.routed(ctx, *in.BreakdownLocation, *in.Destination)
		}
	}
	q.CostReplacement = Simple(q.EmptyLegKm+q.RemainingKm, in.ReplacementRatePerKm)
	return q
}

// MergeCost fixes the finalized cost of a merged trip. By default it freezes
// the master's pre-merge cost; when recompute is on it re-estimates over the
// combined route distance instead.
func MergeCost(masterPreMergeCost int64, recompute bool, combinedKm, ratePerKm float64) int64 {
	if recompute {
		return Simple(combinedKm, ratePerKm)
	}
	return masterPreMergeCost
}

func (s *Service) routed(ctx context.Context, from, to types.Point) float64 {
	if s.router == nil {
		return 0
	}
	km, err := s.router.DistanceKm(ctx, from, to)
	if err != nil {
		s.log.Error().Err(err).Msg("routing failed; distance degraded to 0")
		return 0
	}
	return km
}
