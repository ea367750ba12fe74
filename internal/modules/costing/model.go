// README: Cost estimator input/output records.
package costing

import "fleetops/internal/types"

// ReassignmentInput describes a breakdown split: the original leg up to the
// failure point and the replacement leg from the new vehicle's start.
type ReassignmentInput struct {
	// Odometer readings are considered recorded when both are non-zero;
	// the original leg is then OdometerAtFailure - OdometerStart, floored
	// at 0.
	OdometerStart     float64
	OdometerAtFailure float64

	Pickup            *types.Point
	BreakdownLocation *types.Point
	Destination       *types.Point
	ReplacementStart  *types.Point

	OriginalRatePerKm    float64
	ReplacementRatePerKm float64
}

// ReassignmentQuote is the computed split. Callers must treat a zero
// CostReplacement as a blocking validation failure before confirming.
type ReassignmentQuote struct {
	OriginalKm      float64
	EmptyLegKm      float64
	RemainingKm     float64
	CostOriginal    int64
	CostReplacement int64
}

func (q ReassignmentQuote) Total() int64 {
	return q.CostOriginal + q.CostReplacement
}
