// README: Cost estimator tests.
package costing

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"fleetops/internal/types"
)

type stubRouter struct {
	km  float64
	err error
}

func (r stubRouter) DistanceKm(ctx context.Context, from, to types.Point) (float64, error) {
	return r.km, r.err
}

func TestSimple(t *testing.T) {
	cases := []struct {
		name string
		km   float64
		rate float64
		want int64
	}{
		{"normal", 100, 50, 5000},
		{"rounded up", 10.5, 3, 32},
		{"rounded down", 10.4, 3, 31},
		{"zero distance", 0, 50, 0},
		{"negative distance", -10, 50, 0},
		{"zero rate", 100, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Simple(tc.km, tc.rate))
		})
	}
}

func TestReassignmentQuoteOdometerPath(t *testing.T) {
	svc := NewService(stubRouter{km: 999}, zerolog.Nop()) // router must not win
	pickup := &types.Point{Lat: 6.9, Lng: 79.8}
	broke := &types.Point{Lat: 7.0, Lng: 80.0}

	q := svc.ReassignmentQuote(context.Background(), ReassignmentInput{
		OdometerStart:        12000,
		OdometerAtFailure:    12060,
		Pickup:               pickup,
		BreakdownLocation:    broke,
		OriginalRatePerKm:    50,
		ReplacementRatePerKm: 80,
	})

	assert.Equal(t, float64(60), q.OriginalKm)
	assert.Equal(t, int64(3000), q.CostOriginal)
}

func TestReassignmentQuoteRoutedFallback(t *testing.T) {
	svc := NewService(stubRouter{km: 40}, zerolog.Nop())
	pickup := &types.Point{Lat: 6.9, Lng: 79.8}
	broke := &types.Point{Lat: 7.0, Lng: 80.0}
	dest := &types.Point{Lat: 7.3, Lng: 80.6}
	start := &types.Point{Lat: 6.95, Lng: 79.9}

	// odometer readings absent: original leg falls back to routing
	q := svc.ReassignmentQuote(context.Background(), ReassignmentInput{
		Pickup:               pickup,
		BreakdownLocation:    broke,
		Destination:          dest,
		ReplacementStart:     start,
		OriginalRatePerKm:    50,
		ReplacementRatePerKm: 80,
	})

	assert.Equal(t, float64(40), q.OriginalKm)
	assert.Equal(t, int64(2000), q.CostOriginal)
	assert.Equal(t, float64(40), q.EmptyLegKm)
	assert.Equal(t, float64(40), q.RemainingKm)
	assert.Equal(t, int64(6400), q.CostReplacement)
	assert.Equal(t, int64(8400), q.Total())
}

func TestReassignmentQuoteDegradesToZero(t *testing.T) {
	svc := NewService(stubRouter{err: errors.New("quota exceeded")}, zerolog.Nop())
	broke := &types.Point{Lat: 7.0, Lng: 80.0}

	// no odometer data, routing failing, no pickup: everything costs 0
	q := svc.ReassignmentQuote(context.Background(), ReassignmentInput{
		BreakdownLocation:    broke,
		ReplacementStart:     &types.Point{Lat: 6.95, Lng: 79.9},
		OriginalRatePerKm:    50,
		ReplacementRatePerKm: 80,
	})

	assert.Zero(t, q.CostOriginal)
	assert.Zero(t, q.CostReplacement)
	assert.Zero(t, q.Total())
}

func TestReassignmentQuoteNegativeOdometerDelta(t *testing.T) {
	svc := NewService(nil, zerolog.Nop())

	q := svc.ReassignmentQuote(context.Background(), ReassignmentInput{
		OdometerStart:        12060,
		OdometerAtFailure:    12000,
		OriginalRatePerKm:    50,
		ReplacementRatePerKm: 80,
	})
	assert.Zero(t, q.OriginalKm)
	assert.Zero(t, q.CostOriginal)
}

func TestMergeCost(t *testing.T) {
	// default policy freezes the master's pre-merge cost
	assert.Equal(t, int64(5000), MergeCost(5000, false, 180, 50))
	// recompute re-estimates over the combined distance
	assert.Equal(t, int64(9000), MergeCost(5000, true, 180, 50))
	assert.Equal(t, int64(0), MergeCost(5000, true, 0, 50))
}
