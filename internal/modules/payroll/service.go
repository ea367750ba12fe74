// README: Payroll service: earnings per completed trip and mark-paid.
package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fleetops/internal/types"
)

var ErrBadRequest = errors.New("bad request")

type Service struct {
	store    Store
	currency string
}

func NewService(store Store, currency string) *Service {
	if currency == "" {
		currency = types.DefaultCurrency
	}
	return &Service{store: store, currency: currency}
}

// RecordEarning appends an earning row for a completed trip. Satisfies the
// trip module's PayrollRecorder.
func (s *Service) RecordEarning(ctx context.Context, driverID, tripID types.ID, serial, date string, distanceKm float64, amount int64) error {
	if driverID == "" || tripID == "" {
		return ErrBadRequest
	}
	return s.store.Append(ctx, &Earning{
		ID:         types.ID(uuid.NewString()),
		DriverID:   driverID,
		TripID:     tripID,
		TripSerial: serial,
		TripDate:   date,
		DistanceKm: distanceKm,
		Amount:     amount,
		Currency:   s.currency,
		CreatedAt:  time.Now(),
	})
}

// ForDriver lists a driver's earnings, optionally restricted to a date range
// (inclusive, YYYY-MM-DD strings; empty bounds are open).
func (s *Service) ForDriver(ctx context.Context, driverID types.ID, from, to string) ([]*Earning, error) {
	if driverID == "" {
		return nil, ErrBadRequest
	}
	all, err := s.store.ByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	var out []*Earning
	for _, e := range all {
		if from != "" && e.TripDate < from {
			continue
		}
		if to != "" && e.TripDate > to {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *Service) MarkPaid(ctx context.Context, id types.ID) error {
	if id == "" {
		return ErrBadRequest
	}
	return s.store.MarkPaid(ctx, id, time.Now())
}
