// README: Lifecycle controller tests over the in-memory store.
package trip

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops/internal/config"
	"fleetops/internal/modules/costing"
	"fleetops/internal/modules/fleet"
	"fleetops/internal/types"
)

// fixedRouter returns a constant distance for every leg.
type fixedRouter struct {
	km  float64
	err error
}

func (r fixedRouter) DistanceKm(ctx context.Context, from, to types.Point) (float64, error) {
	return r.km, r.err
}

type recordedEarning struct {
	driverID types.ID
	amount   int64
}

type fakePayroll struct {
	earnings []recordedEarning
}

func (p *fakePayroll) RecordEarning(ctx context.Context, driverID, tripID types.ID, serial, date string, distanceKm float64, amount int64) error {
	p.earnings = append(p.earnings, recordedEarning{driverID: driverID, amount: amount})
	return nil
}

func newTestService(store *MemStore, router costing.Router) *Service {
	log := zerolog.Nop()
	return NewService(store, costing.NewService(router, log), router, nil, nil, config.MergeConfig{}, "LKR", log)
}

func seedFleet(store *MemStore) {
	store.SeedVehicle(&fleet.Vehicle{ID: "v1", Name: "Bus 1", Seats: 30, RatePerKm: 50, LicenseClass: "C", Status: fleet.StatusAvailable})
	store.SeedVehicle(&fleet.Vehicle{ID: "v2", Name: "Van 2", Seats: 10, RatePerKm: 80, LicenseClass: "A", Status: fleet.StatusAvailable})
	store.SeedDriver(&fleet.Driver{ID: "d1", Name: "Driver One", LicenseClass: "C", Status: fleet.StatusAvailable})
	store.SeedDriver(&fleet.Driver{ID: "d2", Name: "Driver Two", LicenseClass: "B", Status: fleet.StatusAvailable})
	store.SeedDriver(&fleet.Driver{ID: "d3", Name: "Driver Three", LicenseClass: "D", Status: fleet.StatusAvailable})
}

func seedPendingTrip(t *testing.T, store *MemStore, id types.ID, date, distance string) *Trip {
	t.Helper()
	tr := &Trip{
		ID:           id,
		Status:       StatusPending,
		Date:         date,
		Passengers:   4,
		Pickup:       "Colombo - Fort",
		PickupCoords: &types.Point{Lat: 6.9344, Lng: 79.8428},
		Destination:  "Kandy - Centre",
		DestCoords:   &types.Point{Lat: 7.2906, Lng: 80.6337},
		Distance:     distance,
		Currency:     "LKR",
	}
	require.NoError(t, store.Create(context.Background(), tr))
	return tr
}

func TestApproveHappyPath(t *testing.T) {
	store := NewMemStore()
	seedFleet(store)
	seedPendingTrip(t, store, "t1", "2025-06-01", "100 km")
	svc := newTestService(store, fixedRouter{})
	ctx := context.Background()

	err := svc.Approve(ctx, ApproveCommand{TripID: "t1", VehicleID: "v1", DriverID: "d1", AdminEmail: "admin@fleet.lk"})
	require.NoError(t, err)

	got, err := store.Trip(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got.Status)
	assert.True(t, strings.HasPrefix(got.SerialNo, "N-"), "serial %q", got.SerialNo)
	assert.Equal(t, types.ID("v1"), got.VehicleID)
	assert.Equal(t, types.ID("d1"), got.DriverID)
	assert.Equal(t, int64(5000), got.Cost) // 100 km * 50/km
	assert.Equal(t, "admin@fleet.lk", got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)

	v := store.VehicleState("v1")
	assert.Equal(t, fleet.StatusInUse, v.Status)
	assert.Equal(t, types.ID("t1"), v.CurrentTripID)
	d := store.DriverState("d1")
	assert.Equal(t, fleet.StatusInUse, d.Status)
	assert.Equal(t, types.ID("t1"), d.CurrentTripID)
}

func TestApproveValidation(t *testing.T) {
	store := NewMemStore()
	seedFleet(store)
	seedPendingTrip(t, store, "t1", "2025-06-01", "100 km")
	svc := newTestService(store, fixedRouter{})
	ctx := context.Background()

	// missing selection
	err := svc.Approve(ctx, ApproveCommand{TripID: "t1", VehicleID: "", DriverID: "d1"})
	assert.ErrorIs(t, err, ErrBadRequest)

	// license mismatch: class B driver on a class C vehicle
	err = svc.Approve(ctx, ApproveCommand{TripID: "t1", VehicleID: "v1", DriverID: "d2"})
	assert.ErrorIs(t, err, ErrLicenseMismatch)

	// no mutation happened
	got, err := store.Trip(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Empty(t, got.SerialNo)
}

func TestApproveConflictingUnit(t *testing.T) {
	store := NewMemStore()
	seedFleet(store)
	// v1/d1 already bound to an approved trip on the same date
	other := seedPendingTrip(t, store, "t0", "2025-06-01", "50 km")
	other.Status = StatusApproved
	other.VehicleID = "v1"
	other.DriverID = "d1"
	require.NoError(t, store.RunTransaction(context.Background(), func(tx Tx) error {
		tx.PutTrip(other)
		return nil
	}))
	seedPendingTrip(t, store, "t1", "2025-06-01", "100 km")
	svc := newTestService(store, fixedRouter{})

	err := svc.Approve(context.Background(), ApproveCommand{TripID: "t1", VehicleID: "v1", DriverID: "d3"})
	assert.ErrorIs(t, err, ErrUnavailable)

	// a different date is fine
	seedPendingTrip(t, store, "t2", "2025-06-02", "100 km")
	err = svc.Approve(context.Background(), ApproveCommand{TripID: "t2", VehicleID: "v2", DriverID: "d3"})
	assert.NoError(t, err)
}

func TestRejectRequiresReason(t *testing.T) {
	store := NewMemStore()
	seedPendingTrip(t, store, "t1", "2025-06-01", "100 km")
	svc := newTestService(store, fixedRouter{})
	ctx := context.Background()

	assert.ErrorIs(t, svc.Reject(ctx, RejectCommand{TripID: "t1"}), ErrBadRequest)

	require.NoError(t, svc.Reject(ctx, RejectCommand{TripID: "t1", Reason: "no vehicles", AdminEmail: "admin@fleet.lk"}))
	got, _ := store.Trip(ctx, "t1")
	assert.Equal(t, StatusRejected, got.Status)
	assert.Equal(t, "no vehicles", got.RejectReason)

	// rejecting twice is an invalid transition
	assert.ErrorIs(t, svc.Reject(ctx, RejectCommand{TripID: "t1", Reason: "again"}), ErrInvalidState)
}

func TestCompleteReleasesUnitsAndRecordsPayroll(t *testing.T) {
	store := NewMemStore()
	seedFleet(store)
	seedPendingTrip(t, store, "t1", "2025-06-01", "100 km")
	pay := &fakePayroll{}
	log := zerolog.Nop()
	svc := NewService(store, costing.NewService(fixedRouter{}, log), fixedRouter{}, nil, pay, config.MergeConfig{}, "LKR", log)
	ctx := context.Background()

	require.NoError(t, svc.Approve(ctx, ApproveCommand{TripID: "t1", VehicleID: "v1", DriverID: "d1"}))
	require.NoError(t, svc.Start(ctx, StartCommand{TripID: "t1", OdometerStart: 12000}))
	require.NoError(t, svc.Complete(ctx, CompleteCommand{TripID: "t1"}))

	got, _ := store.Trip(ctx, "t1")
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, float64(12000), got.OdometerStart)

	assert.Equal(t, fleet.StatusAvailable, store.VehicleState("v1").Status)
	assert.Equal(t, types.ID(""), store.DriverState("d1").CurrentTripID)

	require.Len(t, pay.earnings, 1)
	assert.Equal(t, types.ID("d1"), pay.earnings[0].driverID)
	assert.Equal(t, int64(5000), pay.earnings[0].amount)
}

func TestReassignFlow(t *testing.T) {
	store := NewMemStore()
	seedFleet(store)
	seedPendingTrip(t, store, "t1", "2025-06-01", "100 km")
	svc := newTestService(store, fixedRouter{km: 20})
	ctx := context.Background()

	require.NoError(t, svc.Approve(ctx, ApproveCommand{TripID: "t1", VehicleID: "v1", DriverID: "d1"}))
	require.NoError(t, svc.Start(ctx, StartCommand{TripID: "t1", OdometerStart: 100}))
	require.NoError(t, svc.ReportBreakdown(ctx, BreakdownCommand{
		TripID:       "t1",
		Location:     &types.Point{Lat: 6.9, Lng: 79.9},
		LocationName: "Kadawatha",
		Odometer:     160,
	}))

	start := &types.Point{Lat: 6.95, Lng: 79.95}
	err := svc.Reassign(ctx, ReassignCommand{
		TripID:        "t1",
		VehicleID:     "v2",
		DriverID:      "d3",
		StartLocation: start,
		StartName:     "Depot 2",
		AdminEmail:    "admin@fleet.lk",
	})
	require.NoError(t, err)

	got, _ := store.Trip(ctx, "t1")
	assert.Equal(t, StatusReassigned, got.Status)
	assert.True(t, strings.HasPrefix(got.SerialNo, "B-"), "serial %q", got.SerialNo)
	assert.Equal(t, types.ID("v2"), got.VehicleID)
	assert.Equal(t, types.ID("d3"), got.DriverID)
	require.NotNil(t, got.Breakdown)
	// odometer delta 60 km at 50/km
	assert.Equal(t, int64(3000), got.Breakdown.CostOriginal)
	// routed 20 + 20 km at 80/km
	assert.Equal(t, int64(3200), got.Breakdown.CostReplacement)
	assert.Equal(t, int64(6200), got.Cost)

	assert.Equal(t, fleet.StatusInMaintenance, store.VehicleState("v1").Status)
	assert.Equal(t, fleet.StatusAvailable, store.DriverState("d1").Status)
	assert.Equal(t, fleet.StatusInUse, store.VehicleState("v2").Status)
	assert.Equal(t, types.ID("t1"), store.DriverState("d3").CurrentTripID)
}

func TestReassignBlockedOnZeroReplacementCost(t *testing.T) {
	store := NewMemStore()
	seedFleet(store)
	seedPendingTrip(t, store, "t1", "2025-06-01", "100 km")
	// router resolves every leg to 0
	svc := newTestService(store, fixedRouter{km: 0})
	ctx := context.Background()

	require.NoError(t, svc.Approve(ctx, ApproveCommand{TripID: "t1", VehicleID: "v1", DriverID: "d1"}))
	require.NoError(t, svc.ReportBreakdown(ctx, BreakdownCommand{TripID: "t1", Location: &types.Point{Lat: 6.9, Lng: 79.9}, Odometer: 160}))

	err := svc.Reassign(ctx, ReassignCommand{
		TripID:        "t1",
		VehicleID:     "v2",
		DriverID:      "d3",
		StartLocation: &types.Point{Lat: 6.95, Lng: 79.95},
	})
	assert.ErrorIs(t, err, ErrZeroCost)

	// missing start location is blocked before any quote
	err = svc.Reassign(ctx, ReassignCommand{TripID: "t1", VehicleID: "v2", DriverID: "d3"})
	assert.ErrorIs(t, err, ErrBadRequest)

	got, _ := store.Trip(ctx, "t1")
	assert.Equal(t, StatusBrokenDown, got.Status)
}

func TestReassignDoesNotClobberReassignedDriver(t *testing.T) {
	store := NewMemStore()
	seedFleet(store)
	seedPendingTrip(t, store, "t1", "2025-06-01", "100 km")
	svc := newTestService(store, fixedRouter{km: 20})
	ctx := context.Background()

	require.NoError(t, svc.Approve(ctx, ApproveCommand{TripID: "t1", VehicleID: "v1", DriverID: "d1"}))
	require.NoError(t, svc.ReportBreakdown(ctx, BreakdownCommand{TripID: "t1", Location: &types.Point{Lat: 6.9, Lng: 79.9}, Odometer: 160}))

	// d1 was meanwhile put on another trip
	store.SeedDriver(&fleet.Driver{ID: "d1", Name: "Driver One", LicenseClass: "C", Status: fleet.StatusInUse, CurrentTripID: "elsewhere"})

	require.NoError(t, svc.Reassign(ctx, ReassignCommand{
		TripID:        "t1",
		VehicleID:     "v2",
		DriverID:      "d3",
		StartLocation: &types.Point{Lat: 6.95, Lng: 79.95},
	}))

	// the concurrent assignment survives
	d := store.DriverState("d1")
	assert.Equal(t, fleet.StatusInUse, d.Status)
	assert.Equal(t, types.ID("elsewhere"), d.CurrentTripID)
}

func TestCancelBreakdown(t *testing.T) {
	store := NewMemStore()
	seedFleet(store)
	seedPendingTrip(t, store, "t1", "2025-06-01", "100 km")
	svc := newTestService(store, fixedRouter{km: 20})
	ctx := context.Background()

	require.NoError(t, svc.Approve(ctx, ApproveCommand{TripID: "t1", VehicleID: "v1", DriverID: "d1"}))
	require.NoError(t, svc.ReportBreakdown(ctx, BreakdownCommand{TripID: "t1", Odometer: 160}))
	require.NoError(t, svc.CancelBreakdown(ctx, CancelBreakdownCommand{TripID: "t1", AdminEmail: "admin@fleet.lk"}))

	got, _ := store.Trip(ctx, "t1")
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Nil(t, got.Breakdown)
	assert.Equal(t, "admin@fleet.lk", got.CancelledBy)

	assert.Equal(t, fleet.StatusAvailable, store.DriverState("d1").Status)
	assert.Equal(t, fleet.StatusInMaintenance, store.VehicleState("v1").Status)
}

func TestSubmitValidation(t *testing.T) {
	store := NewMemStore()
	svc := newTestService(store, fixedRouter{km: 50})
	ctx := context.Background()

	_, err := svc.Submit(ctx, SubmitCommand{Date: "2025-06-01", Pickup: "Colombo"})
	assert.ErrorIs(t, err, ErrBadRequest)

	id, err := svc.Submit(ctx, SubmitCommand{
		Date:         "2025-06-01",
		Passengers:   3,
		Pickup:       "Colombo",
		PickupCoords: &types.Point{Lat: 6.93, Lng: 79.85},
		Destination:  "Kandy",
		DestCoords:   &types.Point{Lat: 7.29, Lng: 80.63},
	})
	require.NoError(t, err)

	got, err := store.Trip(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "50 km", got.Distance)
}
