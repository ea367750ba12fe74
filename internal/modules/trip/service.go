// README: Trip lifecycle controller: approval, breakdown reassignment, and merge negotiation.
package trip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fleetops/internal/audit"
	"fleetops/internal/config"
	"fleetops/internal/modules/costing"
	"fleetops/internal/modules/fleet"
	"fleetops/internal/types"
)

var (
	ErrNotFound        = errors.New("trip not found")
	ErrInvalidState    = errors.New("invalid state transition")
	ErrConflict        = errors.New("trip state conflict")
	ErrBadRequest      = errors.New("bad request")
	ErrLicenseMismatch = errors.New("driver license does not qualify for vehicle")
	ErrUnavailable     = errors.New("vehicle or driver unavailable on trip date")
	ErrZeroCost        = errors.New("replacement cost unresolved")
	ErrCapacity        = errors.New("vehicle capacity below combined passengers")
)

// PayrollRecorder appends a driver earning when a trip completes. Failures do
// not fail the completion.
type PayrollRecorder interface {
	RecordEarning(ctx context.Context, driverID, tripID types.ID, serial, date string, distanceKm float64, amount int64) error
}

type Service struct {
	store    Store
	cost     *costing.Service
	router   costing.Router
	audit    *audit.Sink
	payroll  PayrollRecorder
	log      zerolog.Logger
	merge    config.MergeConfig
	currency string
}

func NewService(store Store, cost *costing.Service, router costing.Router, sink *audit.Sink, payroll PayrollRecorder, merge config.MergeConfig, currency string, log zerolog.Logger) *Service {
	if currency == "" {
		currency = types.DefaultCurrency
	}
	return &Service{
		store:    store,
		cost:     cost,
		router:   router,
		audit:    sink,
		payroll:  payroll,
		log:      log,
		merge:    merge,
		currency: currency,
	}
}

type SubmitCommand struct {
	RequestedBy  string
	Date         string
	Time         string
	Passengers   int
	Pickup       string
	PickupCoords *types.Point
	Stops        []string
	StopCoords   []types.Point
	Destination  string
	DestCoords   *types.Point
}

type ApproveCommand struct {
	TripID     types.ID
	VehicleID  types.ID
	DriverID   types.ID
	AdminEmail string
}

type RejectCommand struct {
	TripID     types.ID
	Reason     string
	AdminEmail string
}

type StartCommand struct {
	TripID        types.ID
	OdometerStart float64
}

type CompleteCommand struct {
	TripID types.ID
}

type BreakdownCommand struct {
	TripID       types.ID
	Location     *types.Point
	LocationName string
	Odometer     float64
}

type ReassignCommand struct {
	TripID        types.ID
	VehicleID     types.ID
	DriverID      types.ID
	StartLocation *types.Point
	StartName     string
	AdminEmail    string
}

type CancelBreakdownCommand struct {
	TripID     types.ID
	AdminEmail string
}

type ProposeMergeCommand struct {
	CandidateTripID types.ID
	VehicleID       types.ID
	DriverID        types.ID
	Message         string
	AdminEmail      string
}

// Party identifies which side of a merge pair a consent belongs to.
type Party string

const (
	PartyMaster    Party = "master"
	PartyCandidate Party = "candidate"
)

type ConsentCommand struct {
	TripID types.ID
	Party  Party
	Accept bool
}

type FinalizeMergeCommand struct {
	MasterTripID types.ID
	AdminEmail   string
}

type CancelMergeCommand struct {
	TripID     types.ID
	AdminEmail string
}

// Submit creates a pending trip request. Distance is routed best-effort over
// pickup → stops → destination; routing failure leaves it empty.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (types.ID, error) {
	if cmd.Date == "" || cmd.Pickup == "" || cmd.Destination == "" || cmd.Passengers <= 0 {
		return "", ErrBadRequest
	}
	t := &Trip{
		ID:           types.ID(uuid.NewString()),
		Status:       StatusPending,
		Date:         cmd.Date,
		Time:         cmd.Time,
		Passengers:   cmd.Passengers,
		RequestedBy:  cmd.RequestedBy,
		Pickup:       cmd.Pickup,
		PickupCoords: cmd.PickupCoords,
		Stops:        cmd.Stops,
		StopCoords:   cmd.StopCoords,
		Destination:  cmd.Destination,
		DestCoords:   cmd.DestCoords,
		Currency:     s.currency,
		CreatedAt:    time.Now(),
	}
	if km := s.routeKm(ctx, t); km > 0 {
		t.Distance = fmt.Sprintf("%.0f km", km)
	}
	if err := s.store.Create(ctx, t); err != nil {
		return "", err
	}
	return t.ID, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Trip, error) {
	return s.store.Trip(ctx, id)
}

func (s *Service) ByStatus(ctx context.Context, statuses ...Status) ([]*Trip, error) {
	return s.store.ByStatus(ctx, statuses...)
}

// Approve assigns a vehicle and qualified driver to a pending trip. The
// license and availability checks run again at confirm time inside the
// transaction; a UI that filtered correctly still cannot approve a stale
// selection.
func (s *Service) Approve(ctx context.Context, cmd ApproveCommand) error {
	if cmd.VehicleID == "" || cmd.DriverID == "" {
		return ErrBadRequest
	}

	conflicts, err := s.store.ByStatus(ctx, ConflictStatuses...)
	if err != nil {
		return err
	}

	serial, err := s.store.NextSerial(ctx, SerialNormal)
	if err != nil {
		return err
	}

	err = s.store.RunTransaction(ctx, func(tx Tx) error {
		t, err := tx.Trip(cmd.TripID)
		if err != nil {
			return err
		}
		next, ok := Next(t.Status, ActionApprove)
		if !ok {
			return ErrInvalidState
		}
		v, err := tx.Vehicle(cmd.VehicleID)
		if err != nil {
			return err
		}
		d, err := tx.Driver(cmd.DriverID)
		if err != nil {
			return err
		}
		if !fleet.Qualifies(d.LicenseClass, v.LicenseClass) {
			return ErrLicenseMismatch
		}
		if v.Status == fleet.StatusInMaintenance || d.Status == fleet.StatusInMaintenance {
			return ErrUnavailable
		}
		busyVehicles, busyDrivers := Conflicting(conflicts, t.Date)
		if busyVehicles[v.ID] || busyDrivers[d.ID] {
			return ErrUnavailable
		}

		now := time.Now()
		t.Status = next
		t.SerialNo = serial
		t.VehicleID = v.ID
		t.DriverID = d.ID
		t.Cost = costing.Simple(t.DistanceKm(), v.RatePerKm)
		t.Currency = s.currency
		t.ApprovedBy = cmd.AdminEmail
		t.ApprovedAt = &now

		v.Status = fleet.StatusInUse
		v.CurrentTripID = t.ID
		d.Status = fleet.StatusInUse
		d.CurrentTripID = t.ID

		tx.PutTrip(t)
		tx.PutVehicle(v)
		tx.PutDriver(d)
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(audit.Entry{
		AdminEmail: cmd.AdminEmail,
		Section:    "trips",
		Action:     "approve",
		Details:    "trip approved with serial " + serial,
		TargetID:   string(cmd.TripID),
	})
	return nil
}

// Reject marks a pending trip rejected with the admin's reason. No resource
// side effects.
func (s *Service) Reject(ctx context.Context, cmd RejectCommand) error {
	if cmd.Reason == "" {
		return ErrBadRequest
	}
	err := s.store.RunTransaction(ctx, func(tx Tx) error {
		t, err := tx.Trip(cmd.TripID)
		if err != nil {
			return err
		}
		next, ok := Next(t.Status, ActionReject)
		if !ok {
			return ErrInvalidState
		}
		now := time.Now()
		t.Status = next
		t.RejectedBy = cmd.AdminEmail
		t.RejectedAt = &now
		t.RejectReason = cmd.Reason
		tx.PutTrip(t)
		return nil
	})
	if err != nil {
		return err
	}
	s.audit.Record(audit.Entry{
		AdminEmail: cmd.AdminEmail,
		Section:    "trips",
		Action:     "reject",
		Details:    cmd.Reason,
		TargetID:   string(cmd.TripID),
	})
	return nil
}

// Start moves an approved or reassigned trip in progress and records the
// odometer reading the split cost may later need.
func (s *Service) Start(ctx context.Context, cmd StartCommand) error {
	return s.store.RunTransaction(ctx, func(tx Tx) error {
		t, err := tx.Trip(cmd.TripID)
		if err != nil {
			return err
		}
		next, ok := Next(t.Status, ActionStart)
		if !ok {
			return ErrInvalidState
		}
		now := time.Now()
		t.Status = next
		t.OdometerStart = cmd.OdometerStart
		t.StartedAt = &now
		tx.PutTrip(t)
		return nil
	})
}

// Complete finishes a trip, releases its vehicle and driver (only if they
// still point at this trip), and records the driver's earning.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) error {
	var done *Trip
	err := s.store.RunTransaction(ctx, func(tx Tx) error {
		t, err := tx.Trip(cmd.TripID)
		if err != nil {
			return err
		}
		next, ok := Next(t.Status, ActionComplete)
		if !ok {
			return ErrInvalidState
		}
		now := time.Now()
		t.Status = next
		t.CompletedAt = &now
		tx.PutTrip(t)
		s.releaseUnits(tx, t, fleet.StatusAvailable)
		done = t
		return nil
	})
	if err != nil {
		return err
	}
	if s.payroll != nil && done.DriverID != "" {
		if err := s.payroll.RecordEarning(ctx, done.DriverID, done.ID, done.SerialNo, done.Date, done.DistanceKm(), done.Cost); err != nil {
			s.log.Warn().Err(err).Str("trip", string(done.ID)).Msg("payroll record failed")
		}
	}
	return nil
}

// ReportBreakdown consumes the driver-side failure report.
func (s *Service) ReportBreakdown(ctx context.Context, cmd BreakdownCommand) error {
	return s.store.RunTransaction(ctx, func(tx Tx) error {
		t, err := tx.Trip(cmd.TripID)
		if err != nil {
			return err
		}
		next, ok := Next(t.Status, ActionBreakdown)
		if !ok {
			return ErrInvalidState
		}
		t.Status = next
		t.Breakdown = &Breakdown{
			Location:          cmd.Location,
			LocationName:      cmd.LocationName,
			OdometerAtFailure: cmd.Odometer,
			ReportedAt:        time.Now(),
			OriginalVehicleID: t.VehicleID,
			OriginalDriverID:  t.DriverID,
		}
		tx.PutTrip(t)
		return nil
	})
}

// Reassign replaces the vehicle and driver of a broken-down trip. The split
// cost is quoted before the transaction; a zero replacement cost blocks the
// whole operation. The original driver is released only if still bound to
// this trip, and the original vehicle goes to maintenance.
func (s *Service) Reassign(ctx context.Context, cmd ReassignCommand) error {
	if cmd.VehicleID == "" || cmd.DriverID == "" {
		return ErrBadRequest
	}
	if cmd.StartLocation == nil {
		return ErrBadRequest
	}

	t, err := s.store.Trip(ctx, cmd.TripID)
	if err != nil {
		return err
	}
	if _, ok := Next(t.Status, ActionReassign); !ok {
		return ErrInvalidState
	}
	if t.Breakdown == nil {
		return ErrInvalidState
	}

	var origRate, newRate float64
	err = s.store.RunTransaction(ctx, func(tx Tx) error {
		if t.Breakdown.OriginalVehicleID != "" {
			if ov, err := tx.Vehicle(t.Breakdown.OriginalVehicleID); err == nil {
				origRate = ov.RatePerKm
			}
		}
		nv, err := tx.Vehicle(cmd.VehicleID)
		if err != nil {
			return err
		}
		newRate = nv.RatePerKm
		return nil
	})
	if err != nil {
		return err
	}

	quote := s.cost.ReassignmentQuote(ctx, costing.ReassignmentInput{
		OdometerStart:        t.OdometerStart,
		OdometerAtFailure:    t.Breakdown.OdometerAtFailure,
		Pickup:               t.PickupCoords,
		BreakdownLocation:    t.Breakdown.Location,
		Destination:          t.DestCoords,
		ReplacementStart:     cmd.StartLocation,
		OriginalRatePerKm:    origRate,
		ReplacementRatePerKm: newRate,
	})
	if quote.CostReplacement == 0 {
		return ErrZeroCost
	}

	serial, err := s.store.NextSerial(ctx, SerialBreak)
	if err != nil {
		return err
	}

	err = s.store.RunTransaction(ctx, func(tx Tx) error {
		t, err := tx.Trip(cmd.TripID)
		if err != nil {
			return err
		}
		next, ok := Next(t.Status, ActionReassign)
		if !ok {
			return ErrInvalidState
		}
		if t.Breakdown == nil {
			return ErrInvalidState
		}
		nv, err := tx.Vehicle(cmd.VehicleID)
		if err != nil {
			return err
		}
		nd, err := tx.Driver(cmd.DriverID)
		if err != nil {
			return err
		}
		if !fleet.Qualifies(nd.LicenseClass, nv.LicenseClass) {
			return ErrLicenseMismatch
		}

		// Release the original driver only when the live document still
		// references this trip; a concurrent reassignment elsewhere must
		// not be clobbered.
		if t.Breakdown.OriginalDriverID != "" {
			od, err := tx.Driver(t.Breakdown.OriginalDriverID)
			if err == nil && od.CurrentTripID == t.ID {
				od.Status = fleet.StatusAvailable
				od.CurrentTripID = ""
				tx.PutDriver(od)
			}
		}
		if t.Breakdown.OriginalVehicleID != "" {
			ov, err := tx.Vehicle(t.Breakdown.OriginalVehicleID)
			if err == nil {
				if ov.CurrentTripID == t.ID {
					ov.CurrentTripID = ""
				}
				ov.Status = fleet.StatusInMaintenance
				tx.PutVehicle(ov)
			}
		}

		t.Status = next
		t.SerialNo = serial
		t.VehicleID = nv.ID
		t.DriverID = nd.ID
		t.Cost = quote.Total()
		t.Breakdown.CostOriginal = quote.CostOriginal
		t.Breakdown.CostReplacement = quote.CostReplacement
		t.Breakdown.ReplacementStart = cmd.StartLocation
		t.Breakdown.ReplacementStartAt = cmd.StartName

		nv.Status = fleet.StatusInUse
		nv.CurrentTripID = t.ID
		nd.Status = fleet.StatusInUse
		nd.CurrentTripID = t.ID

		tx.PutTrip(t)
		tx.PutVehicle(nv)
		tx.PutDriver(nd)
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(audit.Entry{
		AdminEmail: cmd.AdminEmail,
		Section:    "trips",
		Action:     "reassign",
		Details:    "breakdown reassignment with serial " + serial,
		TargetID:   string(cmd.TripID),
	})
	return nil
}

// CancelBreakdown abandons a broken-down trip: driver released (if still
// bound), vehicle to maintenance, breakdown record cleared.
func (s *Service) CancelBreakdown(ctx context.Context, cmd CancelBreakdownCommand) error {
	err := s.store.RunTransaction(ctx, func(tx Tx) error {
		t, err := tx.Trip(cmd.TripID)
		if err != nil {
			return err
		}
		next, ok := Next(t.Status, ActionCancel)
		if !ok {
			return ErrInvalidState
		}
		if t.DriverID != "" {
			d, err := tx.Driver(t.DriverID)
			if err == nil && d.CurrentTripID == t.ID {
				d.Status = fleet.StatusAvailable
				d.CurrentTripID = ""
				tx.PutDriver(d)
			}
		}
		if t.VehicleID != "" {
			v, err := tx.Vehicle(t.VehicleID)
			if err == nil {
				if v.CurrentTripID == t.ID {
					v.CurrentTripID = ""
				}
				v.Status = fleet.StatusInMaintenance
				tx.PutVehicle(v)
			}
		}
		now := time.Now()
		t.Status = next
		t.CancelledBy = cmd.AdminEmail
		t.CancelledAt = &now
		t.Breakdown = nil
		tx.PutTrip(t)
		return nil
	})
	if err != nil {
		return err
	}
	s.audit.Record(audit.Entry{
		AdminEmail: cmd.AdminEmail,
		Section:    "trips",
		Action:     "cancel_breakdown",
		TargetID:   string(cmd.TripID),
	})
	return nil
}

func (s *Service) releaseUnits(tx Tx, t *Trip, to fleet.UnitStatus) {
	if t.DriverID != "" {
		if d, err := tx.Driver(t.DriverID); err == nil && d.CurrentTripID == t.ID {
			d.Status = to
			d.CurrentTripID = ""
			tx.PutDriver(d)
		}
	}
	if t.VehicleID != "" {
		if v, err := tx.Vehicle(t.VehicleID); err == nil && v.CurrentTripID == t.ID {
			v.Status = to
			v.CurrentTripID = ""
			tx.PutVehicle(v)
		}
	}
}

func (s *Service) routeKm(ctx context.Context, t *Trip) float64 {
	if s.router == nil {
		return 0
	}
	points := make([]types.Point, 0, len(t.StopCoords)+2)
	if t.PickupCoords != nil {
		points = append(points, *t.PickupCoords)
	}
	points = append(points, t.StopCoords...)
	if t.DestCoords != nil {
		points = append(points, *t.DestCoords)
	}
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(points); i++ {
		km, err := s.router.DistanceKm(ctx, points[i-1], points[i])
		if err != nil {
			s.log.Warn().Err(err).Msg("submit-time routing failed; distance omitted")
			return 0
		}
		total += km
	}
	return total
}
